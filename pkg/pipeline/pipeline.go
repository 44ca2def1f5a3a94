// Package pipeline runs one partition experiment end to end: load the case,
// cluster every profile, then write partitions, statistics and diagnostics.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/config"
	"github.com/tunogya/hcpart/pkg/data"
	"github.com/tunogya/hcpart/pkg/feature"
	"github.com/tunogya/hcpart/pkg/model"
	"github.com/tunogya/hcpart/pkg/report"
	"github.com/tunogya/hcpart/pkg/summary"
	"github.com/tunogya/hcpart/pkg/worker"
)

// Backend clusters a batch of profiles; results follow the input order
type Backend interface {
	ClusterAll(ctx context.Context, profiles []model.Profile, cfg cluster.Config) ([]*model.ClusteringResult, error)
}

// BackendFunc adapts a function to Backend
type BackendFunc func(ctx context.Context, profiles []model.Profile, cfg cluster.Config) ([]*model.ClusteringResult, error)

// ClusterAll calls f
func (f BackendFunc) ClusterAll(ctx context.Context, profiles []model.Profile, cfg cluster.Config) ([]*model.ClusteringResult, error) {
	return f(ctx, profiles, cfg)
}

// Local returns the in-process backend running on a bounded pool
func Local(pool worker.Config) Backend {
	return BackendFunc(func(ctx context.Context, profiles []model.Profile, cfg cluster.Config) ([]*model.ClusteringResult, error) {
		return worker.ClusterAll(ctx, pool, profiles, cfg)
	})
}

// ProfileSink persists the input profiles; the DuckDB profile repository
// implements it
type ProfileSink interface {
	InsertBatch(ctx context.Context, profiles []model.Profile) error
}

// ResultSink persists results; the DuckDB result repository implements it
type ResultSink interface {
	SaveBatch(ctx context.Context, ids []string, params string, results []*model.ClusteringResult) error
}

// ShapeIndex stores profile shapes; the Milvus client implements it
type ShapeIndex interface {
	Upsert(ctx context.Context, collection string, shapes []model.ProfileShape) error
}

// Source provides the profiles and flows of a case
type Source interface {
	data.ProfileProvider
	data.FlowProvider
}

// Pipeline wires a source, a backend and the optional stores
type Pipeline struct {
	cfg     config.Config
	source  Source
	backend Backend

	profiles   ProfileSink
	sink       ResultSink
	shapes     ShapeIndex
	collection string
}

// New creates a pipeline clustering with backend
func New(cfg config.Config, source Source, backend Backend) *Pipeline {
	return &Pipeline{cfg: cfg, source: source, backend: backend}
}

// WithProfileSink persists the loaded profiles after the run
func (p *Pipeline) WithProfileSink(sink ProfileSink) *Pipeline {
	p.profiles = sink
	return p
}

// WithResultSink persists every result after the run
func (p *Pipeline) WithResultSink(sink ResultSink) *Pipeline {
	p.sink = sink
	return p
}

// WithShapeIndex indexes the reduced profile shapes after the run
func (p *Pipeline) WithShapeIndex(index ShapeIndex, collection string) *Pipeline {
	p.shapes = index
	p.collection = collection
	return p
}

// Outcome summarizes a finished run
type Outcome struct {
	OutputDir string
	Results   []*model.ClusteringResult
	Summaries []model.MethodSummary
	Elapsed   time.Duration
}

// Run executes the experiment. Nothing is written before every profile has
// been clustered.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	cfg, err := p.cfg.Normalized()
	if err != nil {
		return nil, err
	}
	p.cfg = cfg
	start := time.Now()

	profiles, err := p.source.LoadProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	for _, pr := range profiles {
		if err := pr.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", cluster.ErrInvalidValue, err)
		}
	}
	log.Infow("loaded profiles", "profiles", len(profiles), "input", p.cfg.InputDir)

	results, err := p.backend.ClusterAll(ctx, profiles, p.cfg.Cluster)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster profiles: %w", err)
	}

	outDir := p.cfg.OutputDir()
	if err := report.PrepareOutputDir(p.cfg.InputDir, outDir); err != nil {
		return nil, err
	}
	if err := p.writeReports(ctx, report.NewWriter(outDir), profiles, results); err != nil {
		return nil, err
	}
	if err := p.store(ctx, profiles, results); err != nil {
		return nil, err
	}

	stats := collectStats(results)
	out := &Outcome{
		OutputDir: outDir,
		Results:   results,
		Summaries: summary.ByMethod(stats),
		Elapsed:   time.Since(start),
	}
	for _, s := range out.Summaries {
		log.Infof("summary %s", summary.String(s))
	}
	log.Infow("run finished", "output", outDir, "elapsed", out.Elapsed.String())
	return out, nil
}

func (p *Pipeline) writeReports(ctx context.Context, w *report.Writer, profiles []model.Profile, results []*model.ClusteringResult) error {
	assets := make([]model.AssetPartition, len(results))
	for i, r := range results {
		assets[i] = model.NewAssetPartition(profiles[i].Name, r)
	}
	if err := w.WriteAssetPartitions(assets); err != nil {
		return err
	}

	flows, err := p.source.LoadFlows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load flows: %w", err)
	}
	if err := w.WriteFlowPartitions(model.MapFlows(flows, assets)); err != nil {
		return err
	}

	if p.cfg.UniformLen > 0 {
		uniform := make([]model.AssetPartition, len(profiles))
		for i, pr := range profiles {
			uniform[i] = model.NewUniformPartition(pr.Name, p.cfg.UniformLen)
		}
		if err := w.WriteUniformPartitions(uniform); err != nil {
			return err
		}
	}

	stats := collectStats(results)
	if err := w.WriteStats(stats); err != nil {
		return err
	}
	if err := w.WriteMergeErrors(stats); err != nil {
		return err
	}
	if p.cfg.Cluster.CurveErrors {
		if err := w.WriteCurveErrors(stats); err != nil {
			return err
		}
	}
	if err := w.WriteErrorBands(summary.ErrorBands(stats)); err != nil {
		return err
	}
	if err := w.WriteMethodSummary(summary.ByMethod(stats)); err != nil {
		return err
	}

	if p.cfg.Diagnostics.DurationCurves {
		extractor := feature.NewExtractor(p.cfg.Milvus.Dimension)
		var curves []model.DurationCurve
		for i, r := range results {
			if !strings.HasPrefix(profiles[i].Name, p.cfg.Diagnostics.CurvePrefix) {
				continue
			}
			curve, _ := extractor.Extract(p.resultID(profiles[i].Name), profiles[i], r)
			curves = append(curves, curve)
		}
		if err := w.WriteDurationCurves(curves); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) store(ctx context.Context, profiles []model.Profile, results []*model.ClusteringResult) error {
	ids := make([]string, len(results))
	for i := range results {
		ids[i] = p.resultID(profiles[i].Name)
	}

	if p.profiles != nil {
		if err := p.profiles.InsertBatch(ctx, profiles); err != nil {
			return fmt.Errorf("failed to save profiles: %w", err)
		}
	}
	if p.sink != nil {
		if err := p.sink.SaveBatch(ctx, ids, p.cfg.Cluster.Params(), results); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		log.Infow("saved results", "results", len(results))
	}

	if p.shapes != nil {
		extractor := feature.NewExtractor(p.cfg.Milvus.Dimension)
		shapes := make([]model.ProfileShape, len(results))
		for i, r := range results {
			_, shapes[i] = extractor.Extract(ids[i], profiles[i], r)
		}
		if err := p.shapes.Upsert(ctx, p.collection, shapes); err != nil {
			return fmt.Errorf("failed to index shapes: %w", err)
		}
		log.Infow("indexed shapes", "shapes", len(shapes), "collection", p.collection)
	}
	return nil
}

func (p *Pipeline) resultID(profile string) string {
	c := p.cfg.Cluster
	return model.GenerateResultID(profile, string(c.Method), c.Clusters, c.Params())
}

func collectStats(results []*model.ClusteringResult) []model.Stats {
	stats := make([]model.Stats, len(results))
	for i, r := range results {
		stats[i] = r.Stats
	}
	return stats
}
