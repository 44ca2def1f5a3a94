package cluster

import (
	"fmt"

	"github.com/tunogya/hcpart/pkg/model"
)

// Cluster partitions one profile into cfg.Clusters contiguous segments.
// Configuration and data errors are returned before any merge; a target at or
// above the series length yields the identity partition.
func Cluster(p model.Profile, cfg Config) (*model.ClusteringResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkSeries(p); err != nil {
		return nil, err
	}

	cfg = cfg.ForProfile(p.Name)
	cm, err := NewCostModel(cfg, p.Values)
	if err != nil {
		return nil, err
	}
	return NewClusterer(cm, string(cfg.Method)).TrackCurve(cfg.CurveErrors).Run(p, cfg.Clusters)
}

// Clusterer drives the merge engine to a target count. It is agnostic to
// which cost model it holds.
type Clusterer struct {
	model  CostModel
	method string
	curve  bool
}

// NewClusterer creates a controller around a prepared cost model; method is
// only used as a label in the reported statistics
func NewClusterer(cm CostModel, method string) *Clusterer {
	return &Clusterer{model: cm, method: method}
}

// TrackCurve enables the per-merge load duration curve error
func (c *Clusterer) TrackCurve(on bool) *Clusterer {
	c.curve = on
	return c
}

// Run clusters p down to target segments
func (c *Clusterer) Run(p model.Profile, target int) (*model.ClusteringResult, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTarget, target)
	}
	if err := checkSeries(p); err != nil {
		return nil, err
	}

	n := p.Len()
	stats := NewCollector(p.Name, c.method, n)
	engine := NewEngine(p.Values, c.model)
	var curve *CurveTracker
	if c.curve {
		curve = NewCurveTracker(p.Values)
	}

	for engine.Count() > target {
		m, ok := engine.Step()
		if !ok {
			panic(fmt.Sprintf("cluster: engine exhausted at %d segments, target %d", engine.Count(), target))
		}
		stats.Record(m.Cost)
		if curve != nil {
			curve.Apply(m)
			stats.RecordCurve(curve.RMSE())
		}
	}

	partition := engine.Partition()
	if err := partition.Validate(n); err != nil {
		panic(fmt.Sprintf("cluster: invalid partition for %s: %v", p.Name, err))
	}

	final := stats.Finish(partition.Len())
	if final.NumMerges() != len(final.MergeErrors) {
		panic(fmt.Sprintf("cluster: %d merges recorded for %d removed segments",
			len(final.MergeErrors), final.NumMerges()))
	}

	return &model.ClusteringResult{
		Partition:   partition,
		Weights:     partition.Weights(),
		MergeErrors: final.MergeErrors,
		TotalError:  final.TotalError,
		Stats:       final,
	}, nil
}

// checkSeries rejects empty series and values that would poison the costs
func checkSeries(p model.Profile) error {
	if p.Len() == 0 {
		return fmt.Errorf("%w: profile %q", ErrEmptySeries, p.Name)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}
