package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
	"github.com/tunogya/hcpart/pkg/window"
)

var (
	// profilesTotal counts clustered profiles by method and outcome
	profilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hcpart_profiles_total",
		Help: "Total clustered profiles by method and result",
	}, []string{"method", "result"})

	// profileDuration tracks the clustering time of one profile
	profileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hcpart_profile_duration_seconds",
		Help:    "Clustering duration of one profile in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
	}, []string{"method"})

	// mergesTotal counts applied merges
	mergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hcpart_merges_total",
		Help: "Total merges applied by method",
	}, []string{"method"})
)

// Process clusters one profile and fills in the uniform baseline error of
// its statistics
func Process(p model.Profile, cfg cluster.Config) (*model.ClusteringResult, error) {
	method := string(cfg.Method)
	start := time.Now()

	r, err := cluster.Cluster(p, cfg)
	if err != nil {
		profilesTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	r.Stats.UniformError = window.UniformError(p.Values, r.Partition.Len())

	profileDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	profilesTotal.WithLabelValues(method, "ok").Inc()
	mergesTotal.WithLabelValues(method).Add(float64(len(r.MergeErrors)))

	log.Debugw("clustered profile",
		"profile", p.Name,
		"method", method,
		"timesteps", p.Len(),
		"clusters", r.Partition.Len(),
		"total_error", r.TotalError,
		"runtime_sec", r.Stats.RuntimeSec,
	)
	return r, nil
}

// ClusterAll clusters every profile on the local pool; results follow the
// order of profiles
func ClusterAll(ctx context.Context, pool Config, profiles []model.Profile, cfg cluster.Config) ([]*model.ClusteringResult, error) {
	return Map(ctx, pool, profiles, func(_ context.Context, p model.Profile) (*model.ClusteringResult, error) {
		return Process(p, cfg)
	})
}
