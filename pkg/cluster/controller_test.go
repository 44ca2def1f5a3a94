package cluster_test

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
)

// hourlyProfile builds a deterministic demand-like series: a daily sine with
// noise on top of a slow trend
func hourlyProfile(name string, n int, seed int64) model.Profile {
	r := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		daily := math.Sin(2 * math.Pi * float64(i) / 24)
		values[i] = 100 + 0.1*float64(i) + 30*daily + 5*r.NormFloat64()
	}
	return model.NewProfile(name, values)
}

func configFor(m cluster.Method, k int) cluster.Config {
	return cluster.DefaultConfig(m, k)
}

func TestCluster_SegmentCountAndCoverage(t *testing.T) {
	p := hourlyProfile("NL_E_Demand", 48, 1)

	for _, m := range cluster.Methods() {
		t.Run(string(m), func(t *testing.T) {
			for k := 1; k <= p.Len(); k++ {
				res, err := cluster.Cluster(p, configFor(m, k))
				require.NoError(t, err)

				assert.Equal(t, k, res.Partition.Len(), "k=%d", k)
				assert.Len(t, res.Weights, k)

				sum := 0
				for _, w := range res.Weights {
					assert.Positive(t, w)
					sum += w
				}
				assert.Equal(t, p.Len(), sum, "weights must cover the horizon at k=%d", k)
				assert.NoError(t, res.Partition.Validate(p.Len()))
				assert.Len(t, res.MergeErrors, p.Len()-k)
			}
		})
	}
}

func TestCluster_TotalErrorNonDecreasing(t *testing.T) {
	p := hourlyProfile("DE_Solar", 60, 7)

	for _, m := range cluster.Methods() {
		t.Run(string(m), func(t *testing.T) {
			prev := -1.0
			for k := p.Len(); k >= 1; k-- {
				res, err := cluster.Cluster(p, configFor(m, k))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.TotalError, prev, "k=%d", k)
				prev = res.TotalError
			}
		})
	}
}

func TestCluster_Identity(t *testing.T) {
	p := hourlyProfile("FR_E_Demand", 30, 3)

	for _, m := range cluster.Methods() {
		for _, k := range []int{p.Len(), p.Len() + 1, 10 * p.Len()} {
			res, err := cluster.Cluster(p, configFor(m, k))
			require.NoError(t, err)

			assert.Equal(t, p.Len(), res.Partition.Len())
			assert.Zero(t, res.TotalError)
			assert.Empty(t, res.MergeErrors)
			for i, s := range res.Partition {
				assert.Equal(t, 1, s.Weight())
				assert.Equal(t, p.Values[i], s.Value)
			}
			assert.Equal(t, 1.0, res.Stats.CompressionRatio)
		}
	}
}

func TestCluster_Deterministic(t *testing.T) {
	p := hourlyProfile("BE_Wind_Onshore", 200, 11)

	for _, m := range cluster.Methods() {
		t.Run(string(m), func(t *testing.T) {
			cfg := configFor(m, 17)
			first, err := cluster.Cluster(p, cfg)
			require.NoError(t, err)
			second, err := cluster.Cluster(p, cfg)
			require.NoError(t, err)

			assert.Equal(t, first.Partition, second.Partition)
			assert.Equal(t, first.MergeErrors, second.MergeErrors)
			assert.Equal(t, first.TotalError, second.TotalError)
		})
	}
}

func TestCluster_TiesResolveToLowerStart(t *testing.T) {
	// every adjacent pair costs the same; merges must sweep left to right
	p := model.NewProfile("flat", []float64{2, 2, 2, 2, 2, 2})

	res, err := cluster.Cluster(p, configFor(cluster.MethodWard, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1, 1}, res.Weights)
}

func TestCluster_WardStepExample(t *testing.T) {
	p := model.NewProfile("step", []float64{1, 1, 1, 5, 5, 5})

	for _, m := range []cluster.Method{
		cluster.MethodWard, cluster.MethodIntegralCost, cluster.MethodQuantile, cluster.MethodPeaksAndLows,
	} {
		t.Run(string(m), func(t *testing.T) {
			res, err := cluster.Cluster(p, configFor(m, 2))
			require.NoError(t, err)

			assert.Equal(t, model.Partition{
				{Start: 0, End: 3, Value: 1},
				{Start: 3, End: 6, Value: 5},
			}, res.Partition)
			assert.Equal(t, "3;3", res.Partition.String())
			assert.Zero(t, res.TotalError)
		})
	}
}

func TestCluster_PeaksAndLowsKeepsSpike(t *testing.T) {
	p := model.NewProfile("spike", []float64{0, 0, 0, 10, 0, 0, 0})

	// the spike is interior, so it can stay alone down to three segments
	for k := 3; k <= p.Len(); k++ {
		res, err := cluster.Cluster(p, configFor(cluster.MethodPeaksAndLows, k))
		require.NoError(t, err)
		assert.Contains(t, res.Partition, model.Segment{Start: 3, End: 4, Value: 10}, "k=%d", k)
	}

	// below that the spike is absorbed, but the run still reaches the target
	res, err := cluster.Cluster(p, configFor(cluster.MethodPeaksAndLows, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Partition.Len())
}

func TestCluster_PeaksAndLowsOutlastsWard(t *testing.T) {
	p := model.NewProfile("spike_ramp", []float64{0, 0, 0, 10, 0, 0, 0, 100, 200, 300})
	spike := model.Segment{Start: 3, End: 4, Value: 10}

	ward, err := cluster.Cluster(p, configFor(cluster.MethodWard, 5))
	require.NoError(t, err)
	assert.NotContains(t, ward.Partition, spike)

	// the ramp dominates a full-day window, so narrow it to the spike's surroundings
	cfg := configFor(cluster.MethodPeaksAndLows, 5)
	cfg.ExtremeWindow = 3
	peaks, err := cluster.Cluster(p, cfg)
	require.NoError(t, err)
	assert.Contains(t, peaks.Partition, spike)

	// the policy also applies on top of other methods
	cfg = configFor(cluster.MethodWard, 5)
	cfg.PreserveExtremes = true
	cfg.ExtremeWindow = 3
	preserved, err := cluster.Cluster(p, cfg)
	require.NoError(t, err)
	assert.Equal(t, peaks.Partition, preserved.Partition)
}

func TestCluster_PeaksAndLowsKeepsDailyExtremes(t *testing.T) {
	const days = 7
	values := make([]float64, days*24)
	for i := range values {
		values[i] = 100 + 30*math.Sin(2*math.Pi*float64(i)/24)
	}
	p := model.NewProfile("week", values)

	// 14 isolated extremes and the 15 gaps between them
	for _, k := range []int{29, 36, 48} {
		res, err := cluster.Cluster(p, configFor(cluster.MethodPeaksAndLows, k))
		require.NoError(t, err)
		require.Equal(t, k, res.Partition.Len())

		for day := 0; day < days; day++ {
			for _, i := range []int{day*24 + 6, day*24 + 18} {
				assert.Contains(t, res.Partition, model.Segment{Start: i, End: i + 1, Value: values[i]},
					"k=%d extreme at %d", k, i)
			}
		}
		if k == 29 {
			// every gap is one segment; the mid-slope ends are not kept apart
			assert.Equal(t, 6, res.Partition[0].Weight())
			assert.Equal(t, 5, res.Partition[k-1].Weight())
		}
	}
}

func TestCluster_PeaksAndLowsPlateauStaysWhole(t *testing.T) {
	p := model.NewProfile("plateau", []float64{0, 0, 0, 10, 10, 0, 0, 0})

	for k := 3; k <= 5; k++ {
		res, err := cluster.Cluster(p, configFor(cluster.MethodPeaksAndLows, k))
		require.NoError(t, err)
		assert.Contains(t, res.Partition, model.Segment{Start: 3, End: 5, Value: 10}, "k=%d", k)
	}
}

func TestCluster_NormalizesMethodName(t *testing.T) {
	p := model.NewProfile("step", []float64{1, 1, 1, 5, 5, 5})

	for _, raw := range []string{"WARD", " ward ", "Ward"} {
		res, err := cluster.Cluster(p, cluster.Config{Method: cluster.Method(raw), Clusters: 2})
		require.NoError(t, err, raw)
		assert.Equal(t, string(cluster.MethodWard), res.Stats.Method)
		assert.Equal(t, "3;3", res.Partition.String())
	}

	cfg := cluster.Config{Method: " Peaks_And_Lows ", Clusters: 4}.ForProfile("DE_Solar")
	assert.Equal(t, cluster.MethodPeaksAndLows, cfg.Method)
	assert.Equal(t, "C4_peaks_and_lows", cfg.Name())

	norm, err := cluster.Config{Method: "Integral_Cost", Clusters: 2}.Normalized()
	require.NoError(t, err)
	assert.Equal(t, cluster.MethodIntegralCost, norm.Method)

	_, err = cluster.Config{Method: "kmeans", Clusters: 2}.Normalized()
	assert.ErrorIs(t, err, cluster.ErrUnknownMethod)
}

func TestCluster_StatsRecord(t *testing.T) {
	p := hourlyProfile("NO_Hydro_Reservoir_Inflow", 96, 5)

	for _, k := range []int{1, 7, 24, 95, 96} {
		res, err := cluster.Cluster(p, configFor(cluster.MethodIntegralCost, k))
		require.NoError(t, err)

		s := res.Stats
		assert.Equal(t, "NO_Hydro_Reservoir_Inflow", s.ProfileName)
		assert.Equal(t, string(cluster.MethodIntegralCost), s.Method)
		assert.Equal(t, p.Len(), s.NumTimesteps)
		assert.Equal(t, k, s.NumClusters)
		assert.Equal(t, float64(s.NumClusters)/float64(s.NumTimesteps), s.CompressionRatio)
		assert.Equal(t, res.TotalError, s.TotalError)
		assert.GreaterOrEqual(t, s.RuntimeSec, 0.0)
		assert.Equal(t, res.MergeErrors, s.MergeErrors)

		if len(res.MergeErrors) > 0 {
			cum := cluster.Cumulative(res.MergeErrors)
			assert.InDelta(t, res.TotalError, cum[len(cum)-1], 1e-9*math.Max(1, res.TotalError))
		}
	}
}

func TestCluster_CurveErrors(t *testing.T) {
	p := hourlyProfile("NL_E_Demand", 96, 9)

	cfg := configFor(cluster.MethodPeaksAndLows, 12)
	res, err := cluster.Cluster(p, cfg)
	require.NoError(t, err)
	assert.Nil(t, res.Stats.CurveErrors)

	cfg.CurveErrors = true
	res, err = cluster.Cluster(p, cfg)
	require.NoError(t, err)
	require.Len(t, res.Stats.CurveErrors, len(res.MergeErrors))
	for _, e := range res.Stats.CurveErrors {
		assert.GreaterOrEqual(t, e, 0.0)
	}

	original := slices.Clone(p.Values)
	reduced := res.Partition.Expand()
	slices.Sort(original)
	slices.Sort(reduced)
	var sse float64
	for i := range original {
		sse += (original[i] - reduced[i]) * (original[i] - reduced[i])
	}
	last := res.Stats.CurveErrors[len(res.Stats.CurveErrors)-1]
	assert.InDelta(t, math.Sqrt(sse/float64(p.Len())), last, 1e-6)
}

func TestCluster_InvalidConfiguration(t *testing.T) {
	p := hourlyProfile("AT_E_Demand", 10, 2)

	tests := []struct {
		name    string
		profile model.Profile
		cfg     cluster.Config
		wantErr error
	}{
		{"unknown method", p, configFor("kmeans", 3), cluster.ErrUnknownMethod},
		{"zero target", p, configFor(cluster.MethodWard, 0), cluster.ErrInvalidTarget},
		{"negative target", p, configFor(cluster.MethodWard, -4), cluster.ErrInvalidTarget},
		{"empty series", model.NewProfile("empty", nil), configFor(cluster.MethodWard, 1), cluster.ErrEmptySeries},
		{"nan value", model.NewProfile("nan", []float64{1, math.NaN(), 3}), configFor(cluster.MethodWard, 1), cluster.ErrInvalidValue},
		{"inf value", model.NewProfile("inf", []float64{1, math.Inf(1)}), configFor(cluster.MethodQuantile, 1), cluster.ErrInvalidValue},
		{"value too large", model.NewProfile("huge", []float64{1, 1e200, 3}), configFor(cluster.MethodWard, 1), cluster.ErrInvalidValue},
		{"value too small", model.NewProfile("tiny", []float64{-1e155, 0}), configFor(cluster.MethodIntegralCost, 1), cluster.ErrInvalidValue},
		{"alpha too large", p, cluster.Config{Method: cluster.MethodQuantile, Clusters: 3, Alpha: 1.5}, cluster.ErrInvalidParameter},
		{"negative lambda", p, cluster.Config{Method: cluster.MethodPenalized, Clusters: 3, Lambda: -1}, cluster.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cluster.Cluster(tt.profile, tt.cfg)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range cluster.Methods() {
		got, err := cluster.ParseMethod(" " + string(m) + " ")
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := cluster.ParseMethod("dbscan")
	assert.ErrorIs(t, err, cluster.ErrUnknownMethod)
}

func TestQuantileAlphaFor(t *testing.T) {
	assert.Equal(t, cluster.DefaultGenerationAlpha, cluster.QuantileAlphaFor("ES_Solar"))
	assert.Equal(t, cluster.DefaultGenerationAlpha, cluster.QuantileAlphaFor("DK_Wind_Offshore"))
	assert.Equal(t, cluster.DefaultDemandAlpha, cluster.QuantileAlphaFor("NL_E_Demand"))

	cfg := configFor(cluster.MethodQuantile, 4).ForProfile("PT_Solar")
	assert.Equal(t, cluster.DefaultGenerationAlpha, cfg.Alpha)

	cfg = configFor(cluster.MethodPeaksAndLows, 4).ForProfile("PT_Solar")
	assert.Equal(t, cluster.DefaultExtremeAlpha, cfg.Alpha)
}
