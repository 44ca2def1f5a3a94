package model

import "strconv"

// Stats holds the diagnostics of a single clustering run
// These are reporting records, never inputs to the algorithm
type Stats struct {
	ProfileName      string    `json:"profile_name"`
	Method           string    `json:"method"`
	NumTimesteps     int       `json:"num_timesteps"`
	NumClusters      int       `json:"num_clusters"`
	CompressionRatio float64   `json:"compression_ratio"` // num_clusters / num_timesteps
	TotalError       float64   `json:"total_error"`
	RuntimeSec       float64   `json:"runtime_sec"`
	MergeErrors      []float64 `json:"errors,omitempty"`
	CurveErrors      []float64 `json:"ldc_errors,omitempty"` // load duration curve RMSE after every merge
	UniformError     float64   `json:"uniform_error"` // SSE of an equal-count uniform partition, for comparison
}

// NumMerges returns how many merges were applied
func (s Stats) NumMerges() int {
	return s.NumTimesteps - s.NumClusters
}

// Specification values of the partition files
const (
	SpecUniform  = "uniform"
	SpecExplicit = "explicit"
	SpecMath     = "math"
)

// DefaultRepPeriod is the representative period every partition belongs to
const DefaultRepPeriod = 1

// AssetPartition is one row of assets-rep-periods-partitions.csv
type AssetPartition struct {
	Asset         string `json:"asset"`
	RepPeriod     int    `json:"rep_period"`
	Specification string `json:"specification"`
	Partition     string `json:"partition"`
}

// FlowPartition is one row of flows-rep-periods-partitions.csv
type FlowPartition struct {
	FromAsset     string `json:"from_asset"`
	ToAsset       string `json:"to_asset"`
	RepPeriod     int    `json:"rep_period"`
	Specification string `json:"specification"`
	Partition     string `json:"partition"`
}

// NewAssetPartition builds the explicit partition row of a clustered profile
func NewAssetPartition(asset string, r *ClusteringResult) AssetPartition {
	return AssetPartition{
		Asset:         asset,
		RepPeriod:     DefaultRepPeriod,
		Specification: SpecExplicit,
		Partition:     JoinWeights(r.Weights),
	}
}

// NewUniformPartition builds the uniform partition row of an asset: every
// block spans length timesteps
func NewUniformPartition(asset string, length int) AssetPartition {
	return AssetPartition{
		Asset:         asset,
		RepPeriod:     DefaultRepPeriod,
		Specification: SpecUniform,
		Partition:     strconv.Itoa(length),
	}
}

// MapFlows assigns each flow the partition of its from-asset, falling back
// to its to-asset; flows touching no clustered asset are skipped
func MapFlows(flows []Flow, partitions []AssetPartition) []FlowPartition {
	byAsset := make(map[string]string, len(partitions))
	for _, p := range partitions {
		byAsset[p.Asset] = p.Partition
	}

	var out []FlowPartition
	for _, f := range flows {
		partition, ok := byAsset[f.FromAsset]
		if !ok || partition == "" {
			partition, ok = byAsset[f.ToAsset]
		}
		if !ok || partition == "" {
			continue
		}
		out = append(out, FlowPartition{
			FromAsset:     f.FromAsset,
			ToAsset:       f.ToAsset,
			RepPeriod:     DefaultRepPeriod,
			Specification: SpecExplicit,
			Partition:     partition,
		})
	}
	return out
}
