package rerank

import (
	"math"
	"sort"

	"github.com/tunogya/hcpart/pkg/store/milvus"
)

// ResolutionConfig holds configuration for resolution-distance reranking
type ResolutionConfig struct {
	Lambda float64 // Decay per doubling of the cluster count ratio
	// Tier weights by cluster count ratio (optional, used if UseTiers is true)
	UseTiers     bool
	NearRatio    float64 // Ratio considered "near" (e.g., 1.25)
	MediumRatio  float64 // Ratio considered "medium" (e.g., 2)
	SameWeight   float64 // Weight for an identical cluster count
	NearWeight   float64 // Weight for ratio <= NearRatio
	MediumWeight float64 // Weight for NearRatio < ratio <= MediumRatio
	FarWeight    float64 // Weight for ratio > MediumRatio
}

// DefaultResolutionConfig returns a default configuration
func DefaultResolutionConfig() ResolutionConfig {
	return ResolutionConfig{
		Lambda:       0.5,
		UseTiers:     false,
		NearRatio:    1.25,
		MediumRatio:  2,
		SameWeight:   1.0,
		NearWeight:   0.9,
		MediumWeight: 0.7,
		FarWeight:    0.4,
	}
}

// TierConfig returns a configuration using tier weights
func TierConfig() ResolutionConfig {
	cfg := DefaultResolutionConfig()
	cfg.UseTiers = true
	return cfg
}

// RankedResult extends SearchResult with reranked score
type RankedResult struct {
	milvus.SearchResult
	OriginalScore    float32
	ResolutionWeight float64
	FinalScore       float64
}

// Reranker reorders shape search results so that partitions of a similar
// temporal resolution come first
type Reranker struct {
	config ResolutionConfig
}

// NewReranker creates a new reranker with the given configuration
func NewReranker(config ResolutionConfig) *Reranker {
	return &Reranker{config: config}
}

// Rerank reranks search results against the cluster count of the query.
// A non-positive clusters leaves the similarity order unchanged.
func (r *Reranker) Rerank(results []milvus.SearchResult, clusters int) []RankedResult {
	ranked := make([]RankedResult, len(results))

	for i, result := range results {
		weight := 1.0
		if clusters > 0 {
			ratio := clusterRatio(result.NumClusters, clusters)
			if r.config.UseTiers {
				weight = r.tierWeight(ratio)
			} else {
				weight = r.exponentialDecay(ratio)
			}
		}

		ranked[i] = RankedResult{
			SearchResult:     result,
			OriginalScore:    result.Score,
			ResolutionWeight: weight,
			FinalScore:       float64(result.Score) * weight,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked
}

// clusterRatio returns max(a,b)/min(a,b), infinite when a is not positive
func clusterRatio(a, b int) float64 {
	if a <= 0 {
		return math.Inf(1)
	}
	lo, hi := float64(a), float64(b)
	if lo > hi {
		lo, hi = hi, lo
	}
	return hi / lo
}

// exponentialDecay decays by Lambda per doubling of the ratio
func (r *Reranker) exponentialDecay(ratio float64) float64 {
	return math.Exp(-r.config.Lambda * math.Log2(ratio))
}

// tierWeight returns weight based on ratio tiers
func (r *Reranker) tierWeight(ratio float64) float64 {
	switch {
	case ratio == 1:
		return r.config.SameWeight
	case ratio <= r.config.NearRatio:
		return r.config.NearWeight
	case ratio <= r.config.MediumRatio:
		return r.config.MediumWeight
	default:
		return r.config.FarWeight
	}
}

// TopN returns the top N results after reranking
func (r *Reranker) TopN(results []milvus.SearchResult, clusters, n int) []RankedResult {
	ranked := r.Rerank(results, clusters)
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

// FilterByMinScore filters results by minimum final score
func FilterByMinScore(results []RankedResult, minScore float64) []RankedResult {
	var filtered []RankedResult
	for _, r := range results {
		if r.FinalScore >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
