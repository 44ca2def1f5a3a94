// Package cluster implements adjacent-constrained hierarchical agglomerative
// clustering of a single time series.
//
// A series of N values starts as N unit segments. The engine keeps every
// adjacent pair in a min-heap keyed by the cost of merging it and repeatedly
// applies the cheapest valid merge; only the two pairs touching the merged
// segment are re-evaluated, so a full run costs O(N log N). Ties are broken by
// the lower starting index, which makes the merge order reproducible.
//
// Five cost models are available (ward, integral_cost, quantile, penalized,
// peaks_and_lows). peaks_and_lows, and any model run with PreserveExtremes,
// postpones merges that would absorb a local extreme until no other merge is
// left.
//
// Example:
//
//	cfg := cluster.DefaultConfig(cluster.MethodWard, 672)
//	res, err := cluster.Cluster(model.NewProfile("NL_E_Demand", values), cfg)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Partition.String()) // e.g. "12;3;1;..."
package cluster
