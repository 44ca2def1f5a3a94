// Package summary aggregates clustering statistics across profiles.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/hcpart/pkg/model"
)

// ByMethod aggregates run statistics per method, methods in name order
func ByMethod(stats []model.Stats) []model.MethodSummary {
	groups := make(map[string][]model.Stats)
	for _, s := range stats {
		groups[s.Method] = append(groups[s.Method], s)
	}

	methods := make([]string, 0, len(groups))
	for m := range groups {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	out := make([]model.MethodSummary, 0, len(methods))
	for _, m := range methods {
		out = append(out, summarize(m, groups[m]))
	}
	return out
}

func summarize(method string, runs []model.Stats) model.MethodSummary {
	totals := make([]float64, len(runs))
	gains := make([]float64, len(runs))
	var runtime float64
	for i, s := range runs {
		totals[i] = s.TotalError
		gains[i] = s.UniformError - s.TotalError
		runtime += s.RuntimeSec
	}
	sort.Float64s(totals)

	return model.MethodSummary{
		Method:          method,
		Profiles:        len(runs),
		TotalErrorMean:  stat.Mean(totals, nil),
		TotalErrorP10:   percentile(totals, 0.10),
		TotalErrorP50:   percentile(totals, 0.50),
		TotalErrorP90:   percentile(totals, 0.90),
		RuntimeSecTotal: runtime,
		UniformGainMean: stat.Mean(gains, nil),
	}
}

// percentile calculates the p-th quantile of sorted values
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ErrorBands returns, for every merge index, the mean and population standard
// deviation of the cumulative error over the profiles that performed at least
// that many merges
func ErrorBands(stats []model.Stats) []model.ErrorBand {
	var cumulative [][]float64
	width := 0
	for _, s := range stats {
		if len(s.MergeErrors) == 0 {
			continue
		}
		c := floats.CumSum(make([]float64, len(s.MergeErrors)), s.MergeErrors)
		cumulative = append(cumulative, c)
		width = max(width, len(c))
	}

	bands := make([]model.ErrorBand, 0, width)
	column := make([]float64, 0, len(cumulative))
	for i := 0; i < width; i++ {
		column = column[:0]
		for _, c := range cumulative {
			if i < len(c) {
				column = append(column, c[i])
			}
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		bands = append(bands, model.ErrorBand{Merge: i + 1, Mean: mean, Std: std, Count: len(column)})
	}
	return bands
}

// String renders a summary for logs
func String(s model.MethodSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: profiles=%d", s.Method, s.Profiles)
	fmt.Fprintf(&sb, " total_error mean=%.4g p10=%.4g p50=%.4g p90=%.4g",
		s.TotalErrorMean, s.TotalErrorP10, s.TotalErrorP50, s.TotalErrorP90)
	fmt.Fprintf(&sb, " uniform_gain=%.4g runtime=%.2fs", s.UniformGainMean, s.RuntimeSecTotal)
	return sb.String()
}
