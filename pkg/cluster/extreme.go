package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ExtremePolicy flags the peaks and lows of a series that must not be
// smoothed away. Runs of equal values are treated as one point, so a plateau
// peak is flagged as a whole.
//
// An interior run is an extreme when it is strictly above (or below) every
// other value within Window timesteps of it, and deviates from their mean by
// more than Alpha * (max - min) of the whole series. A run touching either end
// of the series has neighbours on one side only; it must be the extreme of
// the next 2*Window timesteps on that side, the series must turn back within
// them (a monotone edge is no extreme), and it is never flagged when the
// series is shorter than that.
type ExtremePolicy struct {
	Alpha   float64
	Window  int
	flagged []bool
	run     []int // run[i] = start of the run of equal values holding i
	prefix  []int // prefix[i] = number of flagged indices in [0, i)
}

// NewExtremePolicy scans the series once and flags its extremes; a window
// <= 0 selects DefaultExtremeWindow
func NewExtremePolicy(values []float64, alpha float64, window int) *ExtremePolicy {
	if window <= 0 {
		window = DefaultExtremeWindow
	}
	n := len(values)
	p := &ExtremePolicy{
		Alpha:   alpha,
		Window:  window,
		flagged: make([]bool, n),
		run:     make([]int, n),
		prefix:  make([]int, n+1),
	}

	var lo, hi float64
	if n > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
	}
	threshold := alpha * (hi - lo)

	for start := 0; start < n; {
		end := start + 1
		for end < n && values[end] == values[start] {
			end++
		}
		extreme := hi > lo && p.isExtreme(values, start, end, threshold)
		for i := start; i < end; i++ {
			p.run[i] = start
			p.flagged[i] = extreme
		}
		start = end
	}

	for i, f := range p.flagged {
		p.prefix[i+1] = p.prefix[i]
		if f {
			p.prefix[i+1]++
		}
	}
	return p
}

// isExtreme reports whether the run [start, end) is a strict extreme of its
// neighbourhood deviating from the neighbourhood mean by more than threshold
func (p *ExtremePolicy) isExtreme(values []float64, start, end int, threshold float64) bool {
	n := len(values)
	lo, hi := start-p.Window, end+p.Window
	switch {
	case start == 0:
		lo, hi = 0, end+2*p.Window
		if hi > n {
			return false
		}
	case end == n:
		lo, hi = start-2*p.Window, n
		if lo < 0 {
			return false
		}
	}
	lo, hi = max(lo, 0), min(hi, n)

	v := values[start]
	var sum float64
	var count int
	above, below := true, true
	for j := lo; j < hi; j++ {
		if j >= start && j < end {
			continue
		}
		sum += values[j]
		count++
		above = above && v > values[j]
		below = below && v < values[j]
	}
	if count == 0 || !(above || below) {
		return false
	}
	if start == 0 && !turns(values, lo, hi, end, hi-1, above) {
		return false
	}
	if end == n && !turns(values, lo, hi, start-1, lo, above) {
		return false
	}
	return math.Abs(v-sum/float64(count)) > threshold
}

// turns reports whether the opposite extreme of values[lo:hi] is reached
// before far, walking from the index from towards far. For a peak the
// opposite extreme is the minimum.
func turns(values []float64, lo, hi, from, far int, peak bool) bool {
	w := values[lo:hi]
	opposite := floats.Min(w)
	if !peak {
		opposite = floats.Max(w)
	}
	step := 1
	if far < from {
		step = -1
	}
	for j := from; j != far; j += step {
		if values[j] == opposite {
			return true
		}
	}
	return false
}

// IsFlagged reports whether timestep i is a protected extreme
func (p *ExtremePolicy) IsFlagged(i int) bool {
	return i >= 0 && i < len(p.flagged) && p.flagged[i]
}

// Flagged returns the indices of all protected extremes
func (p *ExtremePolicy) Flagged() []int {
	var out []int
	for i, f := range p.flagged {
		if f {
			out = append(out, i)
		}
	}
	return out
}

// Contains reports whether the span holds at least one flagged timestep
func (p *ExtremePolicy) Contains(s Span) bool {
	return p.prefix[s.End]-p.prefix[s.Start] > 0
}

// Protected reports whether merging a and b would absorb an extreme into a
// larger segment. Joining the parts of one flagged plateau is not protected.
func (p *ExtremePolicy) Protected(a, b Span) bool {
	if !p.Contains(a) && !p.Contains(b) {
		return false
	}
	return p.run[a.Start] != p.run[b.End-1]
}

// guarded couples a base cost model with an extreme-preservation policy
type guarded struct {
	base   CostModel
	policy *ExtremePolicy
}

// PeaksAndLows wraps base so that merges touching an extreme are postponed
// until nothing else can be merged. The cost itself stays the base cost.
func PeaksAndLows(base CostModel, policy *ExtremePolicy) CostModel {
	return guarded{base: base, policy: policy}
}

func (g guarded) Cost(a, b Span) float64 {
	return g.base.Cost(a, b)
}

func (g guarded) Protected(a, b Span) bool {
	return g.policy.Protected(a, b)
}
