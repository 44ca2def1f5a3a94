package cluster

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// CurveTracker follows the load duration curve error of a partition while it
// is being merged. The reduced curve is the expanded partition sorted in
// descending order; its error is the RMSE against the sorted original.
type CurveTracker struct {
	n      int
	s1, s2 []float64 // prefix sums of the sorted original and of its squares
	blocks []curveBlock
}

// curveBlock is one segment on the reduced curve
type curveBlock struct {
	start  int
	weight int
	value  float64
}

// NewCurveTracker starts from the identity partition of values
func NewCurveTracker(values []float64) *CurveTracker {
	n := len(values)
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, descending)

	squares := make([]float64, n)
	for i, v := range sorted {
		squares[i] = v * v
	}
	t := &CurveTracker{
		n:      n,
		s1:     make([]float64, n+1),
		s2:     make([]float64, n+1),
		blocks: make([]curveBlock, n),
	}
	if n > 0 {
		floats.CumSum(t.s1[1:], sorted)
		floats.CumSum(t.s2[1:], squares)
	}
	for i, v := range values {
		t.blocks[i] = curveBlock{start: i, weight: 1, value: v}
	}
	slices.SortFunc(t.blocks, compareBlocks)
	return t
}

func descending(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func compareBlocks(a, b curveBlock) int {
	if c := descending(a.value, b.value); c != 0 {
		return c
	}
	return a.start - b.start
}

// Apply replaces the two merged segments by their union
func (t *CurveTracker) Apply(m Merge) {
	t.blocks = slices.DeleteFunc(t.blocks, func(b curveBlock) bool {
		return b.start == m.Left.Start || b.start == m.Right.Start
	})
	merged := curveBlock{start: m.Merged.Start, weight: m.Merged.Count(), value: m.Merged.Mean()}
	i, _ := slices.BinarySearchFunc(t.blocks, merged, compareBlocks)
	t.blocks = slices.Insert(t.blocks, i, merged)
}

// RMSE returns the current load duration curve error
func (t *CurveTracker) RMSE() float64 {
	if t.n == 0 {
		return 0
	}
	var sse float64
	pos := 0
	for _, b := range t.blocks {
		end := pos + b.weight
		w, v := float64(b.weight), b.value
		sse += (t.s2[end] - t.s2[pos]) - 2*v*(t.s1[end]-t.s1[pos]) + w*v*v
		pos = end
	}
	return math.Sqrt(math.Max(0, sse) / float64(t.n))
}
