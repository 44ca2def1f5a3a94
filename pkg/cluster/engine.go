package cluster

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/tunogya/hcpart/pkg/model"
)

// Merge describes one applied merge
type Merge struct {
	Left      Span    // segment before the merge
	Right     Span    // segment absorbed into Left
	Merged    Span    // resulting segment
	Cost      float64 // realized cost reported by the cost model
	Protected bool    // merge absorbed a protected extreme
}

// Engine maintains the live segments of one series and the heap of all
// currently mergeable adjacent pairs. Segments are addressed by their start
// index; a merge folds the right segment into the left one.
type Engine struct {
	model CostModel
	guard Guard // nil when the model postpones nothing

	spans   []Span
	alive   []bool
	version []uint32
	prev    []int // start of the left neighbour, -1 at the first segment
	next    []int // start of the right neighbour, -1 at the last segment

	count int
	queue candidateQueue
}

// NewEngine initializes one unit segment per value and queues every
// adjacent pair
func NewEngine(values []float64, cm CostModel) *Engine {
	n := len(values)
	e := &Engine{
		model:   cm,
		spans:   make([]Span, n),
		alive:   make([]bool, n),
		version: make([]uint32, n),
		prev:    make([]int, n),
		next:    make([]int, n),
		count:   n,
		queue:   make(candidateQueue, 0, n),
	}
	if g, ok := cm.(Guard); ok {
		e.guard = g
	}

	for i, v := range values {
		e.spans[i] = unitSpan(i, v)
		e.alive[i] = true
		e.prev[i] = i - 1
		e.next[i] = i + 1
	}
	if n > 0 {
		e.next[n-1] = -1
	}

	for i := 0; i+1 < n; i++ {
		e.queue = append(e.queue, e.candidate(i, i+1))
	}
	heap.Init(&e.queue)
	return e
}

// Count returns the current number of segments
func (e *Engine) Count() int {
	return e.count
}

// candidate evaluates the pair of live segments starting at left and right
func (e *Engine) candidate(left, right int) candidate {
	a, b := e.spans[left], e.spans[right]
	cost := e.model.Cost(a, b)
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost < 0 {
		panic(fmt.Sprintf("cluster: cost model returned %v for [%d,%d)+[%d,%d)",
			cost, a.Start, a.End, b.Start, b.End))
	}
	c := candidate{
		left:     left,
		right:    right,
		leftVer:  e.version[left],
		rightVer: e.version[right],
		cost:     cost,
	}
	if e.guard != nil {
		c.protected = e.guard.Protected(a, b)
	}
	return c
}

// valid reports whether c still refers to two unchanged adjacent segments
func (e *Engine) valid(c candidate) bool {
	return e.alive[c.left] && e.alive[c.right] &&
		e.version[c.left] == c.leftVer && e.version[c.right] == c.rightVer &&
		e.next[c.left] == c.right
}

// Step applies the globally cheapest valid merge. It returns false when only
// one segment is left.
func (e *Engine) Step() (Merge, bool) {
	for e.queue.Len() > 0 {
		c := heap.Pop(&e.queue).(candidate)
		if !e.valid(c) {
			continue
		}
		return e.apply(c), true
	}
	return Merge{}, false
}

// apply folds the right segment of c into the left one and queues the merged
// segment against its new neighbours
func (e *Engine) apply(c candidate) Merge {
	a, b := e.spans[c.left], e.spans[c.right]
	m := merge(a, b)

	e.spans[c.left] = m
	e.version[c.left]++
	e.alive[c.right] = false
	e.version[c.right]++

	after := e.next[c.right]
	e.next[c.left] = after
	if after >= 0 {
		e.prev[after] = c.left
	}
	e.count--

	if before := e.prev[c.left]; before >= 0 {
		heap.Push(&e.queue, e.candidate(before, c.left))
	}
	if after >= 0 {
		heap.Push(&e.queue, e.candidate(c.left, after))
	}

	return Merge{Left: a, Right: b, Merged: m, Cost: c.cost, Protected: c.protected}
}

// Spans returns the live segments in order
func (e *Engine) Spans() []Span {
	out := make([]Span, 0, e.count)
	if len(e.spans) == 0 {
		return out
	}
	for i := 0; i >= 0; i = e.next[i] {
		out = append(out, e.spans[i])
	}
	return out
}

// Partition returns the live segments as a partition
func (e *Engine) Partition() model.Partition {
	spans := e.Spans()
	p := make(model.Partition, len(spans))
	for i, s := range spans {
		p[i] = s.Segment()
	}
	return p
}
