package cluster

import "github.com/tunogya/hcpart/pkg/model"

// Span holds the sufficient statistics of a segment: enough to compute every
// cost model in closed form without re-scanning the members
type Span struct {
	Start int
	End   int
	Sum   float64
	SumSq float64
	First float64 // value of the first member timestep
	Last  float64 // value of the last member timestep
}

// unitSpan creates the span of the single timestep i
func unitSpan(i int, v float64) Span {
	return Span{Start: i, End: i + 1, Sum: v, SumSq: v * v, First: v, Last: v}
}

// Count returns the number of member timesteps
func (s Span) Count() int {
	return s.End - s.Start
}

// Mean returns the representative value of the span
func (s Span) Mean() float64 {
	return s.Sum / float64(s.Count())
}

// SSE returns the within-span sum of squared deviations from the mean
func (s Span) SSE() float64 {
	sse := s.SumSq - s.Sum*s.Sum/float64(s.Count())
	if sse < 0 {
		return 0 // rounding
	}
	return sse
}

// Segment converts the span into its public representation
func (s Span) Segment() model.Segment {
	return model.Segment{Start: s.Start, End: s.End, Value: s.Mean()}
}

// merge joins two adjacent spans, a directly left of b
func merge(a, b Span) Span {
	if a.End != b.Start {
		panic("cluster: merging non-adjacent segments")
	}
	return Span{
		Start: a.Start,
		End:   b.End,
		Sum:   a.Sum + b.Sum,
		SumSq: a.SumSq + b.SumSq,
		First: a.First,
		Last:  b.Last,
	}
}
