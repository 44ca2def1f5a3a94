package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CostModel computes the approximation-error increase of merging the two
// adjacent spans a and b (a directly left of b). Costs are finite and >= 0.
type CostModel interface {
	Cost(a, b Span) float64
}

// Guard is implemented by cost models that postpone some merges. A protected
// merge is only applied once no unprotected merge is left.
type Guard interface {
	Protected(a, b Span) bool
}

// NewCostModel builds the strategy of cfg for one series. The series context
// (length, variance, extreme flags) is captured here, once per run.
func NewCostModel(cfg Config, values []float64) (CostModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base CostModel
	switch cfg.Method {
	case MethodWard, MethodPeaksAndLows:
		base = Ward{}
	case MethodIntegralCost:
		base = IntegralCost{}
	case MethodQuantile:
		alpha := cfg.Alpha
		if alpha == 0 {
			alpha = DefaultQuantileAlpha
		}
		base = Quantile{Alpha: alpha}
	case MethodPenalized:
		base = NewPenalized(values, cfg.Lambda)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}

	if cfg.Method != MethodPeaksAndLows && !cfg.PreserveExtremes {
		return base, nil
	}
	alpha := cfg.ExtremeAlpha
	if cfg.Method == MethodPeaksAndLows && cfg.Alpha != 0 {
		alpha = cfg.Alpha
	}
	if alpha == 0 {
		alpha = DefaultExtremeAlpha
	}
	return PeaksAndLows(base, NewExtremePolicy(values, alpha, cfg.ExtremeWindow)), nil
}

// Ward is the classic linkage cost: the increase of within-segment SSE
type Ward struct{}

// Cost returns nA*nB/(nA+nB) * (meanA-meanB)^2
func (Ward) Cost(a, b Span) float64 {
	na, nb := float64(a.Count()), float64(b.Count())
	d := a.Mean() - b.Mean()
	return na * nb / (na + nb) * d * d
}

// IntegralCost measures cumulative-energy deviation: for each part, the
// distance between its trapezoidal integral and the integral implied by the
// merged representative value. The cost is incremental, the deviation the
// parts already carried against their own means is subtracted.
type IntegralCost struct{}

// Cost returns |T(a) - r*nA| + |T(b) - r*nB| - E(a) - E(b), floored at zero
func (IntegralCost) Cost(a, b Span) float64 {
	na, nb := float64(a.Count()), float64(b.Count())
	r := (a.Sum + b.Sum) / (na + nb)
	merged := math.Abs(trapezoid(a)-r*na) + math.Abs(trapezoid(b)-r*nb)
	return math.Max(0, merged-integralError(a)-integralError(b))
}

// trapezoid integrates the member values with unit spacing, holding the last
// value over the final hour so that a span of n steps covers n hours
func trapezoid(s Span) float64 {
	return s.Sum + (s.Last-s.First)/2
}

// integralError is the deviation of a span against its own mean
func integralError(s Span) float64 {
	return math.Abs(trapezoid(s) - s.Sum)
}

// Quantile is an asymmetric Ward cost. Under-estimating a part (its mean lies
// above the merged value) is weighted by 2*Alpha, over-estimating by
// 2*(1-Alpha). Alpha = 0.5 reduces to Ward.
type Quantile struct {
	Alpha float64
}

// Cost returns sum over parts of weight * n * (mean - merged)^2
func (q Quantile) Cost(a, b Span) float64 {
	na, nb := float64(a.Count()), float64(b.Count())
	r := (a.Sum + b.Sum) / (na + nb)
	return q.part(a.Mean()-r, na) + q.part(b.Mean()-r, nb)
}

func (q Quantile) part(d, n float64) float64 {
	w := 2 * (1 - q.Alpha)
	if d > 0 {
		w = 2 * q.Alpha
	}
	return w * n * d * d
}

// Penalized adds a segment-length dispersion penalty to Ward. Merging spans of
// nA and nB steps grows the sum of squared lengths by 2*nA*nB; the penalty is
// that growth normalised by N and scaled by the series variance.
type Penalized struct {
	Lambda   float64
	Variance float64
	N        int
}

// NewPenalized captures the series length and population variance
func NewPenalized(values []float64, lambda float64) Penalized {
	var variance float64
	if len(values) > 0 {
		variance = stat.PopVariance(values, nil)
	}
	return Penalized{Lambda: lambda, Variance: variance, N: len(values)}
}

// Cost returns ward + lambda * variance * 2*nA*nB / N
func (p Penalized) Cost(a, b Span) float64 {
	return Ward{}.Cost(a, b) + p.Lambda*p.Imbalance(a, b)
}

// Imbalance returns the variance-scaled growth of length dispersion
func (p Penalized) Imbalance(a, b Span) float64 {
	if p.N == 0 {
		return 0
	}
	na, nb := float64(a.Count()), float64(b.Count())
	return p.Variance * 2 * na * nb / float64(p.N)
}
