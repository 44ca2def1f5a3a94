package window

import (
	"fmt"

	"github.com/tunogya/hcpart/pkg/model"
)

// Config selects how a uniform partition is cut. Exactly one of Length and
// Clusters is used: Length wins when both are set.
type Config struct {
	Length   int // fixed block length in timesteps, the last block takes the remainder
	Clusters int // number of near-equal blocks
}

// DefaultConfig returns daily blocks
func DefaultConfig() Config {
	return Config{Length: 24}
}

// Builder cuts profiles into uniform partitions, the baseline every
// clustered partition is compared against
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder for cfg
func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.Length <= 0 && cfg.Clusters <= 0 {
		return nil, fmt.Errorf("uniform partition needs a positive length or cluster count")
	}
	return &Builder{cfg: cfg}, nil
}

// Weights returns the block lengths for a series of n timesteps
func (b *Builder) Weights(n int) []int {
	if b.cfg.Length > 0 {
		return FixedLength(n, b.cfg.Length)
	}
	return EqualCount(n, b.cfg.Clusters)
}

// Build returns the uniform partition of values, each block represented by
// the mean of its members
func (b *Builder) Build(values []float64) model.Partition {
	return FromWeights(values, b.Weights(len(values)))
}

// Error returns the SSE of the uniform partition of values
func (b *Builder) Error(values []float64) float64 {
	return SSE(values, b.Build(values))
}

// FixedLength splits n timesteps into blocks of length; the final block
// holds the remainder
func FixedLength(n, length int) []int {
	if n <= 0 || length <= 0 {
		return nil
	}
	weights := make([]int, 0, (n+length-1)/length)
	for start := 0; start < n; start += length {
		weights = append(weights, min(length, n-start))
	}
	return weights
}

// EqualCount splits n timesteps into k blocks whose lengths differ by at
// most one, the longer blocks first. k is capped at n.
func EqualCount(n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	k = min(k, n)
	weights := make([]int, k)
	for i := range weights {
		weights[i] = n / k
		if i < n%k {
			weights[i]++
		}
	}
	return weights
}

// FromWeights builds the mean-represented partition of values for the given
// block lengths, which must sum to len(values)
func FromWeights(values []float64, weights []int) model.Partition {
	p := make(model.Partition, 0, len(weights))
	start := 0
	for _, w := range weights {
		end := start + w
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		p = append(p, model.Segment{Start: start, End: end, Value: sum / float64(w)})
		start = end
	}
	return p
}

// SSE returns the sum of squared deviations between values and the
// expansion of p
func SSE(values []float64, p model.Partition) float64 {
	var sse float64
	for _, s := range p {
		for _, v := range values[s.Start:s.End] {
			d := v - s.Value
			sse += d * d
		}
	}
	return sse
}

// UniformError is the SSE of the equal-count uniform partition with the same
// number of segments as a clustered result
func UniformError(values []float64, clusters int) float64 {
	b, err := NewBuilder(Config{Clusters: clusters})
	if err != nil {
		return 0
	}
	return b.Error(values)
}
