package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Segment is a contiguous half-open range [Start, End) of original timesteps
// represented by a single value
type Segment struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Value float64 `json:"value"` // representative value, the mean of the members
}

// Weight returns the number of original timesteps the segment stands for
func (s Segment) Weight() int {
	return s.End - s.Start
}

// Partition is an ordered sequence of segments covering [0, N)
type Partition []Segment

// Len returns the number of segments (the cluster count)
func (p Partition) Len() int {
	return len(p)
}

// Weights returns the segment lengths in order
func (p Partition) Weights() []int {
	w := make([]int, len(p))
	for i, s := range p {
		w[i] = s.Weight()
	}
	return w
}

// Values returns the representative values in order
func (p Partition) Values() []float64 {
	v := make([]float64, len(p))
	for i, s := range p {
		v[i] = s.Value
	}
	return v
}

// Horizon returns the number of original timesteps covered
func (p Partition) Horizon() int {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].End
}

// String renders the segment lengths joined by semicolons, e.g. "3;1;3"
func (p Partition) String() string {
	return JoinWeights(p.Weights())
}

// Expand repeats every representative value by its weight, yielding a
// full-resolution series of length Horizon()
func (p Partition) Expand() []float64 {
	out := make([]float64, 0, p.Horizon())
	for _, s := range p {
		for i := 0; i < s.Weight(); i++ {
			out = append(out, s.Value)
		}
	}
	return out
}

// Validate checks that the partition exactly covers [0, n) without gaps,
// overlaps or empty segments
func (p Partition) Validate(n int) error {
	next := 0
	for i, s := range p {
		if s.Start != next {
			return fmt.Errorf("segment %d starts at %d, expected %d", i, s.Start, next)
		}
		if s.End <= s.Start {
			return fmt.Errorf("segment %d is empty: [%d, %d)", i, s.Start, s.End)
		}
		next = s.End
	}
	if next != n {
		return fmt.Errorf("partition covers [0, %d), expected [0, %d)", next, n)
	}
	return nil
}

// JoinWeights formats segment lengths the way the partition files expect them
func JoinWeights(weights []int) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ";")
}

// ClusteringResult is the immutable output of clustering one profile
type ClusteringResult struct {
	Partition   Partition `json:"partition"`
	Weights     []int     `json:"weights"`
	MergeErrors []float64 `json:"merge_errors"` // realized cost of every merge, in merge order
	TotalError  float64   `json:"total_error"`
	Stats       Stats     `json:"stats"`
}

// GenerateResultID creates a deterministic ID for a clustering run of one profile
// Format: hash(profile|method|clusters|params)
// Re-running the same configuration overwrites instead of duplicating rows
func GenerateResultID(profile, method string, clusters int, params string) string {
	data := fmt.Sprintf("%s|%s|%d|%s", profile, method, clusters, params)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
