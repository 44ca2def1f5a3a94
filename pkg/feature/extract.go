package feature

import (
	"math"
	"sort"

	"github.com/tunogya/hcpart/pkg/model"
)

// Extractor derives the diagnostics of a clustered profile: its load
// duration curves and the shape vector indexed for similarity search
type Extractor struct {
	VectorDim int     // Target dimension for ShapeVector
	ClipStd   float64 // Standard deviations for clipping the chronological part
}

// NewExtractor creates a new feature extractor
func NewExtractor(vectorDim int) *Extractor {
	return &Extractor{
		VectorDim: vectorDim,
		ClipStd:   3.0,
	}
}

// Extract returns the duration curves and the shape of one clustering result
// stored under resultID
func (e *Extractor) Extract(resultID string, p model.Profile, r *model.ClusteringResult) (model.DurationCurve, model.ProfileShape) {
	reduced := r.Partition.Expand()
	curve := model.DurationCurve{
		ProfileName: p.Name,
		Original:    DurationCurve(p.Values),
		Reduced:     DurationCurve(reduced),
	}

	shape := model.ProfileShape{
		ResultID:    resultID,
		ProfileName: p.Name,
		Method:      r.Stats.Method,
		NumClusters: r.Partition.Len(),
		TotalError:  r.TotalError,
		Vector:      e.ShapeVector(reduced),
	}
	return curve, shape
}

// DurationCurve returns a copy of values sorted in descending order
func DurationCurve(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// CurveError returns the root mean squared distance between two duration
// curves of equal length
func CurveError(original, reduced []float64) float64 {
	if len(original) == 0 || len(original) != len(reduced) {
		return 0
	}
	var sum float64
	for i := range original {
		d := original[i] - reduced[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(original)))
}

// PeakRatio reports how much of the original peak survives the reduction
func PeakRatio(original, reduced []float64) float64 {
	if len(original) == 0 || len(reduced) == 0 {
		return 0
	}
	peak := DurationCurve(original)[0]
	if peak == 0 {
		return 1
	}
	return DurationCurve(reduced)[0] / peak
}

// ShapeVector creates a fixed-length vector from a full-resolution series:
// the first half is its min-max normalized duration curve, the second half its
// clipped z-scored chronological shape
func (e *Extractor) ShapeVector(values []float64) model.ShapeVector {
	vector := model.NewShapeVector(e.VectorDim)
	if len(values) == 0 {
		return vector
	}

	half := e.VectorDim / 2
	curve := downsample(MinMaxNormalize(DurationCurve(values)), half)
	chrono := downsample(ZScoreNormalize(values, e.ClipStd), e.VectorDim-half)

	idx := 0
	for i := 0; i < half && idx < e.VectorDim; i++ {
		if i < len(curve) {
			vector[idx] = float32(curve[i])
		}
		idx++
	}
	for i := 0; idx < e.VectorDim; i++ {
		if i < len(chrono) {
			vector[idx] = float32(chrono[i])
		}
		idx++
	}
	return vector
}

// downsample reduces the number of samples using simple averaging
func downsample(values []float64, targetLen int) []float64 {
	if len(values) <= targetLen {
		return values
	}

	result := make([]float64, targetLen)
	ratio := float64(len(values)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(values) {
			end = len(values)
		}

		sum := 0.0
		count := 0
		for j := start; j < end; j++ {
			sum += values[j]
			count++
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}
