package model

// ShapeVector is a fixed-length float32 vector for similarity search over
// profile shapes (typically a downsampled, normalized load duration curve)
type ShapeVector []float32

// VectorDim constants for common embedding dimensions
const (
	VectorDim96  = 96
	VectorDim168 = 168 // one week of hourly steps
)

// NewShapeVector creates a new ShapeVector with the specified dimension
func NewShapeVector(dim int) ShapeVector {
	return make(ShapeVector, dim)
}

// Dim returns the dimension of the shape vector
func (sv ShapeVector) Dim() int {
	return len(sv)
}

// Copy creates a deep copy of the shape vector
func (sv ShapeVector) Copy() ShapeVector {
	result := make(ShapeVector, len(sv))
	copy(result, sv)
	return result
}

// ToFloat64 converts the shape vector to float64 slice
func (sv ShapeVector) ToFloat64() []float64 {
	result := make([]float64, len(sv))
	for i, v := range sv {
		result[i] = float64(v)
	}
	return result
}

// FromFloat64 creates a ShapeVector from float64 slice
func FromFloat64(data []float64) ShapeVector {
	result := make(ShapeVector, len(data))
	for i, v := range data {
		result[i] = float32(v)
	}
	return result
}

// ProfileShape is the indexed shape of a reduced profile
type ProfileShape struct {
	ResultID    string      `json:"result_id"`
	ProfileName string      `json:"profile_name"`
	Method      string      `json:"method"`
	NumClusters int         `json:"num_clusters"`
	TotalError  float64     `json:"total_error"`
	Vector      ShapeVector `json:"vector"`
}

// DurationCurve holds the load duration curves of one profile: the original
// values and the expanded reduced values, both sorted in descending order
type DurationCurve struct {
	ProfileName string    `json:"profile_name"`
	Original    []float64 `json:"original"`
	Reduced     []float64 `json:"reduced"`
}

// MethodSummary aggregates the runs of one method across profiles
type MethodSummary struct {
	Method          string  `json:"method"`
	Profiles        int     `json:"profiles"`
	TotalErrorMean  float64 `json:"total_error_mean"`
	TotalErrorP10   float64 `json:"total_error_p10"`
	TotalErrorP50   float64 `json:"total_error_p50"`
	TotalErrorP90   float64 `json:"total_error_p90"`
	RuntimeSecTotal float64 `json:"runtime_sec_total"`
	UniformGainMean float64 `json:"uniform_gain_mean"` // mean of uniform_error - total_error
}

// ErrorBand is the cross-profile mean and spread of cumulative error after a
// given number of merges
type ErrorBand struct {
	Merge int     `json:"merge"` // 1-based merge index
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"` // profiles that reached this merge
}
