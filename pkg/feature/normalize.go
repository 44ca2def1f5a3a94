package feature

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinMaxNormalize scales values to [0, 1] range. A constant series maps to 0.
func MinMaxNormalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	lo, hi := floats.Min(values), floats.Max(values)
	rangeVal := hi - lo
	if rangeVal == 0 {
		rangeVal = 1
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = (v - lo) / rangeVal
	}
	return result
}

// ZScoreNormalize standardizes values, clips them at clipStd standard
// deviations and scales the result to [-1, 1]
func ZScoreNormalize(values []float64, clipStd float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	mean, std := meanStd(values)
	if std == 0 {
		std = 1
	}

	result := make([]float64, len(values))
	for i, v := range values {
		z := (v - mean) / std
		if z > clipStd {
			z = clipStd
		}
		if z < -clipStd {
			z = -clipStd
		}
		result[i] = z / clipStd
	}
	return result
}

// meanStd calculates mean and population standard deviation
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	return mean, stat.PopStdDev(values, nil)
}
