package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/hcpart/pkg/model"
)

func TestByMethod(t *testing.T) {
	stats := []model.Stats{
		{ProfileName: "a", Method: "ward", TotalError: 1, UniformError: 3, RuntimeSec: 0.5},
		{ProfileName: "b", Method: "ward", TotalError: 3, UniformError: 3, RuntimeSec: 0.25},
		{ProfileName: "a", Method: "integral_cost", TotalError: 4, UniformError: 4},
	}

	got := ByMethod(stats)
	require.Len(t, got, 2)

	assert.Equal(t, "integral_cost", got[0].Method)
	assert.Equal(t, 1, got[0].Profiles)
	assert.Equal(t, 4.0, got[0].TotalErrorP50)

	ward := got[1]
	assert.Equal(t, "ward", ward.Method)
	assert.Equal(t, 2, ward.Profiles)
	assert.InDelta(t, 2.0, ward.TotalErrorMean, 1e-12)
	assert.Equal(t, 1.0, ward.TotalErrorP10)
	assert.Equal(t, 3.0, ward.TotalErrorP90)
	assert.InDelta(t, 0.75, ward.RuntimeSecTotal, 1e-12)
	assert.InDelta(t, 1.0, ward.UniformGainMean, 1e-12)

	assert.Contains(t, String(ward), "ward: profiles=2")
	assert.Empty(t, ByMethod(nil))
}

func TestErrorBands(t *testing.T) {
	stats := []model.Stats{
		{MergeErrors: []float64{1, 1, 1}},
		{MergeErrors: []float64{3, 1}},
		{MergeErrors: nil},
	}

	bands := ErrorBands(stats)
	require.Len(t, bands, 3)

	assert.Equal(t, model.ErrorBand{Merge: 1, Mean: 2, Std: 1, Count: 2}, bands[0])
	assert.Equal(t, model.ErrorBand{Merge: 2, Mean: 3, Std: 1, Count: 2}, bands[1])
	assert.Equal(t, model.ErrorBand{Merge: 3, Mean: 3, Std: 0, Count: 1}, bands[2])

	assert.Empty(t, ErrorBands(nil))
}
