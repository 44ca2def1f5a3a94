package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// dailySine returns days*24 hourly values of 100 + 30*sin(2*pi*h/24): peaks at
// hour 6 and troughs at hour 18 of every day
func dailySine(days int) []float64 {
	values := make([]float64, days*24)
	for i := range values {
		values[i] = 100 + 30*math.Sin(2*math.Pi*float64(i)/24)
	}
	return values
}

func TestExtremePolicy_Flags(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		alpha  float64
		window int
		want   []int
	}{
		{"single spike", []float64{0, 0, 0, 10, 0, 0, 0}, 0.03, 12, []int{3}},
		{"spike and trough", []float64{5, 5, 9, 5, 5, 1, 5}, 0.03, 12, []int{2, 5}},
		{"constant", []float64{4, 4, 4, 4}, 0.03, 12, nil},
		{"single value", []float64{4}, 0.03, 12, nil},
		{"monotone ramp", []float64{1, 2, 3, 4, 5}, 0.03, 12, nil},
		{"monotone ramp narrow window", []float64{1, 2, 3, 4, 5, 6, 7}, 0.03, 1, nil},
		{"plateau peak", []float64{0, 0, 0, 10, 10, 0, 0, 0}, 0.03, 12, []int{3, 4}},
		{"plateau trough", []float64{5, 5, 1, 1, 1, 5, 5}, 0.03, 12, []int{2, 3, 4}},
		{"wiggle below threshold", []float64{0, 0.1, 0, 1, 2, 10, 2, 1, 0}, 0.1, 1, []int{5}},
		{"edge peak with full window", []float64{9, 4, 4, 4, 4, 4}, 0.03, 2, []int{0}},
		{"edge peak on short series", []float64{9, 4, 4}, 0.03, 2, nil},
		{"full range spike at high alpha", []float64{0, 0, 10, 0, 0}, 0.99, 12, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewExtremePolicy(tt.values, tt.alpha, tt.window)
			assert.Equal(t, tt.want, p.Flagged())
		})
	}
}

func TestExtremePolicy_DailyPeaksAndTroughs(t *testing.T) {
	values := dailySine(7)
	p := NewExtremePolicy(values, DefaultExtremeAlpha, DefaultExtremeWindow)

	var want []int
	for day := 0; day < 7; day++ {
		want = append(want, day*24+6, day*24+18)
	}
	assert.Equal(t, want, p.Flagged())
	assert.False(t, p.IsFlagged(0))
	assert.False(t, p.IsFlagged(len(values)-1))
}

func TestExtremePolicy_DefaultWindow(t *testing.T) {
	p := NewExtremePolicy([]float64{0, 1, 0}, DefaultExtremeAlpha, 0)
	assert.Equal(t, DefaultExtremeWindow, p.Window)
}

func TestExtremePolicy_Protected(t *testing.T) {
	p := NewExtremePolicy([]float64{0, 0, 0, 10, 0, 0, 0}, DefaultExtremeAlpha, DefaultExtremeWindow)

	assert.True(t, p.IsFlagged(3))
	assert.False(t, p.IsFlagged(2))
	assert.False(t, p.IsFlagged(-1))
	assert.False(t, p.IsFlagged(7))

	assert.False(t, p.Protected(spanOf(0, 0, 0), spanOf(2, 0)))
	assert.True(t, p.Protected(spanOf(0, 0, 0, 0), spanOf(3, 10)))
	assert.True(t, p.Protected(spanOf(3, 10), spanOf(4, 0)))
	assert.True(t, p.Protected(spanOf(1, 0, 0, 10), spanOf(4, 0)))
}

func TestExtremePolicy_PlateauJoinsFreely(t *testing.T) {
	p := NewExtremePolicy([]float64{0, 0, 0, 10, 10, 10, 0, 0}, DefaultExtremeAlpha, DefaultExtremeWindow)

	assert.False(t, p.Protected(spanOf(3, 10), spanOf(4, 10)))
	assert.False(t, p.Protected(spanOf(3, 10, 10), spanOf(5, 10)))
	assert.True(t, p.Protected(spanOf(2, 0), spanOf(3, 10, 10, 10)))
	assert.True(t, p.Protected(spanOf(3, 10, 10, 10), spanOf(6, 0)))
}
