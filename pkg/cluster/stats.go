package cluster

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/tunogya/hcpart/pkg/model"
)

// Collector records the realized cost of every merge of one run
type Collector struct {
	profile string
	method  string
	n       int

	errors []float64
	curve  []float64
	total  float64
	start  time.Time
	now    func() time.Time
}

// NewCollector starts the runtime clock for a run over n timesteps
func NewCollector(profile, method string, n int) *Collector {
	c := &Collector{
		profile: profile,
		method:  method,
		n:       n,
		now:     time.Now,
	}
	c.start = c.now()
	return c
}

// Record appends the cost of the latest merge
func (c *Collector) Record(cost float64) {
	c.errors = append(c.errors, cost)
	c.total += cost
}

// RecordCurve appends the load duration curve error after the latest merge
func (c *Collector) RecordCurve(rmse float64) {
	c.curve = append(c.curve, rmse)
}

// Errors returns the merge costs recorded so far, in merge order
func (c *Collector) Errors() []float64 {
	out := make([]float64, len(c.errors))
	copy(out, c.errors)
	return out
}

// Total returns the accumulated error
func (c *Collector) Total() float64 {
	return c.total
}

// Finish stops the clock and reports the final statistics
func (c *Collector) Finish(numClusters int) model.Stats {
	var ratio float64
	if c.n > 0 {
		ratio = float64(numClusters) / float64(c.n)
	}
	return model.Stats{
		ProfileName:      c.profile,
		Method:           c.method,
		NumTimesteps:     c.n,
		NumClusters:      numClusters,
		CompressionRatio: ratio,
		TotalError:       c.total,
		RuntimeSec:       c.now().Sub(c.start).Seconds(),
		MergeErrors:      c.Errors(),
		CurveErrors:      slices.Clone(c.curve),
	}
}

// Cumulative returns the running total of merge errors; entry i is the
// total error after i+1 merges
func Cumulative(mergeErrors []float64) []float64 {
	return floats.CumSum(make([]float64, len(mergeErrors)), mergeErrors)
}
