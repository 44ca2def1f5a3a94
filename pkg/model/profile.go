package model

import (
	"fmt"
	"math"
)

// Profile is one hourly time series identified by its profile name
// (demand, availability or inflow of a single asset)
type Profile struct {
	Name   string    `json:"profile_name"`
	Values []float64 `json:"values"`
}

// NewProfile creates a profile holding a private copy of values
func NewProfile(name string, values []float64) Profile {
	v := make([]float64, len(values))
	copy(v, values)
	return Profile{Name: name, Values: v}
}

// Len returns the number of timesteps
func (p Profile) Len() int {
	return len(p.Values)
}

// MaxAbsValue bounds the magnitude of a profile value; squared sums of
// larger values overflow float64
const MaxAbsValue = 1e100

// Validate returns an error if any value is NaN, infinite or beyond
// MaxAbsValue
func (p Profile) Validate() error {
	for i, v := range p.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("profile %s: invalid value %v at time step %d", p.Name, v, i+1)
		}
		if math.Abs(v) > MaxAbsValue {
			return fmt.Errorf("profile %s: value %v at time step %d exceeds %g", p.Name, v, i+1, MaxAbsValue)
		}
	}
	return nil
}

// Flow connects two assets; it inherits the partition of one of them
type Flow struct {
	FromAsset string `json:"from_asset"`
	ToAsset   string `json:"to_asset"`
}
