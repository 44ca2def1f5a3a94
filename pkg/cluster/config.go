package cluster

import (
	"fmt"
	"strings"
)

// Method selects the cost model of a run
type Method string

const (
	MethodWard         Method = "ward"
	MethodIntegralCost Method = "integral_cost"
	MethodQuantile     Method = "quantile"
	MethodPenalized    Method = "penalized"
	MethodPeaksAndLows Method = "peaks_and_lows"
)

// Default method parameters
const (
	DefaultLambda           = 10.0
	DefaultExtremeAlpha     = 0.03
	DefaultExtremeWindow    = 12 // hours each side; a daily peak is the extreme of its day
	DefaultDemandAlpha      = 0.75 // over-weights peaks
	DefaultGenerationAlpha  = 0.25 // over-weights troughs
	DefaultQuantileAlpha    = DefaultDemandAlpha
	DefaultPreserveExtremes = false
)

// Methods lists every supported method in a stable order
func Methods() []Method {
	return []Method{MethodWard, MethodIntegralCost, MethodQuantile, MethodPenalized, MethodPeaksAndLows}
}

// ParseMethod converts a method name into a Method
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Config is the explicit per-call configuration of a clustering run
type Config struct {
	Method   Method  `yaml:"method" json:"method"`
	Clusters int     `yaml:"clusters" json:"clusters"` // target segment count
	Alpha    float64 `yaml:"alpha" json:"alpha"`       // quantile bias or extreme threshold, 0 selects the method default
	Lambda   float64 `yaml:"lambda" json:"lambda"`     // penalized-variance weight

	// PreserveExtremes applies the extreme-preservation policy on top of any
	// method; peaks_and_lows always applies it
	PreserveExtremes bool    `yaml:"preserve_extremes" json:"preserve_extremes"`
	ExtremeAlpha     float64 `yaml:"extreme_alpha" json:"extreme_alpha"`
	ExtremeWindow    int     `yaml:"extreme_window" json:"extreme_window"` // neighbourhood half-width in timesteps

	// CurveErrors records the load duration curve RMSE after every merge
	CurveErrors bool `yaml:"curve_errors" json:"curve_errors"`
}

// DefaultConfig returns a Config with the documented default parameters
func DefaultConfig(method Method, clusters int) Config {
	return Config{
		Method:           method,
		Clusters:         clusters,
		Lambda:           DefaultLambda,
		PreserveExtremes: DefaultPreserveExtremes,
		ExtremeAlpha:     DefaultExtremeAlpha,
		ExtremeWindow:    DefaultExtremeWindow,
	}
}

// Validate checks the configuration without looking at any data
func (c Config) Validate() error {
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.Clusters <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTarget, c.Clusters)
	}
	if c.Alpha < 0 || c.Alpha >= 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", ErrInvalidParameter, c.Alpha)
	}
	if c.ExtremeAlpha < 0 || c.ExtremeAlpha >= 1 {
		return fmt.Errorf("%w: extreme alpha must be in (0, 1), got %v", ErrInvalidParameter, c.ExtremeAlpha)
	}
	if c.ExtremeWindow < 0 {
		return fmt.Errorf("%w: extreme window must be non-negative, got %d", ErrInvalidParameter, c.ExtremeWindow)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("%w: lambda must be non-negative, got %v", ErrInvalidParameter, c.Lambda)
	}
	return nil
}

// Normalized returns c with its method name in canonical form, so that
// " WARD " runs, labels and IDs exactly like "ward"
func (c Config) Normalized() (Config, error) {
	m, err := ParseMethod(string(c.Method))
	if err != nil {
		return c, err
	}
	c.Method = m
	return c, nil
}

// ForProfile resolves the defaults that depend on the profile, i.e. the
// quantile alpha when none was given
func (c Config) ForProfile(name string) Config {
	out, err := c.Normalized()
	if err != nil {
		out = c
	}
	if out.Alpha == 0 {
		switch out.Method {
		case MethodQuantile:
			out.Alpha = QuantileAlphaFor(name)
		case MethodPeaksAndLows:
			out.Alpha = DefaultExtremeAlpha
		}
	}
	if out.ExtremeAlpha == 0 {
		out.ExtremeAlpha = DefaultExtremeAlpha
	}
	if out.ExtremeWindow == 0 {
		out.ExtremeWindow = DefaultExtremeWindow
	}
	return out
}

// Params renders the method parameters for result IDs and logs
func (c Config) Params() string {
	return fmt.Sprintf("alpha=%g,lambda=%g,extremes=%t,extreme_alpha=%g,extreme_window=%d",
		c.Alpha, c.Lambda, c.PreserveExtremes, c.ExtremeAlpha, c.ExtremeWindow)
}

// Name returns the label used for output directories, e.g. "C672_ward"
func (c Config) Name() string {
	return fmt.Sprintf("C%d_%s", c.Clusters, c.Method)
}

// QuantileAlphaFor picks the quantile bias from the profile kind: generation
// profiles keep their troughs, everything else keeps its peaks
func QuantileAlphaFor(profile string) float64 {
	if strings.Contains(profile, "Solar") || strings.Contains(profile, "Wind") {
		return DefaultGenerationAlpha
	}
	return DefaultDemandAlpha
}
