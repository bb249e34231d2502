package dispatch

import (
	"fmt"
	"time"
)

// Config defines solver settings.
type Config struct {
	// Tolerance is passed to the simplex iterations.
	Tolerance float64 `json:"tolerance"`
	// FeasibilityTolerance bounds the constraint residual accepted from the
	// solver before its answer is rejected.
	FeasibilityTolerance float64 `json:"feasibility_tolerance"`
	// TimeLimitSeconds aborts the solve when positive. It defaults to
	// DefaultTimeLimitSeconds.
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	// Method selects the simplex implementation: MethodBounded (default) or
	// MethodGonum.
	Method string `json:"method"`
}

// Solver methods.
const (
	MethodBounded = "bounded"
	MethodGonum   = "gonum"
)

// DefaultTimeLimitSeconds caps a solve when no limit is configured.
const DefaultTimeLimitSeconds = 60

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Tolerance == 0 {
		c.Tolerance = 1e-7
	}
	if c.FeasibilityTolerance == 0 {
		c.FeasibilityTolerance = 1e-6
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if c.Method == "" {
		c.Method = MethodBounded
	}
}

// Validate checks the configured values.
func (c Config) Validate() error {
	if c.Tolerance < 0 || c.FeasibilityTolerance < 0 {
		return fmt.Errorf("tolerances must be >= 0")
	}
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("time_limit_seconds must be >= 0")
	}
	switch c.Method {
	case "", MethodBounded, MethodGonum:
	default:
		return fmt.Errorf("unknown solver method %q", c.Method)
	}
	return nil
}

// TimeLimit returns the configured limit as a duration.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}
