package runner

import (
	"fmt"
	"math"

	"github.com/nickyhof/CatalogRunner/equiv"
)

// Config controls which backends run and how results are compared
type Config struct {
	// Backends lists backend ids to run; empty means all registered backends
	Backends []string

	// Tolerance is the relative tolerance for float cells
	Tolerance float64

	// StopOnMismatch ends the run at the first mismatching operation
	StopOnMismatch bool
}

// DefaultConfig runs every backend with the default float tolerance
func DefaultConfig() Config {
	return Config{
		Tolerance: equiv.DefaultTolerance,
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) || c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be a positive number, got %g", c.Tolerance)
	}
	if c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be below 1, got %g", c.Tolerance)
	}

	seen := make(map[string]bool, len(c.Backends))
	for _, id := range c.Backends {
		if id == "" {
			return fmt.Errorf("empty backend id")
		}
		if seen[id] {
			return fmt.Errorf("backend %s listed twice", id)
		}
		seen[id] = true
	}
	return nil
}
