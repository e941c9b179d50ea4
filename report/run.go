package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/equiv"
)

// Process exit codes
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitInvalidConfig = 2
)

// Run is the outcome of executing a catalog across backends
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Backends   []string
	Tolerance  float64

	// LoadError is set when the seed data could not be loaded; no operation
	// runs in that case.
	LoadError error

	Unsupported []*core.UnsupportedOperationError

	// Stopped is set when the run ended early on a mismatch
	Stopped bool

	// Cancelled is set when the context ended the run before every
	// operation was attempted
	Cancelled bool

	Results []equiv.Result
}

// NewRun starts a run with a fresh id
func NewRun(backends []string, tolerance float64) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Backends:  append([]string(nil), backends...),
		Tolerance: tolerance,
	}
}

// Finish stamps the finish time
func (r *Run) Finish() {
	r.FinishedAt = time.Now().UTC()
}

func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result returns the verdict for an operation, if it was recorded
func (r *Run) Result(operation string) (equiv.Result, bool) {
	for _, result := range r.Results {
		if result.Operation == operation {
			return result, true
		}
	}
	return equiv.Result{}, false
}

// Counts tallies results by status
func (r *Run) Counts() map[equiv.Status]int {
	counts := map[equiv.Status]int{
		equiv.Match:    0,
		equiv.Mismatch: 0,
		equiv.Failed:   0,
		equiv.NotRun:   0,
	}
	for _, result := range r.Results {
		counts[result.Status]++
	}
	return counts
}

// Passed is true when seeds loaded, the run was not cancelled and no
// operation mismatched or failed
func (r *Run) Passed() bool {
	if r.LoadError != nil || r.Cancelled {
		return false
	}
	for _, result := range r.Results {
		if result.Status == equiv.Mismatch || result.Status == equiv.Failed {
			return false
		}
	}
	return true
}

func (r *Run) ExitCode() int {
	if r.Passed() {
		return ExitOK
	}
	return ExitFailure
}
