package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/dataset"
	"github.com/nickyhof/CatalogRunner/equiv"
	"github.com/nickyhof/CatalogRunner/report"
)

// skewed wraps a real backend, renaming it and tampering with chosen operations
type skewed struct {
	backend.Backend
	id       string
	drop     map[string]bool // remove the expression entirely
	fail     map[string]bool // raise an error
	truncate map[string]bool // drop the last result row
}

func (s *skewed) ID() string {
	return s.id
}

func (s *skewed) Expressions() map[string]string {
	expressions := s.Backend.Expressions()
	for name := range s.drop {
		delete(expressions, name)
	}
	return expressions
}

func (s *skewed) Open(ctx context.Context) (backend.Session, error) {
	session, err := s.Backend.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &skewedSession{Session: session, skewed: s}, nil
}

type skewedSession struct {
	backend.Session
	skewed *skewed
}

func (s *skewedSession) Execute(ctx context.Context, op *catalog.Operation, inputs map[string]*core.Table) (backend.Result, error) {
	if s.skewed.fail[op.Name] {
		return backend.Result{}, errors.New("engine crashed")
	}
	result, err := s.Session.Execute(ctx, op, inputs)
	if err == nil && s.skewed.truncate[op.Name] && len(result.Rows) > 0 {
		result.Rows = result.Rows[:len(result.Rows)-1]
	}
	return result, err
}

func newRunner(t *testing.T, config Config, backends ...backend.Backend) *Runner {
	t.Helper()
	r, err := New(config, catalog.Standard(), backends, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return r
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name    string
		config  Config
		message string
	}{
		{"zero tolerance", Config{Tolerance: 0}, "positive"},
		{"negative tolerance", Config{Tolerance: -1e-9}, "positive"},
		{"huge tolerance", Config{Tolerance: 2}, "below 1"},
		{"empty backend", Config{Tolerance: 1e-9, Backends: []string{""}}, "empty backend id"},
		{"duplicate backend", Config{Tolerance: 1e-9, Backends: []string{"arrow", "arrow"}}, "listed twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorContains(t, tt.config.Validate(), tt.message)
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	config := DefaultConfig()
	config.Backends = []string{"duckdb", "spark"}

	_, err := New(config, catalog.Standard(), backend.Default(), nil)
	require.ErrorContains(t, err, "unknown backend(s): spark")
}

func TestRunAllBackendsAgree(t *testing.T) {
	r := newRunner(t, DefaultConfig(), backend.Default()...)

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Nil(t, run.LoadError)
	require.Len(t, run.Results, catalog.Standard().Len())

	for _, result := range run.Results {
		require.Equal(t, equiv.Match, result.Status, "%s: %v %v", result.Operation, result.Mismatches, result.Errors)
		require.Equal(t, "duckdb", result.Canonical)
		require.Equal(t, []string{"sqlite", "gota", "arrow"}, result.Compared)
	}
	require.True(t, run.Passed())
	require.Equal(t, report.ExitOK, run.ExitCode())
	require.False(t, run.FinishedAt.IsZero())
}

func TestRunSelectedBackends(t *testing.T) {
	config := DefaultConfig()
	config.Backends = []string{"arrow", "sqlite"}
	r := newRunner(t, config, backend.Default()...)
	require.Equal(t, []string{"sqlite", "arrow"}, backend.IDs(r.Backends()))

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.True(t, run.Passed())

	result, ok := run.Result(catalog.JoinLeft)
	require.True(t, ok)
	require.Equal(t, "sqlite", result.Canonical)
	require.Equal(t, 3, result.Rows)
}

func TestRunLoadFailure(t *testing.T) {
	r := newRunner(t, DefaultConfig(), backend.NewArrow())
	r.UseSeeds([]dataset.Seed{{
		Name:    dataset.Cars,
		Columns: []core.Column{{Name: "model_name", Type: core.StringType}, {Name: "mpg", Type: core.FloatType}},
		Rows:    [][]any{{"Mazda RX4", 21.0}, {"Datsun 710"}},
	}})

	run, err := r.Run(context.Background())
	require.NoError(t, err)

	var loadErr *core.LoadError
	require.ErrorAs(t, run.LoadError, &loadErr)
	require.Equal(t, 1, loadErr.Row)
	require.Empty(t, run.Results)
	require.Equal(t, report.ExitFailure, run.ExitCode())
}

func TestRunStopsOnMismatch(t *testing.T) {
	config := DefaultConfig()
	config.StopOnMismatch = true
	broken := &skewed{Backend: backend.NewArrow(), id: "broken", truncate: map[string]bool{catalog.FilterOr: true}}
	r := newRunner(t, config, backend.NewDuckDB(), broken)

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.True(t, run.Stopped)
	require.Len(t, run.Results, catalog.Standard().Len())

	result, ok := run.Result(catalog.FilterOr)
	require.True(t, ok)
	require.Equal(t, equiv.Mismatch, result.Status)
	require.Equal(t, "broken", result.Mismatches[0].Backend)
	require.Equal(t, -1, result.Mismatches[0].Row)

	next, ok := run.Result(catalog.SortDescLimit)
	require.True(t, ok)
	require.Equal(t, equiv.NotRun, next.Status)
	require.Equal(t, report.ExitFailure, run.ExitCode())
}

func TestRunContinuesPastMismatch(t *testing.T) {
	broken := &skewed{Backend: backend.NewArrow(), id: "broken", truncate: map[string]bool{catalog.FilterOr: true}}
	r := newRunner(t, DefaultConfig(), backend.NewDuckDB(), broken)

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.False(t, run.Stopped)

	// the truncated cars_or propagates to the union
	appendAll, _ := run.Result(catalog.AppendAll)
	require.Equal(t, equiv.Mismatch, appendAll.Status)
	unpivot, _ := run.Result(catalog.Unpivot)
	require.Equal(t, equiv.Match, unpivot.Status)
}

func TestRunIsolatesFailures(t *testing.T) {
	broken := &skewed{Backend: backend.NewGota(), id: "broken", fail: map[string]bool{catalog.GroupAggregate: true}}
	r := newRunner(t, DefaultConfig(), backend.NewSQLite(), broken)

	run, err := r.Run(context.Background())
	require.NoError(t, err)

	group, _ := run.Result(catalog.GroupAggregate)
	require.Equal(t, equiv.Failed, group.Status)
	require.ErrorContains(t, group.Errors[0], "engine crashed")

	// cyl_summary never materialized for the broken backend
	join, _ := run.Result(catalog.JoinLeft)
	require.Equal(t, equiv.Failed, join.Status)
	var execErr *core.BackendExecutionError
	require.ErrorAs(t, join.Errors[0], &execErr)
	require.ErrorContains(t, execErr, "input table cyl_summary is not available")

	// unrelated operations still match
	pivot, _ := run.Result(catalog.Pivot)
	require.Equal(t, equiv.Match, pivot.Status)
	require.False(t, run.Passed())
}

func TestRunSkipsUnsupported(t *testing.T) {
	partial := &skewed{Backend: backend.NewArrow(), id: "partial", drop: map[string]bool{catalog.PivotTwoKeys: true}}
	r := newRunner(t, DefaultConfig(), backend.NewDuckDB(), partial)

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.True(t, run.Passed())
	require.Len(t, run.Unsupported, 1)
	require.Equal(t, "partial", run.Unsupported[0].Backend)

	result, _ := run.Result(catalog.PivotTwoKeys)
	require.Equal(t, equiv.Match, result.Status)
	require.Equal(t, []string{"partial"}, result.Skipped)
}

func TestRunCancelled(t *testing.T) {
	r := newRunner(t, DefaultConfig(), backend.NewArrow())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, run.Cancelled)
	require.Equal(t, report.ExitFailure, run.ExitCode())
	require.Len(t, run.Results, catalog.Standard().Len())
	for _, result := range run.Results {
		require.Equal(t, equiv.NotRun, result.Status)
	}
}

func TestRunFailsPivotOnUndeclaredYear(t *testing.T) {
	seeds := dataset.Seeds()
	for i := range seeds {
		if seeds[i].Name == dataset.Cities {
			seeds[i].Rows = append(seeds[i].Rows, []any{"Germany", "Europe", 2030, 84000000})
		}
	}
	r := newRunner(t, DefaultConfig(), backend.Default()...)
	r.UseSeeds(seeds)

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	require.False(t, run.Passed())
	require.Equal(t, report.ExitFailure, run.ExitCode())

	for _, name := range []string{catalog.Pivot, catalog.PivotTwoKeys, catalog.PivotFiltered} {
		result, ok := run.Result(name)
		require.True(t, ok)
		require.Equal(t, equiv.Failed, result.Status, name)
		require.Len(t, result.Errors, 4, name)
		for _, err := range result.Errors {
			require.ErrorContains(t, err, "2030", name)
		}
	}

	// no backend materialized cities_wide, so the round trip cannot match
	unpivot, _ := run.Result(catalog.Unpivot)
	require.Equal(t, equiv.Failed, unpivot.Status)

	shape, _ := run.Result(catalog.Shape)
	require.Equal(t, equiv.Match, shape.Status)
}
