package runner

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/dataset"
	"github.com/nickyhof/CatalogRunner/equiv"
	"github.com/nickyhof/CatalogRunner/report"
)

// Runner executes a catalog on a set of backends and compares the results.
// A run is sequential: operations in declaration order, backends in
// registration order.
type Runner struct {
	config   Config
	catalog  *catalog.Catalog
	backends []backend.Backend
	checker  *equiv.Checker
	logger   *zap.SugaredLogger
	load     func() (map[string]*core.Table, error)
}

// New validates config and selects the configured backends from the given set
func New(config Config, cat *catalog.Catalog, backends []backend.Backend, logger *zap.SugaredLogger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cat == nil {
		return nil, fmt.Errorf("invalid config: no catalog")
	}

	selected, err := backend.Select(backends, config.Backends)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("invalid config: no backends")
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Runner{
		config:   config,
		catalog:  cat,
		backends: selected,
		checker:  equiv.NewChecker(cat, config.Tolerance),
		logger:   logger,
		load:     dataset.Load,
	}, nil
}

// UseSeeds replaces the built-in sample data
func (r *Runner) UseSeeds(seeds []dataset.Seed) {
	r.load = func() (map[string]*core.Table, error) {
		return dataset.LoadFrom(seeds)
	}
}

// Backends returns the selected backends in registration order
func (r *Runner) Backends() []backend.Backend {
	return append([]backend.Backend(nil), r.backends...)
}

func (r *Runner) Catalog() *catalog.Catalog {
	return r.catalog
}

// Run loads the seeds, executes every operation on every backend and records
// one verdict per operation. Per-operation failures are part of the returned
// run; the error is reserved for backend teardown failures and cancellation.
func (r *Runner) Run(ctx context.Context) (run *report.Run, err error) {
	run = report.NewRun(backend.IDs(r.backends), r.checker.Tolerance())
	defer run.Finish()

	r.logger.Infow("starting run",
		"run", run.ID,
		"backends", run.Backends,
		"operations", r.catalog.Len())

	seeds, loadErr := r.load()
	if loadErr != nil {
		run.LoadError = loadErr
		r.logger.Errorw("failed to load seed data", "run", run.ID, "error", loadErr)
		return run, nil
	}

	operations := r.catalog.Operations()
	if ctxErr := ctx.Err(); ctxErr != nil {
		run.Cancelled = true
		r.skip(run, operations)
		return run, ctxErr
	}

	adapter, err := backend.NewAdapter(ctx, r.catalog, r.backends, r.logger)
	if err != nil {
		return run, err
	}
	defer func() {
		if closeErr := adapter.Close(); closeErr != nil {
			r.logger.Errorw("failed to close backends", "run", run.ID, "error", closeErr)
			err = multierr.Append(err, closeErr)
		}
	}()
	run.Unsupported = adapter.Unsupported()

	// each backend reads and materializes tables in its own environment
	envs := make(map[string]map[string]*core.Table, len(r.backends))
	for _, id := range adapter.Backends() {
		env := make(map[string]*core.Table, len(seeds))
		for name, table := range seeds {
			env[name] = table
		}
		envs[id] = env
	}

	for i, op := range operations {
		if ctxErr := ctx.Err(); ctxErr != nil {
			run.Cancelled = true
			r.skip(run, operations[i:])
			return run, ctxErr
		}

		results := make([]equiv.BackendResult, 0, len(r.backends))
		for _, id := range adapter.Backends() {
			results = append(results, r.execute(ctx, adapter, id, op, envs[id]))
		}

		result := r.checker.Compare(op.Name, results)
		run.Results = append(run.Results, result)
		r.logResult(result)

		if result.Status == equiv.Mismatch && r.config.StopOnMismatch {
			run.Stopped = true
			r.skip(run, operations[i+1:])
			r.logger.Warnw("stopping on mismatch", "run", run.ID, "operation", op.Name)
			break
		}
	}

	r.logger.Infow("finished run", "run", run.ID, "passed", run.Passed())
	return run, nil
}

func (r *Runner) execute(ctx context.Context, adapter *backend.Adapter, id string, op *catalog.Operation, env map[string]*core.Table) equiv.BackendResult {
	if !adapter.Supports(id, op.Name) {
		return equiv.BackendResult{
			Backend: id,
			Err:     &core.UnsupportedOperationError{Backend: id, Operation: op.Name},
		}
	}

	inputs := make(map[string]*core.Table, len(op.Inputs)+1)
	for _, name := range op.Inputs {
		if table, ok := env[name]; ok {
			inputs[name] = table
		}
	}
	existing, exists := env[op.Materialize]
	if op.Mode == catalog.IfNotExists && exists {
		inputs[op.Materialize] = existing
	}

	table, err := adapter.Execute(ctx, id, op.Name, inputs)
	if err != nil {
		r.logger.Warnw("operation failed", "backend", id, "operation", op.Name, "error", err)
		return equiv.BackendResult{Backend: id, Err: err}
	}

	if op.Materialize != "" && !(op.Mode == catalog.IfNotExists && exists) {
		env[op.Materialize] = table
	}
	return equiv.BackendResult{Backend: id, Table: table}
}

// skip records operations that were never attempted
func (r *Runner) skip(run *report.Run, operations []*catalog.Operation) {
	for _, op := range operations {
		run.Results = append(run.Results, equiv.Result{Operation: op.Name, Status: equiv.NotRun})
	}
}

func (r *Runner) logResult(result equiv.Result) {
	switch result.Status {
	case equiv.Match:
		r.logger.Debugw("operation matched",
			"operation", result.Operation,
			"canonical", result.Canonical,
			"rows", result.Rows)
	case equiv.Mismatch:
		for _, m := range result.Mismatches {
			r.logger.Warnw("operation mismatched",
				"operation", result.Operation,
				"backend", m.Backend,
				"row", m.Row,
				"reason", m.Reason)
		}
	case equiv.Failed:
		r.logger.Warnw("operation failed", "operation", result.Operation, "errors", len(result.Errors))
	}
}
