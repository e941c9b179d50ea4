package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

type sessionEntry struct {
	backend Backend
	session Session
	openErr error
}

// Adapter executes catalog operations on a fixed set of backends. It owns one
// session per backend for the lifetime of a run.
type Adapter struct {
	catalog     *catalog.Catalog
	order       []string
	entries     map[string]*sessionEntry
	unsupported map[string]map[string]bool
	logger      *zap.SugaredLogger
}

// NewAdapter opens a session on every backend and checks each backend's
// expressions against the catalog. A backend that fails to open is kept and
// reports the open failure on every Execute.
func NewAdapter(ctx context.Context, cat *catalog.Catalog, backends []Backend, logger *zap.SugaredLogger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	a := &Adapter{
		catalog:     cat,
		entries:     make(map[string]*sessionEntry, len(backends)),
		unsupported: make(map[string]map[string]bool, len(backends)),
		logger:      logger,
	}

	for _, b := range backends {
		if _, exists := a.entries[b.ID()]; exists {
			return nil, multierr.Append(fmt.Errorf("backend %s registered twice", b.ID()), a.Close())
		}

		expressions := b.Expressions()
		missing := make(map[string]bool)
		for _, name := range cat.Names() {
			if _, ok := expressions[name]; !ok {
				missing[name] = true
				logger.Warnw("operation not supported", "backend", b.ID(), "operation", name)
			}
		}
		a.unsupported[b.ID()] = missing

		entry := &sessionEntry{backend: b}
		session, err := b.Open(ctx)
		if err != nil {
			entry.openErr = err
			logger.Errorw("failed to open backend", "backend", b.ID(), "error", err)
		} else {
			entry.session = session
			logger.Debugw("opened backend", "backend", b.ID(), "kind", b.Kind())
		}

		a.entries[b.ID()] = entry
		a.order = append(a.order, b.ID())
	}

	return a, nil
}

// Backends returns backend ids in registration order
func (a *Adapter) Backends() []string {
	return append([]string(nil), a.order...)
}

// Supports reports whether the backend registered an expression for the operation
func (a *Adapter) Supports(backendID, operationName string) bool {
	missing, ok := a.unsupported[backendID]
	return ok && !missing[operationName]
}

// Unsupported lists every (backend, operation) pair without an expression, in
// registration and catalog order.
func (a *Adapter) Unsupported() []*core.UnsupportedOperationError {
	var errs []*core.UnsupportedOperationError
	for _, id := range a.order {
		for _, name := range a.catalog.Names() {
			if a.unsupported[id][name] {
				errs = append(errs, &core.UnsupportedOperationError{Backend: id, Operation: name})
			}
		}
	}
	return errs
}

// Snippet returns the native source a backend runs for an operation
func (a *Adapter) Snippet(backendID, operationName string) string {
	entry, ok := a.entries[backendID]
	if !ok {
		return ""
	}
	return entry.backend.Expressions()[operationName]
}

// Execute runs one operation on one backend and normalizes the result to the
// operation's declared schema.
func (a *Adapter) Execute(ctx context.Context, backendID, operationName string, inputs map[string]*core.Table) (table *core.Table, err error) {
	op, ok := a.catalog.Get(operationName)
	if !ok {
		return nil, fmt.Errorf("unknown operation %s", operationName)
	}
	entry, ok := a.entries[backendID]
	if !ok {
		return nil, fmt.Errorf("unknown backend %s", backendID)
	}
	if !a.Supports(backendID, operationName) {
		return nil, &core.UnsupportedOperationError{Backend: backendID, Operation: operationName}
	}

	fail := func(cause error) error {
		return &core.BackendExecutionError{Backend: backendID, Operation: operationName, Err: cause}
	}

	if entry.openErr != nil {
		return nil, fail(fmt.Errorf("backend unavailable: %w", entry.openErr))
	}
	if entry.session == nil {
		return nil, fail(fmt.Errorf("session closed"))
	}
	for _, input := range op.Inputs {
		if inputs[input] == nil {
			return nil, fail(fmt.Errorf("input table %s is not available", input))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	startTime := time.Now()
	raw, execErr := entry.session.Execute(ctx, op, inputs)
	if execErr != nil {
		return nil, fail(execErr)
	}

	name := op.Name
	if op.Materialize != "" {
		name = op.Materialize
	}
	table, normErr := core.Normalize(name, raw.Columns, raw.Rows, op.Schema)
	if normErr != nil {
		return nil, fail(fmt.Errorf("normalize result: %w", normErr))
	}

	a.logger.Debugw("executed operation",
		"backend", backendID,
		"operation", operationName,
		"rows", table.RowCount(),
		"duration", time.Since(startTime))

	return table, nil
}

// Close releases every session. It is safe to call more than once.
func (a *Adapter) Close() error {
	var err error
	for _, id := range a.order {
		entry := a.entries[id]
		if entry.session == nil {
			continue
		}
		if closeErr := entry.session.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", id, closeErr))
		}
		entry.session = nil
		a.logger.Debugw("closed backend", "backend", id)
	}
	return err
}
