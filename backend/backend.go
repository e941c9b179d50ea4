package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// Backend kinds
const (
	KindSQLEngine = "sql-engine"
	KindDataframe = "dataframe"
)

// Result is a raw native result before normalization
type Result struct {
	Columns []string
	Rows    [][]any
}

// Backend is a data-processing engine or library that can execute catalog
// operations. Expressions maps an operation name to the native source
// executed for it; operations missing from the map are unsupported.
type Backend interface {
	ID() string
	Kind() string
	Expressions() map[string]string
	Open(ctx context.Context) (Session, error)
}

// Session is the per-run handle of a backend. Sessions own any engine state
// (connections, allocators, cached native tables) and must be closed.
type Session interface {
	Execute(ctx context.Context, op *catalog.Operation, inputs map[string]*core.Table) (Result, error)
	Close() error
}

// Default returns every built-in backend in registration order. The first
// backend provides the canonical result during comparison.
func Default() []Backend {
	return []Backend{
		NewDuckDB(),
		NewSQLite(),
		NewGota(),
		NewArrow(),
	}
}

// IDs returns the ids of the given backends in order
func IDs(backends []Backend) []string {
	ids := make([]string, len(backends))
	for i, b := range backends {
		ids[i] = b.ID()
	}
	return ids
}

// Select keeps the backends named in ids, preserving registration order. An
// empty ids list selects everything.
func Select(backends []Backend, ids []string) ([]Backend, error) {
	if len(ids) == 0 {
		return backends, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = true
	}

	var selected []Backend
	for _, b := range backends {
		if wanted[b.ID()] {
			selected = append(selected, b)
			delete(wanted, b.ID())
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for id := range wanted {
			unknown = append(unknown, id)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown backend(s): %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(IDs(backends), ", "))
	}

	return selected, nil
}
