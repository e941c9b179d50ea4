package catalog

import (
	"fmt"

	"github.com/nickyhof/CatalogRunner/core"
)

type MaterializeMode int

const (
	// Replace overwrites the materialized table on every run (CREATE OR REPLACE)
	Replace MaterializeMode = iota
	// IfNotExists keeps an already materialized table (CREATE TABLE IF NOT EXISTS)
	IfNotExists
)

func (m MaterializeMode) String() string {
	switch m {
	case Replace:
		return "create-or-replace"
	case IfNotExists:
		return "create-if-not-exists"
	default:
		return fmt.Sprintf("MaterializeMode(%d)", int(m))
	}
}

// Operation is a backend-independent description of a data transformation.
// Backends hold the native expression for it; the operation only declares
// what goes in and what shape comes out.
type Operation struct {
	Name        string
	Description string
	Inputs      []string
	Schema      []core.Column

	// Ordered marks operations whose row order is part of the result
	Ordered bool

	// PivotKeys lists the grouping columns of a wide (pivoted) result
	PivotKeys []string

	// Materialize names the table the result is stored as for later operations
	Materialize string
	Mode        MaterializeMode
}

// IsPivot reports whether the operation produces a wide layout
func (op *Operation) IsPivot() bool {
	return len(op.PivotKeys) > 0
}

// ColumnNames returns the expected output column names in order
func (op *Operation) ColumnNames() []string {
	names := make([]string, len(op.Schema))
	for i, column := range op.Schema {
		names[i] = column.Name
	}
	return names
}

func (op *Operation) validate() error {
	if op.Name == "" {
		return fmt.Errorf("operation has no name")
	}
	if len(op.Inputs) == 0 {
		return fmt.Errorf("operation %s has no inputs", op.Name)
	}
	if len(op.Schema) == 0 {
		return fmt.Errorf("operation %s declares no output columns", op.Name)
	}

	seen := make(map[string]bool, len(op.Schema))
	for _, column := range op.Schema {
		if seen[column.Name] {
			return fmt.Errorf("operation %s: duplicate output column %q", op.Name, column.Name)
		}
		seen[column.Name] = true
	}
	for _, key := range op.PivotKeys {
		if !seen[key] {
			return fmt.Errorf("operation %s: pivot key %q is not an output column", op.Name, key)
		}
	}
	if op.Mode == IfNotExists && op.Materialize == "" {
		return fmt.Errorf("operation %s: create-if-not-exists without a target table", op.Name)
	}
	return nil
}
