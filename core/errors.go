package core

import (
	"fmt"
	"strings"
)

// LoadError reports malformed seed data. It is fatal for the whole run.
type LoadError struct {
	Table  string // seed table name
	Row    int    // 0-based row index, -1 when the problem is table-level
	Reason string
}

func (e *LoadError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("load %s: row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("load %s: %s", e.Table, e.Reason)
}

// UnsupportedOperationError records that a backend has no expression for an
// operation. It is detected when the adapter is opened.
type UnsupportedOperationError struct {
	Backend   string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("backend %s does not support operation %s", e.Backend, e.Operation)
}

// MismatchError names the backend whose output diverged from the canonical
// result and the first differing row (-1 when the difference is in shape).
type MismatchError struct {
	Operation string
	Backend   string
	Canonical string
	Row       int
	Reason    string
}

func (e *MismatchError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("operation %s: backend %s disagrees with %s", e.Operation, e.Backend, e.Canonical))

	if e.Row >= 0 {
		parts = append(parts, fmt.Sprintf("at row %d", e.Row))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, " - ")
}

// BackendExecutionError wraps a failure raised by an engine or library while
// executing an operation.
type BackendExecutionError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *BackendExecutionError) Error() string {
	return fmt.Sprintf("backend %s failed on %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendExecutionError) Unwrap() error {
	return e.Err
}
