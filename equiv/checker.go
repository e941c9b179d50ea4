package equiv

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// DefaultTolerance is the relative tolerance used for float cells
const DefaultTolerance = 1e-9

type Status int

const (
	Match Status = iota
	Mismatch
	Failed
	NotRun
)

func (s Status) String() string {
	switch s {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case Failed:
		return "failed"
	case NotRun:
		return "not run"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// BackendResult is what one backend produced for an operation: a normalized
// table or an error.
type BackendResult struct {
	Backend string
	Table   *core.Table
	Err     error
}

// Result is the verdict for one operation across all backends
type Result struct {
	Operation string
	Status    Status

	// Canonical is the backend whose output the others were compared to
	Canonical string
	Compared  []string
	Rows      int

	Mismatches []*core.MismatchError
	Errors     []error

	// Skipped lists backends without an expression for the operation
	Skipped []string
}

// Passed reports whether every backend that ran agreed
func (r Result) Passed() bool {
	return r.Status == Match
}

// Checker compares normalized backend outputs per catalog operation
type Checker struct {
	catalog   *catalog.Catalog
	tolerance float64
}

func NewChecker(cat *catalog.Catalog, tolerance float64) *Checker {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Checker{catalog: cat, tolerance: tolerance}
}

func (c *Checker) Tolerance() float64 {
	return c.tolerance
}

// Compare checks every produced table against the first one. Results must be
// in backend registration order.
func (c *Checker) Compare(operation string, results []BackendResult) Result {
	result := Result{Operation: operation, Status: Match}

	op, ok := c.catalog.Get(operation)
	if !ok {
		result.Status = Failed
		result.Errors = append(result.Errors, fmt.Errorf("unknown operation %s", operation))
		return result
	}

	var canonical *core.Table
	for _, r := range results {
		var unsupported *core.UnsupportedOperationError
		switch {
		case errors.As(r.Err, &unsupported):
			result.Skipped = append(result.Skipped, r.Backend)
		case r.Err != nil:
			result.Errors = append(result.Errors, r.Err)
		case r.Table == nil:
			result.Errors = append(result.Errors, &core.BackendExecutionError{
				Backend: r.Backend, Operation: operation, Err: errors.New("no result produced"),
			})
		case canonical == nil:
			canonical = c.prepare(op, r.Table)
			result.Canonical = r.Backend
			result.Rows = canonical.RowCount()
		default:
			result.Compared = append(result.Compared, r.Backend)
			if mismatch := c.diff(op, canonical, c.prepare(op, r.Table)); mismatch != nil {
				mismatch.Operation = operation
				mismatch.Backend = r.Backend
				mismatch.Canonical = result.Canonical
				result.Mismatches = append(result.Mismatches, mismatch)
			}
		}
	}

	switch {
	case len(result.Errors) > 0:
		result.Status = Failed
	case len(result.Mismatches) > 0:
		result.Status = Mismatch
	case canonical == nil:
		result.Status = NotRun
	}
	return result
}

// prepare returns a copy in comparison form: empty pivot rows dropped and,
// unless order is significant, rows sorted.
func (c *Checker) prepare(op *catalog.Operation, table *core.Table) *core.Table {
	prepared := table.Clone()

	if op.IsPivot() {
		keys := make(map[int]bool, len(op.PivotKeys))
		for _, key := range op.PivotKeys {
			keys[prepared.Index(key)] = true
		}
		kept := prepared.Rows[:0]
		for _, row := range prepared.Rows {
			for i, value := range row {
				if !keys[i] && value != nil {
					kept = append(kept, row)
					break
				}
			}
		}
		prepared.Rows = kept
	}

	if !op.Ordered {
		sort.SliceStable(prepared.Rows, func(i, j int) bool {
			return c.compareRows(prepared.Rows[i], prepared.Rows[j]) < 0
		})
	}
	return prepared
}

func (c *Checker) diff(op *catalog.Operation, canonical, other *core.Table) *core.MismatchError {
	want, got := canonical.ColumnNames(), other.ColumnNames()
	if strings.Join(want, ",") != strings.Join(got, ",") {
		return &core.MismatchError{
			Row:    -1,
			Reason: fmt.Sprintf("columns [%s], expected [%s]", strings.Join(got, ", "), strings.Join(want, ", ")),
		}
	}
	if other.RowCount() != canonical.RowCount() {
		return &core.MismatchError{
			Row:    -1,
			Reason: fmt.Sprintf("%d rows, expected %d", other.RowCount(), canonical.RowCount()),
		}
	}

	for r := range canonical.Rows {
		for i, column := range want {
			if !c.equal(canonical.Rows[r][i], other.Rows[r][i]) {
				return &core.MismatchError{
					Row: r,
					Reason: fmt.Sprintf("column %s: %s, expected %s",
						column, core.FormatValue(other.Rows[r][i]), core.FormatValue(canonical.Rows[r][i])),
				}
			}
		}
	}
	return nil
}

// equal treats floats within the relative tolerance as equal
func (c *Checker) equal(a, b any) bool {
	return c.compare(a, b) == 0
}

func (c *Checker) compareRows(a, b []any) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if cmp := c.compare(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

// compare orders nulls first, then by value. Values of different kinds
// order by kind.
func (c *Checker) compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return c.compareFloat(x, y)
		}
		if y, ok := b.(int64); ok {
			return c.compareFloat(x, float64(y))
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
		if y, ok := b.(float64); ok {
			return c.compareFloat(float64(x), y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

func (c *Checker) compareFloat(a, b float64) int {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	if math.Abs(a-b) <= c.tolerance*scale {
		return 0
	}
	return cmpOrdered(a, b)
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
