package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type SemanticType int

const (
	IntegerType SemanticType = iota
	FloatType
	StringType
	BooleanType
	NullType
)

func (t SemanticType) String() string {
	switch t {
	case IntegerType:
		return "integer"
	case FloatType:
		return "float"
	case StringType:
		return "string"
	case BooleanType:
		return "boolean"
	case NullType:
		return "null"
	default:
		return fmt.Sprintf("SemanticType(%d)", int(t))
	}
}

type Column struct {
	Name string       `json:"name"`
	Type SemanticType `json:"type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Identity is the author recorded on archived reports
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RowCount returns the number of rows in the table
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the declared column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, column := range t.Columns {
		names[i] = column.Name
	}
	return names
}

// Index returns the position of the named column, or -1
func (t *Table) Index(name string) int {
	for i, column := range t.Columns {
		if column.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table; values are immutable scalars so
// copying the row slices is enough.
func (t *Table) Clone() *Table {
	clone := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		clone.Rows[i] = append([]any(nil), row...)
	}
	return clone
}

// Validate checks the table invariants: unique column names, one value per
// column in every row, and values matching their declared semantic type.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	for _, column := range t.Columns {
		if column.Name == "" {
			return fmt.Errorf("table %s: empty column name", t.Name)
		}
		if seen[column.Name] {
			return fmt.Errorf("table %s: duplicate column %q", t.Name, column.Name)
		}
		seen[column.Name] = true
	}

	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s: row %d has %d values, expected %d", t.Name, r, len(row), len(t.Columns))
		}
		for c, value := range row {
			if !conforms(value, t.Columns[c].Type) {
				return fmt.Errorf("table %s: row %d column %s: value %v (%T) is not %s",
					t.Name, r, t.Columns[c].Name, value, value, t.Columns[c].Type)
			}
		}
	}
	return nil
}

func conforms(value any, typ SemanticType) bool {
	if value == nil {
		return true
	}
	switch typ {
	case IntegerType:
		_, ok := value.(int64)
		return ok
	case FloatType:
		f, ok := value.(float64)
		return ok && !math.IsNaN(f)
	case StringType:
		_, ok := value.(string)
		return ok
	case BooleanType:
		_, ok := value.(bool)
		return ok
	default:
		return false
	}
}

// FormatValue renders a cell for display; nulls render as NULL
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatRow renders a whole row, used in mismatch reasons
func FormatRow(row []any) string {
	parts := make([]string, len(row))
	for i, value := range row {
		parts[i] = FormatValue(value)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
