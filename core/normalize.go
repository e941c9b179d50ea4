package core

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Normalize projects a raw backend result onto the declared schema and coerces
// every value to the shared semantic type set. Columns are matched by name.
// A result carrying a column the schema does not declare, or the same column
// twice, is rejected rather than projected away.
func Normalize(name string, columns []string, rows [][]any, schema []Column) (*Table, error) {
	declared := make(map[string]bool, len(schema))
	for _, column := range schema {
		declared[column.Name] = true
	}
	seen := make(map[string]bool, len(columns))
	for _, raw := range columns {
		if seen[raw] {
			return nil, fmt.Errorf("result has column %q twice", raw)
		}
		seen[raw] = true
		if !declared[raw] {
			return nil, fmt.Errorf("result has undeclared column %q (declared %s)", raw, strings.Join((&Table{Columns: schema}).ColumnNames(), ", "))
		}
	}

	positions := make([]int, len(schema))
	for i, column := range schema {
		positions[i] = -1
		for j, raw := range columns {
			if raw == column.Name {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return nil, fmt.Errorf("result is missing column %q (got %s)", column.Name, strings.Join(columns, ", "))
		}
	}

	table := &Table{
		Name:    name,
		Columns: append([]Column(nil), schema...),
		Rows:    make([][]any, 0, len(rows)),
	}
	for r, raw := range rows {
		if len(raw) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(raw), len(columns))
		}
		row := make([]any, len(schema))
		for i, column := range schema {
			value, err := Coerce(raw[positions[i]], column.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r, column.Name, err)
			}
			row[i] = value
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Coerce converts a native value to the representation of typ. NaN floats
// are treated as null.
func Coerce(value any, typ SemanticType) (any, error) {
	if value == nil {
		return nil, nil
	}
	if f, ok := value.(float64); ok && math.IsNaN(f) {
		return nil, nil
	}
	if f, ok := value.(float32); ok && math.IsNaN(float64(f)) {
		return nil, nil
	}

	switch typ {
	case IntegerType:
		return toInteger(value)
	case FloatType:
		return toFloat(value)
	case StringType:
		return toString(value)
	case BooleanType:
		return toBoolean(value)
	case NullType:
		return nil, fmt.Errorf("non-null value %v in null column", value)
	default:
		return nil, fmt.Errorf("unknown semantic type %v", typ)
	}
}

func toInteger(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", v)
		}
		return int64(v), nil
	case *big.Int:
		if !v.IsInt64() {
			return nil, fmt.Errorf("integer %s overflows int64", v.String())
		}
		return v.Int64(), nil
	case float32:
		return integralFloat(float64(v))
	case float64:
		return integralFloat(v)
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case []byte:
		return toInteger(string(v))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if ferr != nil {
				return nil, fmt.Errorf("cannot parse %q as integer", v)
			}
			return integralFloat(f)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to integer", value)
	}
}

func integralFloat(f float64) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("float %v is not integral", f)
	}
	return int64(f), nil
}

func toFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	case []byte:
		return toFloat(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float", v)
		}
		return f, nil
	default:
		i, err := toInteger(value)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %T to float", value)
		}
		return float64(i.(int64)), nil
	}
}

func toString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to string", value)
	}
}

func toBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case []byte:
		return toBoolean(string(v))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as boolean", v)
		}
		return b, nil
	default:
		i, err := toInteger(value)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %T to boolean", value)
		}
		switch i.(int64) {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("integer %d is not a boolean", i)
		}
	}
}
