package core

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return &Table{
		Name: "cars",
		Columns: []Column{
			{Name: "model_name", Type: StringType},
			{Name: "mpg", Type: FloatType},
			{Name: "cyl", Type: IntegerType},
		},
		Rows: [][]any{
			{"Mazda RX4", 21.0, int64(6)},
			{"Datsun 710", 22.8, int64(4)},
		},
	}
}

func TestTableValidate(t *testing.T) {
	require.NoError(t, testTable().Validate())

	ragged := testTable()
	ragged.Rows[1] = []any{"Datsun 710", 22.8}
	require.ErrorContains(t, ragged.Validate(), "row 1 has 2 values")

	duplicate := testTable()
	duplicate.Columns[2].Name = "mpg"
	require.ErrorContains(t, duplicate.Validate(), "duplicate column")

	wrongType := testTable()
	wrongType.Rows[0][2] = "six"
	require.ErrorContains(t, wrongType.Validate(), "is not integer")

	withNull := testTable()
	withNull.Rows[0][1] = nil
	require.NoError(t, withNull.Validate())
}

func TestTableClone(t *testing.T) {
	original := testTable()
	clone := original.Clone()
	clone.Rows[0][1] = 999.0

	require.Equal(t, 21.0, original.Rows[0][1])
	require.Equal(t, 2, clone.RowCount())
	require.Equal(t, []string{"model_name", "mpg", "cyl"}, clone.ColumnNames())
	require.Equal(t, 1, clone.Index("mpg"))
	require.Equal(t, -1, clone.Index("hp"))
}

func TestNormalizeProjectsAndCoerces(t *testing.T) {
	schema := []Column{
		{Name: "cyl", Type: IntegerType},
		{Name: "avg_mpg", Type: FloatType},
		{Name: "is_unique", Type: BooleanType},
	}
	columns := []string{"is_unique", "avg_mpg", "cyl"}
	rows := [][]any{
		{int64(1), int64(26), big.NewInt(4)},
		{false, math.NaN(), 6.0},
		{"true", "19.5", "8"},
	}

	table, err := Normalize("summary", columns, rows, schema)
	require.NoError(t, err)
	require.NoError(t, table.Validate())
	require.Equal(t, [][]any{
		{int64(4), 26.0, true},
		{int64(6), nil, false},
		{int64(8), 19.5, true},
	}, table.Rows)
}

func TestNormalizeErrors(t *testing.T) {
	schema := []Column{{Name: "cyl", Type: IntegerType}}

	_, err := Normalize("t", []string{"other"}, [][]any{{int64(1)}}, schema)
	require.ErrorContains(t, err, "undeclared column \"other\"")

	_, err = Normalize("t", nil, nil, schema)
	require.ErrorContains(t, err, "missing column")

	// a spread value outside the declared schema surfaces as an extra column
	_, err = Normalize("t", []string{"cyl", "2030"}, [][]any{{int64(1), int64(2)}}, schema)
	require.ErrorContains(t, err, "undeclared column \"2030\"")

	_, err = Normalize("t", []string{"cyl", "cyl"}, [][]any{{int64(1), int64(1)}}, schema)
	require.ErrorContains(t, err, "column \"cyl\" twice")

	_, err = Normalize("t", []string{"cyl"}, [][]any{{4.5}}, schema)
	require.ErrorContains(t, err, "not integral")

	_, err = Normalize("t", []string{"cyl"}, [][]any{{int64(1), int64(2)}}, schema)
	require.ErrorContains(t, err, "row 0 has 2 values")
}

func TestCoerceBoolean(t *testing.T) {
	tests := []struct {
		in   any
		want any
		err  bool
	}{
		{true, true, false},
		{int64(0), false, false},
		{int64(1), true, false},
		{int64(2), nil, true},
		{"false", false, false},
		{nil, nil, false},
	}
	for _, tt := range tests {
		got, err := Coerce(tt.in, BooleanType)
		if tt.err {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "NULL", FormatValue(nil))
	require.Equal(t, "21", FormatValue(21.0))
	require.Equal(t, "22.8", FormatValue(22.8))
	require.Equal(t, "6", FormatValue(int64(6)))
	require.Equal(t, "(Mazda RX4, 21, NULL)", FormatRow([]any{"Mazda RX4", 21.0, nil}))
}

func TestErrorKinds(t *testing.T) {
	inner := errors.New("boom")
	var err error = &BackendExecutionError{Backend: "duckdb", Operation: "pivot", Err: inner}
	require.ErrorIs(t, err, inner)

	var execErr *BackendExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, "duckdb", execErr.Backend)

	mismatch := &MismatchError{Operation: "filter-and", Backend: "gota", Canonical: "duckdb", Row: 1, Reason: "value differs"}
	require.Equal(t, "operation filter-and: backend gota disagrees with duckdb - at row 1 - value differs", mismatch.Error())

	load := &LoadError{Table: "cars", Row: -1, Reason: "no columns"}
	require.Equal(t, "load cars: no columns", load.Error())
}
