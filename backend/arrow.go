package backend

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/math"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// arrowExpr is the native form of an operation on Arrow record batches. run
// returns a record owned by the caller; inputs stay owned by the session.
type arrowExpr struct {
	snippet string
	run     func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error)
}

type arrowBackend struct{}

// NewArrow returns the columnar backend built on Apache Arrow record batches
// and the arrow compute kernels.
func NewArrow() Backend {
	return &arrowBackend{}
}

func (b *arrowBackend) ID() string {
	return "arrow"
}

func (b *arrowBackend) Kind() string {
	return KindDataframe
}

func (b *arrowBackend) Expressions() map[string]string {
	snippets := make(map[string]string, len(arrowExpressions))
	for name, expr := range arrowExpressions {
		snippets[name] = expr.snippet
	}
	return snippets
}

func (b *arrowBackend) Open(ctx context.Context) (Session, error) {
	return &arrowSession{
		mem:     memory.NewGoAllocator(),
		records: make(map[string]arrowRecord),
	}, nil
}

type arrowRecord struct {
	source *core.Table
	rec    arrow.Record
}

type arrowSession struct {
	mem     memory.Allocator
	records map[string]arrowRecord
}

func (s *arrowSession) Execute(ctx context.Context, op *catalog.Operation, inputs map[string]*core.Table) (Result, error) {
	expr, ok := arrowExpressions[op.Name]
	if !ok {
		return Result{}, fmt.Errorf("no arrow expression for %s", op.Name)
	}

	in := make(map[string]arrow.Record, len(inputs))
	for name, table := range inputs {
		rec, err := s.record(name, table)
		if err != nil {
			return Result{}, err
		}
		in[name] = rec
	}

	out, err := expr.run(compute.WithAllocator(ctx, s.mem), s.mem, in)
	if err != nil {
		return Result{}, err
	}
	defer out.Release()

	return arrowResult(out), nil
}

// record converts a canonical table, reusing the previous conversion when the
// same table is passed again.
func (s *arrowSession) record(name string, table *core.Table) (arrow.Record, error) {
	if cached, ok := s.records[name]; ok {
		if cached.source == table {
			return cached.rec, nil
		}
		cached.rec.Release()
		delete(s.records, name)
	}

	fields := make([]arrow.Field, len(table.Columns))
	for i, column := range table.Columns {
		fields[i] = arrow.Field{Name: column.Name, Type: arrowType(column.Type), Nullable: true}
	}
	rec, err := buildRecord(s.mem, fields, table.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", name, err)
	}
	s.records[name] = arrowRecord{source: table, rec: rec}
	return rec, nil
}

// Close releases every cached record
func (s *arrowSession) Close() error {
	for name, cached := range s.records {
		cached.rec.Release()
		delete(s.records, name)
	}
	return nil
}

func arrowType(t core.SemanticType) arrow.DataType {
	switch t {
	case core.IntegerType:
		return arrow.PrimitiveTypes.Int64
	case core.FloatType:
		return arrow.PrimitiveTypes.Float64
	case core.BooleanType:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// buildRecord appends Go values row by row; nil becomes a null slot
func buildRecord(mem memory.Allocator, fields []arrow.Field, rows [][]any) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	for r, row := range rows {
		if len(row) != len(fields) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(fields))
		}
		for c, value := range row {
			if err := appendValue(b.Field(c), value); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r, fields[c].Name, err)
			}
		}
	}

	return b.NewRecord(), nil
}

func appendValue(b array.Builder, value any) error {
	if value == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			fb.Append(v)
		case int:
			fb.Append(int64(v))
		default:
			return fmt.Errorf("cannot append %T to int64", value)
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			fb.Append(v)
		case int64:
			fb.Append(float64(v))
		default:
			return fmt.Errorf("cannot append %T to float64", value)
		}
	case *array.StringBuilder:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot append %T to string", value)
		}
		fb.Append(v)
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("cannot append %T to bool", value)
		}
		fb.Append(v)
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

// valueAt reads one slot as a Go value; nulls read as nil
func valueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	default:
		return a.ValueStr(i)
	}
}

func arrowResult(rec arrow.Record) Result {
	result := Result{
		Columns: make([]string, rec.NumCols()),
		Rows:    make([][]any, rec.NumRows()),
	}
	for c := range result.Columns {
		result.Columns[c] = rec.ColumnName(c)
	}
	for r := range result.Rows {
		row := make([]any, rec.NumCols())
		for c := range row {
			row[c] = valueAt(rec.Column(c), r)
		}
		result.Rows[r] = row
	}
	return result
}

func column(rec arrow.Record, name string) (arrow.Array, error) {
	indices := rec.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, fmt.Errorf("column %s not found", name)
	}
	return rec.Column(indices[0]), nil
}

// project selects columns by name, renaming them when aliases are given
func project(rec arrow.Record, names []string, aliases ...string) (arrow.Record, error) {
	fields := make([]arrow.Field, len(names))
	columns := make([]arrow.Array, len(names))
	for i, name := range names {
		indices := rec.Schema().FieldIndices(name)
		if len(indices) == 0 {
			return nil, fmt.Errorf("column %s not found", name)
		}
		fields[i] = rec.Schema().Field(indices[0])
		if i < len(aliases) && aliases[i] != "" {
			fields[i].Name = aliases[i]
		}
		columns[i] = rec.Column(indices[0])
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), columns, rec.NumRows()), nil
}

// withColumn returns rec with the named column replaced, or appended if absent
func withColumn(rec arrow.Record, field arrow.Field, values arrow.Array) arrow.Record {
	fields := append([]arrow.Field(nil), rec.Schema().Fields()...)
	columns := append([]arrow.Array(nil), rec.Columns()...)
	if indices := rec.Schema().FieldIndices(field.Name); len(indices) > 0 {
		fields[indices[0]] = field
		columns[indices[0]] = values
	} else {
		fields = append(fields, field)
		columns = append(columns, values)
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), columns, rec.NumRows())
}

func releaseAll(recs []arrow.Record) {
	for _, rec := range recs {
		if rec != nil {
			rec.Release()
		}
	}
}

// call runs a compute function that produces an array
func call(ctx context.Context, fn string, args ...compute.Datum) (arrow.Array, error) {
	out, err := compute.CallFunction(ctx, fn, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	defer out.Release()

	datum, ok := out.(*compute.ArrayDatum)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected %s result", fn, out.Kind())
	}
	return datum.MakeArray(), nil
}

// compare evaluates column <fn> value as a boolean mask
func compare(ctx context.Context, rec arrow.Record, name, fn string, value scalar.Scalar) (arrow.Array, error) {
	arr, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	return call(ctx, fn, compute.NewDatum(arr), compute.NewDatum(value))
}

// filterBy keeps the rows of rec where the mask computed by fn is true
func filterBy(ctx context.Context, rec arrow.Record, fn string, args ...compute.Datum) (arrow.Record, error) {
	mask, err := call(ctx, fn, args...)
	if err != nil {
		return nil, err
	}
	defer mask.Release()
	return compute.FilterRecordBatch(ctx, rec, mask, compute.DefaultFilterOptions())
}

func filterWhere(ctx context.Context, rec arrow.Record, name, fn string, value scalar.Scalar) (arrow.Record, error) {
	arr, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	return filterBy(ctx, rec, fn, compute.NewDatum(arr), compute.NewDatum(value))
}

// filterBoth combines two comparisons with a boolean kernel ("and" / "or")
func filterBoth(ctx context.Context, cars arrow.Record, combine string) (arrow.Record, error) {
	mpg, err := compare(ctx, cars, "mpg", "equal", scalar.NewFloat64Scalar(21))
	if err != nil {
		return nil, err
	}
	defer mpg.Release()

	cyl, err := compare(ctx, cars, "cyl", "equal", scalar.NewInt64Scalar(6))
	if err != nil {
		return nil, err
	}
	defer cyl.Release()

	return filterBy(ctx, cars, combine, compute.NewDatum(mpg), compute.NewDatum(cyl))
}

func notNull(ctx context.Context, arr arrow.Array) (arrow.Array, error) {
	mask, err := call(ctx, "is_not_null", compute.NewDatum(arr))
	if err != nil {
		return nil, err
	}
	defer mask.Release()
	return compute.FilterArray(ctx, arr, mask, *compute.DefaultFilterOptions())
}

func isIn(ctx context.Context, valueSet, values arrow.Array) (arrow.Array, error) {
	out, err := compute.IsInSet(ctx, compute.NewDatum(valueSet), compute.NewDatum(values))
	if err != nil {
		return nil, fmt.Errorf("is_in: %w", err)
	}
	defer out.Release()

	datum, ok := out.(*compute.ArrayDatum)
	if !ok {
		return nil, fmt.Errorf("is_in: unexpected %s result", out.Kind())
	}
	return datum.MakeArray(), nil
}

// take gathers rows by index
func take(ctx context.Context, mem memory.Allocator, rec arrow.Record, rows []int) (arrow.Record, error) {
	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	for _, r := range rows {
		ib.Append(int64(r))
	}
	indices := ib.NewArray()
	defer indices.Release()

	columns := make([]arrow.Array, rec.NumCols())
	defer func() {
		for _, c := range columns {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range columns {
		taken, err := compute.TakeArray(ctx, rec.Column(i), indices)
		if err != nil {
			return nil, fmt.Errorf("take %s: %w", rec.ColumnName(i), err)
		}
		columns[i] = taken
	}
	return array.NewRecord(rec.Schema(), columns, int64(len(rows))), nil
}

// concat stacks records sharing schema; no records yields an empty one
func concat(mem memory.Allocator, schema *arrow.Schema, recs ...arrow.Record) (arrow.Record, error) {
	if len(recs) == 0 {
		return buildRecord(mem, schema.Fields(), nil)
	}

	var rows int64
	for _, rec := range recs {
		if !rec.Schema().Equal(schema) {
			return nil, fmt.Errorf("cannot append records with different schemas")
		}
		rows += rec.NumRows()
	}

	columns := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range columns {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range columns {
		parts := make([]arrow.Array, len(recs))
		for j, rec := range recs {
			parts[j] = rec.Column(i)
		}
		joined, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, err
		}
		columns[i] = joined
	}
	return array.NewRecord(schema, columns, rows), nil
}

// partition splits rec into one record per distinct value of key, in the
// order the unique kernel reports them. Null keys form their own part.
func partition(ctx context.Context, rec arrow.Record, key string) ([]arrow.Record, error) {
	arr, err := column(rec, key)
	if err != nil {
		return nil, err
	}
	values, err := compute.UniqueArray(ctx, arr)
	if err != nil {
		return nil, fmt.Errorf("unique %s: %w", key, err)
	}
	defer values.Release()

	parts := make([]arrow.Record, 0, values.Len())
	for i := 0; i < values.Len(); i++ {
		var part arrow.Record
		if values.IsNull(i) {
			part, err = filterBy(ctx, rec, "is_null", compute.NewDatum(arr))
		} else {
			var value scalar.Scalar
			if value, err = scalar.GetScalar(values, i); err == nil {
				part, err = filterWhere(ctx, rec, key, "equal", value)
			}
		}
		if err != nil {
			releaseAll(parts)
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// groupBy partitions rec by the distinct tuples of keys; every group is
// non-empty and keeps rec's schema.
func groupBy(ctx context.Context, rec arrow.Record, keys ...string) ([]arrow.Record, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("group by needs at least one key")
	}
	parts, err := partition(ctx, rec, keys[0])
	if err != nil || len(keys) == 1 {
		return parts, err
	}

	var groups []arrow.Record
	for i, part := range parts {
		sub, err := groupBy(ctx, part, keys[1:]...)
		if err != nil {
			releaseAll(groups)
			releaseAll(parts[i:])
			return nil, err
		}
		part.Release()
		groups = append(groups, sub...)
	}
	return groups, nil
}

// distinct keeps one row per distinct row of rec
func distinct(ctx context.Context, mem memory.Allocator, rec arrow.Record) (arrow.Record, error) {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	groups, err := groupBy(ctx, rec, names...)
	if err != nil {
		return nil, err
	}
	defer releaseAll(groups)

	heads := make([]arrow.Record, len(groups))
	for i, group := range groups {
		heads[i] = group.NewSlice(0, 1)
	}
	defer releaseAll(heads)
	return concat(mem, rec.Schema(), heads...)
}

// occurrences keeps the rows whose value in name occurs a number of times
// accepted by keep
func occurrences(ctx context.Context, mem memory.Allocator, rec arrow.Record, name string, keep func(rows int64) bool) (arrow.Record, error) {
	arr, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	groups, err := groupBy(ctx, rec, name)
	if err != nil {
		return nil, err
	}
	defer releaseAll(groups)

	var kept []arrow.Record
	for _, group := range groups {
		if keep(group.NumRows()) {
			kept = append(kept, group.NewSlice(0, 1))
		}
	}
	defer releaseAll(kept)

	heads, err := concat(mem, rec.Schema(), kept...)
	if err != nil {
		return nil, err
	}
	defer heads.Release()
	valueSet, err := column(heads, name)
	if err != nil {
		return nil, err
	}

	mask, err := isIn(ctx, valueSet, arr)
	if err != nil {
		return nil, err
	}
	defer mask.Release()
	return compute.FilterRecordBatch(ctx, rec, mask, compute.DefaultFilterOptions())
}

// join matches every right row against the left key with the equal kernel
// and broadcasts the right row's cells over the matches. Left rows whose key
// is not in the right key column get null right cells when keepUnmatched.
func join(ctx context.Context, mem memory.Allocator, left, right arrow.Record, key string, keepUnmatched bool) (arrow.Record, error) {
	leftKey, err := column(left, key)
	if err != nil {
		return nil, err
	}
	rightKey, err := column(right, key)
	if err != nil {
		return nil, err
	}

	fields := append([]arrow.Field(nil), left.Schema().Fields()...)
	var rightColumns []arrow.Array
	for i, field := range right.Schema().Fields() {
		if field.Name != key {
			fields = append(fields, field)
			rightColumns = append(rightColumns, right.Column(i))
		}
	}
	schema := arrow.NewSchema(fields, nil)

	var pieces []arrow.Record
	defer func() { releaseAll(pieces) }()

	for r := 0; r < rightKey.Len(); r++ {
		if rightKey.IsNull(r) {
			continue
		}
		value, err := scalar.GetScalar(rightKey, r)
		if err != nil {
			return nil, err
		}
		matched, err := filterWhere(ctx, left, key, "equal", value)
		if err != nil {
			return nil, err
		}
		piece, err := widen(mem, schema, matched, rightColumns, r)
		matched.Release()
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
	}

	if keepUnmatched {
		found, err := isIn(ctx, rightKey, leftKey)
		if err != nil {
			return nil, err
		}
		defer found.Release()
		unmatched, err := filterBy(ctx, left, "not", compute.NewDatum(found))
		if err != nil {
			return nil, err
		}
		defer unmatched.Release()
		piece, err := widen(mem, schema, unmatched, rightColumns, -1)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
	}

	return concat(mem, schema, pieces...)
}

// widen appends one column per right column to rec, repeating the right
// cell at row r, or nulls when r is negative.
func widen(mem memory.Allocator, schema *arrow.Schema, rec arrow.Record, rightColumns []arrow.Array, r int) (arrow.Record, error) {
	n := int(rec.NumRows())
	columns := append([]arrow.Array(nil), rec.Columns()...)

	var extra []arrow.Array
	defer func() {
		for _, arr := range extra {
			arr.Release()
		}
	}()
	for _, right := range rightColumns {
		if r < 0 {
			extra = append(extra, array.MakeArrayOfNull(mem, right.DataType(), n))
			continue
		}
		cell, err := scalar.GetScalar(right, r)
		if err != nil {
			return nil, err
		}
		repeated, err := scalar.MakeArrayFromScalar(cell, n, mem)
		if err != nil {
			return nil, err
		}
		extra = append(extra, repeated)
	}
	return array.NewRecord(schema, append(columns, extra...), int64(n)), nil
}

// summarizeCyl computes one group-aggregate row for a group of cars
func summarizeCyl(ctx context.Context, group arrow.Record) ([]any, error) {
	cyl, err := column(group, "cyl")
	if err != nil {
		return nil, err
	}
	mpgColumn, err := column(group, "mpg")
	if err != nil {
		return nil, err
	}
	hpColumn, err := column(group, "hp")
	if err != nil {
		return nil, err
	}

	mpg, err := notNull(ctx, mpgColumn)
	if err != nil {
		return nil, err
	}
	defer mpg.Release()
	hp, err := notNull(ctx, hpColumn)
	if err != nil {
		return nil, err
	}
	defer hp.Release()

	floats, ok := mpg.(*array.Float64)
	if !ok {
		return nil, fmt.Errorf("mpg is %s, expected float64", mpg.DataType())
	}
	ints, ok := hp.(*array.Int64)
	if !ok {
		return nil, fmt.Errorf("hp is %s, expected int64", hp.DataType())
	}

	var avg, highest any
	if floats.Len() > 0 {
		avg = math.Float64.Sum(floats) / float64(floats.Len())
	}
	if ints.Len() > 0 {
		highest = maxInt64(ints)
	}
	return []any{valueAt(cyl, 0), avg, highest, group.NumRows()}, nil
}

// maxInt64 expects a non-empty array without nulls; arrow-go registers no
// aggregate kernels
func maxInt64(arr *array.Int64) int64 {
	values := arr.Int64Values()
	highest := values[0]
	for _, v := range values[1:] {
		if v > highest {
			highest = v
		}
	}
	return highest
}

// pivot sums population per key tuple and year. The spread values are the
// distinct years of the input; a year that is not a declared column fails
// the pivot. Missing combinations are null.
func pivot(ctx context.Context, mem memory.Allocator, cities arrow.Record, keys ...string) (arrow.Record, error) {
	years, err := column(cities, "year")
	if err != nil {
		return nil, err
	}
	spread, err := compute.UniqueArray(ctx, years)
	if err != nil {
		return nil, fmt.Errorf("unique year: %w", err)
	}
	defer spread.Release()
	for i := 0; i < spread.Len(); i++ {
		if year := spread.ValueStr(i); spread.IsNull(i) || !slices.Contains(catalog.PivotYears, year) {
			return nil, fmt.Errorf("pivot year %s is not one of the declared columns %v", year, catalog.PivotYears)
		}
	}

	var fields []arrow.Field
	for _, key := range keys {
		arr, err := column(cities, key)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: key, Type: arr.DataType(), Nullable: true})
	}
	for _, year := range catalog.PivotYears {
		fields = append(fields, arrow.Field{Name: year, Type: arrow.PrimitiveTypes.Int64, Nullable: true})
	}

	groups, err := groupBy(ctx, cities, keys...)
	if err != nil {
		return nil, err
	}
	defer releaseAll(groups)

	rows := make([][]any, len(groups))
	for g, group := range groups {
		row := make([]any, 0, len(fields))
		for _, key := range keys {
			arr, err := column(group, key)
			if err != nil {
				return nil, err
			}
			row = append(row, valueAt(arr, 0))
		}
		for _, year := range catalog.PivotYears {
			y, err := strconv.ParseInt(year, 10, 64)
			if err != nil {
				return nil, err
			}
			total, err := yearTotal(ctx, group, y)
			if err != nil {
				return nil, err
			}
			row = append(row, total)
		}
		rows[g] = row
	}
	return buildRecord(mem, fields, rows)
}

// yearTotal sums the non-null population of the rows in year, or nil when
// there are none
func yearTotal(ctx context.Context, rec arrow.Record, year int64) (any, error) {
	slice, err := filterWhere(ctx, rec, "year", "equal", scalar.NewInt64Scalar(year))
	if err != nil {
		return nil, err
	}
	defer slice.Release()
	population, err := column(slice, "population")
	if err != nil {
		return nil, err
	}
	values, err := notNull(ctx, population)
	if err != nil {
		return nil, err
	}
	defer values.Release()

	ints, ok := values.(*array.Int64)
	if !ok {
		return nil, fmt.Errorf("population is %s, expected int64", values.DataType())
	}
	if ints.Len() == 0 {
		return nil, nil
	}
	return math.Int64.Sum(ints), nil
}

// unpivot emits one (key, year, population) row per non-null year cell
func unpivot(ctx context.Context, mem memory.Allocator, wide arrow.Record, key string) (arrow.Record, error) {
	keyColumn, err := column(wide, key)
	if err != nil {
		return nil, err
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: key, Type: keyColumn.DataType(), Nullable: true},
		{Name: "year", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "population", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)

	var parts []arrow.Record
	defer func() { releaseAll(parts) }()
	for _, year := range catalog.PivotYears {
		cells, err := column(wide, year)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseInt(year, 10, 64)
		if err != nil {
			return nil, err
		}
		years, err := scalar.MakeArrayFromScalar(scalar.NewInt64Scalar(y), cells.Len(), mem)
		if err != nil {
			return nil, err
		}
		long := array.NewRecord(schema, []arrow.Array{keyColumn, years, cells}, wide.NumRows())
		years.Release()

		part, err := filterBy(ctx, long, "is_not_null", compute.NewDatum(cells))
		long.Release()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return concat(mem, schema, parts...)
}

// Snippets show the call sequence of each run function with its error checks
// elided.
var arrowExpressions = map[string]arrowExpr{
	catalog.RenameSelect: {
		snippet: `project(cars, []string{"model_name", "mpg"}, "model")`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return project(in["cars"], []string{"model_name", "mpg"}, "model")
		},
	},
	catalog.DistinctSelect: {
		snippet: `cyl, err := column(cars, "cyl")
unique, err := compute.UniqueArray(ctx, cyl)
array.NewRecord(arrow.NewSchema([]arrow.Field{{Name: "cyl", Type: unique.DataType(), Nullable: true}}, nil),
	[]arrow.Array{unique}, int64(unique.Len()))`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			cyl, err := column(in["cars"], "cyl")
			if err != nil {
				return nil, err
			}
			unique, err := compute.UniqueArray(ctx, cyl)
			if err != nil {
				return nil, err
			}
			defer unique.Release()
			return array.NewRecord(arrow.NewSchema([]arrow.Field{{Name: "cyl", Type: unique.DataType(), Nullable: true}}, nil),
				[]arrow.Array{unique}, int64(unique.Len())), nil
		},
	},
	catalog.Shape: {
		snippet: `buildRecord(mem, []arrow.Field{
	{Name: "row_count", Type: arrow.PrimitiveTypes.Int64},
	{Name: "column_count", Type: arrow.PrimitiveTypes.Int64},
}, [][]any{{cars.NumRows(), cars.NumCols()}})`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			cars := in["cars"]
			return buildRecord(mem, []arrow.Field{
				{Name: "row_count", Type: arrow.PrimitiveTypes.Int64},
				{Name: "column_count", Type: arrow.PrimitiveTypes.Int64},
			}, [][]any{{cars.NumRows(), cars.NumCols()}})
		},
	},
	catalog.DerivedColumn: {
		snippet: `hp, err := column(cars, "hp")
wt, err := column(cars, "wt")
hpFloat, err := compute.CastArray(ctx, hp, compute.SafeCastOptions(arrow.PrimitiveTypes.Float64))
ratio, err := call(ctx, "divide", compute.NewDatum(hpFloat), compute.NewDatum(wt))
base, err := project(cars, []string{"model_name", "hp", "wt"})
withColumn(base, arrow.Field{Name: "hp_per_wt", Type: arrow.PrimitiveTypes.Float64, Nullable: true}, ratio)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			cars := in["cars"]
			hp, err := column(cars, "hp")
			if err != nil {
				return nil, err
			}
			wt, err := column(cars, "wt")
			if err != nil {
				return nil, err
			}

			hpFloat, err := compute.CastArray(ctx, hp, compute.SafeCastOptions(arrow.PrimitiveTypes.Float64))
			if err != nil {
				return nil, err
			}
			defer hpFloat.Release()
			ratio, err := call(ctx, "divide", compute.NewDatum(hpFloat), compute.NewDatum(wt))
			if err != nil {
				return nil, err
			}
			defer ratio.Release()

			base, err := project(cars, []string{"model_name", "hp", "wt"})
			if err != nil {
				return nil, err
			}
			defer base.Release()
			return withColumn(base, arrow.Field{Name: "hp_per_wt", Type: arrow.PrimitiveTypes.Float64, Nullable: true}, ratio), nil
		},
	},
	catalog.FilterAnd: {
		snippet: `mpg, err := compare(ctx, cars, "mpg", "equal", scalar.NewFloat64Scalar(21))
cyl, err := compare(ctx, cars, "cyl", "equal", scalar.NewInt64Scalar(6))
filterBy(ctx, cars, "and", compute.NewDatum(mpg), compute.NewDatum(cyl))`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return filterBoth(ctx, in["cars"], "and")
		},
	},
	catalog.FilterOr: {
		snippet: `mpg, err := compare(ctx, cars, "mpg", "equal", scalar.NewFloat64Scalar(21))
cyl, err := compare(ctx, cars, "cyl", "equal", scalar.NewInt64Scalar(6))
filterBy(ctx, cars, "or", compute.NewDatum(mpg), compute.NewDatum(cyl))`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return filterBoth(ctx, in["cars"], "or")
		},
	},
	catalog.SortDescLimit: {
		snippet: `mpg, err := column(cars, "mpg")
names, err := column(cars, "model_name")
m, n := mpg.(*array.Float64), names.(*array.String)
rows := make([]int, cars.NumRows())
for i := range rows {
	rows[i] = i
}
sort.SliceStable(rows, func(i, j int) bool {
	a, b := rows[i], rows[j]
	if m.Value(a) != m.Value(b) {
		return m.Value(a) > m.Value(b)
	}
	return n.Value(a) < n.Value(b)
})
top, err := project(cars, []string{"model_name", "mpg"})
take(ctx, mem, top, rows[:min(len(rows), 5)])`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			cars := in["cars"]
			mpg, err := column(cars, "mpg")
			if err != nil {
				return nil, err
			}
			names, err := column(cars, "model_name")
			if err != nil {
				return nil, err
			}
			m, ok := mpg.(*array.Float64)
			if !ok {
				return nil, fmt.Errorf("mpg is %s, expected float64", mpg.DataType())
			}
			n, ok := names.(*array.String)
			if !ok {
				return nil, fmt.Errorf("model_name is %s, expected string", names.DataType())
			}

			rows := make([]int, cars.NumRows())
			for i := range rows {
				rows[i] = i
			}
			sort.SliceStable(rows, func(i, j int) bool {
				a, b := rows[i], rows[j]
				if m.Value(a) != m.Value(b) {
					return m.Value(a) > m.Value(b)
				}
				return n.Value(a) < n.Value(b)
			})

			top, err := project(cars, []string{"model_name", "mpg"})
			if err != nil {
				return nil, err
			}
			defer top.Release()
			return take(ctx, mem, top, rows[:min(len(rows), 5)])
		},
	},
	catalog.GroupAggregate: {
		snippet: `groups, err := groupBy(ctx, cars, "cyl")
rows := make([][]any, len(groups))
for i, group := range groups {
	rows[i], err = summarizeCyl(ctx, group)
}
buildRecord(mem, []arrow.Field{
	{Name: "cyl", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "avg_mpg", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "max_hp", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "n", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
}, rows)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			groups, err := groupBy(ctx, in["cars"], "cyl")
			if err != nil {
				return nil, err
			}
			defer releaseAll(groups)

			rows := make([][]any, len(groups))
			for i, group := range groups {
				if rows[i], err = summarizeCyl(ctx, group); err != nil {
					return nil, err
				}
			}
			return buildRecord(mem, []arrow.Field{
				{Name: "cyl", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
				{Name: "avg_mpg", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
				{Name: "max_hp", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
				{Name: "n", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
			}, rows)
		},
	},
	catalog.CreateOrReplace: {
		snippet: `cars.Retain()
return cars, nil`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			in["cars"].Retain()
			return in["cars"], nil
		},
	},
	catalog.CreateIfNotExists: {
		snippet: `snapshot, ok := tables["cars_snapshot"]
if !ok {
	snapshot = cars
}
snapshot.Retain()`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			snapshot, ok := in[catalog.CarsSnapshot]
			if !ok {
				snapshot = in["cars"]
			}
			snapshot.Retain()
			return snapshot, nil
		},
	},
	catalog.UniqueCheck: {
		snippet: `names, err := column(cars, "model_name")
unique, err := compute.UniqueArray(ctx, names)
distinct := int64(unique.Len())
buildRecord(mem, []arrow.Field{
	{Name: "model_name_unique", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "distinct_models", Type: arrow.PrimitiveTypes.Int64},
}, [][]any{{distinct == cars.NumRows(), distinct}})`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			cars := in["cars"]
			names, err := column(cars, "model_name")
			if err != nil {
				return nil, err
			}
			unique, err := compute.UniqueArray(ctx, names)
			if err != nil {
				return nil, err
			}
			defer unique.Release()

			distinct := int64(unique.Len())
			return buildRecord(mem, []arrow.Field{
				{Name: "model_name_unique", Type: arrow.FixedWidthTypes.Boolean},
				{Name: "distinct_models", Type: arrow.PrimitiveTypes.Int64},
			}, [][]any{{distinct == cars.NumRows(), distinct}})
		},
	},
	catalog.DuplicateRows: {
		snippet: `pairs, err := project(cars, []string{"model_name", "mpg"})
occurrences(ctx, mem, pairs, "mpg", func(rows int64) bool { return rows > 1 })`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			pairs, err := project(in["cars"], []string{"model_name", "mpg"})
			if err != nil {
				return nil, err
			}
			defer pairs.Release()
			return occurrences(ctx, mem, pairs, "mpg", func(rows int64) bool { return rows > 1 })
		},
	},
	catalog.UniqueRows: {
		snippet: `pairs, err := project(cars, []string{"model_name", "mpg"})
occurrences(ctx, mem, pairs, "mpg", func(rows int64) bool { return rows == 1 })`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			pairs, err := project(in["cars"], []string{"model_name", "mpg"})
			if err != nil {
				return nil, err
			}
			defer pairs.Release()
			return occurrences(ctx, mem, pairs, "mpg", func(rows int64) bool { return rows == 1 })
		},
	},
	catalog.JoinLeft: {
		snippet: `join(ctx, mem, cylSummary, cylinders, "cyl", true)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return join(ctx, mem, in[catalog.CylSummary], in["cylinders"], "cyl", true)
		},
	},
	catalog.JoinInner: {
		snippet: `join(ctx, mem, cylSummary, cylinders, "cyl", false)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return join(ctx, mem, in[catalog.CylSummary], in["cylinders"], "cyl", false)
		},
	},
	catalog.AppendAll: {
		snippet: `concat(mem, carsAnd.Schema(), carsAnd, carsOr)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			carsAnd := in[catalog.CarsAnd]
			return concat(mem, carsAnd.Schema(), carsAnd, in[catalog.CarsOr])
		},
	},
	catalog.AppendDistinct: {
		snippet: `all, err := concat(mem, carsAnd.Schema(), carsAnd, carsOr)
distinct(ctx, mem, all)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			carsAnd := in[catalog.CarsAnd]
			all, err := concat(mem, carsAnd.Schema(), carsAnd, in[catalog.CarsOr])
			if err != nil {
				return nil, err
			}
			defer all.Release()
			return distinct(ctx, mem, all)
		},
	},
	catalog.DeleteRow: {
		snippet: `filterWhere(ctx, cars, "model_name", "not_equal", scalar.NewStringScalar("Mazda RX4"))`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return filterWhere(ctx, in["cars"], "model_name", "not_equal", scalar.NewStringScalar("Mazda RX4"))
		},
	},
	catalog.DeleteRowAgain: {
		snippet: `filterWhere(ctx, carsDeleted, "model_name", "not_equal", scalar.NewStringScalar("Mazda RX4"))`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return filterWhere(ctx, in[catalog.CarsDeleted], "model_name", "not_equal", scalar.NewStringScalar("Mazda RX4"))
		},
	},
	catalog.UpdateCell: {
		snippet: `hit, err := compare(ctx, cars, "model_name", "equal", scalar.NewStringScalar("Mazda RX4 Wag"))
weight, err := compute.CastToType(ctx, hit, arrow.PrimitiveTypes.Float64)
keep, err := call(ctx, "subtract", compute.NewDatum(scalar.NewFloat64Scalar(1)), compute.NewDatum(weight))
mpg, err := column(cars, "mpg")
kept, err := call(ctx, "multiply", compute.NewDatum(mpg), compute.NewDatum(keep))
set, err := call(ctx, "multiply", compute.NewDatum(weight), compute.NewDatum(scalar.NewFloat64Scalar(999)))
updated, err := call(ctx, "add", compute.NewDatum(kept), compute.NewDatum(set))
withColumn(cars, cars.Schema().Field(cars.Schema().FieldIndices("mpg")[0]), updated)`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			cars := in["cars"]
			hit, err := compare(ctx, cars, "model_name", "equal", scalar.NewStringScalar("Mazda RX4 Wag"))
			if err != nil {
				return nil, err
			}
			defer hit.Release()
			weight, err := compute.CastToType(ctx, hit, arrow.PrimitiveTypes.Float64)
			if err != nil {
				return nil, err
			}
			defer weight.Release()
			keep, err := call(ctx, "subtract", compute.NewDatum(scalar.NewFloat64Scalar(1)), compute.NewDatum(weight))
			if err != nil {
				return nil, err
			}
			defer keep.Release()

			mpg, err := column(cars, "mpg")
			if err != nil {
				return nil, err
			}
			kept, err := call(ctx, "multiply", compute.NewDatum(mpg), compute.NewDatum(keep))
			if err != nil {
				return nil, err
			}
			defer kept.Release()
			set, err := call(ctx, "multiply", compute.NewDatum(weight), compute.NewDatum(scalar.NewFloat64Scalar(999)))
			if err != nil {
				return nil, err
			}
			defer set.Release()
			updated, err := call(ctx, "add", compute.NewDatum(kept), compute.NewDatum(set))
			if err != nil {
				return nil, err
			}
			defer updated.Release()

			return withColumn(cars, cars.Schema().Field(cars.Schema().FieldIndices("mpg")[0]), updated), nil
		},
	},
	catalog.CreateIfNotExistsAgain: {
		snippet: `snapshot, ok := tables["cars_snapshot"]
if !ok {
	snapshot = carsDeleted
}
snapshot.Retain()`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			snapshot, ok := in[catalog.CarsSnapshot]
			if !ok {
				snapshot = in[catalog.CarsDeleted]
			}
			snapshot.Retain()
			return snapshot, nil
		},
	},
	catalog.Pivot: {
		snippet: `pivot(ctx, mem, cities, "country")`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return pivot(ctx, mem, in["cities"], "country")
		},
	},
	catalog.PivotTwoKeys: {
		snippet: `pivot(ctx, mem, cities, "continent", "country")`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return pivot(ctx, mem, in["cities"], "continent", "country")
		},
	},
	catalog.PivotFiltered: {
		snippet: `large, err := filterWhere(ctx, cities, "population", "greater", scalar.NewInt64Scalar(61000000))
pivot(ctx, mem, large, "country")`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			large, err := filterWhere(ctx, in["cities"], "population", "greater", scalar.NewInt64Scalar(61000000))
			if err != nil {
				return nil, err
			}
			defer large.Release()
			return pivot(ctx, mem, large, "country")
		},
	},
	catalog.Unpivot: {
		snippet: `unpivot(ctx, mem, citiesWide, "country")`,
		run: func(ctx context.Context, mem memory.Allocator, in map[string]arrow.Record) (arrow.Record, error) {
			return unpivot(ctx, mem, in[catalog.CitiesWide], "country")
		},
	},
}
