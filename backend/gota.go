package backend

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// gotaExpr is the native form of an operation on gota dataframes. run must
// not modify its inputs; gota operations return new frames.
type gotaExpr struct {
	snippet string
	run     func(in map[string]dataframe.DataFrame) dataframe.DataFrame
}

type gotaBackend struct{}

// NewGota returns the backend built on github.com/go-gota/gota dataframes
func NewGota() Backend {
	return &gotaBackend{}
}

func (b *gotaBackend) ID() string {
	return "gota"
}

func (b *gotaBackend) Kind() string {
	return KindDataframe
}

func (b *gotaBackend) Expressions() map[string]string {
	snippets := make(map[string]string, len(gotaExpressions))
	for name, expr := range gotaExpressions {
		snippets[name] = expr.snippet
	}
	return snippets
}

func (b *gotaBackend) Open(ctx context.Context) (Session, error) {
	return &gotaSession{frames: make(map[string]gotaFrame)}, nil
}

type gotaFrame struct {
	source *core.Table
	df     dataframe.DataFrame
}

type gotaSession struct {
	frames map[string]gotaFrame
}

func (s *gotaSession) Execute(ctx context.Context, op *catalog.Operation, inputs map[string]*core.Table) (Result, error) {
	expr, ok := gotaExpressions[op.Name]
	if !ok {
		return Result{}, fmt.Errorf("no gota expression for %s", op.Name)
	}

	in := make(map[string]dataframe.DataFrame, len(inputs))
	for name, table := range inputs {
		df, err := s.frame(name, table)
		if err != nil {
			return Result{}, err
		}
		in[name] = df
	}

	out := expr.run(in)
	if out.Err != nil {
		return Result{}, out.Err
	}
	return gotaResult(out)
}

// frame converts a canonical table, reusing the previous conversion when the
// same table is passed again.
func (s *gotaSession) frame(name string, table *core.Table) (dataframe.DataFrame, error) {
	if cached, ok := s.frames[name]; ok && cached.source == table {
		return cached.df, nil
	}
	df, err := toDataFrame(table)
	if err != nil {
		return df, fmt.Errorf("failed to convert %s: %w", name, err)
	}
	s.frames[name] = gotaFrame{source: table, df: df}
	return df, nil
}

func (s *gotaSession) Close() error {
	s.frames = nil
	return nil
}

func gotaType(t core.SemanticType) series.Type {
	switch t {
	case core.IntegerType:
		return series.Int
	case core.FloatType:
		return series.Float
	case core.BooleanType:
		return series.Bool
	default:
		return series.String
	}
}

// toDataFrame builds typed series from native values; a nil value becomes a
// missing element. gota also reads the string "NaN" as missing, so a string
// column holding it cannot be represented and is rejected.
func toDataFrame(table *core.Table) (dataframe.DataFrame, error) {
	columns := make([]series.Series, len(table.Columns))
	for c, column := range table.Columns {
		values := make([]interface{}, len(table.Rows))
		for r, row := range table.Rows {
			switch v := row[c].(type) {
			case int64:
				values[r] = int(v)
			case string:
				if v == "NaN" {
					return dataframe.DataFrame{}, fmt.Errorf("row %d column %s: string %q would be read as a missing value", r, column.Name, v)
				}
				values[r] = v
			default:
				values[r] = v
			}
		}
		columns[c] = series.New(values, gotaType(column.Type), column.Name)
	}
	df := dataframe.New(columns...)
	return df, df.Err
}

func gotaResult(df dataframe.DataFrame) (Result, error) {
	names := df.Names()
	result := Result{Columns: names, Rows: make([][]any, df.Nrow())}

	for r := 0; r < df.Nrow(); r++ {
		row := make([]any, len(names))
		for c := range names {
			elem := df.Elem(r, c)
			if elem.IsNA() {
				continue
			}
			switch elem.Type() {
			case series.Int:
				v, err := elem.Int()
				if err != nil {
					return Result{}, err
				}
				row[c] = int64(v)
			case series.Float:
				row[c] = elem.Float()
			case series.Bool:
				v, err := elem.Bool()
				if err != nil {
					return Result{}, err
				}
				row[c] = v
			default:
				row[c] = elem.String()
			}
		}
		result.Rows[r] = row
	}

	return result, nil
}

func aggColumn(column string, typ dataframe.AggregationType) string {
	return fmt.Sprintf("%s_%s", column, typ)
}

func countBy(df dataframe.DataFrame, keys ...string) dataframe.DataFrame {
	return df.GroupBy(keys...).
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{keys[0]})
}

// gotaOccurrences keeps the rows whose value in column occurs a number of
// times satisfying comparator against 1.
func gotaOccurrences(df dataframe.DataFrame, column string, comparator series.Comparator) dataframe.DataFrame {
	counts := countBy(df, column).
		Filter(dataframe.F{Colname: aggColumn(column, dataframe.Aggregation_COUNT), Comparator: comparator, Comparando: 1})
	if counts.Err != nil {
		return counts
	}
	return df.Filter(dataframe.F{Colname: column, Comparator: series.In, Comparando: counts.Col(column)})
}

// gotaPivot sums population per key and year. The spread values are the
// distinct years of the input; a year that is not a declared column fails
// the pivot, and a declared year with no rows becomes an all-missing column.
func gotaPivot(cities dataframe.DataFrame, keys ...string) dataframe.DataFrame {
	if cities.Nrow() == 0 {
		return dataframe.DataFrame{Err: fmt.Errorf("pivot input has no rows")}
	}
	spread := countBy(cities, "year")
	if spread.Err != nil {
		return spread
	}
	present := spread.Col("year").Records()
	for _, year := range present {
		if !slices.Contains(catalog.PivotYears, year) {
			return dataframe.DataFrame{Err: fmt.Errorf("pivot year %s is not one of the declared columns %v", year, catalog.PivotYears)}
		}
	}

	wide := countBy(cities, keys...).Select(keys)
	for _, year := range catalog.PivotYears {
		if !slices.Contains(present, year) {
			wide = wide.Mutate(series.New(make([]interface{}, wide.Nrow()), series.Int, year))
			continue
		}
		sums := cities.Filter(dataframe.F{Colname: "year", Comparator: series.Eq, Comparando: year}).
			GroupBy(keys...).
			Aggregation([]dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{"population"}).
			Rename(year, aggColumn("population", dataframe.Aggregation_SUM))
		wide = wide.LeftJoin(sums.Select(append(append([]string(nil), keys...), year)), keys...)
	}
	return wide
}

func gotaUnpivot(wide dataframe.DataFrame, key string) dataframe.DataFrame {
	var long dataframe.DataFrame
	for i, year := range catalog.PivotYears {
		part := wide.Select([]string{key, year}).Rename("population", year)
		years := make([]string, part.Nrow())
		for r := range years {
			years[r] = year
		}
		part = part.Mutate(series.New(years, series.Int, "year")).
			Select([]string{key, "year", "population"}).
			Filter(dataframe.F{Colname: "population", Comparator: series.CompFunc, Comparando: func(el series.Element) bool { return !el.IsNA() }})
		if i == 0 {
			long = part
		} else {
			long = long.RBind(part)
		}
	}
	return long
}

var gotaExpressions = map[string]gotaExpr{
	catalog.RenameSelect: {
		snippet: `cars.Select([]string{"model_name", "mpg"}).Rename("model", "model_name")`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in["cars"].Select([]string{"model_name", "mpg"}).Rename("model", "model_name")
		},
	},
	catalog.DistinctSelect: {
		snippet: `cars.GroupBy("cyl").
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{"cyl"}).
	Select([]string{"cyl"})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return countBy(in["cars"], "cyl").Select([]string{"cyl"})
		},
	},
	catalog.Shape: {
		snippet: `dataframe.New(
	series.New([]int{cars.Nrow()}, series.Int, "row_count"),
	series.New([]int{cars.Ncol()}, series.Int, "column_count"))`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			cars := in["cars"]
			return dataframe.New(
				series.New([]int{cars.Nrow()}, series.Int, "row_count"),
				series.New([]int{cars.Ncol()}, series.Int, "column_count"))
		},
	},
	catalog.DerivedColumn: {
		snippet: `hp, wt := cars.Col("hp").Float(), cars.Col("wt").Float()
ratio := make([]float64, len(hp))
for i := range hp {
	ratio[i] = hp[i] / wt[i]
}
cars.Select([]string{"model_name", "hp", "wt"}).
	Mutate(series.New(ratio, series.Float, "hp_per_wt"))`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			cars := in["cars"]
			hp, wt := cars.Col("hp").Float(), cars.Col("wt").Float()
			ratio := make([]float64, len(hp))
			for i := range hp {
				ratio[i] = hp[i] / wt[i]
			}
			return cars.Select([]string{"model_name", "hp", "wt"}).
				Mutate(series.New(ratio, series.Float, "hp_per_wt"))
		},
	},
	catalog.FilterAnd: {
		snippet: `cars.FilterAggregation(dataframe.And,
	dataframe.F{Colname: "mpg", Comparator: series.Eq, Comparando: 21.0},
	dataframe.F{Colname: "cyl", Comparator: series.Eq, Comparando: 6})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in["cars"].FilterAggregation(dataframe.And,
				dataframe.F{Colname: "mpg", Comparator: series.Eq, Comparando: 21.0},
				dataframe.F{Colname: "cyl", Comparator: series.Eq, Comparando: 6})
		},
	},
	catalog.FilterOr: {
		snippet: `cars.FilterAggregation(dataframe.Or,
	dataframe.F{Colname: "mpg", Comparator: series.Eq, Comparando: 21.0},
	dataframe.F{Colname: "cyl", Comparator: series.Eq, Comparando: 6})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in["cars"].FilterAggregation(dataframe.Or,
				dataframe.F{Colname: "mpg", Comparator: series.Eq, Comparando: 21.0},
				dataframe.F{Colname: "cyl", Comparator: series.Eq, Comparando: 6})
		},
	},
	catalog.SortDescLimit: {
		snippet: `sorted := cars.Arrange(dataframe.RevSort("mpg"), dataframe.Sort("model_name"))
top := make([]bool, sorted.Nrow())
for i := range top {
	top[i] = i < 5
}
sorted.Subset(top).Select([]string{"model_name", "mpg"})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			sorted := in["cars"].Arrange(dataframe.RevSort("mpg"), dataframe.Sort("model_name"))
			top := make([]bool, sorted.Nrow())
			for i := range top {
				top[i] = i < 5
			}
			return sorted.Subset(top).Select([]string{"model_name", "mpg"})
		},
	},
	catalog.GroupAggregate: {
		snippet: `cars.GroupBy("cyl").Aggregation(
	[]dataframe.AggregationType{dataframe.Aggregation_MEAN, dataframe.Aggregation_MAX, dataframe.Aggregation_COUNT},
	[]string{"mpg", "hp", "wt"}).
	Rename("avg_mpg", "mpg_MEAN").Rename("max_hp", "hp_MAX").Rename("n", "wt_COUNT")`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in["cars"].GroupBy("cyl").Aggregation(
				[]dataframe.AggregationType{dataframe.Aggregation_MEAN, dataframe.Aggregation_MAX, dataframe.Aggregation_COUNT},
				[]string{"mpg", "hp", "wt"}).
				Rename("avg_mpg", aggColumn("mpg", dataframe.Aggregation_MEAN)).
				Rename("max_hp", aggColumn("hp", dataframe.Aggregation_MAX)).
				Rename("n", aggColumn("wt", dataframe.Aggregation_COUNT))
		},
	},
	catalog.CreateOrReplace: {
		snippet: `cars.Copy()`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in["cars"].Copy()
		},
	},
	catalog.CreateIfNotExists: {
		snippet: `snapshot, ok := tables["cars_snapshot"]
if !ok {
	snapshot = cars.Copy()
}`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			if snapshot, ok := in[catalog.CarsSnapshot]; ok {
				return snapshot
			}
			return in["cars"].Copy()
		},
	},
	catalog.UniqueCheck: {
		snippet: `distinct := cars.GroupBy("model_name").
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{"model_name"}).
	Nrow()
dataframe.New(
	series.New([]bool{distinct == cars.Nrow()}, series.Bool, "model_name_unique"),
	series.New([]int{distinct}, series.Int, "distinct_models"))`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			cars := in["cars"]
			names := countBy(cars, "model_name")
			if names.Err != nil {
				return names
			}
			distinct := names.Nrow()
			return dataframe.New(
				series.New([]bool{distinct == cars.Nrow()}, series.Bool, "model_name_unique"),
				series.New([]int{distinct}, series.Int, "distinct_models"))
		},
	},
	catalog.DuplicateRows: {
		snippet: `pairs := cars.Select([]string{"model_name", "mpg"})
repeated := pairs.GroupBy("mpg").
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{"mpg"}).
	Filter(dataframe.F{Colname: "mpg_COUNT", Comparator: series.Greater, Comparando: 1})
pairs.Filter(dataframe.F{Colname: "mpg", Comparator: series.In, Comparando: repeated.Col("mpg")})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return gotaOccurrences(in["cars"].Select([]string{"model_name", "mpg"}), "mpg", series.Greater)
		},
	},
	catalog.UniqueRows: {
		snippet: `pairs := cars.Select([]string{"model_name", "mpg"})
single := pairs.GroupBy("mpg").
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{"mpg"}).
	Filter(dataframe.F{Colname: "mpg_COUNT", Comparator: series.Eq, Comparando: 1})
pairs.Filter(dataframe.F{Colname: "mpg", Comparator: series.In, Comparando: single.Col("mpg")})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return gotaOccurrences(in["cars"].Select([]string{"model_name", "mpg"}), "mpg", series.Eq)
		},
	},
	catalog.JoinLeft: {
		snippet: `cylSummary.LeftJoin(cylinders, "cyl")`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in[catalog.CylSummary].LeftJoin(in["cylinders"], "cyl")
		},
	},
	catalog.JoinInner: {
		snippet: `cylSummary.InnerJoin(cylinders, "cyl")`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in[catalog.CylSummary].InnerJoin(in["cylinders"], "cyl")
		},
	},
	catalog.AppendAll: {
		snippet: `carsAnd.RBind(carsOr)`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in[catalog.CarsAnd].RBind(in[catalog.CarsOr])
		},
	},
	catalog.AppendDistinct: {
		snippet: `all := carsAnd.RBind(carsOr)
all.GroupBy(all.Names()...).
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{"model_name"}).
	Select(all.Names())`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			all := in[catalog.CarsAnd].RBind(in[catalog.CarsOr])
			if all.Err != nil {
				return all
			}
			return countBy(all, all.Names()...).Select(all.Names())
		},
	},
	catalog.DeleteRow: {
		snippet: `cars.Filter(dataframe.F{Colname: "model_name", Comparator: series.Neq, Comparando: "Mazda RX4"})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in["cars"].Filter(dataframe.F{Colname: "model_name", Comparator: series.Neq, Comparando: "Mazda RX4"})
		},
	},
	catalog.DeleteRowAgain: {
		snippet: `carsDeleted.Filter(dataframe.F{Colname: "model_name", Comparator: series.Neq, Comparando: "Mazda RX4"})`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return in[catalog.CarsDeleted].Filter(dataframe.F{Colname: "model_name", Comparator: series.Neq, Comparando: "Mazda RX4"})
		},
	},
	catalog.UpdateCell: {
		snippet: `names, mpg := cars.Col("model_name").Records(), cars.Col("mpg").Float()
for i, name := range names {
	if name == "Mazda RX4 Wag" {
		mpg[i] = 999
	}
}
cars.Mutate(series.New(mpg, series.Float, "mpg"))`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			cars := in["cars"]
			names, mpg := cars.Col("model_name").Records(), cars.Col("mpg").Float()
			for i, name := range names {
				if name == "Mazda RX4 Wag" {
					mpg[i] = 999
				}
			}
			return cars.Mutate(series.New(mpg, series.Float, "mpg"))
		},
	},
	catalog.CreateIfNotExistsAgain: {
		snippet: `snapshot, ok := tables["cars_snapshot"]
if !ok {
	snapshot = carsDeleted.Copy()
}`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			if snapshot, ok := in[catalog.CarsSnapshot]; ok {
				return snapshot
			}
			return in[catalog.CarsDeleted].Copy()
		},
	},
	catalog.Pivot: {
		snippet: pivotSnippet("cities", "country"),
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return gotaPivot(in["cities"], "country")
		},
	},
	catalog.PivotTwoKeys: {
		snippet: pivotSnippet("cities", "continent", "country"),
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return gotaPivot(in["cities"], "continent", "country")
		},
	},
	catalog.PivotFiltered: {
		snippet: `large := cities.Filter(dataframe.F{Colname: "population", Comparator: series.Greater, Comparando: 61000000})
` + pivotSnippet("large", "country"),
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			large := in["cities"].Filter(dataframe.F{Colname: "population", Comparator: series.Greater, Comparando: 61000000})
			if large.Err != nil {
				return large
			}
			return gotaPivot(large, "country")
		},
	},
	catalog.Unpivot: {
		snippet: `var long dataframe.DataFrame
for i, year := range []string{"2000", "2010", "2020"} {
	part := citiesWide.Select([]string{"country", year}).Rename("population", year)
	years := make([]string, part.Nrow())
	for r := range years {
		years[r] = year
	}
	part = part.Mutate(series.New(years, series.Int, "year")).
		Select([]string{"country", "year", "population"}).
		Filter(dataframe.F{Colname: "population", Comparator: series.CompFunc, Comparando: func(el series.Element) bool { return !el.IsNA() }})
	if i == 0 {
		long = part
	} else {
		long = long.RBind(part)
	}
}`,
		run: func(in map[string]dataframe.DataFrame) dataframe.DataFrame {
			return gotaUnpivot(in[catalog.CitiesWide], "country")
		},
	},
}

// pivotSnippet renders the gotaPivot call sequence for the given frame and keys
func pivotSnippet(frame string, keys ...string) string {
	quoted := make([]string, len(keys))
	for i, key := range keys {
		quoted[i] = strconv.Quote(key)
	}
	args := strings.Join(quoted, ", ")
	return fmt.Sprintf(`present := %[1]s.GroupBy("year").
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{"year"}).
	Col("year").Records()
for _, year := range present {
	if !slices.Contains([]string{"2000", "2010", "2020"}, year) {
		return dataframe.DataFrame{Err: fmt.Errorf("pivot year %%s is not one of the declared columns", year)}
	}
}
wide := %[1]s.GroupBy(%[2]s).
	Aggregation([]dataframe.AggregationType{dataframe.Aggregation_COUNT}, []string{%[3]s}).
	Select([]string{%[2]s})
for _, year := range []string{"2000", "2010", "2020"} {
	if !slices.Contains(present, year) {
		wide = wide.Mutate(series.New(make([]interface{}, wide.Nrow()), series.Int, year))
		continue
	}
	sums := %[1]s.Filter(dataframe.F{Colname: "year", Comparator: series.Eq, Comparando: year}).
		GroupBy(%[2]s).
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{"population"}).
		Rename(year, "population_SUM")
	wide = wide.LeftJoin(sums.Select([]string{%[2]s, year}), %[2]s)
}`, frame, args, quoted[0])
}
