package catalog

import (
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/dataset"
)

// Operation names of the standard catalog
const (
	RenameSelect           = "rename-select"
	DistinctSelect         = "distinct-select"
	Shape                  = "shape"
	DerivedColumn          = "derived-column"
	FilterAnd              = "filter-and"
	FilterOr               = "filter-or"
	SortDescLimit          = "sort-desc-limit"
	GroupAggregate         = "group-aggregate"
	CreateOrReplace        = "create-or-replace"
	CreateIfNotExists      = "create-if-not-exists"
	UniqueCheck            = "unique-check"
	DuplicateRows          = "duplicate-rows"
	UniqueRows             = "unique-rows"
	JoinLeft               = "join-left"
	JoinInner              = "join-inner"
	AppendAll              = "append-all"
	AppendDistinct         = "append-distinct"
	DeleteRow              = "delete-row"
	DeleteRowAgain         = "delete-row-again"
	UpdateCell             = "update-cell"
	CreateIfNotExistsAgain = "create-if-not-exists-again"
	Pivot                  = "pivot"
	PivotTwoKeys           = "pivot-two-keys"
	PivotFiltered          = "pivot-filtered"
	Unpivot                = "unpivot"
)

// Tables materialized by the standard catalog
const (
	CarsAnd      = "cars_and"
	CarsOr       = "cars_or"
	CylSummary   = "cyl_summary"
	CarsCopy     = "cars_copy"
	CarsSnapshot = "cars_snapshot"
	CarsDeleted  = "cars_deleted"
	CarsUpdated  = "cars_updated"
	CitiesWide   = "cities_wide"
)

// PivotYears are the spread values of the cities pivot, in column order
var PivotYears = []string{"2000", "2010", "2020"}

func carsSchema() []core.Column {
	return dataset.Seeds()[0].Columns
}

func yearColumns() []core.Column {
	columns := make([]core.Column, len(PivotYears))
	for i, year := range PivotYears {
		columns[i] = core.Column{Name: year, Type: core.IntegerType}
	}
	return columns
}

func cols(columns ...core.Column) []core.Column {
	return columns
}

func str(name string) core.Column   { return core.Column{Name: name, Type: core.StringType} }
func flt(name string) core.Column   { return core.Column{Name: name, Type: core.FloatType} }
func num(name string) core.Column   { return core.Column{Name: name, Type: core.IntegerType} }
func truth(name string) core.Column { return core.Column{Name: name, Type: core.BooleanType} }

// Standard returns the catalog of operations compared across backends. Order
// matters: later operations read tables materialized by earlier ones.
func Standard() *Catalog {
	summary := cols(num("cyl"), flt("avg_mpg"), num("max_hp"), num("n"))
	joined := cols(num("cyl"), flt("avg_mpg"), num("max_hp"), num("n"), str("layout"))

	operations := []*Operation{
		{
			Name:        RenameSelect,
			Description: "Select model_name and mpg, renaming model_name to model.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(str("model"), flt("mpg")),
		},
		{
			Name:        DistinctSelect,
			Description: "Distinct values of cyl.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(num("cyl")),
		},
		{
			Name:        Shape,
			Description: "Row and column count of cars.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(num("row_count"), num("column_count")),
		},
		{
			Name:        DerivedColumn,
			Description: "Add hp_per_wt = hp / wt.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(str("model_name"), num("hp"), flt("wt"), flt("hp_per_wt")),
		},
		{
			Name:        FilterAnd,
			Description: "Rows where mpg = 21 AND cyl = 6.",
			Inputs:      []string{dataset.Cars},
			Schema:      carsSchema(),
			Materialize: CarsAnd,
		},
		{
			Name:        FilterOr,
			Description: "Rows where mpg = 21 OR cyl = 6.",
			Inputs:      []string{dataset.Cars},
			Schema:      carsSchema(),
			Materialize: CarsOr,
		},
		{
			Name:        SortDescLimit,
			Description: "Top 5 cars by mpg descending, ties broken by model_name.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(str("model_name"), flt("mpg")),
			Ordered:     true,
		},
		{
			Name:        GroupAggregate,
			Description: "Per cyl: mean mpg, max hp and row count.",
			Inputs:      []string{dataset.Cars},
			Schema:      summary,
			Materialize: CylSummary,
		},
		{
			Name:        CreateOrReplace,
			Description: "Materialize a copy of cars, replacing any previous copy.",
			Inputs:      []string{dataset.Cars},
			Schema:      carsSchema(),
			Materialize: CarsCopy,
			Mode:        Replace,
		},
		{
			Name:        CreateIfNotExists,
			Description: "Materialize a snapshot of cars unless one already exists.",
			Inputs:      []string{dataset.Cars},
			Schema:      carsSchema(),
			Materialize: CarsSnapshot,
			Mode:        IfNotExists,
		},
		{
			Name:        UniqueCheck,
			Description: "Whether model_name uniquely identifies rows.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(truth("model_name_unique"), num("distinct_models")),
		},
		{
			Name:        DuplicateRows,
			Description: "Rows whose mpg value occurs more than once.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(str("model_name"), flt("mpg")),
		},
		{
			Name:        UniqueRows,
			Description: "Rows whose mpg value occurs exactly once.",
			Inputs:      []string{dataset.Cars},
			Schema:      cols(str("model_name"), flt("mpg")),
		},
		{
			Name:        JoinLeft,
			Description: "cyl_summary LEFT JOIN cylinders ON cyl.",
			Inputs:      []string{CylSummary, dataset.Cylinders},
			Schema:      joined,
		},
		{
			Name:        JoinInner,
			Description: "cyl_summary INNER JOIN cylinders ON cyl.",
			Inputs:      []string{CylSummary, dataset.Cylinders},
			Schema:      joined,
		},
		{
			Name:        AppendAll,
			Description: "cars_and UNION ALL cars_or (duplicates kept).",
			Inputs:      []string{CarsAnd, CarsOr},
			Schema:      carsSchema(),
		},
		{
			Name:        AppendDistinct,
			Description: "cars_and UNION cars_or (duplicates removed).",
			Inputs:      []string{CarsAnd, CarsOr},
			Schema:      carsSchema(),
		},
		{
			Name:        DeleteRow,
			Description: "Delete the row where model_name = 'Mazda RX4'.",
			Inputs:      []string{dataset.Cars},
			Schema:      carsSchema(),
			Materialize: CarsDeleted,
		},
		{
			Name:        DeleteRowAgain,
			Description: "Repeat the delete on its own output; a no-op.",
			Inputs:      []string{CarsDeleted},
			Schema:      carsSchema(),
			Materialize: CarsDeleted,
		},
		{
			Name:        UpdateCell,
			Description: "Set mpg = 999 where model_name = 'Mazda RX4 Wag'.",
			Inputs:      []string{dataset.Cars},
			Schema:      carsSchema(),
			Materialize: CarsUpdated,
		},
		{
			Name:        CreateIfNotExistsAgain,
			Description: "Snapshot cars_deleted into cars_snapshot; the existing snapshot wins.",
			Inputs:      []string{CarsDeleted},
			Schema:      carsSchema(),
			Materialize: CarsSnapshot,
			Mode:        IfNotExists,
		},
		{
			Name:        Pivot,
			Description: "Sum of population per country, one column per year.",
			Inputs:      []string{dataset.Cities},
			Schema:      append(cols(str("country")), yearColumns()...),
			PivotKeys:   []string{"country"},
			Materialize: CitiesWide,
		},
		{
			Name:        PivotTwoKeys,
			Description: "Sum of population per continent and country, one column per year.",
			Inputs:      []string{dataset.Cities},
			Schema:      append(cols(str("continent"), str("country")), yearColumns()...),
			PivotKeys:   []string{"continent", "country"},
		},
		{
			Name:        PivotFiltered,
			Description: "Pivot of rows with population > 61000000; missing combinations are null.",
			Inputs:      []string{dataset.Cities},
			Schema:      append(cols(str("country")), yearColumns()...),
			PivotKeys:   []string{"country"},
		},
		{
			Name:        Unpivot,
			Description: "Inverse of pivot: back to one row per country and year.",
			Inputs:      []string{CitiesWide},
			Schema:      cols(str("country"), num("year"), num("population")),
		},
	}

	seeds := []string{dataset.Cars, dataset.Cities, dataset.Cylinders}
	c, err := New(seeds, operations...)
	if err != nil {
		panic("standard catalog: " + err.Error())
	}
	return c
}
