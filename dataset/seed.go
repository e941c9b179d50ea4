package dataset

import "github.com/nickyhof/CatalogRunner/core"

// Seed is the literal form of a source table
type Seed struct {
	Name    string
	Columns []core.Column
	Rows    [][]any
}

const (
	Cars      = "cars"
	Cities    = "cities"
	Cylinders = "cylinders"
)

// Seeds returns the built-in sample data: the first ten rows of mtcars, three
// countries over three census years, and a cylinder layout lookup.
func Seeds() []Seed {
	return []Seed{
		{
			Name: Cars,
			Columns: []core.Column{
				{Name: "model_name", Type: core.StringType},
				{Name: "mpg", Type: core.FloatType},
				{Name: "cyl", Type: core.IntegerType},
				{Name: "disp", Type: core.FloatType},
				{Name: "hp", Type: core.IntegerType},
				{Name: "drat", Type: core.FloatType},
				{Name: "wt", Type: core.FloatType},
				{Name: "qsec", Type: core.FloatType},
				{Name: "vs", Type: core.IntegerType},
				{Name: "am", Type: core.IntegerType},
				{Name: "gear", Type: core.IntegerType},
				{Name: "carb", Type: core.IntegerType},
			},
			Rows: [][]any{
				{"Mazda RX4", 21.0, 6, 160.0, 110, 3.90, 2.620, 16.46, 0, 1, 4, 4},
				{"Mazda RX4 Wag", 21.0, 6, 160.0, 110, 3.90, 2.875, 17.02, 0, 1, 4, 4},
				{"Datsun 710", 22.8, 4, 108.0, 93, 3.85, 2.320, 18.61, 1, 1, 4, 1},
				{"Hornet 4 Drive", 21.4, 6, 258.0, 110, 3.08, 3.215, 19.44, 1, 0, 3, 1},
				{"Hornet Sportabout", 18.7, 8, 360.0, 175, 3.15, 3.440, 17.02, 0, 0, 3, 2},
				{"Valiant", 18.1, 6, 225.0, 105, 2.76, 3.460, 20.22, 1, 0, 3, 1},
				{"Duster 360", 14.3, 8, 360.0, 245, 3.21, 3.570, 15.84, 0, 0, 3, 4},
				{"Merc 240D", 24.4, 4, 146.7, 62, 3.69, 3.190, 20.00, 1, 0, 4, 2},
				{"Merc 230", 22.8, 4, 140.8, 95, 3.92, 3.150, 22.90, 1, 0, 4, 2},
				{"Merc 280", 19.2, 6, 167.6, 123, 3.92, 3.440, 18.30, 1, 0, 4, 4},
			},
		},
		{
			Name: Cities,
			Columns: []core.Column{
				{Name: "country", Type: core.StringType},
				{Name: "continent", Type: core.StringType},
				{Name: "year", Type: core.IntegerType},
				{Name: "population", Type: core.IntegerType},
			},
			Rows: [][]any{
				{"Germany", "Europe", 2000, 82211508},
				{"Germany", "Europe", 2010, 81776930},
				{"Germany", "Europe", 2020, 83160871},
				{"France", "Europe", 2000, 60921384},
				{"France", "Europe", 2010, 65027512},
				{"France", "Europe", 2020, 67571107},
				{"Japan", "Asia", 2000, 126843000},
				{"Japan", "Asia", 2010, 128070000},
				{"Japan", "Asia", 2020, 126261000},
			},
		},
		{
			Name: Cylinders,
			Columns: []core.Column{
				{Name: "cyl", Type: core.IntegerType},
				{Name: "layout", Type: core.StringType},
			},
			Rows: [][]any{
				{4, "inline"},
				{6, "v"},
				{12, "v"},
			},
		},
	}
}
