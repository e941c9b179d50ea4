package dataset

import (
	"fmt"

	"github.com/nickyhof/CatalogRunner/core"
)

// Load materializes the built-in seed tables
func Load() (map[string]*core.Table, error) {
	return LoadFrom(Seeds())
}

// LoadFrom materializes the given literal seeds. Literal integers may be
// written as Go ints; they are widened to int64 so every table uses the
// shared value representation.
func LoadFrom(seeds []Seed) (map[string]*core.Table, error) {
	tables := make(map[string]*core.Table, len(seeds))

	for _, seed := range seeds {
		if seed.Name == "" {
			return nil, &core.LoadError{Table: "<unnamed>", Row: -1, Reason: "seed has no name"}
		}
		if _, exists := tables[seed.Name]; exists {
			return nil, &core.LoadError{Table: seed.Name, Row: -1, Reason: "duplicate seed table"}
		}
		if len(seed.Columns) == 0 {
			return nil, &core.LoadError{Table: seed.Name, Row: -1, Reason: "no columns"}
		}

		table := &core.Table{
			Name:    seed.Name,
			Columns: append([]core.Column(nil), seed.Columns...),
			Rows:    make([][]any, 0, len(seed.Rows)),
		}

		for r, literal := range seed.Rows {
			if len(literal) != len(seed.Columns) {
				return nil, &core.LoadError{
					Table:  seed.Name,
					Row:    r,
					Reason: fmt.Sprintf("ragged row: %d values for %d columns", len(literal), len(seed.Columns)),
				}
			}
			row := make([]any, len(literal))
			for c, value := range literal {
				if v, ok := value.(int); ok {
					value = int64(v)
				}
				row[c] = value
			}
			table.Rows = append(table.Rows, row)
		}

		if err := table.Validate(); err != nil {
			return nil, &core.LoadError{Table: seed.Name, Row: -1, Reason: err.Error()}
		}

		tables[seed.Name] = table
	}

	return tables, nil
}
