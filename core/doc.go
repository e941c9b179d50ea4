// Package core provides core types used throughout CatalogRunner.
//
// The package defines the shared tabular data model (Table, Column,
// SemanticType), the single normalization step every backend result goes
// through, and the error kinds reported by a run.
//
// # Semantic Types
//
// Every backend result is coerced to one of:
//   - IntegerType: int64 values
//   - FloatType: float64 values
//   - StringType: string values
//   - BooleanType: bool values
//   - NullType: columns that only ever hold null
//
// A null cell is represented by a nil value regardless of column type.
//
// # Table Definition
//
//	table := &core.Table{
//	    Name: "cars",
//	    Columns: []core.Column{
//	        {Name: "model_name", Type: core.StringType},
//	        {Name: "mpg", Type: core.FloatType},
//	    },
//	    Rows: [][]any{
//	        {"Mazda RX4", 21.0},
//	    },
//	}
//	if err := table.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Identity
//
// Identity names the author of archived reports (Git commit author):
//
//	identity := core.Identity{
//	    Name:  "CatalogRunner",
//	    Email: "runner@catalogrunner.local",
//	}
package core
