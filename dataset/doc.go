// Package dataset provides the fixed sample data every backend runs against.
//
// The seed is a literal constant; no file or network I/O is involved and
// repeated loads produce identical tables.
//
//	tables, err := dataset.Load()
//	if err != nil {
//	    log.Fatal(err) // *core.LoadError
//	}
//	cars := tables[dataset.Cars]
package dataset
