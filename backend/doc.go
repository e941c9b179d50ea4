// Package backend executes catalog operations on data-processing engines.
//
// Four backends are built in:
//   - duckdb: embedded DuckDB through database/sql (sql-engine)
//   - sqlite: pure Go SQLite through database/sql (sql-engine)
//   - gota: go-gota dataframes (dataframe)
//   - arrow: Apache Arrow record batches and compute kernels (dataframe)
//
// Each backend holds one native expression per operation. A session is
// opened per run and must be closed; it owns the engine state and caches
// native tables by the canonical table they were built from.
//
// # Adapter
//
// The Adapter is the single place where native results become canonical:
//
//	adapter, err := backend.NewAdapter(ctx, catalog.Standard(), backend.Default(), logger)
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
//
//	table, err := adapter.Execute(ctx, "duckdb", catalog.FilterAnd, inputs)
//
// Execute validates inputs, runs the native expression, recovers panics and
// normalizes the raw result to the operation's declared schema.
package backend
