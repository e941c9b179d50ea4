// Package CatalogRunner runs a catalog of data operations on several
// data-processing backends and checks that they agree.
//
// Every operation (projection, filter, sort, aggregation, join, union,
// mutation, pivot) is executed on each backend, normalized to a shared
// semantic type set and compared against the first backend's output. The
// result is a report that shows every backend's native source side by side
// with the verdict.
//
// # Quick Start
//
//	instance := CatalogRunner.Open(nil)
//	r, _ := instance.Runner(runner.DefaultConfig(), logger)
//
//	run, _ := r.Run(ctx)
//	report.Render(os.Stdout, r.Catalog(), r.Backends(), run)
//	os.Exit(run.ExitCode())
//
// # Backends
//
//   - duckdb: embedded DuckDB
//   - sqlite: embedded SQLite (pure Go)
//   - gota: go-gota dataframes
//   - arrow: Apache Arrow records and compute kernels
//
// # Archiving
//
// Reports can be committed to a git repository so each run has history:
//
//	archive, _ := report.OpenArchive("./reports")
//	instance := CatalogRunner.Open(archive)
//	hash, _ := instance.Record(identity, "catalog.md", run, doc)
package CatalogRunner
