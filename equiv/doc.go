// Package equiv decides whether backends agree on an operation.
//
// The first backend that produced a table is canonical. Every other table
// must have the same columns, the same row count and the same rows. Rows are
// compared as a multiset unless the operation is ordered, and float cells
// match when |a-b| <= tolerance * max(1, |a|, |b|).
//
// For pivot operations a row whose non-key cells are all null counts as an
// absent row, so engines that emit missing combinations as null rows agree
// with engines that omit them.
//
//	checker := equiv.NewChecker(catalog.Standard(), equiv.DefaultTolerance)
//	result := checker.Compare(catalog.FilterAnd, []equiv.BackendResult{
//	    {Backend: "duckdb", Table: a},
//	    {Backend: "arrow", Table: b},
//	})
//	if !result.Passed() {
//	    for _, m := range result.Mismatches {
//	        fmt.Println(m)
//	    }
//	}
package equiv
