// Package catalog provides the ordered registry of data operations.
//
// An Operation is a pure description: its inputs, the ordered output schema,
// whether row order matters, and which table (if any) its result is stored
// as. Native expressions live with each backend.
//
//	cat := catalog.Standard()
//	for _, op := range cat.Operations() {
//	    fmt.Println(op.Name, op.Description)
//	}
//
// Registration checks that every input is either a seed table or materialized
// by an earlier operation, so the declaration order is also a valid
// execution order.
package catalog
