// Package runner drives a catalog run.
//
// A run loads the seed tables, opens every selected backend, executes the
// operations in declaration order on each backend and hands the normalized
// outputs to the equivalence checker. Each backend keeps its own environment
// of materialized tables, so a failure on one backend only affects the
// operations that read its missing tables.
//
//	r, err := runner.New(runner.DefaultConfig(), catalog.Standard(), backend.Default(), logger)
//	if err != nil {
//	    return err
//	}
//	run, err := r.Run(ctx)
package runner
