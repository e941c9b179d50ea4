package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/equiv"
)

// Render writes the run as a markdown document: the catalog overview, one
// section per operation with every backend's native source, and a summary.
// It only reads its arguments.
func Render(w io.Writer, cat *catalog.Catalog, backends []backend.Backend, run *Run) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Operation catalog run")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "- Run: `%s`\n", run.ID)
	fmt.Fprintf(bw, "- Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(bw, "- Duration: %s\n", run.Duration().Round(time.Millisecond))
	}
	fmt.Fprintf(bw, "- Backends: %s\n", strings.Join(run.Backends, ", "))
	fmt.Fprintf(bw, "- Float tolerance: %g\n", run.Tolerance)
	fmt.Fprintln(bw)

	if run.LoadError != nil {
		fmt.Fprintln(bw, "## Load failure")
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "Seed data could not be loaded, no operation was run:\n\n    %v\n\n", run.LoadError)
	}

	fmt.Fprintln(bw, "## Catalog")
	fmt.Fprintln(bw)
	overview := newTable(bw, "#", "Operation", "Description", "Inputs", "Status")
	for i, op := range cat.Operations() {
		overview.Row(fmt.Sprint(i+1), op.Name, op.Description, strings.Join(op.Inputs, ", "), statusOf(run, op.Name))
	}
	if err := overview.Render(); err != nil {
		return err
	}
	fmt.Fprintln(bw)

	snippets := make(map[string]map[string]string, len(backends))
	for _, b := range backends {
		snippets[b.ID()] = b.Expressions()
	}

	for i, op := range cat.Operations() {
		fmt.Fprintf(bw, "## %d. %s\n\n", i+1, op.Name)
		fmt.Fprintf(bw, "%s\n\n", op.Description)
		fmt.Fprintf(bw, "Inputs: %s  \n", strings.Join(op.Inputs, ", "))
		fmt.Fprintf(bw, "Output: %s\n", describeSchema(op))
		if op.Materialize != "" {
			fmt.Fprintf(bw, "Stored as `%s` (%s)\n", op.Materialize, op.Mode)
		}
		fmt.Fprintln(bw)

		for _, b := range backends {
			snippet, ok := snippets[b.ID()][op.Name]
			fmt.Fprintf(bw, "**%s** (%s)\n\n", b.ID(), b.Kind())
			if !ok {
				fmt.Fprintln(bw, "_not supported_")
				fmt.Fprintln(bw)
				continue
			}
			fmt.Fprintf(bw, "```%s\n%s\n```\n\n", fenceLanguage(b), snippet)
		}

		result, ok := run.Result(op.Name)
		if !ok {
			continue
		}
		writeResult(bw, result)
	}

	writeSummary(bw, run)
	return bw.Flush()
}

func writeResult(w io.Writer, result equiv.Result) {
	fmt.Fprintf(w, "Result: **%s**", result.Status)
	if result.Canonical != "" {
		fmt.Fprintf(w, ", %d rows from %s", result.Rows, result.Canonical)
		if len(result.Compared) > 0 {
			fmt.Fprintf(w, " compared with %s", strings.Join(result.Compared, ", "))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	for _, mismatch := range result.Mismatches {
		fmt.Fprintf(w, "- mismatch: %s\n", mismatch.Error())
	}
	for _, err := range result.Errors {
		fmt.Fprintf(w, "- error: %s\n", err.Error())
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "- skipped (unsupported): %s\n", strings.Join(result.Skipped, ", "))
	}
	if len(result.Mismatches)+len(result.Errors)+len(result.Skipped) > 0 {
		fmt.Fprintln(w)
	}
}

func writeSummary(w io.Writer, run *Run) {
	counts := run.Counts()

	fmt.Fprintln(w, "## Summary")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- Matched: %d\n", counts[equiv.Match])
	fmt.Fprintf(w, "- Mismatched: %d\n", counts[equiv.Mismatch])
	fmt.Fprintf(w, "- Failed: %d\n", counts[equiv.Failed])
	fmt.Fprintf(w, "- Not run: %d\n", counts[equiv.NotRun])
	if run.Stopped {
		fmt.Fprintln(w, "- Stopped early on the first mismatch")
	}
	if run.Cancelled {
		fmt.Fprintln(w, "- Cancelled before every operation ran")
	}
	if len(run.Unsupported) > 0 {
		fmt.Fprintln(w, "- Unsupported:")
		for _, u := range run.Unsupported {
			fmt.Fprintf(w, "  - %s: %s\n", u.Backend, u.Operation)
		}
	}

	verdict := "PASS"
	if !run.Passed() {
		verdict = "FAIL"
	}
	fmt.Fprintf(w, "\n**%s**\n", verdict)
}

func statusOf(run *Run, operation string) string {
	if run.LoadError != nil {
		return equiv.NotRun.String()
	}
	if result, ok := run.Result(operation); ok {
		return result.Status.String()
	}
	return "-"
}

func describeSchema(op *catalog.Operation) string {
	columns := make([]string, len(op.Schema))
	for i, column := range op.Schema {
		columns[i] = fmt.Sprintf("`%s` %s", column.Name, column.Type)
	}
	out := strings.Join(columns, ", ")
	if op.Ordered {
		out += " (ordered)"
	}
	return out
}

func fenceLanguage(b backend.Backend) string {
	if b.Kind() == backend.KindSQLEngine {
		return "sql"
	}
	return "go"
}
