package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/equiv"
)

func sampleRun() *Run {
	run := NewRun([]string{"duckdb", "sqlite", "gota", "arrow"}, equiv.DefaultTolerance)
	run.Results = []equiv.Result{
		{
			Operation: catalog.RenameSelect,
			Status:    equiv.Match,
			Canonical: "duckdb",
			Compared:  []string{"sqlite", "gota", "arrow"},
			Rows:      10,
		},
		{
			Operation: catalog.FilterAnd,
			Status:    equiv.Mismatch,
			Canonical: "duckdb",
			Compared:  []string{"sqlite", "gota", "arrow"},
			Rows:      2,
			Mismatches: []*core.MismatchError{{
				Operation: catalog.FilterAnd,
				Backend:   "gota",
				Canonical: "duckdb",
				Row:       1,
				Reason:    "column mpg: 21.1, expected 21",
			}},
		},
		{
			Operation: catalog.Shape,
			Status:    equiv.Failed,
			Canonical: "duckdb",
			Errors: []error{&core.BackendExecutionError{
				Backend: "arrow", Operation: catalog.Shape, Err: errors.New("boom"),
			}},
		},
	}
	run.Finish()
	return run
}

func TestRunVerdict(t *testing.T) {
	run := NewRun([]string{"duckdb"}, equiv.DefaultTolerance)
	require.NotEmpty(t, run.ID)
	require.True(t, run.Passed())
	require.Equal(t, ExitOK, run.ExitCode())

	run.Results = append(run.Results, equiv.Result{Operation: catalog.Shape, Status: equiv.NotRun})
	require.True(t, run.Passed())

	run.Results = append(run.Results, equiv.Result{Operation: catalog.Pivot, Status: equiv.Mismatch})
	require.False(t, run.Passed())
	require.Equal(t, ExitFailure, run.ExitCode())

	loadFailed := NewRun([]string{"duckdb"}, equiv.DefaultTolerance)
	loadFailed.LoadError = &core.LoadError{Table: "cars", Row: 3, Reason: "ragged row"}
	require.Equal(t, ExitFailure, loadFailed.ExitCode())

	counts := sampleRun().Counts()
	require.Equal(t, 1, counts[equiv.Match])
	require.Equal(t, 1, counts[equiv.Mismatch])
	require.Equal(t, 1, counts[equiv.Failed])
	require.Equal(t, 0, counts[equiv.NotRun])
}

func TestMarkdownTable(t *testing.T) {
	var buf bytes.Buffer
	table := newTable(&buf, "#", "Operation")
	table.Row("1", "rename-select")
	table.Row("2", "a|b")
	require.NoError(t, table.Render())

	expected := "" +
		"| #   | Operation     |\n" +
		"| --- | ------------- |\n" +
		"| 1   | rename-select |\n" +
		"| 2   | a\\|b          |\n"
	require.Equal(t, expected, buf.String())
}

func TestRender(t *testing.T) {
	run := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, catalog.Standard(), backend.Default(), run))
	out := buf.String()

	require.Contains(t, out, "# Operation catalog run")
	require.Contains(t, out, "Run: `"+run.ID+"`")
	require.Contains(t, out, "## 1. rename-select")
	require.Contains(t, out, "## 25. unpivot")
	require.Contains(t, out, "```sql\nSELECT model_name AS model, mpg FROM cars;\n```")
	require.Contains(t, out, "**gota** (dataframe)")
	require.Contains(t, out, "Stored as `cars_and` (create-or-replace)")
	require.Contains(t, out, "- mismatch: operation filter-and: backend gota disagrees with duckdb - at row 1")
	require.Contains(t, out, "- error: backend arrow failed on shape: boom")
	require.Contains(t, out, "- Matched: 1")
	require.True(t, strings.HasSuffix(out, "**FAIL**\n"))

	// rendering reads the run only
	require.Len(t, run.Results, 3)
	require.Len(t, run.Results[1].Mismatches, 1)
}

func TestRenderLoadFailure(t *testing.T) {
	run := NewRun([]string{"duckdb"}, equiv.DefaultTolerance)
	run.LoadError = &core.LoadError{Table: "cars", Row: 2, Reason: "ragged row: 3 values for 12 columns"}
	run.Finish()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, catalog.Standard(), backend.Default(), run))
	require.Contains(t, buf.String(), "## Load failure")
	require.Contains(t, buf.String(), "load cars: row 2: ragged row")
	require.Contains(t, buf.String(), "| not run |")
}

func TestRenderJSON(t *testing.T) {
	run := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, catalog.Standard(), backend.Default(), run))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, run.ID, doc.RunID)
	require.False(t, doc.Passed)
	require.Equal(t, ExitFailure, doc.ExitCode)
	require.Equal(t, 1, doc.Counts["mismatch"])
	require.Len(t, doc.Operations, 25)

	filterAnd := doc.Operations[4]
	require.Equal(t, catalog.FilterAnd, filterAnd.Name)
	require.Equal(t, "mismatch", filterAnd.Status)
	require.Equal(t, []MismatchEntry{{Backend: "gota", Row: 1, Reason: "column mpg: 21.1, expected 21"}}, filterAnd.Mismatches)
	require.Len(t, filterAnd.Snippets, 4)
	require.Equal(t, "-", doc.Operations[24].Status)
}

func TestSummary(t *testing.T) {
	out := Summary(sampleRun())
	require.Contains(t, out, "rename-select")
	require.Contains(t, out, "mismatch")
	require.Contains(t, out, "(gota)")
	require.Contains(t, out, "1 matched, 1 mismatched, 1 failed, 0 not run")
	require.Contains(t, out, "FAIL")

	passing := NewRun([]string{"duckdb"}, equiv.DefaultTolerance)
	passing.FinishedAt = passing.StartedAt.Add(time.Second)
	require.Contains(t, Summary(passing), "PASS")
}
