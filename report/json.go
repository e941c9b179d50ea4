package report

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/equiv"
)

// Document is the machine-readable form of a run
type Document struct {
	RunID       string              `json:"run_id"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Backends    []string            `json:"backends"`
	Tolerance   float64             `json:"tolerance"`
	Passed      bool                `json:"passed"`
	ExitCode    int                 `json:"exit_code"`
	Stopped     bool                `json:"stopped,omitempty"`
	Cancelled   bool                `json:"cancelled,omitempty"`
	LoadError   string              `json:"load_error,omitempty"`
	Counts      map[string]int      `json:"counts"`
	Unsupported []UnsupportedEntry  `json:"unsupported,omitempty"`
	Operations  []OperationDocument `json:"operations"`
}

type UnsupportedEntry struct {
	Backend   string `json:"backend"`
	Operation string `json:"operation"`
}

type OperationDocument struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Inputs      []string          `json:"inputs"`
	Columns     []string          `json:"columns"`
	Materialize string            `json:"materialize,omitempty"`
	Status      string            `json:"status"`
	Canonical   string            `json:"canonical,omitempty"`
	Compared    []string          `json:"compared,omitempty"`
	Rows        int               `json:"rows"`
	Mismatches  []MismatchEntry   `json:"mismatches,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	Skipped     []string          `json:"skipped,omitempty"`
	Snippets    map[string]string `json:"snippets"`
}

type MismatchEntry struct {
	Backend string `json:"backend"`
	Row     int    `json:"row"`
	Reason  string `json:"reason"`
}

// NewDocument builds the JSON view of a run
func NewDocument(cat *catalog.Catalog, backends []backend.Backend, run *Run) Document {
	doc := Document{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Backends:   run.Backends,
		Tolerance:  run.Tolerance,
		Passed:     run.Passed(),
		ExitCode:   run.ExitCode(),
		Stopped:    run.Stopped,
		Cancelled:  run.Cancelled,
		Counts:     make(map[string]int),
	}
	if run.LoadError != nil {
		doc.LoadError = run.LoadError.Error()
	}
	for status, n := range run.Counts() {
		doc.Counts[status.String()] = n
	}
	for _, u := range run.Unsupported {
		doc.Unsupported = append(doc.Unsupported, UnsupportedEntry{Backend: u.Backend, Operation: u.Operation})
	}

	expressions := make(map[string]map[string]string, len(backends))
	for _, b := range backends {
		expressions[b.ID()] = b.Expressions()
	}

	for _, op := range cat.Operations() {
		entry := OperationDocument{
			Name:        op.Name,
			Description: op.Description,
			Inputs:      op.Inputs,
			Columns:     op.ColumnNames(),
			Materialize: op.Materialize,
			Status:      statusOf(run, op.Name),
			Snippets:    make(map[string]string, len(backends)),
		}
		for id, snippets := range expressions {
			if snippet, ok := snippets[op.Name]; ok {
				entry.Snippets[id] = snippet
			}
		}
		if result, ok := run.Result(op.Name); ok {
			fillResult(&entry, result)
		}
		doc.Operations = append(doc.Operations, entry)
	}

	return doc
}

func fillResult(entry *OperationDocument, result equiv.Result) {
	entry.Canonical = result.Canonical
	entry.Compared = result.Compared
	entry.Rows = result.Rows
	entry.Skipped = result.Skipped
	for _, m := range result.Mismatches {
		entry.Mismatches = append(entry.Mismatches, MismatchEntry{Backend: m.Backend, Row: m.Row, Reason: m.Reason})
	}
	for _, err := range result.Errors {
		entry.Errors = append(entry.Errors, err.Error())
	}
}

// RenderJSON writes the run as an indented JSON document
func RenderJSON(w io.Writer, cat *catalog.Catalog, backends []backend.Backend, run *Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(cat, backends, run))
}
