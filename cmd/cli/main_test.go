package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/report"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLIInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"UnknownFormat", []string{"-format", "xml"}, "unknown format"},
		{"ZeroTolerance", []string{"-tolerance", "0"}, "tolerance must be a positive number"},
		{"DuplicateBackend", []string{"-backends", "arrow,arrow"}, "listed twice"},
		{"UnknownBackend", []string{"-backends", "duckdb,spark"}, "unknown backend(s): spark"},
		{"UnknownFlag", []string{"-bogus"}, "flag provided but not defined"},
		{"StrayArgument", []string{"extra"}, "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			require.Equal(t, report.ExitInvalidConfig, code)
			require.Empty(t, stdout)
			require.Contains(t, stderr, tt.message)
		})
	}
}

func TestCLIList(t *testing.T) {
	code, stdout, _ := runCLI(t, "-list", "-backends", "sqlite,arrow")
	require.Equal(t, report.ExitOK, code)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, catalog.Standard().Len())
	for i, name := range catalog.Standard().Names() {
		require.Contains(t, lines[i], name)
		require.Contains(t, lines[i], "sqlite,arrow")
	}
}

func TestCLIListUnknownBackend(t *testing.T) {
	code, _, stderr := runCLI(t, "-list", "-backends", "spark")
	require.Equal(t, report.ExitInvalidConfig, code)
	require.Contains(t, stderr, "spark")
}

func TestCLIMarkdownToStdout(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-backends", "duckdb,arrow")
	require.Equal(t, report.ExitOK, code, stderr)
	require.Contains(t, stdout, "**PASS**")
	require.Contains(t, stdout, "```sql")
	require.Contains(t, stderr, "Catalog run")
}

func TestCLIJSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "catalog.json")
	code, stdout, stderr := runCLI(t, "-backends", "sqlite,gota", "-format", "json", "-out", out)
	require.Equal(t, report.ExitOK, code, stderr)
	require.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.True(t, doc.Passed)
	require.Equal(t, []string{"sqlite", "gota"}, doc.Backends)
	require.Len(t, doc.Operations, catalog.Standard().Len())
	require.Equal(t, catalog.Standard().Len(), doc.Counts["match"])
}

func TestCLIArchiveAndAttest(t *testing.T) {
	dir := t.TempDir()
	code, stdout, stderr := runCLI(t,
		"-backends", "duckdb",
		"-archiveDir", dir,
		"-signingKey", "ci-secret",
		"-name", "ci",
		"-email", "ci@example.com")
	require.Equal(t, report.ExitOK, code, stderr)
	require.Contains(t, stderr, "Attestation: ")

	archive, err := report.OpenArchive(dir)
	require.NoError(t, err)
	history, err := archive.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "ci", history[0].Author.Name)

	archived, err := archive.Read("catalog.md")
	require.NoError(t, err)
	require.Equal(t, stdout, string(archived))

	token := strings.TrimSpace(stderr[strings.LastIndex(stderr, "Attestation: ")+len("Attestation: "):])
	claims, err := report.VerifyAttestation(token, []byte("ci-secret"))
	require.NoError(t, err)
	require.True(t, claims.Matches(archived))
}

func TestCLICancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-backends", "arrow"}, &stdout, &stderr)
	require.Equal(t, report.ExitFailure, code)
	require.Contains(t, stdout.String(), "**FAIL**")
}

func TestSplitList(t *testing.T) {
	require.Nil(t, splitList(""))
	require.Equal(t, []string{"duckdb", "arrow"}, splitList(" duckdb, ,arrow "))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "a b c", truncate("a\nb\tc", 10))
	require.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
