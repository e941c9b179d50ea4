package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nickyhof/CatalogRunner"
	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/report"
	"github.com/nickyhof/CatalogRunner/runner"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// Version is set at build time via -ldflags
var Version = "dev"

// options holds everything parsed from the command line
type options struct {
	config     runner.Config
	format     string
	out        string
	s3         report.S3Options
	archiveDir string
	signingKey string
	identity   core.Identity
	list       bool
	verbose    bool
}

// CLI holds the CLI state
type CLI struct {
	options options
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.SugaredLogger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the catalog and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return report.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return report.ExitInvalidConfig
	}

	logger := newLogger(opts.verbose, stderr)
	defer logger.Sync() //nolint:errcheck

	cli := &CLI{
		options: opts,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
	}

	if opts.list {
		return cli.listCatalog()
	}
	return cli.execute(ctx)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("catalogrunner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := runner.DefaultConfig()
	backends := fs.String("backends", "", "Comma separated backend ids to run (default: all)")
	tolerance := fs.Float64("tolerance", defaults.Tolerance, "Relative tolerance for float comparison")
	stopOnMismatch := fs.Bool("stopOnMismatch", false, "Stop at the first mismatching operation")
	format := fs.String("format", formatMarkdown, "Report format: markdown or json")
	out := fs.String("out", "", "Write the report to a path or s3://bucket/key (default: stdout)")
	s3Region := fs.String("s3Region", "", "AWS region for s3:// output")
	s3Endpoint := fs.String("s3Endpoint", "", "Custom S3 endpoint, e.g. for MinIO")
	archiveDir := fs.String("archiveDir", "", "Git repository directory to archive reports in")
	signingKey := fs.String("signingKey", "", "HMAC key used to sign a report attestation")
	userName := fs.String("name", "CatalogRunner", "User name for archive commits")
	userEmail := fs.String("email", "runner@catalogrunner.local", "User email for archive commits")
	list := fs.Bool("list", false, "List the catalog with supporting backends and exit")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	version := fs.Bool("version", false, "Print the version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *version {
		fmt.Fprintf(stderr, "CatalogRunner v%s\n", Version)
		return options{}, flag.ErrHelp
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *format != formatMarkdown && *format != formatJSON {
		return options{}, fmt.Errorf("unknown format %q, expected markdown or json", *format)
	}

	config := runner.Config{
		Backends:       splitList(*backends),
		Tolerance:      *tolerance,
		StopOnMismatch: *stopOnMismatch,
	}
	if err := config.Validate(); err != nil {
		return options{}, fmt.Errorf("invalid config: %w", err)
	}

	return options{
		config:     config,
		format:     *format,
		out:        *out,
		s3:         report.S3Options{Region: *s3Region, Endpoint: *s3Endpoint},
		archiveDir: *archiveDir,
		signingKey: *signingKey,
		identity:   core.Identity{Name: *userName, Email: *userEmail},
		list:       *list,
		verbose:    *verbose,
	}, nil
}

// newLogger builds a development logger when verbose and a production logger
// otherwise, both writing to w
func newLogger(verbose bool, w io.Writer) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), cfg.Level)).Sugar()
}

func (cli *CLI) listCatalog() int {
	selected, err := backend.Select(backend.Default(), cli.options.config.Backends)
	if err != nil {
		fmt.Fprintf(cli.stderr, "Error: invalid config: %v\n", err)
		return report.ExitInvalidConfig
	}

	expressions := make(map[string]map[string]string, len(selected))
	for _, b := range selected {
		expressions[b.ID()] = b.Expressions()
	}

	cat := catalog.Standard()
	for i, op := range cat.Operations() {
		var supported []string
		for _, b := range selected {
			if _, ok := expressions[b.ID()][op.Name]; ok {
				supported = append(supported, b.ID())
			}
		}
		fmt.Fprintf(cli.stdout, "%2d. %-28s %-30s %s\n",
			i+1, op.Name, strings.Join(supported, ","), truncate(op.Description, 60))
	}
	return report.ExitOK
}

func (cli *CLI) execute(ctx context.Context) int {
	var archive *report.Archive
	if cli.options.archiveDir != "" {
		a, err := report.OpenArchive(cli.options.archiveDir)
		if err != nil {
			fmt.Fprintf(cli.stderr, "Error: %v\n", err)
			return report.ExitFailure
		}
		archive = a
	}
	instance := CatalogRunner.Open(archive)

	r, err := instance.Runner(cli.options.config, cli.logger)
	if err != nil {
		fmt.Fprintf(cli.stderr, "Error: %v\n", err)
		return report.ExitInvalidConfig
	}

	run, runErr := r.Run(ctx)
	if runErr != nil {
		cli.logger.Errorw("run did not complete", "run", run.ID, "error", runErr)
	}

	var doc bytes.Buffer
	if cli.options.format == formatJSON {
		err = report.RenderJSON(&doc, r.Catalog(), r.Backends(), run)
	} else {
		err = report.Render(&doc, r.Catalog(), r.Backends(), run)
	}
	if err != nil {
		fmt.Fprintf(cli.stderr, "Error: failed to render report: %v\n", err)
		return report.ExitFailure
	}

	fmt.Fprintln(cli.stderr, report.Summary(run))

	if err := cli.write(ctx, doc.Bytes()); err != nil {
		fmt.Fprintf(cli.stderr, "Error: %v\n", err)
		return report.ExitFailure
	}

	if archive != nil {
		hash, err := instance.Record(cli.options.identity, cli.documentName(), run, doc.Bytes())
		if err != nil {
			fmt.Fprintf(cli.stderr, "Error: failed to archive report: %v\n", err)
			return report.ExitFailure
		}
		cli.logger.Infow("archived report", "run", run.ID, "commit", hash)
	}

	if cli.options.signingKey != "" {
		token, err := report.Attest(run, doc.Bytes(), []byte(cli.options.signingKey))
		if err != nil {
			fmt.Fprintf(cli.stderr, "Error: %v\n", err)
			return report.ExitFailure
		}
		fmt.Fprintf(cli.stderr, "Attestation: %s\n", token)
	}

	if runErr != nil {
		return report.ExitFailure
	}
	return run.ExitCode()
}

// write sends the document to stdout, a local path or S3
func (cli *CLI) write(ctx context.Context, doc []byte) error {
	if cli.options.out == "" {
		_, err := cli.stdout.Write(doc)
		return err
	}
	if err := report.Publish(ctx, cli.options.out, doc, cli.options.s3); err != nil {
		return err
	}
	cli.logger.Infow("published report", "destination", cli.options.out)
	return nil
}

func (cli *CLI) documentName() string {
	if cli.options.format == formatJSON {
		return "catalog.json"
	}
	return "catalog.md"
}

// splitList splits a comma separated flag value, dropping empty entries
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
