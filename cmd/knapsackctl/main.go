package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"knapsackga/internal/logging"
	"knapsackga/internal/report"
	"knapsackga/internal/storage"
	"knapsackga/internal/telemetry"
	"knapsackga/pkg/knapsackga"
)

const serviceName = "knapsackctl"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app holds the global flags shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	storeKind     string
	dbPath        string
	artifactsDir  string
	exportsDir    string
	benchmarksDir string
	logLevel      string
	logFormat     string
	traceExporter string
	metricsFile   string
	jsonOutput    bool
	skipArtifacts bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Solve 0/1 knapsack instances with a genetic algorithm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.storeKind, "store", storage.DefaultStoreKind, "store backend: memory|badger|sqlite")
	flags.StringVar(&a.dbPath, "db-path", "knapsackga.db", "database directory (badger) or file (sqlite)")
	flags.StringVar(&a.artifactsDir, "artifacts-dir", "runs", "directory for per-run artifacts")
	flags.StringVar(&a.exportsDir, "exports-dir", "exports", "default export destination")
	flags.StringVar(&a.benchmarksDir, "benchmarks-dir", "benchmarks", "directory for benchmark reports")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text|json")
	flags.StringVar(&a.traceExporter, "trace-exporter", "none", "trace exporter: none|stdout")
	flags.StringVar(&a.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file after the command")
	flags.BoolVar(&a.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newRunCommand(a),
		newBenchmarkCommand(a),
		newRunsCommand(a),
		newHistoryCommand(a),
		newDiagnosticsCommand(a),
		newDeleteCommand(a),
		newExportCommand(a),
		newCatalogCommand(a),
		newSelectorsCommand(a),
	)
	return root
}

// withClient builds the logger, tracing, metrics and client for one command
// and tears them down afterwards.
func (a *app) withClient(ctx context.Context, fn func(ctx context.Context, client *knapsackga.Client) error) (err error) {
	logger, err := logging.New(logging.Config{
		Level:   a.logLevel,
		Format:  a.logFormat,
		Writer:  a.stderr,
		Service: serviceName,
	})
	if err != nil {
		return err
	}

	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: serviceName,
		Exporter:    a.traceExporter,
		Writer:      a.stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := shutdown(context.WithoutCancel(ctx)); shutdownErr != nil && err == nil {
			err = fmt.Errorf("flush traces: %w", shutdownErr)
		}
	}()

	var metrics *telemetry.Metrics
	if a.metricsFile != "" {
		metrics = telemetry.NewMetrics(nil)
	}

	client, err := knapsackga.New(knapsackga.Options{
		StoreKind:     a.storeKind,
		DBPath:        a.dbPath,
		ArtifactsDir:  a.artifactsDir,
		ExportsDir:    a.exportsDir,
		BenchmarksDir: a.benchmarksDir,
		SkipArtifacts: a.skipArtifacts,
		Logger:        logger,
		Metrics:       metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fn(ctx, client); err != nil {
		return err
	}
	if metrics != nil {
		return metrics.WriteTextfile(a.metricsFile)
	}
	return nil
}

func (a *app) reportOptions() report.Options {
	f, ok := a.stdout.(*os.File)
	return report.Options{Styled: ok && report.IsTerminal(f)}
}

// runRefFlags registers --run-id and --latest on cmd.
func runRefFlags(cmd *cobra.Command, ref *knapsackga.RunRef) {
	cmd.Flags().StringVar(&ref.RunID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&ref.Latest, "latest", false, "use the most recent run")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	cmd.MarkFlagsOneRequired("run-id", "latest")
}

func limitFlag(cmd *cobra.Command, limit *int) {
	cmd.Flags().IntVar(limit, "limit", 0, "maximum rows to print, 0 for all")
}
