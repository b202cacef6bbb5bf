package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"knapsackga/internal/catalog"
	"knapsackga/internal/evo"
	"knapsackga/internal/report"
	"knapsackga/pkg/knapsackga"
)

func newRunCommand(a *app) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a selection for an item catalog and store the run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				summary, err := client.Run(ctx, cfg.request())
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, summary)
				}
				if err := report.RenderHistory(a.stdout, summary.BestByGeneration, a.reportOptions()); err != nil {
					return err
				}
				names := make([]string, len(summary.Selected))
				for i, item := range summary.Selected {
					names[i] = item.Name
				}
				fmt.Fprintf(a.stdout, "run_id=%s best_fitness=%d bits=%s selected=%s\n",
					summary.RunID, summary.FinalBest.Fitness, summary.FinalBest.Bits, strings.Join(names, ","))
				if summary.ArtifactsDir != "" {
					fmt.Fprintf(a.stdout, "artifacts=%s\n", summary.ArtifactsDir)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&a.skipArtifacts, "no-artifacts", false, "skip writing per-run artifact files")
	return cmd
}

func newBenchmarkCommand(a *app) *cobra.Command {
	var (
		flags runFlags
		runs  int
		goal  int
	)
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Repeat a run over consecutive seeds and aggregate the fitness curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			req := knapsackga.BenchmarkRequest{Run: cfg.request(), Runs: runs}
			if cmd.Flags().Changed("goal") {
				req.Goal = &goal
			}
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				summary, err := client.Benchmark(ctx, req)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, summary)
				}
				if err := report.RenderBenchmark(a.stdout, summary.Report, a.reportOptions()); err != nil {
					return err
				}
				evals := summary.Report.Evaluations
				fmt.Fprintf(a.stdout, "benchmark_id=%s runs=%d success_rate=%.2f\n", summary.Report.ID, evals.TotalRuns, evals.SuccessRate)
				if summary.Directory != "" {
					fmt.Fprintf(a.stdout, "report=%s\n", summary.Directory)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&runs, "runs", 5, "number of runs, seeded consecutively from --seed")
	cmd.Flags().IntVar(&goal, "goal", 0, "fitness a run must reach to count as a success")
	cmd.Flags().BoolVar(&a.skipArtifacts, "no-artifacts", false, "skip writing run artifacts and the report")
	cmd.AddCommand(newBenchmarkShowCommand(a))
	return cmd
}

func newBenchmarkShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <benchmark-id>",
		Short: "Print a stored benchmark report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				summary, err := client.GetBenchmark(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, summary)
				}
				return report.RenderBenchmark(a.stdout, summary.Report, a.reportOptions())
			})
		},
	}
}

func newRunsCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				runs, err := client.Runs(ctx, knapsackga.RunsRequest{Limit: limit})
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, runs)
				}
				return report.RenderRuns(a.stdout, runs, a.reportOptions())
			})
		},
	}
	limitFlag(cmd, &limit)
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var req knapsackga.HistoryRequest
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the best candidate of every generation of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				history, err := client.History(ctx, req)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, history)
				}
				return report.RenderHistory(a.stdout, history, a.reportOptions())
			})
		},
	}
	runRefFlags(cmd, &req.RunRef)
	limitFlag(cmd, &req.Limit)
	cmd.Flags().BoolVar(&req.FromArtifacts, "from-artifacts", false, "read the history from the run's artifact CSV")
	return cmd
}

func newDiagnosticsCommand(a *app) *cobra.Command {
	var req knapsackga.DiagnosticsRequest
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Print per-generation population statistics of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				diagnostics, err := client.Diagnostics(ctx, req)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, diagnostics)
				}
				return report.RenderDiagnostics(a.stdout, diagnostics, a.reportOptions())
			})
		},
	}
	runRefFlags(cmd, &req.RunRef)
	limitFlag(cmd, &req.Limit)
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	var ref knapsackga.RunRef
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored run and its artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				runID, err := client.DeleteRun(ctx, ref)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "deleted run_id=%s\n", runID)
				return nil
			})
		},
	}
	runRefFlags(cmd, &ref)
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var req knapsackga.ExportRequest
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, client *knapsackga.Client) error {
				exported, err := client.Export(ctx, req)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return report.WriteJSON(a.stdout, exported)
				}
				fmt.Fprintf(a.stdout, "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
				return nil
			})
		},
	}
	runRefFlags(cmd, &req.RunRef)
	cmd.Flags().StringVar(&req.OutDir, "out", "", "export destination, defaults to --exports-dir")
	return cmd
}

func newCatalogCommand(a *app) *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "catalog <path>",
		Short: "Parse an item catalog and print it with totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			items, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			switch {
			case normalize:
				return catalog.Write(a.stdout, items)
			case a.jsonOutput:
				return report.WriteJSON(a.stdout, items)
			default:
				return report.RenderCatalog(a.stdout, items, a.reportOptions())
			}
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "print the catalog as trimmed name;weight;value lines")
	return cmd
}

func newSelectorsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selectors",
		Short: "List registered parent selection strategies",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			names := evo.ListSelectors()
			if a.jsonOutput {
				return report.WriteJSON(a.stdout, names)
			}
			for _, name := range names {
				marker := ""
				if name == evo.DefaultSelection {
					marker = " (default)"
				}
				fmt.Fprintf(a.stdout, "%s%s\n", name, marker)
			}
			return nil
		},
	}
}
