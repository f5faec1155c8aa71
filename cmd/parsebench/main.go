// Package main provides the CLI entry point for parsebench, which
// measures and plots the resource usage of parser benchmarks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/weiihann/parsebench/chart"
	"github.com/weiihann/parsebench/config"
	"github.com/weiihann/parsebench/console"
	"github.com/weiihann/parsebench/harness"
	"github.com/weiihann/parsebench/memsearch"
	"github.com/weiihann/parsebench/report"
	"github.com/weiihann/parsebench/results"
	"github.com/weiihann/parsebench/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Error("parsebench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var (
		cfg     = config.Default()
		verbose bool
	)

	root := &cobra.Command{
		Use:   "parsebench",
		Short: "Parser benchmark memory search and result plots",
		Long: `Parsebench finds the smallest heap limit under which a JVM-based
parser handles each input file, and renders box plots comparing benchmark
results across tools and datasets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().String("config", "",
		"Path to a YAML config file (flags override its values)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log every probe")

	root.AddCommand(
		newMemSearchCmd(logger, &cfg),
		newPlotCmd(logger, &cfg),
		newReportCmd(&cfg),
	)

	return root
}

func loadConfig(cmd *cobra.Command, cfg *config.File) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil || path == "" {
		return err
	}

	return config.Overlay(path, cfg, cmd.Flags())
}

func newMemSearchCmd(logger *slog.Logger, cfg *config.File) *cobra.Command {
	ms := &cfg.MemSearch

	cmd := &cobra.Command{
		Use:   "memsearch <tool-name> <input-files-directory> <classpath>",
		Short: "Find the minimal heap limit per input file",
		Long: `Run the parser on every file in the input directory under a growing
-Xmx limit, then bisect to the smallest limit that succeeds. One row per
file is appended to <tool-name>_res.txt as soon as it is known. The value
recorded is the largest limit that still failed; files failing at the
maximum are recorded as twice the maximum. Exit code 42 from the parser
aborts the whole run.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				return err
			}

			return runMemSearch(cmd.Context(), logger, memSearchConfig{
				tool:      args[0],
				inputDir:  args[1],
				classpath: args[2],
				settings:  *ms,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&ms.StartMB, "start-mb", ms.StartMB,
		"First heap limit probed, in MB")
	flags.IntVar(&ms.MaxMB, "max-mb", ms.MaxMB,
		"Largest heap limit probed, in MB")
	flags.IntVar(&ms.FatalCode, "fatal-code", ms.FatalCode,
		"Parser exit code that aborts the run")
	flags.StringVar(&ms.Runtime, "runtime", ms.Runtime,
		"JVM launcher")
	flags.StringVar(&ms.Entrypoint, "entrypoint", ms.Entrypoint,
		"Main class of the benchmark entry point")
	flags.StringVar(&ms.OutDir, "out-dir", ms.OutDir,
		"Directory for the result file")
	flags.DurationVar(&ms.Timeout, "timeout", ms.Timeout,
		"Per-probe timeout, counted as a failure (0 = none)")
	flags.IntVar(&ms.Sample, "sample", ms.Sample,
		"Only search this many randomly chosen files (0 = all)")
	flags.Int64Var(&ms.Seed, "seed", ms.Seed,
		"Random seed for --sample")
	flags.StringVar(&ms.BuildDir, "build-dir", ms.BuildDir,
		"Gradle project to build before searching")
	flags.StringVar(&ms.BuildTask, "build-task", ms.BuildTask,
		"Gradle task run in --build-dir")
	flags.BoolVar(&ms.Summary, "summary", ms.Summary,
		"Print a markdown summary when done")
	flags.BoolVar(&ms.JSON, "json", ms.JSON,
		"Print the summary as JSON instead of markdown")

	return cmd
}

type memSearchConfig struct {
	tool      string
	inputDir  string
	classpath string
	settings  config.MemSearch
}

func runMemSearch(
	ctx context.Context,
	logger *slog.Logger,
	cfg memSearchConfig,
) error {
	s := cfg.settings

	searchCfg := memsearch.Config{
		StartMB:   s.StartMB,
		MaxMB:     s.MaxMB,
		FatalCode: s.FatalCode,
	}
	if err := searchCfg.Validate(); err != nil {
		return err
	}

	logger = logger.With(slog.String("tool", cfg.tool))

	logger.InfoContext(ctx, "starting memory search",
		slog.String("input_dir", cfg.inputDir),
		slog.String("classpath", cfg.classpath),
		slog.Int("start_mb", s.StartMB),
		slog.Int("max_mb", s.MaxMB),
	)

	// Step 1: Build the parser (only with --build-dir).
	if s.BuildDir != "" {
		if err := harness.Build(ctx, logger, s.BuildDir, s.BuildTask); err != nil {
			return fmt.Errorf("build: %w", err)
		}
	}

	// Step 2: Select input files.
	files, err := workload.Select(workload.Config{
		Dir:    cfg.inputDir,
		Sample: s.Sample,
		Seed:   s.Seed,
	})
	if err != nil {
		return fmt.Errorf("select inputs: %w", err)
	}

	// Step 3: Open the result file.
	sink, out, err := report.CreateOutcomeFile(s.OutDir, cfg.tool)
	if err != nil {
		return err
	}
	defer out.Close()

	// Step 4: Search every file.
	runner := harness.NewRunner(harness.CommandConfig{
		Runtime:    s.Runtime,
		Classpath:  cfg.classpath,
		Entrypoint: s.Entrypoint,
		Tool:       cfg.tool,
	}, s.Timeout, logger)

	driver := memsearch.NewDriver(searchCfg, runner, sink, console.Stdout(), logger)

	outcomes, runErr := driver.Run(ctx, files)

	logger.InfoContext(ctx, "memory search finished",
		slog.String("output", out.Name()),
		slog.Int("files", len(outcomes)),
		slog.Int("remaining", len(files)-len(outcomes)),
	)

	if runErr != nil {
		return runErr
	}

	// Step 5: Summarize.
	if !s.Summary && !s.JSON {
		return nil
	}

	if s.JSON {
		return report.GenerateJSON(os.Stdout, outcomes)
	}

	return report.GenerateOutcomes(os.Stdout, outcomes, s.MaxMB)
}

func newPlotCmd(logger *slog.Logger, cfg *config.File) *cobra.Command {
	pc := &cfg.Plot

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render box plots of benchmark results",
		Long: `Read <results>/<dataset>/<tool>.csv files, take one numeric column
from every row, and draw one horizontal box plot per dataset with one box
per tool. The first panel aggregates every dataset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				return err
			}

			if err := pc.ApplyMetric(cfg.PlotExplicit(cmd.Flags())); err != nil {
				return err
			}

			return runPlot(cmd.Context(), logger, *pc)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pc.Results, "results", pc.Results,
		"Results root directory, one subdirectory per dataset")
	flags.StringVar(&pc.Metric, "metric", pc.Metric,
		"Preset for column, output and label: time or memory")
	flags.IntVar(&pc.Column, "column", pc.Column,
		"0-based index of the column to plot")
	flags.StringVar(&pc.Output, "output", pc.Output,
		"Image file to write (png, svg, pdf, jpg, tif, eps)")
	flags.StringVar(&pc.ValueLabel, "value-label", pc.ValueLabel,
		"Label of the value axis")
	flags.StringVar(&pc.Comment, "comment", pc.Comment,
		"Lines starting with this marker are skipped")
	flags.StringVar(&pc.AggregateLabel, "aggregate-label", pc.AggregateLabel,
		"Title of the panel combining every dataset")
	flags.Float64Var(&pc.Width, "width", pc.Width,
		"Figure width in inches")
	flags.Float64Var(&pc.PanelHeight, "panel-height", pc.PanelHeight,
		"Height of each panel in inches")
	flags.BoolVar(&pc.Summary, "summary", pc.Summary,
		"Print a markdown table of per-tool statistics")

	return cmd
}

func runPlot(ctx context.Context, logger *slog.Logger, cfg config.Plot) error {
	logger.InfoContext(ctx, "loading results",
		slog.String("results", cfg.Results),
		slog.Int("column", cfg.Column),
	)

	datasets, err := results.Load(cfg.Results, results.LoadOptions{
		Column:  cfg.Column,
		Comment: cfg.Comment,
	})
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}

	panels := results.Aggregate(datasets, cfg.AggregateLabel)

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	err = chart.Render(panels, cfg.Output, chart.Options{
		Width:       vg.Length(cfg.Width) * vg.Inch,
		PanelHeight: vg.Length(cfg.PanelHeight) * vg.Inch,
		ValueLabel:  cfg.ValueLabel,
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "plot written",
		slog.String("output", cfg.Output),
		slog.Int("datasets", len(datasets)),
		slog.Int("panels", len(panels)),
	)

	if cfg.Summary {
		return report.GenerateStats(os.Stdout, panels)
	}

	return nil
}

func newReportCmd(cfg *config.File) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "report <result-file>",
		Short: "Summarize a memory search result file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open result file: %w", err)
			}
			defer f.Close()

			outcomes, err := report.ReadOutcomes(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if outputJSON {
				return report.GenerateJSON(cmd.OutOrStdout(), outcomes)
			}

			return report.GenerateOutcomes(cmd.OutOrStdout(), outcomes, cfg.MemSearch.MaxMB)
		},
	}

	cmd.Flags().IntVar(&cfg.MemSearch.MaxMB, "max-mb", cfg.MemSearch.MaxMB,
		"Largest heap limit the search probed, in MB")
	cmd.Flags().BoolVar(&outputJSON, "json", false,
		"Output as JSON instead of markdown")

	return cmd
}
