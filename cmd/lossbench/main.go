// Package main provides the CLI entry point for lossbench, which
// benchmarks lossless compression codecs against a single folder.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/weiihann/lossbench/codec"
	"github.com/weiihann/lossbench/harness"
	"github.com/weiihann/lossbench/report"
	"github.com/weiihann/lossbench/sampler"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	interrupts := &harness.Interrupts{}

	ctx, release := interrupts.Scope(context.Background())
	defer release()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()

	go interrupts.Listen(listenCtx, sigs)

	root := newRootCmd(logger, interrupts)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case codec.IsCancelled(err):
		fmt.Fprintln(root.OutOrStdout(), "\nOperation cancelled by user.")

		return 0
	default:
		logger.Error("benchmark failed", slog.String("error", err.Error()))

		return 1
	}
}

func newRootCmd(logger *slog.Logger, interrupts *harness.Interrupts) *cobra.Command {
	var (
		interval    time.Duration
		outputJSON  bool
		csvPath     string
		cancelScope string
	)

	cmd := &cobra.Command{
		Use:   "lossbench <folder>",
		Short: "Benchmark lossless compression codecs against a folder",
		Long: `Lossbench archives a folder into a single tar file, compresses it with
Brotli, Zstandard and LZ4 at every supported level, decompresses every
result and reports size, time, peak/average memory and CPU per run.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one folder argument, got %d", len(args))
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd.Context(), logger, interrupts, cmd.OutOrStdout(), runConfig{
				folder:      args[0],
				interval:    interval,
				outputJSON:  outputJSON,
				csvPath:     csvPath,
				cancelScope: cancelScope,
			})
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&interval, "interval", sampler.DefaultInterval,
		"CPU and memory sampling interval")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of tables")
	flags.StringVar(&csvPath, "csv", "",
		"Also write all results to this CSV file")
	flags.StringVar(&cancelScope, "cancel-scope", string(harness.ScopeCodec),
		"What an interrupt during compression stops: codec or run")

	return cmd
}

var errNotFolder = errors.New("not a folder")

type runConfig struct {
	folder      string
	interval    time.Duration
	outputJSON  bool
	csvPath     string
	cancelScope string
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	interrupts *harness.Interrupts,
	stdout io.Writer,
	cfg runConfig,
) error {
	folder, err := filepath.Abs(cfg.folder)
	if err != nil {
		return fmt.Errorf("resolve folder: %w", err)
	}

	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", folder, errNotFolder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", folder, errNotFolder)
	}

	scope, err := harness.ParseCancelScope(cfg.cancelScope)
	if err != nil {
		return err
	}

	resultsDir := harness.ResultsDir(folder)

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("folder", folder),
		slog.String("results_dir", resultsDir),
		slog.Duration("interval", cfg.interval),
		slog.String("cancel_scope", string(scope)),
	)

	// Step 1: Size and archive the folder.
	workDir, err := os.MkdirTemp("", "lossbench-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	in, err := harness.Prepare(ctx, folder, workDir)
	if err != nil {
		return fmt.Errorf("prepare input: %w", err)
	}

	logger.InfoContext(ctx, "archive ready",
		slog.Int64("original_bytes", in.OriginalSize),
		slog.Int64("archive_bytes", in.Archive.Size),
	)

	if in.OriginalSize == 0 {
		logger.WarnContext(ctx, "folder holds no file data, reductions will read 0%",
			slog.String("folder", folder))
	}

	probe, err := sampler.NewProcessProbe(ctx)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "process probe ready", slog.Int("cores", probe.Cores()))

	runner := harness.NewRunner(probe, interrupts, harness.Config{
		ResultsDir:  resultsDir,
		Interval:    cfg.interval,
		CancelScope: scope,
	}, logger)

	var table *report.Table
	if !cfg.outputJSON {
		table = report.NewTable(stdout)
		table.Banner(in.Name, in.OriginalSize)
		runner.OnResult = table.Row
	}

	// Step 2: Compress with every codec at every level.
	var results []harness.Result

	for _, c := range codec.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if table != nil {
			table.BeginCodec(c.Name)
		}

		compressed, err := runner.Compress(ctx, c, in)
		results = append(results, compressed...)

		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 3: Decompress every artifact of this folder.
	if table != nil {
		table.BeginDecompression()
	}

	decompressed, err := runner.Decompress(ctx, in)
	results = append(results, decompressed...)

	if err != nil {
		return err
	}

	// Step 4: Report.
	if table != nil {
		table.Finish()
	} else if err := report.GenerateJSON(stdout, results); err != nil {
		return fmt.Errorf("generate JSON report: %w", err)
	}

	if cfg.csvPath != "" {
		if err := writeCSV(cfg.csvPath, results); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.Int("runs", len(results)),
		slog.String("results_dir", resultsDir),
	)

	return nil
}

func writeCSV(path string, results []harness.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}

	if err := report.GenerateCSV(f, results); err != nil {
		f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv %s: %w", path, err)
	}

	return nil
}
