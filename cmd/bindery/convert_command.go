package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"bindery/internal/comic"
	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/pipeline"
	"bindery/internal/preflight"
	"bindery/internal/staging"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputFlag string
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert comic archives to cbz, epub, or mobi",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overlaid, err := overlayFlags(cfg, formatFlag, outputFlag, workersFlag)
			if err != nil {
				return err
			}
			return runConvert(cmd, overlaid, args)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: cbz, epub, or mobi")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (default: output.dir or the working directory)")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent conversions (default: processing.workers or CPU count)")
	return cmd
}

// overlayFlags copies the loaded config and applies command line overrides on
// top of it.
func overlayFlags(cfg *config.Config, format, output string, workers int) (*config.Config, error) {
	overlaid := *cfg
	if value := strings.TrimSpace(format); value != "" {
		if _, ok := comic.ParseFormat(value); !ok {
			return nil, fmt.Errorf("unknown output format %q (expected cbz, epub, or mobi)", value)
		}
		overlaid.Output.Format = value
	}
	if value := strings.TrimSpace(output); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return nil, err
		}
		overlaid.Output.Dir = expanded
	}
	if workers > 0 {
		overlaid.Processing.Workers = workers
	}
	return &overlaid, nil
}

func runConvert(cmd *cobra.Command, cfg *config.Config, args []string) error {
	out := cmd.OutOrStdout()
	interactive := interactiveTerminal(out)

	files, err := resolveInputs(args)
	if err != nil {
		return err
	}

	outputDir := strings.TrimSpace(cfg.Output.Dir)
	if outputDir == "" {
		outputDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", outputDir, err)
	}

	logger, err := newConvertLogger(cfg, interactive)
	if err != nil {
		return err
	}

	results := preflight.RunAll(cfg, outputDir)
	if !preflight.AllPassed(results) {
		for _, result := range results {
			if result.Passed {
				continue
			}
			fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, interactive))
		}
		return errors.New("preflight checks failed")
	}

	lock := flock.New(filepath.Join(outputDir, ".bindery.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire batch lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another bindery run is writing to %s", outputDir)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	staging.CleanStale(ctx, cfg.Paths.StagingDir, cfg.StaleStagingAge(), logger)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	started := time.Now()
	report := consumeEvents(out, p.Run(ctx, files, outputDir), interactive)

	format, _ := comic.ParseFormat(cfg.Output.Format)
	failures := renderSummary(out, report, outputDir, format, time.Since(started))
	if failures > 0 {
		return fmt.Errorf("%d of %d conversions failed", failures, len(files))
	}
	return nil
}

func resolveInputs(args []string) ([]string, error) {
	files := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// newConvertLogger routes structured logs to the log file, and to stderr as
// well when stdout is not a terminal. A live terminal gets progress bars on
// stdout; interleaved log lines would tear them.
func newConvertLogger(cfg *config.Config, interactive bool) (*slog.Logger, error) {
	outputs := []string{filepath.Join(cfg.Paths.LogDir, "bindery.log")}
	if !interactive {
		outputs = append(outputs, "stderr")
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}
