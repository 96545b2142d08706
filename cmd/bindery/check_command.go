package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bindery/internal/config"
	"bindery/internal/preflight"
	"bindery/internal/staging"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report configuration, external tools, and leftover staging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runCheck(cmd, ctx, cfg)
		},
	}
}

func runCheck(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	colorize := interactiveTerminal(out)

	for _, line := range renderSectionHeader("Configuration", colorize) {
		fmt.Fprintln(out, line)
	}
	source := "defaults"
	if ctx.configExists {
		source = ctx.configPath
	}
	fmt.Fprintln(out, renderStatusLine("Config file", statusOK, source, colorize))
	fmt.Fprintln(out, renderStatusLine("Output format", statusOK, cfg.Output.Format, colorize))
	fmt.Fprintln(out, renderStatusLine("Staging dir", statusOK, cfg.Paths.StagingDir, colorize))

	outputDir := strings.TrimSpace(cfg.Output.Dir)
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		outputDir = wd
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	results := preflight.RunAll(cfg, outputDir)
	for _, result := range results {
		kind := statusOK
		message := result.Detail
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, message, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("External tools", colorize) {
		fmt.Fprintln(out, line)
	}
	toolRows := make([][]string, 0, 1)
	for _, status := range preflight.SystemDeps(cfg) {
		detail := status.Detail
		if detail == "" {
			detail = status.Description
		}
		toolRows = append(toolRows, []string{
			status.Name,
			status.Command,
			yesNo(status.Available),
			yesNo(status.Optional),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Available", "Optional", "Detail"}, toolRows))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Staging leftovers", colorize) {
		fmt.Fprintln(out, line)
	}
	if err := renderStagingReport(out, cfg.Paths.StagingDir); err != nil {
		return err
	}

	if !preflight.AllPassed(results) {
		return errors.New("preflight checks failed")
	}
	return nil
}

func renderStagingReport(out io.Writer, stagingDir string) error {
	dirs, err := staging.ListDirectories(stagingDir)
	if err != nil {
		return fmt.Errorf("list staging directories: %w", err)
	}
	if len(dirs) == 0 {
		fmt.Fprintln(out, "No staging directories found.")
		return nil
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ModTime.After(dirs[j].ModTime) })

	var total int64
	rows := make([][]string, 0, len(dirs))
	for _, dir := range dirs {
		total += dir.Size
		rows = append(rows, []string{
			dir.Name,
			formatAge(time.Since(dir.ModTime)),
			humanize.IBytes(uint64(dir.Size)),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Directory", "Age", "Size"}, rows, 1, 2))
	fmt.Fprintf(out, "Total: %d directories, %s\n", len(dirs), humanize.IBytes(uint64(total)))
	return nil
}

// formatAge renders coarse ages for the staging report.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
