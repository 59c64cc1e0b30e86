package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subinspector/internal/audit"
	"subinspector/internal/config"
	"subinspector/internal/fileutil"
	"subinspector/internal/raster"
	"subinspector/internal/report"
)

// errIssuesFound is returned by check --fail-on-issues.
var errIssuesFound = errors.New("issues found")

const exitIssues = 2

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var (
		formatFlag   string
		outputFlag   string
		rendererFlag string
		concurrency  int
		failOnIssues bool
		allLines     bool
	)

	cmd := &cobra.Command{
		Use:   "check <file.ass>...",
		Short: "Report lines that render nothing or repeat an earlier line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			run := *cfg

			format := report.Format(run.Audit.Format)
			if cmd.Flags().Changed("format") {
				if format, err = report.ParseFormat(formatFlag); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("renderer") {
				backend, err := raster.ParseBackend(rendererFlag)
				if err != nil {
					return fmt.Errorf("--renderer: %w", err)
				}
				run.Renderer.Backend = string(backend)
			}
			if cmd.Flags().Changed("concurrency") {
				if concurrency < 1 {
					return fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)
				}
				run.Audit.Concurrency = concurrency
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := audit.Run(signalCtx, args, audit.Options{Config: &run, Logger: logger})
			if err != nil {
				return err
			}

			if err := writeReport(cmd, outputFlag, result, format, allLines); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			if failOnIssues && result.HasIssues() {
				s := result.Summary
				return &exitError{code: exitIssues, err: fmt.Errorf("%w: %d invisible, %d duplicate, %d failed",
					errIssuesFound, s.Invisible, s.Duplicates, s.Failed)}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Report format: table, json, yaml or markdown (default from config)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVar(&rendererFlag, "renderer", "", "Renderer backend: basic or libass (default from config)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Files checked at once (default from config)")
	cmd.Flags().BoolVar(&failOnIssues, "fail-on-issues", false, "Exit with status 2 when any issue is found")
	cmd.Flags().BoolVar(&allLines, "all", false, "List every line, not only those with issues")
	return cmd
}

// writeReport renders to stdout, or atomically replaces the file at output.
// Color is only used on a terminal.
func writeReport(cmd *cobra.Command, output string, result *audit.Report, format report.Format, allLines bool) error {
	opts := report.Options{AllLines: allLines}
	output = strings.TrimSpace(output)
	if output == "" || output == "-" {
		out := cmd.OutOrStdout()
		opts.Color = shouldColorize(out)
		return report.Write(out, result, format, opts)
	}
	path, err := config.ExpandPath(output)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return report.Write(w, result, format, opts)
	})
}
