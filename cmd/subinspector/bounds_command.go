package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"subinspector/internal/bounds"
	"subinspector/internal/inspector"
	"subinspector/internal/logging"
	"subinspector/internal/raster"
	"subinspector/internal/report"
	"subinspector/internal/scriptfile"
)

func newBoundsCommand(ctx *commandContext) *cobra.Command {
	var (
		times        []int64
		formatFlag   string
		rendererFlag string
	)

	cmd := &cobra.Command{
		Use:   "bounds <file.ass>",
		Short: "Print the bounding rectangle of the whole script at given times",
		Long: "Render the complete script at each --time (milliseconds) and print the " +
			"bounding rectangle, fingerprint and solid flag. Without --time, each " +
			"Dialogue line's start time is used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			format := report.FormatTable
			if cmd.Flags().Changed("format") {
				if format, err = report.ParseFormat(formatFlag); err != nil {
					return err
				}
			}
			backend := raster.Backend(cfg.Renderer.Backend)
			if cmd.Flags().Changed("renderer") {
				if backend, err = raster.ParseBackend(rendererFlag); err != nil {
					return fmt.Errorf("--renderer: %w", err)
				}
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			path := args[0]
			script, err := scriptfile.Read(path)
			if err != nil {
				return err
			}
			sampleTimes := times
			if len(sampleTimes) == 0 {
				sampleTimes = make([]int64, 0, len(script.Lines))
				for _, line := range script.Lines {
					sampleTimes = append(sampleTimes, line.Start)
				}
			}

			width, height := cfg.CanvasFor(script.PlayResX, script.PlayResY)
			session, err := inspector.New(inspector.Options{
				Width:          width,
				Height:         height,
				FontConfig:     cfg.Fonts.Config,
				FontDir:        cfg.Fonts.Dir,
				Backend:        backend,
				MaxScriptBytes: cfg.Renderer.MaxScriptBytes,
				Logger:         logging.WithContext(logging.WithFile(cmd.Context(), path), logger),
			})
			if err != nil {
				return err
			}
			defer session.Close()

			var body bytes.Buffer
			for _, line := range script.Lines {
				body.Write(line.Body)
			}
			if err := session.SetHeader(script.Header, len(script.Header)); err != nil {
				return err
			}
			if err := session.SetScript(body.Bytes(), body.Len()); err != nil {
				return err
			}
			rects := make([]bounds.Rect, len(sampleTimes))
			if err := session.CalculateBounds(rects, sampleTimes); err != nil {
				return err
			}

			out := report.Samples{Path: path, Width: width, Height: height}
			for i, ms := range sampleTimes {
				out.Samples = append(out.Samples, report.Sample{TimeMS: ms, Rect: rects[i]})
			}
			return report.WriteSamples(cmd.OutOrStdout(), out, format)
		},
	}

	cmd.Flags().Int64SliceVarP(&times, "time", "t", nil, "Time in milliseconds (repeatable or comma separated)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: table, json, yaml or markdown")
	cmd.Flags().StringVar(&rendererFlag, "renderer", "", "Renderer backend: basic or libass (default from config)")
	return cmd
}
