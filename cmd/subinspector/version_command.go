package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subinspector/internal/inspector"
	"subinspector/internal/raster/libass"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the engine version and available renderers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subinspector %s (0x%06x)\n", formatVersion(inspector.Version()), inspector.Version())
			renderers := "basic"
			if libass.Available {
				renderers += ", libass"
			}
			fmt.Fprintf(out, "renderers: %s\n", renderers)
			return nil
		},
	}
}

// formatVersion renders 0xMMmmpp as M.m.p.
func formatVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>16&0xff, v>>8&0xff, v&0xff)
}
