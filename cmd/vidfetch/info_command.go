package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidfetch/internal/formats"
)

type infoOutput struct {
	Title     *string           `json:"title"`
	Thumbnail *string           `json:"thumbnail"`
	Formats   []formats.Summary `json:"formats"`
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var tableOutput bool

	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "List the best format per resolution for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger()
			if err != nil {
				return err
			}
			ext, err := newExtractor(cfg, logger)
			if err != nil {
				return err
			}

			meta, err := ext.FetchMetadata(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("fetch info: %w", err)
			}
			result := infoOutput{
				Title:     meta.Title,
				Thumbnail: meta.Thumbnail,
				Formats:   formats.Reduce(meta.Formats),
			}
			if jsonOutput || (!tableOutput && !isTerminal(cmd.OutOrStdout())) {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderInfo(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the /info response body instead of a table")
	cmd.Flags().BoolVar(&tableOutput, "table", false, "Print a table even when stdout is not a terminal")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
	return cmd
}

func renderInfo(info infoOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title:     %s\n", valueOr(info.Title, "(untitled)"))
	fmt.Fprintf(&b, "Thumbnail: %s\n", valueOr(info.Thumbnail, "(none)"))
	if len(info.Formats) == 0 {
		b.WriteString("No downloadable video formats.\n")
		return b.String()
	}

	rows := make([][]string, 0, len(info.Formats))
	for _, f := range info.Formats {
		rows = append(rows, []string{
			f.Resolution.String(),
			f.FormatID,
			f.Ext,
			formatSize(f.FilesizeMB),
			string(f.StreamType),
		})
	}
	b.WriteString(renderTable("Formats",
		[]string{"Resolution", "Format", "Ext", "Size (MB)", "Stream"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	b.WriteString("\n")
	return b.String()
}

func formatSize(mb *float64) string {
	if mb == nil {
		return "?"
	}
	return fmt.Sprintf("%.2f", *mb)
}

func valueOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}
