package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vidfetch/internal/download"
	"vidfetch/internal/fileutil"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var formatID string
	var streamType string
	var output string

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download one format to a local file",
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

			hint := download.ParseStreamHint(streamType)
			target, err := resolveOutput(output, formatID, download.Extension(hint, cfg.Extractor.MergeFormat))
			if err != nil {
				return err
			}

			// The transient lands beside the target so the final move is a rename.
			dispatcher := download.NewDispatcher(ext, filepath.Dir(target),
				download.WithContainer(cfg.Extractor.MergeFormat),
				download.WithLogger(logger),
			)
			transient, err := dispatcher.Fetch(cmd.Context(), download.Request{
				URL:      strings.TrimSpace(args[0]),
				FormatID: formatID,
				Hint:     hint,
			})
			if err != nil {
				return err
			}
			defer dispatcher.Release(cmd.Context(), transient)

			if err := fileutil.MoveFile(transient.Path, target); err != nil {
				return fmt.Errorf("move download into place: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatID, "format", "f", "", "Format id from the info command")
	cmd.Flags().StringVarP(&streamType, "stream", "s", "", "Stream type of the format: video-only, video+audio or audio-only")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file or directory (default: current directory)")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

// resolveOutput turns --output into a file path. An empty value or an
// existing directory receives "<format id>.<ext>".
func resolveOutput(output, formatID, ext string) (string, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		output = "."
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return filepath.Join(abs, outputName(formatID, ext)), nil
	}
	return abs, nil
}

func outputName(formatID, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '\\', ':', ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(formatID))
	if name == "" {
		name = "download"
	}
	return name + "." + ext
}
