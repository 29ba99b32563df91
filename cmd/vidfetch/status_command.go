package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidfetch/internal/preflight"
	"vidfetch/internal/server"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var probe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report backend, dependency and directory readiness",
		Args:  cobra.NoArgs,
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

			status := server.BuildStatus(cmd.Context(), cfg, ext, backendName(ext, cfg))
			if probe {
				result := preflight.CheckUpstream(cmd.Context(), nil, "YouTube", preflight.YouTubeProbeURL)
				status.Checks = append(status.Checks, result)
				status.Ready = status.Ready && result.Passed
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStatus(status, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the /api/status body")
	cmd.Flags().BoolVar(&probe, "probe", false, "Also check that YouTube is reachable")
	return cmd
}

func renderStatus(status server.Status, colorize bool) string {
	var lines []string

	lines = append(lines, renderSectionHeader("Service", colorize)...)
	lines = append(lines, renderStatusLine("Backend", statusInfo, status.Backend, colorize))
	switch {
	case status.VersionError != "":
		lines = append(lines, renderStatusLine("Version", statusError, status.VersionError, colorize))
	case status.Version != "":
		lines = append(lines, renderStatusLine("Version", statusOK, status.Version, colorize))
	}
	lines = append(lines, renderStatusLine("Listen", statusInfo, status.Listen, colorize))
	lines = append(lines, renderStatusLine("Download dir", statusInfo, status.DownloadDir, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, dep := range status.Dependencies {
		kind := statusOK
		message := dep.Command
		if dep.Detail != "" {
			message = dep.Detail
		}
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, message, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, check := range status.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}

	lines = append(lines, "")
	readyKind := statusOK
	if !status.Ready {
		readyKind = statusError
	}
	lines = append(lines, renderStatusLine("Ready", readyKind, yesNo(status.Ready), colorize))
	return strings.Join(lines, "\n") + "\n"
}
