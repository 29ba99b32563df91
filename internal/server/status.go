package server

import (
	"context"

	"vidfetch/internal/config"
	"vidfetch/internal/deps"
	"vidfetch/internal/extractor"
	"vidfetch/internal/preflight"
)

// Status is the readiness report served at /api/status and printed by the
// status command.
type Status struct {
	Backend      string             `json:"backend"`
	Version      string             `json:"version,omitempty"`
	VersionError string             `json:"version_error,omitempty"`
	Listen       string             `json:"listen"`
	DownloadDir  string             `json:"download_dir"`
	Dependencies []deps.Status      `json:"dependencies"`
	Checks       []preflight.Result `json:"checks"`
	Ready        bool               `json:"ready"`
}

// BuildStatus gathers dependency, filesystem and extractor-version checks.
// Network reachability is not probed here.
func BuildStatus(ctx context.Context, cfg *config.Config, ext extractor.Extractor, backend string) Status {
	status := Status{
		Backend:      backend,
		Listen:       cfg.ListenAddress(),
		DownloadDir:  cfg.Paths.DownloadDir,
		Dependencies: preflight.CheckSystemDeps(cfg),
		Checks:       preflight.RunAll(ctx, cfg),
	}
	if status.Dependencies == nil {
		status.Dependencies = []deps.Status{}
	}
	if status.Checks == nil {
		status.Checks = []preflight.Result{}
	}
	if versioner, ok := ext.(extractor.Versioner); ok {
		version, err := versioner.Version(ctx)
		if err != nil {
			status.VersionError = err.Error()
		} else {
			status.Version = version
		}
	}
	status.Ready = len(deps.MissingRequired(status.Dependencies)) == 0 && len(preflight.Failed(status.Checks)) == 0
	return status
}
