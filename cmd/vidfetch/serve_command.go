package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vidfetch/internal/config"
	"vidfetch/internal/deps"
	"vidfetch/internal/download"
	"vidfetch/internal/logging"
	"vidfetch/internal/preflight"
	"vidfetch/internal/server"
)

const serverLogPattern = "vidfetch-*.log"

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP download service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind = strings.TrimSpace(bind)
			}
			if cmd.Flags().Changed("port") {
				if port < 0 || port > 65535 {
					return fmt.Errorf("--port: %d out of range", port)
				}
				cfg.Server.Port = port
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(runCtx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen host (overrides server.bind)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port and PORT)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logPath := filepath.Join(cfg.Paths.LogDir, "vidfetch-"+time.Now().UTC().Format("20060102T150405Z")+".log")
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr", logPath},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if pruned := logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: serverLogPattern,
		Exclude: []string{logPath},
	}); pruned > 0 {
		logger.Info("pruned old server logs", logging.Int("removed", pruned))
	}

	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		if result.Name == "Download directory" {
			return fmt.Errorf("%s: %s", strings.ToLower(result.Name), result.Detail)
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		logging.WarnWithContext(logger, "required dependency missing", "dependency_missing",
			logging.String("dependencies", strings.Join(missing, ", ")),
			logging.String(logging.FieldImpact, "info and download requests will fail"),
			logging.String(logging.FieldErrorHint, "install the binary or set extractor.ytdlp_binary"),
		)
	}

	lock, err := download.AcquireDir(cfg.Paths.DownloadDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release download directory lock", logging.Error(err))
		}
	}()
	if swept, err := lock.SweepStale(logger); err != nil {
		logger.Warn("sweep stale downloads", logging.Error(err))
	} else if swept > 0 {
		logger.Info("removed stale downloads", logging.Int("removed", swept))
	}

	ext, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}
	dispatcher := download.NewDispatcher(ext, cfg.Paths.DownloadDir,
		download.WithContainer(cfg.Extractor.MergeFormat),
		download.WithLogger(logger),
	)
	srv, err := server.New(cfg, ext, dispatcher, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "vidfetch listening on http://%s (backend %s)\n", srv.Addr(), backendName(ext, cfg))
	fmt.Fprintf(out, "Log file: %s\n", logPath)

	<-ctx.Done()
	srv.Stop()
	logger.Info("server stopped")
	return nil
}
