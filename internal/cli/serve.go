package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvexplorer/internal/config"
	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/JonMunkholm/csvexplorer/internal/render"
	"github.com/JonMunkholm/csvexplorer/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the browser UI and JSON API.

Configuration comes from environment variables, optionally loaded from a .env
file. SESSION_SECRET is required.`,
		Example: `  SESSION_SECRET=$(openssl rand -hex 32) csvexplorer serve
  csvexplorer serve --env-file deploy/.env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil {
				slog.Info("no .env file found, using environment variables", "path", envFile)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
	return cmd
}

// Serve wires the explorer from cfg and serves until ctx is done, then shuts
// down gracefully within cfg.Server.ShutdownTimeout.
func Serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"session_ttl", cfg.Session.TTL,
	)

	service := core.NewService(core.ServiceConfig{
		MaxFileSize:       cfg.Upload.MaxFileSize,
		Limiter:           core.NewParseLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		Renderer:          render.New(render.Options{Width: cfg.Charts.Width, Height: cfg.Charts.Height}),
		RenderConcurrency: cfg.Charts.RenderConcurrency,
	})
	store := core.NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions)
	server := web.NewServer(service, store, cfg)

	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	server.RunBackground(jobCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := service.Limiter().Status(); status.Active > 0 {
		slog.Info("waiting for parses to complete", "active", status.Active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}

	slog.Info("server stopped")
	return nil
}
