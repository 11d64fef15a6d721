package cmd

import (
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storeops/logship/internal/config"
	"github.com/storeops/logship/internal/observability"
	"github.com/storeops/logship/internal/server"
	"github.com/storeops/logship/internal/server/handlers"
	"github.com/storeops/logship/pkg/export"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP export server",
	Long: `Run the HTTP server exposing the analyze and export endpoints.

Configuration comes from logship.yaml and LOGSHIP_* environment
variables. Storage credentials are supplied per request, never from
configuration.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.CLILogger.Error("Failed to load configuration", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithLogger(observability.ServerLogger),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		server.WithExportOptions(handlers.ExportOptions{
			RateLimit:   cfg.Export.RateLimit,
			ListMaxKeys: cfg.Export.ListMaxKeys,
			Metrics:     export.NewMetrics(),
		}),
	)

	if err := srv.ListenAndServe(ctx); err != nil {
		observability.ServerLogger.Error("Server stopped", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Server stopped", err)
	}
	return nil
}
