// Package cmd implements the logship command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/logship/internal/observability"
)

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "logship",
	Short: "Export e-commerce platform logs from object storage as CSV",
	Long: `logship pulls platform log files (api_access, store_access, audit)
stored as date-partitioned newline-delimited JSON in a cloud object
store and exports them as flattened CSV.

Credentials are supplied per invocation and never persisted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.Init(logLevel, logJSON)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs")
}

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	defer observability.Sync()
	return rootCmd.ExecuteContext(ctx)
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
