package cmd

import (
	"encoding/json"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storeops/logship/internal/observability"
	"github.com/storeops/logship/pkg/export"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Probe bucket connectivity and credentials",
	Long: `Probe bucket connectivity by listing only the most recent date
partition. This validates credentials and bucket existence cheaply
without enumerating any export range.

Examples:
  logship analyze --backend s3 --bucket shop-logs --access-key-id AKIA... --region us-east-1
  logship analyze --backend gcs --bucket shop-logs --client-email svc@project.iam --private-key-file key.pem`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	registerCredentialFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cred, err := credentialFromFlags()
	if err != nil {
		observability.CLILogger.Error("Invalid credentials", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid credentials", err)
	}

	b, err := export.OpenBackend(cred, observability.CLILogger)
	if err != nil {
		observability.CLILogger.Error("Failed to open backend", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Failed to open backend", err)
	}
	defer func() { _ = b.Close() }()

	analysis, err := export.Analyze(ctx, b, observability.CLILogger)
	if err != nil {
		observability.CLILogger.Error("Bucket analysis failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Bucket analysis failed", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}
