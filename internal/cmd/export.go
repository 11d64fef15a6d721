package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storeops/logship/internal/observability"
	"github.com/storeops/logship/pkg/export"
	"github.com/storeops/logship/pkg/logtype"
)

var (
	exportLogType   string
	exportStart     string
	exportEnd       string
	exportLimit     int
	exportUnlimited bool
	exportOutput    string
	exportRateLimit float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export platform logs as CSV",
	Long: `Export platform log files for a date range as flattened CSV.

Log types: api_access, store_access, audit, or all.

Examples:
  logship export --backend s3 --bucket shop-logs --log-type audit \
    --start 2024/01/01 --end 2024/01/31 --limit 5000 --output audit.csv

  logship export --backend gcs --bucket shop-logs --log-type all \
    --client-email svc@project.iam --private-key-file key.pem \
    --start 2024/01/01 --end 2024/01/07 --unlimited`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	registerCredentialFlags(exportCmd)

	exportCmd.Flags().StringVar(&exportLogType, "log-type", "all", "Log type (api_access|store_access|audit|all)")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "Start date, YYYY/MM/DD (required)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "End date, YYYY/MM/DD (required)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "Maximum data rows")
	exportCmd.Flags().BoolVar(&exportUnlimited, "unlimited", false, "Disable the row limit")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (default stdout)")
	exportCmd.Flags().Float64Var(&exportRateLimit, "rate-limit", 0, "Max storage requests per second (0 = unlimited)")

	_ = exportCmd.MarkFlagRequired("start")
	_ = exportCmd.MarkFlagRequired("end")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	exporter := export.NewExporter(b, export.Options{
		Logger:    observability.CLILogger,
		RateLimit: exportRateLimit,
	})

	csv, err := exporter.Export(ctx, export.Request{
		LogType:   logtype.LogType(exportLogType),
		StartDate: exportStart,
		EndDate:   exportEnd,
		Limit:     exportLimit,
		Unlimited: exportUnlimited,
	})
	if err != nil {
		observability.CLILogger.Error("Export failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Export failed", err)
	}

	if exportOutput == "" || exportOutput == "stdout" {
		fmt.Println(csv)
		return nil
	}

	if err := os.WriteFile(exportOutput, []byte(csv+"\n"), 0o644); err != nil {
		observability.CLILogger.Error("Failed to write output file", zap.String("path", exportOutput), zap.Error(err))
		return exitError(foundry.ExitFileNotFound, "Failed to write output file", err)
	}
	observability.CLILogger.Info("Export written", zap.String("path", exportOutput))
	return nil
}
