package handlers

import (
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/storeops/logship/internal/errors"
	"github.com/storeops/logship/pkg/export"
	"github.com/storeops/logship/pkg/logtype"
)

// exportRequest is the JSON body for POST /v1/export.
type exportRequest struct {
	credentialFields

	LogType   string `json:"logType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Limit     int    `json:"limit"`
}

// ExportOptions tunes pipeline construction per server configuration.
type ExportOptions struct {
	RateLimit   float64
	ListMaxKeys int
	Metrics     *export.Metrics
}

// Export handles POST /v1/export. Success is raw text/csv, always 200
// even when the CSV is header-only; fatal failures return the JSON error
// envelope.
func Export(logger *zap.Logger, opts ExportOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportRequest
		if err := decodeJSON(r, &req); err != nil {
			apperrors.WriteError(w, http.StatusBadRequest, apperrors.CodeBadRequest, "invalid request body")
			return
		}

		b, err := export.OpenBackend(req.toCredential(), logger)
		if err != nil {
			apperrors.RespondWithError(w, r, err)
			return
		}
		defer func() { _ = b.Close() }()

		exporter := export.NewExporter(b, export.Options{
			Logger:      logger,
			RateLimit:   opts.RateLimit,
			ListMaxKeys: opts.ListMaxKeys,
			Metrics:     opts.Metrics,
		})

		csv, err := exporter.Export(r.Context(), export.Request{
			LogType:   logtype.LogType(req.LogType),
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Limit:     req.Limit,
		})
		if err != nil {
			apperrors.RespondWithError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="logs.csv"`)
		_, _ = w.Write([]byte(csv))
	}
}
