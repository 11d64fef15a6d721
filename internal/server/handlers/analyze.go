package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/storeops/logship/internal/errors"
	"github.com/storeops/logship/pkg/export"
)

// analyzeResponse is the JSON result of a connectivity probe.
type analyzeResponse struct {
	Success         bool                   `json:"success"`
	Connected       bool                   `json:"connected"`
	FolderCount     int                    `json:"folderCount"`
	Recommendations export.Recommendations `json:"recommendations"`
	Message         string                 `json:"message"`
}

// Analyze handles POST /v1/analyze: a cheap credential and bucket
// existence check against the most recent date partition only.
func Analyze(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialFields
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

		analysis, err := export.Analyze(r.Context(), b, logger)
		if err != nil {
			apperrors.RespondWithError(w, r, err)
			return
		}

		message := "bucket is reachable"
		if analysis.FolderCount == 0 {
			message = "bucket is reachable but no recent log files were found"
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(analyzeResponse{
			Success:         true,
			Connected:       analysis.Connected,
			FolderCount:     analysis.FolderCount,
			Recommendations: analysis.Recommendations,
			Message:         message,
		})
	}
}
