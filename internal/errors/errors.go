// Package errors maps pipeline failures to the HTTP error envelope.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storeops/logship/pkg/backend"
)

// HTTPErrorResponse is the JSON error envelope for all non-2xx responses.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// HTTPError carries a stable machine code and a human message.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable error codes.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeCredentialError  = "CREDENTIAL_ERROR"
	CodeBucketNotFound   = "BUCKET_NOT_FOUND"
	CodeAccessDenied     = "ACCESS_DENIED"
	CodeCancelled        = "CANCELLED"
	CodeInternal         = "INTERNAL"
)

// WriteError writes the envelope with an explicit status and code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPError{Code: code, Message: message},
	})
}

// RespondWithError classifies a pipeline error and writes the matching
// envelope.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Classify(err)
	WriteError(w, status, code, err.Error())
}

// Classify maps a pipeline error to (status, code).
func Classify(err error) (int, string) {
	switch {
	case backend.IsCredentialError(err):
		return http.StatusUnauthorized, CodeCredentialError
	case backend.IsBucketNotFound(err):
		return http.StatusNotFound, CodeBucketNotFound
	case backend.IsAccessDenied(err):
		return http.StatusForbidden, CodeAccessDenied
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeCancelled
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// NotFoundHandler serves the envelope for unknown routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, CodeNotFound, "resource not found")
}

// MethodNotAllowedHandler serves the envelope for unsupported methods.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
}
