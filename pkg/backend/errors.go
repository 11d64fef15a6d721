package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend operations.
var (
	// ErrBucketNotFound indicates the bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrObjectNotFound indicates the requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrRequestFailed indicates a non-success response that maps to no
	// more specific condition.
	ErrRequestFailed = errors.New("storage request failed")
)

// CredentialReason classifies why credential material was rejected.
type CredentialReason string

const (
	// ReasonMalformed covers structurally invalid material, e.g. a private
	// key missing its PEM header/footer markers. Detected before any
	// network call.
	ReasonMalformed CredentialReason = "malformed"

	// ReasonInvalidGrant means the token endpoint rejected the assertion
	// itself (bad signature, bad identity, clock skew).
	ReasonInvalidGrant CredentialReason = "invalid_grant"

	// ReasonInvalidClient means the service identity is unknown to the
	// token endpoint.
	ReasonInvalidClient CredentialReason = "invalid_client"

	// ReasonUnauthorizedClient means the identity exists but is not
	// allowed to use this grant type or scope.
	ReasonUnauthorizedClient CredentialReason = "unauthorized_client"

	// ReasonExchangeFailed covers token-endpoint failures with no
	// recognizable structured error body.
	ReasonExchangeFailed CredentialReason = "exchange_failed"
)

// CredentialError indicates authentication material was rejected. It is
// fatal: the whole operation aborts, unlike per-object failures.
type CredentialError struct {
	Reason  CredentialReason
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential error (%s): %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("credential error (%s): %s", e.Reason, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CredentialError) Unwrap() error {
	return e.Err
}

// IsCredentialError reports whether err is (or wraps) a CredentialError.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// BackendError wraps backend-specific errors with context.
type BackendError struct {
	// Op is the operation that failed (e.g., "List", "Fetch").
	Op string

	// Backend is the backend kind (e.g., "s3").
	Backend Kind

	// Bucket is the bucket name, if applicable.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %s/%s: %v", e.Backend, e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Backend, e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBucketNotFound returns true if the error indicates the bucket does not exist.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsObjectNotFound returns true if the error indicates an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// ClassifyStatus maps an HTTP status code from a storage API to the
// matching sentinel error. Success statuses map to nil.
func ClassifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 404:
		return ErrBucketNotFound
	case status == 403:
		return ErrAccessDenied
	default:
		return fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}
}
