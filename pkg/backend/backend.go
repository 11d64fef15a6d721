// Package backend defines abstractions for the object-storage backends
// that hold platform log files.
//
// A backend bundles authentication, prefix listing, and object retrieval
// behind one interface so the export pipeline is written once. The two
// implementations (bearer-assertion JSON API and manually-signed
// S3-compatible API) live in subpackages.
package backend

import (
	"context"
)

// StorageBackend abstracts the object-storage operations the export
// pipeline needs.
//
// Implementations should:
//   - Sign or authorize every call from request-scoped credentials
//   - Never cache tokens or listings beyond the owning request
//   - Honor context cancellation on every network call
type StorageBackend interface {
	// Authenticate validates credentials and establishes whatever
	// authorization material later calls need. For token-based backends
	// this performs the token exchange; for signing backends it only
	// validates key material. Called once per top-level operation.
	Authenticate(ctx context.Context) error

	// List returns up to maxKeys objects under the given prefix.
	// maxKeys <= 0 uses the backend default.
	List(ctx context.Context, prefix string, maxKeys int) ([]ObjectRecord, error)

	// Fetch retrieves a single object's bytes along with the declared
	// content type from the response.
	Fetch(ctx context.Context, key string) (body []byte, contentType string, err error)

	// Close releases any resources held by the backend.
	Close() error
}

// ObjectRecord describes one listed object.
type ObjectRecord struct {
	// Key is the full object key (path) in the bucket.
	Key string

	// Size is the object size in bytes.
	Size int64
}

// Kind identifies a storage backend implementation.
type Kind string

const (
	// KindBearerAssertion is the managed-auth-flow backend: a signed
	// assertion is exchanged for a short-lived bearer token.
	KindBearerAssertion Kind = "gcs"

	// KindRequestSigning is the manually-signed backend: every request
	// carries a signature derived from long-lived key material.
	KindRequestSigning Kind = "s3"
)

// String returns the string representation of the backend kind.
func (k Kind) String() string {
	return string(k)
}

// Credential carries the request-scoped material needed to open a backend.
// It is polymorphic over Kind; only the fields for the selected kind are
// consulted. Credentials must never be persisted or logged.
type Credential struct {
	Kind   Kind
	Bucket string

	// Bearer-assertion fields.
	ClientEmail string
	PrivateKey  string // PEM-encoded private key

	// Request-signing fields.
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string // optional custom endpoint for S3-compatible stores
}

// Validate checks that the fields required by the selected kind are present.
func (c *Credential) Validate() error {
	if c.Bucket == "" {
		return &CredentialError{Reason: ReasonMalformed, Message: "bucket name is required"}
	}
	switch c.Kind {
	case KindBearerAssertion:
		if c.ClientEmail == "" || c.PrivateKey == "" {
			return &CredentialError{Reason: ReasonMalformed, Message: "client email and private key are required"}
		}
	case KindRequestSigning:
		if c.AccessKeyID == "" || c.SecretAccessKey == "" {
			return &CredentialError{Reason: ReasonMalformed, Message: "access key ID and secret access key are required"}
		}
	default:
		return &CredentialError{Reason: ReasonMalformed, Message: "unknown backend kind: " + string(c.Kind)}
	}
	return nil
}
