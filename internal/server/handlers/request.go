// Package handlers implements the HTTP boundary for the export pipeline.
//
// The handlers are thin: they decode the JSON request body into a
// request-scoped credential, run the pipeline, and pipe text or the JSON
// error envelope back. All pipeline semantics live in pkg/export.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/storeops/logship/pkg/backend"
)

// credentialFields is the JSON shape of backend credentials as submitted
// by callers. Fields for the unselected kind are simply left empty.
// Decoded values are request-scoped and must never be logged or stored.
type credentialFields struct {
	Backend string `json:"backend"`
	Bucket  string `json:"bucket"`

	// Bearer-assertion fields.
	ClientEmail string `json:"clientEmail"`
	PrivateKey  string `json:"privateKey"`

	// Request-signing fields.
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
}

// toCredential converts the wire shape into the backend credential.
func (c *credentialFields) toCredential() backend.Credential {
	return backend.Credential{
		Kind:            backend.Kind(c.Backend),
		Bucket:          c.Bucket,
		ClientEmail:     c.ClientEmail,
		PrivateKey:      c.PrivateKey,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
	}
}

// decodeJSON decodes a request body, rejecting unknown shapes early.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
