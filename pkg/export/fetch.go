package export

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
)

// compressedSuffix marks objects that are normally gzip-compressed.
const compressedSuffix = ".gz"

// decodeObjectText turns a fetched object body into log text.
//
// The name extension is a hint, not a guarantee: some objects arrive with
// a .gz suffix but an already-decompressed body. The declared content
// type is checked first, and a failed decompression falls back to the
// buffered bytes as plain text rather than failing the object.
func decodeObjectText(key string, body []byte, contentType string) string {
	if !strings.HasSuffix(key, compressedSuffix) {
		return string(body)
	}

	// Suffix says compressed but the response claims text. Believe the
	// response.
	if claimsPlainText(contentType) {
		return string(body)
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	defer func() { _ = zr.Close() }()

	out, err := io.ReadAll(zr)
	if err != nil {
		return string(body)
	}
	return string(out)
}

// claimsPlainText reports whether the declared content type indicates an
// uncompressed text or JSON payload.
func claimsPlainText(contentType string) bool {
	return strings.Contains(contentType, "text/plain") ||
		strings.Contains(contentType, "application/json")
}
