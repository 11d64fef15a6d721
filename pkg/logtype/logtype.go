// Package logtype defines the fixed log-file categories and their CSV
// column schemas.
//
// Platform log objects follow the naming convention
//
//	{opaqueId}.{logType}.{uuidOrTimestamp}[.partN].json.gz
//
// where the log type is always the second dot-separated segment. The
// classifier depends on that convention exactly.
package logtype

import (
	"path"
	"strings"
)

// LogType tags one of the fixed log-file categories.
type LogType string

const (
	// APIAccess covers platform API access logs.
	APIAccess LogType = "api_access"

	// StoreAccess covers storefront access logs.
	StoreAccess LogType = "store_access"

	// Audit covers platform audit logs.
	Audit LogType = "audit"

	// All is the wildcard request value matching every classifiable type.
	All LogType = "all"
)

// Known lists the real log types in canonical order. The first entry
// supplies the CSV header schema when "all" is requested.
var Known = []LogType{APIAccess, StoreAccess, Audit}

// Valid reports whether t is one of the known concrete types.
func Valid(t LogType) bool {
	switch t {
	case APIAccess, StoreAccess, Audit:
		return true
	}
	return false
}

// Classify derives the log type embedded in an object's name. The base
// filename is split on "."; with at least 3 segments the second segment
// is the candidate type. Returns "" (and false) when the name carries no
// known type.
func Classify(objectName string) (LogType, bool) {
	base := path.Base(objectName)
	segments := strings.Split(base, ".")
	if len(segments) < 3 {
		return "", false
	}
	candidate := LogType(segments[1])
	if !Valid(candidate) {
		return "", false
	}
	return candidate, true
}

// Matches reports whether an object should be kept for the requested
// type. "all" matches any classifiable object; objects with no
// classifiable type never match, even under "all".
func Matches(objectName string, requested LogType) bool {
	detected, ok := Classify(objectName)
	if !ok {
		return false
	}
	return requested == All || detected == requested
}

// Effective resolves the type whose schema supplies the CSV header row.
// Under "all" this is the first known type; individual files are still
// projected with their own detected type's schema.
func Effective(requested LogType) LogType {
	if requested == All {
		return Known[0]
	}
	return requested
}
