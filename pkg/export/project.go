package export

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/storeops/logship/pkg/logtype"
)

// ProjectionResult carries the CSV rows projected from one object's text
// plus the count of malformed lines that were skipped.
type ProjectionResult struct {
	Rows        []string
	ParseErrors int
}

// ProjectRecords splits object text into newline-delimited JSON records,
// parses each independently, and projects the schema's dotted paths into
// one CSV row per record, in file order. A malformed line is skipped and
// counted; it never aborts the file.
func ProjectRecords(text string, schema []string) ProjectionResult {
	var result ProjectionResult

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		// Cheap structural filter before attempting a full parse.
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			result.ParseErrors++
			continue
		}

		cells := make([]string, len(schema))
		for i, path := range schema {
			cells[i] = cellValue(path, resolvePath(record, path))
		}
		result.Rows = append(result.Rows, strings.Join(cells, ","))
	}

	return result
}

// resolvePath walks nested fields along a dotted path. A missing or
// non-object segment resolves to nil, never an error.
func resolvePath(record map[string]any, dotted string) any {
	var cur any = record
	for _, segment := range strings.Split(dotted, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return cur
}

// cellValue converts a resolved value into its CSV cell form, applying
// the per-path cleanups for the known audit fields.
func cellValue(path string, v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(val)
		if path == logtype.AuditLogDatePath {
			if converted, ok := epochToISO(s); ok {
				return converted
			}
		}
		if path == logtype.AuditSysLogMessagePath {
			s = cleanSysLogMessage(s)
		}
		s = collapseLineBreaks(s)
		return csvQuote(s)
	case float64:
		if path == logtype.AuditLogDatePath {
			return time.Unix(int64(val), 0).UTC().Format(time.RFC3339)
		}
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		// Objects and arrays are JSON-stringified; the quoting rule below
		// wraps them and doubles the embedded quotes.
		encoded, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return csvQuote(string(encoded))
	}
}

// formatNumber renders a JSON number the way encoding/json does: plain
// decimal notation for exponents in [-6, 21), scientific outside it.
// Epoch timestamps and large numeric IDs keep their literal form.
func formatNumber(val float64) string {
	abs := math.Abs(val)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(val, format, -1, 64)
	if format == 'e' {
		// 1e-07 becomes 1e-7, matching encoding/json.
		if n := len(s); n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	return s
}

// collapseLineBreaks replaces internal CR/LF with spaces so a record
// never spans CSV rows.
func collapseLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// csvQuote wraps a value in double quotes with embedded quotes doubled,
// if and only if it contains a comma or a double quote.
func csvQuote(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// epochToISO converts a raw epoch-seconds numeric string to an ISO-8601
// timestamp. Non-numeric strings are left for the normal string path.
func epochToISO(s string) (string, bool) {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", false
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339), true
}

// sysLogUnescaper normalizes the escape sequences the audit pipeline
// leaves inside syslog messages.
var sysLogUnescaper = strings.NewReplacer(
	`\n`, " ",
	`\t`, " ",
	`\"`, `"`,
	`\\`, `\`,
)

// cleanSysLogMessage unescapes the message and, when it carries an
// embedded JSON object, reparses and re-serializes that object compactly.
// If the embedded payload will not reparse, the cleaned string is kept.
func cleanSysLogMessage(s string) string {
	cleaned := sysLogUnescaper.Replace(s)

	open := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if open < 0 || end <= open {
		return cleaned
	}

	var embedded map[string]any
	if err := json.Unmarshal([]byte(cleaned[open:end+1]), &embedded); err != nil {
		return cleaned
	}
	compact, err := json.Marshal(embedded)
	if err != nil {
		return cleaned
	}
	return cleaned[:open] + string(compact) + cleaned[end+1:]
}
