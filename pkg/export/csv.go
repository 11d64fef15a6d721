package export

import (
	"strings"
)

// UnlimitedThreshold is the sentinel limit at or above which truncation
// is disabled entirely.
const UnlimitedThreshold = 999999

// assembler accumulates the header and data rows across all processed
// objects and enforces the global row budget.
type assembler struct {
	header    string
	rows      []string
	limit     int
	unlimited bool
}

// newAssembler builds an assembler whose header is the schema's column
// paths in order.
func newAssembler(schema []string, limit int, unlimited bool) *assembler {
	return &assembler{
		header:    strings.Join(schema, ","),
		limit:     limit,
		unlimited: unlimited,
	}
}

// add appends rows, truncating to the remaining budget when not in
// unlimited mode. Returns how many rows were kept and whether the budget
// is now exhausted.
func (a *assembler) add(rows []string) (added int, full bool) {
	if !a.unlimited {
		remaining := a.limit - len(a.rows)
		if remaining <= 0 {
			return 0, true
		}
		if len(rows) > remaining {
			rows = rows[:remaining]
		}
	}
	a.rows = append(a.rows, rows...)
	return len(rows), a.exhausted()
}

// exhausted reports whether the budget is used up.
func (a *assembler) exhausted() bool {
	return !a.unlimited && len(a.rows) >= a.limit
}

// count returns the number of accumulated data rows.
func (a *assembler) count() int {
	return len(a.rows)
}

// result joins the header and all rows. With zero data rows the output is
// header-only, which callers treat as a soft no-data condition rather
// than an error.
func (a *assembler) result() string {
	if len(a.rows) == 0 {
		return a.header
	}
	return a.header + "\n" + strings.Join(a.rows, "\n")
}
