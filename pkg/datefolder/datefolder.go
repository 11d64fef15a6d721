// Package datefolder turns date ranges into the partition prefixes used
// to scope listing calls.
//
// Log objects are partitioned under YYYY/MM/DD/ prefixes; one prefix
// scopes one day's objects.
package datefolder

import (
	"fmt"
	"time"
)

// Layout is the date-boundary format accepted by BuildDateFolders and
// emitted (plus trailing slash) as partition prefixes.
const Layout = "2006/01/02"

// BuildDateFolders returns the ordered sequence of partition prefixes
// from start to end inclusive, ascending one calendar day at a time.
// Month and year boundaries are crossed with real calendar arithmetic.
// start > end yields an empty sequence with no error.
func BuildDateFolders(start, end string) ([]string, error) {
	startDate, err := time.ParseInLocation(Layout, start, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: expected YYYY/MM/DD: %w", start, err)
	}
	endDate, err := time.ParseInLocation(Layout, end, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: expected YYYY/MM/DD: %w", end, err)
	}

	var folders []string
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		folders = append(folders, d.Format(Layout)+"/")
	}
	return folders, nil
}

// RecentFolders returns an n-day window of partition prefixes anchored at
// yesterday (UTC), newest first. n=1 gives the single prefix used by the
// cheap connectivity probe; larger windows feed bucket analysis.
func RecentFolders(n int) []string {
	return recentFoldersAt(n, time.Now().UTC())
}

// recentFoldersAt is the clock-injected body of RecentFolders.
func recentFoldersAt(n int, now time.Time) []string {
	if n <= 0 {
		return nil
	}
	folders := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		folders = append(folders, now.AddDate(0, 0, -i).Format(Layout)+"/")
	}
	return folders
}
