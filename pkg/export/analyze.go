package export

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/storeops/logship/pkg/backend"
	"github.com/storeops/logship/pkg/datefolder"
)

// analyzeMaxKeys caps the single probe listing. The probe is an
// existence and permission check, not an inventory.
const analyzeMaxKeys = 100

// suggestedLimit is the row limit recommended to callers after a
// successful probe.
const suggestedLimit = 1000

// recommendationWindowDays sizes the date-range recommendation.
const recommendationWindowDays = 30

// Recommendations carries the export hints attached to an analysis.
type Recommendations struct {
	AvailableDateRange string `json:"availableDateRange"`
	SuggestedLimit     int    `json:"suggestedLimit"`
	TotalLogFiles      int    `json:"totalLogFiles"`
}

// BucketAnalysis is the lightweight probe result.
type BucketAnalysis struct {
	Connected       bool            `json:"connected"`
	FolderCount     int             `json:"folderCount"`
	RecentDates     []string        `json:"recentDates"`
	Recommendations Recommendations `json:"recommendations"`
}

// Analyze validates credentials and bucket reachability by probing only
// the most recent date partition. Unlike a full export, a listing
// failure here is fatal and classified (bucket-not-found, access-denied,
// or generic).
func Analyze(ctx context.Context, b backend.StorageBackend, logger *zap.Logger) (*BucketAnalysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := b.Authenticate(ctx); err != nil {
		return nil, err
	}

	probe := datefolder.RecentFolders(1)[0]
	objects, err := b.List(ctx, probe, analyzeMaxKeys)
	if err != nil {
		return nil, err
	}

	analysis := &BucketAnalysis{
		Connected:   true,
		RecentDates: []string{},
		Recommendations: Recommendations{
			AvailableDateRange: recommendedRange(),
			SuggestedLimit:     suggestedLimit,
			TotalLogFiles:      len(objects),
		},
	}
	if len(objects) > 0 {
		analysis.FolderCount = 1
		analysis.RecentDates = []string{strings.TrimSuffix(probe, "/")}
	}

	logger.Info("bucket analysis complete",
		zap.String("probe_prefix", probe),
		zap.Int("objects", len(objects)))
	return analysis, nil
}

// recommendedRange renders the N-day window callers can reasonably
// export, oldest date first.
func recommendedRange() string {
	window := datefolder.RecentFolders(recommendationWindowDays)
	if len(window) == 0 {
		return ""
	}
	oldest := strings.TrimSuffix(window[len(window)-1], "/")
	newest := strings.TrimSuffix(window[0], "/")
	return fmt.Sprintf("%s - %s", oldest, newest)
}
