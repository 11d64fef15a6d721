// Package export implements the log retrieval and JSON-to-CSV
// transformation pipeline.
//
// The pipeline walks the date-partition prefixes for the requested range
// in chronological order, lists each prefix, filters objects by log-type
// token, fetches and decodes each kept object, projects its records into
// CSV rows, and accumulates them under the global row budget. Failures
// are tolerated per prefix and per object; only credential problems and
// cancellation abort the whole export.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storeops/logship/pkg/backend"
	"github.com/storeops/logship/pkg/datefolder"
	"github.com/storeops/logship/pkg/logtype"
)

// Request describes one export.
type Request struct {
	// LogType is a concrete type or logtype.All.
	LogType logtype.LogType

	// StartDate and EndDate bound the partition range, "YYYY/MM/DD",
	// inclusive.
	StartDate string
	EndDate   string

	// Limit caps the total data rows. Values at or above
	// UnlimitedThreshold disable the cap, as does Unlimited.
	Limit     int
	Unlimited bool
}

// Options configures an Exporter.
type Options struct {
	// Logger receives progress and skip detail. Nil uses zap.NewNop().
	Logger *zap.Logger

	// RateLimit is the maximum storage requests per second.
	// Zero means unlimited.
	RateLimit float64

	// ListMaxKeys caps each listing call. Zero uses the backend default.
	ListMaxKeys int

	// Metrics receives pipeline counters. Nil disables metrics.
	Metrics *Metrics
}

// Exporter runs exports against one storage backend.
//
// Exporter is request-scoped: it owns its accumulators and credentials
// exclusively and is safe for single use only.
type Exporter struct {
	backend backend.StorageBackend
	logger  *zap.Logger
	limiter *rate.Limiter
	metrics *Metrics
	maxKeys int
	jobID   string
}

// NewExporter creates an exporter over the given backend.
func NewExporter(b backend.StorageBackend, opts Options) *Exporter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Exporter{
		backend: b,
		logger:  logger,
		metrics: opts.Metrics,
		maxKeys: opts.ListMaxKeys,
		jobID:   uuid.New().String(),
	}
	if opts.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return e
}

// Export runs the pipeline and returns the assembled CSV text.
//
// Prefixes are processed strictly in chronological order and objects in
// listing order, so row order is deterministic. Cancellation at any
// suspension point abandons the whole operation with no partial CSV.
func (e *Exporter) Export(ctx context.Context, req Request) (string, error) {
	if req.LogType != logtype.All && !logtype.Valid(req.LogType) {
		return "", fmt.Errorf("unknown log type %q", req.LogType)
	}
	unlimited := req.Unlimited || req.Limit >= UnlimitedThreshold
	if !unlimited && req.Limit <= 0 {
		return "", fmt.Errorf("limit must be positive")
	}

	if err := e.backend.Authenticate(ctx); err != nil {
		return "", err
	}

	folders, err := datefolder.BuildDateFolders(req.StartDate, req.EndDate)
	if err != nil {
		return "", err
	}

	asm := newAssembler(logtype.Schema(logtype.Effective(req.LogType)), req.Limit, unlimited)

	log := e.logger.With(zap.String("job_id", e.jobID), zap.String("log_type", string(req.LogType)))
	log.Info("starting export",
		zap.String("start", req.StartDate),
		zap.String("end", req.EndDate),
		zap.Int("folders", len(folders)),
		zap.Bool("unlimited", unlimited))

	for _, folder := range folders {
		if asm.exhausted() {
			break
		}
		if err := e.wait(ctx); err != nil {
			return "", err
		}

		objects, err := e.backend.List(ctx, folder, e.maxKeys)
		if err != nil {
			if isCancellation(err) {
				return "", err
			}
			// A failed prefix is skipped, not fatal.
			e.countListFailure()
			log.Warn("listing failed, skipping prefix", zap.String("prefix", folder), zap.Error(err))
			continue
		}
		e.countListed(len(objects))

		for _, obj := range objects {
			if asm.exhausted() {
				break
			}
			if !logtype.Matches(obj.Key, req.LogType) {
				continue
			}
			if err := e.processObject(ctx, obj, asm, log); err != nil {
				return "", err
			}
		}
	}

	log.Info("export complete", zap.Int("rows", asm.count()))
	if asm.count() == 0 {
		log.Warn("no matching log records found for the requested range")
	}
	return asm.result(), nil
}

// processObject fetches, decodes, and projects one object into the
// assembler. Fetch failures are skipped; only cancellation propagates.
func (e *Exporter) processObject(ctx context.Context, obj backend.ObjectRecord, asm *assembler, log *zap.Logger) error {
	if err := e.wait(ctx); err != nil {
		return err
	}

	body, contentType, err := e.backend.Fetch(ctx, obj.Key)
	if err != nil {
		if isCancellation(err) {
			return err
		}
		e.countFetch("failed")
		log.Warn("fetch failed, skipping object", zap.String("key", obj.Key), zap.Error(err))
		return nil
	}
	e.countFetch("ok")

	text := decodeObjectText(obj.Key, body, contentType)

	// Each file is projected with its own detected type's schema, even
	// when the request was "all" and the header came from another type.
	detected, _ := logtype.Classify(obj.Key)
	res := ProjectRecords(text, logtype.Schema(detected))

	added, _ := asm.add(res.Rows)
	e.countRows(added, res.ParseErrors)
	log.Debug("processed object",
		zap.String("key", obj.Key),
		zap.Int64("size", obj.Size),
		zap.Int("rows", added),
		zap.Int("parse_errors", res.ParseErrors))
	return nil
}

// wait applies the optional rate limit and surfaces cancellation before
// the next network call.
func (e *Exporter) wait(ctx context.Context) error {
	if e.limiter != nil {
		return e.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// isCancellation distinguishes caller cancellation from ordinary
// per-object failures.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (e *Exporter) countListed(n int) {
	if e.metrics != nil {
		e.metrics.ObjectsListed.Add(float64(n))
	}
}

func (e *Exporter) countListFailure() {
	if e.metrics != nil {
		e.metrics.ListFailures.Inc()
	}
}

func (e *Exporter) countFetch(status string) {
	if e.metrics != nil {
		e.metrics.ObjectsFetched.WithLabelValues(status).Inc()
	}
}

func (e *Exporter) countRows(rows, parseErrors int) {
	if e.metrics != nil {
		e.metrics.RowsEmitted.Add(float64(rows))
		e.metrics.ParseErrors.Add(float64(parseErrors))
	}
}
