package export

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the export pipeline.
// NOTE: No bucket labels are used to avoid high cardinality issues.
type Metrics struct {
	// ObjectsListed tracks objects seen from listing calls.
	ObjectsListed prometheus.Counter

	// ObjectsFetched tracks objects retrieved with status (ok/failed).
	ObjectsFetched *prometheus.CounterVec

	// RowsEmitted tracks CSV data rows produced.
	RowsEmitted prometheus.Counter

	// ParseErrors tracks malformed NDJSON lines skipped.
	ParseErrors prometheus.Counter

	// ListFailures tracks per-prefix listing failures that were skipped.
	ListFailures prometheus.Counter
}

// NewMetrics creates and registers metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics with a custom registry. Useful
// for tests to avoid conflicts with the default registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ObjectsListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "logship_export_objects_listed_total",
			Help: "Total number of objects returned by listing calls",
		}),
		ObjectsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logship_export_objects_fetched_total",
			Help: "Total number of object fetch attempts",
		}, []string{"status"}), // status: ok, failed
		RowsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "logship_export_rows_emitted_total",
			Help: "Total number of CSV data rows emitted",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "logship_export_parse_errors_total",
			Help: "Total number of malformed log lines skipped",
		}),
		ListFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "logship_export_list_failures_total",
			Help: "Total number of prefix listing failures skipped",
		}),
	}
}
