// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gld-feature-lab/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "gld_feature_lab"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Fetch metrics
	FetchRequests *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	TableRows         prometheus.Gauge
	TableColumns      prometheus.Gauge
	SparseColumns     prometheus.Counter
	ExportsWritten    prometheus.Counter

	// News metrics
	ArticlesFetched  prometheus.Counter
	ArticlesInserted prometheus.Counter

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics registers all metrics with reg. Passing prometheus.NewRegistry()
// keeps tests and multiple instances from colliding on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Total number of series fetches by source and status",
		}, []string{"source", "status"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Series fetch latency in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline phases by status",
		}, []string{"phase", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		TableRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "table_rows",
			Help:      "Rows in the last aligned table",
		}),
		TableColumns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "table_columns",
			Help:      "Columns in the last aligned table, date excluded",
		}),
		SparseColumns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sparse_columns_total",
			Help:      "Total number of input columns left entirely null",
		}),
		ExportsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "exports_written_total",
			Help:      "Total number of run exports written",
		}),

		ArticlesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "articles_fetched_total",
			Help:      "Total number of news articles returned by the provider",
		}),
		ArticlesInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "articles_inserted_total",
			Help:      "Total number of news articles stored for the first time",
		}),

		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordFetch records one series fetch. Fetch failures are labelled "fetch_failure",
// anything else non-nil "error".
func (m *Metrics) RecordFetch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	switch {
	case errors.Is(err, domain.ErrFetchFailure):
		status = "fetch_failure"
	case err != nil:
		status = "error"
	}
	m.FetchRequests.WithLabelValues(source, status).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordPhase records a pipeline phase outcome.
func (m *Metrics) RecordPhase(phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordTable records the shape of a finished table and its warnings.
func (m *Metrics) RecordTable(t *domain.Table, warnings int) {
	if m == nil || t == nil {
		return
	}
	m.TableRows.Set(float64(t.Len()))
	m.TableColumns.Set(float64(len(t.Columns())))
	m.SparseColumns.Add(float64(warnings))
}

// RecordSuccess marks a finished run.
func (m *Metrics) RecordSuccess(at time.Time) {
	if m == nil {
		return
	}
	m.LastSuccessfulPipeline.Set(float64(at.Unix()))
}

// RecordExport counts one written export.
func (m *Metrics) RecordExport() {
	if m == nil {
		return
	}
	m.ExportsWritten.Inc()
}

// RecordArticles records one news collection pass.
func (m *Metrics) RecordArticles(fetched, inserted int) {
	if m == nil {
		return
	}
	m.ArticlesFetched.Add(float64(fetched))
	m.ArticlesInserted.Add(float64(inserted))
}
