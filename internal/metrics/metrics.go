// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics. A nil *Registry is valid and
// records nothing, which keeps tests and tools free of metric plumbing.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	EntriesAdded  *prometheus.CounterVec
	EntryRejected *prometheus.CounterVec

	Uploads      *prometheus.CounterVec
	UploadRows   prometheus.Histogram
	Reports      prometheus.Counter
	EventsFailed *prometheus.CounterVec

	RateLimited prometheus.Counter
	Suspicious  prometheus.Counter
}

// NewRegistry creates the collectors on a private registry, together with
// the Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gagyebu_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gagyebu_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route"},
		),

		EntriesAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gagyebu_ledger_entries_added_total",
				Help: "Ledger entries added by kind",
			},
			[]string{"kind"},
		),

		EntryRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gagyebu_ledger_entries_rejected_total",
				Help: "Ledger entries rejected by reason",
			},
			[]string{"reason"},
		),

		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gagyebu_analyzer_uploads_total",
				Help: "Spreadsheet loads by source and result",
			},
			[]string{"source", "result"},
		),

		UploadRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gagyebu_analyzer_upload_rows",
				Help:    "Usable rows per loaded spreadsheet",
				Buckets: prometheus.ExponentialBuckets(10, 4, 7),
			},
		),

		Reports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gagyebu_analyzer_reports_built_total",
				Help: "Period summary texts generated",
			},
		),

		EventsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gagyebu_events_publish_failures_total",
				Help: "Domain events that could not be published",
			},
			[]string{"event"},
		),

		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gagyebu_http_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),

		Suspicious: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gagyebu_http_suspicious_requests_total",
				Help: "Requests matching a known probing or attack pattern",
			},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.HTTPRequests,
		r.HTTPDuration,
		r.EntriesAdded,
		r.EntryRejected,
		r.Uploads,
		r.UploadRows,
		r.Reports,
		r.EventsFailed,
		r.RateLimited,
		r.Suspicious,
	)
	return r
}

// RegisterGaugeFunc exports a value computed at scrape time, such as the
// number of live sessions.
func (r *Registry) RegisterGaugeFunc(name, help string, fn func() float64) {
	if r == nil {
		return
	}
	r.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (r *Registry) EntryAdded(kind string) {
	if r == nil {
		return
	}
	r.EntriesAdded.WithLabelValues(kind).Inc()
}

func (r *Registry) EntryRejectedFor(reason string) {
	if r == nil {
		return
	}
	r.EntryRejected.WithLabelValues(reason).Inc()
}

// UploadLoaded records a spreadsheet load. rows is ignored on failure.
func (r *Registry) UploadLoaded(source, result string, rows int) {
	if r == nil {
		return
	}
	r.Uploads.WithLabelValues(source, result).Inc()
	if result == "ok" {
		r.UploadRows.Observe(float64(rows))
	}
}

func (r *Registry) ReportBuilt() {
	if r == nil {
		return
	}
	r.Reports.Inc()
}

func (r *Registry) EventFailed(event string) {
	if r == nil {
		return
	}
	r.EventsFailed.WithLabelValues(event).Inc()
}

func (r *Registry) Limited() {
	if r == nil {
		return
	}
	r.RateLimited.Inc()
}

func (r *Registry) SuspiciousRequest() {
	if r == nil {
		return
	}
	r.Suspicious.Inc()
}
