package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// MetricsSnapshot is a point-in-time summary of the process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	EventsAppended           uint64    `json:"eventsAppended"`
	StatusTransitions        uint64    `json:"statusTransitions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and
// the case workflow counters.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	eventsAppended    *prometheus.CounterVec
	historyRows       *prometheus.CounterVec
	reminderMails     *prometheus.CounterVec
	exportFiles       *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	eventCount           uint64
	transitionCount      uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogue_cache_lookups_total",
		Help: "Catalogue cache lookups by outcome",
	}, []string{"outcome"})

	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "case_status_transitions_total",
		Help: "Case status changes by source and target status",
	}, []string{"from", "to"})

	eventsAppended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_events_total",
		Help: "Committed journal events by content type and event type",
	}, []string{"content_type", "type"})

	historyRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "history_backfill_rows_total",
		Help: "Rows written or skipped by the notes history backfill",
	}, []string{"kind"})

	reminderMails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_emails_total",
		Help: "Reminder emails by outcome",
	}, []string{"outcome"})

	exportFiles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_files_rendered_total",
		Help: "Rendered export batch files by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, statusTransitions, eventsAppended,
		historyRows, reminderMails, exportFiles, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLookups:      cacheLookups,
		statusTransitions: statusTransitions,
		eventsAppended:    eventsAppended,
		historyRows:       historyRows,
		reminderMails:     reminderMails,
		exportFiles:       exportFiles,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup counts a catalogue cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// RecordStatusTransition counts a committed status change.
func (m *MetricsService) RecordStatusTransition(from, to models.CaseStatusCode) {
	if m == nil || from == to {
		return
	}
	m.statusTransitions.WithLabelValues(string(from), string(to)).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordEvent counts a committed journal event.
func (m *MetricsService) RecordEvent(contentType models.ContentType, eventType models.EventType) {
	if m == nil {
		return
	}
	m.eventsAppended.WithLabelValues(string(contentType), string(eventType)).Inc()
	atomic.AddUint64(&m.eventCount, 1)
}

// RecordHistoryRows counts backfilled or skipped history rows.
func (m *MetricsService) RecordHistoryRows(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.historyRows.WithLabelValues(kind).Add(float64(n))
}

// RecordReminderMail counts one reminder email outcome.
func (m *MetricsService) RecordReminderMail(ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.reminderMails.WithLabelValues(outcome).Inc()
}

// RecordExportFile counts a rendered export file.
func (m *MetricsService) RecordExportFile(format string) {
	if m == nil {
		return
	}
	m.exportFiles.WithLabelValues(format).Inc()
}

// Snapshot returns aggregated counters for the system endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		EventsAppended:           atomic.LoadUint64(&m.eventCount),
		StatusTransitions:        atomic.LoadUint64(&m.transitionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
