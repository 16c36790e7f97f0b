package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
)

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

func TestHealthReportsEachCheck(t *testing.T) {
	handler := NewMetricsHandler(nil, map[string]Pinger{"database": pingerStub{}})
	c, w := newTestContext(http.MethodGet, "/health", nil)
	handler.Health(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"status": "ok", "database": "ok"}, body)
}

func TestHealthDegradedWhenAStoreIsDown(t *testing.T) {
	handler := NewMetricsHandler(nil, map[string]Pinger{
		"database": pingerStub{},
		"redis":    pingerStub{err: errors.New("connection refused")},
	})
	c, w := newTestContext(http.MethodGet, "/health", nil)
	handler.Health(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["redis"])
}

func TestSummaryReportsCounters(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/cases", http.StatusOK, 10*time.Millisecond)
	metrics.RecordCacheLookup(true)
	metrics.RecordCacheLookup(false)

	handler := NewMetricsHandler(metrics, nil)
	c, w := newTestContext(http.MethodGet, "/metrics/summary", nil)
	handler.Summary(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data service.MetricsSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Data.RequestsTotal)
	assert.InDelta(t, 0.5, body.Data.CacheHitRatio, 0.001)
}

func TestPrometheusWithoutMetrics(t *testing.T) {
	handler := NewMetricsHandler(nil, nil)
	c, w := newTestContext(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
