package opshttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vigil/internal/benchmark"
	"vigil/internal/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHarness struct {
	health   health.SystemHealth
	history  []benchmark.Result
	runErr   error
	requests int
	errored  int
}

func (f *fakeHarness) GetSystemHealth() health.SystemHealth { return f.health }

func (f *fakeHarness) GetBenchmarkHistory(limit int) []benchmark.Result {
	if limit <= 0 || limit > len(f.history) {
		return f.history
	}
	return f.history[len(f.history)-limit:]
}

func (f *fakeHarness) GetLatestBenchmark() (benchmark.Result, bool) {
	if len(f.history) == 0 {
		return benchmark.Result{}, false
	}
	return f.history[len(f.history)-1], true
}

func (f *fakeHarness) GetSystemStats() map[string]any {
	return map[string]any{"overall": f.health.Overall}
}

func (f *fakeHarness) RunManualBenchmark(ctx context.Context) (benchmark.Result, error) {
	if f.runErr != nil {
		return benchmark.Result{}, f.runErr
	}
	res := benchmark.Result{RunID: "manual-1"}
	f.history = append(f.history, res)
	return res, nil
}

func (f *fakeHarness) RecordRequest(responseTime time.Duration, hasError bool) {
	f.requests++
	if hasError {
		f.errored++
	}
}

func newTestServer(t *testing.T, h *fakeHarness) *Server {
	t.Helper()
	s, err := NewServer(ServerConfig{Addr: ":0", Harness: h, RateLimitPerMin: 600000})
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func TestServerRequiresHarness(t *testing.T) {
	_, err := NewServer(ServerConfig{Addr: ":0"})
	assert.Error(t, err)
}

func TestHealthzEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeHarness{})
	w := doRequest(s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSystemHealthEndpoint(t *testing.T) {
	h := &fakeHarness{health: health.SystemHealth{
		Overall: health.StatusCritical,
		Components: map[string]health.ComponentStatus{
			health.ComponentCalibration: health.StatusCritical,
		},
	}}
	s := newTestServer(t, h)

	w := doRequest(s, http.MethodGet, "/api/system/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var got health.SystemHealth
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, health.StatusCritical, got.Overall)
	assert.Equal(t, health.StatusCritical, got.Components[health.ComponentCalibration])
}

func TestBenchmarkHistoryEndpoint(t *testing.T) {
	h := &fakeHarness{history: []benchmark.Result{{RunID: "a"}, {RunID: "b"}, {RunID: "c"}}}
	s := newTestServer(t, h)

	w := doRequest(s, http.MethodGet, "/api/benchmark/history?limit=2")
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count   int                `json:"count"`
		Results []benchmark.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "b", body.Results[0].RunID)

	w = doRequest(s, http.MethodGet, "/api/benchmark/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodGet, "/api/benchmark/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBenchmarkLatestEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeHarness{})
	w := doRequest(s, http.MethodGet, "/api/benchmark/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)

	s = newTestServer(t, &fakeHarness{history: []benchmark.Result{{RunID: "z"}}})
	w = doRequest(s, http.MethodGet, "/api/benchmark/latest")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "z")
}

func TestBenchmarkRunEndpoint(t *testing.T) {
	h := &fakeHarness{}
	s := newTestServer(t, h)

	w := doRequest(s, http.MethodPost, "/api/benchmark/run")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "manual-1")

	h.runErr = benchmark.ErrRunInFlight
	w = doRequest(s, http.MethodPost, "/api/benchmark/run")
	assert.Equal(t, http.StatusConflict, w.Code)

	h.runErr = benchmark.ErrStopped
	w = doRequest(s, http.MethodPost, "/api/benchmark/run")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h.runErr = fmt.Errorf("行情源故障")
	w = doRequest(s, http.MethodPost, "/api/benchmark/run")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBenchmarkRunRateLimited(t *testing.T) {
	h := &fakeHarness{}
	s, err := NewServer(ServerConfig{Addr: ":0", Harness: h, RateLimitPerMin: 6})
	require.NoError(t, err)

	// 突发额度为 1，第二次立即触发限流
	w := doRequest(s, http.MethodPost, "/api/benchmark/run")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(s, http.MethodPost, "/api/benchmark/run")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestObserverCounts(t *testing.T) {
	h := &fakeHarness{runErr: fmt.Errorf("boom")}
	s := newTestServer(t, h)

	doRequest(s, http.MethodGet, "/healthz")
	doRequest(s, http.MethodPost, "/api/benchmark/run") // 500

	assert.Equal(t, 2, h.requests)
	assert.Equal(t, 1, h.errored)
}

func TestBenchmarkChartEndpoint(t *testing.T) {
	h := &fakeHarness{history: []benchmark.Result{
		{RunID: "a", SharpeRatio: 1.2, WinRate: 0.6, Timestamp: time.Now()},
	}}
	s := newTestServer(t, h)

	w := doRequest(s, http.MethodGet, "/api/benchmark/chart")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "echarts")

	w = doRequest(newTestServer(t, &fakeHarness{}), http.MethodGet, "/api/benchmark/chart")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
