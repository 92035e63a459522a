package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridmerge/internal/ir"
	"github.com/roach88/gridmerge/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	p := ir.Period{Year: 2000, Month: 6}
	require.NoError(t, st.WriteRun(context.Background(), store.RunInput{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Headers:   []string{"Year", "Month", "Day", "Site"},
		Periods:   []ir.PeriodStatus{{Period: p, Source: "a.csv", Status: ir.StatusMerged, Rows: 1}},
		Diagnostics: []ir.Diagnostic{
			{Period: p, Source: "a.csv", New: []string{"Site"}},
		},
		Rows: []ir.CanonicalRow{
			{Period: p, Values: []ir.Cell{ir.Int(2000), ir.Int(6), ir.Int(1), ir.Str("LLNL, CA")}},
		},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, logger), st
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListRuns(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Runs []store.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-1", body.Runs[0].ID)
	assert.Equal(t, 1, body.Runs[0].RowCount)
}

func TestGetRun(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/runs/run-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var run store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, []string{"Year", "Month", "Day", "Site"}, run.Headers)
	require.Len(t, run.Periods, 1)
	assert.Equal(t, ir.StatusMerged, run.Periods[0].Status)
}

func TestRunDiagnostics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/runs/run-1/diagnostics")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Diagnostics []ir.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Diagnostics, 1)
	assert.Equal(t, []string{"Site"}, body.Diagnostics[0].New)
}

func TestRunTable(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/runs/run-1/table.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Year,Month,Day,Site\n2000,6,1,\"LLNL, CA\"\n", rec.Body.String())
}

func TestUnknownRunIs404(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{
		"/api/runs/missing",
		"/api/runs/missing/diagnostics",
		"/api/runs/missing/table.csv",
	} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, s, path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"error":"run not found: missing","code":"run_not_found"}`, rec.Body.String())
		})
	}
}

// failingReader fails every call with a non-store error.
type failingReader struct{}

func (failingReader) ListRuns(context.Context) ([]store.Run, error) {
	return nil, errors.New("disk on fire")
}
func (failingReader) ReadRun(context.Context, string) (*store.Run, error) {
	return nil, errors.New("disk on fire")
}
func (failingReader) ReadDiagnostics(context.Context, string) ([]ir.Diagnostic, error) {
	return nil, errors.New("disk on fire")
}
func (failingReader) ReadRows(context.Context, string) ([]ir.CanonicalRow, error) {
	return nil, errors.New("disk on fire")
}

func TestStoreFailureIs500AndLogged(t *testing.T) {
	var logs bytes.Buffer
	s := New(failingReader{}, slog.New(slog.NewTextHandler(&logs, nil)))

	rec := get(t, s, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error","code":"internal"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	assert.Contains(t, logs.String(), "disk on fire")
	assert.Contains(t, logs.String(), "status=500")
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReportsListenError(t *testing.T) {
	s, _ := newTestServer(t)

	err := s.Run(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}

func TestMetricsCountRequestsByRoute(t *testing.T) {
	s, _ := newTestServer(t)

	get(t, s, "/api/runs/run-1")
	get(t, s, "/api/runs/run-1/table.csv")
	get(t, s, "/api/runs/missing")
	get(t, s, "/nope")

	assert.Equal(t, 1.0, promtest.ToFloat64(s.metrics.requests.WithLabelValues("/api/runs/{runID}", "GET", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(s.metrics.requests.WithLabelValues("/api/runs/{runID}", "GET", "404")))
	assert.Equal(t, 1.0, promtest.ToFloat64(s.metrics.requests.WithLabelValues("/api/runs/{runID}/table.csv", "GET", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(s.metrics.requests.WithLabelValues("unmatched", "GET", "404")))

	assert.Equal(t, 1.0, promtest.ToFloat64(s.metrics.runs.WithLabelValues("summary")))
	assert.Equal(t, 1.0, promtest.ToFloat64(s.metrics.runs.WithLabelValues("table")))
	assert.Equal(t, 0.0, promtest.ToFloat64(s.metrics.runs.WithLabelValues("diagnostics")))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	get(t, s, "/healthz")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gridmerge_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
	assert.Contains(t, body, "gridmerge_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestServersHaveIndependentRegistries(t *testing.T) {
	a, _ := newTestServer(t)
	b, _ := newTestServer(t)
	require.NotSame(t, a.Registry(), b.Registry())

	get(t, a, "/healthz")
	assert.Equal(t, 1.0, promtest.ToFloat64(a.metrics.requests.WithLabelValues("/healthz", "GET", "200")))
	assert.Equal(t, 0.0, promtest.ToFloat64(b.metrics.requests.WithLabelValues("/healthz", "GET", "200")))
}
