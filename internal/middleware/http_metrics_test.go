package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/ready", "/ready"},
		{"/metrics", "/metrics"},
		{"/missions/123", "/missions/{id}"},
		{"/missions/123/matches", "/missions/{id}/matches"},
		{"/missions/abc-def/matches/refresh", "/missions/{id}/matches/refresh"},
		{"/missions/123/matches/456/preview", "/missions/{id}/matches/{contributor_id}/preview"},
		{"/missions/123/matches/456/skill-gaps", "/missions/{id}/matches/{contributor_id}/skill-gaps"},
		{"/contributors/789", "/contributors/{id}"},
		{"/contributors/789/recommendations", "/contributors/{id}/recommendations"},
		{"/contributors/789/match-power", "/contributors/{id}/match-power"},
		// Unknown routes pass through untouched.
		{"/unknown/route", "/unknown/route"},
		{"/missions/123/matches/456/unknown", "/missions/123/matches/456/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics_RecordsRequest(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("body"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/missions/m1/matches", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	expected := `
		# HELP http_requests_total Total number of HTTP requests
		# TYPE http_requests_total counter
		http_requests_total{method="GET",path="/missions/{id}/matches",status="200"} 1
	`
	if err := testutil.CollectAndCompare(reg, strings.NewReader(expected), MetricHTTPRequestsTotal); err != nil {
		t.Errorf("unexpected metric output: %v", err)
	}
}

func TestHTTPMetrics_SkipsHealthEndpoints(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	count := testutil.CollectAndCount(metrics.httpRequestsTotal)
	if count != 0 {
		t.Errorf("expected no request metrics for health endpoints, got %d series", count)
	}
}

func TestHTTPMetrics_RecordsErrorStatus(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missions/missing/matches", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/missions/{id}/matches", "404"))
	if got != 1 {
		t.Errorf("expected 1 request counted with status 404, got %v", got)
	}
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := metrics.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestMetrics_Collectors(t *testing.T) {
	metrics := NewMetrics()
	if got := len(metrics.Collectors()); got != 6 {
		t.Errorf("expected 6 collectors, got %d", got)
	}
}
