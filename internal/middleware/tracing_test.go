package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs a recording tracer provider for the test's duration.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

func TestTracingSpanNames(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/missions/123/matches", "GET /missions/123/matches"},
		{http.MethodPost, "/missions/123/matches/refresh", "POST /missions/123/matches/refresh"},
		{http.MethodGet, "/contributors/456/recommendations", "GET /contributors/456/recommendations"},
		{http.MethodPost, "/contributors/456/match-power", "POST /contributors/456/match-power"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			recorder := recordSpans(t)

			handler := Tracing("matchengine")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			if got := spans[0].Name(); got != tt.want {
				t.Errorf("expected span name %q, got %q", tt.want, got)
			}
			if rr.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rr.Code)
			}
		})
	}
}

func TestTracingExposesIDs(t *testing.T) {
	recorder := recordSpans(t)

	var traceID, spanID string
	handler := Tracing("matchengine")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = GetTraceID(r)
		spanID = GetSpanID(r)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/missions/m1/matches/refresh", nil))

	if traceID == "" || spanID == "" {
		t.Fatal("expected trace and span IDs inside the handler")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	sc := spans[0].SpanContext()
	if sc.TraceID().String() != traceID {
		t.Errorf("trace ID mismatch: span has %s, handler saw %s", sc.TraceID(), traceID)
	}
	if sc.SpanID().String() != spanID {
		t.Errorf("span ID mismatch: span has %s, handler saw %s", sc.SpanID(), spanID)
	}
}

func TestTraceIDsWithoutActiveSpan(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/missions/m1/matches", nil)

	if id := GetTraceID(req); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
	if id := GetSpanID(req); id != "" {
		t.Errorf("expected empty span ID, got %q", id)
	}
}
