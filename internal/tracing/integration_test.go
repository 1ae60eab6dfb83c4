package tracing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/opencrew/matchengine/internal/middleware"
	"github.com/opencrew/matchengine/internal/tracing"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

// TestRefreshRequestTracing drives a request through the tracing middleware
// into a handler that opens business and database spans, the way a match
// refresh does, and checks the resulting trace.
func TestRefreshRequestTracing(t *testing.T) {
	recorder := recordSpans(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, endRefresh := tracing.StartSpan(r.Context(), "refresh_matches")
		tracing.SetAttributes(ctx, attribute.String("mission.id", "mission-123"))

		ctx, endQuery := tracing.StartDBSpan(ctx, "contributors", tracing.DBOperationQuery)
		endQuery(nil)

		tracing.AddEvent(ctx, "candidates_scored", attribute.Int("count", 42))
		endRefresh(nil)

		w.WriteHeader(http.StatusOK)
	})

	traced := middleware.Tracing("matchengine")(handler)
	rr := httptest.NewRecorder()
	traced.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/missions/mission-123/matches/refresh", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans (HTTP, refresh, query), got %d", len(spans))
	}

	byName := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		byName[s.Name()] = s
	}
	for _, want := range []string{
		"POST /missions/mission-123/matches/refresh",
		"refresh_matches",
		"query contributors",
	} {
		if _, ok := byName[want]; !ok {
			t.Errorf("missing span %q", want)
		}
	}

	// Every span must belong to the same trace.
	traceID := spans[0].SpanContext().TraceID()
	for _, s := range spans {
		if s.SpanContext().TraceID() != traceID {
			t.Errorf("span %q has trace ID %s, expected %s", s.Name(), s.SpanContext().TraceID(), traceID)
		}
	}

	if dbSpan, ok := byName["query contributors"]; ok {
		var table string
		for _, a := range dbSpan.Attributes() {
			if a.Key == "db.sql.table" {
				table = a.Value.AsString()
			}
		}
		if table != "contributors" {
			t.Errorf("expected db.sql.table=contributors, got %q", table)
		}
	}
}

// TestSpanHelpersWithTracingDisabled checks the helpers stay usable when no
// provider is configured.
func TestSpanHelpersWithTracingDisabled(t *testing.T) {
	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName: "matchengine",
		Enabled:     false,
	})
	if err != nil {
		t.Fatalf("disabled provider should not error: %v", err)
	}
	if provider.IsEnabled() {
		t.Error("expected a disabled provider")
	}

	ctx, end := tracing.StartSpan(context.Background(), "refresh_matches")
	tracing.SetAttributes(ctx, attribute.String("mission.id", "mission-123"))
	tracing.AddEvent(ctx, "candidates_scored")
	end(nil)
}

func TestTraceIDVisibleInsideHandler(t *testing.T) {
	recorder := recordSpans(t)

	var traceID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = middleware.GetTraceID(r)
		w.WriteHeader(http.StatusOK)
	})

	traced := middleware.Tracing("matchengine")(handler)
	rr := httptest.NewRecorder()
	traced.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missions/m1/matches", nil))

	if traceID == "" {
		t.Fatal("expected a trace ID inside the handler")
	}
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].SpanContext().TraceID().String(); got != traceID {
		t.Errorf("handler saw trace ID %s, span has %s", traceID, got)
	}
}
