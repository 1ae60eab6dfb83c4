package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value.AsString(), true
		}
	}
	return "", false
}

func TestStartDBSpan(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		operation DBOperation
	}{
		{"query contributors", "contributors", DBOperationQuery},
		{"insert matches", "mission_matches", DBOperationInsert},
		{"update missions", "missions", DBOperationUpdate},
		{"delete matches", "mission_matches", DBOperationDelete},
		{"exec without table", "", DBOperationExec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := recordSpans(t)

			_, end := StartDBSpan(context.Background(), tt.table, tt.operation)
			end(nil)

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			span := spans[0]

			wantName := string(tt.operation)
			if tt.table != "" {
				wantName += " " + tt.table
			}
			if span.Name() != wantName {
				t.Errorf("expected span name %q, got %q", wantName, span.Name())
			}

			attrs := span.Attributes()
			if v, ok := attrValue(attrs, "db.system"); !ok || v != "postgresql" {
				t.Errorf("expected db.system=postgresql, got %q", v)
			}
			if v, ok := attrValue(attrs, "db.operation"); !ok || v != string(tt.operation) {
				t.Errorf("expected db.operation=%s, got %q", tt.operation, v)
			}
			v, ok := attrValue(attrs, "db.sql.table")
			if tt.table == "" && ok {
				t.Errorf("unexpected db.sql.table=%q for table-less span", v)
			}
			if tt.table != "" && v != tt.table {
				t.Errorf("expected db.sql.table=%s, got %q", tt.table, v)
			}
		})
	}
}

func TestStartDBSpanRecordsError(t *testing.T) {
	recorder := recordSpans(t)
	dbErr := errors.New("connection reset")

	_, end := StartDBSpan(context.Background(), "contributors", DBOperationQuery)
	end(dbErr)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	status := spans[0].Status()
	if status.Code.String() != "Error" {
		t.Errorf("expected Error status, got %s", status.Code)
	}
	if status.Description != dbErr.Error() {
		t.Errorf("expected description %q, got %q", dbErr.Error(), status.Description)
	}
}

func TestStartSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, end := StartSpan(context.Background(), "score_candidates")
	end(nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].Name(); got != "score_candidates" {
		t.Errorf("expected span name score_candidates, got %q", got)
	}
	if code := spans[0].Status().Code.String(); code == "Error" {
		t.Errorf("successful span should not carry Error status, got %s", code)
	}
}

func TestStartSpanRecordsError(t *testing.T) {
	recorder := recordSpans(t)

	_, end := StartSpan(context.Background(), "score_candidates")
	end(errors.New("scoring failed"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if code := spans[0].Status().Code.String(); code != "Error" {
		t.Errorf("expected Error status, got %s", code)
	}
}

func TestAddEvent(t *testing.T) {
	recorder := recordSpans(t)

	ctx, span := otel.Tracer("matchengine").Start(context.Background(), "refresh_matches")
	AddEvent(ctx, "cache_hit",
		attribute.String("cache_key", "matches:mission-123"),
		attribute.Int("ttl", 600),
	)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	events := spans[0].Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Name != "cache_hit" {
		t.Errorf("expected event cache_hit, got %q", events[0].Name)
	}
	if len(events[0].Attributes) != 2 {
		t.Errorf("expected 2 event attributes, got %d", len(events[0].Attributes))
	}
}

func TestSetAttributes(t *testing.T) {
	recorder := recordSpans(t)

	ctx, span := otel.Tracer("matchengine").Start(context.Background(), "refresh_matches")
	SetAttributes(ctx,
		attribute.String("mission_id", "mission-123"),
		attribute.String("endpoint", "/missions"),
	)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := spans[0].Attributes()
	if v, ok := attrValue(attrs, "mission_id"); !ok || v != "mission-123" {
		t.Errorf("expected mission_id=mission-123, got %q", v)
	}
	if v, ok := attrValue(attrs, "endpoint"); !ok || v != "/missions" {
		t.Errorf("expected endpoint=/missions, got %q", v)
	}
}
