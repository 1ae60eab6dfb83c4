package tracing

import (
	"context"
	"testing"
	"time"
)

func shutdownProvider(t *testing.T, p *Provider) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(Config{ServiceName: "matchengine", Enabled: false})
	if err != nil {
		t.Fatalf("disabled tracing should not error: %v", err)
	}
	if provider.IsEnabled() {
		t.Error("expected a disabled provider")
	}
}

func TestNewProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing service name", Config{Enabled: true, SamplingRate: 0.1}},
		{"negative sampling rate", Config{ServiceName: "matchengine", Enabled: true, SamplingRate: -0.1}},
		{"sampling rate above 1", Config{ServiceName: "matchengine", Enabled: true, SamplingRate: 1.5}},
		{"unsupported exporter", Config{ServiceName: "matchengine", Enabled: true, SamplingRate: 0.1, ExporterType: "jaeger-thrift"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(tt.cfg); err == nil {
				t.Error("expected a configuration error")
			}
		})
	}
}

func TestNewProviderExporters(t *testing.T) {
	tests := []struct {
		name         string
		exporterType string
		endpoint     string
		samplingRate float64
	}{
		{"otlp-http", "otlp-http", "localhost:4318", 0.1},
		{"otlp-grpc", "otlp-grpc", "localhost:4317", 1.0},
		{"default exporter", "", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(Config{
				ServiceName:  "matchengine",
				Enabled:      true,
				Environment:  "test",
				ExporterType: tt.exporterType,
				OTLPEndpoint: tt.endpoint,
				SamplingRate: tt.samplingRate,
				InsecureMode: true,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !provider.IsEnabled() {
				t.Error("expected an enabled provider")
			}
			shutdownProvider(t, provider)
		})
	}
}

func TestProviderTracer(t *testing.T) {
	provider, err := NewProvider(Config{
		ServiceName:  "matchengine",
		Enabled:      true,
		Environment:  "test",
		ExporterType: "otlp-http",
		SamplingRate: 1.0,
		InsecureMode: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer shutdownProvider(t, provider)

	tracer := provider.Tracer("matchengine/engine")
	_, span := tracer.Start(context.Background(), "score_candidates")
	if span == nil {
		t.Fatal("expected a span")
	}
	span.End()
}

func TestProviderShutdownWithoutInit(t *testing.T) {
	var provider Provider

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("shutdown of an uninitialized provider should be a no-op, got %v", err)
	}
}
