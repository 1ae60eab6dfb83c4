package jobs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegister(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	m.IncJobsTotal(JobTypeMatchRefresh, StatusSuccess)
	m.IncJobsTotal(JobTypeMatchRefresh, StatusSuccess)
	m.IncJobsTotal(JobTypeMatchPowerRecompute, StatusFailure)
	m.IncJobErrors(JobTypeMatchRefresh, "timeout")
	m.ObserveJobDuration(JobTypeMatchRefresh, 1.5)

	if got := testutil.ToFloat64(m.jobsTotal.WithLabelValues(JobTypeMatchRefresh, StatusSuccess)); got != 2 {
		t.Errorf("expected 2 successful match refresh runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobsTotal.WithLabelValues(JobTypeMatchPowerRecompute, StatusFailure)); got != 1 {
		t.Errorf("expected 1 failed match power run, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues(JobTypeMatchRefresh, "timeout")); got != 1 {
		t.Errorf("expected 1 timeout error, got %v", got)
	}
}

func TestMetricsCollectors(t *testing.T) {
	m := NewMetrics()
	if got := len(m.Collectors()); got != 3 {
		t.Errorf("expected 3 collectors, got %d", got)
	}
}
