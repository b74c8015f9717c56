package dhcpauthmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	dhcpauthmetrics "github.com/dantte-lp/dhcpauthd/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := dhcpauthmetrics.NewCollector(reg)

	if c.ValidateTotal == nil {
		t.Error("ValidateTotal is nil")
	}
	if c.EncodeTotal == nil {
		t.Error("EncodeTotal is nil")
	}
	if c.ReplayRejections == nil {
		t.Error("ReplayRejections is nil")
	}
	if c.PinnedTokens == nil {
		t.Error("PinnedTokens is nil")
	}
	if c.ReconfKeyDeliveries == nil {
		t.Error("ReconfKeyDeliveries is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestRecordValidateAndEncode(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := dhcpauthmetrics.NewCollector(reg)

	c.RecordValidate("delayed", "ok")
	c.RecordValidate("delayed", "ok")
	c.RecordValidate("delayed", "denied")
	c.RecordEncode("delayed", "ok")

	if got := counterValue(t, c.ValidateTotal, "delayed", "ok"); got != 2 {
		t.Errorf("ValidateTotal(delayed,ok) = %v, want 2", got)
	}
	if got := counterValue(t, c.ValidateTotal, "delayed", "denied"); got != 1 {
		t.Errorf("ValidateTotal(delayed,denied) = %v, want 1", got)
	}
	if got := counterValue(t, c.EncodeTotal, "delayed", "ok"); got != 1 {
		t.Errorf("EncodeTotal(delayed,ok) = %v, want 1", got)
	}
}

func TestReplayRejections(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := dhcpauthmetrics.NewCollector(reg)

	c.RecordReplayRejection("token")
	c.RecordReplayRejection("token")

	if got := counterValue(t, c.ReplayRejections, "token"); got != 2 {
		t.Errorf("ReplayRejections(token) = %v, want 2", got)
	}
}

func TestPinnedTokensGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := dhcpauthmetrics.NewCollector(reg)

	c.TokenPinned()
	c.TokenPinned()
	c.TokenUnpinned()

	if got := gaugeValue(t, c.PinnedTokens); got != 1 {
		t.Errorf("PinnedTokens = %v, want 1", got)
	}
}

func TestReconfKeyDeliveries(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := dhcpauthmetrics.NewCollector(reg)

	c.RecordReconfKeyDelivery()
	c.RecordReconfKeyDelivery()
	c.RecordReconfKeyDelivery()

	if got := plainCounterValue(t, c.ReconfKeyDeliveries); got != 3 {
		t.Errorf("ReconfKeyDeliveries = %v, want 3", got)
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func plainCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
