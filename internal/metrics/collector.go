// Package dhcpauthmetrics exposes Prometheus metrics for the DHCP
// authentication core: validate/encode outcomes, replay rejections, and
// pinned-token bookkeeping.
package dhcpauthmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "dhcpauthd"
	subsystem = "auth"
)

// Label names for dhcpauth metrics.
const (
	labelProtocol = "protocol"
	labelKind     = "kind"
)

// -------------------------------------------------------------------------
// Collector — Prometheus DHCP Authentication Metrics
// -------------------------------------------------------------------------

// Collector holds all dhcpauth Prometheus metrics.
//
//   - ValidateTotal / EncodeTotal track outcome volume per protocol,
//     split by success vs. the dhcpauth.ErrorKind of a failure.
//   - ReplayRejections flags potential replay attacks or a misbehaving
//     peer for alerting.
//   - PinnedTokens tracks how many sessions currently hold a pinned
//     token, a rough proxy for "how many sessions are authenticating".
//   - ReconfKeyDeliveries counts RECONF_KEY type-1 key deliveries
//     accepted, since an unexpected spike can indicate a rogue server.
type Collector struct {
	// ValidateTotal counts Validate calls, labeled by protocol and
	// outcome (kind="ok" on success, else the dhcpauth.ErrorKind
	// string).
	ValidateTotal *prometheus.CounterVec

	// EncodeTotal counts Encode calls, labeled the same way as
	// ValidateTotal.
	EncodeTotal *prometheus.CounterVec

	// ReplayRejections counts Validate calls denied specifically for a
	// stale replay counter.
	ReplayRejections *prometheus.CounterVec

	// PinnedTokens tracks the number of sessions with a non-nil
	// AuthState.Token.
	PinnedTokens prometheus.Gauge

	// ReconfKeyDeliveries counts accepted RECONF_KEY type-1 deliveries.
	ReconfKeyDeliveries prometheus.Counter
}

// NewCollector creates a Collector with all metrics registered against
// the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics are created with the "dhcpauthd_auth_" prefix
// (namespace_subsystem) to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.ValidateTotal,
		c.EncodeTotal,
		c.ReplayRejections,
		c.PinnedTokens,
		c.ReconfKeyDeliveries,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	outcomeLabels := []string{labelProtocol, labelKind}

	return &Collector{
		ValidateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validate_total",
			Help:      "Total authentication option validations, labeled by protocol and outcome kind.",
		}, outcomeLabels),

		EncodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "encode_total",
			Help:      "Total authentication option encodes, labeled by protocol and outcome kind.",
		}, outcomeLabels),

		ReplayRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replay_rejections_total",
			Help:      "Total validations denied for a non-fresh replay counter, labeled by protocol.",
		}, []string{labelProtocol}),

		PinnedTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pinned_tokens",
			Help:      "Number of sessions currently pinned to a token.",
		}),

		ReconfKeyDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconf_key_deliveries_total",
			Help:      "Total RECONF_KEY type-1 key deliveries accepted.",
		}),
	}
}

// -------------------------------------------------------------------------
// Outcome Recording
// -------------------------------------------------------------------------

// RecordValidate records the outcome of a Validate call. kind should be
// "ok" on success or a dhcpauth.ErrorKind.String() value on failure.
func (c *Collector) RecordValidate(protocol, kind string) {
	c.ValidateTotal.WithLabelValues(protocol, kind).Inc()
}

// RecordEncode records the outcome of an Encode call, the same way
// RecordValidate does for Validate.
func (c *Collector) RecordEncode(protocol, kind string) {
	c.EncodeTotal.WithLabelValues(protocol, kind).Inc()
}

// RecordReplayRejection increments the replay-rejection counter for
// protocol.
func (c *Collector) RecordReplayRejection(protocol string) {
	c.ReplayRejections.WithLabelValues(protocol).Inc()
}

// -------------------------------------------------------------------------
// Session Bookkeeping
// -------------------------------------------------------------------------

// TokenPinned increments the pinned-tokens gauge. Call once, the first
// time a session's AuthState.Token transitions from nil to non-nil.
func (c *Collector) TokenPinned() {
	c.PinnedTokens.Inc()
}

// TokenUnpinned decrements the pinned-tokens gauge. Call when a
// session's AuthState is reset or the session is destroyed.
func (c *Collector) TokenUnpinned() {
	c.PinnedTokens.Dec()
}

// RecordReconfKeyDelivery increments the reconfigure-key-delivery
// counter.
func (c *Collector) RecordReconfKeyDelivery() {
	c.ReconfKeyDeliveries.Inc()
}
