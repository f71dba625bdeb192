package mgr

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Reply outcomes, the "outcome" label of replies_total
const (
	outcomeOK          = "ok"
	outcomeRPCError    = "rpc_error"
	outcomeInvalid     = "invalid"
	outcomeOrphan      = "orphan"
	outcomeNoMessageID = "no_message_id"
	outcomeRejected    = "rejected"
)

// Metrics holds the manager's Prometheus metrics. A nil *Metrics
// records nothing.
type Metrics struct {
	requestsSent    prometheus.Counter
	sendFailures    prometheus.Counter
	replies         *prometheus.CounterVec // by outcome
	timeouts        prometheus.Counter
	dispatchErrors  *prometheus.CounterVec // by reason
	sessionsDropped prometheus.Counter
	replyLatency    prometheus.Histogram
	outstanding     prometheus.Gauge
	notifications   *prometheus.CounterVec // by outcome
}

// NewMetrics creates the manager metrics under namespace and registers
// them with reg, if reg is not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	const subsystem = "mgr"
	m := &Metrics{
		requestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_sent_total",
			Help:      "Total number of <rpc> requests sent",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_send_failures_total",
			Help:      "Total number of <rpc> requests which failed to send",
		}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replies_total",
			Help:      "Total number of <rpc-reply> messages received",
		}, []string{"outcome"}), // ok, rpc_error, invalid, orphan, no_message_id, rejected
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_timeouts_total",
			Help:      "Total number of requests expired by the timeout sweep",
		}),
		dispatchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_errors_total",
			Help:      "Total number of incoming messages which could not be routed",
		}, []string{"reason"}),
		sessionsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_dropped_total",
			Help:      "Total number of sessions set for shutdown by a fatal read error",
		}),
		replyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reply_latency_seconds",
			Help:      "Time from sending a request to receiving its reply",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outstanding_requests",
			Help:      "Number of requests waiting for a reply",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_total",
			Help:      "Total number of <notification> messages received",
		}, []string{"outcome"}), // ok, invalid
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.requestsSent, m.sendFailures, m.replies, m.timeouts,
		m.dispatchErrors, m.sessionsDropped, m.replyLatency, m.outstanding,
		m.notifications,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}
	return m, nil
}

func (m *Metrics) recordSent() {
	if m == nil {
		return
	}
	m.requestsSent.Inc()
	m.outstanding.Inc()
}

func (m *Metrics) recordSendFailure() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *Metrics) recordReply(outcome string, latency time.Duration, matched bool) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(outcome).Inc()
	if matched {
		m.outstanding.Dec()
		m.replyLatency.Observe(latency.Seconds())
	}
}

func (m *Metrics) recordRemoved(expired bool, n int) {
	if m == nil || n == 0 {
		return
	}
	if expired {
		m.timeouts.Add(float64(n))
	}
	m.outstanding.Sub(float64(n))
}

func (m *Metrics) recordDispatchError(reason string) {
	if m == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) recordSessionDropped() {
	if m == nil {
		return
	}
	m.sessionsDropped.Inc()
}

func (m *Metrics) recordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
