// Package observability holds the Prometheus metrics of the messaging core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector exposed on /metrics.
//
// A nil *Metrics is valid and records nothing, so components built in tests
// don't need a registry.
type Metrics struct {
	// MessagesTotal counts accepted messages.
	// Labels: kind (direct|group)
	MessagesTotal *prometheus.CounterVec

	// DeliveriesTotal counts writes to live connections.
	// Labels: outcome (delivered|failed)
	DeliveriesTotal *prometheus.CounterVec

	// DroppedEventsTotal counts events dropped because a queue was full.
	// Labels: queue (fanout|notification)
	DroppedEventsTotal *prometheus.CounterVec

	// NotificationsTotal counts push notifications handed to the notifier.
	// Labels: status (success|error)
	NotificationsTotal *prometheus.CounterVec

	// WorkerRestartsTotal counts supervised worker restarts.
	// Labels: worker
	WorkerRestartsTotal *prometheus.CounterVec

	// RequestDuration measures websocket request handling in seconds.
	// Labels: method, code
	RequestDuration *prometheus.HistogramVec

	OnlineUsers       prometheus.Gauge
	LiveConnections   prometheus.Gauge
	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge
}

// NewMetrics creates every collector and registers it on reg.
// Passing prometheus.DefaultRegisterer exposes them through promhttp.Handler().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altus_messages_total",
				Help: "Total number of accepted messages by kind",
			},
			[]string{"kind"},
		),

		DeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altus_deliveries_total",
				Help: "Total number of event writes to live connections by outcome",
			},
			[]string{"outcome"},
		),

		DroppedEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altus_dropped_events_total",
				Help: "Total number of events dropped because a queue was full",
			},
			[]string{"queue"},
		),

		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altus_notifications_total",
				Help: "Total number of push notifications by status",
			},
			[]string{"status"},
		),

		WorkerRestartsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altus_worker_restarts_total",
				Help: "Total number of supervised worker restarts",
			},
			[]string{"worker"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "altus_request_duration_seconds",
				Help:    "Duration of websocket requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "code"},
		),

		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "altus_online_users",
			Help: "Number of users holding at least one live connection",
		}),

		LiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "altus_live_connections",
			Help: "Number of live connections",
		}),

		ProcessRSSBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "altus_process_rss_bytes",
			Help: "Resident memory of the server process",
		}),

		ProcessCPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "altus_process_cpu_percent",
			Help: "CPU usage of the server process",
		}),
	}
}

func (m *Metrics) MessageAccepted(kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Delivery(ok bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	m.DeliveriesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Dropped(queue string) {
	if m == nil {
		return
	}
	m.DroppedEventsTotal.WithLabelValues(queue).Inc()
}

func (m *Metrics) Notification(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.NotificationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) WorkerRestarted(worker string) {
	if m == nil {
		return
	}
	m.WorkerRestartsTotal.WithLabelValues(worker).Inc()
}

func (m *Metrics) ObserveRequest(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, code).Observe(seconds)
}

// SetPresence records the registry size.
func (m *Metrics) SetPresence(users, connections int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(users))
	m.LiveConnections.Set(float64(connections))
}

func (m *Metrics) SetProcess(rss uint64, cpu float64) {
	if m == nil {
		return
	}
	m.ProcessRSSBytes.Set(float64(rss))
	m.ProcessCPUPercent.Set(cpu)
}
