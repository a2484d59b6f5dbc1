// Package metrics exposes Prometheus counters for the dashboard runtime.
//
// All methods are safe on a nil *Metrics so components can run without
// instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the collectors for polls, checks, notifications and
// connectivity transitions.
type Metrics struct {
	registry *prometheus.Registry

	polls         *prometheus.CounterVec
	checks        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	connectivity  *prometheus.CounterVec
	online        prometheus.Gauge
	exports       *prometheus.CounterVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmon_status_polls_total",
			Help: "Status poll attempts by result",
		}, []string{"result"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmon_check_invocations_total",
			Help: "On-demand website checks by outcome",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmon_notifications_total",
			Help: "Notifications shown by severity",
		}, []string{"severity"}),
		connectivity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmon_connectivity_transitions_total",
			Help: "Connectivity transitions by new state",
		}, []string{"state"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webmon_connectivity_online",
			Help: "1 when the monitor host is reachable",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmon_exports_total",
			Help: "CSV exports by result",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.polls, m.checks, m.notifications, m.connectivity, m.online, m.exports} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// PollCompleted counts one status poll.
func (m *Metrics) PollCompleted(ok bool) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result(ok)).Inc()
}

// CheckCompleted counts one check invocation by outcome ("succeeded", "failed").
func (m *Metrics) CheckCompleted(outcome string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(outcome).Inc()
}

// NotificationShown counts one notification.
func (m *Metrics) NotificationShown(severity string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(severity).Inc()
}

// ConnectivityChanged records a transition to online or offline.
func (m *Metrics) ConnectivityChanged(online bool) {
	if m == nil {
		return
	}
	state := "offline"
	value := 0.0
	if online {
		state = "online"
		value = 1
	}
	m.connectivity.WithLabelValues(state).Inc()
	m.online.Set(value)
}

// ExportCompleted counts one CSV export.
func (m *Metrics) ExportCompleted(ok bool) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(result(ok)).Inc()
}
