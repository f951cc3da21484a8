package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskflow_console"

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry
	refresh  *prometheus.CounterVec
	login    *prometheus.CounterVec
	upstream *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the backend API by status code.",
		}, []string{"code"}),
	}

	registry.MustRegister(m.refresh, m.login, m.upstream)
	registry.MustRegister(collectors.NewGoCollector())

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refresh.WithLabelValues(result).Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.login.WithLabelValues(result).Inc()
}

// Upstream records one backend round trip; code 0 means a transport error.
func (m *Metrics) Upstream(code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.upstream.WithLabelValues(label).Inc()
}
