// Package metrics exposes simulator counters on a private prometheus
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	// MessagesPublished counts publishes per channel; result: success/failed
	MessagesPublished *prometheus.CounterVec
	// EncodeFieldErrors counts fields dropped by the codec
	EncodeFieldErrors *prometheus.CounterVec
	// Commands counts inbound commands; result: applied/unknown_field/short_payload/bad_topic/failed
	Commands *prometheus.CounterVec
	// BackendRequests counts backend calls; operation: bootstrap/register
	BackendRequests *prometheus.CounterVec
	PublishLatency  *prometheus.HistogramVec
	Vehicles        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ebike_sim_messages_published_total",
				Help: "Total number of MQTT messages published.",
			},
			[]string{"channel", "result"},
		),
		EncodeFieldErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ebike_sim_encode_field_errors_total",
				Help: "Total number of fields left out of encoded payloads.",
			},
			[]string{"channel"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ebike_sim_commands_total",
				Help: "Total number of inbound commands by outcome.",
			},
			[]string{"result"},
		),
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ebike_sim_backend_requests_total",
				Help: "Total number of backend HTTP requests.",
			},
			[]string{"operation", "result"},
		),
		PublishLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ebike_sim_publish_duration_seconds",
				Help:    "Time spent waiting for MQTT publishes to complete.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"channel"},
		),
		Vehicles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ebike_sim_vehicles",
				Help: "Number of simulated vehicles.",
			},
		),
	}

	m.registry.MustRegister(
		m.MessagesPublished,
		m.EncodeFieldErrors,
		m.Commands,
		m.BackendRequests,
		m.PublishLatency,
		m.Vehicles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePublish(channel string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.MessagesPublished.WithLabelValues(channel, result(err)).Inc()
	m.PublishLatency.WithLabelValues(channel).Observe(d.Seconds())
}

func (m *Metrics) AddFieldErrors(channel string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EncodeFieldErrors.WithLabelValues(channel).Add(float64(n))
}

func (m *Metrics) ObserveCommand(outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBackend(operation string, err error) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) SetVehicles(n int) {
	if m == nil {
		return
	}
	m.Vehicles.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
