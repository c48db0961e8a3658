// Package metrics exposes Prometheus metrics for the adaptive learning hub.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adaptive_learning"

// Metrics groups every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	RemoteCallsTotal    *prometheus.CounterVec
	RemoteCallDuration  *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RevisionsServed     prometheus.Counter
	TrackingEvents      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
// withRuntime adds the Go and process collectors.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RemoteCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Calls to the adaptive learning service by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		RemoteCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Duration of calls to the adaptive learning service, retries included",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"stage"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RevisionsServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_served_total",
			Help:      "Revisions returned to learners",
		}),
		TrackingEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracking_events_total",
				Help:      "Tracking events received, by whether they were forwarded",
			},
			[]string{"forwarded"},
		),
	}
}

// ObserveRemoteCall implements learningapi.Recorder.
func (m *Metrics) ObserveRemoteCall(stage, outcome string, d time.Duration) {
	m.RemoteCallsTotal.WithLabelValues(stage, outcome).Inc()
	m.RemoteCallDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRevisions counts revisions returned by one request.
func (m *Metrics) ObserveRevisions(n int) {
	m.RevisionsServed.Add(float64(n))
}

// ObserveTrackingEvent counts one received tracking event.
func (m *Metrics) ObserveTrackingEvent(forwarded bool) {
	m.TrackingEvents.WithLabelValues(strconv.FormatBool(forwarded)).Inc()
}
