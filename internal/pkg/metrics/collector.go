package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

// Collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	ChatRequests     *prometheus.CounterVec
	ChatDuration     prometheus.Histogram
	DocumentChanges  *prometheus.CounterVec
	WebsocketClients prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ChatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_requests_total",
				Help:      "Chat requests by outcome",
			},
			[]string{"outcome"},
		),
		ChatDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chat_request_duration_seconds",
				Help:      "Time spent answering a chat request",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
		),
		DocumentChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_changes_total",
				Help:      "Documents touched by mutations, by change kind",
			},
			[]string{"kind"},
		),
		WebsocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_clients",
				Help:      "Currently connected websocket clients",
			},
		),
	}

	registry.MustRegister(
		c.ChatRequests,
		c.ChatDuration,
		c.DocumentChanges,
		c.WebsocketClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveChat(outcome string, elapsed time.Duration) {
	c.ChatRequests.WithLabelValues(outcome).Inc()
	c.ChatDuration.Observe(elapsed.Seconds())
}

func (c *Collector) RecordDocumentChange(kind string, count int) {
	c.DocumentChanges.WithLabelValues(kind).Add(float64(count))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
