// Package metrics exposes simulation and viewer counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kgviz"

// Collector owns a private registry so several engines (and tests) never
// collide on the global one.
type Collector struct {
	reg *prometheus.Registry

	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	alpha        prometheus.Gauge
	visibleNodes prometheus.Gauge
	visibleEdges prometheus.Gauge
	loads        *prometheus.CounterVec
	clients      prometheus.Gauge
}

// New registers every kgviz metric plus the Go runtime collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		reg: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ticks_total",
			Help:      "Simulation ticks executed",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.1},
		}),
		alpha: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "alpha",
			Help:      "Current simulation energy",
		}),
		visibleNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "visible_nodes",
			Help:      "Nodes passing the current filter",
		}),
		visibleEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "visible_edges",
			Help:      "Edges passing the current filter",
		}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "loads_total",
			Help:      "Snapshot loads by outcome",
		}, []string{"outcome"}),
		clients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "serve",
			Name:      "websocket_clients",
			Help:      "Connected viewer clients",
		}),
	}
}

// Tick records one simulation step.
func (c *Collector) Tick(d time.Duration, alpha float64) {
	c.ticks.Inc()
	c.tickDuration.Observe(d.Seconds())
	c.alpha.Set(alpha)
}

// Visible records the size of the current filter result.
func (c *Collector) Visible(nodes, edges int) {
	c.visibleNodes.Set(float64(nodes))
	c.visibleEdges.Set(float64(edges))
}

// Load records a snapshot load outcome.
func (c *Collector) Load(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.loads.WithLabelValues(outcome).Inc()
}

// ClientConnected and ClientDisconnected track websocket viewers.
func (c *Collector) ClientConnected()    { c.clients.Inc() }
func (c *Collector) ClientDisconnected() { c.clients.Dec() }

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
