// Package prommetrics exports dataset metrics to Prometheus.
//
// Collector implements studyset.MetricsCollector on its own registry, so
// several collectors can coexist in one process:
//
//	mc := prommetrics.NewCollector()
//	ds, err := studyset.Load("studies.json", studyset.WithMetricsCollector(mc))
//	...
//	http.Handle("/metrics", mc.Handler())
//
// Short-lived jobs can instead write the metrics for the node exporter's
// textfile collector with WriteTextfile.
package prommetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/studyset"
)

// Collector records dataset operations as Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	opLatency *prometheus.HistogramVec
	studies   *prometheus.CounterVec
	bytes     prometheus.Counter
	matched   prometheus.Histogram
	mutations *prometheus.CounterVec
}

var _ studyset.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyset_operation_latency_seconds",
			Help:    "Latency of dataset operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		studies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyset_loaded_studies_total",
			Help: "Studies read by successful loads",
		}, []string{"op"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studyset_saved_bytes_total",
			Help: "Bytes written by successful saves",
		}),
		matched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyset_select_matched_studies",
			Help:    "Studies matched per selection",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyset_mutations_total",
			Help: "Studies added or removed",
		}, []string{"status"}),
	}

	c.registry.MustRegister(c.opLatency, c.studies, c.bytes, c.matched, c.mutations)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordLoad implements studyset.MetricsCollector.
func (c *Collector) RecordLoad(studies int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("load", status(err)).Observe(d.Seconds())
	if err == nil {
		c.studies.WithLabelValues("load").Add(float64(studies))
	}
}

// RecordSave implements studyset.MetricsCollector.
func (c *Collector) RecordSave(bytes int64, d time.Duration, err error) {
	c.opLatency.WithLabelValues("save", status(err)).Observe(d.Seconds())
	if err == nil {
		c.bytes.Add(float64(bytes))
	}
}

// RecordSelect implements studyset.MetricsCollector.
func (c *Collector) RecordSelect(matched int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("select", status(err)).Observe(d.Seconds())
	if err == nil {
		c.matched.Observe(float64(matched))
	}
}

// RecordMutation implements studyset.MetricsCollector.
func (c *Collector) RecordMutation(count int, err error) {
	c.mutations.WithLabelValues(status(err)).Add(float64(count))
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile atomically writes the metrics to path for the node
// exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
