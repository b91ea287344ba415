// Package prommetrics exports embedstore metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/embedstore"
)

// Collector implements embedstore.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency  *prometheus.HistogramVec
	lookups    *prometheus.CounterVec
	queryK     prometheus.Histogram
	writeBytes prometheus.Counter
}

var _ embedstore.MetricsCollector = (*Collector)(nil)

// New creates a collector and registers its metrics with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of load, write and query operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Word lookups by how they were answered",
		}, []string{"kind"}),
		queryK: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_k",
			Help:      "Number of results requested per similarity query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
		writeBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Bytes written by Write, WriteTo and WriteBlob",
		}),
	}

	for _, m := range []prometheus.Collector{c.opLatency, c.lookups, c.queryK, c.writeBytes} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordLoad implements embedstore.MetricsCollector.
func (c *Collector) RecordLoad(d time.Duration, err error) {
	c.opLatency.WithLabelValues("load", status(err)).Observe(d.Seconds())
}

// RecordWrite implements embedstore.MetricsCollector.
func (c *Collector) RecordWrite(bytes int64, d time.Duration, err error) {
	c.opLatency.WithLabelValues("write", status(err)).Observe(d.Seconds())
	c.writeBytes.Add(float64(bytes))
}

// RecordLookup implements embedstore.MetricsCollector.
func (c *Collector) RecordLookup(kind embedstore.LookupKind) {
	c.lookups.WithLabelValues(kind.String()).Inc()
}

// RecordQuery implements embedstore.MetricsCollector.
func (c *Collector) RecordQuery(kind embedstore.QueryKind, k int, d time.Duration, err error) {
	c.opLatency.WithLabelValues(kind.String(), status(err)).Observe(d.Seconds())
	c.queryK.Observe(float64(k))
}
