// Package prometheus exports sketching metrics to Prometheus.
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/minsketch"
)

const namespace = "minsketch"

// Collector implements minsketch.MetricsCollector on Prometheus metrics.
type Collector struct {
	documents    *prom.CounterVec
	latency      prom.Histogram
	tokens       prom.Histogram
	anomalies    prom.Counter
	bytesWritten prom.Counter
	recordsRead  prom.Counter
}

var _ minsketch.MetricsCollector = (*Collector)(nil)

// NewCollector registers the sketching metrics with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewCollector(reg prom.Registerer) *Collector {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		documents: f.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents hashed and written, by status",
		}, []string{"status"}),
		latency: f.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time to hash and encode one document",
			Buckets:   prom.ExponentialBuckets(1e-6, 4, 10),
		}),
		tokens: f.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_tokens",
			Help:      "Token set size per document",
			Buckets:   prom.ExponentialBuckets(1, 4, 10),
		}),
		anomalies: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "anomalous_merges_total",
			Help:      "Merges that did not grow a pending token set",
		}),
		bytesWritten: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Uncompressed sketch file bytes written",
		}),
		recordsRead: f.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "read_records_total",
			Help:      "Sketch records read",
		}),
	}
}

// RecordDocument implements minsketch.MetricsCollector.
func (c *Collector) RecordDocument(tokens int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.documents.WithLabelValues(status).Inc()
	c.latency.Observe(d.Seconds())
	c.tokens.Observe(float64(tokens))
}

// RecordAnomaly implements minsketch.MetricsCollector.
func (c *Collector) RecordAnomaly() {
	c.anomalies.Inc()
}

// RecordBytesWritten implements minsketch.MetricsCollector.
func (c *Collector) RecordBytesWritten(n int64) {
	c.bytesWritten.Add(float64(n))
}

// RecordRecordsRead implements minsketch.MetricsCollector.
func (c *Collector) RecordRecordsRead(n int) {
	c.recordsRead.Add(float64(n))
}
