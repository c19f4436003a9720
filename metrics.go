package minsketch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordDocument is called after each document is hashed and written.
	// tokens is the size of its token set, err is nil if successful.
	RecordDocument(tokens int, duration time.Duration, err error)

	// RecordAnomaly is called for every merge that did not grow a token set.
	RecordAnomaly()

	// RecordBytesWritten is called when a sketch file is closed.
	RecordBytesWritten(n int64)

	// RecordRecordsRead receives the records a sketch file reader yielded,
	// once per batch and on Close.
	RecordRecordsRead(n int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDocument(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAnomaly()                           {}
func (NoopMetricsCollector) RecordBytesWritten(int64)                 {}
func (NoopMetricsCollector) RecordRecordsRead(int)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	DocumentCount      atomic.Int64
	DocumentErrors     atomic.Int64
	DocumentTokens     atomic.Int64
	DocumentTotalNanos atomic.Int64
	AnomalyCount       atomic.Int64
	BytesWritten       atomic.Int64
	RecordsRead        atomic.Int64
}

// RecordDocument implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDocument(tokens int, duration time.Duration, err error) {
	b.DocumentCount.Add(1)
	b.DocumentTokens.Add(int64(tokens))
	b.DocumentTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DocumentErrors.Add(1)
	}
}

// RecordAnomaly implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAnomaly() {
	b.AnomalyCount.Add(1)
}

// RecordBytesWritten implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBytesWritten(n int64) {
	b.BytesWritten.Add(n)
}

// RecordRecordsRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecordsRead(n int) {
	b.RecordsRead.Add(int64(n))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		DocumentCount:    b.DocumentCount.Load(),
		DocumentErrors:   b.DocumentErrors.Load(),
		DocumentTokens:   b.DocumentTokens.Load(),
		DocumentAvgNanos: b.getAvgDocumentNanos(),
		AnomalyCount:     b.AnomalyCount.Load(),
		BytesWritten:     b.BytesWritten.Load(),
		RecordsRead:      b.RecordsRead.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDocumentNanos() int64 {
	count := b.DocumentCount.Load()
	if count == 0 {
		return 0
	}
	return b.DocumentTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	DocumentCount    int64
	DocumentErrors   int64
	DocumentTokens   int64
	DocumentAvgNanos int64
	AnomalyCount     int64
	BytesWritten     int64
	RecordsRead      int64
}
