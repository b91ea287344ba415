package embedstore

import (
	"sync/atomic"
	"time"
)

// QueryKind identifies a similarity query.
type QueryKind int

const (
	QueryWordSimilarity QueryKind = iota
	QueryEmbeddingSimilarity
	QueryAnalogy
)

func (k QueryKind) String() string {
	switch k {
	case QueryWordSimilarity:
		return "word_similarity"
	case QueryEmbeddingSimilarity:
		return "embedding_similarity"
	case QueryAnalogy:
		return "analogy"
	default:
		return "unknown"
	}
}

// LookupKind tells how a word lookup was answered.
type LookupKind int

const (
	// LookupExact is a known word served from its own row.
	LookupExact LookupKind = iota
	// LookupSubword is an unknown word composed from subword rows.
	LookupSubword
	// LookupMiss is a word that could not be resolved.
	LookupMiss
)

func (k LookupKind) String() string {
	switch k {
	case LookupExact:
		return "exact"
	case LookupSubword:
		return "subword"
	case LookupMiss:
		return "miss"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordLoad is called after embeddings were read from a file, stream or
	// blob. err is nil if successful.
	RecordLoad(duration time.Duration, err error)

	// RecordWrite is called after embeddings were serialized. bytes is the
	// number of bytes written, also on failure.
	RecordWrite(bytes int64, duration time.Duration, err error)

	// RecordLookup is called for every word lookup.
	RecordLookup(kind LookupKind)

	// RecordQuery is called after each similarity or analogy query.
	// k is the number of results requested.
	RecordQuery(kind QueryKind, k int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(time.Duration, error)                  {}
func (NoopMetricsCollector) RecordWrite(int64, time.Duration, error)          {}
func (NoopMetricsCollector) RecordLookup(LookupKind)                          {}
func (NoopMetricsCollector) RecordQuery(QueryKind, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	LookupExact     atomic.Int64
	LookupSubword   atomic.Int64
	LookupMiss      atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(bytes int64, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteBytes.Add(bytes)
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(kind LookupKind) {
	switch kind {
	case LookupExact:
		b.LookupExact.Add(1)
	case LookupSubword:
		b.LookupSubword.Add(1)
	case LookupMiss:
		b.LookupMiss.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(kind QueryKind, k int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:     b.LoadCount.Load(),
		LoadErrors:    b.LoadErrors.Load(),
		LoadAvgNanos:  avgNanos(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		WriteCount:    b.WriteCount.Load(),
		WriteErrors:   b.WriteErrors.Load(),
		WriteBytes:    b.WriteBytes.Load(),
		LookupExact:   b.LookupExact.Load(),
		LookupSubword: b.LookupSubword.Load(),
		LookupMiss:    b.LookupMiss.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryAvgNanos: avgNanos(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount     int64
	LoadErrors    int64
	LoadAvgNanos  int64
	WriteCount    int64
	WriteErrors   int64
	WriteBytes    int64
	LookupExact   int64
	LookupSubword int64
	LookupMiss    int64
	QueryCount    int64
	QueryErrors   int64
	QueryAvgNanos int64
}
