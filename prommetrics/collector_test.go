package prommetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/embedstore"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/vocab"
)

func histogram(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Histogram {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if labels[l.GetName()] != l.GetValue() {
					continue metrics
				}
			}
			return m.GetHistogram()
		}
	}
	t.Fatalf("histogram %s %v not found", name, labels)
	return nil
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "embedstore")
	require.NoError(t, err)

	c.RecordLoad(time.Millisecond, nil)
	c.RecordLoad(time.Millisecond, errors.New("boom"))
	c.RecordWrite(128, time.Millisecond, nil)
	c.RecordLookup(embedstore.LookupExact)
	c.RecordLookup(embedstore.LookupExact)
	c.RecordLookup(embedstore.LookupMiss)
	c.RecordQuery(embedstore.QueryAnalogy, 10, time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.lookups.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues("miss")))
	assert.Equal(t, 128.0, testutil.ToFloat64(c.writeBytes))

	assert.Equal(t, uint64(1), histogram(t, reg, "embedstore_operation_latency_seconds",
		map[string]string{"op": "load", "status": "error"}).GetSampleCount())
	assert.Equal(t, uint64(1), histogram(t, reg, "embedstore_operation_latency_seconds",
		map[string]string{"op": "analogy", "status": "success"}).GetSampleCount())
	assert.Equal(t, 10.0, histogram(t, reg, "embedstore_query_k", nil).GetSampleSum())

	_, err = New(reg, "embedstore")
	assert.Error(t, err, "registering twice must fail")
}

func TestCollector_WithEmbeddings(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "test")
	require.NoError(t, err)

	v, err := vocab.NewSimpleVocab([]string{"a", "b", "c"})
	require.NoError(t, err)
	s, err := storage.NewNdArrayFromRows([][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.NoError(t, err)
	e, err := embedstore.New(v, s, nil, nil, embedstore.WithMetricsCollector(c))
	require.NoError(t, err)

	_, _ = e.Embedding("a")
	_, _ = e.Embedding("z")
	res, err := e.WordSimilarity("a", 1)
	require.NoError(t, err)
	assert.Equal(t, "c", res[0].Word)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues("miss")))
	assert.Equal(t, uint64(1), histogram(t, reg, "test_operation_latency_seconds",
		map[string]string{"op": "word_similarity", "status": "success"}).GetSampleCount())
}
