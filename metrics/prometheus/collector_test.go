package prometheus

import (
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prom.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += "/" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestCollector(t *testing.T) {
	reg := prom.NewRegistry()
	c := NewCollector(reg)

	c.RecordDocument(12, time.Millisecond, nil)
	c.RecordDocument(3, time.Millisecond, nil)
	c.RecordDocument(0, time.Microsecond, errors.New("write failed"))
	c.RecordAnomaly()
	c.RecordBytesWritten(202)
	c.RecordRecordsRead(5)

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["minsketch_documents_total/success"])
	assert.Equal(t, 1.0, got["minsketch_documents_total/error"])
	assert.Equal(t, 3.0, got["minsketch_document_duration_seconds"])
	assert.Equal(t, 3.0, got["minsketch_document_tokens"])
	assert.Equal(t, 1.0, got["minsketch_anomalous_merges_total"])
	assert.Equal(t, 202.0, got["minsketch_written_bytes_total"])
	assert.Equal(t, 5.0, got["minsketch_read_records_total"])
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prom.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
