package prometheus

import (
	"errors"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmend"
)

func TestCollector(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.RecordAction(segmend.ActionAdd, 5*time.Millisecond, nil)
	c.RecordAction(segmend.ActionAdd, 5*time.Millisecond, nil)
	c.RecordAction(segmend.ActionRemove, time.Millisecond, errors.New("boom"))
	c.RecordPass(4, 1, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.actions.WithLabelValues("ADD", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.actions.WithLabelValues("REMOVE", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.passes.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.columns))
	assert.Equal(t, 2, testutil.CollectAndCount(c.actionLatency))

	expected := `
# HELP segmend_passes_total Total reconciliation passes by outcome
# TYPE segmend_passes_total counter
segmend_passes_total{status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "segmend_passes_total"))
}

func TestCollector_Namespace(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg, WithNamespace("loader"), WithBuckets([]float64{0.1, 1}))
	require.NoError(t, err)
	c.RecordPass(1, 0, time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "loader_passes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prom.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}
