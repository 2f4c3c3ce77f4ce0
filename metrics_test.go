package segmend

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordAction(ActionAdd, 10*time.Millisecond, nil)
	m.RecordAction(ActionAdd, 20*time.Millisecond, errors.New("boom"))
	m.RecordAction(ActionUpdate, 30*time.Millisecond, nil)
	m.RecordAction(ActionRemove, 40*time.Millisecond, nil)
	m.RecordPass(5, 1, time.Second)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.AddCount)
	assert.Equal(t, int64(1), stats.AddErrors)
	assert.Equal(t, int64(1), stats.UpdateCount)
	assert.Zero(t, stats.UpdateErrors)
	assert.Equal(t, int64(1), stats.RemoveCount)
	assert.Equal(t, (25 * time.Millisecond).Nanoseconds(), stats.ActionAvgNanos)
	assert.Equal(t, int64(1), stats.PassCount)
	assert.Equal(t, int64(5), stats.PassColumns)
	assert.Equal(t, int64(1), stats.PassFailed)
	assert.Equal(t, time.Second.Nanoseconds(), stats.PassAvgNanos)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	stats := (&BasicMetricsCollector{}).GetStats()
	assert.Zero(t, stats.ActionAvgNanos)
	assert.Zero(t, stats.PassAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	m.RecordAction(ActionAdd, time.Millisecond, nil)
	m.RecordPass(1, 0, time.Millisecond)
}
