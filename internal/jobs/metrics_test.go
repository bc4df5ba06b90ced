package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("auth:sessions:reap").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("auth:sessions:reap").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("auth:sessions:reap", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("auth:sessions:reap", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("auth:sessions:reap")))
}

func TestAddReaped(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddReaped(3)
	m.AddReaped(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reaped))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddReaped(5)
	assert.NoError(t, m.Track("x").End(nil))
}
