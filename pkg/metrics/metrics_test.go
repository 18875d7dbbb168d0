package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Gauge != nil {
		return out.GetGauge().GetValue()
	}
	return out.GetCounter().GetValue()
}

func TestRecordPresence(t *testing.T) {
	RecordPresence("test-presence", 3, 2)

	assert.Equal(t, 3.0, value(t, DevicesTrackedGauge.WithLabelValues("test-presence")))
	assert.Equal(t, 2.0, value(t, DevicesOnlineGauge.WithLabelValues("test-presence")))
}

func TestRecordLocationIngested(t *testing.T) {
	RecordLocationIngested("test-ingest", "mqtt", nil)
	RecordLocationIngested("test-ingest", "mqtt", nil)
	RecordLocationIngested("test-ingest", "mqtt", errors.New("bad"))

	assert.Equal(t, 2.0, value(t, LocationsIngestedTotal.WithLabelValues("test-ingest", "mqtt", "success")))
	assert.Equal(t, 1.0, value(t, LocationsIngestedTotal.WithLabelValues("test-ingest", "mqtt", "error")))
}
