package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.RecordEvaluation("bull_trend", map[string]float64{"SPY": 0.8})
	rec.RecordEvaluation("bull_trend", map[string]float64{"SPY": 0.8})
	rec.RecordEvaluation("missing_data", map[string]float64{"SPY": 0.5})
	rec.RecordSourceError()
	rec.RecordOrder("order_submitted")
	rec.RecordDuration(0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.evaluations.WithLabelValues("bull_trend")))
	assert.Equal(t, 0.5, testutil.ToFloat64(rec.allocation.WithLabelValues("SPY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.sourceErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.orders.WithLabelValues("order_submitted")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 5)
}
