package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"supermart/internal/metrics"
)

func TestCountersAreIsolatedPerInstance(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.Checkout("card", "completed")
	a.Checkout("card", "completed")
	a.Reservation("refused")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Checkouts.WithLabelValues("card", "completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Checkouts.WithLabelValues("card", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Reservations.WithLabelValues("refused")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.Checkout("qr", "failed")
	m.Reservation("ok")
}
