package observability

import (
	"errors"
	"testing"

	"therapy/apperrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveReservation("won")
	m.ObserveTransition("confirm", nil)
	m.ObserveNegotiation("request", apperrors.ErrRequestInFlight)
	m.ObserveProvider("create_room", "ok", 0.1)
	m.ObserveRelease("inline")
	m.ObserveCopy("recommendation", "fallback")
	m.ObserveSlotCache(true)
}

func TestTransitionOutcomeLabels(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTransition("confirm", nil)
	m.ObserveTransition("confirm", apperrors.New(apperrors.KindInvalidTransition, "x"))
	m.ObserveTransition("confirm", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", "invalid_transition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("confirm", "internal")))
}
