package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDefaultIsSingleton(t *testing.T) {
	a := Default()
	b := Default()
	assert.Same(t, a, b)
}

func TestCounters(t *testing.T) {
	m := New()
	m.Transitions.WithLabelValues("PENDING", "CONFIRMED", "SYSTEM").Inc()
	m.HoldConflicts.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transitions.WithLabelValues("PENDING", "CONFIRMED", "SYSTEM")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HoldConflicts))
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}
