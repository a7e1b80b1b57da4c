package signals_test

import (
	"testing"

	"github.com/delaneyj/stitch/signals"
	"github.com/stretchr/testify/assert"
)

// should pause tracking
func TestShouldPauseTracking(t *testing.T) {
	rs := signals.CreateReactiveSystem(func(from signals.Handle, err error) {
		t.FailNow()
	})

	src := signals.Signal(rs, 0)
	c := signals.Computed(rs, func(oldValue int) int {
		rs.PauseTracking()
		value := src.Value()
		rs.ResumeTracking()
		return value
	})
	actualC := c.Value()
	assert.Equal(t, 0, actualC)

	src.SetValue(1)
	actualC = c.Value()
	assert.Equal(t, 0, actualC)
}
