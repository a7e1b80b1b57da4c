package signals_test

import (
	"log"
	"testing"

	"github.com/delaneyj/stitch/signals"
	"github.com/stretchr/testify/assert"
)

// from README
func TestBasicUsage(t *testing.T) {
	rs := signals.CreateReactiveSystem(func(from signals.Handle, err error) {
		assert.FailNow(t, err.Error())
	})
	count := signals.Signal(rs, 1)
	doubleCount := signals.Computed(rs, func(oldValue int) int {
		return count.Value() * 2
	})

	stopEffect := signals.Effect(rs, func() error {
		log.Printf("Count is: %d", count.Value())
		return nil
	})
	defer stopEffect()

	assert.Equal(t, 2, doubleCount.Value())
	count.SetValue(2)
	assert.Equal(t, 4, doubleCount.Value())
}

// from README
func TestBasicEffect(t *testing.T) {
	rs := signals.CreateReactiveSystem(func(from signals.Handle, err error) {
		assert.FailNow(t, err.Error())
	})
	count := signals.Signal(rs, 1)

	stopScope := signals.EffectScope(rs, func() error {
		signals.Effect(rs, func() error {
			log.Printf("Count in scope: %d", count.Value())
			return nil
		}) // Console: Count in scope: 1
		count.SetValue(2) // Console: Count in scope: 2

		return nil
	})

	stopScope()
	count.SetValue(3) // No console output
}
