package chip8

import (
	"sync/atomic"
	"time"
)

// timerHz is the fixed decrement rate of the delay and sound timers.
const timerHz = 60

// RunTimers decrements the delay and sound timers toward zero at 60 Hz
// until the stop signal is raised. It is the only decrementer of the
// timers; the instruction engine stores new values concurrently, so the
// decrement has to be a compare-and-swap.
func (vm *VM) RunTimers() {
	tick := time.NewTicker(time.Second / timerHz)
	defer tick.Stop()

	for {
		select {
		case <-vm.stop:
			return
		case <-tick.C:
			vm.tickTimers()
		}
	}
}

// tickTimers performs one 60 Hz tick.
func (vm *VM) tickTimers() {
	decrement(&vm.delay)
	decrement(&vm.sound)
}

// decrement lowers a timer by one, clamped at zero. A failed swap means
// the engine stored a new value between the load and the swap; the new
// value wins and starts counting down on the following tick.
func decrement(t *atomic.Uint32) {
	v := t.Load()
	if v == 0 {
		return
	}
	t.CompareAndSwap(v, v-1)
}
