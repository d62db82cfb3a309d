package chip8

import (
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// State is the run loop state.
type State int

const (
	// StateRunning means instructions are being fetched and executed.
	StateRunning State = iota

	// StateWaitKey means an FX0A instruction is blocked until any key
	// is pressed. Only instruction progress stalls; timers and input
	// keep running.
	StateWaitKey

	// StateHalted means the session has ended, either through the stop
	// signal or a fatal error.
	StateHalted
)

// runHz is the cadence of the run loop. Each tick executes a batch of
// instructions sized to the configured speed, which also bounds how
// quickly a blocked key wait polls the keypad.
const runHz = 60

// State returns the current run loop state.
func (vm *VM) State() State {
	return vm.state
}

// fetch reads the big-endian instruction word at the program counter and
// advances it.
func (vm *VM) fetch() (uint16, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: pc %04X", ErrAddress, vm.pc)
	}

	word := uint16(vm.memory[vm.pc])<<8 | uint16(vm.memory[vm.pc+1])
	vm.pc += 2

	return word, nil
}

// Step executes a single fetch-decode-execute cycle.
//
// When blocked on a key wait it polls the keypad instead: without a
// pressed key it returns immediately with no program counter progress,
// otherwise it stores the key and resumes. A halted machine does
// nothing.
func (vm *VM) Step() error {
	switch vm.state {
	case StateHalted:
		return nil

	case StateWaitKey:
		key, ok := vm.firstPressedKey()
		if !ok {
			return nil
		}
		vm.v[vm.waitReg] = key
		vm.state = StateRunning
		return nil
	}

	word, err := vm.fetch()
	if err != nil {
		vm.state = StateHalted
		return err
	}

	op := Decode(word)

	result, err := vm.exec(op)
	if err != nil {
		if errors.Is(err, ErrUnknownOpcode) && !vm.strict {
			// permissive mode: the fetch already advanced past the
			// word, so logging it skips it
			vm.log.Warn("skipping unknown opcode",
				log.String("opcode", fmt.Sprintf("%04X", op.Word)),
				log.String("pc", fmt.Sprintf("%04X", vm.pc-2)),
			)
			return nil
		}
		vm.state = StateHalted
		return err
	}

	if result == outcomeWaitKey {
		vm.state = StateWaitKey
		vm.waitReg = op.X
	}

	return nil
}

// Run drives the fetch-decode-execute cycle until the stop signal is
// raised or a fatal error halts the machine. It is meant to run on its
// own goroutine alongside RunTimers and the input collaborator.
func (vm *VM) Run() error {
	vm.log.Info("starting emulation",
		log.Int("speed", vm.Speed()),
		log.String("strict", fmt.Sprintf("%t", vm.strict)),
	)

	tick := time.NewTicker(time.Second / runHz)
	defer tick.Stop()

	for {
		select {
		case <-vm.stop:
			vm.state = StateHalted
			vm.log.Info("emulation stopped")
			return nil

		case <-tick.C:
			if vm.resetReq.Swap(false) {
				vm.log.Info("rebooting")
				vm.Reset()
			}

			if vm.paused.Load() {
				continue
			}

			// execute this tick's share of the configured speed
			batch := vm.Speed() / runHz
			if batch < 1 {
				batch = 1
			}

			for i := 0; i < batch; i++ {
				if err := vm.Step(); err != nil {
					vm.Stop()
					return err
				}

				// a blocked key wait polls once per tick instead of
				// spinning through the rest of the batch
				if vm.state != StateRunning {
					break
				}
			}
		}
	}
}
