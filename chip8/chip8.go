// Package chip8 implements the CHIP-8 virtual machine: memory, registers,
// timers, keypad and display state, instruction decoding and execution, and
// the run loop that drives them.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	// MemorySize is the addressable memory of the CHIP-8 (4KB).
	MemorySize = 0x1000

	// ProgramStart is the address programs are loaded at and begin
	// execution from. Everything below it is reserved for the
	// interpreter and the font sprites.
	ProgramStart = 0x200

	// DisplayWidth and DisplayHeight are the monochrome display
	// dimensions in pixels.
	DisplayWidth  = 64
	DisplayHeight = 32

	// VideoSize is the size of the bit-packed video memory in bytes.
	// Pixels are stored MSB first: pixel <0,0> is bit 0x80 of byte 0.
	VideoSize = DisplayWidth * DisplayHeight / 8

	// stackDepth is the maximum subroutine call nesting.
	stackDepth = 16

	// NumKeys is the number of keys on the hex keypad.
	NumKeys = 16
)

// Execution speed bounds in instructions per second. The clock of the
// original interpreter is estimated at around 500-700 instructions per
// second and most programs are tuned for that range.
const (
	DefaultSpeed = 700
	minSpeed     = 60
	maxSpeed     = 5000
)

var (
	// ErrROMTooLarge is returned when a program does not fit in the
	// memory above the reserved region.
	ErrROMTooLarge = errors.New("program too large")

	// ErrStackOverflow is returned when a subroutine call exceeds the
	// maximum call depth.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrStackUnderflow is returned when returning with an empty call
	// stack.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrAddress is returned when the program counter or a memory
	// operand resolves outside of addressable memory.
	ErrAddress = errors.New("address out of range")

	// ErrUnknownOpcode is returned for instruction words that do not
	// decode to a known operation.
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// VM is a CHIP-8 virtual machine.
//
// Ownership of the mutable state is split between three tasks: the run
// loop owns memory, registers, stack, program counter and video; the
// timer task decrements the delay and sound timers; the input collaborator
// writes the keypad state. The fields crossing task boundaries (timers,
// keypad) are atomics, video is read through a mutex-guarded snapshot.
type VM struct {
	// rom is the pristine memory image as loaded, restored on Reset.
	rom [MemorySize]byte

	// memory is the addressable memory. The first 512 bytes hold the
	// font sprites, the program starts at 0x200.
	memory [MemorySize]byte

	// video is the bit-packed 64x32 display buffer.
	video   [VideoSize]byte
	videoMu sync.Mutex

	// pc is the program counter, i the address register.
	pc uint16
	i  uint16

	// v are the 16 virtual registers. VF doubles as the
	// carry/borrow/collision flag.
	v [16]byte

	// stack holds subroutine return addresses.
	stack [stackDepth]uint16
	sp    int

	// delay and sound timers, decremented at 60 Hz by the timer task.
	delay atomic.Uint32
	sound atomic.Uint32

	// keys is the keypad state as a bitmask, one bit per hex key,
	// written by the input collaborator.
	keys atomic.Uint32

	// state tracks the run loop, only touched by the run loop itself.
	state State

	// waitReg is the register an FX0A instruction is waiting to fill.
	waitReg uint8

	// speed is the execution speed in instructions per second. It can
	// be adjusted from the front end while the run loop reads it.
	speed atomic.Int64

	// paused suspends instruction stepping without stopping the
	// session. Timers and input keep running.
	paused atomic.Bool

	// resetReq defers a reset request to the run loop, which owns the
	// state a reset rewrites.
	resetReq atomic.Bool

	// strict escalates unknown opcodes from a logged skip to a fatal
	// error.
	strict bool

	rand *rand.Rand
	log  *log.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// LoadROM creates a new virtual machine with the given program loaded at
// ProgramStart and the font sprites in low memory.
func LoadROM(program []byte, logger *log.Logger) (*VM, error) {
	if len(program) > MemorySize-ProgramStart {
		return nil, fmt.Errorf("%w: %d bytes for %d available",
			ErrROMTooLarge, len(program), MemorySize-ProgramStart)
	}

	vm := &VM{
		log:  logger,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		stop: make(chan struct{}),
	}
	vm.speed.Store(DefaultSpeed)

	// build the pristine memory image: font sprites, then the program
	copy(vm.rom[:], fontSprites[:])
	copy(vm.rom[ProgramStart:], program)

	vm.Reset()

	return vm, nil
}

// LoadFile reads a ROM file and returns a new virtual machine.
func LoadFile(file string, logger *log.Logger) (*VM, error) {
	program, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}

	vm, err := LoadROM(program, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded rom",
		log.String("file", file),
		log.Int("bytes", len(program)),
	)

	return vm, nil
}

// Reset restores the virtual machine to its freshly loaded state. It must
// only be called before Run or from the run loop itself; the front end
// requests a reboot through RequestReset.
func (vm *VM) Reset() {
	vm.memory = vm.rom

	vm.videoMu.Lock()
	vm.video = [VideoSize]byte{}
	vm.videoMu.Unlock()

	vm.pc = ProgramStart
	vm.sp = 0
	vm.i = 0
	vm.v = [16]byte{}

	vm.delay.Store(0)
	vm.sound.Store(0)
	vm.keys.Store(0)

	vm.state = StateRunning
	vm.waitReg = 0
}

// SetStrict sets the unknown opcode policy. Strict mode halts the session
// on an unrecognized instruction, the default logs it and skips.
func (vm *VM) SetStrict(strict bool) {
	vm.strict = strict
}

// SetSpeed sets the execution speed in instructions per second, clamped
// to a sensible range.
func (vm *VM) SetSpeed(ips int) {
	if ips < minSpeed {
		ips = minSpeed
	}
	if ips > maxSpeed {
		ips = maxSpeed
	}
	vm.speed.Store(int64(ips))
}

// Speed returns the execution speed in instructions per second.
func (vm *VM) Speed() int {
	return int(vm.speed.Load())
}

// IncSpeed raises the execution speed.
func (vm *VM) IncSpeed() {
	vm.SetSpeed(vm.Speed() + 100)
}

// DecSpeed lowers the execution speed.
func (vm *VM) DecSpeed() {
	vm.SetSpeed(vm.Speed() - 100)
}

// TogglePause suspends or resumes instruction stepping.
func (vm *VM) TogglePause() {
	vm.paused.Store(!vm.paused.Load())
}

// Paused reports whether instruction stepping is suspended.
func (vm *VM) Paused() bool {
	return vm.paused.Load()
}

// RequestReset asks the run loop to reboot the machine at the next
// opportunity.
func (vm *VM) RequestReset() {
	vm.resetReq.Store(true)
}

// PressKey records a CHIP-8 key being pressed.
func (vm *VM) PressKey(key uint8) {
	if key >= NumKeys {
		return
	}
	bit := uint32(1) << key
	for {
		old := vm.keys.Load()
		if vm.keys.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

// ReleaseKey records a CHIP-8 key being released.
func (vm *VM) ReleaseKey(key uint8) {
	if key >= NumKeys {
		return
	}
	bit := uint32(1) << key
	for {
		old := vm.keys.Load()
		if vm.keys.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// KeyPressed reports whether a CHIP-8 key is currently held.
func (vm *VM) KeyPressed(key uint8) bool {
	if key >= NumKeys {
		return false
	}
	return vm.keys.Load()&(1<<key) != 0
}

// firstPressedKey returns the lowest pressed key index, if any.
func (vm *VM) firstPressedKey() (uint8, bool) {
	mask := vm.keys.Load()
	for key := uint8(0); key < NumKeys; key++ {
		if mask&(1<<key) != 0 {
			return key, true
		}
	}
	return 0, false
}

// DelayTimer returns the current delay timer value.
func (vm *VM) DelayTimer() byte {
	return byte(vm.delay.Load())
}

// SoundTimer returns the current sound timer value. A non-zero value
// means the tone is active; the audio collaborator polls this.
func (vm *VM) SoundTimer() byte {
	return byte(vm.sound.Load())
}

// VideoSnapshot returns a copy of the bit-packed display buffer, safe to
// read while the run loop keeps drawing.
func (vm *VM) VideoSnapshot() [VideoSize]byte {
	vm.videoMu.Lock()
	defer vm.videoMu.Unlock()
	return vm.video
}

// Pixel reports whether the pixel at x,y is set. Coordinates outside
// the display report false. Intended for tests and inspection, the
// renderer works from VideoSnapshot.
func (vm *VM) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}

	vm.videoMu.Lock()
	defer vm.videoMu.Unlock()
	p := y*DisplayWidth + x
	return vm.video[p>>3]&(0x80>>uint(p&7)) != 0
}

// Stop raises the session stop signal. All tasks observe it within one
// of their own tick or poll periods and exit. Safe to call more than
// once and from any goroutine.
func (vm *VM) Stop() {
	vm.stopOnce.Do(func() {
		close(vm.stop)
	})
}

// Stopped reports whether the stop signal has been raised.
func (vm *VM) Stopped() bool {
	select {
	case <-vm.stop:
		return true
	default:
		return false
	}
}
