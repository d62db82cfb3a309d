package chip8

import "fmt"

// outcome is the control-flow effect of executing one operation. The
// fetch has already advanced the program counter past the instruction,
// so outcomeNext means fall through to the following instruction.
type outcome int

const (
	outcomeNext outcome = iota

	// outcomeJumped means the operation set the program counter
	// explicitly.
	outcomeJumped

	// outcomeSkipped means the operation skipped the following
	// instruction.
	outcomeSkipped

	// outcomeWaitKey means the operation blocks until a key is
	// pressed. The run loop parks without re-fetching; the program
	// counter stays past the instruction so it advances exactly once.
	outcomeWaitKey
)

// exec applies one decoded operation to the machine state and reports
// the control-flow effect.
func (vm *VM) exec(op Op) (outcome, error) {
	switch op.Kind {
	case OpClear:
		vm.clearVideo()
	case OpReturn:
		return outcomeJumped, vm.ret()
	case OpJump:
		vm.pc = op.NNN
		return outcomeJumped, nil
	case OpCall:
		return outcomeJumped, vm.call(op.NNN)
	case OpSkipEqImm:
		if vm.v[op.X] == op.NN {
			return vm.skip()
		}
	case OpSkipNeImm:
		if vm.v[op.X] != op.NN {
			return vm.skip()
		}
	case OpSkipEqReg:
		if vm.v[op.X] == vm.v[op.Y] {
			return vm.skip()
		}
	case OpLoadImm:
		vm.v[op.X] = op.NN
	case OpAddImm:
		// no carry flag on the immediate form
		vm.v[op.X] += op.NN
	case OpLoadReg:
		vm.v[op.X] = vm.v[op.Y]
	case OpOr:
		vm.v[op.X] |= vm.v[op.Y]
	case OpAnd:
		vm.v[op.X] &= vm.v[op.Y]
	case OpXor:
		vm.v[op.X] ^= vm.v[op.Y]
	case OpAddReg:
		vm.addXY(op.X, op.Y)
	case OpSubXY:
		vm.subXY(op.X, op.Y)
	case OpShiftR:
		vm.shr(op.X)
	case OpSubYX:
		vm.subYX(op.X, op.Y)
	case OpShiftL:
		vm.shl(op.X)
	case OpSkipNeReg:
		if vm.v[op.X] != vm.v[op.Y] {
			return vm.skip()
		}
	case OpLoadI:
		vm.i = op.NNN
	case OpJumpV0:
		vm.pc = (op.NNN + uint16(vm.v[0])) & 0xFFF
		return outcomeJumped, nil
	case OpRandom:
		vm.v[op.X] = byte(vm.rand.Intn(256)) & op.NN
	case OpDraw:
		return outcomeNext, vm.draw(op.X, op.Y, op.N)
	case OpSkipKey:
		if vm.KeyPressed(vm.v[op.X] & 0xF) {
			return vm.skip()
		}
	case OpSkipNoKey:
		if !vm.KeyPressed(vm.v[op.X] & 0xF) {
			return vm.skip()
		}
	case OpReadDelay:
		vm.v[op.X] = vm.DelayTimer()
	case OpWaitKey:
		if key, ok := vm.firstPressedKey(); ok {
			vm.v[op.X] = key
			return outcomeNext, nil
		}
		return outcomeWaitKey, nil
	case OpSetDelay:
		vm.delay.Store(uint32(vm.v[op.X]))
	case OpSetSound:
		vm.sound.Store(uint32(vm.v[op.X]))
	case OpAddI:
		vm.i = (vm.i + uint16(vm.v[op.X])) & 0xFFF
	case OpFontAddr:
		vm.i = uint16(vm.v[op.X]&0xF) * fontGlyphSize
	case OpBCD:
		return outcomeNext, vm.bcd(op.X)
	case OpStoreRegs:
		return outcomeNext, vm.storeRegs(op.X)
	case OpLoadRegs:
		return outcomeNext, vm.loadRegs(op.X)
	default:
		return outcomeNext, fmt.Errorf("%w: %04X at %04X",
			ErrUnknownOpcode, op.Word, vm.pc-2)
	}

	return outcomeNext, nil
}

// skip the next instruction.
func (vm *VM) skip() (outcome, error) {
	vm.pc += 2
	return outcomeSkipped, nil
}

// call a subroutine, pushing the return address.
func (vm *VM) call(address uint16) error {
	if vm.sp == stackDepth {
		return fmt.Errorf("%w: call depth %d at %04X",
			ErrStackOverflow, stackDepth, vm.pc-2)
	}

	// pc already points past the call instruction
	vm.stack[vm.sp] = vm.pc
	vm.sp++
	vm.pc = address

	return nil
}

// ret pops the return address into the program counter.
func (vm *VM) ret() error {
	if vm.sp == 0 {
		return fmt.Errorf("%w: return at %04X", ErrStackUnderflow, vm.pc-2)
	}

	vm.sp--
	vm.pc = vm.stack[vm.sp]

	return nil
}

// addXY adds vy to vx, vf = 1 on unsigned overflow.
func (vm *VM) addXY(x, y uint8) {
	sum := uint16(vm.v[x]) + uint16(vm.v[y])
	vm.v[x] = byte(sum)

	if sum > 0xFF {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}
}

// subXY subtracts vy from vx, vf = 1 when no borrow occurs.
func (vm *VM) subXY(x, y uint8) {
	borrow := vm.v[y] > vm.v[x]
	vm.v[x] -= vm.v[y]

	if borrow {
		vm.v[0xF] = 0
	} else {
		vm.v[0xF] = 1
	}
}

// subYX stores vy minus vx in vx, vf = 1 when no borrow occurs.
func (vm *VM) subYX(x, y uint8) {
	borrow := vm.v[x] > vm.v[y]
	vm.v[x] = vm.v[y] - vm.v[x]

	if borrow {
		vm.v[0xF] = 0
	} else {
		vm.v[0xF] = 1
	}
}

// shr shifts vx right one bit, vf = the bit shifted out.
func (vm *VM) shr(x uint8) {
	bit := vm.v[x] & 1
	vm.v[x] >>= 1
	vm.v[0xF] = bit
}

// shl shifts vx left one bit, vf = the bit shifted out.
func (vm *VM) shl(x uint8) {
	bit := vm.v[x] >> 7
	vm.v[x] <<= 1
	vm.v[0xF] = bit
}

// clearVideo zeroes the display buffer.
func (vm *VM) clearVideo() {
	vm.videoMu.Lock()
	vm.video = [VideoSize]byte{}
	vm.videoMu.Unlock()
}

// draw XORs an n-row sprite from memory at i onto the display at vx,vy.
// Coordinates wrap modulo the display dimensions. vf = 1 if any pixel
// was turned off by the draw.
func (vm *VM) draw(x, y, n uint8) error {
	if int(vm.i)+int(n) > MemorySize {
		return fmt.Errorf("%w: sprite %04X+%d", ErrAddress, vm.i, n)
	}

	vm.videoMu.Lock()
	defer vm.videoMu.Unlock()

	collision := false

	for row := 0; row < int(n); row++ {
		sprite := vm.memory[int(vm.i)+row]
		py := (int(vm.v[y]) + row) % DisplayHeight

		for bit := 0; bit < 8; bit++ {
			if sprite&(0x80>>uint(bit)) == 0 {
				continue
			}

			px := (int(vm.v[x]) + bit) % DisplayWidth
			p := py*DisplayWidth + px
			mask := byte(0x80) >> uint(p&7)

			if vm.video[p>>3]&mask != 0 {
				collision = true
			}
			vm.video[p>>3] ^= mask
		}
	}

	if collision {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}

	return nil
}

// bcd writes the decimal digits of vx to memory at i, i+1, i+2.
func (vm *VM) bcd(x uint8) error {
	if int(vm.i)+2 >= MemorySize {
		return fmt.Errorf("%w: bcd at %04X", ErrAddress, vm.i)
	}

	value := vm.v[x]
	vm.memory[vm.i] = value / 100
	vm.memory[vm.i+1] = value / 10 % 10
	vm.memory[vm.i+2] = value % 10

	return nil
}

// storeRegs writes v0..vx inclusive to memory starting at i.
func (vm *VM) storeRegs(x uint8) error {
	if int(vm.i)+int(x) >= MemorySize {
		return fmt.Errorf("%w: store v0..v%X at %04X", ErrAddress, x, vm.i)
	}

	for r := 0; r <= int(x); r++ {
		vm.memory[int(vm.i)+r] = vm.v[r]
	}

	return nil
}

// loadRegs reads v0..vx inclusive from memory starting at i.
func (vm *VM) loadRegs(x uint8) error {
	if int(vm.i)+int(x) >= MemorySize {
		return fmt.Errorf("%w: load v0..v%X at %04X", ErrAddress, x, vm.i)
	}

	for r := 0; r <= int(x); r++ {
		vm.v[r] = vm.memory[int(vm.i)+r]
	}

	return nil
}
