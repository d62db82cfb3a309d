package chip8

import "fmt"

// Kind identifies one CHIP-8 operation.
type Kind int

const (
	// OpUnknown marks an instruction word with no known operation.
	OpUnknown Kind = iota

	OpClear     // 00E0 clear the display
	OpReturn    // 00EE return from subroutine
	OpJump      // 1NNN jump to address
	OpCall      // 2NNN call subroutine
	OpSkipEqImm // 3XNN skip next if vx == nn
	OpSkipNeImm // 4XNN skip next if vx != nn
	OpSkipEqReg // 5XY0 skip next if vx == vy
	OpLoadImm   // 6XNN vx = nn
	OpAddImm    // 7XNN vx += nn, no carry
	OpLoadReg   // 8XY0 vx = vy
	OpOr        // 8XY1 vx |= vy
	OpAnd       // 8XY2 vx &= vy
	OpXor       // 8XY3 vx ^= vy
	OpAddReg    // 8XY4 vx += vy, vf = carry
	OpSubXY     // 8XY5 vx -= vy, vf = no borrow
	OpShiftR    // 8XY6 vf = vx & 1, vx >>= 1
	OpSubYX     // 8XY7 vx = vy - vx, vf = no borrow
	OpShiftL    // 8XYE vf = vx >> 7, vx <<= 1
	OpSkipNeReg // 9XY0 skip next if vx != vy
	OpLoadI     // ANNN i = nnn
	OpJumpV0    // BNNN jump to nnn + v0
	OpRandom    // CXNN vx = random & nn
	OpDraw      // DXYN draw n-row sprite at vx,vy, vf = collision
	OpSkipKey   // EX9E skip next if key(vx) pressed
	OpSkipNoKey // EXA1 skip next if key(vx) not pressed
	OpReadDelay // FX07 vx = delay timer
	OpWaitKey   // FX0A block until a key press, vx = key
	OpSetDelay  // FX15 delay timer = vx
	OpSetSound  // FX18 sound timer = vx
	OpAddI      // FX1E i += vx
	OpFontAddr  // FX29 i = font glyph address for vx
	OpBCD       // FX33 memory[i..i+2] = bcd of vx
	OpStoreRegs // FX55 memory[i..i+x] = v0..vx
	OpLoadRegs  // FX65 v0..vx = memory[i..i+x]
)

var kindNames = map[Kind]string{
	OpUnknown:   "UNKNOWN",
	OpClear:     "CLS",
	OpReturn:    "RET",
	OpJump:      "JP",
	OpCall:      "CALL",
	OpSkipEqImm: "SE",
	OpSkipNeImm: "SNE",
	OpSkipEqReg: "SE",
	OpLoadImm:   "LD",
	OpAddImm:    "ADD",
	OpLoadReg:   "LD",
	OpOr:        "OR",
	OpAnd:       "AND",
	OpXor:       "XOR",
	OpAddReg:    "ADD",
	OpSubXY:     "SUB",
	OpShiftR:    "SHR",
	OpSubYX:     "SUBN",
	OpShiftL:    "SHL",
	OpSkipNeReg: "SNE",
	OpLoadI:     "LD I",
	OpJumpV0:    "JP V0",
	OpRandom:    "RND",
	OpDraw:      "DRW",
	OpSkipKey:   "SKP",
	OpSkipNoKey: "SKNP",
	OpReadDelay: "LD DT",
	OpWaitKey:   "LD K",
	OpSetDelay:  "LD DT",
	OpSetSound:  "LD ST",
	OpAddI:      "ADD I",
	OpFontAddr:  "LD F",
	OpBCD:       "LD B",
	OpStoreRegs: "LD [I]",
	OpLoadRegs:  "LD V",
}

// String returns the conventional mnemonic for the operation.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Op is a decoded instruction. The operand fields are always extracted
// from their fixed bit positions regardless of Kind; only the fields the
// operation defines are meaningful.
type Op struct {
	Kind Kind

	// Word is the raw instruction word the operation was decoded from.
	Word uint16

	// X and Y are the register operands.
	X uint8
	Y uint8

	// N is the low nibble, NN the immediate byte, NNN the 12-bit
	// address operand.
	N   uint8
	NN  uint8
	NNN uint16
}

// Decode maps a 16-bit instruction word to its operation. Decoding is
// total: words that encode no known operation come back as OpUnknown.
func Decode(word uint16) Op {
	op := Op{
		Kind: OpUnknown,
		Word: word,
		X:    uint8(word >> 8 & 0xF),
		Y:    uint8(word >> 4 & 0xF),
		N:    uint8(word & 0xF),
		NN:   uint8(word & 0xFF),
		NNN:  word & 0xFFF,
	}

	switch word >> 12 {
	case 0x0:
		// native RCA 1802 calls (0NNN) are not supported and stay
		// unknown
		switch word {
		case 0x00E0:
			op.Kind = OpClear
		case 0x00EE:
			op.Kind = OpReturn
		}
	case 0x1:
		op.Kind = OpJump
	case 0x2:
		op.Kind = OpCall
	case 0x3:
		op.Kind = OpSkipEqImm
	case 0x4:
		op.Kind = OpSkipNeImm
	case 0x5:
		if op.N == 0 {
			op.Kind = OpSkipEqReg
		}
	case 0x6:
		op.Kind = OpLoadImm
	case 0x7:
		op.Kind = OpAddImm
	case 0x8:
		switch op.N {
		case 0x0:
			op.Kind = OpLoadReg
		case 0x1:
			op.Kind = OpOr
		case 0x2:
			op.Kind = OpAnd
		case 0x3:
			op.Kind = OpXor
		case 0x4:
			op.Kind = OpAddReg
		case 0x5:
			op.Kind = OpSubXY
		case 0x6:
			op.Kind = OpShiftR
		case 0x7:
			op.Kind = OpSubYX
		case 0xE:
			op.Kind = OpShiftL
		}
	case 0x9:
		if op.N == 0 {
			op.Kind = OpSkipNeReg
		}
	case 0xA:
		op.Kind = OpLoadI
	case 0xB:
		op.Kind = OpJumpV0
	case 0xC:
		op.Kind = OpRandom
	case 0xD:
		op.Kind = OpDraw
	case 0xE:
		switch op.NN {
		case 0x9E:
			op.Kind = OpSkipKey
		case 0xA1:
			op.Kind = OpSkipNoKey
		}
	case 0xF:
		switch op.NN {
		case 0x07:
			op.Kind = OpReadDelay
		case 0x0A:
			op.Kind = OpWaitKey
		case 0x15:
			op.Kind = OpSetDelay
		case 0x18:
			op.Kind = OpSetSound
		case 0x1E:
			op.Kind = OpAddI
		case 0x29:
			op.Kind = OpFontAddr
		case 0x33:
			op.Kind = OpBCD
		case 0x55:
			op.Kind = OpStoreRegs
		case 0x65:
			op.Kind = OpLoadRegs
		}
	}

	return op
}
