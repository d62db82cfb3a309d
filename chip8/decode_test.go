package chip8

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeKinds(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want Kind
	}{
		{"clear", 0x00E0, OpClear},
		{"return", 0x00EE, OpReturn},
		{"sys call is unknown", 0x0123, OpUnknown},
		{"jump", 0x1234, OpJump},
		{"call", 0x2345, OpCall},
		{"skip eq imm", 0x3A7F, OpSkipEqImm},
		{"skip ne imm", 0x4A7F, OpSkipNeImm},
		{"skip eq reg", 0x5AB0, OpSkipEqReg},
		{"skip eq reg bad nibble", 0x5AB1, OpUnknown},
		{"load imm", 0x6AFF, OpLoadImm},
		{"add imm", 0x7A01, OpAddImm},
		{"load reg", 0x8AB0, OpLoadReg},
		{"or", 0x8AB1, OpOr},
		{"and", 0x8AB2, OpAnd},
		{"xor", 0x8AB3, OpXor},
		{"add reg", 0x8AB4, OpAddReg},
		{"sub xy", 0x8AB5, OpSubXY},
		{"shift right", 0x8AB6, OpShiftR},
		{"sub yx", 0x8AB7, OpSubYX},
		{"shift left", 0x8ABE, OpShiftL},
		{"family 8 bad nibble", 0x8AB8, OpUnknown},
		{"skip ne reg", 0x9AB0, OpSkipNeReg},
		{"skip ne reg bad nibble", 0x9AB1, OpUnknown},
		{"load i", 0xA123, OpLoadI},
		{"jump v0", 0xB123, OpJumpV0},
		{"random", 0xCA55, OpRandom},
		{"draw", 0xDAB5, OpDraw},
		{"skip key", 0xEA9E, OpSkipKey},
		{"skip no key", 0xEAA1, OpSkipNoKey},
		{"family e bad byte", 0xEA9D, OpUnknown},
		{"read delay", 0xFA07, OpReadDelay},
		{"wait key", 0xFA0A, OpWaitKey},
		{"set delay", 0xFA15, OpSetDelay},
		{"set sound", 0xFA18, OpSetSound},
		{"add i", 0xFA1E, OpAddI},
		{"font addr", 0xFA29, OpFontAddr},
		{"bcd", 0xFA33, OpBCD},
		{"store regs", 0xFA55, OpStoreRegs},
		{"load regs", 0xFA65, OpLoadRegs},
		{"family f bad byte", 0xFA66, OpUnknown},
		{"zero word", 0x0000, OpUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Decode(tt.word)
			assert.Equal(t, tt.want, op.Kind)
			assert.Equal(t, tt.word, op.Word)
		})
	}
}

// Operand fields must match a plain bit-mask extraction for every
// possible instruction word.
func TestDecodeOperandFields(t *testing.T) {
	for word := 0; word <= 0xFFFF; word++ {
		op := Decode(uint16(word))

		if op.X != uint8(word>>8&0xF) {
			t.Fatalf("word %04X: X = %X, want %X", word, op.X, word>>8&0xF)
		}
		if op.Y != uint8(word>>4&0xF) {
			t.Fatalf("word %04X: Y = %X, want %X", word, op.Y, word>>4&0xF)
		}
		if op.N != uint8(word&0xF) {
			t.Fatalf("word %04X: N = %X, want %X", word, op.N, word&0xF)
		}
		if op.NN != uint8(word&0xFF) {
			t.Fatalf("word %04X: NN = %02X, want %02X", word, op.NN, word&0xFF)
		}
		if op.NNN != uint16(word&0xFFF) {
			t.Fatalf("word %04X: NNN = %03X, want %03X", word, op.NNN, word&0xFFF)
		}
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "CLS", OpClear.String())
	assert.Equal(t, "DRW", OpDraw.String())
	assert.Equal(t, "UNKNOWN", OpUnknown.String())
}
