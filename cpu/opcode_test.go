package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtend(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		value    uint16
		bits     uint
		expected uint16
	}){
		{0x0f, 5, 0x000f},
		{0x10, 5, 0xfff0},
		{0x1f, 5, 0xffff},
		{0x3f, 6, 0xffff},
		{0x20, 6, 0xffe0},
		{0x0ff, 9, 0x00ff},
		{0x100, 9, 0xff00},
		{0x1ff, 9, 0xffff},
		{0x3ff, 11, 0x03ff},
		{0x400, 11, 0xfc00},
		{0xffe5, 5, 0x0005}, // bits above the field are ignored
		{0x8000, 16, 0x8000},
		{0x1234, 0, 0x1234},
	}

	for _, entry := range table {
		assert.Equal(entry.expected, Extend(entry.value, entry.bits), "%#x/%d", entry.value, entry.bits)
	}
}

func TestFlagOf(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(FLAG_ZRO, FlagOf(0))
	assert.Equal(FLAG_POS, FlagOf(1))
	assert.Equal(FLAG_POS, FlagOf(0x7fff))
	assert.Equal(FLAG_NEG, FlagOf(0x8000))
	assert.Equal(FLAG_NEG, FlagOf(0xffff))

	assert.Equal("nzp", FLAG_MASK.String())
	assert.Equal("n", FLAG_NEG.String())
	assert.Equal("zp", (FLAG_ZRO | FLAG_POS).String())
	assert.Equal("", Flag(0).String())
}

func TestInstructionFields(t *testing.T) {
	assert := assert.New(t)

	// ADD r3, r4, #-2
	code := Instruction(0x1000 | (3 << 9) | (4 << 6) | (1 << 5) | 0x1e)
	assert.Equal(OP_ADD, code.Opcode())
	assert.Equal(REG_R3, code.Dr())
	assert.Equal(REG_R4, code.Sr1())
	assert.Equal(REG_R4, code.BaseR())
	assert.True(code.ImmFlag())
	assert.Equal(uint16(0x1e), code.Imm5())
	assert.Equal(uint16(0xfffe), Extend(code.Imm5(), 5))

	// BRnp with all ones offset
	code = Instruction(0x0000 | (5 << 9) | 0x1ff)
	assert.Equal(OP_BR, code.Opcode())
	assert.Equal(FLAG_NEG|FLAG_POS, code.Nzp())
	assert.Equal(uint16(0x1ff), code.PcOffset9())

	// JSR, long form
	code = Instruction(0x4800 | 0x7ff)
	assert.True(code.LongFlag())
	assert.Equal(uint16(0x7ff), code.PcOffset11())

	// LDR r1, r2, #31
	code = Instruction(0x6000 | (1 << 9) | (2 << 6) | 0x1f)
	assert.Equal(uint16(0x1f), code.Offset6())

	// TRAP x25
	code = Instruction(0xf025)
	assert.Equal(TRAP_HALT, code.TrapVect8())
}

func TestInstructionMake(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code     Instruction
		expected uint16
		text     string
	}){
		{MakeCodeReg(OP_ADD, REG_R1, REG_R2, REG_R3), 0x1283, "add r1, r2, r3"},
		{MakeCodeImm(OP_ADD, REG_R1, REG_R2, -3), 0x12bd, "add r1, r2, #-3"},
		{MakeCodeImm(OP_AND, REG_R0, REG_R0, 0), 0x5020, "and r0, r0, #0"},
		{MakeCodeReg(OP_AND, REG_R7, REG_R6, REG_R5), 0x5f85, "and r7, r6, r5"},
		{MakeCodeNot(REG_R4, REG_R5), 0x997f, "not r4, r5"},
		{MakeCodeBr(FLAG_MASK, -5), 0x0ffb, "brnzp #-5"},
		{MakeCodeBr(FLAG_ZRO, 3), 0x0403, "brz #3"},
		{MakeCodeBr(0, 0), 0x0000, "nop"},
		{MakeCodePc(OP_LD, REG_R2, 1), 0x2401, "ld r2, #1"},
		{MakeCodePc(OP_LDI, REG_R0, -256), 0xa100, "ldi r0, #-256"},
		{MakeCodePc(OP_LEA, REG_R0, 255), 0xe0ff, "lea r0, #255"},
		{MakeCodePc(OP_ST, REG_R3, -1), 0x37ff, "st r3, #-1"},
		{MakeCodePc(OP_STI, REG_R1, 2), 0xb202, "sti r1, #2"},
		{MakeCodeBase(OP_LDR, REG_R1, REG_R6, -32), 0x63a0, "ldr r1, r6, #-32"},
		{MakeCodeBase(OP_STR, REG_R1, REG_R6, 31), 0x739f, "str r1, r6, #31"},
		{MakeCodeJmp(REG_R2), 0xc080, "jmp r2"},
		{MakeCodeJmp(REG_R7), 0xc1c0, "ret"},
		{MakeCodeJsr(-1024), 0x4c00, "jsr #-1024"},
		{MakeCodeJsrr(REG_R3), 0x40c0, "jsrr r3"},
		{MakeCodeTrap(TRAP_GETC), 0xf020, "getc"},
		{MakeCodeTrap(TRAP_HALT), 0xf025, "halt"},
		{MakeCodeTrap(CodeTrap(0x26)), 0xf026, "trap x26"},
		{MakeCodeRti(), 0x8000, "rti"},
		{Instruction(0xd123), 0xd123, ".fill xd123"},
	}

	for _, entry := range table {
		assert.Equal(entry.expected, uint16(entry.code), entry.text)
		assert.Equal(entry.text, entry.code.String())
	}
}
