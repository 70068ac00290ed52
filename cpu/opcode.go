package cpu

import (
	"fmt"
)

// CodeOp is the 4-bit opcode of an instruction.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_BR   = CodeOp(0)  // br
	OP_ADD  = CodeOp(1)  // add
	OP_LD   = CodeOp(2)  // ld
	OP_ST   = CodeOp(3)  // st
	OP_JSR  = CodeOp(4)  // jsr
	OP_AND  = CodeOp(5)  // and
	OP_LDR  = CodeOp(6)  // ldr
	OP_STR  = CodeOp(7)  // str
	OP_RTI  = CodeOp(8)  // rti
	OP_NOT  = CodeOp(9)  // not
	OP_LDI  = CodeOp(10) // ldi
	OP_STI  = CodeOp(11) // sti
	OP_JMP  = CodeOp(12) // jmp
	OP_RES  = CodeOp(13) // res
	OP_LEA  = CodeOp(14) // lea
	OP_TRAP = CodeOp(15) // trap

	OP_COUNT = 16 // Number of opcodes.
)

// CodeTrap is a trap vector.
type CodeTrap int

//go:generate go tool stringer -linecomment -type=CodeTrap
const (
	TRAP_GETC  = CodeTrap(0x20) // getc
	TRAP_OUT   = CodeTrap(0x21) // out
	TRAP_PUTS  = CodeTrap(0x22) // puts
	TRAP_IN    = CodeTrap(0x23) // in
	TRAP_PUTSP = CodeTrap(0x24) // putsp
	TRAP_HALT  = CodeTrap(0x25) // halt
)

// CodeReg is a general purpose register index.
type CodeReg int

//go:generate go tool stringer -linecomment -type=CodeReg
const (
	REG_R0 = CodeReg(0) // r0
	REG_R1 = CodeReg(1) // r1
	REG_R2 = CodeReg(2) // r2
	REG_R3 = CodeReg(3) // r3
	REG_R4 = CodeReg(4) // r4
	REG_R5 = CodeReg(5) // r5
	REG_R6 = CodeReg(6) // r6
	REG_R7 = CodeReg(7) // r7
)

// Instruction is a single 16-bit instruction word.
type Instruction uint16

func makeOp(op CodeOp, bits uint16) Instruction {
	return Instruction((uint16(op) << 12) | (bits & 0x0fff))
}

// MakeCodeReg creates a register form ADD or AND.
func MakeCodeReg(op CodeOp, dr, sr1, sr2 CodeReg) Instruction {
	return makeOp(op, (uint16(dr&7)<<9)|(uint16(sr1&7)<<6)|uint16(sr2&7))
}

// MakeCodeImm creates an immediate form ADD or AND.
func MakeCodeImm(op CodeOp, dr, sr1 CodeReg, imm5 int) Instruction {
	return makeOp(op, (uint16(dr&7)<<9)|(uint16(sr1&7)<<6)|(1<<5)|(uint16(imm5)&0x1f))
}

// MakeCodeNot creates a NOT.
func MakeCodeNot(dr, sr CodeReg) Instruction {
	return makeOp(OP_NOT, (uint16(dr&7)<<9)|(uint16(sr&7)<<6)|0x3f)
}

// MakeCodeBr creates a conditional branch.
func MakeCodeBr(nzp Flag, pcoffset9 int) Instruction {
	return makeOp(OP_BR, (uint16(nzp&FLAG_MASK)<<9)|(uint16(pcoffset9)&0x1ff))
}

// MakeCodePc creates a PC relative LD, LDI, LEA, ST or STI.
func MakeCodePc(op CodeOp, r CodeReg, pcoffset9 int) Instruction {
	return makeOp(op, (uint16(r&7)<<9)|(uint16(pcoffset9)&0x1ff))
}

// MakeCodeBase creates a base+offset LDR or STR.
func MakeCodeBase(op CodeOp, r, base CodeReg, offset6 int) Instruction {
	return makeOp(op, (uint16(r&7)<<9)|(uint16(base&7)<<6)|(uint16(offset6)&0x3f))
}

// MakeCodeJmp creates a JMP through a base register.
func MakeCodeJmp(base CodeReg) Instruction {
	return makeOp(OP_JMP, uint16(base&7)<<6)
}

// MakeCodeJsr creates a PC relative JSR.
func MakeCodeJsr(pcoffset11 int) Instruction {
	return makeOp(OP_JSR, (1<<11)|(uint16(pcoffset11)&0x7ff))
}

// MakeCodeJsrr creates a JSRR through a base register.
func MakeCodeJsrr(base CodeReg) Instruction {
	return makeOp(OP_JSR, uint16(base&7)<<6)
}

// MakeCodeTrap creates a TRAP.
func MakeCodeTrap(vector CodeTrap) Instruction {
	return makeOp(OP_TRAP, uint16(vector)&0xff)
}

// MakeCodeRti creates an RTI.
func MakeCodeRti() Instruction {
	return makeOp(OP_RTI, 0)
}

// Opcode returns the opcode from bits 15..12.
func (code Instruction) Opcode() CodeOp {
	return CodeOp((code >> 12) & 0xf)
}

// Dr returns the destination (or store source) register from bits 11..9.
func (code Instruction) Dr() CodeReg {
	return CodeReg((code >> 9) & 0x7)
}

// Sr1 returns the first source register from bits 8..6.
func (code Instruction) Sr1() CodeReg {
	return CodeReg((code >> 6) & 0x7)
}

// BaseR returns the base register of JMP, JSRR, LDR and STR.
// It shares bits 8..6 with Sr1.
func (code Instruction) BaseR() CodeReg {
	return code.Sr1()
}

// Sr2 returns the second source register from bits 2..0.
func (code Instruction) Sr2() CodeReg {
	return CodeReg(code & 0x7)
}

// ImmFlag reports bit 5, the immediate mode of ADD and AND.
func (code Instruction) ImmFlag() bool {
	return (code>>5)&1 == 1
}

// LongFlag reports bit 11, the PC relative mode of JSR.
func (code Instruction) LongFlag() bool {
	return (code>>11)&1 == 1
}

// Nzp returns the branch condition from bits 11..9.
func (code Instruction) Nzp() Flag {
	return Flag((code >> 9) & 0x7)
}

// Imm5 returns the raw imm5 field.
func (code Instruction) Imm5() uint16 {
	return uint16(code) & 0x1f
}

// Offset6 returns the raw offset6 field.
func (code Instruction) Offset6() uint16 {
	return uint16(code) & 0x3f
}

// PcOffset9 returns the raw PCoffset9 field.
func (code Instruction) PcOffset9() uint16 {
	return uint16(code) & 0x1ff
}

// PcOffset11 returns the raw PCoffset11 field.
func (code Instruction) PcOffset11() uint16 {
	return uint16(code) & 0x7ff
}

// TrapVect8 returns the trap vector.
func (code Instruction) TrapVect8() CodeTrap {
	return CodeTrap(code & 0xff)
}

// signed renders an offset field as a signed decimal.
func signed(value uint16, bits uint) string {
	return fmt.Sprintf("#%d", int16(Extend(value, bits)))
}

// String returns the assembly language representation of this instruction.
func (code Instruction) String() (out string) {
	op := code.Opcode()

	switch op {
	case OP_ADD, OP_AND:
		if code.ImmFlag() {
			out = fmt.Sprintf("%v %v, %v, %v", op, code.Dr(), code.Sr1(), signed(code.Imm5(), 5))
		} else {
			out = fmt.Sprintf("%v %v, %v, %v", op, code.Dr(), code.Sr1(), code.Sr2())
		}
	case OP_NOT:
		out = fmt.Sprintf("%v %v, %v", op, code.Dr(), code.Sr1())
	case OP_BR:
		nzp := code.Nzp()
		if nzp == 0 {
			out = "nop"
		} else {
			out = fmt.Sprintf("%v%v %v", op, nzp, signed(code.PcOffset9(), 9))
		}
	case OP_LD, OP_LDI, OP_LEA, OP_ST, OP_STI:
		out = fmt.Sprintf("%v %v, %v", op, code.Dr(), signed(code.PcOffset9(), 9))
	case OP_LDR, OP_STR:
		out = fmt.Sprintf("%v %v, %v, %v", op, code.Dr(), code.Sr1(), signed(code.Offset6(), 6))
	case OP_JMP:
		if code.Sr1() == REG_R7 {
			out = "ret"
		} else {
			out = fmt.Sprintf("%v %v", op, code.Sr1())
		}
	case OP_JSR:
		if code.LongFlag() {
			out = fmt.Sprintf("%v %v", op, signed(code.PcOffset11(), 11))
		} else {
			out = fmt.Sprintf("jsrr %v", code.Sr1())
		}
	case OP_TRAP:
		vector := code.TrapVect8()
		if vector >= TRAP_GETC && vector <= TRAP_HALT {
			out = vector.String()
		} else {
			out = fmt.Sprintf("%v x%02x", op, int(vector))
		}
	case OP_RTI:
		out = op.String()
	default:
		out = fmt.Sprintf(".fill x%04x", uint16(code))
	}

	return
}
