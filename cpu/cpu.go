package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/lc3vm/io"
)

// Console is the keyboard and display attached to the CPU.
type Console io.Console

// Cpu is the simulation context for the LC-3 processor.
// It is the only user of its memory and registers while running.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory  Storage // Main memory.
	Console Console // Keyboard and display.

	Pc       uint16    // Program counter: address of the next instruction.
	Register [8]uint16 // Register bank.
	Cond     Flag      // Condition flags; exactly one is set.
	Running  bool      // Cleared by the HALT trap.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a reset CPU attached to memory and a console.
func NewCpu(memory Storage, console Console) (cpu *Cpu) {
	cpu = &Cpu{
		Memory:  memory,
		Console: console,
	}

	cpu.Reset()

	return
}

// Defines returns the memory map and trap vectors as assembler equates.
func Defines() iter.Seq2[string, string] {
	return func(yield func(key, value string) bool) {
		for _, defines := range []map[string]string{_memory_defines, _trap_defines} {
			for key, value := range maps.All(defines) {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc",
		"cond",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("x%04X", cpu.Pc)
		case "cond":
			strval = cpu.Cond.String()
		default:
			val := cpu.Register[byte(reg[1]-'0')]
			strval = fmt.Sprintf("x%04X (%d)", val, int16(val))
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset the CPU state.
// - Clears the registers.
// - Sets the PC to PC_START, and the condition to zero.
// - Zeros the tick counter, and marks the CPU running.
//
// Memory is left as-is, so images may be loaded before or after a reset.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Debug("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Pc = PC_START
	cpu.Cond = FLAG_ZRO
	cpu.Running = true
	cpu.Ticks = 0
}

// setRegister writes a result register, then updates the condition flags
// from the value written.
func (cpu *Cpu) setRegister(reg CodeReg, value uint16) {
	cpu.Register[reg] = value
	cpu.Cond = FlagOf(value)
}

// memRead reads memory on behalf of an instruction.
// A read of KBSR takes the device path, and polls the keyboard first.
func (cpu *Cpu) memRead(ctx context.Context, addr uint16) (value uint16, err error) {
	if addr == KBSR {
		err = cpu.pollKeyboard(ctx)
		if err != nil {
			return
		}
	}

	value = cpu.Memory.Read(addr)
	return
}

// memWrite writes memory. No address has write side effects.
func (cpu *Cpu) memWrite(addr uint16, value uint16) {
	cpu.Memory.Write(addr, value)
}

// pollKeyboard refreshes the keyboard device registers.
// If a key is pending it is moved to KBDR and KBSR is marked ready,
// otherwise KBSR is cleared.
func (cpu *Cpu) pollKeyboard(ctx context.Context) (err error) {
	if cpu.Console == nil || !cpu.Console.KeyAvailable() {
		cpu.Memory.Write(KBSR, 0)
		return
	}

	key, err := cpu.readChar(ctx)
	if err != nil {
		return
	}

	cpu.Memory.Write(KBSR, KBSR_READY)
	cpu.Memory.Write(KBDR, key)
	return
}

// FetchCode fetches the instruction at the PC.
func (cpu *Cpu) FetchCode(ctx context.Context) (code Instruction, err error) {
	if !cpu.Running {
		err = ErrHalted
		return
	}

	word, err := cpu.memRead(ctx, cpu.Pc)
	if err != nil {
		return
	}

	code = Instruction(word)
	return
}

// Tick executes a single CPU instruction cycle: fetch, increment the PC,
// then execute.
func (cpu *Cpu) Tick(ctx context.Context) (err error) {
	code, err := cpu.FetchCode(ctx)
	if err != nil {
		return
	}

	cpu.Pc++
	cpu.Ticks++

	err = cpu.Execute(ctx, code)
	return
}

// Execute executes a single decoded instruction. The PC must already
// point past the instruction, as all PC relative offsets are from there.
func (cpu *Cpu) Execute(ctx context.Context, code Instruction) (err error) {
	if cpu.Verbose {
		log.WithFields(log.Fields{
			"pc":    fmt.Sprintf("x%04X", cpu.Pc-1),
			"instr": fmt.Sprintf("x%04X", uint16(code)),
		}).Debug(code.String())
	}

	switch code.Opcode() {
	case OP_BR:
		if (code.Nzp() & cpu.Cond) != 0 {
			cpu.Pc += Extend(code.PcOffset9(), 9)
		}
	case OP_ADD:
		cpu.setRegister(code.Dr(), cpu.Register[code.Sr1()]+cpu.operand(code))
	case OP_LD:
		var value uint16
		value, err = cpu.memRead(ctx, cpu.Pc+Extend(code.PcOffset9(), 9))
		if err != nil {
			return
		}
		cpu.setRegister(code.Dr(), value)
	case OP_ST:
		cpu.memWrite(cpu.Pc+Extend(code.PcOffset9(), 9), cpu.Register[code.Dr()])
	case OP_JSR:
		cpu.Register[REG_R7] = cpu.Pc
		if code.LongFlag() {
			cpu.Pc += Extend(code.PcOffset11(), 11)
		} else {
			cpu.Pc = cpu.Register[code.BaseR()]
		}
	case OP_AND:
		cpu.setRegister(code.Dr(), cpu.Register[code.Sr1()]&cpu.operand(code))
	case OP_LDR:
		var value uint16
		value, err = cpu.memRead(ctx, cpu.Register[code.BaseR()]+Extend(code.Offset6(), 6))
		if err != nil {
			return
		}
		cpu.setRegister(code.Dr(), value)
	case OP_STR:
		cpu.memWrite(cpu.Register[code.BaseR()]+Extend(code.Offset6(), 6), cpu.Register[code.Dr()])
	case OP_RTI:
		err = errors.Join(ErrOpcode(code), ErrOpcodeRti)
	case OP_NOT:
		cpu.setRegister(code.Dr(), ^cpu.Register[code.Sr1()])
	case OP_LDI:
		var addr, value uint16
		addr, err = cpu.memRead(ctx, cpu.Pc+Extend(code.PcOffset9(), 9))
		if err != nil {
			return
		}
		value, err = cpu.memRead(ctx, addr)
		if err != nil {
			return
		}
		cpu.setRegister(code.Dr(), value)
	case OP_STI:
		var addr uint16
		addr, err = cpu.memRead(ctx, cpu.Pc+Extend(code.PcOffset9(), 9))
		if err != nil {
			return
		}
		cpu.memWrite(addr, cpu.Register[code.Dr()])
	case OP_JMP:
		cpu.Pc = cpu.Register[code.BaseR()]
	case OP_RES:
		err = errors.Join(ErrOpcode(code), ErrOpcodeReserved)
	case OP_LEA:
		cpu.setRegister(code.Dr(), cpu.Pc+Extend(code.PcOffset9(), 9))
	case OP_TRAP:
		cpu.Register[REG_R7] = cpu.Pc
		err = cpu.trap(ctx, code.TrapVect8())
		if errors.Is(err, ErrTrapVector) {
			err = errors.Join(ErrOpcode(code), err)
		}
	default:
		err = errors.Join(ErrOpcode(code), ErrOpcodeDecode)
	}

	return
}

// operand returns the second operand of ADD and AND: either the sign
// extended imm5, or SR2.
func (cpu *Cpu) operand(code Instruction) uint16 {
	if code.ImmFlag() {
		return Extend(code.Imm5(), 5)
	}

	return cpu.Register[code.Sr2()]
}
