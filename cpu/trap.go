package cpu

import (
	"context"
	"errors"
	"io"
	"iter"

	log "github.com/sirupsen/logrus"
)

// HALT_MESSAGE is written to the console by the HALT trap.
const HALT_MESSAGE = "HALT AND CATCH FIRE\n"

// IN_PROMPT is written to the console by the IN trap before reading.
const IN_PROMPT = "enter a char: "

// KEY_EOF is the key value delivered once console input is exhausted.
const KEY_EOF = uint16(0xFFFF)

var _trap_defines = map[string]string{
	"TRAP_GETC":  "0x20",
	"TRAP_OUT":   "0x21",
	"TRAP_PUTS":  "0x22",
	"TRAP_IN":    "0x23",
	"TRAP_PUTSP": "0x24",
	"TRAP_HALT":  "0x25",
}

// trap runs the host implementation of a trap service routine.
// R7 has already been loaded with the return address.
func (cpu *Cpu) trap(ctx context.Context, vector CodeTrap) (err error) {
	switch vector {
	case TRAP_GETC:
		var key uint16
		key, err = cpu.readChar(ctx)
		if err != nil {
			return
		}
		cpu.setRegister(REG_R0, key)
	case TRAP_OUT:
		err = cpu.output(byte(cpu.Register[REG_R0]))
	case TRAP_PUTS:
		var text []byte
		for word := range cpu.stringAt(cpu.Register[REG_R0]) {
			text = append(text, byte(word))
		}
		err = cpu.output(text...)
	case TRAP_IN:
		err = cpu.output([]byte(IN_PROMPT)...)
		if err != nil {
			return
		}
		var key uint16
		key, err = cpu.readChar(ctx)
		if err != nil {
			return
		}
		if key != KEY_EOF {
			err = cpu.output(byte(key))
			if err != nil {
				return
			}
		}
		cpu.setRegister(REG_R0, key)
	case TRAP_PUTSP:
		var text []byte
		for word := range cpu.stringAt(cpu.Register[REG_R0]) {
			text = append(text, byte(word))
			if high := byte(word >> 8); high != 0 {
				text = append(text, high)
			}
		}
		err = cpu.output(text...)
	case TRAP_HALT:
		if cpu.Verbose {
			log.WithField("ticks", cpu.Ticks).Debug("cpu: halt")
		}
		err = cpu.output([]byte(HALT_MESSAGE)...)
		cpu.Running = false
	default:
		err = errors.Join(ErrTrapVector, ErrTrap(vector))
	}

	return
}

// stringAt yields the words of the zero terminated string at addr.
// Reads are plain memory reads; the device registers are not polled.
func (cpu *Cpu) stringAt(addr uint16) iter.Seq[uint16] {
	return func(yield func(word uint16) bool) {
		for range MEMORY_SIZE {
			word := cpu.Memory.Read(addr)
			if word == 0 {
				return
			}
			if !yield(word) {
				return
			}
			addr++
		}
	}
}

// readChar reads a key from the console. Exhausted input reads as KEY_EOF.
func (cpu *Cpu) readChar(ctx context.Context) (key uint16, err error) {
	if cpu.Console == nil {
		err = ErrConsoleNone
		return
	}

	ch, err := cpu.Console.ReadChar(ctx)
	if errors.Is(err, io.EOF) {
		key = KEY_EOF
		err = nil
		return
	}
	if err != nil {
		err = errors.Join(ErrConsoleIn, err)
		return
	}

	key = uint16(ch)
	return
}

// output writes to the console, and flushes it.
func (cpu *Cpu) output(data ...byte) (err error) {
	if cpu.Console == nil {
		err = ErrConsoleNone
		return
	}

	_, err = cpu.Console.Write(data)
	if err == nil {
		err = cpu.Console.Flush()
	}
	if err != nil {
		err = errors.Join(ErrConsoleOut, err)
	}

	return
}
