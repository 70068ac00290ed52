package cpu

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/lc3vm/io"
)

func TestTrap(t *testing.T) {
	table := [](struct {
		name   string
		vector CodeTrap
		input  string
		setup  func(cpu *Cpu, mem *Memory)
		output string
		r0     uint16
		cond   Flag
	}){
		{"getc", TRAP_GETC, "x", nil, "", 'x', FLAG_POS},
		{"getc_eof", TRAP_GETC, "", nil, "", KEY_EOF, FLAG_NEG},
		{"out", TRAP_OUT, "",
			func(cpu *Cpu, mem *Memory) {
				cpu.Register[0] = 0x125a
			}, "Z", 0x125a, FLAG_ZRO},
		{"puts", TRAP_PUTS, "",
			func(cpu *Cpu, mem *Memory) {
				cpu.Register[0] = 0x4000
				copy(mem.Data[0x4000:], []uint16{'H', 'i', '!', 0, 'X'})
			}, "Hi!", 0x4000, FLAG_ZRO},
		{"puts_empty", TRAP_PUTS, "",
			func(cpu *Cpu, mem *Memory) {
				cpu.Register[0] = 0x4000
			}, "", 0x4000, FLAG_ZRO},
		{"putsp", TRAP_PUTSP, "",
			func(cpu *Cpu, mem *Memory) {
				cpu.Register[0] = 0x4000
				copy(mem.Data[0x4000:], []uint16{0x6548, 0x006c, 0, 0x6f6f})
			}, "Hel", 0x4000, FLAG_ZRO},
		{"in", TRAP_IN, "q", nil, IN_PROMPT + "q", 'q', FLAG_POS},
		{"halt", TRAP_HALT, "", nil, HALT_MESSAGE, 0, FLAG_ZRO},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu, mem, output := newTestCpu(entry.input)
			cpu.Pc = 0x3001
			if entry.setup != nil {
				entry.setup(cpu, mem)
			}

			err := cpu.Execute(context.Background(), MakeCodeTrap(entry.vector))
			assert.NoError(err)

			assert.Equal(entry.output, output.String())
			assert.Equal(entry.r0, cpu.Register[0])
			assert.Equal(entry.cond, cpu.Cond)
			assert.Equal(uint16(0x3001), cpu.Register[7])
			assert.Equal(uint16(0x3001), cpu.Pc)
			assert.Equal(entry.vector != TRAP_HALT, cpu.Running)
		})
	}
}

func TestTrapPutsUnterminated(t *testing.T) {
	assert := assert.New(t)

	cpu, mem, output := newTestCpu("")
	for n := range mem.Data {
		mem.Data[n] = '.'
	}
	cpu.Register[0] = 0x1234

	err := cpu.Execute(context.Background(), MakeCodeTrap(TRAP_PUTS))
	assert.NoError(err)
	assert.Equal(MEMORY_SIZE, output.Len())
}

func TestTrapUndefined(t *testing.T) {
	assert := assert.New(t)

	cpu, _, output := newTestCpu("")
	cpu.Pc = 0x3001

	err := cpu.Execute(context.Background(), MakeCodeTrap(CodeTrap(0x26)))
	assert.ErrorIs(err, ErrTrapVector)
	assert.ErrorIs(err, ErrTrap(0))
	assert.ErrorIs(err, ErrOpcode(0))
	assert.Equal(uint16(0x3001), cpu.Register[7])
	assert.Equal(0, output.Len())
	assert.True(cpu.Running)
}

func TestTrapConsole(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(NewMemory(), nil)

	err := cpu.Execute(context.Background(), MakeCodeTrap(TRAP_OUT))
	assert.ErrorIs(err, ErrConsoleNone)

	err = cpu.Execute(context.Background(), MakeCodeTrap(TRAP_GETC))
	assert.ErrorIs(err, ErrConsoleNone)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cpu.Console = &io.Tape{Input: bytes.NewReader([]byte("k"))}
	err = cpu.Execute(ctx, MakeCodeTrap(TRAP_GETC))
	assert.ErrorIs(err, ErrConsoleIn)
	assert.ErrorIs(err, context.Canceled)
}

func TestTrapHaltTick(t *testing.T) {
	assert := assert.New(t)

	cpu, mem, output := newTestCpu("")
	mem.Data[0x3000] = uint16(MakeCodeTrap(TRAP_HALT))

	err := cpu.Tick(context.Background())
	assert.NoError(err)
	assert.False(cpu.Running)
	assert.Equal(HALT_MESSAGE, output.String())

	err = cpu.Tick(context.Background())
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(1, cpu.Ticks)
}
