package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramDebug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Origin: 0x3000,
		Opcodes: []Opcode{
			{LineNo: 2, Address: 0x3000, Codes: []uint16{0x1021}},
			{LineNo: 3, Address: 0x3001, Codes: []uint16{'a', 'b', 0}},
			{LineNo: 5, Address: 0x3004, Codes: []uint16{0xf025}},
		},
	}

	table := [](struct {
		addr   uint16
		lineno int
		index  int
	}){
		{0x2fff, 0, 0},
		{0x3000, 2, 0},
		{0x3001, 3, 0},
		{0x3003, 3, 2},
		{0x3004, 5, 0},
		{0x3005, 0, 0},
	}

	for _, entry := range table {
		dbg := prog.Debug(entry.addr)
		if entry.lineno == 0 {
			assert.Nil(dbg.Opcode, "%#x", entry.addr)
			continue
		}
		if assert.NotNil(dbg.Opcode, "%#x", entry.addr) {
			assert.Equal(entry.lineno, dbg.LineNo)
			assert.Equal(entry.index, dbg.Index)
		}
	}
}

func TestProgramCodes(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Origin: 0x3000,
		Opcodes: []Opcode{
			{LineNo: 2, Address: 0x3000, Codes: []uint16{1, 2}},
			{LineNo: 3, Address: 0x3002, Codes: []uint16{3}},
		},
	}

	var addrs []uint16
	var codes []uint16
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}
	assert.Equal([]uint16{0x3000, 0x3001, 0x3002}, addrs)
	assert.Equal([]uint16{1, 2, 3}, codes)

	// Early stop.
	count := 0
	for range prog.Codes() {
		count++
		break
	}
	assert.Equal(1, count)

	img := prog.Image()
	assert.Equal(Image{Origin: 0x3000, Words: []uint16{1, 2, 3}}, img)

	empty := &Program{Origin: 0x3000}
	assert.Equal(Image{Origin: 0x3000}, empty.Image())
}
