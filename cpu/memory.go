package cpu

import (
	"fmt"
)

// Memory map.
const (
	MEMORY_SIZE = 1 << 16 // Words of memory.

	TRAP_TABLE_START      = 0x0000 // Trap vector table.
	INTERRUPT_TABLE_START = 0x0100 // Interrupt vector table.
	SYSTEM_SPACE_START    = 0x0200 // Operating system.
	PC_START              = 0x3000 // User programs, and initial PC.
	DEVICE_SPACE_START    = 0xFE00 // Memory mapped device registers.

	KBSR = 0xFE00 // Keyboard status register.
	KBDR = 0xFE02 // Keyboard data register.

	KBSR_READY = 0x8000 // KBSR bit set when KBDR holds a key.
)

var _memory_defines = map[string]string{
	"TRAP_TABLE_START":      fmt.Sprintf("%#x", TRAP_TABLE_START),
	"INTERRUPT_TABLE_START": fmt.Sprintf("%#x", INTERRUPT_TABLE_START),
	"SYSTEM_SPACE_START":    fmt.Sprintf("%#x", SYSTEM_SPACE_START),
	"PC_START":              fmt.Sprintf("%#x", PC_START),
	"DEVICE_SPACE_START":    fmt.Sprintf("%#x", DEVICE_SPACE_START),
	"KBSR":                  fmt.Sprintf("%#x", KBSR),
	"KBDR":                  fmt.Sprintf("%#x", KBDR),
	"KBSR_READY":            fmt.Sprintf("%#x", KBSR_READY),
}

// Storage is plain word addressable storage.
type Storage interface {
	Read(addr uint16) uint16
	Write(addr uint16, value uint16)
}

// Memory is the 64K word main memory.
// Reads and writes are plain; device side effects belong to the CPU.
type Memory struct {
	Data [MEMORY_SIZE]uint16
}

var _ Storage = (*Memory)(nil)

// NewMemory creates a zeroed memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the word at addr.
func (mem *Memory) Read(addr uint16) uint16 {
	return mem.Data[addr]
}

// Write stores value at addr.
func (mem *Memory) Write(addr uint16, value uint16) {
	mem.Data[addr] = value
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem.Data[:])
}

// Load copies an image into memory at its origin, and returns the
// number of words placed. Words past the top of memory are dropped.
func (mem *Memory) Load(img Image) (count int) {
	count = min(len(img.Words), MEMORY_SIZE-int(img.Origin))
	copy(mem.Data[int(img.Origin):], img.Words[:count])
	return
}
