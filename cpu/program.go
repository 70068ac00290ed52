package cpu

import (
	"iter"
)

// Opcode is a single assembled statement.
type Opcode struct {
	LineNo    int      // Source line number.
	Address   uint16   // Address of the first generated word.
	Words     []string // Source words, after equate substitution.
	Codes     []uint16 // Generated words.
	LinkLabel string   // Label to resolve into the last word, if any.
	LinkBits  uint     // Width of the PC relative field to link; 16 for an absolute address.
}

// Program is the output of the assembler.
type Program struct {
	Origin  uint16
	Opcodes []Opcode
}

// Debug locates the statement that generated a word.
type Debug struct {
	*Opcode
	Index int
}

// Debug returns the statement that generated the word at addr.
// The Opcode is nil if no statement generated that word.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= int(op.Address) && int(addr) < int(op.Address)+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Address),
			}
			break
		}
	}

	return
}

// Codes iterates over the generated words, by address.
func (prog *Program) Codes() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, code uint16) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Address+uint16(n), code) {
					return
				}
			}
		}
	}
}

// Image returns the loadable image of the program.
func (prog *Program) Image() (img Image) {
	img.Origin = prog.Origin

	for addr, code := range prog.Codes() {
		index := int(addr) - int(prog.Origin)
		if index < 0 {
			continue
		}
		for len(img.Words) <= index {
			img.Words = append(img.Words, 0)
		}
		img.Words[index] = code
	}

	return
}
