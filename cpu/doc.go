// Package cpu implements the processor, memory and assembler for the LC-3 system.
//
// The CPU consists of a program counter (PC), eight 16-bit general-purpose
// registers (r0-r7), and a condition flag register holding exactly one of
// the negative, zero or positive flags. Memory is a flat array of 65536
// words; the keyboard status and data registers are mapped at KBSR and KBDR.
//
// The assembler accepts the classic LC-3 assembly language, extended with
// equates, macros and compile-time expression evaluation.
package cpu
