package cpu

import (
	"github.com/ezrec/lc3vm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted      = translate.Error("halted")
	ErrConsoleNone = translate.Error("no console attached")
	ErrConsoleIn   = translate.Error("console input")
	ErrConsoleOut  = translate.Error("console output")
	ErrImageShort  = translate.Error("image shorter than its origin")

	// Instruction decode errors
	ErrOpcodeDecode   = translate.Error("decode")
	ErrOpcodeRti      = translate.Error("rti unsupported")
	ErrOpcodeReserved = translate.Error("reserved opcode")
	ErrTrapVector     = translate.Error("trap vector undefined")

	// Assembler errors
	ErrEquateSyntax       = translate.Error(".equ syntax")
	ErrEquateDuplicate    = translate.Error(".equ duplicated")
	ErrLabelDuplicate     = translate.Error("label duplicated")
	ErrLabelInvalid       = translate.Error("label invalid")
	ErrMacroSyntax        = translate.Error(".macro syntax")
	ErrMacroNesting       = translate.Error(".macro in .macro prohibited")
	ErrMacroDuplicate     = translate.Error(".macro duplicated")
	ErrMacroLonely        = translate.Error(".macro without .endm")
	ErrMacroLonelyEndm    = translate.Error(".endm without .macro")
	ErrOrigMissing        = translate.Error(".orig missing")
	ErrOrigDuplicate      = translate.Error(".orig duplicated")
	ErrOpcodeExtraArgs    = translate.Error("excessive arguments")
	ErrOpcodeMissing      = translate.Error("opcode missing")
	ErrOpcodeValueMissing = translate.Error("value missing")
	ErrOpcodeInvalid      = translate.Error("opcode invalid")
	ErrRegisterInvalid    = translate.Error("register invalid")
	ErrImmediateRange     = translate.Error("immediate out of range")
	ErrOffsetRange        = translate.Error("offset out of range")
	ErrAddressRange       = translate.Error("address out of range")
	ErrStringSyntax       = translate.Error("string syntax")
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrOpcode Instruction

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%04x %v", uint16(eo), Instruction(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrTrap CodeTrap

func (et ErrTrap) Error() string {
	return f("trap x%02x", int(et))
}

func (et ErrTrap) Is(err error) (ok bool) {
	_, ok = err.(ErrTrap)
	return
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
