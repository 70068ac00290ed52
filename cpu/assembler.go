// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// MACRO_DEPTH is the deepest macro expansion permitted.
const MACRO_DEPTH = 16

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() (equ map[string]string) {
	equ = map[string]string{
		"LINENO": "0",
	}
	for key, value := range Defines() {
		equ[key] = value
	}
	return
}()

// Assembler is a single pass macro assembler for LC-3 assembly.
// Labels used before they are defined are resolved once all lines are read.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]uint16 // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
	Macro     map[string]*Macro // Map of macros.

	origin    uint16 // Address from .ORIG
	hasOrigin bool   // Set once .ORIG is seen.
	address   int    // Address of the next generated word.
	ended     bool   // Set once .END is seen.
	depth     int    // Current macro expansion depth.
	expanded  int    // Count of macro expansions.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// labelRe matches a valid label.
var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// regMap is a map of register names.
var regMap = map[string]CodeReg{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_R5,
	"r6": REG_R6,
	"r7": REG_R7,
}

// trapMap maps trap service routine aliases to their vectors.
var trapMap = map[string]CodeTrap{
	"getc":  TRAP_GETC,
	"out":   TRAP_OUT,
	"puts":  TRAP_PUTS,
	"in":    TRAP_IN,
	"putsp": TRAP_PUTSP,
	"halt":  TRAP_HALT,
}

// mnemonicSet is the set of instruction mnemonics, excluding branches.
var mnemonicSet = map[string]bool{
	"add": true, "and": true, "not": true,
	"jmp": true, "ret": true, "jsr": true, "jsrr": true,
	"ld": true, "ldi": true, "ldr": true, "lea": true,
	"st": true, "sti": true, "str": true,
	"trap": true, "rti": true,
	"getc": true, "out": true, "puts": true, "in": true, "putsp": true, "halt": true,
}

// branchFlags returns the condition of a BR mnemonic.
func branchFlags(lower string) (nzp Flag, ok bool) {
	suffix, ok := strings.CutPrefix(lower, "br")
	if !ok {
		return
	}

	if len(suffix) == 0 {
		nzp = FLAG_MASK
		return
	}

	for _, c := range suffix {
		var bit Flag
		switch c {
		case 'n':
			bit = FLAG_NEG
		case 'z':
			bit = FLAG_ZRO
		case 'p':
			bit = FLAG_POS
		}
		if bit == 0 || (nzp&bit) != 0 {
			ok = false
			return
		}
		nzp |= bit
	}

	return
}

// isStatement reports if a word starts a statement, and so is not a label.
func (asm *Assembler) isStatement(word string) bool {
	lower := strings.ToLower(word)
	if mnemonicSet[lower] || strings.HasPrefix(word, ".") {
		return true
	}
	if _, ok := branchFlags(lower); ok {
		return true
	}
	_, ok := asm.Macro[word]
	return ok
}

// splitLine splits a line of text into words, dropping any comment.
// Words are separated by whitespace or commas. String literals, character
// literals, and parenthesized expressions are kept whole.
func splitLine(text string) (words []string, err error) {
	var word strings.Builder
	depth := 0

	flush := func() {
		if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}

	for n := 0; n < len(text); n++ {
		c := text[n]
		switch {
		case c == '"':
			end := n + 1
			for ; end < len(text) && text[end] != '"'; end++ {
				if text[end] == '\\' {
					end++
				}
			}
			if end >= len(text) {
				err = ErrStringSyntax
				return
			}
			word.WriteString(text[n : end+1])
			n = end
		case c == '\'':
			end := n + 1
			if end < len(text) && text[end] == '\\' {
				end++
			}
			end++
			if end >= len(text) || text[end] != '\'' {
				err = ErrParseCharacter(text[n:])
				return
			}
			word.WriteString(text[n : end+1])
			n = end
		case c == '(':
			depth++
			word.WriteByte(c)
		case c == ')':
			depth--
			word.WriteByte(c)
		case depth > 0:
			word.WriteByte(c)
		case c == ';':
			flush()
			return
		case c == ' ' || c == '\t' || c == ',' || c == '\r':
			flush()
		default:
			word.WriteByte(c)
		}
	}

	flush()

	return
}

// valueOf returns the value of a numeric word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}

	var v64 int64
	switch {
	case strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")"):
		v64, err = asm.parenEval(word[2 : len(word)-1])
		if err != nil {
			return
		}
	case strings.HasPrefix(word, "'"):
		if len(word) < 3 || !strings.HasSuffix(word, "'") {
			err = ErrParseCharacter(word)
			return
		}
		var r rune
		var tail string
		r, _, tail, err = strconv.UnquoteChar(word[1:len(word)-1], '\'')
		if err != nil || len(tail) != 0 {
			err = ErrParseCharacter(word)
			return
		}
		v64 = int64(r)
	case strings.HasPrefix(word, "#"):
		v64, err = strconv.ParseInt(word[1:], 10, 32)
	case len(word) > 1 && (word[0] == 'x' || word[0] == 'X'):
		v64, err = parseRadix(word[1:], 16)
	case len(word) > 1 && (word[0] == 'b' || word[0] == 'B'):
		v64, err = parseRadix(word[1:], 2)
	default:
		v64, err = strconv.ParseInt(word, 0, 32)
	}
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	if invert {
		value = ^value
	}

	return
}

// parseRadix parses an LC-3 style x or b prefixed number, with an
// optional sign following the prefix.
func parseRadix(digits string, base int) (value int64, err error) {
	negative := false
	if strings.HasPrefix(digits, "-") {
		negative = true
		digits = digits[1:]
	}

	value, err = strconv.ParseInt(digits, base, 32)
	if negative {
		value = -value
	}

	return
}

// word16 checks that a value fits in a word, as either a signed or
// unsigned quantity.
func word16(value int) (word uint16, err error) {
	if value < -0x8000 || value > 0xffff {
		err = ErrImmediateRange
		return
	}

	word = uint16(value)
	return
}

// signedField checks that a value fits in a signed field of bits width.
func signedField(value int, bits uint, rangeErr error) (field int, err error) {
	limit := 1 << (bits - 1)
	if value < -limit || value >= limit {
		err = rangeErr
		return
	}

	field = value
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var num int
		num, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(num)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// register returns the register named by a word.
func register(word string) (reg CodeReg, err error) {
	reg, ok := regMap[strings.ToLower(word)]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// defineLabel binds a label to the current address.
func (asm *Assembler) defineLabel(label string) (err error) {
	if !labelRe.MatchString(label) {
		err = ErrLabelInvalid
		return
	}

	// References to a label that reads as a number would assemble as literals.
	_, num_err := asm.valueOf(label)
	if num_err == nil {
		err = ErrLabelInvalid
		return
	}

	if !asm.hasOrigin {
		err = ErrOrigMissing
		return
	}

	_, ok := asm.Label[label]
	if ok {
		err = ErrLabelDuplicate
		return
	}

	if asm.Label == nil {
		asm.Label = make(map[string]uint16, 16)
	}
	asm.Label[label] = uint16(asm.address)

	return
}

// parseLine parses and assembles a single line.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	words, err := splitLine(line)
	if err != nil {
		return
	}

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		err = asm.defineLabel(strings.TrimSuffix(words[0], ":"))
		if err != nil {
			return
		}
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	if !asm.isStatement(words[0]) {
		err = asm.defineLabel(words[0])
		if err != nil {
			return
		}
		words = words[1:]
		if len(words) == 0 {
			return
		}
		if !asm.isStatement(words[0]) {
			err = ErrOpcodeInvalid
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		err = asm.expand(words[0], macro, words[1:])
		return
	}

	err = asm.parseWords(words, lineno)
	return
}

// expand assembles the lines of a macro, with its arguments bound as equates.
func (asm *Assembler) expand(name string, macro *Macro, args []string) (err error) {
	if len(args) != len(macro.Args) {
		err = ErrMacroSyntax
		return
	}

	if asm.depth >= MACRO_DEPTH {
		err = ErrMacroNesting
		return
	}

	// Turn args into equs
	old_equate := maps.Clone(asm.Equate)
	for n, arg := range macro.Args {
		asm.Equate[arg] = args[n]
	}
	asm.depth++
	asm.expanded++
	defer func() {
		asm.Equate = old_equate
		asm.depth--
	}()

	unique := fmt.Sprintf("%v_%v_", name, asm.expanded)
	for n, line := range macro.Lines {
		lineno := macro.LineNo + n

		line = strings.ReplaceAll(line, "@", unique)
		err = asm.parseLine(line, lineno)
		if err != nil {
			err = ErrMacro{Macro: name, Line: lineno, Err: err}
			return
		}
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string]*Macro)
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.origin = PC_START
	asm.hasOrigin = false
	asm.address = PC_START
	asm.ended = false
	asm.depth = 0
	asm.expanded = 0

	for !asm.ended && scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.WithField("line", lineno).Debug(line)
		}

		var words []string
		words, err = splitLine(line)
		if err != nil {
			return
		}

		// .macro NAME arg...
		if len(words) > 0 && strings.EqualFold(words[0], ".macro") {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 || !labelRe.MatchString(words[1]) {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && strings.EqualFold(words[0], ".endm") {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}

		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		err = asm.link(op)
		if err != nil {
			return
		}
	}

	prog = &Program{
		Origin:  asm.origin,
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// link resolves the label of an opcode into its last word.
func (asm *Assembler) link(op *Opcode) (err error) {
	label := op.LinkLabel
	target, ok := asm.Label[label]
	if !ok {
		err = ErrLabelMissing(label)
		return
	}

	if len(op.Codes) < 1 {
		log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
	}
	linked := &op.Codes[len(op.Codes)-1]

	if op.LinkBits >= 16 {
		*linked = target
		return
	}

	pc := int(op.Address) + len(op.Codes)
	offset, err := signedField(int(target)-pc, op.LinkBits, ErrOffsetRange)
	if err != nil {
		return
	}

	mask := uint16(1<<op.LinkBits) - 1
	*linked |= uint16(offset) & mask

	return
}

// wantArgs checks the operand count of a statement.
func wantArgs(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeValueMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// pcOperand parses a PC relative operand: either a literal offset,
// or a label to link later.
func (asm *Assembler) pcOperand(word string, bits uint) (offset int, label string, err error) {
	value, err := asm.valueOf(word)
	if err == nil {
		offset, err = signedField(value, bits, ErrOffsetRange)
		return
	}

	if !labelRe.MatchString(word) {
		return
	}

	err = nil
	label = word
	return
}

// parseWords assembles the words of a single statement.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint16
	var label string
	var bits uint

	if len(words) == 0 {
		return
	}

	initial_words := words
	address := asm.address

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		if address+len(codes) > MEMORY_SIZE {
			err = ErrAddressRange
			return
		}
		opcode := Opcode{
			LineNo:    lineno,
			Address:   uint16(address),
			Words:     initial_words,
			Codes:     codes,
			LinkLabel: label,
			LinkBits:  bits,
		}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.address += len(codes)
	}()

	lower := strings.ToLower(words[0])
	args := words[1:]

	if lower == ".orig" {
		if asm.hasOrigin {
			err = ErrOrigDuplicate
			return
		}
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if value < 0 || value >= MEMORY_SIZE {
			err = ErrAddressRange
			return
		}
		asm.origin = uint16(value)
		asm.address = value
		asm.hasOrigin = true
		return
	}

	if lower == ".end" {
		err = wantArgs(args, 0)
		asm.ended = true
		return
	}

	if !asm.hasOrigin {
		err = ErrOrigMissing
		return
	}

	emit := func(code Instruction) {
		codes = append(codes, uint16(code))
	}

	if nzp, ok := branchFlags(lower); ok {
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var offset int
		offset, label, err = asm.pcOperand(args[0], 9)
		if err != nil {
			return
		}
		bits = 9
		emit(MakeCodeBr(nzp, offset))
		return
	}

	if vector, ok := trapMap[lower]; ok {
		err = wantArgs(args, 0)
		if err != nil {
			return
		}
		emit(MakeCodeTrap(vector))
		return
	}

	switch lower {
	case ".fill":
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err == nil {
			var word uint16
			word, err = word16(value)
			if err != nil {
				return
			}
			codes = append(codes, word)
			return
		}
		if !labelRe.MatchString(args[0]) {
			return
		}
		err = nil
		label = args[0]
		bits = 16
		codes = append(codes, 0)
	case ".blkw":
		if len(args) < 1 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		var count int
		count, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if count < 0 || count > MEMORY_SIZE {
			err = ErrImmediateRange
			return
		}
		var fill uint16
		if len(args) == 2 {
			var value int
			value, err = asm.valueOf(args[1])
			if err != nil {
				return
			}
			fill, err = word16(value)
			if err != nil {
				return
			}
		}
		for range count {
			codes = append(codes, fill)
		}
	case ".stringz":
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var text string
		text, err = strconv.Unquote(args[0])
		if err != nil || !strings.HasPrefix(args[0], `"`) {
			err = ErrStringSyntax
			return
		}
		for _, c := range []byte(text) {
			codes = append(codes, uint16(c))
		}
		codes = append(codes, 0)
	case "add", "and":
		op := OP_ADD
		if lower == "and" {
			op = OP_AND
		}
		err = wantArgs(args, 3)
		if err != nil {
			return
		}
		var dr, sr1, sr2 CodeReg
		dr, err = register(args[0])
		if err != nil {
			return
		}
		sr1, err = register(args[1])
		if err != nil {
			return
		}
		sr2, err = register(args[2])
		if err == nil {
			emit(MakeCodeReg(op, dr, sr1, sr2))
			return
		}
		var value int
		value, err = asm.valueOf(args[2])
		if err != nil {
			return
		}
		value, err = signedField(value, 5, ErrImmediateRange)
		if err != nil {
			return
		}
		emit(MakeCodeImm(op, dr, sr1, value))
	case "not":
		err = wantArgs(args, 2)
		if err != nil {
			return
		}
		var dr, sr CodeReg
		dr, err = register(args[0])
		if err != nil {
			return
		}
		sr, err = register(args[1])
		if err != nil {
			return
		}
		emit(MakeCodeNot(dr, sr))
	case "jmp", "jsrr":
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var base CodeReg
		base, err = register(args[0])
		if err != nil {
			return
		}
		if lower == "jmp" {
			emit(MakeCodeJmp(base))
		} else {
			emit(MakeCodeJsrr(base))
		}
	case "ret":
		err = wantArgs(args, 0)
		if err != nil {
			return
		}
		emit(MakeCodeJmp(REG_R7))
	case "jsr":
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var offset int
		offset, label, err = asm.pcOperand(args[0], 11)
		if err != nil {
			return
		}
		bits = 11
		emit(MakeCodeJsr(offset))
	case "ld", "ldi", "lea", "st", "sti":
		op := map[string]CodeOp{
			"ld":  OP_LD,
			"ldi": OP_LDI,
			"lea": OP_LEA,
			"st":  OP_ST,
			"sti": OP_STI,
		}[lower]
		err = wantArgs(args, 2)
		if err != nil {
			return
		}
		var reg CodeReg
		reg, err = register(args[0])
		if err != nil {
			return
		}
		var offset int
		offset, label, err = asm.pcOperand(args[1], 9)
		if err != nil {
			return
		}
		bits = 9
		emit(MakeCodePc(op, reg, offset))
	case "ldr", "str":
		op := OP_LDR
		if lower == "str" {
			op = OP_STR
		}
		err = wantArgs(args, 3)
		if err != nil {
			return
		}
		var reg, base CodeReg
		reg, err = register(args[0])
		if err != nil {
			return
		}
		base, err = register(args[1])
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(args[2])
		if err != nil {
			return
		}
		value, err = signedField(value, 6, ErrOffsetRange)
		if err != nil {
			return
		}
		emit(MakeCodeBase(op, reg, base, value))
	case "trap":
		err = wantArgs(args, 1)
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if value < 0 || value > 0xff {
			err = ErrImmediateRange
			return
		}
		emit(MakeCodeTrap(CodeTrap(value)))
	case "rti":
		err = wantArgs(args, 0)
		if err != nil {
			return
		}
		emit(MakeCodeRti())
	default:
		err = ErrOpcodeInvalid
		return
	}

	return
}
