package cpu

// Flag is the condition flag register.
type Flag uint16

const (
	FLAG_POS  = Flag(1 << 0) // Last result was positive.
	FLAG_ZRO  = Flag(1 << 1) // Last result was zero.
	FLAG_NEG  = Flag(1 << 2) // Last result was negative.
	FLAG_MASK = Flag(0x7)    // Mask of all condition flags.
)

// FlagOf returns the condition flag for a result, interpreted as a
// signed 16-bit value.
func FlagOf(value uint16) Flag {
	switch {
	case value == 0:
		return FLAG_ZRO
	case (value >> 15) != 0:
		return FLAG_NEG
	default:
		return FLAG_POS
	}
}

// String returns the flags in 'nzp' order.
func (fl Flag) String() (out string) {
	if fl&FLAG_NEG != 0 {
		out += "n"
	}
	if fl&FLAG_ZRO != 0 {
		out += "z"
	}
	if fl&FLAG_POS != 0 {
		out += "p"
	}
	return
}

// Extend sign-extends the low 'bits' bits of value to a full word.
// Bits of value above the field are ignored.
func Extend(value uint16, bits uint) uint16 {
	if bits == 0 || bits >= 16 {
		return value
	}

	mask := uint16(1<<bits) - 1
	value &= mask
	if (value>>(bits-1))&1 != 0 {
		value |= ^mask
	}

	return value
}
