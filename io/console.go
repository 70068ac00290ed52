// Package io provides the console devices for the LC-3 emulator.
// It includes an in-memory console over plain readers and writers (Tape),
// and the host terminal bridge (Terminal).
package io

import (
	"context"
	"io"
)

// Keyboard is the input side of a console.
type Keyboard interface {
	// KeyAvailable reports, without blocking, if a key can be read.
	KeyAvailable() bool
	// ReadChar blocks until a key is read, or the context is done.
	// At end of input it returns io.EOF.
	ReadChar(ctx context.Context) (key byte, err error)
}

// Console is a keyboard plus a display.
// Output may be buffered until Flush is called.
type Console interface {
	Keyboard
	io.Writer
	// Flush writes out any buffered output.
	Flush() error
}
