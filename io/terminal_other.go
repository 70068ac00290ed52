//go:build !(linux || darwin)

package io

import (
	"bufio"
	"context"
	"os"
)

// Terminal is the host terminal as a console.
// Mode switching and key polling are not supported on this platform.
type Terminal struct {
	In  *os.File
	Out *os.File

	output *bufio.Writer
}

var _ Console = (*Terminal)(nil)

// NewTerminal creates a terminal console over the given files.
func NewTerminal(in, out *os.File) *Terminal {
	return &Terminal{
		In:     in,
		Out:    out,
		output: bufio.NewWriter(out),
	}
}

func (tm *Terminal) Open() error {
	return ErrTerminalUnsupported
}

func (tm *Terminal) Close() error {
	return tm.Flush()
}

func (tm *Terminal) KeyAvailable() bool {
	return false
}

func (tm *Terminal) ReadChar(ctx context.Context) (key byte, err error) {
	err = ErrTerminalUnsupported
	return
}

func (tm *Terminal) Write(data []byte) (n int, err error) {
	return tm.output.Write(data)
}

func (tm *Terminal) Flush() error {
	return tm.output.Flush()
}
