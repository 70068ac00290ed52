//go:build linux || darwin

package io

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// TERMINAL_POLL is how long a blocking read waits before checking for
// cancellation.
const TERMINAL_POLL = 20 * time.Millisecond

// Terminal is the host terminal as a console.
// Open turns off line buffering and echo; Close restores them.
type Terminal struct {
	In  *os.File
	Out *os.File

	output   *bufio.Writer
	original unix.Termios
	modeSet  bool

	hasInput  bool
	lastInput byte
	atEOF     bool
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

// Open disables line buffering and echo on the input, if it is a terminal.
// Non-terminal input (a pipe or file) is left alone.
func (tm *Terminal) Open() (err error) {
	if tm.modeSet {
		return
	}

	fd := tm.In.Fd()
	if !term.IsTerminal(int(fd)) {
		return
	}

	err = termios.Tcgetattr(fd, &tm.original)
	if err != nil {
		return
	}

	mode := tm.original
	mode.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(fd, termios.TCSANOW, &mode)
	if err != nil {
		return
	}

	tm.modeSet = true
	return
}

// Close flushes output and restores the terminal mode saved by Open.
// It is safe to call more than once.
func (tm *Terminal) Close() (err error) {
	err = tm.Flush()

	if tm.modeSet {
		err = errors.Join(err, termios.Tcsetattr(tm.In.Fd(), termios.TCSANOW, &tm.original))
		tm.modeSet = false
	}

	return
}

// wait waits up to timeout for input to be readable.
func (tm *Terminal) wait(timeout time.Duration) (ready bool, err error) {
	fd := int(tm.In.Fd())

	var readfds unix.FdSet
	readfds.Zero()
	readfds.Set(fd)

	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(fd+1, &readfds, nil, nil, &tv)
	if errors.Is(err, unix.EINTR) {
		err = nil
		return
	}
	if err != nil {
		return
	}

	ready = n > 0
	return
}

// read reads a single byte into the read-ahead. A zero length read marks
// the input exhausted.
func (tm *Terminal) read() (err error) {
	var one [1]byte

	n, err := unix.Read(int(tm.In.Fd()), one[:])
	if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
		err = nil
		return
	}
	if err != nil {
		return
	}

	switch n {
	case 0:
		tm.atEOF = true
	default:
		tm.lastInput = one[0]
		tm.hasInput = true
	}

	return
}

// KeyAvailable polls the input without blocking.
// Exhausted input has no key available.
func (tm *Terminal) KeyAvailable() bool {
	if tm.hasInput {
		return true
	}
	if tm.atEOF {
		return false
	}

	ready, err := tm.wait(0)
	if err != nil || !ready {
		return false
	}

	err = tm.read()
	return err == nil && tm.hasInput
}

// ReadChar blocks until a key is read, or the context is done.
// Exhausted input returns io.EOF.
func (tm *Terminal) ReadChar(ctx context.Context) (key byte, err error) {
	for !tm.hasInput {
		if tm.atEOF {
			err = io.EOF
			return
		}

		err = ctx.Err()
		if err != nil {
			return
		}

		var ready bool
		ready, err = tm.wait(TERMINAL_POLL)
		if err != nil {
			return
		}
		if !ready {
			continue
		}

		err = tm.read()
		if err != nil {
			return
		}
	}

	key = tm.lastInput
	tm.hasInput = false
	return
}

// Write buffers output for the display.
func (tm *Terminal) Write(data []byte) (n int, err error) {
	return tm.output.Write(data)
}

// Flush writes out buffered output.
func (tm *Terminal) Flush() error {
	return tm.output.Flush()
}
