package io

import (
	"context"
	"errors"
	"io"
)

// Tape is a console over a plain byte stream reader and writer.
// Input is read ahead one byte to answer KeyAvailable, so the Input
// reader should not block: in-memory buffers, files and drained pipes.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	hasInput  bool
	lastInput byte
	inputErr  error
}

var _ Console = (*Tape)(nil)

// Rewind drops any read-ahead input.
func (tc *Tape) Rewind() {
	tc.hasInput = false
	tc.inputErr = nil
}

// fill reads ahead a single byte, if none is held.
func (tc *Tape) fill() {
	if tc.hasInput || tc.inputErr != nil {
		return
	}

	if tc.Input == nil {
		tc.inputErr = io.EOF
		return
	}

	var one [1]byte
	for {
		n, err := tc.Input.Read(one[:])
		if n == 1 {
			tc.lastInput = one[0]
			tc.hasInput = true
			return
		}
		if err != nil {
			tc.inputErr = err
			return
		}
	}
}

// KeyAvailable reports if the input holds another byte.
func (tc *Tape) KeyAvailable() bool {
	tc.fill()
	return tc.hasInput
}

// ReadChar returns the next input byte, or the input's error (io.EOF at
// end of tape).
func (tc *Tape) ReadChar(ctx context.Context) (key byte, err error) {
	err = ctx.Err()
	if err != nil {
		return
	}

	tc.fill()
	if !tc.hasInput {
		err = tc.inputErr
		if err == nil {
			err = io.EOF
		}
		return
	}

	key = tc.lastInput
	tc.hasInput = false
	return
}

// Write sends bytes to the output. Output is discarded if there is
// no output writer.
func (tc *Tape) Write(data []byte) (n int, err error) {
	if tc.Output == nil {
		n = len(data)
		return
	}

	return tc.Output.Write(data)
}

// Flush flushes the output, if it is buffered.
func (tc *Tape) Flush() (err error) {
	flusher, ok := tc.Output.(interface{ Flush() error })
	if ok {
		err = flusher.Flush()
	}
	return
}

// Drained reports if the input has been fully consumed.
func (tc *Tape) Drained() bool {
	tc.fill()
	return !tc.hasInput && errors.Is(tc.inputErr, io.EOF)
}
