package io

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errReader struct{}

var errBroken = errors.New("broken")

func (errReader) Read(data []byte) (int, error) {
	return 0, errBroken
}

func TestTape(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()

	output := &bytes.Buffer{}
	tape := &Tape{
		Input:  bytes.NewReader([]byte("ab")),
		Output: output,
	}

	assert.False(tape.Drained())
	assert.True(tape.KeyAvailable())
	assert.True(tape.KeyAvailable())

	key, err := tape.ReadChar(ctx)
	assert.NoError(err)
	assert.Equal(byte('a'), key)

	key, err = tape.ReadChar(ctx)
	assert.NoError(err)
	assert.Equal(byte('b'), key)

	assert.False(tape.KeyAvailable())
	assert.True(tape.Drained())

	_, err = tape.ReadChar(ctx)
	assert.ErrorIs(err, io.EOF)

	n, err := tape.Write([]byte("out"))
	assert.NoError(err)
	assert.Equal(3, n)
	assert.NoError(tape.Flush())
	assert.Equal("out", output.String())
}

func TestTapeEmpty(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}

	assert.False(tape.KeyAvailable())
	assert.True(tape.Drained())

	_, err := tape.ReadChar(context.Background())
	assert.ErrorIs(err, io.EOF)

	// Output is discarded.
	n, err := tape.Write([]byte("gone"))
	assert.NoError(err)
	assert.Equal(4, n)
	assert.NoError(tape.Flush())
}

func TestTapeError(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: errReader{}}

	assert.False(tape.KeyAvailable())
	assert.False(tape.Drained())

	_, err := tape.ReadChar(context.Background())
	assert.ErrorIs(err, errBroken)

	tape.Rewind()
	tape.Input = bytes.NewReader([]byte("z"))
	key, err := tape.ReadChar(context.Background())
	assert.NoError(err)
	assert.Equal(byte('z'), key)
}

func TestTapeCancel(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tape := &Tape{Input: bytes.NewReader([]byte("a"))}

	_, err := tape.ReadChar(ctx)
	assert.ErrorIs(err, context.Canceled)

	// The key is still there once the context allows.
	key, err := tape.ReadChar(context.Background())
	assert.NoError(err)
	assert.Equal(byte('a'), key)
}

func TestTapeFlush(t *testing.T) {
	assert := assert.New(t)

	buff := &bytes.Buffer{}
	wr := bufio.NewWriter(buff)
	tape := &Tape{Output: wr}

	_, err := tape.Write([]byte("held"))
	assert.NoError(err)
	assert.Equal(0, buff.Len())

	assert.NoError(tape.Flush())
	assert.Equal("held", buff.String())
}
