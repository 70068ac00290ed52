//go:build linux || darwin

package io

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTerminalPipe(t *testing.T) {
	assert := assert.New(t)

	inr, inw, err := os.Pipe()
	assert.NoError(err)
	defer inr.Close()

	outr, outw, err := os.Pipe()
	assert.NoError(err)
	defer outr.Close()
	defer outw.Close()

	tm := NewTerminal(inr, outw)

	// Not a terminal, so the mode is left alone.
	assert.NoError(tm.Open())
	assert.False(tm.modeSet)

	assert.False(tm.KeyAvailable())

	_, err = inw.Write([]byte("hi"))
	assert.NoError(err)

	assert.True(tm.KeyAvailable())

	ctx := context.Background()

	key, err := tm.ReadChar(ctx)
	assert.NoError(err)
	assert.Equal(byte('h'), key)

	key, err = tm.ReadChar(ctx)
	assert.NoError(err)
	assert.Equal(byte('i'), key)

	inw.Close()
	_, err = tm.ReadChar(ctx)
	assert.ErrorIs(err, io.EOF)

	_, err = tm.Write([]byte("ok"))
	assert.NoError(err)
	assert.NoError(tm.Close())

	buf := make([]byte, 2)
	_, err = io.ReadFull(outr, buf)
	assert.NoError(err)
	assert.Equal("ok", string(buf))
}

func TestTerminalCancel(t *testing.T) {
	assert := assert.New(t)

	inr, inw, err := os.Pipe()
	assert.NoError(err)
	defer inr.Close()
	defer inw.Close()

	tm := NewTerminal(inr, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*TERMINAL_POLL)
	defer cancel()

	start := time.Now()
	_, err = tm.ReadChar(ctx)
	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.Less(time.Since(start), time.Second)
}

func TestTerminalEOF(t *testing.T) {
	assert := assert.New(t)

	inr, inw, err := os.Pipe()
	assert.NoError(err)
	defer inr.Close()

	tm := NewTerminal(inr, os.Stdout)

	_, err = inw.Write([]byte("z"))
	assert.NoError(err)
	inw.Close()

	assert.True(tm.KeyAvailable())
	assert.True(tm.KeyAvailable())

	key, err := tm.ReadChar(context.Background())
	assert.NoError(err)
	assert.Equal(byte('z'), key)

	// The closed pipe still selects as readable, but holds no key.
	for range 3 {
		assert.False(tm.KeyAvailable())
	}

	_, err = tm.ReadChar(context.Background())
	assert.ErrorIs(err, io.EOF)
	assert.False(tm.KeyAvailable())
}
