package io

import (
	"github.com/ezrec/lc3vm/translate"
)

var (
	// Console errors
	ErrTerminalUnsupported = translate.Error("terminal unsupported on this platform")
)
