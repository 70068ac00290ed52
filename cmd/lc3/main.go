// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command lc3 runs, assembles and disassembles LC-3 programs.
package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/ezrec/lc3vm/translate"
)

var f = translate.From

// Process exit codes.
const (
	EXIT_SUCCESS   = 0
	EXIT_FAILURE   = 1
	EXIT_USAGE     = 2
	EXIT_INTERRUPT = 254
)

// exitStatus requests a process exit code from a command.
type exitStatus int

func (es exitStatus) Error() string {
	return f("exit status %d", int(es))
}

// Globals are the flags shared by all commands.
type Globals struct {
	Verbose bool   `short:"v" help:"Verbose logging, including an instruction trace."`
	Lang    string `help:"Message language, as a BCP 47 tag." placeholder:"TAG"`
}

// CLI is the command line of lc3.
type CLI struct {
	Globals

	Run runCmd `cmd:"" default:"withargs" help:"Load and run LC-3 images (the default)."`
	Asm asmCmd `cmd:"" help:"Assemble LC-3 source to an image."`
	Dis disCmd `cmd:"" help:"Disassemble an LC-3 image."`
}

// setupLogging configures the logger. Logs go to stderr, apart from the
// program console output on stdout.
func setupLogging(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("lc3"),
		kong.Description("LC-3 virtual machine, assembler and disassembler."),
		kong.UsageOnError(),
	)

	setupLogging(cli.Verbose)

	if len(cli.Lang) != 0 {
		translate.SetLocales(cli.Lang)
	}

	err := ctx.Run(&cli.Globals)

	var status exitStatus
	switch {
	case errors.As(err, &status):
		os.Exit(int(status))
	case err != nil:
		log.Error(err)
		os.Exit(EXIT_FAILURE)
	}

	os.Exit(EXIT_SUCCESS)
}
