package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/ezrec/lc3vm/cpu"
	"github.com/ezrec/lc3vm/emulator"
	"github.com/ezrec/lc3vm/io"
)

type runCmd struct {
	Profile string   `help:"Write a CPU profile to this directory." type:"path" placeholder:"DIR"`
	Images  []string `arg:"" optional:"" help:"Images to load, in order. Files ending .asm are assembled first." type:"path"`
}

func (cmd *runCmd) Run(ctx *kong.Context, globals *Globals) (err error) {
	if len(cmd.Images) == 0 {
		ctx.Kong.Stdout = ctx.Kong.Stderr
		_ = ctx.PrintUsage(false)
		return exitStatus(EXIT_USAGE)
	}

	if len(cmd.Profile) != 0 {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cmd.Profile), profile.Quiet).Stop()
	}

	terminal := io.NewTerminal(os.Stdin, os.Stdout)

	emu := emulator.NewEmulator(terminal)
	emu.Verbose = globals.Verbose

	for _, path := range cmd.Images {
		err = emu.LoadFile(path)
		if err != nil {
			log.Error(f("failed to load image: %v: %v", path, err))
			return exitStatus(EXIT_FAILURE)
		}
	}

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.session(sigctx, emu, terminal, globals.Verbose)
}

// session runs the loaded emulator with the terminal in character mode.
// The signal context must be live before the terminal mode is changed.
func (cmd *runCmd) session(ctx context.Context, emu *emulator.Emulator, terminal *io.Terminal, verbose bool) (err error) {
	err = terminal.Open()
	if err != nil {
		log.WithError(err).Warn("terminal: line mode unchanged")
	}
	defer terminal.Close()

	emu.Reset()
	err = emu.Run(ctx)

	if ctx.Err() != nil {
		_ = terminal.Close()
		fmt.Fprintln(terminal.Out)
		log.WithField("ticks", emu.Ticks()).Debug("interrupted")
		return exitStatus(EXIT_INTERRUPT)
	}

	if err != nil {
		log.Error(err)
		if verbose {
			log.Debug("\n" + emu.Cpu.String())
		}
		return exitStatus(EXIT_FAILURE)
	}

	log.WithField("ticks", emu.Ticks()).Debug("halted")
	return nil
}

type asmCmd struct {
	Output  string            `short:"o" required:"" help:"Image file to write." type:"path"`
	Define  map[string]string `short:"D" help:"Predefine an equate." placeholder:"NAME=VALUE"`
	Listing bool              `short:"l" help:"Print a listing to stdout."`
	Source  string            `arg:"" help:"Assembly source file." type:"existingfile"`
}

func (cmd *asmCmd) Run(ctx *kong.Context, globals *Globals) (err error) {
	inf, err := os.Open(cmd.Source)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: globals.Verbose}
	for name, value := range cmd.Define {
		asm.Predefine(name, value)
	}

	prog, err := asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", cmd.Source, err)
		return
	}

	if cmd.Listing {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				fmt.Fprintf(ctx.Stdout, "x%04X: x%04X  ; %4d: %v\n", int(op.Address)+n, code, op.LineNo, cpu.Instruction(code))
			}
		}
	}

	ouf, err := os.Create(cmd.Output)
	if err != nil {
		return
	}

	img := prog.Image()
	_, err = img.WriteTo(ouf)
	if err != nil {
		ouf.Close()
		return
	}

	err = ouf.Close()
	if err != nil {
		return
	}

	log.WithFields(log.Fields{
		"origin": fmt.Sprintf("x%04X", img.Origin),
		"words":  len(img.Words),
	}).Debug(cmd.Output)

	return
}

type disCmd struct {
	Image string `arg:"" help:"Image file to disassemble." type:"existingfile"`
}

func (cmd *disCmd) Run(ctx *kong.Context) (err error) {
	inf, err := os.Open(cmd.Image)
	if err != nil {
		return
	}
	defer inf.Close()

	img, err := cpu.ReadImage(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", cmd.Image, err)
		return
	}

	for n, word := range img.Words {
		fmt.Fprintf(ctx.Stdout, "x%04X: x%04X  %v\n", int(img.Origin)+n, word, cpu.Instruction(word))
	}

	return
}
