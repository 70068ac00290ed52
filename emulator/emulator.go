// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/lc3vm/cpu"
	"github.com/ezrec/lc3vm/io"
)

// Emulator state. CPU + memory + console.
type Emulator struct {
	Verbose  bool           // If set, enables verbose logging.
	*cpu.Cpu                // Reference to the CPU simulation.
	Memory   *cpu.Memory    // Main memory, shared with the CPU.
	Programs []*cpu.Program // Assembled programs, for line number lookup.
}

// NewEmulator creates a new emulator attached to a console.
func NewEmulator(console io.Console) (emu *Emulator) {
	emu = &Emulator{
		Memory: cpu.NewMemory(),
	}

	emu.Cpu = cpu.NewCpu(emu.Memory, console)

	return
}

// LoadImage copies an image into memory, returning the words loaded.
func (emu *Emulator) LoadImage(img cpu.Image) (count int) {
	count = emu.Memory.Load(img)

	if emu.Verbose {
		log.WithFields(log.Fields{
			"origin": img.Origin,
			"words":  count,
		}).Debug("emulator: image loaded")
	}

	return
}

// LoadProgram loads an assembled program, and keeps its listing for
// runtime error reporting.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (count int) {
	count = emu.LoadImage(prog.Image())
	emu.Programs = append(emu.Programs, prog)
	return
}

// LoadFile loads an image file. Files with an .asm extension are assembled
// first.
func (emu *Emulator) LoadFile(path string) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".asm") {
		asm := &cpu.Assembler{Verbose: emu.Verbose}
		var prog *cpu.Program
		prog, err = asm.Parse(file)
		if err != nil {
			return
		}
		emu.LoadProgram(prog)
		return
	}

	img, err := cpu.ReadImage(file)
	if err != nil {
		return
	}

	emu.LoadImage(img)
	return
}

// Reset the CPU. Memory, and so any loaded images, is kept.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// LineNo returns the source line number of the instruction at the PC,
// or 0 if it was not loaded from an assembled program.
func (emu *Emulator) LineNo() int {
	return emu.lineAt(emu.Cpu.Pc)
}

func (emu *Emulator) lineAt(addr uint16) int {
	// Later loads overwrite earlier ones.
	for n := len(emu.Programs) - 1; n >= 0; n-- {
		dbg := emu.Programs[n].Debug(addr)
		if dbg.Opcode != nil {
			return dbg.LineNo
		}
	}

	return 0
}

// Tick performs a single instruction of the emulator.
// done is set once the program has halted.
func (emu *Emulator) Tick(ctx context.Context) (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: emu.lineAt(pc), Err: err}
		}
	}()

	err = emu.Cpu.Tick(ctx)
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		done = true
		return
	}
	if err != nil {
		return
	}

	done = !emu.Cpu.Running
	return
}

// Run ticks the emulator until the program halts, faults, or the context
// is done.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for {
		err = ctx.Err()
		if err != nil {
			return
		}

		var done bool
		done, err = emu.Tick(ctx)
		if err != nil || done {
			return
		}
	}
}
