package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/patt3/lc3core/internal/cli"
	"github.com/patt3/lc3core/internal/log"
	"github.com/patt3/lc3core/internal/objfile"
	"github.com/patt3/lc3core/internal/session"
	"github.com/patt3/lc3core/internal/vm"
)

// Runner is the command that loads an object file and runs it to completion, printing whatever
// the program writes to the display.
//
//	lc3dbg run file.obj
func Runner() cli.Command {
	return &runner{}
}

type runner struct {
	realTraps bool
	strict    bool
}

func (runner) Description() string { return "load and run an object file" }

func (runner) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `run [-real-traps] [-strict] file.obj

Load an object file and run it until HALT, a breakpoint, or an error.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.BoolVar(&r.realTraps, "real-traps", false, "vector TRAP through the OS image instead of the builtin handlers")
	fs.BoolVar(&r.strict, "strict", false, "flag reads of uninitialized memory")

	return fs
}

func (r *runner) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("run takes exactly one object file")
		return 1
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("read failed", "file", args[0], "err", err)
		return 1
	}

	of, err := decodeObjectFile(raw)
	if err != nil {
		logger.Error("decode failed", "file", args[0], "err", err)
		return 1
	}

	flags := vm.Flags{UseRealTraps: r.realTraps, Strict: r.strict}
	ctrl := session.New(flags, logger)

	sim, err := ctrl.Simulator()
	if err != nil {
		logger.Error("simulator unavailable", "err", err)
		return 1
	}

	if err := sim.LoadObjectFile(of.ToVMBlocks()); err != nil {
		logger.Error("load failed", "err", err)
		return 1
	}

	sim.Display.SetListener(func(b byte) { fmt.Fprintf(stdout, "%c", b) })

	done := make(chan error, 1)

	if err := ctrl.Execute(flags, func(cpu *vm.CPU) error {
		return cpu.Run()
	}, func(runErr error) { done <- runErr }); err != nil {
		logger.Error("execute failed", "err", err)
		return 1
	}

	select {
	case err := <-done:
		if err != nil {
			logger.Error("run error", "err", err)
			return 1
		}
	case <-ctx.Done():
		ctrl.Pause()
		return 1
	}

	return 0
}

func decodeObjectFile(raw []byte) (*objfile.ObjectFile, error) {
	if of, err := objfile.DeserializeText(string(raw)); err == nil {
		return of, nil
	}

	return objfile.DeserializeBinary(raw)
}
