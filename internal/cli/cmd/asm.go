package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/patt3/lc3core/internal/cli"
	"github.com/patt3/lc3core/internal/diag"
	"github.com/patt3/lc3core/internal/log"
	"github.com/patt3/lc3core/internal/objfile"
)

// Assembler is the command that turns LC-3 assembly source into an object file.
//
//	lc3dbg asm -o a.obj file.asm
func Assembler() cli.Command {
	return new(assembler)
}

type assembler struct {
	output string
	binary bool
}

func (assembler) Description() string { return "assemble source into an object file" }

func (assembler) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `asm [-o file.obj] [-binary] file.asm

Assemble LC-3 assembly source into an object file.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	fs.StringVar(&a.output, "o", "a.obj", "output `filename`")
	fs.BoolVar(&a.binary, "binary", false, "write the binary object format instead of text")

	return fs
}

func (a *assembler) Run(_ context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("asm takes exactly one source file")
		return 1
	}

	f, err := os.Open(args[0])
	if err != nil {
		logger.Error("open failed", "file", args[0], "err", err)
		return 1
	}
	defer f.Close()

	of, err := objfile.Assemble(args[0], f)
	if err != nil {
		d := diag.FromAssembleError(err)
		logger.Error(d.Message)

		return 1
	}

	var payload []byte

	if a.binary {
		payload = objfile.SerializeBinary(of)
	} else {
		payload = []byte(objfile.SerializeText(of))
	}

	if err := os.WriteFile(a.output, payload, 0o644); err != nil {
		logger.Error("write failed", "file", a.output, "err", err)
		return 1
	}

	fmt.Fprintf(stdout, "assembled %s -> %s (%d symbols)\n", args[0], a.output, len(of.Symbols.Labels()))

	return 0
}
