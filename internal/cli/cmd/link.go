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
)

// Linker is the command that combines two object files into one, failing on overlapping address
// ranges or conflicting label definitions.
//
//	lc3dbg link -o out.obj a.obj b.obj
func Linker() cli.Command {
	return &linker{}
}

type linker struct {
	output string
}

func (linker) Description() string { return "link two object files into one" }

func (linker) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `link -o out.obj a.obj b.obj

Combine two object files, failing on overlap or conflicting labels.`)

	return err
}

func (l *linker) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	fs.StringVar(&l.output, "o", "out.obj", "output `filename`")

	return fs
}

func (l *linker) Run(_ context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) != 2 {
		logger.Error("link takes exactly two object files")
		return 1
	}

	files := make([]*objfile.ObjectFile, 2)

	for i, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "file", path, "err", err)
			return 1
		}

		of, err := decodeObjectFile(raw)
		if err != nil {
			logger.Error("decode failed", "file", path, "err", err)
			return 1
		}

		files[i] = of
	}

	merged, err := objfile.Link(files[0], files[1])
	if err != nil {
		logger.Error("link failed", "err", err)
		return 1
	}

	if err := os.WriteFile(l.output, []byte(objfile.SerializeText(merged)), 0o644); err != nil {
		logger.Error("write failed", "file", l.output, "err", err)
		return 1
	}

	fmt.Fprintf(stdout, "linked %s + %s -> %s\n", args[0], args[1], l.output)

	return 0
}
