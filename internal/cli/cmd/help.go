package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/patt3/lc3core/internal/cli"
	"github.com/patt3/lc3core/internal/log"
)

type help struct {
	cmd []cli.Command
}

var _ cli.Command = (*help)(nil)

func (help) Description() string { return "display help for commands" }

func (h help) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("help", flag.ExitOnError)
}

func (h help) Run(_ context.Context, args []string, out io.Writer, _ *log.Logger) int {
	if len(args) == 1 {
		for _, cmd := range h.cmd {
			if args[0] == cmd.FlagSet().Name() {
				h.printCommandHelp(out, cmd)
			}
		}

		return 0
	}

	if err := h.Usage(out); err != nil {
		return 1
	}

	return 0
}

func (h *help) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `
lc3dbg is a command-line exerciser for the LC-3 debugger core.

Usage:

        lc3dbg <command> [option]... [arg]...

Commands:`)
	if err != nil {
		return err
	}

	for _, cmd := range h.cmd {
		fs := cmd.FlagSet()
		fmt.Fprintf(out, "  %-20s %s\n", fs.Name(), cmd.Description())
	}

	fmt.Fprintf(out, "  %-20s %s\n", h.FlagSet().Name(), h.Description())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use `lc3dbg help <command>` for details.")

	return nil
}

func (h *help) printCommandHelp(out io.Writer, cmd cli.Command) {
	fmt.Fprint(out, "Usage:\n\n        lc3dbg ")

	if err := cmd.Usage(out); err != nil {
		return
	}

	fmt.Fprintln(out, "\nOptions:")
	cmd.FlagSet().SetOutput(out)
	cmd.FlagSet().PrintDefaults()
}

// Help returns the help command, which also renders usage for the other registered commands.
func Help(cmd []cli.Command) *help {
	return &help{cmd: cmd}
}
