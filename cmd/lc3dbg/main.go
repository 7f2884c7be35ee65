// cmd/lc3dbg is a minimal exerciser for the LC-3 debugger core: enough command-line plumbing to
// assemble, link, and run object files from a terminal. The interactive debugger front end itself
// is out of scope; this binary exists to drive the core end to end.
package main

import (
	"context"
	"os"

	"github.com/patt3/lc3core/internal/cli"
	"github.com/patt3/lc3core/internal/cli/cmd"
	"github.com/patt3/lc3core/internal/log"
)

func main() {
	logger := log.DefaultLogger()

	commands := []cli.Command{
		cmd.Assembler(),
		cmd.Linker(),
		cmd.Runner(),
	}

	result := cli.New(context.Background(), logger).
		WithCommands(commands).
		WithHelp(cmd.Help(commands)).
		Execute(os.Args[1:])

	os.Exit(result)
}
