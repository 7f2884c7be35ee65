// Package cli is a minimal command dispatcher for the lc3dbg exerciser binary: it is not the
// interactive debugger itself (that front end is explicitly out of scope), just enough command
// plumbing to drive the core end to end from a terminal. Grounded on the teacher's internal/cli
// package: the same Command interface, FlagSet-by-name dispatch, and help-on-no-args fallback.
package cli

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/patt3/lc3core/internal/log"
)

// FlagSet is an alias so command implementations need only import this package.
type FlagSet = flag.FlagSet

// Command is one sub-command of the lc3dbg binary.
type Command interface {
	FlagSet() *FlagSet
	Description() string
	Usage(out io.Writer) error
	Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int
}

// Commander dispatches sub-commands by their FlagSet's name.
type Commander struct {
	ctx      context.Context
	log      *log.Logger
	help     Command
	commands []Command
}

// New creates a Commander that runs commands under ctx, logging via logger.
func New(ctx context.Context, logger *log.Logger) *Commander {
	return &Commander{ctx: ctx, log: logger}
}

// WithCommands registers cmds and returns the Commander for chaining.
func (c *Commander) WithCommands(cmds []Command) *Commander {
	c.commands = append([]Command(nil), cmds...)
	return c
}

// WithHelp sets the command run when no sub-command matches or none is given.
func (c *Commander) WithHelp(help Command) *Commander {
	c.help = help
	return c
}

// Execute finds the sub-command named by args[0] and runs it with the remaining arguments.
func (c *Commander) Execute(args []string) int {
	if len(args) == 0 || c.help == nil && len(c.commands) == 0 {
		if c.help != nil {
			return c.help.Run(c.ctx, nil, os.Stdout, c.log)
		}

		return 1
	}

	found := c.help

	for _, cmd := range c.commands {
		if args[0] == cmd.FlagSet().Name() {
			found = cmd
			break
		}
	}

	if found == nil {
		return 1
	}

	fs := found.FlagSet()
	rest := args
	if found != c.help {
		rest = args[1:]
	}

	if err := fs.Parse(rest); err != nil {
		c.log.Error("parse error", "err", err)
		return 1
	}

	return found.Run(c.ctx, fs.Args(), os.Stdout, c.log)
}
