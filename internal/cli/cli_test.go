package cli

import (
	"context"
	"flag"
	"io"
	"testing"

	"github.com/patt3/lc3core/internal/log"
)

type stubCommand struct {
	name    string
	invoked bool
	ran     []string
}

func (s *stubCommand) Description() string { return "stub: " + s.name }

func (s *stubCommand) FlagSet() *FlagSet {
	return flag.NewFlagSet(s.name, flag.ContinueOnError)
}

func (s *stubCommand) Usage(out io.Writer) error {
	_, err := io.WriteString(out, s.name+" usage")
	return err
}

func (s *stubCommand) Run(_ context.Context, args []string, _ io.Writer, _ *log.Logger) int {
	s.invoked = true
	s.ran = args

	return 0
}

func testLogger() *log.Logger {
	return log.NewFormattedLogger(io.Discard)
}

func TestCommander_DispatchesByFlagSetName(t *testing.T) {
	t.Parallel()

	run := &stubCommand{name: "run"}
	asm := &stubCommand{name: "asm"}

	c := New(context.Background(), testLogger()).WithCommands([]Command{run, asm})

	if code := c.Execute([]string{"asm", "a.asm"}); code != 0 {
		t.Fatalf("Execute = %d, want 0", code)
	}

	if len(asm.ran) != 1 || asm.ran[0] != "a.asm" {
		t.Fatalf("asm.ran = %v, want [a.asm]", asm.ran)
	}

	if run.invoked {
		t.Fatalf("run should not have been invoked, ran = %v", run.ran)
	}
}

func TestCommander_FallsBackToHelpOnUnknownCommand(t *testing.T) {
	t.Parallel()

	help := &stubCommand{name: "help"}
	run := &stubCommand{name: "run"}

	c := New(context.Background(), testLogger()).WithCommands([]Command{run}).WithHelp(help)

	if code := c.Execute([]string{"bogus"}); code != 0 {
		t.Fatalf("Execute = %d, want 0", code)
	}

	if !help.invoked {
		t.Fatalf("help was not invoked for an unrecognized command")
	}
}

func TestCommander_NoArgsRunsHelp(t *testing.T) {
	t.Parallel()

	help := &stubCommand{name: "help"}

	c := New(context.Background(), testLogger()).WithHelp(help)

	if code := c.Execute(nil); code != 0 {
		t.Fatalf("Execute = %d, want 0", code)
	}

	if !help.invoked {
		t.Fatalf("help was not invoked with no arguments")
	}
}

func TestCommander_NoArgsNoHelpReturnsFailure(t *testing.T) {
	t.Parallel()

	c := New(context.Background(), testLogger())

	if code := c.Execute(nil); code != 1 {
		t.Fatalf("Execute = %d, want 1", code)
	}
}
