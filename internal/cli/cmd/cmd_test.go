package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/patt3/lc3core/internal/cli"
	"github.com/patt3/lc3core/internal/log"
)

const helloSource = `
	.ORIG x3000
START	LEA R0, MSG
	PUTS
	HALT
MSG	.STRINGZ "hi"
	.END
`

func testLogger() *log.Logger {
	return log.NewFormattedLogger(io.Discard)
}

func writeSource(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

func TestAssembler_WritesObjectFileAndRunnerExecutesIt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "hello.asm", helloSource)
	obj := filepath.Join(dir, "hello.obj")

	asm := Assembler()
	fs := asm.FlagSet()
	fs.Set("o", obj)

	var asmOut bytes.Buffer
	if code := asm.Run(context.Background(), []string{src}, &asmOut, testLogger()); code != 0 {
		t.Fatalf("assembler Run = %d, output: %s", code, asmOut.String())
	}

	if _, err := os.Stat(obj); err != nil {
		t.Fatalf("object file not written: %v", err)
	}

	run := Runner()

	var runOut bytes.Buffer
	if code := run.Run(context.Background(), []string{obj}, &runOut, testLogger()); code != 0 {
		t.Fatalf("runner Run = %d, output: %s", code, runOut.String())
	}

	if got := runOut.String(); got != "hi" {
		t.Fatalf("runner output = %q, want %q", got, "hi")
	}
}

func TestAssembler_RejectsUndefinedSymbol(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "bad.asm", ".ORIG x3000\nBR NOWHERE\n.END\n")

	asm := Assembler()
	fs := asm.FlagSet()
	fs.Set("o", filepath.Join(dir, "bad.obj"))

	var out bytes.Buffer
	if code := asm.Run(context.Background(), []string{src}, &out, testLogger()); code == 0 {
		t.Fatalf("Run succeeded for undefined symbol")
	}
}

func TestLinker_CombinesTwoObjectFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	srcA := writeSource(t, dir, "a.asm", ".ORIG x3000\nHALT\n.END\n")
	srcB := writeSource(t, dir, "b.asm", ".ORIG x3100\nHALT\n.END\n")

	objA := filepath.Join(dir, "a.obj")
	objB := filepath.Join(dir, "b.obj")

	for _, pair := range [][2]string{{srcA, objA}, {srcB, objB}} {
		asm := Assembler()
		fs := asm.FlagSet()
		fs.Set("o", pair[1])

		var out bytes.Buffer
		if code := asm.Run(context.Background(), []string{pair[0]}, &out, testLogger()); code != 0 {
			t.Fatalf("assemble %s: %d, %s", pair[0], code, out.String())
		}
	}

	merged := filepath.Join(dir, "merged.obj")

	link := Linker()
	fs := link.FlagSet()
	fs.Set("o", merged)

	var out bytes.Buffer
	if code := link.Run(context.Background(), []string{objA, objB}, &out, testLogger()); code != 0 {
		t.Fatalf("link Run = %d, output: %s", code, out.String())
	}

	if _, err := os.Stat(merged); err != nil {
		t.Fatalf("merged object file not written: %v", err)
	}
}

func TestHelp_ListsRegisteredCommands(t *testing.T) {
	t.Parallel()

	commands := []cli.Command{Assembler(), Linker(), Runner()}
	help := Help(commands)

	var out bytes.Buffer
	if code := help.Run(context.Background(), nil, &out, testLogger()); code != 0 {
		t.Fatalf("help Run = %d", code)
	}

	for _, name := range []string{"asm", "link", "run"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("help output missing command %q:\n%s", name, out.String())
		}
	}
}

func TestHelp_PrintsUsageForSpecificCommand(t *testing.T) {
	t.Parallel()

	commands := []cli.Command{Assembler()}
	help := Help(commands)

	var out bytes.Buffer
	if code := help.Run(context.Background(), []string{"asm"}, &out, testLogger()); code != 0 {
		t.Fatalf("help Run = %d", code)
	}

	if !strings.Contains(out.String(), "asm") {
		t.Fatalf("help output for asm missing usage:\n%s", out.String())
	}
}
