package objfile

// gold_test.go contains golden tests bundling source, expected object text, and (for error cases)
// expected diagnostics in a single txtar archive per fixture, the way Go's own standard library
// tooling packages golden fixtures, following the teacher's testdata-driven gold_test.go pattern
// (internal/asm/gold_test.go) but with one file per case instead of a side-by-side .asm/.out pair.

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// excludeGlob drops every path whose base name matches pattern, for splitting one directory of
// fixtures into disjoint test-function groups.
func excludeGlob(paths []string, pattern string) []string {
	out := paths[:0]

	for _, p := range paths {
		if ok, _ := filepath.Match(pattern, filepath.Base(p)); !ok {
			out = append(out, p)
		}
	}

	return out
}

func txtarFile(t *testing.T, archive *txtar.Archive, name string) (string, bool) {
	t.Helper()

	for _, f := range archive.Files {
		if f.Name == name {
			return string(f.Data), true
		}
	}

	return "", false
}

func TestAssemble_Golden(t *testing.T) {
	t.Parallel()

	matches, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}

	matches = excludeGlob(matches, "link_*.txtar")

	if len(matches) == 0 {
		t.Fatalf("no golden fixtures found under testdata/")
	}

	for _, path := range matches {
		path := path

		t.Run(filepath.Base(path), func(t *testing.T) {
			t.Parallel()

			archive, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("txtar.ParseFile: %v", err)
			}

			source, ok := txtarFile(t, archive, "source.asm")
			if !ok {
				t.Fatalf("fixture %s has no source.asm section", path)
			}

			of, asmErr := Assemble(filepath.Base(path), strings.NewReader(source))

			if wantErr, ok := txtarFile(t, archive, "error.txt"); ok {
				if asmErr == nil {
					t.Fatalf("Assemble succeeded, want error %q", wantErr)
				}

				if got := strings.TrimSpace(asmErr.Error()); got != strings.TrimSpace(wantErr) {
					t.Fatalf("Assemble error = %q, want %q", got, wantErr)
				}

				return
			}

			if asmErr != nil {
				t.Fatalf("Assemble: %v", asmErr)
			}

			wantObject, ok := txtarFile(t, archive, "object.txt")
			if !ok {
				t.Fatalf("fixture %s has neither object.txt nor error.txt", path)
			}

			if got := SerializeText(of); got != wantObject {
				t.Fatalf("SerializeText mismatch:\ngot:\n%s\nwant:\n%s", got, wantObject)
			}
		})
	}
}

// TestLink_Golden exercises the linker against its own txtar fixtures: two independently
// assembled source files, bundled with the merged object text the link is expected to produce.
func TestLink_Golden(t *testing.T) {
	t.Parallel()

	matches, err := filepath.Glob(filepath.Join("testdata", "link_*.txtar"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}

	if len(matches) == 0 {
		t.Fatalf("no linker golden fixtures found under testdata/")
	}

	for _, path := range matches {
		path := path

		t.Run(filepath.Base(path), func(t *testing.T) {
			t.Parallel()

			archive, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("txtar.ParseFile: %v", err)
			}

			srcA, ok := txtarFile(t, archive, "a.asm")
			if !ok {
				t.Fatalf("fixture %s has no a.asm section", path)
			}

			srcB, ok := txtarFile(t, archive, "b.asm")
			if !ok {
				t.Fatalf("fixture %s has no b.asm section", path)
			}

			wantObject, ok := txtarFile(t, archive, "object.txt")
			if !ok {
				t.Fatalf("fixture %s has no object.txt section", path)
			}

			ofA, err := Assemble("a.asm", strings.NewReader(srcA))
			if err != nil {
				t.Fatalf("Assemble a.asm: %v", err)
			}

			ofB, err := Assemble("b.asm", strings.NewReader(srcB))
			if err != nil {
				t.Fatalf("Assemble b.asm: %v", err)
			}

			merged, err := Link(ofA, ofB)
			if err != nil {
				t.Fatalf("Link: %v", err)
			}

			if got := SerializeText(merged); got != wantObject {
				t.Fatalf("SerializeText mismatch:\ngot:\n%s\nwant:\n%s", got, wantObject)
			}
		})
	}
}
