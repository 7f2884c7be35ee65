package diag

// convert.go turns the objfile package's structured errors into Diagnostics, the boundary between
// component E's typed errors and the core's rendering-agnostic diagnostic shape (§7).

import (
	"errors"

	"github.com/patt3/lc3core/internal/objfile"
)

// FromAssembleError converts an error returned by objfile.Assemble or objfile.Link into a
// Diagnostic. Errors with no recognized structured shape fall back to a plain message.
func FromAssembleError(err error) Diagnostic {
	var se *objfile.SyntaxError
	if errors.As(err, &se) {
		d := New(se.Error())
		if se.File != "" {
			d = d.WithSource(se.File, se.Line)
		}

		return d.WithHelp("fix the syntax error and reassemble")
	}

	var oe *objfile.OffsetRangeError
	if errors.As(err, &oe) {
		return New(oe.Error()).WithHelp("move the referenced label closer or use an indirect load")
	}

	var le *objfile.LiteralRangeError
	if errors.As(err, &le) {
		return New(le.Error()).WithHelp("narrow the literal to fit the instruction's immediate field")
	}

	var re *objfile.RegisterError
	if errors.As(err, &re) {
		return New(re.Error()).WithHelp("registers are named R0 through R7")
	}

	var syme *objfile.SymbolError
	if errors.As(err, &syme) {
		return New(syme.Error()).WithHelp("define the label or correct the spelling")
	}

	var linke *objfile.LinkError
	if errors.As(err, &linke) {
		return New(linke.Error())
	}

	return New(err.Error())
}
