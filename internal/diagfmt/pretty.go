// Package diagfmt renders diagnostics for people and for machines.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/source"
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Max caps the printed lines; 0 prints everything.
	Max int
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Pretty writes one line per diagnostic:
// <path>:<line>:<col>: <severity> <code>: <message>
// The caller is expected to sort and dedup beforehand.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	printed := 0
	for _, d := range diags {
		if opts.Max > 0 && printed == opts.Max {
			fmt.Fprintf(w, "... and %d more\n", len(diags)-printed)
			return
		}

		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)

		sev := d.Severity.String()
		if opts.Color {
			sev = severityColor(d.Severity).Sprint(sev)
		}
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			f.Path, start.Line, start.Col, sev, d.Code.ID(), d.Message)
		printed++
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}
