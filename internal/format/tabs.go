package format

import (
	"strings"

	"github.com/DEMCON/twincat-tools/internal/diag"
)

// tabRule converts indentation between tabs and spaces. Only leading
// whitespace is touched; interior runs stay as written so manual spacing
// inside expressions survives.
type tabRule struct {
	cfg Config
}

func (r *tabRule) Apply(seg *Segment) {
	if r.cfg.IndentStyle == IndentUnset {
		return
	}
	width := r.cfg.TabWidth

	for i, line := range seg.Lines {
		body, eol := splitEOL(line)
		n := leadingWhitespace(body)
		if n == 0 {
			continue
		}
		indent := body[:n]

		// Rendered width of the indent, honoring tab stops.
		col := 0
		for j := 0; j < n; j++ {
			if indent[j] == '\t' {
				col += width - col%width
			} else {
				col++
			}
		}

		var converted string
		if r.cfg.IndentStyle == IndentSpaces {
			converted = strings.Repeat(" ", col)
		} else {
			converted = strings.Repeat("\t", col/width) + strings.Repeat(" ", col%width)
		}
		if converted == indent {
			continue
		}

		seg.Lines[i] = converted + body[n:] + eol
		if r.cfg.IndentStyle == IndentSpaces {
			seg.Correct(i, diag.FmtTabConverted, "line is indented with tabs, expected spaces")
		} else {
			seg.Correct(i, diag.FmtTabConverted, "line is indented with spaces, expected tabs")
		}
	}
}
