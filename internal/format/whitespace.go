package format

import (
	"strings"

	"github.com/DEMCON/twincat-tools/internal/diag"
)

// trailingWhitespaceRule drops the run of spaces and tabs before a line's
// terminator.
type trailingWhitespaceRule struct {
	cfg Config
}

func (r *trailingWhitespaceRule) Apply(seg *Segment) {
	if !r.cfg.TrimTrailingWhitespace {
		return
	}
	for i, line := range seg.Lines {
		body, eol := splitEOL(line)
		trimmed := strings.TrimRight(body, " \t")
		if trimmed == body {
			continue
		}
		seg.Lines[i] = trimmed + eol
		seg.Correct(i, diag.FmtTrailingWhitespace, "line has trailing whitespace")
	}
}

// endOfLineRule rewrites line terminators inside code regions to the
// configured style. Markup terminators are out of reach for the pipeline,
// so a mixed-ending file keeps its markup endings untouched.
type endOfLineRule struct {
	cfg Config
}

func (r *endOfLineRule) Apply(seg *Segment) {
	target := r.cfg.EndOfLine.Terminator()
	if target == "" {
		return
	}
	count := 0
	first := -1
	for i, line := range seg.Lines {
		body, eol := splitEOL(line)
		if eol == "" || eol == target {
			continue
		}
		seg.Lines[i] = body + target
		count++
		if first < 0 {
			first = i
		}
	}
	if count > 0 {
		seg.Correct(first, diag.FmtEndOfLine, "line endings corrected")
	}
}

// finalNewlineRule makes sure a non-empty code region ends with exactly
// one terminator. It never adds a second one.
type finalNewlineRule struct {
	cfg Config
}

func (r *finalNewlineRule) Apply(seg *Segment) {
	if !r.cfg.InsertFinalNewline || len(seg.Lines) == 0 {
		return
	}
	last := len(seg.Lines) - 1
	if _, eol := splitEOL(seg.Lines[last]); eol != "" {
		return
	}
	if seg.Lines[last] == "" {
		return
	}

	// Reuse the terminator style already present in the region; fall back
	// to the configured one, then LF.
	term := ""
	for _, line := range seg.Lines {
		if _, eol := splitEOL(line); eol != "" {
			term = eol
			break
		}
	}
	if term == "" {
		term = r.cfg.EndOfLine.Terminator()
	}
	if term == "" {
		term = "\n"
	}

	seg.Lines[last] += term
	seg.Correct(last, diag.FmtFinalNewline, "code block does not end with a newline")
}
