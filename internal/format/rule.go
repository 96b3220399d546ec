package format

import (
	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/markup"
	"github.com/DEMCON/twincat-tools/internal/source"
)

// Segment is one rewritable text region, split into lines with their
// terminators kept. Rules rewrite Lines in place and record findings;
// the line count never changes, so line offsets into the original
// document stay valid for reporting.
type Segment struct {
	Kind  markup.Kind
	Name  string
	Lines []string

	file     source.FileID
	lineOffs []uint32 // original start offset of each line
	lineEnds []uint32
	diags    []diag.Diagnostic
}

func newSegment(f *source.File, span markup.Span) *Segment {
	text := string(span.Bytes(f.Content))
	lines := splitLines(text)

	offs := make([]uint32, len(lines))
	ends := make([]uint32, len(lines))
	off := span.Start
	for i, line := range lines {
		offs[i] = off
		off += uint32(len(line))
		ends[i] = off
	}

	return &Segment{
		Kind:     span.Kind,
		Name:     span.Name,
		Lines:    lines,
		file:     f.ID,
		lineOffs: offs,
		lineEnds: ends,
	}
}

func (s *Segment) lineSpan(i int) source.Span {
	return source.Span{File: s.file, Start: s.lineOffs[i], End: s.lineEnds[i]}
}

// Correct records a correction that was applied to line i.
func (s *Segment) Correct(i int, code diag.Code, msg string) {
	s.diags = append(s.diags, diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     code,
		Message:  msg,
		Primary:  s.lineSpan(i),
	})
}

// Skip records a line that was deliberately left unchanged.
func (s *Segment) Skip(i int, code diag.Code, msg string) {
	s.diags = append(s.diags, diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     code,
		Message:  msg,
		Primary:  s.lineSpan(i),
	})
}

// Rule is one step of the pipeline. Apply rewrites the segment's lines in
// place; rules keep no state between segments and see nothing but the
// segment and their configuration. A disabled rule returns immediately.
type Rule interface {
	Apply(seg *Segment)
}

// Pipeline returns the rules in their fixed execution order. Order
// matters: indentation characters settle before alignment measures
// columns, trailing whitespace goes before the final-newline check.
func Pipeline(cfg Config) []Rule {
	return []Rule{
		&endOfLineRule{cfg: cfg},
		&tabRule{cfg: cfg},
		&trailingWhitespaceRule{cfg: cfg},
		&parensRule{cfg: cfg},
		&alignRule{cfg: cfg},
		&finalNewlineRule{cfg: cfg},
	}
}
