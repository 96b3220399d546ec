package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/markup"
)

// reDeclaration matches a single variable declaration line: one or more
// names, an optional AT address, a colon and the rest of the line. The
// rest is split further by parseDeclaration.
var reDeclaration = regexp.MustCompile(
	`^([ \t]*)([A-Za-z_]\w*(?:[ \t]*,[ \t]*[A-Za-z_]\w*)*(?:[ \t]+AT[ \t]+%[A-Za-z0-9*.]+)?)[ \t]*:[ \t]*(\S.*)$`)

// declaration is one parsed declaration line, broken into the four
// alignment columns. Init and Comment may be empty.
type declaration struct {
	index   int
	indent  string
	name    string
	typ     string
	init    string
	comment string
}

// alignRule lines up the colon, assignment and comment columns of
// consecutive variable declarations that share the same indentation.
type alignRule struct {
	cfg Config
}

func (r *alignRule) Apply(seg *Segment) {
	if !r.cfg.AlignVariables || seg.Kind != markup.KindDeclaration {
		return
	}

	var block []declaration
	for i, line := range seg.Lines {
		body, _ := splitEOL(line)
		d, ok := parseDeclaration(body)
		if ok {
			d.index = i
			if len(block) > 0 && block[0].indent != d.indent {
				r.alignBlock(seg, block)
				block = block[:0]
			}
			block = append(block, d)
			continue
		}
		if len(block) > 0 {
			r.alignBlock(seg, block)
			block = block[:0]
		}
	}
	r.alignBlock(seg, block)
}

// alignBlock rewrites one run of declarations so that every column
// starts one space past the widest entry of the previous column.
func (r *alignRule) alignBlock(seg *Segment, block []declaration) {
	if len(block) < 1 {
		return
	}

	nameEnd, typeEnd, initEnd := 0, 0, 0
	for _, d := range block {
		nameEnd = max(nameEnd, runewidth.StringWidth(d.indent+d.name))
	}
	typeCol := nameEnd + 1
	for _, d := range block {
		typeEnd = max(typeEnd, typeCol+runewidth.StringWidth(": "+d.typ))
	}
	initCol := typeEnd + 1
	hasInit := false
	for _, d := range block {
		if d.init != "" {
			hasInit = true
			initEnd = max(initEnd, initCol+runewidth.StringWidth(d.init))
		}
	}
	commentCol := typeEnd + 1
	if hasInit {
		commentCol = initEnd + 1
	}

	for _, d := range block {
		var b strings.Builder
		b.WriteString(d.indent)
		b.WriteString(d.name)
		pad(&b, typeCol)
		b.WriteString(": ")
		b.WriteString(d.typ)
		if d.init != "" {
			pad(&b, initCol)
			b.WriteString(d.init)
		}
		if d.comment != "" {
			pad(&b, commentCol)
			b.WriteString(d.comment)
		}

		old, eol := splitEOL(seg.Lines[d.index])
		if b.String() != old {
			seg.Lines[d.index] = b.String() + eol
			seg.Correct(d.index, diag.FmtVariableAligned, "variable declaration aligned")
		}
	}
}

// pad extends b with spaces up to column col. At least one space is
// always written so adjacent columns never touch.
func pad(b *strings.Builder, col int) {
	n := col - runewidth.StringWidth(b.String())
	if n < 1 {
		n = 1
	}
	for ; n > 0; n-- {
		b.WriteByte(' ')
	}
}

// parseDeclaration splits a declaration line into columns. It reports
// false for anything that is not a plain variable declaration, such as
// section keywords, pragmas and comment lines.
func parseDeclaration(body string) (declaration, bool) {
	m := reDeclaration.FindStringSubmatch(body)
	if m == nil {
		return declaration{}, false
	}
	d := declaration{indent: m[1], name: strings.TrimRight(m[2], " \t")}

	rest := m[3]
	code, comment := splitComment(rest)
	d.comment = comment

	typ, init := splitInitializer(code)
	d.typ = strings.TrimSpace(typ)
	d.init = strings.TrimSpace(init)
	if d.typ == "" {
		return declaration{}, false
	}
	if d.init != "" {
		d.init = ":= " + strings.TrimSpace(strings.TrimPrefix(d.init, ":="))
	}
	return d, true
}

// splitComment cuts a trailing // or (* comment off a declaration,
// ignoring comment markers inside string literals.
func splitComment(s string) (code, comment string) {
	inString := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inString = !inString
		case inString:
		case strings.HasPrefix(s[i:], "//"), strings.HasPrefix(s[i:], "(*"):
			return strings.TrimRight(s[:i], " \t"), s[i:]
		}
	}
	return strings.TrimRight(s, " \t"), ""
}

// splitInitializer finds the top-level := of a declaration body and
// returns the type and initializer parts. Assignments nested in
// parentheses or brackets, as in array initializers, are passed over.
func splitInitializer(code string) (typ, init string) {
	depth := 0
	inString := false
	for i := 0; i < len(code); i++ {
		switch {
		case code[i] == '\'':
			inString = !inString
		case inString:
		case code[i] == '(' || code[i] == '[':
			depth++
		case code[i] == ')' || code[i] == ']':
			depth--
		case depth == 0 && strings.HasPrefix(code[i:], ":="):
			return code[:i], code[i:]
		}
	}
	return code, ""
}
