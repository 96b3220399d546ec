package format

import (
	"regexp"
	"strings"

	"github.com/DEMCON/twincat-tools/internal/diag"
)

// Conditions that are candidates for wrapping: after the keyword comes
// anything that does not itself start with "(". The closing keyword is
// matched with trailing context so comments survive.
var reBareCondition = regexp.MustCompile(
	`^([ \t]*(?:IF|ELSIF|WHILE|CASE)[ \t]+)([^( \t].*?)([ \t]+(?:THEN|DO|OF)\b.*)$`)

// Conditions already wrapped in parentheses.
var reWrappedCondition = regexp.MustCompile(
	`^([ \t]*(?:IF|ELSIF|WHILE|CASE)[ \t]*)\((.+)\)([ \t]*(?:THEN|DO|OF)\b.*)$`)

// parensRule adds or strips parentheses around the condition of
// IF/ELSIF/WHILE/CASE headers. The rule is conservative: whenever the
// brace scan cannot prove the rewrite is safe, the line stays as written
// and a SkippedAmbiguousExpression finding is recorded.
type parensRule struct {
	cfg Config
}

func (r *parensRule) Apply(seg *Segment) {
	switch r.cfg.ConditionalParentheses {
	case ParensRequire:
		r.applyRequire(seg)
	case ParensStrip:
		r.applyStrip(seg)
	}
}

func (r *parensRule) applyRequire(seg *Segment) {
	for i, line := range seg.Lines {
		body, eol := splitEOL(line)

		if m := reBareCondition.FindStringSubmatch(body); m != nil {
			prefix, cond, suffix := m[1], m[2], m[3]
			if minLevel, end := scanBraces(cond); minLevel < 0 || end != 0 {
				seg.Skip(i, diag.FmtSkippedAmbiguousExpression,
					"cannot add parentheses: condition has unbalanced parentheses")
				continue
			}
			seg.Lines[i] = prefix + "(" + cond + ")" + suffix + eol
			seg.Correct(i, diag.FmtParenthesesAdded, "parentheses expected around condition")
			continue
		}

		// The condition starts with "(" but may not be fully wrapped, e.g.
		// IF (a+1)*2 = b THEN. Nothing safe can be done with such a line.
		if m := reWrappedCondition.FindStringSubmatch(body); m != nil {
			if minLevel, _ := scanBraces(m[2]); minLevel < 0 {
				seg.Skip(i, diag.FmtSkippedAmbiguousExpression,
					"cannot add parentheses: condition is only partially parenthesized")
			}
		}
	}
}

func (r *parensRule) applyStrip(seg *Segment) {
	for i, line := range seg.Lines {
		body, eol := splitEOL(line)
		stripped := false

		// Strip until no redundant pair is left, so a later pass finds
		// nothing more to do.
		for {
			m := reWrappedCondition.FindStringSubmatch(body)
			if m == nil {
				break
			}
			prefix, cond, suffix := m[1], m[2], m[3]

			// The outer pair is only redundant when the inner text never
			// closes it early: IF (a) AND (b) THEN must keep its
			// parentheses.
			if minLevel, _ := scanBraces(cond); minLevel < 0 {
				if !stripped {
					seg.Skip(i, diag.FmtSkippedAmbiguousExpression,
						"cannot strip parentheses: outer pair is load-bearing")
				}
				break
			}

			// Dropping the pair may glue the keyword to the condition.
			if !strings.HasSuffix(prefix, " ") && !strings.HasSuffix(prefix, "\t") {
				prefix += " "
			}
			if !strings.HasPrefix(suffix, " ") && !strings.HasPrefix(suffix, "\t") {
				suffix = " " + suffix
			}

			body = prefix + cond + suffix
			stripped = true
		}

		if stripped {
			seg.Lines[i] = body + eol
			seg.Correct(i, diag.FmtParenthesesRemoved, "redundant parentheses around condition")
		}
	}
}

// scanBraces walks the parentheses of text and returns the lowest nesting
// level seen and the final level. A negative minimum means a ")" closed a
// pair that was opened outside the text.
func scanBraces(text string) (minLevel, endLevel int) {
	level := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			level++
		case ')':
			level--
			if level < minLevel {
				minLevel = level
			}
		}
	}
	return minLevel, level
}
