package markup

import (
	"fmt"
	"strings"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/source"
)

// frame is the scanner state for one open element.
type frame struct {
	name      string
	kind      Kind
	preserved bool
	tagStart  uint32
}

// Scanner performs the single classification pass. State is the cursor,
// the open-element stack and the last Name attribute seen; there is no
// backtracking.
type Scanner struct {
	cur   Cursor
	stack []frame
	spans []Span
	name  string // value of the most recent Name="..." attribute
}

// Scan classifies the whole document into ordered, contiguous spans.
// It returns a *MalformedError when the stream cannot be classified;
// no spans are returned in that case.
func Scan(f *source.File) ([]Span, error) {
	s := &Scanner{cur: NewCursor(f), name: "<unknown>"}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.spans, nil
}

func (s *Scanner) run() error {
	for !s.cur.EOF() {
		if s.cur.Peek() == '<' {
			if err := s.scanMarkup(); err != nil {
				return err
			}
			continue
		}
		s.scanText()
	}

	if len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		return malformed(top.tagStart, diag.ScanUnterminatedTag,
			fmt.Sprintf("element <%s> is never closed", top.name))
	}
	return nil
}

// scanText consumes content bytes up to the next '<' or EOF.
func (s *Scanner) scanText() {
	start := s.cur.Off
	for !s.cur.EOF() && s.cur.Peek() != '<' {
		s.cur.Bump()
	}
	s.emitContent(start, s.cur.Off)
}

// scanMarkup dispatches on the construct that starts at '<'.
func (s *Scanner) scanMarkup() error {
	start := s.cur.Off

	switch {
	case s.cur.EatPrefix("<!--"):
		if !s.cur.SeekPast("-->") {
			return malformed(start, diag.ScanUnterminatedComment, "unterminated comment")
		}
		s.emit(Outside, KindNone, start, s.cur.Off)
		return nil

	case s.cur.HasPrefix("<![CDATA["):
		return s.scanCData(start)

	case s.cur.EatPrefix("<?"):
		if !s.cur.SeekPast("?>") {
			return malformed(start, diag.ScanUnterminatedTag, "unterminated processing instruction")
		}
		s.emit(Outside, KindNone, start, s.cur.Off)
		return nil

	case s.cur.EatPrefix("<!"):
		// DOCTYPE and friends; no internal-subset support.
		if !s.cur.SeekPast(">") {
			return malformed(start, diag.ScanUnterminatedTag, "unterminated markup declaration")
		}
		s.emit(Outside, KindNone, start, s.cur.Off)
		return nil

	case s.cur.EatPrefix("</"):
		return s.scanEndTag(start)

	default:
		return s.scanStartTag(start)
	}
}

// scanCData emits the delimiters as markup and the payload as content, so
// code inside <Declaration><![CDATA[...]]></Declaration> is rewritable
// while the CDATA wrapper itself stays untouched.
func (s *Scanner) scanCData(start uint32) error {
	s.cur.EatPrefix("<![CDATA[")
	s.emit(Outside, KindNone, start, s.cur.Off)

	contentStart := s.cur.Off
	if !s.cur.SeekPast("]]>") {
		return malformed(start, diag.ScanUnterminatedCData, "unterminated CDATA section")
	}
	contentEnd := s.cur.Off - 3

	s.emitContent(contentStart, contentEnd)
	s.emit(Outside, KindNone, contentEnd, s.cur.Off)
	return nil
}

func (s *Scanner) scanEndTag(start uint32) error {
	name := s.scanName()
	if name == "" {
		return malformed(start, diag.ScanUnterminatedTag, "malformed end tag")
	}
	s.skipSpace()
	if !s.cur.Eat('>') {
		return malformed(start, diag.ScanUnterminatedTag,
			fmt.Sprintf("unterminated end tag </%s>", name))
	}

	if len(s.stack) == 0 {
		return malformed(start, diag.ScanStrayEndTag,
			fmt.Sprintf("end tag </%s> without open element", name))
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if top.name != name {
		return malformed(start, diag.ScanMismatchedEndTag,
			fmt.Sprintf("end tag </%s> does not match open element <%s>", name, top.name))
	}

	s.emit(InTagAttributes, KindNone, start, s.cur.Off)
	return nil
}

func (s *Scanner) scanStartTag(start uint32) error {
	s.cur.Bump() // '<'
	name := s.scanName()
	if name == "" {
		return malformed(start, diag.ScanUnterminatedTag, "bare '<' in markup")
	}

	preserve := false
	selfClosing := false

	for {
		s.skipSpace()
		if s.cur.EOF() {
			return malformed(start, diag.ScanUnterminatedTag,
				fmt.Sprintf("unterminated tag <%s>", name))
		}
		if s.cur.Eat('>') {
			break
		}
		if s.cur.Peek() == '/' {
			if s.cur.PeekAt(1) != '>' {
				return malformed(start, diag.ScanUnterminatedTag,
					fmt.Sprintf("stray '/' in tag <%s>", name))
			}
			s.cur.Bump()
			s.cur.Bump()
			selfClosing = true
			break
		}

		attrName, attrVal, err := s.scanAttribute(start, name)
		if err != nil {
			return err
		}
		if localName(attrName) == "space" && attrVal == "preserve" {
			preserve = true
		}
		if attrName == "Name" {
			s.name = attrVal
		}
	}

	s.emit(InTagAttributes, KindNone, start, s.cur.Off)

	if !selfClosing {
		inherited := false
		if len(s.stack) > 0 {
			inherited = s.stack[len(s.stack)-1].preserved
		}
		s.stack = append(s.stack, frame{
			name:      name,
			kind:      regionKind(localName(name)),
			preserved: inherited || preserve, // child inherits parent's preserve
			tagStart:  start,
		})
	}
	return nil
}

// scanAttribute reads one name="value" pair. Entities inside the value are
// left exactly as written.
func (s *Scanner) scanAttribute(tagStart uint32, tagName string) (string, string, error) {
	attrName := s.scanName()
	if attrName == "" {
		return "", "", malformed(tagStart, diag.ScanUnterminatedTag,
			fmt.Sprintf("unexpected byte %q in tag <%s>", s.cur.Peek(), tagName))
	}

	s.skipSpace()
	if !s.cur.Eat('=') {
		// Bare attribute without a value; tolerated, not produced by TwinCAT.
		return attrName, "", nil
	}
	s.skipSpace()

	quote := s.cur.Peek()
	if quote != '"' && quote != '\'' {
		return "", "", malformed(s.cur.Off, diag.ScanUnterminatedQuote,
			fmt.Sprintf("attribute %s in tag <%s> must be quoted", attrName, tagName))
	}
	s.cur.Bump()
	valStart := s.cur.Off
	if !s.cur.SeekPast(string(quote)) {
		return "", "", malformed(valStart-1, diag.ScanUnterminatedQuote,
			fmt.Sprintf("unterminated value for attribute %s in tag <%s>", attrName, tagName))
	}
	val := string(s.cur.File.Content[valStart : s.cur.Off-1])
	return attrName, val, nil
}

func (s *Scanner) scanName() string {
	start := s.cur.Off
	for !s.cur.EOF() && isNameByte(s.cur.Peek()) {
		s.cur.Bump()
	}
	return string(s.cur.File.Content[start:s.cur.Off])
}

func (s *Scanner) skipSpace() {
	for {
		switch s.cur.Peek() {
		case ' ', '\t', '\r', '\n':
			s.cur.Bump()
		default:
			return
		}
	}
}

// emitContent classifies content bytes by the innermost open element:
// preserved subtrees win over code regions, everything else is Outside.
func (s *Scanner) emitContent(start, end uint32) {
	ctx := Outside
	kind := KindNone
	if len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		switch {
		case top.preserved:
			ctx = Preserved
		case top.kind != KindNone:
			ctx = InTextContent
			kind = top.kind
		}
	}
	s.emit(ctx, kind, start, end)
}

func (s *Scanner) emit(ctx Context, kind Kind, start, end uint32) {
	if start >= end {
		return
	}
	s.spans = append(s.spans, Span{
		Context: ctx,
		Kind:    kind,
		Start:   start,
		End:     end,
		Name:    s.name,
	})
}

func isNameByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_', b == '-', b == '.', b == ':':
		return true
	}
	return false
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
