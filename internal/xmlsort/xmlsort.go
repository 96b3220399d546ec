// Package xmlsort normalizes TwinCAT project XML so diffs survive a
// round trip through the IDE: attributes sorted by name, sibling
// elements sorted by their content, two-space indentation. TwinCAT
// rewrites these files in arbitrary order on every save, which buries
// real changes in noise.
package xmlsort

import (
	"bytes"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/source"
)

// Options controls one sorting run.
type Options struct {
	// SkipNodes lists element names whose subtree stays exactly as
	// written, for elements where order is semantic (devices, event
	// lists).
	SkipNodes []string
	// Indent is the per-level indentation, two spaces when empty.
	Indent string
}

// Result of sorting one file.
type Result struct {
	Changed bool
	Output  []byte
	Diags   []diag.Diagnostic
}

// Sort parses f, reorders what can safely be reordered and serializes
// the tree back. Elements with xml:space="preserve" and the configured
// skip nodes are emitted byte for byte as parsed.
func Sort(f *source.File, opts Options) (Result, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(f.Content))
	if err != nil {
		return Result{}, err
	}

	s := &sorter{
		file:   f,
		indent: opts.Indent,
		skip:   make(map[string]struct{}, len(opts.SkipNodes)),
	}
	if s.indent == "" {
		s.indent = "  "
	}
	for _, name := range opts.SkipNodes {
		s.skip[name] = struct{}{}
	}

	var out bytes.Buffer
	out.Grow(len(f.Content))
	s.writeNode(&out, doc, 0)

	output := out.Bytes()
	return Result{
		Changed: !bytes.Equal(output, f.Content),
		Output:  output,
		Diags:   s.diags,
	}, nil
}

type sorter struct {
	file   *source.File
	indent string
	skip   map[string]struct{}
	diags  []diag.Diagnostic
}

func (s *sorter) report(code diag.Code, msg string) {
	s.diags = append(s.diags, diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     code,
		Message:  msg,
		Primary:  source.Span{File: s.file.ID},
	})
}

// frozen reports whether n's subtree must keep its written form.
func (s *sorter) frozen(n *xmlquery.Node) bool {
	if _, ok := s.skip[n.Data]; ok {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Name.Local == "space" && attr.Value == "preserve" {
			return true
		}
	}
	return false
}

func (s *sorter) writeNode(w *bytes.Buffer, n *xmlquery.Node, depth int) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			s.writeNode(w, child, depth)
		}

	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attr.Name.Local)
			w.WriteString("=\"")
			w.WriteString(escapeAttr(attr.Value))
			w.WriteString("\"")
		}
		w.WriteString("?>\n")

	case xmlquery.ElementNode:
		s.writeElement(w, n, depth)

	case xmlquery.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			writeIndent(w, depth, s.indent)
			w.WriteString(escapeText(text))
			w.WriteString("\n")
		}

	case xmlquery.CommentNode:
		writeIndent(w, depth, s.indent)
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->\n")
	}
}

func (s *sorter) writeElement(w *bytes.Buffer, n *xmlquery.Node, depth int) {
	if s.frozen(n) {
		writeIndent(w, depth, s.indent)
		writeVerbatim(w, n)
		w.WriteString("\n")
		return
	}

	writeIndent(w, depth, s.indent)
	w.WriteString("<")
	w.WriteString(tagName(n))

	attrs := n.Attr
	if !attrsSorted(attrs) {
		attrs = append([]xmlquery.Attr(nil), attrs...)
		sort.SliceStable(attrs, func(i, j int) bool {
			return attrKey(attrs[i]) < attrKey(attrs[j])
		})
		s.report(diag.SortAttributesSorted, "sorted attributes of <"+tagName(n)+">")
	}
	writeAttrs(w, attrs)

	children, onlyElements := contentChildren(n)
	if len(children) == 0 {
		w.WriteString(" />\n")
		return
	}

	// Reordering is only safe when every child is an element; mixed
	// content and comments carry positional meaning.
	if onlyElements && len(children) > 1 {
		keys := make([]string, len(children))
		for i, c := range children {
			keys[i] = sortKey(c)
		}
		if !sort.SliceIsSorted(children, func(i, j int) bool { return keys[i] < keys[j] }) {
			sort.SliceStable(children, func(i, j int) bool { return keys[i] < keys[j] })
			s.report(diag.SortNodeReordered, "reordered children of <"+tagName(n)+">")
		}
	}

	// Text-only elements stay on one line, so CDATA code blocks keep
	// their exact payload.
	if !onlyElements && inlineOnly(children) {
		w.WriteString(">")
		for _, c := range children {
			writeInline(w, c)
		}
		w.WriteString("</")
		w.WriteString(tagName(n))
		w.WriteString(">\n")
		return
	}

	w.WriteString(">\n")
	for _, c := range children {
		s.writeNode(w, c, depth+1)
	}
	writeIndent(w, depth, s.indent)
	w.WriteString("</")
	w.WriteString(tagName(n))
	w.WriteString(">\n")
}

// writeVerbatim reconstructs a subtree without reordering, re-indenting
// or trimming anything: frozen subtrees must come out as they went in.
func writeVerbatim(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(tagName(n))
		writeAttrs(w, n.Attr)
		if n.FirstChild == nil {
			w.WriteString(" />")
			return
		}
		w.WriteString(">")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeVerbatim(w, c)
		}
		w.WriteString("</")
		w.WriteString(tagName(n))
		w.WriteString(">")

	case xmlquery.TextNode:
		w.WriteString(escapeText(n.Data))

	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")

	case xmlquery.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	}
}

func writeAttrs(w *bytes.Buffer, attrs []xmlquery.Attr) {
	for _, attr := range attrs {
		w.WriteString(" ")
		w.WriteString(attrKey(attr))
		w.WriteString("=\"")
		w.WriteString(escapeAttr(attr.Value))
		w.WriteString("\"")
	}
}

// contentChildren drops whitespace-only text nodes and reports whether
// everything that remains is an element.
func contentChildren(n *xmlquery.Node) (children []*xmlquery.Node, onlyElements bool) {
	onlyElements = true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type != xmlquery.ElementNode {
			onlyElements = false
		}
		children = append(children, c)
	}
	return children, onlyElements
}

// inlineOnly reports whether children are all text or CDATA, which are
// written without surrounding newlines.
func inlineOnly(children []*xmlquery.Node) bool {
	for _, c := range children {
		if c.Type != xmlquery.TextNode && c.Type != xmlquery.CharDataNode {
			return false
		}
	}
	return true
}

func writeInline(w *bytes.Buffer, n *xmlquery.Node) {
	if n.Type == xmlquery.CharDataNode {
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")
		return
	}
	w.WriteString(escapeText(n.Data))
}

// sortKey serializes a subtree with all insignificant whitespace removed,
// so two nodes that differ only in formatting compare equal.
func sortKey(n *xmlquery.Node) string {
	var b strings.Builder
	for _, field := range strings.Fields(n.OutputXML(true)) {
		b.WriteString(field)
	}
	return b.String()
}

func attrKey(a xmlquery.Attr) string {
	if a.Name.Space != "" {
		return a.Name.Space + ":" + a.Name.Local
	}
	return a.Name.Local
}

func attrsSorted(attrs []xmlquery.Attr) bool {
	for i := 1; i < len(attrs); i++ {
		if attrKey(attrs[i-1]) > attrKey(attrs[i]) {
			return false
		}
	}
	return true
}

func tagName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

var textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

func escapeText(s string) string { return textEscaper.Replace(s) }
