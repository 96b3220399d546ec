package format

import (
	"strings"
)

// splitLines cuts text into lines, keeping each line's terminator attached
// (LF, CRLF or lone CR). Joining the result reproduces the input exactly.
// Text ending in a terminator yields no trailing empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := make([]string, 0, strings.Count(text, "\n")+2)
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i+1])
			start = i + 1
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// splitEOL separates a line into its body and terminator.
func splitEOL(line string) (body, eol string) {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2], line[len(line)-2:]
	}
	if strings.HasSuffix(line, "\n") || strings.HasSuffix(line, "\r") {
		return line[:len(line)-1], line[len(line)-1:]
	}
	return line, ""
}

// leadingWhitespace returns the length of the run of spaces and tabs at
// the start of body.
func leadingWhitespace(body string) int {
	i := 0
	for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
		i++
	}
	return i
}
