package source

import (
	"testing"
)

func TestBuildLineIndex(t *testing.T) {
	cases := []struct {
		input    string
		expected []uint32
	}{
		{"", []uint32{}},
		{"no newline", []uint32{}},
		{"a\nb\nc", []uint32{1, 3}},
		{"\n\n", []uint32{0, 1}},
		{"line\r\nnext\r\n", []uint32{5, 11}},
	}

	for _, tc := range cases {
		got := buildLineIndex([]byte(tc.input))
		if len(got) != len(tc.expected) {
			t.Errorf("buildLineIndex(%q) = %v, want %v", tc.input, got, tc.expected)
			continue
		}
		for i := range got {
			if got[i] != tc.expected[i] {
				t.Errorf("buildLineIndex(%q)[%d] = %d, want %d", tc.input, i, got[i], tc.expected[i])
			}
		}
	}
}

func TestToLineCol(t *testing.T) {
	content := []byte("first\nsecond\r\nthird")
	idx := buildLineIndex(content)

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},   // 'f'
		{5, 1, 6},   // the '\n' ends line 1
		{6, 2, 1},   // 's'
		{13, 2, 8},  // the '\n' of the CRLF pair
		{14, 3, 1},  // 't'
		{18, 3, 5},  // 'd'
	}

	for _, tc := range cases {
		got := toLineCol(idx, tc.off)
		if got.Line != tc.line || got.Col != tc.col {
			t.Errorf("toLineCol(off=%d) = %d:%d, want %d:%d", tc.off, got.Line, got.Col, tc.line, tc.col)
		}
	}
}

func TestToLineColSingleLine(t *testing.T) {
	got := toLineCol(nil, 7)
	if got.Line != 1 || got.Col != 8 {
		t.Errorf("toLineCol(nil, 7) = %d:%d, want 1:8", got.Line, got.Col)
	}
}
