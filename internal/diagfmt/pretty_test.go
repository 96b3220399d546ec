package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/source"
)

func sampleDiags(t *testing.T) ([]diag.Diagnostic, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.TcPOU", []byte("first\nsecond line\n"))
	return []diag.Diagnostic{
		{
			Severity: diag.SevInfo,
			Code:     diag.FmtTrailingWhitespace,
			Message:  "line has trailing whitespace",
			Primary:  source.Span{File: id, Start: 6, End: 17},
		},
		{
			Severity: diag.SevWarning,
			Code:     diag.FmtSkippedAmbiguousExpression,
			Message:  "cannot add parentheses",
			Primary:  source.Span{File: id, Start: 0, End: 5},
		},
	}, fs
}

func TestPretty(t *testing.T) {
	diags, fs := sampleDiags(t)

	var b strings.Builder
	Pretty(&b, diags, fs, PrettyOpts{})

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), b.String())
	}
	if lines[0] != "main.TcPOU:2:1: INFO TCT2002: line has trailing whitespace" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "main.TcPOU:1:1: WARNING TCT2100: cannot add parentheses" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestPrettyMax(t *testing.T) {
	diags, fs := sampleDiags(t)

	var b strings.Builder
	Pretty(&b, diags, fs, PrettyOpts{Max: 1})

	out := b.String()
	if !strings.Contains(out, "and 1 more") {
		t.Errorf("missing truncation notice:\n%s", out)
	}
	if strings.Count(out, "TCT") != 1 {
		t.Errorf("expected one printed diagnostic:\n%s", out)
	}
}

func TestJSON(t *testing.T) {
	diags, fs := sampleDiags(t)

	var b strings.Builder
	if err := JSON(&b, diags, fs); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal([]byte(b.String()), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d, diagnostics = %d", out.Count, len(out.Diagnostics))
	}
	first := out.Diagnostics[0]
	if first.Code != "TCT2002" || first.Severity != "INFO" {
		t.Errorf("first = %+v", first)
	}
	if first.Location.File != "main.TcPOU" || first.Location.Line != 2 || first.Location.Col != 1 {
		t.Errorf("location = %+v", first.Location)
	}
}
