package source_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/DEMCON/twincat-tools/internal/source"
)

func TestAddVirtual(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.TcPOU", []byte("line one\nline two\n"))
	f := fs.Get(id)

	if f.Path != "test.TcPOU" {
		t.Errorf("Path = %q, want %q", f.Path, "test.TcPOU")
	}
	if f.Flags&source.FileVirtual == 0 {
		t.Error("expected FileVirtual flag")
	}
	if len(f.LineIdx) != 2 {
		t.Errorf("LineIdx has %d entries, want 2", len(f.LineIdx))
	}
}

func TestLoadKeepsBytesExact(t *testing.T) {
	// CRLF endings and a UTF-8 BOM must survive loading untouched.
	raw := []byte("\xEF\xBB\xBF<?xml version=\"1.0\"?>\r\n<Root />\r\n")
	path := filepath.Join(t.TempDir(), "project.xti")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fs.Get(id).Content, raw) {
		t.Error("loaded content differs from bytes on disk")
	}
}

func TestResolve(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("v", []byte("ab\ncd\n"))

	start, end := fs.Resolve(source.Span{File: id, Start: 3, End: 5})
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("start = %d:%d, want 2:1", start.Line, start.Col)
	}
	if end.Line != 2 || end.Col != 3 {
		t.Errorf("end = %d:%d, want 2:3", end.Line, end.Col)
	}
}
