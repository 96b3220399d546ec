package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/format"
)

const messyPOU = `<?xml version="1.0" encoding="utf-8"?>
<TcPlcObject>
  <POU Name="MAIN">
    <Implementation>
      <ST><![CDATA[IF running THEN
	n := n + 1;
END_IF
]]></ST>
    </Implementation>
  </POU>
</TcPlcObject>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func aggressive(string) (format.Config, error) {
	return format.Config{
		IndentStyle:            format.IndentSpaces,
		IndentSize:             4,
		TrimTrailingWhitespace: true,
	}, nil
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.TcPOU"), "x")
	writeFile(t, filepath.Join(dir, "b.tcgvl"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "sub", "d.TcDUT"), "x")

	files, err := CollectFiles(context.Background(), []string{dir}, CodeFilter(), true)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.TcPOU"),
		filepath.Join(dir, "b.tcgvl"),
		filepath.Join(dir, "sub", "d.TcDUT"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestCollectFilesNonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.TcPOU"), "x")
	writeFile(t, filepath.Join(dir, "sub", "d.TcDUT"), "x")

	files, err := CollectFiles(context.Background(), []string{dir}, CodeFilter(), false)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(dir, "a.TcPOU") {
		t.Errorf("subdirectory was not skipped: %v", files)
	}
}

func TestCollectFilesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odd.xml")
	writeFile(t, path, "x")

	files, err := CollectFiles(context.Background(), []string{path}, CodeFilter(), false)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("explicitly named file was filtered out: %v", files)
	}
}

func TestFormatPathsCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.TcPOU")
	writeFile(t, path, messyPOU)

	results, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{
		Mode:    ModeCheck,
		Resolve: aggressive,
	})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].Changed {
		t.Error("check did not flag a messy file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != messyPOU {
		t.Error("check mode modified the file")
	}
}

func TestFormatPathsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.TcPOU")
	writeFile(t, path, messyPOU)

	var events int
	results, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{
		Mode:     ModeWrite,
		Resolve:  aggressive,
		Progress: func(Event) { events++ },
	})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	if !results[0].Changed || results[0].Err != nil {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if events != 1 {
		t.Errorf("got %d progress events, want 1", events)
	}

	again, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{
		Mode:    ModeWrite,
		Resolve: aggressive,
	})
	if err != nil {
		t.Fatalf("second FormatPaths: %v", err)
	}
	if again[0].Changed {
		t.Error("second run still changed the file")
	}
}

func TestFormatPathsNoFiles(t *testing.T) {
	if _, err := FormatPaths(context.Background(), []string{t.TempDir()}, FormatOptions{}); err == nil {
		t.Error("expected an error for an empty directory")
	}
}

func TestDiskCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("twincat-tools-test")
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}

	var hash Digest
	hash[0] = 0x42
	key := CacheKey(hash, format.Config{TrimTrailingWhitespace: true})

	if cache.IsClean(key) {
		t.Error("fresh cache reports a hit")
	}
	if err := cache.MarkClean(key); err != nil {
		t.Fatalf("MarkClean: %v", err)
	}
	if !cache.IsClean(key) {
		t.Error("marked key misses")
	}

	other := CacheKey(hash, format.Config{TrimTrailingWhitespace: false})
	if other == key {
		t.Error("configuration does not influence the key")
	}
	if cache.IsClean(other) {
		t.Error("different configuration hits the same entry")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if cache.IsClean(key) {
		t.Error("dropped cache still hits")
	}
}

func TestDiskCacheNilSafe(t *testing.T) {
	var cache *DiskCache
	if cache.IsClean(Digest{}) {
		t.Error("nil cache hit")
	}
	if err := cache.MarkClean(Digest{}); err != nil {
		t.Errorf("nil MarkClean: %v", err)
	}
}

func TestFormatPathsCacheSkipsCleanFiles(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("twincat-tools-test")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	clean := `<TcPlcObject><POU Name="M"><Implementation><ST><![CDATA[n := 1;
]]></ST></Implementation></POU></TcPlcObject>`
	path := filepath.Join(dir, "clean.TcPOU")
	writeFile(t, path, clean)

	opts := FormatOptions{Mode: ModeCheck, Resolve: aggressive, Cache: cache}
	first, err := FormatPaths(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Changed || first[0].CacheHit {
		t.Fatalf("unexpected first result: %+v", first[0])
	}

	second, err := FormatPaths(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].CacheHit {
		t.Error("second run did not hit the cache")
	}
}

// Line one carries trailing whitespace, line two a leading tab. The tab
// rule runs before the trailing-whitespace rule, so the engine emits its
// findings against descending offsets.
const untidyPOU = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
	"<TcPlcObject>\n" +
	"  <POU Name=\"MAIN\">\n" +
	"    <Implementation>\n" +
	"      <ST><![CDATA[IF running THEN  \n" +
	"\tn := n + 1;\n" +
	"END_IF\n" +
	"]]></ST>\n" +
	"    </Implementation>\n" +
	"  </POU>\n" +
	"</TcPlcObject>\n"

func TestFormatPathsDiagnosticsOrdered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.TcPOU"), untidyPOU)

	results, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{
		Mode:    ModeCheck,
		Resolve: aggressive,
	})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	diags := results[0].Diags
	if len(diags) < 2 {
		t.Fatalf("got %d diagnostics, want at least 2", len(diags))
	}
	for i := 1; i < len(diags); i++ {
		prev, cur := diags[i-1].Primary, diags[i].Primary
		if cur.File < prev.File || (cur.File == prev.File && cur.Start < prev.Start) {
			t.Errorf("diagnostics out of order: %s after %s", cur, prev)
		}
	}
	if diags[0].Code != diag.FmtTrailingWhitespace {
		t.Errorf("first diagnostic = %s, want %s", diags[0].Code, diag.FmtTrailingWhitespace)
	}
}

func TestFormatPathsDiagnosticsCapped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.TcPOU"), untidyPOU)

	results, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{
		Mode:           ModeCheck,
		Resolve:        aggressive,
		MaxDiagnostics: 1,
	})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	if got := len(results[0].Diags); got != 1 {
		t.Errorf("got %d diagnostics, want 1", got)
	}
}

func TestSortPathsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj.tsproj")
	writeFile(t, path, `<Project z="1" a="2"><B /><A /></Project>`)

	results, err := SortPaths(context.Background(), []string{dir}, SortOptions{Mode: ModeWrite})
	if err != nil {
		t.Fatalf("SortPaths: %v", err)
	}
	if !results[0].Changed || results[0].Err != nil {
		t.Fatalf("unexpected result: %+v", results[0])
	}

	again, err := SortPaths(context.Background(), []string{dir}, SortOptions{Mode: ModeWrite})
	if err != nil {
		t.Fatalf("second SortPaths: %v", err)
	}
	if again[0].Changed {
		t.Error("second run still changed the file")
	}
}
