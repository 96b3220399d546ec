package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/DEMCON/twincat-tools/internal/diag"
	"github.com/DEMCON/twincat-tools/internal/markup"
	"github.com/DEMCON/twincat-tools/internal/source"
)

func aggressiveConfig() Config {
	return Config{
		IndentStyle:            IndentSpaces,
		IndentSize:             4,
		TrimTrailingWhitespace: true,
		InsertFinalNewline:     true,
		AlignVariables:         true,
		ConditionalParentheses: ParensRequire,
		EndOfLine:              EOLLF,
	}
}

const messyDoc = `<?xml version="1.0" encoding="utf-8"?>
<TcPlcObject Version="1.1.0.1" ProductVersion="3.1.4024.0">
  <POU Name="FB_Motor" Id="{2f}" SpecialFunc="None">
    <Declaration><![CDATA[FUNCTION_BLOCK FB_Motor
VAR
	speed : LREAL := 0.0;
	running:BOOL;
END_VAR]]></Declaration>
    <Implementation>
      <ST><![CDATA[IF running THEN
	speed := speed + 1.0;
END_IF]]></ST>
    </Implementation>
  </POU>
</TcPlcObject>
`

func TestFormatChangedFlag(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("motor.TcPOU", []byte(messyDoc)))

	res, err := Format(f, aggressiveConfig())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !res.Changed {
		t.Error("messy document reported as unchanged")
	}
	if len(res.Diags) == 0 {
		t.Error("no findings for a messy document")
	}

	clean, err := Format(f, Config{})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if clean.Changed {
		t.Error("empty configuration changed the document")
	}
	if string(clean.Output) != messyDoc {
		t.Error("empty configuration did not reproduce input bytes")
	}
}

func TestFormatIdempotent(t *testing.T) {
	cfg := aggressiveConfig()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("motor.TcPOU", []byte(messyDoc)))

	first, err := Format(f, cfg)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	g := fs.Get(fs.AddVirtual("motor2.TcPOU", first.Output))
	second, err := Format(g, cfg)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Changed {
		t.Errorf("second pass changed output:\n%s", second.Output)
	}
	for _, d := range second.Diags {
		if d.Severity == diag.SevInfo {
			t.Errorf("second pass still reports correction %s: %s", d.Code.ID(), d.Message)
		}
	}
}

func TestFormatMarkupInvariance(t *testing.T) {
	// Markup with trailing spaces, a tab inside an attribute and CRLF
	// terminators; none of it may move.
	doc := "<A  attr = \"v\t\" >\r\n" +
		"<Declaration><![CDATA[\tx : INT;\n]]></Declaration>   \r\n" +
		"</A  >"
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("weird.TcPOU", []byte(doc)))

	res, err := Format(f, aggressiveConfig())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := string(res.Output)

	for _, frag := range []string{
		"<A  attr = \"v\t\" >\r\n",
		"]]></Declaration>   \r\n",
		"</A  >",
	} {
		if !strings.Contains(out, frag) {
			t.Errorf("markup fragment %q was rewritten:\n%s", frag, out)
		}
	}
	if want := "<![CDATA[    x : INT;\n]]>"; !strings.Contains(out, want) {
		t.Errorf("code region missing %q:\n%s", want, out)
	}
}

func TestFormatPreservedRegions(t *testing.T) {
	code := "\tmessy   \r\nIF x THEN"
	doc := `<A><Declaration xml:space="preserve"><![CDATA[` + code + `]]></Declaration></A>`
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("preserve.TcPOU", []byte(doc)))

	res, err := Format(f, aggressiveConfig())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if res.Changed {
		t.Errorf("preserved region was rewritten:\n%s", res.Output)
	}
}

func TestFormatPreserveInherited(t *testing.T) {
	doc := `<A xml:space="preserve"><Declaration><![CDATA[	x
]]></Declaration></A>`
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("inherit.TcPOU", []byte(doc)))

	res, err := Format(f, aggressiveConfig())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if res.Changed {
		t.Errorf("inherited preserve was ignored:\n%s", res.Output)
	}
}

func TestFormatTabSpaceRoundTrip(t *testing.T) {
	doc := implDoc("\t\tspeed := 1.0;\n\t  half := 2;\n")
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("rt.TcPOU", []byte(doc)))

	toSpaces, err := Format(f, Config{IndentStyle: IndentSpaces, IndentSize: 4})
	if err != nil {
		t.Fatalf("to spaces: %v", err)
	}
	g := fs.Get(fs.AddVirtual("rt2.TcPOU", toSpaces.Output))
	back, err := Format(g, Config{IndentStyle: IndentTabs, IndentSize: 4})
	if err != nil {
		t.Fatalf("to tabs: %v", err)
	}
	if string(back.Output) != doc {
		t.Errorf("round trip diverged:\n%s\nvs:\n%s", back.Output, doc)
	}
}

func TestFormatMultipleRegions(t *testing.T) {
	doc := `<TcPlcObject>
<POU Name="A"><Declaration><![CDATA[x : INT;   ]]></Declaration>
<Implementation><ST><![CDATA[x := 1;   ]]></ST></Implementation></POU>
</TcPlcObject>`
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("multi.TcPOU", []byte(doc)))

	res, err := Format(f, Config{TrimTrailingWhitespace: true})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := string(res.Output)
	if !strings.Contains(out, "<![CDATA[x : INT;]]>") || !strings.Contains(out, "<![CDATA[x := 1;]]>") {
		t.Errorf("not every region was trimmed:\n%s", out)
	}
}

func TestFormatMalformedDocument(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("bad.TcPOU", []byte(`<A><Declaration><![CDATA[x]]></A>`)))

	_, err := Format(f, aggressiveConfig())
	if err == nil {
		t.Fatal("expected an error for mismatched end tag")
	}
	var me *markup.MalformedError
	if !errors.As(err, &me) {
		t.Fatalf("error is %T, want *markup.MalformedError", err)
	}
	if me.Code != diag.ScanMismatchedEndTag {
		t.Errorf("code = %s, want %s", me.Code.ID(), diag.ScanMismatchedEndTag.ID())
	}
}
