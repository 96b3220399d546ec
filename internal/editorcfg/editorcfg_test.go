package editorcfg

import (
	"errors"
	"testing"

	"github.com/editorconfig/editorconfig-core-go/v2"

	"github.com/DEMCON/twincat-tools/internal/format"
)

func boolPtr(b bool) *bool { return &b }

func TestFromDefinition(t *testing.T) {
	def := &editorconfig.Definition{
		IndentStyle:            editorconfig.IndentStyleSpaces,
		IndentSize:             "4",
		TabWidth:               4,
		TrimTrailingWhitespace: boolPtr(true),
		InsertFinalNewline:     boolPtr(true),
		EndOfLine:              editorconfig.EndOfLineCrLf,
		Raw: map[string]string{
			KeyAlignVariables: "true",
			KeyParentheses:    "require",
		},
	}

	cfg, err := FromDefinition(def)
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	want := format.Config{
		IndentStyle:            format.IndentSpaces,
		IndentSize:             4,
		TabWidth:               4,
		TrimTrailingWhitespace: true,
		InsertFinalNewline:     true,
		AlignVariables:         true,
		ConditionalParentheses: format.ParensRequire,
		EndOfLine:              format.EOLCRLF,
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestFromDefinitionEmpty(t *testing.T) {
	cfg, err := FromDefinition(&editorconfig.Definition{Raw: map[string]string{}})
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	if cfg != (format.Config{}) {
		t.Errorf("empty definition produced %+v", cfg)
	}
}

func TestFromDefinitionUnsetValues(t *testing.T) {
	def := &editorconfig.Definition{
		IndentStyle: editorconfig.UnsetValue,
		IndentSize:  editorconfig.UnsetValue,
		EndOfLine:   editorconfig.UnsetValue,
		Raw: map[string]string{
			KeyAlignVariables: editorconfig.UnsetValue,
			KeyParentheses:    editorconfig.UnsetValue,
		},
	}
	cfg, err := FromDefinition(def)
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	if cfg != (format.Config{}) {
		t.Errorf("unset definition produced %+v", cfg)
	}
}

func TestFromDefinitionParenthesesAliases(t *testing.T) {
	for _, tt := range []struct {
		value string
		want  format.ParensMode
	}{
		{"require", format.ParensRequire},
		{"add", format.ParensRequire},
		{"strip", format.ParensStrip},
		{"remove", format.ParensStrip},
	} {
		def := &editorconfig.Definition{Raw: map[string]string{KeyParentheses: tt.value}}
		cfg, err := FromDefinition(def)
		if err != nil {
			t.Fatalf("FromDefinition(%q): %v", tt.value, err)
		}
		if cfg.ConditionalParentheses != tt.want {
			t.Errorf("%q resolved to %v, want %v", tt.value, cfg.ConditionalParentheses, tt.want)
		}
	}
}

func TestFromDefinitionBadValues(t *testing.T) {
	for _, def := range []*editorconfig.Definition{
		{IndentStyle: "sideways", Raw: map[string]string{}},
		{IndentSize: "four", Raw: map[string]string{}},
		{EndOfLine: "crcrlf", Raw: map[string]string{}},
		{Raw: map[string]string{KeyAlignVariables: "yes please"}},
		{Raw: map[string]string{KeyParentheses: "maybe"}},
	} {
		_, err := FromDefinition(def)
		var ce *format.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("definition %+v: error %v, want *format.ConfigError", def, err)
		}
	}
}
