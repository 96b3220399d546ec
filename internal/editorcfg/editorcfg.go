// Package editorcfg resolves the formatting preferences for a file from
// the editorconfig cascade. The standard keys map straight onto the
// formatter configuration; the TwinCAT-specific rules hang off custom
// twincat_* keys so a project's .editorconfig stays one file.
package editorcfg

import (
	"fmt"
	"strconv"

	"github.com/editorconfig/editorconfig-core-go/v2"

	"github.com/DEMCON/twincat-tools/internal/format"
)

// Custom keys recognized next to the standard editorconfig set.
const (
	KeyAlignVariables = "twincat_align_variables"
	KeyParentheses    = "twincat_parentheses_conditionals"
)

// Resolve walks the .editorconfig files that apply to path and returns
// the formatter configuration they describe.
func Resolve(path string) (format.Config, error) {
	def, err := editorconfig.GetDefinitionForFilename(path)
	if err != nil {
		return format.Config{}, fmt.Errorf("editorconfig for %s: %w", path, err)
	}
	return FromDefinition(def)
}

// FromDefinition converts a resolved editorconfig definition. Keys that
// are absent or "unset" leave the matching option at its zero value, so
// the formatter touches nothing it was not asked to.
func FromDefinition(def *editorconfig.Definition) (format.Config, error) {
	var cfg format.Config

	switch def.IndentStyle {
	case "", editorconfig.UnsetValue:
	case editorconfig.IndentStyleSpaces:
		cfg.IndentStyle = format.IndentSpaces
	case editorconfig.IndentStyleTab:
		cfg.IndentStyle = format.IndentTabs
	default:
		return cfg, &format.ConfigError{Option: "indent_style", Reason: fmt.Sprintf("unknown value %q", def.IndentStyle)}
	}

	switch def.IndentSize {
	case "", editorconfig.UnsetValue:
	case "tab":
		// Size follows tab_width; nothing to record here.
	default:
		n, err := strconv.Atoi(def.IndentSize)
		if err != nil {
			return cfg, &format.ConfigError{Option: "indent_size", Reason: fmt.Sprintf("not a number: %q", def.IndentSize)}
		}
		cfg.IndentSize = n
	}
	cfg.TabWidth = def.TabWidth

	if def.TrimTrailingWhitespace != nil {
		cfg.TrimTrailingWhitespace = *def.TrimTrailingWhitespace
	}
	if def.InsertFinalNewline != nil {
		cfg.InsertFinalNewline = *def.InsertFinalNewline
	}

	switch def.EndOfLine {
	case "", editorconfig.UnsetValue:
	case editorconfig.EndOfLineLf:
		cfg.EndOfLine = format.EOLLF
	case editorconfig.EndOfLineCrLf:
		cfg.EndOfLine = format.EOLCRLF
	case editorconfig.EndOfLineCr:
		cfg.EndOfLine = format.EOLCR
	default:
		return cfg, &format.ConfigError{Option: "end_of_line", Reason: fmt.Sprintf("unknown value %q", def.EndOfLine)}
	}

	align, err := rawBool(def, KeyAlignVariables)
	if err != nil {
		return cfg, err
	}
	cfg.AlignVariables = align

	switch v := def.Raw[KeyParentheses]; v {
	case "", editorconfig.UnsetValue:
	case "require", "add":
		cfg.ConditionalParentheses = format.ParensRequire
	case "strip", "remove":
		cfg.ConditionalParentheses = format.ParensStrip
	default:
		return cfg, &format.ConfigError{Option: KeyParentheses, Reason: fmt.Sprintf("unknown value %q", v)}
	}

	return cfg, nil
}

func rawBool(def *editorconfig.Definition, key string) (bool, error) {
	switch v := def.Raw[key]; v {
	case "", editorconfig.UnsetValue, "false":
		return false, nil
	case "true":
		return true, nil
	default:
		return false, &format.ConfigError{Option: key, Reason: fmt.Sprintf("not a boolean: %q", v)}
	}
}
