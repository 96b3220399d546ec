package format

import (
	"fmt"
)

// IndentStyle selects the direction of tab/space conversion.
type IndentStyle uint8

const (
	IndentUnset IndentStyle = iota
	IndentSpaces
	IndentTabs
)

func (s IndentStyle) String() string {
	switch s {
	case IndentSpaces:
		return "space"
	case IndentTabs:
		return "tab"
	}
	return "unset"
}

// ParensMode controls parentheses around conditions in IF/ELSIF/WHILE/CASE
// headers.
type ParensMode uint8

const (
	ParensUnset ParensMode = iota
	// ParensRequire wraps bare conditions in parentheses.
	ParensRequire
	// ParensStrip removes one redundant outer pair.
	ParensStrip
)

// EndOfLine selects the line terminator for code regions.
type EndOfLine uint8

const (
	EOLUnset EndOfLine = iota
	EOLLF
	EOLCRLF
	EOLCR
)

// Terminator returns the literal terminator bytes, or "" when unset.
func (e EndOfLine) Terminator() string {
	switch e {
	case EOLLF:
		return "\n"
	case EOLCRLF:
		return "\r\n"
	case EOLCR:
		return "\r"
	}
	return ""
}

// Config is the resolved, immutable formatting preference record for one
// file. The engine does not read configuration sources itself; resolution
// (editorconfig cascade, project manifest, CLI flags) happens outside and
// hands the engine this record. An unset option means "leave alone"; no
// rule assumes a default direction.
type Config struct {
	IndentStyle IndentStyle
	// IndentSize is the number of spaces per indentation level.
	IndentSize int
	// TabWidth is the number of spaces a tab stands for; defaults to
	// IndentSize when zero.
	TabWidth int

	TrimTrailingWhitespace bool
	InsertFinalNewline     bool

	// AlignVariables enables column alignment of declaration blocks.
	AlignVariables bool
	// ConditionalParentheses adds or strips parentheses around conditions.
	ConditionalParentheses ParensMode

	EndOfLine EndOfLine
}

// ConfigError reports an unusable configuration. Formatting fails fast
// before any rewriting begins.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported configuration: %s: %s", e.Option, e.Reason)
}

// withDefaults resolves derived values (tab width falls back to indent
// size, as editorconfig specifies).
func (c Config) withDefaults() Config {
	if c.TabWidth == 0 {
		c.TabWidth = c.IndentSize
	}
	return c
}

// Validate rejects configurations the rules cannot honor.
func (c Config) Validate() error {
	if c.IndentSize < 0 {
		return &ConfigError{Option: "indent_size", Reason: fmt.Sprintf("must be positive, got %d", c.IndentSize)}
	}
	if c.TabWidth < 0 {
		return &ConfigError{Option: "tab_width", Reason: fmt.Sprintf("must be positive, got %d", c.TabWidth)}
	}
	if c.IndentStyle != IndentUnset && c.TabWidth == 0 {
		return &ConfigError{Option: "tab_width", Reason: "indent_style is set but no tab width is available"}
	}
	return nil
}
