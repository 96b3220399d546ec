package diag

import (
	"fmt"

	"github.com/DEMCON/twincat-tools/internal/source"
)

// Diagnostic is a single finding tied to a byte span of the input document.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Code.ID(), d.Severity, d.Message)
}
