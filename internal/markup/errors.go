package markup

import (
	"fmt"

	"github.com/DEMCON/twincat-tools/internal/diag"
)

// MalformedError reports a document the scanner could not classify. The
// file is left untouched; Offset points at the byte where the broken
// construct starts.
type MalformedError struct {
	Offset uint32
	Code   diag.Code
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed document at byte %d: %s", e.Offset, e.Reason)
}

func malformed(off uint32, code diag.Code, reason string) *MalformedError {
	return &MalformedError{Offset: off, Code: code, Reason: reason}
}
