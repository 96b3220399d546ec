package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Markup scanning
	ScanInfo                Code = 1000
	ScanUnterminatedTag     Code = 1001
	ScanUnterminatedQuote   Code = 1002
	ScanUnterminatedCData   Code = 1003
	ScanUnterminatedComment Code = 1004
	ScanStrayEndTag         Code = 1005
	ScanMismatchedEndTag    Code = 1006

	// Formatting rules. Info codes record corrections that were applied;
	// warnings record lines that were deliberately left alone.
	FmtInfo                       Code = 2000
	FmtTabConverted               Code = 2001
	FmtTrailingWhitespace         Code = 2002
	FmtFinalNewline               Code = 2003
	FmtEndOfLine                  Code = 2004
	FmtParenthesesAdded           Code = 2005
	FmtParenthesesRemoved         Code = 2006
	FmtVariableAligned            Code = 2007
	FmtSkippedAmbiguousExpression Code = 2100

	// Configuration
	CfgUnsupported Code = 3000

	// Sorter
	SortNodeReordered    Code = 4000
	SortAttributesSorted Code = 4001

	// I/O
	IOLoadFileError Code = 9000
)

// ID returns the stable identifier used in tool output, e.g. "TCT2100".
func (c Code) ID() string {
	return fmt.Sprintf("TCT%04d", uint16(c))
}

func (c Code) String() string {
	return c.ID()
}
