package markup

import (
	"fmt"
)

// Span is a classified half-open byte range [Start, End) of the original
// document. Spans are ordered, non-overlapping and contiguous: their
// concatenation reconstructs the document byte for byte.
type Span struct {
	Context Context
	Kind    Kind
	Start   uint32
	End     uint32
	// Name is the value of the nearest Name attribute seen before this
	// span opened; used to label findings ("MAIN", "FB_Motor", ...).
	Name string
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Context, s.Start, s.End)
}

// Bytes returns the slice of doc this span refers to.
func (s Span) Bytes(doc []byte) []byte {
	return doc[s.Start:s.End]
}
