package markup

// Context classifies a byte span of the document.
type Context uint8

const (
	// Outside covers markup that is not a tag: text of non-code elements,
	// comments, processing instructions, the prolog, CDATA delimiters.
	Outside Context = iota
	// InTagAttributes covers a whole tag from '<' to '>', including the
	// attribute list of start tags.
	InTagAttributes
	// InTextContent covers rewritable code text: the content of the
	// code-bearing elements (Declaration, ST), CDATA or plain.
	InTextContent
	// Preserved covers content under an element carrying the preserve
	// marker; rules never run against these bytes.
	Preserved
)

func (c Context) String() string {
	switch c {
	case Outside:
		return "outside"
	case InTagAttributes:
		return "tag"
	case InTextContent:
		return "text"
	case Preserved:
		return "preserved"
	}
	return "unknown"
}

// Kind tells which flavor of code region a text span belongs to. The
// alignment rule only fires inside declaration regions.
type Kind uint8

const (
	KindNone Kind = iota
	KindDeclaration
	KindImplementation
)

func (k Kind) String() string {
	switch k {
	case KindDeclaration:
		return "declaration"
	case KindImplementation:
		return "implementation"
	}
	return "none"
}

// regionKind maps a local element name to the code region it opens.
func regionKind(name string) Kind {
	switch name {
	case "Declaration":
		return KindDeclaration
	case "ST":
		return KindImplementation
	}
	return KindNone
}
