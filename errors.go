package texd

import (
	"fmt"
)

// ErrorKind classifies a transpile failure
type ErrorKind int

const (
	// KindUnexpectedEOF is reported when a line ends inside an inline macro call
	KindUnexpectedEOF ErrorKind = iota + 1
	// KindUnexpectedChar is reported for a character that cannot start or continue a construct
	KindUnexpectedChar
	// KindUnsupportedIdentifier is reported for constructs texd refuses, such as `$$`
	KindUnsupportedIdentifier
	// KindMetadata is reported for a malformed or incomplete front matter block
	KindMetadata
	// KindTable is reported when the rows of a csv block cannot be parsed
	KindTable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnexpectedEOF:
		return "unexpected end of line"
	case KindUnexpectedChar:
		return "unexpected character"
	case KindUnsupportedIdentifier:
		return "unsupported identifier"
	case KindMetadata:
		return "front matter error"
	case KindTable:
		return "table error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels for errors.Is. A *ParseError matches the sentinel of its Kind.
var (
	ErrUnexpectedEOF         = &ParseError{Kind: KindUnexpectedEOF}
	ErrUnexpectedChar        = &ParseError{Kind: KindUnexpectedChar}
	ErrUnsupportedIdentifier = &ParseError{Kind: KindUnsupportedIdentifier}
	ErrMetadata              = &ParseError{Kind: KindMetadata}
	ErrTable                 = &ParseError{Kind: KindTable}
)

// ParseError is returned for every failure of a transpile pass.
//
// Line and Column are 1-indexed positions in the source document, zero when unknown.
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Column int
	// The offending character for KindUnexpectedChar
	Char rune
	// The offending construct for KindUnsupportedIdentifier
	Ident string
	// Free form detail for KindMetadata and KindTable
	Msg string
	// Underlying error (yaml, csv), if any
	Err error
}

// Detail describes the failure without its position
func (e *ParseError) Detail() string {
	var detail string
	switch e.Kind {
	case KindUnexpectedChar:
		detail = fmt.Sprintf("%s: %q", e.Kind, e.Char)
	case KindUnsupportedIdentifier:
		detail = fmt.Sprintf("%s: %s", e.Kind, e.Ident)
	case KindMetadata, KindTable:
		detail = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
		if e.Err != nil {
			detail += ": " + e.Err.Error()
		}
	default:
		detail = e.Kind.String()
	}
	return detail
}

func (e *ParseError) Error() string {
	detail := e.Detail()
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, detail)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, detail)
	default:
		return detail
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ParseError of the same kind
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func metadataError(msg string, err error) *ParseError {
	return &ParseError{Kind: KindMetadata, Msg: msg, Err: err}
}
