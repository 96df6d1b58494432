package parser

import "fmt"

// ErrorKind classifies parse diagnostics.
type ErrorKind int

const (
	ErrUnterminatedLiteral ErrorKind = iota
	ErrInvalidEscape
	ErrMalformedNumericLiteral
	ErrUnexpectedToken
	ErrUnexpectedEOF
	ErrUnmatchedDelimiter
	ErrInvalidAssignmentTarget
	ErrReservedWordMisuse
	ErrInvalidControlFlow
	ErrNestingTooDeep
)

var errorKindNames = map[ErrorKind]string{
	ErrUnterminatedLiteral:     "UnterminatedLiteral",
	ErrInvalidEscape:           "InvalidEscape",
	ErrMalformedNumericLiteral: "MalformedNumericLiteral",
	ErrUnexpectedToken:         "UnexpectedToken",
	ErrUnexpectedEOF:           "UnexpectedEOF",
	ErrUnmatchedDelimiter:      "UnmatchedDelimiter",
	ErrInvalidAssignmentTarget: "InvalidAssignmentTarget",
	ErrReservedWordMisuse:      "ReservedWordMisuse",
	ErrInvalidControlFlow:      "InvalidControlFlow",
	ErrNestingTooDeep:          "NestingTooDeep",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is a single diagnostic anchored to a source span. A parse
// collects many of them; the first one doubles as the returned error when
// the caller asks for success or failure.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Span    Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Span.Start, e.Kind, e.Message)
}

func newParseError(kind ErrorKind, span Span, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}
