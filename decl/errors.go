package decl

import "fmt"

// ParseError reports malformed declaration input. It is fatal for a run.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// TypeParseError reports a type literal that was expected to name a
// primitive or declared type but is not a well-formed type path.
// It is fatal for a run.
type TypeParseError struct {
	Literal string
	Msg     string
}

func (e *TypeParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as a type: %s", e.Literal, e.Msg)
}
