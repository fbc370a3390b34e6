package query

import "fmt"

// ParseError reports a malformed query. A query that fails to parse never
// partially executes.
type ParseError struct {
	Message  string
	Near     string // offending token text
	Position int    // byte offset in the query string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("parse error at position %d near %q: %s", e.Position, e.Near, e.Message)
}

func errAt(tok token, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Near:     tok.text,
		Position: tok.position,
	}
}
