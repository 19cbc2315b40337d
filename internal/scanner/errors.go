package scanner

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrSyntax is wrapped by every *SyntaxError.
var ErrSyntax = errors.New("invalid JSON")

// SyntaxError reports malformed input. Line and Column are 1-based and point
// at the first offending byte; Column counts bytes.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Invalid JSON value at line %d column %d", e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Errorf returns a *SyntaxError located at offset.
func (s *Scanner) Errorf(offset int, format string, args ...any) *SyntaxError {
	return s.errorAt(offset, fmt.Sprintf(format, args...))
}

func (s *Scanner) errorAt(offset int, reason string) *SyntaxError {
	if offset > len(s.data) {
		offset = len(s.data)
	}
	line, col := Position(s.data, offset)
	return &SyntaxError{Offset: offset, Line: line, Column: col, Reason: reason}
}

func (s *Scanner) eof() *SyntaxError {
	return s.errorAt(len(s.data), "unexpected end of input")
}

func (s *Scanner) unexpected() *SyntaxError {
	return s.errorAt(s.pos, fmt.Sprintf("unexpected character %q", s.data[s.pos]))
}

// Position converts a byte offset into a 1-based line and column.
func Position(data []byte, offset int) (line, column int) {
	head := data[:offset]
	line = 1 + bytes.Count(head, []byte{'\n'})
	column = offset - (bytes.LastIndexByte(head, '\n') + 1) + 1
	return line, column
}
