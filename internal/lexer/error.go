package lexer

import "fmt"

// LexError reports a byte that cannot start any recognized token.
type LexError struct {
	Line, Column int
	Char         byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: unexpected character %q", e.Line, e.Column, e.Char)
}
