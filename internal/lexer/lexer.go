// Package lexer scans assembly source text into the flat token stream
// internal/asm's classifiers and matcher consume. It is the repo's
// implementation of an interface the core treats as external: nothing in
// internal/asm imports this package.
package lexer

import (
	"github.com/corvidlabs/x64asm/internal/asm"
)

// Lexer scans input one character at a time, in the style of the original
// multi-architecture project's character scanner, restructured to the
// contract pinned by the specification: identifiers, decimal/0x integer
// literals, the single-character punctuators + - , : . [ ] and newline,
// '#'-to-end-of-line comments dropped, whitespace other than newline
// dropped.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte

	line   int
	column int
}

// New prepares a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// Tokenize scans the whole input and returns the flat token sequence,
// or a lex error for a byte that starts no recognized token.
func (l *Lexer) Tokenize() ([]asm.Token, error) {
	var tokens []asm.Token
	for {
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (l *Lexer) next() (asm.Token, bool, error) {
	l.skipInsignificantWhitespace()
	l.skipComment()
	l.skipInsignificantWhitespace()

	line, column := l.line, l.column

	switch {
	case l.ch == 0:
		return asm.Token{}, false, nil
	case l.ch == '\n':
		l.readChar()
		return asm.Token{Type: asm.TokenNewline, Literal: "\n", Line: line, Column: column}, true, nil
	case isLetter(l.ch) || l.ch == '_':
		lit := l.readWord()
		return asm.Token{Type: asm.TokenIdent, Literal: lit, Line: line, Column: column}, true, nil
	case isDigit(l.ch):
		lit := l.readNumber()
		return asm.Token{Type: asm.TokenInt, Literal: lit, Line: line, Column: column}, true, nil
	default:
		typ, ok := punctuator(l.ch)
		if !ok {
			return asm.Token{}, false, &LexError{Line: line, Column: column, Char: l.ch}
		}
		lit := string(l.ch)
		l.readChar()
		return asm.Token{Type: typ, Literal: lit, Line: line, Column: column}, true, nil
	}
}

// skipInsignificantWhitespace advances past spaces, tabs, and carriage
// returns — everything but the newline, which is a token of its own.
func (l *Lexer) skipInsignificantWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

// skipComment drops a '#' through end of line. It does not consume the
// newline itself, so the newline still reaches next() as its own token.
func (l *Lexer) skipComment() {
	if l.ch != '#' {
		return
	}
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) readWord() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.input[start:l.position]
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func punctuator(ch byte) (asm.TokenType, bool) {
	switch ch {
	case '+':
		return asm.TokenPlus, true
	case '-':
		return asm.TokenMinus, true
	case ',':
		return asm.TokenComma, true
	case ':':
		return asm.TokenColon, true
	case '.':
		return asm.TokenDot, true
	case '[':
		return asm.TokenLBrack, true
	case ']':
		return asm.TokenRBrack, true
	default:
		return "", false
	}
}

func isLetter(ch byte) bool { return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' }
func isDigit(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
