package asm

import "testing"

// TestClassifiers_AtomicOnFailure verifies the cursor-purity contract every
// classifier must honor: on failure the cursor position equals its position
// at entry, so the matcher can safely try the next catalogue entry.
func TestClassifiers_AtomicOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		tokens []Token
		run    func(cur *Cursor) error
	}{
		{"reg: wrong size", []Token{tok(TokenIdent, "al")}, func(cur *Cursor) error {
			_, err := IsRegOfSize(cur, QWord)
			return err
		}},
		{"reg: not a register", []Token{tok(TokenIdent, "frobnicate")}, func(cur *Cursor) error {
			_, err := IsRegOfSize(cur, 0)
			return err
		}},
		{"imm: overflow", []Token{tok(TokenInt, "99999")}, func(cur *Cursor) error {
			_, err := IsImmOfSize(cur, Byte)
			return err
		}},
		{"imm: dangling minus", []Token{tok(TokenMinus, "-"), tok(TokenIdent, "lbl")}, func(cur *Cursor) error {
			_, err := IsImmOfSize(cur, Byte)
			return err
		}},
		{"rel: wrong size", []Token{tok(TokenIdent, "lbl")}, func(cur *Cursor) error {
			_, err := IsRelOfSize(cur, Byte)
			return err
		}},
		{"rm: unterminated memory reference", []Token{
			tok(TokenIdent, "qword"), tok(TokenIdent, "ptr"), tok(TokenLBrack, "["),
			tok(TokenIdent, "rbp"),
		}, func(cur *Cursor) error {
			_, err := IsRMOfSize(cur, QWord)
			return err
		}},
		{"rm: SIB base out of scope", []Token{
			tok(TokenIdent, "qword"), tok(TokenIdent, "ptr"), tok(TokenLBrack, "["),
			tok(TokenIdent, "rsp"), tok(TokenRBrack, "]"),
		}, func(cur *Cursor) error {
			_, err := IsRMOfSize(cur, QWord)
			return err
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cur := cursorFrom(c.tokens...)
			start := cur.Pos()
			err := c.run(cur)
			if err == nil {
				t.Fatal("expected an error, got none")
			}
			if cur.Pos() != start {
				t.Errorf("cursor moved from %d to %d on failure", start, cur.Pos())
			}
		})
	}
}

func TestFitsSigned(t *testing.T) {
	cases := []struct {
		v    int64
		size Size
		want bool
	}{
		{-128, Byte, true},
		{127, Byte, true},
		{255, Byte, true},
		{256, Byte, false},
		{-129, Byte, false},
		{0x7FFFFFFF, DWord, true},
		{-1, QWord, true},
	}
	for _, c := range cases {
		if got := FitsSigned(c.v, c.size); got != c.want {
			t.Errorf("FitsSigned(%d, %s) = %v, want %v", c.v, c.size, got, c.want)
		}
	}
}

func TestIsImmOfSize_NegativeLiteral(t *testing.T) {
	cur := cursorFrom(tok(TokenMinus, "-"), tok(TokenInt, "8"), tok(TokenNewline, "\n"))
	op, err := IsImmOfSize(cur, Byte)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Immediate.Integer != -8 {
		t.Errorf("got %d, want -8", op.Immediate.Integer)
	}
	if next, _ := cur.Peek(); next.Type != TokenNewline {
		t.Errorf("expected cursor parked at newline, got %v", next)
	}
}

func TestIsImmOfSize_HexLiteral(t *testing.T) {
	cur := cursorFrom(tok(TokenInt, "0x40"))
	op, err := IsImmOfSize(cur, DWord)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Immediate.Integer != 0x40 {
		t.Errorf("got %d, want 64", op.Immediate.Integer)
	}
}

func TestIsImmOfSize_BareIdentifierIsReference(t *testing.T) {
	cur := cursorFrom(tok(TokenIdent, "lbl"))
	op, err := IsImmOfSize(cur, DWord)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !op.Immediate.IsReference || op.Immediate.Label != "lbl" {
		t.Errorf("got %+v, want a reference to 'lbl'", op.Immediate)
	}
}
