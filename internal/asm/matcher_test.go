package asm

import (
	"reflect"
	"testing"
)

func tok(typ TokenType, lit string) Token { return Token{Type: typ, Literal: lit} }

func cursorFrom(tokens ...Token) *Cursor {
	return NewCursor(tokens)
}

func TestMatch_PushRBP(t *testing.T) {
	cur := cursorFrom(tok(TokenIdent, "rbp"), tok(TokenNewline, "\n"))
	ins, err := Match(cur, "push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x55}
	if !reflect.DeepEqual(ins.Bytes(), want) {
		t.Errorf("got % X, want % X", ins.Bytes(), want)
	}
}

func TestMatch_PushR13(t *testing.T) {
	cur := cursorFrom(tok(TokenIdent, "r13"), tok(TokenNewline, "\n"))
	ins, err := Match(cur, "push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x41, 0x55}
	if !reflect.DeepEqual(ins.Bytes(), want) {
		t.Errorf("got % X, want % X", ins.Bytes(), want)
	}
}

func TestMatch_MovRegReg(t *testing.T) {
	cur := cursorFrom(
		tok(TokenIdent, "rax"), tok(TokenComma, ","), tok(TokenIdent, "rbx"),
		tok(TokenNewline, "\n"),
	)
	ins, err := Match(cur, "mov")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x89, 0xD8}
	if !reflect.DeepEqual(ins.Bytes(), want) {
		t.Errorf("got % X, want % X", ins.Bytes(), want)
	}
}

func TestMatch_MovRegFromMemoryDisp8(t *testing.T) {
	cur := cursorFrom(
		tok(TokenIdent, "rax"), tok(TokenComma, ","),
		tok(TokenIdent, "qword"), tok(TokenIdent, "ptr"), tok(TokenLBrack, "["),
		tok(TokenIdent, "rbp"), tok(TokenMinus, "-"), tok(TokenInt, "8"),
		tok(TokenRBrack, "]"), tok(TokenNewline, "\n"),
	)
	ins, err := Match(cur, "mov")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x8B, 0x45, 0xF8}
	if !reflect.DeepEqual(ins.Bytes(), want) {
		t.Errorf("got % X, want % X", ins.Bytes(), want)
	}
}

// TestMatch_MovToMemoryRspBaseRejected documents the SIB boundary: this core
// does not implement the SIB byte, so an rsp/r12-based memory reference is
// rejected rather than silently mis-encoded.
func TestMatch_MovToMemoryRspBaseRejected(t *testing.T) {
	cur := cursorFrom(
		tok(TokenIdent, "qword"), tok(TokenIdent, "ptr"), tok(TokenLBrack, "["),
		tok(TokenIdent, "rsp"), tok(TokenPlus, "+"), tok(TokenInt, "0x40"),
		tok(TokenRBrack, "]"), tok(TokenComma, ","), tok(TokenIdent, "r12"),
		tok(TokenNewline, "\n"),
	)
	_, err := Match(cur, "mov")
	if err == nil {
		t.Fatal("expected rsp-based memory reference to be rejected, got none")
	}
}

func TestMatch_JmpLabelRecordsRelativeReference(t *testing.T) {
	cur := cursorFrom(tok(TokenIdent, "lbl"), tok(TokenNewline, "\n"))
	ins, err := Match(cur, "jmp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xE9, 0x00, 0x00, 0x00, 0x00}
	if !reflect.DeepEqual(ins.Bytes(), want) {
		t.Errorf("got % X, want % X", ins.Bytes(), want)
	}
	refs := ins.References()
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	wantRef := Reference{Target: "lbl", At: 1, Width: 4, Relative: true}
	if refs[0] != wantRef {
		t.Errorf("got %+v, want %+v", refs[0], wantRef)
	}
}

func TestMatch_UnknownMnemonic(t *testing.T) {
	cur := cursorFrom(tok(TokenNewline, "\n"))
	_, err := Match(cur, "frobnicate")
	asmErr, ok := err.(*Error)
	if !ok || asmErr.Kind != UnknownMnemonic {
		t.Fatalf("expected UnknownMnemonic, got %v", err)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	// 9999999999 fits no push form: too wide for imm8/imm32, not a register
	// or memory reference.
	cur := cursorFrom(tok(TokenInt, "9999999999"), tok(TokenNewline, "\n"))
	_, err := Match(cur, "push")
	asmErr, ok := err.(*Error)
	if !ok || asmErr.Kind != NoMatch {
		t.Fatalf("expected NoMatch, got %v", err)
	}
}

func TestMatch_AddRegRegAndImmediateForms(t *testing.T) {
	cur := cursorFrom(
		tok(TokenIdent, "rax"), tok(TokenComma, ","), tok(TokenIdent, "rcx"),
		tok(TokenNewline, "\n"),
	)
	ins, err := Match(cur, "add")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x01, 0xC8}
	if !reflect.DeepEqual(ins.Bytes(), want) {
		t.Errorf("got % X, want % X", ins.Bytes(), want)
	}

	cur2 := cursorFrom(
		tok(TokenIdent, "rax"), tok(TokenComma, ","), tok(TokenInt, "5"),
		tok(TokenNewline, "\n"),
	)
	ins2, err := Match(cur2, "add")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want2 := []byte{0x48, 0x83, 0xC0, 0x05}
	if !reflect.DeepEqual(ins2.Bytes(), want2) {
		t.Errorf("got % X, want % X", ins2.Bytes(), want2)
	}
}

func TestMatch_RetNop(t *testing.T) {
	cur := cursorFrom(tok(TokenNewline, "\n"))
	ins, err := Match(cur, "ret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ins.Bytes(), []byte{0xC3}) {
		t.Errorf("got % X", ins.Bytes())
	}
}
