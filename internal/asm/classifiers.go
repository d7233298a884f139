package asm

import "strconv"

// parseIntLiteral reads a decimal or 0x-prefixed hex integer literal as the
// lexer hands it over: no sign, that is handled by the caller.
func parseIntLiteral(lit string) (int64, error) {
	if len(lit) > 2 && (lit[0:2] == "0x" || lit[0:2] == "0X") {
		return strconv.ParseInt(lit[2:], 16, 64)
	}
	return strconv.ParseInt(lit, 10, 64)
}

// ParseIntLiteral exports parseIntLiteral for callers outside this package
// that need the same decimal/0x-hex literal parsing — the module assembler's
// data directives, in particular.
func ParseIntLiteral(lit string) (int64, error) { return parseIntLiteral(lit) }

// IsRegOfSize classifies a plain register token. size == 0 accepts any
// width; otherwise the register's alias width must match exactly.
func IsRegOfSize(cur *Cursor, size Size) (Operand, error) {
	start := cur.Pos()
	tok, ok := cur.Next()
	if !ok {
		cur.Seek(start)
		return Operand{}, NewError(UnexpectedEndOfLine, "expected register, found end of line")
	}
	if tok.Type != TokenIdent {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected register, found %q", tok.Literal)
	}
	a, found := RegistersByName[tok.Literal]
	if !found {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "%q is not a register", tok.Literal)
	}
	if size != 0 && a.Size != size {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "register %q is %s, want %s", tok.Literal, a.Size, size)
	}
	return Operand{Kind: OperandRegister, Size: a.Size, Register: a.Register, RequiresRex: a.RequiresRex}, nil
}

// IsImmOfSize classifies an optional-sign integer literal, or else a bare
// identifier taken as a non-relative label Reference.
func IsImmOfSize(cur *Cursor, size Size) (Operand, error) {
	start := cur.Pos()

	negative := false
	if tok, ok := cur.Peek(); ok && tok.Type == TokenMinus {
		cur.Next()
		negative = true
	}

	tok, ok := cur.Next()
	if !ok {
		cur.Seek(start)
		return Operand{}, NewError(UnexpectedEndOfLine, "expected immediate, found end of line")
	}

	if tok.Type == TokenInt {
		v, err := parseIntLiteral(tok.Literal)
		if err != nil {
			cur.Seek(start)
			return Operand{}, Wrap(InvalidOperand, err, "malformed integer literal %q", tok.Literal)
		}
		if negative {
			v = -v
		}
		if !FitsSigned(v, size) {
			cur.Seek(start)
			return Operand{}, NewError(ImmediateOverflow, "immediate %d does not fit in %s", v, size)
		}
		return Operand{Kind: OperandImmediate, Size: size, Immediate: IntegerImmediate(v)}, nil
	}

	if negative {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected integer literal after '-', found %q", tok.Literal)
	}

	if tok.Type == TokenIdent {
		return Operand{Kind: OperandImmediate, Size: size, Immediate: ReferenceImmediate(tok.Literal)}, nil
	}

	cur.Seek(start)
	return Operand{}, NewError(InvalidOperand, "expected immediate, found %q", tok.Literal)
}

// IsRelOfSize classifies a bare label identifier as a relative Reference.
// Only 32 and 64 are accepted sizes; short (8-bit) relative jumps are out of
// scope until the catalogue grows to cover them.
func IsRelOfSize(cur *Cursor, size Size) (Operand, error) {
	if size != DWord && size != QWord {
		return Operand{}, NewError(InvalidOperand, "is_rel_of_size only accepts 32 or 64 bits, got %s", size)
	}
	start := cur.Pos()
	tok, ok := cur.Next()
	if !ok {
		cur.Seek(start)
		return Operand{}, NewError(UnexpectedEndOfLine, "expected label, found end of line")
	}
	if tok.Type != TokenIdent {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected label, found %q", tok.Literal)
	}
	return Operand{Kind: OperandRelative, Size: size, Immediate: ReferenceImmediate(tok.Literal)}, nil
}

// IsRMOfSize classifies either a plain register of the given size, yielding
// (reg, Direct, nil), or a sized memory reference "<kw> ptr [ <reg64> (('+'|
// '-') imm32)? ]". The inner base register is parsed at any width (it is a
// 64-bit base in practice) but rsp/r12 are rejected: this core does not
// implement the SIB byte, so any base whose low three encoding bits are 100
// is out of scope rather than silently mis-encoded.
func IsRMOfSize(cur *Cursor, size Size) (Operand, error) {
	start := cur.Pos()

	if tok, ok := cur.Peek(); ok && tok.Type == TokenIdent {
		if a, found := RegistersByName[tok.Literal]; found && a.Size == size {
			cur.Next()
			return Operand{
				Kind: OperandMemRef, Size: size, RequiresRex: a.RequiresRex,
				MemRef: MemRef{Base: a.Register, Mod: Direct},
			}, nil
		}
	}

	kw, ok := cur.Next()
	if !ok || kw.Type != TokenIdent || kw.Literal != size.String() {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected %s register or '%s ptr [...]'", size, size)
	}

	ptrTok, ok := cur.Next()
	if !ok || !ptrTok.Is(TokenIdent, "ptr") {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected 'ptr' after size keyword")
	}

	lb, ok := cur.Next()
	if !ok || lb.Type != TokenLBrack {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected '[' opening memory reference")
	}

	baseTok, ok := cur.Next()
	if !ok || baseTok.Type != TokenIdent {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected base register inside memory reference")
	}
	base, found := RegistersByName[baseTok.Literal]
	if !found {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "%q is not a register", baseTok.Literal)
	}
	if base.Register.Encoding&0x7 == 4 {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "base register %q needs a SIB byte, out of scope for this core", baseTok.Literal)
	}

	var disp *Immediate
	if sign, ok := cur.Peek(); ok && (sign.Type == TokenPlus || sign.Type == TokenMinus) {
		cur.Next()
		immTok, ok := cur.Next()
		if !ok || immTok.Type != TokenInt {
			cur.Seek(start)
			return Operand{}, NewError(InvalidOperand, "expected integer displacement after '%s'", sign.Type)
		}
		v, err := parseIntLiteral(immTok.Literal)
		if err != nil {
			cur.Seek(start)
			return Operand{}, Wrap(InvalidOperand, err, "malformed displacement %q", immTok.Literal)
		}
		if sign.Type == TokenMinus {
			v = -v
		}
		if !FitsSigned(v, DWord) {
			cur.Seek(start)
			return Operand{}, NewError(ImmediateOverflow, "displacement %d does not fit in 32 bits", v)
		}
		imm := IntegerImmediate(v)
		disp = &imm
	}

	rb, ok := cur.Next()
	if !ok || rb.Type != TokenRBrack {
		cur.Seek(start)
		return Operand{}, NewError(InvalidOperand, "expected ']' closing memory reference")
	}

	mod := NoOffset
	if disp != nil {
		mod = Offset32
	}
	return Operand{Kind: OperandMemRef, Size: size, MemRef: MemRef{Base: base.Register, Mod: mod, Disp: disp}}, nil
}
