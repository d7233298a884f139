package assembler

import (
	"github.com/corvidlabs/x64asm/internal/asm"
)

// Drive applies every statement in tokens — a label definition, a
// directive, or an instruction — to the module in order. It does not stop
// at the first error: like the teacher's code generator, it accumulates as
// many errors as it can find in one pass and lets the caller decide what
// to do with HasErrors().
func (m *Module) Drive(tokens []asm.Token) {
	cur := asm.NewCursor(tokens)
	for !cur.AtEnd() {
		m.driveLine(cur)
	}
}

func (m *Module) driveLine(cur *asm.Cursor) {
	tok, ok := cur.Peek()
	if !ok {
		return
	}
	if tok.Type == asm.TokenNewline {
		cur.Next()
		return
	}

	loc := m.Loc(tok.Line, tok.Column)

	switch tok.Type {
	case asm.TokenDot:
		m.driveDirective(cur, loc)
	case asm.TokenIdent:
		if next, ok := cur.PeekAt(1); ok && next.Type == asm.TokenColon {
			cur.Next()
			cur.Next()
			m.DefineLabel(tok.Literal, loc)
			return
		}
		m.driveInstruction(cur, tok.Literal, loc)
	default:
		m.addError(loc, "expected a label, directive, or instruction, found %q", tok.Literal)
		cur.SkipToLineEnd()
	}
}

func (m *Module) driveInstruction(cur *asm.Cursor, mnemonic string, loc Location) {
	cur.Next() // consume the mnemonic
	ins, err := asm.Match(cur, mnemonic)
	if err != nil {
		m.addError(loc, "%s", err)
		cur.SkipToLineEnd()
		return
	}
	m.EmitInstruction(ins, loc)
}

func (m *Module) driveDirective(cur *asm.Cursor, loc Location) {
	cur.Next() // consume '.'

	nameTok, ok := cur.Next()
	if !ok || nameTok.Type != asm.TokenIdent {
		m.addError(loc, "expected a directive name after '.'")
		cur.SkipToLineEnd()
		return
	}

	args := collectLineArgs(cur)

	switch nameTok.Literal {
	case "global", "globl":
		m.driveGlobal(args, loc)
	case "text":
		m.SwitchSection(SectionText)
	case "data":
		m.SwitchSection(SectionData)
	case "bss":
		m.SwitchSection(SectionBSS)
	case "byte":
		m.driveDataDirective(1, args, loc)
	case "word":
		m.driveDataDirective(2, args, loc)
	case "dword":
		m.driveDataDirective(4, args, loc)
	case "qword":
		m.driveDataDirective(8, args, loc)
	default:
		m.addError(loc, "unknown directive '.%s'", nameTok.Literal)
	}
}

func (m *Module) driveGlobal(args [][]asm.Token, loc Location) {
	for _, group := range args {
		if len(group) != 1 || group[0].Type != asm.TokenIdent {
			m.addError(loc, "expected an identifier in .global/.globl")
			continue
		}
		m.Global(group[0].Literal)
	}
}

// driveDataDirective handles .byte/.word/.dword/.qword. In .text/.data it
// writes each comma-separated value little-endian at the given width. In
// .bss, where no bytes are ever emitted, the same directives instead
// reserve width bytes per argument — the argument is a placeholder value,
// not a count, matching the directive's meaning outside .bss as closely as
// a no-data section allows.
func (m *Module) driveDataDirective(width int, args [][]asm.Token, loc Location) {
	if len(args) == 0 {
		m.addError(loc, "directive expects at least one value")
		return
	}
	for _, group := range args {
		v, err := parseDataValue(group)
		if err != nil {
			m.addError(loc, "malformed value in data directive: %s", err)
			continue
		}
		if !asm.FitsSigned(v, asm.Size(width*8)) {
			m.addError(loc, "value %d does not fit in %d byte(s)", v, width)
			continue
		}
		if m.current == SectionBSS {
			m.Reserve(width)
			continue
		}
		buf := make([]byte, width)
		for n := 0; n < width; n++ {
			buf[n] = byte(v >> (8 * n))
		}
		m.EmitBytes(buf)
	}
}

func parseDataValue(group []asm.Token) (int64, error) {
	negative := false
	i := 0
	if i < len(group) && group[i].Type == asm.TokenMinus {
		negative = true
		i++
	}
	if i >= len(group) || group[i].Type != asm.TokenInt {
		return 0, asm.NewError(asm.InvalidOperand, "expected an integer literal")
	}
	v, err := asm.ParseIntLiteral(group[i].Literal)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

// collectLineArgs reads every token up to (and including) the line's
// terminating newline and splits them into comma-separated groups.
func collectLineArgs(cur *asm.Cursor) [][]asm.Token {
	var lineTokens []asm.Token
	for {
		tok, ok := cur.Next()
		if !ok || tok.Type == asm.TokenNewline {
			break
		}
		lineTokens = append(lineTokens, tok)
	}
	if len(lineTokens) == 0 {
		return nil
	}

	var groups [][]asm.Token
	var group []asm.Token
	for _, tok := range lineTokens {
		if tok.Type == asm.TokenComma {
			groups = append(groups, group)
			group = nil
			continue
		}
		group = append(group, tok)
	}
	groups = append(groups, group)
	return groups
}
