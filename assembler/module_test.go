package assembler

import (
	"bytes"
	"testing"

	"github.com/corvidlabs/x64asm/internal/asm"
	"github.com/corvidlabs/x64asm/internal/lexer"
)

func assembleSource(t *testing.T, src string) *Module {
	t.Helper()
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	m := NewModule("test.s")
	m.Drive(tokens)
	return m
}

func TestModule_PlainInstructionsAccumulateInText(t *testing.T) {
	m := assembleSource(t, "push rbp\nmov rax, rbx\npop rbp\nret\n")
	if m.HasErrors() {
		t.Fatalf("unexpected errors: %v", m.Errors())
	}
	sections, err := m.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(sections) != 1 || sections[0].Name != SectionText {
		t.Fatalf("expected a single .text section, got %+v", sections)
	}
	want := []byte{0x55, 0x48, 0x89, 0xD8, 0x5D, 0xC3}
	if !bytes.Equal(sections[0].Data, want) {
		t.Errorf("got % X, want % X", sections[0].Data, want)
	}
}

func TestModule_LocalJumpResolvesToRelativeDisplacement(t *testing.T) {
	m := assembleSource(t, "loop:\n  push rax\n  jmp loop\n")
	if m.HasErrors() {
		t.Fatalf("unexpected errors: %v", m.Errors())
	}
	sections, err := m.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	data := sections[0].Data
	// push rax (1 byte) then jmp rel32 back to offset 0: displacement is
	// -(site_end) = -(1 + 5) = -6.
	want := []byte{0x50, 0xE9, 0xFA, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(data, want) {
		t.Errorf("got % X, want % X", data, want)
	}
	if len(sections[0].Relocations) != 0 {
		t.Errorf("expected the local jump to resolve with no external relocation, got %+v", sections[0].Relocations)
	}
}

func TestModule_UndefinedLabelProducesExternalRelocation(t *testing.T) {
	m := assembleSource(t, "call puts\n")
	if m.HasErrors() {
		t.Fatalf("unexpected errors: %v", m.Errors())
	}
	sections, err := m.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	relocs := sections[0].Relocations
	if len(relocs) != 1 {
		t.Fatalf("expected 1 relocation, got %d: %+v", len(relocs), relocs)
	}
	want := ExternalRelocation{Section: SectionText, Offset: 1, Symbol: "puts", Width: 4, Relative: true}
	if relocs[0] != want {
		t.Errorf("got %+v, want %+v", relocs[0], want)
	}
}

func TestModule_DuplicateLabelIsFatal(t *testing.T) {
	m := assembleSource(t, "top:\n  nop\ntop:\n  nop\n")
	if !m.HasErrors() {
		t.Fatal("expected an error for the duplicate label")
	}
	errs := m.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %+v", len(errs), errs)
	}
	wantLoc := Loc("test.s", 3, 1)
	if errs[0].Loc != wantLoc {
		t.Errorf("error location = %+v, want %+v", errs[0].Loc, wantLoc)
	}
	if got, want := errs[0].String(), "test.s:3:1: duplicate label 'top', previously declared at test.s:1:1"; got != want {
		t.Errorf("error text = %q, want %q", got, want)
	}
}

func TestModule_UnrecognizedMnemonicIsReportedAtItsLocation(t *testing.T) {
	m := assembleSource(t, "nop\nbogus rax\n")
	if !m.HasErrors() {
		t.Fatal("expected an error for the unrecognized mnemonic")
	}
	errs := m.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %+v", len(errs), errs)
	}
	if errs[0].Loc.Line() != 2 {
		t.Errorf("error line = %d, want 2", errs[0].Loc.Line())
	}
}

func TestModule_SectionDirectivesSwitchActiveSection(t *testing.T) {
	m := assembleSource(t, ".data\n.byte 1, 2, 3\n.text\nnop\n")
	if m.HasErrors() {
		t.Fatalf("unexpected errors: %v", m.Errors())
	}
	sections, err := m.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var data, text []byte
	for _, s := range sections {
		switch s.Name {
		case SectionData:
			data = s.Data
		case SectionText:
			text = s.Data
		}
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf(".data got % X, want 01 02 03", data)
	}
	if !bytes.Equal(text, []byte{0x90}) {
		t.Errorf(".text got % X, want 90", text)
	}
}

func TestModule_InstructionInBSSIsRejected(t *testing.T) {
	m := assembleSource(t, ".bss\nnop\n")
	if !m.HasErrors() {
		t.Fatal("expected an error for an instruction inside .bss")
	}
	sections, err := m.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for _, s := range sections {
		if s.Name == SectionBSS && len(s.Data) != 0 {
			t.Errorf(".bss emitted %d bytes, want 0", len(s.Data))
		}
	}
}

func TestModule_BSSDirectiveReservesWithoutEmittingBytes(t *testing.T) {
	m := assembleSource(t, ".bss\nbuf:\n.byte 0, 0, 0, 0\n")
	if m.HasErrors() {
		t.Fatalf("unexpected errors: %v", m.Errors())
	}
	sections, err := m.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for _, s := range sections {
		if s.Name == SectionBSS && len(s.Data) != 0 {
			t.Errorf(".bss emitted %d bytes, want 0", len(s.Data))
		}
	}
}

func TestModule_GlobalDirectiveRecordsSymbol(t *testing.T) {
	m := assembleSource(t, ".global main\nmain:\n  ret\n")
	if !m.IsGlobal("main") {
		t.Error("expected 'main' to be marked global")
	}
}

func TestModule_RelocationOverflowIsReported(t *testing.T) {
	m := NewModule("test.s")
	m.SwitchSection(SectionText)
	ins := asm.NewInstruction("jmp")
	ins.WriteByte(0xE9)
	ins.WriteImm(asm.ReferenceImmediate("far"), 1, true)
	m.EmitInstruction(ins, m.Loc(1, 1))
	m.EmitBytes(make([]byte, 1000))
	m.DefineLabel("far", m.Loc(1, 1))
	if _, err := m.Assemble(); err == nil {
		t.Fatal("expected a relocation overflow error for a 1-byte rel field landing ~1000 bytes away")
	}
}
