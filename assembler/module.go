// Package assembler drives one source file's token stream through
// internal/asm's matcher, accumulating sections, labels, and relocations
// into a Module an object writer can serialize.
package assembler

import (
	"fmt"
	"sort"

	"github.com/corvidlabs/x64asm/internal/asm"
)

// Error is a single accumulated assembly error: a message tied to a source
// location, independent of *asm.Error's classification-by-kind — this is
// the module's own record for reporting, in the teacher's CodegenError
// style.
type Error struct {
	Message string
	Loc     Location
}

func (e Error) String() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

type labelEntry struct {
	section Section
	offset  int
	loc     Location
}

type pendingRef struct {
	section Section
	ref     asm.Reference
	loc     Location
}

// ExternalRelocation is a reference to a label the module never defines —
// handed to an object writer to encode as a symbol relocation against the
// eventual link-time symbol table.
type ExternalRelocation struct {
	Section  Section
	Offset   int
	Symbol   string
	Width    int
	Relative bool
}

// AssembledSection is one section's final bytes paired with whatever
// relocations an object writer still needs to resolve. Size is the
// section's logical length — for .bss, where Data is always empty, it is
// the reserved byte count an object writer must still record.
type AssembledSection struct {
	Name        Section
	Data        []byte
	Size        int
	Relocations []ExternalRelocation
}

// Module accumulates the sections, labels, and pending references built up
// while driving a source file's statements through internal/asm's matcher.
// A Module value exists only via NewModule and is not safe for concurrent
// use — one Module per source file; the CLI assembles files one after
// another, each with a fresh Module.
type Module struct {
	filePath string
	sections map[Section]*sectionBuffer
	current  Section
	labels   map[string]labelEntry
	globals  map[string]bool
	pending  []pendingRef
	errors   []Error
}

// NewModule starts an empty module for the named source file. The name is
// used only for diagnostic locations.
func NewModule(filePath string) *Module {
	return &Module{
		filePath: filePath,
		sections: make(map[Section]*sectionBuffer),
		labels:   make(map[string]labelEntry),
		globals:  make(map[string]bool),
	}
}

// Loc builds a Location against this module's source file.
func (m *Module) Loc(line, column int) Location {
	return Loc(m.filePath, line, column)
}

// Errors returns every accumulated error in the order they were recorded.
func (m *Module) Errors() []Error { return m.errors }

// HasErrors reports whether assembly should be considered failed.
func (m *Module) HasErrors() bool { return len(m.errors) > 0 }

func (m *Module) addError(loc Location, format string, args ...interface{}) {
	m.errors = append(m.errors, Error{Message: fmt.Sprintf(format, args...), Loc: loc})
}

// SwitchSection makes name the active section, creating it on first
// mention.
func (m *Module) SwitchSection(name Section) {
	m.current = name
	m.ensureSection(name)
}

func (m *Module) ensureSection(name Section) *sectionBuffer {
	if _, ok := m.sections[name]; !ok {
		m.sections[name] = &sectionBuffer{}
	}
	return m.sections[name]
}

// ensureCurrent defaults the active section to .text the first time
// anything is emitted before an explicit section directive is seen.
func (m *Module) ensureCurrent() *sectionBuffer {
	if m.current == "" {
		m.current = SectionText
	}
	return m.ensureSection(m.current)
}

// Global marks name as an externally visible symbol. It may be declared
// before the label it names is defined.
func (m *Module) Global(name string) {
	m.globals[name] = true
}

// IsGlobal reports whether name was declared with a .global/.globl
// directive.
func (m *Module) IsGlobal(name string) bool { return m.globals[name] }

// DefineLabel records name's address as the active section's current
// offset. A label already defined anywhere in the module — even in a
// different section — is a fatal duplicate, consistent with a single flat
// symbol namespace per module.
func (m *Module) DefineLabel(name string, loc Location) error {
	if prev, exists := m.labels[name]; exists {
		m.addError(loc, "duplicate label '%s', previously declared at %s", name, prev.loc)
		return asm.NewError(asm.DuplicateLabel, "duplicate label '%s'", name)
	}
	sec := m.ensureCurrent()
	m.labels[name] = labelEntry{section: m.current, offset: sec.length(), loc: loc}
	return nil
}

// EmitInstruction appends the instruction's encoded bytes to the active
// section and queues its references for Resolve. .bss never holds real
// bytes, so an instruction there is rejected rather than silently dropped
// at object-writing time.
func (m *Module) EmitInstruction(ins *asm.Instruction, loc Location) {
	if m.current == SectionBSS {
		m.addError(loc, "instructions are not allowed in .bss")
		return
	}
	sec := m.ensureCurrent()
	base := len(sec.data)
	sec.data = append(sec.data, ins.Bytes()...)
	for _, ref := range ins.References() {
		ref.At += base
		m.pending = append(m.pending, pendingRef{section: m.current, ref: ref, loc: loc})
	}
}

// EmitBytes appends raw bytes — the payload of a .byte/.word/.dword/.qword
// directive — to the active section. Callers must not invoke this for
// .bss, where driveDataDirective redirects to Reserve instead.
func (m *Module) EmitBytes(data []byte) {
	sec := m.ensureCurrent()
	sec.data = append(sec.data, data...)
}

// Reserve grows the active section's reserved size without emitting
// bytes — the only valid effect of a .bss directive's operand.
func (m *Module) Reserve(n int) {
	sec := m.ensureCurrent()
	sec.size += n
}

// Symbol is one label the module defines, in a form an object writer can
// turn into a symbol-table entry.
type Symbol struct {
	Name    string
	Section Section
	Offset  int
	Global  bool
}

// Symbols returns every label this module defines, sorted by name for a
// reproducible symbol table.
func (m *Module) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(m.labels))
	for name, l := range m.labels {
		syms = append(syms, Symbol{Name: name, Section: l.section, Offset: l.offset, Global: m.globals[name]})
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
	return syms
}

// Resolve patches every pending reference whose target is defined
// somewhere in the module directly into the owning section's bytes, using
// the flattened layout sectionBases computes, and returns an
// ExternalRelocation for every reference whose target is never defined
// here — left for an object writer to encode as a symbol relocation
// against another module at link time.
func (m *Module) Resolve() ([]ExternalRelocation, error) {
	bases := m.sectionBases()
	var externals []ExternalRelocation

	for _, p := range m.pending {
		label, defined := m.labels[p.ref.Target]
		if !defined {
			externals = append(externals, ExternalRelocation{
				Section:  p.section,
				Offset:   p.ref.At,
				Symbol:   p.ref.Target,
				Width:    p.ref.Width,
				Relative: p.ref.Relative,
			})
			continue
		}

		target := int64(bases[label.section] + label.offset)
		site := int64(bases[p.section] + p.ref.At)

		value := target
		if p.ref.Relative {
			value = target - (site + int64(p.ref.Width))
		}

		size := asm.Size(p.ref.Width * 8)
		if !asm.FitsSigned(value, size) {
			m.addError(p.loc, "relocation for '%s' does not fit in %d bytes", p.ref.Target, p.ref.Width)
			return nil, asm.NewError(asm.ImmediateOverflow, "relocation for '%s' overflows %d bytes", p.ref.Target, p.ref.Width)
		}

		patchInto(m.sections[p.section].data, p.ref.At, value, p.ref.Width)
	}

	return externals, nil
}

func patchInto(data []byte, at int, value int64, width int) {
	for n := 0; n < width; n++ {
		data[at+n] = byte(value >> (8 * n))
	}
}

// Assemble resolves every reference it can and returns each section's
// final bytes paired with whatever relocations still need an object
// writer's attention, ordered deterministically for a reproducible object
// file.
func (m *Module) Assemble() ([]AssembledSection, error) {
	externals, err := m.Resolve()
	if err != nil {
		return nil, err
	}

	bySection := make(map[Section][]ExternalRelocation)
	for _, r := range externals {
		bySection[r.Section] = append(bySection[r.Section], r)
	}

	var out []AssembledSection
	for _, name := range m.orderedSections() {
		sec := m.sections[name]
		out = append(out, AssembledSection{
			Name:        name,
			Data:        sec.data,
			Size:        sec.length(),
			Relocations: bySection[name],
		})
	}
	return out, nil
}
