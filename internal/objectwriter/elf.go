package objectwriter

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/corvidlabs/x64asm/assembler"
)

// ELF64 structures below follow the System V ABI layout exactly (field
// order and widths matter — this is wire format, not a Go convenience
// type), grounded in the struct-plus-binary.Write style a relocatable
// writer in this corpus uses for its executable ELF output.
type elf64Header struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

type elf64SectionHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

type elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

type elf64Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

const (
	etRel       = 1
	emX8664     = 62
	shtNull     = 0
	shtProgBits = 1
	shtSymtab   = 2
	shtStrtab   = 3
	shtRela     = 4
	shtNobits   = 8
	shfWrite    = 0x1
	shfAlloc    = 0x2
	shfExecInst = 0x4

	stbLocal  = 0
	stbGlobal = 1
	sttNotype = 0
	sttFunc   = 2
	sttObject = 1

	rX8664_64   = 1 // absolute, width 8
	rX8664_32S  = 11 // absolute, width 4
	rX8664_PC32 = 2  // relative, width 4
)

// stringTable accumulates a NUL-separated byte blob and hands back each
// entry's byte offset, the layout ELF's string tables always use.
type stringTable struct {
	buf bytes.Buffer
}

func newStringTable() *stringTable {
	st := &stringTable{}
	st.buf.WriteByte(0) // offset 0 is always the empty string
	return st
}

func (st *stringTable) add(s string) uint32 {
	off := uint32(st.buf.Len())
	st.buf.WriteString(s)
	st.buf.WriteByte(0)
	return off
}

func sectionIndexName(s assembler.Section) string { return string(s) }

// WriteELF64 serializes mod as a minimal ET_REL (relocatable) x86-64 ELF
// object: one PROGBITS section per .text/.data, a NOBITS section for
// .bss, a symbol table covering every label (local unless marked with
// .global/.globl) plus every external relocation target as an undefined
// symbol, and one .rela section per code/data section that needed
// patching against a symbol rather than a concrete address.
func WriteELF64(mod *assembler.Module) ([]byte, error) {
	sections, err := mod.Assemble()
	if err != nil {
		return nil, err
	}

	shstrtab := newStringTable()
	strtab := newStringTable()

	// Section layout: NULL, one per assembled section, .symtab, .strtab,
	// one .rela.<name> per section that has relocations, then .shstrtab.
	type outSection struct {
		name  string
		hdr   elf64SectionHeader
		data  []byte
	}
	var out []outSection
	sectionIndex := make(map[assembler.Section]int)

	out = append(out, outSection{name: ""}) // SHN_UNDEF

	for _, s := range sections {
		idx := len(out)
		sectionIndex[s.Name] = idx
		hdr := elf64SectionHeader{
			Name:      shstrtab.add(sectionIndexName(s.Name)),
			AddrAlign: 1,
		}
		data := s.Data
		if s.Name == assembler.SectionBSS {
			hdr.Type = shtNobits
			hdr.Flags = shfAlloc | shfWrite
			hdr.Size = uint64(s.Size)
		} else {
			hdr.Type = shtProgBits
			hdr.Flags = shfAlloc
			if s.Name == assembler.SectionText {
				hdr.Flags |= shfExecInst
			} else {
				hdr.Flags |= shfWrite
			}
			hdr.Size = uint64(len(data))
		}
		out = append(out, outSection{name: sectionIndexName(s.Name), hdr: hdr, data: data})
	}

	// Symbol table: one null entry, then every defined label, then every
	// distinct external relocation target as an undefined symbol.
	var syms []elf64Sym
	symIndex := make(map[string]uint32)
	syms = append(syms, elf64Sym{}) // STN_UNDEF

	for _, sym := range mod.Symbols() {
		bind := stbLocal
		if sym.Global {
			bind = stbGlobal
		}
		typ := sttFunc
		if sym.Section != assembler.SectionText {
			typ = sttObject
		}
		syms = append(syms, elf64Sym{
			Name:  strtab.add(sym.Name),
			Info:  uint8(bind<<4) | uint8(typ),
			Shndx: uint16(sectionIndex[sym.Section]),
			Value: uint64(sym.Offset),
		})
		symIndex[sym.Name] = uint32(len(syms) - 1)
	}

	externalsBySection := make(map[assembler.Section][]assembler.ExternalRelocation)
	for _, s := range sections {
		for _, r := range s.Relocations {
			if _, seen := symIndex[r.Symbol]; !seen {
				syms = append(syms, elf64Sym{
					Name:  strtab.add(r.Symbol),
					Info:  uint8(stbGlobal<<4) | uint8(sttNotype),
					Shndx: 0, // SHN_UNDEF
				})
				symIndex[r.Symbol] = uint32(len(syms) - 1)
			}
			externalsBySection[s.Name] = append(externalsBySection[s.Name], r)
		}
	}

	symtabHdrIdx := len(out)
	out = append(out, outSection{name: ".symtab", hdr: elf64SectionHeader{
		Name:      shstrtab.add(".symtab"),
		Type:      shtSymtab,
		Link:      0, // patched below once .strtab's index is known
		Info:      uint32(firstGlobalSymbolIndex(syms)),
		EntSize:   24,
		AddrAlign: 8,
	}})

	strtabHdrIdx := len(out)
	out = append(out, outSection{name: ".strtab", hdr: elf64SectionHeader{
		Name: shstrtab.add(".strtab"),
		Type: shtStrtab,
	}, data: strtab.buf.Bytes()})
	out[symtabHdrIdx].hdr.Link = uint32(strtabHdrIdx)

	for _, s := range sections {
		relocs := externalsBySection[s.Name]
		if len(relocs) == 0 {
			continue
		}
		var relaBuf bytes.Buffer
		for _, r := range relocs {
			relType := uint64(rX8664_32S)
			if r.Relative {
				relType = rX8664_PC32
			} else if r.Width == 8 {
				relType = rX8664_64
			}
			entry := elf64Rela{
				Offset: uint64(r.Offset),
				Info:   uint64(symIndex[r.Symbol])<<32 | relType,
				Addend: 0,
			}
			binary.Write(&relaBuf, binary.LittleEndian, &entry)
		}
		out = append(out, outSection{name: ".rela." + sectionIndexName(s.Name), hdr: elf64SectionHeader{
			Name:      shstrtab.add(".rela." + sectionIndexName(s.Name)),
			Type:      shtRela,
			Link:      uint32(symtabHdrIdx),
			Info:      uint32(sectionIndex[s.Name]),
			EntSize:   24,
			AddrAlign: 8,
		}, data: relaBuf.Bytes()})
	}

	shstrtabIdx := len(out)
	shstrtabNameOff := shstrtab.add(".shstrtab")
	out = append(out, outSection{name: ".shstrtab", hdr: elf64SectionHeader{
		Name: shstrtabNameOff,
		Type: shtStrtab,
	}, data: shstrtab.buf.Bytes()})

	var symtabBuf bytes.Buffer
	for _, sym := range syms {
		binary.Write(&symtabBuf, binary.LittleEndian, &sym)
	}
	out[symtabHdrIdx].data = symtabBuf.Bytes()
	out[symtabHdrIdx].hdr.Size = uint64(symtabBuf.Len())
	out[strtabHdrIdx].hdr.Size = uint64(len(out[strtabHdrIdx].data))
	out[shstrtabIdx].hdr.Size = uint64(len(out[shstrtabIdx].data))

	// Lay out file offsets: header, then every section's bytes back to
	// back (NOBITS sections contribute no bytes), then the section
	// header table.
	offset := uint64(binary.Size(elf64Header{}))
	for i := range out {
		if out[i].hdr.Type == shtNobits || i == 0 {
			continue
		}
		out[i].hdr.Offset = offset
		offset += uint64(len(out[i].data))
	}
	shOff := offset

	var body bytes.Buffer
	hdr := elf64Header{
		Type:      etRel,
		Machine:   emX8664,
		Version:   1,
		ShOff:     shOff,
		EhSize:    uint16(binary.Size(elf64Header{})),
		ShEntSize: uint16(binary.Size(elf64SectionHeader{})),
		ShNum:     uint16(len(out)),
		ShStrNdx:  uint16(shstrtabIdx),
	}
	copy(hdr.Ident[:], []byte{0x7F, 'E', 'L', 'F', 2, 1, 1, 0})

	if err := binary.Write(&body, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].hdr.Type == shtNobits || i == 0 {
			continue
		}
		body.Write(out[i].data)
	}
	for i := range out {
		if err := binary.Write(&body, binary.LittleEndian, &out[i].hdr); err != nil {
			return nil, fmt.Errorf("writing section header %d: %w", i, err)
		}
	}

	return body.Bytes(), nil
}

func firstGlobalSymbolIndex(syms []elf64Sym) int {
	for i, s := range syms {
		if s.Info>>4 == stbGlobal {
			return i
		}
	}
	return len(syms)
}
