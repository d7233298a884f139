package objectwriter

import (
	"bytes"
	"encoding/binary"

	"github.com/corvidlabs/x64asm/assembler"
)

// Mach-O 64-bit structures, grounded in the same struct-plus-binary.Write
// layout a dynamic Mach-O writer in this corpus uses — here pared down to
// what a relocatable MH_OBJECT needs: one header, one __TEXT segment
// carrying every section, a relocation list per section, and a symbol
// table.
type machHeader64 struct {
	Magic      uint32
	CPUType    uint32
	CPUSubtype uint32
	FileType   uint32
	NCmds      uint32
	SizeOfCmds uint32
	Flags      uint32
	Reserved   uint32
}

type segmentCommand64 struct {
	Cmd      uint32
	CmdSize  uint32
	SegName  [16]byte
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
	MaxProt  uint32
	InitProt uint32
	NSects   uint32
	Flags    uint32
}

type section64 struct {
	SectName  [16]byte
	SegName   [16]byte
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	Reloff    uint32
	Nreloc    uint32
	Flags     uint32
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32
}

type symtabCommand struct {
	Cmd     uint32
	CmdSize uint32
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

type nlist64 struct {
	StrX  uint32
	Type  uint8
	Sect  uint8
	Desc  uint16
	Value uint64
}

type relocationInfo struct {
	// Address and the bitfield (symbolnum:24, pcrel:1, length:2, extern:1,
	// rtype:4) are packed manually since Go has no native bitfields.
	Address uint32
	Info    uint32
}

const (
	machMagic64   = 0xFEEDFACF
	cpuTypeX8664  = 0x01000007
	cpuSubtypeAll = 0x3
	mhObject      = 0x1

	lcSegment64 = 0x19
	lcSymtab    = 0x2

	vmProtRead  = 0x1
	vmProtWrite = 0x2
	vmProtExec  = 0x4

	sAttrSomeInstructions = 0x00000400
	sAttrPureInstructions = 0x80000000
	sZerofill             = 0x1

	nUndf  = 0x0
	nExt   = 0x01
	nSect  = 0xe

	genericRelocVanilla = 0
)

func machName16(s string) [16]byte {
	var b [16]byte
	copy(b[:], s)
	return b
}

func machSegmentName(s assembler.Section) string {
	switch s {
	case assembler.SectionText:
		return "__text"
	case assembler.SectionData:
		return "__data"
	case assembler.SectionBSS:
		return "__bss"
	default:
		return string(s)
	}
}

// WriteMachO64 serializes mod as a minimal MH_OBJECT: one __TEXT segment
// holding every assembled section, x86_64 GENERIC_RELOC_VANILLA
// relocations for every external reference, and a symbol table covering
// every defined label plus every undefined external symbol a relocation
// points at.
func WriteMachO64(mod *assembler.Module) ([]byte, error) {
	sections, err := mod.Assemble()
	if err != nil {
		return nil, err
	}

	var strtab bytes.Buffer
	strtab.WriteByte(0)
	strOff := func(name string) uint32 {
		off := uint32(strtab.Len())
		strtab.WriteString(name)
		strtab.WriteByte(0)
		return off
	}

	symIndex := make(map[string]uint32)
	var syms []nlist64
	sectionOfSymbol := func(sec assembler.Section, order []assembler.AssembledSection) uint8 {
		for i, s := range order {
			if s.Name == sec {
				return uint8(i + 1)
			}
		}
		return 0
	}

	for _, sym := range mod.Symbols() {
		typ := uint8(nSect)
		if sym.Global {
			typ |= nExt
		}
		syms = append(syms, nlist64{
			StrX:  strOff(sym.Name),
			Type:  typ,
			Sect:  sectionOfSymbol(sym.Section, sections),
			Value: uint64(sym.Offset),
		})
		symIndex[sym.Name] = uint32(len(syms) - 1)
	}

	var relocsBySection = make(map[assembler.Section][]relocationInfo)
	for _, s := range sections {
		for _, r := range s.Relocations {
			if _, seen := symIndex[r.Symbol]; !seen {
				syms = append(syms, nlist64{StrX: strOff(r.Symbol), Type: nUndf | nExt})
				symIndex[r.Symbol] = uint32(len(syms) - 1)
			}
			length := uint32(2) // log2 of the width in bytes: 4 unless one of the cases below applies
			if r.Width == 8 {
				length = 3
			} else if r.Width == 1 {
				length = 0
			} else if r.Width == 2 {
				length = 1
			}
			pcrel := uint32(0)
			if r.Relative {
				pcrel = 1
			}
			info := (symIndex[r.Symbol] & 0xFFFFFF) | (pcrel << 24) | (length << 25) | (1 << 27) | (genericRelocVanilla << 28)
			relocsBySection[s.Name] = append(relocsBySection[s.Name], relocationInfo{
				Address: uint32(r.Offset),
				Info:    info,
			})
		}
	}

	sectHdrs := make([]section64, len(sections))
	var textData bytes.Buffer
	var relocData bytes.Buffer
	for i, s := range sections {
		sectHdrs[i] = section64{
			SectName: machName16(machSegmentName(s.Name)),
			SegName:  machName16("__TEXT"),
			Size:     uint64(s.Size),
			Align:    0,
		}
		if s.Name == assembler.SectionText {
			sectHdrs[i].Flags = sAttrPureInstructions | sAttrSomeInstructions
		}
		if s.Name == assembler.SectionBSS {
			sectHdrs[i].Flags = sZerofill
		} else {
			textData.Write(s.Data)
		}
		if relocs := relocsBySection[s.Name]; len(relocs) > 0 {
			sectHdrs[i].Nreloc = uint32(len(relocs))
			for _, r := range relocs {
				binary.Write(&relocData, binary.LittleEndian, &r)
			}
		}
	}

	hdrSize := uint32(binary.Size(machHeader64{}))
	segCmdSize := uint32(binary.Size(segmentCommand64{})) + uint32(len(sections))*uint32(binary.Size(section64{}))
	symCmdSize := uint32(binary.Size(symtabCommand{}))
	loadCmdsSize := segCmdSize + symCmdSize

	offset := hdrSize + loadCmdsSize
	dataStart := offset
	offset += uint32(textData.Len())
	relocStart := offset
	offset += uint32(relocData.Len())
	symStart := offset
	offset += uint32(len(syms)) * uint32(binary.Size(nlist64{}))
	strStart := offset

	// Patch each section's file offset and relocation offset now that the
	// layout is final.
	running := dataStart
	relRunning := relocStart
	for i, s := range sections {
		if s.Name != assembler.SectionBSS {
			sectHdrs[i].Offset = running
			running += uint32(len(s.Data))
		}
		if sectHdrs[i].Nreloc > 0 {
			sectHdrs[i].Reloff = relRunning
			relRunning += sectHdrs[i].Nreloc * uint32(binary.Size(relocationInfo{}))
		}
	}

	var body bytes.Buffer
	hdr := machHeader64{
		Magic:      machMagic64,
		CPUType:    cpuTypeX8664,
		CPUSubtype: cpuSubtypeAll,
		FileType:   mhObject,
		NCmds:      2,
		SizeOfCmds: loadCmdsSize,
	}
	binary.Write(&body, binary.LittleEndian, &hdr)

	seg := segmentCommand64{
		Cmd:      lcSegment64,
		CmdSize:  segCmdSize,
		SegName:  machName16("__TEXT"),
		FileOff:  uint64(dataStart),
		FileSize: uint64(textData.Len()),
		MaxProt:  vmProtRead | vmProtWrite | vmProtExec,
		InitProt: vmProtRead | vmProtWrite | vmProtExec,
		NSects:   uint32(len(sections)),
	}
	binary.Write(&body, binary.LittleEndian, &seg)
	for _, s := range sectHdrs {
		binary.Write(&body, binary.LittleEndian, &s)
	}

	symCmd := symtabCommand{
		Cmd:     lcSymtab,
		CmdSize: symCmdSize,
		Symoff:  symStart,
		Nsyms:   uint32(len(syms)),
		Stroff:  strStart,
		Strsize: uint32(strtab.Len()),
	}
	binary.Write(&body, binary.LittleEndian, &symCmd)

	body.Write(textData.Bytes())
	body.Write(relocData.Bytes())
	for _, sym := range syms {
		binary.Write(&body, binary.LittleEndian, &sym)
	}
	body.Write(strtab.Bytes())

	return body.Bytes(), nil
}
