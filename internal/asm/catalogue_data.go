package asm

// Catalogue is the ordered table the matcher scans: for a given mnemonic,
// earlier entries are tried first, so shorter/more-specific encodings must
// be listed ahead of more general ones (push r64's one-byte +r form ahead of
// push r/m64's 0xFF form, reg-reg mov ahead of the reg-from-memory mov that
// would otherwise also accept a bare register as its "memory" operand).
//
// Grounded in the opcode table the original multi-architecture project's
// x86_64 instruction set carried (push/pop/mov/add/xchg live, the rest
// commented out pending a rewrite) — those opcodes are correct and are
// reused here verbatim; what changes is the table-driven catalogue/recipe
// shape around them.
var Catalogue = buildCatalogue()

func buildCatalogue() []CatalogueEntry {
	var c []CatalogueEntry

	c = append(c, pushEntries()...)
	c = append(c, popEntries()...)
	c = append(c, movEntries()...)
	c = append(c, leaEntries()...)
	c = append(c, xchgEntries()...)
	c = append(c, movzxEntries()...)
	c = append(c, movsxEntries()...)

	for _, a := range arithmeticFamily {
		c = append(c, arithmeticEntries(a.mnemonic, a.opcRMReg, a.opcRegRM, a.groupExt)...)
	}
	c = append(c, testEntries()...)

	for _, u := range unaryFamily {
		c = append(c, unaryEntries(u.mnemonic, u.opcode, u.groupExt)...)
	}
	for _, s := range shiftFamily {
		c = append(c, shiftEntries(s.mnemonic, s.groupExt)...)
	}

	c = append(c, jmpEntries()...)
	c = append(c, callEntries()...)
	for _, j := range conditionalJumps {
		c = append(c, jccEntries(j.mnemonic, j.opcode2)...)
	}

	c = append(c, niladicEntries()...)

	return c
}

func pushEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"push", []OperandSlot{RegSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			ins.MaybeWriteRex(false, reg.Encoding, 0, false)
			ins.WriteByte(0x50 + (reg.Encoding & 0x7))
		}},
		{"push", []OperandSlot{ImmSlot(Byte)}, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0x6A)
			ins.WriteImm(ops[0].Immediate, 1, false)
		}},
		{"push", []OperandSlot{ImmSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0x68)
			ins.WriteImm(ops[0].Immediate, 4, false)
		}},
		{"push", []OperandSlot{RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(false, mr.Base.Encoding, 0, false)
			ins.WriteByte(0xFF)
			ins.WriteOffset(mod, mr.Base.Encoding, 6, mr.Disp)
		}},
	}
}

func popEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"pop", []OperandSlot{RegSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			ins.MaybeWriteRex(false, reg.Encoding, 0, false)
			ins.WriteByte(0x58 + (reg.Encoding & 0x7))
		}},
		{"pop", []OperandSlot{RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(false, mr.Base.Encoding, 0, false)
			ins.WriteByte(0x8F)
			ins.WriteOffset(mod, mr.Base.Encoding, 0, mr.Disp)
		}},
	}
}

// movEntries orders the register-register form (opcode 0x89, dst=rm) ahead
// of the register-from-memory form (opcode 0x8B, dst=reg): is_rm_of_size
// happily accepts a bare register too, so if the 0x8B form were tried first
// a plain "mov rax, rbx" would match it and encode the wrong opcode.
func movEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"mov", []OperandSlot{RMSlot(QWord), RegSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			reg := ops[1].Register
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(0x89)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
		{"mov", []OperandSlot{RegSlot(QWord), RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			mr := ops[1].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(0x8B)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
		{"mov", []OperandSlot{RegSlot(DWord), ImmSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			ins.MaybeWriteRex(false, reg.Encoding, 0, false)
			ins.WriteByte(0xB8 + (reg.Encoding & 0x7))
			ins.WriteImm(ops[1].Immediate, 4, false)
		}},
		{"mov", []OperandSlot{RegSlot(QWord), ImmSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			ins.MaybeWriteRex(true, reg.Encoding, 0, false)
			ins.WriteByte(0xB8 + (reg.Encoding & 0x7))
			ins.WriteImm(ops[1].Immediate, 8, false)
		}},
		{"mov", []OperandSlot{RMSlot(Byte), RegSlot(Byte)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			reg := ops[1].Register
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(false, mr.Base.Encoding, reg.Encoding, ops[0].RequiresRex || ops[1].RequiresRex)
			ins.WriteByte(0x88)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
	}
}

func leaEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"lea", []OperandSlot{RegSlot(QWord), RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			mr := ops[1].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(0x8D)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
	}
}

func xchgEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"xchg", []OperandSlot{RMSlot(QWord), RegSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			reg := ops[1].Register
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(0x87)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
	}
}

func movzxEntries() []CatalogueEntry {
	return []CatalogueEntry{
		extendEntry("movzx", QWord, Byte, 0xB6),
		extendEntry("movzx", QWord, Word, 0xB7),
	}
}

func movsxEntries() []CatalogueEntry {
	return []CatalogueEntry{
		extendEntry("movsx", QWord, Byte, 0xBE),
		extendEntry("movsx", QWord, Word, 0xBF),
	}
}

func extendEntry(mnemonic string, dstSize, srcSize Size, opcode2 byte) CatalogueEntry {
	return CatalogueEntry{mnemonic, []OperandSlot{RegSlot(dstSize), RMSlot(srcSize)}, func(ins *Instruction, ops []Operand) {
		reg := ops[0].Register
		mr := ops[1].MemRef
		mod := GetModFromRM(mr)
		ins.MaybeWriteRex(dstSize == QWord, mr.Base.Encoding, reg.Encoding, false)
		ins.WriteByte(0x0F)
		ins.WriteByte(opcode2)
		ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
	}}
}

type arithmeticOp struct {
	mnemonic         string
	opcRMReg, opcRegRM byte
	groupExt         uint8
}

// arithmeticFamily carries the opcode bytes for the six binary ALU ops
// that share ModR/M shape: rm,reg (direction 0) / reg,rm (direction 1) /
// rm,imm8 (sign-extended, opcode 0x83) / rm,imm32 (opcode 0x81), the imm
// forms distinguished only by the ModR/M reg-field opcode extension.
var arithmeticFamily = []arithmeticOp{
	{"add", 0x01, 0x03, 0},
	{"or", 0x09, 0x0B, 1},
	{"and", 0x21, 0x23, 4},
	{"sub", 0x29, 0x2B, 5},
	{"xor", 0x31, 0x33, 6},
	{"cmp", 0x39, 0x3B, 7},
}

func arithmeticEntries(mnemonic string, opcRMReg, opcRegRM byte, groupExt uint8) []CatalogueEntry {
	return []CatalogueEntry{
		{mnemonic, []OperandSlot{RMSlot(QWord), RegSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			reg := ops[1].Register
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(opcRMReg)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
		{mnemonic, []OperandSlot{RegSlot(QWord), RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			reg := ops[0].Register
			mr := ops[1].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(opcRegRM)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
		{mnemonic, []OperandSlot{RMSlot(QWord), ImmSlot(Byte)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, 0, false)
			ins.WriteByte(0x83)
			ins.WriteOffset(mod, mr.Base.Encoding, groupExt, mr.Disp)
			ins.WriteImm(ops[1].Immediate, 1, false)
		}},
		{mnemonic, []OperandSlot{RMSlot(QWord), ImmSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, 0, false)
			ins.WriteByte(0x81)
			ins.WriteOffset(mod, mr.Base.Encoding, groupExt, mr.Disp)
			ins.WriteImm(ops[1].Immediate, 4, false)
		}},
	}
}

func testEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"test", []OperandSlot{RMSlot(QWord), RegSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			reg := ops[1].Register
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, reg.Encoding, false)
			ins.WriteByte(0x85)
			ins.WriteOffset(mod, mr.Base.Encoding, reg.Encoding, mr.Disp)
		}},
		{"test", []OperandSlot{RMSlot(QWord), ImmSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, 0, false)
			ins.WriteByte(0xF7)
			ins.WriteOffset(mod, mr.Base.Encoding, 0, mr.Disp)
			ins.WriteImm(ops[1].Immediate, 4, false)
		}},
	}
}

type unaryOp struct {
	mnemonic string
	opcode   byte
	groupExt uint8
}

// unaryFamily carries the group3/group5 single-operand ops: INC/DEC use
// 0xFF with the operation selected by the ModR/M reg-field extension; NOT/
// NEG/MUL/IMUL/DIV/IDIV share 0xF7 the same way.
var unaryFamily = []unaryOp{
	{"inc", 0xFF, 0},
	{"dec", 0xFF, 1},
	{"not", 0xF7, 2},
	{"neg", 0xF7, 3},
	{"mul", 0xF7, 4},
	{"imul", 0xF7, 5},
	{"div", 0xF7, 6},
	{"idiv", 0xF7, 7},
}

func unaryEntries(mnemonic string, opcode byte, groupExt uint8) []CatalogueEntry {
	return []CatalogueEntry{
		{mnemonic, []OperandSlot{RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, 0, false)
			ins.WriteByte(opcode)
			ins.WriteOffset(mod, mr.Base.Encoding, groupExt, mr.Disp)
		}},
	}
}

type shiftOp struct {
	mnemonic string
	groupExt uint8
}

var shiftFamily = []shiftOp{
	{"rol", 0},
	{"ror", 1},
	{"shl", 4},
	{"shr", 5},
	{"sar", 7},
}

func shiftEntries(mnemonic string, groupExt uint8) []CatalogueEntry {
	return []CatalogueEntry{
		{mnemonic, []OperandSlot{RMSlot(QWord), ImmSlot(Byte)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(true, mr.Base.Encoding, 0, false)
			ins.WriteByte(0xC1)
			ins.WriteOffset(mod, mr.Base.Encoding, groupExt, mr.Disp)
			ins.WriteImm(ops[1].Immediate, 1, false)
		}},
	}
}

func jmpEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"jmp", []OperandSlot{RelSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0xE9)
			ins.WriteImm(ops[0].Immediate, 4, true)
		}},
		{"jmp", []OperandSlot{RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(false, mr.Base.Encoding, 0, false)
			ins.WriteByte(0xFF)
			ins.WriteOffset(mod, mr.Base.Encoding, 4, mr.Disp)
		}},
	}
}

func callEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"call", []OperandSlot{RelSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0xE8)
			ins.WriteImm(ops[0].Immediate, 4, true)
		}},
		{"call", []OperandSlot{RMSlot(QWord)}, func(ins *Instruction, ops []Operand) {
			mr := ops[0].MemRef
			mod := GetModFromRM(mr)
			ins.MaybeWriteRex(false, mr.Base.Encoding, 0, false)
			ins.WriteByte(0xFF)
			ins.WriteOffset(mod, mr.Base.Encoding, 2, mr.Disp)
		}},
	}
}

type jccOp struct {
	mnemonic string
	opcode2  byte
}

var conditionalJumps = []jccOp{
	{"je", 0x84}, {"jz", 0x84},
	{"jne", 0x85}, {"jnz", 0x85},
	{"jl", 0x8C}, {"jge", 0x8D},
	{"jle", 0x8E}, {"jg", 0x8F},
	{"jb", 0x82}, {"jae", 0x83},
	{"jbe", 0x86}, {"ja", 0x87},
}

func jccEntries(mnemonic string, opcode2 byte) []CatalogueEntry {
	return []CatalogueEntry{
		{mnemonic, []OperandSlot{RelSlot(DWord)}, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0x0F)
			ins.WriteByte(opcode2)
			ins.WriteImm(ops[0].Immediate, 4, true)
		}},
	}
}

func niladicEntries() []CatalogueEntry {
	return []CatalogueEntry{
		{"ret", nil, func(ins *Instruction, ops []Operand) { ins.WriteByte(0xC3) }},
		{"nop", nil, func(ins *Instruction, ops []Operand) { ins.WriteByte(0x90) }},
		{"syscall", nil, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0x0F)
			ins.WriteByte(0x05)
		}},
		{"cpuid", nil, func(ins *Instruction, ops []Operand) {
			ins.WriteByte(0x0F)
			ins.WriteByte(0xA2)
		}},
	}
}
