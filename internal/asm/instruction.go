package asm

// Instruction is an append-only byte buffer plus a list of pending
// References, built by a catalogue recipe out of the primitive writers
// below. It is mutable while a recipe runs and immutable once the recipe
// returns.
type Instruction struct {
	Mnemonic   string
	bytes      []byte
	references []Reference
}

// NewInstruction starts an empty encoding buffer for the given mnemonic.
func NewInstruction(mnemonic string) *Instruction {
	return &Instruction{Mnemonic: mnemonic}
}

// Bytes returns the encoded byte sequence built so far.
func (i *Instruction) Bytes() []byte { return i.bytes }

// References returns the relocations recorded while encoding.
func (i *Instruction) References() []Reference { return i.references }

// WriteByte appends one raw byte.
func (i *Instruction) WriteByte(b byte) {
	i.bytes = append(i.bytes, b)
}

// WriteNum appends v little-endian in width bytes (1, 2, 4, or 8).
func (i *Instruction) WriteNum(v int64, width int) {
	for n := 0; n < width; n++ {
		i.bytes = append(i.bytes, byte(v>>(8*n)))
	}
}

// WriteImm appends an immediate. An Integer is narrowed to width bytes (the
// classifier is responsible for having already bounded it; overflow here is
// a contract violation, not a recoverable error). A label Reference instead
// appends width zero bytes and records a Reference at the offset the zeros
// start at.
func (i *Instruction) WriteImm(imm Immediate, width int, relative bool) {
	if imm.IsReference {
		at := len(i.bytes)
		i.WriteNum(0, width)
		i.references = append(i.references, Reference{Target: imm.Label, At: at, Width: width, Relative: relative})
		return
	}
	i.WriteNum(imm.Integer, width)
}

// WriteRex emits the REX prefix unconditionally. REX.B comes from bit 3 of
// rmRegCode, REX.R from bit 3 of regCode shifted into bit 2 of the REX byte.
func (i *Instruction) WriteRex(w bool, rmRegCode, regCode uint8) {
	var wBit byte
	if w {
		wBit = 1
	}
	rex := byte(0x40) | (wBit << 3) | ((rmRegCode & 0b1000) >> 3) | ((regCode & 0b1000) >> 1)
	i.bytes = append(i.bytes, rex)
}

// MaybeWriteRex emits REX only when one of the conditions that require it
// actually holds: 64-bit operand size, either register code reaching into
// the extended (8-15) range, or an 8-bit operand that is spl/bpl/sil/dil and
// so needs REX purely to disambiguate from ah/ch/dh/bh.
func (i *Instruction) MaybeWriteRex(w bool, rmRegCode, regCode uint8, forceLowByte bool) {
	if w || rmRegCode >= 8 || regCode >= 8 || forceLowByte {
		i.WriteRex(w, rmRegCode, regCode)
	}
}

// WriteModRM emits the ModR/M byte: mod in bits 7-6, reg/opcode-extension in
// bits 5-3, rm in bits 2-0.
func (i *Instruction) WriteModRM(mod Mod, rmCode, regCode uint8) {
	i.bytes = append(i.bytes, (byte(mod)<<6)|((regCode&0b111)<<3)|(rmCode&0b111))
}

// WriteOffset emits the ModR/M byte followed by whatever displacement mod
// calls for. rbp/r13 used as a base with no displacement is indistinguishable
// from RIP-relative addressing at mod=00, so that combination is forced to
// an explicit zero Offset8 instead.
func (i *Instruction) WriteOffset(mod Mod, rmCode, regCode uint8, disp *Immediate) {
	if mod == NoOffset && rmCode&0x7 == 5 {
		mod = Offset8
		zero := IntegerImmediate(0)
		disp = &zero
	}

	i.WriteModRM(mod, rmCode, regCode)

	switch mod {
	case Offset32:
		if disp != nil {
			i.WriteImm(*disp, 4, false)
		} else {
			i.WriteNum(0, 4)
		}
	case Offset8:
		if disp != nil {
			i.WriteImm(*disp, 1, false)
		} else {
			i.WriteNum(0, 1)
		}
	}
}
