package asm

// Mod is the two-bit ModR/M addressing mode.
type Mod uint8

const (
	NoOffset Mod = 0b00
	Offset8  Mod = 0b01
	Offset32 Mod = 0b10
	Direct   Mod = 0b11
)
