package asm

// Reference is a pending relocation: a label named by an immediate or
// relative operand, the byte offset within the owning instruction's bytes
// where the patch belongs, and whether resolution is relative to the site
// or absolute.
//
// It is deliberately narrower than an object-file relocation record —
// translating it into one (addend, symbol index, type) is the module
// assembler's job, not this package's.
type Reference struct {
	Target   string
	At       int
	Width    int
	Relative bool
}
