package asm

// OperandKind tags which classifier produced an Operand.
type OperandKind string

const (
	OperandRegister OperandKind = "register"
	OperandImmediate OperandKind = "immediate"
	OperandMemRef    OperandKind = "memref"
	OperandRelative  OperandKind = "relative"
)

// Operand is the typed value a classifier binds from the token stream. Only
// the fields matching Kind are meaningful; the rest are zero.
type Operand struct {
	Kind        OperandKind
	Size        Size
	Register    Register
	RequiresRex bool
	Immediate   Immediate
	MemRef      MemRef
}
