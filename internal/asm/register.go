package asm

// Register identifies one of the 16 general-purpose registers by its 4-bit
// encoding. Width aliases (al/ax/eax/rax, ...) all resolve to the same
// Register identity; width is carried separately on the operand that named
// it, never on the Register itself.
type Register struct {
	Name     string
	Encoding uint8
}

// alias describes one spelling of a register: the canonical Register it
// resolves to, the width that spelling implies, and whether naming it forces
// a REX prefix even when nothing else about the instruction would.
type alias struct {
	Register    Register
	Size        Size
	RequiresRex bool
}

var (
	rax = Register{"rax", 0}
	rcx = Register{"rcx", 1}
	rdx = Register{"rdx", 2}
	rbx = Register{"rbx", 3}
	rsp = Register{"rsp", 4}
	rbp = Register{"rbp", 5}
	rsi = Register{"rsi", 6}
	rdi = Register{"rdi", 7}
	r8  = Register{"r8", 8}
	r9  = Register{"r9", 9}
	r10 = Register{"r10", 10}
	r11 = Register{"r11", 11}
	r12 = Register{"r12", 12}
	r13 = Register{"r13", 13}
	r14 = Register{"r14", 14}
	r15 = Register{"r15", 15}
)

// RegistersByName maps every textual spelling the lexer can hand the
// classifiers to the canonical register identity, its implied size, and
// whether that spelling alone forces a REX prefix.
var RegistersByName = map[string]alias{
	"al": {rax, Byte, false}, "cl": {rcx, Byte, false}, "dl": {rdx, Byte, false}, "bl": {rbx, Byte, false},
	"ah": {rax, Byte, false}, "ch": {rcx, Byte, false}, "dh": {rdx, Byte, false}, "bh": {rbx, Byte, false},
	"spl": {rsp, Byte, true}, "bpl": {rbp, Byte, true}, "sil": {rsi, Byte, true}, "dil": {rdi, Byte, true},
	"r8b": {r8, Byte, true}, "r9b": {r9, Byte, true}, "r10b": {r10, Byte, true}, "r11b": {r11, Byte, true},
	"r12b": {r12, Byte, true}, "r13b": {r13, Byte, true}, "r14b": {r14, Byte, true}, "r15b": {r15, Byte, true},

	"ax": {rax, Word, false}, "cx": {rcx, Word, false}, "dx": {rdx, Word, false}, "bx": {rbx, Word, false},
	"sp": {rsp, Word, false}, "bp": {rbp, Word, false}, "si": {rsi, Word, false}, "di": {rdi, Word, false},
	"r8w": {r8, Word, false}, "r9w": {r9, Word, false}, "r10w": {r10, Word, false}, "r11w": {r11, Word, false},
	"r12w": {r12, Word, false}, "r13w": {r13, Word, false}, "r14w": {r14, Word, false}, "r15w": {r15, Word, false},

	"eax": {rax, DWord, false}, "ecx": {rcx, DWord, false}, "edx": {rdx, DWord, false}, "ebx": {rbx, DWord, false},
	"esp": {rsp, DWord, false}, "ebp": {rbp, DWord, false}, "esi": {rsi, DWord, false}, "edi": {rdi, DWord, false},
	"r8d": {r8, DWord, false}, "r9d": {r9, DWord, false}, "r10d": {r10, DWord, false}, "r11d": {r11, DWord, false},
	"r12d": {r12, DWord, false}, "r13d": {r13, DWord, false}, "r14d": {r14, DWord, false}, "r15d": {r15, DWord, false},

	"rax": {rax, QWord, false}, "rcx": {rcx, QWord, false}, "rdx": {rdx, QWord, false}, "rbx": {rbx, QWord, false},
	"rsp": {rsp, QWord, false}, "rbp": {rbp, QWord, false}, "rsi": {rsi, QWord, false}, "rdi": {rdi, QWord, false},
	"r8": {r8, QWord, false}, "r9": {r9, QWord, false}, "r10": {r10, QWord, false}, "r11": {r11, QWord, false},
	"r12": {r12, QWord, false}, "r13": {r13, QWord, false}, "r14": {r14, QWord, false}, "r15": {r15, QWord, false},
}

// NeedsRexB reports whether this register's encoding requires REX.B when it
// occupies the rm/opcode-extension slot of an instruction.
func (r Register) NeedsRexB() bool {
	return r.Encoding >= 8
}
