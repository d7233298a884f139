package asm

// Immediate is the sum type produced by is_imm_of_size and the displacement
// half of is_rm_of_size: either a signed integer literal, or a bare label
// name destined to become a Reference once written.
type Immediate struct {
	Integer      int64
	Label        string
	IsReference  bool
}

// IntegerImmediate wraps a signed literal.
func IntegerImmediate(v int64) Immediate {
	return Immediate{Integer: v}
}

// ReferenceImmediate wraps a bare label name.
func ReferenceImmediate(label string) Immediate {
	return Immediate{Label: label, IsReference: true}
}

// FitsSigned reports whether the integer's two's-complement representation
// fits in size bits, using the signed range [-2^(size-1), 2^size-1] that
// spec.md's design notes settle on in place of an unsigned leading-zero
// count (which mishandles negative literals like -128).
func FitsSigned(v int64, size Size) bool {
	if size == QWord {
		return true
	}
	bits := int(size)
	lower := -(int64(1) << (bits - 1))
	upper := (int64(1) << bits) - 1
	return v >= lower && v <= upper
}
