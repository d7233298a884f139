// Package objectwriter serializes an assembled module's sections, symbols,
// and relocations into a real object-file container. It consumes the
// module assembler's output and is called by the CLI — nothing in
// internal/asm or internal/lexer imports it.
package objectwriter

import "github.com/corvidlabs/x64asm/assembler"

// Container selects which object-file format Write targets.
type Container int

const (
	ELF64 Container = iota
	MachO64
)

// Write serializes mod into the chosen container format.
func Write(mod *assembler.Module, container Container) ([]byte, error) {
	switch container {
	case ELF64:
		return WriteELF64(mod)
	case MachO64:
		return WriteMachO64(mod)
	default:
		return nil, errUnknownContainer(container)
	}
}

type errUnknownContainer Container

func (e errUnknownContainer) Error() string {
	return "objectwriter: unknown container"
}
