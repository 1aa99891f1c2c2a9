package cpu

import (
	"errors"
)

// ParseFunc parses the operands of one assembly line for an opcode. A nil
// node, or an error, means the operands do not match this opcode.
type ParseFunc func(lineno int, op *Opcode, operands []string) (node Node, err error)

// ExecFunc executes an opcode. The opcode byte has already been fetched
// into Context.Op, and the PC points at its first operand byte.
type ExecFunc func(ctx *Context)

// Opcode describes one of the 256 opcode bytes of a core.
type Opcode struct {
	Byte         byte
	Mnemonic     string
	Operands     int // Operands in assembly text.
	OperandBytes int // Operand bytes following the opcode byte.
	Priority     int // Candidates with higher priority are tried first.
	Parse        ParseFunc
	Exec         ExecFunc
}

// MNEMONIC_RESERVED is the mnemonic of undefined opcode slots.
const MNEMONIC_RESERVED = "RESERVED"

var errReserved = errors.New(f("reserved opcode"))

// Reserved is the descriptor of an undefined opcode. It never assembles,
// and executes as a no-op.
var Reserved = Opcode{
	Mnemonic: MNEMONIC_RESERVED,
	Parse: func(lineno int, op *Opcode, operands []string) (Node, error) {
		return nil, errReserved
	},
	Exec: func(ctx *Context) {},
}

// IsReserved returns true for undefined opcodes.
func (op *Opcode) IsReserved() bool {
	return op.Mnemonic == MNEMONIC_RESERVED
}

// Size returns the encoded length of the opcode.
func (op *Opcode) Size() int {
	return 1 + op.OperandBytes
}

func (op *Opcode) String() string {
	return op.Mnemonic
}
