package i8051

import (
	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/memory"
)

// Core is the Intel 8051.
var Core = cpu.NewCore("8051", "Intel", memory.DefaultLayout, Opcodes())

func init() {
	Core.NewAssembler = func() cpu.Assembler { return &Assembler{} }
	Core.Disassembler = &Disassembler{}
}

// Decode returns the descriptor of an opcode byte.
func Decode(b byte) *cpu.Opcode {
	return Core.Decode(b)
}
