package i8051

import (
	"fmt"

	"github.com/ezrec/rcu51/cpu"
)

const (
	labelTemplate = "        %s:"
	codeTemplate  = "%04X | %s"
)

// Disassembler lists 8051 code.
type Disassembler struct{}

var _ cpu.Disassembler = (*Disassembler)(nil)

// instruction is one decoded listing element.
type instruction struct {
	pc       uint16
	entry    *entry // nil for a data byte
	opcode   byte
	operands []byte
}

// decode walks the image from address 0.
func decode(rom []byte) (insts []instruction) {
	for pc := 0; pc < len(rom); {
		opcode := rom[pc]
		e := &table[opcode]
		size := 1 + e.operandBytes()

		if len(e.mnemonic) == 0 || pc+size > len(rom) {
			insts = append(insts, instruction{pc: uint16(pc), opcode: opcode})
			pc++
			continue
		}

		insts = append(insts, instruction{
			pc:       uint16(pc),
			entry:    e,
			opcode:   opcode,
			operands: rom[pc+1 : pc+size],
		})
		pc += size
	}
	return
}

// Disassemble code into listing lines. Every jump target that starts an
// instruction gets a label line, named from the code labels if it has one.
func (dis *Disassembler) Disassemble(code *cpu.Code) (lines []string) {
	if code.IsEmpty() {
		return
	}

	return DisassembleBytes(code.ROM, code.Labels)
}

// DisassembleBytes lists a raw ROM image, with optional label names.
func DisassembleBytes(rom []byte, labels map[uint16]string) (lines []string) {
	insts := decode(rom)

	starts := make(map[uint16]bool, len(insts))
	for _, inst := range insts {
		starts[inst.pc] = true
	}

	names := map[uint16]string{}
	for addr, name := range labels {
		if starts[addr] {
			names[addr] = name
		}
	}
	for _, inst := range insts {
		if inst.entry == nil {
			continue
		}
		addr, ok := inst.entry.target(inst.pc, inst.opcode, inst.operands)
		if !ok || !starts[addr] {
			continue
		}
		if _, named := names[addr]; !named {
			names[addr] = fmt.Sprintf("L_%04X", addr)
		}
	}

	label := func(addr uint16) string {
		if name, ok := names[addr]; ok {
			return name
		}
		return fmt.Sprintf("0x%04X", addr)
	}

	for _, inst := range insts {
		if name, ok := names[inst.pc]; ok {
			lines = append(lines, fmt.Sprintf(labelTemplate, name))
		}

		var text string
		if inst.entry == nil {
			text = fmt.Sprintf("DB 0x%02X", inst.opcode)
		} else {
			text = inst.entry.format(inst.pc, inst.opcode, inst.operands, label)
		}
		lines = append(lines, fmt.Sprintf(codeTemplate, inst.pc, text))
	}

	return
}
