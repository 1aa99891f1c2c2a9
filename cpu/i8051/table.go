package i8051

import (
	"slices"

	"github.com/ezrec/rcu51/cpu"
)

// arg is the shape of one assembly operand.
type arg int

const (
	argA arg = iota
	argAB
	argC
	argDPTR
	argAtDPTR
	argAtAPC
	argAtADPTR
	argR0
	argR1
	argR2
	argR3
	argR4
	argR5
	argR6
	argR7
	argAtR0
	argAtR1
	argImm    // #data
	argImm16  // #data16
	argDirect // direct address
	argBit    // bit address
	argNotBit // /bit address
	argRel    // signed offset from the next instruction
	argAddr11 // address in the 2K page of the next instruction
	argAddr16 // absolute address
)

var argText = map[arg]string{
	argA:       "A",
	argAB:      "AB",
	argC:       "C",
	argDPTR:    "DPTR",
	argAtDPTR:  "@DPTR",
	argAtAPC:   "@A+PC",
	argAtADPTR: "@A+DPTR",
	argR0:      "R0",
	argR1:      "R1",
	argR2:      "R2",
	argR3:      "R3",
	argR4:      "R4",
	argR5:      "R5",
	argR6:      "R6",
	argR7:      "R7",
	argAtR0:    "@R0",
	argAtR1:    "@R1",
	argImm:     "#data",
	argImm16:   "#data16",
	argDirect:  "direct",
	argBit:     "bit",
	argNotBit:  "/bit",
	argRel:     "rel",
	argAddr11:  "addr11",
	argAddr16:  "addr16",
}

func (a arg) String() string {
	return argText[a]
}

// constant returns true for operands that are spelled out literally.
func (a arg) constant() bool {
	return a < argImm
}

// width is the number of operand bytes of the shape.
func (a arg) width() int {
	switch a {
	case argImm16, argAddr16:
		return 2
	case argImm, argDirect, argBit, argNotBit, argRel, argAddr11:
		return 1
	}
	return 0
}

// entry is the definition of one opcode byte.
type entry struct {
	mnemonic string
	args     []arg
	exec     cpu.ExecFunc
	swap     bool // Operand bytes are encoded in reverse textual order.
}

func (e *entry) operandBytes() (size int) {
	for _, a := range e.args {
		size += a.width()
	}
	return
}

var priority = buildPriority()

func buildPriority() (prio map[byte]int) {
	prio = map[byte]int{
		0x44: 1, // ORL A,#data
		0x54: 1, // ANL A,#data
		0x64: 1, // XRL A,#data
		0xB3: 1, // CPL C
		0xC3: 1, // CLR C
		0xD3: 1, // SETB C
		0xE5: 2, // MOV A,direct
		0xF5: 2, // MOV direct,A
	}
	for n := range byte(8) {
		prio[0x78+n] = 1 // MOV Rn,#data
		prio[0x88+n] = 1 // MOV direct,Rn
		prio[0xA8+n] = 1 // MOV Rn,direct
		prio[0xE8+n] = 2 // MOV A,Rn
		prio[0xF8+n] = 2 // MOV Rn,A
	}
	return
}

var table = buildTable()

func buildTable() (t [256]entry) {
	set := func(b byte, mnemonic string, exec cpu.ExecFunc, args ...arg) {
		t[b] = entry{mnemonic: mnemonic, args: args, exec: exec}
	}

	// Columns 0x5 to 0xF of a row select direct, @R0, @R1, then R0 to R7.
	group := func(row byte, mnemonic string, exec cpu.ExecFunc, before []arg, after []arg) {
		cols := []arg{argDirect, argAtR0, argAtR1, argR0, argR1, argR2, argR3, argR4, argR5, argR6, argR7}
		for n, col := range cols {
			set(row|byte(5+n), mnemonic, exec, slices.Concat(before, []arg{col}, after)...)
		}
	}

	a := func(args ...arg) []arg { return args }

	for n := range byte(8) {
		set(n<<5|0x01, "AJMP", execAjmp, argAddr11)
		set(n<<5|0x11, "ACALL", execAcall, argAddr11)
	}

	set(0x00, "NOP", execNop)
	set(0x02, "LJMP", execLjmp, argAddr16)
	set(0x03, "RR", execRr, argA)
	set(0x04, "INC", execInc, argA)
	group(0x00, "INC", execInc, nil, nil)

	set(0x10, "JBC", execJbc, argBit, argRel)
	set(0x12, "LCALL", execLcall, argAddr16)
	set(0x13, "RRC", execRrc, argA)
	set(0x14, "DEC", execDec, argA)
	group(0x10, "DEC", execDec, nil, nil)

	set(0x20, "JB", execJb, argBit, argRel)
	set(0x22, "RET", execRet)
	set(0x23, "RL", execRl, argA)
	set(0x24, "ADD", execAdd, argA, argImm)
	group(0x20, "ADD", execAdd, a(argA), nil)

	set(0x30, "JNB", execJnb, argBit, argRel)
	set(0x32, "RETI", execReti)
	set(0x33, "RLC", execRlc, argA)
	set(0x34, "ADDC", execAddc, argA, argImm)
	group(0x30, "ADDC", execAddc, a(argA), nil)

	set(0x40, "JC", execJc, argRel)
	set(0x42, "ORL", execOrl, argDirect, argA)
	set(0x43, "ORL", execOrl, argDirect, argImm)
	set(0x44, "ORL", execOrl, argA, argImm)
	group(0x40, "ORL", execOrl, a(argA), nil)

	set(0x50, "JNC", execJnc, argRel)
	set(0x52, "ANL", execAnl, argDirect, argA)
	set(0x53, "ANL", execAnl, argDirect, argImm)
	set(0x54, "ANL", execAnl, argA, argImm)
	group(0x50, "ANL", execAnl, a(argA), nil)

	set(0x60, "JZ", execJz, argRel)
	set(0x62, "XRL", execXrl, argDirect, argA)
	set(0x63, "XRL", execXrl, argDirect, argImm)
	set(0x64, "XRL", execXrl, argA, argImm)
	group(0x60, "XRL", execXrl, a(argA), nil)

	set(0x70, "JNZ", execJnz, argRel)
	set(0x72, "ORL", execOrlC, argC, argBit)
	set(0x73, "JMP", execJmp, argAtADPTR)
	set(0x74, "MOV", execMovImm, argA, argImm)
	group(0x70, "MOV", execMovImm, nil, a(argImm))

	set(0x80, "SJMP", execSjmp, argRel)
	set(0x82, "ANL", execAnlC, argC, argBit)
	set(0x83, "MOVC", execMovcPC, argA, argAtAPC)
	set(0x84, "DIV", execDiv, argAB)
	group(0x80, "MOV", execMovToDirect, a(argDirect), nil)
	set(0x85, "MOV", execMovDirect, argDirect, argDirect)
	t[0x85].swap = true

	set(0x90, "MOV", execMovDPTR, argDPTR, argImm16)
	set(0x92, "MOV", execMovBitC, argBit, argC)
	set(0x93, "MOVC", execMovcDPTR, argA, argAtADPTR)
	set(0x94, "SUBB", execSubb, argA, argImm)
	group(0x90, "SUBB", execSubb, a(argA), nil)

	set(0xA0, "ORL", execOrlNotC, argC, argNotBit)
	set(0xA2, "MOV", execMovCBit, argC, argBit)
	set(0xA3, "INC", execIncDPTR, argDPTR)
	set(0xA4, "MUL", execMul, argAB)
	group(0xA0, "MOV", execMovFromDirect, nil, a(argDirect))
	t[0xA5] = entry{}

	set(0xB0, "ANL", execAnlNotC, argC, argNotBit)
	set(0xB2, "CPL", execCplBit, argBit)
	set(0xB3, "CPL", execCplC, argC)
	set(0xB4, "CJNE", execCjne, argA, argImm, argRel)
	group(0xB0, "CJNE", execCjne, nil, a(argImm, argRel))
	set(0xB5, "CJNE", execCjne, argA, argDirect, argRel)

	set(0xC0, "PUSH", execPush, argDirect)
	set(0xC2, "CLR", execClrBit, argBit)
	set(0xC3, "CLR", execClrC, argC)
	set(0xC4, "SWAP", execSwap, argA)
	group(0xC0, "XCH", execXch, a(argA), nil)

	set(0xD0, "POP", execPop, argDirect)
	set(0xD2, "SETB", execSetbBit, argBit)
	set(0xD3, "SETB", execSetbC, argC)
	set(0xD4, "DA", execDa, argA)
	group(0xD0, "DJNZ", execDjnz, nil, a(argRel))
	set(0xD6, "XCHD", execXchd, argA, argAtR0)
	set(0xD7, "XCHD", execXchd, argA, argAtR1)

	set(0xE0, "MOVX", execMovxRead, argA, argAtDPTR)
	set(0xE2, "MOVX", execMovxRead, argA, argAtR0)
	set(0xE3, "MOVX", execMovxRead, argA, argAtR1)
	set(0xE4, "CLR", execClrA, argA)
	group(0xE0, "MOV", execMovA, a(argA), nil)

	set(0xF0, "MOVX", execMovxWrite, argAtDPTR, argA)
	set(0xF2, "MOVX", execMovxWrite, argAtR0, argA)
	set(0xF3, "MOVX", execMovxWrite, argAtR1, argA)
	set(0xF4, "CPL", execCplA, argA)
	group(0xF0, "MOV", execMovFromA, nil, a(argA))

	return
}

// Opcodes returns the 256 opcode descriptors, indexed by opcode byte.
func Opcodes() (ops []cpu.Opcode) {
	ops = make([]cpu.Opcode, 256)
	for n := range ops {
		e := &table[n]
		if len(e.mnemonic) == 0 {
			ops[n] = cpu.Reserved
			ops[n].Byte = byte(n)
			continue
		}
		ops[n] = cpu.Opcode{
			Byte:         byte(n),
			Mnemonic:     e.mnemonic,
			Operands:     len(e.args),
			OperandBytes: e.operandBytes(),
			Priority:     priority[byte(n)],
			Parse:        e.parse,
			Exec:         e.exec,
		}
	}
	return
}
