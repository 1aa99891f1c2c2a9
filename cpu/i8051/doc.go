// Package i8051 implements the Intel 8051 core: its opcode table, the
// executors of every opcode, and an assembler and disassembler for its
// instruction set.
//
// The assembler accepts the usual Intel syntax:
//
//	; comment
//	COUNT   EQU 10
//	        ORG 0x0000
//	start:  MOV R7, #COUNT
//	loop:   DJNZ R7, loop
//	        SJMP start
//	table:  DB 1, 2, 'x'
//	        END
//
// Numbers may be written 0x1F, 1Fh, 0b101, 101b or decimal. A $(expr)
// is evaluated as a Starlark expression over the equates and SFR names.
package i8051
