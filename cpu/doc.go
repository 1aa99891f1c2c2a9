// Package cpu holds the pieces shared by every emulated core.
//
// A Core describes one processor family: its memory layout, its 256-entry
// opcode table, and its assembler and disassembler. A Context is the
// mutable machine state an interpreter executes opcodes against.
//
// The assembler support here is core independent: assembly source is
// parsed by a core into Nodes, and CheckLabels and Link turn those nodes
// into a ROM image, reporting problems to a Diagnostics sink.
package cpu
