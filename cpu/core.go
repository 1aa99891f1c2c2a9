package cpu

import (
	"cmp"
	"io"
	"slices"
	"strings"

	"github.com/ezrec/rcu51/memory"
)

// Assembler turns assembly source into Code.
type Assembler interface {
	// Assemble source, reporting every problem to diag. On any error
	// EmptyCode is returned.
	Assemble(name string, source io.Reader, diag Diagnostics) (code *Code, err error)
}

// Disassembler turns Code into listing lines.
type Disassembler interface {
	Disassemble(code *Code) (lines []string)
}

// Core is a processor family.
type Core struct {
	Name         string
	Manufacturer string
	Layout       memory.Layout

	// NewAssembler returns a fresh assembler, or is nil if the core
	// has none.
	NewAssembler func() Assembler
	Disassembler Disassembler

	opcodes []Opcode
	lookup  map[string][]*Opcode
}

// NewCore creates a core from its opcode table, indexed by opcode byte.
// A nil table decodes every byte as Reserved.
func NewCore(name, manufacturer string, layout memory.Layout, opcodes []Opcode) (core *Core) {
	core = &Core{
		Name:         name,
		Manufacturer: manufacturer,
		Layout:       layout,
		opcodes:      opcodes,
		lookup:       map[string][]*Opcode{},
	}

	for n := range opcodes {
		op := &opcodes[n]
		if op.IsReserved() {
			continue
		}
		key := strings.ToLower(op.Mnemonic)
		core.lookup[key] = append(core.lookup[key], op)
	}

	for _, ops := range core.lookup {
		slices.SortStableFunc(ops, func(a, b *Opcode) int {
			if a.Priority != b.Priority {
				return cmp.Compare(b.Priority, a.Priority)
			}
			return cmp.Compare(a.Byte, b.Byte)
		})
	}

	return
}

// Decode returns the descriptor of an opcode byte.
func (core *Core) Decode(b byte) *Opcode {
	if int(b) >= len(core.opcodes) {
		return &Reserved
	}
	return &core.opcodes[b]
}

// Candidates returns the opcodes of a mnemonic in the order the
// assembler tries them.
func (core *Core) Candidates(mnemonic string) []*Opcode {
	return core.lookup[strings.ToLower(mnemonic)]
}

// Assemble source with a fresh assembler of the core.
func (core *Core) Assemble(name string, source io.Reader, diag Diagnostics) (code *Code, err error) {
	if core.NewAssembler == nil {
		code = EmptyCode
		err = ErrNoAssembler
		return
	}
	return core.NewAssembler().Assemble(name, source, diag)
}

// Disassemble code, or return nothing if the core has no disassembler.
func (core *Core) Disassemble(code *Code) []string {
	if core.Disassembler == nil {
		return nil
	}
	return core.Disassembler.Disassemble(code)
}

func (core *Core) String() string {
	return core.Manufacturer + " " + core.Name
}
