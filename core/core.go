// Package core lists the processor cores the emulator knows.
package core

import (
	"errors"
	"strings"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/cpu/i8051"
	"github.com/ezrec/rcu51/memory"
	"github.com/ezrec/rcu51/translate"
)

var f = translate.From

// ErrCoreUnknown is returned by Lookup for a name no core has.
var ErrCoreUnknown = errors.New(f("unknown core"))

var (
	// CPU8051 is the Intel 8051, the only complete core.
	CPU8051 = i8051.Core

	// Cores without an opcode table. Every byte decodes as Reserved,
	// and they have neither assembler nor disassembler.
	CPU8080 = cpu.NewCore("8080", "Intel", memory.DefaultLayout, nil)
	CPU8085 = cpu.NewCore("8085", "Intel", memory.DefaultLayout, nil)
	CPUZ80  = cpu.NewCore("Z80", "Zilog", memory.DefaultLayout, nil)
)

var cores = []*cpu.Core{CPU8051, CPU8080, CPU8085, CPUZ80}

// All returns every core, the default first.
func All() []*cpu.Core {
	return append([]*cpu.Core(nil), cores...)
}

// Default returns the core used when none is named.
func Default() *cpu.Core {
	return CPU8051
}

// Lookup finds a core by name, ignoring case. An empty name selects the
// default core.
func Lookup(name string) (core *cpu.Core, err error) {
	if len(name) == 0 {
		core = Default()
		return
	}

	for _, c := range cores {
		if strings.EqualFold(c.Name, name) {
			core = c
			return
		}
	}

	err = ErrCoreUnknown
	return
}
