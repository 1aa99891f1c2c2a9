// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"log"
	"slices"
	"sync/atomic"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/periph"
)

// Interpreter runs the code of one core, one instruction per cycle.
//
// Every method that touches the machine state takes the context lock, so
// callers on other goroutines only ever see whole instructions.
type Interpreter struct {
	Verbose bool // If set, logs every executed instruction.

	ctx *cpu.Context

	running       atomic.Bool
	paused        atomic.Bool
	stepRequested atomic.Bool
}

// NewInterpreter creates an interpreter for a core, with no code loaded.
func NewInterpreter(core *cpu.Core) (ip *Interpreter) {
	ip = &Interpreter{
		ctx: cpu.NewContext(core),
	}
	return
}

// Context returns the machine state. It must only be used while holding
// its lock, or from inside ReadGuarded and WriteGuarded.
func (ip *Interpreter) Context() *cpu.Context {
	return ip.ctx
}

// Run performs one cycle: timers, ports, serial port, interrupt dispatch,
// then the fetch and execution of one instruction.
func (ip *Interpreter) Run() (err error) {
	ctx := ip.ctx
	ctx.Lock()
	defer ctx.Unlock()

	return ip.run()
}

func (ip *Interpreter) run() (err error) {
	ctx := ip.ctx
	mem := ctx.Memory

	ctx.Timers.Run(mem)
	ctx.Ports.Run(mem)
	if serr := ctx.Serial.Run(mem); serr != nil {
		err = &ErrRuntime{PC: ctx.PC, Where: ip.where(ctx.PC), Err: serr}
	}

	if vector, ok := ctx.Interrupts.Run(mem); ok {
		if ip.Verbose {
			log.Printf("%04x: interrupt -> %04x", ctx.PC, vector)
		}
		ctx.PushPC()
		ctx.SetPC(int(vector))
	}

	pc := ctx.PC
	ctx.Op = ctx.Fetch()
	op := ctx.Core.Decode(ctx.Op)
	if ip.Verbose {
		log.Printf("%04x: %02x %v (%v)", pc, ctx.Op, op, ip.where(pc))
	}
	op.Exec(ctx)

	return
}

// where names an address relative to the closest label at or below it.
func (ip *Interpreter) where(pc uint16) string {
	best := -1
	name := ""
	for addr, label := range ip.ctx.Code.Labels {
		if addr <= pc && int(addr) > best {
			best = int(addr)
			name = label
		}
	}
	switch {
	case best < 0:
		return fmt.Sprintf("0x%04X", pc)
	case int(pc) == best:
		return name
	}
	return fmt.Sprintf("%v+%d", name, int(pc)-best)
}

// Tick runs one cycle if the interpreter is started, and is either
// unpaused or has a step requested. It returns true if a cycle ran.
func (ip *Interpreter) Tick() (ran bool, err error) {
	if !ip.running.Load() {
		return
	}
	if ip.paused.Load() && !ip.stepRequested.Swap(false) {
		return
	}

	ran = true
	err = ip.Run()
	return
}

// Startup allows Tick to run cycles.
func (ip *Interpreter) Startup() {
	ip.running.Store(true)
}

// Shutdown stops Tick until the next Startup.
func (ip *Interpreter) Shutdown() {
	ip.running.Store(false)
}

// IsRunning returns true between Startup and Shutdown.
func (ip *Interpreter) IsRunning() bool {
	return ip.running.Load()
}

// Pause stops Tick, except for requested steps.
func (ip *Interpreter) Pause() {
	ip.paused.Store(true)
}

// Resume undoes Pause.
func (ip *Interpreter) Resume() {
	ip.paused.Store(false)
}

// IsPaused returns true while paused.
func (ip *Interpreter) IsPaused() bool {
	return ip.paused.Load()
}

// Step requests that the next Tick run one cycle while paused.
func (ip *Interpreter) Step() {
	ip.stepRequested.Store(true)
}

// LoadCode resets the machine, then loads the code into ROM.
func (ip *Interpreter) LoadCode(code *cpu.Code) (err error) {
	ctx := ip.ctx
	ctx.Lock()
	defer ctx.Unlock()

	err = ctx.LoadCode(code)
	if err != nil {
		return
	}

	if ip.Verbose {
		log.Printf("%v: loaded %d bytes", code.Name, len(code.ROM))
	}
	return
}

// Reset the machine, keeping the loaded code.
func (ip *Interpreter) Reset() {
	WriteGuarded(ip, false, func(ctx *cpu.Context, clearROM bool) {
		ctx.Reset(clearROM)
	})
}

// Code returns the loaded code.
func (ip *Interpreter) Code() *cpu.Code {
	return ReadGuarded(ip, func(ctx *cpu.Context) *cpu.Code {
		return ctx.Code
	})
}

// ReadGuarded calls fn with the context locked, and returns its result.
// fn must not call other guarded methods of the interpreter.
func ReadGuarded[T any](ip *Interpreter, fn func(ctx *cpu.Context) T) T {
	ctx := ip.ctx
	ctx.Lock()
	defer ctx.Unlock()

	return fn(ctx)
}

// WriteGuarded calls fn with the context locked.
// fn must not call other guarded methods of the interpreter.
func WriteGuarded[T any](ip *Interpreter, data T, fn func(ctx *cpu.Context, data T)) {
	ctx := ip.ctx
	ctx.Lock()
	defer ctx.Unlock()

	fn(ctx, data)
}

// RAM returns a copy of internal RAM.
func (ip *Interpreter) RAM() []byte {
	return ReadGuarded(ip, func(ctx *cpu.Context) []byte {
		return slices.Clone(ctx.Memory.RAM)
	})
}

// SFR returns a copy of the special function registers.
func (ip *Interpreter) SFR() []byte {
	return ReadGuarded(ip, func(ctx *cpu.Context) []byte {
		return slices.Clone(ctx.Memory.SFR)
	})
}

// ExternalRAM returns a copy of external RAM.
func (ip *Interpreter) ExternalRAM() []byte {
	return ReadGuarded(ip, func(ctx *cpu.Context) []byte {
		return slices.Clone(ctx.Memory.External)
	})
}

// ProgramCounter returns the address of the next instruction.
func (ip *Interpreter) ProgramCounter() uint16 {
	return ReadGuarded(ip, func(ctx *cpu.Context) uint16 {
		return ctx.PC
	})
}

// Ports returns the port inputs and published outputs.
func (ip *Interpreter) Ports() periph.PortsState {
	return ReadGuarded(ip, func(ctx *cpu.Context) periph.PortsState {
		return ctx.Ports.Save()
	})
}

// Timers returns the timer state.
func (ip *Interpreter) Timers() periph.TimersState {
	return ReadGuarded(ip, func(ctx *cpu.Context) periph.TimersState {
		return ctx.Timers.Save()
	})
}

// SetPortInput drives the external pins of a port.
func (ip *Interpreter) SetPortInput(port int, value byte) {
	WriteGuarded(ip, value, func(ctx *cpu.Context, value byte) {
		ctx.Ports.SetInput(port, value)
	})
}

// Serial returns the serial port. Its Send and Feed methods may be used
// without the lock.
func (ip *Interpreter) Serial() *periph.Serial {
	return ip.ctx.Serial
}
