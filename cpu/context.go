package cpu

import (
	"sync"

	"github.com/ezrec/rcu51/memory"
	"github.com/ezrec/rcu51/periph"
)

// Context is the machine state of one core.
//
// The embedded mutex guards every field. Opcode executors run with it
// held, and must not lock it again.
type Context struct {
	sync.Mutex

	Core       *Core
	Memory     *memory.Memory
	Ports      *periph.Ports
	Timers     *periph.Timers
	Serial     *periph.Serial
	Interrupts *periph.Interrupts
	Code       *Code

	PC uint16 // Program counter, always inside ROM.
	Op byte   // Most recently fetched opcode byte.
}

// NewContext creates the machine state for a core, in reset.
func NewContext(core *Core) (ctx *Context) {
	ctx = &Context{
		Core:       core,
		Memory:     memory.New(core.Layout),
		Ports:      periph.NewPorts(),
		Timers:     periph.NewTimers(),
		Serial:     periph.NewSerial(),
		Interrupts: periph.NewInterrupts(),
		Code:       EmptyCode,
	}
	ctx.Memory.Pins = ctx.Ports

	return
}

// Reset the machine. ROM is only cleared when clearROM is set.
func (ctx *Context) Reset(clearROM bool) {
	ctx.PC = 0
	ctx.Op = 0
	ctx.Memory.Reset(clearROM)
	ctx.Ports.Reset()
	ctx.Timers.Reset()
	ctx.Serial.Reset()
	ctx.Interrupts.Reset()
}

// LoadCode resets the machine and copies code into ROM.
func (ctx *Context) LoadCode(code *Code) (err error) {
	if code == nil {
		code = EmptyCode
	}

	ctx.Reset(true)
	err = ctx.Memory.LoadROM(code.ROM)
	if err != nil {
		return
	}
	ctx.Code = code

	return
}

// SetPC sets the program counter, wrapped into ROM.
func (ctx *Context) SetPC(pc int) {
	size := len(ctx.Memory.ROM)
	ctx.PC = uint16(((pc % size) + size) % size)
}

// Fetch reads the ROM byte at the PC, and advances the PC.
func (ctx *Context) Fetch() (value byte) {
	value = ctx.Memory.ReadCode(ctx.PC)
	ctx.SetPC(int(ctx.PC) + 1)
	return
}

// Jump moves the PC by a signed relative offset.
func (ctx *Context) Jump(rel byte) {
	ctx.SetPC(int(ctx.PC) + int(int8(rel)))
}

// Push pre-increments SP and writes value to internal RAM at SP.
func (ctx *Context) Push(value byte) {
	mem := ctx.Memory
	sp := mem.ReadLatch(memory.SP) + 1
	mem.WriteByte(memory.SP, sp)
	mem.WriteIndirect(sp, value)
}

// Pop reads internal RAM at SP, then decrements SP.
func (ctx *Context) Pop() (value byte) {
	mem := ctx.Memory
	sp := mem.ReadLatch(memory.SP)
	value = mem.ReadIndirect(sp)
	mem.WriteByte(memory.SP, sp-1)
	return
}

// PushPC pushes the low, then the high byte of the PC.
func (ctx *Context) PushPC() {
	ctx.Push(byte(ctx.PC))
	ctx.Push(byte(ctx.PC >> 8))
}

// PopPC pops the high, then the low byte of the PC.
func (ctx *Context) PopPC() {
	high := ctx.Pop()
	low := ctx.Pop()
	ctx.SetPC(int(high)<<8 | int(low))
}
