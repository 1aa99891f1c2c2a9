package i8051

import (
	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/memory"
)

// location is an operand that can be read and written.
type location struct {
	acc      bool // The accumulator.
	indirect bool // Internal RAM at addr, else the direct address addr.
	addr     byte
}

// operand decodes the operand selected by the low nibble of the opcode
// byte: 0x4 is A, 0x5 a fetched direct address, 0x6 and 0x7 @R0 and @R1,
// and 0x8 to 0xF R0 to R7.
func operand(ctx *cpu.Context) (loc location) {
	mem := ctx.Memory
	low := ctx.Op & 0x0F
	switch {
	case low == 0x4:
		loc.acc = true
	case low == 0x5:
		loc.addr = ctx.Fetch()
	case low < 0x8:
		loc.indirect = true
		loc.addr = mem.ReadRegister(int(low & 1))
	default:
		loc.addr = mem.RegisterAddr(int(low & 7))
	}
	return
}

// read the operand. Ports read their pins.
func (loc location) read(mem *memory.Memory) byte {
	switch {
	case loc.acc:
		return mem.A()
	case loc.indirect:
		return mem.ReadIndirect(loc.addr)
	}
	return mem.ReadByte(loc.addr)
}

// latch reads the operand for read-modify-write. Ports read their latch.
func (loc location) latch(mem *memory.Memory) byte {
	switch {
	case loc.acc:
		return mem.A()
	case loc.indirect:
		return mem.ReadIndirect(loc.addr)
	}
	return mem.ReadLatch(loc.addr)
}

func (loc location) write(mem *memory.Memory, value byte) {
	switch {
	case loc.acc:
		mem.SetA(value)
	case loc.indirect:
		mem.WriteIndirect(loc.addr, value)
	default:
		mem.WriteByte(loc.addr, value)
	}
}

// source reads the second operand of the A,src arithmetic and logic
// forms, where column 0x4 is an immediate.
func source(ctx *cpu.Context) byte {
	if ctx.Op&0x0F == 0x4 {
		return ctx.Fetch()
	}
	return operand(ctx).read(ctx.Memory)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

const aluFlags = memory.PSW_CY | memory.PSW_AC | memory.PSW_OV

func add(mem *memory.Memory, value byte, carry bool) {
	a := mem.A()
	c := b2i(carry)
	sum := int(a) + int(value) + c
	half := int(a&0x0F) + int(value&0x0F) + c
	result := byte(sum)

	var flags byte
	if sum > 0xFF {
		flags |= memory.PSW_CY
	}
	if half > 0x0F {
		flags |= memory.PSW_AC
	}
	if (a^value)&0x80 == 0 && (a^result)&0x80 != 0 {
		flags |= memory.PSW_OV
	}

	mem.SetA(result)
	mem.SetFlags(aluFlags, flags)
}

func subb(mem *memory.Memory, value byte, borrow bool) {
	a := mem.A()
	c := b2i(borrow)
	diff := int(a) - int(value) - c
	half := int(a&0x0F) - int(value&0x0F) - c
	result := byte(diff)

	var flags byte
	if diff < 0 {
		flags |= memory.PSW_CY
	}
	if half < 0 {
		flags |= memory.PSW_AC
	}
	if (a^value)&0x80 != 0 && (a^result)&0x80 != 0 {
		flags |= memory.PSW_OV
	}

	mem.SetA(result)
	mem.SetFlags(aluFlags, flags)
}

// logic runs the ORL, ANL and XRL forms of a row.
func logic(ctx *cpu.Context, fn func(a, b byte) byte) {
	mem := ctx.Memory
	switch ctx.Op & 0x0F {
	case 0x2:
		addr := ctx.Fetch()
		mem.ModifyDirect(addr, func(v byte) byte { return fn(v, mem.A()) })
	case 0x3:
		addr := ctx.Fetch()
		imm := ctx.Fetch()
		mem.ModifyDirect(addr, func(v byte) byte { return fn(v, imm) })
	default:
		mem.SetA(fn(mem.A(), source(ctx)))
	}
}

// branch fetches a relative offset, and takes it if cond is true.
func branch(ctx *cpu.Context, cond bool) {
	rel := ctx.Fetch()
	if cond {
		ctx.Jump(rel)
	}
}

// page returns the AJMP and ACALL target, from the fetched operand byte,
// the page bits of the opcode, and the 2K page of the PC.
func page(ctx *cpu.Context) uint16 {
	low := ctx.Fetch()
	return ctx.PC&0xF800 | uint16(ctx.Op>>5)<<8 | uint16(low)
}

func fetch16(ctx *cpu.Context) uint16 {
	high := ctx.Fetch()
	low := ctx.Fetch()
	return uint16(high)<<8 | uint16(low)
}

// movxAddr returns the external RAM address of the MOVX forms: DPTR, or
// P2 and Ri.
func movxAddr(ctx *cpu.Context) uint16 {
	mem := ctx.Memory
	if ctx.Op&0x0F == 0x0 {
		return mem.DPTR()
	}
	return uint16(mem.ReadLatch(memory.P2))<<8 | uint16(mem.ReadRegister(int(ctx.Op&1)))
}

func execNop(ctx *cpu.Context) {}

func execAjmp(ctx *cpu.Context) {
	ctx.SetPC(int(page(ctx)))
}

func execAcall(ctx *cpu.Context) {
	target := page(ctx)
	ctx.PushPC()
	ctx.SetPC(int(target))
}

func execLjmp(ctx *cpu.Context) {
	ctx.SetPC(int(fetch16(ctx)))
}

func execLcall(ctx *cpu.Context) {
	target := fetch16(ctx)
	ctx.PushPC()
	ctx.SetPC(int(target))
}

func execRet(ctx *cpu.Context) {
	ctx.PopPC()
}

func execReti(ctx *cpu.Context) {
	ctx.PopPC()
	ctx.Interrupts.ReturnFromISR()
}

func execSjmp(ctx *cpu.Context) {
	branch(ctx, true)
}

func execJmp(ctx *cpu.Context) {
	mem := ctx.Memory
	ctx.SetPC(int(mem.A()) + int(mem.DPTR()))
}

func execJc(ctx *cpu.Context)  { branch(ctx, ctx.Memory.Carry()) }
func execJnc(ctx *cpu.Context) { branch(ctx, !ctx.Memory.Carry()) }
func execJz(ctx *cpu.Context)  { branch(ctx, ctx.Memory.A() == 0) }
func execJnz(ctx *cpu.Context) { branch(ctx, ctx.Memory.A() != 0) }

func execJb(ctx *cpu.Context) {
	bit := ctx.Fetch()
	branch(ctx, ctx.Memory.ReadBit(bit))
}

func execJnb(ctx *cpu.Context) {
	bit := ctx.Fetch()
	branch(ctx, !ctx.Memory.ReadBit(bit))
}

// JBC is read-modify-write, so port bits test the latch.
func execJbc(ctx *cpu.Context) {
	mem := ctx.Memory
	bit := ctx.Fetch()
	set := mem.ReadBitLatch(bit)
	if set {
		mem.WriteBit(bit, memory.BitClear)
	}
	branch(ctx, set)
}

func execCjne(ctx *cpu.Context) {
	mem := ctx.Memory
	var left, right byte
	switch ctx.Op & 0x0F {
	case 0x4:
		left = mem.A()
		right = ctx.Fetch()
	case 0x5:
		left = mem.A()
		right = mem.ReadByte(ctx.Fetch())
	default:
		left = operand(ctx).read(mem)
		right = ctx.Fetch()
	}
	mem.SetCarry(left < right)
	branch(ctx, left != right)
}

func execDjnz(ctx *cpu.Context) {
	mem := ctx.Memory
	loc := operand(ctx)
	value := loc.latch(mem) - 1
	loc.write(mem, value)
	branch(ctx, value != 0)
}

func execInc(ctx *cpu.Context) {
	mem := ctx.Memory
	loc := operand(ctx)
	loc.write(mem, loc.latch(mem)+1)
}

func execDec(ctx *cpu.Context) {
	mem := ctx.Memory
	loc := operand(ctx)
	loc.write(mem, loc.latch(mem)-1)
}

func execIncDPTR(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.SetDPTR(mem.DPTR() + 1)
}

func execAdd(ctx *cpu.Context) {
	add(ctx.Memory, source(ctx), false)
}

func execAddc(ctx *cpu.Context) {
	add(ctx.Memory, source(ctx), ctx.Memory.Carry())
}

func execSubb(ctx *cpu.Context) {
	subb(ctx.Memory, source(ctx), ctx.Memory.Carry())
}

func execOrl(ctx *cpu.Context) { logic(ctx, func(a, b byte) byte { return a | b }) }
func execAnl(ctx *cpu.Context) { logic(ctx, func(a, b byte) byte { return a & b }) }
func execXrl(ctx *cpu.Context) { logic(ctx, func(a, b byte) byte { return a ^ b }) }

func execMul(ctx *cpu.Context) {
	mem := ctx.Memory
	product := uint16(mem.A()) * uint16(mem.ReadLatch(memory.B))
	mem.SetA(byte(product))
	mem.WriteByte(memory.B, byte(product>>8))

	var flags byte
	if product > 0xFF {
		flags = memory.PSW_OV
	}
	mem.SetFlags(memory.PSW_CY|memory.PSW_OV, flags)
}

func execDiv(ctx *cpu.Context) {
	mem := ctx.Memory
	a := mem.A()
	b := mem.ReadLatch(memory.B)
	if b == 0 {
		mem.SetFlags(memory.PSW_CY|memory.PSW_OV, memory.PSW_OV)
		return
	}
	mem.SetA(a / b)
	mem.WriteByte(memory.B, a%b)
	mem.SetFlags(memory.PSW_CY|memory.PSW_OV, 0)
}

func execDa(ctx *cpu.Context) {
	mem := ctx.Memory
	a := int(mem.A())
	carry := mem.Carry()

	if a&0x0F > 9 || mem.ReadBit(memory.BIT_AC) {
		a += 0x06
		if a > 0xFF {
			carry = true
		}
		a &= 0xFF
	}
	if a>>4 > 9 || carry {
		a += 0x60
		if a > 0xFF {
			carry = true
		}
		a &= 0xFF
	}

	mem.SetA(byte(a))
	if carry {
		mem.SetCarry(true)
	}
}

func execRr(ctx *cpu.Context) {
	a := ctx.Memory.A()
	ctx.Memory.SetA(a>>1 | a<<7)
}

func execRl(ctx *cpu.Context) {
	a := ctx.Memory.A()
	ctx.Memory.SetA(a<<1 | a>>7)
}

func execRrc(ctx *cpu.Context) {
	mem := ctx.Memory
	a := mem.A()
	carry := byte(b2i(mem.Carry()))
	mem.SetA(a>>1 | carry<<7)
	mem.SetCarry(a&0x01 != 0)
}

func execRlc(ctx *cpu.Context) {
	mem := ctx.Memory
	a := mem.A()
	carry := byte(b2i(mem.Carry()))
	mem.SetA(a<<1 | carry)
	mem.SetCarry(a&0x80 != 0)
}

func execSwap(ctx *cpu.Context) {
	a := ctx.Memory.A()
	ctx.Memory.SetA(a<<4 | a>>4)
}

func execClrA(ctx *cpu.Context) { ctx.Memory.SetA(0) }
func execCplA(ctx *cpu.Context) { ctx.Memory.SetA(^ctx.Memory.A()) }

func execClrC(ctx *cpu.Context)  { ctx.Memory.WriteBit(memory.BIT_CY, memory.BitClear) }
func execSetbC(ctx *cpu.Context) { ctx.Memory.WriteBit(memory.BIT_CY, memory.BitSet) }
func execCplC(ctx *cpu.Context)  { ctx.Memory.WriteBit(memory.BIT_CY, memory.BitComplement) }

func execClrBit(ctx *cpu.Context)  { ctx.Memory.WriteBit(ctx.Fetch(), memory.BitClear) }
func execSetbBit(ctx *cpu.Context) { ctx.Memory.WriteBit(ctx.Fetch(), memory.BitSet) }
func execCplBit(ctx *cpu.Context)  { ctx.Memory.WriteBit(ctx.Fetch(), memory.BitComplement) }

func execOrlC(ctx *cpu.Context) {
	mem := ctx.Memory
	bit := mem.ReadBit(ctx.Fetch())
	mem.SetCarry(mem.Carry() || bit)
}

func execOrlNotC(ctx *cpu.Context) {
	mem := ctx.Memory
	bit := mem.ReadBit(ctx.Fetch())
	mem.SetCarry(mem.Carry() || !bit)
}

func execAnlC(ctx *cpu.Context) {
	mem := ctx.Memory
	bit := mem.ReadBit(ctx.Fetch())
	mem.SetCarry(mem.Carry() && bit)
}

func execAnlNotC(ctx *cpu.Context) {
	mem := ctx.Memory
	bit := mem.ReadBit(ctx.Fetch())
	mem.SetCarry(mem.Carry() && !bit)
}

func execMovCBit(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.SetCarry(mem.ReadBit(ctx.Fetch()))
}

func execMovBitC(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.WriteBit(ctx.Fetch(), memory.BitIf(mem.Carry()))
}

// execMovImm is MOV dst,#data, for dst in column order.
func execMovImm(ctx *cpu.Context) {
	loc := operand(ctx)
	loc.write(ctx.Memory, ctx.Fetch())
}

// execMovDirect is MOV direct,direct, encoded source first.
func execMovDirect(ctx *cpu.Context) {
	mem := ctx.Memory
	src := ctx.Fetch()
	dst := ctx.Fetch()
	mem.WriteByte(dst, mem.ReadByte(src))
}

// execMovToDirect is MOV direct,@Ri and MOV direct,Rn.
func execMovToDirect(ctx *cpu.Context) {
	mem := ctx.Memory
	dst := ctx.Fetch()
	mem.WriteByte(dst, operand(ctx).read(mem))
}

// execMovFromDirect is MOV @Ri,direct and MOV Rn,direct.
func execMovFromDirect(ctx *cpu.Context) {
	mem := ctx.Memory
	loc := operand(ctx)
	loc.write(mem, mem.ReadByte(ctx.Fetch()))
}

func execMovA(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.SetA(operand(ctx).read(mem))
}

func execMovFromA(ctx *cpu.Context) {
	mem := ctx.Memory
	operand(ctx).write(mem, mem.A())
}

func execMovDPTR(ctx *cpu.Context) {
	ctx.Memory.SetDPTR(fetch16(ctx))
}

func execMovcPC(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.SetA(mem.ReadCode(ctx.PC + uint16(mem.A())))
}

func execMovcDPTR(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.SetA(mem.ReadCode(mem.DPTR() + uint16(mem.A())))
}

func execMovxRead(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.SetA(mem.ReadExternal(movxAddr(ctx)))
}

func execMovxWrite(ctx *cpu.Context) {
	mem := ctx.Memory
	mem.WriteExternal(movxAddr(ctx), mem.A())
}

func execPush(ctx *cpu.Context) {
	ctx.Push(ctx.Memory.ReadByte(ctx.Fetch()))
}

func execPop(ctx *cpu.Context) {
	addr := ctx.Fetch()
	ctx.Memory.WriteByte(addr, ctx.Pop())
}

func execXch(ctx *cpu.Context) {
	mem := ctx.Memory
	loc := operand(ctx)
	a := mem.A()
	mem.SetA(loc.latch(mem))
	loc.write(mem, a)
}

func execXchd(ctx *cpu.Context) {
	mem := ctx.Memory
	loc := operand(ctx)
	a := mem.A()
	value := loc.latch(mem)
	mem.SetA(a&0xF0 | value&0x0F)
	loc.write(mem, value&0xF0|a&0x0F)
}
