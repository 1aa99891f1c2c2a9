package memory

import (
	"math/bits"
)

// Layout describes the size of each memory region.
type Layout struct {
	ROM      int // Program memory bytes.
	RAM      int // Internal RAM bytes, directly addressed below 0x80.
	SFR      int // Special function register bytes, directly addressed from 0x80.
	External int // External RAM bytes, reached by MOVX.
}

// DefaultLayout is the layout of the 8051 core.
var DefaultLayout = Layout{
	ROM:      0x1000,
	RAM:      0x80,
	SFR:      0x80,
	External: 0x2000,
}

// Pins supplies the externally driven level of a port.
type Pins interface {
	// Pin returns the external level of port 0..3.
	Pin(port int) byte
}

// BitMode selects the update applied by WriteBit.
type BitMode int

const (
	BitClear BitMode = iota
	BitSet
	BitComplement
)

// BitIf returns BitSet if set is true, otherwise BitClear.
func BitIf(set bool) BitMode {
	if set {
		return BitSet
	}
	return BitClear
}

// Memory holds all of the address spaces of a core.
type Memory struct {
	ROM      []byte
	RAM      []byte
	SFR      []byte
	External []byte

	Pins Pins // Port pin source. If nil, pins read as the latch.

	// SBUF is two registers. Writes land in Transmit, reads return the
	// receive buffer held in SFR.
	Transmit     byte
	TransmitFull bool
}

// New creates the memory regions for a layout.
func New(layout Layout) (mem *Memory) {
	mem = &Memory{
		ROM:      make([]byte, layout.ROM),
		RAM:      make([]byte, layout.RAM),
		SFR:      make([]byte, layout.SFR),
		External: make([]byte, layout.External),
	}
	mem.Reset(true)
	return
}

// Reset clears RAM, SFR and external RAM, then applies the power-on
// SFR values. ROM is only cleared when clearROM is set.
func (mem *Memory) Reset(clearROM bool) {
	clear(mem.RAM)
	clear(mem.SFR)
	clear(mem.External)
	if clearROM {
		clear(mem.ROM)
	}
	mem.Transmit = 0
	mem.TransmitFull = false

	mem.WriteByte(SP, 0x07)
	for _, port := range []byte{P0, P1, P2, P3} {
		mem.WriteByte(port, 0xFF)
	}
}

func portIndex(addr byte) (port int, ok bool) {
	switch addr {
	case P0:
		return 0, true
	case P1:
		return 1, true
	case P2:
		return 2, true
	case P3:
		return 3, true
	}
	return
}

func (mem *Memory) sfrIndex(addr byte) int {
	return int(addr-0x80) % len(mem.SFR)
}

// ReadLatch reads a direct address without sampling port pins.
func (mem *Memory) ReadLatch(addr byte) byte {
	if addr < 0x80 {
		return mem.RAM[int(addr)%len(mem.RAM)]
	}
	return mem.SFR[mem.sfrIndex(addr)]
}

// ReadByte reads a direct address. Ports read their pin level.
func (mem *Memory) ReadByte(addr byte) (value byte) {
	value = mem.ReadLatch(addr)
	if port, ok := portIndex(addr); ok && mem.Pins != nil {
		value &= mem.Pins.Pin(port)
	}
	return
}

// WriteByte writes a direct address.
func (mem *Memory) WriteByte(addr byte, value byte) {
	if addr < 0x80 {
		mem.RAM[int(addr)%len(mem.RAM)] = value
		return
	}

	switch addr {
	case SBUF:
		mem.Transmit = value
		mem.TransmitFull = true
		return
	case ACC, PSW:
		mem.SFR[mem.sfrIndex(addr)] = value
		mem.updateParity()
		return
	}

	mem.SFR[mem.sfrIndex(addr)] = value
}

// Receive loads the SBUF receive buffer.
func (mem *Memory) Receive(value byte) {
	mem.SFR[mem.sfrIndex(SBUF)] = value
}

// Read is ReadByte for int addresses.
func (mem *Memory) Read(addr int) int {
	return int(mem.ReadByte(byte(addr)))
}

// Write is WriteByte for int values, truncated to 8 bits.
func (mem *Memory) Write(addr int, value int) {
	mem.WriteByte(byte(addr), byte(value))
}

func (mem *Memory) updateParity() {
	psw := mem.SFR[mem.sfrIndex(PSW)] &^ PSW_P
	if bits.OnesCount8(mem.SFR[mem.sfrIndex(ACC)])&1 == 1 {
		psw |= PSW_P
	}
	mem.SFR[mem.sfrIndex(PSW)] = psw
}

// ReadIndirect reads internal RAM through a pointer, as @Ri and the stack do.
func (mem *Memory) ReadIndirect(ptr byte) byte {
	return mem.RAM[int(ptr)%len(mem.RAM)]
}

// WriteIndirect writes internal RAM through a pointer.
func (mem *Memory) WriteIndirect(ptr byte, value byte) {
	mem.RAM[int(ptr)%len(mem.RAM)] = value
}

// ReadExternal reads external RAM.
func (mem *Memory) ReadExternal(addr uint16) byte {
	return mem.External[int(addr)%len(mem.External)]
}

// WriteExternal writes external RAM.
func (mem *Memory) WriteExternal(addr uint16, value byte) {
	mem.External[int(addr)%len(mem.External)] = value
}

// ReadCode reads program memory.
func (mem *Memory) ReadCode(addr uint16) byte {
	return mem.ROM[int(addr)%len(mem.ROM)]
}

// Bank returns the active register bank, from PSW.RS1:RS0.
func (mem *Memory) Bank() int {
	return int(mem.ReadLatch(PSW)>>3) & 3
}

// RegisterAddr returns the RAM address of Rn in the active bank.
func (mem *Memory) RegisterAddr(n int) byte {
	return byte(mem.Bank()*8 + (n & 7))
}

// ReadRegister reads Rn.
func (mem *Memory) ReadRegister(n int) byte {
	return mem.ReadByte(mem.RegisterAddr(n))
}

// WriteRegister writes Rn.
func (mem *Memory) WriteRegister(n int, value byte) {
	mem.WriteByte(mem.RegisterAddr(n), value)
}

// ModifyRegister replaces Rn with fn(Rn).
func (mem *Memory) ModifyRegister(n int, fn func(byte) byte) {
	addr := mem.RegisterAddr(n)
	mem.WriteByte(addr, fn(mem.ReadByte(addr)))
}

// ReadAt reads @Ri, the internal RAM byte addressed by Ri.
func (mem *Memory) ReadAt(n int) byte {
	return mem.ReadIndirect(mem.ReadRegister(n))
}

// WriteAt writes @Ri.
func (mem *Memory) WriteAt(n int, value byte) {
	mem.WriteIndirect(mem.ReadRegister(n), value)
}

// ModifyAt replaces @Ri with fn(@Ri).
func (mem *Memory) ModifyAt(n int, fn func(byte) byte) {
	ptr := mem.ReadRegister(n)
	mem.WriteIndirect(ptr, fn(mem.ReadIndirect(ptr)))
}

// ModifyDirect replaces a direct byte with fn(latch).
func (mem *Memory) ModifyDirect(addr byte, fn func(byte) byte) {
	mem.WriteByte(addr, fn(mem.ReadLatch(addr)))
}

// BitLocation returns the direct byte address and mask of a bit address.
func BitLocation(bit byte) (addr byte, mask byte) {
	mask = 1 << (bit & 7)
	if bit < 0x80 {
		addr = 0x20 + bit>>3
	} else {
		addr = bit & 0xF8
	}
	return
}

// ReadBit reads a bit address. Port bits read the pin.
func (mem *Memory) ReadBit(bit byte) bool {
	addr, mask := BitLocation(bit)
	return mem.ReadByte(addr)&mask != 0
}

// ReadBitLatch reads a bit address without sampling port pins.
func (mem *Memory) ReadBitLatch(bit byte) bool {
	addr, mask := BitLocation(bit)
	return mem.ReadLatch(addr)&mask != 0
}

// WriteBit updates a bit address from the latch of its byte.
func (mem *Memory) WriteBit(bit byte, mode BitMode) {
	addr, mask := BitLocation(bit)
	value := mem.ReadLatch(addr)
	switch mode {
	case BitSet:
		value |= mask
	case BitClear:
		value &^= mask
	case BitComplement:
		value ^= mask
	}
	mem.WriteByte(addr, value)
}

// A reads the accumulator.
func (mem *Memory) A() byte {
	return mem.ReadLatch(ACC)
}

// SetA writes the accumulator.
func (mem *Memory) SetA(value byte) {
	mem.WriteByte(ACC, value)
}

// Carry reads PSW.CY.
func (mem *Memory) Carry() bool {
	return mem.ReadLatch(PSW)&PSW_CY != 0
}

// SetCarry writes PSW.CY.
func (mem *Memory) SetCarry(set bool) {
	mem.WriteBit(BIT_CY, BitIf(set))
}

// SetFlags writes the masked PSW bits from value.
func (mem *Memory) SetFlags(mask byte, value byte) {
	mem.ModifyDirect(PSW, func(psw byte) byte {
		return psw&^mask | value&mask
	})
}

// DPTR reads the data pointer.
func (mem *Memory) DPTR() uint16 {
	return uint16(mem.ReadLatch(DPH))<<8 | uint16(mem.ReadLatch(DPL))
}

// SetDPTR writes the data pointer.
func (mem *Memory) SetDPTR(value uint16) {
	mem.WriteByte(DPH, byte(value>>8))
	mem.WriteByte(DPL, byte(value))
}

// LoadROM resets program memory to the image.
func (mem *Memory) LoadROM(image []byte) (err error) {
	if len(image) > len(mem.ROM) {
		err = ErrImageSize
		return
	}
	clear(mem.ROM)
	copy(mem.ROM, image)
	return
}

// Restore replaces RAM, SFR and external RAM from a snapshot.
func (mem *Memory) Restore(ram, sfr, external []byte) (err error) {
	if len(ram) != len(mem.RAM) || len(sfr) != len(mem.SFR) || len(external) != len(mem.External) {
		err = ErrSnapshotSize
		return
	}
	copy(mem.RAM, ram)
	copy(mem.SFR, sfr)
	copy(mem.External, external)
	return
}
