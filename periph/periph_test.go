package periph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rcu51/memory"
)

func newMemory() (mem *memory.Memory, pt *Ports) {
	mem = memory.New(memory.DefaultLayout)
	pt = NewPorts()
	mem.Pins = pt
	return
}

func TestPorts(t *testing.T) {
	assert := assert.New(t)

	mem, pt := newMemory()

	assert.False(pt.Run(mem))
	assert.Equal(byte(0), pt.Changed())

	mem.WriteByte(memory.P1, 0x5A)
	assert.True(pt.Run(mem))
	assert.Equal(byte(0x5A), pt.Output[1])
	assert.Equal(byte(0x02), pt.Changed())
	assert.Equal(byte(0), pt.Changed())

	pt.SetInput(2, 0x0F)
	assert.Equal(byte(0x0F), mem.ReadByte(memory.P2))

	state := pt.Save()
	pt.Reset()
	assert.Equal(byte(0x0F), pt.Input[2])
	assert.Equal(byte(0xFF), pt.Output[1])
	pt.Load(state)
	assert.Equal(byte(0x0F), pt.Input[2])
	assert.Equal(byte(0x5A), pt.Output[1])
}

func TestTimerMode1(t *testing.T) {
	assert := assert.New(t)

	mem, _ := newMemory()
	tm := NewTimers()

	mem.WriteByte(memory.TMOD, 0x01)
	mem.WriteByte(memory.TL0, 0xFE)
	mem.WriteByte(memory.TH0, 0xFF)

	// Not running yet.
	tm.Run(mem)
	assert.Equal(byte(0xFE), mem.ReadByte(memory.TL0))

	mem.WriteBit(memory.BIT_TR0, memory.BitSet)
	tm.Run(mem)
	assert.Equal(byte(0xFF), mem.ReadByte(memory.TL0))
	assert.False(mem.ReadBit(memory.BIT_TF0))

	tm.Run(mem)
	assert.Equal(byte(0x00), mem.ReadByte(memory.TL0))
	assert.Equal(byte(0x00), mem.ReadByte(memory.TH0))
	assert.True(mem.ReadBit(memory.BIT_TF0))
}

func TestTimerMode2(t *testing.T) {
	assert := assert.New(t)

	mem, _ := newMemory()
	tm := NewTimers()

	mem.WriteByte(memory.TMOD, 0x20)
	mem.WriteByte(memory.TL1, 0xFF)
	mem.WriteByte(memory.TH1, 0xF0)
	mem.WriteBit(memory.BIT_TR1, memory.BitSet)

	tm.Run(mem)
	assert.Equal(byte(0xF0), mem.ReadByte(memory.TL1))
	assert.True(mem.ReadBit(memory.BIT_TF1))
}

func TestTimerMode0(t *testing.T) {
	assert := assert.New(t)

	mem, _ := newMemory()
	tm := NewTimers()

	mem.WriteByte(memory.TL0, 0x1F)
	mem.WriteByte(memory.TH0, 0x01)
	mem.WriteBit(memory.BIT_TR0, memory.BitSet)

	tm.Run(mem)
	assert.Equal(byte(0x00), mem.ReadByte(memory.TL0))
	assert.Equal(byte(0x02), mem.ReadByte(memory.TH0))
}

func TestTimerGateAndCounter(t *testing.T) {
	assert := assert.New(t)

	mem, pt := newMemory()
	tm := NewTimers()

	// Timer 0 gated by INT0, timer 1 counting T1.
	mem.WriteByte(memory.TMOD, 0x59)
	mem.WriteBit(memory.BIT_TR0, memory.BitSet)
	mem.WriteBit(memory.BIT_TR1, memory.BitSet)

	pt.SetInput(3, 0xFF&^0x04)
	tm.Run(mem)
	assert.Equal(byte(0), mem.ReadByte(memory.TL0))
	assert.Equal(byte(0), mem.ReadByte(memory.TL1))

	pt.SetInput(3, 0xFF&^0x20)
	tm.Run(mem)
	assert.Equal(byte(1), mem.ReadByte(memory.TL0))
	assert.Equal(byte(1), mem.ReadByte(memory.TL1))

	// Low level is not another edge.
	tm.Run(mem)
	assert.Equal(byte(1), mem.ReadByte(memory.TL1))
}

func TestTimerSplit(t *testing.T) {
	assert := assert.New(t)

	mem, _ := newMemory()
	tm := NewTimers()

	mem.WriteByte(memory.TMOD, 0x03)
	mem.WriteByte(memory.TH0, 0xFF)
	mem.WriteBit(memory.BIT_TR1, memory.BitSet)

	tm.Run(mem)
	assert.Equal(byte(0), mem.ReadByte(memory.TL0))
	assert.Equal(byte(0), mem.ReadByte(memory.TH0))
	assert.True(mem.ReadBit(memory.BIT_TF1))
}

func TestInterrupts(t *testing.T) {
	assert := assert.New(t)

	mem, _ := newMemory()
	it := NewInterrupts()

	mem.WriteBit(memory.BIT_TF0, memory.BitSet)
	_, ok := it.Run(mem)
	assert.False(ok)

	mem.WriteBit(memory.BIT_ET0, memory.BitSet)
	mem.WriteBit(memory.BIT_EA, memory.BitSet)
	vector, ok := it.Run(mem)
	assert.True(ok)
	assert.Equal(VECTOR_TF0, vector)
	assert.False(mem.ReadBit(memory.BIT_TF0))
	assert.True(it.Active[0])

	// Low priority cannot preempt low priority.
	mem.WriteBit(memory.BIT_TF1, memory.BitSet)
	mem.WriteBit(memory.BIT_ET1, memory.BitSet)
	_, ok = it.Run(mem)
	assert.False(ok)

	// High priority can.
	mem.WriteBit(memory.BIT_PT1, memory.BitSet)
	vector, ok = it.Run(mem)
	assert.True(ok)
	assert.Equal(VECTOR_TF1, vector)
	assert.True(it.Active[1])

	it.ReturnFromISR()
	assert.False(it.Active[1])
	assert.True(it.Active[0])
	it.ReturnFromISR()
	assert.False(it.Active[0])
}

func TestInterruptsExternal(t *testing.T) {
	assert := assert.New(t)

	mem, pt := newMemory()
	it := NewInterrupts()

	mem.WriteBit(memory.BIT_EA, memory.BitSet)
	mem.WriteBit(memory.BIT_EX0, memory.BitSet)
	mem.WriteBit(memory.BIT_IT0, memory.BitSet)

	_, ok := it.Run(mem)
	assert.False(ok)

	pt.SetInput(3, 0xFF&^0x04)
	vector, ok := it.Run(mem)
	assert.True(ok)
	assert.Equal(VECTOR_IE0, vector)
	assert.False(mem.ReadBit(memory.BIT_IE0))

	state := it.Save()
	it.Reset()
	it.Load(state)
	assert.True(it.Active[0])
	assert.False(it.IntPin[0])
}
