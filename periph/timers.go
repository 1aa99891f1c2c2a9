package periph

import (
	"github.com/ezrec/rcu51/memory"
)

// TMOD nibble fields, per timer.
const (
	TMOD_MODE = byte(0x03)
	TMOD_CT   = byte(0x04)
	TMOD_GATE = byte(0x08)
)

type timer struct {
	low, high byte // Count registers.
	run       byte // TRx bit.
	overflow  byte // TFx bit.
	gate      byte // INTx pin bit.
	count     byte // Tx pin bit.
}

var timerBits = [2]timer{
	{memory.TL0, memory.TH0, memory.BIT_TR0, memory.BIT_TF0, memory.BIT_INT0, memory.BIT_T0},
	{memory.TL1, memory.TH1, memory.BIT_TR1, memory.BIT_TF1, memory.BIT_INT1, memory.BIT_T1},
}

// Timers are timer/counters 0 and 1, advanced once per Run.
type Timers struct {
	// Last sampled level of the T0 and T1 pins, for falling edge counting.
	CountPin [2]bool
}

// TimersState is the saved form of Timers.
type TimersState struct {
	CountPin [2]bool `json:"count_pin"`
}

// NewTimers returns idle timers.
func NewTimers() (tm *Timers) {
	tm = &Timers{}
	tm.Reset()
	return
}

// Reset sets the sampled pins high.
func (tm *Timers) Reset() {
	tm.CountPin = [2]bool{true, true}
}

// Run advances both timers by one machine cycle.
func (tm *Timers) Run(mem *memory.Memory) {
	var pulse [2]bool
	for n, t := range timerBits {
		level := mem.ReadBit(t.count)
		pulse[n] = tm.CountPin[n] && !level
		tm.CountPin[n] = level
	}

	tmod := mem.ReadLatch(memory.TMOD)
	split := tmod&TMOD_MODE == 3

	for n, t := range timerBits {
		ctl := (tmod >> (4 * n)) & 0x0F
		mode := ctl & TMOD_MODE

		if n == 1 && mode == 3 {
			// Timer 1 halts in mode 3.
			continue
		}

		running := mem.ReadBit(t.run) && (ctl&TMOD_GATE == 0 || mem.ReadBit(t.gate))
		if !running {
			continue
		}
		if ctl&TMOD_CT != 0 && !pulse[n] {
			continue
		}

		if tm.increment(mem, t, mode) && !(n == 1 && split) {
			mem.WriteBit(t.overflow, memory.BitSet)
		}
	}

	// In split mode TH0 is an 8-bit timer owned by TR1 and TF1.
	if split && mem.ReadBit(memory.BIT_TR1) {
		th := mem.ReadLatch(memory.TH0) + 1
		mem.WriteByte(memory.TH0, th)
		if th == 0 {
			mem.WriteBit(memory.BIT_TF1, memory.BitSet)
		}
	}
}

// increment a timer in its mode, returning true on overflow.
func (tm *Timers) increment(mem *memory.Memory, t timer, mode byte) (overflow bool) {
	tl := mem.ReadLatch(t.low)
	th := mem.ReadLatch(t.high)

	switch mode {
	case 0:
		tl = (tl + 1) & 0x1F
		if tl == 0 {
			th++
			overflow = th == 0
		}
	case 1:
		tl++
		if tl == 0 {
			th++
			overflow = th == 0
		}
	case 2:
		tl++
		if tl == 0 {
			tl = th
			overflow = true
		}
	case 3:
		tl++
		overflow = tl == 0
	}

	mem.WriteByte(t.low, tl)
	mem.WriteByte(t.high, th)
	return
}

// Save returns the timer state.
func (tm *Timers) Save() TimersState {
	return TimersState{CountPin: tm.CountPin}
}

// Load restores the timer state.
func (tm *Timers) Load(state TimersState) {
	tm.CountPin = state.CountPin
}
