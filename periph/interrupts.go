package periph

import (
	"github.com/ezrec/rcu51/memory"
)

// Interrupt vectors.
const (
	VECTOR_IE0    = uint16(0x0003)
	VECTOR_TF0    = uint16(0x000B)
	VECTOR_IE1    = uint16(0x0013)
	VECTOR_TF1    = uint16(0x001B)
	VECTOR_SERIAL = uint16(0x0023)
)

type source struct {
	flags    []byte // Request bits; any set requests.
	enable   byte   // IE bit.
	priority byte   // IP bit.
	vector   uint16
	edge     byte // ITx bit for external sources, else 0.
}

// Sources in polling order.
var sources = []source{
	{[]byte{memory.BIT_IE0}, memory.BIT_EX0, memory.BIT_PX0, VECTOR_IE0, memory.BIT_IT0},
	{[]byte{memory.BIT_TF0}, memory.BIT_ET0, memory.BIT_PT0, VECTOR_TF0, 0},
	{[]byte{memory.BIT_IE1}, memory.BIT_EX1, memory.BIT_PX1, VECTOR_IE1, memory.BIT_IT1},
	{[]byte{memory.BIT_TF1}, memory.BIT_ET1, memory.BIT_PT1, VECTOR_TF1, 0},
	{[]byte{memory.BIT_RI, memory.BIT_TI}, memory.BIT_ES, memory.BIT_PS, VECTOR_SERIAL, 0},
}

var externals = [2]struct{ pin, trigger, request byte }{
	{memory.BIT_INT0, memory.BIT_IT0, memory.BIT_IE0},
	{memory.BIT_INT1, memory.BIT_IT1, memory.BIT_IE1},
}

// Interrupts is the two level interrupt controller.
type Interrupts struct {
	Active [2]bool // In-service flag of the low and high priority levels.
	IntPin [2]bool // Last sampled level of INT0 and INT1.
}

// InterruptsState is the saved form of Interrupts.
type InterruptsState struct {
	Active [2]bool `json:"active"`
	IntPin [2]bool `json:"int_pin"`
}

// NewInterrupts returns an idle controller.
func NewInterrupts() (it *Interrupts) {
	it = &Interrupts{}
	it.Reset()
	return
}

// Reset clears in-service levels.
func (it *Interrupts) Reset() {
	it.Active = [2]bool{}
	it.IntPin = [2]bool{true, true}
}

func (it *Interrupts) sample(mem *memory.Memory) {
	for n, ext := range externals {
		level := mem.ReadBit(ext.pin)
		if mem.ReadBit(ext.trigger) {
			if it.IntPin[n] && !level {
				mem.WriteBit(ext.request, memory.BitSet)
			}
		} else {
			mem.WriteBit(ext.request, memory.BitIf(!level))
		}
		it.IntPin[n] = level
	}
}

func pending(mem *memory.Memory, src source) bool {
	for _, flag := range src.flags {
		if mem.ReadBit(flag) {
			return true
		}
	}
	return false
}

// Run samples the external interrupt pins and selects an interrupt to
// service. If one is selected, its level becomes active and its vector is
// returned.
func (it *Interrupts) Run(mem *memory.Memory) (vector uint16, ok bool) {
	it.sample(mem)

	if !mem.ReadBit(memory.BIT_EA) || it.Active[1] {
		return
	}

	for level := 1; level >= 0; level-- {
		if level == 0 && it.Active[0] {
			break
		}
		for _, src := range sources {
			if !mem.ReadBit(src.enable) || !pending(mem, src) {
				continue
			}
			if mem.ReadBit(src.priority) != (level == 1) {
				continue
			}

			it.Active[level] = true

			// Hardware clears timer and edge triggered requests.
			switch {
			case src.edge == 0 && len(src.flags) == 1:
				mem.WriteBit(src.flags[0], memory.BitClear)
			case src.edge != 0 && mem.ReadBit(src.edge):
				mem.WriteBit(src.flags[0], memory.BitClear)
			}

			vector = src.vector
			ok = true
			return
		}
	}

	return
}

// ReturnFromISR releases the highest active level.
func (it *Interrupts) ReturnFromISR() {
	if it.Active[1] {
		it.Active[1] = false
	} else {
		it.Active[0] = false
	}
}

// Save returns the controller state.
func (it *Interrupts) Save() InterruptsState {
	return InterruptsState{Active: it.Active, IntPin: it.IntPin}
}

// Load restores the controller state.
func (it *Interrupts) Load(state InterruptsState) {
	it.Active = state.Active
	it.IntPin = state.IntPin
}
