package periph

import (
	"github.com/ezrec/rcu51/memory"
)

var portAddr = [4]byte{memory.P0, memory.P1, memory.P2, memory.P3}

// Ports are the four 8-bit I/O ports.
//
// Input is the level driven onto the pins from outside. Output is the
// latch value last published by Run.
type Ports struct {
	Input  [4]byte
	Output [4]byte

	changed byte
}

var _ memory.Pins = (*Ports)(nil)

// PortsState is the saved form of Ports.
type PortsState struct {
	Input  [4]byte `json:"input"`
	Output [4]byte `json:"output"`
}

// NewPorts returns ports with every pin pulled high.
func NewPorts() (pt *Ports) {
	pt = &Ports{
		Input: [4]byte{0xFF, 0xFF, 0xFF, 0xFF},
	}
	pt.Reset()
	return
}

// Reset returns the outputs to their power-on level. Inputs are driven
// from outside the chip, and are kept.
func (pt *Ports) Reset() {
	pt.Output = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
	pt.changed = 0
}

// Pin returns the external level of a port.
func (pt *Ports) Pin(port int) byte {
	return pt.Input[port&3]
}

// SetInput drives the external level of a port.
func (pt *Ports) SetInput(port int, value byte) {
	pt.Input[port&3] = value
}

// Run publishes the port latches to Output, and returns true if any changed.
func (pt *Ports) Run(mem *memory.Memory) (changed bool) {
	for n, addr := range portAddr {
		latch := mem.ReadLatch(addr)
		if latch != pt.Output[n] {
			pt.Output[n] = latch
			pt.changed |= 1 << n
			changed = true
		}
	}
	return
}

// Changed returns the mask of ports whose output changed since the last call.
func (pt *Ports) Changed() (mask byte) {
	mask = pt.changed
	pt.changed = 0
	return
}

// Save returns the port state.
func (pt *Ports) Save() PortsState {
	return PortsState{Input: pt.Input, Output: pt.Output}
}

// Load restores the port state.
func (pt *Ports) Load(state PortsState) {
	pt.Input = state.Input
	pt.Output = state.Output
	pt.changed = 0
}
