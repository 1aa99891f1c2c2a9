package periph

import (
	"context"
	"errors"
	"io"

	"github.com/ezrec/rcu51/memory"
)

// SERIAL_QUEUE is the number of received bytes that may wait for SBUF.
const SERIAL_QUEUE = 64

// Serial is the UART behind SBUF, seen as a byte stream.
//
// A byte written to SBUF goes to Output on the next cycle, and sets TI.
// While REN is set and RI is clear, a waiting input byte is loaded into
// SBUF and sets RI.
type Serial struct {
	Output io.Writer // If nil, transmitted bytes are dropped.

	rx chan byte
}

// SerialState is the saved form of the transmit register.
type SerialState struct {
	Transmit byte `json:"transmit"`
	Pending  bool `json:"pending"`
}

// NewSerial returns a UART with an empty receive queue.
func NewSerial() (sp *Serial) {
	sp = &Serial{
		rx: make(chan byte, SERIAL_QUEUE),
	}
	return
}

// Send queues a byte for the receiver. It returns false if the queue is
// full.
func (sp *Serial) Send(value byte) bool {
	select {
	case sp.rx <- value:
		return true
	default:
		return false
	}
}

// Reset drops every byte still waiting for the receiver.
func (sp *Serial) Reset() {
	for {
		select {
		case <-sp.rx:
		default:
			return
		}
	}
}

// Feed copies input into the receive queue until input ends, or ctx is
// done. It blocks while the queue is full.
func (sp *Serial) Feed(ctx context.Context, input io.Reader) (err error) {
	var one [1]byte
	for {
		_, err = io.ReadFull(input, one[:])
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		select {
		case sp.rx <- one[0]:
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Run moves at most one byte each way.
func (sp *Serial) Run(mem *memory.Memory) (err error) {
	if mem.TransmitFull {
		mem.TransmitFull = false
		if sp.Output != nil {
			_, err = sp.Output.Write([]byte{mem.Transmit})
		}
		mem.WriteBit(memory.BIT_TI, memory.BitSet)
	}

	if mem.ReadBit(memory.BIT_REN) && !mem.ReadBit(memory.BIT_RI) {
		select {
		case value := <-sp.rx:
			mem.Receive(value)
			mem.WriteBit(memory.BIT_RI, memory.BitSet)
		default:
		}
	}

	return
}

// Save returns the transmit register state.
func (sp *Serial) Save(mem *memory.Memory) SerialState {
	return SerialState{Transmit: mem.Transmit, Pending: mem.TransmitFull}
}

// Load restores the transmit register state.
func (sp *Serial) Load(mem *memory.Memory, state SerialState) {
	mem.Transmit = state.Transmit
	mem.TransmitFull = state.Pending
}
