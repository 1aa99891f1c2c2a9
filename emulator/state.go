package emulator

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/memory"
	"github.com/ezrec/rcu51/periph"
)

// State is a snapshot of the whole machine.
type State struct {
	Code           *cpu.Code              `json:"code"`
	RAM            []byte                 `json:"ram"`
	SFR            []byte                 `json:"sfr"`
	IO             periph.PortsState      `json:"io"`
	Serial         periph.SerialState     `json:"serial"`
	Timers         periph.TimersState     `json:"timers"`
	Interrupts     periph.InterruptsState `json:"interrupts"`
	ExternalRAM    []byte                 `json:"external_ram"`
	ProgramCounter uint16                 `json:"program_counter"`
	Paused         bool                   `json:"paused"`
}

// Save takes a snapshot of the machine.
func (ip *Interpreter) Save() (state *State) {
	ctx := ip.ctx
	ctx.Lock()
	defer ctx.Unlock()

	mem := ctx.Memory
	state = &State{
		Code:           ctx.Code.Clone(),
		RAM:            slices.Clone(mem.RAM),
		SFR:            slices.Clone(mem.SFR),
		IO:             ctx.Ports.Save(),
		Serial:         ctx.Serial.Save(mem),
		Timers:         ctx.Timers.Save(),
		Interrupts:     ctx.Interrupts.Save(),
		ExternalRAM:    slices.Clone(mem.External),
		ProgramCounter: ctx.PC,
		Paused:         ip.paused.Load(),
	}
	return
}

// Load restores a snapshot. Nothing is changed if the snapshot does not
// fit the layout of the core.
func (ip *Interpreter) Load(state *State) (err error) {
	ctx := ip.ctx
	ctx.Lock()
	defer ctx.Unlock()

	mem := ctx.Memory
	code := state.Code.Clone()

	switch {
	case len(code.ROM) > len(mem.ROM):
		err = memory.ErrImageSize
		return
	case len(state.RAM) != len(mem.RAM),
		len(state.SFR) != len(mem.SFR),
		len(state.ExternalRAM) != len(mem.External):
		err = memory.ErrSnapshotSize
		return
	}

	err = mem.LoadROM(code.ROM)
	if err != nil {
		return
	}
	err = mem.Restore(state.RAM, state.SFR, state.ExternalRAM)
	if err != nil {
		return
	}

	ctx.Code = code
	ctx.Ports.Load(state.IO)
	ctx.Serial.Load(mem, state.Serial)
	ctx.Timers.Load(state.Timers)
	ctx.Interrupts.Load(state.Interrupts)
	ctx.SetPC(int(state.ProgramCounter))
	ip.paused.Store(state.Paused)

	return
}

// Encode writes the snapshot as JSON.
func (state *State) Encode(w io.Writer) (err error) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err = enc.Encode(state)
	return
}

// DecodeState reads a JSON snapshot.
func DecodeState(r io.Reader) (state *State, err error) {
	state = &State{}
	err = json.NewDecoder(r).Decode(state)
	if err != nil {
		state = nil
	}
	return
}
