package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/cpu/i8051"
	"github.com/ezrec/rcu51/memory"
)

func newInterpreter(t *testing.T, source string) (ip *Interpreter) {
	t.Helper()

	col := &cpu.Collector{}
	code, err := i8051.Core.Assemble("test", strings.NewReader(source), col)
	require.NoError(t, err, col.Errors())

	ip = NewInterpreter(i8051.Core)
	require.NoError(t, ip.LoadCode(code))
	return
}

func runFor(t *testing.T, ip *Interpreter, cycles int) {
	t.Helper()

	for range cycles {
		require.NoError(t, ip.Run())
	}
}

func TestInterpreterScheduling(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, `
loop:   INC A
        SJMP loop
`)

	ran, err := ip.Tick()
	assert.NoError(err)
	assert.False(ran)
	assert.False(ip.IsRunning())

	ip.Startup()
	assert.True(ip.IsRunning())
	ran, _ = ip.Tick()
	assert.True(ran)
	assert.Equal(uint16(0x0001), ip.ProgramCounter())

	ip.Pause()
	assert.True(ip.IsPaused())
	ran, _ = ip.Tick()
	assert.False(ran)
	assert.Equal(uint16(0x0001), ip.ProgramCounter())

	ip.Step()
	ran, _ = ip.Tick()
	assert.True(ran)
	assert.Equal(uint16(0x0000), ip.ProgramCounter())
	ran, _ = ip.Tick()
	assert.False(ran)

	ip.Resume()
	assert.False(ip.IsPaused())
	ran, _ = ip.Tick()
	assert.True(ran)
	assert.Equal(byte(2), ip.SFR()[memory.ACC-0x80])

	ip.Shutdown()
	ran, _ = ip.Tick()
	assert.False(ran)
}

func TestInterpreterLoadCode(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, "MOV 0x30, #1\nMOVX @DPTR, A\n")
	runFor(t, ip, 2)
	assert.Equal(byte(1), ip.RAM()[0x30])

	err := ip.LoadCode(&cpu.Code{ROM: make([]byte, 0x1001)})
	assert.ErrorIs(err, memory.ErrImageSize)

	code := &cpu.Code{Name: "two", ROM: []byte{0x04}}
	assert.NoError(ip.LoadCode(code))
	assert.Same(code, ip.Code())
	assert.Equal(byte(0), ip.RAM()[0x30])
	assert.Equal(uint16(0), ip.ProgramCounter())
	assert.Equal(byte(0x07), ip.SFR()[memory.SP-0x80])
	assert.Equal(byte(0xFF), ip.SFR()[memory.P1-0x80])

	ip.SetPortInput(1, 0x0F)
	assert.Equal(byte(0x0F), ip.Ports().Input[1])

	runFor(t, ip, 1)
	ip.Reset()
	assert.Equal(uint16(0), ip.ProgramCounter())
	assert.Equal(byte(0x04), ip.Context().Memory.ROM[0])
}

func TestInterpreterInterrupt(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, `
        LJMP main
        ORG 0x000B
        INC R7
        RETI
main:   MOV TMOD, #0x02
        MOV TH0, #0xFE
        MOV TL0, #0xFE
        SETB ET0
        SETB EA
        SETB TR0
loop:   SJMP loop
`)

	entered := false
	for range 100 {
		require.NoError(t, ip.Run())
		if ip.RAM()[7] == 1 {
			entered = true
			break
		}
	}
	require.True(t, entered)
	assert.Equal(uint16(0x000C), ip.ProgramCounter())
	assert.Equal(byte(0x09), ip.SFR()[memory.SP-0x80])
	assert.True(ip.Context().Interrupts.Active[0])

	runFor(t, ip, 1)
	assert.Equal(uint16(0x001C), ip.ProgramCounter())
	assert.Equal(byte(0x07), ip.SFR()[memory.SP-0x80])
	assert.False(ip.Context().Interrupts.Active[0])
	assert.Equal(byte(0xFE), ip.SFR()[memory.TH0-0x80])

	runFor(t, ip, 20)
	assert.Less(byte(3), ip.RAM()[7])
}

func TestInterpreterSerial(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, `
        MOV SBUF, #'H'
w1:     JNB TI, w1
        CLR TI
        MOV SBUF, #'i'
w2:     JNB TI, w2
        CLR TI
        SETB REN
w3:     JNB RI, w3
        MOV A, SBUF
        CLR RI
done:   SJMP done
`)
	out := &bytes.Buffer{}
	ip.Serial().Output = out
	assert.True(ip.Serial().Send('z'))

	runFor(t, ip, 50)
	assert.Equal("Hi", out.String())
	assert.Equal(byte('z'), ip.SFR()[memory.ACC-0x80])
}

func TestInterpreterLoadCodeDropsInput(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, "done: SJMP done\n")
	assert.True(ip.Serial().Send('x'))

	col := &cpu.Collector{}
	code, err := i8051.Core.Assemble("rx", strings.NewReader(`
        SETB REN
done:   SJMP done
`), col)
	require.NoError(t, err, col.Errors())
	require.NoError(t, ip.LoadCode(code))

	runFor(t, ip, 4)
	assert.False(ReadGuarded(ip, func(ctx *cpu.Context) bool {
		return ctx.Memory.ReadBit(memory.BIT_RI)
	}))
	assert.Equal(byte(0), ip.SFR()[memory.SBUF-0x80])
}

type failWriter struct{}

var errWrite = errors.New("write failed")

func (failWriter) Write(data []byte) (int, error) {
	return 0, errWrite
}

func TestInterpreterRuntimeError(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, `
        MOV SBUF, #1
loop:   SJMP loop
`)
	ip.Serial().Output = failWriter{}

	assert.NoError(ip.Run())
	err := ip.Run()
	assert.ErrorIs(err, errWrite)

	var rt *ErrRuntime
	if assert.ErrorAs(err, &rt) {
		assert.Equal(uint16(0x0003), rt.PC)
		assert.Equal("loop", rt.Where)
	}

	// The instruction still ran.
	assert.Equal(uint16(0x0003), ip.ProgramCounter())
}

func TestInterpreterSaveLoad(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, `
        MOV DPTR, #0x0100
        MOV A, #0x42
        MOVX @DPTR, A
        MOV P1, #0x0F
        MOV 0x40, #0x99
loop:   SJMP loop
`)
	runFor(t, ip, 6)
	ip.Pause()

	state := ip.Save()
	assert.True(state.Paused)
	assert.Equal(uint16(0x000C), state.ProgramCounter)

	blob := &bytes.Buffer{}
	require.NoError(t, state.Encode(blob))
	assert.Contains(blob.String(), `"external_ram"`)
	assert.Contains(blob.String(), `"program_counter": 12`)

	decoded, err := DecodeState(blob)
	require.NoError(t, err)

	other := NewInterpreter(i8051.Core)
	require.NoError(t, other.Load(decoded))

	assert.Equal(ip.RAM(), other.RAM())
	assert.Equal(ip.SFR(), other.SFR())
	assert.Equal(ip.ExternalRAM(), other.ExternalRAM())
	assert.Equal(ip.ProgramCounter(), other.ProgramCounter())
	assert.Equal(ip.Ports(), other.Ports())
	assert.Equal(ip.Code().ROM, other.Code().ROM)
	assert.Equal(ip.Code().Labels, other.Code().Labels)
	assert.True(other.IsPaused())

	// The loaded code is a copy of the snapshot's.
	assert.NotSame(decoded.Code, other.Code())
	decoded.Code.ROM[0] = 0xFF
	assert.NotEqual(byte(0xFF), other.Code().ROM[0])
	assert.Equal(byte(0x42), other.ExternalRAM()[0x0100])
	assert.Equal(byte(0x0F), other.Ports().Output[1])

	runFor(t, other, 1)
	assert.Equal(uint16(0x000C), other.ProgramCounter())

	_, err = DecodeState(strings.NewReader("{"))
	assert.Error(err)
}

func TestInterpreterLoadMismatch(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, "INC A\n")
	runFor(t, ip, 1)
	before := ip.Save()

	state := ip.Save()
	state.RAM = state.RAM[:0x10]
	state.SFR[memory.ACC-0x80] = 0x55
	assert.ErrorIs(ip.Load(state), memory.ErrSnapshotSize)

	state = ip.Save()
	state.Code = &cpu.Code{ROM: make([]byte, 0x2000)}
	assert.ErrorIs(ip.Load(state), memory.ErrImageSize)

	assert.Equal(before, ip.Save())

	state = ip.Save()
	state.Code = nil
	assert.NoError(ip.Load(state))
	assert.True(ip.Code().IsEmpty())
}

func TestInterpreterConcurrent(t *testing.T) {
	ip := newInterpreter(t, `
loop:   INC DPTR
        SJMP loop
`)

	const cycles = 2000

	var g errgroup.Group
	g.Go(func() error {
		for range cycles {
			if err := ip.Run(); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		last := uint16(0)
		for range cycles {
			snap := ReadGuarded(ip, func(ctx *cpu.Context) [2]uint16 {
				return [2]uint16{ctx.PC, ctx.Memory.DPTR()}
			})
			pc, dptr := snap[0], snap[1]
			if pc != 0x0000 && pc != 0x0001 {
				return errors.New("program counter inside an instruction")
			}
			if dptr < last {
				return errors.New("data pointer went backwards")
			}
			last = dptr
		}
		return nil
	})
	g.Go(func() error {
		for n := range cycles {
			WriteGuarded(ip, byte(n), func(ctx *cpu.Context, value byte) {
				ctx.Memory.WriteByte(0x30, value)
			})
		}
		return nil
	})

	assert.NoError(t, g.Wait())

	dptr := ReadGuarded(ip, func(ctx *cpu.Context) uint16 {
		return ctx.Memory.DPTR()
	})
	assert.Equal(t, uint16(cycles/2), dptr)
	assert.Equal(t, byte((cycles - 1) % 256), ip.RAM()[0x30])
}
