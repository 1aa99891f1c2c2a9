package main

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/cpu/i8051"
	"github.com/ezrec/rcu51/emulator"
)

func newInterpreter(t *testing.T, source string) (ip *emulator.Interpreter) {
	t.Helper()

	col := &cpu.Collector{}
	code, err := i8051.Core.Assemble("test", strings.NewReader(source), col)
	require.NoError(t, err, col.Errors())

	ip = emulator.NewInterpreter(i8051.Core)
	require.NoError(t, ip.LoadCode(code))
	return
}

func runWithin(t *testing.T, ip *emulator.Interpreter, ticks int, input io.Reader) (err error) {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		done <- runSerial(ip, ticks, input)
	}()

	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	return
}

func TestRunSerialBlockedInput(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, "loop: INC A\n SJMP loop\n")

	// Input that never delivers a byte, like an idle terminal.
	pr, pw := io.Pipe()
	defer pw.Close()

	assert.NoError(runWithin(t, ip, 10, pr))
	assert.False(ip.IsRunning())
	assert.Equal(uint16(0x0000), ip.ProgramCounter())
}

func TestRunSerialInputError(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, "loop: SJMP loop\n")

	errRead := errors.New("read failed")
	pr, pw := io.Pipe()
	pw.CloseWithError(errRead)

	err := runWithin(t, ip, 1_000_000_000, pr)
	assert.ErrorIs(err, errRead)
}

func TestRunSerialNoInput(t *testing.T) {
	assert := assert.New(t)

	ip := newInterpreter(t, "loop: INC A\n SJMP loop\n")
	assert.NoError(runWithin(t, ip, 3, nil))
	assert.Equal(uint16(0x0001), ip.ProgramCounter())
}
