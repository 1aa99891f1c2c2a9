package emulator

import (
	"github.com/ezrec/rcu51/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	PC    uint16
	Where string
	Err   error
}

func (err *ErrRuntime) Error() string {
	return f("%04x (%v) %v", err.PC, err.Where, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
