package i8051

import (
	"github.com/ezrec/rcu51/translate"
)

var f = translate.From

// ErrOperand is operand text that does not have the expected shape.
type ErrOperand struct {
	Want arg
	Text string
}

func (err ErrOperand) Error() string {
	return f("'%v' is not %v", err.Text, err.Want.String())
}

// ErrNotBitAddressable is a BYTE.n operand on a byte without bit addresses.
type ErrNotBitAddressable string

func (err ErrNotBitAddressable) Error() string {
	return f("'%v' is not bit addressable", string(err))
}
