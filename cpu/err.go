package cpu

import (
	"errors"
	"strings"

	"github.com/ezrec/rcu51/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrEquateSyntax    = errors.New(f("equ syntax"))
	ErrEquateDuplicate = errors.New(f("equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOrgSyntax       = errors.New(f("org syntax"))
	ErrDataSyntax      = errors.New(f("data syntax"))
	ErrOperandCount    = errors.New(f("wrong number of operands"))
	ErrROMOverflow     = errors.New(f("program larger than ROM"))
	ErrOverlap         = errors.New(f("code overlaps earlier code"))
	ErrJumpPage        = errors.New(f("target outside 2K page"))
	ErrNoAssembler     = errors.New(f("core has no assembler"))
)

// ErrLabelMissing is a jump to an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrLabelUnused is a label no instruction refers to.
type ErrLabelUnused string

func (el ErrLabelUnused) Error() string {
	return f("label %v unused", string(el))
}

// ErrOpcodeUnknown is a mnemonic the core does not have.
type ErrOpcodeUnknown string

func (err ErrOpcodeUnknown) Error() string {
	return f("unknown mnemonic %v", string(err))
}

// ErrOperandInvalid is a mnemonic whose operands no candidate accepts.
type ErrOperandInvalid struct {
	Mnemonic string
	Operands []string
	Err      error
}

func (err ErrOperandInvalid) Error() string {
	return f("invalid operands '%v' for %v: %v", strings.Join(err.Operands, ", "), err.Mnemonic, err.Err)
}

func (err ErrOperandInvalid) Unwrap() error {
	return err.Err
}

// ErrJumpRange is a relative jump that does not fit in a signed byte.
type ErrJumpRange int

func (err ErrJumpRange) Error() string {
	return f("relative jump offset %d out of range", int(err))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRange string

func (err ErrParseRange) Error() string {
	return f("'%v' is out of range", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrAssembly summarizes a failed assembly.
type ErrAssembly struct {
	Errors   int
	Warnings int
}

func (err ErrAssembly) Error() string {
	return f("assembly failed: %d errors, %d warnings", err.Errors, err.Warnings)
}
