package cpu

import (
	"maps"
	"slices"
)

// Code is an assembled program.
type Code struct {
	Name   string            `json:"name"`
	ROM    []byte            `json:"rom"`
	Labels map[uint16]string `json:"labels,omitempty"` // Address to label name.
}

// EmptyCode is the program of a failed assembly, or of an unloaded core.
// It is shared, and must not be modified; Clone it first.
var EmptyCode = &Code{}

// IsEmpty returns true if the code has no ROM image.
func (code *Code) IsEmpty() bool {
	return code == nil || len(code.ROM) == 0
}

// Clone returns a deep copy of the code. A nil code clones to a new
// empty one.
func (code *Code) Clone() *Code {
	if code == nil {
		return &Code{}
	}

	return &Code{
		Name:   code.Name,
		ROM:    slices.Clone(code.ROM),
		Labels: maps.Clone(code.Labels),
	}
}
