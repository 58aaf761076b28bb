package compiler

import "fmt"

// State is the phase of a Compiler.
type State uint8

const (
	// Idle compilers accept a new Compile call.
	Idle State = iota
	// Transforming turns definitions into entries.
	Transforming
	// Assembling renders entries into source.
	Assembling
	// Emitted holds a finished result until Compile returns.
	Emitted
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Transforming:
		return "Transforming"
	case Assembling:
		return "Assembling"
	case Emitted:
		return "Emitted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}
