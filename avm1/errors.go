package avm1

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStackFrame is returned when an operation needs an active
	// activation and none is running.
	ErrNoStackFrame = errors.New("avm1: no active stack frame")

	// ErrPrototypeRecursion is returned when a prototype chain is deeper
	// than maxPrototypeDepth, which usually means it is cyclic.
	ErrPrototypeRecursion = errors.New("avm1: prototype recursion limit exceeded")
)

// ThrownValue is a script-level exception raised by the Throw action or by
// a native function. It unwinds to the nearest try block.
type ThrownValue struct {
	Value Value
}

func (e *ThrownValue) Error() string {
	return fmt.Sprintf("avm1: uncaught thrown value %s", e.Value.debugString())
}

// HaltError stops all further script execution in the VM.
type HaltError struct {
	Reason string
}

func (e *HaltError) Error() string {
	return "avm1: halted: " + e.Reason
}

// IsHalting reports whether err latches the VM into the halted state.
func IsHalting(err error) bool {
	var h *HaltError
	return errors.As(err, &h) || errors.Is(err, ErrPrototypeRecursion)
}

// throwError creates a ThrownValue carrying a new Error object.
func throwError(act *Activation, message string) error {
	ctor := act.avm.prototypes.ErrorConstructor
	obj, err := Construct(act, ctor, []Value{String(message)})
	if err != nil {
		return err
	}
	return &ThrownValue{Value: ObjectValue(obj)}
}
