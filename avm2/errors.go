package avm2

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStackFrame is returned when an operation needs an activation
	// and none is running.
	ErrNoStackFrame = errors.New("avm2: no active stack frame")

	// errHalted is returned by entry points after the VM halted.
	errHalted = errors.New("avm2: halted")
)

// ThrownValue is a script-level exception. It unwinds to the nearest
// exception table entry whose range and type match.
type ThrownValue struct {
	Value Value
}

func (e *ThrownValue) Error() string {
	if obj := e.Value.AsObject(); obj != nil {
		if msg, ok := errorMessage(obj); ok {
			return "avm2: " + msg
		}
	}
	return fmt.Sprintf("avm2: uncaught thrown value %s", e.Value)
}

// HaltError stops all further execution in the VM.
type HaltError struct {
	Reason string
}

func (e *HaltError) Error() string {
	return "avm2: halted: " + e.Reason
}

// IsHalting reports whether err latches the VM into the halted state.
func IsHalting(err error) bool {
	var h *HaltError
	return errors.As(err, &h)
}

// ---------------------------------------------------------------------------
// Error objects
// ---------------------------------------------------------------------------

// newError constructs an instance of the named system error class whose
// message follows the player's "Error #NNNN: text" convention. When the
// class is missing the thrown value is the message string.
func newError(act *Activation, class func(*SystemClasses) *ClassObject, code int, message string) error {
	text := fmt.Sprintf("Error #%d: %s", code, message)
	if act == nil || act.avm.classes == nil {
		return &ThrownValue{Value: String(text)}
	}
	ctor := class(act.avm.classes)
	if ctor == nil {
		return &ThrownValue{Value: String(text)}
	}
	obj, err := ctor.Construct(act, []Value{String(text), Int(int32(code))})
	if err != nil {
		return err
	}
	return &ThrownValue{Value: ObjectValue(obj)}
}

// TypeError raises a catchable TypeError.
func TypeError(act *Activation, code int, message string) error {
	return newError(act, func(c *SystemClasses) *ClassObject { return c.TypeError }, code, message)
}

// ReferenceError raises a catchable ReferenceError.
func ReferenceError(act *Activation, code int, message string) error {
	return newError(act, func(c *SystemClasses) *ClassObject { return c.ReferenceError }, code, message)
}

// RangeError raises a catchable RangeError.
func RangeError(act *Activation, code int, message string) error {
	return newError(act, func(c *SystemClasses) *ClassObject { return c.RangeError }, code, message)
}

// ArgumentError raises a catchable ArgumentError.
func ArgumentError(act *Activation, code int, message string) error {
	return newError(act, func(c *SystemClasses) *ClassObject { return c.ArgumentError }, code, message)
}

// VerifyError raises a catchable VerifyError.
func VerifyError(act *Activation, code int, message string) error {
	return newError(act, func(c *SystemClasses) *ClassObject { return c.VerifyError }, code, message)
}

// outOfMemory raises Error #1000 for a request the VM refuses to allocate.
func outOfMemory(act *Activation) error {
	return newError(act, func(c *SystemClasses) *ClassObject { return c.Error }, 1000, "The system is out of memory.")
}

// ErrorID returns the errorID of a thrown Error object, or 0.
func ErrorID(err error) int {
	var tv *ThrownValue
	if !errors.As(err, &tv) {
		return 0
	}
	obj := tv.Value.AsObject()
	if obj == nil {
		return 0
	}
	p, ok := obj.Base().values.Get("errorID")
	if !ok {
		return 0
	}
	n, _ := p.value.AsNumber()
	return int(n)
}

func errorMessage(obj Object) (string, bool) {
	p, ok := obj.Base().values.Get("message")
	if !ok {
		return "", false
	}
	return p.value.AsString()
}
