package avm2

import (
	"slices"
	"strings"
)

// CallNode is one frame of the call stack: a method call or the
// initializer of a script.
type CallNode struct {
	Method     *Method
	GlobalInit *Script
}

func (n CallNode) String() string {
	if n.GlobalInit != nil {
		return "global$init()"
	}
	return n.Method.String() + "()"
}

// PushCall records entry into m.
func (avm *Avm2) PushCall(m *Method) {
	avm.callStack = append(avm.callStack, CallNode{Method: m})
}

// PushGlobalInit records entry into the initializer of s.
func (avm *Avm2) PushGlobalInit(s *Script) {
	avm.callStack = append(avm.callStack, CallNode{GlobalInit: s})
}

// PopCall removes the innermost frame.
func (avm *Avm2) PopCall() {
	if n := len(avm.callStack); n > 0 {
		avm.callStack[n-1] = CallNode{}
		avm.callStack = avm.callStack[:n-1]
	}
}

// CallStack returns a snapshot of the frames, outermost first.
func (avm *Avm2) CallStack() []CallNode {
	return slices.Clone(avm.callStack)
}

// CallDepth returns the number of frames.
func (avm *Avm2) CallDepth() int {
	return len(avm.callStack)
}

// StackTrace renders the call stack innermost first, one "at" line per
// frame.
func (avm *Avm2) StackTrace() string {
	var sb strings.Builder
	for i := len(avm.callStack) - 1; i >= 0; i-- {
		sb.WriteString("\tat ")
		sb.WriteString(avm.callStack[i].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// callMethod runs m with the given closure state. Native methods run
// directly; bytecode methods get a fresh activation.
func (avm *Avm2) callMethod(act *Activation, m *Method, scope ScopeChain, this Object, args []Value, class *ClassObject) (Value, error) {
	if avm.halted {
		return Undefined, errHalted
	}
	if m.Native != nil {
		avm.PushCall(m)
		defer avm.PopCall()
		return m.Native(act, this, args)
	}
	if m.Body == nil {
		return Undefined, &HaltError{Reason: "method " + m.String() + " has no body"}
	}
	if len(avm.callStack) >= avm.maxCallDepth {
		return Undefined, RangeError(act, 1023, "Stack overflow occurred.")
	}
	avm.PushCall(m)
	defer avm.PopCall()
	return act.child(m, scope, this, args, class).run()
}
