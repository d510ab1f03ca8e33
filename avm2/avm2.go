// Package avm2 interprets ActionScript 3 bytecode: a class based object
// model with vtables and slots, a shared operand and scope stack, script
// domains, exception tables and the flash.events dispatch model.
package avm2

import (
	"errors"
	"unicode/utf16"

	"github.com/tliron/commonlog"

	"github.com/chazu/avm/host"
)

var (
	log      = commonlog.GetLogger("avm.avm2")
	traceLog = commonlog.GetLogger("avm.trace")
)

// DefaultMaxCallDepth bounds nested bytecode calls before a RangeError.
const DefaultMaxCallDepth = 256

// Avm2 is one ActionScript 3 virtual machine. Every activation shares its
// operand and scope stacks; each frame owns the part above its fences.
type Avm2 struct {
	stack      []Value
	scopeStack []Scope
	callStack  []CallNode

	classes *SystemClasses
	globals *ScriptObject
	domain  *Domain

	// broadcastList maps a broadcast event type to the display objects
	// that listen for it, in registration order.
	broadcastList map[string][]Object

	halted       bool
	maxCallDepth int
	traceOutput  func(string)
}

// New creates a VM with the built-in classes installed. A maxCallDepth of
// zero selects DefaultMaxCallDepth.
func New(maxCallDepth int) *Avm2 {
	if maxCallDepth <= 0 {
		maxCallDepth = DefaultMaxCallDepth
	}
	avm := &Avm2{
		domain:        NewDomain(),
		broadcastList: make(map[string][]Object),
		maxCallDepth:  maxCallDepth,
	}
	createGlobals(avm)
	return avm
}

func (avm *Avm2) Classes() *SystemClasses { return avm.classes }
func (avm *Avm2) Globals() Object         { return avm.globals }
func (avm *Avm2) Domain() *Domain         { return avm.domain }
func (avm *Avm2) Halted() bool            { return avm.halted }
func (avm *Avm2) MaxCallDepth() int       { return avm.maxCallDepth }

// SetTraceOutput routes trace() output to fn in addition to the trace
// logger.
func (avm *Avm2) SetTraceOutput(fn func(string)) {
	avm.traceOutput = fn
}

// Halt stops the VM. Every later entry point returns without running code.
func (avm *Avm2) Halt() {
	avm.halt("halted by host")
}

func (avm *Avm2) halt(reason string) {
	if avm.halted {
		return
	}
	avm.halted = true
	log.Errorf("avm2 halted: %s", reason)
}

func (avm *Avm2) trace(msg string) {
	traceLog.Info(msg)
	if avm.traceOutput != nil {
		avm.traceOutput(msg)
	}
}

// reportError handles an error that escaped to an entry point. Halting
// errors latch the VM, thrown values are reported like the player's
// uncaught exception dialog.
func (avm *Avm2) reportError(act *Activation, err error) {
	if IsHalting(err) {
		var h *HaltError
		errors.As(err, &h)
		avm.halt(h.Reason)
		return
	}
	if errors.Is(err, errHalted) {
		return
	}
	var tv *ThrownValue
	if errors.As(err, &tv) {
		msg, serr := tv.Value.ToString(act)
		if serr != nil {
			msg = tv.Value.String()
		}
		avm.trace("Uncaught " + msg)
		return
	}
	log.Errorf("Uncaught error: %s", err)
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// push appends v above the fence at depth. A method body with a declared
// maximum never grows past it; boxed primitives are unwrapped.
func (avm *Avm2) push(v Value, depth, max int) {
	if obj := v.AsObject(); obj != nil {
		if prim, ok := obj.AsPrimitive(); ok {
			v = prim
		}
	}
	if max > 0 && len(avm.stack)-depth >= max {
		log.Warningf("avm2 stack overflow, dropping %s", v)
		return
	}
	avm.stack = append(avm.stack, v)
}

// pop removes the top value above the fence at depth. Underflow yields
// Undefined.
func (avm *Avm2) pop(depth int) Value {
	n := len(avm.stack)
	if n <= depth {
		log.Warning("avm2 stack underflow")
		return Undefined
	}
	v := avm.stack[n-1]
	avm.stack[n-1] = Value{}
	avm.stack = avm.stack[:n-1]
	return v
}

func (avm *Avm2) truncateStack(n int) {
	if n < len(avm.stack) {
		clear(avm.stack[n:])
		avm.stack = avm.stack[:n]
	}
}

func (avm *Avm2) truncateScopes(n int) {
	if n < len(avm.scopeStack) {
		clear(avm.scopeStack[n:])
		avm.scopeStack = avm.scopeStack[:n]
	}
}

// StackLen returns the operand stack height.
func (avm *Avm2) StackLen() int { return len(avm.stack) }

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// RunStackFrameForCallable calls callable from the host with this and
// args. Script errors are reported and returned.
func (avm *Avm2) RunStackFrameForCallable(ctx *host.UpdateContext, callable Object, this Object, args []Value) (Value, error) {
	if avm.halted {
		return Undefined, errHalted
	}
	act := avm.rootActivation(ctx)
	v, err := callable.Call(act, this, args)
	if err != nil {
		avm.reportError(act, err)
		return Undefined, err
	}
	return v, nil
}

// RunWithActivation runs fn in a fresh root frame. Host code uses it to
// reach operations that need an activation.
func (avm *Avm2) RunWithActivation(ctx *host.UpdateContext, fn func(act *Activation) error) error {
	if avm.halted {
		return errHalted
	}
	act := avm.rootActivation(ctx)
	if err := fn(act); err != nil {
		avm.reportError(act, err)
		return err
	}
	return nil
}

// DispatchEvent sends eventObj to target through the capture, target and
// bubble phases. It returns whether a handler cancelled the event.
func (avm *Avm2) DispatchEvent(ctx *host.UpdateContext, eventObj Object, target Object) (bool, error) {
	if avm.halted {
		return false, errHalted
	}
	act := avm.rootActivation(ctx)
	cancelled, err := avm.dispatchEvent(act, eventObj, target)
	if err != nil {
		avm.reportError(act, err)
	}
	return cancelled, err
}

// BroadcastEvent delivers eventObj to every object registered for its
// type. When onType is set only instances of it receive the event. Each
// receiver sees the event as its own target.
func (avm *Avm2) BroadcastEvent(ctx *host.UpdateContext, eventObj Object, onType *ClassObject) error {
	if avm.halted {
		return errHalted
	}
	event := eventObj.AsEvent()
	if event == nil {
		return errors.New("avm2: broadcast of a non-event object")
	}
	for _, obj := range avm.BroadcastListeners(event.typ) {
		if onType != nil && !IsOfType(obj, onType) {
			continue
		}
		event.target = nil
		event.propagation = PropagationAllow
		if _, err := avm.DispatchEvent(ctx, eventObj, obj); err != nil && (IsHalting(err) || errors.Is(err, errHalted)) {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

// Strings index by UTF-16 code unit.

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func toUTF16(s string) []uint16 { return utf16.Encode([]rune(s)) }

func fromUTF16(u []uint16) string { return string(utf16.Decode(u)) }
