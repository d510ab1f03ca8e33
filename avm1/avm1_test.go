package avm1

import (
	"slices"
	"testing"

	"github.com/chazu/avm/host"
	"github.com/chazu/avm/swf"
)

// harness runs assembled code on the stage of a fresh context and records
// every trace.
type harness struct {
	t       *testing.T
	avm     *Avm1
	ctx     *host.UpdateContext
	version uint8
	traces  []string
}

func newHarness(t *testing.T, version uint8) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		avm:     New(32, DefaultLimits()),
		ctx:     host.New(version),
		version: version,
	}
	h.avm.SetTraceOutput(func(msg string) { h.traces = append(h.traces, msg) })
	return h
}

func (h *harness) run(w *swf.ActionWriter) {
	h.t.Helper()
	h.avm.RunStackFrameForAction(h.ctx, h.ctx.Stage, h.version, w.Slice(h.version))
}

// with runs fn inside an activation on the stage. A returned error fails
// the test.
func (h *harness) with(fn func(act *Activation)) {
	h.t.Helper()
	ran := false
	h.avm.RunWithStackFrameForDisplayObject(h.ctx, h.ctx.Stage, h.version, func(act *Activation) error {
		ran = true
		fn(act)
		return nil
	})
	if !ran {
		h.t.Fatal("activation did not run")
	}
}

func (h *harness) expectTraces(want ...string) {
	h.t.Helper()
	if !slices.Equal(h.traces, want) {
		h.t.Errorf("traces = %q, want %q", h.traces, want)
	}
}

// call pushes args in reverse, then the count and the function name.
func call(w *swf.ActionWriter, name string, args ...swf.PushValue) {
	for i := len(args) - 1; i >= 0; i-- {
		w.Push(args[i])
	}
	w.Push(swf.Int(int32(len(args))), swf.Str(name))
	w.Emit(swf.ActionCallFunction)
}

func TestNewVMHasGlobals(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		for _, name := range []string{"Object", "Array", "String", "Math", "Key", "Mouse", "Stage", "SharedObject", "ExternalInterface", "trace"} {
			if !HasProperty(act, h.avm.Globals(), name) {
				t.Errorf("global %s is missing", name)
			}
		}
	})
	if h.avm.Halted() {
		t.Error("new VM is halted")
	}
}

func TestStackUnderflowYieldsUndefined(t *testing.T) {
	avm := New(32, DefaultLimits())
	if v := avm.Pop(); !v.IsUndefined() {
		t.Errorf("Pop on empty stack = %v, want undefined", v.debugString())
	}
	avm.Push(Number(1))
	if avm.StackLen() != 1 {
		t.Errorf("StackLen = %d, want 1", avm.StackLen())
	}
}

func TestHaltStopsExecution(t *testing.T) {
	h := newHarness(t, 8)
	h.avm.Halt()
	w := swf.NewActionWriter()
	w.Push(swf.Str("never")).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces()
}

func TestHaltSkipsHostCalls(t *testing.T) {
	h := newHarness(t, 8)
	h.avm.Halt()
	ran := false
	h.avm.RunWithStackFrameForDisplayObject(h.ctx, h.ctx.Stage, h.version, func(act *Activation) error {
		ran = true
		return nil
	})
	if ran {
		t.Error("host function ran on a halted VM")
	}
}

func TestActionLimitHaltsVM(t *testing.T) {
	h := newHarness(t, 8)
	h.avm = New(32, Limits{MaxRecursionDepth: 16, MaxActions: 100})
	h.avm.SetTraceOutput(func(msg string) { h.traces = append(h.traces, msg) })

	w := swf.NewActionWriter()
	top := w.NewLabel()
	w.Mark(top)
	w.Jump(top)
	h.run(w)
	if !h.avm.Halted() {
		t.Fatal("infinite loop did not halt the VM")
	}

	w = swf.NewActionWriter()
	w.Push(swf.Str("after")).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces()
}

func TestRecursionLimitHaltsVM(t *testing.T) {
	h := newHarness(t, 8)
	h.avm = New(32, Limits{MaxRecursionDepth: 8})
	w := swf.NewActionWriter()
	w.DefineFunction("f", nil, func(b *swf.ActionWriter) {
		call(b, "f")
	})
	call(w, "f")
	h.run(w)
	if !h.avm.Halted() {
		t.Error("unbounded recursion did not halt the VM")
	}
}

func TestUncaughtThrowIsTraced(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str("boom")).Emit(swf.ActionThrow)
	w.Push(swf.Str("unreached")).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("boom")
	if h.avm.Halted() {
		t.Error("a thrown value halted the VM")
	}
}

// Init blocks run before frame blocks regardless of queue order.
func TestRunFrameActionsDrainsQueue(t *testing.T) {
	h := newHarness(t, 8)
	first := swf.NewActionWriter()
	first.Push(swf.Str("one")).Emit(swf.ActionTrace)
	second := swf.NewActionWriter()
	second.Push(swf.Str("two")).Emit(swf.ActionTrace)
	h.ctx.Queue.QueueActions(h.ctx.Stage, second.Slice(8))
	h.ctx.Queue.QueueInitActions(h.ctx.Stage, first.Slice(8))

	h.avm.RunFrameActions(h.ctx)
	h.expectTraces("one", "two")
}

func TestRunStackFrameForMethod(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.DefineFunction("onPing", []string{"msg"}, func(b *swf.ActionWriter) {
		b.Push(swf.Str("msg")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
		b.Push(swf.Str("boom")).Emit(swf.ActionThrow)
	})
	h.run(w)

	stage := h.avm.StageObject(h.ctx.Stage)
	h.avm.RunStackFrameForMethod(h.ctx, h.ctx.Stage, stage, 8, "onPing", []Value{String("pong")})
	h.avm.RunStackFrameForMethod(h.ctx, h.ctx.Stage, stage, 8, "missing", nil)
	h.expectTraces("pong")
	if h.avm.Halted() {
		t.Error("a discarded error halted the VM")
	}
}
