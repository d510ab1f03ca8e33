package avm2

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/chazu/avm/host"
)

// harness runs hand assembled methods as free functions over the player
// globals and records every trace.
type harness struct {
	t      *testing.T
	avm    *Avm2
	ctx    *host.UpdateContext
	traces []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, avm: New(0), ctx: host.New(10)}
	h.avm.SetTraceOutput(func(msg string) { h.traces = append(h.traces, msg) })
	return h
}

// method builds a bytecode method taking params arguments.
func method(name string, params int, code ...Op) *Method {
	return &Method{
		Name:       name,
		ParamCount: params,
		Body:       &MethodBody{LocalCount: params + 1, Code: code},
	}
}

func (h *harness) function(m *Method) *FunctionObject {
	abc := &AbcFile{Methods: []*Method{m}}
	abc.link()
	return h.avm.newFunction(m, NewScopeChain(h.avm.globals), nil, nil)
}

func (h *harness) call(m *Method, args ...Value) (Value, error) {
	h.t.Helper()
	return h.avm.RunStackFrameForCallable(h.ctx, h.function(m), nil, args)
}

// with runs fn inside a root activation. A returned error fails the test.
func (h *harness) with(fn func(act *Activation)) {
	h.t.Helper()
	ran := false
	err := h.avm.RunWithActivation(h.ctx, func(act *Activation) error {
		ran = true
		fn(act)
		return nil
	})
	if err != nil || !ran {
		h.t.Fatalf("activation did not run: %v", err)
	}
}

func TestNewHasGlobals(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{
		"Object", "Function", "Class", "Array", "String", "Number", "int", "uint", "Boolean",
		"Error", "TypeError", "ReferenceError", "RangeError", "ArgumentError", "VerifyError",
		"Event", "flash.events.Event", "EventDispatcher", "DisplayObject", "flash.display.MovieClip",
		"trace", "isNaN", "parseInt", "NaN",
	} {
		if !HasProperty(h.avm.Globals(), name) {
			t.Errorf("global %s is missing", name)
		}
	}
	if h.avm.Halted() {
		t.Error("new VM is halted")
	}
}

func TestClassOfBuiltins(t *testing.T) {
	h := newHarness(t)
	c := h.avm.Classes()
	for _, cls := range []*ClassObject{c.Object, c.Class, c.Function} {
		if cls.Base().class != c.Class {
			t.Errorf("%s is not an instance of Class", cls.Name())
		}
	}
	if !c.TypeError.IsSubclassOf(c.Error) {
		t.Error("TypeError does not extend Error")
	}
	if !c.MovieClip.IsSubclassOf(c.EventDispatcher) {
		t.Error("MovieClip does not extend EventDispatcher")
	}
}

func TestArithmetic(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		code []Op
		want Value
	}{
		{"add", []Op{{Code: OpPushByte, Int: 2}, {Code: OpPushByte, Int: 3}, {Code: OpAdd}}, Number(5)},
		{"concat", []Op{{Code: OpPushString, Str: "a"}, {Code: OpPushInt, Int: 1}, {Code: OpAdd}}, String("a1")},
		{"subtract", []Op{{Code: OpPushByte, Int: 2}, {Code: OpPushByte, Int: 7}, {Code: OpSubtract}}, Number(-5)},
		{"modulo", []Op{{Code: OpPushByte, Int: 7}, {Code: OpPushByte, Int: 3}, {Code: OpModulo}}, Number(1)},
		{"urshift", []Op{{Code: OpPushInt, Int: -1}, {Code: OpPushByte, Int: 28}, {Code: OpURShift}}, Uint(15)},
		{"strict equals", []Op{{Code: OpPushByte, Int: 1}, {Code: OpPushString, Str: "1"}, {Code: OpStrictEquals}}, Bool(false)},
		{"equals", []Op{{Code: OpPushByte, Int: 1}, {Code: OpPushString, Str: "1"}, {Code: OpEquals}}, Bool(true)},
		{"typeof", []Op{{Code: OpPushNull}, {Code: OpTypeOf}}, String("object")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := append(slices.Clone(tt.code), Op{Code: OpReturnValue})
			got, err := h.call(method(tt.name, 0, code...))
			if err != nil {
				t.Fatal(err)
			}
			if !StrictEquals(got, tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLocalsAndBranches(t *testing.T) {
	h := newHarness(t)
	// sum = 0; for (i = arg; i > 0; i--) sum += i
	m := method("sum", 1,
		Op{Code: OpPushByte, Int: 0},
		Op{Code: OpSetLocal, Index: 2},
		Op{Code: OpGetLocal, Index: 1}, // 2: loop head
		Op{Code: OpPushByte, Int: 0},
		Op{Code: OpIfNGt, Index: 12},
		Op{Code: OpGetLocal, Index: 2},
		Op{Code: OpGetLocal, Index: 1},
		Op{Code: OpAdd},
		Op{Code: OpSetLocal, Index: 2},
		Op{Code: OpDecLocal, Index: 1},
		Op{Code: OpJump, Index: 2},
		Op{Code: OpNop},
		Op{Code: OpGetLocal, Index: 2}, // 12
		Op{Code: OpReturnValue},
	)
	m.Body.LocalCount = 3
	got, err := h.call(m, Int(4))
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := got.AsNumber(); n != 10 {
		t.Errorf("sum(4) = %s, want 10", got)
	}
	if h.avm.StackLen() != 0 {
		t.Errorf("stack height after return = %d", h.avm.StackLen())
	}
}

func TestTrace(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(method("main", 0,
		Op{Code: OpFindPropStrict, Str: "trace"},
		Op{Code: OpPushString, Str: "hello"},
		Op{Code: OpPushByte, Int: 3},
		Op{Code: OpCallPropVoid, Str: "trace", Uint: 2},
		Op{Code: OpReturnVoid},
	))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(h.traces, []string{"hello 3"}) {
		t.Errorf("traces = %q", h.traces)
	}
}

func TestUndefinedVariable(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(method("main", 0,
		Op{Code: OpGetLex, Str: "missing"},
		Op{Code: OpReturnValue},
	))
	if ErrorID(err) != 1065 {
		t.Fatalf("err = %v, want ReferenceError #1065", err)
	}
	if h.avm.Halted() {
		t.Error("a thrown error halted the VM")
	}
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

func TestThrowCaughtByUntypedHandler(t *testing.T) {
	h := newHarness(t)
	m := method("main", 0,
		Op{Code: OpPushString, Str: "boom"},
		Op{Code: OpThrow},
		Op{Code: OpReturnVoid},
		Op{Code: OpReturnValue},
	)
	m.Body.Exceptions = []Exception{{From: 0, To: 2, Target: 3}}
	got, err := h.call(m)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "boom" {
		t.Errorf("caught %s, want boom", got)
	}
}

func typedThrow(handlers ...Exception) *Method {
	m := method("main", 0,
		Op{Code: OpFindPropStrict, Str: "TypeError"},
		Op{Code: OpPushString, Str: "bad"},
		Op{Code: OpConstructProp, Str: "TypeError", Uint: 1},
		Op{Code: OpThrow},
		Op{Code: OpReturnVoid},
		Op{Code: OpGetProperty, Str: "message"},
		Op{Code: OpReturnValue},
	)
	m.Body.Exceptions = handlers
	return m
}

func TestThrowCaughtByType(t *testing.T) {
	h := newHarness(t)
	got, err := h.call(typedThrow(
		Exception{From: 0, To: 4, Target: 5, TypeName: "RangeError"},
		Exception{From: 0, To: 4, Target: 5, TypeName: "Error"},
	))
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "bad" {
		t.Errorf("caught message %s, want bad", got)
	}
}

func TestThrowUnmatchedType(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(typedThrow(Exception{From: 0, To: 4, Target: 5, TypeName: "RangeError"}))
	var tv *ThrownValue
	if !errors.As(err, &tv) {
		t.Fatalf("err = %v, want a thrown value", err)
	}
	if !IsOfType(tv.Value.AsObject(), h.avm.Classes().TypeError) {
		t.Errorf("thrown %s, want a TypeError", tv.Value)
	}
	if h.avm.StackLen() != 0 {
		t.Errorf("stack height after unwind = %d", h.avm.StackLen())
	}
}

func TestRuntimeErrorCaught(t *testing.T) {
	h := newHarness(t)
	m := method("main", 0,
		Op{Code: OpPushNull},
		Op{Code: OpGetProperty, Str: "x"},
		Op{Code: OpReturnValue},
		Op{Code: OpGetProperty, Str: "errorID"},
		Op{Code: OpReturnValue},
	)
	m.Body.Exceptions = []Exception{{From: 0, To: 3, Target: 3, TypeName: "TypeError"}}
	got, err := h.call(m)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := got.AsNumber(); n != 1009 {
		t.Errorf("errorID = %s, want 1009", got)
	}
}

func TestStackOverflow(t *testing.T) {
	h := newHarness(t)
	h.avm = New(16)
	m := method("recurse", 0,
		Op{Code: OpGetLocal, Index: 0},
		Op{Code: OpCallProperty, Str: "recurse", Uint: 0},
		Op{Code: OpReturnValue},
	)
	fn := h.function(m)
	h.avm.globals.DefineValue("recurse", ObjectValue(fn), 0)
	_, err := h.avm.RunStackFrameForCallable(h.ctx, fn, nil, nil)
	if ErrorID(err) != 1023 {
		t.Fatalf("err = %v, want RangeError #1023", err)
	}
	if d := h.avm.CallDepth(); d != 0 {
		t.Errorf("call depth after unwind = %d", d)
	}
	if h.avm.StackLen() != 0 {
		t.Errorf("stack height after unwind = %d", h.avm.StackLen())
	}
	if h.avm.Halted() {
		t.Error("stack overflow halted the VM")
	}
}

func TestHalt(t *testing.T) {
	h := newHarness(t)
	_, err := h.call(method("main", 0, Op{Code: Opcode(0xFF)}))
	if !IsHalting(err) {
		t.Fatalf("err = %v, want a halt", err)
	}
	if !h.avm.Halted() {
		t.Fatal("VM did not halt")
	}
	_, err = h.call(method("after", 0, Op{Code: OpPushByte, Int: 1}, Op{Code: OpReturnValue}))
	if !errors.Is(err, errHalted) {
		t.Errorf("call after halt = %v", err)
	}
	if _, err := h.avm.DispatchEvent(h.ctx, h.avm.NewEventObject("x", false, false), NewScriptObject(nil, nil)); !errors.Is(err, errHalted) {
		t.Errorf("dispatch after halt = %v", err)
	}
}

func TestOperandStackLimit(t *testing.T) {
	h := newHarness(t)
	m := method("main", 0,
		Op{Code: OpPushByte, Int: 1},
		Op{Code: OpPushByte, Int: 2},
		Op{Code: OpReturnValue},
	)
	m.Body.MaxStack = 1
	got, err := h.call(m)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := got.AsNumber(); n != 1 {
		t.Errorf("got %s, want the value pushed within the limit", got)
	}
}

func TestForIn(t *testing.T) {
	h := newHarness(t)
	// for (k in {a: 1, b: 2}) s += k
	m := method("main", 0,
		Op{Code: OpPushString, Str: "a"},
		Op{Code: OpPushByte, Int: 1},
		Op{Code: OpPushString, Str: "b"},
		Op{Code: OpPushByte, Int: 2},
		Op{Code: OpNewObject, Uint: 2},
		Op{Code: OpSetLocal, Index: 1},
		Op{Code: OpPushByte, Int: 0},
		Op{Code: OpSetLocal, Index: 2},
		Op{Code: OpPushString, Str: ""},
		Op{Code: OpSetLocal, Index: 3},
		Op{Code: OpHasNext2, Index: 1, Uint: 2}, // 10
		Op{Code: OpIfFalse, Index: 19},
		Op{Code: OpGetLocal, Index: 3},
		Op{Code: OpGetLocal, Index: 1},
		Op{Code: OpGetLocal, Index: 2},
		Op{Code: OpNextName},
		Op{Code: OpAdd},
		Op{Code: OpSetLocal, Index: 3},
		Op{Code: OpJump, Index: 10},
		Op{Code: OpGetLocal, Index: 3}, // 19
		Op{Code: OpReturnValue},
	)
	m.Body.LocalCount = 4
	got, err := h.call(m)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "ab" {
		t.Errorf("enumerated %s, want ab", got)
	}
}

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{-3, "-3"},
		{1e21, "1e+21"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
