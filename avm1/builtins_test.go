package avm1

import (
	"math"
	"testing"

	"github.com/chazu/avm/backend"
)

func mustCall(t *testing.T, act *Activation, obj Object, name string, args ...Value) Value {
	t.Helper()
	v, err := CallMethod(act, obj, name, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func mustString(t *testing.T, act *Activation, v Value) string {
	t.Helper()
	s, err := v.ToString(act)
	if err != nil {
		t.Fatalf("ToString: %v", err)
	}
	return s
}

func global(t *testing.T, act *Activation, name string) Object {
	t.Helper()
	v, err := Get(act, act.Globals(), name)
	if err != nil || v.AsObject() == nil {
		t.Fatalf("global %s: %v, %v", name, v.debugString(), err)
	}
	return v.AsObject()
}

func numbers(ns ...float64) []Value {
	out := make([]Value, len(ns))
	for i, n := range ns {
		out[i] = Number(n)
	}
	return out
}

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

func TestArrayMethods(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		arr := NewArray(act, numbers(1, 2, 3))

		if n := mustCall(t, act, arr, "push", Number(4), Number(5)); n.n != 5 {
			t.Errorf("push returned %v, want 5", n.debugString())
		}
		if v := mustCall(t, act, arr, "pop"); v.n != 5 {
			t.Errorf("pop = %v, want 5", v.debugString())
		}
		if v := mustCall(t, act, arr, "shift"); v.n != 1 {
			t.Errorf("shift = %v, want 1", v.debugString())
		}
		mustCall(t, act, arr, "unshift", Number(0))
		if s := mustString(t, act, ObjectValue(arr)); s != "0,2,3,4" {
			t.Errorf("after unshift = %q", s)
		}

		removed := mustCall(t, act, arr, "splice", Number(1), Number(2), String("x"))
		if s := mustString(t, act, removed); s != "2,3" {
			t.Errorf("splice removed %q, want 2,3", s)
		}
		if s := mustString(t, act, ObjectValue(arr)); s != "0,x,4" {
			t.Errorf("after splice = %q", s)
		}

		sliced := mustCall(t, act, arr, "slice", Number(-2))
		if s := mustString(t, act, sliced); s != "x,4" {
			t.Errorf("slice(-2) = %q", s)
		}
		joined := mustCall(t, act, arr, "concat", ObjectValue(NewArray(act, numbers(7))), Number(8))
		if s := mustString(t, act, mustCall(t, act, joined.AsObject(), "join", String("|"))); s != "0|x|4|7|8" {
			t.Errorf("concat = %q", s)
		}
		mustCall(t, act, arr, "reverse")
		if s := mustString(t, act, ObjectValue(arr)); s != "4,x,0" {
			t.Errorf("reverse = %q", s)
		}
	})
}

func TestArrayLengthRules(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		arr := NewArray(act, numbers(1, 2, 3))
		if err := Set(act, arr, "10", String("far")); err != nil {
			t.Fatal(err)
		}
		if n, _ := arr.Length(act); n != 11 {
			t.Errorf("length after writing index 10 = %d, want 11", n)
		}
		if err := Set(act, arr, "length", Number(2)); err != nil {
			t.Fatal(err)
		}
		if arr.HasElement(act, 2) || arr.HasElement(act, 10) {
			t.Error("shrinking length left elements behind")
		}
		if arr.Delete(act, "length") {
			t.Error("length was deletable")
		}
	})
}

func TestArrayLengthStaysInRange(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		arr := NewArray(act, numbers(1))
		if err := Set(act, arr, "2147483647", Number(1)); err != nil {
			t.Fatal(err)
		}
		if n, _ := arr.Length(act); n != 1 {
			t.Errorf("length after a[2147483647] = %d, want 1", n)
		}
		if err := Set(act, arr, "2147483646", Number(2)); err != nil {
			t.Fatal(err)
		}
		if n, _ := arr.Length(act); n != math.MaxInt32 {
			t.Errorf("length after a[2147483646] = %d, want %d", n, math.MaxInt32)
		}
		if n := mustCall(t, act, arr, "push", Number(3)); n.n != math.MaxInt32 {
			t.Errorf("push at the largest length returned %v", n.debugString())
		}
		if s := mustString(t, act, mustCall(t, act, arr, "join", String("|"))); s != "1|2" {
			t.Errorf("join of a huge array = %q, want stored elements only", s)
		}
	})
}

func TestArrayHugeLengthJoin(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		arr := NewArray(act, numbers(1, 2))
		if err := Set(act, arr, "length", Number(math.MaxInt32)); err != nil {
			t.Fatal(err)
		}
		if s := mustString(t, act, mustCall(t, act, arr, "join")); s != "1,2" {
			t.Errorf("join = %q", s)
		}
		sliced := mustCall(t, act, arr, "slice", Number(1))
		if s := mustString(t, act, sliced); s != "2" {
			t.Errorf("slice = %q", s)
		}
	})
}

func TestArrayLengthFoldsCaseInOldFiles(t *testing.T) {
	h := newHarness(t, 6)
	h.with(func(act *Activation) {
		arr := NewArray(act, numbers(1, 2, 3))
		if err := Set(act, arr, "LENGTH", Number(0)); err != nil {
			t.Fatal(err)
		}
		if n, _ := arr.Length(act); n != 0 {
			t.Errorf("length = %d, want 0", n)
		}
		if arr.HasElement(act, 0) {
			t.Error("a[0] survived LENGTH = 0")
		}
		if arr.Delete(act, "Length") {
			t.Error("Length was deletable")
		}
	})
}

func TestArraySort(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		arr := NewArray(act, numbers(10, 9, 100, 1))
		mustCall(t, act, arr, "sort")
		if s := mustString(t, act, ObjectValue(arr)); s != "1,10,100,9" {
			t.Errorf("default sort = %q, want string order", s)
		}
		mustCall(t, act, arr, "sort", Number(sortNumeric|sortDescending))
		if s := mustString(t, act, ObjectValue(arr)); s != "100,10,9,1" {
			t.Errorf("numeric descending = %q", s)
		}

		indices := mustCall(t, act, NewArray(act, numbers(3, 1, 2)), "sort", Number(sortNumeric|sortReturnIndexedArray))
		if s := mustString(t, act, indices); s != "1,2,0" {
			t.Errorf("indexed sort = %q", s)
		}
		dup := NewArray(act, numbers(2, 1, 2))
		if v := mustCall(t, act, dup, "sort", Number(sortNumeric|sortUniqueSort)); v.kind != KindNumber || v.n != 0 {
			t.Errorf("unique sort with duplicates = %v, want 0", v.debugString())
		}
		if s := mustString(t, act, ObjectValue(dup)); s != "2,1,2" {
			t.Errorf("unique sort modified the array: %q", s)
		}

		byLength := NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			a, _ := args[0].ToString(act)
			b, _ := args[1].ToString(act)
			return Number(float64(len(a) - len(b))), nil
		})
		words := NewArray(act, []Value{String("ccc"), String("a"), String("bb")})
		fn := NewFunctionObject(byLength, act.Prototypes().Function, nil)
		mustCall(t, act, words, "sort", ObjectValue(fn))
		if s := mustString(t, act, ObjectValue(words)); s != "a,bb,ccc" {
			t.Errorf("sort with compare function = %q", s)
		}
	})
}

// ---------------------------------------------------------------------------
// String, Number, Boolean
// ---------------------------------------------------------------------------

func TestStringMethods(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		s := String("Hello, World").ToObject(act)
		tests := []struct {
			method string
			args   []Value
			want   string
		}{
			{"charAt", numbers(4), "o"},
			{"charCodeAt", numbers(0), "72"},
			{"indexOf", []Value{String("o")}, "4"},
			{"indexOf", []Value{String("o"), Number(5)}, "8"},
			{"lastIndexOf", []Value{String("o")}, "8"},
			{"substr", numbers(7, 3), "Wor"},
			{"substr", numbers(-5), "World"},
			{"substring", numbers(5, 0), "Hello"},
			{"slice", numbers(-5, -1), "Worl"},
			{"toUpperCase", nil, "HELLO, WORLD"},
			{"toLowerCase", nil, "hello, world"},
			{"concat", []Value{String("!"), Number(1)}, "Hello, World!1"},
		}
		for _, tt := range tests {
			if got := mustString(t, act, mustCall(t, act, s, tt.method, tt.args...)); got != tt.want {
				t.Errorf("%s(%v) = %q, want %q", tt.method, tt.args, got, tt.want)
			}
		}

		parts := mustCall(t, act, s, "split", String(", "))
		if n, _ := parts.AsObject().Length(act); n != 2 {
			t.Errorf("split produced %d parts, want 2", n)
		}
		length, _ := Get(act, s, "length")
		if length.n != 12 {
			t.Errorf("length = %v, want 12", length.debugString())
		}

		fromCharCode := mustCall(t, act, global(t, act, "String"), "fromCharCode", numbers(104, 105)...)
		if got := mustString(t, act, fromCharCode); got != "hi" {
			t.Errorf("fromCharCode = %q", got)
		}
	})
}

func TestStringLengthCountsUTF16Units(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		s := String("a😀").ToObject(act)
		length, _ := Get(act, s, "length")
		if length.n != 3 {
			t.Errorf("length = %v, want 3", length.debugString())
		}
	})
}

func TestNumberToStringRadix(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		n := Number(255).ToObject(act)
		if got := mustString(t, act, mustCall(t, act, n, "toString", Number(16))); got != "ff" {
			t.Errorf("toString(16) = %q", got)
		}
		if got := mustString(t, act, mustCall(t, act, n, "toString")); got != "255" {
			t.Errorf("toString() = %q", got)
		}
	})
}

func TestBoxedConstructors(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		obj, err := Construct(act, global(t, act, "Number"), []Value{String("42")})
		if err != nil {
			t.Fatal(err)
		}
		if n, _ := ObjectValue(obj).ToNumber(act); n != 42 {
			t.Errorf("new Number(\"42\") = %v", n)
		}
		if typ := ObjectValue(obj).TypeOf(); typ != "object" {
			t.Errorf("typeof new Number = %q", typ)
		}
		b, err := global(t, act, "Boolean").Call(act, nil, nil, []Value{String("x")})
		if err != nil || !StrictEquals(b, Bool(true)) {
			t.Errorf("Boolean(\"x\") = %v, %v", b.debugString(), err)
		}
	})
}

// ---------------------------------------------------------------------------
// Math, Date, Error, XML
// ---------------------------------------------------------------------------

func TestMath(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		m := global(t, act, "Math")
		tests := []struct {
			method string
			args   []Value
			want   float64
		}{
			{"abs", numbers(-3), 3},
			{"round", numbers(2.5), 3},
			{"round", numbers(-2.5), -2},
			{"max", numbers(1, 9), 9},
			{"min", numbers(1, 9), 1},
			{"pow", numbers(2, 10), 1024},
			{"floor", numbers(1.9), 1},
		}
		for _, tt := range tests {
			if v := mustCall(t, act, m, tt.method, tt.args...); v.n != tt.want {
				t.Errorf("Math.%s(%v) = %v, want %v", tt.method, tt.args, v.debugString(), tt.want)
			}
		}
		if v := mustCall(t, act, m, "max", Number(1)); !math.IsNaN(v.n) {
			t.Errorf("Math.max with one argument = %v, want NaN", v.debugString())
		}
		for range 20 {
			r := mustCall(t, act, m, "random")
			if r.n < 0 || r.n >= 1 {
				t.Fatalf("Math.random() = %v", r.n)
			}
		}
		pi, _ := Get(act, m, "PI")
		if pi.n != math.Pi {
			t.Errorf("Math.PI = %v", pi.n)
		}
	})
}

func TestDate(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		d, err := Construct(act, global(t, act, "Date"), numbers(86_400_000))
		if err != nil {
			t.Fatal(err)
		}
		if v := mustCall(t, act, d, "getTime"); v.n != 86_400_000 {
			t.Errorf("getTime = %v", v.debugString())
		}
		mustCall(t, act, d, "setTime", Number(1000))
		if n, _ := ObjectValue(d).ToNumber(act); n != 1000 {
			t.Errorf("valueOf after setTime = %v", n)
		}

		invalid, _ := Construct(act, global(t, act, "Date"), []Value{Number(math.NaN())})
		if s := mustString(t, act, ObjectValue(invalid)); s != "Invalid Date" {
			t.Errorf("invalid date string = %q", s)
		}
		if v := mustCall(t, act, invalid, "getFullYear"); !math.IsNaN(v.n) {
			t.Errorf("getFullYear of invalid date = %v", v.debugString())
		}
	})
}

func TestErrorAndXML(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		e, err := Construct(act, global(t, act, "Error"), []Value{String("bad thing")})
		if err != nil {
			t.Fatal(err)
		}
		if s := mustString(t, act, ObjectValue(e)); s != "bad thing" {
			t.Errorf("Error toString = %q", s)
		}
		plain, _ := Construct(act, global(t, act, "Error"), nil)
		if s := mustString(t, act, ObjectValue(plain)); s != "Error" {
			t.Errorf("Error() toString = %q, want the prototype message", s)
		}

		x, err := Construct(act, global(t, act, "XML"), []Value{String("<a>1</a>")})
		if err != nil {
			t.Fatal(err)
		}
		if s := mustString(t, act, ObjectValue(x)); s != "<a>1</a>" {
			t.Errorf("XML toString = %q", s)
		}
	})
}

// ---------------------------------------------------------------------------
// Object and Function
// ---------------------------------------------------------------------------

func TestObjectMethods(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		obj := NewScriptObject(act.Prototypes().Object)
		obj.DefineValue("a", Number(1), 0)
		if v := mustCall(t, act, obj, "hasOwnProperty", String("a")); !v.b {
			t.Error("hasOwnProperty(a) = false")
		}
		if v := mustCall(t, act, obj, "hasOwnProperty", String("toString")); v.b {
			t.Error("hasOwnProperty(toString) = true for an inherited method")
		}
		if s := mustString(t, act, ObjectValue(obj)); s != "[object Object]" {
			t.Errorf("toString = %q", s)
		}

		var stored Value
		getter := NewFunctionObject(NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			return String("computed"), nil
		}), act.Prototypes().Function, nil)
		setter := NewFunctionObject(NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			stored = arg(args, 0)
			return Undefined, nil
		}), act.Prototypes().Function, nil)
		mustCall(t, act, obj, "addProperty", String("virt"), ObjectValue(getter), ObjectValue(setter))
		if v, _ := Get(act, obj, "virt"); mustString(t, act, v) != "computed" {
			t.Errorf("virtual getter returned %v", v.debugString())
		}
		if err := Set(act, obj, "virt", Number(5)); err != nil {
			t.Fatal(err)
		}
		if stored.n != 5 {
			t.Errorf("virtual setter saw %v", stored.debugString())
		}
	})
}

func TestWatch(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		obj := NewScriptObject(act.Prototypes().Object)
		double := NewFunctionObject(NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			n, _ := arg(args, 2).ToNumber(act)
			return Number(n * 2), nil
		}), act.Prototypes().Function, nil)
		mustCall(t, act, obj, "watch", String("v"), ObjectValue(double))
		_ = Set(act, obj, "v", Number(4))
		if v, _ := Get(act, obj, "v"); v.n != 8 {
			t.Errorf("watched value = %v, want 8", v.debugString())
		}
		mustCall(t, act, obj, "unwatch", String("v"))
		_ = Set(act, obj, "v", Number(4))
		if v, _ := Get(act, obj, "v"); v.n != 4 {
			t.Errorf("value after unwatch = %v, want 4", v.debugString())
		}
	})
}

func TestFunctionCallAndApply(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		self := NewScriptObject(act.Prototypes().Object)
		self.DefineValue("base", Number(10), 0)
		add := NewFunctionObject(NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			base, _ := Get(act, this, "base")
			n, _ := arg(args, 0).ToNumber(act)
			return Number(base.n + n), nil
		}), act.Prototypes().Function, nil)

		if v := mustCall(t, act, add, "call", ObjectValue(self), Number(5)); v.n != 15 {
			t.Errorf("call = %v, want 15", v.debugString())
		}
		if v := mustCall(t, act, add, "apply", ObjectValue(self), ObjectValue(NewArray(act, numbers(7)))); v.n != 17 {
			t.Errorf("apply = %v, want 17", v.debugString())
		}
	})
}

// ---------------------------------------------------------------------------
// Global functions
// ---------------------------------------------------------------------------

func TestGlobalFunctions(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		g := act.Globals()
		tests := []struct {
			fn   string
			args []Value
			want string
		}{
			{"parseInt", []Value{String("42px")}, "42"},
			{"parseInt", []Value{String("0x1F")}, "31"},
			{"parseInt", []Value{String("017")}, "15"},
			{"parseInt", []Value{String("ff"), Number(16)}, "255"},
			{"parseInt", []Value{String("z")}, "NaN"},
			{"parseFloat", []Value{String("3.5e2xyz")}, "350"},
			{"parseFloat", []Value{String("  -0.25")}, "-0.25"},
			{"isNaN", []Value{String("abc")}, "true"},
			{"isFinite", []Value{Number(math.Inf(1))}, "false"},
			{"escape", []Value{String("a b&c")}, "a%20b%26c"},
			{"unescape", []Value{String("a%20b%26c")}, "a b&c"},
		}
		for _, tt := range tests {
			if got := mustString(t, act, mustCall(t, act, g, tt.fn, tt.args...)); got != tt.want {
				t.Errorf("%s(%v) = %q, want %q", tt.fn, tt.args, got, tt.want)
			}
		}
	})
}

func TestASSetPropFlags(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		obj := NewScriptObject(act.Prototypes().Object)
		obj.DefineValue("a", Number(1), 0)
		obj.DefineValue("b", Number(2), 0)
		obj.DefineValue("c", Number(3), 0)

		mustCall(t, act, act.Globals(), "ASSetPropFlags", ObjectValue(obj), String("a,b"), Number(float64(DontEnum)))
		if keys := obj.GetKeys(act); len(keys) != 1 || keys[0] != "c" {
			t.Errorf("keys after hiding a,b = %v", keys)
		}

		mustCall(t, act, act.Globals(), "ASSetPropFlags", ObjectValue(obj), Null, Number(float64(ReadOnly)), Number(float64(DontEnum)))
		if keys := obj.GetKeys(act); len(keys) != 3 {
			t.Errorf("keys after clearing DontEnum = %v", keys)
		}
		_ = Set(act, obj, "c", Number(99))
		if v, _ := Get(act, obj, "c"); v.n != 3 {
			t.Errorf("read-only c was overwritten with %v", v.debugString())
		}
	})
}

func TestGlobalTrace(t *testing.T) {
	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		mustCall(t, act, act.Globals(), "trace", Number(1.5))
		mustCall(t, act, act.Globals(), "trace")
	})
	h.expectTraces("1.5", "undefined")
}

// ---------------------------------------------------------------------------
// Key, Mouse, Stage and listeners
// ---------------------------------------------------------------------------

func TestKeyAndMouse(t *testing.T) {
	h := newHarness(t, 8)
	input := backend.NewNullInput()
	h.ctx.Input = input
	input.Press(backend.KeyLeft, 0)
	h.with(func(act *Activation) {
		key := global(t, act, "Key")
		left, _ := Get(act, key, "LEFT")
		if v := mustCall(t, act, key, "isDown", left); !v.b {
			t.Error("Key.isDown(Key.LEFT) = false while pressed")
		}
		if v := mustCall(t, act, key, "isDown", Number(float64(backend.KeyUp))); v.b {
			t.Error("Key.isDown(Key.UP) = true")
		}
		if v := mustCall(t, act, key, "getCode"); v.n != float64(backend.KeyLeft) {
			t.Errorf("Key.getCode() = %v", v.debugString())
		}

		mouse := global(t, act, "Mouse")
		if v := mustCall(t, act, mouse, "hide"); v.n != 1 {
			t.Errorf("Mouse.hide() = %v, want 1", v.debugString())
		}
		if input.MouseVisible() {
			t.Error("pointer still visible after Mouse.hide()")
		}
		mustCall(t, act, mouse, "show")
		if !input.MouseVisible() {
			t.Error("pointer hidden after Mouse.show()")
		}

		stage := global(t, act, "Stage")
		if w, _ := Get(act, stage, "width"); w.n != 550 {
			t.Errorf("Stage.width = %v, want 550", w.debugString())
		}
	})
}

func TestSystemListeners(t *testing.T) {
	h := newHarness(t, 8)
	var got []string
	var listener *ScriptObject
	h.with(func(act *Activation) {
		listener = NewScriptObject(act.Prototypes().Object)
		onKeyDown := NewFunctionObject(NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			got = append(got, mustString(t, act, arg(args, 0)))
			return Undefined, nil
		}), act.Prototypes().Function, nil)
		listener.DefineValue("onKeyDown", ObjectValue(onKeyDown), 0)

		key := global(t, act, "Key")
		mustCall(t, act, key, "addListener", ObjectValue(listener))
		mustCall(t, act, key, "addListener", ObjectValue(listener))
		list, _ := Get(act, key, "_listeners")
		if n, _ := list.AsObject().Length(act); n != 1 {
			t.Errorf("listener registered %d times, want once", n)
		}
	})

	h.avm.NotifySystemListeners(h.ctx, h.ctx.Stage, 8, ListenerKey, "onKeyDown", []Value{String("a")})
	h.avm.NotifySystemListeners(h.ctx, h.ctx.Stage, 8, ListenerMouse, "onKeyDown", []Value{String("b")})
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("handler calls = %q, want [a]", got)
	}

	h.with(func(act *Activation) {
		key := global(t, act, "Key")
		if v := mustCall(t, act, key, "removeListener", ObjectValue(listener)); !v.b {
			t.Error("removeListener = false for a registered listener")
		}
		mustCall(t, act, key, "broadcastMessage", String("onKeyDown"), String("c"))
	})
	if len(got) != 1 {
		t.Errorf("removed listener was called: %q", got)
	}
}
