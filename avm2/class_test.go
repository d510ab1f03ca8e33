package avm2

import (
	"math"
	"testing"
)

func constant(v Value) NativeMethod {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		return v, nil
	}
}

func (h *harness) class(act *Activation, def *ClassDef, super *ClassObject) *ClassObject {
	h.t.Helper()
	if super == nil {
		super = h.avm.Classes().Object
	}
	cls, err := NewClass(act, def, super, NewScopeChain(h.avm.globals))
	if err != nil {
		h.t.Fatalf("NewClass(%s): %v", def.Name, err)
	}
	return cls
}

func TestSlotTraits(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		point := h.class(act, &ClassDef{
			Name:   "Point",
			Sealed: true,
			InstanceTraits: []*Trait{
				NewSlotTrait("x", "int"),
				NewSlotTrait("y", "Number"),
				NewConstTrait("kind", String("point")),
			},
		}, nil)
		if point.SlotCount() != 3 {
			t.Errorf("slot count = %d, want 3", point.SlotCount())
		}
		obj, err := point.Construct(act, nil)
		if err != nil {
			t.Fatal(err)
		}
		x, _ := GetProperty(act, obj, "x")
		if n, _ := x.AsNumber(); n != 0 {
			t.Errorf("x = %s, want 0", x)
		}
		y, _ := GetProperty(act, obj, "y")
		if n, _ := y.AsNumber(); !math.IsNaN(n) {
			t.Errorf("y = %s, want NaN", y)
		}

		if err := SetProperty(act, obj, "x", Int(5)); err != nil {
			t.Fatal(err)
		}
		if v, ok := obj.Base().GetSlot(1); !ok || !StrictEquals(v, Int(5)) {
			t.Errorf("slot 1 = %s, want 5", v)
		}

		if err := SetProperty(act, obj, "kind", String("other")); err != nil {
			t.Fatal(err)
		}
		kind, _ := GetProperty(act, obj, "kind")
		if s, _ := kind.AsString(); s != "point" {
			t.Errorf("const kind changed to %s", kind)
		}

		if err := SetProperty(act, obj, "z", Int(1)); ErrorID(err) != 1056 {
			t.Errorf("setting z on a sealed class: err = %v, want ReferenceError #1056", err)
		}
	})
}

func TestSlotOps(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		box := h.class(act, &ClassDef{Name: "Box", InstanceTraits: []*Trait{NewSlotTrait("v", "*")}}, nil)
		obj, err := box.Construct(act, nil)
		if err != nil {
			t.Fatal(err)
		}
		m := method("swap", 1,
			Op{Code: OpGetLocal, Index: 1},
			Op{Code: OpPushString, Str: "s"},
			Op{Code: OpSetSlot, Index: 1},
			Op{Code: OpGetLocal, Index: 1},
			Op{Code: OpGetSlot, Index: 1},
			Op{Code: OpReturnValue},
		)
		got, err := h.function(m).Call(act, nil, []Value{ObjectValue(obj)})
		if err != nil {
			t.Fatal(err)
		}
		if s, _ := got.AsString(); s != "s" {
			t.Errorf("slot value = %s", got)
		}

		bad := method("bad", 1,
			Op{Code: OpGetLocal, Index: 1},
			Op{Code: OpGetSlot, Index: 9},
			Op{Code: OpReturnValue},
		)
		if _, err := h.function(bad).Call(act, nil, []Value{ObjectValue(obj)}); ErrorID(err) != 1026 {
			t.Errorf("out of range slot: err = %v, want VerifyError #1026", err)
		}
	})
}

func TestDynamicClass(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		bag := h.class(act, &ClassDef{Name: "Bag"}, nil)
		obj, err := bag.Construct(act, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := SetProperty(act, obj, "extra", Int(3)); err != nil {
			t.Fatal(err)
		}
		if !obj.HasOwnProperty("extra") {
			t.Error("dynamic property was not created")
		}
		if !DeleteProperty(act, obj, "extra") || obj.HasOwnProperty("extra") {
			t.Error("dynamic property was not deleted")
		}
	})
}

func TestVTableDispatch(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		base := h.class(act, &ClassDef{
			Name:           "Base",
			InstanceTraits: []*Trait{NewMethodTrait("value", NewNativeMethod("value", constant(Int(1))))},
		}, nil)
		both := method("both", 0,
			Op{Code: OpGetLocal, Index: 0},
			Op{Code: OpCallSuper, Str: "value", Uint: 0},
			Op{Code: OpGetLocal, Index: 0},
			Op{Code: OpCallProperty, Str: "value", Uint: 0},
			Op{Code: OpAdd},
			Op{Code: OpReturnValue},
		)
		derived := h.class(act, &ClassDef{
			Name:      "Derived",
			SuperName: "Base",
			InstanceTraits: []*Trait{
				NewMethodTrait("value", NewNativeMethod("value", constant(Int(2)))),
				NewMethodTrait("both", both),
			},
		}, base)

		baseID, ok := base.VTable().DispID("value")
		if !ok {
			t.Fatal("value has no dispatch id")
		}
		if id, _ := derived.VTable().DispID("value"); id != baseID {
			t.Errorf("override got id %d, want %d", id, baseID)
		}

		call := method("call", 1,
			Op{Code: OpGetLocal, Index: 1},
			Op{Code: OpCallMethod, Index: baseID, Uint: 0},
			Op{Code: OpReturnValue},
		)
		fn := h.function(call)
		for _, tt := range []struct {
			class *ClassObject
			want  float64
		}{{base, 1}, {derived, 2}} {
			obj, err := tt.class.Construct(act, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := fn.Call(act, nil, []Value{ObjectValue(obj)})
			if err != nil {
				t.Fatal(err)
			}
			if n, _ := got.AsNumber(); n != tt.want {
				t.Errorf("%s: callmethod = %s, want %v", tt.class.Name(), got, tt.want)
			}
		}

		obj, err := derived.Construct(act, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := CallProperty(act, obj, "both", nil)
		if err != nil {
			t.Fatal(err)
		}
		if n, _ := got.AsNumber(); n != 3 {
			t.Errorf("super.value() + value() = %s, want 3", got)
		}
		if !IsOfType(obj, base) || IsOfType(obj, h.avm.Classes().Array) {
			t.Error("IsOfType does not follow the class chain")
		}
	})
}

func TestAccessorTraits(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		var stored Value
		cls := h.class(act, &ClassDef{
			Name: "Temp",
			InstanceTraits: []*Trait{
				getter("celsius", func(act *Activation, this Object, args []Value) (Value, error) {
					return stored, nil
				}),
				setter("celsius", func(act *Activation, this Object, args []Value) (Value, error) {
					stored = arg(args, 0)
					return Undefined, nil
				}),
			},
		}, nil)
		obj, err := cls.Construct(act, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := SetProperty(act, obj, "celsius", Int(21)); err != nil {
			t.Fatal(err)
		}
		got, err := GetProperty(act, obj, "celsius")
		if err != nil {
			t.Fatal(err)
		}
		if !StrictEquals(got, Int(21)) {
			t.Errorf("celsius = %s, want 21", got)
		}
	})
}

func TestInterfaceCannotBeConstructed(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		iface := h.class(act, &ClassDef{Name: "IShape", Interface: true}, nil)
		h.avm.globals.DefineValue("IShape", ObjectValue(iface), DontDelete)
		if _, err := iface.Construct(act, nil); ErrorID(err) != 1007 {
			t.Errorf("err = %v, want TypeError #1007", err)
		}
		square := h.class(act, &ClassDef{Name: "Square", Interfaces: []string{"IShape"}}, nil)
		obj, err := square.Construct(act, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !IsOfType(obj, iface) {
			t.Error("Square instance is not an IShape")
		}
	})
}

func TestClassCoercion(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		c := h.avm.Classes()
		got, err := c.Int.Call(act, nil, []Value{String("42.7")})
		if err != nil || !StrictEquals(got, Int(42)) {
			t.Errorf("int(\"42.7\") = %s, %v", got, err)
		}
		got, err = c.String.Call(act, nil, []Value{Number(1.5)})
		if s, _ := got.AsString(); err != nil || s != "1.5" {
			t.Errorf("String(1.5) = %s, %v", got, err)
		}
		obj, err := c.Event.Construct(act, []Value{String("x")})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Array.Call(act, nil, nil); err != nil {
			t.Errorf("Array() = %v", err)
		}
		bag := h.class(act, &ClassDef{Name: "Bag"}, nil)
		if _, err := bag.Call(act, nil, []Value{ObjectValue(obj)}); ErrorID(err) != 1034 {
			t.Errorf("Bag(event): err = %v, want TypeError #1034", err)
		}
		if _, err := bag.Call(act, nil, nil); ErrorID(err) != 1112 {
			t.Errorf("Bag(): err = %v, want ArgumentError #1112", err)
		}
	})
}

func TestPropertyAttributes(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		obj := NewPlainObject(act)
		obj.DefineValue("fixed", Int(1), ReadOnly)
		obj.DefineValue("kept", Int(2), DontDelete)
		obj.DefineValue("free", Int(3), 0)

		if err := SetProperty(act, obj, "fixed", Int(9)); err != nil {
			t.Fatal(err)
		}
		if v, _ := GetProperty(act, obj, "fixed"); !StrictEquals(v, Int(1)) {
			t.Errorf("read-only property changed to %s", v)
		}
		if err := InitProperty(act, obj, "fixed", Int(9)); err != nil {
			t.Fatal(err)
		}
		if v, _ := GetProperty(act, obj, "fixed"); !StrictEquals(v, Int(9)) {
			t.Errorf("init of read-only property = %s, want 9", v)
		}
		if DeleteProperty(act, obj, "kept") {
			t.Error("deleted a DontDelete property")
		}
		if !DeleteProperty(act, obj, "free") || !DeleteProperty(act, obj, "never") {
			t.Error("delete of a deletable or missing property returned false")
		}
	})
}

func TestArrayLength(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		arr := NewArray(act, []Value{Int(1), Int(2), Int(3)})
		if err := SetProperty(act, arr, "5", String("x")); err != nil {
			t.Fatal(err)
		}
		if arr.Len() != 6 {
			t.Errorf("length after arr[5] = %d, want 6", arr.Len())
		}
		if err := SetProperty(act, arr, "length", Int(2)); err != nil {
			t.Fatal(err)
		}
		if v, _ := GetProperty(act, arr, "length"); !StrictEquals(v, Uint(2)) {
			t.Errorf("length = %s, want 2", v)
		}
		if v, _ := GetProperty(act, arr, "2"); !v.IsUndefined() {
			t.Errorf("truncated element = %s", v)
		}
		if DeleteProperty(act, arr, "length") {
			t.Error("deleted length")
		}
		keys := arr.Keys()
		if len(keys) != 2 || keys[0] != "0" || keys[1] != "1" {
			t.Errorf("keys = %q", keys)
		}
	})
}

func TestArrayHugeLength(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		arr := NewArray(act, []Value{Int(1), Int(2)})
		if err := SetProperty(act, arr, "length", Uint(4294967295)); err != nil {
			t.Fatal(err)
		}
		if v, _ := GetProperty(act, arr, "length"); !StrictEquals(v, Uint(4294967295)) {
			t.Errorf("length = %s, want 4294967295", v)
		}
		if len(arr.dense) != 2 || len(arr.sparse) != 0 {
			t.Errorf("storage grew with length: dense=%d sparse=%d", len(arr.dense), len(arr.sparse))
		}
		if err := SetProperty(act, arr, "length", Int(0)); err != nil {
			t.Fatal(err)
		}
		if err := SetProperty(act, arr, "4294967294", String("last")); err != nil {
			t.Fatal(err)
		}
		if v, _ := GetProperty(act, arr, "length"); !StrictEquals(v, Uint(4294967295)) {
			t.Errorf("length after arr[4294967294] = %s, want 4294967295", v)
		}
		if v, _ := GetProperty(act, arr, "4294967294"); !StrictEquals(v, String("last")) {
			t.Errorf("arr[4294967294] = %s", v)
		}
		if keys := arr.Keys(); len(keys) != 1 || keys[0] != "4294967294" {
			t.Errorf("keys = %q", keys)
		}
		if _, err := arr.Values(act); ErrorID(err) != 1000 {
			t.Errorf("materializing a huge array: err = %v, want Error #1000", err)
		}
		if err := SetProperty(act, arr, "length", Int(2)); err != nil {
			t.Fatal(err)
		}
		if len(arr.sparse) != 0 || arr.Len() != 2 {
			t.Errorf("truncate kept sparse=%d len=%d", len(arr.sparse), arr.Len())
		}
	})
}

func TestArraySparseWrites(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		arr := NewArray(act, []Value{Int(0)})
		arr.Set(1000, String("far"))
		if len(arr.dense) != 1 || len(arr.sparse) != 1 {
			t.Errorf("dense=%d sparse=%d, want 1 and 1", len(arr.dense), len(arr.sparse))
		}
		if arr.HasOwnProperty("500") || !arr.HasOwnProperty("1000") {
			t.Error("hole reported as present or element missing")
		}
		arr.unshift([]Value{String("a")})
		if v := arr.Get(1001); !StrictEquals(v, String("far")) {
			t.Errorf("after unshift arr[1001] = %s", v)
		}
		if v := arr.shift(); !StrictEquals(v, String("a")) || arr.Len() != 1001 {
			t.Errorf("shift = %s, len %d", v, arr.Len())
		}
		if v := arr.Get(1000); !StrictEquals(v, String("far")) {
			t.Errorf("after shift arr[1000] = %s", v)
		}
	})
}

func TestSlotIDBeyondTraits(t *testing.T) {
	h := newHarness(t)
	h.with(func(act *Activation) {
		slot := NewSlotTrait("v", "*")
		slot.SlotID = 1 << 31
		_, err := NewClass(act, &ClassDef{Name: "Huge", InstanceTraits: []*Trait{slot}},
			h.avm.Classes().Object, NewScopeChain(h.avm.globals))
		if ErrorID(err) != 1026 {
			t.Fatalf("err = %v, want VerifyError #1026", err)
		}
	})
}
