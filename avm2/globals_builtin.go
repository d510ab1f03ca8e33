package avm2

import (
	"fmt"
	"slices"
	"strings"
)

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

func (avm *Avm2) createArrayClass(act *Activation) {
	c := avm.classes
	c.Array = avm.defineClass(act, &ClassDef{
		Name:         "Array",
		SuperName:    "Object",
		Allocator:    arrayAllocator,
		InstanceInit: NewNativeMethod("Array", arrayInit),
		CallHandler: func(act *Activation, this Object, args []Value) (Value, error) {
			obj, err := act.avm.classes.Array.Construct(act, args)
			if err != nil {
				return Undefined, err
			}
			return ObjectValue(obj), nil
		},
	}, c.Object)
	avm.defineArrayMethods(c.Array.prototype.Base())
}

// arrayInit treats a single numeric argument as the length and anything
// else as the elements.
func arrayInit(act *Activation, this Object, args []Value) (Value, error) {
	arr := this.AsArray()
	if arr == nil {
		return Undefined, nil
	}
	if len(args) == 1 {
		if n, ok := args[0].AsNumber(); ok {
			if n < 0 || n != float64(uint32(n)) {
				return Undefined, RangeError(act, 1005,
					fmt.Sprintf("Array index is not a positive integer (%s).", FormatNumber(n)))
			}
			arr.SetLength(uint32(n))
			return Undefined, nil
		}
	}
	arr.reset(args)
	return Undefined, nil
}

func thisArray(act *Activation, this Object, method string) (*ArrayObject, error) {
	if arr := this.AsArray(); arr != nil {
		return arr, nil
	}
	return nil, TypeError(act, 1004,
		fmt.Sprintf("Method Array.prototype.%s was invoked on an incompatible object.", method))
}

func joinArray(act *Activation, arr *ArrayObject, sep string) (string, error) {
	values, err := arr.Values(act)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(values))
	for i, v := range values {
		if v.IsNullOrUndefined() {
			continue
		}
		s, err := v.ToString(act)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func (avm *Avm2) defineArrayMethods(proto *ScriptObject) {
	avm.defineMethods(proto, map[string]NativeMethod{
		"concat": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "concat")
			if err != nil {
				return Undefined, err
			}
			out, err := arr.Values(act)
			if err != nil {
				return Undefined, err
			}
			for _, v := range args {
				if obj := v.AsObject(); obj != nil && obj.AsArray() != nil {
					more, err := obj.AsArray().Values(act)
					if err != nil {
						return Undefined, err
					}
					out = append(out, more...)
					continue
				}
				out = append(out, v)
			}
			return ObjectValue(act.avm.newArray(out)), nil
		},
		"indexOf": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "indexOf")
			if err != nil {
				return Undefined, err
			}
			from, err := numberArg(act, args, 1, 0)
			if err != nil {
				return Undefined, err
			}
			needle := arg(args, 0)
			start := clampIndex(from, arr.Len())
			for _, i := range arr.indices() {
				if int(i) >= start && StrictEquals(arr.Get(int(i)), needle) {
					return Number(float64(i)), nil
				}
			}
			return Int(-1), nil
		},
		"join": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "join")
			if err != nil {
				return Undefined, err
			}
			sep := ","
			if v := arg(args, 0); !v.IsUndefined() {
				if sep, err = v.ToString(act); err != nil {
					return Undefined, err
				}
			}
			s, err := joinArray(act, arr, sep)
			return String(s), err
		},
		"pop": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "pop")
			if err != nil || arr.Len() == 0 {
				return Undefined, err
			}
			v := arr.Get(arr.Len() - 1)
			arr.SetLength(uint32(arr.Len() - 1))
			return v, nil
		},
		"push": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "push")
			if err != nil {
				return Undefined, err
			}
			arr.Push(args...)
			return Uint(uint32(arr.Len())), nil
		},
		"reverse": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "reverse")
			if err != nil {
				return Undefined, err
			}
			values, err := arr.Values(act)
			if err != nil {
				return Undefined, err
			}
			slices.Reverse(values)
			arr.reset(values)
			return ObjectValue(arr), nil
		},
		"shift": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "shift")
			if err != nil || arr.Len() == 0 {
				return Undefined, err
			}
			return arr.shift(), nil
		},
		"slice": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "slice")
			if err != nil {
				return Undefined, err
			}
			a, err := numberArg(act, args, 0, 0)
			if err != nil {
				return Undefined, err
			}
			b, err := numberArg(act, args, 1, float64(arr.Len()))
			if err != nil {
				return Undefined, err
			}
			start, end := clampIndex(a, arr.Len()), clampIndex(b, arr.Len())
			if start >= end {
				return ObjectValue(act.avm.newArray(nil)), nil
			}
			if end-start > maxMaterializedLength {
				return Undefined, outOfMemory(act)
			}
			out := make([]Value, 0, end-start)
			for i := start; i < end; i++ {
				out = append(out, arr.Get(i))
			}
			return ObjectValue(act.avm.newArray(out)), nil
		},
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "toString")
			if err != nil {
				return Undefined, err
			}
			s, err := joinArray(act, arr, ",")
			return String(s), err
		},
		"unshift": func(act *Activation, this Object, args []Value) (Value, error) {
			arr, err := thisArray(act, this, "unshift")
			if err != nil {
				return Undefined, err
			}
			arr.unshift(args)
			return Uint(uint32(arr.Len())), nil
		},
	})
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// errorInit stores message and errorID as own properties so that native
// code can read them without running script.
func errorInit(act *Activation, this Object, args []Value) (Value, error) {
	msg := ""
	if v := arg(args, 0); !v.IsUndefined() {
		s, err := v.ToString(act)
		if err != nil {
			return Undefined, err
		}
		msg = s
	}
	var id int32
	if v := arg(args, 1); !v.IsUndefined() {
		n, err := v.ToInt32(act)
		if err != nil {
			return Undefined, err
		}
		id = n
	}
	base := this.Base()
	base.DefineValue("message", String(msg), DontDelete)
	base.DefineValue("errorID", Int(id), ReadOnly|DontDelete)
	return Undefined, nil
}

func (avm *Avm2) createErrorClasses(act *Activation) {
	c := avm.classes
	c.Error = avm.defineClass(act, &ClassDef{
		Name:         "Error",
		SuperName:    "Object",
		InstanceInit: NewNativeMethod("Error", errorInit),
	}, c.Object)
	proto := c.Error.prototype.Base()
	proto.DefineValue("name", String("Error"), DontDelete)
	proto.DefineValue("message", String(""), DontDelete)
	avm.defineMethods(proto, map[string]NativeMethod{
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			name, err := GetProperty(act, this, "name")
			if err != nil {
				return Undefined, err
			}
			msg, err := GetProperty(act, this, "message")
			if err != nil {
				return Undefined, err
			}
			n, err := name.ToString(act)
			if err != nil {
				return Undefined, err
			}
			m, err := msg.ToString(act)
			if err != nil {
				return Undefined, err
			}
			if m == "" {
				return String(n), nil
			}
			return String(n + ": " + m), nil
		},
		"getStackTrace": func(act *Activation, this Object, args []Value) (Value, error) {
			head, err := ObjectValue(this).ToString(act)
			if err != nil {
				return Undefined, err
			}
			return String(head + "\n" + act.avm.StackTrace()), nil
		},
	})

	subclass := func(name string) *ClassObject {
		cls := avm.defineClass(act, &ClassDef{Name: name, SuperName: "Error"}, c.Error)
		cls.prototype.Base().DefineValue("name", String(name), DontDelete)
		return cls
	}
	c.TypeError = subclass("TypeError")
	c.ReferenceError = subclass("ReferenceError")
	c.RangeError = subclass("RangeError")
	c.ArgumentError = subclass("ArgumentError")
	c.VerifyError = subclass("VerifyError")
}
