package avm2

import (
	"maps"
	"math"
	"slices"
	"strings"
)

// SystemClasses holds the built-in classes native code constructs
// directly.
type SystemClasses struct {
	Object   *ClassObject
	Function *ClassObject
	Class    *ClassObject
	Array    *ClassObject
	String   *ClassObject
	Number   *ClassObject
	Int      *ClassObject
	Uint     *ClassObject
	Boolean  *ClassObject

	Error          *ClassObject
	TypeError      *ClassObject
	ReferenceError *ClassObject
	RangeError     *ClassObject
	ArgumentError  *ClassObject
	VerifyError    *ClassObject

	Event           *ClassObject
	EventDispatcher *ClassObject
	DisplayObject   *ClassObject
	MovieClip       *ClassObject
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func noop(act *Activation, this Object, args []Value) (Value, error) {
	return Undefined, nil
}

// defineMethods installs native functions on obj in name order.
func (avm *Avm2) defineMethods(obj *ScriptObject, methods map[string]NativeMethod) {
	for _, name := range slices.Sorted(maps.Keys(methods)) {
		obj.DefineValue(name, ObjectValue(avm.NewNativeFunction(name, methods[name])), DontDelete)
	}
}

// methodTraits turns native methods into instance method traits in name
// order.
func methodTraits(methods map[string]NativeMethod) []*Trait {
	var traits []*Trait
	for _, name := range slices.Sorted(maps.Keys(methods)) {
		traits = append(traits, NewMethodTrait(name, NewNativeMethod(name, methods[name])))
	}
	return traits
}

func getter(name string, fn NativeMethod) *Trait {
	return NewGetterTrait(name, NewNativeMethod("get "+name, fn))
}

func setter(name string, fn NativeMethod) *Trait {
	return NewSetterTrait(name, NewNativeMethod("set "+name, fn))
}

// defineClass creates a built-in class and registers it on the globals
// under its qualified and local names.
func (avm *Avm2) defineClass(act *Activation, def *ClassDef, super *ClassObject) *ClassObject {
	cls, err := NewClass(act, def, super, NewScopeChain(avm.globals))
	if err != nil {
		log.Errorf("built-in class %s: %s", def.Name, err)
		return nil
	}
	avm.globals.DefineValue(def.Name, ObjectValue(cls), DontDelete)
	if local := localName(def.Name); local != def.Name {
		avm.globals.DefineValue(local, ObjectValue(cls), DontDelete)
	}
	return cls
}

// createGlobals installs the built-in classes and global functions.
// Object, Class and Function are created first and patched once Class
// exists.
func createGlobals(avm *Avm2) {
	c := &SystemClasses{}
	avm.classes = c
	avm.globals = NewScriptObject(nil, nil)
	act := avm.rootActivation(nil)

	c.Object = avm.defineClass(act, &ClassDef{
		Name:         "Object",
		InstanceInit: NewNativeMethod("Object", noop),
		CallHandler:  objectCall,
	}, nil)
	avm.globals.proto = c.Object.prototype
	c.Class = avm.defineClass(act, &ClassDef{
		Name:         "Class",
		SuperName:    "Object",
		Sealed:       true,
		InstanceInit: NewNativeMethod("Class", noop),
	}, c.Object)
	c.Function = avm.defineClass(act, &ClassDef{
		Name:         "Function",
		SuperName:    "Object",
		InstanceInit: NewNativeMethod("Function", noop),
		Allocator: func(class *ClassObject) Object {
			return avm.newFunction(NewNativeMethod("", noop), ScopeChain{}, nil, nil)
		},
		CallHandler: func(act *Activation, this Object, args []Value) (Value, error) {
			return ObjectValue(act.avm.NewNativeFunction("", noop)), nil
		},
	}, c.Object)
	for _, cls := range []*ClassObject{c.Object, c.Class, c.Function} {
		cls.proto, cls.class = c.Class.prototype, c.Class
	}
	avm.defineObjectMethods(c.Object.prototype.Base())
	avm.defineFunctionMethods(c.Function.prototype.Base())

	avm.createArrayClass(act)
	avm.createPrimitiveClasses(act)
	avm.createErrorClasses(act)
	avm.createEventClasses(act)
	avm.createDisplayClasses(act)

	avm.globals.DefineValue("NaN", Number(math.NaN()), ReadOnly|DontDelete)
	avm.globals.DefineValue("Infinity", Number(math.Inf(1)), ReadOnly|DontDelete)
	avm.globals.DefineValue("undefined", Undefined, ReadOnly|DontDelete)
	avm.defineMethods(avm.globals, map[string]NativeMethod{
		"trace":      globalTrace,
		"isNaN":      globalIsNaN,
		"isFinite":   globalIsFinite,
		"parseInt":   globalParseInt,
		"parseFloat": globalParseFloat,
	})
}

// ---------------------------------------------------------------------------
// Object
// ---------------------------------------------------------------------------

// objectCall converts its argument to an object, or creates an empty one.
func objectCall(act *Activation, this Object, args []Value) (Value, error) {
	v := arg(args, 0)
	if v.IsNullOrUndefined() {
		return ObjectValue(NewPlainObject(act)), nil
	}
	obj, err := v.ToObject(act)
	if err != nil {
		return Undefined, err
	}
	return ObjectValue(obj), nil
}

func (avm *Avm2) defineObjectMethods(proto *ScriptObject) {
	avm.defineMethods(proto, map[string]NativeMethod{
		"hasOwnProperty": func(act *Activation, this Object, args []Value) (Value, error) {
			name, err := arg(args, 0).ToString(act)
			if err != nil {
				return Undefined, err
			}
			return Bool(this.HasOwnProperty(name)), nil
		},
		"isPrototypeOf": func(act *Activation, this Object, args []Value) (Value, error) {
			obj := arg(args, 0).AsObject()
			for depth := 0; obj != nil && depth < maxPrototypeDepth; depth++ {
				obj = obj.Base().proto
				if obj == this {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		},
		"propertyIsEnumerable": func(act *Activation, this Object, args []Value) (Value, error) {
			name, err := arg(args, 0).ToString(act)
			if err != nil {
				return Undefined, err
			}
			return Bool(slices.Contains(this.Keys(), name)), nil
		},
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			return String(defaultObjectString(this)), nil
		},
		"toLocaleString": func(act *Activation, this Object, args []Value) (Value, error) {
			return String(defaultObjectString(this)), nil
		},
		"valueOf": func(act *Activation, this Object, args []Value) (Value, error) {
			return ObjectValue(this), nil
		},
	})
}

// ---------------------------------------------------------------------------
// Function
// ---------------------------------------------------------------------------

func (avm *Avm2) defineFunctionMethods(proto *ScriptObject) {
	avm.defineMethods(proto, map[string]NativeMethod{
		"call": func(act *Activation, this Object, args []Value) (Value, error) {
			var rest []Value
			if len(args) > 1 {
				rest = args[1:]
			}
			return this.Call(act, arg(args, 0).AsObject(), rest)
		},
		"apply": func(act *Activation, this Object, args []Value) (Value, error) {
			var list []Value
			if obj := arg(args, 1).AsObject(); obj != nil {
				if arr := obj.AsArray(); arr != nil {
					var err error
					if list, err = arr.Values(act); err != nil {
						return Undefined, err
					}
				}
			}
			return this.Call(act, arg(args, 0).AsObject(), list)
		},
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			return String("function Function() {}"), nil
		},
	})
}

// ---------------------------------------------------------------------------
// Global functions
// ---------------------------------------------------------------------------

func globalTrace(act *Activation, this Object, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, v := range args {
		s, err := v.ToString(act)
		if err != nil {
			return Undefined, err
		}
		parts[i] = s
	}
	act.avm.trace(strings.Join(parts, " "))
	return Undefined, nil
}

func globalIsNaN(act *Activation, this Object, args []Value) (Value, error) {
	n, err := arg(args, 0).ToNumber(act)
	if err != nil {
		return Undefined, err
	}
	return Bool(math.IsNaN(n)), nil
}

func globalIsFinite(act *Activation, this Object, args []Value) (Value, error) {
	n, err := arg(args, 0).ToNumber(act)
	if err != nil {
		return Undefined, err
	}
	return Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

func globalParseInt(act *Activation, this Object, args []Value) (Value, error) {
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	var radix int32
	if r := arg(args, 1); !r.IsUndefined() {
		if radix, err = r.ToInt32(act); err != nil {
			return Undefined, err
		}
	}
	return Number(parseIntString(s, radix)), nil
}

func globalParseFloat(act *Activation, this Object, args []Value) (Value, error) {
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	return Number(parseFloatPrefix(s)), nil
}
