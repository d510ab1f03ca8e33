package avm1

import (
	"maps"
	"slices"

	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/host"
)

// maxExternalDepth bounds the conversion of nested objects so that cyclic
// graphs terminate.
const maxExternalDepth = 64

type externalCallback struct {
	this   Object
	method Object
}

// SetObjectID sets the value of ExternalInterface.objectID.
func (avm *Avm1) SetObjectID(id string) {
	avm.objectID = id
}

func defineExternalInterface(avm *Avm1, obj *ScriptObject, fnProto Object) {
	defineGetter(obj, fnProto, "available", func(act *Activation, this Object, args []Value) (Value, error) {
		return Bool(act.Context.External.Available()), nil
	})
	defineGetter(obj, fnProto, "objectID", func(act *Activation, this Object, args []Value) (Value, error) {
		if act.avm.objectID == "" {
			return Null, nil
		}
		return String(act.avm.objectID), nil
	})
	defineMethods(obj, fnProto, DontEnum|DontDelete|ReadOnly, map[string]NativeFunction{
		"addCallback": externalAddCallback,
		"call":        externalCall,
	})
}

// externalAddCallback exposes method to the container under name, called
// with this bound to the second argument.
func externalAddCallback(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) < 3 {
		return Bool(false), nil
	}
	name, err := args[0].ToString(act)
	if err != nil {
		return Undefined, err
	}
	method := args[2].AsObject()
	if method == nil {
		return Bool(false), nil
	}
	act.avm.externalCallbacks[name] = externalCallback{this: args[1].AsObject(), method: method}
	act.Context.External.OnCallbackAvailable(name)
	return Bool(true), nil
}

func externalCall(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return Null, nil
	}
	ext := act.Context.External
	if !ext.Available() {
		return Null, nil
	}
	name, err := args[0].ToString(act)
	if err != nil {
		return Undefined, err
	}
	external := make([]backend.ExternalValue, 0, len(args)-1)
	for _, a := range args[1:] {
		ev, err := toExternal(act, a, 0)
		if err != nil {
			return Undefined, err
		}
		external = append(external, ev)
	}
	return fromExternal(act, ext.Call(name, external)), nil
}

// CallExternalCallback runs a callback registered with addCallback on
// behalf of the container. An unknown name yields nil.
func (avm *Avm1) CallExternalCallback(ctx *host.UpdateContext, name string, args []backend.ExternalValue) backend.ExternalValue {
	cb, ok := avm.externalCallbacks[name]
	if !ok || avm.halted {
		return nil
	}
	var result backend.ExternalValue
	avm.RunWithStackFrameForDisplayObject(ctx, ctx.Stage, ctx.SwfVersion, func(act *Activation) error {
		values := make([]Value, len(args))
		for i, a := range args {
			values[i] = fromExternal(act, a)
		}
		this := cb.this
		if this == nil {
			this = act.avm.globals
		}
		rv, err := cb.method.Call(act, this, nil, values)
		if err != nil {
			return err
		}
		result, err = toExternal(act, rv, 0)
		return err
	})
	return result
}

func toExternal(act *Activation, v Value, depth int) (backend.ExternalValue, error) {
	switch v.kind {
	case KindUndefined, KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindNumber:
		return v.n, nil
	case KindString:
		return v.s, nil
	}
	obj := v.obj
	if obj.AsExecutable() != nil || depth >= maxExternalDepth {
		return nil, nil
	}
	if arr, ok := obj.(*ArrayObject); ok {
		values, err := arr.Values(act)
		if err != nil {
			return nil, err
		}
		list := make([]backend.ExternalValue, len(values))
		for i, e := range values {
			if list[i], err = toExternal(act, e, depth+1); err != nil {
				return nil, err
			}
		}
		return list, nil
	}
	m := make(map[string]backend.ExternalValue)
	for _, k := range obj.GetKeys(act) {
		e, err := Get(act, obj, k)
		if err != nil {
			return nil, err
		}
		if m[k], err = toExternal(act, e, depth+1); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func fromExternal(act *Activation, ev backend.ExternalValue) Value {
	switch x := ev.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case int:
		return Number(float64(x))
	case string:
		return String(x)
	case []backend.ExternalValue:
		values := make([]Value, len(x))
		for i, e := range x {
			values[i] = fromExternal(act, e)
		}
		return ObjectValue(NewArray(act, values))
	case map[string]backend.ExternalValue:
		obj := NewScriptObject(act.avm.prototypes.Object)
		for _, k := range slices.Sorted(maps.Keys(x)) {
			obj.DefineValue(k, fromExternal(act, x[k]), 0)
		}
		return ObjectValue(obj)
	}
	log.Warningf("unsupported external value %T", ev)
	return Undefined
}
