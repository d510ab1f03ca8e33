package avm1

// ---------------------------------------------------------------------------
// Object
// ---------------------------------------------------------------------------

// objectFunction is Object called without new: it returns its argument
// when that is an object.
func objectFunction(act *Activation, this Object, args []Value) (Value, error) {
	if obj := arg(args, 0).AsObject(); obj != nil {
		return ObjectValue(obj), nil
	}
	return ObjectValue(NewScriptObject(act.avm.prototypes.Object)), nil
}

func objectConstruct(act *Activation, this Object, args []Value) (Value, error) {
	return ObjectValue(this), nil
}

func defineObjectMethods(proto *ScriptObject, ctor *FunctionObject, fnProto Object) {
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"addProperty":          objectAddProperty,
		"hasOwnProperty":       objectHasOwnProperty,
		"isPropertyEnumerable": objectIsPropertyEnumerable,
		"isPrototypeOf":        objectIsPrototypeOf,
		"toString":             objectToString,
		"toLocaleString":       objectToString,
		"valueOf":              objectValueOf,
		"watch":                objectWatch,
		"unwatch":              objectUnwatch,
	})
	defineMethods(ctor.ScriptObject, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"registerClass": objectRegisterClass,
	})
}

func objectAddProperty(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	getter := arg(args, 1).AsObject()
	if getter == nil || getter.AsExecutable() == nil {
		return Bool(false), nil
	}
	setter := arg(args, 2).AsObject()
	if setter != nil && setter.AsExecutable() == nil {
		if !arg(args, 2).IsNull() {
			return Bool(false), nil
		}
		setter = nil
	}
	return Bool(this.Base().AddProperty(act, name, getter, setter, 0)), nil
}

func objectHasOwnProperty(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	return Bool(this.HasOwnProperty(act, name)), nil
}

func objectIsPropertyEnumerable(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	return Bool(this.Base().IsPropertyEnumerable(act, name)), nil
}

func objectIsPrototypeOf(act *Activation, this Object, args []Value) (Value, error) {
	obj := arg(args, 0).AsObject()
	if obj == nil {
		return Bool(false), nil
	}
	depth := 0
	for p := ProtoOf(obj); p != nil && depth < maxPrototypeDepth; p = ProtoOf(p) {
		if p == this {
			return Bool(true), nil
		}
		depth++
	}
	return Bool(false), nil
}

func objectToString(act *Activation, this Object, args []Value) (Value, error) {
	return String(defaultObjectString(this)), nil
}

func objectValueOf(act *Activation, this Object, args []Value) (Value, error) {
	return ObjectValue(this), nil
}

// objectWatch registers a watcher. The callback receives the name, the old
// value, the new value and the user data, and returns the value to store.
func objectWatch(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	callback := arg(args, 1).AsObject()
	if callback == nil || callback.AsExecutable() == nil {
		return Bool(false), nil
	}
	this.Base().SetWatcher(act, name, callback, arg(args, 2))
	return Bool(true), nil
}

func objectUnwatch(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	return Bool(this.Base().RemoveWatcher(act, name)), nil
}

func objectRegisterClass(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	ctor := arg(args, 1).AsObject()
	if ctor == nil {
		return Bool(false), nil
	}
	if act.avm.registeredClasses == nil {
		act.avm.registeredClasses = make(map[string]Object)
	}
	act.avm.registeredClasses[name] = ctor
	return Bool(true), nil
}

// ---------------------------------------------------------------------------
// Function
// ---------------------------------------------------------------------------

func functionFunction(act *Activation, this Object, args []Value) (Value, error) {
	if obj := arg(args, 0).AsObject(); obj != nil {
		return ObjectValue(obj), nil
	}
	return ObjectValue(this), nil
}

func defineFunctionMethods(proto *ScriptObject) {
	defineMethods(proto, proto, DontEnum|DontDelete, map[string]NativeFunction{
		"call":  functionCall,
		"apply": functionApply,
	})
}

// callThis is the receiver for call and apply: objects are used as they
// are, anything else means the global object.
func callThis(act *Activation, v Value) Object {
	if obj := v.AsObject(); obj != nil {
		return obj
	}
	return act.avm.globals
}

func functionCall(act *Activation, this Object, args []Value) (Value, error) {
	var rest []Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return this.Call(act, callThis(act, arg(args, 0)), nil, rest)
}

func functionApply(act *Activation, this Object, args []Value) (Value, error) {
	var callArgs []Value
	if list := arg(args, 1).AsObject(); list != nil {
		var err error
		if callArgs, err = elements(act, list); err != nil {
			return Undefined, err
		}
	}
	return this.Call(act, callThis(act, arg(args, 0)), nil, callArgs)
}
