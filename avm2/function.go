package avm2

// FunctionObject is a closure: a method, the scope chain it captured and,
// for methods bound to an instance, the receiver that replaces this.
type FunctionObject struct {
	*ScriptObject

	method   *Method
	scope    ScopeChain
	receiver Object
	// class is the class whose trait created the closure. Super lookups
	// start from its superclass.
	class *ClassObject
}

func (avm *Avm2) newFunction(m *Method, scope ScopeChain, receiver Object, class *ClassObject) *FunctionObject {
	var proto Object
	var fnClass *ClassObject
	if c := avm.classes; c != nil && c.Function != nil {
		proto, fnClass = c.Function.prototype, c.Function
	}
	f := &FunctionObject{
		ScriptObject: NewScriptObject(proto, fnClass),
		method:       m,
		scope:        scope,
		receiver:     receiver,
		class:        class,
	}
	if receiver == nil {
		var objectProto Object
		var objectClass *ClassObject
		if c := avm.classes; c != nil && c.Object != nil {
			objectProto, objectClass = c.Object.prototype, c.Object
		}
		f.DefineValue("prototype", ObjectValue(NewScriptObject(objectProto, objectClass)), DontDelete)
	}
	f.DefineValue("length", Int(int32(m.ParamCount)), ReadOnly|DontDelete)
	return f
}

// NewNativeFunction wraps fn as a callable function object.
func (avm *Avm2) NewNativeFunction(name string, fn NativeMethod) *FunctionObject {
	return avm.newFunction(NewNativeMethod(name, fn), ScopeChain{}, nil, nil)
}

func (f *FunctionObject) AsFunction() *FunctionObject { return f }
func (f *FunctionObject) Method() *Method             { return f.method }

// Receiver returns the bound this of a method closure, or nil.
func (f *FunctionObject) Receiver() Object { return f.receiver }

// Call runs the function. A bound receiver overrides this; an absent this
// becomes the global object.
func (f *FunctionObject) Call(act *Activation, this Object, args []Value) (Value, error) {
	if f.receiver != nil {
		this = f.receiver
	}
	if this == nil {
		this = act.Global()
	}
	return act.avm.callMethod(act, f.method, f.scope, this, args, f.class)
}

// Construct creates an object whose prototype is the function's
// prototype property and runs the function on it. An object result
// replaces the new object.
func (f *FunctionObject) Construct(act *Activation, args []Value) (Object, error) {
	protoValue, err := GetProperty(act, f, "prototype")
	if err != nil {
		return nil, err
	}
	obj := NewPlainObject(act)
	if proto := protoValue.AsObject(); proto != nil {
		obj.proto = proto
	}
	r, err := act.avm.callMethod(act, f.method, f.scope, obj, args, f.class)
	if err != nil {
		return nil, err
	}
	if ro := r.AsObject(); ro != nil {
		return ro, nil
	}
	return obj, nil
}
