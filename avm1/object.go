package avm1

import "strconv"

// maxPrototypeDepth bounds every walk of a prototype chain.
const maxPrototypeDepth = 255

// Object is the capability set shared by every script object. Variants
// embed *ScriptObject and override the operations whose behavior differs.
//
// Methods that observe or mutate properties take the running activation:
// it supplies the file version (case sensitivity) and is the only place
// script code may be re-entered from.
type Object interface {
	// Base returns the generic property storage of the object.
	Base() *ScriptObject

	// GetLocal looks name up on this object only. The result may be a
	// deferred getter call bound to this.
	GetLocal(act *Activation, name string, this Object) (ReturnValue, bool)

	// SetLocal assigns name on this object, running watchers and setters.
	SetLocal(act *Activation, name string, value Value, this Object, baseProto Object) error

	// Delete removes an own property. It fails on DontDelete.
	Delete(act *Activation, name string) bool

	// Call invokes the object as a function. Non-functions return Undefined.
	Call(act *Activation, this Object, baseProto Object, args []Value) (Value, error)

	// CreateBareObject creates an instance whose prototype is this, of the
	// concrete type that instances of this prototype have.
	CreateBareObject(act *Activation, this Object) (Object, error)

	// AsExecutable returns the code of a function object, or nil.
	AsExecutable() Executable

	TypeOf() string
	GetKeys(act *Activation) []string
	HasOwnProperty(act *Activation, name string) bool

	Length(act *Activation) (int32, error)
	SetLength(act *Activation, n int32) error
	HasElement(act *Activation, i int32) bool
	GetElement(act *Activation, i int32) (Value, error)
	SetElement(act *Activation, i int32, v Value) error
	DeleteElement(act *Activation, i int32) bool
}

// ---------------------------------------------------------------------------
// ReturnValue: deferred getter and setter calls
// ---------------------------------------------------------------------------

// ReturnValue is the result of a property lookup. Virtual properties
// produce a call that the caller resolves once it has finished with the
// object being inspected.
type ReturnValue struct {
	value Value
	fn    Object
	this  Object
	args  []Value
}

// Immediate wraps an already computed value.
func Immediate(v Value) ReturnValue {
	return ReturnValue{value: v}
}

func deferredCall(fn, this Object, args []Value) ReturnValue {
	return ReturnValue{fn: fn, this: this, args: args}
}

// IsDeferred reports whether resolving r runs script code.
func (r ReturnValue) IsDeferred() bool {
	return r.fn != nil
}

// Resolve runs the deferred call, if any, and returns the value.
func (r ReturnValue) Resolve(act *Activation) (Value, error) {
	if r.fn == nil {
		return r.value, nil
	}
	return r.fn.Call(act, r.this, nil, r.args)
}

// ---------------------------------------------------------------------------
// Generic operations
// ---------------------------------------------------------------------------

func caseSensitive(act *Activation) bool {
	return act == nil || act.IsCaseSensitive()
}

// ProtoOf returns the prototype of obj when it is an object.
func ProtoOf(obj Object) Object {
	return obj.Base().proto.AsObject()
}

// SearchPrototype looks name up on start and then along its prototype
// chain. It returns the lookup result and the object that held the
// property, which is nil when nothing did.
func SearchPrototype(act *Activation, start Object, name string, this Object) (ReturnValue, Object, error) {
	depth := 0
	for p := start; p != nil; p = ProtoOf(p) {
		if depth == maxPrototypeDepth {
			return Immediate(Undefined), nil, ErrPrototypeRecursion
		}
		if rv, ok := p.GetLocal(act, name, this); ok {
			return rv, p, nil
		}
		depth++
	}
	return Immediate(Undefined), nil, nil
}

// Get reads name from obj or its prototype chain. Missing properties read
// as Undefined.
func Get(act *Activation, obj Object, name string) (Value, error) {
	rv, _, err := SearchPrototype(act, obj, name, obj)
	if err != nil {
		return Undefined, err
	}
	return rv.Resolve(act)
}

// Set assigns name on obj.
func Set(act *Activation, obj Object, name string, v Value) error {
	return obj.SetLocal(act, name, v, obj, nil)
}

// HasProperty reports whether obj or its prototype chain defines name.
func HasProperty(act *Activation, obj Object, name string) bool {
	if name == "__proto__" {
		return !obj.Base().proto.IsNullOrUndefined()
	}
	depth := 0
	for p := obj; p != nil && depth < maxPrototypeDepth; p = ProtoOf(p) {
		if p.HasOwnProperty(act, name) {
			return true
		}
		depth++
	}
	return false
}

// CallMethod looks name up on obj and calls it with obj as this. Calling
// something that is not a function yields Undefined.
func CallMethod(act *Activation, obj Object, name string, args []Value) (Value, error) {
	if s, ok := obj.(*SuperObject); ok {
		return s.callMethod(act, name, args)
	}
	rv, holder, err := SearchPrototype(act, obj, name, obj)
	if err != nil {
		return Undefined, err
	}
	method, err := rv.Resolve(act)
	if err != nil {
		return Undefined, err
	}
	fn := method.AsObject()
	if fn == nil {
		return Undefined, nil
	}
	return fn.Call(act, obj, holder, args)
}

// IsInstanceOf reports whether the prototype of ctor appears on the
// prototype chain of obj, directly or through an implemented interface.
func IsInstanceOf(act *Activation, obj Object, ctor Object) (bool, error) {
	pv, err := Get(act, ctor, "prototype")
	if err != nil {
		return false, err
	}
	proto := pv.AsObject()
	if proto == nil {
		return false, nil
	}
	depth := 0
	for p := ProtoOf(obj); p != nil; p = ProtoOf(p) {
		if depth == maxPrototypeDepth {
			return false, ErrPrototypeRecursion
		}
		if p == proto {
			return true, nil
		}
		for _, iface := range p.Base().interfaces {
			ip, err := Get(act, iface, "prototype")
			if err != nil {
				return false, err
			}
			if ip.AsObject() == proto {
				return true, nil
			}
		}
		depth++
	}
	return false, nil
}

// Construct runs the new operator: it creates an instance from the
// constructor's prototype and calls the constructor on it.
func Construct(act *Activation, ctor Object, args []Value) (Object, error) {
	pv, err := Get(act, ctor, "prototype")
	if err != nil {
		return nil, err
	}
	proto := pv.AsObject()
	if proto == nil {
		proto = act.avm.prototypes.Object
	}
	this, err := proto.CreateBareObject(act, proto)
	if err != nil {
		return nil, err
	}
	this.Base().DefineValue("__constructor__", ObjectValue(ctor), DontEnum)
	if act.SwfVersion() < 7 {
		this.Base().DefineValue("constructor", ObjectValue(ctor), DontEnum)
	}
	if f, ok := ctor.(*FunctionObject); ok {
		_, err = f.construct(act, this, args)
	} else {
		_, err = ctor.Call(act, this, nil, args)
	}
	if err != nil {
		return nil, err
	}
	return this, nil
}

// indexName is the property name of an array index.
func indexName(i int32) string {
	return strconv.FormatInt(int64(i), 10)
}
