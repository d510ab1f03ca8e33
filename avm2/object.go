package avm2

import (
	"strings"

	"github.com/chazu/avm/display"
)

// Object is the capability every AVM2 object variant implements. Variants
// embed *ScriptObject and override only what differs.
type Object interface {
	Base() *ScriptObject

	// GetLocal resolves name on the object and its prototype chain. The
	// bool reports whether the name was found.
	GetLocal(act *Activation, name string, this Object) (ReturnValue, bool, error)
	SetLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error)
	// InitLocal is SetLocal ignoring ReadOnly.
	InitLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error)
	DeleteLocal(act *Activation, name string) bool
	HasOwnProperty(name string) bool
	// Keys lists the enumerable names in order.
	Keys() []string

	Call(act *Activation, this Object, args []Value) (Value, error)
	Construct(act *Activation, args []Value) (Object, error)

	AsClass() *ClassObject
	AsFunction() *FunctionObject
	AsEvent() *Event
	AsDispatch() *DispatchList
	AsArray() *ArrayObject
	AsPrimitive() (Value, bool)
	AsDisplayObject() display.DisplayObject
}

// IsCallable reports whether obj is a function or a class.
func IsCallable(obj Object) bool {
	return obj != nil && (obj.AsFunction() != nil || obj.AsClass() != nil)
}

// GetProperty reads name from obj, running a getter if there is one.
func GetProperty(act *Activation, obj Object, name string) (Value, error) {
	rv, _, err := obj.GetLocal(act, name, obj)
	if err != nil {
		return Undefined, err
	}
	return rv.Resolve(act)
}

// SetProperty assigns name on obj, running a setter if there is one.
func SetProperty(act *Activation, obj Object, name string, v Value) error {
	rv, err := obj.SetLocal(act, name, v, obj)
	if err != nil {
		return err
	}
	_, err = rv.Resolve(act)
	return err
}

// InitProperty assigns name on obj ignoring ReadOnly.
func InitProperty(act *Activation, obj Object, name string, v Value) error {
	rv, err := obj.InitLocal(act, name, v, obj)
	if err != nil {
		return err
	}
	_, err = rv.Resolve(act)
	return err
}

// DeleteProperty removes name from obj. It is false for DontDelete
// properties.
func DeleteProperty(act *Activation, obj Object, name string) bool {
	return obj.DeleteLocal(act, name)
}

// HasProperty reports whether name resolves on obj or its prototypes.
func HasProperty(obj Object, name string) bool {
	for o, depth := obj, 0; o != nil && depth < maxPrototypeDepth; o, depth = o.Base().proto, depth+1 {
		if o.HasOwnProperty(name) {
			return true
		}
	}
	return false
}

// CallProperty calls the method name of obj with obj as this.
func CallProperty(act *Activation, obj Object, name string, args []Value) (Value, error) {
	fn, err := GetProperty(act, obj, name)
	if err != nil {
		return Undefined, err
	}
	callee := fn.AsObject()
	if !IsCallable(callee) {
		return Undefined, TypeError(act, 1006, name+" is not a function.")
	}
	return callee.Call(act, obj, args)
}

// IsOfType reports whether obj is an instance of class, a subclass of it
// or an implementer of it.
func IsOfType(obj Object, class *ClassObject) bool {
	if obj == nil || class == nil {
		return false
	}
	for c := obj.Base().class; c != nil; c = c.super {
		if c == class || c.implements(class) {
			return true
		}
	}
	return false
}

// InstanceOf walks the prototype chain of obj looking for the prototype
// of ctor.
func InstanceOf(act *Activation, obj Object, ctor Object) (bool, error) {
	protoValue, err := GetProperty(act, ctor, "prototype")
	if err != nil {
		return false, err
	}
	proto := protoValue.AsObject()
	if proto == nil {
		return false, nil
	}
	for p, depth := obj.Base().proto, 0; p != nil && depth < maxPrototypeDepth; p, depth = p.Base().proto, depth+1 {
		if p == proto {
			return true, nil
		}
	}
	return false, nil
}

func defaultObjectString(obj Object) string {
	name := "Object"
	if c := obj.Base().class; c != nil {
		name = c.LocalName()
	}
	if c := obj.AsClass(); c != nil {
		return "[class " + c.LocalName() + "]"
	}
	if obj.AsFunction() != nil {
		return "function Function() {}"
	}
	return "[object " + name + "]"
}

// localName strips the package from a qualified class name.
func localName(qualified string) string {
	if i := strings.LastIndexAny(qualified, ".:"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
