package avm2

import (
	"fmt"
	"strings"
)

// Allocator creates the bare instance of class before traits are
// installed. Built-in classes use it to attach native payloads.
type Allocator func(class *ClassObject) Object

// ClassDef describes a class as decoded from ABC or declared natively.
// Name is qualified with its package, e.g. "flash.events.Event".
type ClassDef struct {
	Name       string
	SuperName  string
	Interfaces []string

	Sealed    bool
	Interface bool

	InstanceInit *Method
	ClassInit    *Method

	InstanceTraits []*Trait
	ClassTraits    []*Trait

	Allocator Allocator
	// CallHandler runs when the class is called as a function. The
	// default is a type coercion of the single argument.
	CallHandler NativeMethod
}

// ClassObject is a class at runtime: the constructor, its prototype, the
// laid out instance traits and the vtable.
type ClassObject struct {
	*ScriptObject

	def        *ClassDef
	super      *ClassObject
	interfaces []*ClassObject
	prototype  Object
	vtable     *VTable

	instanceTraits []*Trait
	slotCount      uint32
	scope          ScopeChain
}

// NewClass creates the class described by def. Instance slots are numbered
// after the ones super already uses, and the class initializer runs
// before NewClass returns.
func NewClass(act *Activation, def *ClassDef, super *ClassObject, scope ScopeChain) (*ClassObject, error) {
	avm := act.avm
	var classProto Object
	var classClass *ClassObject
	if c := avm.classes; c != nil && c.Class != nil {
		classProto, classClass = c.Class.prototype, c.Class
	}
	cls := &ClassObject{
		ScriptObject: NewScriptObject(classProto, classClass),
		def:          def,
		super:        super,
	}

	var superProto Object
	var superTable *VTable
	var firstSlot uint32
	if super != nil {
		superProto, superTable, firstSlot = super.prototype, super.vtable, super.slotCount
	}
	var objectClass *ClassObject
	if c := avm.classes; c != nil {
		objectClass = c.Object
	}
	proto := NewScriptObject(superProto, objectClass)
	if objectClass == nil {
		// Object itself: its prototype is an instance of it.
		proto.class = cls
	}
	cls.prototype = proto
	cls.DefineValue("prototype", ObjectValue(proto), ReadOnly|DontDelete)
	proto.DefineValue("constructor", ObjectValue(cls), DontDelete)

	for _, name := range def.Interfaces {
		iface, err := avm.lookupClass(act, name)
		if err != nil {
			return nil, err
		}
		cls.interfaces = append(cls.interfaces, iface)
	}

	cls.vtable = NewVTable(cls, superTable)
	var err error
	cls.instanceTraits, cls.slotCount, err = layoutTraits(act, def.InstanceTraits, firstSlot, cls.vtable)
	if err != nil {
		return nil, err
	}
	cls.scope = scope.Chain(Scope{values: cls})

	static, _, err := layoutTraits(act, def.ClassTraits, 0, nil)
	if err != nil {
		return nil, err
	}
	installTraits(avm, cls, static, cls.scope, cls)

	if def.ClassInit != nil {
		if _, err := avm.callMethod(act, def.ClassInit, cls.scope, cls, nil, cls); err != nil {
			return nil, fmt.Errorf("class initializer of %s: %w", def.Name, err)
		}
	}
	log.Debugf("defined class %s with %d slots", def.Name, cls.slotCount)
	return cls, nil
}

func (c *ClassObject) AsClass() *ClassObject { return c }
func (c *ClassObject) Def() *ClassDef        { return c.def }
func (c *ClassObject) Name() string          { return c.def.Name }
func (c *ClassObject) Super() *ClassObject   { return c.super }
func (c *ClassObject) Prototype() Object     { return c.prototype }
func (c *ClassObject) VTable() *VTable       { return c.vtable }
func (c *ClassObject) IsSealed() bool        { return c.def.Sealed }
func (c *ClassObject) IsInterface() bool     { return c.def.Interface }

// SlotCount returns the number of instance slots including inherited
// ones.
func (c *ClassObject) SlotCount() uint32 { return c.slotCount }

// LocalName returns the class name without its package.
func (c *ClassObject) LocalName() string {
	return localName(c.def.Name)
}

// IsSubclassOf returns true if c is other or inherits from it.
func (c *ClassObject) IsSubclassOf(other *ClassObject) bool {
	for k := c; k != nil; k = k.super {
		if k == other {
			return true
		}
	}
	return false
}

// implements reports whether c declares iface, directly or through the
// interfaces it extends.
func (c *ClassObject) implements(iface *ClassObject) bool {
	for _, i := range c.interfaces {
		if i == iface || i.implements(iface) {
			return true
		}
	}
	return false
}

// InstanceTrait finds the laid out instance trait name of kind, searching
// superclasses.
func (c *ClassObject) InstanceTrait(name string, kind TraitKind) (*Trait, *ClassObject) {
	for k := c; k != nil; k = k.super {
		for i := len(k.instanceTraits) - 1; i >= 0; i-- {
			if t := k.instanceTraits[i]; t.Name == name && t.Kind == kind {
				return t, k
			}
		}
	}
	return nil, nil
}

func (c *ClassObject) String() string {
	return "[class " + c.LocalName() + "]"
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Construct allocates an instance, installs the instance traits of every
// class in the chain root first, then runs the instance initializer.
func (c *ClassObject) Construct(act *Activation, args []Value) (Object, error) {
	if c.def.Interface {
		return nil, TypeError(act, 1007, "Instantiation attempted on a non-constructor.")
	}
	obj := c.allocate()
	c.installInstanceTraits(act.avm, obj)
	if err := c.initInstance(act, obj, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// NewInstance returns a bare instance with traits installed and no
// initializer run. Host code uses it to wrap native objects.
func (c *ClassObject) NewInstance(avm *Avm2) Object {
	obj := c.allocate()
	c.installInstanceTraits(avm, obj)
	return obj
}

func (c *ClassObject) allocate() Object {
	for k := c; k != nil; k = k.super {
		if k.def.Allocator != nil {
			return k.def.Allocator(c)
		}
	}
	return c.newBase()
}

// newBase creates the plain object an allocator wraps.
func (c *ClassObject) newBase() *ScriptObject {
	return NewScriptObject(c.prototype, c)
}

func (c *ClassObject) installInstanceTraits(avm *Avm2, obj Object) {
	var chain []*ClassObject
	for k := c; k != nil; k = k.super {
		chain = append(chain, k)
	}
	obj.Base().ensureSlots(c.slotCount)
	for i := len(chain) - 1; i >= 0; i-- {
		k := chain[i]
		installTraits(avm, obj, k.instanceTraits, k.scope, k)
	}
}

// initInstance runs the instance initializer of c. A class without one
// runs its superclass initializer with the same arguments.
func (c *ClassObject) initInstance(act *Activation, obj Object, args []Value) error {
	if c.def.InstanceInit == nil {
		if c.super != nil {
			return c.super.initInstance(act, obj, args)
		}
		return nil
	}
	_, err := act.avm.callMethod(act, c.def.InstanceInit, c.scope, obj, args, c)
	return err
}

// Call coerces its single argument to the class.
func (c *ClassObject) Call(act *Activation, this Object, args []Value) (Value, error) {
	if c.def.CallHandler != nil {
		return act.avm.callMethod(act, NewNativeMethod(c.def.Name, c.def.CallHandler), c.scope, this, args, c)
	}
	if len(args) != 1 {
		return Undefined, ArgumentError(act, 1112,
			fmt.Sprintf("Argument count mismatch on class coercion.  Expected 1, got %d.", len(args)))
	}
	v := args[0]
	if v.IsNullOrUndefined() || isType(v, c) {
		return v, nil
	}
	return Undefined, TypeError(act, 1034,
		fmt.Sprintf("Type Coercion failed: cannot convert %s to %s.", describe(act, v), c.def.Name))
}

// ---------------------------------------------------------------------------
// Type tests
// ---------------------------------------------------------------------------

// isType implements the is operator for v against class.
func isType(v Value, class *ClassObject) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindObject:
		if prim, ok := v.obj.AsPrimitive(); ok {
			return isType(prim, class)
		}
		return IsOfType(v.obj, class)
	}
	switch class.def.Name {
	case "Object":
		return true
	case "Number":
		return v.kind == KindNumber
	case "int":
		return v.kind == KindNumber && v.n == float64(int32(v.n))
	case "uint":
		return v.kind == KindNumber && v.n >= 0 && v.n == float64(uint32(v.n))
	case "String":
		return v.kind == KindString
	case "Boolean":
		return v.kind == KindBool
	}
	return false
}

func describe(act *Activation, v Value) string {
	if obj := v.AsObject(); obj != nil {
		return defaultObjectString(obj)
	}
	s, err := v.ToString(act)
	if err != nil {
		return v.TypeOf()
	}
	if v.kind == KindString {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
