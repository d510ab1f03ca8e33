package avm2

import (
	"errors"
	"slices"
)

// Attribute flags gate assignment and deletion.
type Attribute uint8

const (
	DontDelete Attribute = 1 << iota
	ReadOnly
)

type propertyKind uint8

const (
	propStored propertyKind = iota
	propVirtual
	propSlot
)

var errNotVirtual = errors.New("avm2: not a virtual property")

// Property is a stored value, a virtual getter/setter pair or a reference
// to a slot of the owning object.
type Property struct {
	kind       propertyKind
	value      Value
	get        Object
	set        Object
	slotID     uint32
	attributes Attribute
}

// NewStored creates a stored property that cannot be deleted.
func NewStored(v Value) *Property {
	return &Property{kind: propStored, value: v, attributes: DontDelete}
}

// NewConst creates a read-only stored property.
func NewConst(v Value) *Property {
	return &Property{kind: propStored, value: v, attributes: ReadOnly | DontDelete}
}

// NewDynamicProperty creates the property a script assignment creates.
func NewDynamicProperty(v Value) *Property {
	return &Property{kind: propStored, value: v}
}

// NewMethod stores a method closure.
func NewMethod(fn Object) *Property {
	return &Property{kind: propStored, value: ObjectValue(fn), attributes: ReadOnly | DontDelete}
}

// NewVirtual creates an accessor property with neither accessor installed.
func NewVirtual() *Property {
	return &Property{kind: propVirtual, attributes: ReadOnly | DontDelete}
}

// NewSlot creates a property backed by slot id of the owning object.
func NewSlot(id uint32) *Property {
	return &Property{kind: propSlot, slotID: id, attributes: DontDelete}
}

func (p *Property) Attributes() Attribute { return p.attributes }
func (p *Property) IsVirtual() bool       { return p.kind == propVirtual }
func (p *Property) CanDelete() bool       { return p.attributes&DontDelete == 0 }

// SlotID returns the slot index of a slot property.
func (p *Property) SlotID() (uint32, bool) {
	return p.slotID, p.kind == propSlot
}

// InstallVirtualGetter sets the getter of a virtual property.
func (p *Property) InstallVirtualGetter(fn Object) error {
	if p.kind != propVirtual {
		return errNotVirtual
	}
	p.get = fn
	return nil
}

// InstallVirtualSetter sets the setter of a virtual property.
func (p *Property) InstallVirtualSetter(fn Object) error {
	if p.kind != propVirtual {
		return errNotVirtual
	}
	p.set = fn
	return nil
}

// IsOverwritable reports whether an assignment can change the property.
// A virtual property needs a setter.
func (p *Property) IsOverwritable() bool {
	if p.kind == propVirtual {
		return p.set != nil
	}
	return p.attributes&ReadOnly == 0
}

// Get reads the property of holder. Getters are deferred to the caller.
func (p *Property) Get(holder Object, this Object) ReturnValue {
	switch p.kind {
	case propVirtual:
		if p.get == nil {
			return Immediate(Undefined)
		}
		return deferredCall(p.get, this, nil)
	case propSlot:
		v, _ := holder.Base().GetSlot(p.slotID)
		return Immediate(v)
	}
	return Immediate(p.value)
}

// Set assigns v. Stored read-only properties keep their value; slots are
// written by the owning object.
func (p *Property) Set(this Object, v Value) ReturnValue {
	switch p.kind {
	case propVirtual:
		if p.set == nil {
			return Immediate(Undefined)
		}
		return deferredCall(p.set, this, []Value{v})
	case propStored:
		if p.attributes&ReadOnly == 0 {
			p.value = v
		}
	}
	return Immediate(Undefined)
}

// Init assigns v ignoring ReadOnly.
func (p *Property) Init(this Object, v Value) ReturnValue {
	switch p.kind {
	case propVirtual:
		if p.set == nil {
			return Immediate(Undefined)
		}
		return deferredCall(p.set, this, []Value{v})
	case propStored:
		p.value = v
	}
	return Immediate(Undefined)
}

// ---------------------------------------------------------------------------
// ReturnValue
// ---------------------------------------------------------------------------

// ReturnValue is either an immediate value or a call the caller must make
// to obtain it. Deferring getters and setters keeps re-entry into the
// interpreter under the caller's control.
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

// IsDeferred reports whether Resolve will run code.
func (r ReturnValue) IsDeferred() bool {
	return r.fn != nil
}

// Resolve runs a deferred call, or returns the immediate value.
func (r ReturnValue) Resolve(act *Activation) (Value, error) {
	if r.fn == nil {
		return r.value, nil
	}
	return r.fn.Call(act, r.this, r.args)
}

// ---------------------------------------------------------------------------
// PropertyMap
// ---------------------------------------------------------------------------

// PropertyMap keeps properties in insertion order.
type PropertyMap struct {
	keys  []string
	props map[string]*Property
}

func NewPropertyMap() *PropertyMap {
	return &PropertyMap{props: make(map[string]*Property)}
}

func (m *PropertyMap) Get(name string) (*Property, bool) {
	p, ok := m.props[name]
	return p, ok
}

// Insert adds or replaces name. A replaced name keeps its position.
func (m *PropertyMap) Insert(name string, p *Property) {
	if _, ok := m.props[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.props[name] = p
}

func (m *PropertyMap) Remove(name string) {
	if _, ok := m.props[name]; !ok {
		return
	}
	delete(m.props, name)
	if i := slices.Index(m.keys, name); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Keys returns the names in insertion order.
func (m *PropertyMap) Keys() []string {
	return slices.Clone(m.keys)
}

func (m *PropertyMap) Len() int { return len(m.keys) }
