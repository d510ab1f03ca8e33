package avm2

import (
	"fmt"

	"github.com/chazu/avm/display"
)

// maxPrototypeDepth bounds prototype walks.
const maxPrototypeDepth = 255

// ScriptObject is the plain object every variant embeds: dynamic
// properties and trait bindings in a PropertyMap, a slot vector, a
// prototype and the class it was constructed from.
type ScriptObject struct {
	values *PropertyMap
	slots  []Value
	proto  Object
	class  *ClassObject
}

// NewScriptObject creates an object with the given prototype and class.
// Either may be nil.
func NewScriptObject(proto Object, class *ClassObject) *ScriptObject {
	return &ScriptObject{values: NewPropertyMap(), proto: proto, class: class}
}

// NewPlainObject creates an instance of Object.
func NewPlainObject(act *Activation) *ScriptObject {
	c := act.avm.classes
	return NewScriptObject(c.Object.prototype, c.Object)
}

func (o *ScriptObject) Base() *ScriptObject      { return o }
func (o *ScriptObject) Proto() Object            { return o.proto }
func (o *ScriptObject) SetProto(p Object)        { o.proto = p }
func (o *ScriptObject) InstanceOf() *ClassObject { return o.class }
func (o *ScriptObject) Values() *PropertyMap     { return o.values }

func (o *ScriptObject) AsClass() *ClassObject                  { return nil }
func (o *ScriptObject) AsFunction() *FunctionObject            { return nil }
func (o *ScriptObject) AsEvent() *Event                        { return nil }
func (o *ScriptObject) AsDispatch() *DispatchList              { return nil }
func (o *ScriptObject) AsArray() *ArrayObject                  { return nil }
func (o *ScriptObject) AsPrimitive() (Value, bool)             { return Undefined, false }
func (o *ScriptObject) AsDisplayObject() display.DisplayObject { return nil }

func (o *ScriptObject) HasOwnProperty(name string) bool {
	_, ok := o.values.Get(name)
	return ok
}

// DefineValue installs a stored property with the given attributes.
func (o *ScriptObject) DefineValue(name string, v Value, attrs Attribute) {
	o.values.Insert(name, &Property{kind: propStored, value: v, attributes: attrs})
}

// ---------------------------------------------------------------------------
// Slots
// ---------------------------------------------------------------------------

// GetSlot reads slot id. Slot ids start at 1.
func (o *ScriptObject) GetSlot(id uint32) (Value, bool) {
	if id == 0 || int(id) >= len(o.slots) {
		return Undefined, false
	}
	return o.slots[id], true
}

// SetSlot writes slot id.
func (o *ScriptObject) SetSlot(id uint32, v Value) bool {
	if id == 0 || int(id) >= len(o.slots) {
		return false
	}
	o.slots[id] = v
	return true
}

// SlotCount returns the number of usable slots.
func (o *ScriptObject) SlotCount() int {
	return max(len(o.slots)-1, 0)
}

func (o *ScriptObject) ensureSlots(n uint32) {
	if int(n) >= len(o.slots) {
		o.slots = append(o.slots, make([]Value, int(n)+1-len(o.slots))...)
	}
}

// ---------------------------------------------------------------------------
// Property access
// ---------------------------------------------------------------------------

func (o *ScriptObject) GetLocal(act *Activation, name string, this Object) (ReturnValue, bool, error) {
	if p, ok := o.values.Get(name); ok {
		return p.Get(o, this), true, nil
	}
	if o.proto != nil {
		return o.proto.GetLocal(act, name, this)
	}
	return Immediate(Undefined), false, nil
}

func (o *ScriptObject) SetLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error) {
	if p, ok := o.values.Get(name); ok {
		if id, isSlot := p.SlotID(); isSlot {
			if p.attributes&ReadOnly == 0 {
				o.SetSlot(id, v)
			}
			return Immediate(Undefined), nil
		}
		return p.Set(this, v), nil
	}
	if o.class != nil && o.class.IsSealed() {
		return Immediate(Undefined), ReferenceError(act, 1056,
			fmt.Sprintf("Cannot create property %s on %s.", name, o.class.Name()))
	}
	o.values.Insert(name, NewDynamicProperty(v))
	return Immediate(Undefined), nil
}

func (o *ScriptObject) InitLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error) {
	if p, ok := o.values.Get(name); ok {
		if id, isSlot := p.SlotID(); isSlot {
			o.SetSlot(id, v)
			return Immediate(Undefined), nil
		}
		return p.Init(this, v), nil
	}
	return o.SetLocal(act, name, v, this)
}

func (o *ScriptObject) DeleteLocal(act *Activation, name string) bool {
	p, ok := o.values.Get(name)
	if !ok {
		return true
	}
	if !p.CanDelete() {
		return false
	}
	o.values.Remove(name)
	return true
}

// Keys returns the dynamic properties. Trait bindings are not enumerable.
func (o *ScriptObject) Keys() []string {
	var keys []string
	for _, k := range o.values.Keys() {
		p, _ := o.values.Get(k)
		if p.kind == propStored && p.attributes&DontDelete == 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

func (o *ScriptObject) Call(act *Activation, this Object, args []Value) (Value, error) {
	return Undefined, TypeError(act, 1006, "value is not a function.")
}

func (o *ScriptObject) Construct(act *Activation, args []Value) (Object, error) {
	return nil, TypeError(act, 1007, "Instantiation attempted on a non-constructor.")
}

// ---------------------------------------------------------------------------
// PrimitiveObject
// ---------------------------------------------------------------------------

// PrimitiveObject boxes a primitive. The operand stack unboxes it again on
// push.
type PrimitiveObject struct {
	*ScriptObject
	value Value
}

// NewPrimitiveObject boxes v as an instance of its class.
func NewPrimitiveObject(act *Activation, v Value) *PrimitiveObject {
	class := act.avm.classes.Object
	switch v.kind {
	case KindBool:
		class = act.avm.classes.Boolean
	case KindNumber:
		class = act.avm.classes.Number
	case KindString:
		class = act.avm.classes.String
	}
	return &PrimitiveObject{ScriptObject: NewScriptObject(class.prototype, class), value: v}
}

func (p *PrimitiveObject) AsPrimitive() (Value, bool) { return p.value, true }

func (p *PrimitiveObject) GetLocal(act *Activation, name string, this Object) (ReturnValue, bool, error) {
	if name == "length" && p.value.kind == KindString {
		return Immediate(Number(float64(utf16Len(p.value.s)))), true, nil
	}
	return p.ScriptObject.GetLocal(act, name, this)
}

// SetLocal ignores writes: primitives have no own properties.
func (p *PrimitiveObject) SetLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error) {
	return Immediate(Undefined), nil
}
