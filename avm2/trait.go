package avm2

import (
	"fmt"
	"math"
)

// TraitKind selects how a trait binds its name.
type TraitKind uint8

const (
	TraitSlot TraitKind = iota
	TraitConst
	TraitMethod
	TraitGetter
	TraitSetter
	TraitClass
	TraitFunction
)

func (k TraitKind) String() string {
	switch k {
	case TraitSlot:
		return "slot"
	case TraitConst:
		return "const"
	case TraitMethod:
		return "method"
	case TraitGetter:
		return "getter"
	case TraitSetter:
		return "setter"
	case TraitClass:
		return "class"
	case TraitFunction:
		return "function"
	}
	return "unknown"
}

// Trait is one fixed binding of a class, script or activation. A zero
// SlotID or DispID is assigned when the owning class is laid out.
type Trait struct {
	Name     string
	Kind     TraitKind
	SlotID   uint32
	DispID   int
	TypeName string

	Default    Value
	HasDefault bool

	// Method backs method, getter, setter and function traits.
	Method *Method
	// Class indexes AbcFile.Classes for class traits.
	Class int
}

func NewSlotTrait(name, typeName string) *Trait {
	return &Trait{Name: name, Kind: TraitSlot, TypeName: typeName}
}

func NewConstTrait(name string, v Value) *Trait {
	return &Trait{Name: name, Kind: TraitConst, Default: v, HasDefault: true}
}

func NewMethodTrait(name string, m *Method) *Trait {
	return &Trait{Name: name, Kind: TraitMethod, Method: m}
}

func NewGetterTrait(name string, m *Method) *Trait {
	return &Trait{Name: name, Kind: TraitGetter, Method: m}
}

func NewSetterTrait(name string, m *Method) *Trait {
	return &Trait{Name: name, Kind: TraitSetter, Method: m}
}

func (t *Trait) isSlot() bool {
	switch t.Kind {
	case TraitSlot, TraitConst, TraitClass, TraitFunction:
		return true
	}
	return false
}

// defaultValue is the initial slot value: the declared default, or the
// zero value of the declared type.
func (t *Trait) defaultValue() Value {
	if t.HasDefault {
		return t.Default
	}
	switch t.TypeName {
	case "", "*":
		return Undefined
	case "int", "uint":
		return Int(0)
	case "Number":
		return Number(math.NaN())
	case "Boolean":
		return Bool(false)
	}
	return Null
}

// vtableKey keeps getters, setters and methods of one name apart.
func (t *Trait) vtableKey() string {
	switch t.Kind {
	case TraitGetter:
		return "get " + t.Name
	case TraitSetter:
		return "set " + t.Name
	}
	return t.Name
}

// layoutTraits copies traits, numbering slots after the firstSlot
// inherited ones and registering methods in vt. It returns the laid out
// traits and the highest slot id in use. An explicit slot id past
// firstSlot+len(traits) is a VerifyError.
func layoutTraits(act *Activation, traits []*Trait, firstSlot uint32, vt *VTable) ([]*Trait, uint32, error) {
	limit := firstSlot + uint32(len(traits))
	highest := firstSlot
	for _, t := range traits {
		if !t.isSlot() || t.SlotID == 0 {
			continue
		}
		if t.SlotID > limit {
			return nil, 0, VerifyError(act, 1026,
				fmt.Sprintf("Slot %d exceeds slotCount=%d of %s.", t.SlotID, limit, t.Name))
		}
		highest = max(highest, t.SlotID)
	}
	out := make([]*Trait, 0, len(traits))
	for _, t := range traits {
		laid := *t
		switch {
		case laid.isSlot():
			if laid.SlotID == 0 {
				highest++
				laid.SlotID = highest
			}
		case vt != nil && laid.Method != nil:
			laid.DispID = vt.Define(laid.vtableKey(), laid.DispID, laid.Method)
		}
		out = append(out, &laid)
	}
	return out, highest, nil
}

// installTraits binds traits on obj. Methods and accessors become closures
// over scope with obj as receiver.
func installTraits(avm *Avm2, obj Object, traits []*Trait, scope ScopeChain, class *ClassObject) {
	base := obj.Base()
	for _, t := range traits {
		switch t.Kind {
		case TraitSlot, TraitConst, TraitClass, TraitFunction:
			base.ensureSlots(t.SlotID)
			p := NewSlot(t.SlotID)
			if t.Kind == TraitConst {
				p.attributes |= ReadOnly
			}
			base.values.Insert(t.Name, p)
			v := t.defaultValue()
			if t.Kind == TraitFunction && t.Method != nil {
				v = ObjectValue(avm.newFunction(t.Method, scope, nil, nil))
			}
			base.slots[t.SlotID] = v
		case TraitMethod:
			fn := avm.newFunction(t.Method, scope, obj, class)
			base.values.Insert(t.Name, NewMethod(fn))
		case TraitGetter, TraitSetter:
			p, ok := base.values.Get(t.Name)
			if !ok || !p.IsVirtual() {
				p = NewVirtual()
				base.values.Insert(t.Name, p)
			}
			fn := avm.newFunction(t.Method, scope, obj, class)
			if t.Kind == TraitGetter {
				_ = p.InstallVirtualGetter(fn)
			} else {
				_ = p.InstallVirtualSetter(fn)
			}
		}
	}
}
