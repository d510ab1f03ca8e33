package avm1

import (
	"math"
	"strconv"
)

type watcher struct {
	name     string
	callback Object
	userData Value
}

// ScriptObject is a plain object with ordered properties, a prototype and
// optional watchers. Every other object type embeds one.
type ScriptObject struct {
	proto      Value
	values     *PropertyMap
	interfaces []Object
	watchers   []watcher
	typeOf     string
}

// NewScriptObject creates an empty object. A nil proto leaves the
// prototype undefined.
func NewScriptObject(proto Object) *ScriptObject {
	o := &ScriptObject{values: NewPropertyMap(), typeOf: "object"}
	if proto != nil {
		o.proto = ObjectValue(proto)
	}
	return o
}

func (o *ScriptObject) Base() *ScriptObject      { return o }
func (o *ScriptObject) Proto() Value             { return o.proto }
func (o *ScriptObject) SetProto(p Value)         { o.proto = p }
func (o *ScriptObject) TypeOf() string           { return o.typeOf }
func (o *ScriptObject) SetTypeOf(t string)       { o.typeOf = t }
func (o *ScriptObject) AsExecutable() Executable { return nil }
func (o *ScriptObject) Interfaces() []Object     { return o.interfaces }
func (o *ScriptObject) SetInterfaces(i []Object) { o.interfaces = i }
func (o *ScriptObject) Properties() *PropertyMap { return o.values }

// ---------------------------------------------------------------------------
// Property access
// ---------------------------------------------------------------------------

func (o *ScriptObject) GetLocal(act *Activation, name string, this Object) (ReturnValue, bool) {
	if name == "__proto__" {
		return Immediate(o.proto), true
	}
	p, ok := o.values.Get(name, caseSensitive(act))
	if !ok {
		return Immediate(Undefined), false
	}
	if p.virtual {
		if p.getter == nil {
			return Immediate(Undefined), true
		}
		return deferredCall(p.getter, this, nil), true
	}
	return Immediate(p.value), true
}

// SetLocal runs a matching watcher first, then writes through an own or
// inherited setter, an own writable value, or creates a new property.
func (o *ScriptObject) SetLocal(act *Activation, name string, value Value, this Object, baseProto Object) error {
	if name == "__proto__" {
		o.proto = value
		return nil
	}
	cs := caseSensitive(act)

	if w, ok := o.watcher(name, cs); ok {
		old, err := Get(act, this, name)
		if err != nil {
			return err
		}
		value, err = w.callback.Call(act, this, nil, []Value{String(name), old, value, w.userData})
		if err != nil {
			return err
		}
	}

	if p, ok := o.values.Get(name, cs); ok {
		if p.virtual {
			if p.setter != nil {
				_, err := deferredCall(p.setter, this, []Value{value}).Resolve(act)
				return err
			}
			return nil
		}
		if !p.IsReadOnly() {
			p.value = value
		}
		return nil
	}

	depth := 0
	for proto := o.proto.AsObject(); proto != nil && depth < maxPrototypeDepth; proto = ProtoOf(proto) {
		p, ok := proto.Base().values.Get(name, cs)
		if ok {
			if p.virtual {
				if p.setter != nil {
					_, err := deferredCall(p.setter, this, []Value{value}).Resolve(act)
					return err
				}
				return nil
			}
			break
		}
		depth++
	}

	o.values.Insert(name, StoredProperty(value, 0), cs)
	return nil
}

func (o *ScriptObject) Delete(act *Activation, name string) bool {
	cs := caseSensitive(act)
	p, ok := o.values.Get(name, cs)
	if !ok || !p.CanDelete() {
		return false
	}
	o.values.Remove(name, cs)
	o.RemoveWatcher(act, name)
	return true
}

func (o *ScriptObject) Call(act *Activation, this Object, baseProto Object, args []Value) (Value, error) {
	return Undefined, nil
}

func (o *ScriptObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	return NewScriptObject(this), nil
}

func (o *ScriptObject) HasOwnProperty(act *Activation, name string) bool {
	if name == "__proto__" {
		return true
	}
	return o.values.Contains(name, caseSensitive(act))
}

// HasOwnVirtual reports whether name is an own getter/setter property.
func (o *ScriptObject) HasOwnVirtual(act *Activation, name string) bool {
	p, ok := o.values.Get(name, caseSensitive(act))
	return ok && p.virtual
}

// IsPropertyEnumerable reports whether name is an own enumerable property.
func (o *ScriptObject) IsPropertyEnumerable(act *Activation, name string) bool {
	p, ok := o.values.Get(name, caseSensitive(act))
	return ok && p.IsEnumerable()
}

// GetKeys lists enumerable names, prototype keys first, then own keys in
// insertion order. Prototype keys shadowed by an own property are dropped.
func (o *ScriptObject) GetKeys(act *Activation) []string {
	cs := caseSensitive(act)
	chain := []*ScriptObject{o}
	for p := o.proto.AsObject(); p != nil && len(chain) < maxPrototypeDepth; p = ProtoOf(p) {
		chain = append(chain, p.Base())
	}

	var keys []string
	for i := len(chain) - 1; i >= 0; i-- {
		level := chain[i]
		kept := keys[:0]
		for _, k := range keys {
			if !level.values.Contains(k, cs) {
				kept = append(kept, k)
			}
		}
		keys = kept
		level.values.Each(func(name string, p *Property) bool {
			if p.IsEnumerable() {
				keys = append(keys, name)
			}
			return true
		})
	}
	return keys
}

// ---------------------------------------------------------------------------
// Definition and attributes
// ---------------------------------------------------------------------------

// DefineValue sets name directly, ignoring watchers, setters and ReadOnly.
func (o *ScriptObject) DefineValue(name string, v Value, attrs Attribute) {
	o.values.Insert(name, StoredProperty(v, attrs), true)
}

func (o *ScriptObject) define(act *Activation, name string, v Value, attrs Attribute) {
	o.values.Insert(name, StoredProperty(v, attrs), caseSensitive(act))
}

// AddProperty installs a virtual property. It fails when name is empty or
// getter is nil, like Object.prototype.addProperty.
func (o *ScriptObject) AddProperty(act *Activation, name string, getter, setter Object, attrs Attribute) bool {
	if name == "" || getter == nil {
		return false
	}
	o.values.Insert(name, VirtualProperty(getter, setter, attrs), caseSensitive(act))
	return true
}

// SetAttributes adds set and removes clear on name, or on every property
// when name is nil.
func (o *ScriptObject) SetAttributes(act *Activation, name *string, set, clear Attribute) {
	apply := func(p *Property) {
		p.attributes = (p.attributes &^ clear) | set
	}
	if name == nil {
		o.values.Each(func(_ string, p *Property) bool {
			apply(p)
			return true
		})
		return
	}
	if p, ok := o.values.Get(*name, caseSensitive(act)); ok {
		apply(p)
	}
}

// ---------------------------------------------------------------------------
// Watchers
// ---------------------------------------------------------------------------

func (o *ScriptObject) watcher(name string, cs bool) (watcher, bool) {
	for _, w := range o.watchers {
		if w.name == name {
			return w, true
		}
	}
	if !cs {
		f := fold(name)
		for _, w := range o.watchers {
			if fold(w.name) == f {
				return w, true
			}
		}
	}
	return watcher{}, false
}

// SetWatcher registers callback to run whenever name is assigned.
func (o *ScriptObject) SetWatcher(act *Activation, name string, callback Object, userData Value) {
	o.RemoveWatcher(act, name)
	o.watchers = append(o.watchers, watcher{name: name, callback: callback, userData: userData})
}

// RemoveWatcher unregisters the watcher on name.
func (o *ScriptObject) RemoveWatcher(act *Activation, name string) bool {
	cs := caseSensitive(act)
	f := fold(name)
	for i, w := range o.watchers {
		if w.name == name || (!cs && fold(w.name) == f) {
			o.watchers = append(o.watchers[:i], o.watchers[i+1:]...)
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Array-like access through named properties
// ---------------------------------------------------------------------------

func (o *ScriptObject) Length(act *Activation) (int32, error) {
	v, err := Get(act, o, "length")
	if err != nil {
		return 0, err
	}
	return v.ToInt32(act)
}

func (o *ScriptObject) SetLength(act *Activation, n int32) error {
	return o.SetLocal(act, "length", Number(float64(n)), o, nil)
}

func (o *ScriptObject) HasElement(act *Activation, i int32) bool {
	return o.HasOwnProperty(act, indexName(i))
}

func (o *ScriptObject) GetElement(act *Activation, i int32) (Value, error) {
	return Get(act, o, indexName(i))
}

func (o *ScriptObject) SetElement(act *Activation, i int32, v Value) error {
	return o.SetLocal(act, indexName(i), v, o, nil)
}

func (o *ScriptObject) DeleteElement(act *Activation, i int32) bool {
	return o.Delete(act, indexName(i))
}

// parseIndex returns the array index named by name, if it is one. The
// largest index is math.MaxInt32-1 so that length stays an int32.
func parseIndex(name string) (int32, bool) {
	if name == "" || name[0] < '0' || name[0] > '9' || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseInt(name, 10, 32)
	if err != nil || n < 0 || n == math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}
