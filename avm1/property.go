package avm1

import (
	"golang.org/x/text/cases"
)

// Attribute flags gate enumeration, deletion and assignment of a property.
type Attribute uint8

const (
	DontEnum Attribute = 1 << iota
	DontDelete
	ReadOnly

	attributeMask = DontEnum | DontDelete | ReadOnly
)

// Property is either a stored value or a virtual getter/setter pair.
type Property struct {
	value      Value
	getter     Object
	setter     Object
	virtual    bool
	attributes Attribute
}

// StoredProperty returns a plain value property.
func StoredProperty(v Value, attrs Attribute) Property {
	return Property{value: v, attributes: attrs}
}

// VirtualProperty returns a property backed by getter and setter functions.
// Either may be nil.
func VirtualProperty(getter, setter Object, attrs Attribute) Property {
	return Property{getter: getter, setter: setter, virtual: true, attributes: attrs}
}

func (p *Property) Value() Value              { return p.value }
func (p *Property) Getter() Object            { return p.getter }
func (p *Property) Setter() Object            { return p.setter }
func (p *Property) IsVirtual() bool           { return p.virtual }
func (p *Property) Attributes() Attribute     { return p.attributes }
func (p *Property) IsEnumerable() bool        { return p.attributes&DontEnum == 0 }
func (p *Property) CanDelete() bool           { return p.attributes&DontDelete == 0 }
func (p *Property) IsReadOnly() bool          { return p.attributes&ReadOnly != 0 }
func (p *Property) SetAttributes(a Attribute) { p.attributes = a }
func (p *Property) setValueUnchecked(v Value) { p.value = v }

// ---------------------------------------------------------------------------
// PropertyMap: ordered, optionally case-insensitive
// ---------------------------------------------------------------------------

type propertyEntry struct {
	name   string
	folded string
	prop   Property
}

// PropertyMap keeps properties in insertion order. Lookups are exact when
// caseSensitive is set and use Unicode case folding otherwise; the first
// inserted entry wins when several names fold together.
type PropertyMap struct {
	order  []*propertyEntry
	exact  map[string]*propertyEntry
	folded map[string]*propertyEntry
}

// NewPropertyMap creates an empty map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{
		exact:  make(map[string]*propertyEntry),
		folded: make(map[string]*propertyEntry),
	}
}

// fold maps name to its case-insensitive key. ASCII names avoid the
// allocation of a caser.
func fold(name string) string {
	ascii := true
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 0x80 {
			ascii = false
			break
		}
		if 'A' <= c && c <= 'Z' {
			upper = true
		}
	}
	if !ascii {
		return cases.Fold().String(name)
	}
	if !upper {
		return name
	}
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (m *PropertyMap) entry(name string, caseSensitive bool) *propertyEntry {
	if e, ok := m.exact[name]; ok {
		return e
	}
	if caseSensitive {
		return nil
	}
	return m.folded[fold(name)]
}

// Get returns the property called name.
func (m *PropertyMap) Get(name string, caseSensitive bool) (*Property, bool) {
	e := m.entry(name, caseSensitive)
	if e == nil {
		return nil, false
	}
	return &e.prop, true
}

// Contains reports whether name is present.
func (m *PropertyMap) Contains(name string, caseSensitive bool) bool {
	return m.entry(name, caseSensitive) != nil
}

// Insert stores p under name, replacing an existing entry in place so that
// its position and original spelling are kept.
func (m *PropertyMap) Insert(name string, p Property, caseSensitive bool) {
	if e := m.entry(name, caseSensitive); e != nil {
		e.prop = p
		return
	}
	e := &propertyEntry{name: name, folded: fold(name), prop: p}
	m.order = append(m.order, e)
	m.exact[name] = e
	if _, ok := m.folded[e.folded]; !ok {
		m.folded[e.folded] = e
	}
}

// Remove deletes name and returns the removed property.
func (m *PropertyMap) Remove(name string, caseSensitive bool) (Property, bool) {
	e := m.entry(name, caseSensitive)
	if e == nil {
		return Property{}, false
	}
	delete(m.exact, e.name)
	for i, o := range m.order {
		if o == e {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.folded[e.folded] == e {
		delete(m.folded, e.folded)
		for _, o := range m.order {
			if o.folded == e.folded {
				m.folded[e.folded] = o
				break
			}
		}
	}
	return e.prop, true
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int {
	return len(m.order)
}

// Each calls fn for every property in insertion order until fn returns false.
func (m *PropertyMap) Each(fn func(name string, p *Property) bool) {
	for _, e := range m.order {
		if !fn(e.name, &e.prop) {
			return
		}
	}
}
