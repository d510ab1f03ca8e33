// Package lso models persisted shared-object data: a named body of
// elements, each a tree of typed values.
package lso

// Kind tags an element value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindECMAArray
	KindStrictArray
	KindDate
	KindXML
)

var kindNames = [...]string{
	"undefined", "null", "bool", "number", "string",
	"object", "ecma-array", "strict-array", "date", "xml",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one node of the persisted tree.
//
// Number holds the numeric payload of KindNumber and the millisecond
// timestamp of KindDate. String holds KindString text and KindXML source.
// Elements holds the members of objects and arrays; for KindStrictArray the
// element names are ignored. Length is the declared length of an ECMA array.
type Value struct {
	Kind     Kind
	Bool     bool
	Number   float64
	String   string
	Elements []Element
	Length   uint32
}

// Element is a named value.
type Element struct {
	Name  string
	Value Value
}

// Lso is a shared object's persisted form.
type Lso struct {
	Name string
	Body []Element
}

func Undefined() Value          { return Value{Kind: KindUndefined} }
func Null() Value               { return Value{Kind: KindNull} }
func Bool(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value    { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value     { return Value{Kind: KindString, String: s} }
func Date(millis float64) Value { return Value{Kind: KindDate, Number: millis} }
func XML(source string) Value   { return Value{Kind: KindXML, String: source} }
func Object(e []Element) Value  { return Value{Kind: KindObject, Elements: e} }
func StrictArray(v []Value) Value {
	elems := make([]Element, len(v))
	for i := range v {
		elems[i].Value = v[i]
	}
	return Value{Kind: KindStrictArray, Elements: elems, Length: uint32(len(v))}
}

// ECMAArray builds an associative array with an explicit length.
func ECMAArray(e []Element, length uint32) Value {
	return Value{Kind: KindECMAArray, Elements: e, Length: length}
}

// Get returns the first element called name.
func (v Value) Get(name string) (Value, bool) {
	for _, e := range v.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Get returns the first top-level element called name.
func (l *Lso) Get(name string) (Value, bool) {
	return Object(l.Body).Get(name)
}
