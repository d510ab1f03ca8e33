package avm1

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

// Value is an immutable script value. The zero Value is undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	obj  Object
}

var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
)

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ObjectValue wraps obj; a nil object becomes Null.
func ObjectValue(obj Object) Value {
	if obj == nil {
		return Null
	}
	return Value{kind: KindObject, obj: obj}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsPrimitive() bool { return v.kind != KindObject }

// IsNullOrUndefined reports whether v is undefined or null.
func (v Value) IsNullOrUndefined() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}

// AsObject returns the object payload, or nil.
func (v Value) AsObject() Object {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}

// AsNumber returns the payload of a number value without coercion.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsString returns the payload of a string value without coercion.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// ---------------------------------------------------------------------------
// Coercion
// ---------------------------------------------------------------------------

// ToBool converts v following the rules of the given file version. Before
// version 7 a string is true only when it parses as a non-zero number.
func (v Value) ToBool(version uint8) bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		if version >= 7 {
			return v.s != ""
		}
		n := parseNumber(v.s)
		return n != 0 && !math.IsNaN(n)
	case KindObject:
		return true
	}
	return false
}

// primitiveNumber converts a primitive without calling into script.
func (v Value) primitiveNumber(version uint8) float64 {
	switch v.kind {
	case KindUndefined, KindNull:
		if version >= 7 {
			return math.NaN()
		}
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		return parseNumber(v.s)
	}
	return math.NaN()
}

// ToNumber converts v to a number, calling valueOf on objects.
func (v Value) ToNumber(act *Activation) (float64, error) {
	if v.kind != KindObject {
		return v.primitiveNumber(act.SwfVersion()), nil
	}
	p, err := v.ToPrimitive(act)
	if err != nil {
		return math.NaN(), err
	}
	if p.kind == KindObject {
		return math.NaN(), nil
	}
	return p.primitiveNumber(act.SwfVersion()), nil
}

// ToString converts v to a string, calling toString on objects.
func (v Value) ToString(act *Activation) (string, error) {
	switch v.kind {
	case KindUndefined:
		if act.SwfVersion() >= 7 {
			return "undefined", nil
		}
		return "", nil
	case KindNull:
		return "null", nil
	case KindBool:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case KindNumber:
		return FormatNumber(v.n), nil
	case KindString:
		return v.s, nil
	}
	r, ok, err := callIfPresent(act, v.obj, "toString", nil)
	if err != nil {
		return "", err
	}
	if ok && r.kind != KindObject {
		return r.ToString(act)
	}
	return defaultObjectString(v.obj), nil
}

// ToPrimitive converts an object by trying valueOf and then toString.
// Primitives are returned unchanged.
func (v Value) ToPrimitive(act *Activation) (Value, error) {
	if v.kind != KindObject {
		return v, nil
	}
	for _, method := range [...]string{"valueOf", "toString"} {
		r, ok, err := callIfPresent(act, v.obj, method, nil)
		if err != nil {
			return Undefined, err
		}
		if ok && r.kind != KindObject {
			return r, nil
		}
	}
	return String(defaultObjectString(v.obj)), nil
}

// ToInt32 converts v to a 32-bit integer with ECMAScript wrapping.
func (v Value) ToInt32(act *Activation) (int32, error) {
	n, err := v.ToNumber(act)
	return toInt32(n), err
}

// ToUint32 converts v to an unsigned 32-bit integer.
func (v Value) ToUint32(act *Activation) (uint32, error) {
	n, err := v.ToNumber(act)
	return uint32(toInt32(n)), err
}

// ToUint16 converts v to an unsigned 16-bit integer.
func (v Value) ToUint16(act *Activation) (uint16, error) {
	n, err := v.ToNumber(act)
	return uint16(toInt32(n)), err
}

// ToObject boxes primitives. Undefined and null become fresh plain objects.
func (v Value) ToObject(act *Activation) Object {
	p := act.avm.prototypes
	switch v.kind {
	case KindObject:
		return v.obj
	case KindBool:
		return NewValueObject(v, p.Boolean)
	case KindNumber:
		return NewValueObject(v, p.Number)
	case KindString:
		return NewValueObject(v, p.String)
	}
	return NewScriptObject(p.Object)
}

// TypeOf returns the result of the typeof operator.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	}
	return v.obj.TypeOf()
}

func (v Value) debugString() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return strconv.Quote(v.s)
	}
	return defaultObjectString(v.obj)
}

func defaultObjectString(obj Object) string {
	if obj.AsExecutable() != nil {
		return "[type Function]"
	}
	return "[object Object]"
}

// callIfPresent calls a method only when it resolves to something callable.
func callIfPresent(act *Activation, obj Object, name string, args []Value) (Value, bool, error) {
	rv, holder, err := SearchPrototype(act, obj, name, obj)
	if err != nil {
		return Undefined, false, err
	}
	method, err := rv.Resolve(act)
	if err != nil {
		return Undefined, false, err
	}
	fn := method.AsObject()
	if fn == nil || fn.AsExecutable() == nil {
		return Undefined, false, nil
	}
	r, err := fn.Call(act, obj, holder, args)
	return r, true, err
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// StrictEquals compares without coercion. NaN is never equal to itself.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	}
	return a.obj == b.obj
}

// AbstractEquals implements the == operator.
func AbstractEquals(act *Activation, a, b Value) (bool, error) {
	if a.kind == b.kind {
		return StrictEquals(a, b), nil
	}
	switch {
	case a.IsNullOrUndefined() && b.IsNullOrUndefined():
		return true, nil
	case a.kind == KindNumber && b.kind == KindString:
		return a.n == parseNumber(b.s), nil
	case a.kind == KindString && b.kind == KindNumber:
		return parseNumber(a.s) == b.n, nil
	case a.kind == KindBool:
		return AbstractEquals(act, Number(a.primitiveNumber(7)), b)
	case b.kind == KindBool:
		return AbstractEquals(act, a, Number(b.primitiveNumber(7)))
	case a.kind == KindObject && (b.kind == KindNumber || b.kind == KindString):
		p, err := a.ToPrimitive(act)
		if err != nil || p.kind == KindObject {
			return false, err
		}
		return AbstractEquals(act, p, b)
	case b.kind == KindObject && (a.kind == KindNumber || a.kind == KindString):
		p, err := b.ToPrimitive(act)
		if err != nil || p.kind == KindObject {
			return false, err
		}
		return AbstractEquals(act, a, p)
	}
	return false, nil
}

// AbstractLessThan implements a < b. The result is Undefined when either
// side converts to NaN.
func AbstractLessThan(act *Activation, a, b Value) (Value, error) {
	pa, err := a.ToPrimitive(act)
	if err != nil {
		return Undefined, err
	}
	pb, err := b.ToPrimitive(act)
	if err != nil {
		return Undefined, err
	}
	if pa.kind == KindString && pb.kind == KindString {
		return Bool(pa.s < pb.s), nil
	}
	na, err := pa.ToNumber(act)
	if err != nil {
		return Undefined, err
	}
	nb, err := pb.ToNumber(act)
	if err != nil {
		return Undefined, err
	}
	if math.IsNaN(na) || math.IsNaN(nb) {
		return Undefined, nil
	}
	return Bool(na < nb), nil
}

// ---------------------------------------------------------------------------
// Numbers
// ---------------------------------------------------------------------------

func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(n), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return int32(uint32(m))
}

// parseNumber converts a string the way the player does: surrounding
// whitespace is ignored, 0x prefixes are hexadecimal integers and anything
// else that is not a plain decimal literal is NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(int32(n))
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// FormatNumber renders n with at most 15 significant digits, switching to
// exponent notation outside [1e-5, 1e15).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	// d.dddddddddddddde±XX
	e := strconv.FormatFloat(n, 'e', 14, 64)
	neg := e[0] == '-'
	if neg {
		e = e[1:]
	}
	mant, expStr, _ := strings.Cut(e, "e")
	exp, _ := strconv.Atoi(expStr)
	digits := strings.TrimRight(strings.Replace(mant, ".", "", 1), "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	abs := math.Abs(n)
	if abs < 1e-5 || abs >= 1e15 {
		b.WriteByte(digits[0])
		if len(digits) > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if exp >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(exp))
		return b.String()
	}
	if exp < 0 {
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -exp-1))
		b.WriteString(digits)
		return b.String()
	}
	if len(digits) <= exp+1 {
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", exp+1-len(digits)))
		return b.String()
	}
	b.WriteString(digits[:exp+1])
	b.WriteByte('.')
	b.WriteString(digits[exp+1:])
	return b.String()
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
