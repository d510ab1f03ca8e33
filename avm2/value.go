package avm2

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value
// ---------------------------------------------------------------------------

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

// Value is an immutable AVM2 value. The zero value is Undefined.
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

func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func Int(i int32) Value      { return Value{kind: KindNumber, n: float64(i)} }
func Uint(u uint32) Value    { return Value{kind: KindNumber, n: float64(u)} }
func String(s string) Value  { return Value{kind: KindString, s: s} }

// ObjectValue wraps obj. A nil obj is Null.
func ObjectValue(obj Object) Value {
	if obj == nil {
		return Null
	}
	return Value{kind: KindObject, obj: obj}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }

func (v Value) IsNullOrUndefined() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}

// AsObject returns the object held by v, or nil.
func (v Value) AsObject() Object {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}

func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }
func (v Value) AsString() (string, bool)  { return v.s, v.kind == KindString }

func (v Value) String() string {
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
	return fmt.Sprintf("%T(%p)", v.obj, v.obj)
}

// ---------------------------------------------------------------------------
// Coercion
// ---------------------------------------------------------------------------

// Hint selects the conversion ToPrimitive prefers.
type Hint uint8

const (
	HintNone Hint = iota
	HintNumber
	HintString
)

// ToBool follows ECMAScript truthiness.
func (v Value) ToBool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	case KindObject:
		return true
	}
	return false
}

// ToPrimitive converts objects through valueOf and toString, in the order
// the hint selects. A string hint tries toString first.
func (v Value) ToPrimitive(act *Activation, hint Hint) (Value, error) {
	if v.kind != KindObject {
		return v, nil
	}
	if prim, ok := v.obj.AsPrimitive(); ok {
		return prim, nil
	}
	order := [2]string{"valueOf", "toString"}
	if hint == HintString {
		order = [2]string{"toString", "valueOf"}
	}
	for _, name := range order {
		fn, err := GetProperty(act, v.obj, name)
		if err != nil {
			return Undefined, err
		}
		callee := fn.AsObject()
		if callee == nil || !IsCallable(callee) {
			continue
		}
		r, err := callee.Call(act, v.obj, nil)
		if err != nil {
			return Undefined, err
		}
		if r.kind != KindObject {
			return r, nil
		}
	}
	return String(defaultObjectString(v.obj)), nil
}

// ToNumber converts v following ECMAScript rules.
func (v Value) ToNumber(act *Activation) (float64, error) {
	switch v.kind {
	case KindUndefined:
		return math.NaN(), nil
	case KindNull:
		return 0, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindNumber:
		return v.n, nil
	case KindString:
		return parseNumber(v.s), nil
	}
	p, err := v.ToPrimitive(act, HintNumber)
	if err != nil {
		return math.NaN(), err
	}
	return p.ToNumber(act)
}

// ToString converts v following ECMAScript rules.
func (v Value) ToString(act *Activation) (string, error) {
	switch v.kind {
	case KindUndefined:
		return "undefined", nil
	case KindNull:
		return "null", nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindNumber:
		return FormatNumber(v.n), nil
	case KindString:
		return v.s, nil
	}
	p, err := v.ToPrimitive(act, HintString)
	if err != nil {
		return "", err
	}
	return p.ToString(act)
}

func (v Value) ToInt32(act *Activation) (int32, error) {
	n, err := v.ToNumber(act)
	return toInt32(n), err
}

func (v Value) ToUint32(act *Activation) (uint32, error) {
	n, err := v.ToNumber(act)
	return uint32(toInt32(n)), err
}

// ToObject boxes primitives. Null and Undefined raise Error #1009.
func (v Value) ToObject(act *Activation) (Object, error) {
	switch v.kind {
	case KindObject:
		return v.obj, nil
	case KindUndefined, KindNull:
		return nil, TypeError(act, 1009, "Cannot access a property or method of a null object reference.")
	}
	return NewPrimitiveObject(act, v), nil
}

// TypeOf returns the name the typeof operator yields.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	}
	if IsCallable(v.obj) && v.obj.AsClass() == nil {
		return "function"
	}
	if prim, ok := v.obj.AsPrimitive(); ok {
		return prim.TypeOf()
	}
	return "object"
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// StrictEquals implements ===.
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

// AbstractEquals implements ==.
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
		return AbstractEquals(act, Number(boolNumber(a.b)), b)
	case b.kind == KindBool:
		return AbstractEquals(act, a, Number(boolNumber(b.b)))
	case a.kind == KindObject && (b.kind == KindNumber || b.kind == KindString):
		p, err := a.ToPrimitive(act, HintNone)
		if err != nil {
			return false, err
		}
		return AbstractEquals(act, p, b)
	case b.kind == KindObject && (a.kind == KindNumber || a.kind == KindString):
		p, err := b.ToPrimitive(act, HintNone)
		if err != nil {
			return false, err
		}
		return AbstractEquals(act, a, p)
	}
	return false, nil
}

// AbstractLessThan implements a < b. It returns Undefined when either side
// is NaN.
func AbstractLessThan(act *Activation, a, b Value) (Value, error) {
	pa, err := a.ToPrimitive(act, HintNumber)
	if err != nil {
		return Undefined, err
	}
	pb, err := b.ToPrimitive(act, HintNumber)
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

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
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

// parseNumber converts a string with ECMAScript StringToNumber rules.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
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

// FormatNumber renders n the way ECMAScript Number::toString does:
// exponent notation below 1e-6 and from 1e21.
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
	abs := math.Abs(n)
	if abs < 1e-6 || abs >= 1e21 {
		e := strconv.FormatFloat(n, 'e', -1, 64)
		mant, exp, _ := strings.Cut(e, "e")
		sign := exp[0]
		exp = strings.TrimLeft(exp[1:], "0")
		return mant + "e" + string(sign) + exp
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
