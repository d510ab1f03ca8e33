package avm1

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ValueObject boxes a primitive: the result of new String(...), new
// Number(...), new Boolean(...) or of member access on a primitive.
type ValueObject struct {
	*ScriptObject
	value Value
}

// NewValueObject boxes v. Boxed strings get a read-only length.
func NewValueObject(v Value, proto Object) *ValueObject {
	o := &ValueObject{ScriptObject: NewScriptObject(proto)}
	o.setValue(v)
	return o
}

func (o *ValueObject) setValue(v Value) {
	o.value = v
	if s, ok := v.AsString(); ok {
		o.DefineValue("length", Number(float64(utf16Len(s))), DontEnum|DontDelete|ReadOnly)
	}
}

// Unbox returns the boxed primitive.
func (o *ValueObject) Unbox() Value { return o.value }

func (o *ValueObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	return NewValueObject(Undefined, this), nil
}

// createValueClass registers String, Number or Boolean and returns its
// prototype, which is itself a boxed default value.
func createValueClass(globals *ScriptObject, name string, fnProto Object, objectProto Object, kind Kind) Object {
	var zero Value
	var call NativeFunction
	var methods map[string]NativeFunction
	switch kind {
	case KindString:
		zero, call = String(""), stringFunction
		methods = stringMethods()
	case KindNumber:
		zero, call = Number(0), numberFunction
		methods = map[string]NativeFunction{"toString": numberToString, "valueOf": boxedValueOf}
	default:
		zero, call = Bool(false), booleanFunction
		methods = map[string]NativeFunction{"toString": booleanToString, "valueOf": boxedValueOf}
	}

	proto := NewValueObject(zero, objectProto)
	ctor := NewConstructor(call, boxConstructor(call), fnProto, proto)
	globals.DefineValue(name, ObjectValue(ctor), DontEnum)
	defineMethods(proto.ScriptObject, fnProto, DontEnum|DontDelete, methods)

	switch kind {
	case KindString:
		defineMethods(ctor.ScriptObject, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
			"fromCharCode": stringFromCharCode,
		})
	case KindNumber:
		for n, v := range map[string]float64{
			"MAX_VALUE":         math.MaxFloat64,
			"MIN_VALUE":         math.SmallestNonzeroFloat64,
			"NaN":               math.NaN(),
			"POSITIVE_INFINITY": math.Inf(1),
			"NEGATIVE_INFINITY": math.Inf(-1),
		} {
			ctor.DefineValue(n, Number(v), DontEnum|DontDelete|ReadOnly)
		}
	}
	return proto
}

// boxConstructor stores the converted argument in the new instance.
func boxConstructor(convert NativeFunction) NativeFunction {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		v, err := convert(act, this, args)
		if err != nil {
			return Undefined, err
		}
		if o, ok := this.(*ValueObject); ok {
			o.setValue(v)
		}
		return ObjectValue(this), nil
	}
}

func stringFunction(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return String(""), nil
	}
	s, err := args[0].ToString(act)
	return String(s), err
}

func numberFunction(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return Number(0), nil
	}
	n, err := args[0].ToNumber(act)
	return Number(n), err
}

func booleanFunction(act *Activation, this Object, args []Value) (Value, error) {
	return Bool(arg(args, 0).ToBool(act.swfVersion)), nil
}

// thisValue returns the primitive behind this, unboxing value objects.
func thisValue(this Object) Value {
	if o, ok := this.(*ValueObject); ok {
		return o.value
	}
	return ObjectValue(this)
}

func boxedValueOf(act *Activation, this Object, args []Value) (Value, error) {
	return thisValue(this), nil
}

func booleanToString(act *Activation, this Object, args []Value) (Value, error) {
	v := thisValue(this)
	if v.kind == KindBool {
		return String(strconv.FormatBool(v.b)), nil
	}
	return String(defaultObjectString(this)), nil
}

func numberToString(act *Activation, this Object, args []Value) (Value, error) {
	v := thisValue(this)
	n, err := v.ToNumber(act)
	if err != nil {
		return Undefined, err
	}
	radix := int32(10)
	if r := arg(args, 0); !r.IsUndefined() {
		if radix, err = r.ToInt32(act); err != nil {
			return Undefined, err
		}
	}
	if radix == 10 || radix < 2 || radix > 36 || math.IsNaN(n) || math.IsInf(n, 0) {
		return String(FormatNumber(n)), nil
	}
	return String(strconv.FormatInt(int64(toInt32(n)), int(radix))), nil
}

// ---------------------------------------------------------------------------
// String methods. Indices count UTF-16 code units.
// ---------------------------------------------------------------------------

func stringMethods() map[string]NativeFunction {
	return map[string]NativeFunction{
		"toString":    boxedValueOf,
		"valueOf":     boxedValueOf,
		"charAt":      stringCharAt,
		"charCodeAt":  stringCharCodeAt,
		"concat":      stringConcat,
		"indexOf":     stringIndexOf,
		"lastIndexOf": stringLastIndexOf,
		"slice":       stringSlice,
		"split":       stringSplit,
		"substr":      stringSubstr,
		"substring":   stringSubstring,
		"toLowerCase": stringToLowerCase,
		"toUpperCase": stringToUpperCase,
	}
}

func thisUnits(act *Activation, this Object) ([]uint16, error) {
	s, err := thisValue(this).ToString(act)
	if err != nil {
		return nil, err
	}
	return utf16.Encode([]rune(s)), nil
}

func unitsString(u []uint16) Value {
	return String(string(utf16.Decode(u)))
}

func intArg(act *Activation, args []Value, i int, def int) (int, error) {
	v := arg(args, i)
	if v.IsUndefined() {
		return def, nil
	}
	n, err := v.ToInt32(act)
	return int(n), err
}

func stringCharAt(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	i, err := intArg(act, args, 0, 0)
	if err != nil || i < 0 || i >= len(u) {
		return String(""), err
	}
	return unitsString(u[i : i+1]), nil
}

func stringCharCodeAt(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	i, err := intArg(act, args, 0, 0)
	if err != nil || i < 0 || i >= len(u) {
		return Number(math.NaN()), err
	}
	return Number(float64(u[i])), nil
}

func stringConcat(act *Activation, this Object, args []Value) (Value, error) {
	s, err := thisValue(this).ToString(act)
	if err != nil {
		return Undefined, err
	}
	var sb strings.Builder
	sb.WriteString(s)
	for _, a := range args {
		t, err := a.ToString(act)
		if err != nil {
			return Undefined, err
		}
		sb.WriteString(t)
	}
	return String(sb.String()), nil
}

func indexOfUnits(haystack, needle []uint16, from int) int {
	for i := max(from, 0); i+len(needle) <= len(haystack); i++ {
		if slicesEqual(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func slicesEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringIndexOf(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	ns, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	from, err := intArg(act, args, 1, 0)
	if err != nil {
		return Undefined, err
	}
	return Number(float64(indexOfUnits(u, utf16.Encode([]rune(ns)), from))), nil
}

func stringLastIndexOf(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	ns, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	needle := utf16.Encode([]rune(ns))
	from, err := intArg(act, args, 1, len(u))
	if err != nil {
		return Undefined, err
	}
	for i := min(from, len(u)-len(needle)); i >= 0; i-- {
		if slicesEqual(u[i:i+len(needle)], needle) {
			return Number(float64(i)), nil
		}
	}
	return Number(-1), nil
}

func stringSlice(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	start, err := relativeIndex(act, arg(args, 0), len(u), 0)
	if err != nil {
		return Undefined, err
	}
	end, err := relativeIndex(act, arg(args, 1), len(u), len(u))
	if err != nil {
		return Undefined, err
	}
	if end < start {
		return String(""), nil
	}
	return unitsString(u[start:end]), nil
}

func stringSubstr(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	start, err := relativeIndex(act, arg(args, 0), len(u), 0)
	if err != nil {
		return Undefined, err
	}
	count, err := intArg(act, args, 1, len(u))
	if err != nil {
		return Undefined, err
	}
	if count < 0 {
		count += len(u)
	}
	end := max(start, min(start+count, len(u)))
	return unitsString(u[start:end]), nil
}

func stringSubstring(act *Activation, this Object, args []Value) (Value, error) {
	u, err := thisUnits(act, this)
	if err != nil {
		return Undefined, err
	}
	start, err := intArg(act, args, 0, 0)
	if err != nil {
		return Undefined, err
	}
	end, err := intArg(act, args, 1, len(u))
	if err != nil {
		return Undefined, err
	}
	start = max(0, min(start, len(u)))
	end = max(0, min(end, len(u)))
	if end < start {
		start, end = end, start
	}
	return unitsString(u[start:end]), nil
}

func stringSplit(act *Activation, this Object, args []Value) (Value, error) {
	s, err := thisValue(this).ToString(act)
	if err != nil {
		return Undefined, err
	}
	sepValue := arg(args, 0)
	if sepValue.IsUndefined() {
		return ObjectValue(NewArray(act, []Value{String(s)})), nil
	}
	sep, err := sepValue.ToString(act)
	if err != nil {
		return Undefined, err
	}
	limit, err := intArg(act, args, 1, math.MaxInt32)
	if err != nil {
		return Undefined, err
	}
	var parts []Value
	if sep == "" {
		for _, u := range utf16.Encode([]rune(s)) {
			parts = append(parts, unitsString([]uint16{u}))
		}
	} else {
		for _, p := range strings.Split(s, sep) {
			parts = append(parts, String(p))
		}
	}
	if limit >= 0 && limit < len(parts) {
		parts = parts[:limit]
	}
	return ObjectValue(NewArray(act, parts)), nil
}

func stringToLowerCase(act *Activation, this Object, args []Value) (Value, error) {
	s, err := thisValue(this).ToString(act)
	return String(strings.ToLower(s)), err
}

func stringToUpperCase(act *Activation, this Object, args []Value) (Value, error) {
	s, err := thisValue(this).ToString(act)
	return String(strings.ToUpper(s)), err
}

func stringFromCharCode(act *Activation, this Object, args []Value) (Value, error) {
	u := make([]uint16, 0, len(args))
	for _, a := range args {
		c, err := a.ToUint16(act)
		if err != nil {
			return Undefined, err
		}
		u = append(u, c)
	}
	return unitsString(u), nil
}
