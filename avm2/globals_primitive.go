package avm2

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// primitiveAllocator boxes zero as an instance of class.
func primitiveAllocator(zero Value) Allocator {
	return func(class *ClassObject) Object {
		return &PrimitiveObject{ScriptObject: class.newBase(), value: zero}
	}
}

// primitiveInit returns an instance initializer that stores the coerced
// first argument in the box.
func primitiveInit(name string, coerce func(act *Activation, v Value) (Value, error)) *Method {
	return NewNativeMethod(name, func(act *Activation, this Object, args []Value) (Value, error) {
		box, ok := this.(*PrimitiveObject)
		if !ok || len(args) == 0 {
			return Undefined, nil
		}
		v, err := coerce(act, args[0])
		if err != nil {
			return Undefined, err
		}
		box.value = v
		return Undefined, nil
	})
}

// primitiveCall returns a call handler applying coerce, or zero without
// arguments.
func primitiveCall(zero Value, coerce func(act *Activation, v Value) (Value, error)) NativeMethod {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		if len(args) == 0 {
			return zero, nil
		}
		return coerce(act, args[0])
	}
}

func coerceString(act *Activation, v Value) (Value, error) {
	s, err := v.ToString(act)
	return String(s), err
}

func coerceNumber(act *Activation, v Value) (Value, error) {
	n, err := v.ToNumber(act)
	return Number(n), err
}

func coerceInt(act *Activation, v Value) (Value, error) {
	n, err := v.ToInt32(act)
	return Int(n), err
}

func coerceUint(act *Activation, v Value) (Value, error) {
	n, err := v.ToUint32(act)
	return Uint(n), err
}

func coerceBool(act *Activation, v Value) (Value, error) {
	return Bool(v.ToBool()), nil
}

// primitiveOf returns the boxed value of this when it has kind. The
// class prototype itself stands for zero.
func primitiveOf(act *Activation, this Object, kind Kind, zero Value, method string) (Value, error) {
	if v, ok := this.AsPrimitive(); ok && v.kind == kind {
		return v, nil
	}
	if c := this.Base().class; c != nil && c.prototype == this {
		return zero, nil
	}
	return Undefined, TypeError(act, 1004,
		fmt.Sprintf("Method %s was invoked on an incompatible object.", method))
}

func (avm *Avm2) createPrimitiveClasses(act *Activation) {
	c := avm.classes

	c.String = avm.defineClass(act, &ClassDef{
		Name:         "String",
		SuperName:    "Object",
		Sealed:       true,
		Allocator:    primitiveAllocator(String("")),
		InstanceInit: primitiveInit("String", coerceString),
		CallHandler:  primitiveCall(String(""), coerceString),
	}, c.Object)
	avm.defineStringMethods(c.String)

	numberTraits := []*Trait{
		NewConstTrait("MAX_VALUE", Number(math.MaxFloat64)),
		NewConstTrait("MIN_VALUE", Number(5e-324)),
		NewConstTrait("NaN", Number(math.NaN())),
		NewConstTrait("NEGATIVE_INFINITY", Number(math.Inf(-1))),
		NewConstTrait("POSITIVE_INFINITY", Number(math.Inf(1))),
	}
	c.Number = avm.defineClass(act, &ClassDef{
		Name:         "Number",
		SuperName:    "Object",
		Sealed:       true,
		Allocator:    primitiveAllocator(Number(0)),
		InstanceInit: primitiveInit("Number", coerceNumber),
		CallHandler:  primitiveCall(Number(0), coerceNumber),
		ClassTraits:  numberTraits,
	}, c.Object)
	c.Int = avm.defineClass(act, &ClassDef{
		Name:         "int",
		SuperName:    "Object",
		Sealed:       true,
		Allocator:    primitiveAllocator(Int(0)),
		InstanceInit: primitiveInit("int", coerceInt),
		CallHandler:  primitiveCall(Int(0), coerceInt),
		ClassTraits: []*Trait{
			NewConstTrait("MAX_VALUE", Int(math.MaxInt32)),
			NewConstTrait("MIN_VALUE", Int(math.MinInt32)),
		},
	}, c.Object)
	c.Uint = avm.defineClass(act, &ClassDef{
		Name:         "uint",
		SuperName:    "Object",
		Sealed:       true,
		Allocator:    primitiveAllocator(Uint(0)),
		InstanceInit: primitiveInit("uint", coerceUint),
		CallHandler:  primitiveCall(Uint(0), coerceUint),
		ClassTraits: []*Trait{
			NewConstTrait("MAX_VALUE", Uint(math.MaxUint32)),
			NewConstTrait("MIN_VALUE", Uint(0)),
		},
	}, c.Object)
	for _, cls := range []*ClassObject{c.Number, c.Int, c.Uint} {
		avm.defineNumberMethods(cls)
	}

	c.Boolean = avm.defineClass(act, &ClassDef{
		Name:         "Boolean",
		SuperName:    "Object",
		Sealed:       true,
		Allocator:    primitiveAllocator(Bool(false)),
		InstanceInit: primitiveInit("Boolean", coerceBool),
		CallHandler:  primitiveCall(Bool(false), coerceBool),
	}, c.Object)
	avm.defineMethods(c.Boolean.prototype.Base(), map[string]NativeMethod{
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			v, err := primitiveOf(act, this, KindBool, Bool(false), "Boolean.prototype.toString")
			if err != nil {
				return Undefined, err
			}
			return String(v.String()), nil
		},
		"valueOf": func(act *Activation, this Object, args []Value) (Value, error) {
			return primitiveOf(act, this, KindBool, Bool(false), "Boolean.prototype.valueOf")
		},
	})
}

// ---------------------------------------------------------------------------
// Number
// ---------------------------------------------------------------------------

func (avm *Avm2) defineNumberMethods(cls *ClassObject) {
	name := cls.def.Name
	thisNumber := func(act *Activation, this Object, method string) (float64, error) {
		v, err := primitiveOf(act, this, KindNumber, Number(0), name+".prototype."+method)
		return v.n, err
	}
	avm.defineMethods(cls.prototype.Base(), map[string]NativeMethod{
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			n, err := thisNumber(act, this, "toString")
			if err != nil {
				return Undefined, err
			}
			radix := int32(10)
			if r := arg(args, 0); !r.IsUndefined() {
				if radix, err = r.ToInt32(act); err != nil {
					return Undefined, err
				}
			}
			if radix < 2 || radix > 36 {
				return Undefined, RangeError(act, 1003,
					fmt.Sprintf("The radix argument must be between 2 and 36; got %d.", radix))
			}
			if radix == 10 || n != math.Trunc(n) || math.IsInf(n, 0) {
				return String(FormatNumber(n)), nil
			}
			return String(strconv.FormatInt(int64(n), int(radix))), nil
		},
		"toFixed": func(act *Activation, this Object, args []Value) (Value, error) {
			n, err := thisNumber(act, this, "toFixed")
			if err != nil {
				return Undefined, err
			}
			digits, err := arg(args, 0).ToInt32(act)
			if err != nil {
				return Undefined, err
			}
			if digits < 0 || digits > 20 {
				return Undefined, RangeError(act, 1002,
					fmt.Sprintf("Number.prototype.toFixed has a range of 0 to 20. %d is not a valid input.", digits))
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return String(FormatNumber(n)), nil
			}
			return String(strconv.FormatFloat(n, 'f', int(digits), 64)), nil
		},
		"valueOf": func(act *Activation, this Object, args []Value) (Value, error) {
			n, err := thisNumber(act, this, "valueOf")
			return Number(n), err
		},
	})
}

// parseIntString reads an integer prefix of s. A radix of zero selects 16
// for a 0x prefix and 10 otherwise.
func parseIntString(s string, radix int32) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	hexPrefix := len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
	switch {
	case radix == 0 && hexPrefix:
		radix, s = 16, s[2:]
	case radix == 0:
		radix = 10
	case radix == 16 && hexPrefix:
		s = s[2:]
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	n, digits := 0.0, 0
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || d >= int(radix) {
			break
		}
		n = n*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return math.NaN()
	}
	return sign * n
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	}
	return -1
}

// parseFloatPrefix reads the longest decimal literal at the start of s.
func parseFloatPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	digits := func() int {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i - start
	}
	mantissa := digits()
	if i < len(s) && s[i] == '.' {
		i++
		mantissa += digits()
	}
	if mantissa == 0 {
		return math.NaN()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		mark := i
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if digits() == 0 {
			i = mark
		}
	}
	// Out of range literals parse to an infinity with an error.
	n, _ := strconv.ParseFloat(strings.TrimSuffix(s[:i], "."), 64)
	return n
}

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

// clampIndex resolves a relative index against n the way slice does.
func clampIndex(i float64, n int) int {
	if math.IsNaN(i) {
		return 0
	}
	if i < 0 {
		i += float64(n)
		if i < 0 {
			return 0
		}
	}
	if i > float64(n) {
		return n
	}
	return int(i)
}

// clampPositive limits i to [0, n] without wrapping negatives.
func clampPositive(i float64, n int) int {
	if math.IsNaN(i) || i < 0 {
		return 0
	}
	if i > float64(n) {
		return n
	}
	return int(i)
}

func numberArg(act *Activation, args []Value, i int, def float64) (float64, error) {
	v := arg(args, i)
	if v.IsUndefined() {
		return def, nil
	}
	return v.ToNumber(act)
}

func (avm *Avm2) defineStringMethods(cls *ClassObject) {
	// thisString converts this for the generic methods.
	thisString := func(act *Activation, this Object) ([]uint16, error) {
		if v, ok := this.AsPrimitive(); ok {
			s, err := v.ToString(act)
			return toUTF16(s), err
		}
		s, err := ObjectValue(this).ToString(act)
		return toUTF16(s), err
	}
	indexArgs := func(act *Activation, args []Value, def float64) (float64, float64, error) {
		a, err := numberArg(act, args, 0, 0)
		if err != nil {
			return 0, 0, err
		}
		b, err := numberArg(act, args, 1, def)
		return a, b, err
	}

	cls.DefineValue("fromCharCode", ObjectValue(avm.NewNativeFunction("fromCharCode",
		func(act *Activation, this Object, args []Value) (Value, error) {
			units := make([]uint16, len(args))
			for i, v := range args {
				n, err := v.ToUint32(act)
				if err != nil {
					return Undefined, err
				}
				units[i] = uint16(n)
			}
			return String(fromUTF16(units)), nil
		})), DontDelete)

	avm.defineMethods(cls.prototype.Base(), map[string]NativeMethod{
		"charAt": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			i, err := numberArg(act, args, 0, 0)
			if err != nil || i < 0 || i >= float64(len(s)) {
				return String(""), err
			}
			return String(fromUTF16(s[int(i) : int(i)+1])), nil
		},
		"charCodeAt": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			i, err := numberArg(act, args, 0, 0)
			if err != nil || i < 0 || i >= float64(len(s)) {
				return Number(math.NaN()), err
			}
			return Int(int32(s[int(i)])), nil
		},
		"concat": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			var sb strings.Builder
			sb.WriteString(fromUTF16(s))
			for _, v := range args {
				part, err := v.ToString(act)
				if err != nil {
					return Undefined, err
				}
				sb.WriteString(part)
			}
			return String(sb.String()), nil
		},
		"indexOf": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			needle, err := arg(args, 0).ToString(act)
			if err != nil {
				return Undefined, err
			}
			from, err := numberArg(act, args, 1, 0)
			if err != nil {
				return Undefined, err
			}
			return Int(int32(indexUTF16(s, toUTF16(needle), clampPositive(from, len(s))))), nil
		},
		"lastIndexOf": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			needle, err := arg(args, 0).ToString(act)
			if err != nil {
				return Undefined, err
			}
			from, err := numberArg(act, args, 1, math.Inf(1))
			if err != nil {
				return Undefined, err
			}
			return Int(int32(lastIndexUTF16(s, toUTF16(needle), clampPositive(from, len(s))))), nil
		},
		"slice": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			a, b, err := indexArgs(act, args, float64(len(s)))
			if err != nil {
				return Undefined, err
			}
			start, end := clampIndex(a, len(s)), clampIndex(b, len(s))
			if start >= end {
				return String(""), nil
			}
			return String(fromUTF16(s[start:end])), nil
		},
		"split": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			limit := -1
			if l := arg(args, 1); !l.IsUndefined() {
				n, err := l.ToUint32(act)
				if err != nil {
					return Undefined, err
				}
				limit = int(n)
			}
			var parts []string
			if sep := arg(args, 0); sep.IsUndefined() {
				parts = []string{fromUTF16(s)}
			} else {
				d, err := sep.ToString(act)
				if err != nil {
					return Undefined, err
				}
				parts = strings.Split(fromUTF16(s), d)
			}
			values := make([]Value, 0, len(parts))
			for _, p := range parts {
				if limit >= 0 && len(values) >= limit {
					break
				}
				values = append(values, String(p))
			}
			return ObjectValue(act.avm.newArray(values)), nil
		},
		"substr": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			a, count, err := indexArgs(act, args, float64(len(s)))
			if err != nil {
				return Undefined, err
			}
			start := clampIndex(a, len(s))
			end := start + clampPositive(count, len(s)-start)
			return String(fromUTF16(s[start:end])), nil
		},
		"substring": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			if err != nil {
				return Undefined, err
			}
			a, b, err := indexArgs(act, args, float64(len(s)))
			if err != nil {
				return Undefined, err
			}
			start, end := clampPositive(a, len(s)), clampPositive(b, len(s))
			if start > end {
				start, end = end, start
			}
			return String(fromUTF16(s[start:end])), nil
		},
		"toLowerCase": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			return String(strings.ToLower(fromUTF16(s))), err
		},
		"toUpperCase": func(act *Activation, this Object, args []Value) (Value, error) {
			s, err := thisString(act, this)
			return String(strings.ToUpper(fromUTF16(s))), err
		},
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			return primitiveOf(act, this, KindString, String(""), "String.prototype.toString")
		},
		"valueOf": func(act *Activation, this Object, args []Value) (Value, error) {
			return primitiveOf(act, this, KindString, String(""), "String.prototype.valueOf")
		},
	})
}

func indexUTF16(s, needle []uint16, from int) int {
	for i := from; i+len(needle) <= len(s); i++ {
		if slices.Equal(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func lastIndexUTF16(s, needle []uint16, from int) int {
	for i := min(from, len(s)-len(needle)); i >= 0; i-- {
		if slices.Equal(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
