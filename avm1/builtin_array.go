package avm1

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// Array.sort flags.
const (
	sortCaseInsensitive    = 1
	sortDescending         = 2
	sortUniqueSort         = 4
	sortReturnIndexedArray = 8
	sortNumeric            = 16
)

func arrayFunction(act *Activation, this Object, args []Value) (Value, error) {
	a := NewArray(act, nil)
	if err := fillArray(act, a, args); err != nil {
		return Undefined, err
	}
	return ObjectValue(a), nil
}

func arrayConstruct(act *Activation, this Object, args []Value) (Value, error) {
	if err := fillArray(act, this, args); err != nil {
		return Undefined, err
	}
	return ObjectValue(this), nil
}

// fillArray initializes a new array: a single number argument is the
// length, anything else the elements.
func fillArray(act *Activation, a Object, args []Value) error {
	if len(args) == 1 {
		if n, ok := args[0].AsNumber(); ok {
			return a.SetLength(act, toInt32(n))
		}
	}
	for i, v := range args {
		if err := a.SetElement(act, int32(i), v); err != nil {
			return err
		}
	}
	return a.SetLength(act, int32(len(args)))
}

func defineArrayConstants(ctor *FunctionObject) {
	for name, v := range map[string]int{
		"CASEINSENSITIVE":    sortCaseInsensitive,
		"DESCENDING":         sortDescending,
		"UNIQUESORT":         sortUniqueSort,
		"RETURNINDEXEDARRAY": sortReturnIndexedArray,
		"NUMERIC":            sortNumeric,
	} {
		ctor.DefineValue(name, Number(float64(v)), DontEnum|DontDelete|ReadOnly)
	}
}

func defineArrayMethods(proto *ScriptObject, fnProto Object) {
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"push":     arrayPush,
		"pop":      arrayPop,
		"shift":    arrayShift,
		"unshift":  arrayUnshift,
		"join":     arrayJoin,
		"reverse":  arrayReverse,
		"slice":    arraySlice,
		"concat":   arrayConcat,
		"splice":   arraySplice,
		"toString": arrayToString,
		"sort":     arraySort,
	})
}

// elements reads this[0] through this[length-1].
func elements(act *Activation, this Object) ([]Value, error) {
	var out []Value
	err := eachElement(act, this, func(_ int32, v Value) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// replaceElements rewrites this to hold exactly values.
func replaceElements(act *Activation, this Object, values []Value) error {
	if err := this.SetLength(act, 0); err != nil {
		return err
	}
	for i, v := range values {
		if err := this.SetElement(act, int32(i), v); err != nil {
			return err
		}
	}
	return this.SetLength(act, int32(len(values)))
}

func arrayPush(act *Activation, this Object, args []Value) (Value, error) {
	n, err := this.Length(act)
	if err != nil {
		return Undefined, err
	}
	for _, v := range args {
		if n == math.MaxInt32 {
			break
		}
		if err := this.SetElement(act, n, v); err != nil {
			return Undefined, err
		}
		n++
	}
	return Number(float64(n)), this.SetLength(act, n)
}

func arrayPop(act *Activation, this Object, args []Value) (Value, error) {
	n, err := this.Length(act)
	if err != nil || n <= 0 {
		return Undefined, err
	}
	v, err := this.GetElement(act, n-1)
	if err != nil {
		return Undefined, err
	}
	this.DeleteElement(act, n-1)
	return v, this.SetLength(act, n-1)
}

func arrayShift(act *Activation, this Object, args []Value) (Value, error) {
	values, err := elements(act, this)
	if err != nil || len(values) == 0 {
		return Undefined, err
	}
	return values[0], replaceElements(act, this, values[1:])
}

func arrayUnshift(act *Activation, this Object, args []Value) (Value, error) {
	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	values = append(slices.Clone(args), values...)
	return Number(float64(len(values))), replaceElements(act, this, values)
}

func joinValues(act *Activation, values []Value, sep string) (string, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		s, err := v.ToString(act)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func arrayJoin(act *Activation, this Object, args []Value) (Value, error) {
	sep := ","
	if v := arg(args, 0); !v.IsUndefined() {
		s, err := v.ToString(act)
		if err != nil {
			return Undefined, err
		}
		sep = s
	}
	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	s, err := joinValues(act, values, sep)
	return String(s), err
}

func arrayToString(act *Activation, this Object, args []Value) (Value, error) {
	return arrayJoin(act, this, nil)
}

func arrayReverse(act *Activation, this Object, args []Value) (Value, error) {
	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	slices.Reverse(values)
	return ObjectValue(this), replaceElements(act, this, values)
}

// relativeIndex resolves a possibly negative index against n.
func relativeIndex(act *Activation, v Value, n int, def int) (int, error) {
	if v.IsUndefined() {
		return def, nil
	}
	i, err := v.ToInt32(act)
	if err != nil {
		return 0, err
	}
	idx := int(i)
	if idx < 0 {
		idx += n
	}
	return max(0, min(idx, n)), nil
}

func arraySlice(act *Activation, this Object, args []Value) (Value, error) {
	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	start, err := relativeIndex(act, arg(args, 0), len(values), 0)
	if err != nil {
		return Undefined, err
	}
	end, err := relativeIndex(act, arg(args, 1), len(values), len(values))
	if err != nil {
		return Undefined, err
	}
	if end < start {
		end = start
	}
	return ObjectValue(NewArray(act, slices.Clone(values[start:end]))), nil
}

func arrayConcat(act *Activation, this Object, args []Value) (Value, error) {
	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	for _, v := range args {
		if a, ok := v.AsObject().(*ArrayObject); ok {
			more, err := elements(act, a)
			if err != nil {
				return Undefined, err
			}
			values = append(values, more...)
		} else {
			values = append(values, v)
		}
	}
	return ObjectValue(NewArray(act, values)), nil
}

func arraySplice(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return Undefined, nil
	}
	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	start, err := relativeIndex(act, args[0], len(values), 0)
	if err != nil {
		return Undefined, err
	}
	count := len(values) - start
	if len(args) > 1 {
		c, err := args[1].ToInt32(act)
		if err != nil {
			return Undefined, err
		}
		count = max(0, min(int(c), len(values)-start))
	}
	removed := slices.Clone(values[start : start+count])
	var inserted []Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	values = slices.Replace(values, start, start+count, inserted...)
	if err := replaceElements(act, this, values); err != nil {
		return Undefined, err
	}
	return ObjectValue(NewArray(act, removed)), nil
}

// arraySort sorts with a compare function, flags, or both. With
// UNIQUESORT a duplicate leaves the array unchanged and returns 0.
func arraySort(act *Activation, this Object, args []Value) (Value, error) {
	var compareFn Object
	flags := int32(0)
	rest := args
	if len(rest) > 0 {
		if fn := rest[0].AsObject(); fn != nil && fn.AsExecutable() != nil {
			compareFn = fn
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		f, err := rest[0].ToInt32(act)
		if err != nil {
			return Undefined, err
		}
		flags = f
	}

	values, err := elements(act, this)
	if err != nil {
		return Undefined, err
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}

	var sortErr error
	compare := func(a, b Value) int {
		if sortErr != nil {
			return 0
		}
		var c int
		c, sortErr = compareValues(act, compareFn, flags, a, b)
		return c
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		c := compare(values[i], values[j])
		if flags&sortDescending != 0 {
			c = -c
		}
		return c
	})
	if sortErr != nil {
		return Undefined, sortErr
	}

	if flags&sortUniqueSort != 0 {
		for k := 1; k < len(idx); k++ {
			if compare(values[idx[k-1]], values[idx[k]]) == 0 {
				return Number(0), sortErr
			}
		}
	}

	if flags&sortReturnIndexedArray != 0 {
		out := make([]Value, len(idx))
		for k, i := range idx {
			out[k] = Number(float64(i))
		}
		return ObjectValue(NewArray(act, out)), nil
	}
	sorted := make([]Value, len(idx))
	for k, i := range idx {
		sorted[k] = values[i]
	}
	return ObjectValue(this), replaceElements(act, this, sorted)
}

func compareValues(act *Activation, fn Object, flags int32, a, b Value) (int, error) {
	if fn != nil {
		r, err := fn.Call(act, act.avm.globals, nil, []Value{a, b})
		if err != nil {
			return 0, err
		}
		n, err := r.ToNumber(act)
		if err != nil || math.IsNaN(n) {
			return 0, err
		}
		return cmp.Compare(n, 0), nil
	}
	if flags&sortNumeric != 0 {
		x, err := a.ToNumber(act)
		if err != nil {
			return 0, err
		}
		y, err := b.ToNumber(act)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(x, y), nil
	}
	x, err := a.ToString(act)
	if err != nil {
		return 0, err
	}
	y, err := b.ToString(act)
	if err != nil {
		return 0, err
	}
	if flags&sortCaseInsensitive != 0 {
		x, y = strings.ToLower(x), strings.ToLower(y)
	}
	return strings.Compare(x, y), nil
}
