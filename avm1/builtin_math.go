package avm1

import "math"

func defineMath(obj *ScriptObject, fnProto Object) {
	for name, v := range map[string]float64{
		"E":       math.E,
		"LN10":    math.Ln10,
		"LN2":     math.Ln2,
		"LOG10E":  math.Log10E,
		"LOG2E":   math.Log2E,
		"PI":      math.Pi,
		"SQRT1_2": math.Sqrt2 / 2,
		"SQRT2":   math.Sqrt2,
	} {
		obj.DefineValue(name, Number(v), DontEnum|DontDelete|ReadOnly)
	}

	methods := map[string]NativeFunction{
		"abs":   unaryMath(math.Abs),
		"acos":  unaryMath(math.Acos),
		"asin":  unaryMath(math.Asin),
		"atan":  unaryMath(math.Atan),
		"ceil":  unaryMath(math.Ceil),
		"cos":   unaryMath(math.Cos),
		"exp":   unaryMath(math.Exp),
		"floor": unaryMath(math.Floor),
		"log":   unaryMath(math.Log),
		"round": unaryMath(func(x float64) float64 { return math.Floor(x + 0.5) }),
		"sin":   unaryMath(math.Sin),
		"sqrt":  unaryMath(math.Sqrt),
		"tan":   unaryMath(math.Tan),
		"atan2": binaryMath(math.Atan2),
		"pow":   binaryMath(math.Pow),
		"max":   binaryMath(mathMax),
		"min":   binaryMath(mathMin),
		"random": func(act *Activation, this Object, args []Value) (Value, error) {
			return Number(act.Context.Rand.Float64()), nil
		},
	}
	defineMethods(obj, fnProto, DontEnum|DontDelete, methods)
}

func unaryMath(fn func(float64) float64) NativeFunction {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(math.NaN()), nil
		}
		x, err := args[0].ToNumber(act)
		if err != nil {
			return Undefined, err
		}
		return Number(fn(x)), nil
	}
}

// binaryMath treats a missing argument as NaN.
func binaryMath(fn func(x, y float64) float64) NativeFunction {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		if len(args) < 2 {
			return Number(math.NaN()), nil
		}
		x, err := args[0].ToNumber(act)
		if err != nil {
			return Undefined, err
		}
		y, err := args[1].ToNumber(act)
		if err != nil {
			return Undefined, err
		}
		return Number(fn(x, y)), nil
	}
}

func mathMax(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	return math.Max(x, y)
}

func mathMin(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	return math.Min(x, y)
}
