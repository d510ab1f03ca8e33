package avm1

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/avm/backend"
)

// SystemPrototypes holds the built-in prototypes and the constructors that
// native code needs to reach directly.
type SystemPrototypes struct {
	Object       Object
	Function     Object
	Array        Object
	String       Object
	Number       Object
	Boolean      Object
	MovieClip    Object
	Date         Object
	Error        Object
	XML          Object
	SharedObject Object

	ObjectConstructor       Object
	ArrayConstructor        Object
	ErrorConstructor        Object
	DateConstructor         Object
	XMLConstructor          Object
	SharedObjectConstructor Object
}

// defineMethods installs native functions on obj in name order.
func defineMethods(obj *ScriptObject, fnProto Object, attrs Attribute, methods map[string]NativeFunction) {
	for _, name := range slices.Sorted(maps.Keys(methods)) {
		obj.DefineValue(name, ObjectValue(NewFunctionObject(methods[name], fnProto, nil)), attrs)
	}
}

// defineGetter installs a read-only virtual property backed by get.
func defineGetter(obj *ScriptObject, fnProto Object, name string, get NativeFunction) {
	obj.values.Insert(name, VirtualProperty(NewFunctionObject(get, fnProto, nil), nil, DontEnum|DontDelete|ReadOnly), true)
}

// class creates a constructor with a fresh prototype inheriting from
// parent and registers it on globals under name.
func class(globals *ScriptObject, name string, fnProto Object, parent Object, fn, ctor NativeFunction) (*FunctionObject, *ScriptObject) {
	proto := NewScriptObject(parent)
	f := NewConstructor(fn, ctor, fnProto, proto)
	globals.DefineValue(name, ObjectValue(f), DontEnum)
	return f, proto
}

// createGlobals builds the global object with every built-in class.
func createGlobals(avm *Avm1) (*SystemPrototypes, Object, *SystemListeners) {
	p := &SystemPrototypes{}

	objectProto := NewScriptObject(nil)
	functionProto := NewScriptObject(objectProto)
	p.Object = objectProto
	p.Function = functionProto

	globals := NewScriptObject(objectProto)

	objectCtor := NewConstructor(objectFunction, objectConstruct, functionProto, objectProto)
	globals.DefineValue("Object", ObjectValue(objectCtor), DontEnum)
	p.ObjectConstructor = objectCtor
	defineObjectMethods(objectProto, objectCtor, functionProto)

	functionCtor := NewConstructor(functionFunction, functionFunction, functionProto, functionProto)
	globals.DefineValue("Function", ObjectValue(functionCtor), DontEnum)
	defineFunctionMethods(functionProto)

	arrayCtor, arrayProto := class(globals, "Array", functionProto, objectProto, arrayFunction, arrayConstruct)
	p.Array, p.ArrayConstructor = &ArrayObject{ScriptObject: arrayProto}, arrayCtor
	arrayCtor.DefineValue("prototype", ObjectValue(p.Array), DontEnum)
	p.Array.Base().DefineValue("length", Number(0), DontEnum|DontDelete)
	defineArrayMethods(arrayProto, functionProto)
	defineArrayConstants(arrayCtor)

	p.String = createValueClass(globals, "String", functionProto, objectProto, KindString)
	p.Number = createValueClass(globals, "Number", functionProto, objectProto, KindNumber)
	p.Boolean = createValueClass(globals, "Boolean", functionProto, objectProto, KindBool)

	mathObject := NewScriptObject(objectProto)
	defineMath(mathObject, functionProto)
	globals.DefineValue("Math", ObjectValue(mathObject), DontEnum)

	dateCtor, dateProto := class(globals, "Date", functionProto, objectProto, dateFunction, dateConstruct)
	p.Date, p.DateConstructor = &DateObject{ScriptObject: dateProto, millis: math.NaN()}, dateCtor
	defineDateMethods(dateProto, functionProto)
	dateCtor.DefineValue("prototype", ObjectValue(p.Date), DontEnum)

	errorCtor, errorProto := class(globals, "Error", functionProto, objectProto, errorConstruct, errorConstruct)
	p.Error, p.ErrorConstructor = errorProto, errorCtor
	defineErrorPrototype(errorProto, functionProto)

	xmlCtor, xmlProto := class(globals, "XML", functionProto, objectProto, xmlConstruct, xmlConstruct)
	p.XML, p.XMLConstructor = &XMLObject{ScriptObject: xmlProto}, xmlCtor
	xmlCtor.DefineValue("prototype", ObjectValue(p.XML), DontEnum)
	defineXMLMethods(xmlProto, functionProto)

	_, movieClipProto := class(globals, "MovieClip", functionProto, objectProto, movieClipFunction, movieClipFunction)
	p.MovieClip = movieClipProto
	defineMovieClipMethods(movieClipProto, functionProto)

	soCtor, soProto := class(globals, "SharedObject", functionProto, objectProto, sharedObjectFunction, sharedObjectFunction)
	p.SharedObject, p.SharedObjectConstructor = soProto, soCtor
	defineSharedObject(soCtor, soProto, functionProto)

	listeners := &SystemListeners{}
	keyObject := NewScriptObject(objectProto)
	listeners.key = newListeners(keyObject, functionProto, p.Array)
	defineKey(keyObject, functionProto)
	globals.DefineValue("Key", ObjectValue(keyObject), DontEnum)

	mouseObject := NewScriptObject(objectProto)
	listeners.mouse = newListeners(mouseObject, functionProto, p.Array)
	defineMouse(mouseObject, functionProto)
	globals.DefineValue("Mouse", ObjectValue(mouseObject), DontEnum)

	stageObject := NewScriptObject(objectProto)
	listeners.stage = newListeners(stageObject, functionProto, p.Array)
	defineStage(stageObject, functionProto)
	globals.DefineValue("Stage", ObjectValue(stageObject), DontEnum)

	externalObject := NewScriptObject(objectProto)
	defineExternalInterface(avm, externalObject, functionProto)
	globals.DefineValue("ExternalInterface", ObjectValue(externalObject), DontEnum)

	defineMethods(globals, functionProto, DontEnum, map[string]NativeFunction{
		"trace":          globalTrace,
		"getURL":         globalGetURL,
		"random":         globalRandom,
		"isNaN":          globalIsNaN,
		"isFinite":       globalIsFinite,
		"parseInt":       globalParseInt,
		"parseFloat":     globalParseFloat,
		"ASSetPropFlags": globalSetPropFlags,
		"escape":         globalEscape,
		"unescape":       globalUnescape,
	})
	globals.DefineValue("NaN", Number(math.NaN()), DontEnum|DontDelete|ReadOnly)
	globals.DefineValue("Infinity", Number(math.Inf(1)), DontEnum|DontDelete|ReadOnly)

	return p, globals, listeners
}

// ---------------------------------------------------------------------------
// Global functions
// ---------------------------------------------------------------------------

func globalTrace(act *Activation, this Object, args []Value) (Value, error) {
	v := arg(args, 0)
	msg := "undefined"
	if !v.IsUndefined() {
		s, err := v.ToString(act)
		if err != nil {
			return Undefined, err
		}
		msg = s
	}
	act.avm.trace(msg)
	return Undefined, nil
}

func globalGetURL(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return Undefined, nil
	}
	url, err := args[0].ToString(act)
	if err != nil {
		return Undefined, err
	}
	window := ""
	if len(args) > 1 {
		if window, err = args[1].ToString(act); err != nil {
			return Undefined, err
		}
	}
	method := backend.NavigateNone
	if len(args) > 2 {
		m, err := args[2].ToString(act)
		if err != nil {
			return Undefined, err
		}
		switch strings.ToUpper(m) {
		case "GET":
			method = backend.NavigateGet
		case "POST":
			method = backend.NavigatePost
		}
	}
	act.getURL(url, window, nil, method)
	return Undefined, nil
}

func globalRandom(act *Activation, this Object, args []Value) (Value, error) {
	n, err := arg(args, 0).ToInt32(act)
	if err != nil {
		return Undefined, err
	}
	if n <= 0 {
		return Number(0), nil
	}
	return Number(float64(act.Context.Rand.Int32N(n))), nil
}

func globalIsNaN(act *Activation, this Object, args []Value) (Value, error) {
	n, err := arg(args, 0).ToNumber(act)
	return Bool(math.IsNaN(n)), err
}

func globalIsFinite(act *Activation, this Object, args []Value) (Value, error) {
	n, err := arg(args, 0).ToNumber(act)
	return Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), err
}

// globalParseInt parses a leading integer. Without a radix, 0x selects
// hex and a leading 0 selects octal.
func globalParseInt(act *Activation, this Object, args []Value) (Value, error) {
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	radix := int32(0)
	if len(args) > 1 && !args[1].IsUndefined() {
		if radix, err = args[1].ToInt32(act); err != nil {
			return Undefined, err
		}
		if radix < 2 || radix > 36 {
			return Number(math.NaN()), nil
		}
	}

	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	switch {
	case (radix == 0 || radix == 16) && len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'):
		s, radix = s[2:], 16
	case radix == 0 && len(s) > 1 && s[0] == '0':
		radix = 8
		if strings.ContainsAny(s, "89") {
			radix = 10
		}
	case radix == 0:
		radix = 10
	}

	result, digits := 0.0, 0
	for _, c := range s {
		d := digitValue(c)
		if d < 0 || d >= int(radix) {
			break
		}
		result = result*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return Number(math.NaN()), nil
	}
	if neg {
		result = -result
	}
	return Number(result), nil
}

func digitValue(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return -1
}

// globalParseFloat parses the longest numeric prefix.
func globalParseFloat(act *Activation, this Object, args []Value) (Value, error) {
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	s = strings.TrimLeft(s, " \t\n\r")
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
		return Number(math.Inf(1)), nil
	}
	if strings.HasPrefix(s, "-Infinity") {
		return Number(math.Inf(-1)), nil
	}
	end := 0
	seenDot, seenExp, seenDigit := false, false, false
scan:
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			break scan
		}
	}
	if !seenDigit {
		return Number(math.NaN()), nil
	}
	n, err := strconv.ParseFloat(strings.TrimRight(s[:end], "eE+-"), 64)
	if err != nil {
		return Number(math.NaN()), nil
	}
	return Number(n), nil
}

// globalSetPropFlags implements ASSetPropFlags(obj, names, set, clear).
// names is null for every property, an array, or a comma separated list.
func globalSetPropFlags(act *Activation, this Object, args []Value) (Value, error) {
	obj := arg(args, 0).AsObject()
	if obj == nil {
		log.Warning("ASSetPropFlags called on a non-object")
		return Undefined, nil
	}
	set, err := arg(args, 2).ToInt32(act)
	if err != nil {
		return Undefined, err
	}
	clear := int32(0)
	if len(args) > 3 {
		if clear, err = args[3].ToInt32(act); err != nil {
			return Undefined, err
		}
	}
	setAttrs, clearAttrs := Attribute(set)&attributeMask, Attribute(clear)&attributeMask

	names := arg(args, 1)
	switch {
	case names.IsNull():
		obj.Base().SetAttributes(act, nil, setAttrs, clearAttrs)
	case names.AsObject() != nil:
		err := eachElement(act, names.AsObject(), func(_ int32, v Value) error {
			name, err := v.ToString(act)
			if err != nil {
				return err
			}
			obj.Base().SetAttributes(act, &name, setAttrs, clearAttrs)
			return nil
		})
		if err != nil {
			return Undefined, err
		}
	default:
		s, err := names.ToString(act)
		if err != nil {
			return Undefined, err
		}
		for name := range strings.SplitSeq(s, ",") {
			obj.Base().SetAttributes(act, &name, setAttrs, clearAttrs)
		}
	}
	return Undefined, nil
}

func globalEscape(act *Activation, this Object, args []Value) (Value, error) {
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || strings.IndexByte("@-_.*+/", c) >= 0 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteString(strings.ToUpper(strconv.FormatUint(uint64(c)|0x100, 16)[1:]))
	}
	return String(sb.String()), nil
}

func globalUnescape(act *Activation, this Object, args []Value) (Value, error) {
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if b, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				out = append(out, byte(b))
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return String(string(out)), nil
}
