package avm1

import (
	"fmt"

	"github.com/chazu/avm/display"
	"github.com/chazu/avm/swf"
)

// Executable is the code behind a function object.
type Executable interface {
	Exec(act *Activation, callee Object, this Object, baseProto Object, args []Value) (Value, error)
}

// NativeFunction is a built-in implemented in Go.
type NativeFunction func(act *Activation, this Object, args []Value) (Value, error)

func (f NativeFunction) Exec(act *Activation, callee Object, this Object, baseProto Object, args []Value) (Value, error) {
	return f(act, this, args)
}

// arg returns args[i], or Undefined when absent.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// ---------------------------------------------------------------------------
// Avm1Function: bytecode closures
// ---------------------------------------------------------------------------

// Avm1Function is a function defined by DefineFunction or DefineFunction2.
type Avm1Function struct {
	name          string
	swfVersion    uint8
	code          swf.Slice
	params        []swf.FunctionParam
	registerCount uint8
	flags         uint16
	version2      bool
	scope         *Scope
	constants     []string
	baseClip      display.DisplayObject
}

func newAvm1Function(act *Activation, code swf.Slice, fn *swf.Function) *Avm1Function {
	return &Avm1Function{
		name:          fn.Name,
		swfVersion:    act.swfVersion,
		code:          code,
		params:        fn.Params,
		registerCount: fn.RegisterCount,
		flags:         fn.Flags,
		version2:      fn.Version2,
		scope:         NewClosureScope(act.scope),
		constants:     act.constants,
		baseClip:      act.baseClip,
	}
}

func (f *Avm1Function) has(flag uint16) bool {
	return f.version2 && f.flags&flag != 0
}

func (f *Avm1Function) Exec(act *Activation, callee Object, this Object, baseProto Object, args []Value) (Value, error) {
	avm := act.avm
	if act.depth+1 >= avm.maxRecursion {
		return Undefined, &HaltError{Reason: fmt.Sprintf("function recursion limit of %d exceeded", avm.maxRecursion)}
	}

	arguments := NewArray(act, args)
	arguments.DefineValue("callee", ObjectValue(callee), DontEnum)
	arguments.DefineValue("caller", ObjectValue(act.callee), DontEnum)

	child := &Activation{
		avm:        avm,
		Context:    act.Context,
		id:         f.name,
		swfVersion: f.swfVersion,
		code:       f.code,
		scope:      NewLocalScope(f.scope),
		constants:  f.constants,
		this:       ObjectValue(this),
		arguments:  arguments,
		callee:     callee,
		baseClip:   f.baseClip,
		targetClip: f.baseClip,
		depth:      act.depth + 1,
		stackBase:  len(avm.stack),
	}
	if child.baseClip == nil || child.baseClip.Base().Removed() {
		child.baseClip = act.baseClip
		child.targetClip = act.baseClip
	}

	super := ObjectValue(nil)
	if this != nil && baseProto != nil {
		super = ObjectValue(NewSuperObject(this, baseProto))
	} else if this != nil {
		if p := ProtoOf(this); p != nil {
			super = ObjectValue(NewSuperObject(this, p))
		}
	}

	if f.version2 {
		child.localRegisters = make([]Value, int(f.registerCount)+1)
		r := uint8(1)
		preload := func(v Value) {
			child.setRegister(r, v)
			r++
		}
		if f.has(swf.FuncPreloadThis) {
			preload(ObjectValue(this))
		}
		if f.has(swf.FuncPreloadArguments) {
			preload(ObjectValue(arguments))
		} else if !f.has(swf.FuncSuppressArguments) {
			child.scope.Define(child, "arguments", ObjectValue(arguments))
		}
		if f.has(swf.FuncPreloadSuper) {
			preload(super)
		} else if !f.has(swf.FuncSuppressSuper) {
			child.scope.Define(child, "super", super)
		}
		if f.has(swf.FuncPreloadRoot) {
			preload(child.rootObject())
		}
		if f.has(swf.FuncPreloadParent) {
			preload(child.parentObject())
		}
		if f.has(swf.FuncPreloadGlobal) {
			preload(ObjectValue(avm.globals))
		}
	} else {
		child.scope.Define(child, "arguments", ObjectValue(arguments))
		child.scope.Define(child, "super", super)
	}

	for i, p := range f.params {
		v := arg(args, i)
		if f.version2 && p.Register != 0 {
			child.setRegister(p.Register, v)
		} else {
			child.scope.Define(child, p.Name, v)
		}
	}

	avm.frames = append(avm.frames, child)
	ret, _, err := child.runCode(f.code)
	avm.frames = avm.frames[:len(avm.frames)-1]
	avm.truncateStack(child.stackBase)
	return ret, err
}

// ---------------------------------------------------------------------------
// FunctionObject
// ---------------------------------------------------------------------------

// FunctionObject is a callable object. Native classes may have a separate
// constructor that runs for the new operator.
type FunctionObject struct {
	*ScriptObject
	exec Executable
	ctor Executable
}

// NewFunctionObject creates a function whose __proto__ is fnProto. When
// prototype is not nil it becomes the function's prototype property and
// gets a constructor back-reference.
func NewFunctionObject(exec Executable, fnProto Object, prototype Object) *FunctionObject {
	f := &FunctionObject{ScriptObject: NewScriptObject(fnProto), exec: exec}
	f.typeOf = "function"
	if prototype != nil {
		prototype.Base().DefineValue("constructor", ObjectValue(f), DontEnum)
		f.DefineValue("prototype", ObjectValue(prototype), DontEnum)
	}
	return f
}

// NewConstructor creates a native class: fn runs for plain calls and ctor
// for the new operator.
func NewConstructor(fn, ctor NativeFunction, fnProto Object, prototype Object) *FunctionObject {
	f := NewFunctionObject(fn, fnProto, prototype)
	f.ctor = ctor
	return f
}

func (f *FunctionObject) AsExecutable() Executable { return f.exec }

func (f *FunctionObject) Call(act *Activation, this Object, baseProto Object, args []Value) (Value, error) {
	return f.exec.Exec(act, f, this, baseProto, args)
}

func (f *FunctionObject) construct(act *Activation, this Object, args []Value) (Value, error) {
	exec := f.ctor
	if exec == nil {
		exec = f.exec
	}
	return exec.Exec(act, f, this, ProtoOf(this), args)
}

// ---------------------------------------------------------------------------
// SuperObject
// ---------------------------------------------------------------------------

// SuperObject is the value of super inside a method: member lookups start
// above baseProto and run against this; calling it runs the parent
// constructor.
type SuperObject struct {
	*ScriptObject
	this      Object
	baseProto Object
}

// NewSuperObject binds super for a method found on baseProto.
func NewSuperObject(this, baseProto Object) *SuperObject {
	return &SuperObject{ScriptObject: NewScriptObject(nil), this: this, baseProto: baseProto}
}

func (s *SuperObject) GetLocal(act *Activation, name string, this Object) (ReturnValue, bool) {
	p := ProtoOf(s.baseProto)
	if p == nil {
		return Immediate(Undefined), false
	}
	rv, holder, err := SearchPrototype(act, p, name, s.this)
	if err != nil || holder == nil {
		return Immediate(Undefined), false
	}
	return rv, true
}

func (s *SuperObject) Call(act *Activation, this Object, baseProto Object, args []Value) (Value, error) {
	ctor, err := Get(act, s.baseProto, "__constructor__")
	if err != nil {
		return Undefined, err
	}
	fn := ctor.AsObject()
	if fn == nil {
		return Undefined, nil
	}
	return fn.Call(act, s.this, ProtoOf(s.baseProto), args)
}

// callMethod invokes a parent method with the original receiver.
func (s *SuperObject) callMethod(act *Activation, name string, args []Value) (Value, error) {
	p := ProtoOf(s.baseProto)
	if p == nil {
		return Undefined, nil
	}
	rv, holder, err := SearchPrototype(act, p, name, s.this)
	if err != nil {
		return Undefined, err
	}
	method, err := rv.Resolve(act)
	if err != nil {
		return Undefined, err
	}
	fn := method.AsObject()
	if fn == nil {
		return Undefined, nil
	}
	return fn.Call(act, s.this, holder, args)
}
