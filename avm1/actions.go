package avm1

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/display"
	"github.com/chazu/avm/swf"
)

// doAction executes one decoded action. code is the slice r reads from;
// function bodies and blocks are carved out of it.
func (a *Activation) doAction(code swf.Slice, r *swf.Reader, act *swf.Action) (Value, bool, error) {
	var err error
	switch act.Code {
	// -----------------------------------------------------------------
	// Timeline control
	// -----------------------------------------------------------------
	case swf.ActionNextFrame:
		if mc, ok := a.targetMovieClip(); ok {
			mc.NextFrame(a.Context.Display())
		}
	case swf.ActionPrevFrame:
		if mc, ok := a.targetMovieClip(); ok {
			mc.PrevFrame(a.Context.Display())
		}
	case swf.ActionPlay:
		if mc, ok := a.targetMovieClip(); ok {
			mc.Play()
		}
	case swf.ActionStop:
		if mc, ok := a.targetMovieClip(); ok {
			mc.Stop()
		}
	case swf.ActionToggleQuality:
		log.Warning("ToggleQuality is not implemented")
	case swf.ActionStopSounds:
		if a.Context.Audio != nil {
			a.Context.Audio.StopAllSounds()
		}
	case swf.ActionGotoFrame:
		if mc, ok := a.targetMovieClip(); ok {
			mc.GotoFrame(a.Context.Display(), act.Frame+1, true)
		}
	case swf.ActionGotoLabel:
		if mc, ok := a.targetMovieClip(); ok {
			if !mc.GotoLabel(a.Context.Display(), act.Label, true) {
				log.Warningf("GotoLabel: frame label %q not found", act.Label)
			}
		}
	case swf.ActionGotoFrame2:
		err = a.actionGotoFrame2(act.Flags&0x01 != 0, act.SceneBias)
	case swf.ActionWaitForFrame:
		mc, _ := a.targetClip.(*display.MovieClip)
		a.waitForFrame(r, mc, act.Frame+1, mc != nil, int(act.SkipCount))
	case swf.ActionWaitForFrame2:
		var mc *display.MovieClip
		var frame uint16
		var ok bool
		if mc, frame, ok, err = a.frameFromValue(a.pop()); err == nil {
			a.waitForFrame(r, mc, frame, ok, int(act.SkipCount))
		}
	case swf.ActionSetTarget:
		err = a.setTarget(act.Label)
	case swf.ActionSetTarget2:
		err = a.actionSetTarget2()
	case swf.ActionCall:
		err = a.actionCall()
	case swf.ActionGetUrl:
		a.getURL(act.URL, act.Target, nil, backend.NavigateNone)
	case swf.ActionGetUrl2:
		err = a.actionGetURL2(act.Flags)

	// -----------------------------------------------------------------
	// Arithmetic and comparison
	// -----------------------------------------------------------------
	case swf.ActionAdd:
		err = a.binaryNumber(func(x, y float64) Value { return Number(x + y) })
	case swf.ActionSubtract:
		err = a.binaryNumber(func(x, y float64) Value { return Number(x - y) })
	case swf.ActionMultiply:
		err = a.binaryNumber(func(x, y float64) Value { return Number(x * y) })
	case swf.ActionDivide:
		err = a.binaryNumber(func(x, y float64) Value {
			if y == 0 && a.swfVersion < 5 {
				return String("#ERROR#")
			}
			return Number(x / y)
		})
	case swf.ActionModulo:
		err = a.binaryNumber(func(x, y float64) Value { return Number(math.Mod(x, y)) })
	case swf.ActionEquals:
		err = a.binaryNumber(func(x, y float64) Value { return a.boolV1(x == y) })
	case swf.ActionLess:
		err = a.binaryNumber(func(x, y float64) Value { return a.boolV1(x < y) })
	case swf.ActionAnd:
		b, x := a.pop(), a.pop()
		a.push(a.boolV1(x.ToBool(a.swfVersion) && b.ToBool(a.swfVersion)))
	case swf.ActionOr:
		b, x := a.pop(), a.pop()
		a.push(a.boolV1(x.ToBool(a.swfVersion) || b.ToBool(a.swfVersion)))
	case swf.ActionNot:
		a.push(a.boolV1(!a.pop().ToBool(a.swfVersion)))
	case swf.ActionToInteger:
		var n float64
		if n, err = a.popNumber(); err == nil {
			a.push(Number(math.Trunc(n)))
		}
	case swf.ActionIncrement:
		var n float64
		if n, err = a.popNumber(); err == nil {
			a.push(Number(n + 1))
		}
	case swf.ActionDecrement:
		var n float64
		if n, err = a.popNumber(); err == nil {
			a.push(Number(n - 1))
		}
	case swf.ActionAdd2:
		err = a.actionAdd2()
	case swf.ActionLess2:
		b, x := a.pop(), a.pop()
		var v Value
		if v, err = AbstractLessThan(a, x, b); err == nil {
			a.push(v)
		}
	case swf.ActionGreater:
		b, x := a.pop(), a.pop()
		var v Value
		if v, err = AbstractLessThan(a, b, x); err == nil {
			a.push(v)
		}
	case swf.ActionEquals2:
		b, x := a.pop(), a.pop()
		var eq bool
		if eq, err = AbstractEquals(a, x, b); err == nil {
			a.push(Bool(eq))
		}
	case swf.ActionStrictEquals:
		b, x := a.pop(), a.pop()
		a.push(Bool(StrictEquals(x, b)))
	case swf.ActionBitAnd:
		err = a.binaryInt(func(x, y int32) Value { return Number(float64(x & y)) })
	case swf.ActionBitOr:
		err = a.binaryInt(func(x, y int32) Value { return Number(float64(x | y)) })
	case swf.ActionBitXor:
		err = a.binaryInt(func(x, y int32) Value { return Number(float64(x ^ y)) })
	case swf.ActionBitLShift:
		err = a.binaryInt(func(x, y int32) Value { return Number(float64(x << (uint32(y) & 31))) })
	case swf.ActionBitRShift:
		err = a.binaryInt(func(x, y int32) Value { return Number(float64(x >> (uint32(y) & 31))) })
	case swf.ActionBitURShift:
		err = a.binaryInt(func(x, y int32) Value { return Number(float64(uint32(x) >> (uint32(y) & 31))) })
	case swf.ActionToNumber:
		var n float64
		if n, err = a.popNumber(); err == nil {
			a.push(Number(n))
		}
	case swf.ActionToString:
		var s string
		if s, err = a.popString(); err == nil {
			a.push(String(s))
		}

	// -----------------------------------------------------------------
	// Strings
	// -----------------------------------------------------------------
	case swf.ActionStringEquals:
		err = a.binaryString(func(x, y string) Value { return a.boolV1(x == y) })
	case swf.ActionStringLess:
		err = a.binaryString(func(x, y string) Value { return a.boolV1(x < y) })
	case swf.ActionStringGreater:
		err = a.binaryString(func(x, y string) Value { return a.boolV1(x > y) })
	case swf.ActionStringAdd:
		err = a.binaryString(func(x, y string) Value { return String(x + y) })
	case swf.ActionStringLength, swf.ActionMBStringLength:
		var s string
		if s, err = a.popString(); err == nil {
			a.push(Number(float64(utf8.RuneCountInString(s))))
		}
	case swf.ActionStringExtract, swf.ActionMBStringExtract:
		err = a.actionStringExtract()
	case swf.ActionCharToAscii, swf.ActionMBCharToAscii:
		var s string
		if s, err = a.popString(); err == nil {
			if s == "" {
				a.push(Number(0))
			} else {
				c, _ := utf8.DecodeRuneInString(s)
				a.push(Number(float64(c)))
			}
		}
	case swf.ActionAsciiToChar, swf.ActionMBAsciiToChar:
		var n float64
		if n, err = a.popNumber(); err == nil {
			a.push(String(string(rune(uint16(toInt32(n))))))
		}

	// -----------------------------------------------------------------
	// Stack and registers
	// -----------------------------------------------------------------
	case swf.ActionPush:
		a.actionPush(act.Values)
	case swf.ActionPop:
		a.pop()
	case swf.ActionPushDuplicate:
		v := a.pop()
		a.push(v)
		a.push(v)
	case swf.ActionStackSwap:
		b, x := a.pop(), a.pop()
		a.push(b)
		a.push(x)
	case swf.ActionStoreRegister:
		v := a.pop()
		a.push(v)
		if !a.setRegister(act.Register, v) {
			log.Warningf("StoreRegister: invalid register %d", act.Register)
		}
	case swf.ActionConstantPool:
		a.constants = act.Constants
		a.avm.constantPool = act.Constants

	// -----------------------------------------------------------------
	// Variables and properties
	// -----------------------------------------------------------------
	case swf.ActionGetVariable:
		var name string
		var v Value
		if name, err = a.popString(); err == nil {
			if v, err = a.getVariable(name); err == nil {
				a.push(v)
			}
		}
	case swf.ActionSetVariable:
		v := a.pop()
		var name string
		if name, err = a.popString(); err == nil {
			err = a.setVariable(name, v)
		}
	case swf.ActionDefineLocal:
		v := a.pop()
		var name string
		if name, err = a.popString(); err == nil {
			a.scope.Define(a, name, v)
		}
	case swf.ActionDefineLocal2:
		var name string
		if name, err = a.popString(); err == nil {
			if !a.scope.values.HasOwnProperty(a, name) {
				a.scope.Define(a, name, Undefined)
			}
		}
	case swf.ActionDelete:
		var name string
		if name, err = a.popString(); err == nil {
			target := a.pop()
			if obj := target.AsObject(); obj != nil {
				a.push(Bool(obj.Delete(a, name)))
			} else {
				log.Warningf("Delete: cannot delete %q from %s", name, target.TypeOf())
				a.push(Bool(false))
			}
		}
	case swf.ActionDelete2:
		var name string
		if name, err = a.popString(); err == nil {
			a.push(Bool(a.scope.Delete(a, name)))
		}
	case swf.ActionGetMember:
		err = a.actionGetMember()
	case swf.ActionSetMember:
		err = a.actionSetMember()
	case swf.ActionGetProperty:
		err = a.actionGetProperty()
	case swf.ActionSetProperty:
		err = a.actionSetProperty()
	case swf.ActionTargetPath:
		v := a.pop()
		if so, ok := v.AsObject().(*StageObject); ok {
			a.push(String(display.Path(so.node)))
		} else {
			a.push(Undefined)
		}
	case swf.ActionTypeOf:
		a.push(String(a.pop().TypeOf()))
	case swf.ActionEnumerate:
		var name string
		if name, err = a.popString(); err == nil {
			var v Value
			if v, err = a.getVariable(name); err == nil {
				a.enumerate(v)
			}
		}
	case swf.ActionEnumerate2:
		a.enumerate(a.pop())

	// -----------------------------------------------------------------
	// Objects and functions
	// -----------------------------------------------------------------
	case swf.ActionCallFunction:
		err = a.actionCallFunction()
	case swf.ActionCallMethod:
		err = a.actionCallMethod()
	case swf.ActionNewObject:
		err = a.actionNewObject()
	case swf.ActionNewMethod:
		err = a.actionNewMethod()
	case swf.ActionInitArray:
		var args []Value
		if args, err = a.popArgs(); err == nil {
			a.push(ObjectValue(NewArray(a, args)))
		}
	case swf.ActionInitObject:
		err = a.actionInitObject()
	case swf.ActionInstanceOf:
		ctor, v := a.pop(), a.pop()
		result := false
		if c, obj := ctor.AsObject(), v.AsObject(); c != nil && obj != nil {
			result, err = IsInstanceOf(a, obj, c)
		}
		a.push(Bool(result))
	case swf.ActionCastOp:
		v, ctor := a.pop(), a.pop()
		out := Null
		if c, obj := ctor.AsObject(), v.AsObject(); c != nil && obj != nil {
			var ok bool
			if ok, err = IsInstanceOf(a, obj, c); ok {
				out = v
			}
		}
		a.push(out)
	case swf.ActionImplementsOp:
		err = a.actionImplementsOp()
	case swf.ActionExtends:
		err = a.actionExtends()
	case swf.ActionDefineFunction, swf.ActionDefineFunction2:
		err = a.actionDefineFunction(code, r, act.Function)
	case swf.ActionReturn:
		return a.pop(), true, nil
	case swf.ActionWith:
		return a.actionWith(code, r, int(act.BlockSize))
	case swf.ActionTry:
		return a.actionTry(code, r, act.Try)
	case swf.ActionThrow:
		return Undefined, false, &ThrownValue{Value: a.pop()}

	// -----------------------------------------------------------------
	// Branches
	// -----------------------------------------------------------------
	case swf.ActionJump:
		err = a.jump(r, int(act.Offset))
	case swf.ActionIf:
		if a.pop().ToBool(a.swfVersion) {
			err = a.jump(r, int(act.Offset))
		}

	// -----------------------------------------------------------------
	// Host services
	// -----------------------------------------------------------------
	case swf.ActionTrace:
		v := a.pop()
		msg := "undefined"
		if !v.IsUndefined() {
			if msg, err = v.ToString(a); err != nil {
				break
			}
		}
		a.avm.trace(msg)
	case swf.ActionGetTime:
		a.push(Number(a.Context.Timer()))
	case swf.ActionRandomNumber:
		var n float64
		if n, err = a.popNumber(); err == nil {
			limit := toInt32(n)
			if limit <= 0 {
				a.push(Number(0))
			} else {
				a.push(Number(float64(a.Context.Rand.Int32N(limit))))
			}
		}
	case swf.ActionStartDrag:
		err = a.actionStartDrag()
	case swf.ActionEndDrag:
		a.Context.Drag = nil
	case swf.ActionCloneSprite:
		a.pop()
		a.pop()
		a.pop()
		log.Warning("CloneSprite is not implemented")
	case swf.ActionRemoveSprite:
		err = a.actionRemoveSprite()

	default:
		log.Warningf("unknown action %s", act.Code)
	}
	return Undefined, false, err
}

func (a *Activation) jump(r *swf.Reader, offset int) error {
	if err := r.Jump(offset); err != nil {
		return &HaltError{Reason: "invalid bytecode: " + err.Error()}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

func (a *Activation) binaryNumber(op func(x, y float64) Value) error {
	b, x := a.pop(), a.pop()
	nx, err := x.ToNumber(a)
	if err != nil {
		return err
	}
	ny, err := b.ToNumber(a)
	if err != nil {
		return err
	}
	a.push(op(nx, ny))
	return nil
}

func (a *Activation) binaryInt(op func(x, y int32) Value) error {
	b, x := a.pop(), a.pop()
	ix, err := x.ToInt32(a)
	if err != nil {
		return err
	}
	iy, err := b.ToInt32(a)
	if err != nil {
		return err
	}
	a.push(op(ix, iy))
	return nil
}

func (a *Activation) binaryString(op func(x, y string) Value) error {
	b, x := a.pop(), a.pop()
	sx, err := x.ToString(a)
	if err != nil {
		return err
	}
	sy, err := b.ToString(a)
	if err != nil {
		return err
	}
	a.push(op(sx, sy))
	return nil
}

func (a *Activation) actionPush(values []swf.PushValue) {
	for _, pv := range values {
		switch pv.Kind {
		case swf.PushString:
			a.push(String(pv.Str))
		case swf.PushFloat, swf.PushDouble:
			a.push(Number(pv.Num))
		case swf.PushInt:
			a.push(Number(float64(pv.Int)))
		case swf.PushBool:
			a.push(Bool(pv.Bool))
		case swf.PushNull:
			a.push(Null)
		case swf.PushUndefined:
			a.push(Undefined)
		case swf.PushRegister:
			v, ok := a.register(uint8(pv.Index))
			if !ok {
				log.Warningf("Push: invalid register %d", pv.Index)
			}
			a.push(v)
		case swf.PushConstant8, swf.PushConstant:
			if int(pv.Index) < len(a.constants) {
				a.push(String(a.constants[pv.Index]))
			} else {
				log.Warningf("Push: constant %d out of range", pv.Index)
				a.push(Undefined)
			}
		}
	}
}

func (a *Activation) actionAdd2() error {
	b, x := a.pop(), a.pop()
	px, err := x.ToPrimitive(a)
	if err != nil {
		return err
	}
	pb, err := b.ToPrimitive(a)
	if err != nil {
		return err
	}
	if px.kind == KindString || pb.kind == KindString {
		sx, err := px.ToString(a)
		if err != nil {
			return err
		}
		sb, err := pb.ToString(a)
		if err != nil {
			return err
		}
		a.push(String(sx + sb))
		return nil
	}
	a.push(Number(px.primitiveNumber(a.swfVersion) + pb.primitiveNumber(a.swfVersion)))
	return nil
}

func (a *Activation) actionStringExtract() error {
	count, err := a.popNumber()
	if err != nil {
		return err
	}
	index, err := a.popNumber()
	if err != nil {
		return err
	}
	s, err := a.popString()
	if err != nil {
		return err
	}
	runes := []rune(s)
	start := int(toInt32(index)) - 1
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if n := int(toInt32(count)); n >= 0 && start+n < end {
		end = start + n
	}
	a.push(String(string(runes[start:end])))
	return nil
}

func (a *Activation) enumerate(v Value) {
	a.push(Null)
	obj := v.AsObject()
	if obj == nil {
		return
	}
	for _, k := range obj.GetKeys(a) {
		a.push(String(k))
	}
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func (a *Activation) actionGetMember() error {
	name, err := a.popString()
	if err != nil {
		return err
	}
	target := a.pop()
	if target.IsNullOrUndefined() {
		a.push(Undefined)
		return nil
	}
	v, err := Get(a, target.ToObject(a), name)
	if err != nil {
		return err
	}
	a.push(v)
	return nil
}

func (a *Activation) actionSetMember() error {
	v := a.pop()
	name, err := a.popString()
	if err != nil {
		return err
	}
	target := a.pop()
	obj := target.AsObject()
	if obj == nil {
		log.Warningf("SetMember: cannot set %q on %s", name, target.TypeOf())
		return nil
	}
	return Set(a, obj, name, v)
}

func (a *Activation) actionGetProperty() error {
	index, err := a.popNumber()
	if err != nil {
		return err
	}
	path, err := a.popString()
	if err != nil {
		return err
	}
	target, err := a.resolveTargetFromScope(path)
	if err != nil {
		return err
	}
	so, ok := target.(*StageObject)
	prop, found := a.avm.displayProperties.ByIndex(int(toInt32(index)))
	if !ok || !found {
		a.push(Undefined)
		return nil
	}
	a.push(prop.get(a, so.node))
	return nil
}

func (a *Activation) actionSetProperty() error {
	v := a.pop()
	index, err := a.popNumber()
	if err != nil {
		return err
	}
	path, err := a.popString()
	if err != nil {
		return err
	}
	target, err := a.resolveTargetFromScope(path)
	if err != nil {
		return err
	}
	so, ok := target.(*StageObject)
	prop, found := a.avm.displayProperties.ByIndex(int(toInt32(index)))
	if !ok || !found {
		log.Warningf("SetProperty: no property %v on %q", index, path)
		return nil
	}
	return prop.set(a, so.node, v)
}

func (a *Activation) actionInitObject() error {
	n, err := a.popNumber()
	if err != nil {
		return err
	}
	obj := NewScriptObject(a.avm.prototypes.Object)
	for i := int32(0); i < toInt32(n); i++ {
		v := a.pop()
		name, err := a.popString()
		if err != nil {
			return err
		}
		obj.define(a, name, v, 0)
	}
	a.push(ObjectValue(obj))
	return nil
}

// ---------------------------------------------------------------------------
// Calls and construction
// ---------------------------------------------------------------------------

func (a *Activation) actionCallFunction() error {
	name, err := a.popString()
	if err != nil {
		return err
	}
	args, err := a.popArgs()
	if err != nil {
		return err
	}
	fnValue, err := a.getVariable(name)
	if err != nil {
		return err
	}
	fn := fnValue.AsObject()
	if fn == nil {
		log.Warningf("CallFunction: %q is not a function", name)
		a.push(Undefined)
		return nil
	}
	this := a.targetOrRoot()
	result, err := fn.Call(a, this, nil, args)
	if err != nil {
		return err
	}
	a.push(result)
	return nil
}

func (a *Activation) actionCallMethod() error {
	nameValue := a.pop()
	target := a.pop()
	args, err := a.popArgs()
	if err != nil {
		return err
	}

	name := ""
	if !nameValue.IsNullOrUndefined() {
		if name, err = nameValue.ToString(a); err != nil {
			return err
		}
	}
	if name == "" {
		fn := target.AsObject()
		if fn == nil {
			a.push(Undefined)
			return nil
		}
		result, err := fn.Call(a, a.targetOrRoot(), nil, args)
		if err != nil {
			return err
		}
		a.push(result)
		return nil
	}

	if target.IsNullOrUndefined() {
		log.Warningf("CallMethod: cannot call %q on %s", name, target.TypeOf())
		a.push(Undefined)
		return nil
	}
	result, err := CallMethod(a, target.ToObject(a), name, args)
	if err != nil {
		return err
	}
	a.push(result)
	return nil
}

func (a *Activation) construct(ctorValue Value, args []Value, what string) error {
	ctor := ctorValue.AsObject()
	if ctor == nil {
		log.Warningf("%s: %s is not a constructor", what, ctorValue.TypeOf())
		a.push(Undefined)
		return nil
	}
	obj, err := Construct(a, ctor, args)
	if err != nil {
		return err
	}
	a.push(ObjectValue(obj))
	return nil
}

func (a *Activation) actionNewObject() error {
	name, err := a.popString()
	if err != nil {
		return err
	}
	args, err := a.popArgs()
	if err != nil {
		return err
	}
	ctor, err := a.getVariable(name)
	if err != nil {
		return err
	}
	return a.construct(ctor, args, "NewObject")
}

func (a *Activation) actionNewMethod() error {
	nameValue := a.pop()
	target := a.pop()
	args, err := a.popArgs()
	if err != nil {
		return err
	}
	name := ""
	if !nameValue.IsNullOrUndefined() {
		if name, err = nameValue.ToString(a); err != nil {
			return err
		}
	}
	if name == "" {
		return a.construct(target, args, "NewMethod")
	}
	if target.IsNullOrUndefined() {
		a.push(Undefined)
		return nil
	}
	ctor, err := Get(a, target.ToObject(a), name)
	if err != nil {
		return err
	}
	return a.construct(ctor, args, "NewMethod")
}

func (a *Activation) actionImplementsOp() error {
	ctor := a.pop().AsObject()
	args, err := a.popArgs()
	if err != nil {
		return err
	}
	if ctor == nil {
		return nil
	}
	pv, err := Get(a, ctor, "prototype")
	if err != nil {
		return err
	}
	proto := pv.AsObject()
	if proto == nil {
		return nil
	}
	var ifaces []Object
	for _, v := range args {
		if o := v.AsObject(); o != nil {
			ifaces = append(ifaces, o)
		}
	}
	proto.Base().SetInterfaces(ifaces)
	return nil
}

func (a *Activation) actionExtends() error {
	superclass := a.pop().AsObject()
	subclass := a.pop().AsObject()
	if superclass == nil || subclass == nil {
		log.Warning("Extends: operands must be objects")
		return nil
	}
	sp, err := Get(a, superclass, "prototype")
	if err != nil {
		return err
	}
	proto := NewScriptObject(sp.AsObject())
	proto.DefineValue("constructor", ObjectValue(superclass), DontEnum)
	proto.DefineValue("__constructor__", ObjectValue(superclass), DontEnum)
	return Set(a, subclass, "prototype", ObjectValue(proto))
}

func (a *Activation) actionDefineFunction(code swf.Slice, r *swf.Reader, fn *swf.Function) error {
	body, ok := code.Sub(r.Pos(), int(fn.CodeSize))
	if !ok {
		return &HaltError{Reason: "invalid bytecode: function body runs past the end of its code"}
	}
	if err := a.jump(r, int(fn.CodeSize)); err != nil {
		return err
	}
	f := newAvm1Function(a, body, fn)
	proto := NewScriptObject(a.avm.prototypes.Object)
	obj := NewFunctionObject(f, a.avm.prototypes.Function, proto)
	if fn.Name == "" {
		a.push(ObjectValue(obj))
	} else {
		a.scope.Define(a, fn.Name, ObjectValue(obj))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

func (a *Activation) actionWith(code swf.Slice, r *swf.Reader, size int) (Value, bool, error) {
	body, ok := code.Sub(r.Pos(), size)
	if !ok {
		return Undefined, false, &HaltError{Reason: "invalid bytecode: with block runs past the end of its code"}
	}
	if err := a.jump(r, size); err != nil {
		return Undefined, false, err
	}
	obj := a.pop().ToObject(a)
	saved := a.scope
	target := saved.target()
	a.scope = NewWithScope(a.scope, obj)
	ret, returned, err := a.runCode(body)
	// A tellTarget inside the block outlives it.
	if now := a.scope.target(); now != nil && now != target {
		saved = NewTargetScope(saved, now)
	}
	a.scope = saved
	return ret, returned, err
}

func (a *Activation) actionTry(code swf.Slice, r *swf.Reader, t *swf.TryBlock) (Value, bool, error) {
	start := r.Pos()
	trySize, catchSize, finallySize := int(t.TrySize), int(t.CatchSize), int(t.FinallySize)
	tryBody, ok1 := code.Sub(start, trySize)
	catchBody, ok2 := code.Sub(start+trySize, catchSize)
	finallyBody, ok3 := code.Sub(start+trySize+catchSize, finallySize)
	if !ok1 || !ok2 || !ok3 {
		return Undefined, false, &HaltError{Reason: "invalid bytecode: try block runs past the end of its code"}
	}
	if err := a.jump(r, trySize+catchSize+finallySize); err != nil {
		return Undefined, false, err
	}

	depth := len(a.avm.stack)
	ret, returned, err := a.runCode(tryBody)

	var thrown *ThrownValue
	if err != nil && t.HasCatch && !IsHalting(err) && errors.As(err, &thrown) {
		a.avm.truncateStack(depth)
		if t.CatchInReg {
			a.setRegister(t.CatchRegister, thrown.Value)
		} else if serr := a.setVariable(t.CatchName, thrown.Value); serr != nil {
			return Undefined, false, serr
		}
		ret, returned, err = a.runCode(catchBody)
	}

	if t.HasFinally && !IsHalting(err) {
		fret, freturned, ferr := a.runCode(finallyBody)
		if ferr != nil {
			return Undefined, false, ferr
		}
		if freturned {
			return fret, true, nil
		}
	}
	return ret, returned, err
}

// ---------------------------------------------------------------------------
// Timeline helpers
// ---------------------------------------------------------------------------

// frameFromValue parses a GotoFrame2 operand: a number, or a string that
// is a frame number or label, optionally prefixed by "path:".
func (a *Activation) frameFromValue(v Value) (*display.MovieClip, uint16, bool, error) {
	mc, _ := a.targetClip.(*display.MovieClip)
	if s, isString := v.AsString(); isString {
		if target, frame, ok := strings.Cut(s, ":"); ok {
			obj, err := a.resolveTargetFromScope(target)
			if err != nil {
				return nil, 0, false, err
			}
			so, isStage := obj.(*StageObject)
			if !isStage {
				return nil, 0, false, nil
			}
			if mc, _ = so.node.(*display.MovieClip); mc == nil {
				return nil, 0, false, nil
			}
			s = frame
		}
		if mc == nil {
			return nil, 0, false, nil
		}
		if n := parseNumber(s); !math.IsNaN(n) {
			return mc, uint16(toInt32(n)), true, nil
		}
		f, ok := mc.FrameLabel(s)
		return mc, f, ok, nil
	}
	if mc == nil {
		return nil, 0, false, nil
	}
	n, err := v.ToNumber(a)
	if err != nil {
		return nil, 0, false, err
	}
	return mc, uint16(toInt32(n)), true, nil
}

func (a *Activation) actionGotoFrame2(play bool, bias uint16) error {
	mc, frame, ok, err := a.frameFromValue(a.pop())
	if err != nil || !ok {
		if err == nil {
			log.Warning("GotoFrame2: frame not found")
		}
		return err
	}
	mc.GotoFrame(a.Context.Display(), frame+bias, !play)
	if play {
		mc.Play()
	}
	return nil
}

// waitForFrame skips the next skip actions unless the 1-based frame has
// loaded.
func (a *Activation) waitForFrame(r *swf.Reader, mc *display.MovieClip, frame uint16, ok bool, skip int) {
	if ok && mc != nil && frame <= mc.FramesLoaded() {
		return
	}
	if err := r.SkipActions(skip); err != nil {
		log.Warningf("WaitForFrame: %s", err)
	}
}

func (a *Activation) actionSetTarget2() error {
	v := a.pop()
	if so, ok := v.AsObject().(*StageObject); ok {
		a.setTargetObject(so)
		return nil
	}
	path, err := v.ToString(a)
	if err != nil {
		return err
	}
	return a.setTarget(path)
}

// actionCall runs the frame scripts of a frame without moving the
// playhead.
func (a *Activation) actionCall() error {
	mc, frame, ok, err := a.frameFromValue(a.pop())
	if err != nil || !ok || mc == nil {
		if err == nil {
			log.Warning("Call: frame not found")
		}
		return err
	}
	for _, code := range mc.FrameActions(frame) {
		child := a.child("[Call]", code, NewTargetScope(a.scope, a.avm.StageObject(mc)))
		child.targetClip = mc
		if _, _, err := child.runCode(code); err != nil {
			return err
		}
	}
	return nil
}

func (a *Activation) actionGetURL2(flags uint8) error {
	window, err := a.popString()
	if err != nil {
		return err
	}
	url, err := a.popString()
	if err != nil {
		return err
	}
	if flags&swf.GetUrlLoadTarget != 0 {
		log.Warningf("GetUrl2: loading %q into target %q is not implemented", url, window)
		return nil
	}
	if flags&swf.GetUrlLoadVariables != 0 {
		log.Warningf("GetUrl2: loading variables from %q is not implemented", url)
		return nil
	}
	method := backend.NavigationMethod(flags & swf.GetUrlMethodMask)
	var vars map[string]string
	if method != backend.NavigateNone {
		vars = make(map[string]string)
		obj := a.targetOrRoot()
		for _, k := range obj.GetKeys(a) {
			v, err := Get(a, obj, k)
			if err != nil {
				return err
			}
			if s, err := v.ToString(a); err == nil {
				vars[k] = s
			}
		}
	}
	a.getURL(url, window, vars, method)
	return nil
}

func (a *Activation) getURL(url, window string, vars map[string]string, method backend.NavigationMethod) {
	if strings.HasPrefix(window, "_level") {
		log.Warningf("GetUrl: loading %q into %s is not implemented", url, window)
		return
	}
	if a.Context.Navigator != nil {
		a.Context.Navigator.NavigateToURL(url, window, vars, method)
	}
}

func (a *Activation) actionStartDrag() error {
	target, err := a.popString()
	if err != nil {
		return err
	}
	obj, err := a.resolveTargetFromScope(target)
	if err != nil {
		return err
	}
	args := []Value{a.pop()}
	if a.pop().ToBool(a.swfVersion) {
		y2, x2, y1, x1 := a.pop(), a.pop(), a.pop(), a.pop()
		args = append(args, x1, y1, x2, y2)
	}
	so, ok := obj.(*StageObject)
	if !ok {
		log.Warningf("StartDrag: %q is not a display object", target)
		return nil
	}
	return startDrag(a, so.node, args)
}

func (a *Activation) actionRemoveSprite() error {
	target, err := a.popString()
	if err != nil {
		return err
	}
	obj, err := a.resolveTargetFromScope(target)
	if err != nil {
		return err
	}
	if so, ok := obj.(*StageObject); ok {
		removeDisplayObject(so.node)
	}
	return nil
}

func removeDisplayObject(node display.DisplayObject) {
	parent, ok := node.Base().Parent().(*display.MovieClip)
	if !ok {
		return
	}
	if parent.ChildAtDepth(node.Base().Depth()) == node {
		parent.RemoveChild(node.Base().Depth())
	}
}
