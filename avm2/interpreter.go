package avm2

import (
	"fmt"
	"math"
)

// step executes the op at pc. It returns the next pc, or the return value
// with done set when the method returns.
func (a *Activation) step(op *Op, pc int) (next int, ret Value, done bool, err error) {
	next = pc + 1
	switch op.Code {
	case OpNop, OpLabel, OpDebug:

	// ----- constants -----
	case OpPushUndefined:
		a.push(Undefined)
	case OpPushNull:
		a.push(Null)
	case OpPushTrue:
		a.push(Bool(true))
	case OpPushFalse:
		a.push(Bool(false))
	case OpPushNaN:
		a.push(Number(math.NaN()))
	case OpPushByte, OpPushShort, OpPushInt:
		a.push(Int(op.Int))
	case OpPushUint:
		a.push(Uint(op.Uint))
	case OpPushDouble:
		a.push(Number(op.Num))
	case OpPushString:
		a.push(String(op.Str))

	// ----- stack -----
	case OpPop:
		a.pop()
	case OpDup:
		v := a.pop()
		a.push(v)
		a.push(v)
	case OpSwap:
		b, c := a.pop(), a.pop()
		a.push(b)
		a.push(c)

	// ----- locals -----
	case OpGetLocal:
		if err = a.checkLocal(op.Index); err == nil {
			a.push(a.locals[op.Index])
		}
	case OpSetLocal:
		if err = a.checkLocal(op.Index); err == nil {
			a.locals[op.Index] = a.pop()
		}
	case OpKill:
		if err = a.checkLocal(op.Index); err == nil {
			a.locals[op.Index] = Undefined
		}
	case OpIncLocal, OpDecLocal:
		if err = a.checkLocal(op.Index); err != nil {
			break
		}
		var n float64
		if n, err = a.locals[op.Index].ToNumber(a); err == nil {
			if op.Code == OpIncLocal {
				a.locals[op.Index] = Number(n + 1)
			} else {
				a.locals[op.Index] = Number(n - 1)
			}
		}

	// ----- slots -----
	case OpGetSlot:
		var obj Object
		if obj, err = a.popObject(); err == nil {
			err = a.getSlot(obj, op.Index)
		}
	case OpSetSlot:
		v := a.pop()
		var obj Object
		if obj, err = a.popObject(); err == nil {
			err = a.setSlot(obj, op.Index, v)
		}
	case OpGetGlobalSlot:
		err = a.getSlot(a.Global(), op.Index)
	case OpSetGlobalSlot:
		err = a.setSlot(a.Global(), op.Index, a.pop())

	// ----- properties -----
	case OpGetProperty:
		err = a.opGetProperty(op)
	case OpSetProperty, OpInitProperty:
		err = a.opSetProperty(op, op.Code == OpInitProperty)
	case OpDeleteProperty:
		var name string
		if name, err = a.popName(op); err != nil {
			break
		}
		var obj Object
		if obj, err = a.popObject(); err == nil {
			a.push(Bool(DeleteProperty(a, obj, name)))
		}
	case OpFindProperty, OpFindPropStrict:
		var name string
		if name, err = a.popName(op); err != nil {
			break
		}
		var obj Object
		if op.Code == OpFindPropStrict {
			obj, err = a.findPropStrict(name)
		} else if obj, err = a.findProperty(name); obj == nil && err == nil {
			obj = a.Global()
		}
		if err == nil {
			a.push(ObjectValue(obj))
		}
	case OpGetLex:
		var v Value
		if v, err = a.Resolve(op.Str); err == nil {
			a.push(v)
		}
	case OpGetSuper:
		err = a.opGetSuper(op)
	case OpSetSuper:
		err = a.opSetSuper(op)

	// ----- scopes -----
	case OpPushScope, OpPushWith:
		var obj Object
		if obj, err = a.popObject(); err == nil {
			a.pushScope(Scope{values: obj, with: op.Code == OpPushWith})
		}
	case OpPopScope:
		a.popScope()
	case OpGetScopeObject:
		scopes := a.localScopes()
		if op.Index < 0 || op.Index >= len(scopes) {
			err = VerifyError(a, 1019, fmt.Sprintf("Getscopeobject %d is out of bounds.", op.Index))
			break
		}
		a.push(ObjectValue(scopes[op.Index].values))
	case OpGetGlobalScope:
		a.push(ObjectValue(a.Global()))

	// ----- construction -----
	case OpNewObject:
		err = a.opNewObject(op.Uint)
	case OpNewArray:
		a.push(ObjectValue(a.avm.newArray(a.popArgs(op.Uint))))
	case OpNewFunction:
		var m *Method
		if m, err = a.methodAt(op.Index); err == nil {
			scope := a.outer.Chain(a.localScopes()...)
			a.push(ObjectValue(a.avm.newFunction(m, scope, nil, nil)))
		}
	case OpNewClass:
		err = a.opNewClass(op.Index)
	case OpNewActivation:
		obj := NewScriptObject(nil, nil)
		var traits []*Trait
		if traits, _, err = layoutTraits(a, a.method.Body.Traits, 0, nil); err == nil {
			installTraits(a.avm, obj, traits, a.outer, nil)
			a.push(ObjectValue(obj))
		}

	// ----- calls -----
	case OpCallProperty, OpCallPropVoid, OpCallPropLex:
		err = a.opCallProperty(op)
	case OpCallMethod:
		err = a.opCallMethod(op)
	case OpCallSuper, OpCallSuperVoid:
		err = a.opCallSuper(op)
	case OpCall:
		args := a.popArgs(op.Uint)
		this := a.pop().AsObject()
		callee := a.pop()
		var r Value
		if r, err = a.callValue(callee, this, args); err == nil {
			a.push(r)
		}
	case OpConstruct:
		args := a.popArgs(op.Uint)
		var obj Object
		if obj, err = a.construct(a.pop(), args); err == nil {
			a.push(ObjectValue(obj))
		}
	case OpConstructProp:
		args := a.popArgs(op.Uint)
		var name string
		if name, err = a.popName(op); err != nil {
			break
		}
		var recv Object
		if recv, err = a.popObject(); err != nil {
			break
		}
		var ctor Value
		if ctor, err = GetProperty(a, recv, name); err != nil {
			break
		}
		var obj Object
		if obj, err = a.construct(ctor, args); err == nil {
			a.push(ObjectValue(obj))
		}
	case OpConstructSuper:
		args := a.popArgs(op.Uint)
		var recv Object
		if recv, err = a.popObject(); err != nil {
			break
		}
		if a.class != nil && a.class.super != nil {
			err = a.class.super.initInstance(a, recv, args)
		}
	case OpReturnValue:
		return next, a.pop(), true, nil
	case OpReturnVoid:
		return next, Undefined, true, nil
	case OpThrow:
		return next, Undefined, false, &ThrownValue{Value: a.pop()}

	// ----- arithmetic -----
	case OpAdd:
		b, c := a.pop(), a.pop()
		var r Value
		if r, err = a.add(c, b); err == nil {
			a.push(r)
		}
	case OpSubtract, OpMultiply, OpDivide, OpModulo:
		err = a.arith(op.Code)
	case OpNegate, OpIncrement, OpDecrement:
		var n float64
		if n, err = a.pop().ToNumber(a); err != nil {
			break
		}
		switch op.Code {
		case OpNegate:
			n = -n
		case OpIncrement:
			n++
		default:
			n--
		}
		a.push(Number(n))
	case OpNot:
		a.push(Bool(!a.pop().ToBool()))
	case OpBitNot:
		var i int32
		if i, err = a.pop().ToInt32(a); err == nil {
			a.push(Int(^i))
		}
	case OpBitAnd, OpBitOr, OpBitXor, OpLShift, OpRShift, OpURShift:
		err = a.bitwise(op.Code)

	// ----- comparison -----
	case OpEquals, OpStrictEquals, OpLessThan, OpLessEquals, OpGreaterThan, OpGreaterEquals:
		b, c := a.pop(), a.pop()
		var r bool
		if r, err = a.compare(op.Code, c, b); err == nil {
			a.push(Bool(r))
		}

	// ----- types -----
	case OpTypeOf:
		a.push(String(a.pop().TypeOf()))
	case OpInstanceOf:
		ctor, v := a.pop(), a.pop()
		c := ctor.AsObject()
		if c == nil {
			err = TypeError(a, 1040, "The right-hand side of instanceof must be a class or function.")
			break
		}
		obj := v.AsObject()
		if obj == nil {
			a.push(Bool(false))
			break
		}
		var r bool
		if r, err = InstanceOf(a, obj, c); err == nil {
			a.push(Bool(r))
		}
	case OpIsType, OpAsType:
		v := a.pop()
		var class *ClassObject
		if class, err = a.avm.lookupClass(a, op.Str); err != nil {
			break
		}
		switch {
		case op.Code == OpIsType:
			a.push(Bool(isType(v, class)))
		case isType(v, class):
			a.push(v)
		default:
			a.push(Null)
		}
	case OpCoerceA:
	case OpCoerceS:
		v := a.pop()
		if v.IsNullOrUndefined() {
			a.push(Null)
			break
		}
		var s string
		if s, err = v.ToString(a); err == nil {
			a.push(String(s))
		}
	case OpConvertI:
		var i int32
		if i, err = a.pop().ToInt32(a); err == nil {
			a.push(Int(i))
		}
	case OpConvertU:
		var u uint32
		if u, err = a.pop().ToUint32(a); err == nil {
			a.push(Uint(u))
		}
	case OpConvertD:
		var n float64
		if n, err = a.pop().ToNumber(a); err == nil {
			a.push(Number(n))
		}
	case OpConvertB:
		a.push(Bool(a.pop().ToBool()))
	case OpConvertS:
		var s string
		if s, err = a.pop().ToString(a); err == nil {
			a.push(String(s))
		}

	// ----- branches -----
	case OpJump:
		next = op.Index
	case OpIfTrue, OpIfFalse:
		if a.pop().ToBool() == (op.Code == OpIfTrue) {
			next = op.Index
		}
	case OpIfEq, OpIfNe, OpIfLt, OpIfLe, OpIfGt, OpIfGe, OpIfNLt, OpIfNLe, OpIfNGt, OpIfNGe, OpIfStrictEq, OpIfStrictNe:
		b, c := a.pop(), a.pop()
		var taken bool
		if taken, err = a.branchTaken(op.Code, c, b); err == nil && taken {
			next = op.Index
		}
	case OpLookupSwitch:
		if len(op.Targets) == 0 {
			err = &HaltError{Reason: "lookupswitch without targets"}
			break
		}
		var i int32
		if i, err = a.pop().ToInt32(a); err != nil {
			break
		}
		next = op.Targets[0]
		if i >= 0 && int(i) < len(op.Targets)-1 {
			next = op.Targets[i+1]
		}

	// ----- enumeration -----
	case OpHasNext2:
		err = a.hasNext2(op.Index, int(op.Uint))
	case OpNextName, OpNextValue:
		var index int32
		if index, err = a.pop().ToInt32(a); err != nil {
			break
		}
		var obj Object
		if obj, err = a.popObject(); err != nil {
			break
		}
		keys := enumerableKeys(obj)
		if index < 1 || int(index) > len(keys) {
			a.push(Undefined)
			break
		}
		key := keys[index-1]
		if op.Code == OpNextName {
			a.push(enumeratedName(obj, key))
			break
		}
		var v Value
		if v, err = GetProperty(a, obj, key); err == nil {
			a.push(v)
		}

	default:
		err = &HaltError{Reason: fmt.Sprintf("unknown opcode %#02x in %s", byte(op.Code), a.method)}
	}
	return next, Undefined, false, err
}

func (a *Activation) checkLocal(i int) error {
	if i < 0 || i >= len(a.locals) {
		return &HaltError{Reason: fmt.Sprintf("local register %d out of range in %s", i, a.method)}
	}
	return nil
}

func (a *Activation) methodAt(i int) (*Method, error) {
	abc := a.method.abc
	if abc == nil || i < 0 || i >= len(abc.Methods) {
		return nil, &HaltError{Reason: fmt.Sprintf("method index %d out of range", i)}
	}
	return abc.Methods[i], nil
}

// ---------------------------------------------------------------------------
// Slots
// ---------------------------------------------------------------------------

func (a *Activation) slotError(obj Object, id int) error {
	name := "Object"
	if c := obj.Base().class; c != nil {
		name = c.def.Name
	}
	return VerifyError(a, 1026, fmt.Sprintf("Slot %d exceeds slotCount=%d of %s.", id, obj.Base().SlotCount(), name))
}

func (a *Activation) getSlot(obj Object, id int) error {
	v, ok := obj.Base().GetSlot(uint32(id))
	if !ok {
		return a.slotError(obj, id)
	}
	a.push(v)
	return nil
}

func (a *Activation) setSlot(obj Object, id int, v Value) error {
	if !obj.Base().SetSlot(uint32(id), v) {
		return a.slotError(obj, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func (a *Activation) opGetProperty(op *Op) error {
	name, err := a.popName(op)
	if err != nil {
		return err
	}
	obj, err := a.popObject()
	if err != nil {
		return err
	}
	v, err := GetProperty(a, obj, name)
	if err != nil {
		return err
	}
	a.push(v)
	return nil
}

func (a *Activation) opSetProperty(op *Op, init bool) error {
	v := a.pop()
	name, err := a.popName(op)
	if err != nil {
		return err
	}
	obj, err := a.popObject()
	if err != nil {
		return err
	}
	if init {
		return InitProperty(a, obj, name, v)
	}
	return SetProperty(a, obj, name, v)
}

// superTrait finds name among the instance traits above the running
// method's class.
func (a *Activation) superTrait(name string, kind TraitKind) (*Trait, *ClassObject, error) {
	if a.class == nil || a.class.super == nil {
		return nil, nil, ReferenceError(a, 1070, fmt.Sprintf("Method %s not found on super.", name))
	}
	t, owner := a.class.super.InstanceTrait(name, kind)
	return t, owner, nil
}

func (a *Activation) opGetSuper(op *Op) error {
	name, err := a.popName(op)
	if err != nil {
		return err
	}
	recv, err := a.popObject()
	if err != nil {
		return err
	}
	if t, owner, err := a.superTrait(name, TraitGetter); err != nil {
		return err
	} else if t != nil {
		v, err := a.avm.callMethod(a, t.Method, owner.scope, recv, nil, owner)
		if err != nil {
			return err
		}
		a.push(v)
		return nil
	}
	if t, owner, _ := a.superTrait(name, TraitMethod); t != nil {
		a.push(ObjectValue(a.avm.newFunction(t.Method, owner.scope, recv, owner)))
		return nil
	}
	v, err := GetProperty(a, recv, name)
	if err != nil {
		return err
	}
	a.push(v)
	return nil
}

func (a *Activation) opSetSuper(op *Op) error {
	v := a.pop()
	name, err := a.popName(op)
	if err != nil {
		return err
	}
	recv, err := a.popObject()
	if err != nil {
		return err
	}
	t, owner, err := a.superTrait(name, TraitSetter)
	if err != nil {
		return err
	}
	if t != nil {
		_, err := a.avm.callMethod(a, t.Method, owner.scope, recv, []Value{v}, owner)
		return err
	}
	return SetProperty(a, recv, name, v)
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func (a *Activation) opNewObject(count uint32) error {
	pairs := a.popArgs(count * 2)
	obj := NewPlainObject(a)
	for i := 0; i < len(pairs); i += 2 {
		name, err := pairs[i].ToString(a)
		if err != nil {
			return err
		}
		if _, err := obj.SetLocal(a, name, pairs[i+1], obj); err != nil {
			return err
		}
	}
	a.push(ObjectValue(obj))
	return nil
}

func (a *Activation) opNewClass(index int) error {
	base := a.pop()
	abc := a.method.abc
	if abc == nil || index < 0 || index >= len(abc.Classes) {
		return &HaltError{Reason: fmt.Sprintf("class index %d out of range", index)}
	}
	var super *ClassObject
	if obj := base.AsObject(); obj != nil {
		super = obj.AsClass()
	}
	if super == nil && !base.IsNullOrUndefined() {
		return VerifyError(a, 1053, "Illegal override of a class: base is not a class.")
	}
	scope := a.outer.Chain(a.localScopes()...)
	cls, err := NewClass(a, abc.Classes[index], super, scope)
	if err != nil {
		return err
	}
	a.push(ObjectValue(cls))
	return nil
}

func (a *Activation) construct(ctor Value, args []Value) (Object, error) {
	obj := ctor.AsObject()
	if obj == nil || !IsCallable(obj) {
		return nil, TypeError(a, 1007, "Instantiation attempted on a non-constructor.")
	}
	return obj.Construct(a, args)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func (a *Activation) callValue(callee Value, this Object, args []Value) (Value, error) {
	fn := callee.AsObject()
	if !IsCallable(fn) {
		return Undefined, TypeError(a, 1006, "value is not a function.")
	}
	return fn.Call(a, this, args)
}

func (a *Activation) opCallProperty(op *Op) error {
	args := a.popArgs(op.Uint)
	name, err := a.popName(op)
	if err != nil {
		return err
	}
	recv, err := a.popObject()
	if err != nil {
		return err
	}
	fn, err := GetProperty(a, recv, name)
	if err != nil {
		return err
	}
	callee := fn.AsObject()
	if !IsCallable(callee) {
		return TypeError(a, 1006, name+" is not a function.")
	}
	this := recv
	if op.Code == OpCallPropLex {
		this = nil
	}
	r, err := callee.Call(a, this, args)
	if err != nil {
		return err
	}
	if op.Code != OpCallPropVoid {
		a.push(r)
	}
	return nil
}

// opCallMethod dispatches through the receiver's vtable by id.
func (a *Activation) opCallMethod(op *Op) error {
	args := a.popArgs(op.Uint)
	recv, err := a.popObject()
	if err != nil {
		return err
	}
	class := recv.Base().class
	if class == nil {
		return VerifyError(a, 1051, fmt.Sprintf("Illegal early binding access to method %d.", op.Index))
	}
	m, owner := class.vtable.Lookup(op.Index)
	if m == nil {
		return VerifyError(a, 1051, fmt.Sprintf("Illegal early binding access to method %d.", op.Index))
	}
	r, err := a.avm.callMethod(a, m, owner.scope, recv, args, owner)
	if err != nil {
		return err
	}
	a.push(r)
	return nil
}

func (a *Activation) opCallSuper(op *Op) error {
	args := a.popArgs(op.Uint)
	name, err := a.popName(op)
	if err != nil {
		return err
	}
	recv, err := a.popObject()
	if err != nil {
		return err
	}
	t, owner, err := a.superTrait(name, TraitMethod)
	if err != nil {
		return err
	}
	if t == nil {
		return ReferenceError(a, 1070, fmt.Sprintf("Method %s not found on %s", name, a.class.super.def.Name))
	}
	r, err := a.avm.callMethod(a, t.Method, owner.scope, recv, args, owner)
	if err != nil {
		return err
	}
	if op.Code == OpCallSuper {
		a.push(r)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// add concatenates when either primitive is a string and adds numbers
// otherwise.
func (a *Activation) add(x, y Value) (Value, error) {
	if x.kind == KindNumber && y.kind == KindNumber {
		return Number(x.n + y.n), nil
	}
	px, err := x.ToPrimitive(a, HintNone)
	if err != nil {
		return Undefined, err
	}
	py, err := y.ToPrimitive(a, HintNone)
	if err != nil {
		return Undefined, err
	}
	if px.kind == KindString || py.kind == KindString {
		sx, err := px.ToString(a)
		if err != nil {
			return Undefined, err
		}
		sy, err := py.ToString(a)
		if err != nil {
			return Undefined, err
		}
		return String(sx + sy), nil
	}
	nx, err := px.ToNumber(a)
	if err != nil {
		return Undefined, err
	}
	ny, err := py.ToNumber(a)
	if err != nil {
		return Undefined, err
	}
	return Number(nx + ny), nil
}

func (a *Activation) arith(code Opcode) error {
	ny, err := a.pop().ToNumber(a)
	if err != nil {
		return err
	}
	nx, err := a.pop().ToNumber(a)
	if err != nil {
		return err
	}
	var r float64
	switch code {
	case OpSubtract:
		r = nx - ny
	case OpMultiply:
		r = nx * ny
	case OpDivide:
		r = nx / ny
	case OpModulo:
		r = math.Mod(nx, ny)
	}
	a.push(Number(r))
	return nil
}

func (a *Activation) bitwise(code Opcode) error {
	y, err := a.pop().ToInt32(a)
	if err != nil {
		return err
	}
	x, err := a.pop().ToInt32(a)
	if err != nil {
		return err
	}
	switch code {
	case OpBitAnd:
		a.push(Int(x & y))
	case OpBitOr:
		a.push(Int(x | y))
	case OpBitXor:
		a.push(Int(x ^ y))
	case OpLShift:
		a.push(Int(x << (uint32(y) & 31)))
	case OpRShift:
		a.push(Int(x >> (uint32(y) & 31)))
	case OpURShift:
		a.push(Uint(uint32(x) >> (uint32(y) & 31)))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// lessThan reports x < y; the bool is false when either side is NaN.
func (a *Activation) lessThan(x, y Value) (bool, bool, error) {
	r, err := AbstractLessThan(a, x, y)
	if err != nil || r.IsUndefined() {
		return false, false, err
	}
	return r.b, true, nil
}

func (a *Activation) compare(code Opcode, x, y Value) (bool, error) {
	switch code {
	case OpEquals:
		return AbstractEquals(a, x, y)
	case OpStrictEquals:
		return StrictEquals(x, y), nil
	case OpLessThan:
		lt, _, err := a.lessThan(x, y)
		return lt, err
	case OpGreaterThan:
		gt, _, err := a.lessThan(y, x)
		return gt, err
	case OpLessEquals:
		gt, ok, err := a.lessThan(y, x)
		return ok && !gt, err
	case OpGreaterEquals:
		lt, ok, err := a.lessThan(x, y)
		return ok && !lt, err
	}
	return false, nil
}

func (a *Activation) branchTaken(code Opcode, x, y Value) (bool, error) {
	switch code {
	case OpIfEq:
		return a.compare(OpEquals, x, y)
	case OpIfNe:
		eq, err := a.compare(OpEquals, x, y)
		return !eq, err
	case OpIfStrictEq:
		return StrictEquals(x, y), nil
	case OpIfStrictNe:
		return !StrictEquals(x, y), nil
	case OpIfLt:
		return a.compare(OpLessThan, x, y)
	case OpIfLe:
		return a.compare(OpLessEquals, x, y)
	case OpIfGt:
		return a.compare(OpGreaterThan, x, y)
	case OpIfGe:
		return a.compare(OpGreaterEquals, x, y)
	case OpIfNLt:
		r, err := a.compare(OpLessThan, x, y)
		return !r, err
	case OpIfNLe:
		r, err := a.compare(OpLessEquals, x, y)
		return !r, err
	case OpIfNGt:
		r, err := a.compare(OpGreaterThan, x, y)
		return !r, err
	case OpIfNGe:
		r, err := a.compare(OpGreaterEquals, x, y)
		return !r, err
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Enumeration
// ---------------------------------------------------------------------------

// enumerableKeys lists what for-in visits on obj: its own enumerable
// names, then those of its prototypes.
func enumerableKeys(obj Object) []string {
	var keys []string
	seen := make(map[string]bool)
	for o, depth := obj, 0; o != nil && depth < maxPrototypeDepth; o, depth = o.Base().proto, depth+1 {
		for _, k := range o.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// enumeratedName yields array indices as numbers and other names as
// strings.
func enumeratedName(obj Object, key string) Value {
	if obj.AsArray() != nil {
		if i, ok := arrayIndex(key); ok {
			return Number(float64(i))
		}
	}
	return String(key)
}

// hasNext2 advances the enumeration held in the object and index
// registers and pushes whether a name remains.
func (a *Activation) hasNext2(objReg, indexReg int) error {
	if err := a.checkLocal(objReg); err != nil {
		return err
	}
	if err := a.checkLocal(indexReg); err != nil {
		return err
	}
	obj := a.locals[objReg].AsObject()
	if obj == nil {
		a.push(Bool(false))
		return nil
	}
	index, err := a.locals[indexReg].ToInt32(a)
	if err != nil {
		return err
	}
	if int(index) >= len(enumerableKeys(obj)) {
		a.locals[objReg] = Null
		a.locals[indexReg] = Int(0)
		a.push(Bool(false))
		return nil
	}
	a.locals[indexReg] = Int(index + 1)
	a.push(Bool(true))
	return nil
}
