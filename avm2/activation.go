package avm2

import (
	"errors"
	"fmt"

	"github.com/chazu/avm/host"
)

// Activation is the state of one running method: its locals, the scope
// chain it closed over and the fences it owns on the shared operand and
// scope stacks. Native code receives the activation of its caller.
type Activation struct {
	avm     *Avm2
	Context *host.UpdateContext

	method *Method
	this   Object
	locals []Value
	outer  ScopeChain
	// class defined the running method; super lookups start above it.
	class *ClassObject

	stackDepth int
	maxStack   int
	scopeBase  int
}

// rootActivation is the frame every entry point starts from. It runs no
// code and resolves names against the player globals.
func (avm *Avm2) rootActivation(ctx *host.UpdateContext) *Activation {
	return &Activation{
		avm:        avm,
		Context:    ctx,
		outer:      NewScopeChain(avm.globals),
		stackDepth: len(avm.stack),
		scopeBase:  len(avm.scopeStack),
	}
}

func (a *Activation) child(m *Method, scope ScopeChain, this Object, args []Value, class *ClassObject) *Activation {
	body := m.Body
	act := &Activation{
		avm:     a.avm,
		Context: a.Context,
		method:  m,
		this:    this,
		outer:   scope,
		class:   class,
	}
	act.locals = make([]Value, max(body.LocalCount, m.ParamCount+2))
	act.locals[0] = ObjectValue(this)
	params, rest := m.bindArgs(args)
	copy(act.locals[1:], params)
	switch next := 1 + len(params); {
	case m.NeedsRest:
		act.locals[next] = ObjectValue(a.avm.newArray(rest))
	case m.NeedsArguments:
		act.locals[next] = ObjectValue(a.avm.newArray(args))
	}
	return act
}

func (a *Activation) Avm() *Avm2              { return a.avm }
func (a *Activation) Method() *Method         { return a.method }
func (a *Activation) This() Object            { return a.this }
func (a *Activation) Class() *ClassObject     { return a.class }
func (a *Activation) Outer() ScopeChain       { return a.outer }
func (a *Activation) Classes() *SystemClasses { return a.avm.classes }

// Global returns the global object of the running script.
func (a *Activation) Global() Object {
	if g := a.outer.Global(); g != nil {
		return g
	}
	if a.scopeBase < len(a.avm.scopeStack) {
		return a.avm.scopeStack[a.scopeBase].values
	}
	return a.avm.globals
}

// ---------------------------------------------------------------------------
// Operand and scope stack
// ---------------------------------------------------------------------------

func (a *Activation) push(v Value) { a.avm.push(v, a.stackDepth, a.maxStack) }
func (a *Activation) pop() Value   { return a.avm.pop(a.stackDepth) }

func (a *Activation) popArgs(n uint32) []Value {
	args := make([]Value, n)
	for i := int(n) - 1; i >= 0; i-- {
		args[i] = a.pop()
	}
	return args
}

func (a *Activation) popObject() (Object, error) {
	return a.pop().ToObject(a)
}

// popName returns the property name of op, popping it when the name is a
// runtime one.
func (a *Activation) popName(op *Op) (string, error) {
	if !op.Runtime {
		return op.Str, nil
	}
	v := a.pop()
	if obj := v.AsObject(); obj != nil && obj.AsClass() != nil {
		return obj.AsClass().def.Name, nil
	}
	return v.ToString(a)
}

func (a *Activation) pushScope(s Scope) {
	a.avm.scopeStack = append(a.avm.scopeStack, s)
}

func (a *Activation) popScope() {
	if len(a.avm.scopeStack) <= a.scopeBase {
		log.Warning("avm2 scope stack underflow")
		return
	}
	a.avm.truncateScopes(len(a.avm.scopeStack) - 1)
}

// localScopes returns the scopes this activation pushed.
func (a *Activation) localScopes() []Scope {
	return a.avm.scopeStack[a.scopeBase:]
}

// ---------------------------------------------------------------------------
// Name resolution
// ---------------------------------------------------------------------------

// findProperty returns the object that defines name, searching the local
// scope stack, the captured chain, then script definitions in the domain
// and the player globals. A miss yields nil.
func (a *Activation) findProperty(name string) (Object, error) {
	if obj, ok := findInScopes(a.localScopes(), name); ok {
		return obj, nil
	}
	if obj, ok := a.outer.Find(name); ok {
		return obj, nil
	}
	if s, ok := a.avm.domain.Lookup(name); ok {
		if err := a.avm.initScript(a.Context, s); err != nil {
			return nil, err
		}
		return s.globals, nil
	}
	if HasProperty(a.avm.globals, name) {
		return a.avm.globals, nil
	}
	return nil, nil
}

func (a *Activation) findPropStrict(name string) (Object, error) {
	obj, err := a.findProperty(name)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, ReferenceError(a, 1065, fmt.Sprintf("Variable %s is not defined.", name))
	}
	return obj, nil
}

// Resolve looks up name as a lexical reference and reads it.
func (a *Activation) Resolve(name string) (Value, error) {
	obj, err := a.findPropStrict(name)
	if err != nil {
		return Undefined, err
	}
	return GetProperty(a, obj, name)
}

// lookupClass resolves a class by qualified or local name.
func (avm *Avm2) lookupClass(act *Activation, name string) (*ClassObject, error) {
	for _, candidate := range []string{name, localName(name)} {
		obj, err := act.findProperty(candidate)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue
		}
		v, err := GetProperty(act, obj, candidate)
		if err != nil {
			return nil, err
		}
		if c := v.AsObject(); c != nil && c.AsClass() != nil {
			return c.AsClass(), nil
		}
	}
	return nil, VerifyError(act, 1014, fmt.Sprintf("Class %s could not be found.", name))
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

// run interprets the method body. Thrown values are matched against the
// exception table; anything else unwinds to the caller.
func (a *Activation) run() (Value, error) {
	avm := a.avm
	body := a.method.Body
	a.stackDepth = len(avm.stack)
	a.scopeBase = len(avm.scopeStack)
	a.maxStack = body.MaxStack
	defer func() {
		avm.truncateStack(a.stackDepth)
		avm.truncateScopes(a.scopeBase)
	}()

	pc := 0
	for pc < len(body.Code) {
		if avm.halted {
			return Undefined, errHalted
		}
		next, ret, done, err := a.step(&body.Code[pc], pc)
		if err != nil {
			target, caught := a.catch(err, pc)
			if !caught {
				return Undefined, err
			}
			next = target
		} else if done {
			return ret, nil
		}
		if next < 0 || next > len(body.Code) {
			return Undefined, &HaltError{Reason: fmt.Sprintf("branch to %d outside %s", next, a.method)}
		}
		pc = next
	}
	return Undefined, nil
}

// catch finds the handler for err thrown at pc. A caught value resets the
// operand stack to the entry depth and the scope stack to the method's
// base, then is pushed for the handler.
func (a *Activation) catch(err error, pc int) (int, bool) {
	var thrown *ThrownValue
	if !errors.As(err, &thrown) {
		return 0, false
	}
	for i := range a.method.Body.Exceptions {
		e := &a.method.Body.Exceptions[i]
		if !e.covers(pc) {
			continue
		}
		if e.TypeName != "" && e.TypeName != "*" {
			class, lerr := a.avm.lookupClass(a, e.TypeName)
			if lerr != nil || !isType(thrown.Value, class) {
				continue
			}
		}
		a.avm.truncateStack(a.stackDepth)
		a.avm.truncateScopes(a.scopeBase)
		a.push(thrown.Value)
		return e.Target, true
	}
	return 0, false
}

func (a *Activation) String() string {
	if a.method == nil {
		return "[root]"
	}
	return a.method.String()
}
