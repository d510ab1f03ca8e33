package avm1

// ScopeClass distinguishes the kinds of scope in a chain.
type ScopeClass uint8

const (
	// ScopeGlobal holds the global object.
	ScopeGlobal ScopeClass = iota
	// ScopeTarget holds the object of the clip code is acting on. tellTarget
	// rebinds it.
	ScopeTarget
	// ScopeLocal holds a function's local variables.
	ScopeLocal
	// ScopeWith holds the object of a with block.
	ScopeWith
)

// Scope is one link of a scope chain.
type Scope struct {
	parent *Scope
	class  ScopeClass
	values Object
}

// NewScope creates a scope over values.
func NewScope(parent *Scope, class ScopeClass, values Object) *Scope {
	return &Scope{parent: parent, class: class, values: values}
}

// NewGlobalScope creates the root of a chain.
func NewGlobalScope(globals Object) *Scope {
	return NewScope(nil, ScopeGlobal, globals)
}

// NewLocalScope creates a scope for function locals backed by a fresh
// object with no prototype.
func NewLocalScope(parent *Scope) *Scope {
	return NewScope(parent, ScopeLocal, NewScriptObject(nil))
}

// NewClosureScope copies the chain for a function being defined. With
// scopes are dropped; a chain that becomes empty is replaced by a fresh
// global scope over a bare object.
func NewClosureScope(parent *Scope) *Scope {
	var links []*Scope
	for s := parent; s != nil; s = s.parent {
		if s.class != ScopeWith {
			links = append(links, s)
		}
	}
	if len(links) == 0 {
		return NewGlobalScope(NewScriptObject(nil))
	}
	var out *Scope
	for i := len(links) - 1; i >= 0; i-- {
		out = NewScope(out, links[i].class, links[i].values)
	}
	return out
}

// NewTargetScope copies the chain, binding every Target scope to clip.
func NewTargetScope(parent *Scope, clip Object) *Scope {
	var links []*Scope
	for s := parent; s != nil; s = s.parent {
		links = append(links, s)
	}
	var out *Scope
	for i := len(links) - 1; i >= 0; i-- {
		values := links[i].values
		if links[i].class == ScopeTarget {
			values = clip
		}
		out = NewScope(out, links[i].class, values)
	}
	return out
}

// NewWithScope places withObject between locals and its parent, and
// returns a new local scope over the same local values on top of it.
func NewWithScope(locals *Scope, withObject Object) *Scope {
	with := NewScope(locals.parent, ScopeWith, withObject)
	return NewScope(with, locals.class, locals.values)
}

// target returns the object of the innermost Target scope, or nil.
func (s *Scope) target() Object {
	for ; s != nil; s = s.parent {
		if s.class == ScopeTarget {
			return s.values
		}
	}
	return nil
}

func (s *Scope) Parent() *Scope     { return s.parent }
func (s *Scope) Class() ScopeClass  { return s.class }
func (s *Scope) Locals() Object     { return s.values }
func (s *Scope) SetLocals(v Object) { s.values = v }

// Resolve reads name from the innermost scope that defines it. The
// boolean is false when no scope does, in which case the value is
// Undefined.
func (s *Scope) Resolve(act *Activation, name string) (Value, bool, error) {
	for c := s; c != nil; c = c.parent {
		if HasProperty(act, c.values, name) {
			v, err := Get(act, c.values, name)
			return v, true, err
		}
	}
	return Undefined, false, nil
}

// IsDefined reports whether any scope in the chain defines name.
func (s *Scope) IsDefined(act *Activation, name string) bool {
	for c := s; c != nil; c = c.parent {
		if HasProperty(act, c.values, name) {
			return true
		}
	}
	return false
}

// Overwrite assigns name in the innermost scope that defines it. It
// reports false, leaving everything untouched, when none does.
func (s *Scope) Overwrite(act *Activation, name string, value Value) (bool, error) {
	for c := s; c != nil; c = c.parent {
		if HasProperty(act, c.values, name) {
			return true, c.values.SetLocal(act, name, value, c.values, nil)
		}
	}
	return false, nil
}

// Define sets name on the innermost scope's values.
func (s *Scope) Define(act *Activation, name string, value Value) {
	s.values.Base().define(act, name, value, 0)
}

// Delete removes name from the innermost scope that defines it.
func (s *Scope) Delete(act *Activation, name string) bool {
	for c := s; c != nil; c = c.parent {
		if HasProperty(act, c.values, name) {
			return c.values.Delete(act, name)
		}
	}
	return false
}
