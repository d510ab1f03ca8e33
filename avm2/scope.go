package avm2

import "slices"

// Scope is one entry of a scope stack or chain. With scopes come from
// PushWith and search dynamic properties of arbitrary objects.
type Scope struct {
	values Object
	with   bool
}

func NewScope(obj Object) Scope     { return Scope{values: obj} }
func NewWithScope(obj Object) Scope { return Scope{values: obj, with: true} }

func (s Scope) Values() Object { return s.values }
func (s Scope) IsWith() bool   { return s.with }

// ScopeChain is the immutable list of scopes a closure captured, outermost
// first. The first entry is the global object of the defining script.
type ScopeChain struct {
	scopes []Scope
}

// NewScopeChain starts a chain at global.
func NewScopeChain(global Object) ScopeChain {
	return ScopeChain{scopes: []Scope{NewScope(global)}}
}

// Chain returns a new chain with more appended inside c.
func (c ScopeChain) Chain(more ...Scope) ScopeChain {
	if len(more) == 0 {
		return c
	}
	return ScopeChain{scopes: append(slices.Clip(c.scopes), more...)}
}

func (c ScopeChain) Len() int        { return len(c.scopes) }
func (c ScopeChain) Get(i int) Scope { return c.scopes[i] }

// Global returns the outermost scope object, or nil for an empty chain.
func (c ScopeChain) Global() Object {
	if len(c.scopes) == 0 {
		return nil
	}
	return c.scopes[0].values
}

// Find returns the innermost scope object that has name.
func (c ScopeChain) Find(name string) (Object, bool) {
	return findInScopes(c.scopes, name)
}

func findInScopes(scopes []Scope, name string) (Object, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if obj := scopes[i].values; obj != nil && HasProperty(obj, name) {
			return obj, true
		}
	}
	return nil, false
}
