package avm2

import (
	"fmt"

	"github.com/chazu/avm/host"
)

// AbcFile is a decoded ABC block. Op operands index Methods and Classes.
type AbcFile struct {
	Methods []*Method
	Classes []*ClassDef
	Scripts []*ScriptDef
}

// ScriptDef is one script of an ABC block: an initializer and the traits
// it defines on its global object.
type ScriptDef struct {
	Init   *Method
	Traits []*Trait
}

// link points every method at the file whose tables its ops index.
func (abc *AbcFile) link() {
	for _, m := range abc.Methods {
		m.abc = abc
	}
	linkTraits := func(traits []*Trait) {
		for _, t := range traits {
			if t.Method != nil {
				t.Method.abc = abc
			}
		}
	}
	for _, c := range abc.Classes {
		for _, m := range []*Method{c.InstanceInit, c.ClassInit} {
			if m != nil {
				m.abc = abc
			}
		}
		linkTraits(c.InstanceTraits)
		linkTraits(c.ClassTraits)
	}
	for _, s := range abc.Scripts {
		if s.Init != nil {
			s.Init.abc = abc
		}
		linkTraits(s.Traits)
	}
}

// Script is a loaded script: its global object and whether its
// initializer has run.
type Script struct {
	def         *ScriptDef
	globals     *ScriptObject
	initialized bool
}

// Globals returns the script's global object.
func (s *Script) Globals() Object { return s.globals }

// Initialized reports whether the initializer has started.
func (s *Script) Initialized() bool { return s.initialized }

// Domain maps exported names to the scripts that define them.
type Domain struct {
	defs map[string]*Script
}

func NewDomain() *Domain {
	return &Domain{defs: make(map[string]*Script)}
}

// Export registers name as defined by s. The first definition wins.
func (d *Domain) Export(name string, s *Script) {
	if _, ok := d.defs[name]; !ok {
		d.defs[name] = s
	}
}

func (d *Domain) Lookup(name string) (*Script, bool) {
	s, ok := d.defs[name]
	return s, ok
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadAbc installs the scripts of abc, last to first, and exports their
// trait names. Unless lazy, every initializer then runs in load order;
// otherwise a script initializes on first lookup of one of its names.
func (avm *Avm2) LoadAbc(ctx *host.UpdateContext, abc *AbcFile, lazy bool) ([]*Script, error) {
	if avm.halted {
		return nil, errHalted
	}
	abc.link()
	act := avm.rootActivation(ctx)
	var scripts []*Script
	for i := len(abc.Scripts) - 1; i >= 0; i-- {
		def := abc.Scripts[i]
		s := &Script{def: def, globals: NewScriptObject(avm.classes.Object.prototype, nil)}
		traits, _, err := layoutTraits(act, def.Traits, 0, nil)
		if err != nil {
			return scripts, err
		}
		installTraits(avm, s.globals, traits, NewScopeChain(s.globals), nil)
		for _, t := range traits {
			avm.domain.Export(t.Name, s)
		}
		scripts = append(scripts, s)
	}
	log.Debugf("loaded %d scripts, %d classes", len(scripts), len(abc.Classes))
	if lazy {
		return scripts, nil
	}
	for _, s := range scripts {
		if err := avm.RunScriptInitializer(ctx, s); err != nil {
			return scripts, err
		}
	}
	return scripts, nil
}

// RunScriptInitializer runs the initializer of s once, with the script's
// global object as this and as the only scope. A failure is reported and
// returned.
func (avm *Avm2) RunScriptInitializer(ctx *host.UpdateContext, s *Script) error {
	if avm.halted {
		return errHalted
	}
	if err := avm.initScript(ctx, s); err != nil {
		avm.reportError(avm.rootActivation(ctx), err)
		return err
	}
	return nil
}

// initScript runs the initializer of s once and returns any failure
// unreported, for callers that propagate it to their own entry point.
func (avm *Avm2) initScript(ctx *host.UpdateContext, s *Script) error {
	if avm.halted {
		return errHalted
	}
	if s.initialized {
		return nil
	}
	s.initialized = true
	init := s.def.Init
	if init == nil {
		return nil
	}
	act := avm.rootActivation(ctx)
	scope := NewScopeChain(s.globals)
	avm.PushGlobalInit(s)
	defer avm.PopCall()

	var err error
	if init.Native != nil {
		_, err = init.Native(act, s.globals, nil)
	} else if init.Body == nil {
		err = &HaltError{Reason: "script initializer has no body"}
	} else {
		_, err = act.child(init, scope, s.globals, nil, nil).run()
	}
	if err != nil {
		return fmt.Errorf("script initializer: %w", err)
	}
	return nil
}
