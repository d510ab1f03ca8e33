package avm1

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/avm/display"
	"github.com/chazu/avm/host"
	"github.com/chazu/avm/swf"
)

// Activation is the state of one running piece of code: a frame script, a
// function call or host code calling into script. It is only valid while
// the entry point that created it is running.
type Activation struct {
	avm *Avm1

	// Context is the host state for the current entry point.
	Context *host.UpdateContext

	id         string
	swfVersion uint8
	code       swf.Slice
	scope      *Scope
	constants  []string
	this       Value
	arguments  Object
	callee     Object

	// Nil unless the code is a DefineFunction2 body.
	localRegisters []Value

	baseClip   display.DisplayObject
	targetClip display.DisplayObject

	depth     int
	stackBase int
}

// child creates an activation sharing everything with a but running code
// under scope.
func (a *Activation) child(id string, code swf.Slice, scope *Scope) *Activation {
	c := *a
	c.id = id
	c.code = code
	c.scope = scope
	return &c
}

func (a *Activation) Avm() *Avm1                        { return a.avm }
func (a *Activation) ID() string                        { return a.id }
func (a *Activation) SwfVersion() uint8                 { return a.swfVersion }
func (a *Activation) IsCaseSensitive() bool             { return a.swfVersion > 6 }
func (a *Activation) Scope() *Scope                     { return a.scope }
func (a *Activation) This() Value                       { return a.this }
func (a *Activation) BaseClip() display.DisplayObject   { return a.baseClip }
func (a *Activation) TargetClip() display.DisplayObject { return a.targetClip }
func (a *Activation) Depth() int                        { return a.depth }
func (a *Activation) Globals() Object                   { return a.avm.globals }
func (a *Activation) Prototypes() *SystemPrototypes     { return a.avm.prototypes }

func (a *Activation) push(v Value) { a.avm.Push(v) }
func (a *Activation) pop() Value   { return a.avm.Pop() }

func (a *Activation) popString() (string, error) {
	return a.pop().ToString(a)
}

func (a *Activation) popNumber() (float64, error) {
	return a.pop().ToNumber(a)
}

// popArgs pops a count followed by that many values, first argument on top.
func (a *Activation) popArgs() ([]Value, error) {
	n, err := a.popNumber()
	if err != nil {
		return nil, err
	}
	count := int(toInt32(n))
	if count < 0 {
		count = 0
	}
	if count > len(a.avm.stack) {
		count = len(a.avm.stack)
	}
	args := make([]Value, count)
	for i := range args {
		args[i] = a.pop()
	}
	return args, nil
}

// boolV1 pushes a boolean the way version 4 code expects: as 1 or 0.
func (a *Activation) boolV1(b bool) Value {
	if a.swfVersion < 5 {
		if b {
			return Number(1)
		}
		return Number(0)
	}
	return Bool(b)
}

// ---------------------------------------------------------------------------
// Registers
// ---------------------------------------------------------------------------

func (a *Activation) register(r uint8) (Value, bool) {
	if a.localRegisters != nil {
		if int(r) < len(a.localRegisters) {
			return a.localRegisters[r], true
		}
		return Undefined, false
	}
	if int(r) < len(a.avm.registers) {
		return a.avm.registers[r], true
	}
	return Undefined, false
}

func (a *Activation) setRegister(r uint8, v Value) bool {
	if a.localRegisters != nil {
		if int(r) < len(a.localRegisters) {
			a.localRegisters[r] = v
			return true
		}
		return false
	}
	if int(r) < len(a.avm.registers) {
		a.avm.registers[r] = v
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Clips and paths
// ---------------------------------------------------------------------------

func (a *Activation) stageValue(node display.DisplayObject) Value {
	if node == nil {
		return Undefined
	}
	return ObjectValue(a.avm.StageObject(node))
}

func (a *Activation) rootObject() Value {
	if a.baseClip == nil {
		return Undefined
	}
	return a.stageValue(display.Root(a.baseClip))
}

func (a *Activation) parentObject() Value {
	if a.baseClip == nil {
		return Undefined
	}
	return a.stageValue(a.baseClip.Base().Parent())
}

// targetOrRoot returns the object of the target clip, or of the root when
// the target is invalid.
func (a *Activation) targetOrRoot() Object {
	if a.targetClip != nil {
		return a.avm.StageObject(a.targetClip)
	}
	if r := a.rootObject().AsObject(); r != nil {
		return r
	}
	return a.avm.globals
}

func (a *Activation) targetMovieClip() (*display.MovieClip, bool) {
	mc, ok := a.targetClip.(*display.MovieClip)
	if !ok {
		log.Warningf("%s: target is not a movie clip", a.id)
	}
	return mc, ok
}

// resolveTargetPath walks path from start. Both slash and dot syntax are
// accepted; a leading slash starts at the root. It returns nil when a
// segment does not name an object.
func (a *Activation) resolveTargetPath(start Object, path string) (Object, error) {
	obj := start
	if strings.HasPrefix(path, "/") {
		r := a.rootObject().AsObject()
		if r == nil {
			return nil, nil
		}
		obj = r
		path = path[1:]
	}
	for path != "" {
		var seg string
		switch {
		case path == ".." || strings.HasPrefix(path, "../"):
			seg, path = "..", strings.TrimPrefix(path[2:], "/")
		default:
			i := strings.IndexAny(path, "/.")
			if i < 0 {
				seg, path = path, ""
			} else {
				seg, path = path[:i], path[i+1:]
			}
		}
		if seg == "" {
			continue
		}
		switch {
		case seg == ".." || seg == "_parent":
			so, ok := obj.(*StageObject)
			if !ok {
				return nil, nil
			}
			p := so.node.Base().Parent()
			if p == nil {
				return nil, nil
			}
			obj = a.avm.StageObject(p)
		case seg == "_root" || seg == "_level0":
			r := a.rootObject().AsObject()
			if r == nil {
				return nil, nil
			}
			obj = r
		case seg == "_global":
			obj = a.avm.globals
		case seg == "this":
		default:
			v, err := Get(a, obj, seg)
			if err != nil {
				return nil, err
			}
			if obj = v.AsObject(); obj == nil {
				return nil, nil
			}
		}
	}
	return obj, nil
}

// resolveTargetFromScope resolves a relative path against each object of
// the scope chain in turn, then the target clip.
func (a *Activation) resolveTargetFromScope(path string) (Object, error) {
	if path == "" {
		return a.targetOrRoot(), nil
	}
	if strings.HasPrefix(path, "/") {
		return a.resolveTargetPath(a.targetOrRoot(), path)
	}
	first := path
	if i := strings.IndexAny(path, "/.:"); i >= 0 {
		first = path[:i]
	}
	switch first {
	case "this", "_root", "_level0", "_global", "_parent", "..":
		start := a.targetOrRoot()
		if first == "this" {
			if t := a.this.AsObject(); t != nil {
				start = t
			}
		}
		return a.resolveTargetPath(start, path)
	}
	for s := a.scope; s != nil; s = s.parent {
		if !HasProperty(a, s.values, first) {
			continue
		}
		obj, err := a.resolveTargetPath(s.values, path)
		if err != nil || obj != nil {
			return obj, err
		}
	}
	return a.resolveTargetPath(a.targetOrRoot(), path)
}

// resolve reads a plain variable name, handling the names that are not
// stored in any scope.
func (a *Activation) resolve(name string) (Value, error) {
	switch name {
	case "this":
		return a.this, nil
	case "arguments":
		if a.arguments != nil {
			return ObjectValue(a.arguments), nil
		}
	case "_global":
		return ObjectValue(a.avm.globals), nil
	case "_root", "_level0":
		return a.rootObject(), nil
	}
	v, _, err := a.scope.Resolve(a, name)
	return v, err
}

// splitVariablePath splits "target:var" and "a.b.c" into the target path
// and the variable name.
func splitVariablePath(path string) (string, string, bool) {
	i := strings.LastIndexAny(path, ":.")
	if i < 0 {
		return "", path, false
	}
	return path[:i], path[i+1:], true
}

// getVariable implements GetVariable, including slash and dot paths.
func (a *Activation) getVariable(path string) (Value, error) {
	if target, name, ok := splitVariablePath(path); ok && name != "" {
		if v, defined, err := a.scope.Resolve(a, path); err != nil || defined {
			return v, err
		}
		obj, err := a.resolveTargetFromScope(target)
		if err != nil || obj == nil {
			return Undefined, err
		}
		return Get(a, obj, name)
	}
	if strings.Contains(path, "/") {
		obj, err := a.resolveTargetFromScope(path)
		if err != nil || obj == nil {
			return Undefined, err
		}
		return ObjectValue(obj), nil
	}
	return a.resolve(path)
}

// setVariable implements SetVariable. Plain names overwrite the innermost
// definition or are defined in the innermost scope.
func (a *Activation) setVariable(path string, v Value) error {
	if target, name, ok := splitVariablePath(path); ok && name != "" {
		obj, err := a.resolveTargetFromScope(target)
		if err != nil {
			return err
		}
		if obj == nil {
			log.Warningf("SetVariable: target of %q not found", path)
			return nil
		}
		return Set(a, obj, name, v)
	}
	defined, err := a.scope.Overwrite(a, path, v)
	if err != nil || defined {
		return err
	}
	a.scope.Define(a, path, v)
	return nil
}

// setTarget implements tellTarget. An empty path returns to the base clip;
// an unknown path leaves the target invalid until the next SetTarget.
func (a *Activation) setTarget(path string) error {
	if path == "" {
		a.targetClip = a.baseClip
		a.scope = NewTargetScope(a.scope, a.stageValue(a.baseClip).AsObject())
		return nil
	}
	start := a.avm.StageObject(a.baseClip)
	obj, err := a.resolveTargetPath(start, path)
	if err != nil {
		return err
	}
	if so, ok := obj.(*StageObject); ok {
		a.setTargetObject(so)
		return nil
	}
	log.Warningf("SetTarget failed: %s not found", path)
	a.targetClip = nil
	a.scope = NewTargetScope(a.scope, start)
	return nil
}

func (a *Activation) setTargetObject(so *StageObject) {
	a.targetClip = so.node
	a.scope = NewTargetScope(a.scope, so)
}

// ---------------------------------------------------------------------------
// Running code
// ---------------------------------------------------------------------------

// runCode interprets code until it ends or returns. The boolean reports an
// explicit return.
func (a *Activation) runCode(code swf.Slice) (Value, bool, error) {
	r := swf.NewReader(code)
	for !r.Done() {
		if a.avm.halted {
			return Undefined, false, &HaltError{Reason: "VM is halted"}
		}
		a.avm.actionCount++
		if max := a.avm.maxActions; max > 0 && a.avm.actionCount > max {
			return Undefined, false, &HaltError{Reason: fmt.Sprintf("action limit of %d exceeded", max)}
		}
		action, err := r.ReadAction()
		if err != nil {
			return Undefined, false, &HaltError{Reason: "invalid bytecode: " + err.Error()}
		}
		if action.Code == swf.ActionEnd {
			break
		}
		ret, returned, err := a.doAction(code, r, &action)
		if err != nil || returned {
			return ret, returned, err
		}
	}
	return Undefined, false, nil
}

func (a *Activation) String() string {
	return a.id + "@" + strconv.Itoa(a.depth)
}
