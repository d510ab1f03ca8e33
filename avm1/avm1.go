// Package avm1 implements the first-generation ActionScript virtual
// machine: a stack-based interpreter over AVM1 action records with a
// prototype object model, scope chains and the built-in globals that
// timeline scripts rely on.
package avm1

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/avm/display"
	"github.com/chazu/avm/host"
	"github.com/chazu/avm/swf"
)

var (
	log      = commonlog.GetLogger("avm.avm1")
	traceLog = commonlog.GetLogger("avm.trace")
)

const (
	// DefaultMaxRecursionDepth is the deepest function nesting allowed.
	DefaultMaxRecursionDepth = 256
	// DefaultMaxActions bounds the actions run by one entry point.
	DefaultMaxActions = 1_000_000
)

// Limits bounds script execution. A zero MaxActions means unlimited.
type Limits struct {
	MaxRecursionDepth int
	MaxActions        int
}

// DefaultLimits returns the limits used by the standalone player.
func DefaultLimits() Limits {
	return Limits{MaxRecursionDepth: DefaultMaxRecursionDepth, MaxActions: DefaultMaxActions}
}

// Avm1 is one VM instance. It is not safe for concurrent use; every entry
// point runs to completion on the caller's goroutine.
type Avm1 struct {
	playerVersion uint8

	// The constant pool most recently set by timeline code. Frame scripts
	// start with it.
	constantPool []string

	globals           Object
	prototypes        *SystemPrototypes
	listeners         *SystemListeners
	displayProperties *DisplayPropertyMap

	frames    []*Activation
	stack     []Value
	registers [4]Value

	halted       bool
	maxRecursion int
	maxActions   int
	actionCount  int

	sharedObjects     map[string]*SharedObject
	externalCallbacks map[string]externalCallback
	registeredClasses map[string]Object
	objectID          string

	traceOutput func(string)
}

// New creates a VM with fresh globals.
func New(playerVersion uint8, limits Limits) *Avm1 {
	if limits.MaxRecursionDepth <= 0 {
		limits.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	avm := &Avm1{
		playerVersion:     playerVersion,
		displayProperties: newDisplayPropertyMap(),
		maxRecursion:      limits.MaxRecursionDepth,
		maxActions:        limits.MaxActions,
		sharedObjects:     make(map[string]*SharedObject),
		externalCallbacks: make(map[string]externalCallback),
	}
	avm.prototypes, avm.globals, avm.listeners = createGlobals(avm)
	return avm
}

func (avm *Avm1) Globals() Object               { return avm.globals }
func (avm *Avm1) Prototypes() *SystemPrototypes { return avm.prototypes }
func (avm *Avm1) PlayerVersion() uint8          { return avm.playerVersion }
func (avm *Avm1) Halted() bool                  { return avm.halted }
func (avm *Avm1) Listeners() *SystemListeners   { return avm.listeners }

// Halt stops all further execution in this VM.
func (avm *Avm1) Halt() {
	avm.halt("halted by host")
}

func (avm *Avm1) halt(reason string) {
	if avm.halted {
		return
	}
	avm.halted = true
	log.Errorf("%s. No more actions will be executed in this movie.", reason)
}

// SetTraceOutput installs fn to receive every trace message in addition to
// the avm.trace logger.
func (avm *Avm1) SetTraceOutput(fn func(string)) {
	avm.traceOutput = fn
}

func (avm *Avm1) trace(msg string) {
	traceLog.Info(msg)
	if avm.traceOutput != nil {
		avm.traceOutput(msg)
	}
}

// CurrentStackFrame returns the innermost running activation.
func (avm *Avm1) CurrentStackFrame() (*Activation, error) {
	if len(avm.frames) == 0 {
		return nil, ErrNoStackFrame
	}
	return avm.frames[len(avm.frames)-1], nil
}

// CurrentSwfVersion returns the version of the running code, if any.
func (avm *Avm1) CurrentSwfVersion() (uint8, bool) {
	act, err := avm.CurrentStackFrame()
	if err != nil {
		return 0, false
	}
	return act.swfVersion, true
}

// IsCaseSensitive reports whether property names in the running code are
// case sensitive. It is false when nothing is running.
func (avm *Avm1) IsCaseSensitive() bool {
	v, ok := avm.CurrentSwfVersion()
	return ok && v > 6
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// Push appends v to the operand stack.
func (avm *Avm1) Push(v Value) {
	avm.stack = append(avm.stack, v)
}

// Pop removes the top of the operand stack. An empty stack yields
// Undefined.
func (avm *Avm1) Pop() Value {
	n := len(avm.stack)
	if n == 0 {
		log.Warning("avm1 stack underflow")
		return Undefined
	}
	v := avm.stack[n-1]
	avm.stack = avm.stack[:n-1]
	return v
}

// StackLen returns the depth of the operand stack.
func (avm *Avm1) StackLen() int {
	return len(avm.stack)
}

func (avm *Avm1) truncateStack(n int) {
	if n < len(avm.stack) {
		clear(avm.stack[n:])
		avm.stack = avm.stack[:n]
	}
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// rootActivation creates the activation every entry point starts from:
// global scope, clip as base and target.
func (avm *Avm1) rootActivation(ctx *host.UpdateContext, id string, swfVersion uint8, clip display.DisplayObject) *Activation {
	return &Activation{
		avm:        avm,
		Context:    ctx,
		id:         id,
		swfVersion: swfVersion,
		scope:      NewGlobalScope(avm.globals),
		constants:  avm.constantPool,
		this:       Undefined,
		baseClip:   clip,
		targetClip: clip,
	}
}

// frameActivation creates a child of a root activation that runs code on
// clip's timeline, with the clip's object as this and as target scope.
func (avm *Avm1) frameActivation(ctx *host.UpdateContext, id string, clip display.DisplayObject, swfVersion uint8, code swf.Slice) *Activation {
	root := avm.rootActivation(ctx, id, swfVersion, clip)
	obj := avm.StageObject(clip)
	act := root.child(id, code, NewScope(root.scope, ScopeTarget, obj))
	act.this = ObjectValue(obj)
	return act
}

func (avm *Avm1) runActivation(act *Activation) {
	if len(avm.frames) == 0 {
		avm.actionCount = 0
	}
	avm.frames = append(avm.frames, act)
	_, _, err := act.runCode(act.code)
	avm.frames = avm.frames[:len(avm.frames)-1]
	if err != nil {
		avm.rootErrorHandler(act, err)
	}
}

// rootErrorHandler reports an error that reached an entry point.
func (avm *Avm1) rootErrorHandler(act *Activation, err error) {
	if IsHalting(err) {
		avm.halt(err.Error())
		return
	}
	var thrown *ThrownValue
	if errors.As(err, &thrown) {
		msg, cerr := thrown.Value.ToString(act)
		if cerr != nil {
			msg = "undefined"
		}
		avm.trace(msg)
		return
	}
	log.Errorf("Uncaught error: %s", err)
}

// RunStackFrameForAction runs a DoAction block on clip.
func (avm *Avm1) RunStackFrameForAction(ctx *host.UpdateContext, clip display.DisplayObject, swfVersion uint8, code swf.Slice) {
	if avm.halted {
		return
	}
	avm.runActivation(avm.frameActivation(ctx, "[Frame]", clip, swfVersion, code))
}

// RunStackFrameForInitAction runs a DoInitAction block on clip.
func (avm *Avm1) RunStackFrameForInitAction(ctx *host.UpdateContext, clip display.DisplayObject, swfVersion uint8, code swf.Slice) {
	if avm.halted {
		return
	}
	avm.Push(Undefined)
	avm.runActivation(avm.frameActivation(ctx, "[Init]", clip, swfVersion, code))
}

// RunStackFrameForMethod calls a method of obj, typically an event handler
// such as onEnterFrame. A missing method is not an error and script errors
// other than halts are discarded.
func (avm *Avm1) RunStackFrameForMethod(ctx *host.UpdateContext, clip display.DisplayObject, obj Object, swfVersion uint8, name string, args []Value) {
	if avm.halted {
		return
	}
	act := avm.rootActivation(ctx, "[Actions]", swfVersion, clip)
	avm.frames = append(avm.frames, act)
	defer func() { avm.frames = avm.frames[:len(avm.frames)-1] }()
	if len(avm.frames) == 1 {
		avm.actionCount = 0
	}

	rv, holder, err := SearchPrototype(act, obj, name, obj)
	if err == nil {
		var method Value
		if method, err = rv.Resolve(act); err == nil {
			if fn := method.AsObject(); fn != nil {
				_, err = fn.Call(act, obj, holder, args)
			}
		}
	}
	if IsHalting(err) {
		avm.halt(err.Error())
	} else if err != nil {
		log.Debugf("ignoring error from %s: %s", name, err)
	}
}

// RunWithStackFrameForDisplayObject runs fn inside an activation targeting
// clip, for host code that needs to call into objects. A halted VM skips
// fn.
func (avm *Avm1) RunWithStackFrameForDisplayObject(ctx *host.UpdateContext, clip display.DisplayObject, swfVersion uint8, fn func(act *Activation) error) {
	if avm.halted {
		return
	}
	avm.runWithStackFrame(ctx, clip, swfVersion, fn)
}

// runWithStackFrame runs fn even on a halted VM.
func (avm *Avm1) runWithStackFrame(ctx *host.UpdateContext, clip display.DisplayObject, swfVersion uint8, fn func(act *Activation) error) {
	act := avm.frameActivation(ctx, "[Display Object]", clip, swfVersion, swf.Slice{})
	if len(avm.frames) == 0 {
		avm.actionCount = 0
	}
	avm.frames = append(avm.frames, act)
	err := fn(act)
	avm.frames = avm.frames[:len(avm.frames)-1]
	if err != nil {
		avm.rootErrorHandler(act, err)
	}
}

// NotifySystemListeners calls method on every object registered with the
// given broadcaster.
func (avm *Avm1) NotifySystemListeners(ctx *host.UpdateContext, clip display.DisplayObject, swfVersion uint8, listener SystemListener, method string, args []Value) {
	if avm.halted {
		return
	}
	avm.RunWithStackFrameForDisplayObject(ctx, clip, swfVersion, func(act *Activation) error {
		handlers, err := avm.listeners.Get(listener).prepareHandlers(act, method)
		if err != nil {
			return err
		}
		for _, h := range handlers {
			if _, err := h.handler.Call(act, h.this, nil, args); err != nil {
				if IsHalting(err) {
					return err
				}
				avm.rootErrorHandler(act, err)
			}
		}
		return nil
	})
}

// RunFrameActions drains the context's action queue, running every block
// on the clip that queued it.
func (avm *Avm1) RunFrameActions(ctx *host.UpdateContext) {
	for {
		queued, ok := ctx.Queue.Pop()
		if !ok {
			return
		}
		if queued.Clip.Base().Removed() {
			continue
		}
		version := queued.Code.Version()
		if queued.Init {
			avm.RunStackFrameForInitAction(ctx, queued.Clip, version, queued.Code)
		} else {
			avm.RunStackFrameForAction(ctx, queued.Clip, version, queued.Code)
		}
	}
}

func (avm *Avm1) String() string {
	return fmt.Sprintf("avm1(player %d, %d frames, stack %d)", avm.playerVersion, len(avm.frames), len(avm.stack))
}
