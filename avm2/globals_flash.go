package avm2

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/chazu/avm/display"
)

// eventTypes are the constants of flash.events.Event.
var eventTypes = map[string]string{
	"ACTIVATE":           "activate",
	"ADDED":              "added",
	"ADDED_TO_STAGE":     "addedToStage",
	"CHANGE":             "change",
	"COMPLETE":           "complete",
	"DEACTIVATE":         "deactivate",
	"ENTER_FRAME":        "enterFrame",
	"EXIT_FRAME":         "exitFrame",
	"FRAME_CONSTRUCTED":  "frameConstructed",
	"INIT":               "init",
	"REMOVED":            "removed",
	"REMOVED_FROM_STAGE": "removedFromStage",
	"RENDER":             "render",
	"RESIZE":             "resize",
}

func thisEvent(act *Activation, this Object) (*Event, error) {
	if ev := this.AsEvent(); ev != nil {
		return ev, nil
	}
	return nil, TypeError(act, 1034,
		fmt.Sprintf("Type Coercion failed: cannot convert %s to flash.events.Event.", defaultObjectString(this)))
}

// eventGetter wraps a read of the native event state.
func eventGetter(name string, read func(ev *Event) Value) *Trait {
	return getter(name, func(act *Activation, this Object, args []Value) (Value, error) {
		ev, err := thisEvent(act, this)
		if err != nil {
			return Undefined, err
		}
		return read(ev), nil
	})
}

func objectOrNull(obj Object) Value {
	if obj == nil {
		return Null
	}
	return ObjectValue(obj)
}

func (avm *Avm2) createEventClasses(act *Activation) {
	c := avm.classes

	var constants []*Trait
	for _, name := range slices.Sorted(maps.Keys(eventTypes)) {
		constants = append(constants, NewConstTrait(name, String(eventTypes[name])))
	}
	traits := []*Trait{
		eventGetter("type", func(ev *Event) Value { return String(ev.typ) }),
		eventGetter("bubbles", func(ev *Event) Value { return Bool(ev.bubbles) }),
		eventGetter("cancelable", func(ev *Event) Value { return Bool(ev.cancelable) }),
		eventGetter("eventPhase", func(ev *Event) Value { return Uint(uint32(ev.phase)) }),
		eventGetter("target", func(ev *Event) Value { return objectOrNull(ev.target) }),
		eventGetter("currentTarget", func(ev *Event) Value { return objectOrNull(ev.currentTarget) }),
	}
	traits = append(traits, methodTraits(map[string]NativeMethod{
		"stopPropagation": func(act *Activation, this Object, args []Value) (Value, error) {
			ev, err := thisEvent(act, this)
			if err == nil {
				ev.StopPropagation()
			}
			return Undefined, err
		},
		"stopImmediatePropagation": func(act *Activation, this Object, args []Value) (Value, error) {
			ev, err := thisEvent(act, this)
			if err == nil {
				ev.StopImmediatePropagation()
			}
			return Undefined, err
		},
		"preventDefault": func(act *Activation, this Object, args []Value) (Value, error) {
			ev, err := thisEvent(act, this)
			if err == nil {
				ev.Cancel()
			}
			return Undefined, err
		},
		"isDefaultPrevented": func(act *Activation, this Object, args []Value) (Value, error) {
			ev, err := thisEvent(act, this)
			if err != nil {
				return Undefined, err
			}
			return Bool(ev.cancelled), nil
		},
		"clone": func(act *Activation, this Object, args []Value) (Value, error) {
			ev, err := thisEvent(act, this)
			if err != nil {
				return Undefined, err
			}
			obj, err := this.Base().class.Construct(act, []Value{String(ev.typ), Bool(ev.bubbles), Bool(ev.cancelable)})
			if err != nil {
				return Undefined, err
			}
			return ObjectValue(obj), nil
		},
		"toString": func(act *Activation, this Object, args []Value) (Value, error) {
			ev, err := thisEvent(act, this)
			if err != nil {
				return Undefined, err
			}
			return String(fmt.Sprintf("[%s type=%q bubbles=%t cancelable=%t eventPhase=%d]",
				this.Base().class.LocalName(), ev.typ, ev.bubbles, ev.cancelable, ev.phase)), nil
		},
	})...)

	c.Event = avm.defineClass(act, &ClassDef{
		Name:           "flash.events.Event",
		SuperName:      "Object",
		Sealed:         true,
		Allocator:      eventAllocator,
		InstanceInit:   NewNativeMethod("Event", eventInit),
		InstanceTraits: traits,
		ClassTraits:    constants,
	}, c.Object)

	c.EventDispatcher = avm.defineClass(act, &ClassDef{
		Name:      "flash.events.EventDispatcher",
		SuperName: "Object",
		Sealed:    true,
		InstanceInit: NewNativeMethod("EventDispatcher", func(act *Activation, this Object, args []Value) (Value, error) {
			dispatchListOf(this, true)
			return Undefined, nil
		}),
		InstanceTraits: methodTraits(map[string]NativeMethod{
			"addEventListener":    addEventListener,
			"removeEventListener": removeEventListener,
			"hasEventListener":    hasEventListener,
			"willTrigger":         willTrigger,
			"dispatchEvent":       dispatchEventMethod,
		}),
	}, c.Object)
}

func eventInit(act *Activation, this Object, args []Value) (Value, error) {
	ev, err := thisEvent(act, this)
	if err != nil {
		return Undefined, err
	}
	typ, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	ev.typ = typ
	ev.bubbles = arg(args, 1).ToBool()
	ev.cancelable = arg(args, 2).ToBool()
	return Undefined, nil
}

// listenerArgs decodes the type, listener and useCapture arguments shared
// by addEventListener and removeEventListener.
func listenerArgs(act *Activation, args []Value) (string, Object, bool, error) {
	typ, err := arg(args, 0).ToString(act)
	if err != nil {
		return "", nil, false, err
	}
	fn := arg(args, 1).AsObject()
	if fn == nil || !IsCallable(fn) {
		return "", nil, false, TypeError(act, 2007, "Parameter listener must be non-null.")
	}
	return typ, fn, arg(args, 2).ToBool(), nil
}

func addEventListener(act *Activation, this Object, args []Value) (Value, error) {
	typ, fn, useCapture, err := listenerArgs(act, args)
	if err != nil {
		return Undefined, err
	}
	priority, err := arg(args, 3).ToInt32(act)
	if err != nil {
		return Undefined, err
	}
	dispatchListOf(this, true).AddEventListener(typ, priority, fn, useCapture)
	act.avm.RegisterBroadcastListener(this, typ)
	return Undefined, nil
}

func removeEventListener(act *Activation, this Object, args []Value) (Value, error) {
	typ, fn, useCapture, err := listenerArgs(act, args)
	if err != nil {
		return Undefined, err
	}
	if list := dispatchListOf(this, false); list != nil {
		list.RemoveEventListener(typ, fn, useCapture)
	}
	return Undefined, nil
}

func hasEventListener(act *Activation, this Object, args []Value) (Value, error) {
	typ, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	list := dispatchListOf(this, false)
	return Bool(list != nil && list.HasEventListener(typ)), nil
}

// willTrigger also consults the display ancestors a bubbling event would
// reach.
func willTrigger(act *Activation, this Object, args []Value) (Value, error) {
	typ, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	targets := []Object{this}
	if node := this.AsDisplayObject(); node != nil {
		for _, p := range display.Ancestors(node) {
			if obj, ok := p.Base().AVM2Object().(Object); ok {
				targets = append(targets, obj)
			}
		}
	}
	for _, obj := range targets {
		if list := dispatchListOf(obj, false); list != nil && list.HasEventListener(typ) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

// dispatchEventMethod dispatches a clone when the event was already
// dispatched. It returns false when a handler prevented the default.
func dispatchEventMethod(act *Activation, this Object, args []Value) (Value, error) {
	eventObj := arg(args, 0).AsObject()
	if eventObj == nil || eventObj.AsEvent() == nil {
		return Undefined, TypeError(act, 1034, "Type Coercion failed: cannot convert value to flash.events.Event.")
	}
	if eventObj.AsEvent().target != nil {
		v, err := CallProperty(act, eventObj, "clone", nil)
		if err != nil {
			return Undefined, err
		}
		if eventObj = v.AsObject(); eventObj == nil || eventObj.AsEvent() == nil {
			return Undefined, TypeError(act, 1034, "Type Coercion failed: clone did not return an Event.")
		}
	}
	cancelled, err := act.avm.dispatchEvent(act, eventObj, this)
	if err != nil {
		return Undefined, err
	}
	return Bool(!cancelled), nil
}

// ---------------------------------------------------------------------------
// Display
// ---------------------------------------------------------------------------

func thisStage(act *Activation, this Object) (*StageObject, error) {
	if so, ok := this.(*StageObject); ok && so.node != nil {
		return so, nil
	}
	return nil, TypeError(act, 1034,
		fmt.Sprintf("Type Coercion failed: cannot convert %s to flash.display.DisplayObject.", defaultObjectString(this)))
}

func thisClip(act *Activation, this Object) (*display.MovieClip, error) {
	so, err := thisStage(act, this)
	if err != nil {
		return nil, err
	}
	if mc, ok := so.movieClip(); ok {
		return mc, nil
	}
	return nil, TypeError(act, 1034,
		fmt.Sprintf("Type Coercion failed: cannot convert %s to flash.display.MovieClip.", defaultObjectString(this)))
}

// stageGetter and stageSetter bind a property to the display node.
func stageGetter(name string, read func(act *Activation, node display.DisplayObject) Value) *Trait {
	return getter(name, func(act *Activation, this Object, args []Value) (Value, error) {
		so, err := thisStage(act, this)
		if err != nil {
			return Undefined, err
		}
		return read(act, so.node), nil
	})
}

func stageSetter(name string, write func(act *Activation, node display.DisplayObject, v Value) error) *Trait {
	return setter(name, func(act *Activation, this Object, args []Value) (Value, error) {
		so, err := thisStage(act, this)
		if err != nil {
			return Undefined, err
		}
		return Undefined, write(act, so.node, arg(args, 0))
	})
}

func numberSetter(name string, set func(node display.DisplayObject, n float64)) *Trait {
	return stageSetter(name, func(act *Activation, node display.DisplayObject, v Value) error {
		n, err := v.ToNumber(act)
		if err == nil {
			set(node, n)
		}
		return err
	})
}

func (avm *Avm2) createDisplayClasses(act *Activation) {
	c := avm.classes

	c.DisplayObject = avm.defineClass(act, &ClassDef{
		Name:      "flash.display.DisplayObject",
		SuperName: "flash.events.EventDispatcher",
		Sealed:    true,
		Allocator: stageAllocator,
		InstanceInit: NewNativeMethod("DisplayObject", func(act *Activation, this Object, args []Value) (Value, error) {
			if _, err := thisStage(act, this); err != nil {
				return Undefined, ArgumentError(act, 2012, "DisplayObject$ class cannot be instantiated.")
			}
			dispatchListOf(this, true)
			return Undefined, nil
		}),
		InstanceTraits: []*Trait{
			stageGetter("name", func(act *Activation, node display.DisplayObject) Value {
				return String(node.Base().Name())
			}),
			stageSetter("name", func(act *Activation, node display.DisplayObject, v Value) error {
				s, err := v.ToString(act)
				if err == nil {
					node.Base().SetName(s)
				}
				return err
			}),
			stageGetter("x", func(act *Activation, node display.DisplayObject) Value {
				return Number(node.Base().X())
			}),
			numberSetter("x", func(node display.DisplayObject, n float64) { node.Base().SetX(n) }),
			stageGetter("y", func(act *Activation, node display.DisplayObject) Value {
				return Number(node.Base().Y())
			}),
			numberSetter("y", func(node display.DisplayObject, n float64) { node.Base().SetY(n) }),
			stageGetter("alpha", func(act *Activation, node display.DisplayObject) Value {
				return Number(node.Base().Alpha() / 100)
			}),
			numberSetter("alpha", func(node display.DisplayObject, n float64) { node.Base().SetAlpha(n * 100) }),
			stageGetter("visible", func(act *Activation, node display.DisplayObject) Value {
				return Bool(node.Base().Visible())
			}),
			stageSetter("visible", func(act *Activation, node display.DisplayObject, v Value) error {
				node.Base().SetVisible(v.ToBool())
				return nil
			}),
			stageGetter("parent", func(act *Activation, node display.DisplayObject) Value {
				parent := node.Base().Parent()
				if parent == nil {
					return Null
				}
				return ObjectValue(act.avm.StageObject(parent))
			}),
			stageGetter("root", func(act *Activation, node display.DisplayObject) Value {
				return ObjectValue(act.avm.StageObject(display.Root(node)))
			}),
		},
	}, c.EventDispatcher)

	frameArg := func(act *Activation, mc *display.MovieClip, stop bool, args []Value) error {
		ctx := act.Context
		if ctx == nil {
			return ErrNoStackFrame
		}
		target := arg(args, 0)
		if label, ok := target.AsString(); ok {
			if n := parseNumber(label); label != "" && !math.IsNaN(n) {
				mc.GotoFrame(ctx.Display(), uint16(n), stop)
			} else if !mc.GotoLabel(ctx.Display(), label, stop) {
				return ArgumentError(act, 2109, fmt.Sprintf("Frame label %s not found in scene.", label))
			}
			return nil
		}
		n, err := target.ToNumber(act)
		if err != nil {
			return err
		}
		mc.GotoFrame(ctx.Display(), uint16(n), stop)
		return nil
	}
	clipMethod := func(fn func(act *Activation, mc *display.MovieClip, args []Value) error) NativeMethod {
		return func(act *Activation, this Object, args []Value) (Value, error) {
			mc, err := thisClip(act, this)
			if err != nil {
				return Undefined, err
			}
			return Undefined, fn(act, mc, args)
		}
	}
	withContext := func(act *Activation, run func(ctx *display.Context)) error {
		if act.Context == nil {
			return ErrNoStackFrame
		}
		run(act.Context.Display())
		return nil
	}

	traits := methodTraits(map[string]NativeMethod{
		"play": clipMethod(func(act *Activation, mc *display.MovieClip, args []Value) error {
			mc.Play()
			return nil
		}),
		"stop": clipMethod(func(act *Activation, mc *display.MovieClip, args []Value) error {
			mc.Stop()
			return nil
		}),
		"nextFrame": clipMethod(func(act *Activation, mc *display.MovieClip, args []Value) error {
			return withContext(act, mc.NextFrame)
		}),
		"prevFrame": clipMethod(func(act *Activation, mc *display.MovieClip, args []Value) error {
			return withContext(act, mc.PrevFrame)
		}),
		"gotoAndPlay": clipMethod(func(act *Activation, mc *display.MovieClip, args []Value) error {
			return frameArg(act, mc, false, args)
		}),
		"gotoAndStop": clipMethod(func(act *Activation, mc *display.MovieClip, args []Value) error {
			return frameArg(act, mc, true, args)
		}),
	})
	clipGetter := func(name string, read func(mc *display.MovieClip) Value) *Trait {
		return getter(name, func(act *Activation, this Object, args []Value) (Value, error) {
			mc, err := thisClip(act, this)
			if err != nil {
				return Undefined, err
			}
			return read(mc), nil
		})
	}
	traits = append(traits,
		clipGetter("currentFrame", func(mc *display.MovieClip) Value { return Int(int32(mc.CurrentFrame())) }),
		clipGetter("totalFrames", func(mc *display.MovieClip) Value { return Int(int32(mc.TotalFrames())) }),
		clipGetter("framesLoaded", func(mc *display.MovieClip) Value { return Int(int32(mc.FramesLoaded())) }),
		clipGetter("isPlaying", func(mc *display.MovieClip) Value { return Bool(mc.Playing()) }),
	)

	c.MovieClip = avm.defineClass(act, &ClassDef{
		Name:      "flash.display.MovieClip",
		SuperName: "flash.display.DisplayObject",
		Allocator: stageAllocator,
		InstanceInit: NewNativeMethod("MovieClip", func(act *Activation, this Object, args []Value) (Value, error) {
			so, ok := this.(*StageObject)
			if !ok {
				return Undefined, nil
			}
			if so.node == nil {
				so.bind(display.NewEmptyMovieClip())
			}
			dispatchListOf(this, true)
			return Undefined, nil
		}),
		InstanceTraits: traits,
	}, c.DisplayObject)
}
