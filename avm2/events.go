package avm2

import (
	"maps"
	"slices"

	"github.com/chazu/avm/display"
)

// EventPhase is where an event is in its dispatch.
type EventPhase uint8

const (
	PhaseCapturing EventPhase = 1
	PhaseAtTarget  EventPhase = 2
	PhaseBubbling  EventPhase = 3
)

// Propagation records how far stopPropagation calls have cut dispatch.
type Propagation uint8

const (
	PropagationAllow Propagation = iota
	PropagationStop
	PropagationStopImmediate
)

// Event is the native state of a flash.events.Event instance.
type Event struct {
	typ         string
	bubbles     bool
	cancelable  bool
	cancelled   bool
	propagation Propagation
	phase       EventPhase

	target        Object
	currentTarget Object
}

// NewEvent creates an event in the at-target phase.
func NewEvent(typ string) *Event {
	return &Event{typ: typ, phase: PhaseAtTarget}
}

func (e *Event) Type() string               { return e.typ }
func (e *Event) SetType(t string)           { e.typ = t }
func (e *Event) IsBubbling() bool           { return e.bubbles }
func (e *Event) SetBubbles(b bool)          { e.bubbles = b }
func (e *Event) IsCancelable() bool         { return e.cancelable }
func (e *Event) SetCancelable(b bool)       { e.cancelable = b }
func (e *Event) IsCancelled() bool          { return e.cancelled }
func (e *Event) Phase() EventPhase          { return e.phase }
func (e *Event) SetPhase(p EventPhase)      { e.phase = p }
func (e *Event) Target() Object             { return e.target }
func (e *Event) SetTarget(o Object)         { e.target = o }
func (e *Event) CurrentTarget() Object      { return e.currentTarget }
func (e *Event) SetCurrentTarget(o Object)  { e.currentTarget = o }
func (e *Event) Propagation() Propagation   { return e.propagation }
func (e *Event) IsPropagationStopped() bool { return e.propagation != PropagationAllow }
func (e *Event) IsImmediatelyStopped() bool { return e.propagation == PropagationStopImmediate }
func (e *Event) StopImmediatePropagation()  { e.propagation = PropagationStopImmediate }

// Cancel prevents the default action. It has no effect on events that are
// not cancelable.
func (e *Event) Cancel() {
	if e.cancelable {
		e.cancelled = true
	}
}

// StopPropagation ends dispatch after the current object. It never
// downgrades an immediate stop.
func (e *Event) StopPropagation() {
	if e.propagation != PropagationStopImmediate {
		e.propagation = PropagationStop
	}
}

// ---------------------------------------------------------------------------
// DispatchList
// ---------------------------------------------------------------------------

type eventHandler struct {
	fn         Object
	useCapture bool
}

// DispatchList holds the listeners of one EventDispatcher: per event type,
// buckets keyed by priority, each in insertion order.
type DispatchList struct {
	events map[string]map[int32][]eventHandler
}

func NewDispatchList() *DispatchList {
	return &DispatchList{events: make(map[string]map[int32][]eventHandler)}
}

// AddEventListener registers fn. A handler already registered for the same
// type and capture flag, at any priority, is left as is.
func (d *DispatchList) AddEventListener(typ string, priority int32, fn Object, useCapture bool) {
	buckets := d.events[typ]
	if buckets == nil {
		buckets = make(map[int32][]eventHandler)
		d.events[typ] = buckets
	}
	h := eventHandler{fn: fn, useCapture: useCapture}
	for _, bucket := range buckets {
		if slices.Contains(bucket, h) {
			return
		}
	}
	buckets[priority] = append(buckets[priority], h)
}

// RemoveEventListener unregisters fn from every priority.
func (d *DispatchList) RemoveEventListener(typ string, fn Object, useCapture bool) {
	buckets := d.events[typ]
	h := eventHandler{fn: fn, useCapture: useCapture}
	for priority, bucket := range buckets {
		if i := slices.Index(bucket, h); i >= 0 {
			bucket = slices.Delete(bucket, i, i+1)
			if len(bucket) == 0 {
				delete(buckets, priority)
			} else {
				buckets[priority] = bucket
			}
		}
	}
}

// HasEventListener reports whether any handler is registered for typ.
func (d *DispatchList) HasEventListener(typ string) bool {
	return len(d.events[typ]) > 0
}

// Handlers returns the handlers for typ and phase by descending priority,
// then insertion order. The result is a copy.
func (d *DispatchList) Handlers(typ string, useCapture bool) []Object {
	buckets := d.events[typ]
	priorities := slices.Sorted(maps.Keys(buckets))
	slices.Reverse(priorities)
	var out []Object
	for _, p := range priorities {
		for _, h := range buckets[p] {
			if h.useCapture == useCapture {
				out = append(out, h.fn)
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// dispatchListName is the private property EventDispatcher keeps its
// listeners under.
const dispatchListName = "flash.events:EventDispatcher/dispatchList"

// dispatchListOf returns the listeners of obj, creating the list when
// create is set.
func dispatchListOf(obj Object, create bool) *DispatchList {
	if d := obj.AsDispatch(); d != nil {
		return d
	}
	base := obj.Base()
	if p, ok := base.values.Get(dispatchListName); ok {
		if holder := p.value.AsObject(); holder != nil {
			return holder.AsDispatch()
		}
	}
	if !create {
		return nil
	}
	holder := &DispatchObject{ScriptObject: NewScriptObject(nil, nil), list: NewDispatchList()}
	base.DefineValue(dispatchListName, ObjectValue(holder), DontDelete|ReadOnly)
	return holder.list
}

// dispatchEvent sends eventObj to target and, for bubbling events, to the
// display ancestors of target. It returns whether the event was cancelled.
func (avm *Avm2) dispatchEvent(act *Activation, eventObj Object, target Object) (bool, error) {
	event := eventObj.AsEvent()
	if event == nil {
		return false, TypeError(act, 1034, "Type Coercion failed: cannot convert value to flash.events.Event.")
	}
	if event.target == nil {
		event.target = target
	}

	var ancestors []Object
	if event.bubbles {
		if node := target.AsDisplayObject(); node != nil {
			for _, p := range display.Ancestors(node) {
				if so, ok := p.Base().AVM2Object().(Object); ok {
					ancestors = append(ancestors, so)
				}
			}
		}
	}

	event.phase = PhaseCapturing
	for i := len(ancestors) - 1; i >= 0; i-- {
		if err := avm.dispatchToObject(act, ancestors[i], eventObj, true); err != nil {
			return event.cancelled, err
		}
		if event.IsPropagationStopped() {
			return event.cancelled, nil
		}
	}

	event.phase = PhaseAtTarget
	if err := avm.dispatchToObject(act, target, eventObj, false); err != nil {
		return event.cancelled, err
	}
	if event.IsPropagationStopped() {
		return event.cancelled, nil
	}

	event.phase = PhaseBubbling
	for _, anc := range ancestors {
		if err := avm.dispatchToObject(act, anc, eventObj, false); err != nil {
			return event.cancelled, err
		}
		if event.IsPropagationStopped() {
			break
		}
	}
	return event.cancelled, nil
}

// dispatchToObject runs the handlers obj registered for the event's type
// and phase. Handler errors are logged and the next handler runs; only a
// halt aborts.
func (avm *Avm2) dispatchToObject(act *Activation, obj Object, eventObj Object, useCapture bool) error {
	event := eventObj.AsEvent()
	list := dispatchListOf(obj, false)
	if list == nil {
		return nil
	}
	event.currentTarget = obj
	for _, handler := range list.Handlers(event.typ, useCapture) {
		if event.IsImmediatelyStopped() {
			break
		}
		if _, err := handler.Call(act, nil, []Value{ObjectValue(eventObj)}); err != nil {
			if IsHalting(err) {
				return err
			}
			avm.reportError(act, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Broadcast
// ---------------------------------------------------------------------------

// broadcastTypes are the events delivered to every registered display
// object instead of through the display list.
var broadcastTypes = []string{"enterFrame", "exitFrame", "frameConstructed"}

// IsBroadcastEvent reports whether typ is delivered by broadcast.
func IsBroadcastEvent(typ string) bool {
	return slices.Contains(broadcastTypes, typ)
}

// RegisterBroadcastListener subscribes obj to broadcasts of typ. Types
// outside the broadcast set and repeated registrations are ignored.
func (avm *Avm2) RegisterBroadcastListener(obj Object, typ string) {
	if !IsBroadcastEvent(typ) {
		return
	}
	if slices.Contains(avm.broadcastList[typ], obj) {
		return
	}
	avm.broadcastList[typ] = append(avm.broadcastList[typ], obj)
}

// BroadcastListeners returns the objects registered for typ.
func (avm *Avm2) BroadcastListeners(typ string) []Object {
	return slices.Clone(avm.broadcastList[typ])
}
