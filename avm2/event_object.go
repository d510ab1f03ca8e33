package avm2

// EventObject is an instance of flash.events.Event or a subclass.
type EventObject struct {
	*ScriptObject
	event *Event
}

func eventAllocator(class *ClassObject) Object {
	return &EventObject{ScriptObject: class.newBase(), event: NewEvent("")}
}

func (e *EventObject) AsEvent() *Event { return e.event }

// NewEventObject creates an Event instance for host-originated events.
func (avm *Avm2) NewEventObject(typ string, bubbles, cancelable bool) Object {
	obj := avm.classes.Event.NewInstance(avm)
	ev := obj.AsEvent()
	ev.typ, ev.bubbles, ev.cancelable = typ, bubbles, cancelable
	return obj
}

// DispatchObject holds the native listener list of an EventDispatcher.
// It lives in a private property and is never visible to scripts.
type DispatchObject struct {
	*ScriptObject
	list *DispatchList
}

func (d *DispatchObject) AsDispatch() *DispatchList { return d.list }
