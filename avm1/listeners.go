package avm1

// SystemListener names one of the broadcasters the host notifies.
type SystemListener uint8

const (
	ListenerKey SystemListener = iota
	ListenerMouse
	ListenerStage
)

func (l SystemListener) String() string {
	switch l {
	case ListenerKey:
		return "Key"
	case ListenerMouse:
		return "Mouse"
	case ListenerStage:
		return "Stage"
	}
	return "unknown"
}

// Listeners is the _listeners array of one broadcaster object.
type Listeners struct {
	owner Object
	list  *ArrayObject
}

type listenerHandler struct {
	handler Object
	this    Object
}

// SystemListeners holds the broadcasters the host can notify.
type SystemListeners struct {
	key   *Listeners
	mouse *Listeners
	stage *Listeners
}

// Get returns the broadcaster for l.
func (s *SystemListeners) Get(l SystemListener) *Listeners {
	switch l {
	case ListenerMouse:
		return s.mouse
	case ListenerStage:
		return s.stage
	}
	return s.key
}

// newListeners installs an empty _listeners array and the
// addListener/removeListener/broadcastMessage methods on owner.
func newListeners(owner *ScriptObject, fnProto Object, arrayProto Object) *Listeners {
	l := &Listeners{owner: owner, list: NewArrayObject(arrayProto, nil)}
	owner.DefineValue("_listeners", ObjectValue(l.list), DontEnum)
	defineMethods(owner, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"addListener":      l.addListener,
		"removeListener":   l.removeListener,
		"broadcastMessage": l.broadcastMessage,
	})
	return l
}

// current reads _listeners from the owner, since scripts may replace it.
func (l *Listeners) current(act *Activation) (Object, error) {
	v, err := Get(act, l.owner, "_listeners")
	if err != nil {
		return nil, err
	}
	return v.AsObject(), nil
}

func (l *Listeners) addListener(act *Activation, this Object, args []Value) (Value, error) {
	listener := arg(args, 0)
	list, err := l.current(act)
	if err != nil || list == nil {
		return Bool(true), err
	}
	n, err := list.Length(act)
	if err != nil {
		return Undefined, err
	}
	for i := int32(0); i < n; i++ {
		v, err := list.GetElement(act, i)
		if err != nil {
			return Undefined, err
		}
		if StrictEquals(v, listener) {
			return Bool(true), nil
		}
	}
	return Bool(true), list.SetElement(act, n, listener)
}

func (l *Listeners) removeListener(act *Activation, this Object, args []Value) (Value, error) {
	listener := arg(args, 0)
	list, err := l.current(act)
	if err != nil || list == nil {
		return Bool(false), err
	}
	n, err := list.Length(act)
	if err != nil {
		return Undefined, err
	}
	for i := int32(0); i < n; i++ {
		v, err := list.GetElement(act, i)
		if err != nil {
			return Undefined, err
		}
		if !StrictEquals(v, listener) {
			continue
		}
		for j := i; j < n-1; j++ {
			next, err := list.GetElement(act, j+1)
			if err != nil {
				return Undefined, err
			}
			if err := list.SetElement(act, j, next); err != nil {
				return Undefined, err
			}
		}
		list.DeleteElement(act, n-1)
		return Bool(true), list.SetLength(act, n-1)
	}
	return Bool(false), nil
}

func (l *Listeners) broadcastMessage(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return Undefined, nil
	}
	method, err := args[0].ToString(act)
	if err != nil {
		return Undefined, err
	}
	handlers, err := l.prepareHandlers(act, method)
	if err != nil {
		return Undefined, err
	}
	for _, h := range handlers {
		if _, err := h.handler.Call(act, h.this, nil, args[1:]); err != nil {
			return Undefined, err
		}
	}
	return Undefined, nil
}

// prepareHandlers snapshots the listeners that define method, so handlers
// that add or remove listeners do not disturb the current broadcast.
func (l *Listeners) prepareHandlers(act *Activation, method string) ([]listenerHandler, error) {
	list, err := l.current(act)
	if err != nil || list == nil {
		return nil, err
	}
	n, err := list.Length(act)
	if err != nil {
		return nil, err
	}
	var out []listenerHandler
	for i := int32(0); i < n; i++ {
		v, err := list.GetElement(act, i)
		if err != nil {
			return nil, err
		}
		obj := v.AsObject()
		if obj == nil {
			continue
		}
		fv, err := Get(act, obj, method)
		if err != nil {
			return nil, err
		}
		if fn := fv.AsObject(); fn != nil {
			out = append(out, listenerHandler{handler: fn, this: obj})
		}
	}
	return out, nil
}
