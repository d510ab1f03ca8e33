package avm1

import (
	"maps"
	"math"
	"net/url"
	"slices"
	"strings"

	"github.com/chazu/avm/host"
	"github.com/chazu/avm/lso"
	"github.com/chazu/avm/storage"
)

// invalidSharedObjectChars may not appear in a shared object name.
const invalidSharedObjectChars = "~%&\\;:\"',<>?# "

// maxSerializeDepth bounds the object graph walk so cycles terminate.
const maxSerializeDepth = 64

// SharedObject is a locally persisted object. Its data property is
// serialized to the context's storage under the full name.
type SharedObject struct {
	*ScriptObject
	name string
}

// Name returns the storage key.
func (s *SharedObject) Name() string { return s.name }

func (s *SharedObject) data(act *Activation) (Object, error) {
	v, err := Get(act, s, "data")
	if err != nil {
		return nil, err
	}
	return v.AsObject(), nil
}

func sharedObjectFunction(act *Activation, this Object, args []Value) (Value, error) {
	return Undefined, nil
}

func defineSharedObject(ctor *FunctionObject, proto *ScriptObject, fnProto Object) {
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"flush":    sharedObjectFlush,
		"clear":    sharedObjectClear,
		"getSize":  sharedObjectGetSize,
		"close":    notImplemented("close"),
		"connect":  notImplemented("connect"),
		"send":     notImplemented("send"),
		"setFps":   notImplemented("setFps"),
		"onStatus": notImplemented("onStatus"),
		"onSync":   notImplemented("onSync"),
	})
	defineMethods(ctor.ScriptObject, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"getLocal":     sharedObjectGetLocal,
		"getRemote":    notImplemented("getRemote"),
		"deleteAll":    notImplemented("deleteAll"),
		"getDiskUsage": notImplemented("getDiskUsage"),
	})
}

func notImplemented(name string) NativeFunction {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		log.Warningf("SharedObject.%s() not implemented", name)
		return Undefined, nil
	}
}

// sharedObjectName builds the storage key for name, or reports false when
// the movie may not open it.
func sharedObjectName(movieURL, name string, localPath *string, secure bool) (string, bool) {
	if name == "" || strings.ContainsAny(name, invalidSharedObjectChars) {
		log.Warningf("SharedObject.getLocal: invalid name %q", name)
		return "", false
	}
	u, err := url.Parse(movieURL)
	if err != nil {
		log.Warningf("SharedObject.getLocal: bad movie URL %q: %s", movieURL, err)
		return "", false
	}
	if secure && u.Scheme != "https" {
		log.Warning("SharedObject.getLocal: secure objects need an https movie")
		return "", false
	}
	origin := u.Hostname()
	if u.Scheme == "file" || origin == "" {
		origin = "localhost"
	}

	path := u.Path
	if localPath != nil {
		if !strings.HasPrefix(u.Path, *localPath) {
			log.Warningf("SharedObject.getLocal: %q is not a prefix of the movie path", *localPath)
			return "", false
		}
		path = *localPath
	}

	if strings.Contains(name, "/") {
		name = "#" + name
	}
	parts := []string{origin}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	full := strings.Join(append(parts, name), "/")
	if !storage.ValidKey(full) {
		log.Warningf("SharedObject.getLocal: invalid path %q", full)
		return "", false
	}
	return full, true
}

func sharedObjectGetLocal(act *Activation, this Object, args []Value) (Value, error) {
	name, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	var localPath *string
	if lp := arg(args, 1); !lp.IsNullOrUndefined() {
		s, err := lp.ToString(act)
		if err != nil {
			return Undefined, err
		}
		localPath = &s
	}
	secure := arg(args, 2).ToBool(act.swfVersion)

	full, ok := sharedObjectName(act.Context.MovieURL, name, localPath, secure)
	if !ok {
		return Null, nil
	}
	if so, ok := act.avm.sharedObjects[full]; ok {
		return ObjectValue(so), nil
	}

	so := &SharedObject{ScriptObject: NewScriptObject(act.avm.prototypes.SharedObject), name: full}
	data := NewScriptObject(act.avm.prototypes.Object)
	if blob, ok := act.Context.Storage.Get(full); ok {
		saved, err := lso.Decode(blob)
		if err != nil {
			saved, err = lso.ParseJSON(name, blob)
		}
		if err != nil {
			log.Warningf("SharedObject %q: unreadable data: %s", full, err)
		} else if err := deserializeInto(act, data, saved.Body); err != nil {
			return Undefined, err
		}
	}
	so.DefineValue("data", ObjectValue(data), DontDelete)
	act.avm.sharedObjects[full] = so
	return ObjectValue(so), nil
}

func sharedObjectFlush(act *Activation, this Object, args []Value) (Value, error) {
	so, ok := this.(*SharedObject)
	if !ok {
		return Undefined, nil
	}
	ok, err := so.flush(act)
	return Bool(ok), err
}

func (s *SharedObject) encode(act *Activation) ([]byte, error) {
	data, err := s.data(act)
	if err != nil || data == nil {
		return nil, err
	}
	body, err := serializeObject(act, data, 0)
	if err != nil {
		return nil, err
	}
	return lso.Encode(&lso.Lso{Name: s.name, Body: body})
}

func (s *SharedObject) flush(act *Activation) (bool, error) {
	blob, err := s.encode(act)
	if err != nil {
		return false, err
	}
	if blob == nil {
		return false, nil
	}
	return act.Context.Storage.Put(s.name, blob), nil
}

func sharedObjectClear(act *Activation, this Object, args []Value) (Value, error) {
	so, ok := this.(*SharedObject)
	if !ok {
		return Undefined, nil
	}
	data, err := so.data(act)
	if err != nil {
		return Undefined, err
	}
	if data != nil {
		for _, k := range data.GetKeys(act) {
			data.Delete(act, k)
		}
	}
	act.Context.Storage.Remove(so.name)
	return Undefined, nil
}

func sharedObjectGetSize(act *Activation, this Object, args []Value) (Value, error) {
	so, ok := this.(*SharedObject)
	if !ok {
		return Undefined, nil
	}
	blob, err := so.encode(act)
	if err != nil {
		return Undefined, err
	}
	return Number(float64(len(blob))), nil
}

// FlushSharedObjects writes every open shared object to storage, as the
// player does on exit. It runs on a halted VM too.
func (avm *Avm1) FlushSharedObjects(ctx *host.UpdateContext) {
	if len(avm.sharedObjects) == 0 {
		return
	}
	avm.runWithStackFrame(ctx, ctx.Stage, ctx.SwfVersion, func(act *Activation) error {
		for _, name := range slices.Sorted(maps.Keys(avm.sharedObjects)) {
			if ok, err := avm.sharedObjects[name].flush(act); err != nil {
				return err
			} else if !ok {
				log.Warningf("SharedObject %q was not saved", name)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// serializeObject converts the enumerable properties of obj, walking the
// keys in reverse. Functions are dropped.
func serializeObject(act *Activation, obj Object, depth int) ([]lso.Element, error) {
	keys := obj.GetKeys(act)
	elems := make([]lso.Element, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		v, err := Get(act, obj, keys[i])
		if err != nil {
			return nil, err
		}
		lv, ok, err := serializeValue(act, v, depth)
		if err != nil {
			return nil, err
		}
		if ok {
			elems = append(elems, lso.Element{Name: keys[i], Value: lv})
		}
	}
	return elems, nil
}

func serializeValue(act *Activation, v Value, depth int) (lso.Value, bool, error) {
	switch v.kind {
	case KindUndefined:
		return lso.Undefined(), true, nil
	case KindNull:
		return lso.Null(), true, nil
	case KindBool:
		return lso.Bool(v.b), true, nil
	case KindNumber:
		return lso.Number(v.n), true, nil
	case KindString:
		return lso.String(v.s), true, nil
	}
	if v.obj.AsExecutable() != nil {
		return lso.Value{}, false, nil
	}
	if depth >= maxSerializeDepth {
		log.Warning("SharedObject: object graph too deep, truncating")
		return lso.Undefined(), true, nil
	}
	switch o := v.obj.(type) {
	case *DateObject:
		return lso.Date(o.millis), true, nil
	case *XMLObject:
		return lso.XML(o.source), true, nil
	case *StageObject:
		return lso.Value{}, false, nil
	case *ArrayObject:
		elems, err := serializeObject(act, o, depth+1)
		if err != nil {
			return lso.Value{}, false, err
		}
		n, err := o.Length(act)
		if err != nil {
			return lso.Value{}, false, err
		}
		return lso.ECMAArray(elems, uint32(max(n, 0))), true, nil
	}
	elems, err := serializeObject(act, v.obj, depth+1)
	if err != nil {
		return lso.Value{}, false, err
	}
	return lso.Object(elems), true, nil
}

func deserializeInto(act *Activation, obj Object, elems []lso.Element) error {
	for _, e := range elems {
		v, err := deserializeValue(act, e.Value)
		if err != nil {
			return err
		}
		if err := Set(act, obj, e.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// deserializeValue rebuilds a live value. Arrays are filled through
// element writes so their length stays consistent.
func deserializeValue(act *Activation, v lso.Value) (Value, error) {
	switch v.Kind {
	case lso.KindNull:
		return Null, nil
	case lso.KindBool:
		return Bool(v.Bool), nil
	case lso.KindNumber:
		return Number(v.Number), nil
	case lso.KindString:
		return String(v.String), nil
	case lso.KindDate:
		return ObjectValue(NewDateObject(act, v.Number)), nil
	case lso.KindXML:
		return ObjectValue(NewXMLObject(act, v.String)), nil
	case lso.KindObject:
		obj := NewScriptObject(act.avm.prototypes.Object)
		return ObjectValue(obj), deserializeInto(act, obj, v.Elements)
	case lso.KindECMAArray, lso.KindStrictArray:
		arr := NewArray(act, nil)
		if err := arr.SetLength(act, int32(min(v.Length, math.MaxInt32))); err != nil {
			return Undefined, err
		}
		for i, e := range v.Elements {
			ev, err := deserializeValue(act, e.Value)
			if err != nil {
				return Undefined, err
			}
			if v.Kind == lso.KindStrictArray {
				err = arr.SetElement(act, int32(i), ev)
			} else if idx, ok := lso.IsIndex(e.Name); ok {
				err = arr.SetElement(act, int32(idx), ev)
			} else {
				err = Set(act, arr, e.Name, ev)
			}
			if err != nil {
				return Undefined, err
			}
		}
		return ObjectValue(arr), nil
	}
	return Undefined, nil
}
