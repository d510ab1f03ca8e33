package avm1

import (
	"math"

	"github.com/chazu/avm/display"
	"github.com/chazu/avm/host"
	"github.com/chazu/avm/swf"
)

func movieClipFunction(act *Activation, this Object, args []Value) (Value, error) {
	return Undefined, nil
}

func defineMovieClipMethods(proto *ScriptObject, fnProto Object) {
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"play":                 clipMethod(mcPlay),
		"stop":                 clipMethod(mcStop),
		"nextFrame":            clipMethod(mcNextFrame),
		"prevFrame":            clipMethod(mcPrevFrame),
		"gotoAndPlay":          clipMethod(mcGotoAndPlay),
		"gotoAndStop":          clipMethod(mcGotoAndStop),
		"startDrag":            clipMethod(mcStartDrag),
		"stopDrag":             clipMethod(mcStopDrag),
		"getDepth":             clipMethod(mcGetDepth),
		"getNextHighestDepth":  clipMethod(mcGetNextHighestDepth),
		"createEmptyMovieClip": clipMethod(mcCreateEmptyMovieClip),
		"attachMovie":          clipMethod(mcAttachMovie),
		"removeMovieClip":      clipMethod(mcRemoveMovieClip),
		"localToGlobal":        clipMethod(mcLocalToGlobal),
		"globalToLocal":        clipMethod(mcGlobalToLocal),
	})
}

type clipFunc func(act *Activation, mc *display.MovieClip, args []Value) (Value, error)

// clipMethod adapts fn to a native method that is a no-op on anything but
// a movie clip's object.
func clipMethod(fn clipFunc) NativeFunction {
	return func(act *Activation, this Object, args []Value) (Value, error) {
		so, ok := this.(*StageObject)
		if !ok {
			return Undefined, nil
		}
		mc, ok := so.node.(*display.MovieClip)
		if !ok {
			return Undefined, nil
		}
		return fn(act, mc, args)
	}
}

func mcPlay(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	mc.Play()
	return Undefined, nil
}

func mcStop(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	mc.Stop()
	return Undefined, nil
}

func mcNextFrame(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	mc.NextFrame(act.Context.Display())
	return Undefined, nil
}

func mcPrevFrame(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	mc.PrevFrame(act.Context.Display())
	return Undefined, nil
}

func gotoFrame(act *Activation, mc *display.MovieClip, v Value, stop bool) error {
	if s, ok := v.AsString(); ok {
		if n := parseNumber(s); math.IsNaN(n) {
			mc.GotoLabel(act.Context.Display(), s, stop)
			return nil
		}
	}
	n, err := v.ToNumber(act)
	if err != nil {
		return err
	}
	if math.IsNaN(n) {
		return nil
	}
	mc.GotoFrame(act.Context.Display(), uint16(max(toInt32(n), 1)), stop)
	return nil
}

func mcGotoAndPlay(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	return Undefined, gotoFrame(act, mc, arg(args, 0), false)
}

func mcGotoAndStop(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	return Undefined, gotoFrame(act, mc, arg(args, 0), true)
}

func mcStartDrag(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	return Undefined, startDrag(act, mc, args)
}

// startDrag makes node follow the mouse. args are lockCenter and an
// optional left, top, right, bottom constraint in the parent's pixels.
func startDrag(act *Activation, node display.DisplayObject, args []Value) error {
	drag := &host.DragObject{Object: node}
	if !arg(args, 0).ToBool(act.swfVersion) {
		ox, oy := display.LocalToGlobal(node, 0, 0)
		mouse := act.Context.MousePosition
		drag.Offset = [2]swf.Twips{ox - mouse[0], oy - mouse[1]}
	}
	if len(args) >= 5 {
		var bounds [4]float64
		for i := range bounds {
			n, err := args[i+1].ToNumber(act)
			if err != nil {
				return err
			}
			bounds[i] = n
		}
		drag.Constraint = &host.Rect{
			XMin: swf.TwipsFromPixels(math.Min(bounds[0], bounds[2])),
			YMin: swf.TwipsFromPixels(math.Min(bounds[1], bounds[3])),
			XMax: swf.TwipsFromPixels(math.Max(bounds[0], bounds[2])),
			YMax: swf.TwipsFromPixels(math.Max(bounds[1], bounds[3])),
		}
	}
	act.Context.Drag = drag
	return nil
}

func mcStopDrag(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	act.Context.Drag = nil
	return Undefined, nil
}

func mcGetDepth(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	return Number(float64(mc.Base().Depth())), nil
}

func mcGetNextHighestDepth(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	return Number(float64(max(mc.HighestDepth()+1, 0))), nil
}

func depthArg(act *Activation, v Value) (swf.Depth, error) {
	n, err := v.ToInt32(act)
	return swf.Depth(n), err
}

func mcCreateEmptyMovieClip(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	if len(args) < 2 {
		log.Warning("createEmptyMovieClip: too few arguments")
		return Undefined, nil
	}
	name, err := args[0].ToString(act)
	if err != nil {
		return Undefined, err
	}
	depth, err := depthArg(act, args[1])
	if err != nil {
		return Undefined, err
	}
	child := display.NewEmptyMovieClip()
	mc.AddChild(depth, child)
	child.Base().SetName(name)
	return ObjectValue(act.avm.StageObject(child)), nil
}

// mcAttachMovie places an exported library symbol. A class registered for
// the symbol with Object.registerClass becomes the instance's prototype and
// its constructor runs on the new instance.
func mcAttachMovie(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	if len(args) < 3 {
		log.Warning("attachMovie: too few arguments")
		return Undefined, nil
	}
	exportName, err := args[0].ToString(act)
	if err != nil {
		return Undefined, err
	}
	name, err := args[1].ToString(act)
	if err != nil {
		return Undefined, err
	}
	depth, err := depthArg(act, args[2])
	if err != nil {
		return Undefined, err
	}
	lib := act.Context.Library
	id, ok := lib.Exported(exportName)
	if !ok {
		log.Warningf("attachMovie: no symbol exported as %q", exportName)
		return Undefined, nil
	}
	child, err := lib.Instantiate(id)
	if err != nil {
		log.Warningf("attachMovie: %s", err)
		return Undefined, nil
	}
	mc.AddChild(depth, child)
	child.Base().SetName(name)
	obj := act.avm.StageObject(child)

	if initObj := arg(args, 3).AsObject(); initObj != nil {
		for _, k := range initObj.GetKeys(act) {
			v, err := Get(act, initObj, k)
			if err != nil {
				return Undefined, err
			}
			if err := Set(act, obj, k, v); err != nil {
				return Undefined, err
			}
		}
	}
	if ctor, ok := act.avm.registeredClasses[exportName]; ok {
		pv, err := Get(act, ctor, "prototype")
		if err != nil {
			return Undefined, err
		}
		obj.SetProto(pv)
		obj.DefineValue("__constructor__", ObjectValue(ctor), DontEnum)
		if _, err := ctor.Call(act, obj, nil, nil); err != nil {
			return Undefined, err
		}
	}
	child.RunFrame(act.Context.Display())
	return ObjectValue(obj), nil
}

func mcRemoveMovieClip(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	removeDisplayObject(mc)
	return Undefined, nil
}

func pointArg(act *Activation, v Value) (Object, float64, float64, error) {
	pt := v.AsObject()
	if pt == nil {
		return nil, 0, 0, nil
	}
	xv, err := Get(act, pt, "x")
	if err != nil {
		return nil, 0, 0, err
	}
	yv, err := Get(act, pt, "y")
	if err != nil {
		return nil, 0, 0, err
	}
	x, err := xv.ToNumber(act)
	if err != nil {
		return nil, 0, 0, err
	}
	y, err := yv.ToNumber(act)
	return pt, x, y, err
}

func setPoint(act *Activation, pt Object, x, y float64) error {
	if err := Set(act, pt, "x", Number(x)); err != nil {
		return err
	}
	return Set(act, pt, "y", Number(y))
}

func mcLocalToGlobal(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	pt, x, y, err := pointArg(act, arg(args, 0))
	if err != nil || pt == nil {
		return Undefined, err
	}
	gx, gy := display.LocalToGlobal(mc, x, y)
	return Undefined, setPoint(act, pt, gx.Pixels(), gy.Pixels())
}

func mcGlobalToLocal(act *Activation, mc *display.MovieClip, args []Value) (Value, error) {
	pt, x, y, err := pointArg(act, arg(args, 0))
	if err != nil || pt == nil {
		return Undefined, err
	}
	lx, ly := display.GlobalToLocal(mc, swf.TwipsFromPixels(x), swf.TwipsFromPixels(y))
	return Undefined, setPoint(act, pt, lx, ly)
}
