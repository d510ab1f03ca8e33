package avm1

import (
	"github.com/chazu/avm/backend"
)

// ---------------------------------------------------------------------------
// Key
// ---------------------------------------------------------------------------

var keyConstants = map[string]backend.KeyCode{
	"BACKSPACE": backend.KeyBackspace,
	"CAPSLOCK":  backend.KeyCapsLock,
	"CONTROL":   backend.KeyControl,
	"DELETEKEY": backend.KeyDelete,
	"DOWN":      backend.KeyDown,
	"END":       backend.KeyEnd,
	"ENTER":     backend.KeyEnter,
	"ESCAPE":    backend.KeyEscape,
	"HOME":      backend.KeyHome,
	"INSERT":    backend.KeyInsert,
	"LEFT":      backend.KeyLeft,
	"PGDN":      backend.KeyPageDown,
	"PGUP":      backend.KeyPageUp,
	"RIGHT":     backend.KeyRight,
	"SHIFT":     backend.KeyShift,
	"SPACE":     backend.KeySpace,
	"TAB":       backend.KeyTab,
	"UP":        backend.KeyUp,
}

func defineKey(obj *ScriptObject, fnProto Object) {
	for name, code := range keyConstants {
		obj.DefineValue(name, Number(float64(code)), DontEnum|DontDelete|ReadOnly)
	}
	defineMethods(obj, fnProto, DontEnum|DontDelete|ReadOnly, map[string]NativeFunction{
		"isDown":   keyIsDown,
		"getCode":  keyGetCode,
		"getAscii": keyGetAscii,
	})
}

func keyIsDown(act *Activation, this Object, args []Value) (Value, error) {
	if len(args) == 0 {
		return Undefined, nil
	}
	code, err := args[0].ToInt32(act)
	if err != nil {
		return Undefined, err
	}
	if code < 0 || code > 255 {
		return Bool(false), nil
	}
	return Bool(act.Context.Input.IsKeyDown(backend.KeyCode(code))), nil
}

func keyGetCode(act *Activation, this Object, args []Value) (Value, error) {
	return Number(float64(act.Context.Input.LastKeyCode())), nil
}

func keyGetAscii(act *Activation, this Object, args []Value) (Value, error) {
	if c, ok := act.Context.Input.LastKeyChar(); ok {
		return Number(float64(c)), nil
	}
	return Number(0), nil
}

// ---------------------------------------------------------------------------
// Mouse
// ---------------------------------------------------------------------------

func defineMouse(obj *ScriptObject, fnProto Object) {
	defineMethods(obj, fnProto, DontEnum|DontDelete|ReadOnly, map[string]NativeFunction{
		"show": mouseShow,
		"hide": mouseHide,
	})
}

// mouseShow returns 1 when the pointer was already visible, else 0.
func mouseShow(act *Activation, this Object, args []Value) (Value, error) {
	in := act.Context.Input
	was := in.MouseVisible()
	in.ShowMouse()
	return boolNumber(was), nil
}

func mouseHide(act *Activation, this Object, args []Value) (Value, error) {
	in := act.Context.Input
	was := in.MouseVisible()
	in.HideMouse()
	return boolNumber(was), nil
}

func boolNumber(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

// ---------------------------------------------------------------------------
// Stage
// ---------------------------------------------------------------------------

func defineStage(obj *ScriptObject, fnProto Object) {
	defineGetter(obj, fnProto, "width", func(act *Activation, this Object, args []Value) (Value, error) {
		return Number(float64(act.Context.Renderer.ViewportDimensions().Width)), nil
	})
	defineGetter(obj, fnProto, "height", func(act *Activation, this Object, args []Value) (Value, error) {
		return Number(float64(act.Context.Renderer.ViewportDimensions().Height)), nil
	})
	obj.DefineValue("scaleMode", String("showAll"), DontEnum|DontDelete)
	obj.DefineValue("align", String(""), DontEnum|DontDelete)
}
