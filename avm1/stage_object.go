package avm1

import (
	"math"
	"strings"

	"github.com/chazu/avm/display"
)

// StageObject is the script face of a display node. Reads fall through
// from own properties to display properties and then to named children.
type StageObject struct {
	*ScriptObject
	node display.DisplayObject
}

// StageObject returns the script object bound to node, creating it on
// first use.
func (avm *Avm1) StageObject(node display.DisplayObject) *StageObject {
	if so, ok := node.Base().AVM1Object().(*StageObject); ok {
		return so
	}
	proto := avm.prototypes.Object
	if _, ok := node.(*display.MovieClip); ok {
		proto = avm.prototypes.MovieClip
	}
	so := &StageObject{ScriptObject: NewScriptObject(proto), node: node}
	if _, ok := node.(*display.MovieClip); ok {
		so.typeOf = "movieclip"
	}
	node.Base().SetAVM1Object(so)
	return so
}

// DisplayObject returns the node this object stands for.
func (so *StageObject) DisplayObject() display.DisplayObject { return so.node }

func (so *StageObject) child(act *Activation, name string) display.DisplayObject {
	c, ok := so.node.(display.Container)
	if !ok {
		return nil
	}
	return c.ChildByName(name, caseSensitive(act))
}

func (so *StageObject) GetLocal(act *Activation, name string, this Object) (ReturnValue, bool) {
	if rv, ok := so.ScriptObject.GetLocal(act, name, this); ok {
		return rv, true
	}
	if act == nil {
		return Immediate(Undefined), false
	}
	if prop, ok := act.avm.displayProperties.ByName(name); ok {
		return Immediate(prop.get(act, so.node)), true
	}
	if c := so.child(act, name); c != nil {
		return Immediate(ObjectValue(act.avm.StageObject(c))), true
	}
	return Immediate(Undefined), false
}

func (so *StageObject) SetLocal(act *Activation, name string, value Value, this Object, baseProto Object) error {
	if act != nil && !so.values.Contains(name, caseSensitive(act)) {
		if prop, ok := act.avm.displayProperties.ByName(name); ok {
			return prop.set(act, so.node, value)
		}
	}
	return so.ScriptObject.SetLocal(act, name, value, this, baseProto)
}

func (so *StageObject) HasOwnProperty(act *Activation, name string) bool {
	if so.ScriptObject.HasOwnProperty(act, name) {
		return true
	}
	if act == nil {
		return false
	}
	if _, ok := act.avm.displayProperties.ByName(name); ok {
		return true
	}
	return so.child(act, name) != nil
}

// GetKeys adds the names of children to the enumerable keys.
func (so *StageObject) GetKeys(act *Activation) []string {
	keys := so.ScriptObject.GetKeys(act)
	c, ok := so.node.(display.Container)
	if !ok {
		return keys
	}
	cs := caseSensitive(act)
	for _, child := range c.Children() {
		name := child.Base().Name()
		if name != "" && !so.values.Contains(name, cs) {
			keys = append(keys, name)
		}
	}
	return keys
}

func (so *StageObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	return NewScriptObject(this), nil
}

// ---------------------------------------------------------------------------
// Display properties
// ---------------------------------------------------------------------------

type displayProperty struct {
	name string
	get  func(act *Activation, node display.DisplayObject) Value
	set  func(act *Activation, node display.DisplayObject, v Value) error
}

// DisplayPropertyMap holds the built-in clip properties, addressable by
// the index GetProperty uses or by name.
type DisplayPropertyMap struct {
	byIndex []*displayProperty
	byName  map[string]*displayProperty
}

// ByIndex returns the property GetProperty and SetProperty address as i.
func (m *DisplayPropertyMap) ByIndex(i int) (*displayProperty, bool) {
	if i < 0 || i >= len(m.byIndex) {
		return nil, false
	}
	return m.byIndex[i], true
}

// ByName looks a property up case-insensitively.
func (m *DisplayPropertyMap) ByName(name string) (*displayProperty, bool) {
	if !strings.HasPrefix(name, "_") {
		return nil, false
	}
	p, ok := m.byName[strings.ToLower(name)]
	return p, ok
}

func newDisplayPropertyMap() *DisplayPropertyMap {
	m := &DisplayPropertyMap{byName: make(map[string]*displayProperty)}
	add := func(name string, get func(*Activation, display.DisplayObject) Value, set func(*Activation, display.DisplayObject, Value) error) {
		p := &displayProperty{name: name, get: get, set: set}
		m.byIndex = append(m.byIndex, p)
		m.byName[name] = p
	}

	add("_x", func(_ *Activation, n display.DisplayObject) Value { return Number(n.Base().X()) },
		setNumber(func(n display.DisplayObject, v float64) { n.Base().SetX(v) }))
	add("_y", func(_ *Activation, n display.DisplayObject) Value { return Number(n.Base().Y()) },
		setNumber(func(n display.DisplayObject, v float64) { n.Base().SetY(v) }))
	add("_xscale", func(_ *Activation, n display.DisplayObject) Value { return Number(n.Base().XScale()) },
		setNumber(func(n display.DisplayObject, v float64) { n.Base().SetXScale(v) }))
	add("_yscale", func(_ *Activation, n display.DisplayObject) Value { return Number(n.Base().YScale()) },
		setNumber(func(n display.DisplayObject, v float64) { n.Base().SetYScale(v) }))
	add("_currentframe", clipNumber(func(mc *display.MovieClip) uint16 { return mc.CurrentFrame() }), readOnly)
	add("_totalframes", clipNumber(func(mc *display.MovieClip) uint16 { return mc.TotalFrames() }), readOnly)
	add("_alpha", func(_ *Activation, n display.DisplayObject) Value { return Number(n.Base().Alpha()) },
		setNumber(func(n display.DisplayObject, v float64) { n.Base().SetAlpha(v) }))
	add("_visible", func(_ *Activation, n display.DisplayObject) Value { return Bool(n.Base().Visible()) },
		func(act *Activation, n display.DisplayObject, v Value) error {
			if !v.IsUndefined() {
				n.Base().SetVisible(v.ToBool(act.swfVersion))
			}
			return nil
		})
	add("_width", func(_ *Activation, n display.DisplayObject) Value { return Number(nodeWidth(n)) },
		setNumber(func(n display.DisplayObject, v float64) { setNodeSize(n, v, true) }))
	add("_height", func(_ *Activation, n display.DisplayObject) Value { return Number(nodeHeight(n)) },
		setNumber(func(n display.DisplayObject, v float64) { setNodeSize(n, v, false) }))
	add("_rotation", func(_ *Activation, n display.DisplayObject) Value { return Number(n.Base().Rotation()) },
		setNumber(func(n display.DisplayObject, v float64) {
			v = math.Mod(v, 360)
			if v > 180 {
				v -= 360
			} else if v < -180 {
				v += 360
			}
			n.Base().SetRotation(v)
		}))
	add("_target", func(_ *Activation, n display.DisplayObject) Value { return String(display.SlashPath(n)) }, readOnly)
	add("_framesloaded", clipNumber(func(mc *display.MovieClip) uint16 { return mc.FramesLoaded() }), readOnly)
	add("_name", func(_ *Activation, n display.DisplayObject) Value { return String(n.Base().Name()) },
		func(act *Activation, n display.DisplayObject, v Value) error {
			s, err := v.ToString(act)
			if err == nil {
				n.Base().SetName(s)
			}
			return err
		})
	add("_droptarget", func(*Activation, display.DisplayObject) Value { return String("") }, readOnly)
	add("_url", func(act *Activation, _ display.DisplayObject) Value { return String(act.Context.MovieURL) }, readOnly)
	add("_highquality", func(*Activation, display.DisplayObject) Value { return Number(1) }, ignored("_highquality"))
	add("_focusrect", func(*Activation, display.DisplayObject) Value { return Bool(true) }, ignored("_focusrect"))
	add("_soundbuftime", func(*Activation, display.DisplayObject) Value { return Number(5) }, ignored("_soundbuftime"))
	add("_quality", func(*Activation, display.DisplayObject) Value { return String("HIGH") }, ignored("_quality"))
	add("_xmouse", func(act *Activation, n display.DisplayObject) Value {
		x, _ := display.GlobalToLocal(n, act.Context.MousePosition[0], act.Context.MousePosition[1])
		return Number(x)
	}, readOnly)
	add("_ymouse", func(act *Activation, n display.DisplayObject) Value {
		_, y := display.GlobalToLocal(n, act.Context.MousePosition[0], act.Context.MousePosition[1])
		return Number(y)
	}, readOnly)

	// Not addressable by index.
	m.byName["_parent"] = &displayProperty{
		name: "_parent",
		get: func(act *Activation, n display.DisplayObject) Value {
			return act.stageValue(n.Base().Parent())
		},
		set: readOnly,
	}
	m.byName["_root"] = &displayProperty{
		name: "_root",
		get: func(act *Activation, n display.DisplayObject) Value {
			return act.stageValue(display.Root(n))
		},
		set: readOnly,
	}
	return m
}

// setNumber ignores assignments that do not convert to a finite number.
func setNumber(fn func(n display.DisplayObject, v float64)) func(*Activation, display.DisplayObject, Value) error {
	return func(act *Activation, n display.DisplayObject, v Value) error {
		if v.IsNullOrUndefined() {
			return nil
		}
		f, err := v.ToNumber(act)
		if err != nil {
			return err
		}
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			fn(n, f)
		}
		return nil
	}
}

func clipNumber(fn func(mc *display.MovieClip) uint16) func(*Activation, display.DisplayObject) Value {
	return func(_ *Activation, n display.DisplayObject) Value {
		if mc, ok := n.(*display.MovieClip); ok {
			return Number(float64(fn(mc)))
		}
		return Number(1)
	}
}

func readOnly(*Activation, display.DisplayObject, Value) error { return nil }

func ignored(name string) func(*Activation, display.DisplayObject, Value) error {
	return func(*Activation, display.DisplayObject, Value) error {
		log.Debugf("setting %s has no effect", name)
		return nil
	}
}

// nodeWidth is the rendered width in pixels. Only bitmaps have intrinsic
// bounds; a clip spans its children's origins and widths.
func nodeWidth(n display.DisplayObject) float64 {
	w, _ := nodeSize(n)
	return w
}

func nodeHeight(n display.DisplayObject) float64 {
	_, h := nodeSize(n)
	return h
}

func nodeSize(n display.DisplayObject) (float64, float64) {
	b := n.Base()
	switch n := n.(type) {
	case *display.Bitmap:
		return float64(n.Width()) * b.XScale() / 100, float64(n.Height()) * b.YScale() / 100
	case *display.MovieClip:
		var maxX, maxY float64
		for _, c := range n.Children() {
			w, h := nodeSize(c)
			maxX = math.Max(maxX, c.Base().X()+w)
			maxY = math.Max(maxY, c.Base().Y()+h)
		}
		return maxX * b.XScale() / 100, maxY * b.YScale() / 100
	}
	return 0, 0
}

func setNodeSize(n display.DisplayObject, v float64, horizontal bool) {
	w, h := nodeSize(n)
	b := n.Base()
	if horizontal && w != 0 {
		b.SetXScale(b.XScale() * v / w)
	} else if !horizontal && h != 0 {
		b.SetYScale(b.YScale() * v / h)
	}
}
