// Package display is the host scene graph the virtual machines bind to:
// movie clips with their timelines, static graphics and bitmaps, the
// character library that instantiates them and the queue of frame actions
// they produce.
package display

import (
	"math"
	"strings"

	"github.com/chazu/avm/swf"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("avm.display")

// Scripted is the face a VM object shows the scene graph. Both VMs' stage
// objects implement it so a node can point back at its script objects
// without depending on either VM.
type Scripted interface {
	DisplayObject() DisplayObject
}

// DisplayObject is a node of the scene graph.
type DisplayObject interface {
	Base() *Base
	ID() swf.CharacterID
	// RunFrame advances the node by one frame.
	RunFrame(ctx *Context)
	// Render draws the node and its children.
	Render(rc *RenderContext)
}

// Container is a node with children keyed by depth.
type Container interface {
	DisplayObject
	Children() []DisplayObject
	ChildAtDepth(depth swf.Depth) DisplayObject
	ChildByName(name string, caseSensitive bool) DisplayObject
}

// ---------------------------------------------------------------------------
// Base: state shared by every node
// ---------------------------------------------------------------------------

// Base holds the placement state every display object carries.
type Base struct {
	depth          swf.Depth
	name           string
	parent         DisplayObject
	placeFrame     uint16
	matrix         swf.Matrix
	colorTransform swf.ColorTransform
	clipDepth      swf.Depth
	ratio          uint16
	visible        bool
	removed        bool

	avm1 Scripted
	avm2 Scripted
}

// NewBase returns a visible base with identity transforms.
func NewBase() Base {
	return Base{
		matrix:         swf.IdentityMatrix(),
		colorTransform: swf.IdentityColorTransform(),
		visible:        true,
	}
}

func (b *Base) Depth() swf.Depth                       { return b.depth }
func (b *Base) SetDepth(d swf.Depth)                   { b.depth = d }
func (b *Base) Name() string                           { return b.name }
func (b *Base) SetName(name string)                    { b.name = name }
func (b *Base) Parent() DisplayObject                  { return b.parent }
func (b *Base) SetParent(p DisplayObject)              { b.parent = p }
func (b *Base) PlaceFrame() uint16                     { return b.placeFrame }
func (b *Base) SetPlaceFrame(f uint16)                 { b.placeFrame = f }
func (b *Base) Matrix() swf.Matrix                     { return b.matrix }
func (b *Base) SetMatrix(m swf.Matrix)                 { b.matrix = m }
func (b *Base) ColorTransform() swf.ColorTransform     { return b.colorTransform }
func (b *Base) SetColorTransform(c swf.ColorTransform) { b.colorTransform = c }
func (b *Base) ClipDepth() swf.Depth                   { return b.clipDepth }
func (b *Base) Ratio() uint16                          { return b.ratio }
func (b *Base) Visible() bool                          { return b.visible }
func (b *Base) SetVisible(v bool)                      { b.visible = v }
func (b *Base) Removed() bool                          { return b.removed }
func (b *Base) SetRemoved(r bool)                      { b.removed = r }
func (b *Base) AVM1Object() Scripted                   { return b.avm1 }
func (b *Base) SetAVM1Object(o Scripted)               { b.avm1 = o }
func (b *Base) AVM2Object() Scripted                   { return b.avm2 }
func (b *Base) SetAVM2Object(o Scripted)               { b.avm2 = o }

// X returns the horizontal position in pixels.
func (b *Base) X() float64 { return b.matrix.TX.Pixels() }

// Y returns the vertical position in pixels.
func (b *Base) Y() float64 { return b.matrix.TY.Pixels() }

func (b *Base) SetX(px float64) { b.matrix.TX = swf.TwipsFromPixels(px) }
func (b *Base) SetY(px float64) { b.matrix.TY = swf.TwipsFromPixels(px) }

// XScale returns the horizontal scale as a percentage.
func (b *Base) XScale() float64 {
	return math.Hypot(b.matrix.A, b.matrix.B) * 100
}

// YScale returns the vertical scale as a percentage.
func (b *Base) YScale() float64 {
	return math.Hypot(b.matrix.C, b.matrix.D) * 100
}

// Rotation returns the rotation in degrees.
func (b *Base) Rotation() float64 {
	return math.Atan2(b.matrix.B, b.matrix.A) * 180 / math.Pi
}

func (b *Base) SetXScale(percent float64) {
	b.setTransform(percent/100, b.YScale()/100, b.Rotation())
}

func (b *Base) SetYScale(percent float64) {
	b.setTransform(b.XScale()/100, percent/100, b.Rotation())
}

func (b *Base) SetRotation(degrees float64) {
	b.setTransform(b.XScale()/100, b.YScale()/100, degrees)
}

func (b *Base) setTransform(sx, sy, degrees float64) {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	b.matrix.A = sx * cos
	b.matrix.B = sx * sin
	b.matrix.C = -sy * sin
	b.matrix.D = sy * cos
}

// Alpha returns the alpha multiplier as a percentage.
func (b *Base) Alpha() float64 { return b.colorTransform.AMult * 100 }

func (b *Base) SetAlpha(percent float64) { b.colorTransform.AMult = percent / 100 }

// ApplyPlaceObject copies every field the tag carries.
func (b *Base) ApplyPlaceObject(p *swf.PlaceObject) {
	if p.Matrix != nil {
		b.matrix = *p.Matrix
	}
	if p.ColorTransform != nil {
		b.colorTransform = *p.ColorTransform
	}
	if p.Name != nil {
		b.name = *p.Name
	}
	if p.ClipDepth != nil {
		b.clipDepth = *p.ClipDepth
	}
	if p.Ratio != nil {
		b.ratio = *p.Ratio
	}
	if p.Visible != nil {
		b.visible = *p.Visible
	}
}

// CopyDisplayPropertiesFrom takes over the transform of a replaced node.
func (b *Base) CopyDisplayPropertiesFrom(other *Base) {
	b.matrix = other.matrix
	b.colorTransform = other.colorTransform
	b.clipDepth = other.clipDepth
	b.ratio = other.ratio
	b.visible = other.visible
	b.name = other.name
}

// ---------------------------------------------------------------------------
// Tree helpers
// ---------------------------------------------------------------------------

// Root returns the topmost ancestor of obj.
func Root(obj DisplayObject) DisplayObject {
	for obj.Base().Parent() != nil {
		obj = obj.Base().Parent()
	}
	return obj
}

// Ancestors returns the parents of obj, nearest first.
func Ancestors(obj DisplayObject) []DisplayObject {
	var out []DisplayObject
	for p := obj.Base().Parent(); p != nil; p = p.Base().Parent() {
		out = append(out, p)
	}
	return out
}

// Path returns the dotted target path of obj, rooted at _level0.
func Path(obj DisplayObject) string {
	var names []string
	for o := obj; o.Base().Parent() != nil; o = o.Base().Parent() {
		names = append(names, o.Base().Name())
	}
	var sb strings.Builder
	sb.WriteString("_level0")
	for i := len(names) - 1; i >= 0; i-- {
		sb.WriteByte('.')
		sb.WriteString(names[i])
	}
	return sb.String()
}

// SlashPath returns the slash-separated target path of obj.
func SlashPath(obj DisplayObject) string {
	var names []string
	for o := obj; o.Base().Parent() != nil; o = o.Base().Parent() {
		names = append(names, o.Base().Name())
	}
	if len(names) == 0 {
		return "/"
	}
	var sb strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(names[i])
	}
	return sb.String()
}

// GlobalMatrix returns the transform from obj's space to the stage.
func GlobalMatrix(obj DisplayObject) swf.Matrix {
	m := obj.Base().Matrix()
	for p := obj.Base().Parent(); p != nil; p = p.Base().Parent() {
		m = Concat(p.Base().Matrix(), m)
	}
	return m
}

// GlobalToLocal maps a stage point in twips into obj's space, in pixels.
// A degenerate transform maps everything to the origin.
func GlobalToLocal(obj DisplayObject, x, y swf.Twips) (float64, float64) {
	m := GlobalMatrix(obj)
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return 0, 0
	}
	dx := float64(x - m.TX)
	dy := float64(y - m.TY)
	lx := (m.D*dx - m.C*dy) / det
	ly := (m.A*dy - m.B*dx) / det
	return lx / swf.TwipsPerPixel, ly / swf.TwipsPerPixel
}

// LocalToGlobal maps a point in obj's space, in pixels, onto the stage.
func LocalToGlobal(obj DisplayObject, px, py float64) (swf.Twips, swf.Twips) {
	m := GlobalMatrix(obj)
	x := px * swf.TwipsPerPixel
	y := py * swf.TwipsPerPixel
	return swf.Twips(m.A*x+m.C*y) + m.TX, swf.Twips(m.B*x+m.D*y) + m.TY
}
