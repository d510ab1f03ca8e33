package display

import (
	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/swf"
)

// ---------------------------------------------------------------------------
// Graphic
// ---------------------------------------------------------------------------

// GraphicDef is a shape registered with the renderer.
type GraphicDef struct {
	ID    swf.CharacterID
	Shape backend.ShapeHandle
}

func (d *GraphicDef) Instantiate() DisplayObject {
	return &Graphic{base: NewBase(), def: d}
}

// Graphic is a static shape on the stage.
type Graphic struct {
	base Base
	def  *GraphicDef
}

func (g *Graphic) Base() *Base           { return &g.base }
func (g *Graphic) ID() swf.CharacterID   { return g.def.ID }
func (g *Graphic) RunFrame(ctx *Context) {}

func (g *Graphic) Render(rc *RenderContext) {
	if !g.base.Visible() {
		return
	}
	rc.Push(&g.base)
	rc.Renderer.RenderShape(g.def.Shape, rc.Transform())
	rc.Pop()
}

// ---------------------------------------------------------------------------
// Bitmap
// ---------------------------------------------------------------------------

// BitmapDef is pixel data registered with the renderer.
type BitmapDef struct {
	ID            swf.CharacterID
	Handle        backend.BitmapHandle
	Width, Height uint16
}

func (d *BitmapDef) Instantiate() DisplayObject {
	return &Bitmap{base: NewBase(), def: d}
}

// Bitmap draws raw pixels.
type Bitmap struct {
	base      Base
	def       *BitmapDef
	Smoothing bool
}

func (b *Bitmap) Base() *Base         { return &b.base }
func (b *Bitmap) ID() swf.CharacterID { return b.def.ID }
func (b *Bitmap) Width() uint16       { return b.def.Width }
func (b *Bitmap) Height() uint16      { return b.def.Height }

func (b *Bitmap) RunFrame(ctx *Context) {}

func (b *Bitmap) Render(rc *RenderContext) {
	if !b.base.Visible() {
		return
	}
	rc.Push(&b.base)
	rc.Renderer.RenderBitmap(b.def.Handle, rc.Transform(), b.Smoothing)
	rc.Pop()
}
