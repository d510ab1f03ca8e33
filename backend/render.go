package backend

import (
	"errors"

	"github.com/chazu/avm/swf"
)

// ErrUnimplemented is returned by backends for operations they do not support.
var ErrUnimplemented = errors.New("backend: unimplemented")

// ShapeHandle identifies a registered shape.
type ShapeHandle uint32

// BitmapHandle identifies a registered bitmap.
type BitmapHandle uint32

// ViewportDimensions is the size of the drawing surface in pixels.
type ViewportDimensions struct {
	Width, Height uint32
}

// Transform is the concatenated matrix and color transform of a draw call.
type Transform struct {
	Matrix         swf.Matrix
	ColorTransform swf.ColorTransform
}

// Bitmap is an RGBA pixel buffer.
type Bitmap struct {
	Width, Height uint32
	RGBA          []byte
}

// RenderBackend consumes draw commands produced by the display list.
type RenderBackend interface {
	ViewportDimensions() ViewportDimensions
	SetViewportDimensions(d ViewportDimensions)
	RegisterBitmap(bitmap Bitmap) (BitmapHandle, error)
	UpdateTexture(handle BitmapHandle, width, height uint32, rgba []byte) error
	BeginFrame(clear [3]uint8)
	RenderBitmap(handle BitmapHandle, t Transform, smoothing bool)
	RenderShape(handle ShapeHandle, t Transform)
	EndFrame()
}

// NullRenderer accepts every command and draws nothing.
type NullRenderer struct {
	dimensions ViewportDimensions
	// Frames counts completed BeginFrame/EndFrame pairs.
	Frames int
	// Draws counts render calls in the current frame.
	Draws int
}

// NewNullRenderer creates a renderer with the given viewport.
func NewNullRenderer(d ViewportDimensions) *NullRenderer {
	return &NullRenderer{dimensions: d}
}

func (r *NullRenderer) ViewportDimensions() ViewportDimensions     { return r.dimensions }
func (r *NullRenderer) SetViewportDimensions(d ViewportDimensions) { r.dimensions = d }

func (r *NullRenderer) RegisterBitmap(Bitmap) (BitmapHandle, error) { return 0, nil }

func (r *NullRenderer) UpdateTexture(BitmapHandle, uint32, uint32, []byte) error { return nil }

func (r *NullRenderer) BeginFrame([3]uint8) { r.Draws = 0 }

func (r *NullRenderer) RenderBitmap(BitmapHandle, Transform, bool) { r.Draws++ }
func (r *NullRenderer) RenderShape(ShapeHandle, Transform)         { r.Draws++ }
func (r *NullRenderer) EndFrame()                                  { r.Frames++ }
