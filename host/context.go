// Package host defines the bundle of host services handed to every VM entry
// point.
package host

import (
	"math/rand/v2"
	"time"

	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/display"
	"github.com/chazu/avm/storage"
	"github.com/chazu/avm/swf"
)

// DragObject is the clip following the mouse after startDrag.
type DragObject struct {
	Object display.DisplayObject
	// Offset is the distance from the mouse to the clip's origin.
	Offset [2]swf.Twips
	// Constraint limits the clip's position when set.
	Constraint *Rect
}

// Rect is an axis-aligned rectangle in twips.
type Rect struct {
	XMin, YMin, XMax, YMax swf.Twips
}

// UpdateContext carries host state into the VMs. It is passed by pointer
// for the duration of one call and must not be retained.
type UpdateContext struct {
	display.Context

	PlayerVersion uint8
	SwfVersion    uint8
	MovieURL      string

	Input     backend.InputBackend
	Renderer  backend.RenderBackend
	Navigator backend.NavigatorBackend
	External  backend.ExternalInterfaceProvider
	Storage   storage.Backend

	Rand *rand.Rand
	// Now returns the wall clock. Tests replace it.
	Now func() time.Time
	// Start is when playback began; getTimer counts from it.
	Start time.Time

	Stage         *display.MovieClip
	MousePosition [2]swf.Twips
	Drag          *DragObject
}

// New returns a context with null backends, memory storage and an empty
// stage, suitable for tests and headless runs.
func New(swfVersion uint8) *UpdateContext {
	now := time.Now()
	return &UpdateContext{
		Context: display.Context{
			Library: display.NewLibrary(),
			Queue:   display.NewActionQueue(),
			Audio:   backend.NewNullAudio(),
		},
		PlayerVersion: 32,
		SwfVersion:    swfVersion,
		Input:         backend.NewNullInput(),
		Renderer:      backend.NewNullRenderer(backend.ViewportDimensions{Width: 550, Height: 400}),
		Navigator:     &backend.NullNavigator{},
		External:      backend.NullExternal{},
		Storage:       storage.NewMemory(),
		Rand:          rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x5eed)),
		Now:           time.Now,
		Start:         now,
		Stage:         display.NewEmptyMovieClip(),
	}
}

// Display returns the scene-graph part of the context.
func (c *UpdateContext) Display() *display.Context {
	return &c.Context
}

// Timer returns the milliseconds since playback began.
func (c *UpdateContext) Timer() float64 {
	return float64(c.Now().Sub(c.Start).Milliseconds())
}
