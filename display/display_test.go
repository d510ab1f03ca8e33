package display

import (
	"testing"

	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/swf"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func place(depth swf.Depth, id swf.CharacterID) *swf.PlaceObject {
	return &swf.PlaceObject{Action: swf.PlaceNew, Depth: depth, CharacterID: id}
}

func modify(depth swf.Depth, x float64) *swf.PlaceObject {
	m := swf.IdentityMatrix()
	m.TX = swf.TwipsFromPixels(x)
	return &swf.PlaceObject{Action: swf.PlaceModify, Depth: depth, Matrix: &m}
}

func doAction(b byte) *swf.DoAction {
	return &swf.DoAction{Code: swf.SliceOf(6, []byte{b})}
}

func newContext() *Context {
	lib := NewLibrary()
	lib.Register(1, &GraphicDef{ID: 1})
	lib.Register(2, &GraphicDef{ID: 2})
	return &Context{Library: lib, Queue: NewActionQueue(), Audio: backend.NewNullAudio()}
}

// threeFrames places char 1 at depth 1 on frame 1, char 2 at depth 2 on
// frame 2 (with an action) and moves depth 1 on frame 3.
func threeFrames() *MovieClipDef {
	return NewMovieClipDef(10, []swf.Tag{
		place(1, 1), &swf.FrameLabel{Label: "start"}, &swf.ShowFrame{},
		place(2, 2), doAction(0x07), &swf.ShowFrame{},
		modify(1, 50), &swf.ShowFrame{},
	})
}

func advance(t *testing.T, ctx *Context, mc *MovieClip, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		mc.RunFrame(ctx)
	}
}

// ---------------------------------------------------------------------------
// Timeline
// ---------------------------------------------------------------------------

func TestMovieClipDefFrames(t *testing.T) {
	def := threeFrames()
	if def.TotalFrames != 3 {
		t.Errorf("TotalFrames = %d, want 3", def.TotalFrames)
	}
	mc := NewMovieClip(def)
	if f, ok := mc.FrameLabel("start"); !ok || f != 1 {
		t.Errorf("FrameLabel(start) = %d, %v; want 1", f, ok)
	}
}

func TestRunFramePlacesChildrenAndQueuesActions(t *testing.T) {
	ctx := newContext()
	mc := NewMovieClip(threeFrames())
	advance(t, ctx, mc, 2)

	if mc.CurrentFrame() != 2 {
		t.Fatalf("CurrentFrame = %d, want 2", mc.CurrentFrame())
	}
	if len(mc.Children()) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(mc.Children()))
	}
	if got := mc.ChildAtDepth(2).Base().PlaceFrame(); got != 2 {
		t.Errorf("PlaceFrame = %d, want 2", got)
	}
	if ctx.Queue.Len() != 1 {
		t.Errorf("Queue.Len = %d, want 1", ctx.Queue.Len())
	}
	a, _ := ctx.Queue.Pop()
	if a.Clip != mc || a.Code.Data()[0] != 0x07 {
		t.Errorf("queued %+v, want frame 2 action on the clip", a)
	}
}

func TestRewindPreservesEarlierChildren(t *testing.T) {
	ctx := newContext()
	mc := NewMovieClip(threeFrames())
	advance(t, ctx, mc, 3)

	early := mc.ChildAtDepth(1)
	late := mc.ChildAtDepth(2)
	if early.Base().X() != 50 {
		t.Fatalf("X = %v, want 50 after frame 3", early.Base().X())
	}

	mc.GotoFrame(ctx, 1, true)

	if mc.CurrentFrame() != 1 || mc.Playing() {
		t.Errorf("after goto: frame %d playing %v", mc.CurrentFrame(), mc.Playing())
	}
	if mc.ChildAtDepth(1) != early {
		t.Errorf("child placed on frame 1 was recreated")
	}
	if early.Base().Removed() {
		t.Errorf("child placed on frame 1 was flagged removed")
	}
	if mc.ChildAtDepth(2) != nil || !late.Base().Removed() {
		t.Errorf("child placed on frame 2 survived a rewind to frame 1")
	}
}

func TestRewindToPlacementFrameKeepsChild(t *testing.T) {
	ctx := newContext()
	mc := NewMovieClip(threeFrames())
	advance(t, ctx, mc, 3)
	placed := mc.ChildAtDepth(2)

	mc.GotoFrame(ctx, 2, true)
	if mc.ChildAtDepth(2) != placed {
		t.Errorf("child placed on the target frame was recreated")
	}
}

func TestForwardGotoAggregatesAndRunsTargetActionsOnly(t *testing.T) {
	ctx := newContext()
	mc := NewMovieClip(threeFrames())
	advance(t, ctx, mc, 1)
	early := mc.ChildAtDepth(1)

	mc.GotoFrame(ctx, 3, true)

	if mc.ChildAtDepth(1) != early {
		t.Errorf("modified child was recreated")
	}
	if early.Base().X() != 50 {
		t.Errorf("X = %v, want 50 from the aggregated modify", early.Base().X())
	}
	late := mc.ChildAtDepth(2)
	if late == nil || late.Base().PlaceFrame() != 2 {
		t.Fatalf("depth 2 = %v, want a child placed on frame 2", late)
	}
	if ctx.Queue.Len() != 0 {
		t.Errorf("skipped frame queued %d action blocks", ctx.Queue.Len())
	}

	mc.GotoFrame(ctx, 2, true)
	if ctx.Queue.Len() != 1 {
		t.Errorf("goto frame 2 queued %d blocks, want 1", ctx.Queue.Len())
	}
}

func TestForwardGotoRemovesLiveChild(t *testing.T) {
	ctx := newContext()
	def := NewMovieClipDef(11, []swf.Tag{
		place(1, 1), &swf.ShowFrame{},
		&swf.RemoveObject{Depth: 1}, &swf.ShowFrame{},
		&swf.ShowFrame{},
	})
	mc := NewMovieClip(def)
	advance(t, ctx, mc, 1)
	child := mc.ChildAtDepth(1)

	mc.GotoFrame(ctx, 3, true)
	if mc.ChildAtDepth(1) != nil || !child.Base().Removed() {
		t.Errorf("removed child still present after forward goto")
	}
}

func TestLoopingKeepsFrameOneChildren(t *testing.T) {
	ctx := newContext()
	mc := NewMovieClip(threeFrames())
	advance(t, ctx, mc, 3)
	early := mc.ChildAtDepth(1)

	mc.RunFrame(ctx)
	if mc.CurrentFrame() != 1 {
		t.Errorf("CurrentFrame = %d after loop, want 1", mc.CurrentFrame())
	}
	if mc.ChildAtDepth(1) != early {
		t.Errorf("loop recreated the frame 1 child")
	}
	if !mc.Playing() {
		t.Errorf("clip stopped after looping")
	}
}

func TestSingleFrameClipDoesNotPlay(t *testing.T) {
	mc := NewEmptyMovieClip()
	mc.Play()
	if mc.Playing() {
		t.Errorf("single-frame clip is playing")
	}
}

// ---------------------------------------------------------------------------
// Tree and properties
// ---------------------------------------------------------------------------

func TestPathsAndLookup(t *testing.T) {
	root := NewEmptyMovieClip()
	a := NewEmptyMovieClip()
	b := NewEmptyMovieClip()
	root.AddChild(1, a)
	a.Base().SetName("Menu")
	a.AddChild(3, b)
	b.Base().SetName("button")

	if got := Path(b); got != "_level0.Menu.button" {
		t.Errorf("Path = %q", got)
	}
	if got := SlashPath(b); got != "/Menu/button" {
		t.Errorf("SlashPath = %q", got)
	}
	if got := SlashPath(root); got != "/" {
		t.Errorf("SlashPath(root) = %q", got)
	}
	if Root(b) != root {
		t.Errorf("Root(b) is not the root clip")
	}
	if root.ChildByName("menu", true) != nil {
		t.Errorf("case-sensitive lookup matched menu")
	}
	if root.ChildByName("menu", false) != a {
		t.Errorf("case-insensitive lookup missed Menu")
	}
	if a.HighestDepth() != 3 || root.HighestDepth() != 1 {
		t.Errorf("HighestDepth = %d, %d", a.HighestDepth(), root.HighestDepth())
	}
}

func TestScaleAndRotation(t *testing.T) {
	b := NewBase()
	b.SetXScale(200)
	b.SetRotation(90)
	if got := b.XScale(); got < 199.999 || got > 200.001 {
		t.Errorf("XScale = %v, want 200", got)
	}
	if got := b.Rotation(); got < 89.999 || got > 90.001 {
		t.Errorf("Rotation = %v, want 90", got)
	}
	b.SetAlpha(50)
	if b.Alpha() != 50 {
		t.Errorf("Alpha = %v, want 50", b.Alpha())
	}
}

func TestRenderVisitsVisibleNodes(t *testing.T) {
	ctx := newContext()
	mc := NewMovieClip(threeFrames())
	advance(t, ctx, mc, 2)
	mc.ChildAtDepth(2).Base().SetVisible(false)

	r := backend.NewNullRenderer(backend.ViewportDimensions{Width: 550, Height: 400})
	r.BeginFrame(ctx.Background)
	mc.Render(NewRenderContext(r))
	r.EndFrame()
	if r.Draws != 1 {
		t.Errorf("Draws = %d, want 1", r.Draws)
	}
}

func TestInitActionsRunOncePerCharacter(t *testing.T) {
	ctx := newContext()
	initTag := &swf.DoInitAction{ID: 1, Code: swf.SliceOf(6, []byte{0x06})}
	def := NewMovieClipDef(12, []swf.Tag{initTag, doAction(0x07), &swf.ShowFrame{}, initTag, &swf.ShowFrame{}})
	mc := NewMovieClip(def)
	advance(t, ctx, mc, 2)

	first, _ := ctx.Queue.Pop()
	if !first.Init {
		t.Errorf("first queued block is not the init action")
	}
	if ctx.Queue.Len() != 1 {
		t.Errorf("Queue.Len = %d, want 1 frame action left", ctx.Queue.Len())
	}
}
