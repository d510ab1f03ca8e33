package display

import (
	"maps"
	"slices"
	"strings"

	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/swf"
)

// ---------------------------------------------------------------------------
// MovieClipDef: static timeline data
// ---------------------------------------------------------------------------

// MovieClipDef is the timeline shared by every instance of a sprite.
type MovieClipDef struct {
	ID          swf.CharacterID
	Tags        []swf.Tag
	TotalFrames uint16
	labels      map[string]uint16
}

// NewMovieClipDef scans tags for frame boundaries and labels. Each frame
// ends with a ShowFrame tag.
func NewMovieClipDef(id swf.CharacterID, tags []swf.Tag) *MovieClipDef {
	d := &MovieClipDef{ID: id, Tags: tags, labels: make(map[string]uint16)}
	frame := uint16(1)
	for _, t := range tags {
		switch t := t.(type) {
		case *swf.ShowFrame:
			d.TotalFrames++
			frame++
		case *swf.FrameLabel:
			d.labels[t.Label] = frame
		}
	}
	if d.TotalFrames == 0 {
		d.TotalFrames = 1
	}
	return d
}

func (d *MovieClipDef) Instantiate() DisplayObject {
	return NewMovieClip(d)
}

// ---------------------------------------------------------------------------
// MovieClip
// ---------------------------------------------------------------------------

// MovieClip is a node with its own timeline and children.
type MovieClip struct {
	base         Base
	def          *MovieClipDef
	tagPos       int
	playing      bool
	currentFrame uint16
	children     map[swf.Depth]DisplayObject
}

// NewMovieClip creates a playing instance positioned before frame 1.
func NewMovieClip(def *MovieClipDef) *MovieClip {
	return &MovieClip{
		base:     NewBase(),
		def:      def,
		playing:  true,
		children: make(map[swf.Depth]DisplayObject),
	}
}

// NewEmptyMovieClip creates a stopped single-frame clip, as created by
// createEmptyMovieClip or used for the root of an empty movie.
func NewEmptyMovieClip() *MovieClip {
	mc := NewMovieClip(NewMovieClipDef(0, nil))
	mc.playing = false
	return mc
}

func (mc *MovieClip) Base() *Base         { return &mc.base }
func (mc *MovieClip) ID() swf.CharacterID { return mc.def.ID }

func (mc *MovieClip) Playing() bool        { return mc.playing }
func (mc *MovieClip) CurrentFrame() uint16 { return mc.currentFrame }
func (mc *MovieClip) TotalFrames() uint16  { return mc.def.TotalFrames }

// FramesLoaded returns the number of frames available. Timelines are fully
// decoded before they are placed, so this is the total.
func (mc *MovieClip) FramesLoaded() uint16 { return mc.def.TotalFrames }

// FrameLabel returns the frame number of label.
func (mc *MovieClip) FrameLabel(label string) (uint16, bool) {
	f, ok := mc.def.labels[label]
	return f, ok
}

// FrameActions returns the DoAction code of the 1-based frame without
// running it.
func (mc *MovieClip) FrameActions(frame uint16) []swf.Slice {
	var out []swf.Slice
	current := uint16(1)
	for _, tag := range mc.def.Tags {
		if current > frame {
			break
		}
		switch t := tag.(type) {
		case *swf.ShowFrame:
			current++
		case *swf.DoAction:
			if current == frame {
				out = append(out, t.Code)
			}
		}
	}
	return out
}

// Play resumes the timeline. Single-frame clips cannot play.
func (mc *MovieClip) Play() {
	if mc.TotalFrames() > 1 {
		mc.playing = true
	}
}

func (mc *MovieClip) Stop() {
	mc.playing = false
}

func (mc *MovieClip) NextFrame(ctx *Context) {
	if mc.currentFrame < mc.TotalFrames() {
		mc.GotoFrame(ctx, mc.currentFrame+1, true)
	}
}

func (mc *MovieClip) PrevFrame(ctx *Context) {
	if mc.currentFrame > 1 {
		mc.GotoFrame(ctx, mc.currentFrame-1, true)
	}
}

// GotoFrame moves the playhead to the 1-based frame, clamped to the
// timeline, then stops or plays.
func (mc *MovieClip) GotoFrame(ctx *Context, frame uint16, stop bool) {
	if frame < 1 {
		frame = 1
	}
	if frame > mc.TotalFrames() {
		frame = mc.TotalFrames()
	}
	if frame != mc.currentFrame {
		mc.runGoto(ctx, frame)
	}
	if stop {
		mc.Stop()
	} else {
		mc.Play()
	}
}

// GotoLabel is GotoFrame addressed by frame label.
func (mc *MovieClip) GotoLabel(ctx *Context, label string, stop bool) bool {
	frame, ok := mc.FrameLabel(label)
	if !ok {
		log.Warningf("goto: unknown frame label %q", label)
		return false
	}
	mc.GotoFrame(ctx, frame, stop)
	return true
}

// ---------------------------------------------------------------------------
// Children
// ---------------------------------------------------------------------------

// Children returns the children in ascending depth order.
func (mc *MovieClip) Children() []DisplayObject {
	out := make([]DisplayObject, 0, len(mc.children))
	for _, d := range slices.Sorted(maps.Keys(mc.children)) {
		out = append(out, mc.children[d])
	}
	return out
}

func (mc *MovieClip) ChildAtDepth(depth swf.Depth) DisplayObject {
	return mc.children[depth]
}

// ChildByName returns the lowest-depth child called name.
func (mc *MovieClip) ChildByName(name string, caseSensitive bool) DisplayObject {
	for _, c := range mc.Children() {
		n := c.Base().Name()
		if n == name || (!caseSensitive && strings.EqualFold(n, name)) {
			return c
		}
	}
	return nil
}

// HighestDepth returns the highest occupied depth, or -1 when empty.
func (mc *MovieClip) HighestDepth() swf.Depth {
	highest := swf.Depth(-1)
	for d := range mc.children {
		if d > highest {
			highest = d
		}
	}
	return highest
}

// AddChild places child at depth, replacing whatever was there.
func (mc *MovieClip) AddChild(depth swf.Depth, child DisplayObject) {
	if prev, ok := mc.children[depth]; ok {
		prev.Base().SetRemoved(true)
	}
	b := child.Base()
	b.SetParent(mc)
	b.SetDepth(depth)
	b.SetPlaceFrame(mc.currentFrame)
	b.SetRemoved(false)
	mc.children[depth] = child
}

// RemoveChild removes the child at depth.
func (mc *MovieClip) RemoveChild(depth swf.Depth) {
	if child, ok := mc.children[depth]; ok {
		delete(mc.children, depth)
		child.Base().SetRemoved(true)
	}
}

func (mc *MovieClip) instantiateChild(ctx *Context, id swf.CharacterID, depth swf.Depth, copyPrevious bool) DisplayObject {
	child, err := ctx.Library.Instantiate(id)
	if err != nil {
		log.Errorf("unable to instantiate display node: %s", err)
		return nil
	}
	prev := mc.children[depth]
	mc.AddChild(depth, child)
	b := child.Base()
	b.SetName(ctx.Library.nextInstanceName())
	if copyPrevious && prev != nil {
		b.CopyDisplayPropertiesFrom(prev.Base())
	}
	// Run the first frame.
	child.RunFrame(ctx)
	return child
}

// ---------------------------------------------------------------------------
// Frame execution
// ---------------------------------------------------------------------------

// RunFrame runs the children's frames and then this clip's own, if playing.
func (mc *MovieClip) RunFrame(ctx *Context) {
	for _, child := range mc.Children() {
		child.RunFrame(ctx)
	}
	if mc.playing {
		mc.runFrameInternal(ctx, true)
	}
}

func (mc *MovieClip) runFrameInternal(ctx *Context, displayTags bool) {
	switch {
	case mc.currentFrame < mc.TotalFrames():
		mc.currentFrame++
	case mc.TotalFrames() > 1:
		// Looping acts like gotoAndPlay(1): objects present on frame 1 survive.
		mc.runGoto(ctx, 1)
		return
	default:
		mc.Stop()
	}

	for mc.tagPos < len(mc.def.Tags) {
		tag := mc.def.Tags[mc.tagPos]
		mc.tagPos++
		switch t := tag.(type) {
		case *swf.ShowFrame:
			return
		case *swf.DoAction:
			ctx.Queue.QueueActions(mc, t.Code)
		case *swf.DoInitAction:
			if ctx.Library.markInitialized(t.ID) {
				ctx.Queue.QueueInitActions(mc, t.Code)
			}
		case *swf.PlaceObject:
			if displayTags {
				mc.placeObject(ctx, t)
			}
		case *swf.RemoveObject:
			if displayTags {
				mc.RemoveChild(t.Depth)
			}
		case *swf.SetBackgroundColor:
			ctx.Background = [3]uint8{t.R, t.G, t.B}
		case *swf.StartSound:
			mc.startSound(ctx, t)
		}
	}
}

func (mc *MovieClip) placeObject(ctx *Context, p *swf.PlaceObject) {
	var child DisplayObject
	switch p.Action {
	case swf.PlaceNew, swf.PlaceReplace:
		child = mc.instantiateChild(ctx, p.CharacterID, p.Depth, p.Action == swf.PlaceReplace)
	case swf.PlaceModify:
		child = mc.children[p.Depth]
	}
	if child != nil {
		child.Base().ApplyPlaceObject(p)
	}
}

func (mc *MovieClip) startSound(ctx *Context, s *swf.StartSound) {
	if ctx.Audio == nil {
		return
	}
	handle, ok := ctx.Library.Sound(s.ID)
	if !ok {
		return
	}
	info := backend.SoundInfo{Event: s.Event, Loops: s.Loops}
	switch s.Event {
	case swf.SoundEventEvent:
		ctx.Audio.StartSound(handle, info)
	case swf.SoundEventStart:
		if !ctx.Audio.IsSoundPlayingWithHandle(handle) {
			ctx.Audio.StartSound(handle, info)
		}
	case swf.SoundEventStop:
		ctx.Audio.StopSoundsWithHandle(handle)
	}
}

// ---------------------------------------------------------------------------
// Goto
// ---------------------------------------------------------------------------

// gotoPlace is the aggregated placement for one depth during a goto.
type gotoPlace struct {
	// frame is the frame the character was first placed on.
	frame uint16
	place *swf.PlaceObject
}

func (g *gotoPlace) characterID() swf.CharacterID {
	if g.place.Action == swf.PlaceModify {
		return 0
	}
	return g.place.CharacterID
}

// merge folds a later placement at the same depth into g.
func (g *gotoPlace) merge(next *gotoPlace) {
	cur, np := g.place, next.place
	if np.Action != swf.PlaceModify {
		cur.Action = np.Action
		cur.CharacterID = np.CharacterID
		g.frame = next.frame
	}
	if np.Matrix != nil {
		cur.Matrix = np.Matrix
	}
	if np.ColorTransform != nil {
		cur.ColorTransform = np.ColorTransform
	}
	if np.Ratio != nil {
		cur.Ratio = np.Ratio
	}
	if np.Name != nil {
		cur.Name = np.Name
	}
	if np.ClipDepth != nil {
		cur.ClipDepth = np.ClipDepth
	}
	if np.ClassName != nil {
		cur.ClassName = np.ClassName
	}
	if np.Visible != nil {
		cur.Visible = np.Visible
	}
}

// runGoto moves the playhead to frame. Timelines are stored as per-frame
// deltas, so a rewind replays from frame 1. Children that exist on the
// target frame keep their identity: on a rewind, those placed on or before
// the target survive and those placed after it are removed. Placements of
// the skipped frames are aggregated per depth and applied once at the end.
func (mc *MovieClip) runGoto(ctx *Context, frame uint16) {
	commands := make(map[swf.Depth]*gotoPlace)

	rewind := frame < mc.currentFrame
	if rewind {
		mc.tagPos = 0
		mc.currentFrame = 0
		for depth, child := range mc.children {
			if child.Base().PlaceFrame() > frame {
				mc.RemoveChild(depth)
			}
		}
	}

	framePos := mc.tagPos
	for mc.currentFrame < frame {
		mc.currentFrame++
		framePos = mc.tagPos
	frameTags:
		for mc.tagPos < len(mc.def.Tags) {
			tag := mc.def.Tags[mc.tagPos]
			mc.tagPos++
			switch t := tag.(type) {
			case *swf.ShowFrame:
				break frameTags
			case *swf.PlaceObject:
				g := &gotoPlace{frame: mc.currentFrame, place: t.Clone()}
				if prev, ok := commands[t.Depth]; ok {
					prev.merge(g)
				} else {
					commands[t.Depth] = g
				}
			case *swf.RemoveObject:
				delete(commands, t.Depth)
				if !rewind {
					// A forward goto can drop children that existed before it
					// right away. A rewind still needs them to decide what
					// persists.
					mc.RemoveChild(t.Depth)
				}
			}
		}
	}

	depths := slices.Sorted(maps.Keys(commands))
	apply := func(depth swf.Depth) {
		g := commands[depth]
		child, ok := mc.children[depth]
		instantiated := false
		if !ok || (g.characterID() != 0 && g.characterID() != child.ID()) {
			child = mc.instantiateChild(ctx, g.characterID(), depth, g.place.Action == swf.PlaceReplace)
			if child == nil {
				return
			}
			instantiated = true
		}
		child.Base().ApplyPlaceObject(g.place)
		if instantiated {
			child.Base().SetPlaceFrame(g.frame)
		}
	}

	// Queued actions must come out in the order normal playback would
	// produce them: children placed before the target frame first, then the
	// target frame's own actions, then children placed on the target frame.
	for _, d := range depths {
		if commands[d].frame < frame {
			apply(d)
		}
	}
	mc.currentFrame = frame - 1
	mc.tagPos = framePos
	mc.runFrameInternal(ctx, false)
	for _, d := range depths {
		if commands[d].frame >= frame {
			apply(d)
		}
	}
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func (mc *MovieClip) Render(rc *RenderContext) {
	if !mc.base.Visible() {
		return
	}
	rc.Push(&mc.base)
	for _, child := range mc.Children() {
		child.Render(rc)
	}
	rc.Pop()
}
