package swf

// CharacterID identifies a character in a movie's dictionary.
type CharacterID uint16

// Depth is a display list layer; higher depths draw on top.
type Depth int16

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

// TwipsPerPixel is the number of twips in one pixel.
const TwipsPerPixel = 20

// Twips is a fixed-point coordinate of 1/20 pixel.
type Twips int32

// TwipsFromPixels converts a pixel coordinate, rounding to the nearest twip.
func TwipsFromPixels(px float64) Twips {
	if px < 0 {
		return Twips(px*TwipsPerPixel - 0.5)
	}
	return Twips(px*TwipsPerPixel + 0.5)
}

// Pixels converts t to pixels.
func (t Twips) Pixels() float64 {
	return float64(t) / TwipsPerPixel
}

// Matrix is a 2D affine transform with a translation in twips.
type Matrix struct {
	A, B, C, D float64
	TX, TY     Twips
}

// IdentityMatrix returns the identity transform.
func IdentityMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// ColorTransform multiplies and offsets each channel.
type ColorTransform struct {
	RMult, GMult, BMult, AMult float64
	RAdd, GAdd, BAdd, AAdd     int16
}

// IdentityColorTransform returns a transform that leaves colors unchanged.
func IdentityColorTransform() ColorTransform {
	return ColorTransform{RMult: 1, GMult: 1, BMult: 1, AMult: 1}
}

// ---------------------------------------------------------------------------
// Timeline tags
// ---------------------------------------------------------------------------

// Tag is one decoded timeline tag.
type Tag interface {
	tag()
}

// PlaceAction selects how a PlaceObject tag affects its depth.
type PlaceAction uint8

const (
	// PlaceNew instantiates a character at an empty depth.
	PlaceNew PlaceAction = iota
	// PlaceModify updates the character already at the depth.
	PlaceModify
	// PlaceReplace swaps the character at the depth, keeping its transform.
	PlaceReplace
)

// PlaceObject places or modifies a character on the display list. Nil
// optional fields leave the corresponding property untouched.
type PlaceObject struct {
	Action         PlaceAction
	Depth          Depth
	CharacterID    CharacterID
	Matrix         *Matrix
	ColorTransform *ColorTransform
	Ratio          *uint16
	Name           *string
	ClipDepth      *Depth
	ClassName      *string
	Visible        *bool
}

// Clone returns a copy whose optional fields may be replaced independently.
func (p *PlaceObject) Clone() *PlaceObject {
	c := *p
	return &c
}

// RemoveObject removes whatever is at Depth.
type RemoveObject struct {
	Depth Depth
}

// DoAction carries AVM1 code run when the frame is entered.
type DoAction struct {
	Code Slice
}

// DoInitAction carries AVM1 code run once before a sprite's first frame.
type DoInitAction struct {
	ID   CharacterID
	Code Slice
}

// FrameLabel names the frame it appears in.
type FrameLabel struct {
	Label string
}

// SoundEvent selects the sync mode of a StartSound tag.
type SoundEvent uint8

const (
	SoundEventEvent SoundEvent = iota
	SoundEventStart
	SoundEventStop
)

// StartSound starts or stops an event sound.
type StartSound struct {
	ID    CharacterID
	Event SoundEvent
	Loops uint16
}

// SetBackgroundColor sets the stage color.
type SetBackgroundColor struct {
	R, G, B uint8
}

// ShowFrame ends the current frame.
type ShowFrame struct{}

func (*PlaceObject) tag()        {}
func (*RemoveObject) tag()       {}
func (*DoAction) tag()           {}
func (*DoInitAction) tag()       {}
func (*FrameLabel) tag()         {}
func (*StartSound) tag()         {}
func (*SetBackgroundColor) tag() {}
func (*ShowFrame) tag()          {}
