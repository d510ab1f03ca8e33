// Package swf holds the in-memory movie model handed to the virtual machines
// by the external decoder: the shared movie buffer, code slices over it, the
// AVM1 action reader and the decoded timeline tags.
package swf

// Movie is an immutable decoded movie. Every Slice handed to the VMs points
// into Data, so code for many clips and functions shares one buffer.
type Movie struct {
	Version uint8
	URL     string
	Data    []byte
}

// NewMovie wraps raw movie data.
func NewMovie(version uint8, url string, data []byte) *Movie {
	return &Movie{Version: version, URL: url, Data: data}
}

// EmptyMovie returns a movie with no data, used for synthetic activations.
func EmptyMovie(version uint8) *Movie {
	return &Movie{Version: version}
}

// Slice addresses the byte range [Start, End) of a movie without copying.
type Slice struct {
	Movie *Movie
	Start int
	End   int
}

// WholeMovie returns a slice covering all of m.
func WholeMovie(m *Movie) Slice {
	return Slice{Movie: m, Start: 0, End: len(m.Data)}
}

// SliceOf wraps a standalone code buffer in its own movie.
func SliceOf(version uint8, code []byte) Slice {
	return WholeMovie(NewMovie(version, "", code))
}

// Data returns the bytes addressed by the slice.
func (s Slice) Data() []byte {
	if s.Movie == nil {
		return nil
	}
	return s.Movie.Data[s.Start:s.End]
}

// Len returns the number of bytes in the slice.
func (s Slice) Len() int {
	return s.End - s.Start
}

// Version returns the file format version of the owning movie.
func (s Slice) Version() uint8 {
	if s.Movie == nil {
		return 0
	}
	return s.Movie.Version
}

// Sub returns the sub-range [start, start+length) relative to this slice.
// It reports false when the range does not fit.
func (s Slice) Sub(start, length int) (Slice, bool) {
	if start < 0 || length < 0 || s.Start+start+length > s.End {
		return Slice{}, false
	}
	return Slice{Movie: s.Movie, Start: s.Start + start, End: s.Start + start + length}, true
}
