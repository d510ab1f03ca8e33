// Package backend declares the host capabilities the virtual machines call
// into: audio, input, rendering, navigation and the external interface.
// Every capability has a Null implementation that satisfies it without
// touching the outside world.
package backend

import (
	"sync/atomic"

	"github.com/chazu/avm/swf"
)

// SoundHandle identifies a registered sound.
type SoundHandle uint32

// SoundInstance identifies one playing instance of a sound.
type SoundInstance uint32

// Sound is a sound definition registered from the library.
type Sound struct {
	Format     uint8
	SampleRate uint32
	Stereo     bool
	Samples    uint32
	Data       []byte
}

// SoundInfo carries the start parameters of an event sound.
type SoundInfo struct {
	Event swf.SoundEvent
	Loops uint16
}

// AudioBackend plays sounds on behalf of the movie.
type AudioBackend interface {
	Play()
	Pause()
	RegisterSound(sound Sound) (SoundHandle, error)
	StartSound(sound SoundHandle, info SoundInfo) SoundInstance
	StopSound(instance SoundInstance)
	StopAllSounds()
	StopSoundsWithHandle(sound SoundHandle)
	IsSoundPlayingWithHandle(sound SoundHandle) bool
	GetSoundDuration(sound SoundHandle) (float64, bool)
}

// NullAudio registers sounds and reports nothing as playing.
type NullAudio struct {
	next   atomic.Uint32
	sounds map[SoundHandle]Sound
}

// NewNullAudio creates a silent audio backend.
func NewNullAudio() *NullAudio {
	return &NullAudio{sounds: make(map[SoundHandle]Sound)}
}

func (a *NullAudio) Play()  {}
func (a *NullAudio) Pause() {}

func (a *NullAudio) RegisterSound(sound Sound) (SoundHandle, error) {
	h := SoundHandle(a.next.Add(1))
	a.sounds[h] = sound
	return h, nil
}

func (a *NullAudio) StartSound(SoundHandle, SoundInfo) SoundInstance { return 0 }
func (a *NullAudio) StopSound(SoundInstance)                         {}
func (a *NullAudio) StopAllSounds()                                  {}
func (a *NullAudio) StopSoundsWithHandle(SoundHandle)                {}
func (a *NullAudio) IsSoundPlayingWithHandle(SoundHandle) bool       { return false }

// GetSoundDuration computes the duration in milliseconds from the sample count.
func (a *NullAudio) GetSoundDuration(sound SoundHandle) (float64, bool) {
	s, ok := a.sounds[sound]
	if !ok || s.SampleRate == 0 {
		return 0, false
	}
	return float64(s.Samples) * 1000 / float64(s.SampleRate), true
}
