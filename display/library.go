package display

import (
	"fmt"

	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/swf"
)

// Character is a library definition that can be placed on the stage.
type Character interface {
	Instantiate() DisplayObject
}

// Library maps character ids to their definitions for one movie.
type Library struct {
	characters  map[swf.CharacterID]Character
	sounds      map[swf.CharacterID]backend.SoundHandle
	exports     map[string]swf.CharacterID
	initialized map[swf.CharacterID]bool
	instances   int
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		characters:  make(map[swf.CharacterID]Character),
		sounds:      make(map[swf.CharacterID]backend.SoundHandle),
		exports:     make(map[string]swf.CharacterID),
		initialized: make(map[swf.CharacterID]bool),
	}
}

// Register adds a character definition.
func (l *Library) Register(id swf.CharacterID, c Character) {
	if _, ok := l.characters[id]; ok {
		log.Warningf("character %d registered twice", id)
	}
	l.characters[id] = c
}

// RegisterSound associates an audio handle with a sound character.
func (l *Library) RegisterSound(id swf.CharacterID, h backend.SoundHandle) {
	l.sounds[id] = h
}

// Sound returns the audio handle of a sound character.
func (l *Library) Sound(id swf.CharacterID) (backend.SoundHandle, bool) {
	h, ok := l.sounds[id]
	return h, ok
}

// Export names a character for attachMovie-style lookups.
func (l *Library) Export(name string, id swf.CharacterID) {
	l.exports[name] = id
}

// Exported returns the character id exported under name.
func (l *Library) Exported(name string) (swf.CharacterID, bool) {
	id, ok := l.exports[name]
	return id, ok
}

// Character returns the definition registered under id.
func (l *Library) Character(id swf.CharacterID) (Character, bool) {
	c, ok := l.characters[id]
	return c, ok
}

// Instantiate creates a new node for the character id.
func (l *Library) Instantiate(id swf.CharacterID) (DisplayObject, error) {
	c, ok := l.characters[id]
	if !ok {
		return nil, fmt.Errorf("display: character %d not in library", id)
	}
	return c.Instantiate(), nil
}

// nextInstanceName returns a fresh default name for an unnamed placement.
func (l *Library) nextInstanceName() string {
	l.instances++
	return fmt.Sprintf("instance%d", l.instances)
}

// markInitialized reports whether id's init actions still need to run and
// records that they have.
func (l *Library) markInitialized(id swf.CharacterID) bool {
	if l.initialized[id] {
		return false
	}
	l.initialized[id] = true
	return true
}
