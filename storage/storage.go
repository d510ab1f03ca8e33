// Package storage holds the named-blob stores behind SharedObject
// persistence. Keys are slash-separated paths built by the caller from the
// origin host, the local path and the object name.
package storage

import (
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("avm.storage")

// Backend is a key/value store of serialized objects.
type Backend interface {
	// Get returns the blob stored under name.
	Get(name string) ([]byte, bool)
	// Put stores data under name and reports whether it was written.
	Put(name string, data []byte) bool
	// Remove deletes name. Missing keys are ignored.
	Remove(name string)
}

// ValidKey reports whether name can be used as a storage key: it must be
// non-empty and no segment may start with a dot.
func ValidKey(name string) bool {
	if name == "" {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Memory keeps blobs in a map. It is the default backend and the one tests use.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

func (m *Memory) Put(name string, data []byte) bool {
	if !ValidKey(name) {
		log.Warningf("refusing to store invalid key %q", name)
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = append([]byte(nil), data...)
	return true
}

func (m *Memory) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, name)
}

// Keys returns the stored keys in no particular order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys
}
