package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Backend{
		"memory": NewMemory(),
		"disk":   NewDisk(afero.NewMemMapFs(), "/store"),
		"sqlite": db,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	t.Parallel()
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			_, ok := b.Get("localhost/game/save")
			assert.False(t, ok)

			require.True(t, b.Put("localhost/game/save", []byte{1, 2, 3}))
			data, ok := b.Get("localhost/game/save")
			require.True(t, ok)
			assert.Equal(t, []byte{1, 2, 3}, data)

			require.True(t, b.Put("localhost/game/save", []byte{4}))
			data, _ = b.Get("localhost/game/save")
			assert.Equal(t, []byte{4}, data)

			b.Remove("localhost/game/save")
			_, ok = b.Get("localhost/game/save")
			assert.False(t, ok)

			b.Remove("localhost/never/written")
		})
	}
}

func TestBackendRejectsDotSegments(t *testing.T) {
	t.Parallel()
	for name, b := range backends(t) {
		b := b
		t.Run(name, func(t *testing.T) {
			assert.False(t, b.Put("localhost/../etc/passwd", []byte("x")))
			assert.False(t, b.Put("", []byte("x")))
		})
	}
}

func TestDiskLayout(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	d := NewDisk(fs, "/store")
	require.True(t, d.Put("example.com/a/b", []byte("data")))

	ok, err := afero.Exists(fs, "/store/example.com/a/b.sol")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidKey(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidKey("localhost/x"))
	assert.False(t, ValidKey("localhost/.hidden/x"))
	assert.False(t, ValidKey(".x"))
}
