package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[player]
version = 11
swf_version = 8
frame_rate = 30
movie_url = "http://example.com/game.swf"

[limits]
max_recursion_depth = 64
max_actions_per_run = 0

[storage]
backend = "sqlite"
path = "so.db"
origin = "example.com"

[log]
verbosity = 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, uint8(11), c.Player.Version)
	assert.Equal(t, uint8(8), c.Player.SwfVersion)
	assert.Equal(t, 30.0, c.Player.FrameRate)
	assert.Equal(t, "http://example.com/game.swf", c.Player.MovieURL)
	assert.Equal(t, 64, c.Limits.MaxRecursionDepth)
	assert.Equal(t, 0, c.Limits.MaxActions(), "explicit 0 means unlimited")
	assert.Equal(t, 256, c.Limits.Avm2MaxCallDepth)
	assert.Equal(t, BackendSQLite, c.Storage.Backend)
	assert.Equal(t, "example.com", c.Storage.Origin)
	assert.Equal(t, 2, c.Log.Verbosity)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, c.Dir)
	assert.Equal(t, filepath.Join(abs, "so.db"), c.StoragePath())
}

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, uint8(32), c.Player.Version)
	assert.Equal(t, uint8(10), c.Player.SwfVersion)
	assert.Equal(t, 24.0, c.Player.FrameRate)
	assert.Equal(t, 256, c.Limits.MaxRecursionDepth)
	assert.Equal(t, 1_000_000, c.Limits.MaxActions())
	assert.Equal(t, BackendMemory, c.Storage.Backend)
	assert.Equal(t, "localhost", c.Storage.Origin)
	assert.Equal(t, Default(), c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		ok   bool
	}{
		{"memory", `[storage]` + "\n" + `backend = "memory"`, true},
		{"disk without path", `[storage]` + "\n" + `backend = "disk"`, false},
		{"disk", `[storage]` + "\n" + `backend = "disk"` + "\n" + `path = "so"`, true},
		{"unknown backend", `[storage]` + "\n" + `backend = "redis"`, false},
		{"negative budget", `[limits]` + "\n" + `max_actions_per_run = -1`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("[player\nversion = 1"))
	assert.Error(t, err)
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("[player]\nswf_version = 6\n"), 0o644))

	c, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint8(6), c.Player.SwfVersion)
}

func TestFindAndLoadMissing(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	require.NoError(t, err)
	if c != nil {
		t.Skip("found an avm.toml above the temp dir")
	}
}
