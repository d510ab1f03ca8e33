package player

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/avm/avm2"
	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/config"
	"github.com/chazu/avm/storage"
	"github.com/chazu/avm/swf"
)

func newPlayer(t *testing.T, opts ...Option) (*Player, *[]string) {
	t.Helper()
	var traces []string
	opts = append(opts, WithTraceOutput(func(msg string) { traces = append(traces, msg) }))
	p, err := New(nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, &traces
}

func TestNewDefaults(t *testing.T) {
	p, _ := newPlayer(t)

	assert.NotEqual(t, uuid.Nil, p.ID())
	assert.Equal(t, "http://localhost/movie.swf", p.Context().MovieURL)
	assert.Equal(t, uint8(10), p.Context().SwfVersion)
	assert.Equal(t, 256, p.Avm2().MaxCallDepth())
	assert.True(t, p.Root().Playing())
	assert.False(t, p.Halted())
}

func TestRunActionsTraces(t *testing.T) {
	p, traces := newPlayer(t)

	w := swf.NewActionWriter()
	w.Push(swf.Str("hello")).Emit(swf.ActionTrace)
	p.RunActions(w.Bytes())

	assert.Equal(t, []string{"hello"}, *traces)
}

func TestRunFrameBroadcastOrder(t *testing.T) {
	p, _ := newPlayer(t)
	vm := p.Avm2()

	var seen []string
	err := vm.RunWithActivation(p.Context(), func(act *avm2.Activation) error {
		stage := vm.StageObject(p.Root())
		for _, typ := range []string{EventExitFrame, EventEnterFrame, EventFrameConstructed} {
			handler := vm.NewNativeFunction(typ, func(act *avm2.Activation, this avm2.Object, args []avm2.Value) (avm2.Value, error) {
				seen = append(seen, typ)
				return avm2.Undefined, nil
			})
			args := []avm2.Value{avm2.String(typ), avm2.ObjectValue(handler)}
			if _, err := avm2.CallProperty(act, stage, "addEventListener", args); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.RunFrame())
	assert.Equal(t, []string{EventEnterFrame, EventFrameConstructed, EventExitFrame}, seen)
	assert.Equal(t, uint64(1), p.Frames())
}

func TestRunFrameCallsOnEnterFrame(t *testing.T) {
	p, traces := newPlayer(t)

	w := swf.NewActionWriter()
	w.DefineFunction("onEnterFrame", nil, func(b *swf.ActionWriter) {
		b.Push(swf.Str("tick")).Emit(swf.ActionTrace)
	})
	p.RunActions(w.Bytes())

	require.NoError(t, p.RunFrame())
	require.NoError(t, p.RunFrame())
	assert.Equal(t, []string{"tick", "tick"}, *traces)
}

// saveScore stores so.data.score = 5 in the shared object "game".
func saveScore() []byte {
	w := swf.NewActionWriter()
	w.Push(swf.Str("so"), swf.Str("/"), swf.Str("game"), swf.Int(2), swf.Str("SharedObject")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("getLocal")).Emit(swf.ActionCallMethod)
	w.Emit(swf.ActionSetVariable)
	w.Push(swf.Str("so")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("data")).Emit(swf.ActionGetMember)
	w.Push(swf.Str("score"), swf.Int(5)).Emit(swf.ActionSetMember)
	return w.Bytes()
}

// traceScore traces SharedObject.getLocal("game", "/").data.score.
func traceScore() []byte {
	w := swf.NewActionWriter()
	w.Push(swf.Str("/"), swf.Str("game"), swf.Int(2), swf.Str("SharedObject")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("getLocal")).Emit(swf.ActionCallMethod)
	w.Push(swf.Str("data")).Emit(swf.ActionGetMember)
	w.Push(swf.Str("score")).Emit(swf.ActionGetMember)
	w.Emit(swf.ActionTrace)
	return w.Bytes()
}

func TestSharedObjectsFlushOnClose(t *testing.T) {
	store := storage.NewMemory()

	first, err := New(nil, WithStorage(store))
	require.NoError(t, err)
	first.RunActions(saveScore())
	require.NoError(t, first.Close())

	_, ok := store.Get("localhost/game")
	require.True(t, ok, "keys = %v", store.Keys())

	second, traces := newPlayer(t, WithStorage(store))
	second.RunActions(traceScore())
	assert.Equal(t, []string{"5"}, *traces)
}

func TestSQLiteStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "so.db")

	p, err := New(cfg)
	require.NoError(t, err)
	p.RunActions(saveScore())
	require.NoError(t, p.Close())

	db, err := storage.OpenSQLite(cfg.Storage.Path)
	require.NoError(t, err)
	defer db.Close()
	_, ok := db.Get("localhost/game")
	assert.True(t, ok)
}

func TestOpenStorageUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "tape"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCallExternal(t *testing.T) {
	ext := &backend.FuncExternal{}
	p, _ := newPlayer(t, WithExternal(ext))

	w := swf.NewActionWriter()
	w.DefineFunction("ping", []string{"x"}, func(b *swf.ActionWriter) {
		b.Push(swf.Str("x")).Emit(swf.ActionGetVariable)
		b.Push(swf.Int(1)).Emit(swf.ActionAdd2)
		b.Emit(swf.ActionReturn)
	})
	w.Push(swf.Str("ping")).Emit(swf.ActionGetVariable)
	w.Push(swf.Null(), swf.Str("ping"), swf.Int(3), swf.Str("ExternalInterface")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("addCallback")).Emit(swf.ActionCallMethod)
	w.Emit(swf.ActionPop)
	p.RunActions(w.Bytes())

	assert.Equal(t, []string{"ping"}, ext.Callbacks)
	assert.Equal(t, 42.0, p.CallExternal("ping", 41.0))
	assert.Nil(t, p.CallExternal("missing"))
}

// ---------------------------------------------------------------------------
// Worker
// ---------------------------------------------------------------------------

func TestWorkerPlay(t *testing.T) {
	cfg := config.Default()
	cfg.Player.FrameRate = 1000
	p, err := New(cfg)
	require.NoError(t, err)

	w := NewWorker(p)
	defer w.Stop()

	require.NoError(t, w.Play(context.Background(), 3))
	var frames uint64
	require.NoError(t, w.Do(func(p *Player) error {
		frames = p.Frames()
		return nil
	}))
	assert.Equal(t, uint64(3), frames)
}

func TestWorkerRecoversPanics(t *testing.T) {
	p, _ := newPlayer(t)
	w := NewWorker(p)
	defer w.Stop()

	err := w.Do(func(*Player) error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.NoError(t, w.Do(func(p *Player) error { return p.RunFrame() }))
}

func TestWorkerStopped(t *testing.T) {
	p, _ := newPlayer(t)
	w := NewWorker(p)
	w.Stop()
	w.Stop()

	err := w.Do(func(*Player) error { return nil })
	assert.True(t, errors.Is(err, ErrWorkerStopped))
}

func TestWorkerPlayCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Player.FrameRate = 1
	p, err := New(cfg)
	require.NoError(t, err)
	w := NewWorker(p)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Play(ctx, 0), context.Canceled)
}
