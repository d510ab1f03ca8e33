// Package player wires both VMs, the host context and the root clip
// together and drives them frame by frame.
package player

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/avm/avm1"
	"github.com/chazu/avm/avm2"
	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/config"
	"github.com/chazu/avm/display"
	"github.com/chazu/avm/host"
	"github.com/chazu/avm/storage"
	"github.com/chazu/avm/swf"
)

var log = commonlog.GetLogger("avm.player")

// Frame broadcast events, in the order RunFrame sends them.
const (
	EventEnterFrame       = "enterFrame"
	EventFrameConstructed = "frameConstructed"
	EventExitFrame        = "exitFrame"
)

// Player is one running movie. It is not safe for concurrent use; wrap it
// in a Worker to drive it from several goroutines.
type Player struct {
	id     uuid.UUID
	cfg    *config.Config
	ctx    *host.UpdateContext
	avm1   *avm1.Avm1
	avm2   *avm2.Avm2
	closer io.Closer
	frames uint64
}

// Option configures a Player.
type Option func(*options)

type options struct {
	storage  storage.Backend
	external backend.ExternalInterfaceProvider
	root     *display.MovieClipDef
	trace    func(string)
}

// WithStorage replaces the backend chosen by the configuration.
func WithStorage(b storage.Backend) Option {
	return func(o *options) { o.storage = b }
}

// WithExternal connects the movie to an embedding container.
func WithExternal(p backend.ExternalInterfaceProvider) Option {
	return func(o *options) { o.external = p }
}

// WithRoot plays def as the root timeline instead of an empty clip.
func WithRoot(def *display.MovieClipDef) Option {
	return func(o *options) { o.root = def }
}

// WithTraceOutput receives every trace() line from both VMs.
func WithTraceOutput(fn func(string)) Option {
	return func(o *options) { o.trace = fn }
}

// New creates a player for cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) (*Player, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	p := &Player{id: uuid.New(), cfg: cfg}
	if o.storage == nil {
		b, closer, err := OpenStorage(cfg)
		if err != nil {
			return nil, err
		}
		o.storage, p.closer = b, closer
	}

	p.ctx = host.New(cfg.Player.SwfVersion)
	p.ctx.PlayerVersion = cfg.Player.Version
	p.ctx.MovieURL = cfg.Player.MovieURL
	if p.ctx.MovieURL == "" {
		p.ctx.MovieURL = "http://" + cfg.Storage.Origin + "/movie.swf"
	}
	p.ctx.Storage = o.storage
	if o.external != nil {
		p.ctx.External = o.external
	}
	if o.root != nil {
		p.ctx.Stage = display.NewMovieClip(o.root)
	}
	p.ctx.Stage.Play()

	p.avm1 = avm1.New(cfg.Player.Version, avm1.Limits{
		MaxRecursionDepth: cfg.Limits.MaxRecursionDepth,
		MaxActions:        cfg.Limits.MaxActions(),
	})
	p.avm1.SetObjectID(p.id.String())
	p.avm2 = avm2.New(cfg.Limits.Avm2MaxCallDepth)
	if o.trace != nil {
		p.avm1.SetTraceOutput(o.trace)
		p.avm2.SetTraceOutput(o.trace)
	}

	log.Infof("player %s: swf %d, player %d, storage %s", p.id, cfg.Player.SwfVersion, cfg.Player.Version, cfg.Storage.Backend)
	return p, nil
}

// OpenStorage builds the SharedObject backend named by cfg. The returned
// closer is nil for backends that hold no resources.
func OpenStorage(cfg *config.Config) (storage.Backend, io.Closer, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		return storage.NewMemory(), nil, nil
	case config.BackendDisk:
		return storage.NewOSDisk(cfg.StoragePath()), nil, nil
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.StoragePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open shared object store: %w", err)
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (p *Player) ID() uuid.UUID                { return p.id }
func (p *Player) Config() *config.Config       { return p.cfg }
func (p *Player) Context() *host.UpdateContext { return p.ctx }
func (p *Player) Avm1() *avm1.Avm1             { return p.avm1 }
func (p *Player) Avm2() *avm2.Avm2             { return p.avm2 }
func (p *Player) Root() *display.MovieClip     { return p.ctx.Stage }
func (p *Player) Frames() uint64               { return p.frames }

// ---------------------------------------------------------------------------
// Frame loop
// ---------------------------------------------------------------------------

// RunFrame advances the movie by one frame: enterFrame goes out to VM2
// listeners and the root's onEnterFrame, the root timeline runs its tags,
// frameConstructed follows, queued VM1 actions drain, then exitFrame.
func (p *Player) RunFrame() error {
	if err := p.broadcast(EventEnterFrame); err != nil {
		return err
	}
	if so, ok := p.ctx.Stage.Base().AVM1Object().(*avm1.StageObject); ok {
		p.avm1.RunStackFrameForMethod(p.ctx, p.ctx.Stage, so, p.cfg.Player.SwfVersion, "onEnterFrame", nil)
	}
	p.ctx.Stage.RunFrame(p.ctx.Display())
	if err := p.broadcast(EventFrameConstructed); err != nil {
		return err
	}
	p.avm1.RunFrameActions(p.ctx)
	if err := p.broadcast(EventExitFrame); err != nil {
		return err
	}
	p.frames++
	return nil
}

func (p *Player) broadcast(typ string) error {
	return p.avm2.BroadcastEvent(p.ctx, p.avm2.NewEventObject(typ, false, false), p.avm2.Classes().DisplayObject)
}

// RunActions runs a raw VM1 action blob on the root clip and then drains
// whatever it queued.
func (p *Player) RunActions(code []byte) {
	version := p.cfg.Player.SwfVersion
	p.avm1.RunStackFrameForAction(p.ctx, p.ctx.Stage, version, swf.SliceOf(version, code))
	p.avm1.RunFrameActions(p.ctx)
}

// LoadAbc installs a VM2 code block and runs its script initializers.
func (p *Player) LoadAbc(abc *avm2.AbcFile) error {
	if _, err := p.avm2.LoadAbc(p.ctx, abc, false); err != nil {
		return fmt.Errorf("load abc: %w", err)
	}
	return nil
}

// CallExternal invokes a callback the movie registered through
// ExternalInterface.addCallback.
func (p *Player) CallExternal(name string, args ...backend.ExternalValue) backend.ExternalValue {
	return p.avm1.CallExternalCallback(p.ctx, name, args)
}

// Halted reports whether either VM has stopped for good.
func (p *Player) Halted() bool {
	return p.avm1.Halted() || p.avm2.Halted()
}

// Close flushes shared objects and releases the storage backend.
func (p *Player) Close() error {
	p.avm1.FlushSharedObjects(p.ctx)
	var err error
	if p.closer != nil {
		err = p.closer.Close()
		p.closer = nil
	}
	if err != nil {
		return errors.Join(ErrStorageClose, err)
	}
	log.Infof("player %s: closed after %d frames", p.id, p.frames)
	return nil
}

// ErrStorageClose wraps a failure to release the storage backend.
var ErrStorageClose = errors.New("closing storage")
