package player

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrWorkerStopped is returned by Do after Stop.
var ErrWorkerStopped = errors.New("player worker stopped")

// request is a unit of work executed on the player goroutine.
type request struct {
	fn   func(*Player) error
	done chan error
}

// Worker serializes all player access through a single goroutine. The VMs
// are single-threaded, so callers on other goroutines must go through the
// worker.
type Worker struct {
	player   *Player
	requests chan request
	quit     chan struct{}
	stopped  chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(p *Player) *Worker {
	w := &Worker{
		player:   p,
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.stopped)
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn on the player, recovering from panics.
func (w *Worker) execute(fn func(*Player) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("player %s: panic: %v", w.player.id, r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(w.player)
}

// Do submits fn for execution on the player goroutine and blocks until it
// completes.
func (w *Worker) Do(fn func(*Player) error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case w.requests <- req:
	case <-w.quit:
		return ErrWorkerStopped
	}
	select {
	case err := <-req.done:
		return err
	case <-w.stopped:
		return ErrWorkerStopped
	}
}

// Play runs frames at the configured frame rate until ctx is done, the
// player halts, or limit frames have run. A zero limit plays forever.
func (w *Worker) Play(ctx context.Context, limit uint64) error {
	interval := time.Duration(float64(time.Second) / w.player.cfg.Player.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := uint64(0); limit == 0 || n < limit; n++ {
		halted := false
		err := w.Do(func(p *Player) error {
			if err := p.RunFrame(); err != nil {
				return err
			}
			halted = p.Halted()
			return nil
		})
		if err != nil || halted {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
	<-w.stopped
}

// Player returns the underlying player for read-only access.
func (w *Worker) Player() *Player {
	return w.player
}
