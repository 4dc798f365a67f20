package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrStopped is returned by Tick and Start once the poller is stopped
var ErrStopped = errors.New("poller stopped")

// State is the lifecycle of a poller
type State int

const (
	Idle State = iota
	Loading
	Rendered
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Rendered:
		return "rendered"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FetchFunc pulls the full dataset for one cycle
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ReconcileFunc replaces view state with a fetched dataset.
// It must not call Tick or Stop on the same poller.
type ReconcileFunc[T any] func(T)

// Option configures a Poller
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger sets the logger used for failed ticks
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Poller re-fetches a dataset on a fixed interval and hands each result to
// a reconcile function. Results are applied in dispatch order: a tick that
// resolves after a later-dispatched tick has been applied is discarded.
type Poller[T any] struct {
	name      string
	interval  time.Duration
	fetch     FetchFunc[T]
	reconcile ReconcileFunc[T]
	log       zerolog.Logger
	kick      chan struct{}

	// applyMu serializes the sequence check with reconcile
	applyMu sync.Mutex

	mu         sync.Mutex
	state      State
	rendered   bool
	inflight   int
	dispatched uint64
	applied    uint64
	stopped    bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates a poller. Nothing runs until Start or Tick is called.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], reconcile ReconcileFunc[T], opts ...Option) *Poller[T] {
	o := options{log: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Poller[T]{
		name:      name,
		interval:  interval,
		fetch:     fetch,
		reconcile: reconcile,
		log:       o.log.With().Str("component", "poll").Str("poller", name).Logger(),
		kick:      make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state
func (p *Poller[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start runs one tick synchronously and then keeps ticking every interval
// until ctx ends or Stop is called. The error of the first tick is returned
// for information only; the loop is started either way.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.cancel != nil {
		p.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	err := p.Tick(ctx)
	go p.loop(ctx)
	return err
}

func (p *Poller[T]) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.kick:
		}
		if err := p.Tick(ctx); errors.Is(err, ErrStopped) {
			return
		}
	}
}

// Kick requests an immediate tick from the running loop. It never blocks.
func (p *Poller[T]) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Stop cancels the timer and the loop context. Results of ticks still in
// flight are dropped. Stop waits for a reconcile in progress, so it must
// not be called from reconcile.
func (p *Poller[T]) Stop() {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.state = Stopped
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the loop started by Start has exited
func (p *Poller[T]) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Tick runs one fetch cycle. It may be called concurrently with the loop.
func (p *Poller[T]) Tick(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.dispatched++
	seq := p.dispatched
	p.inflight++
	p.state = Loading
	p.mu.Unlock()

	v, err := p.fetch(ctx)

	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	p.inflight--
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	if err != nil {
		p.settle()
		p.mu.Unlock()
		p.log.Warn().Err(err).Uint64("seq", seq).Msg("Poll tick failed, keeping previous state")
		return err
	}
	if applied := p.applied; seq < applied {
		p.settle()
		p.mu.Unlock()
		p.log.Debug().Uint64("seq", seq).Uint64("applied", applied).Msg("Discarding stale tick")
		return nil
	}
	p.applied = seq
	p.rendered = true
	p.settle()
	p.mu.Unlock()

	p.reconcile(v)
	return nil
}

// settle picks the resting state once a tick finishes. Caller holds mu.
func (p *Poller[T]) settle() {
	switch {
	case p.inflight > 0:
		p.state = Loading
	case p.rendered:
		p.state = Rendered
	default:
		p.state = Idle
	}
}
