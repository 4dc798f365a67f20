package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) reconcile(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder[T]) last(t *testing.T) T {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		t.Fatal("Expected at least one reconcile")
	}
	return r.values[len(r.values)-1]
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func quiet() Option {
	return WithLogger(zerolog.Nop())
}

func TestTickAppliesResult(t *testing.T) {
	rec := &recorder[[]string]{}
	p := New("test", time.Hour, func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}, rec.reconcile, quiet())

	if p.State() != Idle {
		t.Errorf("Expected idle before first tick, got %s", p.State())
	}
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := rec.last(t); len(got) != 2 {
		t.Errorf("Expected 2 items, got %v", got)
	}
	if p.State() != Rendered {
		t.Errorf("Expected rendered, got %s", p.State())
	}
}

func TestFailedTickKeepsState(t *testing.T) {
	rec := &recorder[int]{}
	fail := false
	p := New("test", time.Hour, func(ctx context.Context) (int, error) {
		if fail {
			return 0, errors.New("network down")
		}
		return 42, nil
	}, rec.reconcile, quiet())

	ctx := context.Background()
	p.Tick(ctx)

	fail = true
	if err := p.Tick(ctx); err == nil {
		t.Fatal("Expected tick error")
	}
	if rec.count() != 1 {
		t.Errorf("Expected reconcile once, got %d", rec.count())
	}
	if rec.last(t) != 42 {
		t.Errorf("Expected previous value kept, got %d", rec.last(t))
	}
	if p.State() != Rendered {
		t.Errorf("Expected rendered after failed tick, got %s", p.State())
	}
}

func TestFailedFirstTickStaysIdle(t *testing.T) {
	p := New("test", time.Hour, func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	}, func(int) { t.Error("reconcile must not run") }, quiet())

	p.Tick(context.Background())
	if p.State() != Idle {
		t.Errorf("Expected idle, got %s", p.State())
	}
}

// Tick A is dispatched first but resolves last; B's data must win.
func TestLastDispatchedWins(t *testing.T) {
	rec := &recorder[string]{}
	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	var calls atomic.Int32

	p := New("test", time.Hour, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(startedA)
			<-releaseA
			return "A", nil
		}
		return "B", nil
	}, rec.reconcile, quiet())

	ctx := context.Background()
	doneA := make(chan struct{})
	go func() {
		p.Tick(ctx)
		close(doneA)
	}()
	<-startedA

	if err := p.Tick(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.State() != Loading {
		t.Errorf("Expected loading while A is in flight, got %s", p.State())
	}

	close(releaseA)
	<-doneA

	if got := rec.last(t); got != "B" {
		t.Errorf("Expected B to win, got %s", got)
	}
	if rec.count() != 1 {
		t.Errorf("Expected stale A to be discarded, got %d reconciles", rec.count())
	}
	if p.State() != Rendered {
		t.Errorf("Expected rendered, got %s", p.State())
	}
}

// Tick A is dispatched first and resolves first; B still applies after it.
func TestLaterDispatchAppliesAfterEarlier(t *testing.T) {
	rec := &recorder[string]{}
	startedB := make(chan struct{})
	releaseB := make(chan struct{})
	var calls atomic.Int32

	p := New("test", time.Hour, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "A", nil
		}
		close(startedB)
		<-releaseB
		return "B", nil
	}, rec.reconcile, quiet())

	ctx := context.Background()
	p.Tick(ctx)

	doneB := make(chan struct{})
	go func() {
		p.Tick(ctx)
		close(doneB)
	}()
	<-startedB
	close(releaseB)
	<-doneB

	if got := rec.last(t); got != "B" {
		t.Errorf("Expected B, got %s", got)
	}
	if rec.count() != 2 {
		t.Errorf("Expected two reconciles, got %d", rec.count())
	}
}

func TestStopDropsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := New("test", time.Hour, func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	}, func(int) { t.Error("reconcile must not run after Stop") }, quiet())

	done := make(chan error)
	go func() { done <- p.Tick(context.Background()) }()
	<-started

	p.Stop()
	close(release)
	if err := <-done; err != nil {
		t.Errorf("Expected in-flight tick to finish silently, got %v", err)
	}
	if p.State() != Stopped {
		t.Errorf("Expected stopped, got %s", p.State())
	}
	if err := p.Tick(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}

func TestStartTicksImmediatelyAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := New("test", 10*time.Millisecond, func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	}, func(int32) {}, quiet())

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls.Load() < 1 {
		t.Fatal("Expected first tick before Start returns")
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected repeated ticks, got %d", calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.Stop()
	p.Wait()
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("Expected no ticks after Stop, got %d more", calls.Load()-after)
	}
}

func TestKickTriggersTick(t *testing.T) {
	ticked := make(chan struct{}, 4)
	p := New("test", time.Hour, func(ctx context.Context) (int, error) {
		ticked <- struct{}{}
		return 0, nil
	}, func(int) {}, quiet())

	p.Start(context.Background())
	defer p.Stop()
	<-ticked

	p.Kick()
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected kick to trigger a tick")
	}
}

func TestFanOutDeduplicatesAndOmitsFailures(t *testing.T) {
	var calls atomic.Int32
	got := FanOut(context.Background(), []int{1, 2, 2, 3, 1}, 2, func(ctx context.Context, k int) (string, error) {
		calls.Add(1)
		if k == 3 {
			return "", errors.New("lookup failed")
		}
		return string(rune('a' + k - 1)), nil
	})

	if calls.Load() != 3 {
		t.Errorf("Expected 3 lookups, got %d", calls.Load())
	}
	if len(got) != 2 || got[1] != "a" || got[2] != "b" {
		t.Errorf("Unexpected result: %v", got)
	}
	if _, ok := got[3]; ok {
		t.Error("Expected failed key to be omitted")
	}
}

func TestFanOutOrderIndependent(t *testing.T) {
	keys := []int{1, 2, 3, 4, 5}
	lookup := func(delays map[int]time.Duration) func(context.Context, int) (int, error) {
		return func(ctx context.Context, k int) (int, error) {
			time.Sleep(delays[k])
			return k * 10, nil
		}
	}

	first := FanOut(context.Background(), keys, 0, lookup(map[int]time.Duration{1: 20 * time.Millisecond, 5: 0}))
	second := FanOut(context.Background(), keys, 0, lookup(map[int]time.Duration{1: 0, 5: 20 * time.Millisecond}))

	if len(first) != len(second) {
		t.Fatalf("Expected equal sizes, got %d and %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("Key %d: %d vs %d", k, v, second[k])
		}
	}
}

func TestFanOutEmpty(t *testing.T) {
	got := FanOut(context.Background(), nil, 4, func(ctx context.Context, k int) (int, error) {
		t.Error("No lookup expected")
		return 0, nil
	})
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty map, got %v", got)
	}
}
