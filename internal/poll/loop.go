// Package poll runs a named recurring fetch that pauses while its page is
// hidden.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle state of a loop.
type State int

const (
	// Idle means no timer is scheduled.
	Idle State = iota
	// Polling means the timer is running.
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// FetchFunc performs one poll.
type FetchFunc func(ctx context.Context) error

// Observer is told about every completed fetch.
type Observer interface {
	ObservePoll(name string, duration time.Duration, err error)
}

// Option customises a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver records fetch outcomes.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// Loop owns one timer. Start and Stop are idempotent.
type Loop struct {
	name     string
	interval time.Duration
	fetch    FetchFunc
	logger   *slog.Logger
	observer Observer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle loop.
func New(name string, interval time.Duration, fetch FetchFunc, opts ...Option) *Loop {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := &Loop{name: name, interval: interval, fetch: fetch, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(slog.String("poller", name))
	return l
}

// Name returns the timer name.
func (l *Loop) Name() string { return l.name }

// Interval returns the poll period.
func (l *Loop) Interval() time.Duration { return l.interval }

// State reports whether the timer is running.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return Polling
	}
	return Idle
}

// Start schedules the timer. It reports false when already running. The first
// tick fires one interval from now.
func (l *Loop) Start(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go l.run(ctx, done)
	l.logger.Debug("poll timer started", slog.Duration("interval", l.interval))
	return true
}

// Stop cancels the timer and waits for an in-flight tick to finish. It
// reports false when no timer was running.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	l.logger.Debug("poll timer stopped")
	return true
}

// SetVisible pauses polling while hidden. Becoming visible fetches at once and
// restarts the timer.
func (l *Loop) SetVisible(ctx context.Context, visible bool) {
	if !visible {
		l.Stop()
		return
	}
	l.Poll(ctx)
	l.Start(ctx)
}

// Poll runs one fetch now. Errors are logged and never propagated.
func (l *Loop) Poll(ctx context.Context) {
	start := time.Now()
	err := l.fetch(ctx)
	if l.observer != nil {
		l.observer.ObservePoll(l.name, time.Since(start), err)
	}
	if err != nil && ctx.Err() == nil {
		l.logger.Warn("poll failed", slog.Any("error", err))
	}
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Poll(ctx)
		}
	}
}
