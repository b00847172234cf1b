package console

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WorkspaceGauge records how many workspaces are live.
type WorkspaceGauge interface {
	SetWorkspaces(n int)
}

// Registry owns every live workspace, keyed by session.
type Registry struct {
	deps  Deps
	idle  time.Duration
	gauge WorkspaceGauge

	mu     sync.Mutex
	spaces map[string]*Workspace
	closed bool
}

// NewRegistry creates an empty registry. Workspaces untouched for idle are
// dropped by Sweep.
func NewRegistry(deps Deps, idle time.Duration, gauge WorkspaceGauge) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		deps:   deps.withDefaults(),
		idle:   idle,
		gauge:  gauge,
		spaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace of id, creating and starting it on first use.
func (r *Registry) Get(ctx context.Context, id string) *Workspace {
	r.mu.Lock()
	if ws, ok := r.spaces[id]; ok {
		r.mu.Unlock()
		ws.touch()
		return ws
	}
	ws := newWorkspace(id, r.deps)
	closed := r.closed
	if !closed {
		r.spaces[id] = ws
	}
	n := len(r.spaces)
	r.mu.Unlock()

	if closed {
		return ws
	}
	r.report(n)
	r.deps.Logger.Debug("workspace opened", slog.String("workspace", id))
	ws.start(ctx)
	return ws
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

// Drop stops and forgets the workspace of id.
func (r *Registry) Drop(id string) bool {
	r.mu.Lock()
	ws, ok := r.spaces[id]
	delete(r.spaces, id)
	n := len(r.spaces)
	r.mu.Unlock()
	if !ok {
		return false
	}
	ws.stop()
	r.report(n)
	return true
}

// Sweep drops workspaces idle for longer than the configured timeout and
// returns how many were dropped.
func (r *Registry) Sweep() int {
	cutoff := r.deps.Now().Add(-r.idle)
	r.mu.Lock()
	var stale []*Workspace
	for id, ws := range r.spaces {
		if ws.idleSince().Before(cutoff) {
			stale = append(stale, ws)
			delete(r.spaces, id)
		}
	}
	n := len(r.spaces)
	r.mu.Unlock()

	for _, ws := range stale {
		ws.stop()
		r.deps.Logger.Debug("workspace expired", slog.String("workspace", ws.ID))
	}
	if len(stale) > 0 {
		r.report(n)
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done, then closes the registry.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(max(r.idle/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.deps.Logger.Info("expired idle workspaces", slog.Int("count", n))
			}
		}
	}
}

// Close stops every workspace. Later Get calls return unregistered,
// unstarted workspaces.
func (r *Registry) Close() {
	r.mu.Lock()
	spaces := r.spaces
	r.spaces = make(map[string]*Workspace)
	r.closed = true
	r.mu.Unlock()
	for _, ws := range spaces {
		ws.stop()
	}
	r.report(0)
}

func (r *Registry) report(n int) {
	if r.gauge != nil {
		r.gauge.SetWorkspaces(n)
	}
}
