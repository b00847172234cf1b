package store

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/campuspass/campuspass-admin/internal/record"
)

// Kind names a snapshot.
type Kind string

// Snapshot kinds.
const (
	KindLogs   Kind = "logs"
	KindVisits Kind = "visits"
	KindStaff  Kind = "staff"
)

// Kinds lists every snapshot kind.
var Kinds = []Kind{KindLogs, KindVisits, KindStaff}

// Limits caps how many rows each snapshot carries.
type Limits struct {
	Logs   int
	Visits int
	Staff  int
}

// DefaultLimits mirrors what the dashboard has always embedded.
var DefaultLimits = Limits{Logs: 2000, Visits: 2000, Staff: 1000}

// Snapshots serves cached snapshots, collapsing concurrent loads of the same
// kind.
type Snapshots struct {
	source Source
	cache  *Cache
	limits Limits
	logger *slog.Logger
	group  singleflight.Group
}

// NewSnapshots wires the snapshot service.
func NewSnapshots(source Source, cache *Cache, limits Limits, logger *slog.Logger) *Snapshots {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.Logs <= 0 {
		limits.Logs = DefaultLimits.Logs
	}
	if limits.Visits <= 0 {
		limits.Visits = DefaultLimits.Visits
	}
	if limits.Staff <= 0 {
		limits.Staff = DefaultLimits.Staff
	}
	return &Snapshots{source: source, cache: cache, limits: limits, logger: logger}
}

func (s *Snapshots) loader(kind Kind) (func(context.Context) ([]record.Record, error), error) {
	switch kind {
	case KindLogs:
		return func(ctx context.Context) ([]record.Record, error) { return s.source.SystemLogs(ctx, s.limits.Logs) }, nil
	case KindVisits:
		return func(ctx context.Context) ([]record.Record, error) { return s.source.Visits(ctx, s.limits.Visits) }, nil
	case KindStaff:
		return func(ctx context.Context) ([]record.Record, error) { return s.source.Staff(ctx, s.limits.Staff) }, nil
	default:
		return nil, fmt.Errorf("store: unknown snapshot kind %q", kind)
	}
}

// Fetch returns the snapshot for kind.
func (s *Snapshots) Fetch(ctx context.Context, kind Kind) ([]record.Record, error) {
	load, err := s.loader(kind)
	if err != nil {
		return nil, err
	}
	key, err := s.cache.Key(ctx, string(kind))
	if err != nil {
		s.logger.Warn("snapshot cache unavailable", slog.String("kind", string(kind)), slog.Any("error", err))
		return load(ctx)
	}
	// Collapsed callers share this load, so it must outlive the first caller.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.cache.Fetch(loadCtx, key, load)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return record.Clone(res.Val.([]record.Record)), nil
	}
}

// Load is Fetch that degrades to an empty snapshot on failure.
func (s *Snapshots) Load(ctx context.Context, kind Kind) []record.Record {
	records, err := s.Fetch(ctx, kind)
	if err != nil {
		s.logger.Error("load snapshot", slog.String("kind", string(kind)), slog.Any("error", err))
		return []record.Record{}
	}
	return records
}

// Reports loads visits and the staff roster in parallel.
func (s *Snapshots) Reports(ctx context.Context) (visits, staff []record.Record) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		visits = s.Load(gctx, KindVisits)
		return nil
	})
	g.Go(func() error {
		staff = s.Load(gctx, KindStaff)
		return nil
	})
	_ = g.Wait()
	return visits, staff
}

// Warm reloads every snapshot from the source and stores it under the
// current version.
func (s *Snapshots) Warm(ctx context.Context) (map[Kind]int, error) {
	counts := make(map[Kind]int, len(Kinds))
	results := make([][]record.Record, len(Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		load, err := s.loader(kind)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			records, err := load(gctx)
			if err != nil {
				return fmt.Errorf("store: warm %s: %w", kind, err)
			}
			key, err := s.cache.Key(gctx, string(kind))
			if err != nil {
				return err
			}
			if err := s.cache.Store(gctx, key, records); err != nil {
				return fmt.Errorf("store: warm %s: %w", kind, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, kind := range Kinds {
		counts[kind] = len(results[i])
	}
	return counts, nil
}

// Invalidate drops every cached snapshot.
func (s *Snapshots) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
