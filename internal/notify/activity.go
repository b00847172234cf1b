package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/poll"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// ActivityAPI lists recent admin activity.
type ActivityAPI interface {
	RecentActivities(ctx context.Context) ([]campusapi.Activity, error)
}

// ActivityItem is one rendered activity row.
type ActivityItem struct {
	Icon        string `json:"icon"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Actor       string `json:"actor"`
	Time        string `json:"time"`
}

// ActivityFeed polls the recent activity list for the dashboard.
type ActivityFeed struct {
	api     ActivityAPI
	display *timefmt.Display
	loop    *poll.Loop

	mu    sync.RWMutex
	items []ActivityItem
}

// NewActivityFeed creates an idle feed.
func NewActivityFeed(api ActivityAPI, interval time.Duration, display *timefmt.Display, logger *slog.Logger, observer poll.Observer) *ActivityFeed {
	f := &ActivityFeed{api: api, display: display, items: []ActivityItem{}}
	opts := []poll.Option{poll.WithLogger(logger)}
	if observer != nil {
		opts = append(opts, poll.WithObserver(observer))
	}
	f.loop = poll.New("activities", interval, f.Fetch, opts...)
	return f
}

// Items returns the latest feed.
func (f *ActivityFeed) Items() []ActivityItem {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.items
}

// Loop exposes the feed timer.
func (f *ActivityFeed) Loop() *poll.Loop { return f.loop }

// Fetch replaces the feed. Failures keep the previous items.
func (f *ActivityFeed) Fetch(ctx context.Context) error {
	list, err := f.api.RecentActivities(ctx)
	if err != nil {
		return err
	}
	items := make([]ActivityItem, 0, len(list))
	for _, a := range list {
		action := plainText(a.ActionType)
		items = append(items, ActivityItem{
			Icon:        activityIcon(action),
			Action:      action,
			Description: plainText(a.Description),
			Actor:       plainText(a.Actor),
			Time:        f.display.DateTime(a.Time),
		})
	}
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return nil
}

func activityIcon(action string) string {
	lower := strings.ToLower(action)
	switch {
	case strings.Contains(lower, "staff"), strings.Contains(lower, "security"):
		return IconStaff
	case strings.Contains(lower, "visitor"), strings.Contains(lower, "visit"):
		return IconVisitor
	default:
		return IconDefault
	}
}
