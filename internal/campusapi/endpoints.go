package campusapi

import (
	"context"
	"net/url"
	"strings"

	"github.com/campuspass/campuspass-admin/internal/record"
)

// Notifications lists the admin's undismissed notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var out struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.get(ctx, NotificationsPath, nil, &out); err != nil {
		return nil, err
	}
	if out.Notifications == nil {
		out.Notifications = []Notification{}
	}
	return out.Notifications, nil
}

// DeleteNotification dismisses one notification.
func (c *Client) DeleteNotification(ctx context.Context, id ID) error {
	return c.mutate(ctx, DeleteNotificationPath, map[string]any{"notif_id": id})
}

// ClearNotifications dismisses the given notifications, or every pending one
// when ids is empty.
func (c *Client) ClearNotifications(ctx context.Context, ids []ID) error {
	body := map[string]any{}
	if len(ids) > 0 {
		body["notif_ids"] = ids
	}
	return c.mutate(ctx, ClearNotificationsPath, body)
}

// RecentActivities lists the latest admin activity.
func (c *Client) RecentActivities(ctx context.Context) ([]Activity, error) {
	var out struct {
		Activities []Activity `json:"activities"`
	}
	if err := c.get(ctx, ActivitiesPath, nil, &out); err != nil {
		return nil, err
	}
	if out.Activities == nil {
		out.Activities = []Activity{}
	}
	return out.Activities, nil
}

// ExportVisits fetches the server-filtered visit list. Blank and "All"
// values are omitted from the query.
func (c *Client) ExportVisits(ctx context.Context, q VisitQuery) ([]record.Record, error) {
	query := url.Values{}
	add := func(key, value string) {
		value = strings.TrimSpace(value)
		if value != "" && !strings.EqualFold(value, "All") {
			query.Set(key, value)
		}
	}
	add("search", q.Search)
	add("status", q.Status)
	add("register_date", q.RegisterDate)

	var out struct {
		Visits []record.Record `json:"visits"`
	}
	if err := c.get(ctx, c.exportPath, query, &out); err != nil {
		return nil, err
	}
	visits := make([]record.Record, 0, len(out.Visits))
	for _, v := range out.Visits {
		if v != nil {
			visits = append(visits, v)
		}
	}
	return visits, nil
}
