// Package notify keeps the admin notification badge, dropdown and dashboard
// panel in step with the server.
package notify

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// EmptyText is shown in the dropdown when nothing is pending.
const EmptyText = "No new notifications"

// Icon classes by notification kind.
const (
	IconStaff   = "fas fa-user-tie"
	IconVisitor = "fas fa-users"
	IconDefault = "fas fa-bell"
)

// Item is one rendered notification.
type Item struct {
	ID      campusapi.ID `json:"id"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Time    string       `json:"time"`
	Icon    string       `json:"icon"`
}

// Board is one consistent render of the badge, dropdown and panel. All three
// always come from the same snapshot.
type Board struct {
	Version      uint64 `json:"version"`
	BadgeVisible bool   `json:"badge_visible"`
	BadgeCount   int    `json:"badge_count"`
	Dropdown     []Item `json:"dropdown"`
	DropdownNote string `json:"dropdown_note,omitempty"`
	Panel        []Item `json:"panel"`
}

func newBoard(version uint64, items []Item) Board {
	b := Board{
		Version:      version,
		BadgeVisible: len(items) > 0,
		BadgeCount:   len(items),
		Dropdown:     items,
		Panel:        items,
	}
	if len(items) == 0 {
		b.Dropdown = []Item{}
		b.Panel = []Item{}
		b.DropdownNote = EmptyText
	}
	return b
}

// without returns a copy of b lacking the item with id.
func (b Board) without(version uint64, id campusapi.ID) Board {
	kept := make([]Item, 0, len(b.Panel))
	for _, it := range b.Panel {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return newBoard(version, kept)
}

// IDs lists the ids currently shown.
func (b Board) IDs() []campusapi.ID {
	ids := make([]campusapi.ID, 0, len(b.Panel))
	for _, it := range b.Panel {
		ids = append(ids, it.ID)
	}
	return ids
}

// Has reports whether id is currently shown.
func (b Board) Has(id campusapi.ID) bool {
	for _, it := range b.Panel {
		if it.ID == id {
			return true
		}
	}
	return false
}

// IconFor picks the icon for a notification title.
func IconFor(title string) string {
	switch {
	case strings.Contains(title, "Staff"):
		return IconStaff
	case strings.Contains(title, "Visitor"):
		return IconVisitor
	default:
		return IconDefault
	}
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// plainText strips markup from server-provided text. Output is unescaped
// plain text; templates escape it again on render.
func plainText(s string) string {
	policyOnce.Do(func() { policy = bluemonday.StrictPolicy() })
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

func toItems(list []campusapi.Notification, display *timefmt.Display) []Item {
	items := make([]Item, 0, len(list))
	for _, n := range list {
		title := plainText(n.Title)
		items = append(items, Item{
			ID:      n.ID,
			Title:   title,
			Message: plainText(n.Message),
			Time:    display.Date(n.Time, "N/A"),
			Icon:    IconFor(title),
		})
	}
	return items
}
