// Package timefmt projects CampusPass timestamps into the canonical display
// timezone. Every user-facing date or time is rendered in that zone regardless
// of where the viewer sits.
package timefmt

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultZone is the deployment's canonical display timezone.
const DefaultZone = "Asia/Manila"

// DayLayout is the calendar-day format used by date filters.
const DayLayout = "2006-01-02"

const (
	dateTimeLayout = "Jan 02, 2006 03:04 PM"
	dateLayout     = "Jan 02, 2006"
	stampLayout    = "20060102_150405"
)

var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
}

var plainLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DayLayout,
}

// Display renders timestamps in a fixed location.
type Display struct {
	loc *time.Location
}

// NewDisplay loads the named zone. An empty name selects DefaultZone.
func NewDisplay(name string) (*Display, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timefmt: load zone %q: %w", name, err)
	}
	return &Display{loc: loc}, nil
}

// Manila is the default display shared by screens that are not configured
// explicitly. Manila has no DST so the fixed fallback is exact.
var Manila = func() *Display {
	d, err := NewDisplay(DefaultZone)
	if err != nil {
		return &Display{loc: time.FixedZone("PHT", 8*60*60)}
	}
	return d
}()

// Location returns the display location.
func (d *Display) Location() *time.Location {
	if d == nil || d.loc == nil {
		return Manila.loc
	}
	return d.loc
}

// Parse reads a timestamp. Values without a zone designator are read as
// wall-clock time in assume.
func Parse(raw string, assume *time.Location) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if assume == nil {
		assume = time.UTC
	}
	for _, layout := range plainLayouts {
		if t, err := time.ParseInLocation(layout, value, assume); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateTime formats raw for display, treating zone-less values as UTC.
// Unparseable or empty input renders as "-".
func (d *Display) DateTime(raw string) string {
	t, ok := Parse(raw, time.UTC)
	if !ok {
		return "-"
	}
	return t.In(d.Location()).Format(dateTimeLayout)
}

// Time formats an instant for display.
func (d *Display) Time(t time.Time) string {
	return t.In(d.Location()).Format(dateTimeLayout)
}

// Date formats the calendar date of raw, or fallback when raw is unusable.
func (d *Display) Date(raw, fallback string) string {
	t, ok := Parse(raw, time.UTC)
	if !ok {
		return fallback
	}
	return t.In(d.Location()).Format(dateLayout)
}

// Day projects raw onto a calendar day in the display zone. Bare dates are
// returned unchanged and zone-less timestamps are read as display-zone wall
// clock, which is how the dashboard has always bucketed them by day.
func (d *Display) Day(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if len(value) == len(DayLayout) {
		if _, err := time.Parse(DayLayout, value); err == nil {
			return value, true
		}
	}
	t, ok := Parse(value, d.Location())
	if !ok {
		return "", false
	}
	return t.In(d.Location()).Format(DayLayout), true
}

// Today returns the calendar day of now in the display zone.
func (d *Display) Today(now time.Time) string {
	return now.In(d.Location()).Format(DayLayout)
}

// Stamp renders now as a filename suffix.
func (d *Display) Stamp(now time.Time) string {
	return now.In(d.Location()).Format(stampLayout)
}

// IsDay reports whether value is a well-formed calendar day.
func IsDay(value string) bool {
	_, err := time.Parse(DayLayout, strings.TrimSpace(value))
	return err == nil
}

// ClockTime trims an "HH:MM:SS" value to "HH:MM".
func ClockTime(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) > 5 {
		return value[:5]
	}
	return value
}
