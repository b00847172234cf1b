// Package screens declares the table configuration of every dashboard
// listing.
package screens

import (
	"fmt"
	"sort"
	"strings"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/reports"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// Screen names.
const (
	Logs    = "logs"
	Visits  = "visits"
	Reports = "reports"
)

// ActorRoles are the roles a system log actor can hold.
var ActorRoles = []string{"Admin", "Staff", "Visitor"}

var builders = map[string]func(*timefmt.Display) tableview.Config{
	Logs:    LogsConfig,
	Visits:  VisitsConfig,
	Reports: ReportsConfig,
}

// Names lists every screen, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the configuration of the named screen.
func Config(name string, display *timefmt.Display) (tableview.Config, error) {
	build, ok := builders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return tableview.Config{}, fmt.Errorf("screens: unknown screen %q", name)
	}
	return build(display), nil
}

// LogsConfig is the system log viewer: newest first, filtered by actor role
// and creation day.
func LogsConfig(display *timefmt.Display) tableview.Config {
	return tableview.Config{
		Name:  Logs,
		Title: "System Logs",
		Columns: []tableview.Column{
			{Key: "log_id", Label: "ID"},
			{Key: "actor", Label: "Actor", Placeholder: "-"},
			{Key: "action_type", Label: "Action Type", Placeholder: "-"},
			{Key: "description", Label: "Description", Placeholder: "-"},
			{Key: "actor_role", Label: "Actor Role", Placeholder: "-"},
			{Key: "created_at", Label: "Timestamp", Timestamp: true},
		},
		Filters: []tableview.Filter{
			{Key: "role", Label: "Actor Role", Field: "actor_role", Options: ActorRoles},
			{Key: "created", Label: "Created Date", Field: "created_at", Kind: tableview.FilterDay},
		},
		PageSize:     25,
		IDField:      "log_id",
		SortField:    "log_id",
		SortDesc:     true,
		EmptyText:    "No logs found",
		NoMatchText:  "No logs match the current filters.",
		NoFilterText: "No filters applied; exporting all logs.",
		ExportName:   "system_logs",
		Display:      display,
	}
}

// VisitsConfig is the visit records listing in booking order. Upcoming
// visits pass the register date filter.
func VisitsConfig(display *timefmt.Display) tableview.Config {
	return tableview.Config{
		Name:  Visits,
		Title: "Visit Records",
		Columns: []tableview.Column{
			{Key: "visit_id", Label: "ID"},
			{Key: "visit_date", Label: "Register Date", Format: func(r record.Record) string {
				raw := r.Text("visit_date")
				if day, ok := display.Day(raw); ok {
					return day
				}
				return raw
			}},
			{Key: "code", Label: "Code"},
			{Key: "user_email", Label: "Visitor"},
			{Key: "purpose", Label: "Purpose"},
			{Key: "department", Label: "Department"},
			{Key: "window", Label: "Start-End", Format: timeWindow},
			{Key: "status", Label: "Status"},
		},
		Filters: []tableview.Filter{
			{Key: "status", Label: "Status", Field: "status", Options: reports.Statuses, FoldCase: true},
			{Key: "register_date", Label: "Register Date", Field: "visit_date", Kind: tableview.FilterDay},
		},
		SearchFields:    []string{"user_email", "visitor_name", "code", "purpose", "department"},
		PageSize:        10,
		IDField:         "visit_id",
		SortField:       "visit_id",
		StatusField:     "status",
		PendingStatuses: []string{reports.StatusUpcoming},
		EmptyText:       "No visit records found.",
		NoMatchText:     "No visit records match the current filters.",
		ExportName:      "visit_records",
		Display:         display,
	}
}

// ReportsConfig is the analytics table: status plus an inclusive day range.
// Upcoming visits stay visible under any range.
func ReportsConfig(display *timefmt.Display) tableview.Config {
	return tableview.Config{
		Name:  Reports,
		Title: "CampusPass Reports",
		Columns: []tableview.Column{
			{Key: "visit_id", Label: "Visit ID"},
			{Key: "visitor_name", Label: "Visitor", Placeholder: "Guest"},
			{Key: "purpose", Label: "Purpose", Placeholder: "-"},
			{Key: "department", Label: "Department", Placeholder: "-"},
			{Key: "visit_date", Label: "Visit Date", Placeholder: "-"},
			{Key: "window", Label: "Time", Format: timeWindow},
			{Key: "status", Label: "Status", Placeholder: "-"},
		},
		Filters: []tableview.Filter{
			{Key: "status", Label: "Status", Field: "status", Options: reports.Statuses},
			{Key: "start", Label: "From", Field: "visit_date", Kind: tableview.FilterFrom},
			{Key: "end", Label: "To", Field: "visit_date", Kind: tableview.FilterTo},
		},
		PageSize:        10,
		IDField:         "visit_id",
		SortField:       "visit_id",
		StatusField:     "status",
		PendingStatuses: []string{reports.StatusUpcoming},
		EmptyText:       "No visit records found.",
		NoMatchText:     "No visits match the selected filters.",
		SummaryFunc:     reportSummary,
		ExportName:      "reports",
		CSVTitle:        "CampusPass Reports",
		TimestampSuffix: true,
		DetailTitle:     "Visit Records",
		Display:         display,
	}
}

func reportSummary(active []tableview.ActiveFilter) string {
	if len(active) == 0 {
		return "No filters applied."
	}
	parts := make([]string, len(active))
	for i, f := range active {
		parts[i] = f.Label + ": " + f.Value
	}
	return strings.Join(parts, ", ")
}

// timeWindow renders "HH:MM - HH:MM", empty when neither end is known.
func timeWindow(r record.Record) string {
	start := timefmt.ClockTime(r.Text("start_time"))
	end := timefmt.ClockTime(r.Text("end_time"))
	if start == "" && end == "" {
		return ""
	}
	return start + " - " + end
}
