package tableview

import (
	"maps"
	"strings"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// State is the mutable per-screen view state.
type State struct {
	Search  string
	Filters map[string]string
	Page    int
}

func newState(cfg Config) State {
	filters := make(map[string]string, len(cfg.Filters))
	for _, f := range cfg.Filters {
		filters[f.Key] = All
	}
	return State{Filters: filters, Page: 1}
}

func (s State) clone() State {
	s.Filters = maps.Clone(s.Filters)
	return s
}

// Selected returns the value chosen for key, or All.
func (s State) Selected(key string) string {
	if key == SearchKey {
		return s.Search
	}
	if v, ok := s.Filters[key]; ok && v != "" {
		return v
	}
	return All
}

// Active lists the filters currently narrowing the view in declaration
// order, search last.
func (c Config) Active(s State) []ActiveFilter {
	var active []ActiveFilter
	for _, f := range c.Filters {
		v := s.Selected(f.Key)
		if v == All {
			continue
		}
		active = append(active, ActiveFilter{Key: f.Key, Label: f.Label, Value: v})
	}
	if q := strings.TrimSpace(s.Search); q != "" {
		label := c.SearchLabel
		if label == "" {
			label = "Search"
		}
		active = append(active, ActiveFilter{Key: SearchKey, Label: label, Value: q})
	}
	return active
}

type predicate func(record.Record) bool

// matcher compiles the state into one predicate per active dimension.
func (c Config) matcher(s State) predicate {
	display := c.display()
	var preds []predicate
	for _, f := range c.Filters {
		value := strings.TrimSpace(s.Selected(f.Key))
		if value == All {
			continue
		}
		preds = append(preds, c.filterPredicate(f, value, display))
	}
	if q := strings.ToLower(strings.TrimSpace(s.Search)); q != "" && len(c.SearchFields) > 0 {
		fields := c.SearchFields
		preds = append(preds, func(r record.Record) bool {
			parts := make([]string, 0, len(fields))
			for _, field := range fields {
				parts = append(parts, r.Text(field))
			}
			return strings.Contains(strings.ToLower(strings.Join(parts, " ")), q)
		})
	}
	return func(r record.Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func (c Config) filterPredicate(f Filter, value string, display *timefmt.Display) predicate {
	if !f.Kind.dated() {
		return func(r record.Record) bool {
			got := strings.TrimSpace(r.Text(f.Field))
			if f.FoldCase {
				return strings.EqualFold(got, value)
			}
			return got == value
		}
	}
	valid := timefmt.IsDay(value)
	return func(r record.Record) bool {
		if c.pending(r) {
			return true
		}
		if !valid {
			return false
		}
		day, ok := display.Day(r.Text(f.Field))
		if !ok {
			return false
		}
		// Days share one fixed-width layout so string order is calendar order.
		switch f.Kind {
		case FilterFrom:
			return day >= value
		case FilterTo:
			return day <= value
		default:
			return day == value
		}
	}
}

// Apply returns the records of snapshot matching every active filter, in
// snapshot order.
func (c Config) Apply(snapshot []record.Record, s State) []record.Record {
	match := c.matcher(s)
	out := make([]record.Record, 0, len(snapshot))
	for _, r := range snapshot {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}
