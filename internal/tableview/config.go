package tableview

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

const (
	// All is the sentinel value meaning "do not narrow on this key".
	All = "All"
	// SearchKey addresses the free-text search box.
	SearchKey = "search"
)

// FilterKind selects how a filter value is compared against a record.
type FilterKind int

const (
	// FilterExact keeps records whose field equals the selected value.
	FilterExact FilterKind = iota
	// FilterDay keeps records whose display-zone calendar day equals the value.
	FilterDay
	// FilterFrom keeps records on or after the selected day.
	FilterFrom
	// FilterTo keeps records on or before the selected day.
	FilterTo
)

func (k FilterKind) dated() bool {
	return k == FilterDay || k == FilterFrom || k == FilterTo
}

// Filter declares one narrowing dimension of a screen.
type Filter struct {
	Key   string `validate:"required"`
	Label string `validate:"required"`
	Field string `validate:"required"`
	Kind  FilterKind
	// Options is the known value domain, offered to the UI. Values outside it
	// are accepted and simply match nothing.
	Options  []string
	FoldCase bool
}

// Column declares one rendered and exported column.
type Column struct {
	Key   string `validate:"required"`
	Label string `validate:"required"`
	// Timestamp renders the field through the display zone.
	Timestamp   bool
	Placeholder string
	Format      func(record.Record) string
}

// Config parameterises a controller for one screen.
type Config struct {
	Name    string   `validate:"required"`
	Title   string   `validate:"required"`
	Columns []Column `validate:"required,min=1,dive"`
	Filters []Filter `validate:"dive"`
	// SearchFields are concatenated for the case-insensitive search; an empty
	// list disables search for the screen.
	SearchFields []string
	SearchLabel  string
	PageSize     int    `validate:"min=1"`
	IDField      string `validate:"required"`
	SortField    string
	SortDesc     bool
	// StatusField and PendingStatuses mark records that have not happened yet;
	// those always pass date filters.
	StatusField     string
	PendingStatuses []string
	EmptyText       string
	NoMatchText     string
	NoFilterText    string
	// SummaryFunc overrides the human-readable export caption.
	SummaryFunc func(active []ActiveFilter) string
	ExportName  string `validate:"required"`
	// CSVTitle, when set, is the first line of CSV exports.
	CSVTitle        string
	TimestampSuffix bool
	DetailTitle     string
	Display         *timefmt.Display
}

// ActiveFilter is a filter currently narrowing the view.
type ActiveFilter struct {
	Key   string
	Label string
	Value string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("tableview: invalid config %q: %w", c.Name, err)
	}
	seen := make(map[string]struct{}, len(c.Filters))
	for _, f := range c.Filters {
		if f.Key == SearchKey {
			return fmt.Errorf("tableview: filter key %q is reserved", SearchKey)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("tableview: duplicate filter key %q", f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}

// Filter looks up a filter by key.
func (c Config) Filter(key string) (Filter, bool) {
	for _, f := range c.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter{}, false
}

func (c Config) display() *timefmt.Display {
	if c.Display != nil {
		return c.Display
	}
	return timefmt.Manila
}

func (c Config) emptyText() string {
	if c.EmptyText != "" {
		return c.EmptyText
	}
	return "No records found."
}

func (c Config) noMatchText() string {
	if c.NoMatchText != "" {
		return c.NoMatchText
	}
	return "No records match the current filters."
}

func (c Config) pending(r record.Record) bool {
	if c.StatusField == "" || len(c.PendingStatuses) == 0 {
		return false
	}
	status := strings.TrimSpace(r.Text(c.StatusField))
	for _, s := range c.PendingStatuses {
		if strings.EqualFold(status, s) {
			return true
		}
	}
	return false
}

func (c Config) header() []string {
	labels := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		labels[i] = col.Label
	}
	return labels
}

func (c Config) cells(r record.Record) []string {
	cells := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		var value string
		switch {
		case col.Format != nil:
			value = col.Format(r)
		case col.Timestamp:
			value = c.display().DateTime(r.Text(col.Key))
		default:
			value = r.Text(col.Key)
		}
		if value == "" {
			value = col.Placeholder
		}
		cells[i] = value
	}
	return cells
}
