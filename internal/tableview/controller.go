// Package tableview implements the filter, paginate, render and export
// pipeline shared by every dashboard listing.
package tableview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/report"
)

// PDFRenderer converts a document into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, doc report.Document) ([]byte, error)
}

// Extras are screen-specific sections added ahead of the detail table in
// exports.
type Extras struct {
	Sections []report.Table
	Images   []report.Image
}

// Enricher derives export extras from the filtered records.
type Enricher interface {
	Extras(filtered []record.Record) Extras
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(filtered []record.Record) Extras

// Extras implements Enricher.
func (f EnricherFunc) Extras(filtered []record.Record) Extras { return f(filtered) }

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPDFRenderer enables PDF export.
func WithPDFRenderer(r PDFRenderer) Option {
	return func(c *Controller) { c.pdf = r }
}

// WithClock overrides the clock used for export stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEnricher adds screen-specific export sections.
func WithEnricher(e Enricher) Option {
	return func(c *Controller) { c.enricher = e }
}

// Controller owns one screen's snapshot and view state. All methods are safe
// for concurrent use; view callbacks run while the controller lock is held.
type Controller struct {
	cfg    Config
	view   View
	logger *slog.Logger
	pdf    PDFRenderer
	now    func() time.Time

	enricher Enricher

	mu       sync.Mutex
	snapshot []record.Record
	state    State
	filtered []record.Record
	dirty    bool
}

// New builds a controller over snapshot and renders the first page.
func New(cfg Config, snapshot []record.Record, view View, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if view == nil {
		view = Discard{}
	}
	c := &Controller{
		cfg:    cfg,
		view:   view,
		logger: slog.Default(),
		now:    time.Now,
		state:  newState(cfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("screen", cfg.Name))
	c.mu.Lock()
	c.load(snapshot)
	c.renderLocked()
	c.mu.Unlock()
	return c, nil
}

// Config returns the screen configuration.
func (c *Controller) Config() Config { return c.cfg }

// Replace swaps the snapshot, keeping filters and clamping the page.
func (c *Controller) Replace(snapshot []record.Record) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(snapshot)
	return c.renderLocked()
}

func (c *Controller) load(snapshot []record.Record) {
	rows := record.Clone(snapshot)
	if c.cfg.SortField != "" {
		record.SortBy(rows, c.cfg.SortField, c.cfg.SortDesc)
	}
	c.snapshot = rows
	c.dirty = true
}

// SetFilter selects value for key and returns to the first page. An empty
// value clears the filter. Unknown keys are ignored and reported false.
func (c *Controller) SetFilter(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == SearchKey {
		c.state.Search = value
	} else {
		if _, ok := c.cfg.Filter(key); !ok {
			c.logger.Debug("unknown filter key", slog.String("key", key))
			return false
		}
		if value == "" {
			value = All
		}
		c.state.Filters[key] = value
	}
	c.state.Page = 1
	c.dirty = true
	c.renderLocked()
	return true
}

// Reset clears every filter and the search box.
func (c *Controller) Reset() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = newState(c.cfg)
	c.dirty = true
	return c.renderLocked()
}

// SetPage moves to page n when it exists. Out-of-range input leaves the page
// unchanged and re-renders the pagination controls.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := newPageInfo(c.state.Page, c.cfg.PageSize, len(c.filteredLocked()))
	if n < 1 || n > info.TotalPages {
		c.view.RenderPagination(info)
		return false
	}
	c.state.Page = n
	c.renderLocked()
	return true
}

// Next advances one page if possible.
func (c *Controller) Next() bool { return c.SetPage(c.Page() + 1) }

// Prev goes back one page if possible.
func (c *Controller) Prev() bool { return c.SetPage(c.Page() - 1) }

// Page returns the current page.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Page
}

// State returns a copy of the view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Render pushes the current page to the view and returns what was rendered.
func (c *Controller) Render() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked()
}

// Filtered returns the full filtered set, ignoring pagination.
func (c *Controller) Filtered() []record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]record.Record(nil), c.filteredLocked()...)
}

// Total is the snapshot size before filtering.
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshot)
}

func (c *Controller) filteredLocked() []record.Record {
	if c.dirty {
		c.filtered = c.cfg.Apply(c.snapshot, c.state)
		c.dirty = false
	}
	return c.filtered
}

func (c *Controller) renderLocked() Frame {
	filtered := c.filteredLocked()
	info := newPageInfo(c.state.Page, c.cfg.PageSize, len(filtered))
	c.state.Page = info.Page

	frame := Frame{
		Title:   c.cfg.Title,
		Header:  c.cfg.header(),
		Page:    info,
		State:   c.state.clone(),
		Filters: c.cfg.Filters,
		Search:  len(c.cfg.SearchFields) > 0,
	}
	if len(filtered) == 0 {
		frame.Empty = c.cfg.noMatchText()
		if len(c.snapshot) == 0 {
			frame.Empty = c.cfg.emptyText()
		}
		c.view.RenderEmpty(frame.Empty)
		c.view.RenderPagination(info)
		return frame
	}

	lo, hi := info.bounds()
	rows := make([]Row, 0, hi-lo)
	for _, r := range filtered[lo:hi] {
		rows = append(rows, Row{ID: r.Text(c.cfg.IDField), Cells: c.cfg.cells(r), Record: r})
	}
	frame.Rows = rows
	c.view.RenderRows(rows)
	c.view.RenderPagination(info)
	return frame
}
