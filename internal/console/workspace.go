// Package console hosts the admin dashboard: one workspace per browser
// session holding the table controllers, the reports screen and the
// notification poller, driven by HTTP handlers.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/notify"
	"github.com/campuspass/campuspass-admin/internal/poll"
	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/reports"
	"github.com/campuspass/campuspass-admin/internal/screens"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

var (
	// ErrUnknownScreen is returned for screen names outside screens.Names.
	ErrUnknownScreen = errors.New("console: unknown screen")
	// ErrUnknownFormat is returned for export formats other than csv and pdf.
	ErrUnknownFormat = errors.New("console: unknown export format")
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Snapshots supplies the records each screen starts from. Load degrades to
// an empty snapshot, Fetch reports the failure.
type Snapshots interface {
	Load(ctx context.Context, kind store.Kind) []record.Record
	Fetch(ctx context.Context, kind store.Kind) ([]record.Record, error)
	Reports(ctx context.Context) (visits, staff []record.Record)
}

// API is the CampusPass REST surface a workspace talks to.
type API interface {
	notify.API
	notify.ActivityAPI
	ExportVisits(ctx context.Context, q campusapi.VisitQuery) ([]record.Record, error)
	Configured() bool
}

// Deps are shared by every workspace.
type Deps struct {
	Snapshots Snapshots
	API       API
	PDF       tableview.PDFRenderer
	Display   *timefmt.Display
	Logger    *slog.Logger
	Observer  poll.Observer

	NotifyInterval   time.Duration
	ActivityInterval time.Duration
	ClearSendsIDs    bool
	Now              func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.API == nil {
		d.API = campusapi.NewClient("")
	}
	if d.Display == nil {
		d.Display = timefmt.Manila
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.NotifyInterval <= 0 {
		d.NotifyInterval = 30 * time.Second
	}
	if d.ActivityInterval <= 0 {
		d.ActivityInterval = d.NotifyInterval
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Screen is one rendered dashboard screen.
type Screen struct {
	Name          string
	Config        tableview.Config
	Frame         tableview.Frame
	Dashboard     *reports.Dashboard
	FilterSummary string
	Alerts        []string
}

// Workspace is the dashboard state of one session. Calls are serialized on
// the workspace lock.
type Workspace struct {
	ID     string
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	tables   map[string]*tableview.Controller
	reports  *reports.Screen
	views    map[string]*PageView
	bell     *PageView
	poller   *notify.Poller
	activity *notify.ActivityFeed
	lastSeen time.Time
}

func newWorkspace(id string, deps Deps) *Workspace {
	logger := deps.Logger.With(slog.String("workspace", id))
	w := &Workspace{
		ID:       id,
		deps:     deps,
		logger:   logger,
		tables:   make(map[string]*tableview.Controller),
		views:    make(map[string]*PageView),
		bell:     &PageView{},
		lastSeen: deps.Now(),
	}
	w.poller = notify.NewPoller(deps.API, w.bell, notify.Config{
		Interval: deps.NotifyInterval,
		SendIDs:  deps.ClearSendsIDs,
		Display:  deps.Display,
		Logger:   logger,
		Observer: deps.Observer,
	})
	w.bell.RenderBoard(w.poller.Board())
	w.activity = notify.NewActivityFeed(deps.API, deps.ActivityInterval, deps.Display, logger, deps.Observer)
	return w
}

// start fetches the feeds once and schedules polling. Nothing is scheduled
// without a configured API.
func (w *Workspace) start(ctx context.Context) {
	if !w.deps.API.Configured() {
		return
	}
	w.poller.Refresh(ctx)
	w.poller.Start(ctx)
	w.activity.Loop().Poll(ctx)
	w.activity.Loop().Start(ctx)
}

func (w *Workspace) stop() {
	w.poller.Stop()
	w.activity.Loop().Stop()
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastSeen = w.deps.Now()
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// visitSnapshot prefers the server export when the API is configured and
// falls back to the database snapshot otherwise.
func (w *Workspace) visitSnapshot(ctx context.Context) ([]record.Record, error) {
	if !w.deps.API.Configured() {
		return w.deps.Snapshots.Fetch(ctx, store.KindVisits)
	}
	visits, err := w.deps.API.ExportVisits(ctx, campusapi.VisitQuery{})
	if err != nil {
		return nil, fmt.Errorf("load visit export: %w", err)
	}
	return visits, nil
}

func (w *Workspace) options() []tableview.Option {
	opts := []tableview.Option{tableview.WithClock(w.deps.Now)}
	if w.deps.PDF != nil {
		opts = append(opts, tableview.WithPDFRenderer(w.deps.PDF))
	}
	return opts
}

// controllerLocked returns the table controller of name, building the screen
// on first use.
func (w *Workspace) controllerLocked(ctx context.Context, name string) (*tableview.Controller, error) {
	if name == screens.Reports {
		if w.reports == nil {
			cfg, err := screens.Config(name, w.deps.Display)
			if err != nil {
				return nil, err
			}
			visits, staff := w.deps.Snapshots.Reports(ctx)
			view := &PageView{}
			opts := append(w.options(), tableview.WithLogger(w.logger))
			screen, err := reports.NewScreen(cfg, visits, staff, view, w.logger, opts...)
			if err != nil {
				return nil, err
			}
			screen.Refresh()
			w.reports = screen
			w.views[name] = view
		}
		return w.reports.Controller(), nil
	}
	if ctrl, ok := w.tables[name]; ok {
		return ctrl, nil
	}
	cfg, err := screens.Config(name, w.deps.Display)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScreen, name)
	}
	var snapshot []record.Record
	switch name {
	case screens.Logs:
		snapshot = w.deps.Snapshots.Load(ctx, store.KindLogs)
	case screens.Visits:
		visits, err := w.visitSnapshot(ctx)
		if err != nil {
			w.logger.Error("load visit snapshot", slog.Any("error", err))
			visits = []record.Record{}
		}
		snapshot = visits
	}
	view := &PageView{}
	opts := append(w.options(), tableview.WithLogger(w.logger))
	ctrl, err := tableview.New(cfg, snapshot, view, opts...)
	if err != nil {
		return nil, err
	}
	w.tables[name] = ctrl
	w.views[name] = view
	return ctrl, nil
}

func (w *Workspace) screenLocked(name string, ctrl *tableview.Controller, dash *reports.Dashboard) Screen {
	cfg := ctrl.Config()
	s := Screen{
		Name:          name,
		Config:        cfg,
		Dashboard:     dash,
		FilterSummary: cfg.FilterSummary(ctrl.State()),
		Alerts:        w.views[name].TakeAlerts(),
	}
	if dash != nil {
		s.Frame = dash.Frame
	} else {
		s.Frame = ctrl.Render()
	}
	return s
}

// do runs fn against the controller of name and renders the outcome.
func (w *Workspace) do(ctx context.Context, name string, fn func(ctrl *tableview.Controller) *reports.Dashboard) (Screen, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = w.deps.Now()
	ctrl, err := w.controllerLocked(ctx, name)
	if err != nil {
		return Screen{}, err
	}
	return w.screenLocked(name, ctrl, fn(ctrl)), nil
}

// View renders the current page of name.
func (w *Workspace) View(ctx context.Context, name string) (Screen, error) {
	return w.do(ctx, name, func(*tableview.Controller) *reports.Dashboard {
		if name == screens.Reports {
			dash := w.reports.Current()
			return &dash
		}
		return nil
	})
}

// SetFilters applies every value in one pass and returns to the first page.
// Unknown keys are ignored.
func (w *Workspace) SetFilters(ctx context.Context, name string, values map[string]string) (Screen, error) {
	return w.do(ctx, name, func(ctrl *tableview.Controller) *reports.Dashboard {
		for key, value := range values {
			ctrl.SetFilter(key, value)
		}
		if name == screens.Reports {
			dash := w.reports.Refresh()
			return &dash
		}
		return nil
	})
}

// Reset clears the filters of name.
func (w *Workspace) Reset(ctx context.Context, name string) (Screen, error) {
	return w.do(ctx, name, func(ctrl *tableview.Controller) *reports.Dashboard {
		if name == screens.Reports {
			dash := w.reports.Reset()
			return &dash
		}
		ctrl.Reset()
		return nil
	})
}

// Paginate moves to "next", "prev" or a page number. Invalid moves leave the
// page unchanged.
func (w *Workspace) Paginate(ctx context.Context, name, move string) (Screen, error) {
	return w.do(ctx, name, func(ctrl *tableview.Controller) *reports.Dashboard {
		switch move {
		case "next":
			ctrl.Next()
		case "prev":
			ctrl.Prev()
		default:
			if n, err := strconv.Atoi(move); err == nil {
				ctrl.SetPage(n)
			}
		}
		if name == screens.Reports {
			dash := w.reports.Current()
			return &dash
		}
		return nil
	})
}

// Reload swaps in a fresh snapshot, keeping filters. A failed read is logged
// and the last loaded snapshot stays on screen.
func (w *Workspace) Reload(ctx context.Context, name string) (Screen, error) {
	return w.do(ctx, name, func(ctrl *tableview.Controller) *reports.Dashboard {
		var (
			fresh []record.Record
			err   error
		)
		switch name {
		case screens.Reports:
			fresh, err = w.deps.Snapshots.Fetch(ctx, store.KindVisits)
		case screens.Logs:
			fresh, err = w.deps.Snapshots.Fetch(ctx, store.KindLogs)
		case screens.Visits:
			fresh, err = w.visitSnapshot(ctx)
		}
		if err != nil {
			w.logger.Error("reload snapshot", slog.String("screen", name), slog.Any("error", err))
		}
		if name == screens.Reports {
			dash := w.reports.Current()
			if err == nil {
				dash = w.reports.Replace(fresh)
			}
			return &dash
		}
		if err == nil {
			ctrl.Replace(fresh)
		}
		return nil
	})
}

// Export produces the filtered set of name as a file. When nothing can be
// exported the alerts explain why and ok is false.
func (w *Workspace) Export(ctx context.Context, name, format string) (file tableview.File, alerts []string, ok bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = w.deps.Now()
	ctrl, err := w.controllerLocked(ctx, name)
	if err != nil {
		return tableview.File{}, nil, false, err
	}
	switch format {
	case FormatCSV:
		ctrl.ExportCSV()
	case FormatPDF:
		ctrl.ExportPDF(ctx)
	default:
		return tableview.File{}, nil, false, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	view := w.views[name]
	if file, ok := view.TakeDownload(); ok {
		return file, view.TakeAlerts(), true, nil
	}
	return tableview.File{}, view.TakeAlerts(), false, nil
}

// Board returns the notification board last rendered.
func (w *Workspace) Board() notify.Board {
	w.touch()
	return w.bell.Board()
}

// DeleteNotification dismisses one notification.
func (w *Workspace) DeleteNotification(ctx context.Context, id campusapi.ID) (notify.Board, []string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = w.deps.Now()
	ok := w.poller.DeleteOne(ctx, id)
	return w.bell.Board(), w.bell.TakeAlerts(), ok
}

// ClearNotifications dismisses every notification shown.
func (w *Workspace) ClearNotifications(ctx context.Context) (notify.Board, []string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = w.deps.Now()
	ok := w.poller.ClearAll(ctx)
	return w.bell.Board(), w.bell.TakeAlerts(), ok
}

// SetVisible pauses both feeds while the page is hidden. Becoming visible
// fetches at once.
func (w *Workspace) SetVisible(ctx context.Context, visible bool) notify.Board {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = w.deps.Now()
	if !w.deps.API.Configured() {
		return w.bell.Board()
	}
	w.poller.SetVisible(ctx, visible)
	w.activity.Loop().SetVisible(ctx, visible)
	return w.bell.Board()
}

// PollState reports whether the notification timer is running.
func (w *Workspace) PollState() poll.State { return w.poller.State() }

// Activities returns the latest recent-activity feed.
func (w *Workspace) Activities() []notify.ActivityItem {
	w.touch()
	return w.activity.Items()
}
