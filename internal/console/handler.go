package console

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/chart"
	"github.com/campuspass/campuspass-admin/internal/notify"
	"github.com/campuspass/campuspass-admin/internal/platform/httpx"
	"github.com/campuspass/campuspass-admin/internal/poll"
	"github.com/campuspass/campuspass-admin/internal/reports"
	"github.com/campuspass/campuspass-admin/internal/screens"
	"github.com/campuspass/campuspass-admin/internal/shared"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/view"
)

const defaultExportLimit = 10

// Handler serves the dashboard screens, exports and notification endpoints.
type Handler struct {
	logger      *slog.Logger
	registry    *Registry
	templates   *view.Engine
	csrf        *shared.CSRFManager
	exportLimit int
	key         func(*http.Request) string
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithExportLimit caps exports per workspace per minute.
func WithExportLimit(perMinute int) HandlerOption {
	return func(h *Handler) {
		if perMinute > 0 {
			h.exportLimit = perMinute
		}
	}
}

// WithWorkspaceKey overrides how a request maps to its workspace.
func WithWorkspaceKey(fn func(*http.Request) string) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.key = fn
		}
	}
}

// NewHandler constructs the console handler.
func NewHandler(logger *slog.Logger, registry *Registry, templates *view.Engine, csrf *shared.CSRFManager, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:      logger,
		registry:    registry,
		templates:   templates,
		csrf:        csrf,
		exportLimit: defaultExportLimit,
		key:         sessionKey,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func sessionKey(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.ID
	}
	return ""
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.dashboard)
	r.Route("/screens/{screen}", func(r chi.Router) {
		r.Get("/", h.showScreen)
		r.Get("/frame.json", h.frameJSON)
		r.Post("/filter", h.filter)
		r.Post("/reset", h.reset)
		r.Post("/page", h.page)
		r.Post("/reload", h.reload)
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(h.exportLimit, time.Minute,
				httprate.WithKeyFuncs(func(r *http.Request) (string, error) { return h.key(r), nil }),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export limit reached, try again shortly")
				}),
			))
			r.Get("/export/{format}", h.export)
		})
	})
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.notifications)
		r.Post("/clear", h.clearNotifications)
		r.Post("/visibility", h.visibility)
		r.Post("/{id}/delete", h.deleteNotification)
	})
	r.Get("/activities", h.activities)
}

func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (*Workspace, bool) {
	key := h.key(r)
	if key == "" {
		httpx.RespondError(w, httpx.ErrForbidden)
		return nil, false
	}
	return h.registry.Get(r.Context(), key), true
}

type dashboardPageData struct {
	Board      notify.Board
	Activities []notify.ActivityItem
	Polling    bool
	Screens    []view.NavItem
	RenderedAt time.Time
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	data := dashboardPageData{
		Board:      ws.Board(),
		Activities: ws.Activities(),
		Polling:    ws.PollState() == poll.Polling,
		Screens:    navItems(""),
		RenderedAt: h.registry.deps.Now(),
	}
	h.render(w, r, "pages/dashboard.html", "Dashboard", data, nil, http.StatusOK)
}

type filterView struct {
	Key      string
	Label    string
	Options  []string
	Selected string
	Dated    bool
}

type screenPageData struct {
	Screen    Screen
	Filters   []filterView
	HasSearch bool
	Search    string
	Cards     []reports.Card
	Charts    []*chart.Instance
	Board     notify.Board
}

func newScreenPageData(s Screen, board notify.Board) screenPageData {
	data := screenPageData{
		Screen:    s,
		HasSearch: s.Frame.Search,
		Search:    s.Frame.State.Search,
		Board:     board,
	}
	for _, f := range s.Config.Filters {
		selected := s.Frame.Selected(f.Key)
		dated := f.Kind != tableview.FilterExact
		if dated && selected == tableview.All {
			selected = ""
		}
		data.Filters = append(data.Filters, filterView{
			Key:      f.Key,
			Label:    f.Label,
			Options:  f.Options,
			Selected: selected,
			Dated:    dated,
		})
	}
	if s.Dashboard != nil {
		data.Cards = s.Dashboard.Cards
		data.Charts = s.Dashboard.Charts
	}
	return data
}

func (h *Handler) showScreen(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	screen, err := ws.View(r.Context(), chi.URLParam(r, "screen"))
	if err != nil {
		h.respondScreenError(w, err)
		return
	}
	h.render(w, r, "pages/screen.html", screen.Config.Title, newScreenPageData(screen, ws.Board()), screen.Alerts, http.StatusOK)
}

type frameRow struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

type framePayload struct {
	Screen        string            `json:"screen"`
	Title         string            `json:"title"`
	Header        []string          `json:"header"`
	Rows          []frameRow        `json:"rows"`
	Empty         string            `json:"empty,omitempty"`
	Page          int               `json:"page"`
	TotalPages    int               `json:"total_pages"`
	Total         int               `json:"total"`
	Showing       string            `json:"showing"`
	Filters       map[string]string `json:"filters"`
	Search        string            `json:"search,omitempty"`
	FilterSummary string            `json:"filter_summary"`
	Cards         []reports.Card    `json:"cards,omitempty"`
	Summary       *reports.Summary  `json:"summary,omitempty"`
	Alerts        []string          `json:"alerts,omitempty"`
}

func newFramePayload(s Screen) framePayload {
	p := framePayload{
		Screen:        s.Name,
		Title:         s.Frame.Title,
		Header:        s.Frame.Header,
		Rows:          make([]frameRow, 0, len(s.Frame.Rows)),
		Empty:         s.Frame.Empty,
		Page:          s.Frame.Page.Page,
		TotalPages:    s.Frame.Page.TotalPages,
		Total:         s.Frame.Page.Total,
		Showing:       s.Frame.Page.Summary(),
		Filters:       s.Frame.State.Filters,
		Search:        s.Frame.State.Search,
		FilterSummary: s.FilterSummary,
		Alerts:        s.Alerts,
	}
	for _, row := range s.Frame.Rows {
		p.Rows = append(p.Rows, frameRow{ID: row.ID, Cells: row.Cells})
	}
	if s.Dashboard != nil {
		summary := s.Dashboard.Summary
		p.Summary = &summary
		p.Cards = s.Dashboard.Cards
	}
	return p
}

func (h *Handler) frameJSON(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	screen, err := ws.View(r.Context(), chi.URLParam(r, "screen"))
	if err != nil {
		h.respondScreenError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newFramePayload(screen))
}

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid form")
		return
	}
	name := chi.URLParam(r, "screen")
	cfg, err := screens.Config(name, nil)
	if err != nil {
		h.respondScreenError(w, ErrUnknownScreen)
		return
	}
	values := make(map[string]string)
	for _, f := range cfg.Filters {
		if _, present := r.PostForm[f.Key]; present {
			values[f.Key] = strings.TrimSpace(r.PostForm.Get(f.Key))
		}
	}
	if _, present := r.PostForm[tableview.SearchKey]; present && len(cfg.SearchFields) > 0 {
		values[tableview.SearchKey] = r.PostForm.Get(tableview.SearchKey)
	}
	h.mutate(w, r, func(ws *Workspace) (Screen, error) {
		return ws.SetFilters(r.Context(), name, values)
	})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "screen")
	h.mutate(w, r, func(ws *Workspace) (Screen, error) {
		return ws.Reset(r.Context(), name)
	})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "screen")
	move := strings.TrimSpace(r.PostFormValue("page"))
	h.mutate(w, r, func(ws *Workspace) (Screen, error) {
		return ws.Paginate(r.Context(), name, move)
	})
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "screen")
	h.mutate(w, r, func(ws *Workspace) (Screen, error) {
		return ws.Reload(r.Context(), name)
	})
}

// mutate applies fn and answers with the frame for script callers or a
// redirect back to the screen for form posts.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*Workspace) (Screen, error)) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	screen, err := fn(ws)
	if err != nil {
		h.respondScreenError(w, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, newFramePayload(screen))
		return
	}
	h.redirectWithAlerts(w, r, "/screens/"+screen.Name, screen.Alerts)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "screen")
	format := strings.ToLower(chi.URLParam(r, "format"))
	file, alerts, ok, err := ws.Export(r.Context(), name, format)
	if err != nil {
		h.respondScreenError(w, err)
		return
	}
	if !ok {
		if wantsJSON(r) {
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{"alerts": alerts})
			return
		}
		h.redirectWithAlerts(w, r, "/screens/"+name, alerts)
		return
	}
	httpx.Attachment(w, file.Name, file.ContentType, file.Data)
}

type notificationResult struct {
	OK     bool         `json:"ok"`
	Board  notify.Board `json:"board"`
	Alerts []string     `json:"alerts,omitempty"`
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ws.Board())
}

func (h *Handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "notification id required")
		return
	}
	board, alerts, done := ws.DeleteNotification(r.Context(), campusapi.ID(id))
	h.respondNotification(w, board, alerts, done)
}

func (h *Handler) clearNotifications(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	board, alerts, done := ws.ClearNotifications(r.Context())
	h.respondNotification(w, board, alerts, done)
}

func (h *Handler) respondNotification(w http.ResponseWriter, board notify.Board, alerts []string, done bool) {
	status := http.StatusOK
	if !done {
		status = http.StatusBadGateway
	}
	httpx.JSON(w, status, notificationResult{OK: done, Board: board, Alerts: alerts})
}

func (h *Handler) visibility(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	visible, err := strconv.ParseBool(strings.TrimSpace(r.PostFormValue("visible")))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "visible must be true or false")
		return
	}
	board := ws.SetVisible(r.Context(), visible)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"visible": visible,
		"polling": ws.PollState().String(),
		"board":   board,
	})
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"activities": ws.Activities()})
}

func (h *Handler) respondScreenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownScreen), errors.Is(err, ErrUnknownFormat):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("console request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, alerts []string, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)
	var flashes []shared.FlashMessage
	if sess != nil {
		flashes = sess.PopFlashes()
	}
	for _, msg := range alerts {
		flashes = append(flashes, shared.FlashMessage{Kind: shared.FlashError, Message: msg})
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flashes:     flashes,
		CurrentPath: r.URL.Path,
		Nav:         navItems(r.URL.Path),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithAlerts(w http.ResponseWriter, r *http.Request, location string, alerts []string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		for _, msg := range alerts {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: msg})
		}
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

var navTitles = map[string]string{
	screens.Logs:    "System Logs",
	screens.Visits:  "Visit Records",
	screens.Reports: "Reports",
}

func navItems(current string) []view.NavItem {
	items := []view.NavItem{{Label: "Dashboard", Path: "/", Active: current == "/"}}
	for _, name := range screens.Names() {
		path := "/screens/" + name
		items = append(items, view.NavItem{Label: navTitles[name], Path: path, Active: strings.HasPrefix(current, path)})
	}
	return items
}
