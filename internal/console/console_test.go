package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/notify"
	"github.com/campuspass/campuspass-admin/internal/poll"
	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/screens"
	"github.com/campuspass/campuspass-admin/internal/shared"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
	"github.com/campuspass/campuspass-admin/internal/view"
	"github.com/campuspass/campuspass-admin/report"
)

type fakeSnapshots struct {
	mu       sync.Mutex
	data     map[store.Kind][]record.Record
	loads    map[store.Kind]int
	fetchErr error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		data: map[store.Kind][]record.Record{
			store.KindLogs:   sampleLogs(30),
			store.KindVisits: sampleVisits(),
			store.KindStaff:  {{"first_name": "Ana", "last_name": "Cruz"}},
		},
		loads: make(map[store.Kind]int),
	}
}

func (f *fakeSnapshots) Load(_ context.Context, kind store.Kind) []record.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[kind]++
	return record.Clone(f.data[kind])
}

func (f *fakeSnapshots) Fetch(ctx context.Context, kind store.Kind) ([]record.Record, error) {
	f.mu.Lock()
	err := f.fetchErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Load(ctx, kind), nil
}

func (f *fakeSnapshots) failFetches(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeSnapshots) Reports(ctx context.Context) ([]record.Record, []record.Record) {
	return f.Load(ctx, store.KindVisits), f.Load(ctx, store.KindStaff)
}

func (f *fakeSnapshots) set(kind store.Kind, records []record.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[kind] = records
}

type fakeAPI struct {
	mu         sync.Mutex
	configured bool
	list       []campusapi.Notification
	activities []campusapi.Activity
	visits     []record.Record
	exportErr  error
	mutateErr  error
	fetches    int
}

func (f *fakeAPI) Configured() bool { return f.configured }

func (f *fakeAPI) Notifications(context.Context) ([]campusapi.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return append([]campusapi.Notification(nil), f.list...), nil
}

func (f *fakeAPI) DeleteNotification(_ context.Context, id campusapi.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	kept := f.list[:0]
	for _, n := range f.list {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	f.list = kept
	return nil
}

func (f *fakeAPI) ClearNotifications(context.Context, []campusapi.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.list = nil
	return nil
}

func (f *fakeAPI) RecentActivities(context.Context) ([]campusapi.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activities, nil
}

func (f *fakeAPI) ExportVisits(context.Context, campusapi.VisitQuery) ([]record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return record.Clone(f.visits), nil
}

type fakePDF struct{}

func (fakePDF) Render(context.Context, report.Document) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

type gauge struct {
	mu   sync.Mutex
	last int
}

func (g *gauge) SetWorkspaces(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func (g *gauge) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func sampleLogs(n int) []record.Record {
	logs := make([]record.Record, 0, n)
	for i := 1; i <= n; i++ {
		role := "Admin"
		if i%3 == 0 {
			role = "Staff"
		}
		logs = append(logs, record.Record{
			"log_id":      int64(i),
			"actor":       "admin1",
			"action_type": "Visitor Management",
			"description": fmt.Sprintf("entry %d", i),
			"actor_role":  role,
			"created_at":  "2025-11-07T20:00:00Z",
		})
	}
	return logs
}

func sampleVisits() []record.Record {
	return []record.Record{
		{"visit_id": int64(1), "user_id": int64(10), "visitor_name": "Ana Cruz", "status": "Completed", "visit_date": "2025-01-01", "purpose": "Meeting", "assigned_staff": "Ana Cruz"},
		{"visit_id": int64(2), "user_id": int64(11), "visitor_name": "Ben Lim", "status": "Upcoming", "visit_date": "2099-01-01", "purpose": "Tour"},
		{"visit_id": int64(3), "user_id": int64(10), "visitor_name": "Ana Cruz", "status": "Cancelled", "visit_date": "2025-02-10", "purpose": ""},
	}
}

var fixedNow = time.Date(2025, 11, 8, 2, 30, 0, 0, time.UTC)

func newDeps(snaps Snapshots, api API) Deps {
	return Deps{
		Snapshots:      snaps,
		API:            api,
		PDF:            fakePDF{},
		Display:        timefmt.Manila,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		NotifyInterval: time.Hour,
		Now:            func() time.Time { return fixedNow },
	}
}

func newTestRegistry(t *testing.T, snaps Snapshots, api API) *Registry {
	t.Helper()
	reg := NewRegistry(newDeps(snaps, api), time.Hour, nil)
	t.Cleanup(reg.Close)
	return reg
}

func TestLogsScreenFilterPaginateExport(t *testing.T) {
	ctx := context.Background()
	ws := newTestRegistry(t, newFakeSnapshots(), &fakeAPI{}).Get(ctx, "s1")

	screen, err := ws.View(ctx, screens.Logs)
	require.NoError(t, err)
	require.Len(t, screen.Frame.Rows, 25)
	assert.Equal(t, "30", screen.Frame.Rows[0].ID)
	assert.Equal(t, 2, screen.Frame.Page.TotalPages)

	screen, err = ws.Paginate(ctx, screens.Logs, "next")
	require.NoError(t, err)
	assert.Equal(t, 2, screen.Frame.Page.Page)
	assert.Len(t, screen.Frame.Rows, 5)

	screen, err = ws.Paginate(ctx, screens.Logs, "9")
	require.NoError(t, err)
	assert.Equal(t, 2, screen.Frame.Page.Page, "out of range pages are ignored")

	screen, err = ws.SetFilters(ctx, screens.Logs, map[string]string{"role": "Staff"})
	require.NoError(t, err)
	assert.Equal(t, 1, screen.Frame.Page.Page)
	assert.Len(t, screen.Frame.Rows, 10)
	assert.Equal(t, "Filters applied: Actor Role: Staff", screen.FilterSummary)

	file, alerts, ok, err := ws.Export(ctx, screens.Logs, FormatCSV)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, alerts)
	assert.Equal(t, "system_logs.csv", file.Name)
	assert.Equal(t, 10, strings.Count(string(file.Data), "Visitor Management"))

	_, err = ws.SetFilters(ctx, screens.Logs, map[string]string{"created": "2020-01-01"})
	require.NoError(t, err)
	_, alerts, ok, err = ws.Export(ctx, screens.Logs, FormatPDF)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"No records to export."}, alerts)

	screen, err = ws.Reset(ctx, screens.Logs)
	require.NoError(t, err)
	assert.Len(t, screen.Frame.Rows, 25)
	assert.Equal(t, "No filters applied; exporting all logs.", screen.FilterSummary)
}

func TestUnknownScreenAndFormat(t *testing.T) {
	ctx := context.Background()
	ws := newTestRegistry(t, newFakeSnapshots(), &fakeAPI{}).Get(ctx, "s1")

	_, err := ws.View(ctx, "badges")
	assert.ErrorIs(t, err, ErrUnknownScreen)
	_, _, _, err = ws.Export(ctx, screens.Logs, "xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestVisitSnapshotSource(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()

	offline := newTestRegistry(t, snaps, &fakeAPI{}).Get(ctx, "a")
	screen, err := offline.View(ctx, screens.Visits)
	require.NoError(t, err)
	assert.Len(t, screen.Frame.Rows, 3)

	api := &fakeAPI{configured: true, visits: sampleVisits()[:1]}
	online := newTestRegistry(t, snaps, api).Get(ctx, "b")
	screen, err = online.View(ctx, screens.Visits)
	require.NoError(t, err)
	assert.Len(t, screen.Frame.Rows, 1)

	failing := newTestRegistry(t, snaps, &fakeAPI{configured: true, exportErr: errors.New("offline")}).Get(ctx, "c")
	screen, err = failing.View(ctx, screens.Visits)
	require.NoError(t, err)
	assert.Empty(t, screen.Frame.Rows)
	assert.Equal(t, 1, screen.Frame.RowCount(), "empty state occupies one row")
}

func TestReloadKeepsFilters(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	ws := newTestRegistry(t, snaps, &fakeAPI{}).Get(ctx, "s1")

	_, err := ws.SetFilters(ctx, screens.Logs, map[string]string{"role": "Staff"})
	require.NoError(t, err)
	snaps.set(store.KindLogs, sampleLogs(6))
	screen, err := ws.Reload(ctx, screens.Logs)
	require.NoError(t, err)
	assert.Len(t, screen.Frame.Rows, 2)
	assert.Equal(t, "Staff", screen.Frame.Selected("role"))
}

func TestReloadFailureKeepsLastSnapshot(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{configured: true, visits: sampleVisits()}
	snaps := newFakeSnapshots()
	ws := newTestRegistry(t, snaps, api).Get(ctx, "s1")

	before, err := ws.View(ctx, screens.Visits)
	require.NoError(t, err)
	require.Len(t, before.Frame.Rows, 3)

	api.mu.Lock()
	api.exportErr = errors.New("connection reset")
	api.mu.Unlock()
	after, err := ws.Reload(ctx, screens.Visits)
	require.NoError(t, err)
	assert.Len(t, after.Frame.Rows, 3)
	assert.Empty(t, after.Frame.Empty)
	assert.Empty(t, after.Alerts)

	_, err = ws.SetFilters(ctx, screens.Logs, map[string]string{"role": "Staff"})
	require.NoError(t, err)
	snaps.failFetches(errors.New("postgres down"))
	logs, err := ws.Reload(ctx, screens.Logs)
	require.NoError(t, err)
	assert.Len(t, logs.Frame.Rows, 10)
	assert.Equal(t, "Staff", logs.Frame.Selected("role"))

	_, err = ws.View(ctx, screens.Reports)
	require.NoError(t, err)
	dash, err := ws.Reload(ctx, screens.Reports)
	require.NoError(t, err)
	require.NotNil(t, dash.Dashboard)
	assert.Equal(t, 3, dash.Dashboard.Summary.Visits)
}

func TestReportsDashboard(t *testing.T) {
	ctx := context.Background()
	ws := newTestRegistry(t, newFakeSnapshots(), &fakeAPI{}).Get(ctx, "s1")

	screen, err := ws.View(ctx, screens.Reports)
	require.NoError(t, err)
	require.NotNil(t, screen.Dashboard)
	first := screen.Dashboard.Charts
	require.Len(t, first, 3)
	assert.Equal(t, 3, screen.Dashboard.Summary.Visits)

	again, err := ws.View(ctx, screens.Reports)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, again.Dashboard.Charts[0].ID, "viewing does not re-render charts")

	screen, err = ws.SetFilters(ctx, screens.Reports, map[string]string{"status": "Expired"})
	require.NoError(t, err)
	assert.Empty(t, screen.Dashboard.Charts)
	for _, inst := range first {
		assert.True(t, inst.Disposed())
	}

	file, _, ok, err := ws.Export(ctx, screens.Reports, FormatPDF)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, file.Name)

	_, err = ws.Reset(ctx, screens.Reports)
	require.NoError(t, err)
	file, _, ok, err = ws.Export(ctx, screens.Reports, FormatPDF)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reports_20251108_103000.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.ContentType)
}

func TestNotificationsStartWithWorkspace(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		configured: true,
		list: []campusapi.Notification{
			{ID: "5", Title: "Staff Update", Message: "reset a password"},
			{ID: "6", Title: "Visitor Update", Message: "approved a visitor"},
		},
		activities: []campusapi.Activity{{ActionType: "Visitor Management", Description: "approved", Actor: "admin1"}},
	}
	ws := newTestRegistry(t, newFakeSnapshots(), api).Get(ctx, "s1")

	board := ws.Board()
	assert.True(t, board.BadgeVisible)
	assert.Equal(t, 2, board.BadgeCount)
	assert.Equal(t, poll.Polling, ws.PollState())
	require.Len(t, ws.Activities(), 1)
	assert.Equal(t, notify.IconVisitor, ws.Activities()[0].Icon)

	board, alerts, ok := ws.DeleteNotification(ctx, "5")
	require.True(t, ok)
	assert.Empty(t, alerts)
	assert.Equal(t, []campusapi.ID{"6"}, board.IDs())

	ws.SetVisible(ctx, false)
	assert.Equal(t, poll.Idle, ws.PollState())
	ws.SetVisible(ctx, true)
	assert.Equal(t, poll.Polling, ws.PollState())

	api.mu.Lock()
	api.mutateErr = errors.New("boom")
	api.mu.Unlock()
	board, alerts, ok = ws.ClearNotifications(ctx)
	assert.False(t, ok)
	assert.Equal(t, []string{notify.MsgClearFailed}, alerts)
	assert.Equal(t, 1, board.BadgeCount, "failed clear keeps the board")
}

func TestOfflineWorkspaceDoesNotPoll(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	ws := newTestRegistry(t, newFakeSnapshots(), api).Get(ctx, "s1")
	assert.Equal(t, poll.Idle, ws.PollState())
	assert.False(t, ws.Board().BadgeVisible)
	assert.Equal(t, notify.EmptyText, ws.Board().DropdownNote)
	ws.SetVisible(ctx, true)
	assert.Equal(t, poll.Idle, ws.PollState())
	assert.Zero(t, api.fetches)
}

func TestRegistrySweepsIdleWorkspaces(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	deps := newDeps(newFakeSnapshots(), &fakeAPI{configured: true})
	deps.Now = func() time.Time { return now }
	g := &gauge{}
	reg := NewRegistry(deps, 10*time.Minute, g)
	t.Cleanup(reg.Close)

	first := reg.Get(ctx, "a")
	reg.Get(ctx, "b")
	assert.Same(t, first, reg.Get(ctx, "a"))
	assert.Equal(t, 2, g.value())

	now = now.Add(6 * time.Minute)
	reg.Get(ctx, "a")
	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, g.value())
	assert.Equal(t, poll.Polling, first.PollState())

	assert.True(t, reg.Drop("a"))
	assert.False(t, reg.Drop("a"))
	assert.Equal(t, poll.Idle, first.PollState())
	assert.Equal(t, 0, g.value())
}

func TestPageViewKeepsLatest(t *testing.T) {
	v := &PageView{}
	v.Alert("one")
	v.Alert("two")
	assert.Equal(t, []string{"one", "two"}, v.TakeAlerts())
	assert.Nil(t, v.TakeAlerts())

	_, ok := v.TakeDownload()
	assert.False(t, ok)
	v.Download(tableview.File{Name: "a.csv"})
	v.Download(tableview.File{Name: "b.csv"})
	file, ok := v.TakeDownload()
	require.True(t, ok)
	assert.Equal(t, "b.csv", file.Name)

	v.RenderEmpty("No logs found")
	assert.Equal(t, "No logs found", v.Empty())
	assert.Nil(t, v.Rows())
}

// handler tests

type handlerFixture struct {
	router  http.Handler
	session *shared.Session
	api     *fakeAPI
}

func newHandlerFixture(t *testing.T, opts ...HandlerOption) *handlerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "campuspass_session", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	templates, err := view.NewEngine(timefmt.Manila)
	require.NoError(t, err)

	api := &fakeAPI{configured: true, list: []campusapi.Notification{{ID: "5", Title: "Staff Update", Message: "hello"}}, visits: sampleVisits()}
	reg := newTestRegistry(t, newFakeSnapshots(), api)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), reg, templates, shared.NewCSRFManager("secret"), opts...)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h.MountRoutes(r)
	return &handlerFixture{router: r, session: sess, api: api}
}

func (f *handlerFixture) do(method, target string, form url.Values, accept string) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerRendersScreen(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/screens/logs/", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "System Logs")
	assert.Contains(t, body, "Showing 1–25 of 30")
	assert.Contains(t, body, `name="csrf_token"`)

	rr = f.do(http.MethodGet, "/screens/badges/", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Staff Update")
}

func TestHandlerFilterRedirectsAndFrameReflectsState(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodPost, "/screens/logs/filter", url.Values{"role": {"Staff"}, "bogus": {"x"}}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/screens/logs", rr.Header().Get("Location"))

	rr = f.do(http.MethodGet, "/screens/logs/frame.json", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var frame framePayload
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &frame))
	assert.Equal(t, 10, frame.Total)
	assert.Equal(t, map[string]string{"role": "Staff", "created": "All"}, frame.Filters)
	assert.Equal(t, "Filters applied: Actor Role: Staff", frame.FilterSummary)

	rr = f.do(http.MethodPost, "/screens/logs/page", url.Values{"page": {"next"}}, "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &frame))
	assert.Equal(t, 1, frame.Page, "single page of results cannot advance")

	rr = f.do(http.MethodPost, "/screens/visits/filter", url.Values{"search": {"ben"}}, "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &frame))
	require.Len(t, frame.Rows, 1)
	want := []frameRow{{ID: "2", Cells: frame.Rows[0].Cells}}
	if diff := cmp.Diff(want, frame.Rows); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestHandlerExport(t *testing.T) {
	f := newHandlerFixture(t, WithExportLimit(2))

	rr := f.do(http.MethodGet, "/screens/logs/export/csv", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="system_logs.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))

	f.do(http.MethodPost, "/screens/logs/filter", url.Values{"created": {"2020-01-01"}}, "")
	rr = f.do(http.MethodGet, "/screens/logs/export/pdf", nil, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashError, Message: "No records to export."}}, f.session.PopFlashes())

	rr = f.do(http.MethodGet, "/screens/logs/export/csv", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestHandlerNotifications(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/notifications/", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var board notify.Board
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	assert.Equal(t, 1, board.BadgeCount)

	rr = f.do(http.MethodPost, "/notifications/5/delete", url.Values{}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var result notificationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.False(t, result.Board.BadgeVisible)

	f.api.mu.Lock()
	f.api.mutateErr = errors.New("boom")
	f.api.mu.Unlock()
	rr = f.do(http.MethodPost, "/notifications/clear", url.Values{}, "")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, []string{notify.MsgClearFailed}, result.Alerts)

	rr = f.do(http.MethodPost, "/notifications/visibility", url.Values{"visible": {"maybe"}}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(http.MethodPost, "/notifications/visibility", url.Values{"visible": {"false"}}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"polling":"idle"`)
}

func TestHandlerRequiresWorkspaceKey(t *testing.T) {
	f := newHandlerFixture(t, WithWorkspaceKey(func(*http.Request) string { return "" }))
	rr := f.do(http.MethodGet, "/activities", nil, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
