package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/poll"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// User-visible failure messages for mutations.
const (
	MsgDeleteFailed = "Failed to delete notification. Please try again."
	MsgClearFailed  = "Failed to clear notifications. Please try again."
)

// API is the slice of the CampusPass client the poller needs.
type API interface {
	Notifications(ctx context.Context) ([]campusapi.Notification, error)
	DeleteNotification(ctx context.Context, id campusapi.ID) error
	ClearNotifications(ctx context.Context, ids []campusapi.ID) error
}

// Renderer receives every new board and user-facing alerts.
type Renderer interface {
	RenderBoard(b Board)
	Alert(message string)
}

// Config tunes a Poller.
type Config struct {
	Interval time.Duration
	// SendIDs makes ClearAll send the ids currently shown instead of asking
	// the server to clear everything.
	SendIDs  bool
	Display  *timefmt.Display
	Logger   *slog.Logger
	Observer poll.Observer
}

// Poller owns the notification timer and the rendered board.
type Poller struct {
	api      API
	renderer Renderer
	display  *timefmt.Display
	logger   *slog.Logger
	sendIDs  bool
	loop     *poll.Loop

	seq atomic.Uint64
	// publishMu orders installs with their renders so the renderer always
	// ends on the installed board.
	publishMu sync.Mutex
	mu        sync.Mutex
	board     Board
}

// NewPoller creates an idle poller with an empty board.
func NewPoller(api API, renderer Renderer, cfg Config) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = &Recorder{}
	}
	p := &Poller{
		api:      api,
		renderer: renderer,
		display:  cfg.Display,
		logger:   logger,
		sendIDs:  cfg.SendIDs,
	}
	p.board = newBoard(0, nil)
	opts := []poll.Option{poll.WithLogger(logger)}
	if cfg.Observer != nil {
		opts = append(opts, poll.WithObserver(cfg.Observer))
	}
	p.loop = poll.New("notifications", cfg.Interval, p.FetchAndRender, opts...)
	return p
}

// Board returns the current board.
func (p *Poller) Board() Board {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.board
}

// State reports the timer state.
func (p *Poller) State() poll.State { return p.loop.State() }

// Start schedules polling. Calling it while running is a no-op.
func (p *Poller) Start(ctx context.Context) bool { return p.loop.Start(ctx) }

// Stop cancels polling. Calling it while idle is a no-op.
func (p *Poller) Stop() bool { return p.loop.Stop() }

// SetVisible pauses while hidden and refreshes at once on becoming visible.
func (p *Poller) SetVisible(ctx context.Context, visible bool) { p.loop.SetVisible(ctx, visible) }

// Refresh fetches once through the loop so the outcome is logged and observed.
func (p *Poller) Refresh(ctx context.Context) { p.loop.Poll(ctx) }

// FetchAndRender replaces the board from a fresh server snapshot. On failure
// the previous board stays and the error is returned for logging only.
func (p *Poller) FetchAndRender(ctx context.Context) error {
	list, err := p.api.Notifications(ctx)
	if err != nil {
		return err
	}
	b := newBoard(p.seq.Add(1), toItems(list, p.display))
	p.publish(func(Board) Board { return b })
	return nil
}

// DeleteOne dismisses id, drops it from the board immediately and then
// reconciles with one fresh fetch.
func (p *Poller) DeleteOne(ctx context.Context, id campusapi.ID) bool {
	if err := p.api.DeleteNotification(ctx, id); err != nil {
		p.logger.Error("delete notification", slog.String("id", id.String()), slog.Any("error", err))
		p.renderer.Alert(MsgDeleteFailed)
		return false
	}
	p.publish(func(current Board) Board { return current.without(p.seq.Add(1), id) })

	p.Refresh(ctx)
	return true
}

// ClearAll dismisses everything shown and empties every target.
func (p *Poller) ClearAll(ctx context.Context) bool {
	var ids []campusapi.ID
	if p.sendIDs {
		ids = p.Board().IDs()
	}
	if err := p.api.ClearNotifications(ctx, ids); err != nil {
		p.logger.Error("clear notifications", slog.Int("ids", len(ids)), slog.Any("error", err))
		p.renderer.Alert(MsgClearFailed)
		return false
	}
	p.publish(func(Board) Board { return newBoard(p.seq.Add(1), nil) })
	return true
}

// publish installs the board built from the current one unless a newer board
// already landed, then renders it before any other publish can proceed.
func (p *Poller) publish(build func(current Board) Board) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	p.mu.Lock()
	b := build(p.board)
	if b.Version < p.board.Version {
		p.mu.Unlock()
		return
	}
	p.board = b
	p.mu.Unlock()
	p.renderer.RenderBoard(b)
}

// Recorder keeps the latest board and alerts.
type Recorder struct {
	mu     sync.Mutex
	boards []Board
	alerts []string
}

// RenderBoard implements Renderer.
func (r *Recorder) RenderBoard(b Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards = append(r.boards, b)
}

// Alert implements Renderer.
func (r *Recorder) Alert(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, message)
}

// Last returns the most recent board.
func (r *Recorder) Last() (Board, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.boards) == 0 {
		return Board{}, false
	}
	return r.boards[len(r.boards)-1], true
}

// Boards returns every rendered board.
func (r *Recorder) Boards() []Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Board(nil), r.boards...)
}

// Alerts drains the recorded alerts.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.alerts
	r.alerts = nil
	return out
}
