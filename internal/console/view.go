package console

import (
	"sync"

	"github.com/campuspass/campuspass-admin/internal/notify"
	"github.com/campuspass/campuspass-admin/internal/tableview"
)

// PageView is the render target of one screen inside a workspace. It keeps
// only the latest render and queues alerts and downloads until the next
// response picks them up.
type PageView struct {
	mu       sync.Mutex
	rows     []tableview.Row
	empty    string
	page     tableview.PageInfo
	alerts   []string
	download *tableview.File
	board    notify.Board
}

var (
	_ tableview.View  = (*PageView)(nil)
	_ notify.Renderer = (*PageView)(nil)
)

// RenderRows implements tableview.View.
func (v *PageView) RenderRows(rows []tableview.Row) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
	v.empty = ""
}

// RenderEmpty implements tableview.View.
func (v *PageView) RenderEmpty(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = nil
	v.empty = message
}

// RenderPagination implements tableview.View.
func (v *PageView) RenderPagination(info tableview.PageInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = info
}

// Alert implements tableview.View and notify.Renderer.
func (v *PageView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

// Download implements tableview.View. A newer download replaces one not yet
// collected.
func (v *PageView) Download(file tableview.File) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.download = &file
}

// RenderBoard implements notify.Renderer.
func (v *PageView) RenderBoard(b notify.Board) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.board = b
}

// Board returns the last rendered notification board.
func (v *PageView) Board() notify.Board {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.board
}

// Empty returns the empty-state message, blank while rows are shown.
func (v *PageView) Empty() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.empty
}

// Rows returns the rows of the last render.
func (v *PageView) Rows() []tableview.Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rows
}

// Pagination returns the last pagination info.
func (v *PageView) Pagination() tableview.PageInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// TakeAlerts drains queued alerts.
func (v *PageView) TakeAlerts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.alerts
	v.alerts = nil
	return out
}

// TakeDownload removes and returns the pending download.
func (v *PageView) TakeDownload() (tableview.File, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.download == nil {
		return tableview.File{}, false
	}
	file := *v.download
	v.download = nil
	return file, true
}
