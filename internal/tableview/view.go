package tableview

import "github.com/campuspass/campuspass-admin/internal/record"

// Row is one rendered table row.
type Row struct {
	ID     string
	Cells  []string
	Record record.Record
}

// File is a generated download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// View is the render target a controller drives. Implementations must not
// call back into the controller.
type View interface {
	RenderRows(rows []Row)
	RenderEmpty(message string)
	RenderPagination(info PageInfo)
	Alert(message string)
	Download(file File)
}

// Frame is the outcome of one render pass.
type Frame struct {
	Title   string
	Header  []string
	Rows    []Row
	Empty   string
	Page    PageInfo
	State   State
	Filters []Filter
	Search  bool
}

// RowCount is the number of table rows shown, counting the empty-state row.
func (f Frame) RowCount() int {
	if len(f.Rows) == 0 {
		return 1
	}
	return len(f.Rows)
}

// Selected returns the value chosen for key in this frame.
func (f Frame) Selected(key string) string { return f.State.Selected(key) }

// Recorder is a View that keeps the last thing rendered. It backs server
// rendered pages and tests.
type Recorder struct {
	Rows       []Row
	Empty      string
	Pagination PageInfo
	Alerts     []string
	Downloads  []File
}

// RenderRows implements View.
func (r *Recorder) RenderRows(rows []Row) {
	r.Rows = rows
	r.Empty = ""
}

// RenderEmpty implements View.
func (r *Recorder) RenderEmpty(message string) {
	r.Rows = nil
	r.Empty = message
}

// RenderPagination implements View.
func (r *Recorder) RenderPagination(info PageInfo) { r.Pagination = info }

// Alert implements View.
func (r *Recorder) Alert(message string) { r.Alerts = append(r.Alerts, message) }

// Download implements View.
func (r *Recorder) Download(file File) { r.Downloads = append(r.Downloads, file) }

// LastDownload returns the most recent download, if any.
func (r *Recorder) LastDownload() (File, bool) {
	if len(r.Downloads) == 0 {
		return File{}, false
	}
	return r.Downloads[len(r.Downloads)-1], true
}

// Discard is a View that drops everything.
type Discard struct{}

func (Discard) RenderRows([]Row)          {}
func (Discard) RenderEmpty(string)        {}
func (Discard) RenderPagination(PageInfo) {}
func (Discard) Alert(string)              {}
func (Discard) Download(File)             {}
