package tableview

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/report"
)

func testConfig() Config {
	return Config{
		Name:  "logs",
		Title: "System Logs",
		Columns: []Column{
			{Key: "id", Label: "ID"},
			{Key: "role", Label: "Role"},
			{Key: "note", Label: "Note", Placeholder: "-"},
			{Key: "created_at", Label: "Created", Timestamp: true},
		},
		Filters: []Filter{
			{Key: "role", Label: "Role", Field: "role", Options: []string{"Admin", "Staff"}},
			{Key: "date", Label: "Date", Field: "created_at", Kind: FilterDay},
		},
		SearchFields: []string{"role", "note"},
		PageSize:     3,
		IDField:      "id",
		SortField:    "id",
		ExportName:   "logs",
	}
}

func makeRecords(n int) []record.Record {
	rows := make([]record.Record, n)
	for i := range rows {
		role := "Admin"
		if i%2 == 1 {
			role = "Staff"
		}
		rows[i] = record.Record{
			"id":         i + 1,
			"role":       role,
			"note":       fmt.Sprintf("entry %d", i+1),
			"created_at": "2025-11-08T01:00:00Z",
		}
	}
	return rows
}

func newTestController(t *testing.T, cfg Config, rows []record.Record, opts ...Option) (*Controller, *Recorder) {
	t.Helper()
	view := &Recorder{}
	ctrl, err := New(cfg, rows, view, opts...)
	require.NoError(t, err)
	return ctrl, view
}

func TestRenderRowCountMatchesPageSlice(t *testing.T) {
	cases := []struct {
		name   string
		filter string
		value  string
		page   int
		want   int
	}{
		{name: "first page full", page: 1, want: 3},
		{name: "last page partial", page: 4, want: 1},
		{name: "role filter", filter: "role", value: "Staff", page: 2, want: 2},
		{name: "no match renders empty row", filter: "role", value: "Visitor", page: 1, want: 1},
		{name: "search", filter: SearchKey, value: "ENTRY 1", page: 1, want: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl, _ := newTestController(t, testConfig(), makeRecords(10))
			if tc.filter != "" {
				require.True(t, ctrl.SetFilter(tc.filter, tc.value))
			}
			if tc.page > 1 {
				require.True(t, ctrl.SetPage(tc.page))
			}
			frame := ctrl.Render()
			assert.Equal(t, tc.want, frame.RowCount())

			filtered := len(ctrl.Filtered())
			if filtered > 0 {
				assert.Equal(t, min(3, filtered-(frame.Page.Page-1)*3), len(frame.Rows))
			} else {
				assert.Empty(t, frame.Rows)
				assert.NotEmpty(t, frame.Empty)
			}
		})
	}
}

func TestSetFilterResetsPage(t *testing.T) {
	ctrl, view := newTestController(t, testConfig(), makeRecords(10))
	require.True(t, ctrl.SetPage(3))
	assert.Equal(t, 3, ctrl.Page())

	require.True(t, ctrl.SetFilter("role", "Admin"))
	assert.Equal(t, 1, ctrl.Page())
	assert.Equal(t, 2, view.Pagination.TotalPages)
	assert.Equal(t, "Showing 1–3 of 5", view.Pagination.Summary())

	require.True(t, ctrl.SetPage(2))
	require.True(t, ctrl.SetFilter(SearchKey, "entry"))
	assert.Equal(t, 1, ctrl.Page())
}

func TestSetPageRejectsOutOfRange(t *testing.T) {
	ctrl, view := newTestController(t, testConfig(), makeRecords(9))
	require.True(t, ctrl.SetPage(2))

	assert.False(t, ctrl.SetPage(999))
	assert.Equal(t, 2, ctrl.Page())
	assert.Equal(t, 2, view.Pagination.Page)
	assert.False(t, ctrl.SetPage(0))
	assert.Equal(t, 2, ctrl.Page())
	assert.Empty(t, view.Alerts)

	require.True(t, ctrl.Next())
	assert.False(t, ctrl.Next())
	assert.Equal(t, 3, ctrl.Page())
	require.True(t, ctrl.Prev())
	assert.Equal(t, 2, ctrl.Page())
}

func TestEmptyStateDistinguishesNoDataFromNoMatch(t *testing.T) {
	cfg := testConfig()
	cfg.EmptyText = "No logs yet."
	cfg.NoMatchText = "No logs match."

	_, view := newTestController(t, cfg, nil)
	assert.Equal(t, "No logs yet.", view.Empty)
	assert.Equal(t, "Showing 0 of 0", view.Pagination.Summary())
	assert.False(t, view.Pagination.HasPrev())
	assert.False(t, view.Pagination.HasNext())

	ctrl, view := newTestController(t, cfg, makeRecords(2))
	ctrl.SetFilter("role", "Nobody")
	assert.Equal(t, "No logs match.", view.Empty)
}

func TestUnknownFilterKeyIgnored(t *testing.T) {
	ctrl, _ := newTestController(t, testConfig(), makeRecords(4))
	require.True(t, ctrl.SetPage(2))
	assert.False(t, ctrl.SetFilter("colour", "red"))
	assert.Equal(t, 2, ctrl.Page())
}

func TestDayFilterUsesDisplayZone(t *testing.T) {
	rows := []record.Record{
		{"id": 1, "role": "Admin", "created_at": "2025-11-08T23:00:00"},
		{"id": 2, "role": "Admin", "created_at": "2025-11-07T20:00:00Z"},
		{"id": 3, "role": "Admin", "created_at": "2025-11-07T10:00:00Z"},
	}
	ctrl, _ := newTestController(t, testConfig(), rows)
	ctrl.SetFilter("date", "2025-11-08")

	var ids []string
	for _, r := range ctrl.Filtered() {
		ids = append(ids, r.Text("id"))
	}
	assert.Equal(t, []string{"1", "2"}, ids)

	ctrl.SetFilter("date", "not-a-day")
	assert.Empty(t, ctrl.Filtered())
}

func TestPendingStatusBypassesDateFilters(t *testing.T) {
	cfg := testConfig()
	cfg.Filters = []Filter{
		{Key: "date", Label: "Date", Field: "visit_date", Kind: FilterDay},
		{Key: "from", Label: "From", Field: "visit_date", Kind: FilterFrom},
		{Key: "to", Label: "To", Field: "visit_date", Kind: FilterTo},
	}
	cfg.StatusField = "status"
	cfg.PendingStatuses = []string{"Upcoming"}
	rows := []record.Record{
		{"id": 1, "status": "Completed", "visit_date": "2025-01-01"},
		{"id": 2, "status": "Upcoming", "visit_date": "2099-01-01"},
		{"id": 3, "status": "Completed", "visit_date": "2025-03-01"},
	}
	ctrl, _ := newTestController(t, cfg, rows)

	ctrl.SetFilter("date", "2025-01-01")
	assert.Len(t, ctrl.Filtered(), 2)

	ctrl.SetFilter("date", All)
	ctrl.SetFilter("from", "2025-02-01")
	ctrl.SetFilter("to", "2025-03-01")
	var ids []string
	for _, r := range ctrl.Filtered() {
		ids = append(ids, r.Text("id"))
	}
	assert.Equal(t, []string{"2", "3"}, ids)
}

func TestExportCSVCoversWholeFilteredSet(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 11, 8, 2, 30, 0, 0, time.UTC) }
	cfg := testConfig()
	cfg.TimestampSuffix = true
	ctrl, view := newTestController(t, cfg, makeRecords(10), WithClock(clock))
	ctrl.SetFilter("role", "Admin")
	require.True(t, ctrl.SetPage(2))

	require.True(t, ctrl.ExportCSV())
	file, ok := view.LastDownload()
	require.True(t, ok)
	assert.Equal(t, "logs_20251108_103000.csv", file.Name)

	reader := csv.NewReader(bytes.NewReader(file.Data))
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 1+1+5)
	assert.Equal(t, []string{"Filters applied: Role: Admin"}, lines[0])
	assert.Equal(t, []string{"ID", "Role", "Note", "Created"}, lines[1])
	assert.Equal(t, "Nov 08, 2025 09:00 AM", lines[2][3])
}

func TestExportCSVQuotesValues(t *testing.T) {
	rows := []record.Record{{"id": 1, "role": "Admin", "note": `He said "hi", then left`, "created_at": ""}}
	ctrl, view := newTestController(t, testConfig(), rows)
	require.True(t, ctrl.ExportCSV())
	file, _ := view.LastDownload()

	assert.Contains(t, string(file.Data), "ID,Role,Note,Created\n")
	assert.Contains(t, string(file.Data), `"1","Admin","He said ""hi"", then left","-"`+"\n")
	reader := csv.NewReader(bytes.NewReader(file.Data))
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `He said "hi", then left`, lines[len(lines)-1][2])
	assert.Equal(t, "-", lines[len(lines)-1][3])
}

func TestExportEmptyAlerts(t *testing.T) {
	ctrl, view := newTestController(t, testConfig(), makeRecords(3))
	ctrl.SetFilter("role", "Visitor")

	assert.False(t, ctrl.ExportCSV())
	assert.False(t, ctrl.ExportPDF(context.Background()))
	assert.Empty(t, view.Downloads)
	assert.Equal(t, []string{msgNothingToExport, msgNothingToExport}, view.Alerts)
}

type stubPDF struct {
	doc report.Document
	err error
}

func (s *stubPDF) Render(_ context.Context, doc report.Document) ([]byte, error) {
	s.doc = doc
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7"), nil
}

func TestExportPDFBuildsDocument(t *testing.T) {
	pdf := &stubPDF{}
	enricher := EnricherFunc(func(filtered []record.Record) Extras {
		return Extras{Sections: []report.Table{{Title: "Summary", Header: []string{"Total"}, Rows: [][]string{{fmt.Sprint(len(filtered))}}}}}
	})
	ctrl, view := newTestController(t, testConfig(), makeRecords(7), WithPDFRenderer(pdf), WithEnricher(enricher))
	ctrl.SetFilter(SearchKey, "staff")

	require.True(t, ctrl.ExportPDF(context.Background()))
	file, _ := view.LastDownload()
	assert.Equal(t, "logs.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "Filters applied: Search: staff", pdf.doc.Subtitle)
	assert.Len(t, pdf.doc.Detail.Rows, 3)
	assert.Equal(t, [][]string{{"3"}}, pdf.doc.Summary[0].Rows)
}

func TestExportPDFFailureAlerts(t *testing.T) {
	ctrl, view := newTestController(t, testConfig(), makeRecords(2), WithPDFRenderer(&stubPDF{err: errors.New("boom")}))
	assert.False(t, ctrl.ExportPDF(context.Background()))
	assert.Equal(t, []string{msgExportFailed}, view.Alerts)

	ctrl, view = newTestController(t, testConfig(), makeRecords(2))
	assert.False(t, ctrl.ExportPDF(context.Background()))
	assert.Equal(t, []string{msgPDFUnavailable}, view.Alerts)
}

func TestFilterSummaryOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.NoFilterText = "All records"
	assert.Equal(t, "All records", cfg.FilterSummary(newState(cfg)))

	cfg.SummaryFunc = func(active []ActiveFilter) string {
		parts := make([]string, len(active))
		for i, a := range active {
			parts[i] = a.Key + "=" + a.Value
		}
		return strings.Join(parts, "&")
	}
	state := newState(cfg)
	state.Filters["role"] = "Staff"
	state.Search = " x "
	assert.Equal(t, "role=Staff&search=x", cfg.FilterSummary(state))
}

func TestReplaceClampsPage(t *testing.T) {
	ctrl, _ := newTestController(t, testConfig(), makeRecords(9))
	require.True(t, ctrl.SetPage(3))
	frame := ctrl.Replace(makeRecords(4))
	assert.Equal(t, 2, frame.Page.Page)
	assert.Equal(t, "Showing 4–4 of 4", frame.Page.Summary())
}

func TestConfigValidation(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 0
	_, err := New(cfg, nil, nil)
	require.Error(t, err)

	cfg = testConfig()
	cfg.Filters = append(cfg.Filters, Filter{Key: SearchKey, Label: "Search", Field: "note"})
	_, err = New(cfg, nil, nil)
	require.Error(t, err)
}
