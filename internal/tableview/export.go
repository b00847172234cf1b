package tableview

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/report"
)

const (
	msgNothingToExport = "No records to export."
	msgExportFailed    = "Export failed. Please try again."
	msgPDFUnavailable  = "PDF export is not available right now."
)

// FilterSummary renders the caption placed above exported tables.
func (c Config) FilterSummary(s State) string {
	active := c.Active(s)
	if c.SummaryFunc != nil {
		return c.SummaryFunc(active)
	}
	if len(active) == 0 {
		if c.NoFilterText != "" {
			return c.NoFilterText
		}
		return "No filters applied."
	}
	parts := make([]string, len(active))
	for i, a := range active {
		parts[i] = a.Label + ": " + a.Value
	}
	return "Filters applied: " + strings.Join(parts, ", ")
}

func (c *Controller) filename(ext string) string {
	name := c.cfg.ExportName
	if c.cfg.TimestampSuffix {
		name += "_" + c.cfg.display().Stamp(c.now())
	}
	return name + "." + ext
}

// exportInput captures what an export needs under the lock so encoding can
// run without it.
type exportInput struct {
	filtered []record.Record
	summary  string
	extras   Extras
}

func (c *Controller) exportInput() (exportInput, bool) {
	c.mu.Lock()
	filtered := append([]record.Record(nil), c.filteredLocked()...)
	summary := c.cfg.FilterSummary(c.state)
	c.mu.Unlock()
	if len(filtered) == 0 {
		return exportInput{}, false
	}
	in := exportInput{filtered: filtered, summary: summary}
	if c.enricher != nil {
		in.extras = c.enricher.Extras(filtered)
	}
	return in, true
}

// CSV encodes the full filtered set. It returns false when nothing matches.
func (c *Controller) CSV() (File, bool, error) {
	in, ok := c.exportInput()
	if !ok {
		return File{}, false, nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	var rows [][]string
	if c.cfg.CSVTitle != "" {
		rows = append(rows, []string{c.cfg.CSVTitle})
	}
	rows = append(rows, []string{in.summary}, []string{})
	for _, section := range in.extras.Sections {
		if section.Title != "" {
			rows = append(rows, []string{section.Title})
		}
		rows = append(rows, section.Header)
		rows = append(rows, section.Rows...)
		rows = append(rows, []string{})
	}
	if c.cfg.DetailTitle != "" {
		rows = append(rows, []string{c.cfg.DetailTitle})
	}
	rows = append(rows, c.cfg.header())
	if err := w.WriteAll(rows); err != nil {
		return File{}, true, fmt.Errorf("tableview: encode csv: %w", err)
	}
	for _, r := range in.filtered {
		writeQuoted(&buf, c.cfg.cells(r))
	}
	return File{Name: c.filename("csv"), ContentType: "text/csv; charset=utf-8", Data: buf.Bytes()}, true, nil
}

// writeQuoted writes one record line with every field quoted and interior
// quotes doubled.
func writeQuoted(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// ExportCSV downloads the filtered set as CSV, alerting instead when there is
// nothing to export.
func (c *Controller) ExportCSV() bool {
	file, ok, err := c.CSV()
	return c.deliver(file, ok, err, "csv")
}

// Document builds the PDF document for the filtered set.
func (c *Controller) Document() (report.Document, bool) {
	in, ok := c.exportInput()
	if !ok {
		return report.Document{}, false
	}
	rows := make([][]string, len(in.filtered))
	for i, r := range in.filtered {
		rows[i] = c.cfg.cells(r)
	}
	return report.Document{
		Title:       c.cfg.Title,
		Subtitle:    in.summary,
		GeneratedAt: c.cfg.display().Time(c.now()),
		Summary:     in.extras.Sections,
		Images:      in.extras.Images,
		Detail:      report.Table{Title: c.cfg.DetailTitle, Header: c.cfg.header(), Rows: rows},
	}, true
}

// PDF renders the filtered set through the configured renderer.
func (c *Controller) PDF(ctx context.Context) (File, bool, error) {
	doc, ok := c.Document()
	if !ok {
		return File{}, false, nil
	}
	if c.pdf == nil {
		return File{}, true, report.ErrNotConfigured
	}
	data, err := c.pdf.Render(ctx, doc)
	if err != nil {
		return File{}, true, fmt.Errorf("tableview: render pdf: %w", err)
	}
	return File{Name: c.filename("pdf"), ContentType: "application/pdf", Data: data}, true, nil
}

// ExportPDF downloads the filtered set as PDF, alerting on empty input or
// renderer failure.
func (c *Controller) ExportPDF(ctx context.Context) bool {
	file, ok, err := c.PDF(ctx)
	return c.deliver(file, ok, err, "pdf")
}

func (c *Controller) deliver(file File, ok bool, err error, format string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !ok:
		c.view.Alert(msgNothingToExport)
		return false
	case err != nil:
		c.logger.Error("export failed", slog.String("format", format), slog.Any("error", err))
		if errors.Is(err, report.ErrNotConfigured) {
			c.view.Alert(msgPDFUnavailable)
		} else {
			c.view.Alert(msgExportFailed)
		}
		return false
	}
	c.logger.Info("export generated", slog.String("format", format), slog.String("file", file.Name), slog.Int("bytes", len(file.Data)))
	c.view.Download(file)
	return true
}
