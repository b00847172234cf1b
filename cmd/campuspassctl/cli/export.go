package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/natefinch/atomic"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/reports"
	"github.com/campuspass/campuspass-admin/internal/screens"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
)

// Exit codes shared by the commands.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitNoMatch = 10
)

// Snapshots loads the record sets an export runs over.
type Snapshots interface {
	Load(ctx context.Context, kind store.Kind) []record.Record
	Reports(ctx context.Context) (visits, staff []record.Record)
}

// ExportOptions configures one headless export.
type ExportOptions struct {
	Profile   Profile
	Snapshots Snapshots
	PDF       tableview.PDFRenderer
	Display   *timefmt.Display
	Logger    *slog.Logger
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
}

// ExportResult is printed after a successful export.
type ExportResult struct {
	Screen  string `json:"screen"`
	Format  string `json:"format"`
	Path    string `json:"path"`
	Records int    `json:"records"`
	Bytes   int    `json:"bytes"`
	Summary string `json:"summary"`
}

// ExportCommand runs the screen's filter pipeline over the snapshots and
// writes the filtered set the same way the dashboard download does.
func ExportCommand(ctx context.Context, opts ExportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Display == nil {
		opts.Display = timefmt.Manila
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Snapshots == nil {
		fmt.Fprintln(opts.Stderr, "export: no snapshot source")
		return ExitError
	}
	p := opts.Profile
	if p.Format == "" {
		p.Format = "csv"
	}
	if p.Format != "csv" && p.Format != "pdf" {
		fmt.Fprintf(opts.Stderr, "export: invalid --format %q (expected csv or pdf)\n", p.Format)
		return ExitError
	}

	ctrl, err := buildController(ctx, p.Screen, opts)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "export: %v\n", err)
		return ExitError
	}
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !ctrl.SetFilter(k, p.Filters[k]) {
			fmt.Fprintf(opts.Stderr, "export: screen %s has no filter %q\n", p.Screen, k)
			return ExitError
		}
	}
	if p.Search != "" {
		ctrl.SetFilter(tableview.SearchKey, p.Search)
	}

	var (
		file tableview.File
		ok   bool
	)
	if p.Format == "pdf" {
		file, ok, err = ctrl.PDF(ctx)
	} else {
		file, ok, err = ctrl.CSV()
	}
	if !ok {
		fmt.Fprintln(opts.Stderr, "export: no records match the filters")
		return ExitNoMatch
	}
	if err != nil {
		fmt.Fprintf(opts.Stderr, "export: %v\n", err)
		return ExitError
	}

	path, err := writeFile(p.Output, file, opts.Stdout)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "export: %v\n", err)
		return ExitError
	}
	if path == "-" {
		return ExitOK
	}
	result := ExportResult{
		Screen:  p.Screen,
		Format:  p.Format,
		Path:    path,
		Records: len(ctrl.Filtered()),
		Bytes:   len(file.Data),
		Summary: ctrl.Config().FilterSummary(ctrl.State()),
	}
	enc := json.NewEncoder(opts.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(opts.Stderr, "export: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func buildController(ctx context.Context, name string, opts ExportOptions) (*tableview.Controller, error) {
	cfg, err := screens.Config(name, opts.Display)
	if err != nil {
		return nil, err
	}
	tvOpts := []tableview.Option{tableview.WithLogger(opts.Logger)}
	if opts.PDF != nil {
		tvOpts = append(tvOpts, tableview.WithPDFRenderer(opts.PDF))
	}
	if opts.Now != nil {
		tvOpts = append(tvOpts, tableview.WithClock(opts.Now))
	}
	switch cfg.Name {
	case screens.Reports:
		visits, staff := opts.Snapshots.Reports(ctx)
		screen, err := reports.NewScreen(cfg, visits, staff, tableview.Discard{}, opts.Logger, tvOpts...)
		if err != nil {
			return nil, err
		}
		return screen.Controller(), nil
	case screens.Visits:
		return tableview.New(cfg, opts.Snapshots.Load(ctx, store.KindVisits), tableview.Discard{}, tvOpts...)
	default:
		return tableview.New(cfg, opts.Snapshots.Load(ctx, store.KindLogs), tableview.Discard{}, tvOpts...)
	}
}

// writeFile places the export at output. "-" streams to stdout, a directory
// receives the generated file name, anything else is the target path. Files
// are replaced atomically.
func writeFile(output string, file tableview.File, stdout io.Writer) (string, error) {
	if output == "-" {
		_, err := stdout.Write(file.Data)
		return output, err
	}
	path := output
	if path == "" {
		path = file.Name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, file.Name)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(file.Data)); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
