package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/report"
)

type stubSnapshots struct {
	logs   []record.Record
	visits []record.Record
}

func (s stubSnapshots) Load(_ context.Context, kind store.Kind) []record.Record {
	if kind == store.KindLogs {
		return record.Clone(s.logs)
	}
	return record.Clone(s.visits)
}

func (s stubSnapshots) Reports(context.Context) ([]record.Record, []record.Record) {
	return record.Clone(s.visits), nil
}

func sampleSnapshots() stubSnapshots {
	return stubSnapshots{logs: []record.Record{
		{"log_id": 1, "actor": "admin:1", "action_type": "LOGIN", "description": "signed in", "actor_role": "Admin", "created_at": "2025-11-07 09:00:00"},
		{"log_id": 2, "actor": "staff:4", "action_type": "APPROVE", "description": "approved visit", "actor_role": "Staff", "created_at": "2025-11-07 10:00:00"},
		{"log_id": 3, "actor": "admin:1", "action_type": "LOGOUT", "description": "signed out", "actor_role": "Admin", "created_at": "2025-11-08 11:00:00"},
	}}
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

func fixedClock() time.Time { return time.Date(2025, 11, 8, 2, 30, 0, 0, time.UTC) }

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte("screen: Logs\nformat: CSV\nfilters:\n  role: Admin\n"))
	require.NoError(t, err)
	assert.Equal(t, "logs", p.Screen)
	assert.Equal(t, "csv", p.Format)
	assert.Equal(t, map[string]string{"role": "Admin"}, p.Filters)

	_, err = ParseProfile([]byte("screen: logs\nfilter:\n  role: Admin\n"))
	assert.Error(t, err, "misspelt keys are rejected")
}

func TestProfileMergeOverridesFields(t *testing.T) {
	base := Profile{Screen: "logs", Format: "csv", Filters: map[string]string{"role": "Admin", "created": "2025-11-07"}}
	merged := base.merge(Profile{Format: "pdf", Filters: map[string]string{"role": "Staff"}})
	assert.Equal(t, "logs", merged.Screen)
	assert.Equal(t, "pdf", merged.Format)
	assert.Equal(t, map[string]string{"role": "Staff", "created": "2025-11-07"}, merged.Filters)
	assert.Equal(t, "Admin", base.Filters["role"], "merge leaves the base untouched")
}

func TestExportCommandWritesFilteredCSV(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := ExportCommand(context.Background(), ExportOptions{
		Profile:   Profile{Screen: "logs", Filters: map[string]string{"role": "Admin"}, Output: dir},
		Snapshots: sampleSnapshots(),
		Now:       fixedClock,
		Stdout:    stdout,
		Stderr:    stderr,
	})
	require.Equal(t, ExitOK, code, stderr.String())

	var result ExportResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, filepath.Join(dir, "system_logs.csv"), result.Path)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "Actor Role: Admin")
	assert.Contains(t, body, "LOGOUT")
	assert.NotContains(t, body, "APPROVE")
	assert.Equal(t, len(data), result.Bytes)
}

func TestExportCommandNoMatch(t *testing.T) {
	dir := t.TempDir()
	stderr := new(bytes.Buffer)
	code := ExportCommand(context.Background(), ExportOptions{
		Profile:   Profile{Screen: "logs", Filters: map[string]string{"role": "Visitor"}, Output: dir},
		Snapshots: sampleSnapshots(),
		Stdout:    new(bytes.Buffer),
		Stderr:    stderr,
	})
	assert.Equal(t, ExitNoMatch, code)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportCommandRejectsBadInput(t *testing.T) {
	cases := map[string]Profile{
		"unknown filter": {Screen: "logs", Filters: map[string]string{"colour": "red"}},
		"unknown screen": {Screen: "staff"},
		"bad format":     {Screen: "logs", Format: "xlsx"},
	}
	for name, profile := range cases {
		t.Run(name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			code := ExportCommand(context.Background(), ExportOptions{
				Profile:   profile,
				Snapshots: sampleSnapshots(),
				Stdout:    new(bytes.Buffer),
				Stderr:    stderr,
			})
			assert.Equal(t, ExitError, code)
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestExportCommandPDF(t *testing.T) {
	pdf := &stubPDF{}
	stdout := new(bytes.Buffer)
	code := ExportCommand(context.Background(), ExportOptions{
		Profile:   Profile{Screen: "logs", Format: "pdf", Output: "-"},
		Snapshots: sampleSnapshots(),
		PDF:       pdf,
		Now:       fixedClock,
		Stdout:    stdout,
		Stderr:    new(bytes.Buffer),
	})
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "%PDF-1.7", stdout.String())
	assert.Equal(t, "System Logs", pdf.doc.Title)
	assert.Len(t, pdf.doc.Detail.Rows, 3)

	failing := &stubPDF{err: errors.New("gotenberg down")}
	code = ExportCommand(context.Background(), ExportOptions{
		Profile:   Profile{Screen: "logs", Format: "pdf", Output: "-"},
		Snapshots: sampleSnapshots(),
		PDF:       failing,
		Stdout:    new(bytes.Buffer),
		Stderr:    new(bytes.Buffer),
	})
	assert.Equal(t, ExitError, code)
}

func TestScreensCommandListsFilters(t *testing.T) {
	out := new(bytes.Buffer)
	require.Equal(t, ExitOK, ScreensCommand(out, nil))
	listing := out.String()
	assert.Contains(t, listing, "logs")
	assert.Contains(t, listing, "Admin,Staff,Visitor")
	assert.Contains(t, listing, tableview.SearchKey)
}

type stubJobs struct {
	invalidate bool
	closed     bool
}

func (s *stubJobs) Warmup(_ context.Context, invalidate bool) (*asynq.TaskInfo, error) {
	s.invalidate = invalidate
	return &asynq.TaskInfo{ID: "task-1", Queue: "default"}, nil
}

func (s *stubJobs) InspectQueue(context.Context) (QueueStats, error) {
	return QueueStats{Queue: "default", Pending: 2}, nil
}

func (s *stubJobs) Close() error {
	s.closed = true
	return nil
}

func TestRunnerExportWithProfile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "admins.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("screen: logs\nfilters:\n  role: Admin\n"), 0o600))

	var closed bool
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	runner := Runner{
		Stdout: stdout,
		Stderr: stderr,
		Now:    fixedClock,
		OpenSnapshots: func(context.Context, string, string) (Snapshots, func(), error) {
			return sampleSnapshots(), func() { closed = true }, nil
		},
	}
	code := runner.Run(context.Background(), []string{"export", "--profile", profile, "--filter", "role=Staff", "-o", "-"})
	require.Equal(t, ExitOK, code, stderr.String())
	assert.True(t, closed)
	assert.Contains(t, stdout.String(), "APPROVE")
	assert.NotContains(t, stdout.String(), "LOGIN")
}

func TestRunnerWarmupAndQueue(t *testing.T) {
	jobs := &stubJobs{}
	stdout := new(bytes.Buffer)
	runner := Runner{
		Stdout:   stdout,
		Stderr:   new(bytes.Buffer),
		OpenJobs: func(string) Jobs { return jobs },
	}
	require.Equal(t, ExitOK, runner.Run(context.Background(), []string{"warmup", "--invalidate"}))
	assert.True(t, jobs.invalidate)
	assert.True(t, jobs.closed)
	assert.Contains(t, stdout.String(), "task-1")

	stdout.Reset()
	require.Equal(t, ExitOK, runner.Run(context.Background(), []string{"queue"}))
	var stats QueueStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, 2, stats.Pending)
}

func TestRunnerUsage(t *testing.T) {
	stderr := new(bytes.Buffer)
	runner := Runner{Stdout: new(bytes.Buffer), Stderr: stderr}
	assert.Equal(t, ExitError, runner.Run(context.Background(), nil))
	assert.Equal(t, ExitError, runner.Run(context.Background(), []string{"deploy"}))
	assert.True(t, strings.Contains(stderr.String(), "unknown command"))
	assert.Equal(t, ExitError, runner.Run(context.Background(), []string{"export"}), "screen is required")
}
