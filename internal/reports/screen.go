package reports

import (
	"log/slog"
	"sync"

	"github.com/campuspass/campuspass-admin/internal/chart"
	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/report"
)

// Dashboard is everything the reports screen shows for one filter state.
type Dashboard struct {
	Frame   tableview.Frame
	Summary Summary
	Cards   []Card
	Charts  []*chart.Instance
}

// Screen couples the visit table controller with the summary counters and
// chart slots. Every filter change re-renders the charts, disposing the
// previous instances first.
type Screen struct {
	ctrl   *tableview.Controller
	charts ChartSet
	slots  []*chart.Slot
	logger *slog.Logger

	mu sync.Mutex
}

// NewScreen builds the reports screen over a visit snapshot and staff roster.
func NewScreen(cfg tableview.Config, visits, staff []record.Record, view tableview.View, logger *slog.Logger, opts ...tableview.Option) (*Screen, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Screen{
		charts: ChartSet{Display: cfg.Display, Staff: staff},
		slots: []*chart.Slot{
			chart.NewSlot(TrendsTitle),
			chart.NewSlot(PurposeTitle),
			chart.NewSlot(StaffTitle),
		},
		logger: logger,
	}
	opts = append(opts, tableview.WithLogger(logger), tableview.WithEnricher(tableview.EnricherFunc(s.extras)))
	ctrl, err := tableview.New(cfg, visits, view, opts...)
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl
	return s, nil
}

// Controller exposes the underlying table controller.
func (s *Screen) Controller() *tableview.Controller { return s.ctrl }

// Slots returns the chart slots in display order.
func (s *Screen) Slots() []*chart.Slot { return s.slots }

// SetFilter applies a filter and refreshes counters and charts.
func (s *Screen) SetFilter(key, value string) (Dashboard, bool) {
	ok := s.ctrl.SetFilter(key, value)
	return s.Refresh(), ok
}

// Replace swaps the visit snapshot and refreshes.
func (s *Screen) Replace(visits []record.Record) Dashboard {
	s.ctrl.Replace(visits)
	return s.Refresh()
}

// Reset clears every filter and refreshes.
func (s *Screen) Reset() Dashboard {
	s.ctrl.Reset()
	return s.Refresh()
}

// SetPage moves the visit table. Counters and charts do not depend on the
// page so they are left in place.
func (s *Screen) SetPage(n int) (Dashboard, bool) {
	ok := s.ctrl.SetPage(n)
	return s.Current(), ok
}

// Current reports the dashboard as last refreshed without re-rendering the
// charts.
func (s *Screen) Current() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.ctrl.Render()
	summary := Summarize(s.ctrl.Filtered())
	dash := Dashboard{Frame: frame, Summary: summary, Cards: summary.Cards()}
	for _, slot := range s.slots {
		if inst := slot.Current(); inst != nil {
			dash.Charts = append(dash.Charts, inst)
		}
	}
	return dash
}

// Refresh recomputes counters and replaces every chart from the current
// filtered set. With nothing to show all slots are cleared.
func (s *Screen) Refresh() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := s.ctrl.Render()
	filtered := s.ctrl.Filtered()
	summary := Summarize(filtered)
	dash := Dashboard{Frame: frame, Summary: summary, Cards: summary.Cards()}

	instances, err := s.charts.Build(filtered)
	if err != nil {
		s.logger.Error("render report charts", slog.Any("error", err))
		instances = nil
	}
	for i, slot := range s.slots {
		var next *chart.Instance
		if i < len(instances) {
			next = instances[i]
		}
		if err := slot.Replace(next); err != nil {
			s.logger.Error("replace chart", slog.String("slot", slot.Name), slog.Any("error", err))
			continue
		}
		if next != nil {
			dash.Charts = append(dash.Charts, next)
		}
	}
	return dash
}

func (s *Screen) extras(filtered []record.Record) tableview.Extras {
	extras := tableview.Extras{Sections: []report.Table{Summarize(filtered).Table()}}
	images, err := s.charts.Images(filtered)
	if err != nil {
		s.logger.Warn("chart images unavailable for export", slog.Any("error", err))
		return extras
	}
	extras.Images = images
	return extras
}
