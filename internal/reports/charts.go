package reports

import (
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/campuspass/campuspass-admin/internal/chart"
	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
	"github.com/campuspass/campuspass-admin/report"
)

// Chart titles, also used as slot names.
const (
	TrendsTitle  = "Visit Trends"
	PurposeTitle = "Visits by Purpose"
	StaffTitle   = "Staff Performance"
)

// ChartSet renders the three report charts from a visit set.
type ChartSet struct {
	Display *timefmt.Display
	// Staff is the roster whose names label the staff chart.
	Staff []record.Record
}

// Build renders every chart. An empty visit set yields no charts.
func (cs ChartSet) Build(visits []record.Record) ([]*chart.Instance, error) {
	if len(visits) == 0 {
		return nil, nil
	}
	builders := []struct {
		title string
		build func([]record.Record) (template.HTML, error)
	}{
		{TrendsTitle, cs.trends},
		{PurposeTitle, purpose},
		{StaffTitle, cs.staff},
	}
	out := make([]*chart.Instance, 0, len(builders))
	for _, b := range builders {
		markup, err := b.build(visits)
		if errors.Is(err, chart.ErrNoData) {
			out = append(out, nil)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reports: %s chart: %w", strings.ToLower(b.title), err)
		}
		out = append(out, chart.NewInstance(b.title, markup))
	}
	return out, nil
}

// Images renders the charts for embedding in a PDF.
func (cs ChartSet) Images(visits []record.Record) ([]report.Image, error) {
	instances, err := cs.Build(visits)
	if err != nil {
		return nil, err
	}
	images := make([]report.Image, 0, len(instances))
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		images = append(images, report.Image{Title: inst.Title, Markup: inst.Markup})
	}
	return images, nil
}

func (cs ChartSet) day(v record.Record) string {
	raw := v.Text("visit_date")
	if day, ok := cs.Display.Day(raw); ok {
		return day
	}
	return raw
}

func (cs ChartSet) trends(visits []record.Record) (template.HTML, error) {
	seen := make(map[string]struct{})
	var labels []string
	counts := make(map[string]map[string]float64)
	for _, v := range visits {
		day := cs.day(v)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			labels = append(labels, day)
			counts[day] = make(map[string]float64)
		}
		counts[day][strings.TrimSpace(v.Text("status"))]++
	}
	sort.Strings(labels)

	series := make([]chart.Series, len(Statuses))
	for i, status := range Statuses {
		values := make([]float64, len(labels))
		for j, day := range labels {
			values[j] = counts[day][status]
		}
		series[i] = chart.Series{Label: status, Values: values, Color: chart.Palette[i%len(chart.Palette)]}
	}
	return chart.Bars(0, 0, labels, series, chart.BarOpts{
		Title:  TrendsTitle,
		XTitle: "Date",
		YTitle: "Visits",
		Legend: true,
	})
}

func purpose(visits []record.Record) (template.HTML, error) {
	var order []string
	counts := make(map[string]float64)
	for _, v := range visits {
		p := v.Or("purpose", "Unspecified")
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}
	slices := make([]chart.Slice, len(order))
	for i, p := range order {
		slices[i] = chart.Slice{Label: p, Value: counts[p]}
	}
	return chart.Pie(0, 0, slices, chart.PieOpts{Title: PurposeTitle, Legend: true})
}

func (cs ChartSet) staff(visits []record.Record) (template.HTML, error) {
	counts := make(map[string]float64)
	for _, v := range visits {
		counts[v.Or("assigned_staff", "Unassigned")]++
	}
	labels := make([]string, 0, len(cs.Staff))
	for _, s := range cs.Staff {
		name := strings.TrimSpace(s.Text("first_name") + " " + s.Text("last_name"))
		if name != "" {
			labels = append(labels, name)
		}
	}
	if len(labels) == 0 {
		for name := range counts {
			labels = append(labels, name)
		}
		sort.Strings(labels)
	}
	values := make([]float64, len(labels))
	colors := make([]string, len(labels))
	for i, name := range labels {
		values[i] = counts[name]
		colors[i] = chart.Palette[i%len(chart.Palette)]
	}
	return chart.Bars(0, 0, labels, []chart.Series{{Label: "Visits Handled", Values: values, Colors: colors}}, chart.BarOpts{
		Title:  StaffTitle,
		XTitle: "Staff",
		YTitle: "Visits",
		Legend: true,
	})
}
