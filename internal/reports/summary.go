// Package reports builds the analytics screen: summary counters and charts
// derived from the filtered visit set.
package reports

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/campuspass/campuspass-admin/internal/record"
	"github.com/campuspass/campuspass-admin/report"
)

// Visit statuses, in chart order.
const (
	StatusUpcoming  = "Upcoming"
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
	StatusExpired   = "Expired"
)

// Statuses lists every visit status the dashboard knows.
var Statuses = []string{StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled, StatusExpired}

// Summary holds the headline counters of a visit set.
type Summary struct {
	Visitors  int
	Visits    int
	Upcoming  int
	Ongoing   int
	Completed int
	Cancelled int
}

// Summarize counts distinct visitors and visits per status.
func Summarize(visits []record.Record) Summary {
	users := make(map[string]struct{}, len(visits))
	s := Summary{Visits: len(visits)}
	for _, v := range visits {
		users[v.Text("user_id")] = struct{}{}
		switch strings.TrimSpace(v.Text("status")) {
		case StatusUpcoming:
			s.Upcoming++
		case StatusOngoing:
			s.Ongoing++
		case StatusCompleted:
			s.Completed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	s.Visitors = len(users)
	return s
}

// Table is the summary block placed in exports.
func (s Summary) Table() report.Table {
	return report.Table{
		Title:  "Summary",
		Header: []string{"Total Visitors", "Total Visits", "Ongoing", "Completed", "Cancelled"},
		Rows: [][]string{{
			strconv.Itoa(s.Visitors),
			strconv.Itoa(s.Visits),
			strconv.Itoa(s.Ongoing),
			strconv.Itoa(s.Completed),
			strconv.Itoa(s.Cancelled),
		}},
	}
}

// Card is one counter tile on the screen.
type Card struct {
	ID    string
	Label string
	Value string
}

var printer = message.NewPrinter(language.English)

// Cards renders the on-screen counters with grouped digits.
func (s Summary) Cards() []Card {
	return []Card{
		{ID: "totalVisitors", Label: "Total Visitors", Value: printer.Sprintf("%d", s.Visitors)},
		{ID: "totalVisits", Label: "Total Visits", Value: printer.Sprintf("%d", s.Visits)},
		{ID: "upcomingVisits", Label: "Upcoming", Value: printer.Sprintf("%d", s.Upcoming)},
		{ID: "ongoingVisits", Label: "Ongoing", Value: printer.Sprintf("%d", s.Ongoing)},
		{ID: "completedVisits", Label: "Completed", Value: printer.Sprintf("%d", s.Completed)},
	}
}
