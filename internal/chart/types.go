// Package chart renders the dashboard charts as inline SVG and manages the
// slots they are displayed in.
package chart

// Palette is the CampusPass maroon scale used for series and slices.
var Palette = []string{"#8b1538", "#d44d5c", "#e88f9c", "#f5c3c8", "#fce2e3"}

// Series is one named set of values plotted against shared labels.
type Series struct {
	Label  string
	Values []float64
	Color  string
	// Colors overrides Color per point.
	Colors []string
}

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Value float64
	Color string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	XTitle      string
	YTitle      string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	// Legend draws series labels under the plot.
	Legend bool
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	TextColor   string
	Legend      bool
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 360
	DefaultPadding = 40.0
	DefaultTicks   = 5
)

func color(i int, preferred string) string {
	if preferred != "" {
		return preferred
	}
	return Palette[i%len(Palette)]
}
