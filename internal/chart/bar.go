package chart

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("chart: no data")

// Bars renders a grouped bar chart with one bar per series for each label.
// The value axis starts at zero.
func Bars(width, height int, labels []string, series []Series, opts BarOpts) (template.HTML, error) {
	if len(labels) == 0 || len(series) == 0 {
		return "", ErrNoData
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("chart: series %q has %d values for %d labels", s.Label, len(s.Values), len(labels))
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	axisColor := fallback(opts.AxisColor, "#333333")
	gridColor := fallback(opts.GridColor, "#e5e5e5")

	legendSpace := 0.0
	if opts.Legend {
		legendSpace = 18
	}
	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding - legendSpace
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("chart: viewport too small")
	}

	maxVal := 0.0
	for _, s := range series {
		for _, v := range s.Values {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	maxVal = niceMax(maxVal, tickCount)
	scale := chartHeight / maxVal
	bottom := padding + chartHeight

	groupWidth := chartWidth / float64(len(labels))
	barWidth := groupWidth * 0.8 / float64(len(series))
	groupInset := groupWidth * 0.1

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Bar chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Grouped bar comparison")))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := bottom - ratio*chartHeight
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, formatTick(maxVal*ratio))
	}

	fmt.Fprintf(&b, "<g stroke=\"%s\">", axisColor)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, bottom)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, bottom, padding+chartWidth, bottom)
	b.WriteString("</g>")

	for i, label := range labels {
		baseX := padding + float64(i)*groupWidth + groupInset
		for si, s := range series {
			v := s.Values[i]
			if v < 0 {
				v = 0
			}
			h := v * scale
			fill := color(si, s.Color)
			if i < len(s.Colors) && s.Colors[i] != "" {
				fill = s.Colors[i]
			}
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s %s: %s</title></rect>",
				baseX+float64(si)*barWidth, bottom-h, barWidth, h, fill,
				template.HTMLEscapeString(s.Label), template.HTMLEscapeString(label), formatTick(s.Values[i]))
		}
		center := padding + float64(i)*groupWidth + groupWidth/2
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, bottom+14, axisColor, template.HTMLEscapeString(label))
	}

	if opts.XTitle != "" {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\">%s</text>", padding+chartWidth/2, bottom+28, axisColor, template.HTMLEscapeString(opts.XTitle))
	}
	if opts.YTitle != "" {
		fmt.Fprintf(&b, "<text x=\"12\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\" transform=\"rotate(-90 12 %.2f)\">%s</text>", padding+chartHeight/2, axisColor, padding+chartHeight/2, template.HTMLEscapeString(opts.YTitle))
	}

	if opts.Legend {
		legendY := float64(height) - 8
		legendX := padding
		for si, s := range series {
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-9, color(si, s.Color))
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, axisColor, template.HTMLEscapeString(s.Label))
			legendX += 24 + 6*float64(len(s.Label))
		}
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
