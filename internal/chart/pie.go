package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders a pie chart. Slices with non-positive values are skipped.
func Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total <= 0 {
		return "", ErrNoData
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	textColor := fallback(opts.TextColor, "#333333")

	legendSpace := 0.0
	if opts.Legend {
		legendSpace = 16 * float64(len(slices))
	}
	radius := math.Min(float64(width), float64(height)-legendSpace)/2 - 10
	if radius <= 0 {
		return "", fmt.Errorf("chart: viewport too small")
	}
	cx := float64(width) / 2
	cy := radius + 10

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share by category")))

	angle := -math.Pi / 2
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		fill := color(i, s.Color)
		share := s.Value / total
		label := fmt.Sprintf("%s: %s", template.HTMLEscapeString(s.Label), formatTick(s.Value))
		if almostEqual(share, 1) {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"><title>%s</title></circle>", cx, cy, radius, fill, label)
			continue
		}
		end := angle + share*2*math.Pi
		x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
		x2, y2 := cx+radius*math.Cos(end), cy+radius*math.Sin(end)
		large := 0
		if share > 0.5 {
			large = 1
		}
		fmt.Fprintf(&b, "<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\"><title>%s</title></path>",
			cx, cy, x1, y1, radius, radius, large, x2, y2, fill, label)
		angle = end
	}

	if opts.Legend {
		y := cy + radius + 24
		for i, s := range slices {
			if s.Value <= 0 {
				continue
			}
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", cx-60, y-9, color(i, s.Color))
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\">%s (%s)</text>", cx-46, y, textColor, template.HTMLEscapeString(s.Label), formatTick(s.Value))
			y += 16
		}
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
