package chart

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarsProducesGroupedSVG(t *testing.T) {
	html, err := Bars(640, 320, []string{"2025-01-01", "2025-01-02"}, []Series{
		{Label: "Upcoming", Values: []float64{1, 0}},
		{Label: "Completed", Values: []float64{2, 3}},
	}, BarOpts{Title: "Visit Trends", XTitle: "Date", YTitle: "Visits", Legend: true})
	require.NoError(t, err)

	output := string(html)
	assert.True(t, strings.HasPrefix(output, "<svg"))
	// four bars plus two legend swatches
	assert.Equal(t, 6, strings.Count(output, "<rect x="))
	assert.Contains(t, output, "Completed")
	assert.Contains(t, output, Palette[1])
}

func TestBarsValidatesInput(t *testing.T) {
	_, err := Bars(0, 0, nil, nil, BarOpts{})
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = Bars(0, 0, []string{"a"}, []Series{{Label: "x", Values: []float64{1, 2}}}, BarOpts{})
	assert.Error(t, err)
}

func TestBarsPerPointColors(t *testing.T) {
	html, err := Bars(0, 0, []string{"Ana", "Ben"}, []Series{
		{Label: "Visits Handled", Values: []float64{4, 1}, Colors: []string{"#111111", "#222222"}},
	}, BarOpts{})
	require.NoError(t, err)
	assert.Contains(t, string(html), "#222222")
}

func TestPieSkipsEmptySlices(t *testing.T) {
	html, err := Pie(0, 0, []Slice{{Label: "Meeting", Value: 3}, {Label: "Tour", Value: 0}, {Label: "Delivery <x>", Value: 1}}, PieOpts{Title: "Purpose", Legend: true})
	require.NoError(t, err)
	output := string(html)
	assert.Equal(t, 2, strings.Count(output, "<path"))
	assert.Contains(t, output, "Delivery &lt;x&gt;")
	assert.NotContains(t, output, "Tour")

	_, err = Pie(0, 0, []Slice{{Label: "none"}}, PieOpts{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPieSingleSliceIsCircle(t *testing.T) {
	html, err := Pie(0, 0, []Slice{{Label: "Only", Value: 2}}, PieOpts{})
	require.NoError(t, err)
	assert.Contains(t, string(html), "<circle")
}

func TestSlotDisposesBeforeReplace(t *testing.T) {
	slot := NewSlot("trends")
	first := NewInstance("Visit Trends", "<svg></svg>")
	second := NewInstance("Visit Trends", "<svg></svg>")

	require.NoError(t, slot.Replace(first))
	assert.True(t, slot.Visible())
	require.NoError(t, slot.Replace(second))
	assert.True(t, first.Disposed())
	assert.False(t, second.Disposed())
	assert.Same(t, second, slot.Current())

	slot.Clear()
	assert.True(t, second.Disposed())
	assert.False(t, slot.Visible())
}

func TestSlotRejectsSharedInstance(t *testing.T) {
	a, b := NewSlot("a"), NewSlot("b")
	inst := NewInstance("shared", "<svg></svg>")
	require.NoError(t, a.Replace(inst))
	assert.ErrorIs(t, b.Replace(inst), ErrOwned)
	assert.False(t, b.Visible())

	require.NoError(t, a.Replace(inst))
	assert.False(t, inst.Disposed())

	a.Clear()
	assert.Error(t, b.Replace(inst))
}
