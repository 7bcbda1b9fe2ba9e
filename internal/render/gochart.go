package render

import (
	"io"
	"math"

	"github.com/JonMunkholm/csvexplorer/internal/chart"
	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	maxBarWidth = 60
	minBarWidth = 2
)

// bars draws count charts. The exact count is part of each bar label.
func (r *Renderer) bars(w io.Writer, d chart.Descriptor) error {
	values := make([]gochart.Value, len(d.Series))
	top := 0.0
	for i, p := range d.Series {
		top = math.Max(top, p.Value)
		label := p.Label
		if p.Annotation != "" {
			label += " (" + p.Annotation + ")"
		}
		values[i] = gochart.Value{Label: label, Value: p.Value}
	}

	barWidth, spacing := barLayout(r.opts.Width, len(values))
	graph := gochart.BarChart{
		Title:      d.Title,
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Bars:       values,
		// A fixed zero baseline keeps single-bar and equal-count charts drawable.
		YAxis: gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: axisTop(top)}},
	}
	return graph.Render(gochart.PNG, w)
}

// pie draws share charts labelled with value and percentage.
func (r *Renderer) pie(w io.Writer, d chart.Descriptor) error {
	values := make([]gochart.Value, len(d.Series))
	for i, p := range d.Series {
		values[i] = gochart.Value{Label: p.Label + " " + p.Annotation, Value: p.Value}
	}

	graph := gochart.PieChart{
		Title:  d.Title,
		Width:  r.opts.Height,
		Height: r.opts.Height,
		Values: values,
	}
	return graph.Render(gochart.PNG, w)
}

// barLayout fits n bars into width pixels.
func barLayout(width, n int) (barWidth, spacing int) {
	if n <= 0 {
		return maxBarWidth, maxBarWidth / 3
	}
	slot := (width - 80) / n
	barWidth = slot * 3 / 4
	switch {
	case barWidth > maxBarWidth:
		barWidth = maxBarWidth
	case barWidth < minBarWidth:
		barWidth = minBarWidth
	}
	spacing = slot - barWidth
	if spacing < 1 {
		spacing = 1
	}
	return barWidth, spacing
}

// axisTop rounds max up to a 1, 2 or 5 step with some headroom.
func axisTop(max float64) float64 {
	if max <= 0 {
		return 1
	}
	max *= 1.05
	mag := math.Pow(10, math.Floor(math.Log10(max)))
	for _, step := range []float64{1, 2, 5, 10} {
		if max <= step*mag {
			return step * mag
		}
	}
	return 10 * mag
}
