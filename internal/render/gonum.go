package render

import (
	"image/color"
	"io"

	"github.com/JonMunkholm/csvexplorer/internal/chart"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"
)

// maxNominalTicks caps how many category labels a line chart prints.
const maxNominalTicks = 40

var (
	barFill   = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	lineColor = color.RGBA{B: 255, A: 255}
	kdeColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

func (r *Renderer) histogram(w io.Writer, d chart.Descriptor) error {
	p := newPlot(d)

	bins := make([]plotter.HistogramBin, len(d.Series))
	for i, pt := range d.Series {
		bins[i] = plotter.HistogramBin{Min: pt.X, Max: pt.X + d.BinWidth, Weight: pt.Value}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     d.BinWidth,
		FillColor: barFill,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h)

	if len(d.Overlay) > 0 {
		curve, err := plotter.NewLine(xys(d.Overlay))
		if err != nil {
			return err
		}
		curve.Color = kdeColor
		curve.Width = vg.Points(2)
		p.Add(curve)
	}

	return r.save(w, p)
}

func (r *Renderer) line(w io.Writer, d chart.Descriptor) error {
	p := newPlot(d)

	l, s, err := plotter.NewLinePoints(xys(d.Series))
	if err != nil {
		return err
	}
	l.Color = lineColor
	s.Color = lineColor
	p.Add(l, s)

	if !d.NumericX && len(d.Series) <= maxNominalTicks {
		p.NominalX(d.Labels()...)
	}

	return r.save(w, p)
}

func newPlot(d chart.Descriptor) *plot.Plot {
	p := plot.New()
	p.Title.Text = d.Title
	p.X.Label.Text = d.XLabel
	p.Y.Label.Text = d.YLabel
	p.Add(plotter.NewGrid())
	return p
}

func xys(points []chart.Point) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i].X = pt.X
		out[i].Y = pt.Value
	}
	return out
}

// save encodes p at the renderer's pixel size, taking 96 pixels per inch.
func (r *Renderer) save(w io.Writer, p *plot.Plot) error {
	width := vg.Length(r.opts.Width) * vg.Inch / 96
	height := vg.Length(r.opts.Height) * vg.Inch / 96

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
