// Package render draws chart descriptors as PNG images.
//
// Count and share charts (bar, waterfall, pie) go through go-chart; numeric
// charts (histogram with density overlay, line series) go through gonum/plot.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/JonMunkholm/csvexplorer/internal/chart"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotRenderable is returned for warning markers.
	ErrNotRenderable = errors.New("descriptor is not a chart")

	// ErrEmptySeries is returned for charts without data points.
	ErrEmptySeries = errors.New("chart has no data points")
)

// Options sets the image size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions matches the page layout.
var DefaultOptions = Options{Width: 960, Height: 540}

// Renderer draws descriptors with fixed options.
type Renderer struct {
	opts Options
}

// New creates a Renderer. Zero sizes fall back to DefaultOptions.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions.Height
	}
	return &Renderer{opts: opts}
}

// PNG writes d to w.
func (r *Renderer) PNG(w io.Writer, d chart.Descriptor) error {
	if d.IsWarning() {
		return ErrNotRenderable
	}
	if len(d.Series) == 0 {
		return ErrEmptySeries
	}

	switch d.Kind {
	case chart.BarCount, chart.WaterfallCount:
		return r.bars(w, d)
	case chart.PieTopN, chart.Pie:
		return r.pie(w, d)
	case chart.HistKDE:
		return r.histogram(w, d)
	case chart.LineSeries:
		return r.line(w, d)
	}
	return fmt.Errorf("render: unsupported chart kind %q", d.Kind)
}

// Image is one rendered plan entry. PNG is nil for entries that are not
// charts or have no data.
type Image struct {
	Index int
	Title string
	PNG   []byte
}

// All renders every chart in plan concurrently, keeping plan order. Warning
// markers and empty charts produce an Image without PNG data.
func (r *Renderer) All(ctx context.Context, plan []chart.Descriptor, concurrency int) ([]Image, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	images := make([]Image, len(plan))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, d := range plan {
		images[i] = Image{Index: i, Title: d.Title}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			err := r.PNG(&buf, d)
			switch {
			case errors.Is(err, ErrNotRenderable), errors.Is(err, ErrEmptySeries):
				return nil
			case err != nil:
				return fmt.Errorf("render %q: %w", d.Title, err)
			}
			images[i].PNG = buf.Bytes()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
