package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	histBins    = 30
	kdeGridSize = 200
)

// histogram splits xs into equal-width bins over [min, max]; the last bin is
// closed. A single distinct value gets the range [v-0.5, v+0.5].
func histogram(xs []float64, bins int) (points []Point, width float64) {
	if len(xs) == 0 {
		return nil, 0
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width = (hi - lo) / float64(bins)

	counts := make([]int, bins)
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}

	points = make([]Point, bins)
	for i, c := range counts {
		left := lo + float64(i)*width
		right := left + width
		bracket := ")"
		if i == bins-1 {
			right, bracket = hi, "]"
		}
		points[i] = Point{
			Label:      fmt.Sprintf("[%s, %s%s", trimFloat(left), trimFloat(right), bracket),
			X:          left,
			Value:      float64(c),
			Annotation: fmt.Sprint(c),
		}
	}
	return points, width
}

// kde evaluates a Gaussian kernel density estimate with Scott's bandwidth on
// an even grid over [min, max], scaled so the curve overlays a count histogram
// with the given bin width. Fewer than two points or zero spread gives no curve.
func kde(xs []float64, binWidth float64) []Point {
	if len(xs) < 2 {
		return nil
	}
	_, sd := stat.MeanStdDev(xs, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	bw := sd * math.Pow(float64(len(xs)), -1.0/5.0)

	kernels := make([]distuv.Normal, len(xs))
	for i, x := range xs {
		kernels[i] = distuv.Normal{Mu: x, Sigma: bw}
	}

	lo, hi := floats.Min(xs), floats.Max(xs)
	grid := make([]float64, kdeGridSize)
	floats.Span(grid, lo, hi)

	scale := float64(len(xs)) * binWidth
	out := make([]Point, len(grid))
	for i, g := range grid {
		var density float64
		for _, k := range kernels {
			density += k.Prob(g)
		}
		density /= float64(len(xs))
		out[i] = Point{Label: trimFloat(g), X: g, Value: density * scale}
	}
	return out
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%.4g", f)
}
