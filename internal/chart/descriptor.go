// Package chart turns a classified table into an ordered, renderer-agnostic
// chart plan.
package chart

// Kind identifies how a descriptor is drawn.
type Kind string

const (
	BarCount       Kind = "BAR_COUNT"
	PieTopN        Kind = "PIE_TOP_N"
	Pie            Kind = "PIE"
	WaterfallCount Kind = "WATERFALL_COUNT"
	LineSeries     Kind = "LINE_SERIES"
	HistKDE        Kind = "HIST_KDE"

	// MissingColumnWarning stands in for a chart whose optional column is absent.
	MissingColumnWarning Kind = "MISSING_COLUMN_WARNING"
)

// Point is one entry of a derived series.
//
// For categorical kinds X is the position in the series; for histograms it is
// the left bin edge; for numeric line series it is the x value itself.
type Point struct {
	Label      string  `json:"label" yaml:"label"`
	X          float64 `json:"x" yaml:"x"`
	Value      float64 `json:"value" yaml:"value"`
	Annotation string  `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// Descriptor is a fully specified plan for one chart. Built once per request
// and never modified.
type Descriptor struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Columns  []string `json:"columns" yaml:"columns"`
	Series   []Point  `json:"series" yaml:"series"`
	Overlay  []Point  `json:"overlay,omitempty" yaml:"overlay,omitempty"`
	BinWidth float64  `json:"bin_width,omitempty" yaml:"bin_width,omitempty"`
	NumericX bool     `json:"numeric_x,omitempty" yaml:"numeric_x,omitempty"`
	Title    string   `json:"title" yaml:"title"`
	XLabel   string   `json:"x_label" yaml:"x_label"`
	YLabel   string   `json:"y_label" yaml:"y_label"`
	Warning  string   `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// IsWarning reports whether d is a warning marker rather than a chart.
func (d Descriptor) IsWarning() bool {
	return d.Kind == MissingColumnWarning
}

// Labels returns the series labels in order.
func (d Descriptor) Labels() []string {
	out := make([]string, len(d.Series))
	for i, p := range d.Series {
		out[i] = p.Label
	}
	return out
}

// Values returns the series values in order.
func (d Descriptor) Values() []float64 {
	out := make([]float64, len(d.Series))
	for i, p := range d.Series {
		out[i] = p.Value
	}
	return out
}
