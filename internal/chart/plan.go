package chart

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
)

// TopN is the number of slices in the ticket pie.
const TopN = 10

// Titles and axis labels.
const (
	TitleEmbarked          = "Embarked distribution"
	TitleTicketPie         = "Ticket distribution (top 10)"
	TitleEmbarkedWaterfall = "Embarked waterfall"
	TitleTicketLine        = "Ticket line chart"
	TitleAgeHistogram      = "Age distribution"
	TitleSexPie            = "Sex percentage"
	TitleAgeWaterfall      = "Age waterfall"
	TitleAgeLine           = "Age line chart"

	labelFrequency = "Frequency"
	labelCount     = "Count"
)

// BuildPlan returns the charts for a table classified as tag, in display order.
//
// SchemaA yields four charts. SchemaB yields four entries, one of which is a
// MissingColumnWarning marker when the Sex column is absent. Unknown yields an
// empty plan. A table lacking tag's required columns is a MissingColumnsError.
func BuildPlan(t *dataset.Table, tag schema.Tag) ([]Descriptor, error) {
	switch tag {
	case schema.SchemaA, schema.SchemaB:
		if err := schema.Check(t, tag); err != nil {
			return nil, err
		}
	}

	switch tag {
	case schema.SchemaA:
		return planA(t), nil
	case schema.SchemaB:
		return planB(t), nil
	}
	return []Descriptor{}, nil
}

func planA(t *dataset.Table) []Descriptor {
	embarked, _ := t.Values(schema.ColEmbarked)
	ticket, _ := t.Values(schema.ColTicket)

	embarkedCounts := valueCounts(embarked)

	return []Descriptor{
		countChart(BarCount, schema.ColEmbarked, embarkedCounts, TitleEmbarked, labelFrequency),
		ticketPie(ticket),
		countChart(WaterfallCount, schema.ColEmbarked, embarkedCounts, TitleEmbarkedWaterfall, labelCount),
		ticketLine(ticket, embarked),
	}
}

func planB(t *dataset.Table) []Descriptor {
	age, _ := t.Values(schema.ColAge)
	ids, _ := t.Values(schema.ColPassengerID)

	plan := make([]Descriptor, 0, 4)
	plan = append(plan, ageHistogram(age))
	plan = append(plan, optionalCharts(t, schema.SchemaB)...)

	plan = append(plan,
		countChart(WaterfallCount, schema.ColAge, byValue(valueCounts(age)), TitleAgeWaterfall, labelCount),
		ageLine(ids, age),
	)
	return plan
}

// optionalChart builds the chart for one optional column.
type optionalChart struct {
	title string
	build func([]dataset.Value) Descriptor
}

var optionalBuilders = map[string]optionalChart{
	schema.ColSex: {TitleSexPie, sexPie},
}

// optionalCharts plots each optional column of tag, or a MissingColumnWarning
// marker in its place when the table lacks it.
func optionalCharts(t *dataset.Table, tag schema.Tag) []Descriptor {
	var out []Descriptor
	for _, col := range schema.Optional(tag) {
		oc, ok := optionalBuilders[col]
		if !ok {
			continue
		}
		values, ok := t.Values(col)
		if !ok {
			out = append(out, Descriptor{
				Kind:    MissingColumnWarning,
				Columns: []string{col},
				Series:  []Point{},
				Title:   oc.title,
				Warning: schema.MissingOptional(col).Error(),
			})
			continue
		}
		out = append(out, oc.build(values))
	}
	return out
}

// countChart draws one bar per bucket, annotated with the exact count.
func countChart(kind Kind, column string, counts []bucket, title, yLabel string) Descriptor {
	return Descriptor{
		Kind:    kind,
		Columns: []string{column},
		Series:  categorical(counts),
		Title:   title,
		XLabel:  column,
		YLabel:  yLabel,
	}
}

func ticketPie(ticket []dataset.Value) Descriptor {
	top := byFrequency(valueCounts(ticket))
	if len(top) > TopN {
		top = top[:TopN]
	}
	return Descriptor{
		Kind:    PieTopN,
		Columns: []string{schema.ColTicket},
		Series:  shares(top),
		Title:   TitleTicketPie,
	}
}

func ticketLine(ticket, embarked []dataset.Value) Descriptor {
	kept := dropNullRows(ticket, embarked)
	counts := byValue(valueCounts(kept[0]))
	series := categorical(counts)

	// Numeric tickets sit at their value on the x axis.
	numeric := len(counts) > 0
	for i, b := range counts {
		x, ok := b.value.Float()
		if !ok {
			numeric = false
			break
		}
		series[i].X = x
	}
	if !numeric {
		series = categorical(counts)
	}

	return Descriptor{
		Kind:     LineSeries,
		Columns:  []string{schema.ColTicket, schema.ColEmbarked},
		Series:   series,
		NumericX: numeric,
		Title:    TitleTicketLine,
		XLabel:   schema.ColTicket,
		YLabel:   labelFrequency,
	}
}

func ageHistogram(age []dataset.Value) Descriptor {
	xs := finiteNumbers(age)
	bins, width := histogram(xs, histBins)
	if bins == nil {
		bins = []Point{}
	}
	return Descriptor{
		Kind:     HistKDE,
		Columns:  []string{schema.ColAge},
		Series:   bins,
		Overlay:  kde(xs, width),
		BinWidth: width,
		NumericX: true,
		Title:    TitleAgeHistogram,
		XLabel:   schema.ColAge,
		YLabel:   labelFrequency,
	}
}

func sexPie(sex []dataset.Value) Descriptor {
	return Descriptor{
		Kind:    Pie,
		Columns: []string{schema.ColSex},
		Series:  shares(byFrequency(valueCounts(sex))),
		Title:   TitleSexPie,
	}
}

func ageLine(ids, age []dataset.Value) Descriptor {
	kept := dropNullRows(ids, age)
	rows := make([]int, len(kept[0]))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return compareValues(kept[0][rows[i]], kept[0][rows[j]]) < 0
	})

	numeric := true
	series := make([]Point, len(rows))
	for i, r := range rows {
		id, y := kept[0][r], kept[1][r]
		x, ok := id.Float()
		if !ok {
			x, numeric = float64(i), false
		}
		v, _ := y.Float()
		series[i] = Point{Label: id.String(), X: x, Value: v, Annotation: y.String()}
	}
	return Descriptor{
		Kind:     LineSeries,
		Columns:  []string{schema.ColPassengerID, schema.ColAge},
		Series:   series,
		NumericX: numeric,
		Title:    TitleAgeLine,
		XLabel:   schema.ColPassengerID,
		YLabel:   schema.ColAge,
	}
}

// categorical lays buckets out at positions 0..n-1 with count annotations.
func categorical(counts []bucket) []Point {
	out := make([]Point, len(counts))
	for i, b := range counts {
		out[i] = Point{
			Label:      b.label,
			X:          float64(i),
			Value:      float64(b.count),
			Annotation: strconv.Itoa(b.count),
		}
	}
	return out
}

// shares annotates each bucket with its percentage of the buckets' total.
func shares(counts []bucket) []Point {
	sum := total(counts)
	out := make([]Point, len(counts))
	for i, b := range counts {
		out[i] = Point{
			Label:      b.label,
			X:          float64(i),
			Value:      float64(b.count),
			Annotation: fmt.Sprintf("%.1f%%", 100*float64(b.count)/float64(sum)),
		}
	}
	return out
}
