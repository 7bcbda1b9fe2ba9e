package chart

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
)

// bucket is one distinct value and how often it occurs.
type bucket struct {
	value dataset.Value
	label string
	count int
}

// valueCounts groups non-null values in first-seen order.
func valueCounts(vals []dataset.Value) []bucket {
	pos := make(map[string]int)
	var out []bucket
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		key := v.String()
		if i, ok := pos[key]; ok {
			out[i].count++
			continue
		}
		pos[key] = len(out)
		out = append(out, bucket{value: v, label: key, count: 1})
	}
	return out
}

// byFrequency orders buckets by count descending; equal counts keep
// first-seen order.
func byFrequency(b []bucket) []bucket {
	out := slices.Clone(b)
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// byValue orders buckets by their value ascending.
func byValue(b []bucket) []bucket {
	out := slices.Clone(b)
	sort.SliceStable(out, func(i, j int) bool { return compareValues(out[i].value, out[j].value) < 0 })
	return out
}

// compareValues orders numbers numerically, then everything else by text.
func compareValues(a, b dataset.Value) int {
	af, aNum := a.Float()
	bf, bNum := b.Float()
	switch {
	case aNum && bNum:
		return cmp.Compare(af, bf)
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return cmp.Compare(a.String(), b.String())
}

func total(b []bucket) int {
	n := 0
	for _, x := range b {
		n += x.count
	}
	return n
}

// dropNullRows keeps the rows where every listed column is non-null and returns
// the surviving values column by column.
func dropNullRows(cols ...[]dataset.Value) [][]dataset.Value {
	out := make([][]dataset.Value, len(cols))
	if len(cols) == 0 {
		return out
	}
	for r := range cols[0] {
		keep := true
		for _, c := range cols {
			if c[r].IsNull() {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		for i, c := range cols {
			out[i] = append(out[i], c[r])
		}
	}
	return out
}

// finiteNumbers returns the finite numeric values of a column.
func finiteNumbers(vals []dataset.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	return out
}
