package render

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvexplorer/internal/chart"
	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainSample = `PassengerId,Survived,Pclass,Sex,Age,Ticket,Embarked
1,0,3,male,22,A/5 21171,S
2,1,1,female,38,PC 17599,C
3,1,3,female,26,STON/O2. 3101282,S
4,1,1,female,35,113803,S
5,0,3,male,35,373450,S
6,0,3,male,,330877,Q
`

const testSample = `PassengerId,Pclass,Sex,Age,Ticket,Embarked
892,3,male,34.5,330911,Q
893,3,female,47,363272,S
894,2,male,62,240276,Q
895,3,male,27,315154,S
896,3,female,22,3101298,S
`

func planFor(t *testing.T, csv string, tag schema.Tag) []chart.Descriptor {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	plan, err := chart.BuildPlan(tbl, tag)
	require.NoError(t, err)
	return plan
}

func TestPNG_EveryKind(t *testing.T) {
	plan := append(planFor(t, trainSample, schema.SchemaA), planFor(t, testSample, schema.SchemaB)...)
	r := New(Options{Width: 480, Height: 320})

	for _, d := range plan {
		t.Run(string(d.Kind)+"/"+d.Title, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.PNG(&buf, d))

			cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Positive(t, cfg.Width)
			assert.Positive(t, cfg.Height)
		})
	}
}

func TestPNG_SingleBar(t *testing.T) {
	d := chart.Descriptor{
		Kind:   chart.BarCount,
		Title:  "Embarked distribution",
		Series: []chart.Point{{Label: "S", Value: 1, Annotation: "1"}},
	}
	var buf bytes.Buffer
	assert.NoError(t, New(Options{}).PNG(&buf, d))
}

func TestPNG_Rejects(t *testing.T) {
	r := New(Options{})

	var buf bytes.Buffer
	err := r.PNG(&buf, chart.Descriptor{Kind: chart.MissingColumnWarning, Warning: "no Sex column"})
	assert.ErrorIs(t, err, ErrNotRenderable)

	err = r.PNG(&buf, chart.Descriptor{Kind: chart.Pie})
	assert.ErrorIs(t, err, ErrEmptySeries)

	err = r.PNG(&buf, chart.Descriptor{Kind: "SCATTER", Series: []chart.Point{{Value: 1}}})
	assert.ErrorContains(t, err, "unsupported chart kind")
	assert.Zero(t, buf.Len())
}

func TestAll_KeepsOrderAndSkipsWarnings(t *testing.T) {
	csv := strings.ReplaceAll(testSample, "Sex,", "")
	csv = strings.NewReplacer(",male,", ",", ",female,", ",").Replace(csv)
	plan := planFor(t, csv, schema.SchemaB)
	require.Len(t, plan, 4)

	images, err := New(Options{Width: 320, Height: 240}).All(context.Background(), plan, 2)
	require.NoError(t, err)
	require.Len(t, images, len(plan))

	for i, img := range images {
		assert.Equal(t, i, img.Index)
		assert.Equal(t, plan[i].Title, img.Title)
		if plan[i].IsWarning() {
			assert.Nil(t, img.PNG)
		} else {
			assert.NotEmpty(t, img.PNG)
		}
	}
}

func TestAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).All(ctx, planFor(t, trainSample, schema.SchemaA), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBarLayout(t *testing.T) {
	w, s := barLayout(960, 3)
	assert.Equal(t, maxBarWidth, w)
	assert.Positive(t, s)

	w, s = barLayout(960, 1000)
	assert.Equal(t, minBarWidth, w)
	assert.Equal(t, 1, s)
}

func TestAxisTop(t *testing.T) {
	assert.Equal(t, 1.0, axisTop(0))
	assert.Equal(t, 2.0, axisTop(1))
	assert.Equal(t, 10.0, axisTop(6))
	assert.Equal(t, 1000.0, axisTop(644))
}
