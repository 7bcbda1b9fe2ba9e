package core

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/csvexplorer/internal/chart"
	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/export"
	"github.com/JonMunkholm/csvexplorer/internal/render"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainCSV = `PassengerId,Survived,Pclass,Name,Sex,Age,Ticket,Fare,Embarked
1,0,3,"Braund, Mr. Owen Harris",male,22,A/5 21171,7.25,S
2,1,1,"Cumings, Mrs. John Bradley",female,38,PC 17599,71.2833,C
3,1,3,"Heikkinen, Miss. Laina",female,26,STON/O2. 3101282,7.925,S
4,1,1,"Futrelle, Mrs. Jacques Heath",female,35,113803,53.1,S
`

const testCSV = `PassengerId,Pclass,Name,Age,Fare
892,3,"Kelly, Mr. James",34.5,7.8292
893,3,"Wilkes, Mrs. James",47,7
894,2,"Myles, Mr. Thomas Francis",62,9.6875
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		MaxFileSize: 1 << 20,
		Renderer:    render.New(render.Options{Width: 320, Height: 240}),
	})
}

func upload(t *testing.T, svc *Service, s *Session, name, body string) FileInfo {
	t.Helper()
	info, err := svc.Upload(context.Background(), s, name, strings.NewReader(body))
	require.NoError(t, err)
	return info
}

func TestUpload_SelectsFirstFile(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()

	info := upload(t, svc, s, "train.csv", trainCSV)
	assert.Equal(t, "train.csv", info.Name)
	assert.Equal(t, 4, info.Rows)
	assert.Equal(t, 9, info.Columns)

	upload(t, svc, s, "test.csv", testCSV)

	files, selected := svc.Files(s)
	require.Len(t, files, 2)
	assert.Equal(t, "train.csv", files[0].Name)
	assert.Equal(t, "test.csv", files[1].Name)
	assert.Equal(t, "train.csv", selected)

	tbl, err := svc.Table(s)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
}

func TestUpload_ReplacesSameName(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()

	upload(t, svc, s, "train.csv", trainCSV)
	upload(t, svc, s, "other.csv", "a\n1\n")
	upload(t, svc, s, `C:\data\train.csv`, "PassengerId,Ticket,Embarked\n1,X,S\n")

	files, selected := svc.Files(s)
	require.Len(t, files, 2)
	assert.Equal(t, "train.csv", files[0].Name)
	assert.Equal(t, 1, files[0].Rows)
	assert.Equal(t, "train.csv", selected)

	tbl, err := svc.Table(s)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len(), "replacing the selected file reloads the table")
}

func TestUpload_Rejects(t *testing.T) {
	svc := NewService(ServiceConfig{MaxFileSize: 16})
	s := NewSession()
	ctx := context.Background()

	_, err := svc.Upload(ctx, s, "", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = svc.Upload(ctx, s, "notes.txt", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, ErrNotCSV)

	_, err = svc.Upload(ctx, s, "big.csv", strings.NewReader(trainCSV))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Upload(ctx, s, "empty.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, dataset.ErrParse)

	files, selected := svc.Files(s)
	assert.Empty(t, files)
	assert.Empty(t, selected)
}

func TestUpload_LimiterBusy(t *testing.T) {
	limiter := NewParseLimiter(1, 10*time.Millisecond)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	svc := NewService(ServiceConfig{Limiter: limiter})
	_, err := svc.Upload(context.Background(), NewSession(), "train.csv", strings.NewReader(trainCSV))
	assert.ErrorIs(t, err, ErrTooManyParses)
}

func TestSelect_DiscardsEdits(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()

	upload(t, svc, s, "train.csv", trainCSV)
	upload(t, svc, s, "test.csv", testCSV)

	_, err := svc.DeleteRow(ctx, s, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Select(ctx, s, "test.csv"))
	tbl, _ := svc.Table(s)
	assert.Equal(t, 3, tbl.Len())

	require.NoError(t, svc.Select(ctx, s, "train.csv"))
	tbl, _ = svc.Table(s)
	assert.Equal(t, 4, tbl.Len())

	assert.ErrorIs(t, svc.Select(ctx, s, "missing.csv"), ErrFileNotFound)
	assert.Equal(t, "train.csv", s.Selected())
}

func TestNoTableSelected(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()

	_, err := svc.Table(s)
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = svc.DeleteRow(ctx, s, 0)
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = svc.EditRow(ctx, s, 0, map[string]string{"a": "1"})
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = svc.BeginEditAt(s, 0, 0)
	assert.ErrorIs(t, err, ErrNoTable)
	_, _, err = svc.Snapshot(s)
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = svc.Plan(ctx, s)
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = svc.Export(ctx, s)
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestDeleteAndEdit(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()
	upload(t, svc, s, "train.csv", trainCSV)

	tbl, err := svc.DeleteRow(ctx, s, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	before := s.Table()
	_, err = svc.EditRow(ctx, s, 0, map[string]string{"Age": "abc"})
	assert.ErrorIs(t, err, dataset.ErrCoercion)
	assert.Same(t, before, s.Table(), "failed edit leaves the snapshot")

	_, err = svc.DeleteRow(ctx, s, 3)
	assert.ErrorIs(t, err, dataset.ErrIndexOutOfRange)
	assert.Same(t, before, s.Table())

	tbl, err = svc.EditRow(ctx, s, 1, map[string]string{"Embarked": "Q", "Age": ""})
	require.NoError(t, err)
	embarked, _ := tbl.Cell(1, "Embarked")
	assert.Equal(t, "Q", embarked.String())
	age, _ := tbl.Cell(1, "Age")
	assert.True(t, age.IsNull())
}

func TestEditBufferFlow(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()
	upload(t, svc, s, "train.csv", trainCSV)

	_, version, err := svc.Snapshot(s)
	require.NoError(t, err)

	buf, err := svc.BeginEditAt(s, 2, version)
	require.NoError(t, err)
	current, err := buf.Current("Ticket")
	require.NoError(t, err)
	assert.Equal(t, "STON/O2. 3101282", current)

	buf.Set("Ticket", "NEW")

	stale, err := svc.BeginEditAt(s, 0, version)
	require.NoError(t, err)

	tbl, err := svc.CommitEdit(ctx, s, buf)
	require.NoError(t, err)
	ticket, _ := tbl.Cell(2, "Ticket")
	assert.Equal(t, "NEW", ticket.String())

	stale.Set("Ticket", "OLD")
	_, err = svc.CommitEdit(ctx, s, stale)
	assert.ErrorIs(t, err, dataset.ErrStaleEditBuffer)

	_, err = svc.BeginEditAt(s, 0, version)
	assert.ErrorIs(t, err, dataset.ErrStaleEditBuffer, "form rendered before the commit is stale")
}

func TestSnapshotVersion(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()

	upload(t, svc, s, "train.csv", trainCSV)
	_, v1, err := svc.Snapshot(s)
	require.NoError(t, err)

	upload(t, svc, s, "test.csv", testCSV)
	_, v2, err := svc.Snapshot(s)
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "uploading another file keeps the selection")

	_, err = svc.EditRow(ctx, s, 0, map[string]string{"Age": "bad"})
	require.Error(t, err)
	assert.Equal(t, v1, s.Version(), "failed edits keep the version")

	_, err = svc.DeleteRow(ctx, s, 0)
	require.NoError(t, err)
	_, v3, err := svc.Snapshot(s)
	require.NoError(t, err)
	assert.Greater(t, v3, v1)

	require.NoError(t, svc.Select(ctx, s, "train.csv"))
	assert.Greater(t, s.Version(), v3, "select reloads the parse")

	_, err = svc.BeginEditAt(s, 0, v3)
	assert.ErrorIs(t, err, dataset.ErrStaleEditBuffer)
}

func TestPlan(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()

	upload(t, svc, s, "train.csv", trainCSV)
	p, err := svc.Plan(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaA, p.Tag)
	assert.Len(t, p.Descriptors, 4)
	assert.Empty(t, p.Warnings)

	upload(t, svc, s, "test.csv", testCSV)
	require.NoError(t, svc.Select(ctx, s, "test.csv"))
	p, err = svc.Plan(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaB, p.Tag)
	require.Len(t, p.Descriptors, 4)
	assert.Equal(t, chart.MissingColumnWarning, p.Descriptors[1].Kind)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "Sex")
}

func TestPlan_FilenameClaim(t *testing.T) {
	ctx := context.Background()
	tbl, err := dataset.ReadCSV(strings.NewReader("Name,Fare\nKelly,7.83\n"))
	require.NoError(t, err)

	_, err = PlanFor(ctx, "train.csv", tbl)
	var mce *schema.MissingColumnsError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, []string{"Ticket", "Embarked"}, mce.Missing)

	p, err := PlanFor(ctx, "passengers.csv", tbl)
	require.NoError(t, err)
	assert.Equal(t, schema.Unknown, p.Tag)
	assert.Empty(t, p.Descriptors)

	// The classifier is authoritative once the claim is satisfied.
	full, err := dataset.ReadCSV(strings.NewReader(trainCSV))
	require.NoError(t, err)
	p, err = PlanFor(ctx, "test.csv", full)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaA, p.Tag)
}

func TestRenderChart(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()
	upload(t, svc, s, "train.csv", trainCSV)

	blob, err := svc.RenderChart(ctx, s, 0)
	require.NoError(t, err)
	_, err = png.DecodeConfig(bytes.NewReader(blob))
	assert.NoError(t, err)

	_, err = svc.RenderChart(ctx, s, 4)
	assert.ErrorIs(t, err, ErrChartNotFound)

	images, err := svc.RenderAll(ctx, s)
	require.NoError(t, err)
	assert.Len(t, images, 4)
}

func TestExport(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()
	upload(t, svc, s, "train.csv", trainCSV)

	_, err := svc.DeleteRow(ctx, s, 0)
	require.NoError(t, err)

	blob, err := svc.Export(ctx, s)
	require.NoError(t, err)

	back, err := export.ReadXLSX(bytes.NewReader(blob))
	require.NoError(t, err)
	assert.Equal(t, 3, back.Len())
	assert.Equal(t, s.Table().Columns(), back.Columns())
}

func TestConcurrentMutations(t *testing.T) {
	svc := newTestService(t)
	s := NewSession()
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("Ticket,Embarked\n")
	for i := 0; i < 50; i++ {
		b.WriteString("T,S\n")
	}
	upload(t, svc, s, "train.csv", b.String())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.DeleteRow(ctx, s, 0)
			_, _ = svc.Plan(ctx, s)
		}()
	}
	wg.Wait()

	tbl, err := svc.Table(s)
	require.NoError(t, err)
	assert.Equal(t, 30, tbl.Len())
}
