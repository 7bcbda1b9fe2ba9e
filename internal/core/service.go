package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/JonMunkholm/csvexplorer/internal/chart"
	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/export"
	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/JonMunkholm/csvexplorer/internal/render"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
)

var (
	ErrNoTable       = errors.New("no table selected")
	ErrFileNotFound  = errors.New("file not found")
	ErrNoFile        = errors.New("no file provided")
	ErrNotCSV        = errors.New("not a csv file")
	ErrFileTooLarge  = errors.New("file too large")
	ErrChartNotFound = errors.New("chart not found")

	// ErrBadRequest marks malformed request input.
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited is what throttled requests map to.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// DefaultMaxFileSize caps a single upload.
const DefaultMaxFileSize = 50 << 20

// ServiceConfig wires a Service.
type ServiceConfig struct {
	MaxFileSize       int64
	Limiter           *ParseLimiter
	Renderer          *render.Renderer
	RenderConcurrency int
}

// Service implements every user action on a Session. It holds no per-user
// state of its own and is safe for concurrent use.
type Service struct {
	maxFileSize       int64
	limiter           *ParseLimiter
	renderer          *render.Renderer
	renderConcurrency int
}

// NewService creates a Service. Missing collaborators take defaults.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewParseLimiter(0, 0)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(render.DefaultOptions)
	}
	return &Service{
		maxFileSize:       cfg.MaxFileSize,
		limiter:           cfg.Limiter,
		renderer:          cfg.Renderer,
		renderConcurrency: cfg.RenderConcurrency,
	}
}

// Limiter exposes the parse limiter for health reporting and shutdown.
func (svc *Service) Limiter() *ParseLimiter { return svc.limiter }

// Upload parses a CSV file and registers it with s. A file with the same
// name replaces the earlier one. The first upload becomes the selection.
func (svc *Service) Upload(ctx context.Context, s *Session, name string, r io.Reader) (FileInfo, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return FileInfo{}, ErrNoFile
	}
	if !strings.EqualFold(path.Ext(name), ".csv") {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrNotCSV, name)
	}

	data, err := io.ReadAll(io.LimitReader(r, svc.maxFileSize+1))
	if err != nil {
		return FileInfo{}, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > svc.maxFileSize {
		return FileInfo{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, name, svc.maxFileSize)
	}

	if err := svc.limiter.Acquire(ctx); err != nil {
		return FileInfo{}, err
	}
	start := time.Now()
	t, err := dataset.ReadCSV(bytes.NewReader(data))
	svc.limiter.Release()
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: %w", name, err)
	}

	info := FileInfo{
		Name:     name,
		Size:     int64(len(data)),
		Rows:     t.Len(),
		Columns:  t.Width(),
		Uploaded: time.Now().UTC(),
	}

	s.mu.Lock()
	s.addFile(&uploadedFile{info: info, table: t})
	s.mu.Unlock()

	logging.WithFields(ctx, "file", name).Info("upload parsed",
		"rows", info.Rows,
		"columns", info.Columns,
		"bytes", info.Size,
		"duration", time.Since(start),
	)
	return info, nil
}

// Files lists the uploaded files and the selected one.
func (svc *Service) Files(s *Session) ([]FileInfo, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FileInfo, len(s.files))
	for i, f := range s.files {
		out[i] = f.info
	}
	return out, s.selected
}

// Select makes name the analysed file. Its table is reloaded from the
// original parse; edits made to the previous selection are discarded.
func (svc *Service) Select(ctx context.Context, s *Session, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.file(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	s.selected = name
	s.setCurrent(f.table)

	logging.FromContext(ctx).Info("file selected", "file", name)
	return nil
}

// Table returns the current snapshot.
func (svc *Service) Table(s *Session) (*dataset.Table, error) {
	if t := s.Table(); t != nil {
		return t, nil
	}
	return nil, ErrNoTable
}

// Snapshot returns the current table and its version.
func (svc *Service) Snapshot(s *Session) (*dataset.Table, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, 0, ErrNoTable
	}
	return s.current, s.version, nil
}

// DeleteRow removes row index from the current table.
func (svc *Service) DeleteRow(ctx context.Context, s *Session, index int) (*dataset.Table, error) {
	return svc.mutate(ctx, s, func(t *dataset.Table) (*dataset.Table, error) {
		return dataset.DeleteRow(t, index)
	}, "row deleted", "row", index)
}

// EditRow applies edits to row index of the current table, all or nothing.
func (svc *Service) EditRow(ctx context.Context, s *Session, index int, edits map[string]string) (*dataset.Table, error) {
	return svc.mutate(ctx, s, func(t *dataset.Table) (*dataset.Table, error) {
		return dataset.EditRow(t, index, edits)
	}, "row edited", "row", index, "columns", len(edits))
}

// BeginEditAt opens an edit buffer on row index of the snapshot the caller
// saw at version. It fails with dataset.ErrStaleEditBuffer when the table
// has changed since, so an edit never lands on a row that moved.
func (svc *Service) BeginEditAt(s *Session, index int, version uint64) (*dataset.EditBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoTable
	}
	if s.version != version {
		return nil, dataset.ErrStaleEditBuffer
	}
	return dataset.NewEditBuffer(s.current, index)
}

// CommitEdit applies buf to the current table. It fails with
// dataset.ErrStaleEditBuffer when the table changed after BeginEditAt.
func (svc *Service) CommitEdit(ctx context.Context, s *Session, buf *dataset.EditBuffer) (*dataset.Table, error) {
	return svc.mutate(ctx, s, func(t *dataset.Table) (*dataset.Table, error) {
		return dataset.Commit(t, buf)
	}, "row edited", "row", buf.Row(), "columns", buf.Len())
}

// mutate swaps the current snapshot for fn's result. On error the snapshot
// is left as it was.
func (svc *Service) mutate(ctx context.Context, s *Session, fn func(*dataset.Table) (*dataset.Table, error), msg string, args ...any) (*dataset.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoTable
	}
	next, err := fn(s.current)
	if err != nil {
		return nil, err
	}
	s.setCurrent(next)

	logging.WithFields(ctx, "file", s.selected).Info(msg, append(args, "rows", next.Len())...)
	return next, nil
}

// Plan is the chart plan for the current table.
type Plan struct {
	File        string             `json:"file" yaml:"file"`
	Tag         schema.Tag         `json:"tag" yaml:"tag"`
	Descriptors []chart.Descriptor `json:"descriptors" yaml:"descriptors"`
	Warnings    []string           `json:"warnings" yaml:"warnings"`
}

// Plan classifies the current table and builds its charts.
//
// A file named like a known schema must carry that schema's required
// columns; otherwise the result is a blocking MissingColumnsError. Beyond
// that the column classifier decides the schema.
func (svc *Service) Plan(ctx context.Context, s *Session) (Plan, error) {
	s.mu.Lock()
	t, name := s.current, s.selected
	s.mu.Unlock()

	if t == nil {
		return Plan{}, ErrNoTable
	}
	return PlanFor(ctx, name, t)
}

// PlanFor builds the plan for t uploaded under name.
func PlanFor(ctx context.Context, name string, t *dataset.Table) (Plan, error) {
	if claim := schema.Candidate(name); claim != schema.Unknown {
		if err := schema.Check(t, claim); err != nil {
			return Plan{}, err
		}
	}

	tag := schema.Classify(t)
	descriptors, err := chart.BuildPlan(t, tag)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{File: name, Tag: tag, Descriptors: descriptors, Warnings: []string{}}
	for _, d := range descriptors {
		if d.IsWarning() {
			p.Warnings = append(p.Warnings, d.Warning)
		}
	}

	logging.FromContext(ctx).Debug("chart plan built", "file", name, "tag", tag, "charts", len(descriptors))
	return p, nil
}

// RenderChart draws chart n of the current plan as PNG.
func (svc *Service) RenderChart(ctx context.Context, s *Session, n int) ([]byte, error) {
	p, err := svc.Plan(ctx, s)
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= len(p.Descriptors) {
		return nil, fmt.Errorf("%w: %d", ErrChartNotFound, n)
	}

	var buf bytes.Buffer
	if err := svc.renderer.PNG(&buf, p.Descriptors[n]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderAll draws every chart of the current plan.
func (svc *Service) RenderAll(ctx context.Context, s *Session) ([]render.Image, error) {
	p, err := svc.Plan(ctx, s)
	if err != nil {
		return nil, err
	}
	return svc.renderer.All(ctx, p.Descriptors, svc.renderConcurrency)
}

// Export serializes the current table as xlsx.
func (svc *Service) Export(ctx context.Context, s *Session) ([]byte, error) {
	t, err := svc.Table(s)
	if err != nil {
		return nil, err
	}
	blob, err := export.XLSX(t)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("table exported", "rows", t.Len(), "bytes", len(blob))
	return blob, nil
}
