package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/JonMunkholm/csvexplorer/internal/web/templates"
)

// Edit form input names.
const (
	editFieldPrefix  = "col:"
	editVersionField = "version"
)

// handlePage renders the explorer page for the session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	p := templates.PageParams{}
	p.Flash, p.Errors = popFlashes(w, r)

	files, selected := s.service.Files(sess)
	for _, f := range files {
		p.Files = append(p.Files, templates.FileOption{Name: f.Name, Rows: f.Rows, Selected: f.Name == selected})
	}

	t, version, err := s.service.Snapshot(sess)
	switch {
	case errors.Is(err, core.ErrNoTable):
	case err != nil:
		p.Error = alertFor(err)
	default:
		p.Table = tableView(t)
		if raw := r.URL.Query().Get("edit"); raw != "" {
			edit, err := editForm(t, version, raw)
			if err != nil {
				p.Error = alertFor(err)
			}
			p.Edit = edit
		}
		s.fillCharts(r, &p)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(p).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("page render failed", "error", err)
	}
}

func tableView(t *dataset.Table) *templates.TableView {
	header, rows := t.Records()
	if len(rows) > templates.MaxDisplayRows {
		rows = rows[:templates.MaxDisplayRows]
	}
	kinds := t.Kinds()
	v := &templates.TableView{
		Columns: header,
		Kinds:   make([]string, len(kinds)),
		Rows:    rows,
		Total:   t.Len(),
	}
	for i, k := range kinds {
		v.Kinds[i] = k.String()
	}
	return v
}

// editForm pre-fills row raw of t. The form carries version so the commit
// can tell whether the table changed while it was open.
func editForm(t *dataset.Table, version uint64, raw string) (*templates.EditForm, error) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid row index %q", core.ErrBadRequest, raw)
	}
	buf, err := dataset.NewEditBuffer(t, index)
	if err != nil {
		return nil, err
	}
	defer buf.Discard()

	form := &templates.EditForm{Row: index, Version: version, Columns: t.Columns()}
	form.Values = make([]string, len(form.Columns))
	for i, c := range form.Columns {
		form.Values[i], _ = buf.Current(c)
	}
	return form, nil
}

func (s *Server) fillCharts(r *http.Request, p *templates.PageParams) {
	plan, err := s.service.Plan(r.Context(), session(r))
	if err != nil {
		p.PlanErr = alertFor(err)
		return
	}

	p.SchemaID = plan.Tag.String()
	p.Warnings = plan.Warnings
	for i, d := range plan.Descriptors {
		if d.IsWarning() {
			continue
		}
		img := templates.ChartImage{Index: len(p.Charts), Title: d.Title}
		if len(d.Series) > 0 {
			img.URL = fmt.Sprintf("/api/charts/%d.png", i)
		}
		p.Charts = append(p.Charts, img)
	}
}

// handleUIUpload is the form variant of handleUpload.
func (s *Server) handleUIUpload(w http.ResponseWriter, r *http.Request) {
	defer seeOther(w, r, "/")

	headers, err := s.parseUpload(w, r)
	if err != nil {
		addFlashError(w, r, err)
		return
	}

	var done []string
	for _, fh := range headers {
		info, err := s.uploadOne(r, fh)
		if err != nil {
			addFlashError(w, r, fmt.Errorf("%s: %w", fh.Filename, err))
			continue
		}
		done = append(done, fmt.Sprintf("Uploaded %s (%d rows, %d columns).", info.Name, info.Rows, info.Columns))
	}
	addFlash(w, r, done...)
}

// handleUISelect switches the analysed file.
func (s *Server) handleUISelect(w http.ResponseWriter, r *http.Request) {
	defer seeOther(w, r, "/")

	name := r.FormValue("file")
	if name == "" {
		addFlashError(w, r, core.ErrNoFile)
		return
	}
	if err := s.service.Select(r.Context(), session(r), name); err != nil {
		addFlashError(w, r, err)
		return
	}
	addFlash(w, r, fmt.Sprintf("Analysing %s.", name))
}

// handleUIDelete deletes the row given in the "index" field.
func (s *Server) handleUIDelete(w http.ResponseWriter, r *http.Request) {
	defer seeOther(w, r, "/")

	raw := strings.TrimSpace(r.FormValue("index"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		addFlashError(w, r, fmt.Errorf("%w: invalid row index %q", core.ErrBadRequest, raw))
		return
	}
	if _, err := s.service.DeleteRow(r.Context(), session(r), index); err != nil {
		addFlashError(w, r, err)
		return
	}
	addFlash(w, r, deletedMessage(index))
}

// handleUIEdit commits the edit form of one row. Only fields whose text
// changed are applied, and only if the table is still at the version the
// form was rendered from.
func (s *Server) handleUIEdit(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		addFlashError(w, r, err)
		seeOther(w, r, "/")
		return
	}
	if err := r.ParseForm(); err != nil {
		addFlashError(w, r, fmt.Errorf("%w: %v", core.ErrBadRequest, err))
		seeOther(w, r, "/")
		return
	}

	version, err := strconv.ParseUint(r.PostForm.Get(editVersionField), 10, 64)
	if err != nil {
		addFlashError(w, r, fmt.Errorf("%w: invalid form version %q", core.ErrBadRequest, r.PostForm.Get(editVersionField)))
		seeOther(w, r, "/")
		return
	}

	sess := session(r)
	buf, err := s.service.BeginEditAt(sess, index, version)
	if err != nil {
		addFlashError(w, r, err)
		seeOther(w, r, "/")
		return
	}

	for key, vals := range r.PostForm {
		column, ok := strings.CutPrefix(key, editFieldPrefix)
		if !ok || len(vals) == 0 {
			continue
		}
		current, err := buf.Current(column)
		if err == nil && current == vals[0] {
			continue
		}
		buf.Set(column, vals[0])
	}

	if buf.Len() == 0 {
		buf.Discard()
		addFlash(w, r, fmt.Sprintf("No changes to row %d.", index))
		seeOther(w, r, "/")
		return
	}

	if _, err := s.service.CommitEdit(r.Context(), sess, buf); err != nil {
		addFlashError(w, r, err)
		seeOther(w, r, fmt.Sprintf("/?edit=%d", index))
		return
	}
	addFlash(w, r, editedMessage(index))
	seeOther(w, r, "/")
}

func seeOther(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
