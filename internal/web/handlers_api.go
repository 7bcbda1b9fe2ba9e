package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/export"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

type tableResponse struct {
	File    string         `json:"file"`
	Columns []string       `json:"columns"`
	Kinds   []dataset.Kind `json:"kinds"`
	Rows    [][]any        `json:"rows"`
	Len     int            `json:"len"`
}

type rowResponse struct {
	Index  int               `json:"index"`
	Values map[string]any    `json:"values"`
	Text   map[string]string `json:"text"`
	Len    int               `json:"len"`
}

type uploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

type uploadResponse struct {
	Files    []core.FileInfo `json:"files"`
	Failed   []uploadFailure `json:"failed"`
	Selected string          `json:"selected"`
}

// handleUpload accepts one or more CSV files in the multipart field "files".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	headers, err := s.parseUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := uploadResponse{Files: []core.FileInfo{}, Failed: []uploadFailure{}}
	var firstErr error
	for _, fh := range headers {
		info, err := s.uploadOne(r, fh)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			msg := core.MapError(err)
			resp.Failed = append(resp.Failed, uploadFailure{Name: fh.Filename, Error: errorText(err, msg), Code: msg.Code})
			continue
		}
		resp.Files = append(resp.Files, info)
	}

	if len(resp.Files) == 0 {
		s.respondError(w, r, firstErr, statusFor(firstErr))
		return
	}
	resp.Selected = session(r).Selected()
	writeJSONStatus(w, http.StatusCreated, resp)
}

// parseUpload bounds the request body and returns the uploaded file headers.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) ([]*multipart.FileHeader, error) {
	maxBody := s.cfg.Upload.MaxFileSize*int64(s.cfg.Upload.MaxFiles) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, maxBody)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, core.ErrNoFile
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d files per upload", core.ErrBadRequest, s.cfg.Upload.MaxFiles)
	}
	return headers, nil
}

func (s *Server) uploadOne(r *http.Request, fh *multipart.FileHeader) (core.FileInfo, error) {
	f, err := fh.Open()
	if err != nil {
		return core.FileInfo{}, err
	}
	defer f.Close()
	return s.service.Upload(r.Context(), session(r), fh.Filename, f)
}

// handleListFiles lists the uploaded files and the selection.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, selected := s.service.Files(session(r))
	writeJSON(w, map[string]any{
		"files":    files,
		"selected": selected,
	})
}

// handleSelect makes {name} the analysed file.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.Select(r.Context(), session(r), name); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, map[string]string{"selected": name})
}

// handleTable returns the current snapshot.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	t, err := s.service.Table(sess)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := tableResponse{
		File:    sess.Selected(),
		Columns: t.Columns(),
		Kinds:   t.Kinds(),
		Rows:    make([][]any, t.Len()),
		Len:     t.Len(),
	}
	for i := range resp.Rows {
		row, _ := t.Row(i)
		cells := make([]any, len(row))
		for c, v := range row {
			cells[c] = v.Any()
		}
		resp.Rows[i] = cells
	}
	writeJSON(w, resp)
}

// handleGetRow returns one row, with text values for pre-filling an edit form.
func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	t, err := s.service.Table(session(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	row, err := t.Row(index)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, rowBody(t, index, row))
}

// handleDeleteRow removes one row.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	t, err := s.service.DeleteRow(r.Context(), session(r), index)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, map[string]any{
		"deleted": index,
		"len":     t.Len(),
		"message": deletedMessage(index),
	})
}

// handleEditRow applies {"edits": {column: raw}} to one row.
func (s *Server) handleEditRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var req struct {
		Edits map[string]string `json:"edits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		err = fmt.Errorf("%w: invalid request body: %v", core.ErrBadRequest, err)
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	t, err := s.service.EditRow(r.Context(), session(r), index, req.Edits)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	row, err := t.Row(index)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, rowBody(t, index, row))
}

// handlePlan returns the chart plan for the current table.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Plan(r.Context(), session(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, p)
}

// handleChartPNG renders chart {n} of the current plan.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		err = fmt.Errorf("%w: %s", core.ErrChartNotFound, chi.URLParam(r, "n"))
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	blob, err := s.service.RenderChart(r.Context(), session(r), n)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(blob)
}

// handleExport downloads the current table as datos.xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	blob, err := s.service.Export(r.Context(), session(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	_, _ = w.Write(blob)
}

func rowIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid row index %q", core.ErrBadRequest, raw)
	}
	return i, nil
}

func rowBody(t *dataset.Table, index int, row []dataset.Value) rowResponse {
	resp := rowResponse{
		Index:  index,
		Values: make(map[string]any, len(row)),
		Text:   make(map[string]string, len(row)),
		Len:    t.Len(),
	}
	for c, name := range t.Columns() {
		resp.Values[name] = row[c].Any()
		resp.Text[name] = row[c].String()
	}
	return resp
}

func deletedMessage(index int) string {
	return fmt.Sprintf("Row %d deleted.", index)
}

func editedMessage(index int) string {
	return fmt.Sprintf("Row %d edited.", index)
}
