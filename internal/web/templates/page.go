// Package templates holds the HTML components of the explorer page.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// MaxDisplayRows caps how many rows the page prints.
const MaxDisplayRows = 1000

// FileOption is one entry of the file selector.
type FileOption struct {
	Name     string
	Rows     int
	Selected bool
}

// TableView is the current snapshot rendered as text.
type TableView struct {
	Columns []string
	Kinds   []string
	Rows    [][]string
	Total   int
}

// EditForm pre-fills the edit inputs for one row.
type EditForm struct {
	Row     int
	Version uint64 // table version the values were read from
	Columns []string
	Values  []string
}

// ChartImage is one entry of the chart plan. URL is empty when the chart has
// nothing to plot.
type ChartImage struct {
	Index int
	Title string
	URL   string
}

// PageParams carries everything the page shows.
type PageParams struct {
	Flash    []string
	Errors   []string
	Error    *Alert
	Files    []FileOption
	Table    *TableView
	Edit     *EditForm
	SchemaID string
	Charts   []ChartImage
	Warnings []string
	PlanErr  *Alert
}

// Alert is a user-facing error with a support code.
type Alert struct {
	Message string
	Action  string
	Code    string
}

// Page renders the full explorer page.
func Page(p PageParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>CSV Explorer</title><style>` + styles + `</style></head><body><main>`)
		h.raw(`<h1>CSV Explorer</h1>`)

		for _, msg := range p.Flash {
			h.raw(`<p class="flash">`).text(msg).raw(`</p>`)
		}
		for _, msg := range p.Errors {
			if err := ErrorAlert(msg, "", "").Render(ctx, h); err != nil {
				return err
			}
		}
		if p.Error != nil {
			if err := ErrorAlert(p.Error.Message, p.Error.Action, p.Error.Code).Render(ctx, h); err != nil {
				return err
			}
		}

		uploadForm(h)
		fileSelector(h, p.Files)

		if p.Table != nil {
			tableSection(h, p.Table)
			rowForms(h, p.Table, p.Edit)
			chartSection(h, p)
			h.raw(`<section><h2>Export</h2><a class="button" href="/api/export">Download datos.xlsx</a></section>`)
		}

		h.raw(`</main></body></html>`)
		return h.err
	})
}

// ErrorAlert renders a blocking error message.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`).text(message).raw(`</strong>`)
		if action != "" {
			h.raw(` `).text(action)
		}
		if code != "" {
			h.raw(` <code>`).text(code).raw(`</code>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

func uploadForm(h *html) {
	h.raw(`<section><h2>Upload</h2>`)
	h.raw(`<form method="post" action="/ui/upload" enctype="multipart/form-data">`)
	h.raw(`<input type="file" name="files" accept=".csv" multiple required> `)
	h.raw(`<button type="submit">Upload</button></form></section>`)
}

func fileSelector(h *html, files []FileOption) {
	if len(files) == 0 {
		h.raw(`<p>Upload one or more CSV files to start.</p>`)
		return
	}
	h.raw(`<section><h2>Files</h2><form method="post" action="/ui/select"><select name="file">`)
	for _, f := range files {
		h.raw(`<option value="`).text(f.Name).raw(`"`)
		if f.Selected {
			h.raw(` selected`)
		}
		h.raw(`>`).text(f.Name).raw(` (`).text(strconv.Itoa(f.Rows)).raw(` rows)</option>`)
	}
	h.raw(`</select> <button type="submit">Analyse</button></form></section>`)
}

func tableSection(h *html, t *TableView) {
	h.raw(`<section><h2>Table</h2>`)
	if t.Total > len(t.Rows) {
		h.raw(`<p>Showing the first `).text(strconv.Itoa(len(t.Rows))).raw(` of `).text(strconv.Itoa(t.Total)).raw(` rows.</p>`)
	} else {
		h.raw(`<p>`).text(strconv.Itoa(t.Total)).raw(` rows.</p>`)
	}
	h.raw(`<div class="scroll"><table><thead><tr><th></th>`)
	for i, c := range t.Columns {
		h.raw(`<th title="`).text(t.Kinds[i]).raw(`">`).text(c).raw(`</th>`)
	}
	h.raw(`</tr></thead><tbody>`)
	for i, row := range t.Rows {
		h.raw(`<tr><th>`).text(strconv.Itoa(i)).raw(`</th>`)
		for _, cell := range row {
			h.raw(`<td>`).text(cell).raw(`</td>`)
		}
		h.raw(`</tr>`)
	}
	h.raw(`</tbody></table></div></section>`)
}

func rowForms(h *html, t *TableView, edit *EditForm) {
	if t.Total == 0 {
		return
	}
	last := strconv.Itoa(t.Total - 1)

	h.raw(`<section><h2>Delete a row</h2><form method="post" action="/ui/rows/delete">`)
	h.raw(`<input type="number" name="index" min="0" max="` + last + `" required> `)
	h.raw(`<button type="submit">Delete</button></form></section>`)

	h.raw(`<section><h2>Edit a row</h2><form method="get" action="/">`)
	h.raw(`<input type="number" name="edit" min="0" max="` + last + `" required> `)
	h.raw(`<button type="submit">Load row</button></form>`)

	if edit != nil {
		row := strconv.Itoa(edit.Row)
		h.raw(`<form method="post" action="/ui/rows/` + row + `/edit" class="edit">`)
		h.raw(`<input type="hidden" name="version" value="` + strconv.FormatUint(edit.Version, 10) + `">`)
		for i, c := range edit.Columns {
			h.raw(`<label>`).text(c).raw(` <input type="text" name="col:`).text(c)
			h.raw(`" value="`).text(edit.Values[i]).raw(`"></label>`)
		}
		h.raw(`<button type="submit">Save row ` + row + `</button></form>`)
	}
	h.raw(`</section>`)
}

func chartSection(h *html, p PageParams) {
	h.raw(`<section><h2>Charts</h2>`)
	if p.PlanErr != nil {
		h.raw(`<div class="alert" role="alert">`).text(p.PlanErr.Message).raw(`</div></section>`)
		return
	}
	if p.SchemaID != "" {
		h.raw(`<p>Detected layout: <code>`).text(p.SchemaID).raw(`</code></p>`)
	}
	for _, warn := range p.Warnings {
		h.raw(`<p class="warning">`).text(warn).raw(`</p>`)
	}
	if len(p.Charts) == 0 {
		h.raw(`<p>No charts for this file.</p>`)
	}
	for _, c := range p.Charts {
		if c.URL == "" {
			h.raw(`<figure class="empty"><p>No data to plot.</p>`)
		} else {
			h.raw(`<figure><img src="`).text(c.URL).raw(`" alt="`).text(c.Title).raw(`" loading="lazy">`)
		}
		h.raw(`<figcaption>`).text(fmt.Sprintf("%d. %s", c.Index+1, c.Title)).raw(`</figcaption></figure>`)
	}
	h.raw(`</section>`)
}

// html writes markup and remembers the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) Write(p []byte) (int, error) {
	if h.err != nil {
		return 0, h.err
	}
	n, err := h.w.Write(p)
	h.err = err
	return n, err
}

func (h *html) raw(s string) *html {
	_, _ = io.WriteString(h, s)
	return h
}

func (h *html) text(s string) *html {
	return h.raw(templ.EscapeString(s))
}

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f8;color:#222}
main{max-width:1200px;margin:0 auto;padding:1rem 2rem}
section{background:#fff;border:1px solid #ddd;border-radius:6px;padding:1rem;margin:1rem 0}
.scroll{max-height:480px;overflow:auto}
table{border-collapse:collapse;font-size:.85rem}
th,td{border:1px solid #e3e3e3;padding:.2rem .5rem;text-align:left;white-space:nowrap}
thead th{position:sticky;top:0;background:#f0f0f0}
.flash{background:#e6f4ea;border:1px solid #b7dfc3;padding:.5rem;border-radius:4px}
.alert{background:#fdecea;border:1px solid #f5c2c0;padding:.5rem;border-radius:4px}
.warning{background:#fff8e1;border:1px solid #ffe08a;padding:.5rem;border-radius:4px}
.edit label{display:inline-block;margin:.25rem .5rem .25rem 0}
figure{margin:1rem 0}img{max-width:100%}
.button{display:inline-block;padding:.4rem .8rem;background:#2563eb;color:#fff;border-radius:4px;text-decoration:none}`
