package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/ingest"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/session"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/transform"
)

const exampleRecipe = `name: example
steps:
  - op: unmerge
    sheet: Sheet1
    fill: true
  - op: stamp_date
    sheet: Sheet1
    cell: H1
`

type historyEntry struct {
	Label string
	Name  string
	Size  int
	When  string
}

type pageData struct {
	Flash string
	Error string

	HasWorkbook bool
	Name        string
	Size        int
	Updated     string
	Label       string
	Sheets      []string
	Sheet       string
	Preview     *preview

	Recipe  string
	Report  *transform.Report
	History []historyEntry
	MaxSize string
}

func pop(sess *session.Session, key string) string {
	v := sess.Get(key)
	if v != "" {
		sess.Set(key, "")
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	data := pageData{
		Flash:   pop(sess, flashKey),
		Error:   pop(sess, errorKey),
		Recipe:  sess.Get(recipeKey),
		Report:  sess.Report(),
		MaxSize: humanize.Bytes(uint64(s.cfg.MaxUpload)),
	}
	if data.Recipe == "" {
		data.Recipe = exampleRecipe
	}

	if v, ok := sess.Current(); ok {
		data.HasWorkbook = true
		data.Name, data.Size, data.Label = v.Name, len(v.Data), v.Label
		data.Updated = humanize.Time(v.Created)
		if err := s.fillPreview(&data, v, r.URL.Query().Get("sheet")); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("preview failed")
			data.Error = "Preview failed: " + err.Error()
		}
		hist := sess.History()
		for i := len(hist) - 1; i >= 0; i-- {
			data.History = append(data.History, historyEntry{
				Label: hist[i].Label,
				Name:  hist[i].Name,
				Size:  len(hist[i].Data),
				When:  humanize.Time(hist[i].Created),
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.tmpl.ExecuteTemplate(w, "index.html", data)
}

func (s *Server) fillPreview(data *pageData, v session.Version, sheet string) error {
	wb, err := xlsxflow.OpenBytes(v.Name, v.Data, xlsxflow.Options{})
	if err != nil {
		return err
	}
	defer wb.Close()

	data.Sheets = wb.Sheets()
	if !wb.HasSheet(sheet) {
		sheet = data.Sheets[0]
	}
	data.Sheet = sheet
	data.Preview, err = buildPreview(wb, sheet, s.cfg.PreviewRows)
	return err
}

func (s *Server) ingestOptions(password, contentType string) ingest.Options {
	return ingest.Options{
		Password:    password,
		ContentType: contentType,
		Converter:   s.converter,
		TempDir:     s.cfg.TempDir,
	}
}

// load ingests a document and makes it the session's current workbook.
func (s *Server) load(ctx context.Context, sess *session.Session, name string, data []byte, contentType, password, label string) error {
	wb, err := ingest.Ingest(ctx, name, data, s.ingestOptions(password, contentType))
	if err != nil {
		return err
	}
	defer wb.Close()

	out, err := wb.Bytes()
	if err != nil {
		return err
	}
	sess.Push(wb.Name, out, label)
	sess.SetReport(nil)
	sess.Set(flashKey, fmt.Sprintf("Loaded %s: %d sheet(s), %s.", wb.Name, len(wb.Sheets()), humanize.Bytes(uint64(len(out)))))
	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	if r.ContentLength > s.cfg.MaxUpload {
		return &http.MaxBytesError{Limit: s.cfg.MaxUpload}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	err = s.load(r.Context(), sess, hdr.Filename, data, hdr.Header.Get("Content-Type"), r.FormValue("password"), "upload")
	if err != nil {
		return err
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	res, err := s.fetcher.Fetch(r.Context(), r.FormValue("url"))
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := s.load(r.Context(), sess, res.Name, res.Body, res.ContentType, "", "fetch"); err != nil {
		return err
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

// handleApply runs a recipe on a fresh copy of the current workbook. The
// session only changes when every step succeeds.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	text := r.FormValue("recipe")
	sess.Set(recipeKey, text)

	v, ok := sess.Current()
	if !ok {
		return ErrNoWorkbook
	}
	recipe, err := transform.ParseRecipe([]byte(text))
	if err != nil {
		return err
	}
	wb, err := xlsxflow.OpenBytes(v.Name, v.Data, xlsxflow.Options{})
	if err != nil {
		return err
	}
	defer wb.Close()

	report, err := transform.Apply(r.Context(), wb, recipe, transform.Env{
		Fetcher: s.fetcher,
		Clock:   s.clock,
		Ingest:  s.ingestOptions("", ""),
		Logger:  *zerolog.Ctx(r.Context()),
	})
	if err != nil {
		return err
	}
	out, err := wb.Bytes()
	if err != nil {
		return err
	}

	label := recipe.Name
	if label == "" {
		label = "recipe"
	}
	sess.Push(v.Name, out, label)
	sess.SetReport(report)
	sess.Set(flashKey, fmt.Sprintf("Applied %d step(s), %s cell(s) touched.", len(report.Steps), humanize.Comma(int64(report.Cells()))))
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	v, err := sess.Undo()
	if err != nil {
		return err
	}
	sess.Set(flashKey, fmt.Sprintf("Restored the %q version.", v.Label))
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	sess.Reset()
	sess.Set(flashKey, "Workbook cleared.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) error {
	v, ok := sess.Current()
	if !ok {
		return ErrNoWorkbook
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": v.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(v.Data)))
	if _, err := w.Write(v.Data); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("download interrupted")
	}
	return nil
}
