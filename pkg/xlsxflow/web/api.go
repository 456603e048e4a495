package web

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/frame"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/session"
)

// currentWorkbook opens the session's current version.
func currentWorkbook(sess *session.Session) (*xlsxflow.Workbook, error) {
	v, ok := sess.Current()
	if !ok {
		return nil, ErrNoWorkbook
	}
	return xlsxflow.OpenBytes(v.Name, v.Data, xlsxflow.Options{})
}

func (s *Server) handleWorkbook(r *http.Request, _ httprouter.Params, sess *session.Session) (interface{}, error) {
	wb, err := currentWorkbook(sess)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return xlsxflow.ExtractWorkbook(r.Context(), wb, xlsxflow.Options{Mode: xlsxflow.ModeStandard})
}

type describeResponse struct {
	Sheet   string              `json:"sheet"`
	Rows    int                 `json:"rows"`
	Columns []frame.ColumnStats `json:"columns"`
}

func (s *Server) handleDescribe(r *http.Request, ps httprouter.Params, sess *session.Session) (interface{}, error) {
	wb, err := currentWorkbook(sess)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheet := ps.ByName("sheet")
	if err := wb.RequireSheet(sheet); err != nil {
		return nil, err
	}
	fr, err := frame.FromSheet(wb.File, sheet, r.URL.Query().Get("range"), true)
	if err != nil {
		return nil, err
	}
	return describeResponse{Sheet: sheet, Rows: fr.Len(), Columns: fr.Describe()}, nil
}

type downloadURL struct {
	Name string `json:"name"`
	Href string `json:"href"`
	Size int    `json:"size"`
}

// handleDownloadURL returns the current workbook as a data: URL for clients
// that cannot follow an attachment download.
func (s *Server) handleDownloadURL(_ *http.Request, _ httprouter.Params, sess *session.Session) (interface{}, error) {
	v, ok := sess.Current()
	if !ok {
		return nil, ErrNoWorkbook
	}
	if int64(len(v.Data)) > s.cfg.InlineLimit {
		return nil, &httpError{
			code: http.StatusRequestEntityTooLarge,
			err:  fmt.Errorf("workbook is %d bytes, over the inline limit of %d", len(v.Data), s.cfg.InlineLimit),
		}
	}
	return downloadURL{
		Name: v.Name,
		Href: "data:" + xlsxMIME + ";base64," + base64.StdEncoding.EncodeToString(v.Data),
		Size: len(v.Data),
	}, nil
}
