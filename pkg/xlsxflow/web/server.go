// Package web serves the browser front end: upload or fetch a workbook,
// preview its sheets, apply recipes, undo, and download the result.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/config"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/fetch"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/frame"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/ingest"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/session"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/transform"
)

//go:embed templates/*.html
var templateFS embed.FS

// CookieName is the session cookie.
const CookieName = "xlsxflow_session"

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Session value keys.
const (
	flashKey  = "flash"
	errorKey  = "error"
	recipeKey = "recipe"
)

// ErrNoWorkbook is returned by endpoints that need a loaded workbook.
var ErrNoWorkbook = errors.New("no workbook loaded")

// httpError carries an explicit status code.
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

// Server holds the handlers and their collaborators.
type Server struct {
	cfg       *config.Config
	sessions  *session.Store
	fetcher   *fetch.Fetcher
	converter *ingest.Converter
	log       zerolog.Logger
	clock     func() time.Time
	tmpl      *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithFetcher replaces the fetcher built from the configuration.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *Server) { s.fetcher = f }
}

// WithConverter enables conversion of legacy formats.
func WithConverter(c *ingest.Converter) Option {
	return func(s *Server) { s.converter = c }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithClock replaces time.Now for stamp_date steps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

var funcs = template.FuncMap{
	"bytes": func(n int) string { return humanize.Bytes(uint64(n)) },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}

// New builds a server.
func New(cfg *config.Config, sessions *session.Store, opts ...Option) (*Server, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		log:      zerolog.Nop(),
		clock:    time.Now,
		tmpl:     tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = fetch.New(cfg.Fetch.Timeout, cfg.Fetch.Retries, cfg.Fetch.MaxBytes)
		s.fetcher.AllowPrivate = cfg.Fetch.AllowPrivate
		s.fetcher.Logger = s.log
	}
	return s, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/", s.page(s.handleIndex))
	router.POST("/upload", s.page(s.handleUpload))
	router.POST("/fetch", s.page(s.handleFetch))
	router.POST("/apply", s.page(s.handleApply))
	router.POST("/undo", s.page(s.handleUndo))
	router.POST("/reset", s.page(s.handleReset))
	router.GET("/download", s.page(s.handleDownload))

	router.GET("/api/workbook", s.api(s.handleWorkbook))
	router.GET("/api/sheets/:sheet/describe", s.api(s.handleDescribe))
	router.GET("/api/download-url", s.api(s.handleDownloadURL))
	router.GET("/healthz", s.handleHealth)

	return s.logRequests(router)
}

// session returns the caller's session, starting a new one when the cookie
// is missing or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}
	sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

type pageHandler func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) error

// page adapts a browser handler. Handlers run under the session lock; a
// failure is shown as a message on the index page.
func (s *Server) page(h pageHandler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sess := s.session(w, r)
		err := sess.Do(func(sess *session.Session) error {
			err := h(w, r, ps, sess)
			if err != nil {
				sess.Set(errorKey, userMessage(err, s.cfg))
			}
			return err
		})
		if err == nil {
			return
		}
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("request failed")
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

type apiHandler func(r *http.Request, ps httprouter.Params, sess *session.Session) (interface{}, error)

// api adapts a JSON handler. Errors are returned as {"error": "..."}.
func (s *Server) api(h apiHandler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		sess := s.session(w, r)
		var out interface{}
		err := sess.Do(func(sess *session.Session) error {
			var err error
			out, err = h(r, ps, sess)
			return err
		})
		if err != nil {
			code := statusOf(err)
			zerolog.Ctx(r.Context()).Debug().Err(err).Int("status", code).Msg("api error")
			writeJSON(w, code, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	var (
		he       *httpError
		missing  xlsxflow.ErrSheetNotExist
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &he):
		return he.code
	case errors.Is(err, ErrNoWorkbook), errors.As(err, &missing):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, frame.ErrNoTable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, xlsxflow.ErrInvalidFormat),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrPasswordRequired),
		errors.Is(err, ingest.ErrWrongPassword),
		errors.Is(err, transform.ErrInvalidRecipe),
		errors.Is(err, fetch.ErrUnsupportedScheme),
		errors.Is(err, fetch.ErrForbiddenAddress):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// userMessage phrases errors for the page banner.
func userMessage(err error, cfg *config.Config) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "File too large: the limit is " + humanize.Bytes(uint64(cfg.MaxUpload)) + "."
	case errors.Is(err, fetch.ErrTooLarge):
		return "Remote document too large: the limit is " + humanize.Bytes(uint64(cfg.Fetch.MaxBytes)) + "."
	case errors.Is(err, fetch.ErrForbiddenAddress):
		return "That address is on a private network and cannot be fetched."
	case errors.Is(err, ingest.ErrPasswordRequired):
		return "This workbook is encrypted. Enter its password and upload again."
	case errors.Is(err, ingest.ErrConverterUnavailable):
		return "This format needs a converter, and none is configured."
	}
	return err.Error()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": s.sessions.Len()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// logRequests attaches a request logger to the context and logs every
// response.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r.WithContext(log.WithContext(r.Context())))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		ev := log.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Int("status", rec.status).Int("bytes", rec.bytes).Dur("took", time.Since(start)).Msg("request")
	})
}
