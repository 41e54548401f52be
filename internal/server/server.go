// Package server exposes style transfer over HTTP: an upload form, a
// multipart endpoint that returns the formatted document and a health
// probe.
package server

import (
	"context"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/docx"
)

// DefaultMaxUploadBytes bounds the whole multipart request.
const DefaultMaxUploadBytes = 32 << 20

// DownloadName is the attachment name of every formatted document.
const DownloadName = "formatted_document.docx"

// Transformer restyles target after reference.
type Transformer interface {
	TransformDocx(ctx context.Context, apiKey string, reference, target []byte) ([]byte, error)
}

type Options struct {
	Transformer    Transformer
	MaxUploadBytes int64
	// AllowConfiguredKey lets a request without an API key run with the
	// operator's configured credential. Otherwise such requests get 400.
	AllowConfiguredKey bool
}

type Server struct {
	t             Transformer
	maxBytes      int64
	allowFallback bool
	mux           *http.ServeMux
}

func New(opts Options) *Server {
	s := &Server{
		t:             opts.Transformer,
		maxBytes:      opts.MaxUploadBytes,
		allowFallback: opts.AllowConfiguredKey,
		mux:           http.NewServeMux(),
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxUploadBytes
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /format", s.handleFormat)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("elapsed", time.Since(start)).
		Msg("http request")
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Document Formatter</title></head>
<body>
<h1>Document Formatter</h1>
<p>Upload a reference document and a document to format. The second document is rebuilt with the look of the first.</p>
{{if .Error}}<p role="alert"><strong>{{.Error}}</strong></p>{{end}}
<form method="post" action="/format" enctype="multipart/form-data">
<p><label>API key <input type="password" name="api_key" autocomplete="off"></label></p>
<p><label>Reference document <input type="file" name="reference" accept=".docx" required></label></p>
<p><label>Document to format <input type="file" name="target" accept=".docx" required></label></p>
<p><button type="submit">Format</button></p>
</form>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, http.StatusOK, "")
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTmpl.Execute(w, struct{ Error string }{msg}); err != nil {
		log.Warn().Err(err).Msg("render index")
	}
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := r.ParseMultipartForm(s.maxBytes); err != nil {
		s.fail(w, r, http.StatusBadRequest, "could not read upload: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	reference, err := formFile(r.MultipartForm, "reference")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "reference document: "+err.Error())
		return
	}
	target, err := formFile(r.MultipartForm, "target")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "document to format: "+err.Error())
		return
	}

	apiKey := strings.TrimSpace(r.FormValue("api_key"))
	if apiKey == "" && !s.allowFallback {
		s.fail(w, r, http.StatusBadRequest, "an API key is required")
		return
	}

	out, err := s.t.TransformDocx(r.Context(), apiKey, reference, target)
	if err != nil {
		status := statusFor(err)
		log.Warn().Err(err).Int("status", status).Msg("format failed")
		s.fail(w, r, status, "formatting failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", docx.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

// fail answers browsers with the form and everything else with plain text.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if acceptsHTML(r) {
		s.renderIndex(w, status, msg)
		return
	}
	http.Error(w, msg, status)
}

var errMissingFile = errors.New("no file uploaded")

func formFile(form *multipart.Form, field string) ([]byte, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, errMissingFile
	}
	f, err := form.File[field][0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errMissingFile
	}
	return data, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, classify.ErrOracleCall):
		return http.StatusBadGateway
	case errors.Is(err, docx.ErrMalformedDocument):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func acceptsHTML(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(strings.ToLower(v), "text/html") {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
