package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/report"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

type handlers struct {
	cfg Config
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, report.Page{URL: r.URL.Query().Get("url")})
}

// analyzeForm handles the web form: a url field or a multipart file.
func (h *handlers) analyzeForm(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := h.formRequest(w, r)
	defer cleanup()
	if err != nil {
		h.renderPage(w, r, apperr.KindOf(err).HTTPStatus(), report.Page{Err: err})
		return
	}

	rep, err := h.cfg.Analyzer.Analyze(r.Context(), req, nil)
	if err != nil {
		h.renderPage(w, r, apperr.KindOf(err).HTTPStatus(), report.Page{URL: req.URL, Err: err})
		return
	}
	h.renderPage(w, r, http.StatusOK, report.Page{URL: req.URL, Report: rep})
}

func (h *handlers) formRequest(w http.ResponseWriter, r *http.Request) (*models.AnalysisRequest, func(), error) {
	cleanup := func() {}
	req := &models.AnalysisRequest{}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartMemory)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, cleanup, apperr.InvalidRequest(err, "upload exceeds %d bytes", h.cfg.MaxUploadBytes).WithReason("too-large")
			}
			return nil, cleanup, apperr.InvalidRequest(err, "malformed upload")
		}
		form := r.MultipartForm
		cleanup = func() { _ = form.RemoveAll() }

		f, hdr, err := r.FormFile("file")
		switch {
		case err == nil:
			prev := cleanup
			cleanup = func() {
				f.Close()
				prev()
			}
			req.Upload = f
			req.UploadName = hdr.Filename
		case !errors.Is(err, http.ErrMissingFile):
			return nil, cleanup, apperr.InvalidRequest(err, "unreadable upload")
		}
	}

	req.URL = strings.TrimSpace(r.FormValue("url"))
	return req, cleanup, nil
}

type analyzeBody struct {
	URL string `json:"url"`
}

func (h *handlers) analyzeJSON(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, apperr.InvalidRequest(err, "request body must be JSON like {\"url\": \"...\"}"))
		return
	}

	rep, err := h.cfg.Analyzer.Analyze(r.Context(), &models.AnalysisRequest{URL: strings.TrimSpace(body.URL)}, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.ToJSON(rep))
}

func (h *handlers) examples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Examples)
}

func (h *handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, p report.Page) {
	p.Examples = h.cfg.Examples
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := report.RenderHTML(w, p); err != nil {
		log.Error().
			Err(err).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("Failed to render page")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.KindOf(err).HTTPStatus(), errorBody{Error: describe(err)})
}

// describe flattens an error for JSON responses and progress streams.
func describe(err error) errorDetail {
	e := apperr.As(err)
	return errorDetail{Kind: string(e.Kind), Message: e.Message, Reason: e.Reason}
}
