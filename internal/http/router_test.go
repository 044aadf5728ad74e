package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/observability/metrics"
	"accent-analyzer/internal/report"
	"accent-analyzer/internal/service/pipeline"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	requests []models.AnalysisRequest
	uploaded []byte
	err      error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req *models.AnalysisRequest, progress pipeline.ProgressFunc) (*models.AnalysisReport, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	if req.Upload != nil {
		f.uploaded, _ = io.ReadAll(req.Upload)
	}
	f.mu.Unlock()

	if progress != nil {
		for _, s := range []pipeline.Stage{pipeline.StageAcquiring, pipeline.StageTranscribing} {
			progress(pipeline.Progress{Stage: s, Message: s.Message(), At: time.Now()})
		}
	}
	if f.err != nil {
		if progress != nil {
			progress(pipeline.Progress{Stage: pipeline.StageFailed, Err: f.err})
		}
		return nil, f.err
	}
	return &models.AnalysisReport{
		RequestID:        "5f1c6a9e-9d2b-4c1e-8a57-0c7d2e3f4a5b",
		Source:           req.Source(),
		Verdict:          models.VerdictAccent,
		DetectedLanguage: "en",
		Transcript:       &models.TranscriptResult{Text: "Hello world.", Language: "en"},
		Accent: &models.AccentResult{
			Accent:      models.AccentBritish,
			Label:       "england",
			Confidence:  91,
			Explanation: models.AccentBritish.Explanation(),
		},
		AudioDuration: 12 * time.Second,
	}, nil
}

func (f *fakeAnalyzer) calls() []models.AnalysisRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AnalysisRequest(nil), f.requests...)
}

func newTestServer(t *testing.T, a *fakeAnalyzer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Config{
		Analyzer:       a,
		Metrics:        metrics.NewMetrics(prometheus.NewRegistry()),
		Examples:       []report.Example{{Title: "Sample", URL: "https://example.com/s.mp4", Expected: "American English"}},
		MaxUploadBytes: 1024,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "https://example.com/s.mp4") {
		t.Error("expected example URL on the form page")
	}
}

func TestAnalyzeForm_URL(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(t, a)

	resp, err := http.PostForm(srv.URL+"/analyze", url.Values{"url": {" https://example.com/v.mp4 "}})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "British English") {
		t.Errorf("expected report in page, got:\n%s", body)
	}
	if reqs := a.calls(); len(reqs) != 1 || reqs[0].URL != "https://example.com/v.mp4" {
		t.Errorf("expected trimmed URL request, got %+v", reqs)
	}
}

func TestAnalyzeForm_Upload(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(t, a)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "talk.wav")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte("RIFF....WAVE"))
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/analyze", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	reqs := a.calls()
	if len(reqs) != 1 || reqs[0].UploadName != "talk.wav" {
		t.Fatalf("expected upload request, got %+v", reqs)
	}
	a.mu.Lock()
	uploaded := string(a.uploaded)
	a.mu.Unlock()
	if uploaded != "RIFF....WAVE" {
		t.Errorf("expected uploaded bytes to reach the analyzer, got %q", uploaded)
	}
}

func TestAnalyzeForm_UploadTooLarge(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(t, a)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "huge.wav")
	_, _ = fw.Write(bytes.Repeat([]byte("x"), 1024+multipartMemory+1))
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/analyze", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if len(a.calls()) != 0 {
		t.Error("expected analyzer not to be called")
	}
}

func TestAnalyzeForm_ErrorShownInPage(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{err: apperr.Download(nil, "video is private").WithReason("private")})

	resp, err := http.PostForm(srv.URL+"/analyze", url.Values{"url": {"https://example.com/v"}})
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "video is private") {
		t.Error("expected error message in page")
	}
}

func TestAnalyzeJSON(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Post(srv.URL+"/api/v1/analyses", "application/json", strings.NewReader(`{"url":"https://example.com/v.mp4"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got report.JSONReport
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AccentName != "British English" || got.Accent.Confidence != 91 {
		t.Errorf("unexpected report: %+v", got)
	}
	if got.AudioSeconds != 12 {
		t.Errorf("expected 12 audio seconds, got %v", got.AudioSeconds)
	}
}

func TestAnalyzeJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantKind string
	}{
		{"malformed body", `{"url":`, nil, http.StatusBadRequest, "invalid_request"},
		{"unknown field", `{"link":"x"}`, nil, http.StatusBadRequest, "invalid_request"},
		{"busy", `{"url":"https://example.com"}`, apperr.Busy(), http.StatusServiceUnavailable, "busy"},
		{"transcription", `{"url":"https://example.com"}`, apperr.Transcription(nil, "empty transcript"), http.StatusBadGateway, "transcription"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeAnalyzer{err: tt.err})

			resp, err := http.Post(srv.URL+"/api/v1/analyses", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, resp.StatusCode)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, body.Error.Kind)
			}
		})
	}
}

func TestExamples(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Get(srv.URL + "/api/v1/examples")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var got []report.Example
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Expected != "American English" {
		t.Errorf("unexpected examples: %+v", got)
	}
}

func TestProbesMounted(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Get(srv.URL + "/v1/liveness")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/analyze", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readStream(t *testing.T, conn *websocket.Conn) []streamMessage {
	t.Helper()
	var msgs []streamMessage
	for {
		var m streamMessage
		if err := conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("read: %v", err)
			}
			return msgs
		}
		msgs = append(msgs, m)
	}
}

func TestAnalyzeStream(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})
	conn := dialStream(t, srv)

	if err := conn.WriteJSON(analyzeBody{URL: "https://example.com/v.mp4"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msgs := readStream(t, conn)

	if len(msgs) != 3 {
		t.Fatalf("expected 2 progress messages and a report, got %+v", msgs)
	}
	if msgs[0].Type != "progress" || msgs[0].Stage != "acquiring" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[2].Type != "report" || msgs[2].Report == nil || msgs[2].Report.AccentName != "British English" {
		t.Errorf("unexpected final message: %+v", msgs[2])
	}
}

func TestAnalyzeStream_Error(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{err: apperr.Download(nil, "video is private")})
	conn := dialStream(t, srv)

	if err := conn.WriteJSON(analyzeBody{URL: "https://example.com/v.mp4"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msgs := readStream(t, conn)

	last := msgs[len(msgs)-1]
	if last.Type != "error" || last.Error == nil || last.Error.Kind != "download" {
		t.Errorf("expected download error message, got %+v", last)
	}
	for _, m := range msgs {
		if m.Stage == "failed" {
			t.Error("expected failed stage to be reported as an error message only")
		}
	}
}

func TestAnalyzeStream_BadFirstMessage(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(t, a)
	conn := dialStream(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var m streamMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	if m.Type != "error" || m.Error.Kind != "invalid_request" {
		t.Errorf("expected invalid_request error, got %+v", m)
	}
	if len(a.calls()) != 0 {
		t.Error("expected analyzer not to be called")
	}
}
