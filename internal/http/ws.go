package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
	"accent-analyzer/internal/report"
	"accent-analyzer/internal/service/pipeline"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadWait  = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// streamMessage is one server to client message on /ws/analyze.
type streamMessage struct {
	Type    string             `json:"type"` // progress, report, error
	Stage   string             `json:"stage,omitempty"`
	Message string             `json:"message,omitempty"`
	Report  *report.JSONReport `json:"report,omitempty"`
	Error   *errorDetail       `json:"error,omitempty"`
}

// streamConn serialises writes; progress can arrive from several
// goroutines of one analysis.
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *streamConn) send(m streamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteJSON(m)
}

// analyzeStream reads a single {"url": "..."} request and streams progress
// followed by the report or an error. Closing the socket cancels the
// analysis.
func (h *handlers) analyzeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	sc := &streamConn{conn: conn}

	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	var body analyzeBody
	if err := conn.ReadJSON(&body); err != nil {
		e := describe(apperr.InvalidRequest(err, "first message must be JSON like {\"url\": \"...\"}"))
		_ = sc.send(streamMessage{Type: "error", Error: &e})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// Any read error, including a close frame, ends the analysis.
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := func(p pipeline.Progress) {
		if p.Stage == pipeline.StageFailed {
			return
		}
		if err := sc.send(streamMessage{Type: "progress", Stage: p.Stage.String(), Message: p.Message}); err != nil {
			cancel()
		}
	}

	req := &models.AnalysisRequest{URL: strings.TrimSpace(body.URL)}
	rep, err := h.cfg.Analyzer.Analyze(ctx, req, progress)
	if err != nil {
		e := describe(err)
		_ = sc.send(streamMessage{Type: "error", Error: &e})
	} else {
		view := report.ToJSON(rep)
		_ = sc.send(streamMessage{Type: "report", Report: &view})
	}

	sc.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	sc.mu.Unlock()
}
