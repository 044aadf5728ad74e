package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Envelope is the union of the fields of completed and failed analysis
// events, as relayed to viewers.
type Envelope struct {
	EventType  string  `json:"eventType"`
	RequestID  string  `json:"requestId"`
	Timestamp  int64   `json:"timestamp"`
	Source     string  `json:"source"`
	Verdict    string  `json:"verdict,omitempty"`
	Language   string  `json:"language,omitempty"`
	Accent     string  `json:"accent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	AudioMs    int64   `json:"audioMs,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// Hub fans analysis events out to connected websocket viewers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

var viewerUpgrader = websocket.Upgrader{}

// ServeHTTP upgrades the request and keeps the viewer registered until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := viewerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Int("clients", n).Msg("Viewer connected")

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends ev to every viewer, dropping viewers that fail.
func (h *Hub) Broadcast(ev Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			log.Warn().Err(err).Msg("Dropping viewer after write error")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Int("clients", n).Msg("Viewer disconnected")
}

// MessageReader is the consuming side of a Kafka topic.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// NewReader returns a reader for topic that starts from messages newer
// than since.
func NewReader(ctx context.Context, brokers []string, topic string, since time.Duration) *kafka.Reader {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	if err := r.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to set reader offset, reading from start")
	}
	return r
}

// Relay reads analysis events from r and broadcasts them until ctx ends.
// Messages that are not analysis events are skipped.
func Relay(ctx context.Context, r MessageReader, hub *Hub) {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Warn().Err(err).Str("topic", msg.Topic).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var ev Envelope
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic).Msg("Skipping malformed event")
			continue
		}
		if !strings.HasPrefix(ev.EventType, "accent.analysis.") {
			continue
		}

		log.Info().
			Str("eventType", ev.EventType).
			Str("requestId", ev.RequestID).
			Str("accent", ev.Accent).
			Msg("Relaying event")
		hub.Broadcast(ev)
	}
}
