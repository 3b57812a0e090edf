package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-intake/internal/intake"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// Sessions is the part of the intake session registry the chat needs.
type Sessions interface {
	Open(id string) (string, intake.Reply, bool)
	Message(ctx context.Context, id, text string) (intake.Reply, error)
	SelectKey(ctx context.Context, id, raw string) (intake.Reply, error)
	Snapshot(id string) (intake.Snapshot, error)
}

// Handler manages web chat connections and messages.
type Handler struct {
	sessions Sessions
	logger   *logging.Logger
	widgetJS []byte

	mu    sync.RWMutex
	conns map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "select", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Slot      string `json:"slot"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string                `json:"type"` // "message", "history", "session", "error", "pong"
	Text      string                `json:"text,omitempty"`
	Role      string                `json:"role,omitempty"` // "assistant" or "user"
	SessionID string                `json:"session_id,omitempty"`
	State     intake.State          `json:"state,omitempty"`
	Slots     *intake.SlotDirective `json:"slots,omitempty"`
	Timestamp string                `json:"timestamp,omitempty"`
	Messages  []HistoryMessage      `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler.
func NewHandler(sessions Sessions, widgetJS []byte, logger *logging.Logger) *Handler {
	if sessions == nil {
		panic("webchat: sessions required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions: sessions,
		logger:   logger,
		widgetJS: widgetJS,
		conns:    make(map[string]*wsConn),
	}
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID, reply, created := h.sessions.Open(r.URL.Query().Get("session"))

	wsc := &wsConn{conn: conn}
	h.mu.Lock()
	h.conns[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[sessionID] == wsc {
			delete(h.conns, sessionID)
		}
		h.mu.Unlock()
	}()

	wsc.send(OutboundMessage{Type: "session", SessionID: sessionID, State: reply.State})
	if created {
		wsc.send(replyMessage(sessionID, reply))
	} else if snap, err := h.sessions.Snapshot(sessionID); err == nil {
		wsc.send(OutboundMessage{Type: "history", SessionID: sessionID, State: snap.State, Slots: snap.Slots, Messages: historyFrom(snap.Turns)})
	}

	h.logger.Info("webchat: connection opened", "session_id", sessionID, "resumed", !created)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			wsc.send(OutboundMessage{Type: "pong"})
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			h.deliver(sessionID, func() (intake.Reply, error) {
				return h.sessions.Message(r.Context(), sessionID, msg.Text)
			})
		case "select":
			h.deliver(sessionID, func() (intake.Reply, error) {
				return h.sessions.SelectKey(r.Context(), sessionID, msg.Slot)
			})
		}
	}
}

// deliver runs one session event and pushes the reply. Rejected selections
// still carry a reply with the refreshed choices.
func (h *Handler) deliver(sessionID string, event func() (intake.Reply, error)) {
	reply, err := event()
	if errors.Is(err, intake.ErrSessionNotFound) {
		h.SendToSession(sessionID, OutboundMessage{Type: "error", Text: "Your session has expired. Please reload to start again."})
		return
	}
	if err != nil {
		h.logger.Info("webchat: event rejected", "session_id", sessionID, "error", err)
	}
	h.SendToSession(sessionID, replyMessage(sessionID, reply))
}

// SendToSession sends a message to an active WebSocket session.
func (h *Handler) SendToSession(sessionID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	wsc.send(msg)
}

func (c *wsConn) send(msg OutboundMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = websocket.JSON.Send(c.conn, msg)
}

// HandleMessage is the HTTP fallback for sending messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
		Slot      string `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" && req.Slot == "" {
		http.Error(w, "text or slot is required", http.StatusBadRequest)
		return
	}

	sessionID, _, _ := h.sessions.Open(req.SessionID)
	var (
		reply intake.Reply
		err   error
	)
	if req.Slot != "" {
		reply, err = h.sessions.SelectKey(r.Context(), sessionID, req.Slot)
	} else {
		reply, err = h.sessions.Message(r.Context(), sessionID, req.Text)
	}
	if errors.Is(err, intake.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(replyMessage(sessionID, reply))
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	snap, err := h.sessions.Snapshot(sessionID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"messages": []HistoryMessage{}})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": historyFrom(snap.Turns),
		"state":    snap.State,
	})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

func replyMessage(sessionID string, reply intake.Reply) OutboundMessage {
	return OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      reply.Message,
		SessionID: sessionID,
		State:     reply.State,
		Slots:     reply.Slots,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func historyFrom(turns []intake.Turn) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Speaker == intake.SpeakerAgent {
			role = "assistant"
		}
		history = append(history, HistoryMessage{
			Role:      role,
			Text:      t.Text,
			Timestamp: t.At.UTC().Format(time.RFC3339),
		})
	}
	return history
}
