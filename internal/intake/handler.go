package intake

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// Handler exposes sessions over JSON HTTP.
type Handler struct {
	manager *Manager
	logger  *logging.Logger
}

// NewHandler creates the session HTTP handler.
func NewHandler(manager *Manager, logger *logging.Logger) *Handler {
	if manager == nil {
		panic("intake: manager required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{manager: manager, logger: logger}
}

// ReplyResponse is the body returned for every session event.
type ReplyResponse struct {
	SessionID string         `json:"session_id"`
	State     State          `json:"state"`
	Message   string         `json:"message,omitempty"`
	Slots     *SlotDirective `json:"slots,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type selectionRequest struct {
	Slot   string `json:"slot"`
	Doctor string `json:"doctor"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// Routes mounts the session endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.StartSession)
	r.Get("/{sessionID}", h.GetSession)
	r.Post("/{sessionID}/messages", h.PostMessage)
	r.Post("/{sessionID}/selection", h.PostSelection)
	r.Delete("/{sessionID}", h.DeleteSession)
}

// StartSession opens a session and returns the greeting.
// POST /sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	id, reply := h.manager.Start()
	writeJSON(w, http.StatusCreated, toResponse(id, reply))
}

// GetSession returns the transcript and current state.
// GET /sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.manager.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PostMessage feeds one utterance to the session.
// POST /sessions/{sessionID}/messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reply, err := h.manager.Message(r.Context(), id, req.Text)
	if errors.Is(err, ErrSessionNotFound) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(id, reply))
}

// PostSelection books a slot. Rejected selections still return the reply so
// the UI can show the refreshed choices.
// POST /sessions/{sessionID}/selection
func (h *Handler) PostSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		reply Reply
		err   error
	)
	if req.Slot != "" {
		reply, err = h.manager.SelectKey(r.Context(), id, req.Slot)
	} else {
		reply, err = h.manager.Select(r.Context(), id, scheduling.Selection{Doctor: req.Doctor, Date: req.Date, Time: req.Time})
	}

	status := http.StatusOK
	resp := toResponse(id, reply)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound):
		jsonError(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, scheduling.ErrInvalidSelection):
		status = http.StatusBadRequest
		resp.Error = "invalid_selection"
	case errors.Is(err, ErrNoSelectionPending):
		status = http.StatusConflict
		resp.Error = "no_selection_pending"
	default:
		status = http.StatusConflict
		resp.Error = "slot_unavailable"
		h.logger.Info("slot selection rejected", "session_id", id, "error", err)
	}
	writeJSON(w, status, resp)
}

// DeleteSession drops a session.
// DELETE /sessions/{sessionID}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.manager.Close(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func toResponse(id string, reply Reply) ReplyResponse {
	return ReplyResponse{SessionID: id, State: reply.State, Message: reply.Message, Slots: reply.Slots}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
