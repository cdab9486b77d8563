package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	sse "github.com/tmaxmax/go-sse"

	"github.com/cooksync/internal/document"
	"github.com/cooksync/internal/session"
	"github.com/cooksync/internal/types"
	"github.com/cooksync/pkg/logger"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	hub *session.Hub
	log *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(hub *session.Hub, log *logger.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
	}
}

// Routes sets up all HTTP routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sessions/{id}", h.GetSession)
		r.Post("/sessions/{id}/commands", h.SubmitCommand)
		r.Get("/sessions/{id}/stream", h.StreamSession)
	})

	r.Get("/healthz", h.Health)

	return r
}

// Health handles health check requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSession handles GET /v1/sessions/{id}: the current canonical snapshot.
// Addressing an unknown identifier lazily creates a fresh session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid session id", "session id is required")
		return
	}

	doc, sub, err := h.hub.Get(sessionID).Subscribe(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to read session", err.Error())
		return
	}
	sub.Cancel()

	h.respondJSON(w, http.StatusOK, types.SessionResponse{
		SessionID: session.Normalize(sessionID),
		Document:  doc,
	})
}

// SubmitCommand handles POST /v1/sessions/{id}/commands. The command is
// serialized through the session's actor; an accepted command returns the
// new canonical snapshot, a rejected one returns 422 with the rejection
// text and leaves canonical state untouched.
func (h *Handler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid session id", "session id is required")
		return
	}

	var req types.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cmd, err := commandFromRequest(req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid command", err.Error())
		return
	}

	doc, err := h.hub.Get(sessionID).Submit(ctx, cmd)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "command rejected", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, types.SessionResponse{
		SessionID: session.Normalize(sessionID),
		Document:  doc,
	})
}

// StreamSession handles GET /v1/sessions/{id}/stream: a long-lived SSE
// channel that immediately delivers the current canonical document and then
// every subsequent broadcast until the client disconnects.
func (h *Handler) StreamSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid session id", "session id is required")
		return
	}

	doc, sub, err := h.hub.Get(sessionID).Subscribe(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to subscribe", err.Error())
		return
	}
	defer sub.Cancel()

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to upgrade", err.Error())
		return
	}

	if err := sendDocument(sess, doc); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case next, ok := <-sub.C:
			if !ok {
				return
			}
			if err := sendDocument(sess, next); err != nil {
				return
			}
		}
	}
}

func sendDocument(sess *sse.Session, doc document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	msg := &sse.Message{}
	msg.AppendData(string(data))
	if err := sess.Send(msg); err != nil {
		return err
	}
	return sess.Flush()
}

// commandFromRequest validates the wire envelope and maps it onto an actor
// command.
func commandFromRequest(req types.CommandRequest) (session.Command, error) {
	cmd := session.Command{
		Op:         session.Op(req.Op),
		DurationMs: req.DurationMs,
		DeltaMs:    req.DeltaMs,
		Label:      req.Label,
		Target:     document.Target(req.Target),
		Items:      req.Items,
		ItemID:     req.ItemID,
		Name:       req.Name,
		Text:       req.Text,
	}
	if req.Item != nil {
		cmd.Item = *req.Item
	}
	if req.Index != nil {
		cmd.Index = *req.Index
	}

	switch cmd.Op {
	case session.OpSelectPreset, session.OpStart, session.OpPause, session.OpReset,
		session.OpSetDuration, session.OpAddTime, session.OpClear, session.OpTickFinish,
		session.OpAddItems, session.OpRemoveItemByID, session.OpRemoveItemByName,
		session.OpUpdateItem, session.OpAddInstruction, session.OpRemoveInstructionByIndex:
		return cmd, nil
	default:
		return session.Command{}, &unknownOpError{op: req.Op}
	}
}

type unknownOpError struct {
	op string
}

func (e *unknownOpError) Error() string {
	return "unknown op: " + e.op
}

// respondJSON sends a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func (h *Handler) respondError(w http.ResponseWriter, status int, errorMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.ErrorResponse{
		Error:   errorMsg,
		Message: message,
	})
}
