// Package api provides the HTTP surface of the counsel server: a thin
// chi router over the turn orchestrator and the session store.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lexhq/counsel/pkg/orchestrator"
	"github.com/lexhq/counsel/pkg/prompt"
	"github.com/lexhq/counsel/pkg/session"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// DefaultTaskID is used when a turn request does not name a task.
const DefaultTaskID = "consultation"

// Handler serves the session endpoints.
type Handler struct {
	orch  *orchestrator.Orchestrator
	store session.Store
}

// NewHandler creates a new Handler over its dependencies.
func NewHandler(orch *orchestrator.Orchestrator, store session.Store) *Handler {
	return &Handler{
		orch:  orch,
		store: store,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// NewRouter builds the full server router with the standard middleware
// stack and all session routes registered.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the session endpoints on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/messages", h.PostMessage)
	})
}

// turnRequest is the body of a POST message call.
type turnRequest struct {
	Message string `json:"message"`
	Task    string `json:"task"`
}

// PostMessage runs one conversation turn for the session in the URL.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req turnRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			Error(w, http.StatusBadRequest, "request body is required")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Task == "" {
		req.Task = DefaultTaskID
	}

	result, err := h.orch.HandleTurn(r.Context(), orchestrator.Request{
		SessionID: sessionID,
		TaskID:    req.Task,
		Message:   req.Message,
	})
	if err != nil {
		var asmErr *prompt.AssemblyError
		if errors.As(err, &asmErr) {
			Error(w, http.StatusUnprocessableEntity, asmErr.Error())
			return
		}
		Error(w, http.StatusInternalServerError, "failed to process turn")
		return
	}

	JSON(w, http.StatusOK, result)
}

// GetSession returns the persisted state of a session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	state, err := h.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, state)
}
