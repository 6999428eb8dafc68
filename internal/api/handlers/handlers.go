// Package handlers implements the HTTP handlers for the chat control
// plane: the chat surface, the context store surface, and the A2A
// inter-agent endpoint.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/contextstore"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/orchestrator"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/registry"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Registry     *registry.Registry
	Store        contextstore.Store
}

// New creates a Handlers instance with all dependencies.
func New(o *orchestrator.Orchestrator, reg *registry.Registry, store contextstore.Store) *Handlers {
	return &Handlers{Orchestrator: o, Registry: reg, Store: store}
}

// ── Chat ─────────────────────────────────────────────────────

func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := h.Orchestrator.Chat(r.Context(), req)
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Capabilities(w http.ResponseWriter, r *http.Request) {
	agents := h.Registry.Agents()
	if agents == nil {
		agents = []models.AgentRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

// ── Context ──────────────────────────────────────────────────

func (h *Handlers) GetContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	uctx, err := h.Store.Get(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, uctx)
}

func (h *Handlers) PutContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var uctx models.UserContext
	if err := json.NewDecoder(r.Body).Decode(&uctx); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// The path owns the identity; the body cannot rename a user.
	uctx.UserID = userID

	if err := h.Store.Update(r.Context(), &uctx); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("user_id", userID).Msg("context replaced")
	respondJSON(w, http.StatusOK, uctx)
}

func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	uctx, err := h.Store.Get(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	history := uctx.History
	if history == nil {
		history = []models.ContextMessage{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"history": history,
	})
}

// ── A2A ──────────────────────────────────────────────────────

// A2AEndpoint accepts one envelope and returns the target handler's raw
// result, or a dispatch error mapped to an HTTP status.
func (h *Handlers) A2AEndpoint(w http.ResponseWriter, r *http.Request) {
	var env models.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid envelope body")
		return
	}

	log.Info().
		Str("from", env.FromAgentID).
		Str("to", env.ToAgentID).
		Str("intent", env.Intent).
		Str("correlation_id", env.CorrelationID).
		Msg("a2a envelope received")

	result, err := h.Registry.Dispatch(r.Context(), &env)
	if err != nil {
		respondError(w, dispatchStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"correlationId": env.CorrelationID,
		"result":        result,
	})
}

func dispatchStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrMalformedEnvelope):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnregisteredAgent):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDispatchTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ── Helpers ──────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
