// Package registry implements the agent registry and the A2A envelope
// dispatch protocol. Agents are either local (bound handler function) or
// remote (HTTP endpoint); dispatch routes an envelope to whichever the
// target resolves to and passes the handler result through unchanged.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a dispatch when the caller supplies none.
const DefaultTimeout = 30 * time.Second

// Handler processes one inbound envelope for a local agent.
type Handler func(ctx context.Context, env *models.Envelope) (any, error)

// Registry holds the agent table and bound handlers.
type Registry struct {
	mu       sync.RWMutex
	agents   map[string]*models.AgentRecord
	handlers map[string]Handler

	client *http.Client
	rec    observe.Recorder
}

// New creates an empty registry.
func New(rec observe.Recorder) *Registry {
	return &Registry{
		agents:   make(map[string]*models.AgentRecord),
		handlers: make(map[string]Handler),
		client:   &http.Client{Timeout: DefaultTimeout},
		rec:      rec,
	}
}

// Register upserts an agent record. Re-registering an existing id replaces
// the record in place and is never an error.
func (r *Registry) Register(id string, kind models.AgentKind, endpoint string, capabilities ...string) *models.AgentRecord {
	rec := &models.AgentRecord{
		ID:           id,
		Kind:         kind,
		Endpoint:     endpoint,
		Capabilities: capabilities,
		Status:       models.AgentStatusReady,
		RegisteredAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.agents[id] = rec
	r.mu.Unlock()

	log.Info().Str("agent", id).Str("kind", string(kind)).Msg("agent registered")
	return rec
}

// Handle binds a local handler for an agent id.
func (r *Registry) Handle(id string, h Handler) {
	r.mu.Lock()
	r.handlers[id] = h
	r.mu.Unlock()
}

// Lookup returns the record for an agent id.
func (r *Registry) Lookup(id string) (*models.AgentRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.agents[id]
	return rec, ok
}

// Agents lists all registered agents.
func (r *Registry) Agents() []models.AgentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.AgentRecord, 0, len(r.agents))
	for _, rec := range r.agents {
		out = append(out, *rec)
	}
	return out
}

// SendOptions tune one Send call.
type SendOptions struct {
	// CorrelationID threads an existing turn through downstream calls.
	// Empty means Send mints a fresh one.
	CorrelationID string
	Timeout       time.Duration
	Budget        models.Budget
}

// Send constructs an envelope and dispatches it to the target agent.
// Fails with ErrUnregisteredAgent when the target is unknown and with
// ErrDispatchTimeout when the handler does not complete in time.
func (r *Registry) Send(ctx context.Context, from, to, intent string, payload map[string]any, opts *SendOptions) (any, error) {
	if opts == nil {
		opts = &SendOptions{}
	}
	if _, ok := r.Lookup(to); !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnregisteredAgent, to)
	}

	correlationID := opts.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if payload == nil {
		payload = map[string]any{}
	}

	env := &models.Envelope{
		FromAgentID:   from,
		ToAgentID:     to,
		Intent:        intent,
		CorrelationID: correlationID,
		Budget:        opts.Budget,
		CreatedAt:     time.Now().UTC(),
		Payload:       payload,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := r.dispatchWithDeadline(ctx, env)
	r.rec.Record(ctx, observe.Event{
		Component:     "registry",
		Operation:     "send:" + intent,
		CorrelationID: correlationID,
		Duration:      time.Since(start),
		Success:       err == nil,
		Error:         errString(err),
	})
	return result, err
}

// Dispatch validates an inbound envelope and routes it to the registered
// handler for the target agent. The handler result is returned unchanged.
func (r *Registry) Dispatch(ctx context.Context, env *models.Envelope) (any, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rec, registered := r.agents[env.ToAgentID]
	handler, local := r.handlers[env.ToAgentID]
	r.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("%w: %s", models.ErrUnregisteredAgent, env.ToAgentID)
	}
	if local {
		return handler(ctx, env)
	}
	if rec.Endpoint != "" {
		return r.dispatchRemote(ctx, rec.Endpoint, env)
	}
	return nil, fmt.Errorf("%w: %s has no handler or endpoint", models.ErrUnregisteredAgent, env.ToAgentID)
}

// dispatchWithDeadline runs Dispatch in a goroutine so a hung handler
// surfaces as ErrDispatchTimeout instead of blocking the turn.
func (r *Registry) dispatchWithDeadline(ctx context.Context, env *models.Envelope) (any, error) {
	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := r.Dispatch(ctx, env)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: agent %s did not answer %s", models.ErrDispatchTimeout, env.ToAgentID, env.Intent)
	}
}

func (r *Registry) dispatchRemote(ctx context.Context, endpoint string, env *models.Envelope) (any, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", models.ErrDispatchTimeout, env.ToAgentID)
		}
		return nil, fmt.Errorf("remote dispatch to %s: %w", env.ToAgentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("remote agent %s returned status %d", env.ToAgentID, resp.StatusCode)
	}

	var result any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", env.ToAgentID, err)
	}
	return result, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
