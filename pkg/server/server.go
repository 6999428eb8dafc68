// Package server is the public entry point for the chat control plane.
// It loads configuration, wires every subsystem, and returns a ready
// HTTP handler plus the shutdown hooks the process needs.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/api"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/api/handlers"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/config"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/contextstore"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/intent"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/llm"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/maps"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/orchestrator"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/planner"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/registry"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/telemetry"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/toolflow"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized control plane.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Registry is the agent table, exposed for embedding processes that
	// register additional agents.
	Registry *registry.Registry

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush
	// telemetry and close the context store.
	ShutdownFunc func(context.Context) error
}

// New loads configuration from the environment and initializes every
// control plane component.
func New(ctx context.Context) (*Server, error) {
	cfg, err := config.New[config.Server]("")
	if err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	telCfg, err := config.New[config.Telemetry]("")
	if err != nil {
		return nil, fmt.Errorf("load telemetry config: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(*telCfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	rec := observe.New()

	store, closeStore, err := newContextStore(cfg)
	if err != nil {
		return nil, err
	}

	mapsCfg, err := config.New[maps.Config]("MAPS")
	if err != nil {
		return nil, fmt.Errorf("load maps config: %w", err)
	}
	mapsSvc := maps.NewClient(*mapsCfg)
	log.Info().Str("endpoint", mapsCfg.Endpoint).Msg("maps client initialized")

	llmCfg, err := config.New[llm.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	chat, err := llm.NewOpenAI(*llmCfg)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	log.Info().Str("model", llmCfg.Model).Msg("llm client initialized")

	resolver, err := intent.NewResolver(chat, rec)
	if err != nil {
		return nil, fmt.Errorf("init intent resolver: %w", err)
	}

	tools := toolflow.New(mapsSvc, store, rec)
	budget := models.Budget{
		Tokens:     cfg.BudgetTokens,
		ToolCalls:  cfg.BudgetToolCalls,
		DeadlineMS: cfg.BudgetDeadlineMS,
	}
	orch := orchestrator.New(store, resolver, chat, tools, budget, rec)

	reg := registry.New(rec)
	registerAgents(reg, orch, mapsSvc)

	h := handlers.New(orch, reg, store)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:  router,
		Registry: reg,
		Port:     cfg.Port,
		ShutdownFunc: func(ctx context.Context) error {
			closeStore()
			return shutdownTelemetry(ctx)
		},
	}, nil
}

func newContextStore(cfg *config.Server) (contextstore.Store, func(), error) {
	if cfg.ContextBackend == "redis" {
		rcfg, err := config.New[contextstore.RedisConfig]("REDIS")
		if err != nil {
			return nil, nil, fmt.Errorf("load redis config: %w", err)
		}
		store, err := contextstore.NewRedis(*rcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis context store: %w", err)
		}
		log.Info().Str("address", rcfg.Address).Msg("redis context store initialized")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
		}, nil
	}

	log.Info().Msg("in-memory context store initialized")
	return contextstore.NewMemory(), func() {}, nil
}

// registerAgents seeds the agent table with the in-process agents and
// binds their envelope handlers.
func registerAgents(reg *registry.Registry, orch *orchestrator.Orchestrator, mapsSvc maps.Service) {
	reg.Register("orchestrator-agent", models.AgentOrchestrator, "",
		"chat", "intent_routing", "context_management")
	reg.Handle("orchestrator-agent", func(ctx context.Context, env *models.Envelope) (any, error) {
		req := models.ChatRequest{
			Message: payloadString(env.Payload, "message"),
			UserID:  payloadString(env.Payload, "user_id"),
		}
		return orch.Chat(ctx, req), nil
	})

	reg.Register("maps-agent", models.AgentMaps, "",
		"search", "geocode", "reverseGeocode", "directions", "matrix", "staticMap")
	reg.Handle("maps-agent", func(ctx context.Context, env *models.Envelope) (any, error) {
		return handleMapsIntent(ctx, mapsSvc, env)
	})

	reg.Register("planner-agent", models.AgentPlanner, "",
		"task_decomposition", "workflow_planning")
	reg.Handle("planner-agent", func(ctx context.Context, env *models.Envelope) (any, error) {
		request := payloadString(env.Payload, "request")
		if request == "" {
			return nil, fmt.Errorf("%w: payload needs a request field", models.ErrMalformedEnvelope)
		}
		plan := planner.Decompose(request)
		if err := plan.Validate(); err != nil {
			return nil, err
		}
		return plan, nil
	})
}

// handleMapsIntent serves the direct inter-agent maps surface: one
// envelope per tool call, coordinates supplied in the payload.
func handleMapsIntent(ctx context.Context, svc maps.Service, env *models.Envelope) (any, error) {
	switch env.Intent {
	case "GEOCODE":
		address := payloadString(env.Payload, "address")
		result, err := svc.Geocode(ctx, address)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, fmt.Errorf("%w: %s", models.ErrGeocodeNotFound, address)
		}
		return result, nil

	case "REVERSE_GEOCODE":
		point, err := payloadPoint(env.Payload, "point")
		if err != nil {
			return nil, err
		}
		return svc.ReverseGeocode(ctx, point)

	case "SEARCH":
		near, err := payloadPoint(env.Payload, "near")
		if err != nil {
			return nil, err
		}
		return svc.Search(ctx, payloadString(env.Payload, "query"), near, 5000, 5)

	case "DIRECTIONS":
		origin, err := payloadPoint(env.Payload, "origin")
		if err != nil {
			return nil, err
		}
		destination, err := payloadPoint(env.Payload, "destination")
		if err != nil {
			return nil, err
		}
		return svc.Route(ctx, origin, destination)
	}

	return nil, fmt.Errorf("%w: unsupported intent %s", models.ErrMalformedEnvelope, env.Intent)
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func payloadPoint(payload map[string]any, key string) (models.LatLon, error) {
	raw, ok := payload[key]
	if !ok {
		return models.LatLon{}, fmt.Errorf("%w: payload needs a %s field", models.ErrMalformedEnvelope, key)
	}
	// Payload values arrive as generic JSON; round-trip through the
	// decoder to get a typed point.
	buf, err := json.Marshal(raw)
	if err != nil {
		return models.LatLon{}, fmt.Errorf("%w: bad %s field", models.ErrMalformedEnvelope, key)
	}
	var point models.LatLon
	if err := json.Unmarshal(buf, &point); err != nil {
		return models.LatLon{}, fmt.Errorf("%w: bad %s field", models.ErrMalformedEnvelope, key)
	}
	return point, nil
}
