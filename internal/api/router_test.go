package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/api/handlers"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/config"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/contextstore"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/intent"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/maps"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/orchestrator"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/registry"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/toolflow"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

type fakeLLM struct{}

func (fakeLLM) Classify(context.Context, string) (string, error) {
	return `{"intent": "generalChat", "location_source": "none", "confidence": 0.9}`, nil
}

func (fakeLLM) Generate(context.Context, string) (string, error) {
	return "Happy to help with maps questions.", nil
}

type fakeMaps struct{}

func (fakeMaps) Search(context.Context, string, models.LatLon, int, int) ([]maps.Place, error) {
	return nil, nil
}
func (fakeMaps) Geocode(context.Context, string) (*maps.GeocodeResult, error) { return nil, nil }
func (fakeMaps) ReverseGeocode(context.Context, models.LatLon) (string, error) {
	return "", nil
}
func (fakeMaps) Route(context.Context, models.LatLon, models.LatLon) (*maps.RouteSummary, error) {
	return nil, models.ErrRouteNotFound
}
func (fakeMaps) Matrix(context.Context, []models.LatLon) ([][]int64, error) { return nil, nil }
func (fakeMaps) StaticMapURL(models.LatLon, int, int, int, []models.LatLon) string {
	return "http://maps.test/staticmap"
}

func newTestRouter(t *testing.T) (http.Handler, *registry.Registry, contextstore.Store) {
	t.Helper()
	store := contextstore.NewMemory()
	resolver, err := intent.NewResolver(fakeLLM{}, observe.Nop())
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}
	tools := toolflow.New(fakeMaps{}, store, observe.Nop())
	budget := models.Budget{Tokens: 4096, ToolCalls: 10, DeadlineMS: 30000}
	orch := orchestrator.New(store, resolver, fakeLLM{}, tools, budget, observe.Nop())

	reg := registry.New(observe.Nop())
	reg.Register("echo-agent", models.AgentWriter, "", "echo")
	reg.Handle("echo-agent", func(ctx context.Context, env *models.Envelope) (any, error) {
		return env.Payload, nil
	})

	cfg := &config.Server{Port: 8080, Version: "test"}
	return NewRouter(cfg, handlers.New(orch, reg, store)), reg, store
}

func TestHealthAndVersion(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode version body: %v", err)
	}
	if body["version"] != "test" {
		t.Errorf("version = %q, want test", body["version"])
	}
}

func TestChatEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"message": "tell me something", "user_id": "u1"}`))
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/chat = %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if !resp.Success || resp.Response == "" {
		t.Errorf("chat response = %+v", resp)
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message": "  "}`))
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty message = %d, want 400", rr.Code)
	}
}

func TestContextRoundTrip(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	put := httptest.NewRequest(http.MethodPut, "/api/v1/context/u1",
		strings.NewReader(`{"last_location": {"source": "address", "value": "Rotterdam"}}`))
	router.ServeHTTP(rr, put)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT context = %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/context/u1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET context = %d", rr.Code)
	}
	var uctx models.UserContext
	if err := json.Unmarshal(rr.Body.Bytes(), &uctx); err != nil {
		t.Fatalf("decode context: %v", err)
	}
	if uctx.UserID != "u1" || uctx.LastLocation.Value != "Rotterdam" {
		t.Errorf("context = %+v", uctx)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router, _, store := newTestRouter(t)

	if err := store.AppendMessage(context.Background(), "u1", models.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendMessage() error: %v", err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/context/u1/history", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET history = %d", rr.Code)
	}
	var body struct {
		UserID  string                  `json:"user_id"`
		History []models.ContextMessage `json:"history"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(body.History) != 1 || body.History[0].Text != "hello" {
		t.Errorf("history = %+v", body.History)
	}
}

func TestA2AEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/a2a", strings.NewReader(`{
		"fromAgentId": "tester",
		"toAgentId": "echo-agent",
		"intent": "ECHO",
		"payload": {"text": "ping"}
	}`))
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("POST /a2a = %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Result map[string]any `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode a2a response: %v", err)
	}
	if body.Result["text"] != "ping" {
		t.Errorf("result = %+v", body.Result)
	}
}

func TestA2AEndpointErrorMapping(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Unknown target agent.
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/a2a", strings.NewReader(`{
		"fromAgentId": "tester",
		"toAgentId": "ghost-agent",
		"intent": "ECHO",
		"payload": {}
	}`))
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unregistered agent = %d, want 404", rr.Code)
	}

	// Envelope missing required fields.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/a2a", strings.NewReader(`{
		"fromAgentId": "tester",
		"intent": "ECHO",
		"payload": {}
	}`))
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed envelope = %d, want 400", rr.Code)
	}
}
