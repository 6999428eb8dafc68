package intent_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/intent"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// fakeLLM replies with a fixed classification, or errors.
type fakeLLM struct {
	reply string
	err   error

	lastPrompt string
}

func (f *fakeLLM) Classify(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func newTestResolver(t *testing.T, client *fakeLLM) *intent.Resolver {
	t.Helper()
	r, err := intent.NewResolver(client, observe.Nop())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestResolveParsesClassification(t *testing.T) {
	client := &fakeLLM{reply: `Here is the classification:
{"intent": "search", "location_source": "address", "location_value": "Seattle", "search_text": "coffee shops", "tool_needed": "maps.search", "confidence": 0.92}`}
	r := newTestResolver(t, client)

	it, err := r.Resolve(context.Background(), "find coffee shops in Seattle", models.NewUserContext("u1"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if it.Kind != models.IntentSearch {
		t.Errorf("Kind = %q, want search", it.Kind)
	}
	if it.LocationSource != models.LocationAddress {
		t.Errorf("LocationSource = %q, want address", it.LocationSource)
	}
	if it.SearchText != "coffee shops" {
		t.Errorf("SearchText = %q, want coffee shops", it.SearchText)
	}
	if it.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", it.Confidence)
	}
}

func TestResolveFailsOnUnparseableReply(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"no json", "I think the user wants a search."},
		{"invalid intent", `{"intent": "teleport", "location_source": "none", "confidence": 0.9}`},
		{"missing confidence", `{"intent": "search", "location_source": "none"}`},
		{"confidence out of range", `{"intent": "search", "location_source": "none", "confidence": 7}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestResolver(t, &fakeLLM{reply: tc.reply})
			_, err := r.Resolve(context.Background(), "anything", models.NewUserContext("u1"))
			if !errors.Is(err, models.ErrIntentResolutionFailed) {
				t.Errorf("Resolve() error = %v, want ErrIntentResolutionFailed", err)
			}
		})
	}
}

func TestResolveFailsOnCollaboratorError(t *testing.T) {
	r := newTestResolver(t, &fakeLLM{err: errors.New("upstream down")})

	_, err := r.Resolve(context.Background(), "find pizza", models.NewUserContext("u1"))
	if !errors.Is(err, models.ErrIntentResolutionFailed) {
		t.Fatalf("Resolve() error = %v, want ErrIntentResolutionFailed", err)
	}
}

func TestPromptCarriesRulesAndContext(t *testing.T) {
	client := &fakeLLM{reply: `{"intent": "generalChat", "location_source": "none", "confidence": 0.8}`}
	r := newTestResolver(t, client)

	uctx := models.NewUserContext("u1")
	uctx.LastLocation = models.LastLocation{Source: models.LocationAddress, Value: "Amsterdam"}
	uctx.Append(models.RoleUser, "find hotels near me")

	if _, err := r.Resolve(context.Background(), "I am going to Paris", uctx); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	prompt := client.lastPrompt
	if !strings.Contains(prompt, "I am going to Paris") {
		t.Error("prompt is missing the trip-planning rule")
	}
	if !strings.Contains(prompt, "Amsterdam") {
		t.Error("prompt is missing the last known location")
	}
	if !strings.Contains(prompt, "find hotels near me") {
		t.Error("prompt is missing recent history")
	}
}
