// Package intent turns one free-text user message plus conversation
// context into a structured intent descriptor. Language understanding is
// delegated to the LLM collaborator; this package owns the prompt, the
// parsing, and the validation of what comes back. There is no fallback:
// an unparseable classification aborts the turn.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/llm"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/kaptinlin/jsonschema"
	"github.com/rs/zerolog/log"
)

// intentSchema validates the collaborator's classification before it is
// decoded. Anything that does not match is a hard failure.
const intentSchema = `{
  "type": "object",
  "required": ["intent", "location_source", "confidence"],
  "properties": {
    "intent": {
      "type": "string",
      "enum": ["search", "geocode", "directions", "matrix", "reverseGeocode", "staticMap", "generalChat"]
    },
    "location_source": {
      "type": "string",
      "enum": ["coordinates", "address", "contextReference", "none"]
    },
    "location_value": {"type": "string"},
    "search_text": {"type": "string"},
    "tool_needed": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

// Resolver classifies user messages.
type Resolver struct {
	llm    llm.Client
	schema *jsonschema.Schema
	rec    observe.Recorder
}

// NewResolver compiles the intent schema and returns a ready resolver.
func NewResolver(client llm.Client, rec observe.Recorder) (*Resolver, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(intentSchema))
	if err != nil {
		return nil, fmt.Errorf("compile intent schema: %w", err)
	}
	return &Resolver{llm: client, schema: schema, rec: rec}, nil
}

// Resolve classifies one message against the user's context. Every
// failure mode wraps ErrIntentResolutionFailed; the caller aborts the
// turn with a generic apology.
func (r *Resolver) Resolve(ctx context.Context, message string, uctx *models.UserContext) (*models.Intent, error) {
	start := time.Now()
	prompt := buildPrompt(message, uctx)

	raw, err := r.llm.Classify(ctx, prompt)
	if err != nil {
		r.record(ctx, start, false, err)
		return nil, fmt.Errorf("%w: collaborator call: %v", models.ErrIntentResolutionFailed, err)
	}

	intent, err := r.parse(raw)
	if err != nil {
		log.Warn().Str("raw", truncate(raw, 300)).Err(err).Msg("unparseable intent classification")
		r.record(ctx, start, false, err)
		return nil, err
	}

	r.record(ctx, start, true, nil)
	log.Debug().
		Str("intent", string(intent.Kind)).
		Float64("confidence", intent.Confidence).
		Msg("intent resolved")
	return intent, nil
}

func (r *Resolver) parse(raw string) (*models.Intent, error) {
	payload, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in collaborator response", models.ErrIntentResolutionFailed)
	}

	result := r.schema.ValidateJSON([]byte(payload))
	if !result.IsValid() {
		return nil, fmt.Errorf("%w: schema violation: %v", models.ErrIntentResolutionFailed, result.Errors)
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(payload), &intent); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrIntentResolutionFailed, err)
	}

	if intent.Confidence < 0 {
		intent.Confidence = 0
	} else if intent.Confidence > 1 {
		intent.Confidence = 1
	}
	// Note: low confidence is deliberately not gated on; classifications
	// are acted upon regardless.
	return &intent, nil
}

func (r *Resolver) record(ctx context.Context, start time.Time, success bool, err error) {
	ev := observe.Event{
		Component: "intent",
		Operation: "resolve",
		Duration:  time.Since(start),
		Success:   success,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.rec.Record(ctx, ev)
}

// buildPrompt lists the supported intents and the routing rules, then
// supplies the context the classifier needs.
func buildPrompt(message string, uctx *models.UserContext) string {
	var b strings.Builder

	b.WriteString("Classify the user message into exactly one intent.\n\n")
	b.WriteString("Supported intents: search, geocode, directions, matrix, reverseGeocode, staticMap, generalChat.\n\n")
	b.WriteString("Routing rules:\n")
	b.WriteString("- \"search\": the user wants to find places (restaurants, hotels, coffee, ...).\n")
	b.WriteString("- \"geocode\": the user wants coordinates for an address.\n")
	b.WriteString("- \"directions\": the user wants a route between two locations.\n")
	b.WriteString("- \"matrix\": the user wants travel times between three or more locations, or a travel-time table.\n")
	b.WriteString("- \"reverseGeocode\": the user gives coordinates and wants the address.\n")
	b.WriteString("- \"staticMap\": the user wants a map image of a location.\n")
	b.WriteString("- \"generalChat\": anything else, including greetings and small talk.\n")
	b.WriteString("- Trip-planning statements such as \"I am going to Paris\" are generalChat, even though they name a location. Only classify as a maps intent when the user asks for a concrete maps action.\n\n")
	b.WriteString("location_source is where the location in the message comes from: explicit \"coordinates\", a written \"address\", a \"contextReference\" (\"there\", \"near me\"), or \"none\".\n\n")

	if uctx != nil {
		if uctx.LastLocation.Source != models.LocationNone && uctx.LastLocation.Value != "" {
			fmt.Fprintf(&b, "The user's last known location: %s (%s).\n", uctx.LastLocation.Value, uctx.LastLocation.Source)
		}
		if n := len(uctx.History); n > 0 {
			b.WriteString("Recent conversation:\n")
			for _, msg := range uctx.History[max(0, n-6):] {
				fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Text)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User message: %q\n\n", message)
	b.WriteString("Respond with one JSON object: {\"intent\": ..., \"location_source\": ..., \"location_value\": ..., \"search_text\": ..., \"tool_needed\": ..., \"confidence\": 0.0-1.0}")
	return b.String()
}

// extractJSON pulls the first JSON object out of a free-text reply. The
// collaborator occasionally wraps its answer in prose or a code fence.
func extractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
