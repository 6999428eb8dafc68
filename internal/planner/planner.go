// Package planner converts resolved intents (direct mode) or raw requests
// (decomposition mode) into execution plans.
package planner

import (
	"fmt"
	"strings"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/google/uuid"
)

// Requirements is the direct-mode output: whether the intent needs a
// sequential multi-tool workflow and which downstream tool it targets.
type Requirements struct {
	Sequential bool
	Tool       string
}

// Analyze decides single-tool versus sequential execution for a resolved
// intent. Sequential execution is required exactly when the intent is
// directions or matrix and coordinates are not already known, since those
// intents must geocode before the downstream routing call.
func Analyze(intent *models.Intent) Requirements {
	req := Requirements{Tool: toolFor(intent)}

	if intent.Kind != models.IntentDirections && intent.Kind != models.IntentMatrix {
		return req
	}
	if intent.LocationSource == models.LocationAddress || intent.SearchText != "" {
		req.Sequential = true
	}
	return req
}

func toolFor(intent *models.Intent) string {
	if intent.ToolNeeded != "" {
		return intent.ToolNeeded
	}
	switch intent.Kind {
	case models.IntentSearch:
		return "maps.search"
	case models.IntentGeocode:
		return "maps.geocode"
	case models.IntentDirections:
		return "maps.directions"
	case models.IntentMatrix:
		return "maps.matrix"
	case models.IntentReverseGeocode:
		return "maps.reverseGeocode"
	case models.IntentStaticMap:
		return "maps.staticMap"
	}
	return ""
}

// Decompose is the planning-agent path: break a raw request into a 2-6
// step plan using keyword heuristics. Every plan ends with a reviewer
// step that depends on all prior steps.
func Decompose(request string) *models.Plan {
	lower := strings.ToLower(request)
	var steps []models.Step

	switch {
	case containsAny(lower, "find", "search", "near"):
		steps = append(steps,
			step(1, "maps-agent", "search_places", map[string]any{"query": request}, nil, "list of matching places"),
			step(2, "writer-agent", "format_results", map[string]any{"style": "conversational"}, deps(1), "formatted place list"),
		)
	case containsAny(lower, "coordinates", "geocode"):
		steps = append(steps,
			step(1, "maps-agent", "geocode", map[string]any{"query": request}, nil, "coordinates for the address"),
			step(2, "writer-agent", "format_results", map[string]any{"style": "conversational"}, deps(1), "formatted coordinates"),
		)
	case containsAny(lower, "directions", "route"):
		steps = append(steps,
			step(1, "maps-agent", "compute_route", map[string]any{"query": request}, nil, "route summary"),
			step(2, "writer-agent", "format_results", map[string]any{"style": "conversational"}, deps(1), "formatted directions"),
		)
	default:
		steps = append(steps,
			step(1, "writer-agent", "general_response", map[string]any{"query": request}, nil, "free-text answer"),
		)
	}

	// Reviewer step depends on everything before it.
	allPrior := make([]string, len(steps))
	for i, s := range steps {
		allPrior[i] = s.StepID
	}
	steps = append(steps, models.Step{
		StepID:         stepID(len(steps) + 1),
		TargetAgent:    "reviewer-agent",
		Action:         "review_response",
		Inputs:         map[string]any{"original_request": request},
		DependsOn:      allPrior,
		ExpectedOutput: "review verdict",
	})

	plan := &models.Plan{
		PlanID:               uuid.NewString(),
		Steps:                steps,
		EstimatedDurationSec: estimateDuration(steps),
		Complexity:           complexity(len(steps)),
	}
	return plan
}

func estimateDuration(steps []models.Step) int {
	est := 2 * len(steps)
	for _, s := range steps {
		if s.TargetAgent == "maps-agent" {
			est += 3
			break
		}
	}
	return est
}

func complexity(stepCount int) models.Complexity {
	switch {
	case stepCount <= 2:
		return models.ComplexityLow
	case stepCount <= 4:
		return models.ComplexityMedium
	default:
		return models.ComplexityHigh
	}
}

func stepID(n int) string { return fmt.Sprintf("step-%d", n) }

func step(n int, agent, action string, inputs map[string]any, dependsOn []string, expected string) models.Step {
	return models.Step{
		StepID:         stepID(n),
		TargetAgent:    agent,
		Action:         action,
		Inputs:         inputs,
		DependsOn:      dependsOn,
		ExpectedOutput: expected,
	}
}

func deps(ns ...int) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = stepID(n)
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
