package planner_test

import (
	"testing"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/planner"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

func TestAnalyzeSequentialRule(t *testing.T) {
	cases := []struct {
		name       string
		intent     models.Intent
		sequential bool
	}{
		{
			"directions with addresses",
			models.Intent{Kind: models.IntentDirections, LocationSource: models.LocationAddress, SearchText: "from Paris to London"},
			true,
		},
		{
			"directions with search text only",
			models.Intent{Kind: models.IntentDirections, LocationSource: models.LocationNone, SearchText: "from Paris to London"},
			true,
		},
		{
			"directions with known coordinates",
			models.Intent{Kind: models.IntentDirections, LocationSource: models.LocationCoordinates},
			false,
		},
		{
			"matrix with addresses",
			models.Intent{Kind: models.IntentMatrix, LocationSource: models.LocationAddress, SearchText: "between A, B, C"},
			true,
		},
		{
			"search never sequential",
			models.Intent{Kind: models.IntentSearch, LocationSource: models.LocationAddress, SearchText: "coffee"},
			false,
		},
		{
			"general chat never sequential",
			models.Intent{Kind: models.IntentGeneralChat},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := planner.Analyze(&tc.intent)
			if req.Sequential != tc.sequential {
				t.Errorf("Analyze().Sequential = %v, want %v", req.Sequential, tc.sequential)
			}
		})
	}
}

func TestAnalyzeToolMapping(t *testing.T) {
	req := planner.Analyze(&models.Intent{Kind: models.IntentSearch})
	if req.Tool != "maps.search" {
		t.Errorf("Tool = %q, want maps.search", req.Tool)
	}

	// Explicit tool_needed from the classifier wins.
	req = planner.Analyze(&models.Intent{Kind: models.IntentSearch, ToolNeeded: "maps.geocode"})
	if req.Tool != "maps.geocode" {
		t.Errorf("Tool = %q, want maps.geocode", req.Tool)
	}
}

func TestDecomposeSearchRequest(t *testing.T) {
	plan := planner.Decompose("find restaurants near the station")

	if len(plan.Steps) != 3 {
		t.Fatalf("step count = %d, want 3", len(plan.Steps))
	}
	if plan.Steps[0].TargetAgent != "maps-agent" || plan.Steps[0].Action != "search_places" {
		t.Errorf("first step = %s/%s, want maps-agent/search_places", plan.Steps[0].TargetAgent, plan.Steps[0].Action)
	}
	if err := plan.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	// 2s per step plus the maps surcharge.
	if plan.EstimatedDurationSec != 9 {
		t.Errorf("EstimatedDurationSec = %d, want 9", plan.EstimatedDurationSec)
	}
	if plan.Complexity != models.ComplexityMedium {
		t.Errorf("Complexity = %q, want medium", plan.Complexity)
	}
}

func TestDecomposeGeneralRequest(t *testing.T) {
	plan := planner.Decompose("tell me a joke")

	if len(plan.Steps) != 2 {
		t.Fatalf("step count = %d, want 2", len(plan.Steps))
	}
	if plan.Steps[0].TargetAgent != "writer-agent" {
		t.Errorf("first step agent = %q, want writer-agent", plan.Steps[0].TargetAgent)
	}
	if plan.Complexity != models.ComplexityLow {
		t.Errorf("Complexity = %q, want low", plan.Complexity)
	}
	if plan.EstimatedDurationSec != 4 {
		t.Errorf("EstimatedDurationSec = %d, want 4", plan.EstimatedDurationSec)
	}
}

func TestDecomposeReviewerIsLastAndDependsOnAll(t *testing.T) {
	plan := planner.Decompose("directions from A to B")

	last := plan.Steps[len(plan.Steps)-1]
	if last.TargetAgent != "reviewer-agent" {
		t.Fatalf("last step agent = %q, want reviewer-agent", last.TargetAgent)
	}
	if len(last.DependsOn) != len(plan.Steps)-1 {
		t.Errorf("reviewer depends on %d steps, want %d", len(last.DependsOn), len(plan.Steps)-1)
	}
}

func TestPlanValidateRejectsForwardDependency(t *testing.T) {
	plan := &models.Plan{
		PlanID: "p1",
		Steps: []models.Step{
			{StepID: "step-1", DependsOn: []string{"step-2"}},
			{StepID: "step-2"},
		},
	}
	if err := plan.Validate(); err == nil {
		t.Error("Validate() accepted a forward dependency")
	}
}
