package review

import (
	"testing"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

func hasIssue(result models.ReviewResult, issueType string, severity models.Severity) bool {
	for _, issue := range result.Issues {
		if issue.Type == issueType && issue.Severity == severity {
			return true
		}
	}
	return false
}

func TestReviewCleanResponse(t *testing.T) {
	result := Review(
		"Directions from Paris to London:\nDistance: 459.5 km\nDuration: 300 minutes",
		"directions from Paris to London",
		Evidence{ResultCount: 1},
	)
	if !result.Approved || result.RevisionsNeeded {
		t.Errorf("clean response rejected: %+v", result)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Confidence)
	}
	if len(result.Issues) != 0 {
		t.Errorf("Issues = %v, want none", result.Issues)
	}
}

// An out-of-range latitude is a critical math issue and forces revisions.
func TestReviewLatitudeOutOfRange(t *testing.T) {
	result := Review(
		"The location is at lat: 95, lon: 4.9.",
		"where is the location",
		Evidence{ResultCount: 1},
	)
	if !hasIssue(result, "math", models.SeverityCritical) {
		t.Fatalf("no critical math issue: %+v", result.Issues)
	}
	if !result.RevisionsNeeded {
		t.Error("RevisionsNeeded = false, want true")
	}
	if result.Approved {
		t.Error("Approved = true, want false")
	}
}

func TestReviewLongitudeOutOfRange(t *testing.T) {
	result := Review("Coordinates: lat: 52.3, lon: 190.5", "coordinates please", Evidence{ResultCount: 1})
	if !hasIssue(result, "math", models.SeverityCritical) {
		t.Errorf("no critical math issue: %+v", result.Issues)
	}
}

func TestReviewMixedUnits(t *testing.T) {
	result := Review(
		"The trip is 100 km, which is about 62 miles.",
		"how far is the trip",
		Evidence{ResultCount: 1},
	)
	if !hasIssue(result, "units", models.SeverityMedium) {
		t.Errorf("no medium units issue: %+v", result.Issues)
	}
	// Medium alone never forces revisions.
	if result.RevisionsNeeded {
		t.Errorf("RevisionsNeeded = true for medium-only issues: %+v", result.Issues)
	}
}

func TestReviewCitationWithoutSources(t *testing.T) {
	result := Review(
		"The museum is open daily [1].",
		"when is the museum open",
		Evidence{ResultCount: 1},
	)
	if !hasIssue(result, "citation", models.SeverityMedium) {
		t.Errorf("unbacked citation marker not flagged: %+v", result.Issues)
	}

	result = Review(
		"The museum is open daily [1].",
		"when is the museum open",
		Evidence{ResultCount: 1, Sources: []string{"museum.example"}},
	)
	if !hasIssue(result, "citation", models.SeverityLow) {
		t.Errorf("missing source list not flagged as low: %+v", result.Issues)
	}
}

func TestReviewSafetyDenylist(t *testing.T) {
	result := Review(
		"Your password: hunter2 is stored in the profile.",
		"account help",
		Evidence{ResultCount: 1},
	)
	if !hasIssue(result, "safety", models.SeverityCritical) {
		t.Errorf("credential phrasing not flagged: %+v", result.Issues)
	}
}

func TestReviewCompleteness(t *testing.T) {
	result := Review(
		"I can help with that.",
		"compare restaurants hotels museums parking airports",
		Evidence{ResultCount: 1},
	)
	if !hasIssue(result, "completeness", models.SeverityHigh) {
		t.Errorf("incomplete response not flagged: %+v", result.Issues)
	}
	if !result.RevisionsNeeded {
		t.Error("RevisionsNeeded = false for a high issue")
	}
}

func TestReviewAccuracyZeroResults(t *testing.T) {
	result := Review(
		"I found 3 great restaurants for you!",
		"restaurants nearby",
		Evidence{ResultCount: 0},
	)
	if !hasIssue(result, "accuracy", models.SeverityCritical) {
		t.Errorf("fabricated results not flagged: %+v", result.Issues)
	}

	// ResultCount -1 means no countable evidence: no accuracy verdict.
	result = Review(
		"I found some information for you.",
		"information nearby",
		Evidence{ResultCount: -1},
	)
	if hasIssue(result, "accuracy", models.SeverityCritical) {
		t.Errorf("uncountable evidence flagged as fabrication: %+v", result.Issues)
	}
}

func TestReviewConfidenceWeighting(t *testing.T) {
	// One medium issue: confidence = 1 - 0.3/1.
	result := Review(
		"The trip is 100 km, which is about 62 miles away.",
		"how far",
		Evidence{ResultCount: 1},
	)
	if len(result.Issues) != 1 {
		t.Fatalf("Issues = %v, want exactly one", result.Issues)
	}
	if result.Confidence < 0.69 || result.Confidence > 0.71 {
		t.Errorf("Confidence = %v, want 0.7", result.Confidence)
	}
}
