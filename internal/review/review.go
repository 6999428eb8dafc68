// Package review applies a fixed rubric to a synthesized response before
// delivery: citations, numeric sanity, safety, completeness against the
// original request, and accuracy against the tool evidence. Each check
// appends issues independently; the result aggregates them into a
// confidence score and an approval verdict.
package review

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Evidence is what the tool workflow actually produced, independent of
// the prose written about it. ResultCount is -1 when the workflow
// produced no countable evidence.
type Evidence struct {
	ResultCount int
	Sources     []string
}

var (
	inlineCitationRe = regexp.MustCompile(`\[\d+\]`)
	sourceListRe     = regexp.MustCompile(`(?i)\bsources?\s*:`)

	latRe       = regexp.MustCompile(`(?i)\blat(?:itude)?\s*[:=]?\s*(-?\d+(?:\.\d+)?)`)
	lonRe       = regexp.MustCompile(`(?i)\b(?:lon|lng|longitude)\s*[:=]?\s*(-?\d+(?:\.\d+)?)`)
	coordPairRe = regexp.MustCompile(`(-?\d{1,3}(?:\.\d+)?)\s*,\s*(-?\d{1,3}(?:\.\d+)?)`)

	kmRe    = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:km|kilometers?)\b`)
	milesRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:mi|miles?)\b`)

	foundClaimRe = regexp.MustCompile(`(?i)\b(?:i found|found \d+|here (?:are|is)|results? for)\b`)
)

// denylist catches sensitive-data phrasing and abusive language that must
// never reach the user.
var denylist = []struct {
	re   *regexp.Regexp
	desc string
}{
	{regexp.MustCompile(`(?i)\b(?:password|passphrase|api[ _-]?key|secret[ _-]?key)\b\s*[:=]`), "response exposes credential material"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "response contains a social security number pattern"},
	{regexp.MustCompile(`\b(?:\d[ -]?){15,16}\b`), "response contains a card number pattern"},
	{regexp.MustCompile(`(?i)\b(?:fuck|shit|bitch|asshole)\b`), "response contains profanity"},
}

// stopwords are excluded from the completeness keyword set.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "from": true, "with": true,
	"what": true, "where": true, "when": true, "how": true, "are": true,
	"can": true, "you": true, "please": true, "show": true, "give": true,
	"find": true, "get": true, "me": true, "my": true, "a": true, "an": true,
	"to": true, "of": true, "in": true, "is": true, "near": true,
	"between": true, "directions": true, "route": true,
}

// Review runs every rubric check and aggregates the outcome. Revisions
// are required iff any issue is high or critical severity; confidence is
// the severity-weighted inverse of the issue density.
func Review(response, originalRequest string, ev Evidence) models.ReviewResult {
	var issues []models.ReviewIssue
	issues = append(issues, checkCitations(response, ev)...)
	issues = append(issues, checkNumbers(response)...)
	issues = append(issues, checkSafety(response)...)
	issues = append(issues, checkCompleteness(response, originalRequest)...)
	issues = append(issues, checkAccuracy(response, ev)...)

	revisions := false
	penalty := 0.0
	for _, issue := range issues {
		penalty += issue.Severity.Weight()
		if issue.Severity == models.SeverityHigh || issue.Severity == models.SeverityCritical {
			revisions = true
		}
	}

	confidence := 1.0
	if len(issues) > 0 {
		confidence = 1.0 - penalty/float64(len(issues))
		if confidence < 0 {
			confidence = 0
		}
	}

	return models.ReviewResult{
		Approved:        !revisions,
		Issues:          issues,
		Confidence:      confidence,
		RevisionsNeeded: revisions,
	}
}

// checkCitations flags inline citation markers that the evidence cannot
// back, and markers without a trailing source list.
func checkCitations(response string, ev Evidence) []models.ReviewIssue {
	if !inlineCitationRe.MatchString(response) {
		return nil
	}
	if len(ev.Sources) == 0 {
		return []models.ReviewIssue{{
			Type:        "citation",
			Severity:    models.SeverityMedium,
			Description: "response carries citation markers but the evidence has no sources",
			Suggestion:  "remove the markers or attach the actual sources",
		}}
	}
	if !sourceListRe.MatchString(response) {
		return []models.ReviewIssue{{
			Type:        "citation",
			Severity:    models.SeverityLow,
			Description: "citation markers are not followed by a source list",
			Suggestion:  "append a Sources section",
		}}
	}
	return nil
}

// checkNumbers verifies coordinate ranges and unit consistency.
func checkNumbers(response string) []models.ReviewIssue {
	var issues []models.ReviewIssue

	for _, m := range latRe.FindAllStringSubmatch(response, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && (v < -90 || v > 90) {
			issues = append(issues, mathIssue(fmt.Sprintf("latitude %s is outside [-90, 90]", m[1])))
		}
	}
	for _, m := range lonRe.FindAllStringSubmatch(response, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && (v < -180 || v > 180) {
			issues = append(issues, mathIssue(fmt.Sprintf("longitude %s is outside [-180, 180]", m[1])))
		}
	}
	for _, m := range coordPairRe.FindAllStringSubmatch(response, -1) {
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if strings.Contains(m[1], ".") && strings.Contains(m[2], ".") &&
			(lat < -90 || lat > 90 || lon < -180 || lon > 180) {
			issues = append(issues, mathIssue(fmt.Sprintf("coordinate pair %s, %s is out of range", m[1], m[2])))
		}
	}

	if kmRe.MatchString(response) && milesRe.MatchString(response) {
		issues = append(issues, models.ReviewIssue{
			Type:        "units",
			Severity:    models.SeverityMedium,
			Description: "response mixes kilometers and miles",
			Suggestion:  "use one distance unit throughout",
		})
	}
	return issues
}

func mathIssue(desc string) models.ReviewIssue {
	return models.ReviewIssue{
		Type:        "math",
		Severity:    models.SeverityCritical,
		Description: desc,
		Suggestion:  "recompute the coordinates from the tool output",
	}
}

func checkSafety(response string) []models.ReviewIssue {
	var issues []models.ReviewIssue
	for _, entry := range denylist {
		if entry.re.MatchString(response) {
			issues = append(issues, models.ReviewIssue{
				Type:        "safety",
				Severity:    models.SeverityCritical,
				Description: entry.desc,
				Suggestion:  "strip the flagged content before delivery",
			})
		}
	}
	return issues
}

// checkCompleteness requires at least half of the request's significant
// keywords to surface in the response.
func checkCompleteness(response, originalRequest string) []models.ReviewIssue {
	keywords := significantKeywords(originalRequest)
	if len(keywords) == 0 {
		return nil
	}

	lower := strings.ToLower(response)
	covered := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			covered++
		}
	}
	if covered*2 >= len(keywords) {
		return nil
	}
	return []models.ReviewIssue{{
		Type:        "completeness",
		Severity:    models.SeverityHigh,
		Description: fmt.Sprintf("response covers %d of %d request keywords", covered, len(keywords)),
		Suggestion:  "address the parts of the request the response skipped",
	}}
}

func significantKeywords(request string) []string {
	var out []string
	for _, word := range strings.Fields(strings.ToLower(request)) {
		word = strings.Trim(word, " .?!,\"'")
		if len(word) <= 3 || stopwords[word] {
			continue
		}
		out = append(out, word)
	}
	return out
}

// checkAccuracy catches the response claiming results the evidence does
// not contain.
func checkAccuracy(response string, ev Evidence) []models.ReviewIssue {
	if ev.ResultCount != 0 {
		return nil
	}
	if !foundClaimRe.MatchString(response) {
		return nil
	}
	return []models.ReviewIssue{{
		Type:        "accuracy",
		Severity:    models.SeverityCritical,
		Description: "evidence returned zero results but the response claims results were found",
		Suggestion:  "report that nothing was found instead",
	}}
}
