package toolflow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Extraction patterns are ordered strategies, each a pure function from
// text to an optional extraction, tried in priority order. The order is
// fixed and first-match-wins; it must be preserved exactly to keep parses
// of queries with multiple conjunctions unambiguous.

var (
	fromToRe  = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+)`)
	betweenRe = regexp.MustCompile(`(?i)\bbetween\s+(.+)`)
	bothAndRe = regexp.MustCompile(`(?i)\bboth\s+(.+?)\s+and\s+(.+)`)
	coordRe   = regexp.MustCompile(`(-?\d+\.?\d*)\s*,\s*(-?\d+\.?\d*)`)
)

// extractFromTo pulls origin and destination out of a directions query.
func extractFromTo(text string) (origin, destination string, ok bool) {
	m := fromToRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return cleanLocation(m[1]), cleanLocation(m[2]), true
}

// locationExtractor attempts to pull two or more locations out of text.
type locationExtractor func(text string) ([]string, bool)

// matrixExtractors is the fixed precedence order for matrix queries.
var matrixExtractors = []locationExtractor{
	extractFromToLists,
	extractBetweenList,
	extractBothAnd,
	extractAndPair,
	extractCommaList,
}

// extractLocations runs the extractor chain; the first strategy that
// yields at least two locations wins.
func extractLocations(text string) []string {
	for _, extract := range matrixExtractors {
		if locs, ok := extract(text); ok {
			return locs
		}
	}
	return nil
}

// "from A, B to X, Y": both sides may be comma lists.
func extractFromToLists(text string) ([]string, bool) {
	m := fromToRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	locs := append(splitList(m[1]), splitList(m[2])...)
	if len(locs) < 2 {
		return nil, false
	}
	return locs, true
}

// "between A, B and C"
func extractBetweenList(text string) ([]string, bool) {
	m := betweenRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	locs := splitList(m[1])
	if len(locs) < 2 {
		return nil, false
	}
	return locs, true
}

// "both A and B"
func extractBothAnd(text string) ([]string, bool) {
	m := bothAndRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	locs := []string{cleanLocation(m[1]), cleanLocation(m[2])}
	if locs[0] == "" || locs[1] == "" {
		return nil, false
	}
	return locs, true
}

// "A and B"
func extractAndPair(text string) ([]string, bool) {
	parts := strings.Split(text, " and ")
	if len(parts) != 2 {
		return nil, false
	}
	a, b := cleanLocation(parts[0]), cleanLocation(parts[1])
	if a == "" || b == "" {
		return nil, false
	}
	return []string{a, b}, true
}

// Plain comma-separated list.
func extractCommaList(text string) ([]string, bool) {
	locs := splitList(text)
	if len(locs) < 2 {
		return nil, false
	}
	return locs, true
}

// splitList breaks "A, B and C" into trimmed location names.
func splitList(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if loc := cleanLocation(part); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// matrixNoise strips the query verbs so "matrix routing between A, B"
// leaves only location text behind.
var matrixNoise = []string{
	"matrix routing", "matrix", "travel times", "travel time",
	"distances", "distance", "routing", "show me", "calculate",
	"compute", "what are the", "the",
}

func cleanLocation(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, noise := range matrixNoise {
		if strings.HasPrefix(lower, noise+" ") {
			s = strings.TrimSpace(s[len(noise):])
			lower = strings.ToLower(s)
		}
	}
	return strings.Trim(s, " .?!,")
}

// parseAllCoordinates reads every in-range "lat, lon" pair in order of
// appearance.
func parseAllCoordinates(text string) []models.LatLon {
	var out []models.LatLon
	for _, m := range coordRe.FindAllStringSubmatch(text, -1) {
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		out = append(out, models.LatLon{Lat: lat, Lon: lon})
	}
	return out
}

// parseCoordinates reads a "lat, lon" pair when both values are in range.
func parseCoordinates(text string) (*models.LatLon, bool) {
	m := coordRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false
	}
	return &models.LatLon{Lat: lat, Lon: lon}, true
}

var nearRe = regexp.MustCompile(`(?i)\b(?:near|in|at|around)\s+([A-Za-z][A-Za-z\s,]+)`)

// extractNearPhrase pulls a location phrase like "near the station" or
// "in Seattle" out of free text for a best-effort geocode.
func extractNearPhrase(text string) (string, bool) {
	m := nearRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	phrase := cleanLocation(m[1])
	if phrase == "" || isContextReference(phrase) {
		return "", false
	}
	return phrase, true
}

// isContextReference reports whether the text is a placeholder for the
// user's prior location rather than a real place name.
func isContextReference(s string) bool {
	switch strings.ToLower(strings.Trim(s, " .?!,")) {
	case "there", "here", "me", "my location", "current location", "[current location]", "near me":
		return true
	}
	return false
}
