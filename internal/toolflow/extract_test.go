package toolflow

import (
	"reflect"
	"testing"
)

func TestExtractFromTo(t *testing.T) {
	origin, dest, ok := extractFromTo("directions from Paris to London")
	if !ok {
		t.Fatal("extractFromTo() did not match")
	}
	if origin != "Paris" || dest != "London" {
		t.Errorf("extractFromTo() = (%q, %q), want (Paris, London)", origin, dest)
	}

	if _, _, ok := extractFromTo("show me a map of Paris"); ok {
		t.Error("extractFromTo() matched text without a from/to pair")
	}
}

func TestExtractLocationsPrecedence(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			"from/to pair",
			"matrix from Amsterdam, Utrecht to Rotterdam, Eindhoven",
			[]string{"Amsterdam", "Utrecht", "Rotterdam", "Eindhoven"},
		},
		{
			"between list",
			"matrix routing between Amsterdam, Utrecht, Rotterdam",
			[]string{"Amsterdam", "Utrecht", "Rotterdam"},
		},
		{
			"between with and",
			"travel times between Amsterdam, Utrecht and Rotterdam",
			[]string{"Amsterdam", "Utrecht", "Rotterdam"},
		},
		{
			"both pair",
			"show me both Amsterdam and Rotterdam",
			[]string{"Amsterdam", "Rotterdam"},
		},
		{
			"bare and pair",
			"Amsterdam and Rotterdam",
			[]string{"Amsterdam", "Rotterdam"},
		},
		{
			"comma list",
			"Amsterdam, Utrecht, Rotterdam",
			[]string{"Amsterdam", "Utrecht", "Rotterdam"},
		},
		{
			"no locations",
			"hello",
			nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractLocations(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("extractLocations(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

// A query containing several conjunctions must parse by the first
// matching pattern, not the later ones.
func TestExtractLocationsFirstMatchWins(t *testing.T) {
	got := extractLocations("from Amsterdam to Rotterdam and Utrecht")
	want := []string{"Amsterdam", "Rotterdam", "Utrecht"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extractLocations() = %v, want %v (from/to pattern first)", got, want)
	}
}

func TestParseCoordinates(t *testing.T) {
	coords, ok := parseCoordinates("show me hotels near 52.3676, 4.9041")
	if !ok {
		t.Fatal("parseCoordinates() did not match")
	}
	if coords.Lat != 52.3676 || coords.Lon != 4.9041 {
		t.Errorf("parseCoordinates() = %v", coords)
	}

	if _, ok := parseCoordinates("near 95.0, 4.9"); ok {
		t.Error("parseCoordinates() accepted an out-of-range latitude")
	}
	if _, ok := parseCoordinates("no numbers here"); ok {
		t.Error("parseCoordinates() matched text without coordinates")
	}
}

func TestExtractNearPhrase(t *testing.T) {
	phrase, ok := extractNearPhrase("find coffee near the central station")
	if !ok || phrase != "central station" {
		t.Errorf("extractNearPhrase() = (%q, %v), want (central station, true)", phrase, ok)
	}

	// Context references are not place names.
	if _, ok := extractNearPhrase("find coffee near me"); ok {
		t.Error("extractNearPhrase() treated a context reference as a place")
	}
}

func TestIsContextReference(t *testing.T) {
	for _, ref := range []string{"there", "here", "my location", "[current location]", "near me"} {
		if !isContextReference(ref) {
			t.Errorf("isContextReference(%q) = false, want true", ref)
		}
	}
	if isContextReference("Rotterdam") {
		t.Error("isContextReference(Rotterdam) = true, want false")
	}
}
