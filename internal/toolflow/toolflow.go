// Package toolflow executes the multi-step tool workflows that cannot be
// satisfied by a single downstream call: geocode-then-route directions,
// geocode-then-matrix travel-time tables, and the single-tool path with
// its location resolution ladder.
package toolflow

import (
	"context"
	"sync"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/contextstore"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/maps"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/rs/zerolog/log"
)

// defaultLocation is the last-resort search bias when nothing else
// resolves. Amsterdam, like the original deployment.
var defaultLocation = models.LatLon{Lat: 52.3676, Lon: 4.9041}

// User-facing strings. Raw errors are logged, never surfaced.
const (
	msgToolFailure = "Sorry, I'm having trouble reaching the maps service right now. Please try again in a moment."

	msgDirectionsClarify = "I can help you get directions! Please provide both origin and destination, " +
		"for example: \"How do I get from Seattle to Portland?\""
	msgNoRoute = "I couldn't find a route between those locations. " +
		"Please check the addresses and try again."
	msgNoPriorLocation = "I don't know where you are yet. Tell me a location first, " +
		"for example: \"I'm at Dam Square, Amsterdam\"."
	msgMatrixClarify = "I need at least two locations to build a travel-time table. " +
		"Try something like: \"travel times between Amsterdam, Utrecht and Rotterdam\"."
)

// Result is the outcome of one workflow: the user-facing response plus
// the evidence the quality reviewer needs. ResultCount is -1 when the
// workflow produced no countable evidence.
type Result struct {
	Response    string
	ResultCount int
	ToolUsed    string
}

// Orchestrator runs sequential tool workflows against the mapping service
// and the conversation context store.
type Orchestrator struct {
	maps  maps.Service
	store contextstore.Store
	rec   observe.Recorder
}

// New wires the tool orchestrator.
func New(svc maps.Service, store contextstore.Store, rec observe.Recorder) *Orchestrator {
	return &Orchestrator{maps: svc, store: store, rec: rec}
}

// geocoded is one concurrently-resolved location.
type geocoded struct {
	text   string
	result *maps.GeocodeResult
	err    error
}

// geocodeAll resolves every location concurrently and joins before
// returning. Each geocode is a network round trip; issuing them
// sequentially would multiply workflow latency by the location count.
func (o *Orchestrator) geocodeAll(ctx context.Context, locations []string) []geocoded {
	out := make([]geocoded, len(locations))
	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc string) {
			defer wg.Done()
			start := time.Now()
			result, err := o.maps.Geocode(ctx, loc)
			out[i] = geocoded{text: loc, result: result, err: err}
			o.rec.Record(ctx, observe.Event{
				Component: "toolflow",
				Operation: "geocode",
				Duration:  time.Since(start),
				Success:   err == nil && result != nil,
				Error:     errString(err),
			})
		}(i, loc)
	}
	wg.Wait()
	return out
}

// resolveEndpoint substitutes contextual references ("there", "near me")
// with the user's last known location. Returns the concrete location text
// or coordinates, and false when context is needed but absent.
func resolveEndpoint(text string, uctx *models.UserContext) (resolved string, coords *models.LatLon, ok bool) {
	if !isContextReference(text) {
		return text, nil, true
	}
	if uctx == nil {
		return "", nil, false
	}
	if uctx.LastCoordinates != nil {
		return uctx.LastLocation.Value, uctx.LastCoordinates, true
	}
	if uctx.LastLocation.Source != models.LocationNone && uctx.LastLocation.Value != "" {
		return uctx.LastLocation.Value, nil, true
	}
	return "", nil, false
}

func (o *Orchestrator) updateLastLocation(ctx context.Context, userID, value string, coords models.LatLon) {
	uctx, err := o.store.Get(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("context read failed after workflow")
		return
	}
	uctx.LastLocation = models.LastLocation{Source: models.LocationAddress, Value: value}
	uctx.LastCoordinates = &models.LatLon{Lat: coords.Lat, Lon: coords.Lon}
	if err := o.store.Update(ctx, uctx); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("context update failed after workflow")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
