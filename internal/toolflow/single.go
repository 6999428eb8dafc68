package toolflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/rs/zerolog/log"
)

const (
	searchRadiusMeters = 5000
	searchLimit        = 5
	staticMapZoom      = 13
)

// SingleTool executes the plan's single-tool dispatch: one downstream
// call selected by tool name. Directions and matrix land here when the
// request already carries coordinates and no geocoding leg is needed.
func (o *Orchestrator) SingleTool(ctx context.Context, userID, tool string, it *models.Intent, message string) Result {
	uctx, err := o.store.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("context read failed")
		uctx = models.NewUserContext(userID)
	}

	switch tool {
	case "maps.search":
		return o.search(ctx, it, message, uctx)
	case "maps.geocode":
		return o.geocode(ctx, userID, it)
	case "maps.reverseGeocode":
		return o.reverseGeocode(ctx, it, message, uctx)
	case "maps.staticMap":
		return o.staticMap(ctx, it, message, uctx)
	case "maps.directions":
		return o.directRoute(ctx, userID, message)
	case "maps.matrix":
		return o.directMatrix(ctx, message)
	}

	log.Warn().Str("tool", tool).Msg("single-tool path got an unexpected tool")
	return Result{Response: msgToolFailure, ResultCount: -1}
}

// directRoute serves a directions request whose endpoints are already
// coordinate pairs: no geocoding, one route call.
func (o *Orchestrator) directRoute(ctx context.Context, userID, message string) Result {
	points := parseAllCoordinates(message)
	if len(points) < 2 {
		return Result{Response: msgDirectionsClarify, ResultCount: -1, ToolUsed: "maps.directions"}
	}
	origin, dest := points[0], points[1]

	route, err := o.maps.Route(ctx, origin, dest)
	if err != nil {
		if errors.Is(err, models.ErrRouteNotFound) {
			return Result{Response: msgNoRoute, ResultCount: 0, ToolUsed: "maps.directions"}
		}
		log.Error().Err(err).
			Float64("origin_lat", origin.Lat).Float64("origin_lon", origin.Lon).
			Float64("dest_lat", dest.Lat).Float64("dest_lon", dest.Lon).
			Msg("route call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.directions"}
	}

	destLabel := fmt.Sprintf("%.4f, %.4f", dest.Lat, dest.Lon)
	o.updateLastLocation(ctx, userID, destLabel, dest)

	response := fmt.Sprintf("Directions from %.4f, %.4f to %s:\nDistance: %.1f km\nDuration: %d minutes",
		origin.Lat, origin.Lon, destLabel,
		float64(route.DistanceMeters)/1000.0,
		route.TravelTimeSeconds/60)
	return Result{Response: response, ResultCount: 1, ToolUsed: "maps.directions"}
}

// directMatrix serves a matrix request given entirely as coordinate pairs.
func (o *Orchestrator) directMatrix(ctx context.Context, message string) Result {
	points := parseAllCoordinates(message)
	if len(points) < 2 {
		return Result{Response: msgMatrixClarify, ResultCount: -1, ToolUsed: "maps.matrix"}
	}

	matrix, err := o.maps.Matrix(ctx, points)
	if err != nil {
		log.Error().Err(err).Int("points", len(points)).Msg("matrix call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.matrix"}
	}

	names := make([]string, len(points))
	for i, p := range points {
		names[i] = fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lon)
	}
	return Result{Response: renderMatrix(names, matrix), ResultCount: len(points), ToolUsed: "maps.matrix"}
}

// resolveSearchLocation walks the priority ladder: explicit coordinates,
// geocoded address, prior context coordinates, a best-effort geocode of a
// "near X" phrase, and finally the default coordinate.
func (o *Orchestrator) resolveSearchLocation(ctx context.Context, it *models.Intent, message string, uctx *models.UserContext) models.LatLon {
	if it.LocationSource == models.LocationCoordinates {
		if coords, ok := parseCoordinates(it.LocationValue); ok {
			return *coords
		}
	}
	if coords, ok := parseCoordinates(message); ok {
		return *coords
	}

	if it.LocationSource == models.LocationAddress && it.LocationValue != "" {
		if result, err := o.maps.Geocode(ctx, it.LocationValue); err == nil && result != nil {
			return result.Coordinates
		}
	}

	if uctx != nil && uctx.LastCoordinates != nil {
		return *uctx.LastCoordinates
	}

	if phrase, ok := extractNearPhrase(message); ok {
		if result, err := o.maps.Geocode(ctx, phrase); err == nil && result != nil {
			return result.Coordinates
		}
	}

	return defaultLocation
}

func (o *Orchestrator) search(ctx context.Context, it *models.Intent, message string, uctx *models.UserContext) Result {
	query := it.SearchText
	if query == "" {
		query = message
	}
	near := o.resolveSearchLocation(ctx, it, message, uctx)

	places, err := o.maps.Search(ctx, query, near, searchRadiusMeters, searchLimit)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("search call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.search"}
	}
	if len(places) == 0 {
		return Result{
			Response:    fmt.Sprintf("I couldn't find any %s in that area. Try a different location or search term.", query),
			ResultCount: 0,
			ToolUsed:    "maps.search",
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d places for %q:\n", len(places), query)
	for i, p := range places {
		fmt.Fprintf(&b, "\n%d. %s\n   %s", i+1, p.Name, p.FormattedAddress)
		if p.Rating > 0 {
			fmt.Fprintf(&b, "\n   Rating: %.1f/5", p.Rating)
		}
	}
	return Result{Response: b.String(), ResultCount: len(places), ToolUsed: "maps.search"}
}

func (o *Orchestrator) geocode(ctx context.Context, userID string, it *models.Intent) Result {
	address := it.LocationValue
	if address == "" {
		address = it.SearchText
	}
	if address == "" {
		return Result{
			Response:    "I can help you find coordinates for an address! Please tell me the address, for example: \"What are the coordinates for Dam Square, Amsterdam?\"",
			ResultCount: -1,
			ToolUsed:    "maps.geocode",
		}
	}

	result, err := o.maps.Geocode(ctx, address)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("geocode call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.geocode"}
	}
	if result == nil {
		return Result{
			Response:    fmt.Sprintf("I couldn't find coordinates for %q. Please check the address and try again.", address),
			ResultCount: 0,
			ToolUsed:    "maps.geocode",
		}
	}

	o.updateLastLocation(ctx, userID, result.FormattedAddress, result.Coordinates)

	return Result{
		Response: fmt.Sprintf("Address: %s\nCoordinates: %.4f, %.4f",
			result.FormattedAddress, result.Coordinates.Lat, result.Coordinates.Lon),
		ResultCount: 1,
		ToolUsed:    "maps.geocode",
	}
}

func (o *Orchestrator) reverseGeocode(ctx context.Context, it *models.Intent, message string, uctx *models.UserContext) Result {
	coords, ok := parseCoordinates(it.LocationValue)
	if !ok {
		coords, ok = parseCoordinates(message)
	}
	if !ok && uctx != nil && uctx.LastCoordinates != nil {
		coords, ok = uctx.LastCoordinates, true
	}
	if !ok {
		return Result{
			Response:    "I can help you find an address for coordinates! Please provide latitude and longitude, for example: \"What's at 52.3676, 4.9041?\"",
			ResultCount: -1,
			ToolUsed:    "maps.reverseGeocode",
		}
	}

	address, err := o.maps.ReverseGeocode(ctx, *coords)
	if err != nil {
		log.Error().Err(err).Float64("lat", coords.Lat).Float64("lon", coords.Lon).Msg("reverse geocode call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.reverseGeocode"}
	}
	if address == "" {
		return Result{
			Response:    fmt.Sprintf("I couldn't find an address for coordinates %.4f, %.4f.", coords.Lat, coords.Lon),
			ResultCount: 0,
			ToolUsed:    "maps.reverseGeocode",
		}
	}

	return Result{
		Response:    fmt.Sprintf("Coordinates: %.4f, %.4f\nAddress: %s", coords.Lat, coords.Lon, address),
		ResultCount: 1,
		ToolUsed:    "maps.reverseGeocode",
	}
}

func (o *Orchestrator) staticMap(ctx context.Context, it *models.Intent, message string, uctx *models.UserContext) Result {
	center := o.resolveSearchLocation(ctx, it, message, uctx)
	url := o.maps.StaticMapURL(center, staticMapZoom, 600, 400, []models.LatLon{center})

	label := it.LocationValue
	if label == "" {
		label = fmt.Sprintf("%.4f, %.4f", center.Lat, center.Lon)
	}
	return Result{
		Response:    fmt.Sprintf("Here's a map of %s: %s", label, url),
		ResultCount: 1,
		ToolUsed:    "maps.staticMap",
	}
}
