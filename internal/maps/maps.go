// Package maps is the boundary to the mapping-service collaborator. The
// control plane only depends on the Service interface; the concrete REST
// calls live behind it.
package maps

import (
	"context"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Unreachable marks a matrix cell with no route between the two points.
const Unreachable int64 = -1

// Place is one search result.
type Place struct {
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address"`
	Position         models.LatLon `json:"position"`
	Rating           float64       `json:"rating,omitempty"`
}

// GeocodeResult is a resolved address.
type GeocodeResult struct {
	Coordinates      models.LatLon `json:"coordinates"`
	FormattedAddress string        `json:"formatted_address"`
}

// RouteSummary describes one computed route.
type RouteSummary struct {
	DistanceMeters    int64 `json:"distance_meters"`
	TravelTimeSeconds int64 `json:"travel_time_seconds"`
}

// Service is the mapping-service contract. Geocode and ReverseGeocode
// return the zero result (nil / empty string) with a nil error when the
// input simply cannot be resolved; "not found" is a domain outcome, not a
// transport failure. Route reports the absence of any route as an error
// wrapping models.ErrRouteNotFound, so callers can tell it apart from a
// transport failure with errors.Is.
type Service interface {
	Search(ctx context.Context, query string, near models.LatLon, radiusMeters, limit int) ([]Place, error)
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
	ReverseGeocode(ctx context.Context, point models.LatLon) (string, error)
	Route(ctx context.Context, origin, destination models.LatLon) (*RouteSummary, error)

	// Matrix returns a square matrix of travel times in seconds between all
	// point pairs. Cells with no route carry Unreachable.
	Matrix(ctx context.Context, points []models.LatLon) ([][]int64, error)

	StaticMapURL(center models.LatLon, zoom, width, height int, markers []models.LatLon) string
}
