package toolflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/rs/zerolog/log"
)

// Directions runs the geocode-then-route workflow: parse "from X to Y",
// substitute contextual references, geocode both endpoints concurrently,
// then compute the route. On success the destination becomes the user's
// new last-known location.
func (o *Orchestrator) Directions(ctx context.Context, userID, text string) Result {
	originText, destText, ok := extractFromTo(text)
	if !ok {
		return Result{Response: msgDirectionsClarify, ResultCount: -1, ToolUsed: "maps.directions"}
	}

	uctx, err := o.store.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("context read failed")
		uctx = models.NewUserContext(userID)
	}

	origin, originCoords, ok := resolveEndpoint(originText, uctx)
	if !ok {
		return Result{Response: msgNoPriorLocation, ResultCount: -1, ToolUsed: "maps.directions"}
	}
	dest, destCoords, ok := resolveEndpoint(destText, uctx)
	if !ok {
		return Result{Response: msgNoPriorLocation, ResultCount: -1, ToolUsed: "maps.directions"}
	}

	// Geocode whichever endpoints still need it, concurrently.
	var pending []string
	if originCoords == nil {
		pending = append(pending, origin)
	}
	if destCoords == nil {
		pending = append(pending, dest)
	}
	resolved := o.geocodeAll(ctx, pending)

	for _, g := range resolved {
		if g.err != nil {
			log.Error().Err(g.err).Str("address", g.text).Msg("geocode call failed")
			return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.directions"}
		}
	}

	i := 0
	if originCoords == nil {
		if resolved[i].result == nil {
			return Result{
				Response:    fmt.Sprintf("I couldn't find a place called %q. Please check the origin address and try again.", origin),
				ResultCount: 0,
				ToolUsed:    "maps.directions",
			}
		}
		originCoords = &resolved[i].result.Coordinates
		i++
	}
	if destCoords == nil {
		if resolved[i].result == nil {
			return Result{
				Response:    fmt.Sprintf("I couldn't find a place called %q. Please check the destination address and try again.", dest),
				ResultCount: 0,
				ToolUsed:    "maps.directions",
			}
		}
		destCoords = &resolved[i].result.Coordinates
	}

	route, err := o.maps.Route(ctx, *originCoords, *destCoords)
	if err != nil {
		if errors.Is(err, models.ErrRouteNotFound) {
			return Result{Response: msgNoRoute, ResultCount: 0, ToolUsed: "maps.directions"}
		}
		log.Error().Err(err).Str("origin", origin).Str("destination", dest).Msg("route call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.directions"}
	}

	o.updateLastLocation(ctx, userID, dest, *destCoords)

	response := fmt.Sprintf("Directions from %s to %s:\nDistance: %.1f km\nDuration: %d minutes",
		origin, dest,
		float64(route.DistanceMeters)/1000.0,
		route.TravelTimeSeconds/60)
	return Result{Response: response, ResultCount: 1, ToolUsed: "maps.directions"}
}
