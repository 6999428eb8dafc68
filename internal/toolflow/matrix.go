package toolflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/rs/zerolog/log"
)

// Matrix runs the geocode-then-matrix workflow: extract 2+ locations with
// the ordered extractor chain, geocode them all concurrently, drop the
// ones that cannot be located (non-fatal while at least two remain), then
// make one matrix call and render the square travel-time table.
func (o *Orchestrator) Matrix(ctx context.Context, userID, text string) Result {
	locations := extractLocations(text)
	if len(locations) < 2 {
		return Result{Response: msgMatrixClarify, ResultCount: -1, ToolUsed: "maps.matrix"}
	}

	resolved := o.geocodeAll(ctx, locations)

	var (
		names   []string
		points  []models.LatLon
		dropped []string
	)
	for _, g := range resolved {
		if g.err != nil {
			log.Error().Err(g.err).Str("address", g.text).Msg("geocode call failed")
			return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.matrix"}
		}
		if g.result == nil {
			log.Warn().Str("address", g.text).Msg("dropping location that failed to geocode")
			dropped = append(dropped, g.text)
			continue
		}
		names = append(names, g.text)
		points = append(points, g.result.Coordinates)
	}

	if len(points) < 2 {
		return Result{
			Response:    "I couldn't locate enough of those places to build a travel-time table. Please check the names and try again.",
			ResultCount: 0,
			ToolUsed:    "maps.matrix",
		}
	}

	matrix, err := o.maps.Matrix(ctx, points)
	if err != nil {
		log.Error().Err(err).Int("points", len(points)).Msg("matrix call failed")
		return Result{Response: msgToolFailure, ResultCount: -1, ToolUsed: "maps.matrix"}
	}

	response := renderMatrix(names, matrix)
	if len(dropped) > 0 {
		response += fmt.Sprintf("\n\nNote: I couldn't locate %s.", strings.Join(dropped, ", "))
	}
	return Result{Response: response, ResultCount: len(points), ToolUsed: "maps.matrix"}
}

// renderMatrix draws the square table of pairwise travel times. The
// diagonal carries "-" and unreachable pairs carry "N/A".
func renderMatrix(names []string, matrix [][]int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Travel times between %s:\n\n", strings.Join(names, ", "))

	b.WriteString("| From \\ To |")
	for _, name := range names {
		fmt.Fprintf(&b, " %s |", name)
	}
	b.WriteString("\n")

	for i, name := range names {
		fmt.Fprintf(&b, "| %s |", name)
		for j := range names {
			switch {
			case i == j:
				b.WriteString(" - |")
			case i >= len(matrix) || j >= len(matrix[i]) || matrix[i][j] < 0:
				b.WriteString(" N/A |")
			default:
				fmt.Fprintf(&b, " %d min |", matrix[i][j]/60)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
