package tools

import (
	"context"

	"github.com/gulguluu/travel-agent/internal/airports"
)

func (r *Registry) registerAirportTools() {
	r.Register(&Tool{
		Name:        "iata_lookup",
		Description: "Look up airports by IATA code, city, airport name, or country. Exact IATA codes match first.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"term": map[string]any{
					"type":        "string",
					"description": "IATA code, city, airport name, or country",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum matches to return (1-10, default 5)",
				},
			},
			"required": []string{"term"},
		},
		Handler: r.handleIATALookup,
	})

	r.Register(&Tool{
		Name:        "nearest_airports",
		Description: "Find the airports closest to a place or 'lat,lon' coordinates, sorted by distance.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"place_or_latlon": map[string]any{
					"type":        "string",
					"description": "Place name or 'lat,lon' coordinates",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum airports to return (1-10, default 5)",
				},
			},
			"required": []string{"place_or_latlon"},
		},
		Handler: r.handleNearestAirports,
	})
}

func (r *Registry) handleIATALookup(ctx context.Context, args map[string]any) (any, error) {
	term := stringArg(args, "term")
	if term == "" {
		return nil, errRequired("term")
	}
	limit := intArg(args, "limit", 5)

	matches, err := airports.Lookup(term, limit)
	if err != nil {
		return errorPayload("airport lookup failed: %v", err), nil
	}

	return map[string]any{
		"term":     term,
		"airports": matches,
		"count":    len(matches),
	}, nil
}

func (r *Registry) handleNearestAirports(ctx context.Context, args map[string]any) (any, error) {
	place := stringArg(args, "place_or_latlon")
	if place == "" {
		return nil, errRequired("place_or_latlon")
	}
	limit := intArg(args, "limit", 5)

	lat, lon, err := r.resolveCoords(ctx, place)
	if err != nil {
		return errorPayload("could not geocode '%s'", place), nil
	}

	nearby, err := airports.Nearest(lat, lon, limit)
	if err != nil {
		return errorPayload("airport lookup failed: %v", err), nil
	}

	return map[string]any{
		"place":    place,
		"lat":      lat,
		"lon":      lon,
		"airports": nearby,
		"count":    len(nearby),
	}, nil
}
