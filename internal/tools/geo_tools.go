package tools

import (
	"context"

	"github.com/gulguluu/travel-agent/internal/geo"
)

func (r *Registry) registerGeoTools() {
	r.Register(&Tool{
		Name:        "geocode_place",
		Description: "Resolve a place name to coordinates and location details. Use before weather or routing when you only have a name.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Place name (e.g., 'Kyoto', 'Lisbon, Portugal')",
				},
			},
			"required": []string{"name"},
		},
		Handler: r.handleGeocodePlace,
	})
}

func (r *Registry) handleGeocodePlace(ctx context.Context, args map[string]any) (any, error) {
	name := stringArg(args, "name")
	if name == "" {
		return nil, errRequired("name")
	}

	place, err := r.geo.Geocode(ctx, name)
	if err != nil {
		r.logger.Warn("geocode failed", "name", name, "error", err)
		return errorPayload("could not geocode '%s'", name), nil
	}

	return map[string]any{
		"name":    place.Name,
		"lat":     place.Latitude,
		"lon":     place.Longitude,
		"type":    place.Type,
		"country": place.Country,
	}, nil
}

// resolveCoords turns a place name or "lat,lon" string into
// coordinates, geocoding when needed.
func (r *Registry) resolveCoords(ctx context.Context, placeOrCoords string) (lat, lon float64, err error) {
	if lat, lon, err = geo.ParseCoords(placeOrCoords); err == nil {
		return lat, lon, nil
	}
	place, gerr := r.geo.Geocode(ctx, placeOrCoords)
	if gerr != nil {
		return 0, 0, gerr
	}
	return place.Latitude, place.Longitude, nil
}
