package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/gulguluu/travel-agent/internal/httpkit"
)

// osrmProfiles maps the tool's mode argument to OSRM routing profiles.
var osrmProfiles = map[string]string{
	"driving": "driving",
	"walking": "walking",
	"cycling": "cycling",
}

func (r *Registry) registerTransitTools() {
	r.Register(&Tool{
		Name:        "route_estimate",
		Description: "Estimate distance and travel time between two places by car, foot, or bicycle.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"from_place": map[string]any{
					"type":        "string",
					"description": "Starting place name or 'lat,lon'",
				},
				"to_place": map[string]any{
					"type":        "string",
					"description": "Destination place name or 'lat,lon'",
				},
				"mode": map[string]any{
					"type":        "string",
					"description": "Travel mode: 'driving' (default), 'walking', or 'cycling'",
				},
			},
			"required": []string{"from_place", "to_place"},
		},
		Handler: r.handleRouteEstimate,
	})

	r.Register(&Tool{
		Name:        "transit_journeys",
		Description: "Find public transport options between two places using a web search. Best for trains and intercity buses.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"from_place": map[string]any{
					"type":        "string",
					"description": "Starting city or station",
				},
				"to_place": map[string]any{
					"type":        "string",
					"description": "Destination city or station",
				},
				"datetime_iso": map[string]any{
					"type":        "string",
					"description": "Optional departure time, e.g. '2026-09-01T09:00:00'",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum results (default 3)",
				},
			},
			"required": []string{"from_place", "to_place"},
		},
		Handler: r.handleTransitJourneys,
	})
}

func (r *Registry) handleRouteEstimate(ctx context.Context, args map[string]any) (any, error) {
	fromPlace := stringArg(args, "from_place")
	toPlace := stringArg(args, "to_place")
	if fromPlace == "" || toPlace == "" {
		return nil, fmt.Errorf("from_place and to_place are required")
	}

	profile, ok := osrmProfiles[stringArg(args, "mode")]
	if !ok {
		profile = "driving"
	}

	fromLat, fromLon, err := r.resolveCoords(ctx, fromPlace)
	if err != nil {
		return errorPayload("could not geocode '%s'", fromPlace), nil
	}
	toLat, toLon, err := r.resolveCoords(ctx, toPlace)
	if err != nil {
		return errorPayload("could not geocode '%s'", toPlace), nil
	}

	route, err := r.osrmRoute(ctx, profile, fromLat, fromLon, toLat, toLon)
	if err != nil {
		return errorPayload("route calculation failed: %v", err), nil
	}
	if route == nil {
		return errorPayload("no route found"), nil
	}

	route["from_place"] = fromPlace
	route["to_place"] = toPlace
	route["from_coords"] = []float64{fromLat, fromLon}
	route["to_coords"] = []float64{toLat, toLon}
	return route, nil
}

// osrmRoute queries the OSRM routing API for a single route. A nil
// result with a nil error means OSRM found no route at all.
func (r *Registry) osrmRoute(ctx context.Context, profile string, fromLat, fromLon, toLat, toLon float64) (map[string]any, error) {
	// OSRM takes lon,lat pairs.
	endpoint := fmt.Sprintf("%s/route/v1/%s/%g,%g;%g,%g",
		r.osrmURL, profile, fromLon, fromLat, toLon, toLat)

	q := url.Values{}
	q.Set("overview", "false")
	q.Set("alternatives", "false")
	q.Set("steps", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing API returned status %d", resp.StatusCode)
	}

	var body struct {
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	if len(body.Routes) == 0 {
		return nil, nil
	}

	rt := body.Routes[0]
	return map[string]any{
		"mode":         profile,
		"distance_km":  math.Round(rt.Distance/1000*100) / 100,
		"duration_min": math.Round(rt.Duration/60*10) / 10,
	}, nil
}

func (r *Registry) handleTransitJourneys(ctx context.Context, args map[string]any) (any, error) {
	fromPlace := stringArg(args, "from_place")
	toPlace := stringArg(args, "to_place")
	if fromPlace == "" || toPlace == "" {
		return nil, fmt.Errorf("from_place and to_place are required")
	}
	datetimeISO := stringArg(args, "datetime_iso")
	maxResults := intArg(args, "max_results", 3)

	query := fmt.Sprintf("train bus public transport %s to %s", fromPlace, toPlace)
	if datetimeISO != "" {
		// A date hint makes schedule pages rank higher. Ignore
		// unparseable timestamps rather than failing the search.
		if t, err := time.Parse("2006-01-02T15:04:05", datetimeISO); err == nil {
			query += " " + t.Format("January 02, 2006")
		} else if t, err := time.Parse("2006-01-02", datetimeISO); err == nil {
			query += " " + t.Format("January 02, 2006")
		}
	}

	if r.search == nil || !r.search.Configured() {
		return errorPayload("web search not configured"), nil
	}

	results, err := r.search.Search(ctx, query, searchOptions(maxResults))
	if err != nil {
		return map[string]any{
			"error":        fmt.Sprintf("transit search failed: %v", err),
			"search_query": query,
		}, nil
	}

	items := make([]map[string]any, 0, len(results))
	for _, res := range results {
		items = append(items, map[string]any{
			"title":   res.Title,
			"url":     res.URL,
			"snippet": res.Snippet,
		})
	}

	return map[string]any{
		"search_query":    query,
		"transit_results": items,
		"from_place":      fromPlace,
		"to_place":        toPlace,
		"datetime":        datetimeISO,
	}, nil
}
