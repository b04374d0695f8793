package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gulguluu/travel-agent/internal/httpkit"
)

func (r *Registry) registerWeatherTools() {
	r.Register(&Tool{
		Name:        "weather_forecast",
		Description: "Get a daily weather forecast for a place name or 'lat,lon' coordinates. Returns weather codes, min/max temperatures, and precipitation per day.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"place_or_latlon": map[string]any{
					"type":        "string",
					"description": "Place name or 'lat,lon' coordinates",
				},
				"days": map[string]any{
					"type":        "integer",
					"description": "Forecast length in days (1-14, default 7)",
				},
			},
			"required": []string{"place_or_latlon"},
		},
		Handler: r.handleWeatherForecast,
	})
}

func (r *Registry) handleWeatherForecast(ctx context.Context, args map[string]any) (any, error) {
	place := stringArg(args, "place_or_latlon")
	if place == "" {
		return nil, errRequired("place_or_latlon")
	}
	days := intArg(args, "days", 7)
	if days < 1 {
		days = 1
	}
	if days > 14 {
		days = 14
	}

	lat, lon, err := r.resolveCoords(ctx, place)
	if err != nil {
		return errorPayload("could not geocode '%s'", place), nil
	}

	forecast, err := r.weatherDaily(ctx, lat, lon, days)
	if err != nil {
		r.logger.Warn("weather lookup failed", "place", place, "error", err)
		return errorPayload("weather lookup failed: %v", err), nil
	}
	return forecast, nil
}

// weatherDaily queries the Open-Meteo daily forecast endpoint and
// returns its decoded response unchanged.
func (r *Registry) weatherDaily(ctx context.Context, lat, lon float64, days int) (map[string]any, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", lat))
	q.Set("longitude", fmt.Sprintf("%g", lon))
	q.Set("daily", "weathercode,temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("forecast_days", fmt.Sprintf("%d", days))
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.weatherURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast API returned status %d", resp.StatusCode)
	}

	var forecast map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return forecast, nil
}
