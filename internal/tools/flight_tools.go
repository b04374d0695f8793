package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/gulguluu/travel-agent/internal/dates"
	"github.com/gulguluu/travel-agent/internal/snapshot"
)

const flightAnalysisPrompt = `Analyze this Google Flights screenshot and extract the flight options in JSON format. For each flight include: airline, departure time, arrival time, duration, number of stops, and price. Return clean JSON only, no markdown formatting.`

func (r *Registry) registerFlightTools() {
	r.Register(&Tool{
		Name:        "search_flights",
		Description: "Search for flights between two airports. Captures a live Google Flights results page and extracts flight options with a vision model.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"origin": map[string]any{
					"type":        "string",
					"description": "Origin airport code (e.g., 'SFO')",
				},
				"destination": map[string]any{
					"type":        "string",
					"description": "Destination airport code (e.g., 'JFK')",
				},
				"departure_date": map[string]any{
					"type":        "string",
					"description": "Departure date in YYYY-MM-DD format",
				},
				"return_date": map[string]any{
					"type":        "string",
					"description": "Return date in YYYY-MM-DD format (optional, omit for one-way)",
				},
			},
			"required": []string{"origin", "destination", "departure_date"},
		},
		Handler: r.handleSearchFlights,
	})
}

// buildFlightURL builds the Google Flights query URL the renderer
// loads. Google parses the natural-language q parameter.
func buildFlightURL(origin, destination, date, returnDate string) string {
	base := fmt.Sprintf(
		"https://www.google.com/travel/flights?q=Flights%%20from%%20%s%%20to%%20%s%%20on%%20%s",
		strings.ToUpper(origin), strings.ToUpper(destination), date,
	)
	if returnDate != "" {
		base += "%20returning%20" + returnDate
	}
	return base
}

func (r *Registry) handleSearchFlights(ctx context.Context, args map[string]any) (any, error) {
	origin := stringArg(args, "origin")
	destination := stringArg(args, "destination")
	departureDate := stringArg(args, "departure_date")
	returnDate := stringArg(args, "return_date")

	if origin == "" || destination == "" || departureDate == "" {
		return nil, fmt.Errorf("origin, destination, and departure_date are required")
	}
	if _, err := dates.ParseISO(departureDate); err != nil {
		return errorPayload("Date must be in YYYY-MM-DD format"), nil
	}
	if returnDate != "" {
		if _, err := dates.ParseISO(returnDate); err != nil {
			return errorPayload("Date must be in YYYY-MM-DD format"), nil
		}
	}

	pageURL := buildFlightURL(origin, destination, departureDate, returnDate)
	capture, analysis, errPayload := r.captureAndAnalyze(ctx, pageURL, flightAnalysisPrompt, "flight")
	if errPayload != nil {
		return errPayload, nil
	}

	result := map[string]any{
		"success":           true,
		"url":               pageURL,
		"origin":            strings.ToUpper(origin),
		"destination":       strings.ToUpper(destination),
		"departure_date":    departureDate,
		"analysis":          analysis,
		"screenshot_base64": capture.ImageBase64,
	}
	if returnDate != "" {
		result["return_date"] = returnDate
	}
	return result, nil
}

// captureAndAnalyze renders a travel results page and runs the vision
// model over the screenshot. Failures come back as an error payload so
// the caller can return them as tool data.
func (r *Registry) captureAndAnalyze(ctx context.Context, pageURL, prompt, kind string) (*snapshot.Capture, string, map[string]any) {
	if r.snapshot == nil || !r.snapshot.Configured() {
		return nil, "", errorPayload("screenshot service not configured for %s search", kind)
	}
	if r.llm == nil {
		return nil, "", errorPayload("vision model not configured for %s analysis", kind)
	}

	capture, err := r.snapshot.Render(ctx, snapshot.Request{
		URL:        pageURL,
		WaitMillis: 15000,
		FullPage:   true,
	})
	if err != nil {
		r.logger.Warn("screenshot capture failed", "kind", kind, "url", pageURL, "error", err)
		return nil, "", errorPayload("Failed to capture %s screenshot: %v", kind, err)
	}

	resp, err := r.llm.AnalyzeImage(ctx, capture.ImageBase64, prompt)
	if err != nil {
		r.logger.Warn("vision analysis failed", "kind", kind, "error", err)
		return nil, "", errorPayload("%s analysis failed: %v", kind, err)
	}

	return capture, strings.TrimSpace(resp.Message.Content), nil
}
