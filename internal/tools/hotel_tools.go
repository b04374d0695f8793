package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gulguluu/travel-agent/internal/dates"
)

const hotelAnalysisPrompt = `Analyze this Google Hotels screenshot and extract the hotel options in JSON format. For each hotel include: name, rating, price per night, location or neighborhood, and notable amenities. Return clean JSON only, no markdown formatting.`

func (r *Registry) registerHotelTools() {
	r.Register(&Tool{
		Name:        "search_hotels",
		Description: "Search for hotels in a destination for given dates. Captures a live Google Hotels results page and extracts hotel options with a vision model.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"destination": map[string]any{
					"type":        "string",
					"description": "City or area to search (e.g., 'Kyoto', 'Paris city center')",
				},
				"checkin_date": map[string]any{
					"type":        "string",
					"description": "Check-in date in YYYY-MM-DD format",
				},
				"checkout_date": map[string]any{
					"type":        "string",
					"description": "Check-out date in YYYY-MM-DD format",
				},
				"guests": map[string]any{
					"type":        "integer",
					"description": "Number of guests (default 2)",
				},
				"rooms": map[string]any{
					"type":        "integer",
					"description": "Number of rooms (default 1)",
				},
			},
			"required": []string{"destination", "checkin_date", "checkout_date"},
		},
		Handler: r.handleSearchHotels,
	})
}

// buildHotelURL builds the Google Hotels query URL. hl=en pins the
// results language so the vision model sees consistent pages.
func buildHotelURL(destination, checkin, checkout string, guests, rooms int) string {
	encoded := url.QueryEscape(destination)
	params := fmt.Sprintf("q=Hotels%%20in%%20%s%%20checkin%%20%s%%20checkout%%20%s",
		encoded, checkin, checkout)
	if guests != 2 || rooms != 1 {
		params += fmt.Sprintf("%%20%d%%20guests%%20%d%%20rooms", guests, rooms)
	}
	return "https://www.google.com/travel/hotels?" + params + "&hl=en"
}

func (r *Registry) handleSearchHotels(ctx context.Context, args map[string]any) (any, error) {
	destination := stringArg(args, "destination")
	checkinDate := stringArg(args, "checkin_date")
	checkoutDate := stringArg(args, "checkout_date")
	guests := intArg(args, "guests", 2)
	rooms := intArg(args, "rooms", 1)

	if destination == "" || checkinDate == "" || checkoutDate == "" {
		return nil, fmt.Errorf("destination, checkin_date, and checkout_date are required")
	}

	checkin, err := dates.ParseISO(checkinDate)
	if err != nil {
		return errorPayload("Date must be in YYYY-MM-DD format"), nil
	}
	checkout, err := dates.ParseISO(checkoutDate)
	if err != nil {
		return errorPayload("Date must be in YYYY-MM-DD format"), nil
	}
	if !checkout.After(checkin) {
		return errorPayload("Checkout date must be after checkin date"), nil
	}
	nights := int(checkout.Sub(checkin).Hours() / 24)

	pageURL := buildHotelURL(destination, checkinDate, checkoutDate, guests, rooms)
	capture, analysis, errPayload := r.captureAndAnalyze(ctx, pageURL, hotelAnalysisPrompt, "hotel")
	if errPayload != nil {
		return errPayload, nil
	}

	return map[string]any{
		"success":           true,
		"url":               pageURL,
		"destination":       strings.TrimSpace(destination),
		"checkin_date":      checkinDate,
		"checkout_date":     checkoutDate,
		"nights":            nights,
		"guests":            guests,
		"rooms":             rooms,
		"analysis":          analysis,
		"screenshot_base64": capture.ImageBase64,
	}, nil
}
