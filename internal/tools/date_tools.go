package tools

import (
	"context"

	"github.com/gulguluu/travel-agent/internal/dates"
)

func (r *Registry) registerDateTools() {
	r.Register(&Tool{
		Name:        "get_current_date",
		Description: "Get today's date in YYYY-MM-DD format. Call this before interpreting any relative travel dates.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleGetCurrentDate,
	})

	r.Register(&Tool{
		Name:        "parse_travel_dates",
		Description: "Convert a human date like 'March 15' or '12/25' into a future YYYY-MM-DD travel date. Dates already in the past roll forward to next year.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date_text": map[string]any{
					"type":        "string",
					"description": "The date text to interpret",
				},
			},
			"required": []string{"date_text"},
		},
		Handler: r.handleParseTravelDates,
	})
}

func (r *Registry) handleGetCurrentDate(ctx context.Context, args map[string]any) (any, error) {
	return map[string]any{"current_date": dates.CurrentDate()}, nil
}

func (r *Registry) handleParseTravelDates(ctx context.Context, args map[string]any) (any, error) {
	text := stringArg(args, "date_text")
	if text == "" {
		return nil, errRequired("date_text")
	}

	inferred := dates.InferFutureDate(text)
	return map[string]any{
		"input":        text,
		"parsed_date":  inferred,
		"current_date": dates.CurrentDate(),
	}, nil
}
