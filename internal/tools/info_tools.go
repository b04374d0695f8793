package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gulguluu/travel-agent/internal/httpkit"
)

func (r *Registry) registerInfoTools() {
	r.Register(&Tool{
		Name:        "wiki_summary",
		Description: "Get a Wikipedia summary for a destination, landmark, or topic. Falls back to geocoding the name if no article matches directly.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title_or_place": map[string]any{
					"type":        "string",
					"description": "Article title or place name",
				},
			},
			"required": []string{"title_or_place"},
		},
		Handler: r.handleWikiSummary,
	})

	r.Register(&Tool{
		Name:        "currency_convert",
		Description: "Convert an amount between currencies using current exchange rates.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"amount": map[string]any{
					"type":        "number",
					"description": "Amount to convert",
				},
				"from_code": map[string]any{
					"type":        "string",
					"description": "Source currency code (e.g., USD)",
				},
				"to_code": map[string]any{
					"type":        "string",
					"description": "Target currency code (e.g., JPY)",
				},
			},
			"required": []string{"amount", "from_code", "to_code"},
		},
		Handler: r.handleCurrencyConvert,
	})
}

func (r *Registry) handleWikiSummary(ctx context.Context, args map[string]any) (any, error) {
	title := stringArg(args, "title_or_place")
	if title == "" {
		return nil, errRequired("title_or_place")
	}

	if summary := r.wikiSummary(ctx, title); summary != nil {
		return summary, nil
	}

	// No direct article. Geocode the name and retry with the canonical
	// place name, which often differs from what the user typed.
	if place, err := r.geo.Geocode(ctx, title); err == nil && place.Name != "" {
		if summary := r.wikiSummary(ctx, place.Name); summary != nil {
			return summary, nil
		}
	}

	return errorPayload("no summary for '%s'", title), nil
}

func (r *Registry) wikiSummary(ctx context.Context, title string) map[string]any {
	safe := strings.ReplaceAll(title, " ", "_")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.wikiURL+"/"+url.PathEscape(safe), nil)
	if err != nil {
		return nil
	}

	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Warn("wikipedia lookup failed", "title", title, "error", err)
		return nil
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var page struct {
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		Description string `json:"description"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil
	}

	return map[string]any{
		"title":       page.Title,
		"extract":     page.Extract,
		"description": page.Description,
		"url":         page.ContentURLs.Desktop.Page,
	}
}

func (r *Registry) handleCurrencyConvert(ctx context.Context, args map[string]any) (any, error) {
	amount := floatArg(args, "amount", 0)
	from := strings.ToUpper(stringArg(args, "from_code"))
	to := strings.ToUpper(stringArg(args, "to_code"))
	if from == "" || to == "" {
		return nil, fmt.Errorf("from_code and to_code are required")
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("amount", fmt.Sprintf("%g", amount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.currencyURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return errorPayload("currency conversion failed: %v", err), nil
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return errorPayload("exchange rate API returned status %d", resp.StatusCode), nil
	}

	var body struct {
		Result *float64 `json:"result"`
		Info   struct {
			Rate *float64 `json:"rate"`
		} `json:"info"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errorPayload("decode exchange rate response: %v", err), nil
	}

	out := map[string]any{
		"query": map[string]any{
			"amount": amount,
			"from":   from,
			"to":     to,
		},
		"result": nil,
		"info":   map[string]any{"rate": nil},
	}
	if body.Result != nil {
		out["result"] = *body.Result
	}
	if body.Info.Rate != nil {
		out["info"] = map[string]any{"rate": *body.Info.Rate}
	}
	return out, nil
}
