package tools

import (
	"context"
)

func (r *Registry) registerSearchTools() {
	r.Register(&Tool{
		Name:        "web_search",
		Description: "Search the web for travel information. Use for destination research, travel requirements, events, and anything the other tools don't cover.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results (1-10, default 5)",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.handleWebSearch,
	})
}

func (r *Registry) handleWebSearch(ctx context.Context, args map[string]any) (any, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, errRequired("query")
	}
	maxResults := intArg(args, "max_results", 5)

	if r.search == nil || !r.search.Configured() {
		return errorPayload("web search not configured"), nil
	}

	results, err := r.search.Search(ctx, query, searchOptions(maxResults))
	if err != nil {
		r.logger.Warn("web search failed", "query", query, "error", err)
		// A failed search is an empty result set, not a broken turn.
		results = nil
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
		"query":   query,
		"results": items,
		"count":   len(items),
	}, nil
}
