package tools

import (
	"context"
	"fmt"

	"github.com/gulguluu/travel-agent/internal/llm"
)

const travelAdvicePrompt = `You are an experienced travel consultant. Give practical, specific travel advice: concrete recommendations, realistic costs, seasonal considerations, and local customs worth knowing. Keep answers focused on the traveler's question.`

const itineraryPrompt = `You are a travel planner assembling a final itinerary. Using the original request and the tool outputs provided, produce a structured day-by-day itinerary with flights, accommodation, activities, local transport, and estimated costs. Flag any gaps where information was unavailable. Be concrete; do not invent prices or times that contradict the tool outputs.`

func (r *Registry) registerAdviceTools() {
	r.Register(&Tool{
		Name:        "travel_advice",
		Description: "Get travel tips, recommendations, and guidance for a destination or situation.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The travel question",
				},
				"context": map[string]any{
					"type":        "string",
					"description": "Optional extra context (traveler profile, constraints)",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.handleTravelAdvice,
	})

	r.Register(&Tool{
		Name:        "create_itinerary",
		Description: "Synthesize the outputs of other tools into a structured travel itinerary. Call this last, after flights, hotels, and activities have been researched.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The original travel request",
				},
				"tool_outputs": map[string]any{
					"type":        "string",
					"description": "The collected outputs from earlier tool calls",
				},
			},
			"required": []string{"query", "tool_outputs"},
		},
		Handler: r.handleCreateItinerary,
	})
}

func (r *Registry) handleTravelAdvice(ctx context.Context, args map[string]any) (any, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, errRequired("query")
	}
	if r.llm == nil {
		return errorPayload("chat model not configured; set OPENROUTER_API_KEY or OPENAI_API_KEY"), nil
	}

	userPrompt := "Travel query: " + query
	if extra := stringArg(args, "context"); extra != "" {
		userPrompt += "\nAdditional context: " + extra
	}

	resp, err := r.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: travelAdvicePrompt},
		{Role: "user", Content: userPrompt},
	}, nil)
	if err != nil {
		return errorPayload("travel advice failed: %v", err), nil
	}

	return map[string]any{
		"advice": resp.Message.Content,
		"model":  r.llm.Model(),
	}, nil
}

func (r *Registry) handleCreateItinerary(ctx context.Context, args map[string]any) (any, error) {
	query := stringArg(args, "query")
	toolOutputs := stringArg(args, "tool_outputs")
	if query == "" || toolOutputs == "" {
		return nil, fmt.Errorf("query and tool_outputs are required")
	}
	if r.llm == nil {
		return errorPayload("chat model not configured; set OPENROUTER_API_KEY or OPENAI_API_KEY"), nil
	}

	userPrompt := fmt.Sprintf("Original user query: '%s'\n\nTool outputs:\n%s", query, toolOutputs)

	resp, err := r.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: itineraryPrompt},
		{Role: "user", Content: userPrompt},
	}, nil)
	if err != nil {
		return errorPayload("failed to create itinerary: %v", err), nil
	}

	return map[string]any{"itinerary": resp.Message.Content}, nil
}
