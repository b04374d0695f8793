package tools

import (
	"context"
	"errors"

	"github.com/gulguluu/travel-agent/internal/memory"
)

func (r *Registry) registerMemoryTools() {
	r.Register(&Tool{
		Name:        "store_travel_memory",
		Description: "Store travel preferences, trip details, or other context under a key for later sessions.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Memory key (e.g., 'tokyo_trip_2026')",
				},
				"data": map[string]any{
					"description": "The data to remember (any JSON value)",
				},
			},
			"required": []string{"key", "data"},
		},
		Handler: r.handleStoreMemory,
	})

	r.Register(&Tool{
		Name:        "retrieve_travel_memory",
		Description: "Retrieve previously stored travel memory by key.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "The memory key to retrieve",
				},
			},
			"required": []string{"key"},
		},
		Handler: r.handleRetrieveMemory,
	})

	r.Register(&Tool{
		Name:        "list_travel_memories",
		Description: "List all stored travel memories with previews, newest first.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleListMemories,
	})

	r.Register(&Tool{
		Name:        "compress_conversation",
		Description: "Compress a long conversation into a summary plus key points, keeping the opening and most recent messages intact.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"messages": map[string]any{
					"type":        "array",
					"description": "The conversation messages, each with 'role' and 'content'",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"role":    map[string]any{"type": "string"},
							"content": map[string]any{"type": "string"},
						},
					},
				},
			},
			"required": []string{"messages"},
		},
		Handler: r.handleCompressConversation,
	})

	r.Register(&Tool{
		Name:        "load_travel_context",
		Description: "Load TRAVEL_CONTEXT.md files from the workspace and home directory for standing travel context.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleLoadTravelContext,
	})

	r.Register(&Tool{
		Name:        "save_user_preferences",
		Description: "Save traveler preferences (airlines, budget range, travel style) into the workspace configuration.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"preferences": map[string]any{
					"type":        "object",
					"description": "Preference fields: preferred_airlines, budget_range {min,max}, travel_style",
				},
			},
			"required": []string{"preferences"},
		},
		Handler: r.handleSaveUserPreferences,
	})
}

func (r *Registry) handleStoreMemory(ctx context.Context, args map[string]any) (any, error) {
	key := stringArg(args, "key")
	if key == "" {
		return nil, errRequired("key")
	}
	data, ok := args["data"]
	if !ok {
		return nil, errRequired("data")
	}

	timestamp, err := r.memory.Store(key, data)
	if err != nil {
		return errorPayload("failed to store memory: %v", err), nil
	}

	return map[string]any{
		"success":   true,
		"key":       key,
		"timestamp": timestamp,
		"message":   "Memory stored: " + key,
	}, nil
}

func (r *Registry) handleRetrieveMemory(ctx context.Context, args map[string]any) (any, error) {
	key := stringArg(args, "key")
	if key == "" {
		return nil, errRequired("key")
	}

	entry, err := r.memory.Retrieve(key)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return errorPayload("%v", err), nil
		}
		return errorPayload("failed to retrieve memory: %v", err), nil
	}

	return map[string]any{
		"success":   true,
		"key":       key,
		"timestamp": entry.Timestamp,
		"data":      entry.Data,
	}, nil
}

func (r *Registry) handleListMemories(ctx context.Context, args map[string]any) (any, error) {
	summaries, err := r.memory.List()
	if err != nil {
		return errorPayload("failed to list memories: %v", err), nil
	}

	items := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, map[string]any{
			"key":       s.Key,
			"timestamp": s.Timestamp,
			"preview":   s.Preview,
		})
	}

	return map[string]any{
		"memories": items,
		"count":    len(items),
	}, nil
}

func (r *Registry) handleCompressConversation(ctx context.Context, args map[string]any) (any, error) {
	raw, ok := args["messages"].([]any)
	if !ok {
		return nil, errRequired("messages")
	}

	messages := make([]memory.ConversationMessage, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		messages = append(messages, memory.ConversationMessage{
			Role:    stringArg(m, "role"),
			Content: stringArg(m, "content"),
		})
	}

	result, err := r.memory.Compress(messages)
	if err != nil {
		return errorPayload("compression failed: %v", err), nil
	}
	return result, nil
}

func (r *Registry) handleLoadTravelContext(ctx context.Context, args map[string]any) (any, error) {
	return memory.LoadContext(r.root), nil
}

func (r *Registry) handleSaveUserPreferences(ctx context.Context, args map[string]any) (any, error) {
	prefs := mapArg(args, "preferences")
	if prefs == nil {
		return nil, errRequired("preferences")
	}
	if r.workspace == nil {
		return errorPayload("workspace not configured"), nil
	}

	if _, err := r.workspace.Update(prefs); err != nil {
		return map[string]any{"success": false, "error": err.Error()}, nil
	}

	return map[string]any{
		"success":             true,
		"message":             "User preferences saved to workspace config",
		"updated_preferences": prefs,
	}, nil
}
