package tools

import (
	"context"
	"fmt"
)

func (r *Registry) registerAdminTools() {
	r.Register(&Tool{
		Name:        "verify_travel_plan",
		Description: "Check a travel plan for missing flights, accommodations, or itinerary entries before presenting it.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"travel_plan": map[string]any{
					"type":        "object",
					"description": "The plan to verify, with 'flights', 'accommodations', and 'itinerary' lists",
				},
			},
			"required": []string{"travel_plan"},
		},
		Handler: r.handleVerifyTravelPlan,
	})

	r.Register(&Tool{
		Name:        "discover_mcp_tools",
		Description: "List the remote MCP servers this workspace is configured to use and their status.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleDiscoverMCPTools,
	})

	r.Register(&Tool{
		Name:        "manage_workspace_config",
		Description: "Read or update the workspace travel configuration (.travel_agent/config.json).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{
					"type":        "string",
					"description": "'get' (default) or 'update'",
				},
				"updates": map[string]any{
					"type":        "object",
					"description": "Config fields to change when action is 'update'",
				},
			},
		},
		Handler: r.handleManageWorkspaceConfig,
	})
}

func (r *Registry) handleVerifyTravelPlan(ctx context.Context, args map[string]any) (any, error) {
	plan := mapArg(args, "travel_plan")
	if plan == nil {
		return nil, errRequired("travel_plan")
	}

	var issues, warnings []string

	flights, _ := plan["flights"].([]any)
	if len(flights) == 0 {
		warnings = append(warnings, "No flights found in travel plan")
	}
	for i, raw := range flights {
		flight, _ := raw.(map[string]any)
		if stringArg(flight, "departure") == "" || stringArg(flight, "arrival") == "" {
			issues = append(issues, fmt.Sprintf("Flight %d: Missing departure or arrival", i+1))
		}
		if stringArg(flight, "date") == "" {
			issues = append(issues, fmt.Sprintf("Flight %d: Missing date", i+1))
		}
	}

	accommodations, _ := plan["accommodations"].([]any)
	if len(accommodations) == 0 {
		warnings = append(warnings, "No accommodations found")
	}
	for i, raw := range accommodations {
		hotel, _ := raw.(map[string]any)
		if stringArg(hotel, "name") == "" || stringArg(hotel, "location") == "" {
			issues = append(issues, fmt.Sprintf("Hotel %d: Missing name or location", i+1))
		}
	}

	if itinerary, _ := plan["itinerary"].([]any); len(itinerary) == 0 {
		warnings = append(warnings, "No itinerary found")
	}

	status := "passed"
	switch {
	case len(issues) > 0:
		status = "failed"
	case len(warnings) > 0:
		status = "warning"
	}

	return map[string]any{
		"status":   status,
		"issues":   emptyIfNil(issues),
		"warnings": emptyIfNil(warnings),
		"summary": fmt.Sprintf("Verification %s: %d issues, %d warnings",
			status, len(issues), len(warnings)),
	}, nil
}

func (r *Registry) handleDiscoverMCPTools(ctx context.Context, args map[string]any) (any, error) {
	if r.workspace == nil {
		return errorPayload("workspace not configured"), nil
	}

	servers := r.workspace.Config().MCPServers
	discovered := make(map[string]any)

	for name, server := range servers {
		if !server.Enabled {
			continue
		}
		switch {
		case server.Transport == "http" && server.URL != "":
			discovered[name] = map[string]any{
				"status":    "configured",
				"url":       server.URL,
				"transport": "http",
			}
		case server.Transport == "http":
			discovered[name] = map[string]any{
				"status": "error",
				"error":  "No URL configured",
			}
		default:
			discovered[name] = map[string]any{
				"status":    "unsupported",
				"transport": server.Transport,
			}
		}
	}

	return map[string]any{
		"discovered_servers": discovered,
		"total_servers":      len(servers),
	}, nil
}

func (r *Registry) handleManageWorkspaceConfig(ctx context.Context, args map[string]any) (any, error) {
	if r.workspace == nil {
		return errorPayload("workspace not configured"), nil
	}

	action := stringArg(args, "action")
	if action == "" {
		action = "get"
	}

	switch action {
	case "get":
		return map[string]any{
			"workspace_config": r.workspace.Config(),
			"config_location":  r.workspace.Path(),
		}, nil

	case "update":
		updates := mapArg(args, "updates")
		if updates == nil {
			return errorPayload("updates parameter is required for update"), nil
		}
		cfg, err := r.workspace.Update(updates)
		if err != nil {
			return errorPayload("failed to update workspace config: %v", err), nil
		}
		return map[string]any{
			"success":        true,
			"message":        "Workspace configuration updated",
			"updated_config": cfg,
		}, nil
	}

	return errorPayload("invalid action %q: use 'get' or 'update'", action), nil
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
