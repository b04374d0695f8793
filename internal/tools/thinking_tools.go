package tools

import (
	"context"

	"github.com/gulguluu/travel-agent/internal/thoughts"
)

func (r *Registry) registerThinkingTools() {
	r.Register(&Tool{
		Name:        "sequential_thinking",
		Description: "Work through a problem step by step. Supports revising earlier thoughts and branching into alternatives. Each call records one thought.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thought": map[string]any{
					"type":        "string",
					"description": "The current thinking step",
				},
				"thoughtNumber": map[string]any{
					"type":        "integer",
					"description": "Current thought number, starting at 1",
				},
				"totalThoughts": map[string]any{
					"type":        "integer",
					"description": "Estimated total thoughts needed",
				},
				"nextThoughtNeeded": map[string]any{
					"type":        "boolean",
					"description": "Whether another thought follows this one",
				},
				"isRevision": map[string]any{
					"type":        "boolean",
					"description": "Whether this revises a previous thought",
				},
				"revisesThought": map[string]any{
					"type":        "integer",
					"description": "Which thought number is being revised",
				},
				"branchFromThought": map[string]any{
					"type":        "integer",
					"description": "Thought number to branch from",
				},
				"branchId": map[string]any{
					"type":        "string",
					"description": "Identifier for the branch",
				},
				"needsMoreThoughts": map[string]any{
					"type":        "boolean",
					"description": "Whether more thoughts than estimated are needed",
				},
			},
			"required": []string{"thought", "thoughtNumber", "totalThoughts", "nextThoughtNeeded"},
		},
		Handler: r.handleSequentialThinking,
	})

	r.Register(&Tool{
		Name:        "think",
		Description: "Record a single reasoning step without the full sequential-thinking bookkeeping.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thought": map[string]any{
					"type":        "string",
					"description": "The thought to record",
				},
			},
			"required": []string{"thought"},
		},
		Handler: r.handleThink,
	})

	r.Register(&Tool{
		Name:        "create_plan",
		Description: "Generate a step-by-step plan for a travel objective, marking which steps can run in parallel.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"objective": map[string]any{
					"type":        "string",
					"description": "What to accomplish",
				},
				"available_tools": map[string]any{
					"type":        "array",
					"description": "Tool names available for the plan",
					"items":       map[string]any{"type": "string"},
				},
			},
			"required": []string{"objective"},
		},
		Handler: r.handleCreatePlan,
	})

	r.Register(&Tool{
		Name:        "verify_plan_progress",
		Description: "Check progress against a plan: which steps are done, what information is still missing, and what to do next.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"plan": map[string]any{
					"type":        "object",
					"description": "The plan returned by create_plan",
				},
				"completed_steps": map[string]any{
					"type":        "array",
					"description": "Step numbers already completed",
					"items":       map[string]any{"type": "integer"},
				},
				"current_info": map[string]any{
					"type":        "object",
					"description": "Information gathered so far (destination, dates, search_results, ...)",
				},
			},
			"required": []string{"plan"},
		},
		Handler: r.handleVerifyPlanProgress,
	})
}

func (r *Registry) handleSequentialThinking(ctx context.Context, args map[string]any) (any, error) {
	thought := stringArg(args, "thought")
	if thought == "" {
		return nil, errRequired("thought")
	}

	t := thoughts.Thought{
		Thought:           thought,
		ThoughtNumber:     intArg(args, "thoughtNumber", 1),
		TotalThoughts:     intArg(args, "totalThoughts", 1),
		NextThoughtNeeded: boolArg(args, "nextThoughtNeeded"),
		IsRevision:        boolArg(args, "isRevision"),
		RevisesThought:    intArg(args, "revisesThought", 0),
		BranchFromThought: intArg(args, "branchFromThought", 0),
		BranchID:          stringArg(args, "branchId"),
		NeedsMoreThoughts: boolArg(args, "needsMoreThoughts"),
	}

	return r.thoughts.Record(t), nil
}

func (r *Registry) handleThink(ctx context.Context, args map[string]any) (any, error) {
	thought := stringArg(args, "thought")
	if thought == "" {
		return nil, errRequired("thought")
	}
	return r.thoughts.Think(thought), nil
}

func (r *Registry) handleCreatePlan(ctx context.Context, args map[string]any) (any, error) {
	objective := stringArg(args, "objective")
	if objective == "" {
		return nil, errRequired("objective")
	}

	available := toStrings(args["available_tools"])
	if available == nil {
		available = r.Names()
	}

	return thoughts.CreatePlan(objective, available), nil
}

func (r *Registry) handleVerifyPlanProgress(ctx context.Context, args map[string]any) (any, error) {
	planMap := mapArg(args, "plan")
	if planMap == nil {
		return nil, errRequired("plan")
	}

	plan := decodePlan(planMap)
	completed := toInts(args["completed_steps"])
	currentInfo := mapArg(args, "current_info")

	return thoughts.VerifyProgress(plan, completed, currentInfo), nil
}

// decodePlan rebuilds a Plan from the loosely-typed map a model sends
// back. Only the fields progress verification needs are recovered.
func decodePlan(m map[string]any) *thoughts.Plan {
	plan := &thoughts.Plan{
		Objective: stringArg(m, "objective"),
	}

	steps, _ := m["plan"].([]any)
	for _, raw := range steps {
		sm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		plan.Steps = append(plan.Steps, thoughts.PlanStep{
			Step:        intArg(sm, "step", 0),
			Action:      stringArg(sm, "action"),
			Description: stringArg(sm, "description"),
			ToolsNeeded: toStrings(sm["tools_needed"]),
			Parallel:    boolArg(sm, "parallel"),
		})
	}
	plan.TotalSteps = len(plan.Steps)
	return plan
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toInts(v any) []int {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		if f, ok := item.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
