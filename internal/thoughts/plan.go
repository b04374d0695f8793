package thoughts

import (
	"strings"
	"time"
)

// PlanStep is one action in a generated plan.
type PlanStep struct {
	Step        int      `json:"step"`
	Action      string   `json:"action"`
	Description string   `json:"description"`
	ToolsNeeded []string `json:"tools_needed"`
	Parallel    bool     `json:"parallel"`
}

// Plan is a generated step-by-step plan for an objective.
type Plan struct {
	Success                bool       `json:"success"`
	Objective              string     `json:"objective"`
	Steps                  []PlanStep `json:"plan"`
	TotalSteps             int        `json:"total_steps"`
	EstimatedParallelSteps int        `json:"estimated_parallel_steps"`
	Timestamp              string     `json:"timestamp"`
}

// CreatePlan builds a plan for an objective. Travel objectives get the
// full research template; anything else gets a generic three-step
// analyze/execute/synthesize plan over the available tools.
func CreatePlan(objective string, availableTools []string) *Plan {
	if availableTools == nil {
		availableTools = []string{}
	}

	var steps []PlanStep
	lower := strings.ToLower(objective)
	if strings.Contains(lower, "travel") || strings.Contains(lower, "trip") {
		steps = []PlanStep{
			{
				Step:        1,
				Action:      "Assess information completeness",
				Description: "Check if we have enough details (origin, dates, travelers, preferences) or need to ask clarifying questions",
				ToolsNeeded: []string{"think"},
			},
			{
				Step:        2,
				Action:      "Get current date and parse travel dates",
				Description: "Determine today's date and convert relative dates to specific dates",
				ToolsNeeded: []string{"get_current_date", "parse_travel_dates"},
			},
			{
				Step:        3,
				Action:      "Gather core travel information",
				Description: "Search flights and hotels with available information",
				ToolsNeeded: []string{"search_flights", "search_hotels"},
				Parallel:    true,
			},
			{
				Step:        4,
				Action:      "Enhance with destination context",
				Description: "Get weather, cultural info, and practical details",
				ToolsNeeded: []string{"weather_forecast", "wiki_summary", "currency_convert"},
				Parallel:    true,
			},
			{
				Step:        5,
				Action:      "Create comprehensive itinerary",
				Description: "Synthesize all information into detailed travel plan",
				ToolsNeeded: []string{"think"},
			},
		}
	} else {
		steps = []PlanStep{
			{
				Step:        1,
				Action:      "Analyze objective",
				Description: "Break down: " + objective,
				ToolsNeeded: []string{"think"},
			},
			{
				Step:        2,
				Action:      "Execute actions",
				Description: "Use appropriate tools to gather information",
				ToolsNeeded: availableTools,
				Parallel:    true,
			},
			{
				Step:        3,
				Action:      "Synthesize results",
				Description: "Combine information into final answer",
				ToolsNeeded: []string{"think"},
			},
		}
	}

	parallel := 0
	for _, s := range steps {
		if s.Parallel {
			parallel++
		}
	}

	return &Plan{
		Success:                true,
		Objective:              objective,
		Steps:                  steps,
		TotalSteps:             len(steps),
		EstimatedParallelSteps: parallel,
		Timestamp:              time.Now().Format("2006-01-02T15:04:05"),
	}
}

// Progress is the result of checking a plan against completed steps.
type Progress struct {
	Success            bool       `json:"success"`
	ProgressPercentage float64    `json:"progress_percentage"`
	CompletedSteps     int        `json:"completed_steps"`
	TotalSteps         int        `json:"total_steps"`
	NextSteps          []PlanStep `json:"next_steps"`
	SufficientInfo     bool       `json:"sufficient_info"`
	MissingInfo        []string   `json:"missing_info"`
	CanContinue        bool       `json:"can_continue"`
	PlanComplete       bool       `json:"plan_complete"`
	Timestamp          string     `json:"timestamp"`
}

// requiredTravelInfo must be present before a travel plan can move
// past its research phase.
var requiredTravelInfo = []string{"destination", "dates", "search_results"}

// VerifyProgress checks how far through a plan the conversation is and
// whether the gathered info is enough to continue. Sequential steps
// gate the next-step list: the first incomplete non-parallel step
// blocks everything behind it.
func VerifyProgress(plan *Plan, completedSteps []int, currentInfo map[string]any) *Progress {
	if currentInfo == nil {
		currentInfo = map[string]any{}
	}

	completed := make(map[int]bool, len(completedSteps))
	for _, s := range completedSteps {
		completed[s] = true
	}

	var pct float64
	if plan.TotalSteps > 0 {
		pct = float64(len(completedSteps)) / float64(plan.TotalSteps) * 100
	}

	var next []PlanStep
	for _, step := range plan.Steps {
		if completed[step.Step] {
			continue
		}
		next = append(next, step)
		if !step.Parallel {
			break
		}
	}

	sufficient := true
	missing := []string{}
	if strings.Contains(strings.ToLower(plan.Objective), "travel") {
		for _, req := range requiredTravelInfo {
			if _, ok := currentInfo[req]; !ok {
				sufficient = false
				missing = append(missing, req)
			}
		}
	}

	return &Progress{
		Success:            true,
		ProgressPercentage: pct,
		CompletedSteps:     len(completedSteps),
		TotalSteps:         plan.TotalSteps,
		NextSteps:          next,
		SufficientInfo:     sufficient,
		MissingInfo:        missing,
		CanContinue:        len(next) > 0,
		PlanComplete:       len(completedSteps) >= plan.TotalSteps,
		Timestamp:          time.Now().Format("2006-01-02T15:04:05"),
	}
}
