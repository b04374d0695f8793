package thoughts

import "testing"

func TestCreatePlanTravelObjective(t *testing.T) {
	p := CreatePlan("Plan a trip to Kyoto", nil)

	if !p.Success {
		t.Error("success = false")
	}
	if p.TotalSteps != 5 {
		t.Errorf("total steps = %d, want 5", p.TotalSteps)
	}
	if p.EstimatedParallelSteps != 2 {
		t.Errorf("parallel steps = %d, want 2", p.EstimatedParallelSteps)
	}
	if p.Steps[2].Action != "Gather core travel information" || !p.Steps[2].Parallel {
		t.Errorf("step 3 = %+v", p.Steps[2])
	}
}

func TestCreatePlanGenericObjective(t *testing.T) {
	p := CreatePlan("Summarize quarterly numbers", []string{"web_search"})

	if p.TotalSteps != 3 {
		t.Errorf("total steps = %d, want 3", p.TotalSteps)
	}
	if len(p.Steps[1].ToolsNeeded) != 1 || p.Steps[1].ToolsNeeded[0] != "web_search" {
		t.Errorf("execute step tools = %v", p.Steps[1].ToolsNeeded)
	}
}

func TestVerifyProgress(t *testing.T) {
	p := CreatePlan("travel to Lisbon", nil)

	prog := VerifyProgress(p, []int{1, 2}, map[string]any{
		"destination": "Lisbon",
	})

	if prog.ProgressPercentage != 40 {
		t.Errorf("progress = %v, want 40", prog.ProgressPercentage)
	}
	if prog.PlanComplete {
		t.Error("plan reported complete")
	}
	if !prog.CanContinue {
		t.Error("cannot continue with steps remaining")
	}
	// Steps 3 and 4 are parallel, step 5 is sequential and stops the scan.
	if len(prog.NextSteps) != 3 {
		t.Errorf("next steps = %d, want 3", len(prog.NextSteps))
	}
	if prog.SufficientInfo {
		t.Error("sufficient info with dates and search_results missing")
	}
	if len(prog.MissingInfo) != 2 {
		t.Errorf("missing info = %v", prog.MissingInfo)
	}
}

func TestVerifyProgressComplete(t *testing.T) {
	p := CreatePlan("travel planning", nil)
	prog := VerifyProgress(p, []int{1, 2, 3, 4, 5}, map[string]any{
		"destination":    "x",
		"dates":          "y",
		"search_results": "z",
	})

	if !prog.PlanComplete {
		t.Error("plan not complete")
	}
	if prog.CanContinue {
		t.Error("can continue after completion")
	}
	if !prog.SufficientInfo {
		t.Errorf("missing info = %v", prog.MissingInfo)
	}
}

func TestVerifyProgressNonTravelSkipsInfoCheck(t *testing.T) {
	p := CreatePlan("summarize a report", nil)
	prog := VerifyProgress(p, nil, nil)
	if !prog.SufficientInfo {
		t.Error("non-travel plan should not require travel info")
	}
}
