package agent

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gulguluu/travel-agent/internal/llm"
	"github.com/gulguluu/travel-agent/internal/mcp"
	"github.com/gulguluu/travel-agent/internal/perf"
)

// scriptedLLM replays canned chat responses in order and records every
// request for inspection.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []*llm.ChatResponse
	requests  []chatRequest
}

type chatRequest struct {
	messages []llm.Message
	tools    []llm.ToolDef
}

func (s *scriptedLLM) Chat(_ context.Context, messages []llm.Message, tools []llm.ToolDef) (*llm.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, chatRequest{messages: messages, tools: tools})
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("no scripted response for request %d", len(s.requests))
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedLLM) AnalyzeImage(_ context.Context, _, _ string) (*llm.ChatResponse, error) {
	return nil, fmt.Errorf("not scripted")
}

func (s *scriptedLLM) Model() string { return "test-model" }

func (s *scriptedLLM) Ping(_ context.Context) error { return nil }

func textResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model:        "test-model",
		Message:      llm.Message{Role: "assistant", Content: content},
		InputTokens:  100,
		OutputTokens: 50,
	}
}

func toolCallResponse(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model:       "test-model",
		Message:     llm.Message{Role: "assistant", ToolCalls: calls},
		InputTokens: 100,
	}
}

func memoryStoreResult() *mcp.CallResult {
	return &mcp.CallResult{
		StructuredContent: map[string]any{
			"result": map[string]any{"success": true},
		},
	}
}

func newTestOrchestrator(sllm *scriptedLLM, client *fakeToolClient, dataDir string) *Orchestrator {
	client.defs = []mcp.ToolDefinition{
		{Name: "weather_forecast", Description: "Forecast", InputSchema: map[string]any{"type": "object"}},
		{Name: "search_flights", Description: "Flights"},
	}
	o := NewOrchestrator(Config{
		LLM:          sllm,
		Gateway:      NewGateway(client, nil),
		DataDir:      dataDir,
		MaxToolCalls: 15,
	})
	o.now = func() time.Time {
		return time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	}
	return o
}

func TestNeedsClarification(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I need to know your departure city.", true},
		{"Could you clarify the travel dates?", true},
		{"Where are you flying from?", true},
		{"When would you like to depart?", true},
		{"How many travelers are joining?", true},
		{"Some details are missing.", true},
		{"Great, I have everything I need to plan this trip.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := NeedsClarification(tt.text); got != tt.want {
				t.Errorf("NeedsClarification(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTurnClarificationShortcut(t *testing.T) {
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		textResponse("I need to know where you are departing from."),
	}}
	client := newFakeToolClient()
	client.results["store_travel_memory"] = memoryStoreResult()

	o := newTestOrchestrator(sllm, client, "")
	answer, err := o.Turn(context.Background(), []llm.Message{
		{Role: "user", Content: "Plan me a trip"},
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}

	if answer != "I need to know where you are departing from." {
		t.Errorf("answer = %q", answer)
	}
	// The turn stops at evaluation; no clarification request follows.
	if len(sllm.requests) != 1 {
		t.Fatalf("made %d chat requests, want 1", len(sllm.requests))
	}
	if len(sllm.requests[0].tools) != 2 {
		t.Errorf("evaluation request carried %d tools, want 2", len(sllm.requests[0].tools))
	}

	stores := client.callsTo("store_travel_memory")
	if len(stores) != 1 {
		t.Fatalf("store_travel_memory called %d times, want 1", len(stores))
	}
	key, _ := stores[0].args["key"].(string)
	if key != "conversation_20260828_103000" {
		t.Errorf("memory key = %q", key)
	}
	data := stores[0].args["data"].(map[string]any)
	if data["user_query"] != "Plan me a trip" {
		t.Errorf("user_query = %v", data["user_query"])
	}
	if data["agent_response"] != answer {
		t.Errorf("agent_response = %v", data["agent_response"])
	}
	if data["conversation_type"] != "travel_planning" {
		t.Errorf("conversation_type = %v", data["conversation_type"])
	}
}

func TestTurnFirstTurnClarificationStep(t *testing.T) {
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		textResponse("The request looks complete. Proceeding with standard assumptions."),
		textResponse("My assumptions: 2 travelers, departing PDX, two weeks in June."),
	}}
	client := newFakeToolClient()
	client.results["store_travel_memory"] = memoryStoreResult()

	o := newTestOrchestrator(sllm, client, "")
	answer, err := o.Turn(context.Background(), []llm.Message{
		{Role: "user", Content: "Two weeks in Japan in June"},
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}

	if !strings.Contains(answer, "My assumptions") {
		t.Errorf("answer = %q", answer)
	}
	if len(sllm.requests) != 2 {
		t.Fatalf("made %d chat requests, want 2", len(sllm.requests))
	}
	// The clarification request goes out without the tool schema.
	if sllm.requests[1].tools != nil {
		t.Error("clarification request should not carry tools")
	}
	// Both requests open with the system prompt.
	for i, req := range sllm.requests {
		if req.messages[0].Role != "system" {
			t.Errorf("request %d does not start with system prompt", i)
		}
	}
}

func TestTurnEvaluationToolCallsThenReask(t *testing.T) {
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		toolCallResponse(llm.ToolCall{ID: "c1", Name: "get_current_date", Arguments: map[string]any{}}),
		textResponse("I need to know how many travelers are going."),
	}}
	client := newFakeToolClient()
	client.results["get_current_date"] = &mcp.CallResult{
		StructuredContent: map[string]any{
			"result": map[string]any{"current_date": "2026-08-28"},
		},
	}
	client.results["store_travel_memory"] = memoryStoreResult()

	o := newTestOrchestrator(sllm, client, "")
	answer, err := o.Turn(context.Background(), []llm.Message{
		{Role: "user", Content: "Flights to Tokyo next month"},
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}

	if answer != "I need to know how many travelers are going." {
		t.Errorf("answer = %q", answer)
	}
	if len(sllm.requests) != 2 {
		t.Fatalf("made %d chat requests, want 2", len(sllm.requests))
	}

	// The re-ask keeps the tool schema and carries the tool result.
	reask := sllm.requests[1]
	if len(reask.tools) != 2 {
		t.Error("re-ask should keep the tool schema")
	}
	last := reask.messages[len(reask.messages)-1]
	if last.Role != "tool" || last.ToolCallID != "c1" {
		t.Errorf("last message = %+v, want tool result for c1", last)
	}
	if !strings.Contains(last.Content, "2026-08-28") {
		t.Errorf("tool message content = %q", last.Content)
	}
}

func TestTurnFollowUpToolBatch(t *testing.T) {
	bigShot := strings.Repeat("A", 100_000)
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		toolCallResponse(
			llm.ToolCall{ID: "c1", Name: "search_flights", Arguments: map[string]any{"origin": "PDX", "destination": "NRT"}},
			llm.ToolCall{ID: "c2", Name: "weather_forecast", Arguments: map[string]any{"place": "Tokyo"}},
		),
		textResponse("Here is your Tokyo plan."),
	}}
	client := newFakeToolClient()
	client.results["search_flights"] = &mcp.CallResult{
		StructuredContent: map[string]any{
			"result": map[string]any{
				"success":           true,
				"url":               "https://www.google.com/travel/flights",
				"screenshot_base64": bigShot,
			},
		},
	}
	client.results["weather_forecast"] = &mcp.CallResult{
		StructuredContent: map[string]any{
			"result": map[string]any{"daily": map[string]any{"temperature_2m_max": []any{28.0}}},
		},
	}
	client.results["store_travel_memory"] = memoryStoreResult()

	o := newTestOrchestrator(sllm, client, "")
	history := []llm.Message{
		{Role: "user", Content: "Two weeks in Japan"},
		{Role: "assistant", Content: "My assumptions: PDX, 2 travelers."},
		{Role: "user", Content: "Yes, book mid-June"},
	}
	answer, err := o.Turn(context.Background(), history)
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}

	if answer != "Here is your Tokyo plan." {
		t.Errorf("answer = %q", answer)
	}
	if len(sllm.requests) != 2 {
		t.Fatalf("made %d chat requests, want 2", len(sllm.requests))
	}
	// Planning request carries tools; the final answer request does not.
	if len(sllm.requests[0].tools) != 2 {
		t.Error("planning request should carry the tool schema")
	}
	if sllm.requests[1].tools != nil {
		t.Error("final answer request should not carry tools")
	}

	// Tool results arrive in call order, keyed by correlation id, with
	// the screenshot elided from context.
	final := sllm.requests[1].messages
	toolMsgs := final[len(final)-2:]
	if toolMsgs[0].ToolCallID != "c1" || toolMsgs[1].ToolCallID != "c2" {
		t.Errorf("tool message order = %q, %q", toolMsgs[0].ToolCallID, toolMsgs[1].ToolCallID)
	}
	if strings.Contains(toolMsgs[0].Content, bigShot[:100]) {
		t.Error("screenshot data leaked into context")
	}
	if !strings.Contains(toolMsgs[0].Content, "[image data removed]") {
		t.Errorf("tool message = %q", toolMsgs[0].Content)
	}

	// The raw (unfiltered) query and answer land in memory.
	stores := client.callsTo("store_travel_memory")
	if len(stores) != 1 {
		t.Fatalf("store_travel_memory called %d times, want 1", len(stores))
	}
	data := stores[0].args["data"].(map[string]any)
	if data["user_query"] != "Yes, book mid-June" {
		t.Errorf("user_query = %v", data["user_query"])
	}
}

func TestTurnReportsToolResultsForDisplay(t *testing.T) {
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		toolCallResponse(
			llm.ToolCall{ID: "c1", Name: "search_flights", Arguments: map[string]any{"origin": "PDX"}},
			llm.ToolCall{ID: "c2", Name: "weather_forecast", Arguments: map[string]any{"place": "Tokyo"}},
		),
		textResponse("Here is the plan."),
	}}
	client := newFakeToolClient()
	client.defs = []mcp.ToolDefinition{
		{Name: "weather_forecast", Description: "Forecast"},
		{Name: "search_flights", Description: "Flights"},
	}
	client.results["search_flights"] = &mcp.CallResult{
		StructuredContent: map[string]any{
			"result": map[string]any{
				"success":           true,
				"screenshot_base64": strings.Repeat("A", 50_000),
			},
		},
	}
	client.results["weather_forecast"] = &mcp.CallResult{
		StructuredContent: map[string]any{
			"result": map[string]any{"temp_max": 28.0},
		},
	}
	client.results["store_travel_memory"] = memoryStoreResult()

	type shown struct {
		name    string
		payload any
	}
	var displayed []shown
	o := NewOrchestrator(Config{
		LLM:     sllm,
		Gateway: NewGateway(client, nil),
		OnToolResult: func(name string, payload any) {
			displayed = append(displayed, shown{name: name, payload: payload})
		},
	})

	if _, err := o.Turn(context.Background(), []llm.Message{
		{Role: "user", Content: "Trip"},
		{Role: "assistant", Content: "Assumptions noted."},
		{Role: "user", Content: "Mid-June works"},
	}); err != nil {
		t.Fatalf("Turn: %v", err)
	}

	if len(displayed) != 2 {
		t.Fatalf("displayed %d tool results, want 2", len(displayed))
	}
	if displayed[0].name != "search_flights" || displayed[1].name != "weather_forecast" {
		t.Errorf("display order = %q, %q", displayed[0].name, displayed[1].name)
	}

	// The display projection drops binary fields outright.
	flights := displayed[0].payload.(map[string]any)
	if _, ok := flights["screenshot_base64"]; ok {
		t.Error("display payload still carries the screenshot")
	}
	if flights["success"] != true {
		t.Errorf("display payload = %v", flights)
	}
}

func TestTurnToolFailureFoldedIntoContext(t *testing.T) {
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		toolCallResponse(llm.ToolCall{ID: "c1", Name: "route_estimate", Arguments: map[string]any{}}),
		textResponse("I could not compute the route, but here is an alternative."),
	}}
	client := newFakeToolClient()
	client.errs["route_estimate"] = fmt.Errorf("connection refused")
	client.results["store_travel_memory"] = memoryStoreResult()

	o := newTestOrchestrator(sllm, client, "")
	answer, err := o.Turn(context.Background(), []llm.Message{
		{Role: "user", Content: "Trip"},
		{Role: "assistant", Content: "Assumptions noted."},
		{Role: "user", Content: "How do I get from Osaka to Kyoto?"},
	})
	if err != nil {
		t.Fatalf("turn must survive tool failure: %v", err)
	}
	if answer == "" {
		t.Fatal("turn produced no answer")
	}

	final := sllm.requests[1].messages
	last := final[len(final)-1]
	if last.Role != "tool" {
		t.Fatalf("last message role = %q", last.Role)
	}
	if !strings.Contains(last.Content, "connection refused") {
		t.Errorf("tool failure message = %q", last.Content)
	}
}

func TestTurnWritesPerformanceLog(t *testing.T) {
	dataDir := t.TempDir()
	sllm := &scriptedLLM{responses: []*llm.ChatResponse{
		textResponse("I need to know your destination."),
	}}
	client := newFakeToolClient()
	client.results["store_travel_memory"] = memoryStoreResult()

	o := newTestOrchestrator(sllm, client, dataDir)
	if _, err := o.Turn(context.Background(), []llm.Message{
		{Role: "user", Content: "Plan something"},
	}); err != nil {
		t.Fatalf("Turn: %v", err)
	}

	f, err := os.Open(filepath.Join(dataDir, perf.LogFileName))
	if err != nil {
		t.Fatalf("open performance log: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 1 {
		t.Fatalf("log has %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], `"query":"Plan something"`) {
		t.Errorf("log line = %s", lines[0])
	}
	if !strings.Contains(lines[0], `"api_calls":1`) {
		t.Errorf("log line = %s", lines[0])
	}
	if !strings.Contains(lines[0], `"total_tokens":150`) {
		t.Errorf("log line = %s", lines[0])
	}
}
