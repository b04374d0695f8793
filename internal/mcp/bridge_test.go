package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/gulguluu/travel-agent/internal/tools"
)

func TestToolName(t *testing.T) {
	tests := []struct {
		server string
		tool   string
		want   string
	}{
		{"rail-planner", "find_trains", "mcp_rail_planner_find_trains"},
		{"visa", "check_requirements", "mcp_visa_check_requirements"},
		{"My Server", "Do Thing", "mcp_my_server_do_thing"},
		{"test", "UPPERCASE", "mcp_test_uppercase"},
		{"a--b", "c--d", "mcp_a_b_c_d"},
		{"special!@#", "chars$%^", "mcp_special_chars"},
	}

	for _, tt := range tests {
		t.Run(tt.server+"/"+tt.tool, func(t *testing.T) {
			got := ToolName(tt.server, tt.tool)
			if got != tt.want {
				t.Errorf("ToolName(%q, %q) = %q, want %q", tt.server, tt.tool, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"Hello-World", "hello_world"},
		{"a--b", "a_b"},
		{"_leading_", "leading"},
		{"special!chars", "special_chars"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitize(tt.input)
			if got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func railToolsList() toolsListResult {
	return toolsListResult{
		Tools: []ToolDefinition{
			{Name: "find_trains", Description: "Find train connections", InputSchema: map[string]any{"type": "object"}},
			{Name: "station_info", Description: "Station details", InputSchema: map[string]any{"type": "object"}},
			{Name: "book_ticket", Description: "Book a ticket", InputSchema: map[string]any{"type": "object"}},
		},
	}
}

func TestBridgeTools_AllTools(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("tools/list", toolsListResult{
		Tools: []ToolDefinition{
			{
				Name:        "find_trains",
				Description: "Find train connections",
				InputSchema: map[string]any{"type": "object"},
			},
			{
				Name:        "station_info",
				Description: "Look up station details",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"station": map[string]any{"type": "string"},
						"country": map[string]any{"type": "string"},
					},
				},
			},
		},
	})

	client := NewClient("rail", mt, nil)
	registry := tools.NewEmptyRegistry()
	logger := slog.Default()

	count, err := BridgeTools(context.Background(), client, "rail-planner", registry, nil, nil, logger)
	if err != nil {
		t.Fatalf("BridgeTools: %v", err)
	}

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	// Verify tool names are namespaced.
	if registry.Get("mcp_rail_planner_find_trains") == nil {
		t.Error("expected mcp_rail_planner_find_trains in registry")
	}
	if registry.Get("mcp_rail_planner_station_info") == nil {
		t.Error("expected mcp_rail_planner_station_info in registry")
	}

	// Verify schema is passed through.
	tool := registry.Get("mcp_rail_planner_station_info")
	if tool.Parameters == nil {
		t.Fatal("Parameters is nil")
	}
	props, ok := tool.Parameters["properties"]
	if !ok {
		t.Fatal("Parameters missing 'properties'")
	}
	propsMap, ok := props.(map[string]any)
	if !ok {
		t.Fatal("properties is not a map")
	}
	if _, ok := propsMap["station"]; !ok {
		t.Error("missing 'station' in parameters properties")
	}
}

func TestBridgeTools_IncludeFilter(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("tools/list", railToolsList())

	client := NewClient("rail", mt, nil)
	registry := tools.NewEmptyRegistry()

	count, err := BridgeTools(context.Background(), client, "rail", registry,
		[]string{"find_trains", "station_info"}, nil, slog.Default())
	if err != nil {
		t.Fatalf("BridgeTools: %v", err)
	}

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if registry.Get("mcp_rail_find_trains") == nil {
		t.Error("expected mcp_rail_find_trains")
	}
	if registry.Get("mcp_rail_station_info") == nil {
		t.Error("expected mcp_rail_station_info")
	}
	if registry.Get("mcp_rail_book_ticket") != nil {
		t.Error("mcp_rail_book_ticket should have been filtered out")
	}
}

func TestBridgeTools_ExcludeFilter(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("tools/list", railToolsList())

	client := NewClient("rail", mt, nil)
	registry := tools.NewEmptyRegistry()

	count, err := BridgeTools(context.Background(), client, "rail", registry,
		nil, []string{"book_ticket"}, slog.Default())
	if err != nil {
		t.Fatalf("BridgeTools: %v", err)
	}

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if registry.Get("mcp_rail_book_ticket") != nil {
		t.Error("mcp_rail_book_ticket should have been excluded")
	}
}

func TestBridgeTools_HandlerProxiesCallTool(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("tools/list", toolsListResult{
		Tools: []ToolDefinition{
			{Name: "find_trains", Description: "Find train connections", InputSchema: map[string]any{"type": "object"}},
		},
	})
	mt.addResponse("tools/call", callToolResult{
		Content: []ContentBlock{{Type: "text", Text: `{"trains":1}`}},
		StructuredContent: map[string]any{
			"result": map[string]any{"trains": 1.0},
		},
	})

	client := NewClient("rail", mt, nil)
	registry := tools.NewEmptyRegistry()

	_, err := BridgeTools(context.Background(), client, "rail", registry, nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("BridgeTools: %v", err)
	}

	tool := registry.Get("mcp_rail_find_trains")
	if tool == nil {
		t.Fatal("tool not found")
	}

	// Call the handler and verify it proxies to the MCP client and
	// unwraps the structured payload.
	result, err := tool.Handler(context.Background(), map[string]any{
		"from": "Paris", "to": "Lyon",
	})
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	payload, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("result = %T, want map", result)
	}
	if payload["trains"] != 1.0 {
		t.Errorf("payload = %v", payload)
	}

	// Verify the tools/call request used the original MCP tool name.
	mt.mu.Lock()
	defer mt.mu.Unlock()
	found := false
	for _, req := range mt.sent {
		if req.Method == "tools/call" {
			paramsJSON, _ := json.Marshal(req.Params)
			var params map[string]any
			json.Unmarshal(paramsJSON, &params)
			if params["name"] == "find_trains" {
				found = true
			}
			break
		}
	}
	if !found {
		t.Error("tools/call request should use original MCP name 'find_trains', not namespaced name")
	}
}

func TestBridgeTools_HandlerErrorBecomesPayload(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("tools/list", toolsListResult{
		Tools: []ToolDefinition{
			{Name: "find_trains", Description: "Find train connections", InputSchema: map[string]any{"type": "object"}},
		},
	})
	mt.addResponse("tools/call", callToolResult{
		Content: []ContentBlock{{Type: "text", Text: "no connection found"}},
		IsError: true,
	})

	client := NewClient("rail", mt, nil)
	registry := tools.NewEmptyRegistry()
	if _, err := BridgeTools(context.Background(), client, "rail", registry, nil, nil, slog.Default()); err != nil {
		t.Fatal(err)
	}

	result, err := registry.Get("mcp_rail_find_trains").Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	payload := result.(map[string]any)
	if payload["error"] != "no connection found" {
		t.Errorf("payload = %v", payload)
	}
}
