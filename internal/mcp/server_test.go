package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gulguluu/travel-agent/internal/tools"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry := tools.NewEmptyRegistry()
	registry.Register(&tools.Tool{
		Name:        "get_current_date",
		Description: "Current date in ISO format",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return map[string]any{"current_date": "2026-08-28"}, nil
		},
	})
	registry.Register(&tools.Tool{
		Name:        "geocode_place",
		Description: "Resolve a place name to coordinates",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"required": []string{"name"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			name, _ := args["name"].(string)
			if name == "" {
				return nil, fmt.Errorf("name is required")
			}
			return map[string]any{"name": name, "lat": 48.8566, "lon": 2.3522}, nil
		},
	})

	srv := httptest.NewServer(NewServer(registry, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// postMCP sends one JSON-RPC message to the server and decodes the response.
func postMCP(t *testing.T, srv *httptest.Server, body string) (*http.Response, serverResponse) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/mcp", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var out serverResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, out
}

func TestServer_Initialize(t *testing.T) {
	srv := newTestServer(t)

	resp, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`)

	if resp.Header.Get("Mcp-Session") == "" {
		t.Error("initialize response missing Mcp-Session header")
	}
	if out.Error != nil {
		t.Fatalf("unexpected error: %v", out.Error)
	}
	if string(out.ID) != "1" {
		t.Errorf("ID = %s, want 1", out.ID)
	}

	data, _ := json.Marshal(out.Result)
	var result initializeResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocolVersion = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "travel-agent" {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	if result.Capabilities.Tools == nil {
		t.Error("tools capability not advertised")
	}
}

func TestServer_NotificationAccepted(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postMCP(t, srv, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
}

func TestServer_Ping(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":"ping-1","method":"ping"}`)
	if out.Error != nil {
		t.Fatalf("unexpected error: %v", out.Error)
	}
	// String IDs must round-trip as strings.
	if string(out.ID) != `"ping-1"` {
		t.Errorf("ID = %s, want %q", out.ID, `"ping-1"`)
	}
}

func TestServer_ToolsList(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	if out.Error != nil {
		t.Fatalf("unexpected error: %v", out.Error)
	}

	data, _ := json.Marshal(out.Result)
	var result toolsListResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(result.Tools))
	}
	if result.Tools[0].Name != "get_current_date" {
		t.Errorf("tools[0] = %q, want get_current_date", result.Tools[0].Name)
	}
	if result.Tools[1].InputSchema == nil {
		t.Error("tools[1] missing input schema")
	}
}

func TestServer_ToolsCall_StructuredContent(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"geocode_place","arguments":{"name":"Paris"}}}`)
	if out.Error != nil {
		t.Fatalf("unexpected error: %v", out.Error)
	}

	data, _ := json.Marshal(out.Result)
	var result callToolResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.IsError {
		t.Fatal("IsError = true")
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v", result.Content)
	}

	payload, ok := result.StructuredContent["result"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent = %v", result.StructuredContent)
	}
	if payload["name"] != "Paris" {
		t.Errorf("payload = %v", payload)
	}
	if payload["lat"] != 48.8566 {
		t.Errorf("lat = %v", payload["lat"])
	}
}

func TestServer_ToolsCall_HandlerErrorIsToolResult(t *testing.T) {
	srv := newTestServer(t)

	resp, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"geocode_place","arguments":{}}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out.Error != nil {
		t.Fatalf("handler error must not become a JSON-RPC error: %v", out.Error)
	}

	data, _ := json.Marshal(out.Result)
	var result callToolResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsError {
		t.Fatal("IsError = false, want true")
	}
	if result.Content[0].Text != "name is required" {
		t.Errorf("error text = %q", result.Content[0].Text)
	}
}

func TestServer_ToolsCall_UnknownTool(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"no_such_tool"}}`)
	if out.Error != nil {
		t.Fatalf("unknown tool should be an isError result, got RPC error: %v", out.Error)
	}

	data, _ := json.Marshal(out.Result)
	var result callToolResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsError {
		t.Fatal("IsError = false, want true")
	}
	if result.Content[0].Text != "unknown tool: no_such_tool" {
		t.Errorf("error text = %q", result.Content[0].Text)
	}
}

func TestServer_ToolsCall_MissingName(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"arguments":{}}}`)
	if out.Error == nil {
		t.Fatal("expected JSON-RPC error")
	}
	if out.Error.Code != codeInvalidParams {
		t.Errorf("code = %d, want %d", out.Error.Code, codeInvalidParams)
	}
}

func TestServer_MethodNotFound(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{"jsonrpc":"2.0","id":7,"method":"resources/list"}`)
	if out.Error == nil {
		t.Fatal("expected JSON-RPC error")
	}
	if out.Error.Code != codeMethodNotFound {
		t.Errorf("code = %d, want %d", out.Error.Code, codeMethodNotFound)
	}
}

func TestServer_ParseError(t *testing.T) {
	srv := newTestServer(t)

	_, out := postMCP(t, srv, `{not json`)
	if out.Error == nil {
		t.Fatal("expected JSON-RPC error")
	}
	if out.Error.Code != codeParseError {
		t.Errorf("code = %d, want %d", out.Error.Code, codeParseError)
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["tools"] != 2.0 {
		t.Errorf("tools = %v, want 2", body["tools"])
	}
}

// TestServer_ClientRoundtrip drives the server through the real client
// and HTTP transport: handshake, tool listing, then a tool call whose
// structured payload survives the trip.
func TestServer_ClientRoundtrip(t *testing.T) {
	srv := newTestServer(t)

	transport := NewHTTPTransport(HTTPConfig{URL: srv.URL + "/mcp"})
	client := NewClient("local", transport, nil)
	defer client.Close()

	ctx := context.Background()
	if err := client.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	toolDefs, err := client.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(toolDefs) != 2 {
		t.Fatalf("got %d tools, want 2", len(toolDefs))
	}

	result, err := client.CallTool(ctx, "get_current_date", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Fatal("IsError = true")
	}
	payload, ok := result.Payload().(map[string]any)
	if !ok {
		t.Fatalf("Payload() = %T, want map", result.Payload())
	}
	if payload["current_date"] != "2026-08-28" {
		t.Errorf("payload = %v", payload)
	}
}
