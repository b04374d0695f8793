package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gulguluu/travel-agent/internal/buildinfo"
	"github.com/gulguluu/travel-agent/internal/httpkit"
	"github.com/gulguluu/travel-agent/internal/tools"
)

// Standard JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// serverMessage is an inbound JSON-RPC message. The ID is kept raw so
// string and numeric request IDs round-trip unchanged; a nil ID marks
// a notification.
type serverMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// serverResponse is an outbound JSON-RPC response.
type serverResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Server exposes a tool registry as a streamable-HTTP MCP server.
// Each JSON-RPC message arrives as one HTTP POST. Tool handler errors
// become isError results, never HTTP failures; only malformed requests
// get JSON-RPC error objects.
type Server struct {
	registry *tools.Registry
	logger   *slog.Logger
}

// NewServer creates an MCP server over the given tool registry.
func NewServer(registry *tools.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry: registry,
		logger:   logger,
	}
}

// Handler returns the HTTP handler: POST /mcp for the protocol and
// GET /health for reachability checks.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp", s.handleMCP)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": buildinfo.Version,
		"tools":   len(s.registry.Names()),
	})
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	defer httpkit.DrainAndClose(r.Body, 1<<20)

	var msg serverMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20)).Decode(&msg); err != nil {
		s.writeError(w, nil, codeParseError, fmt.Sprintf("parse request: %v", err))
		return
	}

	// Notifications get acknowledged and dropped; there is nothing to
	// respond with.
	if msg.ID == nil || strings.HasPrefix(msg.Method, "notifications/") {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	s.logger.Debug("MCP request", "method", msg.Method)

	switch msg.Method {
	case "initialize":
		s.handleInitialize(w, msg)
	case "ping":
		s.writeResult(w, msg.ID, struct{}{})
	case "tools/list":
		s.handleToolsList(w, msg)
	case "tools/call":
		s.handleToolsCall(w, r, msg)
	default:
		s.writeError(w, msg.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, msg serverMessage) {
	// A fresh session ID per handshake gives HTTP clients something to
	// pin their requests to.
	w.Header().Set("Mcp-Session", uuid.NewString())

	s.writeResult(w, msg.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo: serverInfo{
			Name:    "travel-agent",
			Version: buildinfo.Version,
		},
		Capabilities: serverCapabilities{Tools: &struct{}{}},
	})
}

func (s *Server) handleToolsList(w http.ResponseWriter, msg serverMessage) {
	defs := make([]ToolDefinition, 0)
	for _, t := range s.registry.Tools() {
		defs = append(defs, ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	s.writeResult(w, msg.ID, toolsListResult{Tools: defs})
}

func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, msg serverMessage) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.writeError(w, msg.ID, codeInvalidParams, fmt.Sprintf("parse tools/call params: %v", err))
		return
	}
	if params.Name == "" {
		s.writeError(w, msg.ID, codeInvalidParams, "tool name is required")
		return
	}

	payload, err := s.registry.Call(r.Context(), params.Name, params.Arguments)
	if err != nil {
		// Handler errors are tool results, not protocol failures.
		s.logger.Warn("tool call failed", "tool", params.Name, "error", err)
		s.writeResult(w, msg.ID, callToolResult{
			Content: []ContentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
		return
	}

	s.writeResult(w, msg.ID, callToolResult{
		Content:           []ContentBlock{{Type: "text", Text: payloadText(payload)}},
		StructuredContent: map[string]any{"result": payload},
	})
}

// payloadText flattens a structured tool payload for the text content
// block. Strings pass through; everything else is JSON.
func payloadText(payload any) string {
	if s, ok := payload.(string); ok {
		return s
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}

func (s *Server) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	writeJSON(w, http.StatusOK, serverResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Result:  result,
	})
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeJSON(w, http.StatusOK, serverResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
