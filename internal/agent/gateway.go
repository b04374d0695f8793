package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gulguluu/travel-agent/internal/mcp"
)

// ToolResult is one normalized tool invocation outcome. The payload is
// either the tool's structured result or an {"error": ...} map; the
// correlation ID ties it back to the model's tool call.
type ToolResult struct {
	Name          string
	CorrelationID string
	Payload       any

	// Failed marks transport-level failures (server unreachable,
	// protocol error). Tool-reported errors arrive as ordinary error
	// payloads with Failed false.
	Failed bool
}

// ToolClient is the slice of the MCP client the gateway needs. It is
// satisfied by *mcp.Client.
type ToolClient interface {
	ListTools(ctx context.Context) ([]mcp.ToolDefinition, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallResult, error)
}

// Gateway invokes tools on the MCP server and normalizes the response
// envelope variants into a single payload shape. It is stateless per
// call and safe for concurrent use; tool batches fan out against it.
type Gateway struct {
	client ToolClient
	logger *slog.Logger
}

// NewGateway creates a gateway over the given MCP client.
func NewGateway(client ToolClient, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, logger: logger}
}

// ListTools returns the server's tools as model-facing definitions.
func (g *Gateway) ListTools(ctx context.Context) ([]mcp.ToolDefinition, error) {
	return g.client.ListTools(ctx)
}

// Invoke calls a tool and returns its normalized result. Failures of
// any kind come back as an error payload, never as a Go error: the
// orchestrator folds them into the conversation so the model can adapt.
func (g *Gateway) Invoke(ctx context.Context, name string, args map[string]any, correlationID string) ToolResult {
	result, err := g.client.CallTool(ctx, name, args)
	if err != nil {
		g.logger.Warn("tool call failed", "tool", name, "error", err)
		return ToolResult{
			Name:          name,
			CorrelationID: correlationID,
			Payload:       map[string]any{"error": err.Error()},
			Failed:        true,
		}
	}

	if result.IsError {
		return ToolResult{
			Name:          name,
			CorrelationID: correlationID,
			Payload:       map[string]any{"error": result.Text()},
		}
	}

	return ToolResult{
		Name:          name,
		CorrelationID: correlationID,
		Payload:       normalizeResult(result),
	}
}

// normalizeResult maps the MCP response envelope variants onto one
// payload shape:
//   - structured-content envelope with a "result" field (JSON-decoded
//     when the value is a string that parses),
//   - a content list whose first entry carries text (JSON-decoded when
//     it looks like an object),
//   - an explicit empty content list, which becomes an empty sequence.
//
// Anything else is reported as an unparseable-result error payload.
func normalizeResult(result *mcp.CallResult) any {
	if result.StructuredContent != nil {
		if v, ok := result.StructuredContent["result"]; ok {
			if s, isStr := v.(string); isStr {
				return decodeMaybeJSON(s)
			}
			return v
		}
	}

	if len(result.Content) > 0 {
		first := result.Content[0]
		if first.Type == "text" {
			text := first.Text
			if strings.HasPrefix(strings.TrimSpace(text), "{") {
				return decodeMaybeJSON(text)
			}
			return text
		}
		return map[string]any{
			"error": "unparseable tool result",
			"raw":   fmt.Sprintf("%+v", first),
		}
	}

	if result.Content != nil {
		return []any{}
	}

	return map[string]any{
		"error": "unparseable tool result",
		"raw":   fmt.Sprintf("%+v", result),
	}
}

// decodeMaybeJSON parses s as JSON when possible, otherwise returns it
// unchanged. Models and remote tools both produce almost-JSON often
// enough that failing the call over it is not worth it.
func decodeMaybeJSON(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
