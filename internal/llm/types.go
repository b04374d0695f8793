// Package llm provides the chat model client used by the
// conversational agent and the vision-analysis tools.
package llm

import "time"

// Message represents a chat message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool call from the model. Arguments are
// decoded from the provider's wire format into a map at the provider
// boundary so the orchestrator can pass them straight to MCP.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDef describes a callable tool advertised to the model.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ChatResponse is the unified response from the provider.
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message

	// Token usage for the cost ledger.
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns the combined prompt and completion token count.
func (r *ChatResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
