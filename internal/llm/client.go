package llm

import "context"

// Client is the interface the agent and the vision tools program against.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []Message, tools []ToolDef) (*ChatResponse, error)

	// AnalyzeImage sends a base64-encoded image with a text prompt to a
	// vision-capable model and returns the analysis text.
	AnalyzeImage(ctx context.Context, imageBase64, prompt string) (*ChatResponse, error)

	// Model returns the configured model identifier.
	Model() string

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
