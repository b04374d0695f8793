package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openRouterBaseURL is used when an OpenRouter key is configured.
const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAI implements Client against any OpenAI-compatible endpoint,
// including OpenRouter.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// OpenAIConfig configures the provider.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // empty means the OpenAI default, or OpenRouter for sk-or- keys
	Model       string
	Temperature float32
	Logger      *slog.Logger
}

// NewOpenAI creates an OpenAI-compatible chat client. Keys with the
// "sk-or-" prefix route to OpenRouter automatically unless a BaseURL
// is given.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		conf.BaseURL = cfg.BaseURL
	case strings.HasPrefix(cfg.APIKey, "sk-or-"):
		conf.BaseURL = openRouterBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(conf),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// Model returns the configured model identifier.
func (p *OpenAI) Model() string { return p.model }

// Chat sends a chat completion request with optional tool definitions.
func (p *OpenAI) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*ChatResponse, error) {
	reqMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				return nil, fmt.Errorf("llm: marshal tool arguments for %s: %w", tc.Name, err)
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		reqMsgs[i] = msg
	}

	var reqTools []openai.Tool
	for _, t := range tools {
		reqTools = append(reqTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    reqMsgs,
		Tools:       reqTools,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: empty choices in completion response")
	}

	p.logger.Debug("chat completion",
		"model", resp.Model,
		"duration", time.Since(start).Round(time.Millisecond),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return p.convertResponse(&resp)
}

func (p *OpenAI) convertResponse(resp *openai.ChatCompletionResponse) (*ChatResponse, error) {
	choice := resp.Choices[0]

	out := &ChatResponse{
		Model:     resp.Model,
		CreatedAt: time.Unix(resp.Created, 0),
		Message: Message{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		},
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}

	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				// Models occasionally emit broken JSON here. The call goes
				// through with empty arguments and the tool reports its
				// own missing-argument error.
				p.logger.Warn("malformed tool arguments from model",
					"tool", tc.Function.Name,
					"error", err,
				)
				args = map[string]any{}
			}
		}
		out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return out, nil
}

// AnalyzeImage sends a base64-encoded PNG with a text prompt to the
// configured model and returns the analysis. The flight and hotel
// tools use this to read rendered results pages.
func (p *OpenAI) AnalyzeImage(ctx context.Context, imageBase64, prompt string) (*ChatResponse, error) {
	if imageBase64 == "" {
		return nil, errors.New("llm: empty image data")
	}

	// Accept both raw base64 and full data URLs.
	dataURL := imageBase64
	if !strings.HasPrefix(dataURL, "data:image/") {
		dataURL = "data:image/png;base64," + imageBase64
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		MaxTokens:   1500,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: vision analysis: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: empty choices in vision response")
	}

	return p.convertResponse(&resp)
}

// Ping verifies the provider is reachable and the key is accepted.
func (p *OpenAI) Ping(ctx context.Context) error {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("llm: ping: %w", err)
	}
	return nil
}
