// Package agent implements the conversational travel workflow: query
// evaluation, clarification, tool planning and execution, and the
// result filtering that keeps tool output from flooding the model
// context.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gulguluu/travel-agent/internal/llm"
	"github.com/gulguluu/travel-agent/internal/mcp"
	"github.com/gulguluu/travel-agent/internal/perf"
	"github.com/gulguluu/travel-agent/internal/prompts"
	"github.com/gulguluu/travel-agent/internal/usage"
)

// clarificationSignals are the phrases that mark an evaluation response
// as a question back to the user rather than a go-ahead. Substring
// matching on model output is fragile; it is kept behind
// NeedsClarification so it can be swapped for a structured flag later.
var clarificationSignals = []string{
	"need to know",
	"clarify",
	"question",
	"missing",
	"where",
	"when",
	"how many",
}

// NeedsClarification reports whether an evaluation response is asking
// the user for more information.
func NeedsClarification(text string) bool {
	lower := strings.ToLower(text)
	for _, signal := range clarificationSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// Config carries the orchestrator's dependencies and settings.
type Config struct {
	LLM     llm.Client
	Gateway *Gateway
	Logger  *slog.Logger

	// DataDir is where the performance log lives; empty disables it.
	DataDir string

	// Usage is the optional token/cost ledger.
	Usage     *usage.Store
	Provider  string // "openai" or "openrouter", for the ledger
	SessionID string

	// MaxToolCalls is an advisory per-turn cap. It is carried for
	// forward compatibility and surfaced in logs, not enforced.
	MaxToolCalls int

	// OnToolResult, when set, receives the display projection of each
	// executed tool result in call order. The chat UI renders these as
	// result panels.
	OnToolResult func(name string, payload any)
}

// Orchestrator runs conversation turns against the travel tool server.
// One instance serves one conversation; tool batches within a turn fan
// out concurrently.
type Orchestrator struct {
	llm     llm.Client
	gateway *Gateway
	logger  *slog.Logger

	dataDir   string
	usage     *usage.Store
	provider  string
	sessionID string
	maxCalls  int

	onToolResult func(name string, payload any)

	now func() time.Time
}

// NewOrchestrator creates an orchestrator from the given config.
func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &Orchestrator{
		llm:          cfg.LLM,
		gateway:      cfg.Gateway,
		logger:       logger,
		dataDir:      cfg.DataDir,
		usage:        cfg.Usage,
		provider:     provider,
		sessionID:    cfg.SessionID,
		maxCalls:     cfg.MaxToolCalls,
		onToolResult: cfg.OnToolResult,
		now:          time.Now,
	}
}

// Turn runs one conversation turn. The history holds the full
// conversation so far, ending with the user's latest message. The
// returned string is always a user-facing answer; tool failures along
// the way are folded into the conversation rather than aborting.
func (o *Orchestrator) Turn(ctx context.Context, history []llm.Message) (string, error) {
	if len(history) == 0 {
		return "", errors.New("empty conversation history")
	}
	query := history[len(history)-1].Content

	tracker := perf.NewTracker(o.dataDir, query)
	defer func() {
		tracker.Finish()
		if err := tracker.Save(); err != nil {
			o.logger.Warn("could not save performance metrics", "error", err)
		}
	}()

	answer, err := o.runTurn(ctx, tracker, history)
	if err != nil {
		return "", err
	}

	o.persistConversation(ctx, query, answer)
	return answer, nil
}

func (o *Orchestrator) runTurn(ctx context.Context, tracker *perf.Tracker, history []llm.Message) (string, error) {
	defs, err := o.gateway.ListTools(ctx)
	if err != nil {
		return "", fmt.Errorf("list tools: %w", err)
	}
	toolDefs := toToolDefs(defs)
	o.logger.Debug("turn started",
		"tools", len(toolDefs),
		"history", len(history),
		"max_tool_calls", o.maxCalls,
	)

	// Follow-up turns skip evaluation and go straight to planning
	// against the accumulated history.
	if len(history) > 1 {
		return o.continueConversation(ctx, tracker, history, toolDefs)
	}

	// First turn: ask the model whether the request is complete enough
	// to act on. The model may call tools (memory lookups, date
	// parsing) to decide; execute them and ask again.
	messages := o.buildMessages(history, prompts.EvaluationInstruction)

	resp, err := o.chat(ctx, tracker, messages, toolDefs, "evaluation")
	if err != nil {
		return "", err
	}
	if len(resp.Message.ToolCalls) > 0 {
		messages = append(messages, resp.Message)
		messages = append(messages, o.executeBatch(ctx, tracker, resp.Message.ToolCalls)...)

		resp, err = o.chat(ctx, tracker, messages, toolDefs, "evaluation")
		if err != nil {
			return "", err
		}
	}

	// If the evaluation came back asking the user for information, that
	// is the answer for this turn.
	if resp.Message.Content != "" && NeedsClarification(resp.Message.Content) {
		return resp.Message.Content, nil
	}

	// Otherwise surface assumptions and open questions in concise form;
	// planning proper happens on the follow-up turn.
	messages = o.buildMessages(history, prompts.ClarificationInstruction)
	resp, err = o.chat(ctx, tracker, messages, nil, "chat")
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// continueConversation plans and executes against the full history: one
// chat request with the tool schema, a concurrent batch execution of
// whatever the model asked for, then a final request for the answer.
func (o *Orchestrator) continueConversation(ctx context.Context, tracker *perf.Tracker, history []llm.Message, toolDefs []llm.ToolDef) (string, error) {
	messages := o.buildMessages(history, prompts.ContinuationInstruction)

	resp, err := o.chat(ctx, tracker, messages, toolDefs, "chat")
	if err != nil {
		return "", err
	}

	if len(resp.Message.ToolCalls) > 0 {
		messages = append(messages, resp.Message)
		messages = append(messages, o.executeBatch(ctx, tracker, resp.Message.ToolCalls)...)

		resp, err = o.chat(ctx, tracker, messages, nil, "chat")
		if err != nil {
			return "", err
		}
	}
	return resp.Message.Content, nil
}

// executeBatch runs one batch of model-requested tool calls
// concurrently and returns their tool-role messages in call order. No
// result is consumed until the whole batch has completed.
func (o *Orchestrator) executeBatch(ctx context.Context, tracker *perf.Tracker, calls []llm.ToolCall) []llm.Message {
	results := make([]llm.Message, len(calls))
	payloads := make([]any, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()

			tracker.AddToolCall()
			o.logger.Info("executing tool", "tool", call.Name)

			res := o.gateway.Invoke(ctx, call.Name, call.Arguments, call.ID)
			if res.Failed {
				tracker.AddError()
			}

			payloads[i] = res.Payload
			results[i] = llm.Message{
				Role:       "tool",
				Content:    encodePayload(Filter(res.Payload, ModeContext)),
				ToolCallID: call.ID,
			}
		}(i, call)
	}
	wg.Wait()

	if o.onToolResult != nil {
		for i, call := range calls {
			o.onToolResult(call.Name, Filter(payloads[i], ModeDisplay))
		}
	}

	return results
}

// chat issues one model request, recording API call counts, token
// usage, and ledger entries.
func (o *Orchestrator) chat(ctx context.Context, tracker *perf.Tracker, messages []llm.Message, toolDefs []llm.ToolDef, kind string) (*llm.ChatResponse, error) {
	tracker.AddAPICall()

	resp, err := o.llm.Chat(ctx, messages, toolDefs)
	if err != nil {
		tracker.AddError()
		return nil, fmt.Errorf("chat request: %w", err)
	}

	tracker.AddTokens(resp.InputTokens, resp.OutputTokens)
	o.recordUsage(ctx, resp, kind)
	return resp, nil
}

// recordUsage appends one ledger record for a model response. Ledger
// failures are logged, never surfaced: cost accounting must not fail a
// conversation turn.
func (o *Orchestrator) recordUsage(ctx context.Context, resp *llm.ChatResponse, kind string) {
	if o.usage == nil {
		return
	}

	err := o.usage.Record(ctx, usage.Record{
		SessionID:    o.sessionID,
		Model:        resp.Model,
		Provider:     o.provider,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      usage.ComputeCost(resp.Model, resp.InputTokens, resp.OutputTokens, usage.DefaultPricing),
		Kind:         kind,
	})
	if err != nil {
		o.logger.Warn("could not record usage", "error", err)
	}
}

// persistConversation stores the raw query and answer through the
// memory tool so future turns and sessions can recall them. Best
// effort: a failed write is logged and the answer still returned.
func (o *Orchestrator) persistConversation(ctx context.Context, query, answer string) {
	now := o.now()
	res := o.gateway.Invoke(ctx, "store_travel_memory", map[string]any{
		"key": "conversation_" + now.Format("20060102_150405"),
		"data": map[string]any{
			"timestamp":         now.Format("2006-01-02T15:04:05"),
			"user_query":        query,
			"agent_response":    answer,
			"conversation_type": "travel_planning",
		},
	}, "")
	if res.Failed {
		o.logger.Warn("could not store conversation memory", "payload", res.Payload)
	}
}

// buildMessages assembles the model request: system prompt, the
// conversation so far, and the workflow instruction for this step.
func (o *Orchestrator) buildMessages(history []llm.Message, instruction string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: prompts.SystemPrompt()})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: instruction})
	return messages
}

// toToolDefs converts MCP tool definitions to the model-facing schema.
func toToolDefs(defs []mcp.ToolDefinition) []llm.ToolDef {
	out := make([]llm.ToolDef, 0, len(defs))
	for _, d := range defs {
		params := d.InputSchema
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, llm.ToolDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	return out
}

// encodePayload renders a filtered tool payload as the tool-role
// message body.
func encodePayload(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}
