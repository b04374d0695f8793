// Package tools defines the travel tools exposed by the MCP server.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gulguluu/travel-agent/internal/config"
	"github.com/gulguluu/travel-agent/internal/geo"
	"github.com/gulguluu/travel-agent/internal/httpkit"
	"github.com/gulguluu/travel-agent/internal/llm"
	"github.com/gulguluu/travel-agent/internal/memory"
	"github.com/gulguluu/travel-agent/internal/search"
	"github.com/gulguluu/travel-agent/internal/snapshot"
	"github.com/gulguluu/travel-agent/internal/thoughts"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`

	Handler func(ctx context.Context, args map[string]any) (any, error) `json:"-"`
}

// Deps carries the shared services the tool handlers work against.
// Optional integrations (LLM, Snapshot) may be nil; tools depending on
// them report themselves unconfigured instead of failing.
type Deps struct {
	Logger    *slog.Logger
	HTTP      *http.Client
	Geo       *geo.Client
	Search    *search.Manager
	LLM       llm.Client
	Memory    *memory.Store
	Thoughts  *thoughts.Ledger
	Snapshot  *snapshot.Client
	Workspace *config.Workspace

	// WorkspaceRoot is where TRAVEL_CONTEXT.md files are looked up.
	WorkspaceRoot string
}

// Registry holds available tools in registration order.
type Registry struct {
	tools map[string]*Tool
	order []string

	logger    *slog.Logger
	http      *http.Client
	geo       *geo.Client
	search    *search.Manager
	llm       llm.Client
	memory    *memory.Store
	thoughts  *thoughts.Ledger
	snapshot  *snapshot.Client
	workspace *config.Workspace
	root      string

	// Endpoint overrides for tests.
	weatherURL  string
	currencyURL string
	wikiURL     string
	osrmURL     string
}

// NewRegistry creates a tool registry and registers the full travel
// tool set in a fixed order, so tools/list output is stable across
// runs.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.HTTP == nil {
		deps.HTTP = httpkit.NewClient()
	}
	if deps.Geo == nil {
		deps.Geo = geo.NewClient(geo.WithHTTPClient(deps.HTTP))
	}

	r := &Registry{
		tools:     make(map[string]*Tool),
		logger:    deps.Logger,
		http:      deps.HTTP,
		geo:       deps.Geo,
		search:    deps.Search,
		llm:       deps.LLM,
		memory:    deps.Memory,
		thoughts:  deps.Thoughts,
		snapshot:  deps.Snapshot,
		workspace: deps.Workspace,
		root:      deps.WorkspaceRoot,

		weatherURL:  "https://api.open-meteo.com/v1/forecast",
		currencyURL: "https://api.exchangerate.host/convert",
		wikiURL:     "https://en.wikipedia.org/api/rest_v1/page/summary",
		osrmURL:     "https://router.project-osrm.org",
	}

	// Core information tools.
	r.registerSearchTools()
	r.registerGeoTools()
	r.registerWeatherTools()
	r.registerInfoTools()
	r.registerDateTools()
	r.registerAirportTools()

	// Main travel search tools (screenshot + vision).
	r.registerFlightTools()
	r.registerHotelTools()

	// Local transport.
	r.registerTransitTools()

	// AI, memory, and reasoning tools.
	r.registerAdviceTools()
	r.registerMemoryTools()
	r.registerThinkingTools()

	// Plan verification and workspace management.
	r.registerAdminTools()

	return r
}

// NewEmptyRegistry creates a registry with no tools registered, for
// callers that populate it entirely from elsewhere (bridged MCP
// servers).
func NewEmptyRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: slog.Default(),
	}
}

// Register adds a tool to the registry. Re-registering a name replaces
// the handler but keeps its original position.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil if unknown or disabled.
func (r *Registry) Get(name string) *Tool {
	if !r.enabled(name) {
		return nil
	}
	return r.tools[name]
}

// Names returns the enabled tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.enabled(name) {
			out = append(out, name)
		}
	}
	return out
}

// Tools returns the enabled tools in registration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		if r.enabled(name) {
			out = append(out, r.tools[name])
		}
	}
	return out
}

// List returns the enabled tools as OpenAI function definitions, in
// registration order.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, t := range r.Tools() {
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// enabled applies the workspace enabled/disabled tool lists. An empty
// enabled_tools list means everything not disabled is available.
func (r *Registry) enabled(name string) bool {
	if r.workspace == nil {
		return true
	}
	cfg := r.workspace.Config()
	for _, d := range cfg.DisabledTools {
		if d == name {
			return false
		}
	}
	if len(cfg.EnabledTools) == 0 {
		return true
	}
	for _, e := range cfg.EnabledTools {
		if e == name {
			return true
		}
	}
	return false
}

// Execute runs a tool by name with JSON-encoded arguments and returns
// its structured payload.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) (any, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	var args map[string]any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	return tool.Handler(ctx, args)
}

// Call runs a tool with already-decoded arguments.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Handler(ctx, args)
}

// Argument decoding helpers. JSON numbers arrive as float64; tool
// callers sometimes send numbers as strings, so the int/float helpers
// accept both.

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func floatArg(args map[string]any, key string, def float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f
		}
	}
	return def
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func mapArg(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func errRequired(name string) error {
	return fmt.Errorf("%s is required", name)
}

// searchOptions builds the default search options used by the
// search-backed tools.
func searchOptions(count int) search.Options {
	return search.Options{Count: count, Region: "us-en"}
}

// errorPayload is the uniform failure shape tools return. Handler
// errors are reserved for malformed calls; expected failures travel as
// data so the model can react to them.
func errorPayload(format string, a ...any) map[string]any {
	return map[string]any{"success": false, "error": fmt.Sprintf(format, a...)}
}
