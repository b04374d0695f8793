package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// workspaceDirName is the dot-directory holding workspace-local state.
const workspaceDirName = ".travel_agent"

// BudgetRange is the traveler's per-night/per-leg budget window in USD.
type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// MCPServer describes a remote tool server the workspace knows about.
// HTTP servers are addressed by URL; stdio servers are launched as a
// subprocess from Command.
type MCPServer struct {
	Enabled   bool     `json:"enabled"`
	Transport string   `json:"transport"` // "http" or "stdio"
	URL       string   `json:"url,omitempty"`
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	Env       []string `json:"env,omitempty"`
}

// WorkspaceConfig holds per-workspace travel preferences. It is
// serialized as the JSON object at .travel_agent/config.json.
type WorkspaceConfig struct {
	PreferredAirlines    []string             `json:"preferred_airlines"`
	PreferredHotelChains []string             `json:"preferred_hotel_chains"`
	BudgetRange          BudgetRange          `json:"budget_range"`
	TravelStyle          string               `json:"travel_style"`
	MCPServers           map[string]MCPServer `json:"mcp_servers"`
	MemoryRetentionDays  int                  `json:"memory_retention_days"`
	EnabledTools         []string             `json:"enabled_tools"`
	DisabledTools        []string             `json:"disabled_tools"`
	PreferencesUpdated   string               `json:"preferences_updated,omitempty"`
}

// defaultWorkspaceConfig returns the baseline preferences used when no
// config file exists or when it cannot be parsed.
func defaultWorkspaceConfig() *WorkspaceConfig {
	return &WorkspaceConfig{
		PreferredAirlines:    []string{},
		PreferredHotelChains: []string{},
		BudgetRange:          BudgetRange{Min: 100, Max: 1000},
		TravelStyle:          "moderate",
		MCPServers:           map[string]MCPServer{},
		MemoryRetentionDays:  30,
		EnabledTools:         []string{},
		DisabledTools:        []string{},
	}
}

// Workspace provides lazily-loaded, cached access to the workspace
// config file. One Workspace is created per process; all accessors are
// safe for concurrent use.
type Workspace struct {
	root string

	mu     sync.Mutex
	cached *WorkspaceConfig
}

// NewWorkspace creates a workspace rooted at the given directory.
// An empty root means the current working directory.
func NewWorkspace(root string) *Workspace {
	if root == "" {
		root = "."
	}
	return &Workspace{root: root}
}

// Path returns the location of the workspace config file.
func (w *Workspace) Path() string {
	return filepath.Join(w.root, workspaceDirName, "config.json")
}

// Config returns the workspace configuration, loading it from disk on
// first access. Missing or malformed files yield the defaults — a
// broken preferences file must never fail a conversation turn.
func (w *Workspace) Config() *WorkspaceConfig {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cached == nil {
		w.cached = w.load()
	}

	// Hand out a copy so callers cannot mutate the cache in place.
	out := *w.cached
	return &out
}

func (w *Workspace) load() *WorkspaceConfig {
	cfg := defaultWorkspaceConfig()

	data, err := os.ReadFile(w.Path())
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return defaultWorkspaceConfig()
	}
	return cfg
}

// Save writes the workspace configuration to disk and replaces the
// cache. The preferences_updated stamp is set to the save time.
func (w *Workspace) Save(cfg *WorkspaceConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cfg.PreferencesUpdated = time.Now().Format(time.RFC3339)

	dir := filepath.Dir(w.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workspace config: %w", err)
	}

	if err := os.WriteFile(w.Path(), data, 0o644); err != nil {
		return fmt.Errorf("write workspace config: %w", err)
	}

	saved := *cfg
	w.cached = &saved
	return nil
}

// Update applies a partial update to the workspace configuration.
// Only keys present in updates are changed; unknown keys are ignored.
func (w *Workspace) Update(updates map[string]any) (*WorkspaceConfig, error) {
	cfg := w.Config()

	if v, ok := updates["preferred_airlines"]; ok {
		cfg.PreferredAirlines = toStringSlice(v)
	}
	if v, ok := updates["preferred_hotel_chains"]; ok {
		cfg.PreferredHotelChains = toStringSlice(v)
	}
	if v, ok := updates["travel_style"].(string); ok {
		cfg.TravelStyle = v
	}
	if v, ok := updates["budget_range"].(map[string]any); ok {
		if minVal, ok := v["min"].(float64); ok {
			cfg.BudgetRange.Min = int(minVal)
		}
		if maxVal, ok := v["max"].(float64); ok {
			cfg.BudgetRange.Max = int(maxVal)
		}
	}
	if v, ok := updates["memory_retention_days"].(float64); ok {
		cfg.MemoryRetentionDays = int(v)
	}
	if v, ok := updates["enabled_tools"]; ok {
		cfg.EnabledTools = toStringSlice(v)
	}
	if v, ok := updates["disabled_tools"]; ok {
		cfg.DisabledTools = toStringSlice(v)
	}

	if err := w.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toStringSlice converts a decoded JSON array into []string, skipping
// non-string elements.
func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
