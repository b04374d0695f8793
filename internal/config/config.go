// Package config handles travel-agent configuration loading.
//
// Configuration comes in two layers. Runtime settings (listen address,
// LLM provider, data directory, log level) live in a YAML file
// discovered via DefaultSearchPaths. Workspace travel preferences
// (preferred airlines, budget range, remote MCP servers, ...) live in a
// JSON file at .travel_agent/config.json inside the workspace and are
// managed by the Workspace type.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/travel-agent/config.yaml,
// /etc/travel-agent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "travel-agent", "config.yaml"))
	}

	paths = append(paths, "/etc/travel-agent/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all runtime travel-agent configuration.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Agent    AgentConfig    `yaml:"agent"`
	DataDir  string         `yaml:"data_dir"`
	LogLevel string         `yaml:"log_level"`
}

// ListenConfig defines the MCP tool server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// LLMConfig defines the chat model provider settings. OpenRouter is
// preferred when both keys are present, matching the provider fallback
// order of the agent.
type LLMConfig struct {
	OpenAIAPIKey     string  `yaml:"openai_api_key"`
	OpenRouterAPIKey string  `yaml:"openrouter_api_key"`
	Model            string  `yaml:"model"`    // default: gpt-4o-mini
	BaseURL          string  `yaml:"base_url"` // override for OpenAI-compatible endpoints
	Temperature      float32 `yaml:"temperature"`
}

// APIKey returns the configured API key, preferring OpenRouter.
func (c LLMConfig) APIKey() string {
	if c.OpenRouterAPIKey != "" {
		return c.OpenRouterAPIKey
	}
	return c.OpenAIAPIKey
}

// Configured reports whether a chat model can be constructed at all.
func (c LLMConfig) Configured() bool {
	return c.APIKey() != ""
}

// SearchConfig defines the web search provider settings.
type SearchConfig struct {
	Provider    string `yaml:"provider"` // "duckduckgo" (default) or "brave"
	BraveAPIKey string `yaml:"brave_api_key"`
}

// SnapshotConfig defines the remote headless-browser renderer used by
// the flight and hotel search tools. When URL is empty those tools
// report themselves unconfigured instead of failing mid-search.
type SnapshotConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// AgentConfig defines conversation orchestration settings.
type AgentConfig struct {
	// MaxToolCalls is an advisory per-turn cap carried for forward
	// compatibility. The workflow does not enforce it as a hard cutoff.
	MaxToolCalls int `yaml:"max_tool_calls"`

	// ServerURL is the MCP tool server the conversational client talks
	// to. Defaults to the local listen address.
	ServerURL string `yaml:"server_url"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables so keys can live in the environment.
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration. Environment variables
// provide the API keys when no config file is present, matching the
// original deployment convention.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8000},
		LLM: LLMConfig{
			OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
			Model:            "gpt-4o-mini",
			Temperature:      0.1,
		},
		Search: SearchConfig{Provider: "duckduckgo"},
		Agent: AgentConfig{
			MaxToolCalls: 15,
			ServerURL:    "http://localhost:8000",
		},
		DataDir: ".",
	}
}
