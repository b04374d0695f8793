// Travel-agent is a conversational travel planner built on an MCP tool
// server.
//
// The serve command runs the tool server: 28 travel tools (flight and
// hotel search, weather, geocoding, currency, memory, planning) behind
// a streamable-HTTP MCP endpoint. The chat and ask commands run the
// conversational client against that server. Configuration is loaded
// from a YAML file discovered automatically (see
// [config.DefaultSearchPaths]); API keys fall back to the environment.
//
// Usage:
//
//	travel-agent serve             Start the MCP tool server
//	travel-agent chat              Interactive travel planning session
//	travel-agent ask <question>    One-shot question
//	travel-agent stats [days]      Performance and cost summary
//	travel-agent version           Print version and build information
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/gulguluu/travel-agent/internal/agent"
	"github.com/gulguluu/travel-agent/internal/buildinfo"
	"github.com/gulguluu/travel-agent/internal/config"
	"github.com/gulguluu/travel-agent/internal/llm"
	"github.com/gulguluu/travel-agent/internal/mcp"
	"github.com/gulguluu/travel-agent/internal/memory"
	"github.com/gulguluu/travel-agent/internal/perf"
	"github.com/gulguluu/travel-agent/internal/search"
	"github.com/gulguluu/travel-agent/internal/snapshot"
	"github.com/gulguluu/travel-agent/internal/thoughts"
	"github.com/gulguluu/travel-agent/internal/tools"
	"github.com/gulguluu/travel-agent/internal/usage"
)

// main constructs the OS-level environment and delegates to run so the
// full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Stdin, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand: the flag
// package relies on package-level globals, which makes it impossible to
// call run concurrently from tests, and the argument surface here is
// small.
func run(ctx context.Context, stdout, stderr io.Writer, stdin io.Reader, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "chat":
		return runChat(ctx, stdout, stdin, configPath, cmdArgs)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: travel-agent ask <question>")
		}
		return runAsk(ctx, stdout, configPath, strings.Join(cmdArgs, " "))
	case "stats":
		days := 7
		if len(cmdArgs) > 0 {
			n, err := strconv.Atoi(cmdArgs[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("usage: travel-agent stats [days]")
			}
			days = n
		}
		return runStats(stdout, configPath, days)
	case "version":
		return runVersion(stdout)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "travel-agent - Conversational travel planner over MCP tools")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: travel-agent [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve            Start the MCP tool server")
	fmt.Fprintln(w, "  chat [query]     Interactive travel planning session")
	fmt.Fprintln(w, "  ask <question>   One-shot question")
	fmt.Fprintln(w, "  stats [days]     Performance and cost summary (default: 7 days)")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>   Path to config file (default: auto-discover)")
	return nil
}

func runVersion(w io.Writer) error {
	fmt.Fprintln(w, buildinfo.String())
	info := buildinfo.Info()
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// loadConfig finds and loads the runtime config. A missing config file
// is not an error: defaults plus environment variables cover the
// common local setup.
func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runServe starts the MCP tool server and blocks until a shutdown
// signal arrives or the context is cancelled.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		level, err = config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
	}
	logger := newLogger(stdout, level)
	logger.Info("starting travel-agent server", "version", buildinfo.Version)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	workspace := config.NewWorkspace("")

	// Memory store, pruned per the workspace retention setting.
	memStore := memory.NewStore(filepath.Join(cfg.DataDir, "travel_memory"))
	if days := workspace.Config().MemoryRetentionDays; days > 0 {
		if n, err := memStore.Prune(time.Duration(days) * 24 * time.Hour); err != nil {
			logger.Warn("memory prune failed", "error", err)
		} else if n > 0 {
			logger.Info("pruned expired memories", "count", n, "retention_days", days)
		}
	}

	// Web search: DuckDuckGo needs no key; Brave joins when configured.
	searchMgr := search.NewManager(cfg.Search.Provider)
	searchMgr.Register(search.NewDuckDuckGo())
	if cfg.Search.BraveAPIKey != "" {
		searchMgr.Register(search.NewBrave(cfg.Search.BraveAPIKey))
	}

	// The chat/vision model is optional on the server side: without it
	// the advice and screenshot-analysis tools report themselves
	// unconfigured instead of failing.
	var llmClient llm.Client
	if cfg.LLM.Configured() {
		client, err := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:      cfg.LLM.APIKey(),
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		llmClient = client
	} else {
		logger.Warn("no LLM API key configured - advice and vision tools disabled")
	}

	registry := tools.NewRegistry(tools.Deps{
		Logger:    logger,
		Search:    searchMgr,
		LLM:       llmClient,
		Memory:    memStore,
		Thoughts:  thoughts.NewLedger(),
		Snapshot:  snapshot.NewClient(cfg.Snapshot.URL, cfg.Snapshot.Token),
		Workspace: workspace,
	})
	logger.Info("tool registry ready", "tools", len(registry.Names()))

	bridgeWorkspaceServers(ctx, workspace, registry, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port),
		Handler:           mcp.NewServer(registry, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("MCP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// bridgeWorkspaceServers connects to the enabled remote MCP servers in
// the workspace config and registers their tools on the registry.
// Bridging failures are logged; the native tool set works regardless.
func bridgeWorkspaceServers(ctx context.Context, workspace *config.Workspace, registry *tools.Registry, logger *slog.Logger) {
	for name, server := range workspace.Config().MCPServers {
		if !server.Enabled {
			continue
		}
		transport, err := serverTransport(server, logger)
		if err != nil {
			logger.Warn("skipping MCP server", "server", name, "error", err)
			continue
		}

		client := mcp.NewClient(name, transport, logger)

		initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err = client.Initialize(initCtx)
		if err == nil {
			_, err = mcp.BridgeTools(initCtx, client, name, registry, nil, nil, logger)
		}
		cancel()
		if err != nil {
			logger.Warn("could not bridge MCP server", "server", name, "error", err)
		}
	}
}

// serverTransport builds the MCP transport for a configured workspace
// server.
func serverTransport(server config.MCPServer, logger *slog.Logger) (mcp.Transport, error) {
	switch server.Transport {
	case "http":
		if server.URL == "" {
			return nil, errors.New("http transport requires a url")
		}
		return mcp.NewHTTPTransport(mcp.HTTPConfig{
			URL:    server.URL,
			Logger: logger,
		}), nil
	case "stdio":
		if server.Command == "" {
			return nil, errors.New("stdio transport requires a command")
		}
		return mcp.NewStdioTransport(mcp.StdioConfig{
			Command: server.Command,
			Args:    server.Args,
			Env:     server.Env,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", server.Transport)
	}
}

// buildOrchestrator wires the conversational client: LLM, gateway to
// the tool server, and the cost ledger. The LLM credential is the one
// hard startup requirement. onToolResult receives the display
// projection of each executed tool result; nil means no tool output is
// shown.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger, onToolResult func(name string, payload any)) (*agent.Orchestrator, func(), error) {
	if !cfg.LLM.Configured() {
		return nil, nil, errors.New("no LLM API key configured: set OPENAI_API_KEY or OPENROUTER_API_KEY")
	}

	llmClient, err := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey(),
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}

	client := mcp.NewClient("travel-tools", mcp.NewHTTPTransport(mcp.HTTPConfig{
		URL:    strings.TrimRight(cfg.Agent.ServerURL, "/") + "/mcp",
		Logger: logger,
	}), logger)

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := client.Initialize(initCtx); err != nil {
		return nil, nil, fmt.Errorf("tool server not reachable at %s (start it with 'travel-agent serve'): %w",
			cfg.Agent.ServerURL, err)
	}

	cleanup := func() { client.Close() }

	provider := "openai"
	if cfg.LLM.OpenRouterAPIKey != "" {
		provider = "openrouter"
	}

	// The cost ledger is best-effort; a broken database disables it.
	var usageStore *usage.Store
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
			usageStore, err = usage.NewStore(filepath.Join(cfg.DataDir, "usage.db"))
			if err != nil {
				logger.Warn("usage ledger unavailable", "error", err)
			}
		}
	}
	if usageStore != nil {
		prev := cleanup
		cleanup = func() {
			usageStore.Close()
			prev()
		}
	}

	orch := agent.NewOrchestrator(agent.Config{
		LLM:          llmClient,
		Gateway:      agent.NewGateway(client, logger),
		Logger:       logger,
		DataDir:      cfg.DataDir,
		Usage:        usageStore,
		Provider:     provider,
		SessionID:    uuid.NewString(),
		MaxToolCalls: cfg.Agent.MaxToolCalls,
		OnToolResult: onToolResult,
	})
	return orch, cleanup, nil
}

// runAsk answers a single question and exits.
func runAsk(ctx context.Context, stdout io.Writer, configPath, question string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(io.Discard, slog.LevelInfo)

	orch, cleanup, err := buildOrchestrator(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	answer, err := orch.Turn(ctx, []llm.Message{{Role: "user", Content: question}})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, answer)
	return nil
}

// runStats prints aggregated performance and cost figures for the
// recent window.
func runStats(stdout io.Writer, configPath string, days int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	stats, err := perf.ReadStats(cfg.DataDir, days)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Performance (last %d days)\n", days)
	fmt.Fprintf(stdout, "  queries:      %d\n", stats.TotalQueries)
	fmt.Fprintf(stdout, "  avg duration: %.2fs\n", stats.AvgDuration)
	fmt.Fprintf(stdout, "  avg tokens:   %.0f\n", stats.AvgTokens)
	fmt.Fprintf(stdout, "  api calls:    %d\n", stats.TotalAPICalls)
	fmt.Fprintf(stdout, "  tool calls:   %d\n", stats.TotalToolCalls)
	fmt.Fprintf(stdout, "  errors:       %d\n", stats.TotalErrors)

	// Cost figures come from the usage ledger when it exists.
	dbPath := filepath.Join(cfg.DataDir, "usage.db")
	if _, err := os.Stat(dbPath); err != nil {
		return nil
	}
	store, err := usage.NewStore(dbPath)
	if err != nil {
		return nil
	}
	defer store.Close()

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	sum, err := store.Summary(start, end)
	if err != nil {
		return nil
	}

	fmt.Fprintf(stdout, "\nUsage (last %d days)\n", days)
	fmt.Fprintf(stdout, "  llm calls:     %d\n", sum.TotalRecords)
	fmt.Fprintf(stdout, "  input tokens:  %d\n", sum.TotalInputTokens)
	fmt.Fprintf(stdout, "  output tokens: %d\n", sum.TotalOutputTokens)
	fmt.Fprintf(stdout, "  est. cost:     $%.4f\n", sum.TotalCostUSD)

	byModel, err := store.SummaryByModel(start, end)
	if err == nil && len(byModel) > 0 {
		fmt.Fprintln(stdout, "\n  by model:")
		for model, s := range byModel {
			fmt.Fprintf(stdout, "    %-24s %d calls  $%.4f\n", model, s.TotalRecords, s.TotalCostUSD)
		}
	}
	return nil
}
