package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gulguluu/travel-agent/internal/llm"
)

// Chat UI styles. Green for agent output, cyan for the prompt, dim for
// hints, mirroring the terminal feel of the tool server logs.
var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2")).
			Foreground(lipgloss.Color("2")).
			Bold(true).
			Padding(0, 2)

	answerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2")).
			Padding(0, 1).
			Width(100)

	answerTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("2")).
				Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	toolResultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2")).
			Padding(0, 1)
)

// renderToolResult prints the display projection of one executed tool
// result as a titled panel.
func renderToolResult(w io.Writer, name string, payload any) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		body = []byte(fmt.Sprintf("%v", payload))
	}
	fmt.Fprintln(w, answerTitleStyle.Render("Result from "+name))
	fmt.Fprintln(w, toolResultStyle.Render(string(body)))
}

// followUpSignals mark an answer as a request for more input: the chat
// keeps the session open instead of ending after a one-shot query.
var followUpSignals = []string{
	"need", "clarify", "question", "provide", "could you", "what are",
}

func wantsFollowUp(answer string) bool {
	lower := strings.ToLower(answer)
	for _, signal := range followUpSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// runChat drives an interactive conversation. An initial query may be
// passed as arguments; the session then continues until the user quits
// or the conversation resolves.
func runChat(ctx context.Context, stdout io.Writer, stdin io.Reader, configPath string, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(io.Discard, slog.LevelInfo)

	orch, cleanup, err := buildOrchestrator(ctx, cfg, logger, func(name string, payload any) {
		renderToolResult(stdout, name, payload)
	})
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintln(stdout, bannerStyle.Render("Interactive Travel Agent with Memory"))
	fmt.Fprintln(stdout, hintStyle.Render("Type 'quit' to exit."))
	fmt.Fprintln(stdout)

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var history []llm.Message
	initialQuery := strings.Join(args, " ")

	for {
		var query string
		if initialQuery != "" && len(history) == 0 {
			query = initialQuery
			fmt.Fprintf(stdout, "%s %s\n", promptStyle.Render(">"), query)
		} else {
			fmt.Fprintf(stdout, "%s ", promptStyle.Render(">"))
			if !scanner.Scan() {
				return scanner.Err()
			}
			query = strings.TrimSpace(scanner.Text())
		}

		switch strings.ToLower(query) {
		case "quit", "exit", "bye":
			return nil
		case "":
			continue
		}

		history = append(history, llm.Message{Role: "user", Content: query})

		answer, err := orch.Turn(ctx, history)
		if err != nil {
			fmt.Fprintln(stdout, errorStyle.Render(fmt.Sprintf("turn failed: %v", err)))
			// Drop the failed query so a retry starts clean.
			history = history[:len(history)-1]
			continue
		}
		history = append(history, llm.Message{Role: "assistant", Content: answer})

		title := "Travel Plan"
		if len(history) == 2 {
			title = "Travel Agent Response"
		}
		fmt.Fprintln(stdout, answerTitleStyle.Render(title))
		fmt.Fprintln(stdout, answerStyle.Render(answer))
		fmt.Fprintln(stdout)

		// A one-shot query ends the session once the agent stops asking
		// for more information.
		if initialQuery != "" && len(history) == 2 {
			if !wantsFollowUp(answer) {
				return nil
			}
			fmt.Fprintln(stdout, hintStyle.Render("Continue the conversation by providing the requested information..."))
		}
	}
}
