package memory

import (
	"os"
	"path/filepath"
	"strings"
)

// ContextFileName is the markdown file travelers use to seed standing
// context, checked in the workspace and under the home dot-directory.
const ContextFileName = "TRAVEL_CONTEXT.md"

// ContextEntry is one loaded context file.
type ContextEntry struct {
	Level   string `json:"level"` // "workspace" or "user"
	Content string `json:"content,omitempty"`
	Source  string `json:"source"`
	Error   string `json:"error,omitempty"`
}

// TravelContext aggregates all discovered context files.
type TravelContext struct {
	Contexts      []ContextEntry `json:"contexts"`
	TotalContexts int            `json:"total_contexts"`
}

// LoadContext reads TRAVEL_CONTEXT.md from the workspace root and the
// user's ~/.travel_agent directory. Missing files are simply skipped;
// a file that exists but cannot be read is reported as an error entry
// so the model can tell the traveler.
func LoadContext(workspaceRoot string) *TravelContext {
	if workspaceRoot == "" {
		workspaceRoot = "."
	}

	type candidate struct {
		level string
		path  string
	}
	candidates := []candidate{
		{"workspace", filepath.Join(workspaceRoot, ContextFileName)},
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, candidate{
			"user", filepath.Join(home, ".travel_agent", ContextFileName),
		})
	}

	out := &TravelContext{Contexts: []ContextEntry{}}
	for _, c := range candidates {
		if _, err := os.Stat(c.path); err != nil {
			continue
		}
		raw, err := os.ReadFile(c.path)
		if err != nil {
			out.Contexts = append(out.Contexts, ContextEntry{
				Level:  c.level,
				Source: c.path,
				Error:  "could not load " + c.path + ": " + err.Error(),
			})
			continue
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			continue
		}
		out.Contexts = append(out.Contexts, ContextEntry{
			Level:   c.level,
			Content: content,
			Source:  c.path,
		})
	}
	out.TotalContexts = len(out.Contexts)
	return out
}
