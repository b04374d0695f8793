package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FilterMode selects which projection of a tool result Filter produces.
type FilterMode int

const (
	// ModeContext is the projection fed back to the model as a
	// tool-role message. Binary fields are elided, long strings capped.
	ModeContext FilterMode = iota

	// ModeDisplay is the projection shown to a human operator. Binary
	// fields are dropped entirely, long strings reduced to a marker.
	ModeDisplay
)

// Caps applied by Filter. Screenshot analysis results routinely carry
// megabytes of base64; without filtering a single flight search blows
// past the model's context window.
const (
	nonMapCap     = 500
	longStringCap = 2000
)

// Filter projects a tool result for either conversation context or
// display. Non-map payloads are stringified and truncated. Map entries
// are classified by key (any key containing "base64", case-insensitive)
// and by value shape (strings longer than 2000 characters).
func Filter(payload any, mode FilterMode) any {
	m, ok := payload.(map[string]any)
	if !ok {
		return truncateRunes(fmt.Sprintf("%v", payload), nonMapCap)
	}

	filtered := make(map[string]any, len(m))
	for key, value := range m {
		str, isStr := value.(string)

		switch {
		case strings.Contains(strings.ToLower(key), "base64"):
			if mode == ModeDisplay {
				continue
			}
			filtered[key] = "[image data removed]"
		case isStr && utf8.RuneCountInString(str) > longStringCap:
			if mode == ModeDisplay {
				filtered[key] = fmt.Sprintf("[truncated string, %d chars]", utf8.RuneCountInString(str))
			} else {
				filtered[key] = truncateRunes(str, longStringCap) + "...[truncated]"
			}
		default:
			filtered[key] = value
		}
	}
	return filtered
}

// truncateRunes caps s at n runes. Place names and forecasts carry
// multibyte characters; slicing bytes could split one mid-sequence.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
