package agent

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFilterNonMapPayloads(t *testing.T) {
	long := strings.Repeat("x", 900)

	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"short string", "hello", "hello"},
		{"long string truncated", long, long[:500]},
		{"number coerced", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []FilterMode{ModeContext, ModeDisplay} {
				got := Filter(tt.payload, mode)
				if got != tt.want {
					t.Errorf("Filter(mode=%d) = %q, want %q", mode, got, tt.want)
				}
			}
		})
	}
}

func TestFilterBase64Fields(t *testing.T) {
	payload := map[string]any{
		"url":               "https://example.com",
		"screenshot_base64": strings.Repeat("A", 1<<20),
		"Base64Thumbnail":   "abc", // case-insensitive, any size
	}

	display := Filter(payload, ModeDisplay).(map[string]any)
	if _, ok := display["screenshot_base64"]; ok {
		t.Error("display mode should omit screenshot_base64")
	}
	if _, ok := display["Base64Thumbnail"]; ok {
		t.Error("display mode should omit Base64Thumbnail")
	}
	if display["url"] != "https://example.com" {
		t.Error("display mode should keep ordinary fields")
	}

	context := Filter(payload, ModeContext).(map[string]any)
	if context["screenshot_base64"] != "[image data removed]" {
		t.Errorf("context marker = %v", context["screenshot_base64"])
	}
	if context["Base64Thumbnail"] != "[image data removed]" {
		t.Errorf("context marker = %v", context["Base64Thumbnail"])
	}
}

func TestFilterLongStrings(t *testing.T) {
	long := strings.Repeat("y", 5000)
	payload := map[string]any{"analysis": long}

	context := Filter(payload, ModeContext).(map[string]any)
	got := context["analysis"].(string)
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Errorf("context value missing truncation suffix: %q", got[len(got)-30:])
	}
	if kept := strings.TrimSuffix(got, "...[truncated]"); len(kept) != 2000 {
		t.Errorf("kept %d chars, want 2000", len(kept))
	}

	display := Filter(payload, ModeDisplay).(map[string]any)
	if display["analysis"] != "[truncated string, 5000 chars]" {
		t.Errorf("display marker = %v", display["analysis"])
	}
}

func TestFilterTruncationIsRuneSafe(t *testing.T) {
	long := strings.Repeat("é", 3000)
	payload := map[string]any{"notes": long}

	context := Filter(payload, ModeContext).(map[string]any)
	got := context["notes"].(string)
	if !utf8.ValidString(got) {
		t.Error("context truncation split a rune")
	}
	kept := strings.TrimSuffix(got, "...[truncated]")
	if n := utf8.RuneCountInString(kept); n != 2000 {
		t.Errorf("kept %d runes, want 2000", n)
	}

	// The display marker counts characters, not bytes.
	display := Filter(payload, ModeDisplay).(map[string]any)
	if display["notes"] != "[truncated string, 3000 chars]" {
		t.Errorf("display marker = %v", display["notes"])
	}

	short := Filter(strings.Repeat("ü", 600), ModeContext).(string)
	if !utf8.ValidString(short) {
		t.Error("non-map truncation split a rune")
	}
	if n := utf8.RuneCountInString(short); n != 500 {
		t.Errorf("non-map kept %d runes, want 500", n)
	}
}

func TestFilterBoundaryAndPassthrough(t *testing.T) {
	exactly2000 := strings.Repeat("z", 2000)
	payload := map[string]any{
		"note":  exactly2000,
		"count": 3.0,
		"ok":    true,
	}

	for _, mode := range []FilterMode{ModeContext, ModeDisplay} {
		got := Filter(payload, mode).(map[string]any)
		if got["note"] != exactly2000 {
			t.Errorf("mode %d: 2000-char string should pass through unchanged", mode)
		}
		if got["count"] != 3.0 || got["ok"] != true {
			t.Errorf("mode %d: non-string values should pass through", mode)
		}
	}
}
