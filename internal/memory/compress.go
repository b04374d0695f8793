package memory

import (
	"fmt"
	"strings"
)

// Compression thresholds. Conversations shorter than minCompressLen
// are never compressed; conversations must exceed compressOverLen
// before the middle is summarized. The kept window is the first
// keepHead messages plus the last keepTail.
const (
	minCompressLen  = 10
	compressOverLen = 15
	keepHead        = 2
	keepTail        = 5
)

// travelKeywords mark middle messages worth preserving as key points.
var travelKeywords = []string{"destination", "hotel", "flight", "budget", "prefer"}

// ConversationMessage is the minimal shape compression needs.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompressionSummary describes what was squeezed out of a conversation.
type CompressionSummary struct {
	ConversationID string   `json:"conversation_id"`
	OriginalLength int      `json:"original_length"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	CompressedAt   string   `json:"compressed_at"`
}

// CompressionResult is the outcome of a compression attempt.
type CompressionResult struct {
	Compressed       bool                `json:"compressed"`
	Reason           string              `json:"reason,omitempty"`
	Summary          *CompressionSummary `json:"summary,omitempty"`
	NewLength        int                 `json:"new_length,omitempty"`
	CompressionRatio string              `json:"compression_ratio,omitempty"`
}

// Compress summarizes an over-long conversation. Conversations of
// fewer than 10 messages report "not enough"; 10 to 15 messages are
// left alone; anything longer keeps the first 2 and last 5 messages
// and distills the middle into key points. The summary is persisted
// in the store so later sessions can recall what was discussed.
func (s *Store) Compress(messages []ConversationMessage) (*CompressionResult, error) {
	if len(messages) < minCompressLen {
		return &CompressionResult{
			Compressed: false,
			Reason:     "Not enough messages to compress",
		}, nil
	}
	if len(messages) <= compressOverLen {
		return &CompressionResult{
			Compressed: false,
			Reason:     "Conversation not long enough for compression",
		}, nil
	}

	now := s.now()
	summary := &CompressionSummary{
		ConversationID: "compressed_" + now.Format("20060102_150405"),
		OriginalLength: len(messages),
		Summary:        fmt.Sprintf("Conversation with %d messages about travel planning", len(messages)),
		KeyPoints:      []string{},
		CompressedAt:   now.Format("2006-01-02T15:04:05"),
	}

	for _, msg := range messages[keepHead : len(messages)-keepTail] {
		if containsTravelKeyword(msg.Content) {
			summary.KeyPoints = append(summary.KeyPoints, truncate(msg.Content, 200))
		}
	}

	if _, err := s.Store("compressed_"+summary.ConversationID, summary); err != nil {
		return nil, fmt.Errorf("store compression summary: %w", err)
	}

	return &CompressionResult{
		Compressed:       true,
		Summary:          summary,
		NewLength:        keepHead + keepTail,
		CompressionRatio: fmt.Sprintf("%d:%d", len(messages), keepHead+keepTail),
	}, nil
}

func containsTravelKeyword(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range travelKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// truncate caps s at n runes without splitting a multibyte character.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
