package memory

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func makeMessages(n int) []ConversationMessage {
	msgs := make([]ConversationMessage, n)
	for i := range msgs {
		msgs[i] = ConversationMessage{Role: "user", Content: "filler"}
	}
	return msgs
}

func TestCompressTooShort(t *testing.T) {
	s := NewStore(t.TempDir())

	res, err := s.Compress(makeMessages(9))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if res.Compressed {
		t.Error("compressed a 9-message conversation")
	}
	if res.Reason != "Not enough messages to compress" {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestCompressBoundaryWindow(t *testing.T) {
	s := NewStore(t.TempDir())

	// 10 through 15 messages inclusive are left alone.
	for _, n := range []int{10, 12, 15} {
		res, err := s.Compress(makeMessages(n))
		if err != nil {
			t.Fatalf("Compress(%d): %v", n, err)
		}
		if res.Compressed {
			t.Errorf("Compress(%d) compressed inside the no-op window", n)
		}
		if res.Reason != "Conversation not long enough for compression" {
			t.Errorf("Compress(%d) reason = %q", n, res.Reason)
		}
	}
}

func TestCompressLongConversation(t *testing.T) {
	s := NewStore(t.TempDir())

	msgs := makeMessages(20)
	// Two middle messages carry travel keywords; one is over 200 chars.
	msgs[5].Content = "My BUDGET is around $2000 for the whole trip"
	msgs[8].Content = "I prefer boutique hotels near the old town. " + strings.Repeat("More detail. ", 20)
	// Head and tail keyword mentions must not become key points.
	msgs[0].Content = "Thinking about a flight soon"
	msgs[19].Content = "What hotel did we pick?"

	res, err := s.Compress(msgs)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !res.Compressed {
		t.Fatal("expected compression")
	}
	if res.NewLength != 7 {
		t.Errorf("new_length = %d, want 7", res.NewLength)
	}
	if res.CompressionRatio != "20:7" {
		t.Errorf("ratio = %q", res.CompressionRatio)
	}

	sum := res.Summary
	if sum.OriginalLength != 20 {
		t.Errorf("original_length = %d", sum.OriginalLength)
	}
	if len(sum.KeyPoints) != 2 {
		t.Fatalf("key points = %d, want 2: %v", len(sum.KeyPoints), sum.KeyPoints)
	}
	// Keyword matching is case-insensitive.
	if !strings.Contains(sum.KeyPoints[0], "BUDGET") {
		t.Errorf("first key point = %q", sum.KeyPoints[0])
	}
	if len(sum.KeyPoints[1]) != 200 {
		t.Errorf("key point not truncated to 200: len %d", len(sum.KeyPoints[1]))
	}

	// Summary must be persisted for later recall.
	entry, err := s.Retrieve("compressed_" + sum.ConversationID)
	if err != nil {
		t.Fatalf("summary not stored: %v", err)
	}
	stored, ok := entry.Data.(map[string]any)
	if !ok {
		t.Fatalf("stored summary type = %T", entry.Data)
	}
	if stored["original_length"].(float64) != 20 {
		t.Errorf("stored original_length = %v", stored["original_length"])
	}
}

func TestCompressKeyPointTruncationIsRuneSafe(t *testing.T) {
	s := NewStore(t.TempDir())

	msgs := makeMessages(20)
	msgs[6].Content = "destination préférée: " + strings.Repeat("é", 300)

	res, err := s.Compress(msgs)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(res.Summary.KeyPoints) != 1 {
		t.Fatalf("key points = %v", res.Summary.KeyPoints)
	}

	kp := res.Summary.KeyPoints[0]
	if !utf8.ValidString(kp) {
		t.Error("truncation split a rune")
	}
	if n := utf8.RuneCountInString(kp); n != 200 {
		t.Errorf("key point is %d runes, want 200", n)
	}
}

func TestCompressNoKeywordsYieldsEmptyKeyPoints(t *testing.T) {
	s := NewStore(t.TempDir())

	res, err := s.Compress(makeMessages(16))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Compressed {
		t.Fatal("expected compression at 16 messages")
	}
	if res.Summary.KeyPoints == nil || len(res.Summary.KeyPoints) != 0 {
		t.Errorf("key points = %v, want empty non-nil slice", res.Summary.KeyPoints)
	}
}
