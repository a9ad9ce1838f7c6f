package routes

import (
	"strings"
	"testing"

	"media-search-platform/models"
)

func TestBuildContextIncludesHistory(t *testing.T) {
	got := buildContext("segment body", []models.ChatMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	})

	if !strings.HasPrefix(got, "segment body") {
		t.Errorf("context must start with the segment text, got %q", got[:20])
	}
	if !strings.Contains(got, "user: earlier question") {
		t.Error("context missing history entry")
	}
}

func TestBuildContextTailTruncation(t *testing.T) {
	long := strings.Repeat("x", maxContextChars+500)
	got := buildContext(long, []models.ChatMessage{{Role: "user", Content: "recent-marker"}})

	if len(got) != maxContextChars {
		t.Fatalf("context length = %d, want %d", len(got), maxContextChars)
	}
	if !strings.Contains(got, "recent-marker") {
		t.Error("truncation must keep the tail, which holds the recent history")
	}
}
