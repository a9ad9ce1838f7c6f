package services

import (
	"testing"
	"time"

	"media-search-platform/models"
)

func seg(name, text string) models.Segment {
	return models.Segment{SourceName: name, SegmentID: name, Kind: models.KindWholeDocument, Text: text}
}

func TestSessionStoreAddAndAll(t *testing.T) {
	s := NewSessionStore(time.Hour)

	if !s.Add("s1", seg("a.txt", "alpha")) {
		t.Fatal("first add must insert")
	}
	if !s.Add("s1", seg("b.txt", "beta")) {
		t.Fatal("second add must insert")
	}
	if got := len(s.All("s1")); got != 2 {
		t.Fatalf("session holds %d segments, want 2", got)
	}
	if got := s.All("other"); got != nil {
		t.Fatalf("unknown session must be empty, got %d", len(got))
	}
}

func TestSessionStoreAddDuplicateText(t *testing.T) {
	s := NewSessionStore(time.Hour)
	s.Add("s1", seg("a.txt", "same content"))

	if s.Add("s1", seg("renamed.txt", "same content")) {
		t.Fatal("duplicate text must not insert")
	}
	if got := len(s.All("s1")); got != 1 {
		t.Fatalf("session holds %d segments, want 1", got)
	}
}

func TestSessionStoreAddRejectsEmpty(t *testing.T) {
	s := NewSessionStore(time.Hour)
	if s.Add("", seg("a.txt", "text")) {
		t.Error("empty session ID must be rejected")
	}
	if s.Add("s1", seg("a.txt", "")) {
		t.Error("empty text must be rejected")
	}
}

func TestSessionStoreContainsTextRefreshes(t *testing.T) {
	s := NewSessionStore(time.Hour)
	s.Add("s1", seg("a.txt", "alpha"))

	// Age the entry past the TTL, then touch it via ContainsText.
	old := time.Now().Add(-2 * time.Hour)
	s.sessions["s1"].entries[0].lastTouched = old

	if !s.ContainsText("s1", "alpha") {
		t.Fatal("ContainsText must find the entry")
	}
	if s.ContainsText("s1", "missing") {
		t.Fatal("ContainsText must not match absent text")
	}

	if removed := s.sweep(time.Now()); removed != 0 {
		t.Fatalf("sweep removed %d entries after refresh, want 0", removed)
	}
}

func TestSessionStoreSweepStrictlyOlder(t *testing.T) {
	ttl := time.Hour
	s := NewSessionStore(ttl)
	now := time.Now()

	s.Add("s1", seg("fresh.txt", "fresh"))
	s.Add("s1", seg("edge.txt", "edge"))
	s.Add("s1", seg("stale.txt", "stale"))

	entries := s.sessions["s1"].entries
	entries[0].lastTouched = now.Add(-ttl + time.Minute)
	entries[1].lastTouched = now.Add(-ttl) // exactly at the cutoff
	entries[2].lastTouched = now.Add(-ttl - time.Minute)

	if removed := s.sweep(now); removed != 1 {
		t.Fatalf("sweep removed %d entries, want 1", removed)
	}

	remaining := s.All("s1")
	if len(remaining) != 2 {
		t.Fatalf("session holds %d segments after sweep, want 2", len(remaining))
	}
	for _, r := range remaining {
		if r.SourceName == "stale.txt" {
			t.Error("stale entry survived the sweep")
		}
	}
}

func TestSessionStoreSweepDropsEmptySessions(t *testing.T) {
	ttl := time.Hour
	s := NewSessionStore(ttl)
	now := time.Now()

	s.Add("gone", seg("a.txt", "alpha"))
	s.sessions["gone"].entries[0].lastTouched = now.Add(-2 * ttl)

	s.sweep(now)

	s.mu.RLock()
	_, exists := s.sessions["gone"]
	s.mu.RUnlock()
	if exists {
		t.Error("emptied session must be deleted")
	}
}
