package models

import "testing"

func TestSnippet(t *testing.T) {
	if got := Snippet("short", 200); got != "short" {
		t.Errorf("short text must pass through, got %q", got)
	}

	long := make([]rune, 250)
	for i := range long {
		long[i] = 'x'
	}
	got := Snippet(string(long), 200)
	if len([]rune(got)) != 203 {
		t.Errorf("snippet length = %d runes, want 200 + ellipsis", len([]rune(got)))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("truncated snippet must end with ellipsis marker, got %q", got[len(got)-10:])
	}
}

func TestSnippetExactBoundary(t *testing.T) {
	text := "0123456789"
	if got := Snippet(text, 10); got != text {
		t.Errorf("text at exactly the limit must not be truncated, got %q", got)
	}
}

func TestSegmentIDFormats(t *testing.T) {
	audio := AudioSegmentID("talk.mp4", 2, 30, 45.5)
	if audio != "SEGMENT::AUDIO::talk.mp4::segment:2::30.00-45.50" {
		t.Errorf("audio ID = %q", audio)
	}

	frame := FrameSegmentID("talk.mp4", "00:01:30", "frame_000045.png")
	if frame != "SEGMENT::FRAME::talk.mp4::frame:00:01:30::frame_000045.png" {
		t.Errorf("frame ID = %q", frame)
	}
}
