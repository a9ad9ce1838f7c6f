package services

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFFmpegTranscoderDefaults(t *testing.T) {
	tr := NewFFmpegTranscoder("", 0)
	if tr.Path != "ffmpeg" {
		t.Errorf("default path = %q", tr.Path)
	}
	if tr.Timeout != 120*time.Second {
		t.Errorf("default timeout = %s", tr.Timeout)
	}
}

func TestFFmpegTranscoderMissingBinary(t *testing.T) {
	tr := NewFFmpegTranscoder("/nonexistent/ffmpeg-binary", time.Second)

	err := tr.ExtractAudio(context.Background(), "in.mp4", t.TempDir()+"/out.wav")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "executable not found") {
		t.Errorf("error should name the missing executable, got: %v", err)
	}
}

func TestTail(t *testing.T) {
	if got := tail("short", 512); got != "short" {
		t.Errorf("short input must pass through, got %q", got)
	}
	long := strings.Repeat("x", 600)
	got := tail(long, 512)
	if len(got) != 515 || !strings.HasPrefix(got, "...") {
		t.Errorf("tail output length = %d, prefix %q", len(got), got[:3])
	}
}
