package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Transcoder demuxes media through an external tool, communicating only via
// the file system and exit codes. Any failure here is fatal for the whole
// ingestion.
type Transcoder interface {
	// ExtractAudio demuxes the audio track into a mono 16kHz PCM WAV file.
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
	// SampleFrames writes frames sampled at the given rate into outDir as
	// frame_000001.png, frame_000002.png, ...
	SampleFrames(ctx context.Context, videoPath, outDir string, fps float64) error
}

// FFmpegTranscoder invokes the ffmpeg binary. Each invocation is bounded by
// Timeout; on expiry the process is killed and the error is surfaced as fatal.
type FFmpegTranscoder struct {
	Path    string
	Timeout time.Duration
}

func NewFFmpegTranscoder(path string, timeout time.Duration) *FFmpegTranscoder {
	if path == "" {
		path = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &FFmpegTranscoder{Path: path, Timeout: timeout}
}

func (t *FFmpegTranscoder) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	args := []string{"-y", "-i", videoPath, "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", wavPath}
	if err := t.run(ctx, "audio", args); err != nil {
		return err
	}
	if _, err := os.Stat(wavPath); err != nil {
		return fmt.Errorf("ffmpeg did not produce expected wav output %s: %w", wavPath, err)
	}
	return nil
}

func (t *FFmpegTranscoder) SampleFrames(ctx context.Context, videoPath, outDir string, fps float64) error {
	pattern := outDir + string(os.PathSeparator) + "frame_%06d.png"
	fpsArg := "fps=" + strconv.FormatFloat(fps, 'f', -1, 64)
	args := []string{"-y", "-i", videoPath, "-vf", fpsArg, pattern}
	return t.run(ctx, "frames", args)
}

func (t *FFmpegTranscoder) run(ctx context.Context, stage string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr // captured for diagnostics only

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("ffmpeg (%s) timed out after %s: %s", stage, t.Timeout, tail(stderr.String(), 512))
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return fmt.Errorf("ffmpeg executable not found at %q: %w", t.Path, err)
	}
	return fmt.Errorf("ffmpeg (%s) failed: %w: %s", stage, err, tail(stderr.String(), 512))
}

// tail keeps error messages bounded; ffmpeg stderr can run to many KB.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
