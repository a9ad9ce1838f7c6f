package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"media-search-platform/internal/logger"
	"media-search-platform/models"
)

// Embedder turns text into a vector. Calls are network-bound and fallible;
// the pipeline tolerates empty vectors by dropping the affected segment.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SamplingConfig tunes one video ingestion run. Zero values fall back to the
// documented defaults.
type SamplingConfig struct {
	FrameFPS                float64 // frames sampled per second (default 0.5)
	ChunkWindowSeconds      int     // transcript window length (default 15)
	MaxConcurrentEmbeddings int64   // in-flight embedding calls (default 4)
	MinOCRChars             int     // minimum accepted OCR text length (default 10)
	MinOCRConfidence        float64 // minimum accepted OCR confidence (default 0.40)
	MaxFrames               int     // frame cap applied before OCR (default 120)
}

func (c SamplingConfig) withDefaults() SamplingConfig {
	if c.FrameFPS <= 0 {
		c.FrameFPS = 0.5
	}
	if c.ChunkWindowSeconds <= 0 {
		c.ChunkWindowSeconds = 15
	}
	if c.MaxConcurrentEmbeddings <= 0 {
		c.MaxConcurrentEmbeddings = 4
	}
	if c.MinOCRChars <= 0 {
		c.MinOCRChars = 10
	}
	if c.MinOCRConfidence <= 0 {
		c.MinOCRConfidence = 0.40
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = 120
	}
	return c
}

// minAudioWindowChars drops noise windows: transcript chunks shorter than
// this are not worth a segment.
const minAudioWindowChars = 20

// VideoPipeline turns one video file into a list of embedded segments:
// time-windowed audio transcript chunks plus deduplicated on-screen text from
// sampled frames. Collaborators are injected so tests can run the whole
// pipeline against fakes.
type VideoPipeline struct {
	transcoder    Transcoder
	newRecognizer RecognizerFactory
	ocr           OCREngine
	embedder      Embedder

	// gate bounds concurrent in-flight embedding calls across this
	// pipeline instance. When nil, each run builds its own from the
	// sampling config.
	gate *semaphore.Weighted
}

func NewVideoPipeline(t Transcoder, rf RecognizerFactory, ocr OCREngine, e Embedder, gate *semaphore.Weighted) *VideoPipeline {
	return &VideoPipeline{
		transcoder:    t,
		newRecognizer: rf,
		ocr:           ocr,
		embedder:      e,
		gate:          gate,
	}
}

// embedJob is one pending segment awaiting its vector.
type embedJob struct {
	segmentID string
	kind      models.SegmentKind
	timeRange *models.TimeRange
	text      string
}

var frameIndexRe = regexp.MustCompile(`\d+`)

// Ingest runs the full segmentation pipeline. Transcoding failures are fatal
// and abort the run; recognition, OCR and embedding failures drop only the
// affected segment. Temporary artifacts are removed even on failure.
func (p *VideoPipeline) Ingest(ctx context.Context, videoPath, originalName string, cfg SamplingConfig) ([]models.Segment, error) {
	cfg = cfg.withDefaults()

	tracer := otel.Tracer("video-pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("pipeline.source", originalName),
		attribute.Float64("pipeline.frame_fps", cfg.FrameFPS),
	)

	wavPath := filepath.Join(os.TempDir(), uuid.NewString()+".wav")
	defer os.Remove(wavPath)

	frameDir := filepath.Join(os.TempDir(), uuid.NewString()+"_frames")
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(frameDir)

	// Audio track: demux, transcribe, re-chunk into transcript windows.
	if err := p.transcoder.ExtractAudio(ctx, videoPath, wavPath); err != nil {
		return nil, fmt.Errorf("audio extraction for %q: %w", originalName, err)
	}

	words, err := TranscribeWAV(wavPath, p.newRecognizer)
	if err != nil {
		// Recognition loss is per-unit tolerable; the frame track still runs.
		logger.Warn("transcription failed, continuing without audio segments",
			"source", originalName, "error", err.Error())
		words = nil
	}

	var jobs []embedJob
	for i, win := range BuildTimeWindows(words, cfg.ChunkWindowSeconds) {
		if len(win.Text) < minAudioWindowChars {
			continue
		}
		jobs = append(jobs, embedJob{
			segmentID: models.AudioSegmentID(originalName, i, win.Start, win.End),
			kind:      models.KindAudioWindow,
			timeRange: &models.TimeRange{Start: win.Start, End: win.End},
			text: fmt.Sprintf("[Audio %s - %s]\n%s",
				clockLabel(win.Start), clockLabel(win.End), win.Text),
		})
	}
	audioCount := len(jobs)

	// Frame track: sample, OCR, threshold, dedup.
	if err := p.transcoder.SampleFrames(ctx, videoPath, frameDir, cfg.FrameFPS); err != nil {
		return nil, fmt.Errorf("frame sampling for %q: %w", originalName, err)
	}

	frameJobs, err := p.collectFrameJobs(ctx, frameDir, originalName, cfg)
	if err != nil {
		return nil, err
	}
	jobs = append(jobs, frameJobs...)

	segments := p.embedAll(ctx, originalName, jobs, cfg)

	span.SetAttributes(
		attribute.Int("pipeline.audio_windows", audioCount),
		attribute.Int("pipeline.frame_texts", len(frameJobs)),
		attribute.Int("pipeline.segments", len(segments)),
	)
	logger.Info("video segmented",
		"source", originalName,
		"audio_windows", audioCount,
		"frame_texts", len(frameJobs),
		"segments", len(segments))

	return segments, nil
}

// collectFrameJobs OCRs the sampled frames in index order, applying the
// acceptance thresholds and the whole-video perceptual dedup.
func (p *VideoPipeline) collectFrameJobs(ctx context.Context, frameDir, originalName string, cfg SamplingConfig) ([]embedJob, error) {
	entries, err := os.ReadDir(frameDir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".png" {
			frames = append(frames, e.Name())
		}
	}
	sort.Strings(frames)

	// Cap before OCR to bound cost
	if len(frames) > cfg.MaxFrames {
		frames = frames[:cfg.MaxFrames]
	}

	seen := make(map[string]struct{})
	var jobs []embedJob
	for _, name := range frames {
		raw, err := p.ocr.Recognize(ctx, filepath.Join(frameDir, name))
		if err != nil {
			logger.Warn("frame OCR failed, dropping frame",
				"source", originalName, "frame", name, "error", err.Error())
			continue
		}

		parsed := ParseOCROutput(raw)
		if len(parsed.Text) < cfg.MinOCRChars || parsed.Confidence < cfg.MinOCRConfidence {
			continue
		}

		hash := DedupHash(parsed.Text)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		idx := 0
		if m := frameIndexRe.FindString(name); m != "" {
			idx, _ = strconv.Atoi(m)
		}
		ts := float64(idx) / maxFloat(1.0, cfg.FrameFPS)

		jobs = append(jobs, embedJob{
			segmentID: models.FrameSegmentID(originalName, clockLabel(ts), name),
			kind:      models.KindVideoFrame,
			timeRange: &models.TimeRange{Start: ts, End: ts},
			text:      parsed.Text,
		})
	}
	return jobs, nil
}

// embedAll fans out one embedding call per job under the admission gate: all
// calls are issued, at most N run concurrently. A failed call drops only its
// own segment; siblings are unaffected. Output preserves job order, so audio
// windows stay time-ordered and frames stay index-ordered.
func (p *VideoPipeline) embedAll(ctx context.Context, originalName string, jobs []embedJob, cfg SamplingConfig) []models.Segment {
	gate := p.gate
	if gate == nil {
		gate = semaphore.NewWeighted(cfg.MaxConcurrentEmbeddings)
	}

	results := make([]models.Segment, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job embedJob) {
			defer wg.Done()

			if err := gate.Acquire(ctx, 1); err != nil {
				return
			}
			defer gate.Release(1)

			vector, err := p.embedder.Embed(ctx, job.text)
			if err != nil || len(vector) == 0 {
				if err != nil {
					logger.Warn("embedding failed, dropping segment",
						"source", originalName, "segment", job.segmentID, "error", err.Error())
				}
				return
			}

			results[i] = models.Segment{
				SourceName: originalName,
				SegmentID:  job.segmentID,
				Kind:       job.kind,
				TimeRange:  job.timeRange,
				Text:       job.text,
				Vector:     vector,
				CreatedAt:  time.Now(),
			}
		}(i, job)
	}
	wg.Wait()

	segments := make([]models.Segment, 0, len(jobs))
	for _, seg := range results {
		if seg.SegmentID != "" && seg.Text != "" && len(seg.Vector) > 0 {
			segments = append(segments, seg)
		}
	}
	return segments
}

// clockLabel formats seconds as hh:mm:ss.
func clockLabel(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
