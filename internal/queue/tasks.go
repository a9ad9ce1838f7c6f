package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"media-search-platform/internal/logger"
	"media-search-platform/models"
	"media-search-platform/services"
)

const (
	TaskIngestVideo = "video:ingest"
)

// VideoIngestPayload describes one queued video. Session uploads are never
// queued: the session tier is process-local to the API server.
type VideoIngestPayload struct {
	JobID        string  `json:"job_id"`
	FilePath     string  `json:"file_path"`
	OriginalName string  `json:"original_name"`
	FrameFPS     float64 `json:"frame_fps,omitempty"`
	WindowSecs   int     `json:"window_secs,omitempty"`
}

// NewVideoIngestTask enqueues one video for background segmentation.
func NewVideoIngestTask(p VideoIngestPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestVideo,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// JobTracker keeps upload job status in Redis so the API can answer
// polling requests without touching Mongo.
type JobTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewJobTracker(rdb *redis.Client) *JobTracker {
	return &JobTracker{rdb: rdb, ttl: 24 * time.Hour}
}

type JobStatus struct {
	Status     string `json:"status"`
	SavedCount int    `json:"saved_count"`
	Error      string `json:"error,omitempty"`
}

func (t *JobTracker) key(jobID string) string {
	return "job:status:" + jobID
}

func (t *JobTracker) Set(ctx context.Context, jobID string, st JobStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return t.rdb.Set(ctx, t.key(jobID), data, t.ttl).Err()
}

func (t *JobTracker) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := t.rdb.Get(ctx, t.key(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st JobStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// TaskProcessor runs queued ingestion jobs inside the worker process.
type TaskProcessor struct {
	pipeline *services.VideoPipeline
	store    services.SegmentStore
	tracker  *JobTracker
}

func NewTaskProcessor(pipeline *services.VideoPipeline, store services.SegmentStore, tracker *JobTracker) *TaskProcessor {
	return &TaskProcessor{
		pipeline: pipeline,
		store:    store,
		tracker:  tracker,
	}
}

func (p *TaskProcessor) IngestVideo(ctx context.Context, t *asynq.Task) error {
	var payload VideoIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Processing queued video", "job_id", payload.JobID, "file", payload.OriginalName)
	p.tracker.Set(ctx, payload.JobID, JobStatus{Status: models.JobStatusProcessing})

	segments, err := p.pipeline.Ingest(ctx, payload.FilePath, payload.OriginalName, services.SamplingConfig{
		FrameFPS:           payload.FrameFPS,
		ChunkWindowSeconds: payload.WindowSecs,
	})
	if err != nil {
		// The file is kept so a retry can re-read it.
		logger.Error("Queued video ingestion failed", "job_id", payload.JobID, "error", err)
		p.tracker.Set(ctx, payload.JobID, JobStatus{Status: models.JobStatusFailed, Error: err.Error()})
		return err
	}
	os.Remove(payload.FilePath)

	saved := 0
	for _, seg := range segments {
		if err := p.store.Save(ctx, seg); err != nil {
			logger.Warn("Segment save failed", "segment_id", seg.SegmentID, "error", err)
			continue
		}
		saved++
	}

	p.tracker.Set(ctx, payload.JobID, JobStatus{Status: models.JobStatusCompleted, SavedCount: saved})
	logger.Info("Queued video processed", "job_id", payload.JobID, "segments", saved)
	return nil
}
