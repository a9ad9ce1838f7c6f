package routes

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"media-search-platform/internal/config"
	"media-search-platform/internal/logger"
	"media-search-platform/internal/queue"
	"media-search-platform/models"
	"media-search-platform/services"
	"media-search-platform/utils"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// UploadDeps bundles everything the upload handler touches.
type UploadDeps struct {
	Cfg       *config.Config
	Pipeline  *services.VideoPipeline
	Extractor *services.TextExtractor
	Embedder  services.Embedder
	Store     services.SegmentStore
	Sessions  *services.SessionStore
	Queue     *asynq.Client
	Tracker   *queue.JobTracker
}

// HandleUpload ingests an uploaded file. Videos go through the segmentation
// pipeline; everything else is extracted as a single whole-document segment.
// With a sessionId form field segments land in the session tier instead of
// MongoDB.
func HandleUpload(deps UploadDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file uploaded", nil)
			return
		}

		if file.Size > deps.Cfg.MaxFileSize {
			utils.RespondWithBadRequest(c, fmt.Sprintf("File exceeds the %d byte limit", deps.Cfg.MaxFileSize), nil)
			return
		}

		sessionID := c.PostForm("sessionId")
		ext := strings.ToLower(filepath.Ext(file.Filename))

		if videoExtensions[ext] {
			handleVideoUpload(c, deps, file, sessionID, ext)
			return
		}

		handleDocumentUpload(c, deps, file, sessionID, ext)
	}
}

func handleVideoUpload(c *gin.Context, deps UploadDeps, file *multipart.FileHeader, sessionID, ext string) {
	originalName := file.Filename

	// Large uploads are handed to the worker; the file must outlive the
	// request, so it goes into the storage dir rather than os.TempDir.
	// Session uploads stay inline: the session tier lives in this process.
	if file.Size > deps.Cfg.SyncProcessingLimit && deps.Queue != nil && sessionID == "" {
		tmpPath := filepath.Join(deps.Cfg.FileStorageDir, "queued_"+uuid.New().String()+ext)
		if err := c.SaveUploadedFile(file, tmpPath); err != nil {
			utils.RespondWithInternalError(c, "Failed to store upload", nil)
			return
		}

		jobID := uuid.New().String()
		task, err := queue.NewVideoIngestTask(queue.VideoIngestPayload{
			JobID:        jobID,
			FilePath:     tmpPath,
			OriginalName: originalName,
		})
		if err == nil {
			deps.Tracker.Set(c.Request.Context(), jobID, queue.JobStatus{Status: models.JobStatusPending})
			_, err = deps.Queue.Enqueue(task)
		}
		if err != nil {
			os.Remove(tmpPath)
			utils.RespondWithInternalError(c, "Failed to queue video", nil)
			return
		}

		c.JSON(http.StatusAccepted, models.UploadResponse{
			SourceName: originalName,
			Status:     models.JobStatusPending,
			JobID:      jobID,
			Message:    "Video queued for processing",
		})
		return
	}

	tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		utils.RespondWithInternalError(c, "Failed to store upload", nil)
		return
	}
	defer os.Remove(tmpPath)

	segments, err := deps.Pipeline.Ingest(c.Request.Context(), tmpPath, originalName, services.SamplingConfig{
		FrameFPS:                deps.Cfg.FrameFPS,
		ChunkWindowSeconds:      deps.Cfg.ChunkWindowSeconds,
		MaxConcurrentEmbeddings: int64(deps.Cfg.MaxConcurrentEmbeddings),
		MinOCRChars:             deps.Cfg.MinOCRChars,
		MinOCRConfidence:        deps.Cfg.MinOCRConfidence,
		MaxFrames:               deps.Cfg.MaxFrames,
	})
	if err != nil {
		logger.Error("Video ingestion failed", "file", originalName, "error", err)
		utils.RespondWithInternalError(c, "Video processing failed", nil)
		return
	}

	saved := saveSegments(c.Request.Context(), deps, segments, sessionID)
	saveVideoSummary(c.Request.Context(), deps, originalName, segments, sessionID)

	c.JSON(http.StatusOK, models.UploadResponse{
		SourceName: originalName,
		Status:     models.JobStatusCompleted,
		SavedCount: saved,
	})
}

func saveSegments(ctx context.Context, deps UploadDeps, segments []models.Segment, sessionID string) int {
	saved := 0
	for _, seg := range segments {
		if sessionID != "" {
			if deps.Sessions.Add(sessionID, seg) {
				saved++
			}
			continue
		}
		if err := deps.Store.Save(ctx, seg); err != nil {
			logger.Warn("Segment save failed", "segment_id", seg.SegmentID, "error", err)
			continue
		}
		saved++
	}
	return saved
}

// maxSummaryChars caps the whole-video summary segment.
const maxSummaryChars = 8000

// saveVideoSummary stores one combined whole-document segment for the video so
// broad queries can match the file as a whole. Failures only cost the summary.
func saveVideoSummary(ctx context.Context, deps UploadDeps, originalName string, segments []models.Segment, sessionID string) {
	if len(segments) == 0 {
		return
	}

	var b strings.Builder
	for _, seg := range segments {
		if b.Len() >= maxSummaryChars {
			break
		}
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	text := b.String()
	if len(text) > maxSummaryChars {
		text = text[:maxSummaryChars]
	}

	vec, err := deps.Embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("Video summary embedding failed", "file", originalName, "error", err)
		return
	}

	summary := models.Segment{
		SourceName: originalName,
		SegmentID:  originalName,
		Kind:       models.KindWholeDocument,
		Text:       text,
		Vector:     vec,
		CreatedAt:  time.Now(),
	}

	if sessionID != "" {
		deps.Sessions.Add(sessionID, summary)
		return
	}
	if err := deps.Store.Save(ctx, summary); err != nil {
		logger.Warn("Video summary save failed", "file", originalName, "error", err)
	}
}

func handleDocumentUpload(c *gin.Context, deps UploadDeps, file *multipart.FileHeader, sessionID, ext string) {
	originalName := file.Filename

	tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		utils.RespondWithInternalError(c, "Failed to store upload", nil)
		return
	}

	text, err := deps.Extractor.Extract(c.Request.Context(), tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		if errors.Is(err, services.ErrUnsupportedFormat) {
			utils.RespondWithBadRequest(c, fmt.Sprintf("Unsupported file format: %s", ext), nil)
			return
		}
		logger.Error("Text extraction failed", "file", originalName, "error", err)
		utils.RespondWithInternalError(c, "Text extraction failed", nil)
		return
	}

	if strings.TrimSpace(text) == "" {
		os.Remove(tmpPath)
		utils.RespondWithBadRequest(c, "No text could be extracted from the file", nil)
		return
	}

	// Session uploads stay ephemeral; the file itself is not kept.
	if sessionID != "" {
		defer os.Remove(tmpPath)

		if deps.Sessions.ContainsText(sessionID, text) {
			c.JSON(http.StatusOK, models.UploadResponse{
				SourceName: originalName,
				Status:     models.JobStatusCompleted,
				SavedCount: 0,
				Message:    "Identical document already present in this session",
			})
			return
		}

		vec, err := deps.Embedder.Embed(c.Request.Context(), text)
		if err != nil {
			logger.Error("Embedding failed", "file", originalName, "error", err)
			utils.RespondWithInternalError(c, "Embedding failed", nil)
			return
		}

		deps.Sessions.Add(sessionID, models.Segment{
			SourceName: originalName,
			SegmentID:  originalName,
			Kind:       models.KindWholeDocument,
			Text:       text,
			Vector:     vec,
			CreatedAt:  time.Now(),
		})

		c.JSON(http.StatusOK, models.UploadResponse{
			SourceName: originalName,
			Status:     models.JobStatusCompleted,
			SavedCount: 1,
		})
		return
	}

	// Durable uploads keep the file for later download, renamed on collision.
	// Base() confines client-supplied names to the storage dir.
	storedName := filepath.Base(originalName)
	destPath := filepath.Join(deps.Cfg.FileStorageDir, storedName)
	if _, err := os.Stat(destPath); err == nil {
		base := strings.TrimSuffix(storedName, ext)
		storedName = fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext)
		destPath = filepath.Join(deps.Cfg.FileStorageDir, storedName)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		utils.RespondWithInternalError(c, "Failed to store file", nil)
		return
	}

	vec, err := deps.Embedder.Embed(c.Request.Context(), text)
	if err != nil {
		logger.Error("Embedding failed", "file", originalName, "error", err)
		utils.RespondWithInternalError(c, "Embedding failed", nil)
		return
	}

	seg := models.Segment{
		SourceName: storedName,
		SegmentID:  storedName,
		Kind:       models.KindWholeDocument,
		Text:       text,
		Vector:     vec,
		CreatedAt:  time.Now(),
	}
	if err := deps.Store.Save(c.Request.Context(), seg); err != nil {
		logger.Error("Segment save failed", "file", storedName, "error", err)
		utils.RespondWithInternalError(c, "Failed to save document", nil)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		SourceName: storedName,
		Status:     models.JobStatusCompleted,
		SavedCount: 1,
	})
}

// HandleJobStatus answers polling requests for queued video uploads.
func HandleJobStatus(tracker *queue.JobTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("jobId")

		st, err := tracker.Get(c.Request.Context(), jobID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read job status", nil)
			return
		}
		if st == nil {
			utils.RespondWithNotFound(c, "Unknown job ID")
			return
		}

		c.JSON(http.StatusOK, st)
	}
}
