package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"media-search-platform/internal/config"
	"media-search-platform/internal/logger"
	"media-search-platform/models"
	"media-search-platform/services"
	"media-search-platform/utils"
)

// DocumentListing is one entry in the documents index.
type DocumentListing struct {
	SourceName  string `json:"source_name"`
	Snippet     string `json:"snippet"`
	Tier        string `json:"tier"`
	DownloadURL string `json:"download_url,omitempty"`
}

// HandleListDocuments lists durable documents plus, when a sessionId query
// parameter is given, that session's ephemeral ones.
func HandleListDocuments(store services.SegmentStore, sessions *services.SessionStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := store.Documents(c.Request.Context(), cfg.SnippetLength)
		if err != nil {
			logger.Error("Document listing failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}

		listings := make([]DocumentListing, 0, len(docs))
		for _, d := range docs {
			listings = append(listings, DocumentListing{
				SourceName:  d.SourceName,
				Snippet:     d.Snippet,
				Tier:        "durable",
				DownloadURL: "/documents/download/" + d.SourceName,
			})
		}

		if sessionID := c.Query("sessionId"); sessionID != "" {
			for _, d := range sessions.Documents(sessionID, cfg.SnippetLength) {
				listings = append(listings, DocumentListing{
					SourceName: d.SourceName,
					Snippet:    d.Snippet,
					Tier:       "session",
				})
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"documents": listings,
			"count":     len(listings),
		})
	}
}

var downloadContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
}

// HandleDownloadDocument serves a stored file back. The name is confined to
// the storage directory; anything resolving outside it is rejected.
func HandleDownloadDocument(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
			utils.RespondWithBadRequest(c, "Invalid document name", nil)
			return
		}

		filePath := filepath.Join(cfg.FileStorageDir, name)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}

		mimeType := downloadContentTypes[strings.ToLower(filepath.Ext(name))]
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		c.Header("Content-Type", mimeType)
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.File(filePath)
	}
}

// HandleListSessionSegments exposes the raw segments of one session, mainly
// for debugging session uploads.
func HandleListSessionSegments(sessions *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if sessionID == "" {
			utils.RespondWithBadRequest(c, "Session ID is required", nil)
			return
		}

		segments := sessions.All(sessionID)
		out := make([]models.Segment, 0, len(segments))
		out = append(out, segments...)

		c.JSON(http.StatusOK, gin.H{
			"segments": out,
			"count":    len(out),
		})
	}
}
