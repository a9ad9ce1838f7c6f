package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"media-search-platform/internal/ai"
	"media-search-platform/internal/logger"
	"media-search-platform/models"
	"media-search-platform/services"
	"media-search-platform/utils"
)

// maxContextChars bounds the text handed to the completion model. When the
// assembled context is longer, the front is cut so the segment text and the
// most recent history survive.
const maxContextChars = 16000

// SearchResponse is the answer payload for a query.
type SearchResponse struct {
	Answer     string             `json:"answer"`
	SourceName string             `json:"source_name"`
	SegmentID  string             `json:"segment_id"`
	Similarity float64            `json:"similarity"`
	TimeRange  *models.TimeRange  `json:"time_range,omitempty"`
}

// HandleSearch embeds the query, ranks all stored segments against it and
// answers from the best match.
func HandleSearch(embedder services.Embedder, retrieval *services.RetrievalService, completion *ai.CompletionClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			utils.RespondWithBadRequest(c, "Query is required", nil)
			return
		}

		queryVector, err := embedder.Embed(c.Request.Context(), req.Query)
		if err != nil {
			logger.Error("Query embedding failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to embed query", nil)
			return
		}

		best, err := retrieval.Best(c.Request.Context(), queryVector, req.SessionID)
		if err != nil {
			logger.Error("Retrieval failed", "error", err)
			utils.RespondWithInternalError(c, "Retrieval failed", nil)
			return
		}
		if best == nil {
			utils.RespondWithNotFound(c, "No documents available to search")
			return
		}

		contextText := buildContext(best.Segment.Text, req.History)

		answer, err := completion.Answer(c.Request.Context(), req.Query, contextText)
		if err != nil {
			logger.Error("Completion failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to generate answer", nil)
			return
		}

		c.JSON(http.StatusOK, SearchResponse{
			Answer:     answer,
			SourceName: best.Segment.SourceName,
			SegmentID:  best.Segment.SegmentID,
			Similarity: best.Similarity,
			TimeRange:  best.Segment.TimeRange,
		})
	}
}

func buildContext(segmentText string, history []models.ChatMessage) string {
	var b strings.Builder
	b.WriteString(segmentText)
	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, m := range history {
			b.WriteString(m.Role)
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
	}

	text := b.String()
	if len(text) > maxContextChars {
		text = text[len(text)-maxContextChars:]
	}
	return text
}
