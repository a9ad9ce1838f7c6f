package services

import (
	"context"
	"fmt"

	"media-search-platform/models"
)

// RetrievalService ranks durable and session segments against a query
// vector.
type RetrievalService struct {
	durable  SegmentStore
	sessions *SessionStore
}

func NewRetrievalService(durable SegmentStore, sessions *SessionStore) *RetrievalService {
	return &RetrievalService{durable: durable, sessions: sessions}
}

// Retrieve returns all candidates ranked by descending similarity. Durable
// candidates are listed ahead of session candidates, which also decides ties.
// sessionID may be empty, in which case only the durable tier is searched.
func (r *RetrievalService) Retrieve(ctx context.Context, queryVector []float32, sessionID string) ([]RankedSegment, error) {
	candidates, err := r.durable.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load durable segments: %w", err)
	}

	if sessionID != "" {
		candidates = append(candidates, r.sessions.All(sessionID)...)
	}

	return RankSegments(queryVector, candidates)
}

// Best returns the single top-ranked segment, or nil when no candidates
// exist.
func (r *RetrievalService) Best(ctx context.Context, queryVector []float32, sessionID string) (*RankedSegment, error) {
	ranked, err := r.Retrieve(ctx, queryVector, sessionID)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	return &ranked[0], nil
}
