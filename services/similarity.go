package services

import (
	"fmt"
	"math"
	"sort"

	"media-search-platform/models"
)

// NoVectorSimilarity is the score assigned to candidates without an embedding
// vector, so they always rank behind any vectorized candidate.
const NoVectorSimilarity = -1.0

// CosineSimilarity computes dot(a,b) / (|a|*|b|). Vectors of differing length
// come from inconsistent embedding models; that is a caller bug and fails
// loudly instead of silently producing a wrong score.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// RankedSegment is a retrieval candidate with its similarity score.
type RankedSegment struct {
	Segment    models.Segment
	Similarity float64
}

// RankSegments orders candidates by descending similarity to the query
// vector. Candidates with no vector score NoVectorSimilarity. The sort is
// stable, so equal scores keep the order the candidate list was built in
// (durable rows before session entries).
func RankSegments(query []float32, candidates []models.Segment) ([]RankedSegment, error) {
	ranked := make([]RankedSegment, 0, len(candidates))
	for _, seg := range candidates {
		score := NoVectorSimilarity
		if len(seg.Vector) > 0 {
			s, err := CosineSimilarity(query, seg.Vector)
			if err != nil {
				return nil, err
			}
			score = s
		}
		ranked = append(ranked, RankedSegment{Segment: seg, Similarity: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	return ranked, nil
}
