package services

import (
	"math"
	"testing"

	"media-search-platform/models"
)

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.5, -1.2, 3.0, 0.01}
	got, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("self similarity = %v, want 1.0", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal similarity = %v, want 0", got)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2}); err == nil {
		t.Fatal("expected error for mismatched vector lengths")
	}
	if _, err := CosineSimilarity(nil, []float32{1}); err == nil {
		t.Fatal("expected error for nil vs non-empty")
	}
}

func TestRankSegmentsOrdering(t *testing.T) {
	query := []float32{1, 0}
	candidates := []models.Segment{
		{SegmentID: "diagonal", Vector: []float32{1, 1}},
		{SegmentID: "exact", Vector: []float32{2, 0}},
		{SegmentID: "novector"},
		{SegmentID: "opposite", Vector: []float32{-1, 0}},
	}

	ranked, err := RankSegments(query, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 4 {
		t.Fatalf("got %d ranked, want 4", len(ranked))
	}

	order := []string{"exact", "diagonal", "opposite", "novector"}
	for i, want := range order {
		if ranked[i].Segment.SegmentID != want {
			t.Errorf("position %d = %q, want %q", i, ranked[i].Segment.SegmentID, want)
		}
	}
	if ranked[3].Similarity != NoVectorSimilarity {
		t.Errorf("vector-less similarity = %v, want %v", ranked[3].Similarity, NoVectorSimilarity)
	}
}

func TestRankSegmentsStableOnTies(t *testing.T) {
	query := []float32{1, 0}
	candidates := []models.Segment{
		{SegmentID: "durable-1", Vector: []float32{3, 0}},
		{SegmentID: "durable-2", Vector: []float32{1, 0}},
		{SegmentID: "session-1", Vector: []float32{2, 0}},
	}

	ranked, err := RankSegments(query, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All three score exactly 1.0; input order must survive.
	order := []string{"durable-1", "durable-2", "session-1"}
	for i, want := range order {
		if ranked[i].Segment.SegmentID != want {
			t.Errorf("position %d = %q, want %q", i, ranked[i].Segment.SegmentID, want)
		}
	}
}

func TestRankSegmentsPropagatesMismatch(t *testing.T) {
	_, err := RankSegments([]float32{1, 0}, []models.Segment{
		{SegmentID: "bad", Vector: []float32{1, 2, 3}},
	})
	if err == nil {
		t.Fatal("expected error for dimension mismatch in candidate")
	}
}
