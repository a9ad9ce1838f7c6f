package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"media-search-platform/models"
)

type fakeSegmentStore struct {
	segments []models.Segment
	err      error
}

func (f *fakeSegmentStore) Save(ctx context.Context, seg models.Segment) error {
	f.segments = append(f.segments, seg)
	return nil
}

func (f *fakeSegmentStore) All(ctx context.Context) ([]models.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.segments, nil
}

func (f *fakeSegmentStore) Documents(ctx context.Context, snippetLen int) ([]models.DocumentInfo, error) {
	return nil, nil
}

func TestRetrieveRanksDurableAndSession(t *testing.T) {
	store := &fakeSegmentStore{segments: []models.Segment{
		{SegmentID: "doc", Text: "doc", Vector: []float32{0, 1}},
	}}
	sessions := NewSessionStore(time.Hour)
	sessions.Add("s1", models.Segment{SegmentID: "note", Text: "note", Vector: []float32{1, 0}})

	r := NewRetrievalService(store, sessions)

	ranked, err := r.Retrieve(context.Background(), []float32{1, 0}, "s1")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d candidates, want 2", len(ranked))
	}
	if ranked[0].Segment.SegmentID != "note" {
		t.Errorf("top candidate = %q, want the session match", ranked[0].Segment.SegmentID)
	}
	if ranked[0].Similarity < 0.999 {
		t.Errorf("exact match similarity = %v", ranked[0].Similarity)
	}
}

func TestRetrieveWithoutSession(t *testing.T) {
	store := &fakeSegmentStore{segments: []models.Segment{
		{SegmentID: "doc", Text: "doc", Vector: []float32{0, 1}},
	}}
	sessions := NewSessionStore(time.Hour)
	sessions.Add("s1", models.Segment{SegmentID: "note", Text: "note", Vector: []float32{1, 0}})

	r := NewRetrievalService(store, sessions)

	ranked, err := r.Retrieve(context.Background(), []float32{1, 0}, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Segment.SegmentID != "doc" {
		t.Fatalf("empty session ID must search only the durable tier, got %d candidates", len(ranked))
	}
}

func TestRetrieveDurableWinsTies(t *testing.T) {
	store := &fakeSegmentStore{segments: []models.Segment{
		{SegmentID: "durable", Text: "x", Vector: []float32{1, 0}},
	}}
	sessions := NewSessionStore(time.Hour)
	sessions.Add("s1", models.Segment{SegmentID: "session", Text: "y", Vector: []float32{1, 0}})

	r := NewRetrievalService(store, sessions)

	best, err := r.Best(context.Background(), []float32{1, 0}, "s1")
	if err != nil {
		t.Fatalf("best failed: %v", err)
	}
	if best == nil || best.Segment.SegmentID != "durable" {
		t.Fatalf("tie must go to the durable candidate, got %+v", best)
	}
}

func TestBestEmpty(t *testing.T) {
	r := NewRetrievalService(&fakeSegmentStore{}, NewSessionStore(time.Hour))

	best, err := r.Best(context.Background(), []float32{1, 0}, "")
	if err != nil {
		t.Fatalf("best failed: %v", err)
	}
	if best != nil {
		t.Fatalf("expected nil best with no candidates, got %+v", best)
	}
}

func TestRetrievePropagatesStoreError(t *testing.T) {
	r := NewRetrievalService(&fakeSegmentStore{err: errors.New("mongo down")}, NewSessionStore(time.Hour))

	if _, err := r.Retrieve(context.Background(), []float32{1, 0}, ""); err == nil {
		t.Fatal("store failure must surface")
	}
}

func TestRetrieveVectorlessNeverTop(t *testing.T) {
	store := &fakeSegmentStore{segments: []models.Segment{
		{SegmentID: "novector", Text: "x"},
		{SegmentID: "weak", Text: "y", Vector: []float32{-1, 0}},
	}}
	r := NewRetrievalService(store, NewSessionStore(time.Hour))

	best, err := r.Best(context.Background(), []float32{1, 0}, "")
	if err != nil {
		t.Fatalf("best failed: %v", err)
	}
	if best.Segment.SegmentID != "weak" {
		t.Fatalf("vector-less candidate ranked above a scored one: %+v", best)
	}
}
