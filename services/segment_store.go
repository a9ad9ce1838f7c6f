package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"media-search-platform/models"
)

// SegmentStore is the durable tier: permanent segments, append-only, queried
// whole for ranking. Insertion is idempotent in effect (each call is one
// self-contained write) and deliberately allows duplicate source names.
type SegmentStore interface {
	Save(ctx context.Context, seg models.Segment) error
	All(ctx context.Context) ([]models.Segment, error)
	Documents(ctx context.Context, snippetLen int) ([]models.DocumentInfo, error)
}

// MongoSegmentStore implements SegmentStore on a MongoDB collection. The
// collection has no uniqueness constraint; audio, frame and whole-document
// segments of one upload all share a source name prefix but are distinct
// rows.
type MongoSegmentStore struct {
	collection *mongo.Collection
}

func NewMongoSegmentStore(db *mongo.Database) *MongoSegmentStore {
	return &MongoSegmentStore{collection: db.Collection("segments")}
}

func (s *MongoSegmentStore) Save(ctx context.Context, seg models.Segment) error {
	if seg.Text == "" {
		return fmt.Errorf("refusing to store empty-text segment for %q", seg.SourceName)
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}
	if _, err := s.collection.InsertOne(ctx, seg); err != nil {
		return fmt.Errorf("insert segment %q: %w", seg.SegmentID, err)
	}
	return nil
}

func (s *MongoSegmentStore) All(ctx context.Context) ([]models.Segment, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find segments: %w", err)
	}
	defer cursor.Close(ctx)

	var segments []models.Segment
	if err := cursor.All(ctx, &segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return segments, nil
}

// Documents lists each distinct source name once, with a snippet of its first
// stored text.
func (s *MongoSegmentStore) Documents(ctx context.Context, snippetLen int) ([]models.DocumentInfo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source_name"},
			{Key: "text", Value: bson.D{{Key: "$first", Value: "$text"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, fmt.Errorf("aggregate documents: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		SourceName string `bson:"_id"`
		Text       string `bson:"text"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	docs := make([]models.DocumentInfo, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, models.DocumentInfo{
			SourceName: row.SourceName,
			Snippet:    models.Snippet(row.Text, snippetLen),
		})
	}
	return docs, nil
}
