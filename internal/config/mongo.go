package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Segments are append-only and deliberately carry NO uniqueness
	// constraint on source_name: many segments share one source name.
	segmentsCollection := db.Collection("segments")
	segmentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "source_name", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "kind", Value: 1}},
		},
	}
	_, err := segmentsCollection.Indexes().CreateMany(context.Background(), segmentIndexes)
	return err
}
