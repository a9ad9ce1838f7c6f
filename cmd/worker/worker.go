package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/semaphore"

	"media-search-platform/internal/ai"
	"media-search-platform/internal/config"
	"media-search-platform/internal/logger"
	"media-search-platform/internal/queue"
	"media-search-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis (job status tracker)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Wire the ingestion pipeline
	store := services.NewMongoSegmentStore(mongoClient.Database(cfg.DBName))
	embedder := ai.NewEmbedder(cfg)
	ocr := services.NewOCRClient(cfg.OCRServiceURL, cfg.OCRTimeout)
	speech := services.NewSpeechClient(cfg.SpeechServiceURL, cfg.SpeechTimeout)
	transcoder := services.NewFFmpegTranscoder(cfg.FFmpegPath, cfg.TranscodeTimeout)
	gate := semaphore.NewWeighted(int64(cfg.MaxConcurrentEmbeddings))
	pipeline := services.NewVideoPipeline(transcoder, speech.RecognizerFactory(), ocr, embedder, gate)

	tracker := queue.NewJobTracker(rdb)
	processor := queue.NewTaskProcessor(pipeline, store, tracker)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4, // Video ingestion is CPU and API heavy
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestVideo, processor.IngestVideo)

	log.Println("🚀 Starting Asynq worker...")
	log.Printf("   Queues: critical(6), default(3), low(1)")
	log.Printf("   Redis: %s", redisOpt.Addr)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
