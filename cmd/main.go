package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/semaphore"

	"media-search-platform/internal/ai"
	"media-search-platform/internal/config"
	"media-search-platform/internal/logger"
	"media-search-platform/internal/queue"
	"media-search-platform/internal/telemetry"
	"media-search-platform/middleware"
	"media-search-platform/routes"
	"media-search-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize telemetry
	shutdownTracer, err := telemetry.InitTracer("media-search-platform")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

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

	// Connect to Redis (job status + queue)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer asynqClient.Close()

	if err := os.MkdirAll(cfg.FileStorageDir, 0o755); err != nil {
		log.Fatal("Failed to create storage directory:", err)
	}

	// Wire services
	db := mongoClient.Database(cfg.DBName)
	store := services.NewMongoSegmentStore(db)

	sessions := services.NewSessionStore(cfg.SessionTTL)
	if err := sessions.StartSweeper(); err != nil {
		log.Fatal("Failed to start session sweeper:", err)
	}
	defer sessions.StopSweeper()

	embedder := ai.NewEmbedder(cfg)
	completion, err := ai.NewCompletionClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize completion client:", err)
	}
	defer completion.Close()

	ocr := services.NewOCRClient(cfg.OCRServiceURL, cfg.OCRTimeout)
	speech := services.NewSpeechClient(cfg.SpeechServiceURL, cfg.SpeechTimeout)
	transcoder := services.NewFFmpegTranscoder(cfg.FFmpegPath, cfg.TranscodeTimeout)
	gate := semaphore.NewWeighted(int64(cfg.MaxConcurrentEmbeddings))
	pipeline := services.NewVideoPipeline(transcoder, speech.RecognizerFactory(), ocr, embedder, gate)

	extractor := services.NewTextExtractor(ocr)
	retrieval := services.NewRetrievalService(store, sessions)
	tracker := queue.NewJobTracker(rdb)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	router.POST("/upload", routes.HandleUpload(routes.UploadDeps{
		Cfg:       cfg,
		Pipeline:  pipeline,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
		Sessions:  sessions,
		Queue:     asynqClient,
		Tracker:   tracker,
	}))
	router.GET("/uploads/:jobId/status", routes.HandleJobStatus(tracker))
	router.POST("/search", routes.HandleSearch(embedder, retrieval, completion))
	router.GET("/documents", routes.HandleListDocuments(store, sessions, cfg))
	router.GET("/documents/download/:name", routes.HandleDownloadDocument(cfg))
	router.GET("/sessions/:sessionId/segments", routes.HandleListSessionSegments(sessions))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
