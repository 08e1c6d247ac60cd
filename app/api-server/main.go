package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/clinovia/intake/config"
	"github.com/clinovia/intake/internal/api/handlers"
	"github.com/clinovia/intake/internal/api/middleware"
	"github.com/clinovia/intake/internal/api/routes"
	"github.com/clinovia/intake/internal/cache"
	"github.com/clinovia/intake/internal/logger"
	"github.com/clinovia/intake/internal/rag"
	"github.com/clinovia/intake/internal/services"
	"github.com/clinovia/intake/internal/storage"
	"github.com/clinovia/intake/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Optional backends: absent env means the feature is off, a bad
	// connection is fatal.
	mongoOK, err := config.InitMongo()
	if err != nil {
		log.WithError(err).Fatal("mongodb init failed")
	}
	if mongoOK {
		log.Info("mongodb connected")
	}

	redisOK, err := config.InitRedis()
	if err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	if redisOK {
		log.Info("redis connected")
	}

	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcsUp, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		defer gcsUp.Close()
		uploader = gcsUp
		log.WithField("bucket", bucket).Info("gcs uploader ready")
	}

	dataRoot := os.Getenv("DATA_ROOT")
	if dataRoot == "" {
		dataRoot = "data"
	}

	remote := storage.NewRemoteStorage(config.MongoDatabase(), uploader)
	if remote.Enabled() {
		if err := remote.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Fatal("mongo index setup failed")
		}
	}
	local := storage.NewLocalStorage(dataRoot)
	store := storage.NewHybridStorage(remote, local, log)

	vectorStore, err := rag.NewVectorStore(dataRoot + "/rag_index")
	if err != nil {
		log.WithError(err).Fatal("vector store init failed")
	}
	log.WithField("documents", vectorStore.Len()).Info("vector store loaded")

	var noteCache cache.Cache
	if config.RedisClient != nil {
		noteCache = cache.NewRedisCache(config.RedisClient)
	}

	// One lock set across every service that mutates session records, so
	// chat, recommendation, and upload requests serialize per session.
	sessionLocks := services.NewSessionLocks()

	intakeSvc := services.NewIntakeService(store, noteCache, sessionLocks, log)
	recSvc := services.NewRecommendationService(store, vectorStore, noteCache, sessionLocks, log)
	reportSvc := services.NewReportService(store, noteCache, sessionLocks, log)

	if config.RedisClient != nil {
		pool := &workers.IngestWorkerPool{
			Redis:  config.RedisClient,
			Store:  vectorStore,
			Logger: log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("ingest worker start failed")
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Chat:           handlers.NewChatHandler(intakeSvc),
		Recommendation: handlers.NewRecommendationHandler(recSvc),
		Report:         handlers.NewReportHandler(reportSvc),
		Guideline:      handlers.NewGuidelineHandler(vectorStore, config.RedisClient),
		WS:             handlers.NewWSHandler(intakeSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("api server listening")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
