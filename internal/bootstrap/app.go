package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docuchat/internal/ai"
	"docuchat/internal/app"
	"docuchat/internal/cache"
	"docuchat/internal/config"
	"docuchat/internal/extract"
	"docuchat/internal/model"
	"docuchat/internal/platform/postgres"
	rabbitmqClient "docuchat/internal/platform/rabbitmq"
	redisClient "docuchat/internal/platform/redis"
	"docuchat/internal/repository"
	"docuchat/internal/worker"
)

// App holds every long-lived resource of the service: clients, the
// ingestion worker pool and the wired services the HTTP layer exposes.
type App struct {
	Config          *config.Config
	Postgres        *gorm.DB
	Redis           *redis.Client
	MQConn          *amqp.Connection
	DocumentService *app.DocumentService
	ChatService     *app.ChatService
	IngestWorker    *worker.IngestWorker
	Reconciler      *worker.Reconciler

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := postgres.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Document{}, &model.Chunk{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	docRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	listCache := cache.NewDocumentListCache(redisCli, time.Duration(cfg.Redis.DocListTTLSeconds)*time.Second)
	publisher := rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue)

	requestTimeout := time.Duration(cfg.LLM.RequestTimeoutSeconds) * time.Second
	aiClient := ai.NewOpenAICompatibleClient(requestTimeout)
	embConfig := ai.EmbeddingConfig{
		BaseURL:       cfg.LLM.BaseURL,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.EmbeddingModel,
		MaxInputChars: cfg.LLM.EmbeddingMaxChars,
	}
	chatConfig := ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}

	docService := app.NewDocumentService(
		docRepo,
		publisher,
		listCache,
		extract.NewRegistry(),
		aiClient,
		embConfig,
		app.IngestOptions{
			TempDir:           cfg.Ingest.TempDir,
			AllowedExtensions: cfg.Ingest.AllowedExtensions,
			MaxFileSize:       cfg.MaxFileSizeBytes(),
			ChunkSize:         cfg.Ingest.ChunkSize,
			ChunkOverlap:      cfg.Ingest.ChunkOverlap,
			EmbedBatchSize:    cfg.Ingest.EmbedBatchSize,
			EmbedTimeout:      requestTimeout,
		},
	)
	chatService := app.NewChatService(
		docRepo,
		chunkRepo,
		aiClient,
		aiClient,
		embConfig,
		chatConfig,
		app.RetrievalOptions{
			TopK:              cfg.Retrieval.TopK,
			DistanceThreshold: cfg.Retrieval.DistanceThreshold,
			SnippetLength:     cfg.Retrieval.SnippetLength,
			RequestTimeout:    requestTimeout,
		},
	)

	ingestWorker := worker.NewIngestWorker(mqConn, docService, cfg.RabbitMQ.IngestQueue, cfg.Ingest.WorkerConcurrency)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	reconciler := worker.NewReconciler(
		docRepo,
		time.Duration(cfg.Ingest.ReconcileIntervalMin)*time.Minute,
		time.Duration(cfg.Ingest.StaleAfterMinutes)*time.Minute,
	)
	reconciler.Start(ctx)

	return &App{
		Config:          cfg,
		Postgres:        db,
		Redis:           redisCli,
		MQConn:          mqConn,
		DocumentService: docService,
		ChatService:     chatService,
		IngestWorker:    ingestWorker,
		Reconciler:      reconciler,
		StartedAt:       time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Reconciler != nil {
		a.Reconciler.Close()
	}
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
