package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/adapter/elibrary"
	"github.com/jurisearch/backend/internal/adapter/local"
	"github.com/jurisearch/backend/internal/adapter/ocr"
	"github.com/jurisearch/backend/internal/adapter/openai"
	"github.com/jurisearch/backend/internal/adapter/repository/postgres"
	"github.com/jurisearch/backend/internal/delivery/http/handler"
	"github.com/jurisearch/backend/internal/usecase/ingest"
	"github.com/jurisearch/backend/internal/usecase/rag"
	syncsvc "github.com/jurisearch/backend/internal/usecase/sync"
	"github.com/jurisearch/backend/pkg/config"
	"github.com/jurisearch/backend/pkg/database"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}
	if cfg.EmbeddingDim <= 0 {
		// the vector column is fixed-width; a bad dimension is a hard
		// configuration error, not something to find out at query time
		logger.Fatal("EMBEDDING_DIM must be positive", zap.Int("dim", cfg.EmbeddingDim))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to database")

	// capability backends: remote when credentials exist, otherwise the
	// deterministic offline fallbacks
	var embedder rag.Embedder
	if cfg.EmbeddingAPIKey != "" {
		embedder = openai.NewEmbeddingClient(cfg.EmbeddingAPIKey, cfg.EmbeddingAPIURL, cfg.EmbeddingModel, cfg.EmbeddingDim)
		logger.Info("using remote embedding backend", zap.String("model", cfg.EmbeddingModel), zap.Int("dim", cfg.EmbeddingDim))
	} else {
		embedder = local.NewEmbedder(cfg.EmbeddingDim)
		logger.Warn("no embedding credentials, using deterministic offline embedder")
	}

	var generator rag.Generator
	if cfg.LLMAPIKey != "" {
		generator = openai.NewChatClient(cfg.LLMAPIKey, cfg.LLMAPIURL, cfg.LLMModel)
		logger.Info("using remote generation backend", zap.String("model", cfg.LLMModel))
	} else {
		generator = local.NewGenerator()
		logger.Warn("no generation credentials, answers will echo retrieved context")
	}

	caseRepo := postgres.NewCaseRepository(db)
	stagingRepo := postgres.NewStagingRepository(db)

	ocrEngine := ocr.NewTesseract(cfg.TesseractCmd, cfg.PdftoppmCmd, logger)
	if ocrEngine.Available() {
		logger.Info("OCR fallback enabled", zap.String("tesseract", cfg.TesseractCmd))
	}
	extractor := ingest.NewExtractor(ocrEngine, logger)
	chunker := ingest.NewChunker(cfg.ChunkTokenSize, cfg.ChunkOverlapRatio)
	pipeline := ingest.NewPipeline(caseRepo, embedder, extractor, chunker, logger)

	connector := elibrary.NewClient(cfg.ELibraryBaseURL, cfg.RequestDelay, logger)
	syncService := syncsvc.NewService(stagingRepo, connector, pipeline, cfg.DownloadDir, cfg.SyncConcurrency, logger)
	ragService := rag.NewService(caseRepo, embedder, generator, cfg.TopKResults, logger)

	ingestHandler := handler.NewIngestHandler(pipeline)
	ragHandler := handler.NewRagHandler(ragService)
	caseHandler := handler.NewCaseHandler(caseRepo)
	syncHandler := handler.NewSyncHandler(syncService)

	app := fiber.New(fiber.Config{
		AppName:      "jurisearch",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // sync batches answer inline
	})
	app.Use(fiberlogger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/ingest_case", ingestHandler.IngestCase)
	app.Post("/reindex_folder", ingestHandler.ReindexFolder)
	app.Post("/ingest_scraped", ingestHandler.IngestScraped)
	app.Post("/search", ragHandler.Search)
	app.Post("/ask", ragHandler.Ask)
	app.Get("/cases/:id", caseHandler.Get)

	sync := app.Group("/sync")
	sync.Post("/check", syncHandler.Check)
	sync.Post("/download", syncHandler.Download)
	sync.Post("/ingest", syncHandler.Ingest)
	sync.Post("/recover", syncHandler.Recover)
	sync.Get("/status", syncHandler.Status)
	sync.Get("/pending", syncHandler.Pending)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
