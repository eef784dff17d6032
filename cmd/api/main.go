package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"astramatch/resume-matcher/internal/config"
	"astramatch/resume-matcher/internal/handlers"
	"astramatch/resume-matcher/internal/logger"
	"astramatch/resume-matcher/internal/repositories"
	"astramatch/resume-matcher/internal/services"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	weights := services.Weights{
		Similarity: cfg.Matching.WeightSimilarity,
		Experience: cfg.Matching.WeightExperience,
	}
	if err := weights.Validate(); err != nil {
		zlog.Fatal("invalid scoring weights", zap.Error(err))
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	zlog.Info("database initialized")

	runRepo := repositories.NewRunRepository(db)
	docRepo := repositories.NewDocumentRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		zlog.Fatal("failed to create upload directory", zap.Error(err))
	}

	extractor := services.NewTextExtractor()

	// The embedding backend and structured extractor are optional: without
	// a Gemini key the scorer runs on lexical overlap and the pipeline runs
	// on raw text.
	var geminiService services.GeminiService
	if cfg.Gemini.APIKey != "" {
		geminiService, err = services.NewGeminiService(cfg.Gemini.APIKey, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize gemini", zap.Error(err))
		}
		zlog.Info("gemini initialized")
	} else {
		zlog.Warn("GEMINI_API_KEY not set, running without embeddings and structured extraction")
	}

	structured := services.NewStructuredExtractor(geminiService, cfg.Worker.RetryMaxAttempts, zlog)

	var backend services.EmbeddingBackend
	if geminiService != nil {
		backend = geminiService
	}
	scorer := services.NewSimilarityScorer(backend, cfg.Matching.EmbedTimeout, zlog)

	rater := services.NewOllamaRater(cfg.Ollama.Endpoint, cfg.Ollama.Model, cfg.Matching.RatingTimeout, zlog)

	matcher := services.NewMatcherService(
		runRepo,
		docRepo,
		candidateRepo,
		extractor,
		structured,
		scorer,
		rater,
		services.MatcherOptions{
			Parallelism:      cfg.Matching.Parallelism,
			StructureTimeout: cfg.Matching.StructureTimeout,
			RatingTimeout:    cfg.Matching.RatingTimeout,
		},
		zlog,
	)

	worker := services.NewWorker(runRepo, matcher, cfg.Worker.Concurrency, zlog)
	worker.Start(context.Background())
	zlog.Info("worker started", zap.Int("concurrency", cfg.Worker.Concurrency))

	matchHandler := handlers.NewMatchHandler(
		runRepo,
		docRepo,
		storageService,
		worker,
		weights,
		cfg.Storage.MaxFileSize,
		cfg.Matching.MaxResumes,
	)
	resultHandler := handlers.NewResultHandler(runRepo, candidateRepo)

	app := fiber.New(fiber.Config{
		AppName:      "AstraMatch Resume Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * (cfg.Matching.MaxResumes + 1),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/match", matchHandler.HandleMatch)
	api.Get("/match/:id", resultHandler.HandleGetResult)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AstraMatch Resume Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/match",
				"GET /api/v1/match/:id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
