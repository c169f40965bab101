package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/config"
	"alfredoptarigan/ats-matcher/internal/logger"
	"alfredoptarigan/ats-matcher/internal/repositories"
	"alfredoptarigan/ats-matcher/internal/server"
	"alfredoptarigan/ats-matcher/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.LogJSON, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("config loaded", zap.String("env", cfg.Server.Env), zap.String("model", cfg.Gemini.Model))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence is optional; without it only the synchronous endpoint is served.
	var repo repositories.AnalysisRepository = repositories.NewNoopAnalysisRepository()
	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		repo = repositories.NewAnalysisRepository(db)
	}

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("failed to create upload directory", zap.Error(err))
	}

	extractor := services.NewTextExtractor(log)

	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}
	log.Info("gemini initialized")

	var guidelines services.GuidelineIndex
	if cfg.Qdrant.Enabled {
		guidelines, err = services.NewGuidelineIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			log.Fatal("failed to initialize qdrant", zap.Error(err))
		}
		if err := guidelines.InitCollection(ctx); err != nil {
			log.Fatal("failed to initialize qdrant collection", zap.Error(err))
		}
		log.Info("guideline retrieval enabled", zap.String("collection", cfg.Qdrant.Collection))
	}

	archive, err := services.NewArchiveService(ctx, cfg.Archive, log)
	if err != nil {
		log.Fatal("failed to initialize archive", zap.Error(err))
	}

	publisher, err := services.NewEventPublisher(cfg.Events, log)
	if err != nil {
		log.Fatal("failed to connect to event broker", zap.Error(err))
	}
	defer publisher.Close()

	analyzer := services.NewAnalyzerService(
		geminiService,
		extractor,
		guidelines,
		services.AnalyzerConfig{
			Temperature: cfg.Gemini.Temperature,
			CallTimeout: cfg.Gemini.Timeout,
		},
		log,
	)

	analysisService := services.NewAnalysisService(
		repo,
		storageService,
		analyzer,
		archive,
		publisher,
		cfg.Storage.DeleteAfterAnalysis,
		log,
	)

	deps := server.Dependencies{
		Config:   cfg,
		Analyses: analysisService,
		Log:      log,
	}

	var worker services.Worker
	if cfg.Database.Enabled {
		worker = services.NewWorker(
			repo,
			analysisService,
			cfg.Worker.Concurrency,
			cfg.Worker.PollInterval,
			cfg.Worker.StaleAfter,
			log,
		)
		// Stop drains in-flight analyses, so they must not see the signal cancellation.
		worker.Start(context.WithoutCancel(ctx))
		deps.Repo = repo
		deps.Worker = worker
	}

	app := server.New(deps)

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if worker != nil {
			worker.Stop()
		}
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
