package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/config"
	"alfredoptarigan/ats-matcher/internal/handlers"
	"alfredoptarigan/ats-matcher/internal/repositories"
	"alfredoptarigan/ats-matcher/internal/services"
)

const (
	appName = "ATS Resume Matcher"

	// Multipart framing and the job description ride on top of the file itself.
	formOverhead = 1 << 20
)

// Dependencies are the wired services the HTTP layer needs. Repo and Worker
// are nil when persistence is disabled, which also disables the async and
// history routes.
type Dependencies struct {
	Config   *config.Config
	Analyses services.AnalysisService
	Repo     repositories.AnalysisRepository
	Worker   services.Worker
	Log      *zap.Logger
}

// New builds the Fiber app with middleware and routes registered.
func New(deps Dependencies) *fiber.App {
	cfg := deps.Config
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               appName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          5 * time.Minute,
		BodyLimit:             int(cfg.Storage.MaxFileSize) + formOverhead,
		ErrorHandler:          newErrorHandler(deps.Log),
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	pageHandler := handlers.NewPageHandler()
	analyzeHandler := handlers.NewAnalyzeHandler(deps.Analyses, deps.Worker, cfg.Storage.MaxFileSize)

	app.Get("/", pageHandler.HandleIndex)
	app.Post("/analyze", analyzeHandler.HandleAnalyze)

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	if deps.Repo != nil && deps.Worker != nil {
		analysisHandler := handlers.NewAnalysisHandler(deps.Repo)

		api.Post("/analyses", analyzeHandler.HandleSubmit)
		api.Get("/analyses", analysisHandler.HandleListAnalyses)
		api.Get("/analyses/:id", analysisHandler.HandleGetAnalysis)
	}

	return app
}

func newErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}
}
