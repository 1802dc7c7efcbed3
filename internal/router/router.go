package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/examify-bd/examify-api/internal/config"
	"github.com/examify-bd/examify-api/internal/handler"
	"github.com/examify-bd/examify-api/internal/middleware"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	BatchHandler       *handler.BatchHandler
	ExamHandler        *handler.ExamHandler
	SubmissionHandler  *handler.SubmissionHandler
	LeaderboardHandler *handler.LeaderboardHandler
	QuestionHandler    *handler.QuestionHandler
	ReportHandler      *handler.ReportHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	// Student-facing routes require authentication.
	batches := api.Group("/batches", jwtMiddleware)
	exams := api.Group("/exams", jwtMiddleware)

	if deps.BatchHandler != nil {
		deps.BatchHandler.Register(batches)
	}

	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(exams)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware,
			middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow))
		deps.SubmissionHandler.Register(submissions)
		deps.SubmissionHandler.RegisterExamScoped(exams)
	}

	if deps.LeaderboardHandler != nil {
		deps.LeaderboardHandler.RegisterExamScoped(exams)
		deps.LeaderboardHandler.RegisterBatchScoped(batches)
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))

	if deps.BatchHandler != nil {
		deps.BatchHandler.RegisterAdmin(admin.Group("/batches"))
	}

	if deps.ExamHandler != nil {
		deps.ExamHandler.RegisterAdmin(admin.Group("/exams"))
	}

	if deps.QuestionHandler != nil {
		deps.QuestionHandler.RegisterAdmin(admin)
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.RegisterAdmin(admin.Group("/reports"))
	}
}
