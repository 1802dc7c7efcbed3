package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/config"
	"github.com/examify-bd/examify-api/internal/database"
	"github.com/examify-bd/examify-api/internal/handler"
	"github.com/examify-bd/examify-api/internal/middleware"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
	"github.com/examify-bd/examify-api/internal/router"
	"github.com/examify-bd/examify-api/internal/service"
	cloud "github.com/examify-bd/examify-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Exam{}, &models.Question{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	examRepo := repository.NewExamRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	authService := service.NewAuthService(userRepo, batchRepo, validate, cfg.JWTSecret, cfg.JWTExpiry, logger)
	batchService := service.NewBatchService(batchRepo, userRepo, validate, logger)
	examService := service.NewExamService(examRepo, questionRepo, batchRepo, userRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(examRepo, batchRepo, submissionRepo, redisClient, cfg.LeaderboardCacheTTL, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, validate, examService, leaderboardService, natsConn, logger)
	importService := service.NewQuestionImportService(questionRepo, examRepo, logger)
	assetService := service.NewAssetService(uploader, logger)
	reportService := service.NewReportService(examRepo, batchRepo, userRepo, submissionRepo, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	batchHandler := handler.NewBatchHandler(batchService, logger)
	examHandler := handler.NewExamHandler(examService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, examService, batchService, logger)
	questionHandler := handler.NewQuestionHandler(importService, assetService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:        authHandler,
		BatchHandler:       batchHandler,
		ExamHandler:        examHandler,
		SubmissionHandler:  submissionHandler,
		LeaderboardHandler: leaderboardHandler,
		QuestionHandler:    questionHandler,
		ReportHandler:      reportHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
