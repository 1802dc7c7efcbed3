package handler_test

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/config"
	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/handler"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
	"github.com/examify-bd/examify-api/internal/router"
	"github.com/examify-bd/examify-api/internal/service"
)

// setupLeaderboardApp builds the leaderboard routes over a shared in-memory
// database. Tests point currentUser at whichever account the request should
// be authenticated as.
func setupLeaderboardApp(t *testing.T) (*fiber.App, *gorm.DB, *uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Exam{}, &models.Question{}, &models.Submission{}))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	examRepo := repository.NewExamRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	batchService := service.NewBatchService(batchRepo, userRepo, validate, logger)
	examService := service.NewExamService(examRepo, questionRepo, batchRepo, userRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(examRepo, batchRepo, submissionRepo, nil, time.Minute, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, validate, examService, leaderboardService, nil, logger)

	currentUser := new(uint)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		LeaderboardHandler: handler.NewLeaderboardHandler(leaderboardService, examService, batchService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", *currentUser)
			c.Locals("user_role", models.RoleStudent)
			return c.Next()
		},
	})

	return app, db, currentUser
}

func TestLeaderboardHandlerViews(t *testing.T) {
	app, db, currentUser := setupLeaderboardApp(t)

	users := []models.User{
		{Name: "Rafi", Roll: "LB-001", PasswordHash: "x"},
		{Name: "Mim", Roll: "LB-002", PasswordHash: "x"},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}

	end := time.Now().Add(-time.Hour).UTC()
	exam := models.Exam{Name: "Chemistry Final", EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	inWindow := end.Add(-10 * time.Minute)
	afterWindow := end.Add(5 * time.Minute)
	official := models.Submission{ExamID: exam.ID, UserID: users[0].ID, CorrectAnswers: 12, SubmittedAt: &inWindow}
	late := models.Submission{ExamID: exam.ID, UserID: users[1].ID, CorrectAnswers: 20, SubmittedAt: &afterWindow}
	require.NoError(t, db.Create(&official).Error)
	require.NoError(t, db.Create(&late).Error)

	*currentUser = users[0].ID

	examPath := "/api/v1/exams/" + strconv.FormatUint(uint64(exam.ID), 10) + "/leaderboard"

	resp, err := app.Test(httptest.NewRequest("GET", examPath, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var officialResp struct {
		Success bool                        `json:"success"`
		Data    dto.ExamLeaderboardResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&officialResp))
	require.True(t, officialResp.Success)
	require.Equal(t, dto.LeaderboardViewOfficial, officialResp.Data.View)
	require.Len(t, officialResp.Data.Entries, 1)
	require.Equal(t, "Rafi", officialResp.Data.Entries[0].UserName)

	resp, err = app.Test(httptest.NewRequest("GET", examPath+"?view=all", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var allResp struct {
		Data dto.ExamLeaderboardResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&allResp))
	require.Len(t, allResp.Data.Entries, 2)
	require.Equal(t, 1, allResp.Data.Entries[0].Rank)
	require.False(t, allResp.Data.Entries[0].Official)
}

func TestLeaderboardHandlerUnknownExam(t *testing.T) {
	app, _, _ := setupLeaderboardApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/exams/999999/leaderboard", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBatchLeaderboardHandler(t *testing.T) {
	app, db, currentUser := setupLeaderboardApp(t)

	batch := models.Batch{Name: "SSC Batch"}
	require.NoError(t, db.Create(&batch).Error)

	user := models.User{Name: "Shanto", Roll: "LB-003", PasswordHash: "x", Batches: []models.Batch{batch}}
	require.NoError(t, db.Create(&user).Error)
	*currentUser = user.ID

	exam := models.Exam{Name: "Batch Exam", BatchID: &batch.ID}
	require.NoError(t, db.Create(&exam).Error)

	now := time.Now().UTC()
	score := 14.0
	require.NoError(t, db.Create(&models.Submission{ExamID: exam.ID, UserID: user.ID, Score: &score, SubmittedAt: &now}).Error)

	path := "/api/v1/batches/" + strconv.FormatUint(uint64(batch.ID), 10) + "/leaderboard"
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.BatchLeaderboardResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Entries, 1)
	require.InDelta(t, 14.0, body.Data.Entries[0].TotalScore, 0.001)
	require.Equal(t, 1, body.Data.Entries[0].Rank)
}

func TestLeaderboardHandlerPrivateBatchRequiresEnrollment(t *testing.T) {
	app, db, currentUser := setupLeaderboardApp(t)

	batch := models.Batch{Name: "HSC Private", IsPublic: false, Status: models.BatchStatusActive}
	require.NoError(t, db.Create(&batch).Error)

	member := models.User{Name: "Member", Roll: "LB-004", PasswordHash: "x", Batches: []models.Batch{batch}}
	outsider := models.User{Name: "Outsider", Roll: "LB-005", PasswordHash: "x"}
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&outsider).Error)

	exam := models.Exam{Name: "Private Exam", BatchID: &batch.ID}
	require.NoError(t, db.Create(&exam).Error)

	examPath := "/api/v1/exams/" + strconv.FormatUint(uint64(exam.ID), 10) + "/leaderboard"
	batchPath := "/api/v1/batches/" + strconv.FormatUint(uint64(batch.ID), 10) + "/leaderboard"

	*currentUser = outsider.ID
	resp, err := app.Test(httptest.NewRequest("GET", examPath, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", batchPath, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	*currentUser = member.ID
	resp, err = app.Test(httptest.NewRequest("GET", examPath, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", batchPath, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
