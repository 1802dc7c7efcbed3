package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
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

// setupSubmissionApp builds the submission routes over a shared in-memory
// database, authenticated as a freshly created student.
func setupSubmissionApp(t *testing.T, roll string) (*fiber.App, *gorm.DB, models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Exam{}, &models.Question{}, &models.Submission{}))

	user := models.User{Name: "Student " + roll, Roll: roll, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	examService := service.NewExamService(examRepo, repository.NewQuestionRepository(db), repository.NewBatchRepository(db), repository.NewUserRepository(db), validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, validate, examService, nil, nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", user.ID)
			c.Locals("user_role", models.RoleStudent)
			return c.Next()
		},
	})

	return app, db, user
}

func TestSubmissionHandlerAcceptsAttempt(t *testing.T) {
	app, db, _ := setupSubmissionApp(t, "SH-001")

	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Handler Test", NegativeMarksPerWrong: 0.25, EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	body, err := json.Marshal(dto.SubmissionCreateRequest{
		ExamID:         exam.ID,
		CorrectAnswers: 18,
		WrongAnswers:   2,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.True(t, created.Success)
	require.InDelta(t, 17.5, created.Data.Score, 0.001)
	require.True(t, created.Data.Official)
}

func TestSubmissionHandlerRejectsUpcomingExam(t *testing.T) {
	app, db, _ := setupSubmissionApp(t, "SH-002")

	start := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Not Yet", StartAt: &start}
	require.NoError(t, db.Create(&exam).Error)

	body, err := json.Marshal(dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 3})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmissionHandlerDuplicateOneTimeAttempt(t *testing.T) {
	app, db, _ := setupSubmissionApp(t, "SH-003")

	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Single Attempt", AttemptPolicy: models.AttemptPolicyOneTime, EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	body, err := json.Marshal(dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 9})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSubmissionHandlerListsOwnAttempts(t *testing.T) {
	app, db, user := setupSubmissionApp(t, "SH-004")

	exam := models.Exam{Name: "History Quiz"}
	require.NoError(t, db.Create(&exam).Error)

	now := time.Now().UTC()
	score := 7.0
	require.NoError(t, db.Create(&models.Submission{ExamID: exam.ID, UserID: user.ID, Score: &score, SubmittedAt: &now}).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/submissions/mine", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Data, 1)
	require.InDelta(t, 7.0, listed.Data[0].Score, 0.001)
}
