package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"testing"

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

func setupQuestionApp(t *testing.T, role string) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Exam{}, &models.Question{}, &models.Submission{}))

	logger := zerolog.Nop()
	importService := service.NewQuestionImportService(
		repository.NewQuestionRepository(db),
		repository.NewExamRepository(db),
		logger,
	)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		QuestionHandler: handler.NewQuestionHandler(importService, nil, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return app, db
}

func buildCSVUpload(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "questions.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestQuestionImportEndpoint(t *testing.T) {
	app, db := setupQuestionApp(t, models.RoleAdmin)

	exam := models.Exam{Name: "Import Endpoint"}
	require.NoError(t, db.Create(&exam).Error)

	csv := "question,option1,option2,option3,answer\nWhat is 2+2?,2,3,4,3\n"
	body, contentType := buildCSVUpload(t, csv)

	path := "/api/v1/admin/exams/" + strconv.FormatUint(uint64(exam.ID), 10) + "/questions/import"
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Data dto.QuestionImportResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 1, result.Data.Imported)

	var count int64
	require.NoError(t, db.Model(&models.Question{}).Where("exam_id = ?", exam.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestQuestionImportRejectsMissingColumns(t *testing.T) {
	app, db := setupQuestionApp(t, models.RoleAdmin)

	exam := models.Exam{Name: "Broken Import"}
	require.NoError(t, db.Create(&exam).Error)

	body, contentType := buildCSVUpload(t, "question,option1\nq,a\n")

	path := "/api/v1/admin/exams/" + strconv.FormatUint(uint64(exam.ID), 10) + "/questions/import"
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestQuestionImportRequiresAdminRole(t *testing.T) {
	app, db := setupQuestionApp(t, models.RoleStudent)

	exam := models.Exam{Name: "Forbidden Import"}
	require.NoError(t, db.Create(&exam).Error)

	body, contentType := buildCSVUpload(t, "question,option1,option2,option3,answer\nq,a,b,c,1\n")

	path := "/api/v1/admin/exams/" + strconv.FormatUint(uint64(exam.ID), 10) + "/questions/import"
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
