package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/handler"
	"github.com/examify-bd/examify-api/internal/models"
)

type stubLeaderboardService struct {
	response dto.ExamLeaderboardResponse
}

func (s stubLeaderboardService) ExamLeaderboard(context.Context, uint, dto.LeaderboardView) (dto.ExamLeaderboardResponse, error) {
	return s.response, nil
}

func (s stubLeaderboardService) BatchLeaderboard(context.Context, uint) (dto.BatchLeaderboardResponse, error) {
	return dto.BatchLeaderboardResponse{}, nil
}

func (s stubLeaderboardService) InvalidateExam(context.Context, models.Exam) {}

type openAccess struct{}

func (openAccess) AuthorizeAccess(context.Context, uint, uint) error { return nil }

func TestExamLeaderboardContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "exam_leaderboard.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	svc := stubLeaderboardService{response: dto.ExamLeaderboardResponse{
		ExamID: 7,
		View:   dto.LeaderboardViewOfficial,
		Entries: []dto.LeaderboardEntry{
			{
				Rank:           1,
				SubmissionID:   101,
				UserID:         5,
				UserName:       "Rahim Uddin",
				UserRoll:       "01711000001",
				Score:          17.5,
				CorrectAnswers: 18,
				WrongAnswers:   2,
				Unattempted:    5,
				Official:       true,
				SubmittedAt:    &now,
			},
			{
				Rank:           2,
				SubmissionID:   102,
				UserID:         9,
				UserName:       "Karima Akter",
				UserRoll:       "01711000002",
				Score:          12,
				CorrectAnswers: 12,
				WrongAnswers:   0,
				Unattempted:    13,
				Official:       true,
				SubmittedAt:    nil,
			},
		},
	}}

	leaderboardHandler := handler.NewLeaderboardHandler(svc, openAccess{}, openAccess{}, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/exams", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "student")
		return c.Next()
	})
	leaderboardHandler.RegisterExamScoped(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/7/leaderboard", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
