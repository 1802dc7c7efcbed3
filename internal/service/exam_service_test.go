package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
)

func setupExamService(t *testing.T) (ExamService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Exam{}, &models.Question{}, &models.Submission{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewExamService(
		repository.NewExamRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewBatchRepository(db),
		repository.NewUserRepository(db),
		validate,
		zerolog.Nop(),
	)

	return svc, db
}

func createExamQuestion(t *testing.T, db *gorm.DB, examID uint) models.Question {
	t.Helper()

	question := models.Question{ExamID: examID, Text: "Sample?", AnswerIndex: 2, Explanation: "Because."}
	require.NoError(t, question.SetOptions([]string{"a", "b", "c"}))
	require.NoError(t, db.Create(&question).Error)
	return question
}

func TestExamCreateAppliesDefaults(t *testing.T) {
	svc, _ := setupExamService(t)

	response, err := svc.Create(context.Background(), dto.ExamCreateRequest{Name: "Defaults Exam", DurationMinutes: 30})
	require.NoError(t, err)
	require.InDelta(t, 1.0, response.MarksPerQuestion, 0.001)
	require.Equal(t, models.AttemptPolicyOneTime, response.AttemptPolicy)
	require.Equal(t, models.PhaseLive, response.Phase)
}

func TestExamCreateRejectsUnknownBatch(t *testing.T) {
	svc, _ := setupExamService(t)

	missing := uint(424242)
	_, err := svc.Create(context.Background(), dto.ExamCreateRequest{Name: "Orphan", DurationMinutes: 30, BatchID: &missing})
	require.ErrorIs(t, err, ErrBatchNotFound)
}

func TestGetQuestionsWithholdsAnswersWhileLive(t *testing.T) {
	svc, db := setupExamService(t)

	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Live Exam", EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)
	createExamQuestion(t, db, exam.ID)

	questions, err := svc.GetQuestions(context.Background(), exam.ID, false)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Zero(t, questions[0].AnswerIndex)
	require.Empty(t, questions[0].Explanation)
	require.Equal(t, []string{"a", "b", "c"}, questions[0].Options)
}

func TestGetQuestionsRevealsAnswersAfterEnd(t *testing.T) {
	svc, db := setupExamService(t)

	end := time.Now().Add(-time.Hour)
	exam := models.Exam{Name: "Ended Exam", EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)
	createExamQuestion(t, db, exam.ID)

	questions, err := svc.GetQuestions(context.Background(), exam.ID, false)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, 2, questions[0].AnswerIndex)
	require.Equal(t, "Because.", questions[0].Explanation)
}

func TestGetQuestionsAdminAlwaysSeesAnswers(t *testing.T) {
	svc, db := setupExamService(t)

	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Admin View Exam", EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)
	createExamQuestion(t, db, exam.ID)

	questions, err := svc.GetQuestions(context.Background(), exam.ID, true)
	require.NoError(t, err)
	require.Equal(t, 2, questions[0].AnswerIndex)
}

func TestExamAuthorizeAccess(t *testing.T) {
	svc, db := setupExamService(t)
	ctx := context.Background()

	private := models.Batch{Name: "Private Cohort", IsPublic: false, Status: models.BatchStatusActive}
	public := models.Batch{Name: "Open Cohort", IsPublic: true, Status: models.BatchStatusActive}
	require.NoError(t, db.Create(&private).Error)
	require.NoError(t, db.Create(&public).Error)

	member := models.User{Name: "Member", Roll: "EX-001", PasswordHash: "x", Batches: []models.Batch{private}}
	outsider := models.User{Name: "Outsider", Roll: "EX-002", PasswordHash: "x"}
	admin := models.User{Name: "Admin", Roll: "EX-003", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&outsider).Error)
	require.NoError(t, db.Create(&admin).Error)

	scoped := models.Exam{Name: "Cohort Exam", BatchID: &private.ID}
	shared := models.Exam{Name: "Shared Exam", BatchID: &public.ID}
	open := models.Exam{Name: "Open Exam"}
	require.NoError(t, db.Create(&scoped).Error)
	require.NoError(t, db.Create(&shared).Error)
	require.NoError(t, db.Create(&open).Error)

	// Batchless and public-batch exams are readable by anyone.
	require.NoError(t, svc.AuthorizeAccess(ctx, open.ID, outsider.ID))
	require.NoError(t, svc.AuthorizeAccess(ctx, shared.ID, outsider.ID))

	require.NoError(t, svc.AuthorizeAccess(ctx, scoped.ID, member.ID))
	require.NoError(t, svc.AuthorizeAccess(ctx, scoped.ID, admin.ID))
	require.ErrorIs(t, svc.AuthorizeAccess(ctx, scoped.ID, outsider.ID), ErrNotEnrolled)
	require.ErrorIs(t, svc.AuthorizeAccess(ctx, 909090, member.ID), ErrExamNotFound)
}

func TestExamUpdateAndDelete(t *testing.T) {
	svc, _ := setupExamService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.ExamCreateRequest{Name: "Mutable Exam", DurationMinutes: 45})
	require.NoError(t, err)

	name := "Renamed Exam"
	negative := 0.5
	updated, err := svc.Update(ctx, created.ID, dto.ExamUpdateRequest{Name: &name, NegativeMarksPerWrong: &negative})
	require.NoError(t, err)
	require.Equal(t, "Renamed Exam", updated.Name)
	require.InDelta(t, 0.5, updated.NegativeMarksPerWrong, 0.001)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrExamNotFound)
}
