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

type invalidationRecorder struct {
	examIDs []uint
}

func (r *invalidationRecorder) InvalidateExam(_ context.Context, exam models.Exam) {
	r.examIDs = append(r.examIDs, exam.ID)
}

func setupSubmissionService(t *testing.T) (SubmissionService, *gorm.DB, *invalidationRecorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Batch{}, &models.Exam{}, &models.Question{}, &models.Submission{}))

	recorder := &invalidationRecorder{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	access := NewExamService(
		examRepo,
		repository.NewQuestionRepository(db),
		repository.NewBatchRepository(db),
		repository.NewUserRepository(db),
		validate,
		zerolog.Nop(),
	)

	svc := NewSubmissionService(
		repository.NewSubmissionRepository(db),
		examRepo,
		validate,
		access,
		recorder,
		nil,
		zerolog.Nop(),
	)

	return svc, db, recorder
}

func createSubmissionUser(t *testing.T, db *gorm.DB, roll string) models.User {
	t.Helper()
	user := models.User{Name: "Student " + roll, Roll: roll, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestSubmitStoresScoreAndInvalidatesLeaderboard(t *testing.T) {
	svc, db, recorder := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-001")

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Model Test", NegativeMarksPerWrong: 0.25, StartAt: &start, EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	response, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{
		ExamID:         exam.ID,
		CorrectAnswers: 18,
		WrongAnswers:   2,
		Unattempted:    5,
	})
	require.NoError(t, err)
	require.InDelta(t, 17.5, response.Score, 0.001)
	require.True(t, response.Official)
	require.NotNil(t, response.SubmittedAt)

	var stored models.Submission
	require.NoError(t, db.First(&stored, response.ID).Error)
	require.NotNil(t, stored.Score)
	require.InDelta(t, 17.5, *stored.Score, 0.001)

	require.Equal(t, []uint{exam.ID}, recorder.examIDs)
}

func TestSubmitRejectsUpcomingExam(t *testing.T) {
	svc, db, _ := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-002")

	start := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Future Test", StartAt: &start}
	require.NoError(t, db.Create(&exam).Error)

	_, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 5})
	require.ErrorIs(t, err, ErrExamNotStarted)
}

func TestSubmitRejectsSecondOneTimeAttempt(t *testing.T) {
	svc, db, _ := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-003")

	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "One Shot", AttemptPolicy: models.AttemptPolicyOneTime, EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	_, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 10})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 12})
	require.ErrorIs(t, err, ErrAlreadyAttempted)
}

func TestSubmitAfterWindowBecomesPracticeAttempt(t *testing.T) {
	svc, db, _ := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-004")

	start := time.Now().Add(-2 * time.Hour)
	end := time.Now().Add(-time.Hour)
	exam := models.Exam{Name: "Closed Test", AttemptPolicy: models.AttemptPolicyOneTime, StartAt: &start, EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	// The gate never blocks a finished exam; attempts after the window just
	// stop counting as official, and one-time no longer applies.
	first, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 10})
	require.NoError(t, err)
	require.False(t, first.Official)

	second, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 12})
	require.NoError(t, err)
	require.False(t, second.Official)
}

func TestSubmitPracticeExamAlwaysOpen(t *testing.T) {
	svc, db, _ := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-005")

	start := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Practice Bank", IsPractice: true, AttemptPolicy: models.AttemptPolicyUnlimited, StartAt: &start}
	require.NoError(t, db.Create(&exam).Error)

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 8})
		require.NoError(t, err)
	}
}

func TestSubmitRequiresEnrollmentForPrivateBatchExam(t *testing.T) {
	svc, db, recorder := setupSubmissionService(t)
	outsider := createSubmissionUser(t, db, "SUB-008")

	batch := models.Batch{Name: "Closed Cohort", IsPublic: false, Status: models.BatchStatusActive}
	require.NoError(t, db.Create(&batch).Error)

	member := models.User{Name: "Member", Roll: "SUB-009", PasswordHash: "x", Batches: []models.Batch{batch}}
	require.NoError(t, db.Create(&member).Error)

	end := time.Now().Add(time.Hour)
	exam := models.Exam{Name: "Cohort Only", BatchID: &batch.ID, EndAt: &end}
	require.NoError(t, db.Create(&exam).Error)

	payload := dto.SubmissionCreateRequest{ExamID: exam.ID, CorrectAnswers: 9}

	_, err := svc.Submit(context.Background(), outsider.ID, payload)
	require.ErrorIs(t, err, ErrNotEnrolled)
	require.Empty(t, recorder.examIDs)

	_, err = svc.Submit(context.Background(), member.ID, payload)
	require.NoError(t, err)
}

func TestSubmitRejectsInvertedTimestamps(t *testing.T) {
	svc, db, _ := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-006")

	exam := models.Exam{Name: "Open Test"}
	require.NoError(t, db.Create(&exam).Error)

	started := time.Now()
	submitted := started.Add(-time.Minute)

	_, err := svc.Submit(context.Background(), user.ID, dto.SubmissionCreateRequest{
		ExamID:      exam.ID,
		StartedAt:   &started,
		SubmittedAt: &submitted,
	})
	require.ErrorIs(t, err, ErrSubmittedBeforeStarted)
}

func TestSubmitUnknownExam(t *testing.T) {
	svc, _, _ := setupSubmissionService(t)

	_, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{ExamID: 987654})
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestListByUserResolvesScoresPerExam(t *testing.T) {
	svc, db, _ := setupSubmissionService(t)
	user := createSubmissionUser(t, db, "SUB-007")

	examA := models.Exam{Name: "Exam A", NegativeMarksPerWrong: 0.5}
	examB := models.Exam{Name: "Exam B"}
	require.NoError(t, db.Create(&examA).Error)
	require.NoError(t, db.Create(&examB).Error)

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Submission{ExamID: examA.ID, UserID: user.ID, CorrectAnswers: 10, WrongAnswers: 4, SubmittedAt: &now}).Error)
	require.NoError(t, db.Create(&models.Submission{ExamID: examB.ID, UserID: user.ID, CorrectAnswers: 6, SubmittedAt: &now}).Error)

	responses, err := svc.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)

	scores := map[uint]float64{}
	for _, response := range responses {
		scores[response.ExamID] = response.Score
	}
	require.InDelta(t, 8.0, scores[examA.ID], 0.001)
	require.InDelta(t, 6.0, scores[examB.ID], 0.001)
}
