package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/observability"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrExamNotStarted indicates the exam window has not opened yet.
var ErrExamNotStarted = errors.New("exam has not started yet")

// ErrAlreadyAttempted indicates a one-time exam already has a scored attempt
// from this student.
var ErrAlreadyAttempted = errors.New("exam already attempted")

// ErrSubmittedBeforeStarted indicates the reported timestamps are inverted.
var ErrSubmittedBeforeStarted = errors.New("submitted_at precedes started_at")

const submissionEventSubject = "examify.submissions"

// LeaderboardInvalidator drops cached standings after a new submission.
type LeaderboardInvalidator interface {
	InvalidateExam(ctx context.Context, exam models.Exam)
}

// ExamAuthorizer grants or denies a user's access to an exam's batch scope.
// ExamService satisfies it.
type ExamAuthorizer interface {
	AuthorizeAccess(ctx context.Context, examID, userID uint) error
}

// SubmissionService accepts and scores exam attempts.
type SubmissionService interface {
	Submit(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	ListByExam(ctx context.Context, examID, userID uint) ([]dto.SubmissionResponse, error)
	ListByUser(ctx context.Context, userID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exams       repository.ExamRepository
	validator   *validator.Validate
	access      ExamAuthorizer
	leaderboard LeaderboardInvalidator
	events      *nats.Conn
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. The NATS
// connection and leaderboard invalidator may be nil; the authorizer may not.
func NewSubmissionService(submissionRepo repository.SubmissionRepository, examRepo repository.ExamRepository, validate *validator.Validate, access ExamAuthorizer, leaderboard LeaderboardInvalidator, events *nats.Conn, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissionRepo,
		exams:       examRepo,
		validator:   validate,
		access:      access,
		leaderboard: leaderboard,
		events:      events,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/examify-bd/examify-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Submit records an attempt. The availability gate never blocks an attempt
// outright once an exam has started: attempts after the window close are
// stored too and simply fall outside the official leaderboard. Upcoming
// exams reject attempts, and one-time exams reject a second official
// attempt while their window is open.
func (s *submissionService) Submit(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.submit", trace.WithAttributes(
		attribute.Int64("submission.exam_id", int64(payload.ExamID)),
		attribute.Int64("submission.user_id", int64(userID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if err := s.access.AuthorizeAccess(ctx, payload.ExamID, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access_denied")
		return dto.SubmissionResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, payload.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrExamNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	phase := exam.Phase(now)
	span.SetAttributes(attribute.String("submission.exam_phase", string(phase)))

	if phase == models.PhaseUpcoming {
		return dto.SubmissionResponse{}, ErrExamNotStarted
	}

	if payload.StartedAt != nil && payload.SubmittedAt != nil && payload.SubmittedAt.Before(*payload.StartedAt) {
		return dto.SubmissionResponse{}, ErrSubmittedBeforeStarted
	}

	if exam.AttemptPolicy == models.AttemptPolicyOneTime && phase == models.PhaseLive {
		count, err := s.submissions.CountByExamAndUser(ctx, exam.ID, userID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if count > 0 {
			return dto.SubmissionResponse{}, ErrAlreadyAttempted
		}
	}

	submittedAt := payload.SubmittedAt
	if submittedAt == nil {
		submittedAt = &now
	}

	submission := models.Submission{
		ExamID:         exam.ID,
		UserID:         userID,
		CorrectAnswers: payload.CorrectAnswers,
		WrongAnswers:   payload.WrongAnswers,
		Unattempted:    payload.Unattempted,
		StartedAt:      payload.StartedAt,
		SubmittedAt:    submittedAt,
	}

	// Score is written at submission time; once stored it is authoritative.
	score := submission.FinalScore(exam)
	submission.Score = &score

	if err := s.submissions.Create(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_create_failed")
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.leaderboard != nil {
		s.leaderboard.InvalidateExam(ctx, exam)
	}

	s.publishEvent(created, exam)

	official := created.IsOfficial(exam)
	observability.SubmissionsAccepted().WithLabelValues(officialLabel(official)).Inc()

	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("exam_id", exam.ID).
		Uint("user_id", userID).
		Float64("score", score).
		Bool("official", official).
		Msg("submission accepted")

	span.SetAttributes(
		attribute.Float64("submission.score", score),
		attribute.Bool("submission.official", official),
	)

	return dto.NewSubmissionResponse(created, exam), nil
}

func (s *submissionService) ListByExam(ctx context.Context, examID, userID uint) ([]dto.SubmissionResponse, error) {
	if err := s.access.AuthorizeAccess(ctx, examID, userID); err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions, exam), nil
}

func (s *submissionService) ListByUser(ctx context.Context, userID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission, submission.Exam))
	}

	return responses, nil
}

type submissionEvent struct {
	SubmissionID uint       `json:"submission_id"`
	ExamID       uint       `json:"exam_id"`
	UserID       uint       `json:"user_id"`
	Score        float64    `json:"score"`
	Official     bool       `json:"official"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

func (s *submissionService) publishEvent(submission models.Submission, exam models.Exam) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(submissionEvent{
		SubmissionID: submission.ID,
		ExamID:       submission.ExamID,
		UserID:       submission.UserID,
		Score:        submission.FinalScore(exam),
		Official:     submission.IsOfficial(exam),
		SubmittedAt:  submission.SubmittedAt,
	})
	if err != nil {
		return
	}

	if err := s.events.Publish(submissionEventSubject, payload); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish submission event")
	}
}

func officialLabel(official bool) string {
	if official {
		return "official"
	}
	return "practice"
}
