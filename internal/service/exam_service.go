package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ExamService manages exam definitions and student-facing exam views.
type ExamService interface {
	List(ctx context.Context, filter repository.ExamFilter) ([]dto.ExamResponse, error)
	Get(ctx context.Context, id uint) (dto.ExamResponse, error)
	GetQuestions(ctx context.Context, examID uint, withAnswers bool) ([]dto.QuestionResponse, error)
	AuthorizeAccess(ctx context.Context, examID, userID uint) error
	Create(ctx context.Context, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error)
	Delete(ctx context.Context, id uint) error
}

type examService struct {
	exams     repository.ExamRepository
	questions repository.QuestionRepository
	batches   repository.BatchRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExamService constructs an ExamService instance.
func NewExamService(exams repository.ExamRepository, questions repository.QuestionRepository, batches repository.BatchRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) ExamService {
	return &examService{
		exams:     exams,
		questions: questions,
		batches:   batches,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "exam_service").Logger(),
		now:       time.Now,
	}
}

func (s *examService) List(ctx context.Context, filter repository.ExamFilter) ([]dto.ExamResponse, error) {
	exams, err := s.exams.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewExamResponseSlice(exams, s.now()), nil
}

func (s *examService) Get(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.exams.GetWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam, s.now()), nil
}

// GetQuestions returns the exam's question bank. Answers and explanations
// are withheld from student views of exams still inside their window; once
// the exam has ended (practice display) they are revealed.
func (s *examService) GetQuestions(ctx context.Context, examID uint, withAnswers bool) ([]dto.QuestionResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	if !withAnswers && exam.Phase(s.now()) == models.PhaseEnded {
		withAnswers = true
	}

	return dto.NewQuestionResponseSlice(questions, withAnswers), nil
}

// AuthorizeAccess checks that the user may read content scoped to the exam.
// Exams without a batch are public, as are exams of public batches; private
// batches admit only admins and enrolled students.
func (s *examService) AuthorizeAccess(ctx context.Context, examID, userID uint) error {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	if exam.BatchID == nil {
		return nil
	}

	batch, err := s.batches.GetByID(ctx, *exam.BatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		return err
	}

	if batch.IsPublic {
		return nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.IsAdmin() || user.EnrolledIn(batch.ID) {
		return nil
	}

	return ErrNotEnrolled
}

func (s *examService) Create(ctx context.Context, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	if payload.BatchID != nil {
		if _, err := s.batches.GetByID(ctx, *payload.BatchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ExamResponse{}, ErrBatchNotFound
			}
			return dto.ExamResponse{}, err
		}
	}

	policy := payload.AttemptPolicy
	if policy == "" {
		policy = models.AttemptPolicyOneTime
	}

	marks := payload.MarksPerQuestion
	if marks == 0 {
		marks = 1
	}

	exam := models.Exam{
		Name:                  payload.Name,
		BatchID:               payload.BatchID,
		DurationMinutes:       payload.DurationMinutes,
		MarksPerQuestion:      marks,
		NegativeMarksPerWrong: payload.NegativeMarksPerWrong,
		StartAt:               payload.StartAt,
		EndAt:                 payload.EndAt,
		IsPractice:            payload.IsPractice,
		Status:                models.ExamStatusLive,
		AttemptPolicy:         policy,
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Uint("exam_id", exam.ID).Msg("exam created")

	return dto.NewExamResponse(exam, s.now()), nil
}

func (s *examService) Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	if payload.Name != nil {
		exam.Name = *payload.Name
	}
	if payload.DurationMinutes != nil {
		exam.DurationMinutes = *payload.DurationMinutes
	}
	if payload.MarksPerQuestion != nil {
		exam.MarksPerQuestion = *payload.MarksPerQuestion
	}
	if payload.NegativeMarksPerWrong != nil {
		exam.NegativeMarksPerWrong = *payload.NegativeMarksPerWrong
	}
	if payload.StartAt != nil {
		exam.StartAt = payload.StartAt
	}
	if payload.EndAt != nil {
		exam.EndAt = payload.EndAt
	}
	if payload.IsPractice != nil {
		exam.IsPractice = *payload.IsPractice
	}
	if payload.Status != nil {
		exam.Status = *payload.Status
	}
	if payload.AttemptPolicy != nil {
		exam.AttemptPolicy = *payload.AttemptPolicy
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Uint("exam_id", exam.ID).Msg("exam updated")

	return dto.NewExamResponse(exam, s.now()), nil
}

func (s *examService) Delete(ctx context.Context, id uint) error {
	if _, err := s.exams.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	if err := s.exams.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("exam_id", id).Msg("exam deleted")

	return nil
}
