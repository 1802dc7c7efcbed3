package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	ExamID *uint
	UserID *uint
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Submission, error)
	ListByBatch(ctx context.Context, batchID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	CountByExamAndUser(ctx context.Context, examID, userID uint) (int64, error)
	Create(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Exam").
		Preload("User")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.ExamID != nil {
		query = query.Where("exam_id = ?", *filter.ExamID)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListByExam orders rows the way the per-exam leaderboard consumes them:
// score descending, then fewer wrong answers, then earlier submission. The
// ranker re-sorts with the explicit comparator; the query order keeps reads
// deterministic even when callers bypass the ranker.
func (r *submissionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("exam_id = ?", examID).
		Order("score DESC").
		Order("wrong_answers ASC").
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByBatch(ctx context.Context, batchID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Joins("JOIN exams ON exams.id = submissions.exam_id").
		Where("exams.batch_id = ?", batchID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountByExamAndUser(ctx context.Context, examID, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("exam_id = ?", examID).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}
