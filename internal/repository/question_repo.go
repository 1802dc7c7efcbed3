package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/models"
)

// QuestionRepository defines data operations for the question bank.
type QuestionRepository interface {
	ListByExam(ctx context.Context, examID uint) ([]models.Question, error)
	CreateBatch(ctx context.Context, questions []models.Question) error
	DeleteByExam(ctx context.Context, examID uint) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

// CreateBatch inserts all questions in one transaction so a failed import
// never leaves a partial bank behind.
func (r *questionRepository) CreateBatch(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
}

func (r *questionRepository) DeleteByExam(ctx context.Context, examID uint) error {
	return r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.Question{}).Error
}
