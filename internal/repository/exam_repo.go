package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/models"
)

// ExamFilter narrows exam list queries.
type ExamFilter struct {
	BatchID    *uint
	PublicOnly bool
	Status     *string
}

// ExamRepository defines data operations for exam definitions.
type ExamRepository interface {
	List(ctx context.Context, filter ExamFilter) ([]models.Exam, error)
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	GetWithQuestions(ctx context.Context, id uint) (models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) List(ctx context.Context, filter ExamFilter) ([]models.Exam, error) {
	query := r.db.WithContext(ctx).Model(&models.Exam{})

	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}

	if filter.PublicOnly {
		query = query.Where("batch_id IS NULL")
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var exams []models.Exam
	if err := query.Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) GetWithQuestions(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).Preload("Questions").First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Questions").Delete(&models.Exam{ID: id}).Error
}
