package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/models"
)

// BatchRepository defines data operations for batches.
type BatchRepository interface {
	List(ctx context.Context) ([]models.Batch, error)
	ListPublic(ctx context.Context) ([]models.Batch, error)
	GetByID(ctx context.Context, id uint) (models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id uint) error
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository instantiates the repository.
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) List(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).Preload("Exams").
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		return nil, err
	}

	return batches, nil
}

func (r *batchRepository) ListPublic(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).Preload("Exams").
		Where("is_public = ?", true).
		Where("status = ?", models.BatchStatusActive).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		return nil, err
	}

	return batches, nil
}

func (r *batchRepository) GetByID(ctx context.Context, id uint) (models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).Preload("Exams").First(&batch, id).Error; err != nil {
		return models.Batch{}, err
	}

	return batch, nil
}

func (r *batchRepository) Create(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *batchRepository) Update(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *batchRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Exams").Delete(&models.Batch{ID: id}).Error
}
