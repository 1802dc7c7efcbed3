package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/models"
)

// UserRepository defines data operations for user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByRoll(ctx context.Context, roll string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByBatch(ctx context.Context, batchID uint) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Enroll(ctx context.Context, user *models.User, batch models.Batch) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Batches").First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByRoll(ctx context.Context, roll string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Batches").
		Where("roll = ?", roll).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) ListByBatch(ctx context.Context, batchID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN batch_enrollments ON batch_enrollments.user_id = users.id").
		Where("batch_enrollments.batch_id = ?", batchID).
		Order("users.name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Enroll(ctx context.Context, user *models.User, batch models.Batch) error {
	return r.db.WithContext(ctx).Model(user).Association("Batches").Append(&batch)
}
