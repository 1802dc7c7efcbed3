package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ErrNotEnrolled indicates the student has no access to a private batch.
var ErrNotEnrolled = errors.New("not enrolled in batch")

// BatchService manages course cohorts and enrollment.
type BatchService interface {
	List(ctx context.Context) ([]dto.BatchResponse, error)
	ListPublic(ctx context.Context) ([]dto.BatchResponse, error)
	Get(ctx context.Context, id uint) (dto.BatchResponse, error)
	Create(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error)
	Update(ctx context.Context, id uint, payload dto.BatchUpdateRequest) (dto.BatchResponse, error)
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, batchID, userID uint) error
	AuthorizeAccess(ctx context.Context, batchID, userID uint) error
}

type batchService struct {
	batches   repository.BatchRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewBatchService constructs a BatchService instance.
func NewBatchService(batches repository.BatchRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) BatchService {
	return &batchService{
		batches:   batches,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "batch_service").Logger(),
	}
}

func (s *batchService) List(ctx context.Context) ([]dto.BatchResponse, error) {
	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewBatchResponseSlice(batches), nil
}

func (s *batchService) ListPublic(ctx context.Context) ([]dto.BatchResponse, error) {
	batches, err := s.batches.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewBatchResponseSlice(batches), nil
}

func (s *batchService) Get(ctx context.Context, id uint) (dto.BatchResponse, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchResponse{}, ErrBatchNotFound
		}
		return dto.BatchResponse{}, err
	}

	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Create(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}

	batch := models.Batch{
		Name:        payload.Name,
		Description: payload.Description,
		IsPublic:    payload.IsPublic,
		Status:      models.BatchStatusActive,
	}

	if err := s.batches.Create(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}

	s.logger.Info().Uint("batch_id", batch.ID).Msg("batch created")

	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Update(ctx context.Context, id uint, payload dto.BatchUpdateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}

	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchResponse{}, ErrBatchNotFound
		}
		return dto.BatchResponse{}, err
	}

	if payload.Name != nil {
		batch.Name = *payload.Name
	}
	if payload.Description != nil {
		batch.Description = *payload.Description
	}
	if payload.IsPublic != nil {
		batch.IsPublic = *payload.IsPublic
	}
	if payload.Status != nil {
		batch.Status = *payload.Status
	}

	if err := s.batches.Update(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}

	s.logger.Info().Uint("batch_id", batch.ID).Msg("batch updated")

	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Delete(ctx context.Context, id uint) error {
	if _, err := s.batches.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		return err
	}

	if err := s.batches.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("batch_id", id).Msg("batch deleted")

	return nil
}

func (s *batchService) Enroll(ctx context.Context, batchID, userID uint) error {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		return err
	}

	if !batch.IsPublic || batch.Status != models.BatchStatusActive {
		return ErrBatchNotOpen
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.EnrolledIn(batchID) {
		return nil
	}

	if err := s.users.Enroll(ctx, &user, batch); err != nil {
		return err
	}

	s.logger.Info().Uint("batch_id", batchID).Uint("user_id", userID).Msg("student enrolled")

	return nil
}

// AuthorizeAccess checks that the user may read batch content. Public
// batches skip the enrollment check entirely.
func (s *batchService) AuthorizeAccess(ctx context.Context, batchID, userID uint) error {
	batch, err := s.batches.GetByID(ctx, batchID)
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

	if user.IsAdmin() || user.EnrolledIn(batchID) {
		return nil
	}

	return ErrNotEnrolled
}
