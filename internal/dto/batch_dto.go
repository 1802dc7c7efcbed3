package dto

import (
	"time"

	"github.com/examify-bd/examify-api/internal/models"
)

// BatchCreateRequest describes the payload for creating a batch.
type BatchCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=4000"`
	IsPublic    bool   `json:"is_public"`
}

// BatchUpdateRequest allows partial updates to a batch.
type BatchUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	IsPublic    *bool   `json:"is_public"`
	Status      *string `json:"status" validate:"omitempty,oneof=active archived"`
}

// BatchResponse is the API representation of a batch.
type BatchResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	Status      string    `json:"status"`
	ExamCount   int       `json:"exam_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewBatchResponse maps a batch model onto its API representation.
func NewBatchResponse(batch models.Batch) BatchResponse {
	return BatchResponse{
		ID:          batch.ID,
		Name:        batch.Name,
		Description: batch.Description,
		IsPublic:    batch.IsPublic,
		Status:      batch.Status,
		ExamCount:   len(batch.Exams),
		CreatedAt:   batch.CreatedAt,
		UpdatedAt:   batch.UpdatedAt,
	}
}

// NewBatchResponseSlice maps a list of batches.
func NewBatchResponseSlice(batches []models.Batch) []BatchResponse {
	responses := make([]BatchResponse, 0, len(batches))
	for _, batch := range batches {
		responses = append(responses, NewBatchResponse(batch))
	}
	return responses
}
