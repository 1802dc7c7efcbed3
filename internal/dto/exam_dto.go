package dto

import (
	"time"

	"github.com/examify-bd/examify-api/internal/models"
)

// ExamCreateRequest describes the payload for creating an exam.
type ExamCreateRequest struct {
	Name                  string     `json:"name" validate:"required,min=2,max=255"`
	BatchID               *uint      `json:"batch_id" validate:"omitempty,gt=0"`
	DurationMinutes       int        `json:"duration_minutes" validate:"required,gt=0"`
	MarksPerQuestion      float64    `json:"marks_per_question" validate:"gte=0"`
	NegativeMarksPerWrong float64    `json:"negative_marks_per_wrong" validate:"gte=0"`
	StartAt               *time.Time `json:"start_at"`
	EndAt                 *time.Time `json:"end_at"`
	IsPractice            bool       `json:"is_practice"`
	AttemptPolicy         string     `json:"attempt_policy" validate:"omitempty,oneof=one_time unlimited"`
}

// ExamUpdateRequest allows partial updates to an exam definition.
type ExamUpdateRequest struct {
	Name                  *string    `json:"name" validate:"omitempty,min=2,max=255"`
	DurationMinutes       *int       `json:"duration_minutes" validate:"omitempty,gt=0"`
	MarksPerQuestion      *float64   `json:"marks_per_question" validate:"omitempty,gte=0"`
	NegativeMarksPerWrong *float64   `json:"negative_marks_per_wrong" validate:"omitempty,gte=0"`
	StartAt               *time.Time `json:"start_at"`
	EndAt                 *time.Time `json:"end_at"`
	IsPractice            *bool      `json:"is_practice"`
	Status                *string    `json:"status" validate:"omitempty,oneof=live end"`
	AttemptPolicy         *string    `json:"attempt_policy" validate:"omitempty,oneof=one_time unlimited"`
}

// ExamResponse is the API representation of an exam, including the phase the
// availability gate assigns for the requesting instant.
type ExamResponse struct {
	ID                    uint             `json:"id"`
	Name                  string           `json:"name"`
	BatchID               *uint            `json:"batch_id"`
	DurationMinutes       int              `json:"duration_minutes"`
	MarksPerQuestion      float64          `json:"marks_per_question"`
	NegativeMarksPerWrong float64          `json:"negative_marks_per_wrong"`
	StartAt               *time.Time       `json:"start_at"`
	EndAt                 *time.Time       `json:"end_at"`
	IsPractice            bool             `json:"is_practice"`
	Status                string           `json:"status"`
	AttemptPolicy         string           `json:"attempt_policy"`
	Phase                 models.ExamPhase `json:"phase"`
	QuestionCount         int              `json:"question_count"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// NewExamResponse maps an exam model onto its API representation, evaluating
// the availability gate at the given instant.
func NewExamResponse(exam models.Exam, now time.Time) ExamResponse {
	return ExamResponse{
		ID:                    exam.ID,
		Name:                  exam.Name,
		BatchID:               exam.BatchID,
		DurationMinutes:       exam.DurationMinutes,
		MarksPerQuestion:      exam.MarksPerQuestion,
		NegativeMarksPerWrong: exam.NegativeMarksPerWrong,
		StartAt:               exam.StartAt,
		EndAt:                 exam.EndAt,
		IsPractice:            exam.IsPractice,
		Status:                exam.Status,
		AttemptPolicy:         exam.AttemptPolicy,
		Phase:                 exam.Phase(now),
		QuestionCount:         len(exam.Questions),
		CreatedAt:             exam.CreatedAt,
		UpdatedAt:             exam.UpdatedAt,
	}
}

// NewExamResponseSlice maps a list of exams evaluated at the same instant.
func NewExamResponseSlice(exams []models.Exam, now time.Time) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam, now))
	}
	return responses
}
