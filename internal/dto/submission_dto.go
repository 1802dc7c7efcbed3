package dto

import (
	"time"

	"github.com/examify-bd/examify-api/internal/models"
)

// SubmissionCreateRequest is the payload a student sends when finishing an
// attempt. The client reports outcome counts; the server computes the score.
type SubmissionCreateRequest struct {
	ExamID         uint       `json:"exam_id" validate:"required,gt=0"`
	CorrectAnswers int        `json:"correct_answers" validate:"gte=0"`
	WrongAnswers   int        `json:"wrong_answers" validate:"gte=0"`
	Unattempted    int        `json:"unattempted" validate:"gte=0"`
	StartedAt      *time.Time `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID             uint       `json:"id"`
	ExamID         uint       `json:"exam_id"`
	UserID         uint       `json:"user_id"`
	UserName       string     `json:"user_name,omitempty"`
	UserRoll       string     `json:"user_roll,omitempty"`
	CorrectAnswers int        `json:"correct_answers"`
	WrongAnswers   int        `json:"wrong_answers"`
	Unattempted    int        `json:"unattempted"`
	Score          float64    `json:"score"`
	Official       bool       `json:"official"`
	StartedAt      *time.Time `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewSubmissionResponse maps a submission onto its API representation,
// resolving the final score and official-window classification against the
// owning exam.
func NewSubmissionResponse(submission models.Submission, exam models.Exam) SubmissionResponse {
	return SubmissionResponse{
		ID:             submission.ID,
		ExamID:         submission.ExamID,
		UserID:         submission.UserID,
		UserName:       submission.User.Name,
		UserRoll:       submission.User.Roll,
		CorrectAnswers: submission.CorrectAnswers,
		WrongAnswers:   submission.WrongAnswers,
		Unattempted:    submission.Unattempted,
		Score:          submission.FinalScore(exam),
		Official:       submission.IsOfficial(exam),
		StartedAt:      submission.StartedAt,
		SubmittedAt:    submission.SubmittedAt,
		CreatedAt:      submission.CreatedAt,
	}
}

// NewSubmissionResponseSlice maps a list of submissions against one exam.
func NewSubmissionResponseSlice(submissions []models.Submission, exam models.Exam) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission, exam))
	}
	return responses
}
