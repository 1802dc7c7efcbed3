package models

import "time"

// Submission is one student's recorded attempt at one exam, holding the raw
// answer-outcome counts and, once written, the final score. Score may be nil
// for legacy rows, in which case FinalScore derives it from the counts.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ExamID         uint       `gorm:"not null;index" json:"exam_id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	CorrectAnswers int        `gorm:"not null;default:0" json:"correct_answers"`
	WrongAnswers   int        `gorm:"not null;default:0" json:"wrong_answers"`
	Unattempted    int        `gorm:"not null;default:0" json:"unattempted"`
	Score          *float64   `json:"score"`
	StartedAt      *time.Time `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Exam           Exam       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User           User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// FinalScore returns the definitive score for the submission. A stored
// non-nil score is authoritative; otherwise the score is derived as
// correct - wrong * negativeMarksPerWrong. Counts default to zero, so a
// partially populated row never panics.
func (s Submission) FinalScore(exam Exam) float64 {
	if s.Score != nil {
		return *s.Score
	}
	return float64(s.CorrectAnswers) - float64(s.WrongAnswers)*exam.NegativeMarksPerWrong
}

// IsOfficial reports whether the submission falls inside the exam's official
// time window. A missing submitted-at timestamp is treated as in-window.
func (s Submission) IsOfficial(exam Exam) bool {
	if s.SubmittedAt == nil {
		return true
	}
	return exam.InOfficialWindow(*s.SubmittedAt)
}
