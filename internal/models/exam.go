package models

import "time"

// Exam is a configured assessment with timing, scoring and practice-mode
// metadata. A nil BatchID makes the exam public.
type Exam struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Name                  string     `gorm:"size:255;not null" json:"name"`
	BatchID               *uint      `gorm:"index" json:"batch_id"`
	DurationMinutes       int        `gorm:"not null" json:"duration_minutes"`
	MarksPerQuestion      float64    `gorm:"not null;default:1" json:"marks_per_question"`
	NegativeMarksPerWrong float64    `gorm:"not null;default:0" json:"negative_marks_per_wrong"`
	StartAt               *time.Time `json:"start_at"`
	EndAt                 *time.Time `json:"end_at"`
	IsPractice            bool       `gorm:"not null;default:false" json:"is_practice"`
	Status                string     `gorm:"size:16;not null;default:live" json:"status"`
	AttemptPolicy         string     `gorm:"size:16;not null;default:one_time" json:"attempt_policy"`
	Questions             []Question `json:"questions,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

const (
	// ExamStatusLive marks an exam visible to students.
	ExamStatusLive = "live"
	// ExamStatusEnd marks an exam closed by an administrator.
	ExamStatusEnd = "end"

	// AttemptPolicyOneTime allows a single scored attempt per student.
	AttemptPolicyOneTime = "one_time"
	// AttemptPolicyUnlimited retains every attempt a student makes.
	AttemptPolicyUnlimited = "unlimited"
)

// ExamPhase classifies an exam relative to its time window.
type ExamPhase string

const (
	// PhaseUpcoming means the exam window has not opened yet.
	PhaseUpcoming ExamPhase = "upcoming"
	// PhaseLive means the exam accepts official attempts.
	PhaseLive ExamPhase = "live"
	// PhaseEnded means the window elapsed; attempts continue in practice
	// mode and no longer count toward the official leaderboard.
	PhaseEnded ExamPhase = "ended"
)

// Phase classifies the exam for the given instant. Practice exams are always
// live. A nil start or end removes that half of the bound. Classification
// uses strict before/after; official-window inclusion is inclusive and
// handled separately by InOfficialWindow.
func (e Exam) Phase(now time.Time) ExamPhase {
	if e.IsPractice {
		return PhaseLive
	}
	if e.StartAt != nil && now.Before(*e.StartAt) {
		return PhaseUpcoming
	}
	if e.EndAt != nil && now.After(*e.EndAt) {
		return PhaseEnded
	}
	return PhaseLive
}

// InOfficialWindow reports whether a submission made at t counts toward the
// official leaderboard. The boundary instant is inclusive; a missing end
// leaves the window open.
func (e Exam) InOfficialWindow(t time.Time) bool {
	if e.EndAt == nil {
		return true
	}
	return !t.After(*e.EndAt)
}

// TotalMarks returns the maximum achievable score for the exam.
func (e Exam) TotalMarks() float64 {
	return float64(len(e.Questions)) * e.MarksPerQuestion
}
