package dto

import "time"

// LeaderboardView selects which submissions a leaderboard includes.
type LeaderboardView string

const (
	// LeaderboardViewOfficial restricts entries to submissions made inside
	// the exam's time window (inclusive boundary).
	LeaderboardViewOfficial LeaderboardView = "official"
	// LeaderboardViewAll includes every submission regardless of timing.
	LeaderboardViewAll LeaderboardView = "all"
)

// LeaderboardEntry is one ranked row of an exam leaderboard.
type LeaderboardEntry struct {
	Rank           int        `json:"rank"`
	SubmissionID   uint       `json:"submission_id"`
	UserID         uint       `json:"user_id"`
	UserName       string     `json:"user_name"`
	UserRoll       string     `json:"user_roll"`
	Score          float64    `json:"score"`
	CorrectAnswers int        `json:"correct_answers"`
	WrongAnswers   int        `json:"wrong_answers"`
	Unattempted    int        `json:"unattempted"`
	Official       bool       `json:"official"`
	SubmittedAt    *time.Time `json:"submitted_at"`
}

// ExamLeaderboardResponse is the ranked result set for a single exam.
type ExamLeaderboardResponse struct {
	ExamID  uint               `json:"exam_id"`
	View    LeaderboardView    `json:"view"`
	Entries []LeaderboardEntry `json:"entries"`
}

// BatchLeaderboardEntry aggregates one student's scores across every exam in
// a batch.
type BatchLeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     uint    `json:"user_id"`
	UserName   string  `json:"user_name"`
	UserRoll   string  `json:"user_roll"`
	TotalScore float64 `json:"total_score"`
	ExamsTaken int     `json:"exams_taken"`
}

// BatchLeaderboardResponse is the cross-exam aggregate ranking for a batch.
type BatchLeaderboardResponse struct {
	BatchID uint                    `json:"batch_id"`
	Entries []BatchLeaderboardEntry `json:"entries"`
}
