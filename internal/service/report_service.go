package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ReportService renders presentation-only exports from already-computed
// score and rank data.
type ReportService interface {
	ExamResultsCSV(ctx context.Context, examID uint, view dto.LeaderboardView) ([]byte, error)
	DailyAttendanceCSV(ctx context.Context, batchID uint, day time.Time) ([]byte, error)
}

type reportService struct {
	exams       repository.ExamRepository
	batches     repository.BatchRepository
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

// NewReportService constructs a ReportService instance.
func NewReportService(exams repository.ExamRepository, batches repository.BatchRepository, users repository.UserRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		exams:       exams,
		batches:     batches,
		users:       users,
		submissions: submissions,
		logger:      logger.With().Str("component", "report_service").Logger(),
	}
}

// ExamResultsCSV exports the ranked results for one exam. Scores are rounded
// to two decimals here only; the stored values keep full precision.
func (s *reportService) ExamResultsCSV(ctx context.Context, examID uint, view dto.LeaderboardView) ([]byte, error) {
	// Unknown view values fall back to official, matching the leaderboard
	// endpoint, so a typo never leaks out-of-window rows.
	if view != dto.LeaderboardViewAll {
		view = dto.LeaderboardViewOfficial
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	entries := RankSubmissions(exam, submissions, view)

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	header := []string{"rank", "name", "roll", "correct", "wrong", "unattempted", "score"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		record := []string{
			strconv.Itoa(entry.Rank),
			entry.UserName,
			entry.UserRoll,
			strconv.Itoa(entry.CorrectAnswers),
			strconv.Itoa(entry.WrongAnswers),
			strconv.Itoa(entry.Unattempted),
			fmt.Sprintf("%.2f", entry.Score),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// DailyAttendanceCSV lists, for each student enrolled in the batch, the
// exams they submitted on the given day.
func (s *reportService) DailyAttendanceCSV(ctx context.Context, batchID uint, day time.Time) ([]byte, error) {
	if _, err := s.batches.GetByID(ctx, batchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	students, err := s.users.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	attempted := make(map[uint]int)
	for _, submission := range submissions {
		if submission.SubmittedAt == nil {
			continue
		}
		at := *submission.SubmittedAt
		if at.Before(dayStart) || !at.Before(dayEnd) {
			continue
		}
		attempted[submission.UserID]++
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	if err := writer.Write([]string{"name", "roll", "exams_submitted", "present"}); err != nil {
		return nil, err
	}

	for _, student := range students {
		count := attempted[student.ID]
		present := "no"
		if count > 0 {
			present = "yes"
		}
		record := []string{student.Name, student.Roll, strconv.Itoa(count), present}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
