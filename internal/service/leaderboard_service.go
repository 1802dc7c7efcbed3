package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/observability"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ErrExamNotFound indicates an exam could not be found.
var ErrExamNotFound = errors.New("exam not found")

// ErrBatchNotFound indicates a batch could not be found.
var ErrBatchNotFound = errors.New("batch not found")

// LeaderboardService builds ranked standings from submission snapshots.
type LeaderboardService interface {
	ExamLeaderboard(ctx context.Context, examID uint, view dto.LeaderboardView) (dto.ExamLeaderboardResponse, error)
	BatchLeaderboard(ctx context.Context, batchID uint) (dto.BatchLeaderboardResponse, error)
	InvalidateExam(ctx context.Context, exam models.Exam)
}

type leaderboardService struct {
	exams       repository.ExamRepository
	batches     repository.BatchRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewLeaderboardService constructs the ranker.
func NewLeaderboardService(exams repository.ExamRepository, batches repository.BatchRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		exams:       exams,
		batches:     batches,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
		tracer:      otel.Tracer("github.com/examify-bd/examify-api/internal/service/leaderboard"),
	}
}

func (s *leaderboardService) ExamLeaderboard(ctx context.Context, examID uint, view dto.LeaderboardView) (dto.ExamLeaderboardResponse, error) {
	if view != dto.LeaderboardViewAll {
		view = dto.LeaderboardViewOfficial
	}

	ctx, span := s.tracer.Start(ctx, "leaderboard.exam", trace.WithAttributes(
		attribute.Int64("leaderboard.exam_id", int64(examID)),
		attribute.String("leaderboard.view", string(view)),
	))
	defer span.End()

	cacheKey := examLeaderboardKey(examID, view)
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		var response dto.ExamLeaderboardResponse
		if err := json.Unmarshal(cached, &response); err == nil {
			span.SetAttributes(attribute.Bool("leaderboard.cache_hit", true))
			return response, nil
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamLeaderboardResponse{}, ErrExamNotFound
		}
		return dto.ExamLeaderboardResponse{}, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return dto.ExamLeaderboardResponse{}, err
	}

	entries := RankSubmissions(exam, submissions, view)
	response := dto.ExamLeaderboardResponse{
		ExamID:  examID,
		View:    view,
		Entries: entries,
	}

	observability.LeaderboardBuilds().WithLabelValues("exam", string(view)).Inc()
	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *leaderboardService) BatchLeaderboard(ctx context.Context, batchID uint) (dto.BatchLeaderboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "leaderboard.batch", trace.WithAttributes(
		attribute.Int64("leaderboard.batch_id", int64(batchID)),
	))
	defer span.End()

	cacheKey := batchLeaderboardKey(batchID)
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		var response dto.BatchLeaderboardResponse
		if err := json.Unmarshal(cached, &response); err == nil {
			span.SetAttributes(attribute.Bool("leaderboard.cache_hit", true))
			return response, nil
		}
	}

	if _, err := s.batches.GetByID(ctx, batchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchLeaderboardResponse{}, ErrBatchNotFound
		}
		return dto.BatchLeaderboardResponse{}, err
	}

	submissions, err := s.submissions.ListByBatch(ctx, batchID)
	if err != nil {
		return dto.BatchLeaderboardResponse{}, err
	}

	response := dto.BatchLeaderboardResponse{
		BatchID: batchID,
		Entries: AggregateBatchStandings(submissions),
	}

	observability.LeaderboardBuilds().WithLabelValues("batch", "all").Inc()
	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

// InvalidateExam drops cached standings touched by a new submission. Cache
// failures only log; standings are rebuilt on the next read anyway.
func (s *leaderboardService) InvalidateExam(ctx context.Context, exam models.Exam) {
	if s.cache == nil {
		return
	}

	keys := []string{
		examLeaderboardKey(exam.ID, dto.LeaderboardViewOfficial),
		examLeaderboardKey(exam.ID, dto.LeaderboardViewAll),
	}
	if exam.BatchID != nil {
		keys = append(keys, batchLeaderboardKey(*exam.BatchID))
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("exam_id", exam.ID).Msg("failed to invalidate leaderboard cache")
	}
}

func (s *leaderboardService) readCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read leaderboard cache")
		}
		return nil, false
	}

	return []byte(cached), true
}

func (s *leaderboardService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store leaderboard cache")
	}
}

func examLeaderboardKey(examID uint, view dto.LeaderboardView) string {
	return fmt.Sprintf("leaderboard:exam:%d:%s", examID, view)
}

func batchLeaderboardKey(batchID uint) string {
	return fmt.Sprintf("leaderboard:batch:%d", batchID)
}

// RankSubmissions produces the ordered standing for one exam. The official
// view keeps only submissions made on or before the exam end (inclusive);
// submissions without a timestamp are never excluded. Ordering is score
// descending, then fewer wrong answers, then earlier submission, then lower
// submission id so placement is fully deterministic. Ranks run 1..N with no
// shared positions.
func RankSubmissions(exam models.Exam, submissions []models.Submission, view dto.LeaderboardView) []dto.LeaderboardEntry {
	included := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if view == dto.LeaderboardViewOfficial && !submission.IsOfficial(exam) {
			continue
		}
		included = append(included, submission)
	}

	sort.SliceStable(included, func(i, j int) bool {
		return lessRanked(exam, included[i], included[j])
	})

	entries := make([]dto.LeaderboardEntry, 0, len(included))
	for idx, submission := range included {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:           idx + 1,
			SubmissionID:   submission.ID,
			UserID:         submission.UserID,
			UserName:       submission.User.Name,
			UserRoll:       submission.User.Roll,
			Score:          submission.FinalScore(exam),
			CorrectAnswers: submission.CorrectAnswers,
			WrongAnswers:   submission.WrongAnswers,
			Unattempted:    submission.Unattempted,
			Official:       submission.IsOfficial(exam),
			SubmittedAt:    submission.SubmittedAt,
		})
	}

	return entries
}

func lessRanked(exam models.Exam, a, b models.Submission) bool {
	scoreA, scoreB := a.FinalScore(exam), b.FinalScore(exam)
	if scoreA != scoreB {
		return scoreA > scoreB
	}

	if a.WrongAnswers != b.WrongAnswers {
		return a.WrongAnswers < b.WrongAnswers
	}

	switch {
	case a.SubmittedAt == nil && b.SubmittedAt != nil:
		return false
	case a.SubmittedAt != nil && b.SubmittedAt == nil:
		return true
	case a.SubmittedAt != nil && b.SubmittedAt != nil && !a.SubmittedAt.Equal(*b.SubmittedAt):
		return a.SubmittedAt.Before(*b.SubmittedAt)
	}

	return a.ID < b.ID
}

// AggregateBatchStandings groups submissions by student, sums each exam's
// final score and orders by the total. Students without submissions never
// appear. Ties break by ascending user id so aggregate placement is
// deterministic.
func AggregateBatchStandings(submissions []models.Submission) []dto.BatchLeaderboardEntry {
	totals := make(map[uint]*dto.BatchLeaderboardEntry)
	for _, submission := range submissions {
		entry, ok := totals[submission.UserID]
		if !ok {
			entry = &dto.BatchLeaderboardEntry{
				UserID:   submission.UserID,
				UserName: submission.User.Name,
				UserRoll: submission.User.Roll,
			}
			totals[submission.UserID] = entry
		}
		entry.TotalScore += submission.FinalScore(submission.Exam)
		entry.ExamsTaken++
	}

	entries := make([]dto.BatchLeaderboardEntry, 0, len(totals))
	for _, entry := range totals {
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].UserID < entries[j].UserID
	})

	for idx := range entries {
		entries[idx].Rank = idx + 1
	}

	return entries
}
