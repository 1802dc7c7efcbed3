package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/service"
	"github.com/examify-bd/examify-api/internal/utils"
)

// AccessAuthorizer guards batch-scoped reads. ExamService and BatchService
// each satisfy it for their own identifier space.
type AccessAuthorizer interface {
	AuthorizeAccess(ctx context.Context, id, userID uint) error
}

// LeaderboardHandler serves ranked standings.
type LeaderboardHandler struct {
	service     service.LeaderboardService
	examAccess  AccessAuthorizer
	batchAccess AccessAuthorizer
	logger      zerolog.Logger
}

// NewLeaderboardHandler builds a leaderboard handler instance.
func NewLeaderboardHandler(service service.LeaderboardService, examAccess, batchAccess AccessAuthorizer, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:     service,
		examAccess:  examAccess,
		batchAccess: batchAccess,
		logger:      logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// RegisterExamScoped attaches the per-exam leaderboard route.
func (h *LeaderboardHandler) RegisterExamScoped(router fiber.Router) {
	router.Get("/:id/leaderboard", h.examLeaderboard)
}

// RegisterBatchScoped attaches the batch aggregate leaderboard route.
func (h *LeaderboardHandler) RegisterBatchScoped(router fiber.Router) {
	router.Get("/:id/leaderboard", h.batchLeaderboard)
}

func (h *LeaderboardHandler) examLeaderboard(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.examAccess.AuthorizeAccess(c.Context(), examID, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	view := dto.LeaderboardView(c.Query("view", string(dto.LeaderboardViewOfficial)))

	leaderboard, err := h.service.ExamLeaderboard(c.Context(), examID, view)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

func (h *LeaderboardHandler) batchLeaderboard(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.batchAccess.AuthorizeAccess(c.Context(), batchID, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	leaderboard, err := h.service.BatchLeaderboard(c.Context(), batchID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

func (h *LeaderboardHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "batch not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in batch")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
