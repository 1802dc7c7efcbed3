package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/service"
	"github.com/examify-bd/examify-api/internal/utils"
)

// SubmissionHandler manages submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/mine", h.listMine)
}

// RegisterExamScoped attaches routes nested under an exam.
func (h *SubmissionHandler) RegisterExamScoped(router fiber.Router) {
	router.Get("/:id/submissions", h.listByExam)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission accepted", submission)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	submissions, err := h.service.ListByUser(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) listByExam(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListByExam(c.Context(), examID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in batch")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrExamNotStarted):
		return utils.SendError(c, fiber.StatusForbidden, "exam has not started yet")
	case errors.Is(err, service.ErrAlreadyAttempted):
		return utils.SendError(c, fiber.StatusConflict, "exam already attempted")
	case errors.Is(err, service.ErrSubmittedBeforeStarted):
		return utils.SendError(c, fiber.StatusBadRequest, "submitted_at precedes started_at")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
