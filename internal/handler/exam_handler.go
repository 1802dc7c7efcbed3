package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
	"github.com/examify-bd/examify-api/internal/service"
	"github.com/examify-bd/examify-api/internal/utils"
)

// ExamHandler manages exam endpoints.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler builds an exam handler instance.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches the student-facing routes to the provided router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/questions", h.questions)
}

// RegisterAdmin attaches the administrative routes.
func (h *ExamHandler) RegisterAdmin(router fiber.Router) {
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	filter := repository.ExamFilter{}

	batchID, err := parseQueryUint(c, "batch_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.BatchID = batchID

	if strings.EqualFold(c.Query("public"), "true") {
		filter.PublicOnly = true
	}

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	exams, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.AuthorizeAccess(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	exam, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) questions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.AuthorizeAccess(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	withAnswers := userRoleFromContext(c) == models.RoleAdmin

	questions, err := h.service.GetQuestions(c.Context(), id, withAnswers)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam updated", exam)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam deleted", nil)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "batch not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in batch")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
