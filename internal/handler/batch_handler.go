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

// BatchHandler manages batch endpoints.
type BatchHandler struct {
	service service.BatchService
	logger  zerolog.Logger
}

// NewBatchHandler builds a batch handler instance.
func NewBatchHandler(service service.BatchService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  logger.With().Str("component", "batch_handler").Logger(),
	}
}

// Register attaches the student-facing routes to the provided router group.
func (h *BatchHandler) Register(router fiber.Router) {
	router.Get("", h.listPublic)
	router.Get("/:id", h.get)
	router.Post("/:id/enroll", h.enroll)
}

// RegisterAdmin attaches the administrative routes.
func (h *BatchHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *BatchHandler) listPublic(c *fiber.Ctx) error {
	batches, err := h.service.ListPublic(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batches retrieved", batches)
}

func (h *BatchHandler) list(c *fiber.Ctx) error {
	batches, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batches retrieved", batches)
}

func (h *BatchHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.AuthorizeAccess(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	batch, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch retrieved", batch)
}

func (h *BatchHandler) create(c *fiber.Ctx) error {
	var payload dto.BatchCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	batch, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "batch created", batch)
}

func (h *BatchHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.BatchUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	batch, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch updated", batch)
}

func (h *BatchHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch deleted", nil)
}

func (h *BatchHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.Enroll(c.Context(), id, userID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrolled", nil)
}

func (h *BatchHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "batch not found")
	case errors.Is(err, service.ErrBatchNotOpen):
		return utils.SendError(c, fiber.StatusForbidden, "batch is not open for enrollment")
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
