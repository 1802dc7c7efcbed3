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

// AuthHandler manages registration and login endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler builds an auth handler instance.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the public routes to the provided router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
}

// RegisterProtected attaches routes requiring an authenticated user.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Register(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", response)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Login(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.service.Me(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", response)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrRollTaken):
		return utils.SendError(c, fiber.StatusConflict, "roll already registered")
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "batch not found")
	case errors.Is(err, service.ErrBatchNotOpen):
		return utils.SendError(c, fiber.StatusForbidden, "batch is not open for enrollment")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
