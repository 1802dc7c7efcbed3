package handler

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/service"
	"github.com/examify-bd/examify-api/internal/utils"
)

// QuestionHandler manages admin question-bank endpoints.
type QuestionHandler struct {
	importer service.QuestionImportService
	assets   service.AssetService
	logger   zerolog.Logger
}

// NewQuestionHandler builds a question handler instance.
func NewQuestionHandler(importer service.QuestionImportService, assets service.AssetService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		importer: importer,
		assets:   assets,
		logger:   logger.With().Str("component", "question_handler").Logger(),
	}
}

// RegisterAdmin attaches the administrative routes.
func (h *QuestionHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/exams/:id/questions/import", h.importCSV)
	router.Post("/assets", h.uploadAsset)
}

func (h *QuestionHandler) importCSV(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	probe, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to open file")
	}
	mime, err := mimetype.DetectReader(probe)
	probe.Close()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to detect file type")
	}
	if !mime.Is("text/csv") && !mime.Is("text/plain") {
		return utils.SendError(c, fiber.StatusBadRequest, fmt.Sprintf("expected csv, got %s", mime.String()))
	}

	reader, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to open file")
	}
	defer reader.Close()

	result, err := h.importer.ImportCSV(c.Context(), examID, reader)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question bank imported", result)
}

func (h *QuestionHandler) uploadAsset(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	url, err := h.assets.Upload(c.Context(), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "asset uploaded", fiber.Map{"url": url})
}

func (h *QuestionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrMissingColumns):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedAssetType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
