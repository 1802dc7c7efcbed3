package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/service"
	"github.com/examify-bd/examify-api/internal/utils"
)

// ReportHandler serves CSV exports for administrators.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler builds a report handler instance.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// RegisterAdmin attaches the administrative routes.
func (h *ReportHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/exams/:id/results.csv", h.examResults)
	router.Get("/batches/:id/attendance.csv", h.attendance)
}

func (h *ReportHandler) examResults(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view := dto.LeaderboardView(c.Query("view", string(dto.LeaderboardViewOfficial)))

	payload, err := h.service.ExamResultsCSV(c.Context(), examID, view)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCSV(c, fmt.Sprintf("exam-%d-results.csv", examID), payload)
}

func (h *ReportHandler) attendance(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		day = parsed
	}

	payload, err := h.service.DailyAttendanceCSV(c.Context(), batchID, day)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCSV(c, fmt.Sprintf("batch-%d-attendance-%s.csv", batchID, day.Format("2006-01-02")), payload)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrBatchNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "batch not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
