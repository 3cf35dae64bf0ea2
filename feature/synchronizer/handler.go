package synchronizer

import (
	"errors"

	"docsync/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the synchronizer.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the synchronizer routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Post("/run", h.HandleRun)
	group.Post("/reset", h.HandleReset)

	if h.service.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.service.metrics.Handler()))
	}
}

// HandleStatus returns the service state.
// @Summary Sync Status
// @Description Returns whether a run is in progress and the report of the last run.
// @Tags sync
// @Produce json
// @Success 200 {object} Status "Status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleRun runs a sync.
// @Summary Run Sync
// @Description Runs one sync and returns its report. With async=true the run starts in the background.
// @Tags sync
// @Produce json
// @Param async query boolean false "Start the run in the background"
// @Success 200 {object} RunReport "Run Report"
// @Success 202 {object} map[string]string "Started"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Failure 503 {object} map[string]string "Shutting Down"
// @Failure 500 {object} RunReport "Failed Run"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if c.QueryBool("async") {
		if err := h.service.Start(); err != nil {
			return conflict(c, err)
		}
		l.Info("Started background sync run")
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
	}

	l.Info("Triggering sync run")
	report, err := h.service.Run(c.UserContext())
	if err != nil {
		return conflict(c, err)
	}
	if !report.OK() {
		l.Error("Sync run failed", zap.String("run_id", report.RunID), zap.Error(report.Err()))
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}
	return c.JSON(report)
}

// HandleReset clears the cached device credentials.
// @Summary Reset Credentials
// @Description Forgets the cached device token and device id. The identifier map is kept.
// @Tags sync
// @Success 204 "Reset"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Failure 503 {object} map[string]string "Shutting Down"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reset [post]
func (h *Handler) HandleReset(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.Reset(c.UserContext()); err != nil {
		if errors.Is(err, ErrRunInProgress) || errors.Is(err, ErrServiceClosed) {
			return conflict(c, err)
		}
		l.Error("Reset failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func conflict(c *fiber.Ctx, err error) error {
	status := fiber.StatusConflict
	if errors.Is(err, ErrServiceClosed) {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
