package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"camio-service/internal/metrics"
	"camio-service/internal/models"
	"camio-service/internal/services"
)

// ExportHandler defines handlers for converting scans into .camio archives.
type ExportHandler struct {
	Service *services.ExportService
}

// NewExportHandler creates a new ExportHandler with the given ExportService.
func NewExportHandler(service *services.ExportService) *ExportHandler {
	return &ExportHandler{Service: service}
}

// CreateExport handles POST /exports.
// @Summary Convert a room scan into a CamIO archive
// @Description Renders the template and color map of a scan and packages them with data.json into a .camio archive. The body may be JSON or application/msgpack.
// @Tags exports
// @Accept json
// @Accept application/msgpack
// @Produce json
// @Param request body models.ExportRequest true "Scan and export options"
// @Success 201 {object} models.ExportRecord "Archive created"
// @Failure 400 {object} map[string]interface{} "Invalid scan, profile or language"
// @Failure 500 {object} map[string]interface{} "Conversion failed"
// @Router /exports [post]
func (h *ExportHandler) CreateExport(c *fiber.Ctx) error {
	log.Printf("Creating export - Method: %s, Path: %s, IP: %s", c.Method(), c.Path(), c.IP())

	var req models.ExportRequest
	if err := parseBody(c, &req); err != nil {
		log.Printf("Invalid export request: %v", err)
		return errorResponse(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	timer := metrics.NewStageTimer()
	record, err := h.Service.CreateExport(c.UserContext(), req, timer)
	setLatencyHeaders(c, timer)
	if err != nil {
		log.Printf("Export failed: %v", err)
		return errorResponse(c, statusFor(err), err.Error())
	}

	log.Printf("Successfully created export: ID=%s, File=%s", record.ID, record.FileName)
	return c.Status(fiber.StatusCreated).JSON(record)
}

// ListExports handles GET /exports.
// @Summary List exported archives
// @Tags exports
// @Produce json
// @Success 200 {array} models.ExportRecord "All exports, newest first"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /exports [get]
func (h *ExportHandler) ListExports(c *fiber.Ctx) error {
	records, err := h.Service.ListExports()
	if err != nil {
		log.Printf("Error listing exports: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	log.Printf("Successfully listed %d exports", len(records))
	return c.JSON(records)
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	idStr := c.Params("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Printf("Invalid UUID format: %s - Error: %v", idStr, err)
		return uuid.Nil, false
	}
	return id, true
}

// GetExport handles GET /exports/:id.
// @Summary Get an export by ID
// @Tags exports
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} models.ExportRecord "Export found"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Export not found"
// @Router /exports/{id} [get]
func (h *ExportHandler) GetExport(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, InvalidUuidError)
	}
	record, err := h.Service.GetExport(id)
	if err != nil {
		log.Printf("Error fetching export: ID=%s, Error=%v", id, err)
		return errorResponse(c, statusFor(err), err.Error())
	}
	return c.JSON(record)
}

// DownloadExport handles GET /exports/:id/download.
// @Summary Download a .camio archive
// @Tags exports
// @Produce application/zip
// @Param id path string true "Export ID"
// @Success 200 {file} binary "CamIO archive"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Export or archive not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /exports/{id}/download [get]
func (h *ExportHandler) DownloadExport(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, InvalidUuidError)
	}
	log.Printf("Downloading export - ID: %s, IP: %s", id, c.IP())

	rc, record, err := h.Service.OpenExport(c.UserContext(), id)
	if err != nil {
		log.Printf("Error opening export: ID=%s, Error=%v", id, err)
		return errorResponse(c, statusFor(err), err.Error())
	}

	c.Attachment(record.FileName)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.SendStream(rc, int(record.Size))
}

// DeleteExport handles DELETE /exports/:id.
// @Summary Delete an export and its archive
// @Tags exports
// @Param id path string true "Export ID"
// @Success 204 "Deleted"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Export not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /exports/{id} [delete]
func (h *ExportHandler) DeleteExport(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, InvalidUuidError)
	}
	if err := h.Service.DeleteExport(c.UserContext(), id); err != nil {
		log.Printf("Error deleting export: ID=%s, Error=%v", id, err)
		return errorResponse(c, statusFor(err), err.Error())
	}
	log.Printf("Deleted export: ID=%s", id)
	return c.SendStatus(fiber.StatusNoContent)
}
