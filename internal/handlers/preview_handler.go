package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"camio-service/internal/metrics"
	"camio-service/internal/models"
	"camio-service/internal/services"
)

// PreviewHandler serves rotation previews and manages their cache.
type PreviewHandler struct {
	Service *services.PreviewService
}

func NewPreviewHandler(service *services.PreviewService) *PreviewHandler {
	return &PreviewHandler{Service: service}
}

// RenderPreview handles POST /preview.
// @Summary Render a rotation preview
// @Description Renders only the template, with a wide margin and no calibration marks, so a rotation can be chosen before exporting. Results are cached by content.
// @Tags preview
// @Accept json
// @Accept application/msgpack
// @Produce image/png
// @Param request body models.PreviewRequest true "Scan and rotation"
// @Success 200 {file} binary "Preview PNG"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 500 {object} map[string]interface{} "Rendering failed"
// @Router /preview [post]
func (h *PreviewHandler) RenderPreview(c *fiber.Ctx) error {
	var req models.PreviewRequest
	if err := parseBody(c, &req); err != nil {
		log.Printf("Invalid preview request: %v", err)
		return errorResponse(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	timer := metrics.NewStageTimer()
	res, err := h.Service.Render(c.UserContext(), req, timer)
	setLatencyHeaders(c, timer)
	if err != nil {
		log.Printf("Preview failed: %v", err)
		return errorResponse(c, statusFor(err), err.Error())
	}

	log.Printf("Preview %s served (cached=%t, layer=%s, %d bytes)", res.Key, res.Cached, res.Layer, len(res.PNG))
	c.Set("X-Preview-Key", res.Key.String())
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(res.PNG)))
	return c.Status(fiber.StatusOK).Send(res.PNG)
}
