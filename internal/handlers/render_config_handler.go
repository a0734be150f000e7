package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"camio-service/internal/models"
	"camio-service/internal/services"
)

// RenderConfigHandler exposes the render configurations a client can
// start from.
type RenderConfigHandler struct {
	Resolver *services.RenderConfigResolver
}

func NewRenderConfigHandler(resolver *services.RenderConfigResolver) *RenderConfigHandler {
	return &RenderConfigHandler{Resolver: resolver}
}

// GetDefault handles GET /render-config/default.
// @Summary Default render configuration
// @Tags render-config
// @Produce json
// @Success 200 {array} models.RenderConfigEntry "Every category, highest priority first"
// @Router /render-config/default [get]
func (h *RenderConfigHandler) GetDefault(c *fiber.Ctx) error {
	return c.JSON(models.DefaultRenderConfig())
}

// ListProfiles handles GET /render-config/profiles.
// @Summary Names of the configured render profiles
// @Tags render-config
// @Produce json
// @Success 200 {array} string "Profile names"
// @Router /render-config/profiles [get]
func (h *RenderConfigHandler) ListProfiles(c *fiber.Ctx) error {
	return c.JSON(h.Resolver.ProfileNames())
}

// GetProfile handles GET /render-config/profiles/:name.
// @Summary One render profile
// @Tags render-config
// @Produce json
// @Param name path string true "Profile name"
// @Success 200 {array} models.RenderConfigEntry "Profile entries"
// @Failure 404 {object} map[string]interface{} "Unknown profile"
// @Router /render-config/profiles/{name} [get]
func (h *RenderConfigHandler) GetProfile(c *fiber.Ctx) error {
	cfg, err := h.Resolver.Resolve(nil, c.Params("name"))
	if err != nil {
		return errorResponse(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(cfg)
}

// Detected handles POST /render-config/detected.
// @Summary Render configuration for the categories found in a scan
// @Description Returns the default configuration restricted to categories present in the scan. Walls are always included.
// @Tags render-config
// @Accept json
// @Accept application/msgpack
// @Produce json
// @Param scan body models.Scan true "Room scan"
// @Success 200 {array} models.RenderConfigEntry "Detected categories"
// @Failure 400 {object} map[string]interface{} "Invalid scan"
// @Router /render-config/detected [post]
func (h *RenderConfigHandler) Detected(c *fiber.Ctx) error {
	var scan models.Scan
	if err := parseBody(c, &scan); err != nil {
		log.Printf("Invalid scan: %v", err)
		return errorResponse(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return c.JSON(h.Resolver.Detected(scan))
}
