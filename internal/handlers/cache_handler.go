package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"camio-service/internal/services"
)

// CacheHandler handles the preview cache endpoints.
type CacheHandler struct {
	previewService *services.PreviewService
}

func NewCacheHandler(previewService *services.PreviewService) *CacheHandler {
	return &CacheHandler{previewService: previewService}
}

// GetCacheStats handles GET /preview/cache to retrieve cache statistics
// @Summary Get preview cache statistics
// @Description Per-layer object counts, sizes and hit rates, in lookup order
// @Tags cache
// @Produce json
// @Success 200 {array} services.LayerStatistics "Cache statistics"
// @Router /preview/cache [get]
func (h *CacheHandler) GetCacheStats(c *fiber.Ctx) error {
	return c.JSON(h.previewService.CacheStatistics())
}

// InvalidatePreview handles DELETE /preview/cache/:key
// @Summary Invalidate a cached preview
// @Tags cache
// @Param key path string true "Preview key from the X-Preview-Key header"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /preview/cache/{key} [delete]
func (h *CacheHandler) InvalidatePreview(c *fiber.Ctx) error {
	keyStr := c.Params("key")
	key, err := uuid.Parse(keyStr)
	if err != nil {
		log.Printf("Invalid UUID for cache invalidation: %s", keyStr)
		return errorResponse(c, fiber.StatusBadRequest, InvalidUuidError)
	}

	if err := h.previewService.InvalidatePreview(key); err != nil {
		log.Printf("Error invalidating preview %s: %v", key, err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to invalidate cache")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearCache handles DELETE /preview/cache to clear all cached previews
// @Summary Clear the preview cache
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Cache cleared"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /preview/cache [delete]
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.previewService.ClearCache(); err != nil {
		log.Printf("Error clearing cache: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to clear cache")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
	})
}
