package handlers

import (
	"github.com/gofiber/fiber/v2"

	"camio-service/internal/services"
)

// RegisterRoutes mounts the CamIO API on router.
func RegisterRoutes(router fiber.Router, exports *services.ExportService, previews *services.PreviewService, resolver *services.RenderConfigResolver) {
	eh := NewExportHandler(exports)
	router.Post("/exports", eh.CreateExport)
	router.Get("/exports", eh.ListExports)
	router.Get("/exports/:id", eh.GetExport)
	router.Get("/exports/:id/download", eh.DownloadExport)
	router.Delete("/exports/:id", eh.DeleteExport)

	ph := NewPreviewHandler(previews)
	router.Post("/preview", ph.RenderPreview)

	ch := NewCacheHandler(previews)
	router.Get("/preview/cache", ch.GetCacheStats)
	router.Delete("/preview/cache", ch.ClearCache)
	router.Delete("/preview/cache/:key", ch.InvalidatePreview)

	rh := NewRenderConfigHandler(resolver)
	router.Get("/render-config/default", rh.GetDefault)
	router.Get("/render-config/profiles", rh.ListProfiles)
	router.Get("/render-config/profiles/:name", rh.GetProfile)
	router.Post("/render-config/detected", rh.Detected)
}
