package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vmihailenco/msgpack/v5"

	"camio-service/internal/metrics"
	"camio-service/internal/repository"
	"camio-service/internal/services"
)

const (
	InvalidUuidError    = "invalid UUID"
	ExportNotFoundError = "export not found"

	// MsgpackContentType selects the msgpack body decoder.
	MsgpackContentType = "application/msgpack"
)

// parseBody decodes a JSON or msgpack request body into out.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), MsgpackContentType) {
		return msgpack.Unmarshal(c.Body(), out)
	}
	return c.BodyParser(out)
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": true, "message": message,
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, repository.ErrExportNotFound), errors.Is(err, services.ErrArchiveUnavailable):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func setLatencyHeaders(c *fiber.Ctx, timer *metrics.StageTimer) {
	timer.Finalize()
	for k, v := range timer.Headers() {
		c.Set(k, v)
	}
}
