package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// jsonError writes the uniform error envelope. Upstream error text travels in
// details; the error field stays a stable, machine-readable kind.
func jsonError(c *fiber.Ctx, status int, kind string, details string) error {
	body := fiber.Map{
		"success": false,
		"error":   kind,
	}
	if details != "" {
		body["details"] = details
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, details string) error {
	return jsonError(c, fiber.StatusBadRequest, "validation_failed", details)
}

func notFound(c *fiber.Ctx, details string) error {
	return jsonError(c, fiber.StatusNotFound, "not_found", details)
}

func upstreamError(c *fiber.Ctx, details string) error {
	return jsonError(c, fiber.StatusInternalServerError, "upstream_error", details)
}
