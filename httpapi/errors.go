package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/flowboard"
)

// fail writes err as a JSON error with the status its kind maps to.
func fail(c fiber.Ctx, err error) error {
	var verr *flowboard.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, flowboard.ErrNodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "node not found"})
	case errors.Is(err, flowboard.ErrEdgeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "edge not found"})
	case errors.Is(err, flowboard.ErrInvalidConnection):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, flowboard.ErrDuplicateID),
		errors.Is(err, flowboard.ErrEdgeExists),
		errors.Is(err, flowboard.ErrNoSelection):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
}
