package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"butik/internal/domain"
	applog "butik/internal/log"
	"butik/internal/services"
)

// Envelope is the response shape for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Envelope{Success: false, Error: msg})
}

// failErr maps domain error kinds to HTTP statuses. Unknown errors are
// logged and surfaced as a generic failure so internals never leak.
func failErr(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrNoFields):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBadCreds):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	applog.Error(c, action, err, nil)
	return fail(c, fiber.StatusInternalServerError, "internal error")
}
