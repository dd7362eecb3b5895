package utils

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"eroz/backend/services"
)

// ErrorResponse wraps every error.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func Error(c *fiber.Ctx, status int, err error, details ...interface{}) error {
	response := ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: err.Error(),
	}

	if len(details) > 0 {
		response.Details = details[0]
	}

	return c.Status(status).JSON(response)
}

// ValidationError reports per-field problems with a 422.
func ValidationError(c *fiber.Ctx, errors map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
		Success: false,
		Error:   "Validation Error",
		Details: errors,
	})
}

// Created sends data as-is with a 201. Success bodies are not enveloped.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Message sends {"message": message}.
func Message(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"message": message})
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, fiber.NewError(fiber.StatusNotFound, message))
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, fiber.NewError(fiber.StatusBadRequest, message))
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, fiber.NewError(fiber.StatusUnauthorized, message))
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, fiber.NewError(fiber.StatusForbidden, message))
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, fiber.NewError(fiber.StatusInternalServerError, message))
}

// FromError maps a service error onto its HTTP envelope.
func FromError(c *fiber.Ctx, err error) error {
	var (
		verr *services.ValidationError
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &ferr):
		return Error(c, ferr.Code, ferr)
	case errors.As(err, &verr):
		return ValidationError(c, verr.Fields)
	case errors.Is(err, services.ErrValidation):
		return Error(c, fiber.StatusUnprocessableEntity, err)
	case errors.Is(err, services.ErrNotFound):
		return Error(c, fiber.StatusNotFound, err)
	case errors.Is(err, services.ErrConflict):
		return Error(c, fiber.StatusConflict, err)
	case errors.Is(err, services.ErrForbidden):
		return Error(c, fiber.StatusForbidden, err)
	default:
		return InternalServerError(c, "Internal server error")
	}
}
