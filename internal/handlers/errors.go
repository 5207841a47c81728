package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/dbreview/internal/middleware"
	"github.com/localnerve/dbreview/internal/types"
	"github.com/localnerve/dbreview/internal/utils"
	"go.uber.org/zap"
)

// ErrorHandler renders errors returned by handlers in the standard error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
		errorType = "http"
	}

	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	if code >= fiber.StatusInternalServerError {
		zap.L().Error("unhandled request error",
			zap.String("request_id", middleware.RequestID(c)),
			zap.Error(err),
		)
	}

	return utils.ErrorResponse(c, message, code, errorType)
}

// NotFound is the catch-all route
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
