package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the API. Each code maps to a fixed HTTP status in
// StatusFor.
const (
	CodeInvalidContent     = "INVALID_CONTENT"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeNotFound           = "NOT_FOUND"
	CodeMediaUploadFailed  = "MEDIA_UPLOAD_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrorResponse is the standardized API error body. Every failure carries
// success=false and a human-readable message; internal details stay in logs.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewInvalidContentError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidContent,
		Message: message,
	}
}

func NewEmailTakenError() *AppError {
	return &AppError{
		Code:    CodeEmailTaken,
		Message: "User with this email already exists",
	}
}

func NewInvalidCredentialsError() *AppError {
	// Same message for unknown email and wrong password so that responses do
	// not leak which emails are registered.
	return &AppError{
		Code:    CodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewMediaUploadFailedError(err error) *AppError {
	return &AppError{
		Code:    CodeMediaUploadFailed,
		Message: "Media upload failed",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "Server error",
		Err:     err,
	}
}

// StatusFor maps an error to its HTTP status code. Non-AppError values are
// treated as internal errors.
func StatusFor(err error) int {
	appErr, ok := err.(*AppError)
	if !ok {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeInvalidContent, CodeEmailTaken, CodeInvalidCredentials:
		return fiber.StatusBadRequest
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes the standardized error body with the given status.
// Details wrapped inside the AppError are intentionally not included.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Success: false}

	if appErr, ok := err.(*AppError); ok {
		response.Message = appErr.Message
		response.Code = appErr.Code
	} else {
		response.Message = "Server error"
	}

	return c.Status(status).JSON(response)
}
