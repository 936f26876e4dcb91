// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/session"
	"github.com/file-inspector/backend/internal/upload"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewTooLargeError creates a 413 error for oversized uploads
func NewTooLargeError(message string) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "FILE_TOO_LARGE",
		Message: message,
	}
}

// NewInvalidArchiveError creates a 422 error for uploads that are not ZIP archives
func NewInvalidArchiveError(cause error) *APIError {
	err := &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "INVALID_ARCHIVE",
		Message: parser.MsgInvalidArchive,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// FromDomainError maps errors returned by the session manager to API errors
func FromDomainError(err error, id string) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, session.ErrSessionNotFound):
		return NewNotFoundError("session", id)
	case errors.Is(err, session.ErrNoFile):
		return NewValidationError("file")
	case errors.Is(err, session.ErrNotArchive):
		return NewBadRequestError("upload is not a ZIP archive", nil)
	case errors.Is(err, session.ErrChartUnavailable):
		return NewBadRequestError("charts are not available for this upload", nil)
	case errors.Is(err, session.ErrInvalidChart):
		return NewBadRequestError("invalid chart selection", err)
	case errors.Is(err, parser.ErrInvalidArchive):
		return NewInvalidArchiveError(err)
	case errors.Is(err, upload.ErrTooLarge):
		return NewTooLargeError(err.Error())
	default:
		return NewInternalError("request failed", err)
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"path", c.Path(), "code", apiErr.Code, "error", err)
	}

	if err := RespondWithError(c, apiErr); err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
	}
}

// RespondWithError writes apiErr in the encoding the client accepts
func RespondWithError(c echo.Context, apiErr *APIError) error {
	if wantsMsgpack(c) {
		if data, err := encodeMsgpack(apiErr); err == nil {
			c.Response().Header().Add(echo.HeaderVary, echo.HeaderAccept)
			return c.Blob(apiErr.Status, MIMEApplicationMsgpack, data)
		}
	}
	return c.JSON(apiErr.Status, apiErr)
}
