package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"dataspace-connector/internal/instrument"
	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/query"
	"dataspace-connector/internal/store"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(kind, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with id %s not found", kind, id),
	}
}

func ConflictError(kind, id string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Status:  fiber.StatusConflict,
		Message: fmt.Sprintf("%s with id %s already exists", kind, id),
	}
}

func IDMismatchError(pathID, bodyID string) *AppError {
	return &AppError{
		Code:    "ID_MISMATCH",
		Status:  fiber.StatusBadRequest,
		Message: fmt.Sprintf("path id %s does not match body id %s", pathID, bodyID),
	}
}

func UnsupportedOperatorError(err error) *AppError {
	return &AppError{
		Code:    "UNSUPPORTED_OPERATOR",
		Status:  fiber.StatusBadRequest,
		Message: err.Error(),
	}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{
		Code:    "INVALID_PAYLOAD",
		Status:  fiber.StatusBadRequest,
		Message: msg,
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  fiber.StatusUnprocessableEntity,
		Message: "Validation failed",
		Details: details,
	}
}

// storeError translates store and evaluator failures into API errors.
// Anything unrecognised is returned as is and rendered as a 500.
func storeError(kind, id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(kind, id)
	case errors.Is(err, store.ErrDuplicateID):
		return ConflictError(kind, id)
	case errors.Is(err, query.ErrUnsupportedOperator):
		return UnsupportedOperatorError(err)
	case errors.Is(err, metadata.ErrInvalid):
		return ValidationError([]ErrorDetail{{Message: err.Error()}})
	}
	return err
}

// NewErrorHandler renders *AppError values as ErrorResponse bodies and hides
// the cause of anything else behind a 500.
func NewErrorHandler(m instrument.Monitor) fiber.ErrorHandler {
	m = instrument.OrNoop(m)
	return func(c *fiber.Ctx, err error) error {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Error: &AppError{Code: "HTTP_ERROR", Message: fiberErr.Message},
			})
		}

		m.Severe("request failed", "path", c.Path(), "trace_id", instrument.TraceID(c.UserContext()), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: &AppError{
				Code:    "INTERNAL_ERROR",
				Message: "Internal server error",
			},
		})
	}
}
