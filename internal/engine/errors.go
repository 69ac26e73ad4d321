package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/metadata"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
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
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", kind, id),
	}
}

func ValidationFailedError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

func NoWorkspaceError() *AppError {
	return &AppError{Code: "NO_WORKSPACE", Status: 403, Message: "No workspace selected"}
}

func ReadOnlyError(workflowID string) *AppError {
	return &AppError{
		Code:    "READ_ONLY",
		Status:  409,
		Message: fmt.Sprintf("Workflow %s is not a draft and cannot be edited", workflowID),
	}
}

// ValidationError is returned when the expected body is not valid JSON with
// variables. Message is meant to be shown to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrNotPostTrigger is returned when an expected body is edited on a trigger
// whose method does not accept one.
var ErrNotPostTrigger = errors.New("expected body can only be set on a POST webhook trigger")

// FieldErrorsToDetails converts metadata field errors into response details.
func FieldErrorsToDetails(errs []metadata.FieldError) []ErrorDetail {
	details := make([]ErrorDetail, len(errs))
	for i, e := range errs {
		details[i] = ErrorDetail{Field: e.Field, Message: e.Message}
	}
	return details
}

// AsAppError maps editor and store errors to an HTTP-shaped error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return ValidationFailedError([]ErrorDetail{{Field: vErr.Field, Message: vErr.Message}})
	}
	if errors.Is(err, ErrNotPostTrigger) {
		return NewAppError("INVALID_HTTP_METHOD", 409, err.Error())
	}
	return nil
}

// ErrorHandler renders every error as {"error": AppError}. Fiber's own errors
// (unknown route, wrong method, body too large) keep their status, and the
// code is derived from it, e.g. METHOD_NOT_ALLOWED. Anything else is logged
// and reported as INTERNAL_ERROR.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr := AsAppError(err); appErr != nil {
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code != fiber.StatusInternalServerError {
		code := strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fiberErr.Code), " ", "_"))
		if code == "" {
			code = "HTTP_ERROR"
		}
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error: &AppError{Code: code, Status: fiberErr.Code, Message: fiberErr.Message},
		})
	}

	log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: &AppError{Code: "INTERNAL_ERROR", Message: "Internal server error"},
	})
}
