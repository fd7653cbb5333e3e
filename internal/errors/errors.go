package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryRateLimit  ErrorCategory = "rate_limit"
	CategoryInternal   ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with HTTP context
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with HTTP context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError reports malformed scenario or damping configuration.
// Shape mismatches surface here, at configuration time, never at query time.
func NewValidationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewNotFoundError reports an unknown scenario id
func NewNotFoundError(resource, id string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("resource", errors.New(resource))
	errorMap.Set("id", errors.New(id))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s %q not found", resource, id)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewRateLimitError reports an exhausted per-client budget
func NewRateLimitError() *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")

	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(err.Error(), err)
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			appErr := ToAppError(c.Errors.Last().Err)
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":     appErr.ErrBuilder.Msg,
				"category":  appErr.Category,
				"timestamp": appErr.Timestamp.Format(time.RFC3339),
			})
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
			"error":     appErr.ErrBuilder.Msg,
			"category":  appErr.Category,
			"timestamp": appErr.Timestamp.Format(time.RFC3339),
		})
	})
}
