// Package apperrors maps pipeline failures onto structured HTTP errors.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"

	"apartment-estimator/features"
	"apartment-estimator/regression"
	"apartment-estimator/services"
	"apartment-estimator/utils"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryUnavailable   ErrorCategory = "unavailable"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError wraps an errbuilder error with the HTTP context it is served with.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory
	HTTPStatus int
	Fields     map[string]string
	Timestamp  time.Time
	StackTrace string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), e.ErrBuilder.Msg)
}

// Code returns the stable machine-readable code for the error.
func (e *AppError) Code() string {
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		return "VALIDATION_ERROR"
	case errbuilder.CodeUnavailable:
		return "UNAVAILABLE"
	case errbuilder.CodeDeadlineExceeded:
		return "TIMEOUT_ERROR"
	case errbuilder.CodeResourceExhausted:
		return "RATE_LIMIT_EXCEEDED"
	case errbuilder.CodeInternal:
		return "INTERNAL_ERROR"
	case errbuilder.CodeFailedPrecondition:
		return "CONFIGURATION_ERROR"
	}
	return "UNKNOWN_ERROR"
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// Body is the JSON document written for an error response.
type Body struct {
	Error BodyError `json:"error"`
}

// BodyError is the payload of Body.
type BodyError struct {
	Code      string            `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Response renders e as a response body.
func (e *AppError) Response() Body {
	return Body{Error: BodyError{
		Code:      e.Code(),
		Category:  e.Category,
		Message:   e.ErrBuilder.Msg,
		Details:   e.Fields,
		Timestamp: e.Timestamp,
	}}
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now().UTC(),
	}
}

func withFields(builder *errbuilder.ErrBuilder, fields map[string]string) *errbuilder.ErrBuilder {
	if len(fields) == 0 {
		return builder
	}
	errorMap := errbuilder.ErrorMap{}
	for k, v := range fields {
		errorMap.Set(k, errors.New(v))
	}
	return builder.WithDetails(errbuilder.NewErrDetails(errorMap))
}

// NewValidationError reports a request the caller must correct.
func NewValidationError(message string, fields map[string]string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	appErr := NewAppError(withFields(builder, fields), CategoryValidation, http.StatusBadRequest)
	appErr.Fields = fields
	return appErr
}

// NewUnavailableError reports that no model is ready to serve.
func NewUnavailableError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryUnavailable, http.StatusServiceUnavailable)
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter string) *AppError {
	fields := map[string]string{"retry_after": retryAfter}
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")

	appErr := NewAppError(withFields(builder, fields), CategoryRateLimit, http.StatusTooManyRequests)
	appErr.Fields = fields
	return appErr
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")
	builder = withFields(builder, map[string]string{"internal_details": message})

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
	if gin.Mode() == gin.DebugMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Configuration error")
	builder = withFields(builder, map[string]string{"config_details": message})

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
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

	var inputErr *features.InputError
	if errors.As(err, &inputErr) {
		return NewValidationError(inputErr.Error(), map[string]string{
			"field":  inputErr.Field,
			"value":  inputErr.Value,
			"reason": inputErr.Reason,
		})
	}

	switch {
	case errors.Is(err, features.ErrMalformedInput):
		return NewValidationError(err.Error(), nil)
	case errors.Is(err, services.ErrNotTrained):
		return NewUnavailableError("Model is not trained yet", err)
	case errors.Is(err, features.ErrEmptyCorpus),
		errors.Is(err, regression.ErrInsufficientData),
		errors.Is(err, regression.ErrEmptyTrainingSet):
		return NewConfigurationError("Corpus cannot train a model", err)
	case errors.Is(err, context.Canceled):
		return NewTimeoutError("Request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("Request deadline exceeded", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// ErrorHandler is a Gin middleware that writes the last handler error as a
// structured response.
func ErrorHandler(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := ToAppError(c.Errors.Last().Err)
		LogError(logger, c, appErr)
		c.JSON(appErr.HTTPStatus, appErr.Response())
	}
}

// RecoveryHandler converts panics into internal errors. A panic carrying
// services.ErrNotTrained is served as unavailable.
func RecoveryHandler(logger *utils.Logger) gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		var appErr *AppError
		if err, ok := recovered.(error); ok && errors.Is(err, services.ErrNotTrained) {
			appErr = NewUnavailableError("Model is not trained yet", err)
		} else {
			appErr = NewInternalError(
				fmt.Sprintf("Panic recovered: %v", recovered),
				fmt.Errorf("%v", recovered),
			)
			appErr.StackTrace = captureStackTrace()
		}

		LogError(logger, c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
	})
}

// LogError logs an error with a level chosen by its category.
func LogError(logger *utils.Logger, c *gin.Context, err *AppError) {
	if logger == nil {
		return
	}
	l := logger.With(
		"error_category", err.Category,
		"error_code", err.Code(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	cause := err.ErrBuilder.Unwrap()
	switch err.Category {
	case CategoryValidation, CategoryRateLimit, CategoryUnavailable:
		l.Warn("%s", err.ErrBuilder.Msg)
	case CategoryTimeout:
		l.Info("%s: %v", err.ErrBuilder.Msg, cause)
	default:
		l.Error("%s: %v", err.ErrBuilder.Msg, cause)
	}

	if err.StackTrace != "" {
		l.Debug("stack trace:\n%s", err.StackTrace)
	}
}
