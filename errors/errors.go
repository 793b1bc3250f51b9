package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies a machine-readable failure category.
type ErrorCode int

const (
	ErrorCode_INTERNAL ErrorCode = iota
	ErrorCode_VALIDATION
	ErrorCode_NOT_FOUND
	ErrorCode_ACCESS_DENIED
	ErrorCode_NOT_READY
	ErrorCode_ALREADY_RUNNING
	ErrorCode_SERVICE_UNAVAILABLE
	ErrorCode_PROCESSING
	ErrorCode_CANCELLED
	ErrorCode_UNAUTHENTICATED
)

// String returns the code name used in responses and logs.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_VALIDATION:
		return "VALIDATION"
	case ErrorCode_NOT_FOUND:
		return "NOT_FOUND"
	case ErrorCode_ACCESS_DENIED:
		return "ACCESS_DENIED"
	case ErrorCode_NOT_READY:
		return "NOT_READY"
	case ErrorCode_ALREADY_RUNNING:
		return "ALREADY_RUNNING"
	case ErrorCode_SERVICE_UNAVAILABLE:
		return "SERVICE_UNAVAILABLE"
	case ErrorCode_PROCESSING:
		return "PROCESSING"
	case ErrorCode_CANCELLED:
		return "CANCELLED"
	case ErrorCode_UNAUTHENTICATED:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL"
	}
}

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrValidation(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VALIDATION,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Invalid authentication token",
	}
}

// Meeting Processing Errors
func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  "Meeting not found",
	}.WithDetail("meeting_id", meetingID)
}

func ErrMeetingAccessDenied(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_ACCESS_DENIED,
		Message:  "Access to meeting denied",
	}.WithDetail("meeting_id", meetingID)
}

func ErrNoAudio(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusPreconditionFailed,
		Code:     ErrorCode_VALIDATION,
		Message:  "Meeting has no audio file to process",
	}.WithDetail("meeting_id", meetingID)
}

func ErrNotReady(meetingID, currentStatus string) AppError {
	return AppError{
		HTTPCode: http.StatusPreconditionFailed,
		Code:     ErrorCode_NOT_READY,
		Message:  "Meeting is not ready for processing",
	}.WithDetail("meeting_id", meetingID).
		WithDetail("current_status", currentStatus)
}

func ErrAlreadyRunning(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_RUNNING,
		Message:  "Meeting is already being processed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrNotProcessing(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_NOT_READY,
		Message:  "Meeting is not currently processing",
	}.WithDetail("meeting_id", meetingID)
}

func ErrCancelled(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_CANCELLED,
		Message:  "Processing was cancelled",
	}.WithDetail("meeting_id", meetingID)
}

// AI Service Errors
func ErrAIServiceUnavailable(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_SERVICE_UNAVAILABLE,
		Message:  "AI service temporarily unavailable",
	}.WithDetail("operation", operation)
}

func ErrProcessingFailed(stage string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PROCESSING,
		Message:  fmt.Sprintf("Processing failed at stage %s", stage),
	}.WithDetail("stage", stage)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrDocumentGenerationFailed(format string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PROCESSING,
		Message:  "Failed to generate meeting minutes",
	}.WithDetail("format", format)
}
