package dto

import "fmt"

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound                 = "not_found"
	ErrCodeBadRequest               = "bad_request"
	ErrCodeInternalError            = "internal_error"
	ErrCodeValidation               = "validation_error"
	ErrCodeInsufficientParticipants = "insufficient_participants"
	ErrCodeStaleSummary             = "stale_summary"
	ErrCodePayloadTooLarge          = "payload_too_large"
	ErrCodeLimitExceeded            = "limit_exceeded"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// InsufficientParticipantsError is returned when fewer than two people
// can take part in the split.
func InsufficientParticipantsError() APIError {
	return NewAPIError(ErrCodeInsufficientParticipants, "add at least two participants to split expenses")
}

// StaleSummaryError is returned when a sheet changed after its last
// calculation.
func StaleSummaryError() APIError {
	return NewAPIError(ErrCodeStaleSummary, "sheet changed since the last calculation; calculate again")
}

// PayloadTooLargeError is returned when a request body exceeds the limit.
func PayloadTooLargeError(limit int64) APIError {
	return NewAPIError(ErrCodePayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

// LimitExceededError is returned when a request would grow a resource past
// its configured limit.
func LimitExceededError(message string) APIError {
	return NewAPIError(ErrCodeLimitExceeded, message)
}
