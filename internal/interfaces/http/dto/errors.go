package dto

import (
	"net/http"

	"github.com/dairy/backend/internal/domain/shared"
)

// Error codes carried in ErrorInfo.Code. Clients switch on these, so they
// never change once published.
const (
	ErrCodeInternal          = "ERR_INTERNAL"
	ErrCodeValidation        = "ERR_VALIDATION"
	ErrCodeValidationFormat  = "ERR_VALIDATION_FORMAT"
	ErrCodeUnauthorized      = "ERR_UNAUTHORIZED"
	ErrCodeForbidden         = "ERR_FORBIDDEN"
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodeConflict          = "ERR_CONFLICT"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON       = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge   = "ERR_PAYLOAD_TOO_LARGE"
)

var codeStatus = map[string]int{
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeValidationFormat:  http.StatusBadRequest,
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodePayloadTooLarge:   http.StatusRequestEntityTooLarge,
}

var domainCodes = map[string]string{
	shared.CodeValidation:        ErrCodeValidation,
	shared.CodeInsufficientStock: ErrCodeInsufficientStock,
	shared.CodeConflict:          ErrCodeConflict,
	shared.CodeNotFound:          ErrCodeNotFound,
	shared.CodeForbidden:         ErrCodeForbidden,
	shared.CodeInternal:          ErrCodeInternal,
}

// StatusFor returns the HTTP status of a response code, 500 when unknown
func StatusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeFor maps a domain error code to its response code. Response codes and
// unknown codes are returned unchanged.
func CodeFor(code string) string {
	if c, ok := domainCodes[code]; ok {
		return c
	}
	return code
}
