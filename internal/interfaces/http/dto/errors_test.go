package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		domain string
		code   string
		status int
	}{
		{shared.CodeValidation, ErrCodeValidation, http.StatusBadRequest},
		{shared.CodeInsufficientStock, ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeConflict, ErrCodeConflict, http.StatusConflict},
		{shared.CodeNotFound, ErrCodeNotFound, http.StatusNotFound},
		{shared.CodeForbidden, ErrCodeForbidden, http.StatusForbidden},
		{shared.CodeInternal, ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			code := CodeFor(tt.domain)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, StatusFor(code))
		})
	}
}

func TestCodeForPassesThrough(t *testing.T) {
	assert.Equal(t, ErrCodePayloadTooLarge, CodeFor(ErrCodePayloadTooLarge))
	assert.Equal(t, "SOMETHING_ELSE", CodeFor("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(ErrCodePayloadTooLarge))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(ErrCodeUnauthorized))
}

func TestErrorResponseEnvelope(t *testing.T) {
	resp := NewErrorResponseWithRequestID(shared.CodeNotFound, "truck load not found", "req-9")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "data")
	errBody := body["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errBody["code"])
	assert.Equal(t, "truck load not found", errBody["message"])
	assert.Equal(t, "req-9", errBody["request_id"])
	assert.NotEmpty(t, errBody["timestamp"])
}

func TestValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("invalid request", "req-1", []ValidationDetail{
		{Field: "quantity", Message: "must be greater than zero"},
		{Field: "expiry_date", Message: "is required"},
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "quantity", resp.Error.Details[0].Field)
}

func TestSuccessResponses(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"batch_number": "B-001"})
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)

	paged := NewSuccessResponseWithMeta([]string{"a"}, 101, 2, 10)
	require.NotNil(t, paged.Meta)
	assert.Equal(t, 11, paged.Meta.TotalPages)
	assert.Equal(t, 2, paged.Meta.Page)
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
		size     int
	}{
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{10, 10, 1, 10},
		{11, 10, 2, 10},
		{100, 0, 2, DefaultPageSize},
		{100, -1, 2, DefaultPageSize},
	}
	for _, tt := range tests {
		m := NewMeta(tt.total, 1, tt.pageSize)
		assert.Equal(t, tt.pages, m.TotalPages, "total=%d size=%d", tt.total, tt.pageSize)
		assert.Equal(t, tt.size, m.PageSize)
	}
}
