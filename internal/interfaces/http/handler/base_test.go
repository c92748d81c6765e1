package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/interfaces/http/dto"
	"github.com/dairy/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(RequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(RequestIDKey, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/", "")
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestHandleErrorMapsDomainCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.NewValidationError("Quantity must be positive"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"insufficient stock", shared.NewInsufficientStockError("Insufficient stock for product"), http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"conflict", shared.NewConflictError("Reconciliation is already finalized"), http.StatusConflict, dto.ErrCodeConflict},
		{"not found", shared.NewNotFoundError("Truck load not found"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"forbidden", shared.NewForbiddenError("Manager role required"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"wrapped domain error", errors.Join(errors.New("context"), shared.NewConflictError("Sale already exists")), http.StatusConflict, dto.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(http.MethodPost, "/", "")
			c.Set(RequestIDKey, "req-1")
			h := &BaseHandler{}

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestHandleErrorHidesInternalDetails(t *testing.T) {
	for _, err := range []error{
		errors.New("pq: connection refused"),
		shared.NewInternalError(errors.New("disk full")),
	} {
		c, w := newContext(http.MethodGet, "/", "")
		h := &BaseHandler{}

		h.HandleError(c, err)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "disk full")
		assert.NotContains(t, resp.Error.Message, "connection refused")
		assert.Len(t, c.Errors, 1)
	}
}

func TestHandleErrorNil(t *testing.T) {
	c, w := newContext(http.MethodGet, "/", "")
	(&BaseHandler{}).HandleError(c, nil)
	assert.False(t, c.Writer.Written())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuccessWithMetaDefaults(t *testing.T) {
	c, w := newContext(http.MethodGet, "/", "")
	(&BaseHandler{}).SuccessWithMeta(c, []string{"a"}, 120, 0, 0)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	defaults := shared.DefaultFilter()
	assert.Equal(t, defaults.Page, resp.Meta.Page)
	assert.Equal(t, defaults.PageSize, resp.Meta.PageSize)
	assert.Equal(t, int64(120), resp.Meta.Total)
}

type bindTarget struct {
	Quantity decimal.Decimal `json:"quantity" binding:"decimal_positive"`
	Name     string          `json:"name" binding:"required"`
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ok     bool
		status int
		code   string
	}{
		{"valid", `{"quantity":"2.5","name":"milk"}`, true, http.StatusOK, ""},
		{"malformed json", `{"quantity":`, false, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"quantity":"2","name":7}`, false, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"zero quantity", `{"quantity":"0","name":"milk"}`, false, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing name", `{"quantity":"1"}`, false, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(http.MethodPost, "/", tt.body)
			var target bindTarget

			ok := (&BaseHandler{}).bindJSON(c, &target)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, target.Quantity.Equal(decimal.RequireFromString("2.5")))
				return
			}
			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestActorRequired(t *testing.T) {
	h := &BaseHandler{}

	c, w := newContext(http.MethodPost, "/", "")
	_, ok := h.actor(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = newContext(http.MethodPost, "/", "")
	want := appshared.Actor{UserID: uuid.New(), Role: appshared.RoleDriver}
	c.Set(middleware.ActorKey, want)
	got, ok := h.actor(c)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestPathParams(t *testing.T) {
	h := &BaseHandler{}

	t.Run("uuid", func(t *testing.T) {
		id := uuid.New()
		c, _ := newContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		got, ok := h.uuidParam(c, "id")
		assert.True(t, ok)
		assert.Equal(t, id, got)

		c, w := newContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
		_, ok = h.uuidParam(c, "id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidationFormat, decodeResponse(t, w).Error.Code)
	})

	t.Run("date", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "date", Value: "2026-03-14"}}
		got, ok := h.dateParam(c, "date")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), got)

		c, w := newContext(http.MethodGet, "/", "")
		c.Params = gin.Params{{Key: "date", Value: "14/03/2026"}}
		_, ok = h.dateParam(c, "date")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
