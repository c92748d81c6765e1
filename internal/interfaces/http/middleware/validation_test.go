package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dairy/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	// Should not panic
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestDecimalValidations(t *testing.T) {
	type input struct {
		Positive decimal.Decimal  `json:"positive" validate:"decimal_positive"`
		NonNeg   decimal.Decimal  `json:"non_negative" validate:"decimal_gte0"`
		NonZero  decimal.Decimal  `json:"non_zero" validate:"decimal_nonzero"`
		Optional *decimal.Decimal `json:"optional" validate:"omitempty,decimal_positive"`
	}

	v := validator.New()
	require.NoError(t, RegisterValidations(v))

	failedFields := func(err error) []string {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				fields = append(fields, e.Field())
			}
		}
		return fields
	}

	t.Run("accepts valid values", func(t *testing.T) {
		err := v.Struct(input{
			Positive: decimal.NewFromInt(3),
			NonNeg:   decimal.Zero,
			NonZero:  decimal.NewFromInt(-2),
		})
		assert.NoError(t, err)
	})

	t.Run("rejects zero and negative values", func(t *testing.T) {
		err := v.Struct(input{
			Positive: decimal.Zero,
			NonNeg:   decimal.NewFromInt(-1),
			NonZero:  decimal.Zero,
		})
		require.Error(t, err)
		assert.ElementsMatch(t, []string{"positive", "non_negative", "non_zero"}, failedFields(err))
	})

	t.Run("checks pointer values when present", func(t *testing.T) {
		neg := decimal.NewFromInt(-5)
		err := v.Struct(input{
			Positive: decimal.NewFromInt(1),
			NonZero:  decimal.NewFromInt(1),
			Optional: &neg,
		})
		require.Error(t, err)
		assert.Equal(t, []string{"optional"}, failedFields(err))
	})
}

func TestFormatValidationErrors(t *testing.T) {
	type deliveryItem struct {
		BatchNumber string          `json:"batch_number" binding:"required,max=10"`
		Quantity    decimal.Decimal `json:"quantity" binding:"decimal_positive"`
	}

	SetupValidator()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req deliveryItem
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("returns validation errors for invalid input", func(t *testing.T) {
		body := strings.NewReader(`{"batch_number": "", "quantity": "0"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDKey, "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.Equal(t, "req-42", resp.Error.RequestID)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "batch_number", resp.Error.Details[0].Field)
		assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
		assert.Equal(t, "quantity", resp.Error.Details[1].Field)
		assert.Equal(t, "Must be greater than zero", resp.Error.Details[1].Message)
	})

	t.Run("returns success for valid input", func(t *testing.T) {
		body := strings.NewReader(`{"batch_number": "B-001", "quantity": "12.5"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type testStruct struct {
		Required string   `validate:"required"`
		Min      string   `validate:"min=5"`
		MinItems []string `validate:"min=1"`
		Max      string   `validate:"max=2"`
		UUID     string   `validate:"uuid"`
		OneOf    string   `validate:"oneof=loaded reconciled"`
	}

	v := validator.New()
	err := v.Struct(testStruct{Min: "ab", Max: "abc", UUID: "nope", OneOf: "lost"})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Min":      "Must be at least 5 characters",
		"MinItems": "Must contain at least 1 item(s)",
		"Max":      "Must be at most 2 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: loaded reconciled",
	}

	verrs := err.(validator.ValidationErrors)
	require.Len(t, verrs, len(expected))
	for _, e := range verrs {
		assert.Equal(t, expected[e.Field()], getValidationMessage(e), e.Field())
	}
}

func TestHandleValidationError_NonValidatorError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type input struct {
		Name string `json:"name" binding:"required"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var in input
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
	assert.NotContains(t, w.Body.String(), `"details"`)
}
