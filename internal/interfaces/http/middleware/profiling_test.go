package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfilingLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Actor(), ProfilingLabels(true))

	var route, method, role string
	r.GET("/truck-loads/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		route, _ = pprof.Label(ctx, "route")
		method, _ = pprof.Label(ctx, "method")
		role, _ = pprof.Label(ctx, "role")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/truck-loads/7", nil)
	req.Header.Set(UserIDHeader, uuid.NewString())
	req.Header.Set(UserRoleHeader, "driver")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/truck-loads/:id", route)
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "driver", role)
}

func TestProfilingLabelsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ProfilingLabels(false))

	var labelled bool
	r.GET("/sales/:id", func(c *gin.Context) {
		_, labelled = pprof.Label(c.Request.Context(), "route")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, labelled)
}
