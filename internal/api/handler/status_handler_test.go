package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHandler_Info_DescribesEveryMediaField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewStatusHandler(nil)

	r := gin.New()
	r.GET("/info", h.Info)

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fields"`)
	assert.Contains(t, w.Body.String(), `"dsl_types"`)
}

func TestStatusHandler_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewStatusHandler(nil)

	r := gin.New()
	r.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
