package remote

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHandleTask_UnknownTaskName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(nil)
	r := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/task/does_not_exist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTask_BusyReturnsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(nil)
	s.slot <- struct{}{} // occupy the single slot
	r := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/task/thumbnail", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleJob_InvalidUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(nil)
	r := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/job/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
