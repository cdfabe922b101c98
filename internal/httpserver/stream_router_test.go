package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamRouter_InvalidUUIDReturnsBadRequest(t *testing.T) {
	r := NewStreamRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/media/not-a-uuid/raw", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
