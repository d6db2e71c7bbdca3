package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	var seenID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("caller-supplied id is honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sources", nil)
		req.Header.Set(requestIDHeader, "req-42")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "req-42", seenID)
		assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	})

	t.Run("missing id is minted and echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sources", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.NotEmpty(t, seenID)
		assert.Equal(t, seenID, w.Header().Get(requestIDHeader))
	})
}

func TestGetRequestID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetRequestID(req.Context()))
}
