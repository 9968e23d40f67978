package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImageProxy(t *testing.T) {
	logger := zap.NewNop()

	t.Run("forwards path and strips credentials", func(t *testing.T) {
		backendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/generated/20260101_120000/sketch_0.png", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		}))
		defer backendServer.Close()

		proxy, err := NewImageProxy(backendServer.URL, logger)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/generated/20260101_120000/sketch_0.png", nil)
		req.Header.Set("Authorization", "Bearer gateway-token")
		w := httptest.NewRecorder()
		proxy.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		body, _ := io.ReadAll(w.Body)
		assert.Equal(t, "png-bytes", string(body))
	})

	t.Run("backend status passes through", func(t *testing.T) {
		backendServer := httptest.NewServer(http.NotFoundHandler())
		defer backendServer.Close()

		proxy, err := NewImageProxy(backendServer.URL, logger)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		proxy.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generated/missing.png", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		backendServer := httptest.NewServer(http.NotFoundHandler())
		url := backendServer.URL
		backendServer.Close()

		proxy, err := NewImageProxy(url, logger)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		proxy.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generated/x.png", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":{"code":"IMAGE_ERROR","message":"image unavailable"}}`, w.Body.String())
	})

	t.Run("invalid backend URL", func(t *testing.T) {
		_, err := NewImageProxy("not a url", logger)
		assert.Error(t, err)
	})
}
