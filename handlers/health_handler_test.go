package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/sketch-gateway/repositories/postgres"
	"github.com/upb/sketch-gateway/services/backend"
	"go.uber.org/zap"
)

type fakeProber struct {
	status backend.HealthStatus
}

func (f *fakeProber) BackendHealth(ctx context.Context) backend.HealthStatus {
	return f.status
}

func healthyProber() *fakeProber {
	return &fakeProber{status: backend.HealthStatus{Healthy: true, Outcome: backend.OutcomeHealthy, StatusCode: http.StatusOK}}
}

func refusedProber() *fakeProber {
	return &fakeProber{status: backend.HealthStatus{Healthy: false, Outcome: backend.OutcomeConnectionRefused}}
}

func TestHandleHealth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("always returns healthy", func(t *testing.T) {
		handler := NewHealthHandler(nil, refusedProber(), logger)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()

		handler.HandleHealth(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		assert.Equal(t, true, response["success"])
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "healthy", data["status"])
		assert.NotEmpty(t, data["timestamp"])
	})
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	t.Run("ready when database is available", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		handler := NewHealthHandler(postgres.Wrap(db, logger), healthyProber(), logger)

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		handler.HandleReadiness(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "ready", data["status"])

		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "healthy", checks["backend"])

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unready when database ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		handler := NewHealthHandler(postgres.Wrap(db, logger), healthyProber(), logger)

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		handler.HandleReadiness(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_READY","message":"database: unhealthy"}}`, w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unready when query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("query failed"))

		handler := NewHealthHandler(postgres.Wrap(db, logger), healthyProber(), logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unreachable backend does not fail readiness", func(t *testing.T) {
		handler := NewHealthHandler(nil, refusedProber(), logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		checks := response["data"].(map[string]interface{})["checks"].(map[string]interface{})
		assert.Equal(t, "not_configured", checks["database"])
		assert.Equal(t, "connection_refused", checks["backend"])
	})
}

func TestHandleBackendHealth(t *testing.T) {
	logger := zap.NewNop()

	checkedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	prober := &fakeProber{status: backend.HealthStatus{
		Healthy:   false,
		Outcome:   backend.OutcomeTimeout,
		CheckedAt: checkedAt,
		Deadline:  checkedAt.Add(2 * time.Second),
		LatencyMs: 2001,
	}}
	handler := NewHealthHandler(nil, prober, logger)

	w := httptest.NewRecorder()
	handler.HandleBackendHealth(w, httptest.NewRequest(http.MethodGet, "/api/backend/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["healthy"])
	assert.Equal(t, "timeout", data["outcome"])
}
