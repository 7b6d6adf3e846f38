package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soltwin/soltwin/pkg/storage/storagemock"
	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDischarge(t *testing.T) {
	api := hourlyWeatherAPI(t)
	defer api.Close()

	db := &storagemock.MockDatabase{}
	inventoryDefaults(db)

	srv := newTestServer(db, &stubWeatherSource{}, loadedTestModels(t, api.URL, 50))

	req := httptest.NewRequest("GET", "/api/discharge?startHour=12&date=2026-08-24", nil)
	w := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var estimate types.DischargeEstimate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&estimate))
	assert.Equal(t, 12, estimate.StartHour)
	// default battery bundle
	assert.InDelta(t, 100.0, estimate.BatteryCapacityKWH, 0.001)
}

func TestHandleDischargeValidation(t *testing.T) {
	db := &storagemock.MockDatabase{}
	inventoryDefaults(db)
	srv := newTestServer(db, &stubWeatherSource{}, nil)

	t.Run("BadStartHour", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/discharge?startHour=24", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "startHour must be between 0 and 23", decodeError(t, w))
	})

	t.Run("NonNumericStartHour", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/discharge?startHour=noon", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("BadDate", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/discharge?startHour=10&date=24-08-2026", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ModelNotLoaded", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/discharge?startHour=10", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Model not loaded", decodeError(t, w))
	})
}
