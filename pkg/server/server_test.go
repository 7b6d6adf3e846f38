package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/soltwin/soltwin/pkg/forecast"
	"github.com/soltwin/soltwin/pkg/mlmodel"
	"github.com/soltwin/soltwin/pkg/storage/storagemock"
	"github.com/soltwin/soltwin/pkg/types"
	"github.com/soltwin/soltwin/pkg/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

// stubWeatherSource returns a fixed snapshot.
type stubWeatherSource struct {
	snapshot types.WeatherSnapshot
	err      error
}

func (s *stubWeatherSource) Fetch(ctx context.Context, lat, lon, capacityKW float64, locationName string) (types.WeatherSnapshot, error) {
	if s.err != nil {
		return types.WeatherSnapshot{}, s.err
	}
	return s.snapshot, nil
}

func testSnapshot() types.WeatherSnapshot {
	return types.WeatherSnapshot{
		Temperature:    28.5,
		SolarRadiation: 650,
		CloudCover:     20,
		Humidity:       70,
		WindSpeed:      12,
		Provider:       "Open-Meteo API",
		LocationName:   "La Habana, Cuba",
		LastUpdated:    testNow,
		Forecast: []types.ForecastDay{
			{Date: "2026-08-24", DayOfWeek: "Lunes", SolarRadiation: 800, CloudCover: 10, MaxTemp: 31, MinTemp: 22, PredictedProduction: 320, Condition: types.ConditionSunny},
			{Date: "2026-08-25", DayOfWeek: "Martes", SolarRadiation: 600, CloudCover: 40, MaxTemp: 29, MinTemp: 22, PredictedProduction: 240, Condition: types.ConditionPartlyCloudy},
		},
	}
}

func newTestServer(db *storagemock.MockDatabase, src weather.Source, models *mlmodel.Models) *Server {
	if models == nil {
		models = mlmodel.New(nil, nil, "")
	}
	return &Server{
		storage: db,
		weather: weather.New(src, weather.WithNow(func() time.Time { return testNow })),
		engine: forecast.New(
			forecast.WithNow(func() time.Time { return testNow }),
			forecast.WithRand(func() float64 { return 0 }),
		),
		models:     models,
		serverName: "soltwin",
		now:        func() time.Time { return testNow },
	}
}

func writeModelArtifact(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{snapshot: testSnapshot()}, nil)
	handler := srv.setupHandler()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "soltwin", w.Result().Header.Get("Server"))
}

func TestAuthMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("NoVerifierAllowsWrites", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{}, nil)
		req := httptest.NewRequest("POST", "/api/panels", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		srv.authMiddleware(okHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ReadsSkipVerification", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{}, nil)
		srv.oidcVerifier = func(ctx context.Context, raw string) (*oidc.IDToken, error) {
			return nil, fmt.Errorf("should not be called")
		}
		req := httptest.NewRequest("GET", "/api/solar", nil)
		w := httptest.NewRecorder()
		srv.authMiddleware(okHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{}, nil)
		srv.oidcVerifier = func(ctx context.Context, raw string) (*oidc.IDToken, error) {
			return &oidc.IDToken{}, nil
		}
		req := httptest.NewRequest("POST", "/api/panels", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		srv.authMiddleware(okHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("InvalidScheme", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{}, nil)
		srv.oidcVerifier = func(ctx context.Context, raw string) (*oidc.IDToken, error) {
			return &oidc.IDToken{}, nil
		}
		req := httptest.NewRequest("POST", "/api/panels", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Basic abc123")
		w := httptest.NewRecorder()
		srv.authMiddleware(okHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("RejectedToken", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{}, nil)
		srv.oidcVerifier = func(ctx context.Context, raw string) (*oidc.IDToken, error) {
			return nil, fmt.Errorf("token expired")
		}
		req := httptest.NewRequest("POST", "/api/panels", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		srv.authMiddleware(okHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AcceptedToken", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{}, &stubWeatherSource{}, nil)
		srv.oidcVerifier = func(ctx context.Context, raw string) (*oidc.IDToken, error) {
			assert.Equal(t, "good-token", raw)
			return &oidc.IDToken{}, nil
		}
		req := httptest.NewRequest("POST", "/api/panels", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		srv.authMiddleware(okHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
