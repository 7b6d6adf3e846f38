package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	snapshot types.WeatherSnapshot
	err      error
	calls    int
}

func (s *stubSource) Fetch(ctx context.Context, lat, lon, capacityKW float64, locationName string) (types.WeatherSnapshot, error) {
	s.calls++
	if s.err != nil {
		return types.WeatherSnapshot{}, s.err
	}
	return s.snapshot, nil
}

func TestSnapshotCaching(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	src := &stubSource{snapshot: types.WeatherSnapshot{Provider: "stub", Temperature: 28}}
	svc := New(src, WithNow(func() time.Time { return now }))

	first := svc.Snapshot(context.Background(), 23.1, -82.4, 50, "La Habana")
	assert.Equal(t, "stub", first.Provider)
	assert.Equal(t, 1, src.calls)

	// within the TTL the cached snapshot is served
	now = now.Add(30 * time.Second)
	second := svc.Snapshot(context.Background(), 23.1, -82.4, 50, "La Habana")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)

	// past the TTL the source is queried again
	now = now.Add(time.Minute)
	svc.Snapshot(context.Background(), 23.1, -82.4, 50, "La Habana")
	assert.Equal(t, 2, src.calls)
}

func TestSnapshotFallback(t *testing.T) {
	now := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	src := &stubSource{err: errors.New("connection refused")}
	svc := New(src,
		WithNow(func() time.Time { return now }),
		WithRand(func() float64 { return 0.5 }),
	)

	snap := svc.Snapshot(context.Background(), 23.1, -82.4, 50, "La Habana, Cuba")
	assert.Equal(t, "Datos simulados (Open-Meteo no disponible)", snap.Provider)
	assert.Equal(t, "La Habana, Cuba", snap.LocationName)
	assert.Equal(t, "Datos simulados por indisponibilidad de OpenWeather", snap.Description)
	assert.Len(t, snap.Forecast, 7)

	// a failed fetch is not cached, the source is retried next call
	src.err = nil
	src.snapshot = types.WeatherSnapshot{Provider: "stub"}
	snap = svc.Snapshot(context.Background(), 23.1, -82.4, 50, "La Habana, Cuba")
	assert.Equal(t, "stub", snap.Provider)
	assert.Equal(t, 2, src.calls)
}

func TestSyntheticGenerate(t *testing.T) {
	now := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	gen := NewSynthetic(func() float64 { return 0.5 }, func() time.Time { return now })

	snap := gen.Generate(50)

	// hour 13 is the solar peak, gaussian factor is 1
	assert.InDelta(t, 28, snap.CloudCover, 0.001)
	assert.InDelta(t, 808, snap.SolarRadiation, 0.001)
	assert.InDelta(t, 27.7, snap.Temperature, 0.001)
	assert.InDelta(t, 65, snap.Humidity, 0.001)
	assert.InDelta(t, 12.5, snap.WindSpeed, 0.001)
	assert.Equal(t, "Simulación interna (fallback)", snap.Provider)

	require.Len(t, snap.Forecast, 7)
	day := snap.Forecast[0]
	assert.Equal(t, "2026-08-24", day.Date)
	assert.Equal(t, "Lunes", day.DayOfWeek)
	assert.Equal(t, types.ConditionSunny, day.Condition)
	assert.InDelta(t, 12.5, day.CloudCover, 1)
	assert.InDelta(t, 341.3, day.PredictedProduction, 0.06)
	assert.InDelta(t, 28.5, day.MaxTemp, 0.001)
	assert.InDelta(t, 20.0, day.MinTemp, 0.001)
	// two cloudy days in the weekly rotation
	assert.Equal(t, types.ConditionCloudy, snap.Forecast[3].Condition)
	assert.Equal(t, types.ConditionCloudy, snap.Forecast[6].Condition)
}

func TestSyntheticGenerateNight(t *testing.T) {
	now := time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC)
	gen := NewSynthetic(func() float64 { return 0.5 }, func() time.Time { return now })

	snap := gen.Generate(50)
	assert.Zero(t, snap.SolarRadiation)
}

func TestOpenMeteoFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("current") != "" {
			assert.Equal(t, "auto", r.URL.Query().Get("timezone"))
			w.Write([]byte(`{"current":{
				"temperature_2m": 28.4,
				"relative_humidity_2m": 65.4,
				"wind_speed_10m": 12.34,
				"cloud_cover": 33.3,
				"shortwave_radiation": 512.6,
				"weather_code": 2
			}}`))
			return
		}
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))
		w.Write([]byte(`{"daily":{
			"time": ["2026-08-24", "2026-08-25"],
			"temperature_2m_max": [31.2, 29.8],
			"temperature_2m_min": [22.1, 21.5],
			"weather_code": [0, 61],
			"cloud_cover_mean": [12.4, 78.6],
			"shortwave_radiation_sum": [6000, 2400]
		}}`))
	}))
	defer server.Close()

	o := &OpenMeteo{apiURL: server.URL, client: server.Client()}
	snap, err := o.Fetch(context.Background(), 23.1136, -82.3666, 50, "La Habana, Cuba")
	require.NoError(t, err)

	assert.InDelta(t, 28.4, snap.Temperature, 0.001)
	assert.InDelta(t, 513, snap.SolarRadiation, 0.001)
	assert.InDelta(t, 33, snap.CloudCover, 0.001)
	assert.InDelta(t, 65, snap.Humidity, 0.001)
	assert.InDelta(t, 12.34, snap.WindSpeed, 0.001)
	assert.Equal(t, "Open-Meteo API", snap.Provider)
	assert.Equal(t, "La Habana, Cuba", snap.LocationName)
	assert.Equal(t, "Parcialmente nublado", snap.Description)

	require.Len(t, snap.Forecast, 2)
	today := snap.Forecast[0]
	assert.Equal(t, "Lunes", today.DayOfWeek)
	assert.Equal(t, types.ConditionSunny, today.Condition)
	assert.InDelta(t, 250, today.SolarRadiation, 0.001)
	// 50kW * (250/1000) * 0.17 * 24h
	assert.InDelta(t, 51, today.PredictedProduction, 0.001)

	tomorrow := snap.Forecast[1]
	assert.Equal(t, "Martes", tomorrow.DayOfWeek)
	assert.Equal(t, types.ConditionRainy, tomorrow.Condition)
}

func TestOpenMeteoFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	o := &OpenMeteo{apiURL: server.URL, client: server.Client()}
	_, err := o.Fetch(context.Background(), 23.1, -82.4, 50, "La Habana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestConditionFromCode(t *testing.T) {
	assert.Equal(t, types.ConditionSunny, conditionFromCode(0))
	assert.Equal(t, types.ConditionPartlyCloudy, conditionFromCode(1))
	assert.Equal(t, types.ConditionCloudy, conditionFromCode(3))
	assert.Equal(t, types.ConditionCloudy, conditionFromCode(45))
	assert.Equal(t, types.ConditionRainy, conditionFromCode(95))
}

func TestDescribeWeatherCode(t *testing.T) {
	assert.Equal(t, "Cielo despejado", describeWeatherCode(0))
	assert.Equal(t, "Lluvia moderada", describeWeatherCode(63))
	assert.Equal(t, "Condiciones variables", describeWeatherCode(42))
}
