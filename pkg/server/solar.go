package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/soltwin/soltwin/pkg/forecast"
	"github.com/soltwin/soltwin/pkg/types"
)

// SolarRes is the response type for /api/solar: the predictive dashboard
// snapshot derived from weather, without blackout adjustments.
type SolarRes struct {
	Current    types.TimelinePoint     `json:"current"`
	Historical []types.TimelinePoint   `json:"historical"`
	Battery    types.BatteryProjection `json:"battery"`
	Metrics    types.SystemMetrics     `json:"metrics"`
	EnergyFlow types.EnergyFlow        `json:"energyFlow"`
	Timestamp  time.Time               `json:"timestamp"`
	Mode       string                  `json:"mode"`
	Weather    types.WeatherSnapshot   `json:"weather"`
	Config     types.SystemConfig      `json:"config"`
}

// errNoProjectedData is returned when the weather forecast yields no
// projectable hours.
var errNoProjectedData = errors.New("No hay datos proyectados disponibles.")

// buildSolarRes assembles the predictive dashboard snapshot. Shared between
// the REST endpoint and the live websocket feed.
func (s *Server) buildSolarRes(ctx context.Context) (SolarRes, error) {
	cfg := s.systemConfig(ctx)

	snapshot := s.weather.Snapshot(ctx, cfg.Location.Lat, cfg.Location.Lon, cfg.Solar.CapacityKW, cfg.Location.Name)
	predictions := s.engine.HourlyPredictions(snapshot.Forecast, cfg)
	timeline := s.engine.BuildTimeline(predictions, cfg.Battery.CapacityKWH, forecast.DefaultInitialBatteryLevel, nil)
	if len(timeline) == 0 {
		return SolarRes{}, errNoProjectedData
	}

	current := timeline[0]
	projection := s.engine.BatteryProjection(timeline, predictions, cfg.Battery.CapacityKWH)

	return SolarRes{
		Current:    current,
		Historical: timeline,
		Battery:    projection,
		Metrics:    forecast.SystemMetrics(current, timeline),
		EnergyFlow: forecast.EnergyFlow(current.Production, current.Consumption, projection.Charging, projection.PowerFlow),
		Timestamp:  s.now().UTC(),
		Mode:       "predictive",
		Weather:    snapshot,
		Config:     cfg,
	}, nil
}

func (s *Server) handleSolar(w http.ResponseWriter, r *http.Request) {
	res, err := s.buildSolarRes(r.Context())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := s.systemConfig(ctx)
	writeJSON(w, s.weather.Snapshot(ctx, cfg.Location.Lat, cfg.Location.Lon, cfg.Solar.CapacityKW, cfg.Location.Name))
}

// PredictionsRes is the response type for /api/predictions: the full
// blackout-adjusted prediction bundle.
type PredictionsRes struct {
	Predictions     []types.HourlyPrediction `json:"predictions"`
	Alerts          []types.Alert            `json:"alerts"`
	Recommendations []string                 `json:"recommendations"`
	Battery         types.BatteryProjection  `json:"battery"`
	Timeline        []types.TimelinePoint    `json:"timeline"`
	Weather         types.WeatherSnapshot    `json:"weather"`
	Timestamp       time.Time                `json:"timestamp"`
	Config          types.SystemConfig       `json:"config"`
	Blackouts       []types.BlackoutSchedule `json:"blackouts"`
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := s.systemConfig(ctx)
	schedules := s.upcomingBlackouts(ctx)

	snapshot := s.weather.Snapshot(ctx, cfg.Location.Lat, cfg.Location.Lon, cfg.Solar.CapacityKW, cfg.Location.Name)
	predictions := s.engine.HourlyPredictions(snapshot.Forecast, cfg)
	adjusted := s.engine.ApplyBlackoutAdjustments(predictions, schedules)
	timeline := s.engine.BuildTimeline(adjusted, cfg.Battery.CapacityKWH, forecast.DefaultInitialBatteryLevel, schedules)
	projection := s.engine.BatteryProjection(timeline, adjusted, cfg.Battery.CapacityKWH)

	writeJSON(w, PredictionsRes{
		Predictions:     adjusted,
		Alerts:          s.engine.Alerts(adjusted, projection, snapshot.Forecast, schedules),
		Recommendations: s.engine.Recommendations(adjusted, projection, cfg, schedules),
		Battery:         projection,
		Timeline:        timeline,
		Weather:         snapshot,
		Timestamp:       s.now().UTC(),
		Config:          cfg,
		Blackouts:       schedules,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.systemConfig(r.Context()))
}
