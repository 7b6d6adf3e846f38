package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/soltwin/soltwin/pkg/forecast"
	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/mlmodel"
)

func (s *Server) handleDischarge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	startHour := s.now().UTC().Hour()
	if v := r.URL.Query().Get("startHour"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, forecast.ErrInvalidStartHour.Error(), http.StatusBadRequest)
			return
		}
		startHour = parsed
	}
	date := r.URL.Query().Get("date")

	cfg := s.systemConfig(ctx)
	estimate, err := s.engine.DischargeEstimate(ctx, s.models.Production, s.models.Consumption, startHour, date, cfg.Battery.CapacityKWH)
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrInvalidStartHour),
			errors.Is(err, forecast.ErrInvalidDate),
			errors.Is(err, forecast.ErrInvalidCapacity):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, mlmodel.ErrModelNotLoaded):
			writeJSONError(w, "Model not loaded", http.StatusServiceUnavailable)
		default:
			log.Ctx(ctx).ErrorContext(ctx, "discharge estimate failed", slog.Any("error", err))
			writeJSONError(w, "failed to estimate discharge", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, estimate)
}
