package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/mlmodel"
	"github.com/soltwin/soltwin/pkg/types"
)

const (
	defaultPredictionHours = 24
	maxPredictionHours     = 72

	// consumptionScaleDivisor converts the model's building-level output to
	// the campus installation scale.
	consumptionScaleDivisor = 10.0
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// scaleProduction rescales model output trained on a reference array to the
// currently installed capacity. Left untouched when either capacity is
// unknown.
func scaleProduction(points []types.ProductionPoint, targetCapacityKW, referenceCapacityKW float64) []types.ProductionPoint {
	if referenceCapacityKW <= 0 || targetCapacityKW <= 0 {
		return points
	}
	scale := targetCapacityKW / referenceCapacityKW
	for i := range points {
		points[i].ProductionKW = round2(points[i].ProductionKW * scale)
	}
	return points
}

func scaleConsumption(points []types.ConsumptionPoint) []types.ConsumptionPoint {
	for i := range points {
		points[i].ConsumptionKW = round2(points[i].ConsumptionKW / consumptionScaleDivisor)
	}
	return points
}

func parseHoursParam(r *http.Request) (int, bool) {
	hours := defaultPredictionHours
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxPredictionHours {
			return 0, false
		}
		hours = parsed
	}
	return hours, true
}

func (s *Server) writeMLError(w http.ResponseWriter, r *http.Request, err error, what string) {
	ctx := r.Context()
	if errors.Is(err, mlmodel.ErrModelNotLoaded) {
		writeJSONError(w, "Model not loaded", http.StatusServiceUnavailable)
		return
	}
	log.Ctx(ctx).ErrorContext(ctx, "ml prediction failed", slog.String("model", what), slog.Any("error", err))
	writeJSONError(w, "failed to predict "+what, http.StatusInternalServerError)
}

func (s *Server) handleMLProduction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hours, ok := parseHoursParam(r)
	if !ok {
		writeJSONError(w, "invalid hours", http.StatusBadRequest)
		return
	}
	cfg := s.systemConfig(ctx)

	points, err := s.models.Production.PredictNextHours(ctx, hours, cfg.Location.Lat, cfg.Location.Lon)
	if err != nil {
		s.writeMLError(w, r, err, "production")
		return
	}
	writeJSON(w, scaleProduction(points, cfg.Solar.CapacityKW, s.models.Production.Model().ReferenceCapacityKW()))
}

// mlProductionReq is the POST body for batch production predictions: either
// explicit datetimes, or a date with a list of hours.
type mlProductionReq struct {
	Datetimes []time.Time `json:"datetimes"`
	Date      string      `json:"date"`
	Hours     []int       `json:"hours"`
	Lat       *float64    `json:"lat"`
	Lon       *float64    `json:"lon"`
}

func (s *Server) handleMLProductionBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req mlProductionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cfg := s.systemConfig(ctx)

	var points []types.ProductionPoint
	var err error
	switch {
	case len(req.Datetimes) > 0:
		lat, lon := cfg.Location.Lat, cfg.Location.Lon
		if req.Lat != nil {
			lat = *req.Lat
		}
		if req.Lon != nil {
			lon = *req.Lon
		}
		points, err = s.models.Production.Predict(ctx, req.Datetimes, lat, lon)
	case req.Date != "" && len(req.Hours) > 0:
		var date time.Time
		date, err = time.Parse(blackoutDateFormat, req.Date)
		if err != nil {
			writeJSONError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		points, err = s.models.Production.PredictForHours(ctx, date, req.Hours)
	default:
		writeJSONError(w, "datetimes or date with hours required", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeMLError(w, r, err, "production")
		return
	}
	writeJSON(w, scaleProduction(points, cfg.Solar.CapacityKW, s.models.Production.Model().ReferenceCapacityKW()))
}

func (s *Server) handleMLConsumption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hours, ok := parseHoursParam(r)
	if !ok {
		writeJSONError(w, "invalid hours", http.StatusBadRequest)
		return
	}
	campusID := 0
	if v := r.URL.Query().Get("campusId"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, "invalid campusId", http.StatusBadRequest)
			return
		}
		campusID = parsed
	}
	meterID := 0
	if v := r.URL.Query().Get("meterId"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, "invalid meterId", http.StatusBadRequest)
			return
		}
		meterID = parsed
	}

	points, err := s.models.Consumption.PredictNextHours(ctx, hours, campusID, meterID)
	if err != nil {
		s.writeMLError(w, r, err, "consumption")
		return
	}
	writeJSON(w, scaleConsumption(points))
}

// MLInfoRes is the response type for /api/ml/info.
type MLInfoRes struct {
	Production  mlmodel.Info `json:"production"`
	Consumption mlmodel.Info `json:"consumption"`
}

func (s *Server) handleMLInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, MLInfoRes{
		Production:  s.models.Production.Model().Info(),
		Consumption: s.models.Consumption.Model().Info(),
	})
}
