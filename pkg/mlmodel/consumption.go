package mlmodel

import (
	"context"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
)

// ConsumptionPredictor predicts energy consumption from purely temporal
// features, so it needs no weather data.
type ConsumptionPredictor struct {
	model *LinearModel
}

// Model returns the underlying model, or nil if it failed to load.
func (c *ConsumptionPredictor) Model() *LinearModel {
	return c.model
}

// Predict returns consumption predictions for the given datetimes. A campusID
// or meterID of 0 falls back to the identifiers the model was trained on.
func (c *ConsumptionPredictor) Predict(ctx context.Context, datetimes []time.Time, campusID, meterID int) ([]types.ConsumptionPoint, error) {
	if c.model == nil {
		return nil, ErrModelNotLoaded
	}
	if campusID == 0 {
		campusID = c.model.DefaultCampusID()
	}
	if meterID == 0 {
		meterID = c.model.DefaultMeterID()
	}

	results := make([]types.ConsumptionPoint, 0, len(datetimes))
	for _, dt := range datetimes {
		features := consumptionFeatures(dt, campusID, meterID)
		results = append(results, types.ConsumptionPoint{
			Datetime:      dt,
			ConsumptionKW: round2(c.model.Predict(features)),
		})
	}
	return results, nil
}

// PredictNextHours predicts consumption for the next n hours starting now.
func (c *ConsumptionPredictor) PredictNextHours(ctx context.Context, hours, campusID, meterID int) ([]types.ConsumptionPoint, error) {
	now := time.Now().UTC()
	datetimes := make([]time.Time, 0, hours)
	for h := 0; h < hours; h++ {
		datetimes = append(datetimes, now.Add(time.Duration(h)*time.Hour))
	}
	return c.Predict(ctx, datetimes, campusID, meterID)
}

// PredictForHours predicts consumption for specific hours of the given day
// using the model's default identifiers. Hours outside 0-23 are skipped and
// duplicates are collapsed.
func (c *ConsumptionPredictor) PredictForHours(ctx context.Context, date time.Time, hours []int) ([]types.ConsumptionPoint, error) {
	return c.Predict(ctx, hoursToDatetimes(date, hours), 0, 0)
}

// PredictDateRange predicts consumption for every hour between start and end,
// inclusive.
func (c *ConsumptionPredictor) PredictDateRange(ctx context.Context, start, end time.Time, campusID, meterID int) ([]types.ConsumptionPoint, error) {
	var datetimes []time.Time
	for current := start; !current.After(end); current = current.Add(time.Hour) {
		datetimes = append(datetimes, current)
	}
	return c.Predict(ctx, datetimes, campusID, meterID)
}

// consumptionFeatures builds the temporal feature row the consumption model
// was trained on. The day of week is Monday-indexed to match the training
// data.
func consumptionFeatures(dt time.Time, campusID, meterID int) map[string]float64 {
	hour := dt.Hour()
	dayOfWeek := (int(dt.Weekday()) + 6) % 7
	month := int(dt.Month())
	_, isoWeek := dt.ISOWeek()

	features := map[string]float64{
		"hora":          float64(hour),
		"diaSemana":     float64(dayOfWeek),
		"mes":           float64(month),
		"diaDelMes":     float64(dt.Day()),
		"semanaDelAnio": float64(isoWeek),
		"campus_id":     float64(campusID),
		"meter_id":      float64(meterID),
	}
	features["esFinDeSemana"] = boolFeature(dayOfWeek >= 5)
	features["esDiaHabil"] = boolFeature(dayOfWeek < 5)
	features["esHoraPico"] = boolFeature(hour >= 7 && hour <= 22)
	features["esHoraNocturna"] = boolFeature(hour < 6 || hour > 20)
	features["esHoraLaboral"] = boolFeature(hour >= 8 && hour <= 17)

	addCyclical(features, "hora", float64(hour), 24)
	addCyclical(features, "mes", float64(month), 12)
	addCyclical(features, "diaSemana", float64(dayOfWeek), 7)
	return features
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
