package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
)

var (
	// ErrInvalidStartHour is returned for a start hour outside 0-23.
	ErrInvalidStartHour = errors.New("startHour must be between 0 and 23")
	// ErrInvalidDate is returned for a date not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")
	// ErrInvalidCapacity is returned when the configured battery capacity
	// is not positive.
	ErrInvalidCapacity = errors.New("battery capacity must be greater than 0")
)

// ProductionPredictor predicts solar production for specific hours of a day.
type ProductionPredictor interface {
	PredictForHours(ctx context.Context, date time.Time, hours []int) ([]types.ProductionPoint, error)
}

// ConsumptionPredictor predicts energy consumption for specific hours of a
// day.
type ConsumptionPredictor interface {
	PredictForHours(ctx context.Context, date time.Time, hours []int) ([]types.ConsumptionPoint, error)
}

// DischargeEstimate simulates the battery starting full at startHour and
// draining against the predicted production/consumption balance, hour by
// hour, through the end of the next day. It reports the minutes until the
// battery would first hit empty, or a nil MinutesToEmpty if it never does.
func (e *Engine) DischargeEstimate(ctx context.Context, production ProductionPredictor, consumption ConsumptionPredictor, startHour int, date string, batteryCapacityKWH float64) (types.DischargeEstimate, error) {
	if startHour < 0 || startHour > 23 {
		return types.DischargeEstimate{}, ErrInvalidStartHour
	}
	if batteryCapacityKWH <= 0 {
		return types.DischargeEstimate{}, ErrInvalidCapacity
	}

	var targetDate time.Time
	if date == "" {
		targetDate = types.StartOfDay(e.now().UTC())
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return types.DischargeEstimate{}, fmt.Errorf("%w: %s", ErrInvalidDate, date)
		}
		targetDate = parsed
	}
	nextDay := targetDate.AddDate(0, 0, 1)

	todayHours := make([]int, 0, 24-startHour)
	for h := startHour; h < 24; h++ {
		todayHours = append(todayHours, h)
	}
	nextDayHours := make([]int, 24)
	for h := range nextDayHours {
		nextDayHours[h] = h
	}

	productionToday, err := production.PredictForHours(ctx, targetDate, todayHours)
	if err != nil {
		return types.DischargeEstimate{}, fmt.Errorf("failed to get production predictions: %w", err)
	}
	productionTomorrow, err := production.PredictForHours(ctx, nextDay, nextDayHours)
	if err != nil {
		return types.DischargeEstimate{}, fmt.Errorf("failed to get production predictions: %w", err)
	}
	consumptionToday, err := consumption.PredictForHours(ctx, targetDate, todayHours)
	if err != nil {
		return types.DischargeEstimate{}, fmt.Errorf("failed to get consumption predictions: %w", err)
	}
	consumptionTomorrow, err := consumption.PredictForHours(ctx, nextDay, nextDayHours)
	if err != nil {
		return types.DischargeEstimate{}, fmt.Errorf("failed to get consumption predictions: %w", err)
	}

	allProduction := append(productionToday, productionTomorrow...)
	allConsumption := append(consumptionToday, consumptionTomorrow...)
	steps := len(allProduction)
	if len(allConsumption) < steps {
		steps = len(allConsumption)
	}

	// each step is one hour; battery starts full
	batteryLevelKWH := batteryCapacityKWH
	var minutesToEmpty *int
	for i := 0; i < steps; i++ {
		batteryLevelKWH += allProduction[i].ProductionKW - allConsumption[i].ConsumptionKW
		if batteryLevelKWH > batteryCapacityKWH {
			batteryLevelKWH = batteryCapacityKWH
		} else if batteryLevelKWH < 0 {
			batteryLevelKWH = 0
		}

		if batteryLevelKWH <= 0 {
			elapsed := (i + 1) * 60
			minutesToEmpty = &elapsed
			break
		}
	}

	return types.DischargeEstimate{
		MinutesToEmpty:     minutesToEmpty,
		StartHour:          startHour,
		BatteryCapacityKWH: round2(batteryCapacityKWH),
	}, nil
}
