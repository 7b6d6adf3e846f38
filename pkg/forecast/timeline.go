package forecast

import (
	"math"

	"github.com/soltwin/soltwin/pkg/types"
)

const (
	// DefaultInitialBatteryLevel is the assumed state of charge (percent)
	// when no telemetry is available.
	DefaultInitialBatteryLevel = 55.0

	// autonomyUnboundedHours is reported when upcoming consumption is zero
	// and the battery would never drain.
	autonomyUnboundedHours = 999.0

	projectionNote = "Estimación basada en clima y ficha técnica. No hay telemetría en vivo."
)

// BuildTimeline folds the hourly predictions into a projected battery and
// grid-exchange timeline. Surplus charges the battery first and exports the
// remainder; deficit drains the battery first and imports the remainder,
// except during a scheduled blackout when the grid is unavailable.
func (e *Engine) BuildTimeline(predictions []types.HourlyPrediction, batteryCapacityKWH, initialBatteryLevel float64, schedules []types.BlackoutSchedule) []types.TimelinePoint {
	storedEnergy := (initialBatteryLevel / 100) * batteryCapacityKWH
	windows := flattenBlackoutWindows(schedules)

	horizon := len(predictions)
	if horizon > predictionHorizon {
		horizon = predictionHorizon
	}

	timeline := make([]types.TimelinePoint, 0, horizon)
	for _, prediction := range predictions[:horizon] {
		production := math.Max(0, prediction.ExpectedProduction)
		consumption := math.Max(0, prediction.ExpectedConsumption)
		net := production - consumption

		var gridExport, gridImport, batteryDelta float64
		blackoutActive := false
		for _, w := range windows {
			if w.covers(prediction.Timestamp) {
				blackoutActive = true
				break
			}
		}

		if net >= 0 {
			availableCapacity := batteryCapacityKWH - storedEnergy
			energyToBattery := math.Min(net, availableCapacity)
			storedEnergy += energyToBattery
			batteryDelta = energyToBattery
			gridExport = net - energyToBattery
		} else {
			demand := -net
			energyFromBattery := math.Min(storedEnergy, demand)
			storedEnergy -= energyFromBattery
			batteryDelta = -energyFromBattery
			if !blackoutActive {
				gridImport = demand - energyFromBattery
			}
		}

		batteryLevel := clamp(storedEnergy/batteryCapacityKWH*100, 0, 100)
		efficiency := clamp(82+(float64(prediction.Confidence)-70)*0.25, 75, 96)

		timeline = append(timeline, types.TimelinePoint{
			Timestamp:    prediction.Timestamp,
			Production:   round2(production),
			Consumption:  round2(consumption),
			BatteryLevel: round2(batteryLevel),
			GridExport:   round2(gridExport),
			GridImport:   round2(gridImport),
			Efficiency:   round2(efficiency),
			BatteryDelta: round2(batteryDelta),
		})
	}
	return timeline
}

// BatteryProjection summarizes the timeline into the battery card: current
// state, autonomy at the upcoming load, and the projected level envelope.
func (e *Engine) BatteryProjection(timeline []types.TimelinePoint, predictions []types.HourlyPrediction, batteryCapacityKWH float64) types.BatteryProjection {
	chargeLevel := DefaultInitialBatteryLevel
	batteryDelta := 0.0
	if len(timeline) > 0 {
		chargeLevel = timeline[0].BatteryLevel
		batteryDelta = timeline[0].BatteryDelta
	}
	storedEnergy := (chargeLevel / 100) * batteryCapacityKWH

	projectedMin := DefaultInitialBatteryLevel
	projectedMax := DefaultInitialBatteryLevel
	for i, entry := range timeline {
		if i == 0 || entry.BatteryLevel < projectedMin {
			projectedMin = entry.BatteryLevel
		}
		if i == 0 || entry.BatteryLevel > projectedMax {
			projectedMax = entry.BatteryLevel
		}
	}

	autonomyHours := autonomyUnboundedHours
	if len(predictions) > 0 && predictions[0].ExpectedConsumption != 0 {
		autonomyHours = storedEnergy / predictions[0].ExpectedConsumption
	}

	return types.BatteryProjection{
		ChargeLevel:       round2(chargeLevel),
		Capacity:          batteryCapacityKWH,
		Current:           round2(storedEnergy),
		AutonomyHours:     round1(autonomyHours),
		Charging:          batteryDelta >= 0,
		PowerFlow:         round2(batteryDelta),
		ProjectedMinLevel: round2(projectedMin),
		ProjectedMaxLevel: round2(projectedMax),
		Note:              projectionNote,
	}
}
