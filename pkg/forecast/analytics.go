package forecast

import (
	"math"

	"github.com/soltwin/soltwin/pkg/types"
)

// co2KgPerKWH is the avoided-emissions factor applied to daily production.
const co2KgPerKWH = 0.5

// SystemMetrics aggregates the current point and the full projected timeline
// into the dashboard metrics.
func SystemMetrics(current types.TimelinePoint, timeline []types.TimelinePoint) types.SystemMetrics {
	var dailyProduction, dailyConsumption float64
	for _, entry := range timeline {
		dailyProduction += entry.Production
		dailyConsumption += entry.Consumption
	}
	return types.SystemMetrics{
		CurrentProduction:  round2(current.Production),
		CurrentConsumption: round2(current.Consumption),
		EnergyBalance:      round2(current.Production - current.Consumption),
		SystemEfficiency:   round2(current.Efficiency),
		DailyProduction:    round2(dailyProduction),
		DailyConsumption:   round2(dailyConsumption),
		CO2Avoided:         round2(dailyProduction * co2KgPerKWH),
	}
}

// EnergyFlow splits production and consumption into the five flows of the
// sankey view. Surplus feeds the load first, then a charging battery, then
// the grid; deficit is covered by a discharging battery before the grid.
func EnergyFlow(production, consumption float64, batteryCharging bool, batteryPowerFlow float64) types.EnergyFlow {
	var solarToBattery, solarToLoad, solarToGrid, batteryToLoad, gridToLoad float64

	surplus := production - consumption
	if surplus > 0 {
		solarToLoad = consumption
		if batteryCharging && batteryPowerFlow > 0 {
			solarToBattery = math.Min(surplus, math.Abs(batteryPowerFlow))
			solarToGrid = surplus - solarToBattery
		} else {
			solarToGrid = surplus
		}
	} else {
		solarToLoad = production
		deficit := math.Abs(surplus)
		if !batteryCharging && batteryPowerFlow < 0 {
			batteryToLoad = math.Min(deficit, math.Abs(batteryPowerFlow))
			gridToLoad = deficit - batteryToLoad
		} else {
			gridToLoad = deficit
		}
	}

	return types.EnergyFlow{
		SolarToBattery: round2(solarToBattery),
		SolarToLoad:    round2(solarToLoad),
		SolarToGrid:    round2(solarToGrid),
		BatteryToLoad:  round2(batteryToLoad),
		GridToLoad:     round2(gridToLoad),
	}
}
