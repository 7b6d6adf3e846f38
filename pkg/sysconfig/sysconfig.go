// Package sysconfig aggregates the stored panel and battery inventory into
// the effective system configuration used by the prediction engine.
package sysconfig

import (
	"math"

	"github.com/soltwin/soltwin/pkg/types"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregate combines the stored inventory into a SystemConfig. Empty panel or
// battery lists fall back to the default bundle for that side. The first
// record of each list is treated as the primary spec.
func Aggregate(panels []types.PanelSpec, batteries []types.BatterySpec) types.SystemConfig {
	def := types.DefaultSystemConfig()
	return types.SystemConfig{
		Location: def.Location,
		Solar:    aggregateSolar(panels, def.Solar),
		Battery:  aggregateBattery(batteries, def.Battery),
	}
}

func aggregateSolar(panels []types.PanelSpec, def types.SolarConfig) types.SolarConfig {
	if len(panels) == 0 {
		return def
	}

	var totalCapacity float64
	var totalCount, totalStrings int
	for _, p := range panels {
		totalCapacity += float64(p.Quantity) * p.RatedPowerKW
		totalCount += p.Quantity
		totalStrings += p.Quantity
	}

	primary := panels[0]
	return types.SolarConfig{
		CapacityKW:             round2(totalCapacity),
		PanelRatedKW:           primary.RatedPowerKW,
		PanelCount:             totalCount,
		Strings:                totalStrings,
		PanelEfficiencyPercent: primary.EfficiencyPercent,
		PanelAreaM2:            primary.AreaM2,
		Spec:                   &primary,
	}
}

func aggregateBattery(batteries []types.BatterySpec, def types.BatteryConfig) types.BatteryConfig {
	if len(batteries) == 0 {
		return def
	}

	var totalCapacity float64
	var totalModules int
	for _, b := range batteries {
		totalCapacity += float64(b.Quantity) * b.CapacityKWH
		totalModules += b.Quantity
	}

	primary := batteries[0]
	return types.BatteryConfig{
		CapacityKWH:                round2(totalCapacity),
		ModuleCapacityKWH:          primary.CapacityKWH,
		ModuleCount:                totalModules,
		MaxDepthOfDischargePercent: primary.MaxDepthOfDischargePercent,
		ChargeRateKW:               primary.ChargeRateKW,
		DischargeRateKW:            primary.DischargeRateKW,
		EfficiencyPercent:          primary.EfficiencyPercent,
		Spec:                       &primary,
	}
}
