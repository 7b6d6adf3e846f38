package sysconfig

import (
	"testing"

	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDefaults(t *testing.T) {
	cfg := Aggregate(nil, nil)
	def := types.DefaultSystemConfig()

	assert.Equal(t, def, cfg)
	assert.Equal(t, "La Habana, Cuba", cfg.Location.Name)
	assert.InDelta(t, 50.0, cfg.Solar.CapacityKW, 0.001)
	assert.InDelta(t, 100.0, cfg.Battery.CapacityKWH, 0.001)
}

func TestAggregateSolar(t *testing.T) {
	panels := []types.PanelSpec{
		{ID: "a", Manufacturer: "Jinko", RatedPowerKW: 0.55, Quantity: 4, EfficiencyPercent: 21.8, AreaM2: 2.6},
	}
	cfg := Aggregate(panels, nil)

	assert.InDelta(t, 2.2, cfg.Solar.CapacityKW, 0.001)
	assert.Equal(t, 4, cfg.Solar.PanelCount)
	assert.Equal(t, 4, cfg.Solar.Strings)
	assert.InDelta(t, 0.55, cfg.Solar.PanelRatedKW, 0.001)
	require.NotNil(t, cfg.Solar.Spec)
	assert.Equal(t, "a", cfg.Solar.Spec.ID)
	// battery side still falls back to defaults
	assert.InDelta(t, 100.0, cfg.Battery.CapacityKWH, 0.001)
}

func TestAggregateMultiplePanelModels(t *testing.T) {
	panels := []types.PanelSpec{
		{ID: "a", RatedPowerKW: 0.55, Quantity: 10},
		{ID: "b", RatedPowerKW: 0.45, Quantity: 6},
	}
	cfg := Aggregate(panels, nil)

	assert.InDelta(t, 8.2, cfg.Solar.CapacityKW, 0.001)
	assert.Equal(t, 16, cfg.Solar.PanelCount)
	// primary spec is the first record
	assert.Equal(t, "a", cfg.Solar.Spec.ID)
	assert.InDelta(t, 0.55, cfg.Solar.PanelRatedKW, 0.001)
}

func TestAggregateBattery(t *testing.T) {
	batteries := []types.BatterySpec{
		{ID: "b1", Name: "Bank A", CapacityKWH: 13.6, Quantity: 2, MaxDepthOfDischargePercent: 90, ChargeRateKW: 5, DischargeRateKW: 5, EfficiencyPercent: 94},
		{ID: "b2", Name: "Bank B", CapacityKWH: 10.0, Quantity: 1},
	}
	cfg := Aggregate(nil, batteries)

	assert.InDelta(t, 37.2, cfg.Battery.CapacityKWH, 0.001)
	assert.Equal(t, 3, cfg.Battery.ModuleCount)
	assert.InDelta(t, 13.6, cfg.Battery.ModuleCapacityKWH, 0.001)
	assert.InDelta(t, 90, cfg.Battery.MaxDepthOfDischargePercent, 0.001)
	require.NotNil(t, cfg.Battery.Spec)
	assert.Equal(t, "b1", cfg.Battery.Spec.ID)
}
