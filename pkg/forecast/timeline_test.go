package forecast

import (
	"testing"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timelinePredictions(base time.Time) []types.HourlyPrediction {
	return []types.HourlyPrediction{
		{Timestamp: base, Hour: base.Hour(), ExpectedProduction: 20, ExpectedConsumption: 10, Confidence: 90},
		{Timestamp: base.Add(1 * time.Hour), Hour: base.Add(1 * time.Hour).Hour(), ExpectedProduction: 60, ExpectedConsumption: 10, Confidence: 90},
		{Timestamp: base.Add(2 * time.Hour), Hour: base.Add(2 * time.Hour).Hour(), ExpectedProduction: 0, ExpectedConsumption: 30, Confidence: 80},
		{Timestamp: base.Add(3 * time.Hour), Hour: base.Add(3 * time.Hour).Hour(), ExpectedProduction: 0, ExpectedConsumption: 50, Confidence: 70},
		{Timestamp: base.Add(4 * time.Hour), Hour: base.Add(4 * time.Hour).Hour(), ExpectedProduction: 0, ExpectedConsumption: 30, Confidence: 40},
	}
}

func TestBuildTimeline(t *testing.T) {
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	e := fixedEngine(base)
	preds := timelinePredictions(base)

	// blackout covering only the fourth hour
	schedules := []types.BlackoutSchedule{{
		Date: types.StartOfDay(base),
		Intervals: []types.BlackoutInterval{
			{Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour), DurationMinutes: 60},
		},
	}}

	timeline := e.BuildTimeline(preds, 100, 55, schedules)
	require.Len(t, timeline, 5)

	// +10 surplus charges the battery from 55 kWh
	assert.InDelta(t, 65.0, timeline[0].BatteryLevel, 0.001)
	assert.InDelta(t, 10.0, timeline[0].BatteryDelta, 0.001)
	assert.Zero(t, timeline[0].GridExport)
	assert.Zero(t, timeline[0].GridImport)
	assert.InDelta(t, 87.0, timeline[0].Efficiency, 0.001)

	// +50 surplus only fits 35 kWh, the rest exports
	assert.InDelta(t, 100.0, timeline[1].BatteryLevel, 0.001)
	assert.InDelta(t, 35.0, timeline[1].BatteryDelta, 0.001)
	assert.InDelta(t, 15.0, timeline[1].GridExport, 0.001)

	// -30 deficit drains the battery before importing
	assert.InDelta(t, 70.0, timeline[2].BatteryLevel, 0.001)
	assert.InDelta(t, -30.0, timeline[2].BatteryDelta, 0.001)
	assert.Zero(t, timeline[2].GridImport)

	// blackout hour: battery covers what it can, no grid import
	assert.InDelta(t, 20.0, timeline[3].BatteryLevel, 0.001)
	assert.InDelta(t, -50.0, timeline[3].BatteryDelta, 0.001)
	assert.Zero(t, timeline[3].GridImport)

	// battery empties, remaining demand imports once the grid is back
	assert.Zero(t, timeline[4].BatteryLevel)
	assert.InDelta(t, -20.0, timeline[4].BatteryDelta, 0.001)
	assert.InDelta(t, 10.0, timeline[4].GridImport, 0.001)
	assert.InDelta(t, 75.0, timeline[4].Efficiency, 0.001, "efficiency floors at 75")
}

func TestBuildTimelineEnergyConservation(t *testing.T) {
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	e := fixedEngine(base)

	timeline := e.BuildTimeline(timelinePredictions(base), 100, 55, nil)
	require.NotEmpty(t, timeline)

	for i, point := range timeline {
		assert.GreaterOrEqual(t, point.BatteryLevel, 0.0, "point %d", i)
		assert.LessOrEqual(t, point.BatteryLevel, 100.0, "point %d", i)
		net := point.Production - point.Consumption
		balance := point.BatteryDelta + point.GridExport - point.GridImport
		assert.InDelta(t, net, balance, 0.05, "point %d must conserve energy", i)
	}
}

func TestBuildTimelineHorizonCap(t *testing.T) {
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	e := fixedEngine(base)

	preds := make([]types.HourlyPrediction, 30)
	for i := range preds {
		preds[i] = types.HourlyPrediction{
			Timestamp:           base.Add(time.Duration(i) * time.Hour),
			ExpectedConsumption: 10,
			Confidence:          80,
		}
	}
	timeline := e.BuildTimeline(preds, 100, 55, nil)
	assert.Len(t, timeline, 24)
}

func TestBatteryProjection(t *testing.T) {
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	e := fixedEngine(base)
	preds := timelinePredictions(base)

	timeline := e.BuildTimeline(preds, 100, 55, nil)
	projection := e.BatteryProjection(timeline, preds, 100)

	assert.InDelta(t, 65.0, projection.ChargeLevel, 0.001)
	assert.InDelta(t, 65.0, projection.Current, 0.001)
	assert.Equal(t, 100.0, projection.Capacity)
	assert.True(t, projection.Charging)
	assert.InDelta(t, 10.0, projection.PowerFlow, 0.001)
	// 65 kWh against the upcoming 10 kW load
	assert.InDelta(t, 6.5, projection.AutonomyHours, 0.001)
	assert.InDelta(t, 100.0, projection.ProjectedMaxLevel, 0.001)
	assert.Zero(t, projection.ProjectedMinLevel)
	assert.Equal(t, "Estimación basada en clima y ficha técnica. No hay telemetría en vivo.", projection.Note)
}

func TestBatteryProjectionNoData(t *testing.T) {
	e := fixedEngine(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))

	projection := e.BatteryProjection(nil, nil, 100)
	assert.InDelta(t, DefaultInitialBatteryLevel, projection.ChargeLevel, 0.001)
	assert.InDelta(t, 999.0, projection.AutonomyHours, 0.001, "no upcoming load means unbounded autonomy")
	assert.True(t, projection.Charging)
	assert.Zero(t, projection.PowerFlow)
}
