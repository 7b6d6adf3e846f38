package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertIDs(alerts []types.Alert) []string {
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestAlertsHealthySystem(t *testing.T) {
	e := fixedEngine(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))

	battery := types.BatteryProjection{ProjectedMinLevel: 60}
	forecast := []types.ForecastDay{
		{PredictedProduction: 300},
		{PredictedProduction: 280},
	}
	alerts := e.Alerts(nil, battery, forecast, nil)
	assert.Empty(t, alerts)
}

func TestAlertsBatteryThresholds(t *testing.T) {
	e := fixedEngine(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))

	t.Run("Low", func(t *testing.T) {
		alerts := e.Alerts(nil, types.BatteryProjection{ProjectedMinLevel: 15}, nil, nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, "battery-low", alerts[0].ID)
		assert.Equal(t, types.AlertWarning, alerts[0].Severity)
		assert.Equal(t, "Reserva de Batería Limitada", alerts[0].Title)
		assert.Equal(t, "Proyección mínima de 15.0% sin telemetría. Considere reducir consumos continuos.", alerts[0].Message)
	})

	t.Run("CriticalImpliesLow", func(t *testing.T) {
		alerts := e.Alerts(nil, types.BatteryProjection{ProjectedMinLevel: 5}, nil, nil)
		ids := alertIDs(alerts)
		assert.Contains(t, ids, "battery-low")
		assert.Contains(t, ids, "battery-critical")

		for _, a := range alerts {
			if a.ID == "battery-critical" {
				assert.Equal(t, types.AlertCritical, a.Severity)
				assert.Equal(t, "Reserva Crítica Estimada", a.Title)
				assert.Equal(t, "La proyección indica un mínimo de 5.0%. Asegure respaldo externo.", a.Message)
			}
		}
	})
}

func TestAlertsProductionForecast(t *testing.T) {
	e := fixedEngine(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))
	battery := types.BatteryProjection{ProjectedMinLevel: 60}

	t.Run("LowTomorrow", func(t *testing.T) {
		forecast := []types.ForecastDay{
			{PredictedProduction: 300},
			{PredictedProduction: 120},
		}
		alerts := e.Alerts(nil, battery, forecast, nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, "low-production-forecast", alerts[0].ID)
		assert.Equal(t, "Se espera baja producción mañana (120 kWh) debido a condiciones climáticas.", alerts[0].Message)
	})

	t.Run("HighToday", func(t *testing.T) {
		forecast := []types.ForecastDay{
			{PredictedProduction: 400},
			{PredictedProduction: 300},
		}
		alerts := e.Alerts(nil, battery, forecast, nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, "high-production-forecast", alerts[0].ID)
		assert.Equal(t, types.AlertInfo, alerts[0].Severity)
		assert.Equal(t, "Se espera alta producción hoy (400 kWh). Buen momento para cargas intensivas.", alerts[0].Message)
	})
}

func TestAlertsDeficitWarning(t *testing.T) {
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	e := fixedEngine(base)

	preds := make([]types.HourlyPrediction, 6)
	for i := range preds {
		preds[i] = types.HourlyPrediction{
			Timestamp:           base.Add(time.Duration(i) * time.Hour),
			ExpectedProduction:  10,
			ExpectedConsumption: 30,
		}
	}
	battery := types.BatteryProjection{ProjectedMinLevel: 45}

	alerts := e.Alerts(preds, battery, nil, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, "deficit-warning", alerts[0].ID)
	assert.Equal(t, "Se espera déficit promedio de 20.0 kW en las próximas 6 horas. Considere reducir consumo no esencial.", alerts[0].Message)

	// comfortable battery suppresses the warning
	alerts = e.Alerts(preds, types.BatteryProjection{ProjectedMinLevel: 60}, nil, nil)
	assert.Empty(t, alerts)
}

func TestAlertsPlannedBlackout(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	e := fixedEngine(now)
	battery := types.BatteryProjection{ProjectedMinLevel: 60}

	start := now.Add(4 * time.Hour)
	end := start.Add(4 * time.Hour)
	schedules := []types.BlackoutSchedule{{
		Date: types.StartOfDay(now),
		Intervals: []types.BlackoutInterval{
			{Start: start, End: end, DurationMinutes: 240},
		},
	}}

	alerts := e.Alerts(nil, battery, nil, schedules)
	require.Len(t, alerts, 1)
	assert.Equal(t, fmt.Sprintf("planned-blackout-%d", start.Unix()), alerts[0].ID)
	assert.Equal(t, types.AlertCritical, alerts[0].Severity, "blackouts over three hours are critical")
	assert.Equal(t, "Apagón Programado", alerts[0].Title)
	assert.Equal(t, "Se ha planificado una interrupción entre 14:00h y 18:00h. Prepárese con antelación.", alerts[0].Message)

	t.Run("ShortBlackoutIsWarning", func(t *testing.T) {
		short := []types.BlackoutSchedule{{
			Intervals: []types.BlackoutInterval{
				{Start: start, End: start.Add(time.Hour), DurationMinutes: 60},
			},
		}}
		alerts := e.Alerts(nil, battery, nil, short)
		require.Len(t, alerts, 1)
		assert.Equal(t, types.AlertWarning, alerts[0].Severity)
	})

	t.Run("PastBlackoutIgnored", func(t *testing.T) {
		past := []types.BlackoutSchedule{{
			Intervals: []types.BlackoutInterval{
				{Start: now.Add(-2 * time.Hour), End: now.Add(-1 * time.Hour)},
			},
		}}
		alerts := e.Alerts(nil, battery, nil, past)
		assert.Empty(t, alerts)
	})
}

func TestRecommendationsSurplus(t *testing.T) {
	now := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	e := fixedEngine(now)
	cfg := types.DefaultSystemConfig()

	preds := []types.HourlyPrediction{
		{Timestamp: now, Hour: 13, ExpectedProduction: 45, ExpectedConsumption: 35},
	}
	battery := types.BatteryProjection{ProjectedMinLevel: 60, ProjectedMaxLevel: 90}

	recs := e.Recommendations(preds, battery, cfg, nil)
	assert.Contains(t, recs, "Se proyecta excedente solar inmediato. Buen momento para programar cargas intensivas supervisadas.")
	// 45 of 50 kW installed is above the 80% threshold
	assert.Contains(t, recs, "La proyección indica operación cercana al 90% de la capacidad instalada. Aproveche para tareas que requieran potencia.")
}

func TestRecommendationsLimitedReserveWithRebound(t *testing.T) {
	now := time.Date(2026, 8, 24, 7, 0, 0, 0, time.UTC)
	e := fixedEngine(now)
	cfg := types.DefaultSystemConfig()

	preds := []types.HourlyPrediction{
		{Timestamp: now, Hour: 7, ExpectedProduction: 20, ExpectedConsumption: 45.5},
		{Timestamp: now.Add(time.Hour), Hour: 8, ExpectedProduction: 35, ExpectedConsumption: 45.5},
		{Timestamp: now.Add(2 * time.Hour), Hour: 9, ExpectedProduction: 42, ExpectedConsumption: 45.5},
	}
	battery := types.BatteryProjection{ProjectedMinLevel: 30, ProjectedMaxLevel: 90}

	recs := e.Recommendations(preds, battery, cfg, nil)
	assert.Contains(t, recs, "Aunque la reserva es limitada, se espera repunte solar en pocas horas. Posponga consumos pesados hasta después del pico solar.")
}

func TestRecommendationsTimeOfDay(t *testing.T) {
	cfg := types.DefaultSystemConfig()
	battery := types.BatteryProjection{ProjectedMinLevel: 45, ProjectedMaxLevel: 70}

	t.Run("Morning", func(t *testing.T) {
		e := fixedEngine(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))
		recs := e.Recommendations(nil, battery, cfg, nil)
		assert.Contains(t, recs, "Se aproximan las horas de mayor producción (12-14h). Coordine actividades de alto consumo dentro de esa ventana.")
	})

	t.Run("Dusk", func(t *testing.T) {
		e := fixedEngine(time.Date(2026, 8, 24, 17, 0, 0, 0, time.UTC))
		recs := e.Recommendations(nil, battery, cfg, nil)
		assert.Contains(t, recs, "La producción solar caerá al atardecer. Asegure carga mínima o reduzca consumos no esenciales esta noche.")
	})
}

func TestRecommendationsLowProductionDay(t *testing.T) {
	now := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	e := fixedEngine(now)
	cfg := types.DefaultSystemConfig()

	preds := []types.HourlyPrediction{
		{Timestamp: now, Hour: 13, ExpectedProduction: 5, ExpectedConsumption: 35},
	}
	battery := types.BatteryProjection{ProjectedMinLevel: 60, ProjectedMaxLevel: 90}

	recs := e.Recommendations(preds, battery, cfg, nil)
	assert.Contains(t, recs, "Día de baja producción estimada. Priorice consumos esenciales y considere apoyo de la red para cargas críticas.")
}

func TestRecommendationsBlackout(t *testing.T) {
	now := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC) // a Monday
	cfg := types.DefaultSystemConfig()
	battery := types.BatteryProjection{ProjectedMinLevel: 60, ProjectedMaxLevel: 90}

	t.Run("Upcoming", func(t *testing.T) {
		e := fixedEngine(now)
		start := now.Add(5 * time.Hour)
		schedules := []types.BlackoutSchedule{{
			Intervals: []types.BlackoutInterval{{Start: start, End: start.Add(2 * time.Hour)}},
		}}
		preds := []types.HourlyPrediction{
			{Timestamp: now, Hour: 13, ExpectedProduction: 30, ExpectedConsumption: 35},
		}
		recs := e.Recommendations(preds, battery, cfg, schedules)
		assert.Contains(t, recs, "Planifique el consumo crítico antes de Monday 18:00. Mantenga la batería por encima del 60% previo al apagón.")
	})

	t.Run("Active", func(t *testing.T) {
		e := fixedEngine(now)
		schedules := []types.BlackoutSchedule{{
			Intervals: []types.BlackoutInterval{{Start: now, End: now.Add(2 * time.Hour)}},
		}}
		preds := []types.HourlyPrediction{
			{
				Timestamp:           now,
				Hour:                13,
				ExpectedProduction:  30,
				ExpectedConsumption: 21,
				BlackoutImpact:      &types.BlackoutImpact{IntervalStart: now, IntervalEnd: now.Add(2 * time.Hour)},
			},
		}
		recs := e.Recommendations(preds, battery, cfg, schedules)
		assert.Contains(t, recs, "Durante el apagón programado actual, reserve energía para cargas imprescindibles y supervise el nivel de batería cada hora.")
		assert.NotContains(t, recs, "Planifique el consumo crítico antes de Monday 13:00. Mantenga la batería por encima del 60% previo al apagón.")
	})
}
