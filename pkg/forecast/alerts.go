package forecast

import (
	"fmt"

	"github.com/soltwin/soltwin/pkg/types"
)

// Alerts derives the operator alerts from the adjusted predictions, the
// battery projection, the weather forecast, and upcoming blackout windows.
func (e *Engine) Alerts(predictions []types.HourlyPrediction, battery types.BatteryProjection, forecast []types.ForecastDay, schedules []types.BlackoutSchedule) []types.Alert {
	now := e.now().UTC()
	projectedMin := battery.ProjectedMinLevel
	windows := flattenBlackoutWindows(schedules)

	var alerts []types.Alert
	if projectedMin < 20 {
		alerts = append(alerts, types.Alert{
			ID:        "battery-low",
			Severity:  types.AlertWarning,
			Title:     "Reserva de Batería Limitada",
			Message:   fmt.Sprintf("Proyección mínima de %.1f%% sin telemetría. Considere reducir consumos continuos.", projectedMin),
			Timestamp: now,
		})
	}
	if projectedMin < 10 {
		alerts = append(alerts, types.Alert{
			ID:        "battery-critical",
			Severity:  types.AlertCritical,
			Title:     "Reserva Crítica Estimada",
			Message:   fmt.Sprintf("La proyección indica un mínimo de %.1f%%. Asegure respaldo externo.", projectedMin),
			Timestamp: now,
		})
	}

	if len(forecast) > 1 && forecast[1].PredictedProduction < 150 {
		alerts = append(alerts, types.Alert{
			ID:        "low-production-forecast",
			Severity:  types.AlertWarning,
			Title:     "Baja Producción Esperada",
			Message:   fmt.Sprintf("Se espera baja producción mañana (%.0f kWh) debido a condiciones climáticas.", forecast[1].PredictedProduction),
			Timestamp: now,
		})
	}
	if len(forecast) > 0 && forecast[0].PredictedProduction > 350 {
		alerts = append(alerts, types.Alert{
			ID:        "high-production-forecast",
			Severity:  types.AlertInfo,
			Title:     "Excelente Producción Esperada",
			Message:   fmt.Sprintf("Se espera alta producción hoy (%.0f kWh). Buen momento para cargas intensivas.", forecast[0].PredictedProduction),
			Timestamp: now,
		})
	}

	nextSix := predictions
	if len(nextSix) > 6 {
		nextSix = nextSix[:6]
	}
	if len(nextSix) > 0 {
		var deficit float64
		for _, p := range nextSix {
			if d := p.ExpectedConsumption - p.ExpectedProduction; d > 0 {
				deficit += d
			}
		}
		avgDeficit := deficit / float64(len(nextSix))
		if avgDeficit > 10 && projectedMin < 50 {
			alerts = append(alerts, types.Alert{
				ID:        "deficit-warning",
				Severity:  types.AlertWarning,
				Title:     "Déficit Energético Próximo",
				Message:   fmt.Sprintf("Se espera déficit promedio de %.1f kW en las próximas 6 horas. Considere reducir consumo no esencial.", avgDeficit),
				Timestamp: now,
			})
		}
	}

	for _, w := range windows {
		if !w.start.After(now) {
			continue
		}
		severity := types.AlertWarning
		if w.interval.DurationMinutes > severeBlackoutMinutes {
			severity = types.AlertCritical
		}
		alerts = append(alerts, types.Alert{
			ID:        fmt.Sprintf("planned-blackout-%d", w.start.Unix()),
			Severity:  severity,
			Title:     "Apagón Programado",
			Message:   fmt.Sprintf("Se ha planificado una interrupción entre %s y %s. Prepárese con antelación.", w.start.Format("15:04")+"h", w.end.Format("15:04")+"h"),
			Timestamp: now,
		})
		break
	}

	return alerts
}

// Recommendations derives the advisory texts shown to the operator.
func (e *Engine) Recommendations(predictions []types.HourlyPrediction, battery types.BatteryProjection, cfg types.SystemConfig, schedules []types.BlackoutSchedule) []string {
	now := e.now().UTC()
	solarCapacity := cfg.Solar.CapacityKW
	if solarCapacity < 0.0001 {
		solarCapacity = 0.0001
	}

	var current *types.HourlyPrediction
	if len(predictions) > 0 {
		current = &predictions[0]
	}
	currentProduction, currentConsumption := 0.0, 0.0
	if current != nil {
		currentProduction = current.ExpectedProduction
		currentConsumption = current.ExpectedConsumption
	}
	projectedMin := battery.ProjectedMinLevel
	projectedMax := battery.ProjectedMaxLevel

	var recommendations []string
	if currentProduction > currentConsumption*1.2 {
		recommendations = append(recommendations, "Se proyecta excedente solar inmediato. Buen momento para programar cargas intensivas supervisadas.")
	}

	nextThree := predictions
	if len(nextThree) > 3 {
		nextThree = nextThree[:3]
	}
	if len(nextThree) > 0 {
		var sum float64
		for _, p := range nextThree {
			sum += p.ExpectedProduction
		}
		avgProduction := sum / float64(len(nextThree))
		if projectedMin < 40 && avgProduction > 30 {
			recommendations = append(recommendations, "Aunque la reserva es limitada, se espera repunte solar en pocas horas. Posponga consumos pesados hasta después del pico solar.")
		}
	}

	hour := now.Hour()
	if hour >= 9 && hour <= 11 && projectedMax < 85 {
		recommendations = append(recommendations, "Se aproximan las horas de mayor producción (12-14h). Coordine actividades de alto consumo dentro de esa ventana.")
	}
	if hour >= 16 && hour <= 18 && projectedMin < 50 {
		recommendations = append(recommendations, "La producción solar caerá al atardecer. Asegure carga mínima o reduzca consumos no esenciales esta noche.")
	}
	if currentProduction > solarCapacity*0.8 {
		recommendations = append(recommendations, fmt.Sprintf("La proyección indica operación cercana al %.0f%% de la capacidad instalada. Aproveche para tareas que requieran potencia.", currentProduction/solarCapacity*100))
	}
	if current != nil && current.ExpectedProduction < solarCapacity*0.3 {
		recommendations = append(recommendations, "Día de baja producción estimada. Priorice consumos esenciales y considere apoyo de la red para cargas críticas.")
	}

	blackoutNow := current != nil && current.BlackoutImpact != nil
	if blackoutNow {
		recommendations = append(recommendations, "Durante el apagón programado actual, reserve energía para cargas imprescindibles y supervise el nivel de batería cada hora.")
	}
	midnight := types.StartOfDay(now)
	for _, w := range flattenBlackoutWindows(schedules) {
		if w.start.Before(midnight) {
			continue
		}
		if !blackoutNow {
			recommendations = append(recommendations, fmt.Sprintf("Planifique el consumo crítico antes de %s. Mantenga la batería por encima del 60%% previo al apagón.", w.start.Format("Monday 15:04")))
		}
		break
	}

	return recommendations
}
