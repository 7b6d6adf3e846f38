package forecast

import (
	"math"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
)

const (
	// defaultPanelEfficiency is assumed when the panel spec does not state
	// an efficiency.
	defaultPanelEfficiency = 0.2

	solarPeakHour     = 13
	radiationSigma    = 4.0
	baseDayLoadKW     = 35.0
	baseNightLoadKW   = 18.0
	peakLoadFactor    = 1.3
	predictionHorizon = 24
)

// solarContext is the resolved array geometry used by the production model.
type solarContext struct {
	capacityKW      float64
	panelEfficiency float64
	arrayAreaM2     float64
}

// resolveSolarContext derives the array area and efficiency from the solar
// configuration. When the panel area is unknown it is inferred from the rated
// power at the panel's efficiency.
func resolveSolarContext(solar types.SolarConfig) solarContext {
	efficiency := defaultPanelEfficiency
	if solar.PanelEfficiencyPercent != 0 {
		efficiency = solar.PanelEfficiencyPercent / 100
	}
	panelArea := solar.PanelAreaM2
	if panelArea == 0 {
		panelArea = solar.PanelRatedKW / math.Max(efficiency, 0.0001)
	}
	panelCount := solar.PanelCount
	if panelCount == 0 {
		panelCount = 1
	}
	return solarContext{
		capacityKW:      solar.CapacityKW,
		panelEfficiency: efficiency,
		arrayAreaM2:     panelArea * float64(panelCount),
	}
}

// hourEfficiencyFactor models the sun-angle derating across the day.
func hourEfficiencyFactor(hour int) float64 {
	switch {
	case hour >= 12 && hour <= 14:
		return 1.0
	case hour >= 11 && hour <= 15:
		return 0.95
	case hour >= 10 && hour <= 16:
		return 0.85
	case hour >= 8 && hour <= 17:
		return 0.70
	case hour >= 7 && hour <= 18:
		return 0.50
	case hour >= 6 && hour <= 19:
		return 0.30
	default:
		return 0.0
	}
}

// predictProduction estimates production (kW) from radiation, temperature and
// cloud cover. Output is capped at the installed capacity and forced to zero
// outside daylight hours (6-20).
func predictProduction(solarRadiation, temperature, cloudCover float64, hour int, sctx solarContext) float64 {
	production := (solarRadiation * sctx.arrayAreaM2 * sctx.panelEfficiency) / 1000
	production *= 1 - (temperature-25)*0.004
	production *= 1 - (cloudCover/100)*0.5
	production *= hourEfficiencyFactor(hour)
	production = math.Min(production, sctx.capacityKW)
	if hour < 6 || hour > 20 {
		production = 0
	}
	return round2(math.Max(0, production))
}

// estimateHourlyRadiation spreads the day's average radiation across hours
// with a gaussian centered on the solar peak, with random cloud variability.
func (e *Engine) estimateHourlyRadiation(hour int, dailyAvg, cloudCover float64) float64 {
	gaussian := math.Exp(-math.Pow(float64(hour)-solarPeakHour, 2) / (2 * radiationSigma * radiationSigma))
	radiation := dailyAvg * gaussian * 1.8
	radiation *= 1 - (e.rand() * cloudCover / 200)
	return math.Max(0, math.Round(radiation))
}

// estimateHourlyTemperature interpolates the day's min/max with a sine that
// bottoms out at 06:00.
func estimateHourlyTemperature(hour int, maxTemp, minTemp float64) float64 {
	amplitude := (maxTemp - minTemp) / 2
	average := (maxTemp + minTemp) / 2
	phase := (float64(hour) - 6) / 24 * 2 * math.Pi
	return round1(average + amplitude*math.Sin(phase))
}

// predictConsumption is the static campus load profile: elevated during the
// morning and evening peaks, base load during the day, reduced at night.
func predictConsumption(hour int) float64 {
	if (hour >= 7 && hour <= 9) || (hour >= 18 && hour <= 22) {
		return baseDayLoadKW * peakLoadFactor
	}
	if hour >= 6 && hour < 18 {
		return baseDayLoadKW
	}
	return baseNightLoadKW
}

// predictionConfidence decays with lead time and cloud cover, bounded to
// [50, 95].
func predictionConfidence(hoursAhead int, cloudCover float64) float64 {
	confidence := 95 - float64(hoursAhead)*2 - cloudCover/5
	return clamp(confidence, 50, 95)
}

// HourlyPredictions generates the next 24 hourly predictions from the weather
// forecast. The first forecast day covers the first 12 hours, the second day
// the rest; hours with no forecast at all are skipped.
func (e *Engine) HourlyPredictions(forecast []types.ForecastDay, cfg types.SystemConfig) []types.HourlyPrediction {
	now := e.now().UTC()
	sctx := resolveSolarContext(cfg.Solar)

	var fallback *types.ForecastDay
	if len(forecast) > 0 {
		fallback = &forecast[0]
	}

	predictions := make([]types.HourlyPrediction, 0, predictionHorizon)
	for offset := 0; offset < predictionHorizon; offset++ {
		timestamp := now.Add(time.Duration(offset) * time.Hour)
		hour := timestamp.Hour()

		day := fallback
		if offset < 12 {
			if len(forecast) > 0 {
				day = &forecast[0]
			}
		} else if len(forecast) > 1 {
			day = &forecast[1]
		}
		if day == nil {
			continue
		}

		radiation := e.estimateHourlyRadiation(hour, day.SolarRadiation, day.CloudCover)
		temperature := estimateHourlyTemperature(hour, day.MaxTemp, day.MinTemp)
		production := predictProduction(radiation, temperature, day.CloudCover, hour, sctx)
		consumption := predictConsumption(hour)
		confidence := predictionConfidence(offset, day.CloudCover)

		predictions = append(predictions, types.HourlyPrediction{
			Timestamp:           timestamp,
			Hour:                hour,
			ExpectedProduction:  round2(production),
			ExpectedConsumption: round2(consumption),
			Confidence:          int(math.Round(confidence)),
		})
	}
	return predictions
}
