package weather

import (
	"math"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
)

const (
	syntheticProvider     = "Simulación interna (fallback)"
	syntheticLocationName = "Ubicación simulada"
	syntheticDescription  = "Datos simulados por indisponibilidad de OpenWeather"
)

// syntheticScenario describes the cloud cover and radiation envelope for one
// day of the generated forecast.
type syntheticScenario struct {
	condition     types.Condition
	cloudBase     float64
	cloudSpread   float64
	radiationBase float64
	radiationSpan float64
}

// seven-day rotation, roughly two cloudy days a week
var syntheticScenarios = []syntheticScenario{
	{types.ConditionSunny, 5, 15, 850, 120},
	{types.ConditionSunny, 5, 15, 850, 120},
	{types.ConditionPartlyCloudy, 30, 20, 600, 150},
	{types.ConditionCloudy, 70, 20, 300, 170},
	{types.ConditionPartlyCloudy, 30, 20, 600, 150},
	{types.ConditionSunny, 5, 15, 850, 120},
	{types.ConditionCloudy, 70, 20, 300, 170},
}

// Synthetic generates plausible weather data when the upstream provider is
// unreachable. The rand and now functions are injectable so tests can pin the
// output.
type Synthetic struct {
	rand func() float64
	now  func() time.Time
}

// NewSynthetic returns a generator backed by the given rand and clock
// functions.
func NewSynthetic(randFloat func() float64, now func() time.Time) *Synthetic {
	return &Synthetic{rand: randFloat, now: now}
}

// Generate produces a full synthetic snapshot, including a 7-day forecast,
// sized to the given array capacity.
func (s *Synthetic) Generate(capacityKW float64) types.WeatherSnapshot {
	now := s.now().UTC()
	hour := now.Hour()

	cloudCover := 15 + s.rand()*25
	radiation := 0.0
	if hour >= 6 && hour <= 20 {
		gaussian := math.Exp(-math.Pow(float64(hour)-13, 2) / 32)
		radiation = 1000 * gaussian * (1 - (cloudCover/100)*0.7)
	}
	temperature := 20 + 8*math.Sin((float64(hour)-6)*math.Pi/12) + (s.rand()*2 - 1)

	forecast := make([]types.ForecastDay, 0, len(syntheticScenarios))
	today := types.StartOfDay(now)
	for i, scenario := range syntheticScenarios {
		date := today.AddDate(0, 0, i)
		cc := scenario.cloudBase + s.rand()*scenario.cloudSpread
		avgRadiation := scenario.radiationBase + s.rand()*scenario.radiationSpan
		predicted := math.Max(0, (avgRadiation/1000)*capacityKW*8*(1-cc/200))

		baseTemp := 18 + s.rand()*8
		forecast = append(forecast, types.ForecastDay{
			Date:                date.Format("2006-01-02"),
			DayOfWeek:           spanishDayName(date),
			MaxTemp:             round1(baseTemp + 5 + s.rand()*3),
			MinTemp:             round1(baseTemp - 3 + s.rand()*2),
			SolarRadiation:      math.Round(avgRadiation),
			CloudCover:          math.Round(cc),
			PredictedProduction: round1(predicted),
			Condition:           conditionFromCloudCover(cc),
		})
	}

	return types.WeatherSnapshot{
		Temperature:    round1(temperature),
		SolarRadiation: math.Round(radiation),
		CloudCover:     math.Round(cloudCover),
		Humidity:       math.Round(50 + s.rand()*30),
		WindSpeed:      round1(5 + s.rand()*15),
		Forecast:       forecast,
		Provider:       syntheticProvider,
		LocationName:   syntheticLocationName,
		LastUpdated:    now,
		Description:    syntheticDescription,
	}
}

func conditionFromCloudCover(cc float64) types.Condition {
	switch {
	case cc < 20:
		return types.ConditionSunny
	case cc < 50:
		return types.ConditionPartlyCloudy
	default:
		return types.ConditionCloudy
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
