package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/types"
)

const (
	// fixed module efficiency used to turn daily radiation into a rough
	// production figure for the forecast cards
	forecastPanelEfficiency = 0.17
	standardRadiationWM2    = 1000.0
)

// OpenMeteo fetches current conditions and a 7-day daily forecast from the
// Open-Meteo forecast API and normalizes them into a WeatherSnapshot.
type OpenMeteo struct {
	apiURL string
	client *http.Client
}

type openMeteoCurrent struct {
	Current struct {
		Temperature2M      float64 `json:"temperature_2m"`
		RelativeHumidity2M float64 `json:"relative_humidity_2m"`
		WindSpeed10M       float64 `json:"wind_speed_10m"`
		CloudCover         float64 `json:"cloud_cover"`
		ShortwaveRadiation float64 `json:"shortwave_radiation"`
		WeatherCode        int     `json:"weather_code"`
	} `json:"current"`
}

type openMeteoDaily struct {
	Daily struct {
		Time                  []string  `json:"time"`
		Temperature2MMax      []float64 `json:"temperature_2m_max"`
		Temperature2MMin      []float64 `json:"temperature_2m_min"`
		WeatherCode           []int     `json:"weather_code"`
		CloudCoverMean        []float64 `json:"cloud_cover_mean"`
		ShortwaveRadiationSum []float64 `json:"shortwave_radiation_sum"`
	} `json:"daily"`
}

// Fetch retrieves and normalizes the weather for the given location.
func (o *OpenMeteo) Fetch(ctx context.Context, lat, lon, capacityKW float64, locationName string) (types.WeatherSnapshot, error) {
	var current openMeteoCurrent
	currentParams := url.Values{}
	currentParams.Set("latitude", fmt.Sprintf("%g", lat))
	currentParams.Set("longitude", fmt.Sprintf("%g", lon))
	currentParams.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,cloud_cover,shortwave_radiation,weather_code")
	currentParams.Set("timezone", "auto")
	if err := o.get(ctx, currentParams, &current); err != nil {
		return types.WeatherSnapshot{}, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var daily openMeteoDaily
	dailyParams := url.Values{}
	dailyParams.Set("latitude", fmt.Sprintf("%g", lat))
	dailyParams.Set("longitude", fmt.Sprintf("%g", lon))
	dailyParams.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code,cloud_cover_mean,shortwave_radiation_sum")
	dailyParams.Set("forecast_days", "7")
	dailyParams.Set("timezone", "auto")
	if err := o.get(ctx, dailyParams, &daily); err != nil {
		return types.WeatherSnapshot{}, fmt.Errorf("failed to fetch daily forecast: %w", err)
	}

	forecast := make([]types.ForecastDay, 0, len(daily.Daily.Time))
	for i, dateStr := range daily.Daily.Time {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return types.WeatherSnapshot{}, fmt.Errorf("invalid forecast date %q: %w", dateStr, err)
		}
		avgRadiation := daily.Daily.ShortwaveRadiationSum[i] / 24
		forecast = append(forecast, types.ForecastDay{
			Date:                dateStr,
			DayOfWeek:           spanishDayName(date),
			MaxTemp:             daily.Daily.Temperature2MMax[i],
			MinTemp:             daily.Daily.Temperature2MMin[i],
			SolarRadiation:      math.Round(avgRadiation),
			CloudCover:          math.Round(daily.Daily.CloudCoverMean[i]),
			PredictedProduction: dailyProduction(avgRadiation, capacityKW),
			Condition:           conditionFromCode(daily.Daily.WeatherCode[i]),
		})
	}

	c := current.Current
	return types.WeatherSnapshot{
		Temperature:    c.Temperature2M,
		SolarRadiation: math.Round(c.ShortwaveRadiation),
		CloudCover:     math.Round(c.CloudCover),
		Humidity:       math.Round(c.RelativeHumidity2M),
		WindSpeed:      c.WindSpeed10M,
		Forecast:       forecast,
		Provider:       "Open-Meteo API",
		LocationName:   locationName,
		LastUpdated:    time.Now().UTC(),
		Description:    describeWeatherCode(c.WeatherCode),
	}, nil
}

func (o *OpenMeteo) get(ctx context.Context, params url.Values, out interface{}) error {
	u, err := url.Parse(o.apiURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching weather from open-meteo", slog.String("url", u.String()))

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open-meteo api returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// dailyProduction estimates daily production (kWh) from the day's average
// radiation.
func dailyProduction(radiation, capacityKW float64) float64 {
	productionFactor := radiation / standardRadiationWM2
	return math.Round(capacityKW*productionFactor*forecastPanelEfficiency*24*100) / 100
}

var spanishDayNames = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

func spanishDayName(date time.Time) string {
	return spanishDayNames[date.Weekday()]
}

// conditionFromCode maps WMO weather codes to the condition enum.
func conditionFromCode(code int) types.Condition {
	switch {
	case code == 0:
		return types.ConditionSunny
	case code == 1:
		return types.ConditionPartlyCloudy
	case code <= 48:
		return types.ConditionCloudy
	default:
		return types.ConditionRainy
	}
}

var weatherCodeDescriptions = map[int]string{
	0:  "Cielo despejado",
	1:  "Principalmente despejado",
	2:  "Parcialmente nublado",
	3:  "Nublado",
	45: "Niebla",
	48: "Niebla con escarcha",
	51: "Llovizna ligera",
	53: "Llovizna moderada",
	55: "Llovizna intensa",
	61: "Lluvia ligera",
	63: "Lluvia moderada",
	65: "Lluvia intensa",
	71: "Nevada ligera",
	73: "Nevada moderada",
	75: "Nevada intensa",
	95: "Tormenta eléctrica",
	96: "Tormenta con granizo ligero",
	99: "Tormenta con granizo intenso",
}

func describeWeatherCode(code int) string {
	if d, ok := weatherCodeDescriptions[code]; ok {
		return d
	}
	return "Condiciones variables"
}
