package types

import "time"

// Condition classifies a forecast day's dominant sky state.
type Condition string

const (
	ConditionSunny        Condition = "sunny"
	ConditionPartlyCloudy Condition = "partly-cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionRainy        Condition = "rainy"
)

// ForecastDay is a single day of the normalized weather forecast. The first
// entry of a forecast is always "today".
type ForecastDay struct {
	Date                string    `json:"date"`
	DayOfWeek           string    `json:"dayOfWeek"`
	MaxTemp             float64   `json:"maxTemp"`
	MinTemp             float64   `json:"minTemp"`
	SolarRadiation      float64   `json:"solarRadiation"`
	CloudCover          float64   `json:"cloudCover"`
	PredictedProduction float64   `json:"predictedProduction"`
	Condition           Condition `json:"condition"`
}

// WeatherSnapshot is the canonical weather record the prediction engine
// consumes. It is recomputed on every request and never persisted.
type WeatherSnapshot struct {
	Temperature    float64       `json:"temperature"`
	SolarRadiation float64       `json:"solarRadiation"`
	CloudCover     float64       `json:"cloudCover"`
	Humidity       float64       `json:"humidity"`
	WindSpeed      float64       `json:"windSpeed"`
	Forecast       []ForecastDay `json:"forecast"`
	Provider       string        `json:"provider"`
	LocationName   string        `json:"locationName"`
	LastUpdated    time.Time     `json:"lastUpdated"`
	Description    string        `json:"description"`
}
