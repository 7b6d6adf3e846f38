package types

import "time"

// BlackoutIntensity classifies how disruptive a scheduled outage is.
type BlackoutIntensity string

const (
	BlackoutModerate BlackoutIntensity = "moderado"
	BlackoutSevere   BlackoutIntensity = "severo"
)

// BlackoutImpact records how a scheduled outage altered a prediction.
type BlackoutImpact struct {
	IntervalStart    time.Time         `json:"intervalStart"`
	IntervalEnd      time.Time         `json:"intervalEnd"`
	LoadFactor       float64           `json:"loadFactor"`
	ProductionFactor float64           `json:"productionFactor"`
	Intensity        BlackoutIntensity `json:"intensity"`
	Note             string            `json:"note"`
}

// HourlyPrediction is one hour of forecast production and consumption.
// Confidence is bounded [50,95] before blackout adjustment and floored at 40
// after it.
type HourlyPrediction struct {
	Timestamp           time.Time       `json:"timestamp"`
	Hour                int             `json:"hour"`
	ExpectedProduction  float64         `json:"expectedProduction"`
	ExpectedConsumption float64         `json:"expectedConsumption"`
	Confidence          int             `json:"confidence"`
	BlackoutImpact      *BlackoutImpact `json:"blackoutImpact,omitempty"`
}

// TimelinePoint is one step of the simulated battery timeline. Each point's
// battery level depends on the previous point's stored energy.
type TimelinePoint struct {
	Timestamp    time.Time `json:"timestamp"`
	Production   float64   `json:"production"`
	Consumption  float64   `json:"consumption"`
	BatteryLevel float64   `json:"batteryLevel"`
	GridExport   float64   `json:"gridExport"`
	GridImport   float64   `json:"gridImport"`
	Efficiency   float64   `json:"efficiency"`
	BatteryDelta float64   `json:"batteryDelta"`
}

// BatteryProjection summarizes the simulated timeline into a current-status
// snapshot.
type BatteryProjection struct {
	ChargeLevel       float64 `json:"chargeLevel"`
	Capacity          float64 `json:"capacity"`
	Current           float64 `json:"current"`
	AutonomyHours     float64 `json:"autonomyHours"`
	Charging          bool    `json:"charging"`
	PowerFlow         float64 `json:"powerFlow"`
	ProjectedMinLevel float64 `json:"projectedMinLevel"`
	ProjectedMaxLevel float64 `json:"projectedMaxLevel"`
	Note              string  `json:"note"`
}

// AlertSeverity is the urgency class of an alert.
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert is a derived operational warning. The ID is stable per category and
// is used by clients for de-duplication.
type Alert struct {
	ID        string        `json:"id"`
	Severity  AlertSeverity `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

// DischargeEstimate is the result of the discharge-to-empty simulation.
// MinutesToEmpty is nil when the battery never empties within the simulated
// horizon.
type DischargeEstimate struct {
	MinutesToEmpty     *int    `json:"minutesToEmpty"`
	StartHour          int     `json:"startHour"`
	BatteryCapacityKWH float64 `json:"batteryCapacityKwh"`
}

// EnergyFlow is the instantaneous source-to-destination power split.
type EnergyFlow struct {
	SolarToBattery float64 `json:"solarToBattery"`
	SolarToLoad    float64 `json:"solarToLoad"`
	SolarToGrid    float64 `json:"solarToGrid"`
	BatteryToLoad  float64 `json:"batteryToLoad"`
	GridToLoad     float64 `json:"gridToLoad"`
}

// SystemMetrics are daily aggregate figures derived from the timeline.
type SystemMetrics struct {
	CurrentProduction  float64 `json:"currentProduction"`
	CurrentConsumption float64 `json:"currentConsumption"`
	EnergyBalance      float64 `json:"energyBalance"`
	SystemEfficiency   float64 `json:"systemEfficiency"`
	DailyProduction    float64 `json:"dailyProduction"`
	DailyConsumption   float64 `json:"dailyConsumption"`
	CO2Avoided         float64 `json:"co2Avoided"`
}

// PointWeather carries the weather features behind a single model prediction.
type PointWeather struct {
	Temperature2M      float64 `json:"temperature_2m"`
	RelativeHumidity2M float64 `json:"relative_humidity_2m"`
	WindSpeed10M       float64 `json:"wind_speed_10m"`
	CloudCover         float64 `json:"cloud_cover"`
	ShortwaveRadiation float64 `json:"shortwave_radiation"`
}

// ProductionPoint is a model-predicted production value at a datetime.
type ProductionPoint struct {
	Datetime     time.Time     `json:"datetime"`
	ProductionKW float64       `json:"production_kw"`
	Weather      *PointWeather `json:"weather,omitempty"`
}

// ConsumptionPoint is a model-predicted consumption value at a datetime.
type ConsumptionPoint struct {
	Datetime      time.Time `json:"datetime"`
	ConsumptionKW float64   `json:"consumption_kw"`
}
