package types

import "time"

// PanelSpec is a stored solar panel inventory record.
type PanelSpec struct {
	ID                string    `json:"id"`
	Manufacturer      string    `json:"manufacturer"`
	Model             string    `json:"model,omitempty"`
	RatedPowerKW      float64   `json:"ratedPowerKw"`
	Quantity          int       `json:"quantity"`
	EfficiencyPercent float64   `json:"efficiencyPercent,omitempty"`
	AreaM2            float64   `json:"areaM2,omitempty"`
	TiltDegrees       float64   `json:"tiltDegrees,omitempty"`
	Orientation       string    `json:"orientation,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// BatterySpec is a stored battery bank inventory record.
type BatterySpec struct {
	ID                         string    `json:"id"`
	Name                       string    `json:"name"`
	Manufacturer               string    `json:"manufacturer,omitempty"`
	Model                      string    `json:"model,omitempty"`
	CapacityKWH                float64   `json:"capacityKwh"`
	Quantity                   int       `json:"quantity"`
	MaxDepthOfDischargePercent float64   `json:"maxDepthOfDischargePercent,omitempty"`
	ChargeRateKW               float64   `json:"chargeRateKw,omitempty"`
	DischargeRateKW            float64   `json:"dischargeRateKw,omitempty"`
	EfficiencyPercent          float64   `json:"efficiencyPercent,omitempty"`
	Chemistry                  string    `json:"chemistry,omitempty"`
	NominalVoltage             float64   `json:"nominalVoltage,omitempty"`
	Notes                      string    `json:"notes,omitempty"`
	CreatedAt                  time.Time `json:"createdAt"`
	UpdatedAt                  time.Time `json:"updatedAt"`
}

// LocationConfig is the fixed installation site.
type LocationConfig struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

// SolarConfig is the aggregated solar array configuration.
type SolarConfig struct {
	CapacityKW             float64    `json:"capacityKw"`
	PanelRatedKW           float64    `json:"panelRatedKw"`
	PanelCount             int        `json:"panelCount"`
	Strings                int        `json:"strings"`
	PanelEfficiencyPercent float64    `json:"panelEfficiencyPercent"`
	PanelAreaM2            float64    `json:"panelAreaM2"`
	Spec                   *PanelSpec `json:"spec"`
}

// BatteryConfig is the aggregated battery bank configuration.
type BatteryConfig struct {
	CapacityKWH                float64      `json:"capacityKwh"`
	ModuleCapacityKWH          float64      `json:"moduleCapacityKwh"`
	ModuleCount                int          `json:"moduleCount"`
	MaxDepthOfDischargePercent float64      `json:"maxDepthOfDischargePercent"`
	ChargeRateKW               float64      `json:"chargeRateKw"`
	DischargeRateKW            float64      `json:"dischargeRateKw"`
	EfficiencyPercent          float64      `json:"efficiencyPercent"`
	Spec                       *BatterySpec `json:"spec"`
}

// SystemConfig is the effective system configuration used by the prediction
// engine. It is recomputed per request from the stored inventory.
type SystemConfig struct {
	Location LocationConfig `json:"location"`
	Solar    SolarConfig    `json:"solar"`
	Battery  BatteryConfig  `json:"battery"`
}

// DefaultSystemConfig returns the fallback configuration used when the
// inventory is empty or unreachable.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Location: LocationConfig{
			Lat:  23.1136,
			Lon:  -82.3666,
			Name: "La Habana, Cuba",
		},
		Solar: SolarConfig{
			CapacityKW:             50.0,
			PanelRatedKW:           0.55,
			PanelCount:             10,
			Strings:                10,
			PanelEfficiencyPercent: 21.8,
			PanelAreaM2:            2.6,
		},
		Battery: BatteryConfig{
			CapacityKWH:                100.0,
			ModuleCapacityKWH:          100.0,
			ModuleCount:                1,
			MaxDepthOfDischargePercent: 80.0,
			EfficiencyPercent:          92.0,
			ChargeRateKW:               25.0,
			DischargeRateKW:            25.0,
		},
	}
}
