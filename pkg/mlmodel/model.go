// Package mlmodel loads the trained regression artifacts and predicts solar
// production and energy consumption from temporal and weather features.
package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrModelNotLoaded is returned when a prediction is requested before the
// model artifact was loaded.
var ErrModelNotLoaded = errors.New("ml model not loaded")

const (
	defaultCampusID = 1
	defaultMeterID  = 55
)

// modelArtifact is the on-disk JSON layout of a trained model export.
type modelArtifact struct {
	ModelName       string    `json:"model_name"`
	Features        []string  `json:"features"`
	Coefficients    []float64 `json:"coefficients"`
	Intercept       float64   `json:"intercept"`
	RequiresScaling bool      `json:"requires_scaling"`
	ScalerMean      []float64 `json:"scaler_mean,omitempty"`
	ScalerStd       []float64 `json:"scaler_std,omitempty"`

	// model card
	TestRMSE  *float64 `json:"test_rmse,omitempty"`
	TestR2    *float64 `json:"test_r2,omitempty"`
	TestMAE   *float64 `json:"test_mae,omitempty"`
	TrainDate string   `json:"train_date,omitempty"`

	// production models trained against a reference installation
	ReferenceCapacityKW float64 `json:"reference_capacity_kw,omitempty"`

	// consumption models carry the site identifiers they were trained on
	CampusIDDefault int `json:"campus_id_default,omitempty"`
	MeterIDDefault  int `json:"meter_id_default,omitempty"`
}

// LinearModel is an immutable linear regression loaded from a model artifact.
// Predictions are clamped to be non-negative.
type LinearModel struct {
	artifact modelArtifact
}

// Load reads and validates a model artifact from disk.
func Load(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var a modelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model artifact %s: %w", path, err)
	}
	if len(a.Features) == 0 {
		return nil, fmt.Errorf("model artifact %s has no features", path)
	}
	if len(a.Coefficients) != len(a.Features) {
		return nil, fmt.Errorf("model artifact %s has %d coefficients for %d features", path, len(a.Coefficients), len(a.Features))
	}
	if a.RequiresScaling {
		if len(a.ScalerMean) != len(a.Features) || len(a.ScalerStd) != len(a.Features) {
			return nil, fmt.Errorf("model artifact %s scaler does not match features", path)
		}
	}
	return &LinearModel{artifact: a}, nil
}

// Predict evaluates the regression for a single feature row. Missing features
// are treated as zero.
func (m *LinearModel) Predict(features map[string]float64) float64 {
	sum := m.artifact.Intercept
	for i, name := range m.artifact.Features {
		x := features[name]
		if m.artifact.RequiresScaling {
			std := m.artifact.ScalerStd[i]
			if std == 0 {
				std = 1
			}
			x = (x - m.artifact.ScalerMean[i]) / std
		}
		sum += m.artifact.Coefficients[i] * x
	}
	return math.Max(0, sum)
}

// Name returns the artifact's model name.
func (m *LinearModel) Name() string {
	return m.artifact.ModelName
}

// Features returns the feature names in model order.
func (m *LinearModel) Features() []string {
	out := make([]string, len(m.artifact.Features))
	copy(out, m.artifact.Features)
	return out
}

// ReferenceCapacityKW returns the array capacity the production model was
// trained against, or 0 if unknown.
func (m *LinearModel) ReferenceCapacityKW() float64 {
	return m.artifact.ReferenceCapacityKW
}

// DefaultCampusID returns the campus identifier the consumption model was
// trained on.
func (m *LinearModel) DefaultCampusID() int {
	if m.artifact.CampusIDDefault != 0 {
		return m.artifact.CampusIDDefault
	}
	return defaultCampusID
}

// DefaultMeterID returns the meter identifier the consumption model was
// trained on.
func (m *LinearModel) DefaultMeterID() int {
	if m.artifact.MeterIDDefault != 0 {
		return m.artifact.MeterIDDefault
	}
	return defaultMeterID
}

// Info describes a loaded model for the info endpoint.
type Info struct {
	Loaded              bool     `json:"loaded"`
	Message             string   `json:"message,omitempty"`
	ModelName           string   `json:"modelName,omitempty"`
	TestRMSE            *float64 `json:"testRmse,omitempty"`
	TestR2              *float64 `json:"testR2,omitempty"`
	TestMAE             *float64 `json:"testMae,omitempty"`
	Features            []string `json:"features,omitempty"`
	TrainingDate        string   `json:"trainingDate,omitempty"`
	RequiresScaling     bool     `json:"requiresScaling"`
	ReferenceCapacityKW float64  `json:"referenceCapacityKw,omitempty"`
}

// Info returns the model card of a loaded model. A nil model reports as not
// loaded.
func (m *LinearModel) Info() Info {
	if m == nil {
		return Info{Loaded: false, Message: "Model not loaded"}
	}
	return Info{
		Loaded:              true,
		ModelName:           m.artifact.ModelName,
		TestRMSE:            m.artifact.TestRMSE,
		TestR2:              m.artifact.TestR2,
		TestMAE:             m.artifact.TestMAE,
		Features:            m.Features(),
		TrainingDate:        m.artifact.TrainDate,
		RequiresScaling:     m.artifact.RequiresScaling,
		ReferenceCapacityKW: m.artifact.ReferenceCapacityKW,
	}
}
