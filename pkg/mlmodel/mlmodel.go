package mlmodel

import (
	"context"
	"log/slog"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/soltwin/soltwin/pkg/common"
	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/types"
)

const defaultForecastAPIURL = "https://api.open-meteo.com/v1/forecast"

// Models bundles the production and consumption predictors.
type Models struct {
	Production  *ProductionPredictor
	Consumption *ConsumptionPredictor
}

// Configured sets up flags for the ML models and returns the instance. A
// missing or invalid artifact is logged but does not prevent startup; the
// corresponding predictor then fails with ErrModelNotLoaded.
func Configured() *Models {
	productionPath := lflag.String("production-model-path", "models/production_model.json", "Path to the trained production model artifact")
	consumptionPath := lflag.String("consumption-model-path", "models/consumption_model.json", "Path to the trained consumption model artifact")
	apiURL := lflag.String("ml-weather-api-url", defaultForecastAPIURL, "URL for the Open-Meteo hourly weather API used for model features")

	defaults := types.DefaultSystemConfig().Location
	m := &Models{
		Production: &ProductionPredictor{
			defaultLat: defaults.Lat,
			defaultLon: defaults.Lon,
		},
		Consumption: &ConsumptionPredictor{},
	}

	lflag.Do(func() {
		ctx := context.Background()

		m.Production.apiURL = *apiURL
		m.Production.client = common.HTTPClient(15 * time.Second)

		if model, err := Load(*productionPath); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to load production model", slog.String("path", *productionPath), slog.Any("err", err))
		} else {
			m.Production.model = model
		}

		if model, err := Load(*consumptionPath); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to load consumption model", slog.String("path", *consumptionPath), slog.Any("err", err))
		} else {
			m.Consumption.model = model
		}
	})

	return m
}

// New returns Models backed by already loaded artifacts, used by tests and
// the seed tool.
func New(production, consumption *LinearModel, apiURL string) *Models {
	defaults := types.DefaultSystemConfig().Location
	return &Models{
		Production: &ProductionPredictor{
			model:      production,
			apiURL:     apiURL,
			client:     common.HTTPClient(15 * time.Second),
			defaultLat: defaults.Lat,
			defaultLon: defaults.Lon,
		},
		Consumption: &ConsumptionPredictor{model: consumption},
	}
}
