package mlmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
)

// Open-Meteo hourly timestamps come back without seconds.
const hourlyTimeFormat = "2006-01-02T15:04"

// ProductionPredictor predicts solar production for arbitrary datetimes by
// combining the trained model with hourly weather from the Open-Meteo
// forecast API.
type ProductionPredictor struct {
	model      *LinearModel
	apiURL     string
	client     *http.Client
	defaultLat float64
	defaultLon float64
}

type hourlyWeatherResponse struct {
	Hourly struct {
		Time               []string  `json:"time"`
		Temperature2M      []float64 `json:"temperature_2m"`
		RelativeHumidity2M []float64 `json:"relative_humidity_2m"`
		WindSpeed10M       []float64 `json:"wind_speed_10m"`
		CloudCover         []float64 `json:"cloud_cover"`
		ShortwaveRadiation []float64 `json:"shortwave_radiation"`
	} `json:"hourly"`
}

// Model returns the underlying model, or nil if it failed to load.
func (p *ProductionPredictor) Model() *LinearModel {
	return p.model
}

// Predict returns production predictions for the given datetimes at the given
// location. It fetches hourly weather covering the full datetime range and
// matches each target to the closest hour.
func (p *ProductionPredictor) Predict(ctx context.Context, datetimes []time.Time, lat, lon float64) ([]types.ProductionPoint, error) {
	if p.model == nil {
		return nil, ErrModelNotLoaded
	}
	if len(datetimes) == 0 {
		return []types.ProductionPoint{}, nil
	}

	minDate, maxDate := datetimes[0], datetimes[0]
	for _, dt := range datetimes[1:] {
		if dt.Before(minDate) {
			minDate = dt
		}
		if dt.After(maxDate) {
			maxDate = dt
		}
	}

	weather, err := p.fetchHourlyWeather(ctx, lat, lon, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}

	apiTimes := make([]time.Time, len(weather.Hourly.Time))
	for i, s := range weather.Hourly.Time {
		t, err := time.Parse(hourlyTimeFormat, s)
		if err != nil {
			return nil, fmt.Errorf("invalid hourly timestamp %q: %w", s, err)
		}
		apiTimes[i] = t
	}
	if len(apiTimes) == 0 {
		return nil, fmt.Errorf("weather response contained no hourly data")
	}

	results := make([]types.ProductionPoint, 0, len(datetimes))
	for _, target := range datetimes {
		idx := closestHourIndex(apiTimes, target.Truncate(time.Hour))

		radiation := math.Max(0, weather.Hourly.ShortwaveRadiation[idx])
		features := map[string]float64{
			"temperature_2m":       weather.Hourly.Temperature2M[idx],
			"relative_humidity_2m": weather.Hourly.RelativeHumidity2M[idx],
			"wind_speed_10m":       weather.Hourly.WindSpeed10M[idx],
			"cloud_cover":          weather.Hourly.CloudCover[idx],
			"shortwave_radiation":  radiation,
		}
		addCyclical(features, "hour", float64(target.Hour()), 24)
		addCyclical(features, "month", float64(target.Month()), 12)

		results = append(results, types.ProductionPoint{
			Datetime:     target,
			ProductionKW: round2(p.model.Predict(features)),
			Weather: &types.PointWeather{
				Temperature2M:      round1(weather.Hourly.Temperature2M[idx]),
				RelativeHumidity2M: round1(weather.Hourly.RelativeHumidity2M[idx]),
				WindSpeed10M:       round1(weather.Hourly.WindSpeed10M[idx]),
				CloudCover:         round1(weather.Hourly.CloudCover[idx]),
				ShortwaveRadiation: round1(radiation),
			},
		})
	}
	return results, nil
}

// PredictNextHours predicts production for the next n hours starting now.
func (p *ProductionPredictor) PredictNextHours(ctx context.Context, hours int, lat, lon float64) ([]types.ProductionPoint, error) {
	now := time.Now().UTC()
	datetimes := make([]time.Time, 0, hours)
	for h := 0; h < hours; h++ {
		datetimes = append(datetimes, now.Add(time.Duration(h)*time.Hour))
	}
	return p.Predict(ctx, datetimes, lat, lon)
}

// PredictForHours predicts production for specific hours of the given day at
// the default location. Hours outside 0-23 are skipped and duplicates are
// collapsed.
func (p *ProductionPredictor) PredictForHours(ctx context.Context, date time.Time, hours []int) ([]types.ProductionPoint, error) {
	datetimes := hoursToDatetimes(date, hours)
	return p.Predict(ctx, datetimes, p.defaultLat, p.defaultLon)
}

// PredictDateRange predicts production for every hour between start and end,
// inclusive.
func (p *ProductionPredictor) PredictDateRange(ctx context.Context, start, end time.Time, lat, lon float64) ([]types.ProductionPoint, error) {
	var datetimes []time.Time
	for current := start; !current.After(end); current = current.Add(time.Hour) {
		datetimes = append(datetimes, current)
	}
	return p.Predict(ctx, datetimes, lat, lon)
}

func (p *ProductionPredictor) fetchHourlyWeather(ctx context.Context, lat, lon float64, start, end time.Time) (*hourlyWeatherResponse, error) {
	u, err := url.Parse(p.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", lat))
	params.Set("longitude", fmt.Sprintf("%g", lon))
	params.Set("hourly", "temperature_2m,relative_humidity_2m,wind_speed_10m,cloud_cover,shortwave_radiation")
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	params.Set("timezone", "auto")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hourly weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo api returned status: %d", resp.StatusCode)
	}
	var out hourlyWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func closestHourIndex(apiTimes []time.Time, target time.Time) int {
	best := 0
	bestDiff := math.MaxFloat64
	for i, t := range apiTimes {
		diff := math.Abs(t.Sub(target).Seconds())
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

func addCyclical(features map[string]float64, name string, value, period float64) {
	features[name+"_sin"] = math.Sin(2 * math.Pi * value / period)
	features[name+"_cos"] = math.Cos(2 * math.Pi * value / period)
}

func hoursToDatetimes(date time.Time, hours []int) []time.Time {
	sorted := make([]int, 0, len(hours))
	seen := make(map[int]bool, len(hours))
	for _, h := range hours {
		if h < 0 || h > 23 || seen[h] {
			continue
		}
		seen[h] = true
		sorted = append(sorted, h)
	}
	sort.Ints(sorted)

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	datetimes := make([]time.Time, 0, len(sorted))
	for _, h := range sorted {
		datetimes = append(datetimes, day.Add(time.Duration(h)*time.Hour))
	}
	return datetimes
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
