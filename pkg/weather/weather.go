// Package weather retrieves current conditions and the multi-day forecast
// that feed the prediction engine. It talks to the Open-Meteo forecast API
// and falls back to a synthetic generator when the API is unreachable, so the
// rest of the system always has a snapshot to work with.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/soltwin/soltwin/pkg/common"
	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/types"
)

const (
	defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

	// snapshotTTL is how long a fetched snapshot is reused before the
	// provider is queried again.
	snapshotTTL = time.Minute

	fallbackProvider = "Datos simulados (Open-Meteo no disponible)"
)

// Source fetches a weather snapshot for a location. The array capacity is
// passed through so the source can size the per-day production estimates.
type Source interface {
	Fetch(ctx context.Context, lat, lon, capacityKW float64, locationName string) (types.WeatherSnapshot, error)
}

// Service caches snapshots from a Source and degrades to synthetic data when
// the source fails.
type Service struct {
	source    Source
	synthetic *Synthetic
	now       func() time.Time

	mu        sync.Mutex
	cached    types.WeatherSnapshot
	fetchedAt time.Time
}

// Option adjusts a Service, used by tests.
type Option func(*Service)

// WithNow overrides the clock used for cache expiry and synthetic data.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.synthetic = NewSynthetic(s.synthetic.rand, now)
	}
}

// WithRand overrides the random source used by the synthetic generator.
func WithRand(randFloat func() float64) Option {
	return func(s *Service) {
		s.synthetic = NewSynthetic(randFloat, s.now)
	}
}

// New returns a Service backed by the given source.
func New(source Source, opts ...Option) *Service {
	s := &Service{
		source:    source,
		now:       time.Now,
		synthetic: NewSynthetic(rand.Float64, time.Now),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Configured sets up flags for the weather service and returns the instance.
func Configured() *Service {
	s := New(nil)
	apiURL := lflag.String("openmeteo-api-url", defaultOpenMeteoURL, "URL for the Open-Meteo forecast API")

	lflag.Do(func() {
		s.source = &OpenMeteo{
			apiURL: *apiURL,
			client: common.HTTPClient(15 * time.Second),
		}
	})

	return s
}

// Validate ensures the configuration is valid.
func (s *Service) Validate() error {
	o, ok := s.source.(*OpenMeteo)
	if !ok {
		return nil
	}
	if o.apiURL == "" {
		return fmt.Errorf("openmeteo-api-url is required")
	}
	if _, err := url.Parse(o.apiURL); err != nil {
		return fmt.Errorf("failed to parse open-meteo url (%s): %w", o.apiURL, err)
	}
	return nil
}

// Snapshot returns the weather for the location, serving a cached snapshot
// if one was fetched within the last minute. A failed fetch never surfaces as
// an error: the caller gets synthetic data labeled as simulated instead.
func (s *Service) Snapshot(ctx context.Context, lat, lon, capacityKW float64, locationName string) types.WeatherSnapshot {
	now := s.now()

	s.mu.Lock()
	if !s.fetchedAt.IsZero() && now.Sub(s.fetchedAt) < snapshotTTL {
		cached := s.cached
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	snapshot, err := s.source.Fetch(ctx, lat, lon, capacityKW, locationName)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "weather fetch failed, using synthetic data",
			slog.Any("error", err))
		snapshot = s.synthetic.Generate(capacityKW)
		snapshot.Provider = fallbackProvider
		snapshot.LocationName = locationName
		snapshot.LastUpdated = now.UTC()
		return snapshot
	}

	s.mu.Lock()
	s.cached = snapshot
	s.fetchedAt = now
	s.mu.Unlock()
	return snapshot
}
